package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type SessionID string
type FileID string

type SharedFile struct {
	ID       FileID    `json:"id"`
	Filename string    `json:"filename"`
	Filesize int64     `json:"filesize"`
	Uploader Identity  `json:"uploader"`
	Session  SessionID `json:"session"`
	SharedAt time.Time `json:"shared_at"`
}

func NewSharedFile(session SessionID, uploader Identity, filename string, filesize int64) (SharedFile, error) {
	switch {
	case strings.TrimSpace(string(session)) == "":
		return SharedFile{}, ErrInvalidSession
	case uploader.URI == "":
		return SharedFile{}, ErrEmptyIdentityURI
	case strings.TrimSpace(filename) == "":
		return SharedFile{}, ErrInvalidFilename
	case filesize < 0:
		return SharedFile{}, ErrInvalidFilesize
	}

	return SharedFile{
		ID:       FileID(uuid.New().String()),
		Filename: filename,
		Filesize: filesize,
		Uploader: uploader,
		Session:  session,
		SharedAt: time.Now().UTC(),
	}, nil
}
