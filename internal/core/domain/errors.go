package domain

import "errors"

var (
	ErrEmptyIdentityURI   = errors.New("identity uri is required")
	ErrInvalidSession     = errors.New("invalid session")
	ErrInvalidFilename    = errors.New("invalid filename")
	ErrInvalidFilesize    = errors.New("invalid filesize")
	ErrFileTooLarge       = errors.New("file too large")
	ErrSharedFileNotFound = errors.New("shared file not found")
	ErrSharedFileExists   = errors.New("shared file already exists")
	ErrNotUploader        = errors.New("only the uploader may remove a shared file")
	ErrRemoteSDPRequired  = errors.New("remote offer is required to create an answer")
	ErrInvalidRemoteSDP   = errors.New("remote offer was rejected")
	ErrInvalidDirection   = errors.New("invalid transceiver direction")
)
