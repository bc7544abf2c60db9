package ports

import (
	"context"
	"time"

	"rtckit/internal/core/domain"
)

type SDPService interface {
	Munge(ctx context.Context, sdp, preferredCodec string) (string, error)
	MediaDirections(ctx context.Context, sdp string) (map[string][]string, error)
	CreateLocalDescription(ctx context.Context, req domain.LocalDescriptionRequest) (domain.LocalDescription, error)
}

type SharedFileService interface {
	Share(ctx context.Context, session domain.SessionID, uploader domain.Identity, filename string, filesize int64) (domain.SharedFile, error)
	List(ctx context.Context, session domain.SessionID) ([]domain.SharedFile, error)
	Get(ctx context.Context, id domain.FileID) (domain.SharedFile, error)
	Remove(ctx context.Context, requester domain.Identity, id domain.FileID) error
}

// FileShareNotifier is told about every successfully shared file.
type FileShareNotifier interface {
	NotifyFileShared(ctx context.Context, file domain.SharedFile)
}

// Munge outcomes reported to MetricsRecorder.RecordMunge.
const (
	MungeResultOK      = "ok"
	MungeResultInvalid = "invalid_sdp"
	MungeResultNoVideo = "no_video"
)

type MetricsRecorder interface {
	RecordMunge(result string)
	ObserveNegotiation(sdpType string, duration time.Duration)
	RecordHTMLSanitized()
	RecordFileShared()
	ChatConnectionOpened()
	ChatConnectionClosed()
}
