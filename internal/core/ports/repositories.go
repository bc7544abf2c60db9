package ports

import (
	"context"

	"rtckit/internal/core/domain"
)

type SharedFileRepository interface {
	Create(ctx context.Context, file domain.SharedFile) error
	GetByID(ctx context.Context, id domain.FileID) (domain.SharedFile, error)
	ListBySession(ctx context.Context, session domain.SessionID) ([]domain.SharedFile, error)
	Delete(ctx context.Context, id domain.FileID) error
}
