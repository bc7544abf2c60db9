package services

import (
	"context"
	"fmt"
	"sort"

	"rtckit/internal/core/domain"
	"rtckit/internal/core/ports"
	"rtckit/pkg/tracing"
	"rtckit/pkg/validation"

	"go.uber.org/zap"
)

type SharedFileConfig struct {
	MaxFilesize       int64
	MaxFilenameLength int
}

type sharedFileService struct {
	repo     ports.SharedFileRepository
	config   SharedFileConfig
	notifier ports.FileShareNotifier // Optional, can be nil
	metrics  ports.MetricsRecorder
	logger   *zap.SugaredLogger
}

func NewSharedFileService(
	repo ports.SharedFileRepository,
	config SharedFileConfig,
	notifier ports.FileShareNotifier, // Can be nil when nobody listens for shares
	metrics ports.MetricsRecorder,
	logger *zap.SugaredLogger,
) ports.SharedFileService {
	return &sharedFileService{
		repo:     repo,
		config:   config,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger,
	}
}

func (s *sharedFileService) Share(
	ctx context.Context,
	session domain.SessionID,
	uploader domain.Identity,
	filename string,
	filesize int64,
) (domain.SharedFile, error) {
	if err := validation.ValidateFilename(filename, s.config.MaxFilenameLength); err != nil {
		return domain.SharedFile{}, fmt.Errorf("%w: %v", domain.ErrInvalidFilename, err)
	}
	if s.config.MaxFilesize > 0 && filesize > s.config.MaxFilesize {
		return domain.SharedFile{}, fmt.Errorf("%w: %d bytes exceeds %d", domain.ErrFileTooLarge, filesize, s.config.MaxFilesize)
	}

	file, err := domain.NewSharedFile(session, uploader, filename, filesize)
	if err != nil {
		return domain.SharedFile{}, err
	}

	if err := s.repo.Create(ctx, file); err != nil {
		return domain.SharedFile{}, fmt.Errorf("failed to store shared file: %w", err)
	}

	tracing.AddSpanAttributes(ctx, tracing.SessionIDKey.String(string(session)), tracing.FileIDKey.String(string(file.ID)))
	s.metrics.RecordFileShared()
	s.logger.Infow("file shared",
		"session_id", session,
		"file_id", file.ID,
		"uploader", uploader.URI,
		"filesize", filesize,
	)

	if s.notifier != nil {
		s.notifier.NotifyFileShared(ctx, file)
	}
	return file, nil
}

// List returns the session's files, oldest first.
func (s *sharedFileService) List(ctx context.Context, session domain.SessionID) ([]domain.SharedFile, error) {
	files, err := s.repo.ListBySession(ctx, session)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].SharedAt.Before(files[j].SharedAt)
	})
	return files, nil
}

func (s *sharedFileService) Get(ctx context.Context, id domain.FileID) (domain.SharedFile, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *sharedFileService) Remove(ctx context.Context, requester domain.Identity, id domain.FileID) error {
	file, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !file.Uploader.Equal(requester) {
		return domain.ErrNotUploader
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Infow("shared file removed", "session_id", file.Session, "file_id", id, "by", requester.URI)
	return nil
}
