package reliability

import (
	"context"
	"errors"

	"rtckit/internal/core/domain"
	"rtckit/internal/core/ports"
	"rtckit/pkg/circuitbreaker"
	"rtckit/pkg/retry"

	"go.uber.org/zap"
)

// SharedFileRepository retries transient storage failures and stops calling a
// store that keeps failing. Domain errors pass straight through and do not
// count against the breaker.
type SharedFileRepository struct {
	repo    ports.SharedFileRepository
	retry   retry.Config
	breaker *circuitbreaker.CircuitBreaker
	logger  *zap.SugaredLogger
}

func NewSharedFileRepository(
	repo ports.SharedFileRepository,
	retryConfig retry.Config,
	cbConfig circuitbreaker.Config,
	logger *zap.SugaredLogger,
) *SharedFileRepository {
	w := &SharedFileRepository{
		repo:    repo,
		retry:   retryConfig,
		breaker: circuitbreaker.New(cbConfig),
		logger:  logger,
	}
	w.breaker.OnStateChange(func(from, to circuitbreaker.State) {
		logger.Warnw("shared file store circuit breaker state changed",
			"from", from.String(),
			"to", to.String(),
		)
	})
	return w
}

func isDomainError(err error) bool {
	return errors.Is(err, domain.ErrSharedFileNotFound) ||
		errors.Is(err, domain.ErrSharedFileExists)
}

func (w *SharedFileRepository) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var domainErr error
	err := w.breaker.Execute(func() error {
		return retry.Do(ctx, w.retry, func(ctx context.Context) error {
			err := fn(ctx)
			if isDomainError(err) {
				domainErr = err
				return nil
			}
			return err
		})
	})
	if domainErr != nil {
		return domainErr
	}
	if err != nil {
		w.logger.Warnw("shared file store operation failed", "op", op, "error", err)
	}
	return err
}

func (w *SharedFileRepository) Create(ctx context.Context, file domain.SharedFile) error {
	return w.call(ctx, "create", func(ctx context.Context) error {
		return w.repo.Create(ctx, file)
	})
}

func (w *SharedFileRepository) GetByID(ctx context.Context, id domain.FileID) (domain.SharedFile, error) {
	var file domain.SharedFile
	err := w.call(ctx, "get", func(ctx context.Context) error {
		var err error
		file, err = w.repo.GetByID(ctx, id)
		return err
	})
	return file, err
}

func (w *SharedFileRepository) ListBySession(ctx context.Context, session domain.SessionID) ([]domain.SharedFile, error) {
	var files []domain.SharedFile
	err := w.call(ctx, "list", func(ctx context.Context) error {
		var err error
		files, err = w.repo.ListBySession(ctx, session)
		return err
	})
	return files, err
}

func (w *SharedFileRepository) Delete(ctx context.Context, id domain.FileID) error {
	return w.call(ctx, "delete", func(ctx context.Context) error {
		return w.repo.Delete(ctx, id)
	})
}

// State reports the breaker state for readiness checks.
func (w *SharedFileRepository) State() circuitbreaker.State {
	return w.breaker.State()
}
