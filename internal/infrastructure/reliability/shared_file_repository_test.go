package reliability

import (
	"context"
	"errors"
	"testing"
	"time"

	"rtckit/internal/core/domain"
	"rtckit/internal/infrastructure/repositories/memory"
	"rtckit/pkg/circuitbreaker"
	"rtckit/pkg/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var errDown = errors.New("connection refused")

// flakyRepository fails the first n calls of every method.
type flakyRepository struct {
	*memory.MemorySharedFileRepository
	failures int
	calls    int
}

func (f *flakyRepository) fail() error {
	f.calls++
	if f.failures > 0 {
		f.failures--
		return errDown
	}
	return nil
}

func (f *flakyRepository) Create(ctx context.Context, file domain.SharedFile) error {
	if err := f.fail(); err != nil {
		return err
	}
	return f.MemorySharedFileRepository.Create(ctx, file)
}

func (f *flakyRepository) GetByID(ctx context.Context, id domain.FileID) (domain.SharedFile, error) {
	if err := f.fail(); err != nil {
		return domain.SharedFile{}, err
	}
	return f.MemorySharedFileRepository.GetByID(ctx, id)
}

func newFlaky(failures int) *flakyRepository {
	return &flakyRepository{
		MemorySharedFileRepository: memory.NewMemorySharedFileRepository().(*memory.MemorySharedFileRepository),
		failures:                   failures,
	}
}

func quickRetry(attempts int) retry.Config {
	return retry.Config{MaxAttempts: attempts, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}
}

func sharedFile(t *testing.T) domain.SharedFile {
	t.Helper()
	file, err := domain.NewSharedFile("room", domain.Identity{URI: "sip:erin@example.com"}, "f.txt", 1)
	require.NoError(t, err)
	return file
}

func TestSharedFileRepository_RetriesTransientErrors(t *testing.T) {
	flaky := newFlaky(2)
	repo := NewSharedFileRepository(flaky, quickRetry(3), circuitbreaker.DefaultConfig(), zap.NewNop().Sugar())
	ctx := context.Background()

	file := sharedFile(t)
	require.NoError(t, repo.Create(ctx, file))
	assert.Equal(t, 3, flaky.calls)

	got, err := repo.GetByID(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, file.ID, got.ID)

	files, err := repo.ListBySession(ctx, "room")
	require.NoError(t, err)
	assert.Len(t, files, 1)

	require.NoError(t, repo.Delete(ctx, file.ID))
}

func TestSharedFileRepository_DomainErrorsPassThrough(t *testing.T) {
	flaky := newFlaky(0)
	repo := NewSharedFileRepository(flaky, quickRetry(3), circuitbreaker.Config{FailureThreshold: 1, Timeout: time.Hour}, zap.NewNop().Sugar())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := repo.GetByID(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrSharedFileNotFound)
	}
	assert.Equal(t, 3, flaky.calls, "not found is not retried")
	assert.Equal(t, circuitbreaker.StateClosed, repo.State())

	file := sharedFile(t)
	require.NoError(t, repo.Create(ctx, file))
	assert.ErrorIs(t, repo.Create(ctx, file), domain.ErrSharedFileExists)
	assert.ErrorIs(t, repo.Delete(ctx, "missing"), domain.ErrSharedFileNotFound)
}

func TestSharedFileRepository_OpensBreaker(t *testing.T) {
	flaky := newFlaky(100)
	repo := NewSharedFileRepository(flaky, quickRetry(2), circuitbreaker.Config{FailureThreshold: 2, Timeout: time.Hour}, zap.NewNop().Sugar())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := repo.GetByID(ctx, "x")
		assert.ErrorIs(t, err, errDown)
	}
	assert.Equal(t, circuitbreaker.StateOpen, repo.State())

	calls := flaky.calls
	_, err := repo.GetByID(ctx, "x")
	assert.ErrorIs(t, err, circuitbreaker.ErrOpen)
	assert.Equal(t, calls, flaky.calls)
}
