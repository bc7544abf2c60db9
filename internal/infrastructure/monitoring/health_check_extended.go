package monitoring

import (
	"context"
	"time"

	"rtckit/internal/core/domain"
	"rtckit/internal/core/ports"

	"github.com/redis/go-redis/v9"
)

const probeSession domain.SessionID = "__readiness__"

func (h *HealthChecker) AddRedisCheck(client *redis.Client, timeout time.Duration) {
	h.AddCheck("redis", func(ctx context.Context) (bool, error) {
		if err := client.Ping(ctx).Err(); err != nil {
			return false, err
		}
		return true, nil
	}, timeout)
}

// AddRepositoryCheck lists files of a probe session to prove the shared-file
// store answers queries.
func (h *HealthChecker) AddRepositoryCheck(repo ports.SharedFileRepository, timeout time.Duration) {
	h.AddCheck("shared_files", func(ctx context.Context) (bool, error) {
		if _, err := repo.ListBySession(ctx, probeSession); err != nil {
			return false, err
		}
		return true, nil
	}, timeout)
}
