package repositories

import (
	"context"

	"rtckit/internal/core/ports"
	"rtckit/internal/infrastructure/repositories/memory"
	redisrepo "rtckit/internal/infrastructure/repositories/redis"
	"rtckit/internal/infrastructure/reliability"
	"rtckit/pkg/circuitbreaker"
	"rtckit/pkg/config"
	"rtckit/pkg/retry"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RepositoryFactory creates repositories with fallback support
type RepositoryFactory struct {
	useRedis    bool
	redisClient *redis.Client
	cfg         *config.Config
	logger      *zap.SugaredLogger
}

// NewRepositoryFactory connects to Redis when enabled and falls back to
// in-memory storage if the connection fails.
func NewRepositoryFactory(cfg *config.Config, logger *zap.SugaredLogger) (*RepositoryFactory, error) {
	factory := &RepositoryFactory{
		useRedis: cfg.Redis.Enabled,
		cfg:      cfg,
		logger:   logger,
	}

	if cfg.Redis.Enabled {
		client, err := redisrepo.NewRedisClient(context.Background(), redisrepo.OptionsFromConfig(cfg), logger)
		if err != nil {
			logger.Warnw("failed to connect to Redis, falling back to memory repositories",
				"error", err,
			)
			factory.useRedis = false
		} else {
			factory.redisClient = client
			logger.Info("using Redis repositories")
		}
	}

	if !factory.useRedis {
		logger.Info("using memory repositories")
	}

	return factory, nil
}

// CreateSharedFileRepository returns the Redis store behind retries and a
// circuit breaker, or the memory store.
func (f *RepositoryFactory) CreateSharedFileRepository() ports.SharedFileRepository {
	if f.useRedis && f.redisClient != nil {
		return reliability.NewSharedFileRepository(
			redisrepo.NewRedisSharedFileRepository(f.redisClient, f.cfg.Files.TTL),
			retry.DefaultConfig(),
			circuitbreaker.DefaultConfig(),
			f.logger,
		)
	}
	return memory.NewMemorySharedFileRepository()
}

// RedisClient returns the live client, or nil when running on memory.
func (f *RepositoryFactory) RedisClient() *redis.Client {
	return f.redisClient
}

func (f *RepositoryFactory) Close() error {
	if f.redisClient != nil {
		return redisrepo.CloseRedisClient(f.redisClient)
	}
	return nil
}

func (f *RepositoryFactory) HealthCheck(ctx context.Context) error {
	if f.useRedis && f.redisClient != nil {
		return f.redisClient.Ping(ctx).Err()
	}
	return nil
}
