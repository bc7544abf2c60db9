package redis

import (
	"context"
	"fmt"
	"time"

	"rtckit/pkg/config"
	"rtckit/pkg/retry"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ClientOptions selects the server and the connection budget for the
// shared-file store and the chat event bus, which share one client.
type ClientOptions struct {
	Address     string
	Password    string
	DB          int
	PoolSize    int
	DialTimeout time.Duration
	// Connect controls how often the initial ping is attempted.
	Connect retry.Config
}

// OptionsFromConfig reads the redis section.
func OptionsFromConfig(cfg *config.Config) ClientOptions {
	return ClientOptions{
		Address:     cfg.Redis.Address,
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		PoolSize:    cfg.Redis.PoolSize,
		DialTimeout: 2 * time.Second,
		Connect:     retry.Config{MaxAttempts: 3, InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2, Jitter: true},
	}
}

// NewRedisClient connects and pings the server, retrying the ping per
// opts.Connect. The client is closed again when every attempt fails.
func NewRedisClient(ctx context.Context, opts ClientOptions, logger *zap.SugaredLogger) (*redis.Client, error) {
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 2 * time.Second
	}
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Address,
		Password:     opts.Password,
		DB:           opts.DB,
		PoolSize:     opts.PoolSize,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})

	err := retry.Do(ctx, opts.Connect, func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
		defer cancel()
		return client.Ping(pingCtx).Err()
	})
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis %s unreachable: %w", opts.Address, err)
	}

	if logger != nil {
		logger.Infow("connected to Redis",
			"address", opts.Address,
			"db", opts.DB,
			"pool_size", opts.PoolSize,
		)
	}
	return client, nil
}

func CloseRedisClient(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
