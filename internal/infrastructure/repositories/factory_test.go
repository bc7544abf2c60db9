package repositories

import (
	"context"
	"testing"

	"rtckit/internal/infrastructure/repositories/memory"
	"rtckit/internal/infrastructure/reliability"
	"rtckit/pkg/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRepositoryFactory_Memory(t *testing.T) {
	cfg := config.DefaultConfig()

	factory, err := NewRepositoryFactory(cfg, zap.NewNop().Sugar())
	require.NoError(t, err)
	defer factory.Close()

	assert.Nil(t, factory.RedisClient())
	assert.IsType(t, &memory.MemorySharedFileRepository{}, factory.CreateSharedFileRepository())
	assert.NoError(t, factory.HealthCheck(context.Background()))
}

func TestRepositoryFactory_Redis(t *testing.T) {
	server := miniredis.RunT(t)
	cfg := config.DefaultConfig()
	cfg.Redis.Enabled = true
	cfg.Redis.Address = server.Addr()

	factory, err := NewRepositoryFactory(cfg, zap.NewNop().Sugar())
	require.NoError(t, err)
	defer factory.Close()

	assert.NotNil(t, factory.RedisClient())
	assert.IsType(t, &reliability.SharedFileRepository{}, factory.CreateSharedFileRepository())
	assert.NoError(t, factory.HealthCheck(context.Background()))
}

func TestRepositoryFactory_RedisFallback(t *testing.T) {
	server := miniredis.RunT(t)
	addr := server.Addr()
	server.Close()

	cfg := config.DefaultConfig()
	cfg.Redis.Enabled = true
	cfg.Redis.Address = addr

	factory, err := NewRepositoryFactory(cfg, zap.NewNop().Sugar())
	require.NoError(t, err)

	assert.Nil(t, factory.RedisClient())
	assert.IsType(t, &memory.MemorySharedFileRepository{}, factory.CreateSharedFileRepository())
}
