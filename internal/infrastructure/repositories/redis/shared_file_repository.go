package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"rtckit/internal/core/domain"
	"rtckit/internal/core/ports"
	"rtckit/pkg/tracing"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "rtckit:"

// RedisSharedFileRepository stores each file as JSON under
// rtckit:file:<id> and indexes ids in the set rtckit:session:<id>:files.
// A positive ttl expires both.
type RedisSharedFileRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSharedFileRepository(client *redis.Client, ttl time.Duration) ports.SharedFileRepository {
	return &RedisSharedFileRepository{
		client: client,
		ttl:    ttl,
	}
}

func fileKey(id domain.FileID) string {
	return keyPrefix + "file:" + string(id)
}

func sessionKey(session domain.SessionID) string {
	return keyPrefix + "session:" + string(session) + ":files"
}

func (r *RedisSharedFileRepository) Create(ctx context.Context, file domain.SharedFile) error {
	ctx, span := tracing.TraceRepositoryOperation(ctx, "create", "redis")
	defer span.End()

	data, err := json.Marshal(file)
	if err != nil {
		return fmt.Errorf("failed to marshal shared file: %w", err)
	}

	created, err := r.client.SetNX(ctx, fileKey(file.ID), data, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to set shared file in Redis: %w", err)
	}
	if !created {
		return fmt.Errorf("%w: %s", domain.ErrSharedFileExists, file.ID)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		key := sessionKey(file.Session)
		pipe.SAdd(ctx, key, string(file.ID))
		if r.ttl > 0 {
			pipe.Expire(ctx, key, r.ttl)
		}
		return nil
	})
	if err != nil {
		r.client.Del(ctx, fileKey(file.ID))
		return fmt.Errorf("failed to index shared file: %w", err)
	}
	return nil
}

func (r *RedisSharedFileRepository) GetByID(ctx context.Context, id domain.FileID) (domain.SharedFile, error) {
	ctx, span := tracing.TraceRepositoryOperation(ctx, "get", "redis")
	defer span.End()

	data, err := r.client.Get(ctx, fileKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.SharedFile{}, domain.ErrSharedFileNotFound
	}
	if err != nil {
		return domain.SharedFile{}, fmt.Errorf("failed to get shared file from Redis: %w", err)
	}

	var file domain.SharedFile
	if err := json.Unmarshal(data, &file); err != nil {
		return domain.SharedFile{}, fmt.Errorf("failed to unmarshal shared file: %w", err)
	}
	return file, nil
}

// ListBySession resolves the session index. Ids whose record has expired are
// pruned from the index on the way.
func (r *RedisSharedFileRepository) ListBySession(ctx context.Context, session domain.SessionID) ([]domain.SharedFile, error) {
	ctx, span := tracing.TraceRepositoryOperation(ctx, "list", "redis")
	defer span.End()

	ids, err := r.client.SMembers(ctx, sessionKey(session)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list session files: %w", err)
	}
	if len(ids) == 0 {
		return []domain.SharedFile{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = fileKey(domain.FileID(id))
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load session files: %w", err)
	}

	files := make([]domain.SharedFile, 0, len(values))
	var stale []interface{}
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			stale = append(stale, ids[i])
			continue
		}
		var file domain.SharedFile
		if err := json.Unmarshal([]byte(raw), &file); err != nil {
			return nil, fmt.Errorf("failed to unmarshal shared file %s: %w", ids[i], err)
		}
		files = append(files, file)
	}

	if len(stale) > 0 {
		r.client.SRem(ctx, sessionKey(session), stale...)
	}
	return files, nil
}

func (r *RedisSharedFileRepository) Delete(ctx context.Context, id domain.FileID) error {
	file, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	ctx, span := tracing.TraceRepositoryOperation(ctx, "delete", "redis")
	defer span.End()

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, fileKey(id))
		pipe.SRem(ctx, sessionKey(file.Session), string(id))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete shared file from Redis: %w", err)
	}
	return nil
}
