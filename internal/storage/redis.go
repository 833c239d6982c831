package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	redis "github.com/redis/go-redis/v9"
)

const scanBatch = 200

// RedisStore keeps blobs in Redis under "<prefix>:<path>" keys.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore wraps a client. An empty prefix defaults to "outliner".
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "outliner"
	}
	return &RedisStore{client: client, prefix: prefix}
}

// Ensure RedisStore implements Storage
var _ Storage = (*RedisStore)(nil)

func (r *RedisStore) key(p string) (string, error) {
	cleaned := path.Clean(strings.TrimPrefix(p, "/"))
	if cleaned == "." || hasParentRef(cleaned) {
		return "", fmt.Errorf("invalid path %q", p)
	}
	return r.prefix + ":" + cleaned, nil
}

func (r *RedisStore) Save(ctx context.Context, p string, data []byte) error {
	key, err := r.key(p)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to store %s in Redis: %w", p, err)
	}
	return nil
}

func (r *RedisStore) Load(ctx context.Context, p string) ([]byte, error) {
	key, err := r.key(p)
	if err != nil {
		return nil, err
	}
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("reading %s: %w", p, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read %s from Redis: %w", p, err)
	}
	return data, nil
}

// List scans keys matching the glob pattern and returns their paths sorted.
func (r *RedisStore) List(ctx context.Context, pattern string) ([]string, error) {
	match, err := r.key(pattern)
	if err != nil {
		return nil, err
	}

	var (
		cursor uint64
		out    []string
	)
	for {
		keys, next, err := r.client.Scan(ctx, cursor, match, scanBatch).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan Redis keys: %w", err)
		}
		for _, k := range keys {
			rel := strings.TrimPrefix(k, r.prefix+":")
			// SCAN globs let "*" cross "/", filesystem globs do not
			if ok, _ := path.Match(strings.TrimPrefix(match, r.prefix+":"), rel); ok {
				out = append(out, rel)
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	sort.Strings(out)
	return out, nil
}

func (r *RedisStore) Exists(ctx context.Context, p string) bool {
	key, err := r.key(p)
	if err != nil {
		return false
	}
	n, err := r.client.Exists(ctx, key).Result()
	return err == nil && n > 0
}

// Delete removes the key at p, or every key below p when p is a directory.
func (r *RedisStore) Delete(ctx context.Context, p string) error {
	key, err := r.key(p)
	if err != nil {
		return err
	}

	keys := []string{key}
	var cursor uint64
	for {
		batch, next, err := r.client.Scan(ctx, cursor, key+"/*", scanBatch).Result()
		if err != nil {
			return fmt.Errorf("failed to scan Redis keys: %w", err)
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			break
		}
	}

	n, err := r.client.Del(ctx, keys...).Result()
	if err != nil {
		return fmt.Errorf("failed to delete %s from Redis: %w", p, err)
	}
	if n == 0 {
		return fmt.Errorf("deleting %s: %w", p, ErrNotFound)
	}
	return nil
}
