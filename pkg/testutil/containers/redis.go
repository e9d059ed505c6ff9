//go:build integration

package containers

import (
	"context"
	"fmt"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

const redisImage = "redis:7-alpine"

// RedisContainer is the shared Redis used by the kitty store suites. Suites
// isolate themselves by key prefix rather than by database.
type RedisContainer struct {
	Container testcontainers.Container
	URL       string
	Client    *redis.Client
}

func NewRedisContainer(t *testing.T) *RedisContainer {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, redisImage)
	if err != nil {
		t.Fatalf("start redis container: %v", err)
	}

	url, err := container.ConnectionString(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("redis connection string: %v", err)
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("parse redis url %q: %v", url, err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("ping redis: %v", err)
	}

	// Owned by the Manager for the whole run; ryuk removes it.
	return &RedisContainer{Container: container, URL: url, Client: client}
}

// DeletePrefix removes every key under prefix, e.g. one suite's kitty
// namespace, leaving other suites' keys alone.
func (r *RedisContainer) DeletePrefix(ctx context.Context, prefix string) error {
	keys, err := r.Keys(ctx, prefix)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.Client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete %d keys under %q: %w", len(keys), prefix, err)
	}
	return nil
}

// Keys lists the keys under prefix using SCAN.
func (r *RedisContainer) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := r.Client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan keys under %q: %w", prefix, err)
	}
	return keys, nil
}
