package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/abhisek/mcqflow/internal/pipeline"
)

const (
	defaultRedisPrefix = "mcqflow"
	recentRunsLimit    = 100
)

// RedisSink stores each result under <prefix>:run:<id> and keeps the most
// recent run IDs in the list <prefix>:runs.
type RedisSink struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisOptions configures a RedisSink.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration // zero keeps results forever
}

// NewRedisSink connects to Redis and verifies the connection.
func NewRedisSink(ctx context.Context, opts RedisOptions) (*RedisSink, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
	}
	return newRedisSink(client, opts), nil
}

func newRedisSink(client *redis.Client, opts RedisOptions) *RedisSink {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisSink{client: client, prefix: prefix, ttl: opts.TTL}
}

func (r *RedisSink) runKey(id string) string { return r.prefix + ":run:" + id }
func (r *RedisSink) listKey() string         { return r.prefix + ":runs" }

func (r *RedisSink) Save(ctx context.Context, result *pipeline.RunResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode run %s: %w", result.ID, err)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.runKey(result.ID), data, r.ttl)
	pipe.LPush(ctx, r.listKey(), result.ID)
	pipe.LTrim(ctx, r.listKey(), 0, recentRunsLimit-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis save run %s: %w", result.ID, err)
	}
	return nil
}

// Get loads a stored result, or returns nil if it is absent or expired.
func (r *RedisSink) Get(ctx context.Context, id string) (*pipeline.RunResult, error) {
	data, err := r.client.Get(ctx, r.runKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get run %s: %w", id, err)
	}
	var result pipeline.RunResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode run %s: %w", id, err)
	}
	return &result, nil
}

// Recent returns up to n run IDs, newest first.
func (r *RedisSink) Recent(ctx context.Context, n int) ([]string, error) {
	return r.client.LRange(ctx, r.listKey(), 0, int64(n-1)).Result()
}

// Close releases the Redis connection.
func (r *RedisSink) Close() error {
	return r.client.Close()
}
