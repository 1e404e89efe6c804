package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spigell/talent-matcher/internal/domain"
)

const (
	defaultPrefix = "talent-matcher:score"
	defaultTTL    = 24 * time.Hour
)

// RedisClient is the subset of *redis.Client used by the cache.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Redis stores breakdowns as JSON values under prefix:key.
type Redis struct {
	client RedisClient
	prefix string
	ttl    time.Duration
}

func NewRedis(client RedisClient, prefix string, ttl time.Duration) *Redis {
	if prefix == "" {
		prefix = defaultPrefix
	}
	if ttl == 0 {
		ttl = defaultTTL
	}
	return &Redis{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// RedisOptions is the redis section of the configuration.
type RedisOptions struct {
	Addr     string `mapstructure:"addr"`
	DB       int    `mapstructure:"db"`
	Password string `mapstructure:"-"`
}

// NewRedisClient opens a client; connections are established lazily by go-redis.
func NewRedisClient(opts RedisOptions) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		DB:       opts.DB,
		Password: opts.Password,
	})
}

func (r *Redis) Get(ctx context.Context, key string) (domain.ScoreBreakdown, bool, error) {
	raw, err := r.client.Get(ctx, r.makeKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.ScoreBreakdown{}, false, nil
	}
	if err != nil {
		return domain.ScoreBreakdown{}, false, fmt.Errorf("redis get: %w", err)
	}

	var b domain.ScoreBreakdown
	if err := json.Unmarshal(raw, &b); err != nil {
		return domain.ScoreBreakdown{}, false, fmt.Errorf("decode cached breakdown: %w", err)
	}
	return b, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, b domain.ScoreBreakdown) error {
	payload, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode breakdown: %w", err)
	}
	if err := r.client.Set(ctx, r.makeKey(key), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *Redis) makeKey(key string) string {
	return r.prefix + ":" + key
}
