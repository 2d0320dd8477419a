package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"travel-search/internal/config"
	"travel-search/internal/usecase"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const fallbackTTL = 600 * time.Second

var ErrUnavailable = errors.New("redis unavailable")

// Redis is the shared key-value store behind every cache-aside path.
// When the server could not be reached at startup the store runs in
// bypass mode: reads miss and writes are dropped.
type Redis struct {
	client     *redis.Client
	logger     zerolog.Logger
	defaultTTL time.Duration

	warnedUnavailable atomic.Bool
}

func NewRedis(cfg config.RedisConfig, logger zerolog.Logger) *Redis {
	opts, err := redisOptions(cfg)
	if err != nil {
		logger.Warn().Err(err).Msg("[Cache] Invalid Redis config, bypassing cache")
		return &Redis{logger: logger, defaultTTL: cfg.DefaultTTL}
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Str("addr", opts.Addr).Msg("[Cache] Redis unavailable, bypassing cache")
		_ = client.Close()
		return &Redis{logger: logger, defaultTTL: cfg.DefaultTTL}
	}

	logger.Info().Str("addr", opts.Addr).Msg("[Cache] Redis connected")
	return &Redis{client: client, logger: logger, defaultTTL: cfg.DefaultTTL}
}

// NewRedisFromClient wraps an existing client. A nil client yields a
// store in bypass mode.
func NewRedisFromClient(client *redis.Client, defaultTTL time.Duration, logger zerolog.Logger) *Redis {
	return &Redis{client: client, logger: logger, defaultTTL: defaultTTL}
}

func redisOptions(cfg config.RedisConfig) (*redis.Options, error) {
	if u := strings.TrimSpace(cfg.URL); u != "" {
		return redis.ParseURL(u)
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "localhost"
	}
	port := strings.TrimSpace(cfg.Port)
	if port == "" {
		port = "6379"
	}
	return &redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: cfg.Password,
		DB:       cfg.DB,
	}, nil
}

// Client exposes the underlying client for components sharing the
// connection (the pub/sub relay). It is nil in bypass mode.
func (r *Redis) Client() *redis.Client {
	if r == nil {
		return nil
	}
	return r.client
}

func (r *Redis) Available() bool {
	return !r.isUnavailable()
}

func (r *Redis) isUnavailable() bool {
	return r == nil || r.client == nil
}

func (r *Redis) warnUnavailableOnce(err error) {
	if r == nil {
		return
	}
	if r.warnedUnavailable.CompareAndSwap(false, true) {
		r.logger.Warn().Err(err).Msg("[Cache] Redis unavailable, bypassing cache")
	}
}

func (r *Redis) Ping(ctx context.Context) error {
	if r.isUnavailable() {
		return ErrUnavailable
	}
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	if r.isUnavailable() {
		return nil
	}
	return r.client.Close()
}

// GetJSON decodes the value at key into out. It reports false with a nil
// error when the key is absent or expired.
func (r *Redis) GetJSON(ctx context.Context, key string, out any) (bool, error) {
	if r.isUnavailable() {
		return false, nil
	}
	b, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		r.warnUnavailableOnce(err)
		return false, err
	}
	if len(b) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return false, fmt.Errorf("decode cached value %s: %w", key, err)
	}
	return true, nil
}

// SetJSON overwrites key unconditionally. A non-positive ttl uses the
// store default.
func (r *Redis) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	if r.isUnavailable() {
		return nil
	}
	if ttl <= 0 {
		ttl = r.defaultTTL
	}
	if ttl <= 0 {
		ttl = fallbackTTL
	}
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, key, b, ttl).Err(); err != nil {
		r.warnUnavailableOnce(err)
		return err
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if r.isUnavailable() {
		return nil
	}
	if err := r.client.Del(ctx, key).Err(); err != nil {
		r.warnUnavailableOnce(err)
		return err
	}
	return nil
}

// DeleteByPattern removes every key matching a glob pattern such as
// "hotels:*".
func (r *Redis) DeleteByPattern(ctx context.Context, pattern string) error {
	if r.isUnavailable() {
		return nil
	}
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		return nil
	}

	var firstErr error
	iter := r.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		k := iter.Val()
		if err := r.client.Del(ctx, k).Err(); err != nil {
			r.logger.Error().Err(err).Str("key", k).Str("pattern", pattern).Msg("[Cache] Redis delete error")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	if err := iter.Err(); err != nil {
		r.warnUnavailableOnce(err)
		return err
	}
	return firstErr
}

func (r *Redis) FlushAll(ctx context.Context) error {
	if r.isUnavailable() {
		return nil
	}
	if err := r.client.FlushAll(ctx).Err(); err != nil {
		r.warnUnavailableOnce(err)
		return err
	}
	return nil
}

// Inspect lists keys matching pattern with their remaining TTL and
// value size.
func (r *Redis) Inspect(ctx context.Context, pattern string) ([]usecase.CacheEntry, error) {
	if r.isUnavailable() {
		return nil, ErrUnavailable
	}

	out := make([]usecase.CacheEntry, 0)
	iter := r.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		k := iter.Val()
		ttl, err := r.client.TTL(ctx, k).Result()
		if err != nil {
			return nil, err
		}
		size, err := r.client.StrLen(ctx, k).Result()
		if err != nil {
			return nil, err
		}
		out = append(out, usecase.CacheEntry{Key: k, TTL: ttl, Size: size})
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
