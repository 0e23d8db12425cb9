package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrCacheNotAvailable = errors.New("cache not available")
	ErrCacheNotFound     = errors.New("cache not found")
)

type CacheConfig struct {
	TTL    time.Duration
	Prefix string
}

var (
	// Student-facing exam papers; invalidated when questions are assigned.
	ExamCacheConfig = CacheConfig{
		TTL:    10 * time.Minute,
		Prefix: "exam:",
	}

	// Grade lists and reports; invalidated after every grading run.
	ReportCacheConfig = CacheConfig{
		TTL:    5 * time.Minute,
		Prefix: "report:",
	}

	// Revoked access tokens, kept until the token would have expired anyway.
	AuthCacheConfig = CacheConfig{
		Prefix: "auth:",
	}
)

// CacheHelper is a prefixed JSON cache over redis. A nil client turns every
// operation into a miss or a no-op.
type CacheHelper struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewCacheHelper(client *redis.Client, cfg CacheConfig) *CacheHelper {
	return &CacheHelper{client: client, prefix: cfg.Prefix, ttl: cfg.TTL}
}

func (c *CacheHelper) Available() bool { return c.client != nil }

func (c *CacheHelper) key(k string) string {
	return c.prefix + k
}

func (c *CacheHelper) Get(ctx context.Context, key string, dest interface{}) error {
	if c.client == nil {
		return ErrCacheNotAvailable
	}

	data, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheNotFound
		}
		return fmt.Errorf("cache get error: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("cache unmarshal error: %w", err)
	}
	return nil
}

// Set stores value with ttl, or the helper's default ttl when ttl is zero.
func (c *CacheHelper) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c.client == nil {
		return nil
	}
	if ttl == 0 {
		ttl = c.ttl
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal error: %w", err)
	}
	return c.client.Set(ctx, c.key(key), data, ttl).Err()
}

func (c *CacheHelper) SetString(ctx context.Context, key, value string, ttl time.Duration) error {
	if c.client == nil {
		return nil
	}
	return c.client.Set(ctx, c.key(key), value, ttl).Err()
}

func (c *CacheHelper) Exists(ctx context.Context, key string) (bool, error) {
	if c.client == nil {
		return false, ErrCacheNotAvailable
	}
	n, err := c.client.Exists(ctx, c.key(key)).Result()
	if err != nil {
		return false, fmt.Errorf("cache exists error: %w", err)
	}
	return n > 0, nil
}

func (c *CacheHelper) Delete(ctx context.Context, keys ...string) error {
	if c.client == nil || len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	return c.client.Del(ctx, full...).Err()
}

// InvalidatePattern deletes every key matching pattern, scanning instead of KEYS.
func (c *CacheHelper) InvalidatePattern(ctx context.Context, pattern string) error {
	if c.client == nil {
		return nil
	}

	var (
		cursor uint64
		keys   []string
	)
	for {
		batch, next, err := c.client.Scan(ctx, cursor, c.key(pattern), 100).Result()
		if err != nil {
			return fmt.Errorf("cache scan pattern error: %w", err)
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	if len(keys) == 0 {
		return nil
	}

	pipe := c.client.Pipeline()
	const batchSize = 100
	for i := 0; i < len(keys); i += batchSize {
		end := i + batchSize
		if end > len(keys) {
			end = len(keys)
		}
		pipe.Del(ctx, keys[i:end]...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache pipeline delete error: %w", err)
	}
	return nil
}

// CacheOrExecute is cache-aside: a hit fills dest, a miss runs fetch, stores its result
// and copies it into dest. Cache failures never fail the call.
func (c *CacheHelper) CacheOrExecute(ctx context.Context, key string, dest interface{}, fetch func() (interface{}, error)) error {
	err := c.Get(ctx, key, dest)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrCacheNotFound) && !errors.Is(err, ErrCacheNotAvailable) {
		slog.WarnContext(ctx, "Cache get error, proceeding to fetch", "error", err, "key", c.key(key))
	}

	value, err := fetch()
	if err != nil {
		return err
	}

	if err := c.Set(ctx, key, value, 0); err != nil {
		slog.WarnContext(ctx, "Cache set error", "error", err, "key", c.key(key))
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal result error: %w", err)
	}
	return json.Unmarshal(data, dest)
}

// CacheManager groups the helpers used by the services.
type CacheManager struct {
	client *redis.Client

	Exam   *CacheHelper
	Report *CacheHelper
	Auth   *CacheHelper
}

// NewCacheManager accepts a nil client; every helper then degrades to a no-op.
func NewCacheManager(client *redis.Client) *CacheManager {
	return &CacheManager{
		client: client,
		Exam:   NewCacheHelper(client, ExamCacheConfig),
		Report: NewCacheHelper(client, ReportCacheConfig),
		Auth:   NewCacheHelper(client, AuthCacheConfig),
	}
}

func (cm *CacheManager) HealthCheck(ctx context.Context) error {
	if cm.client == nil {
		return ErrCacheNotAvailable
	}
	if err := cm.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("cache health check failed: %w", err)
	}
	return nil
}
