package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrNotHeld = errors.New("lock not held")

// Locker serialises work on a named resource across requests.
// Acquire blocks until the lock is obtained or ctx is done.
type Locker interface {
	Acquire(ctx context.Context, key string) (Unlocker, error)
}

type Unlocker interface {
	Release(ctx context.Context) error
}

func BankKey(bankID uint) string { return fmt.Sprintf("bank:%d", bankID) }

func ExamKey(examID uint) string { return fmt.Sprintf("exam:%d", examID) }

// ===== REDIS =====

const (
	DefaultTTL        = 5 * time.Minute
	defaultRetryDelay = 50 * time.Millisecond
)

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisLocker uses SET NX PX with a random token; release only deletes a key
// still holding the caller's token.
type RedisLocker struct {
	client     *redis.Client
	prefix     string
	ttl        time.Duration
	retryDelay time.Duration
}

func NewRedisLocker(client *redis.Client, prefix string, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisLocker{client: client, prefix: prefix, ttl: ttl, retryDelay: defaultRetryDelay}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (Unlocker, error) {
	fullKey := l.prefix + "lock:" + key
	token := uuid.NewString()

	ticker := time.NewTicker(l.retryDelay)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, fullKey, token, l.ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				err = ctxErr
			}
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			return &redisUnlocker{client: l.client, key: fullKey, token: token}, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("acquire lock %s: %w", key, ctx.Err())
		case <-ticker.C:
		}
	}
}

type redisUnlocker struct {
	client *redis.Client
	key    string
	token  string
}

func (u *redisUnlocker) Release(ctx context.Context) error {
	n, err := releaseScript.Run(ctx, u.client, []string{u.key}, u.token).Int()
	if err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	if n == 0 {
		return ErrNotHeld
	}
	return nil
}

// ===== IN-PROCESS =====

// LocalLocker is used when no redis is configured; it only serialises within one process.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]chan struct{})}
}

func (l *LocalLocker) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.slots[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[key] = ch
	}
	return ch
}

func (l *LocalLocker) Acquire(ctx context.Context, key string) (Unlocker, error) {
	ch := l.slot(key)
	select {
	case ch <- struct{}{}:
		return &localUnlocker{ch: ch}, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("acquire lock %s: %w", key, ctx.Err())
	}
}

type localUnlocker struct {
	once sync.Once
	ch   chan struct{}
}

func (u *localUnlocker) Release(context.Context) error {
	released := false
	u.once.Do(func() {
		<-u.ch
		released = true
	})
	if !released {
		return ErrNotHeld
	}
	return nil
}
