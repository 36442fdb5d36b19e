package sweep

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrSweepInProgress signals that another sweep holds the advisory lock.
var ErrSweepInProgress = errors.New("sweep already in progress")

// Lock serialises sweep runs. Acquire returns ErrSweepInProgress when the
// lock is held elsewhere; the returned release function is safe to call
// once.
type Lock interface {
	Acquire(ctx context.Context) (release func(), err error)
}

const lockKey = "raisegate:sweep:lock"

// releaseScript deletes the lock only if this holder still owns it, so an
// expired-and-reacquired lock is never released by the previous holder.
var releaseScript = redis.NewScript(`
	if redis.call("GET", KEYS[1]) == ARGV[1] then
		return redis.call("DEL", KEYS[1])
	end
	return 0
`)

// RedisLock is a cross-process advisory lock built on SET NX with a TTL.
// The TTL bounds how long a crashed sweep can block the next one.
type RedisLock struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLock(client *redis.Client, ttl time.Duration) *RedisLock {
	return &RedisLock{client: client, ttl: ttl}
}

func (l *RedisLock) Acquire(ctx context.Context) (func(), error) {
	token := uuid.New().String()
	ok, err := l.client.SetNX(ctx, lockKey, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire sweep lock: %w", err)
	}
	if !ok {
		return nil, ErrSweepInProgress
	}
	return func() {
		// Release outlives the request context.
		releaseScript.Run(context.Background(), l.client, []string{lockKey}, token)
	}, nil
}

// LocalLock serialises sweeps within a single process, for deployments
// without Redis.
type LocalLock struct {
	mu sync.Mutex
}

func NewLocalLock() *LocalLock {
	return &LocalLock{}
}

func (l *LocalLock) Acquire(_ context.Context) (func(), error) {
	if !l.mu.TryLock() {
		return nil, ErrSweepInProgress
	}
	return l.mu.Unlock, nil
}
