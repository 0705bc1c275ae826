package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	lockPrefix = "recruit-bot:lock:"

	// memorySweepMin is the map size at which expired entries are first evicted.
	memorySweepMin = 64
)

// Lease is a held lock.
type Lease interface {
	Release(ctx context.Context) error
}

// Locker hands out best-effort exclusive leases that expire after ttl.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (Lease, bool, error)
}

// MemoryLocker guards keys within one process.
type MemoryLocker struct {
	mu      sync.Mutex
	held    map[string]memoryEntry
	sweepAt int
	now     func() time.Time
}

type memoryEntry struct {
	token   string
	expires time.Time
}

func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]memoryEntry), sweepAt: memorySweepMin, now: time.Now}
}

func (l *MemoryLocker) TryLock(_ context.Context, key string, ttl time.Duration) (Lease, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if entry, ok := l.held[key]; ok {
		if now.Before(entry.expires) {
			return nil, false, nil
		}
		delete(l.held, key)
	}
	if len(l.held) >= l.sweepAt {
		l.evict(now)
	}

	token := uuid.NewString()
	l.held[key] = memoryEntry{token: token, expires: now.Add(ttl)}
	return &memoryLease{locker: l, key: key, token: token}, true, nil
}

// evict drops expired entries. The next sweep waits until the map doubles, so
// the cost stays amortized over TryLock calls.
func (l *MemoryLocker) evict(now time.Time) {
	for key, entry := range l.held {
		if !now.Before(entry.expires) {
			delete(l.held, key)
		}
	}
	l.sweepAt = max(memorySweepMin, 2*len(l.held))
}

type memoryLease struct {
	locker *MemoryLocker
	key    string
	token  string
}

func (m *memoryLease) Release(context.Context) error {
	m.locker.mu.Lock()
	defer m.locker.mu.Unlock()

	if entry, ok := m.locker.held[m.key]; ok && entry.token == m.token {
		delete(m.locker.held, m.key)
	}
	return nil
}

type redisLockClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// releaseScript deletes the key only while it still holds our token.
const releaseScript = `if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`

// RedisLocker shares leases between processes through SET NX PX.
type RedisLocker struct {
	client redisLockClient
}

func NewRedisLocker(client redisLockClient) *RedisLocker {
	return &RedisLocker{client: client}
}

func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (Lease, bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, lockPrefix+key, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire lock %q: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}
	return &redisLease{client: l.client, key: lockPrefix + key, token: token}, true, nil
}

type redisLease struct {
	client redisLockClient
	key    string
	token  string
}

func (r *redisLease) Release(ctx context.Context) error {
	if err := r.client.Eval(ctx, releaseScript, []string{r.key}, r.token).Err(); err != nil {
		return fmt.Errorf("release lock %q: %w", r.key, err)
	}
	return nil
}
