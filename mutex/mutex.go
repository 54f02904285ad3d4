package mutex

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis"
	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis"
	"github.com/pkg/errors"
)

const (
	refreshLockExpiration    = time.Minute * 5
	dailyResetLockExpiration = time.Hour * 25
	refreshKey               = "schedule:refresh"
	dailyResetKeyPattern     = "notifications:reset:%v"
)

var ErrTaken = errors.New("lock is already taken")

// Lock is satisfied by *redsync.Mutex.
type Lock interface {
	LockContext(ctx context.Context) error
	UnlockContext(ctx context.Context) (bool, error)
}

// Builder hands out named locks. Without a redis address the locks only
// exclude callers within this process.
type Builder struct {
	rs    *redsync.Redsync
	local *localLocks
}

func NewBuilder(address string) *Builder {
	if address == "" {
		return &Builder{local: newLocalLocks()}
	}
	client := redis.NewClient(&redis.Options{Addr: address})
	pool := goredis.NewPool(client)
	rs := redsync.New(pool)
	return &Builder{rs: rs}
}

// Refresh guards a schedule refresh cycle.
func (b *Builder) Refresh() Lock {
	return b.lock(refreshKey, refreshLockExpiration)
}

// DailyReset is taken once per day by the notification counter reset and is
// left to expire instead of being unlocked.
func (b *Builder) DailyReset(day string) Lock {
	return b.lock(fmt.Sprintf(dailyResetKeyPattern, day), dailyResetLockExpiration)
}

func (b *Builder) lock(key string, expiry time.Duration) Lock {
	if b.rs == nil {
		return &localLock{locks: b.local, key: key, expiry: expiry}
	}
	return b.rs.NewMutex(key, redsync.WithExpiry(expiry), redsync.WithTries(1))
}

type localLocks struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time
}

func newLocalLocks() *localLocks {
	return &localLocks{expires: make(map[string]time.Time), now: time.Now}
}

type localLock struct {
	locks  *localLocks
	key    string
	expiry time.Duration
}

func (l *localLock) LockContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.locks.mu.Lock()
	defer l.locks.mu.Unlock()
	now := l.locks.now()
	if until, ok := l.locks.expires[l.key]; ok && now.Before(until) {
		return errors.Wrap(ErrTaken, l.key)
	}
	l.locks.expires[l.key] = now.Add(l.expiry)
	return nil
}

func (l *localLock) UnlockContext(_ context.Context) (bool, error) {
	l.locks.mu.Lock()
	defer l.locks.mu.Unlock()
	if _, ok := l.locks.expires[l.key]; !ok {
		return false, nil
	}
	delete(l.locks.expires, l.key)
	return true, nil
}
