package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockLost means the processing lock expired or was taken over while a
// run was still going.
var ErrLockLost = errors.New("processing lock lost")

// Locker is a cross-instance mutex for file processing.
type Locker interface {
	// TryLock returns a lease and true when the lock was taken.
	TryLock(ctx context.Context) (lease Lease, ok bool, err error)
}

// Lease is a held lock.  Extend pushes its expiry out by the lock TTL and
// returns ErrLockLost once the lock belongs to someone else.
type Lease interface {
	Extend(ctx context.Context) error
	Release()
}

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
    if redis.call('GET', KEYS[1]) == ARGV[1] then
        return redis.call('DEL', KEYS[1])
    end
    return 0
`)

// extendScript resets the expiry only while the key still holds our token.
var extendScript = redis.NewScript(`
    if redis.call('GET', KEYS[1]) == ARGV[1] then
        return redis.call('PEXPIRE', KEYS[1], ARGV[2])
    end
    return 0
`)

// RedisLocker implements Locker with SET NX PX.
type RedisLocker struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

// NewRedisLocker returns a locker on key; the lock expires after ttl unless
// the holder extends it.
func NewRedisLocker(rdb *redis.Client, key string, ttl time.Duration) *RedisLocker {
	return &RedisLocker{rdb: rdb, key: key, ttl: ttl}
}

func (l *RedisLocker) TryLock(ctx context.Context) (Lease, bool, error) {
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil || !ok {
		return nil, false, err
	}
	return &redisLease{locker: l, token: token}, true, nil
}

type redisLease struct {
	locker *RedisLocker
	token  string
}

func (r *redisLease) Extend(ctx context.Context) error {
	n, err := extendScript.Run(ctx, r.locker.rdb, []string{r.locker.key}, r.token, r.locker.ttl.Milliseconds()).Int64()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrLockLost
	}
	return nil
}

func (r *redisLease) Release() {
	_ = releaseScript.Run(context.Background(), r.locker.rdb, []string{r.locker.key}, r.token).Err()
}
