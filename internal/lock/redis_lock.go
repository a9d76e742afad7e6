// Package lock provides a Redis-backed per-house mutex shared by every
// replica of the service.  It sits in front of the database row lock so
// contending requests queue in Redis rather than on MySQL connections.
package lock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/house-rental-booking/internal/config"
)

// ErrNotAcquired is returned when the lock could not be taken before
// the wait budget ran out.
var ErrNotAcquired = errors.New("house lock not acquired")

// releaseScript deletes the key only if it still holds our token, so an
// expired lock taken over by another holder is never released by us.
var releaseScript = redis.NewScript(`
    if redis.call('GET', KEYS[1]) == ARGV[1] then
        return redis.call('DEL', KEYS[1])
    end
    return 0
`)

// HouseLocker hands out per-house locks stored as SET NX PX keys.
type HouseLocker struct {
	rdb *redis.Client
	cfg config.LockConfig
}

// NewHouseLocker returns nil when locking is disabled or no Redis client
// is available; callers treat a nil locker as "rely on the database".
func NewHouseLocker(cfg config.LockConfig, rdb *redis.Client) *HouseLocker {
	if !cfg.Enabled || rdb == nil {
		return nil
	}
	return &HouseLocker{rdb: rdb, cfg: cfg}
}

func (l *HouseLocker) key(houseID uint64) string {
	return fmt.Sprintf("%s:house:%d", l.cfg.Prefix, houseID)
}

// LockHouse blocks until the house lock is held, ctx is done or the
// configured wait elapses.  The returned func releases the lock; it is
// safe to call once the lock has already expired.
func (l *HouseLocker) LockHouse(ctx context.Context, houseID uint64) (func(), error) {
	token, err := randomToken()
	if err != nil {
		return nil, err
	}
	key := l.key(houseID)
	deadline := time.Now().Add(l.cfg.Wait)
	for {
		ok, err := l.rdb.SetNX(ctx, key, token, l.cfg.TTL).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire %s: %w", key, err)
		}
		if ok {
			return func() {
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_ = releaseScript.Run(ctx, l.rdb, []string{key}, token).Err()
			}, nil
		}
		if time.Now().After(deadline) {
			return nil, ErrNotAcquired
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.cfg.RetryEvery):
		}
	}
}

func randomToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
