package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/usersmanager/account-service/internal/core/ports"
)

const (
	lockPrefix      = "lock:accounts:"
	defaultLockTTL  = 30 * time.Second
	defaultRetryGap = 25 * time.Millisecond
)

// releaseScript deletes the key only while it still holds our token, so an
// expired lock taken over by another instance is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker is a ports.Locker shared by every instance pointing at the same
// Redis. Each key is a SET NX PX entry holding a per-acquisition token.
type Locker struct {
	client   *redis.Client
	ttl      time.Duration
	retryGap time.Duration
	log      zerolog.Logger
}

var (
	_ ports.Locker = (*Locker)(nil)
	_ ports.Pinger = (*Locker)(nil)
)

// NewLocker returns a Locker whose keys expire after ttl if never released.
func NewLocker(client *redis.Client, ttl time.Duration, log zerolog.Logger) *Locker {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &Locker{client: client, ttl: ttl, retryGap: defaultRetryGap, log: log}
}

// Lock acquires every key in sorted order, waiting until they are free or
// ctx is done. Keys already acquired are released on failure.
func (l *Locker) Lock(ctx context.Context, keys ...string) (func(), error) {
	ordered := append([]string(nil), keys...)
	sort.Strings(ordered)

	token := uuid.NewString()
	held := make([]string, 0, len(ordered))
	for i, key := range ordered {
		if i > 0 && key == ordered[i-1] {
			continue
		}
		if err := l.acquire(ctx, lockPrefix+key, token); err != nil {
			l.release(held, token)
			return nil, err
		}
		held = append(held, lockPrefix+key)
	}

	var once sync.Once
	return func() { once.Do(func() { l.release(held, token) }) }, nil
}

func (l *Locker) acquire(ctx context.Context, key, token string) error {
	ticker := time.NewTicker(l.retryGap)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("redis lock %s: %w", key, err)
		}
		if ok {
			return nil
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// release runs detached from the caller's context so a cancelled request
// still frees its keys.
func (l *Locker) release(keys []string, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	for _, key := range keys {
		err := releaseScript.Run(ctx, l.client, []string{key}, token).Err()
		if err != nil && !errors.Is(err, redis.Nil) {
			l.log.Warn().Err(err).Str("key", key).Msg("failed to release lock, waiting for ttl")
		}
	}
}

func (l *Locker) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}
