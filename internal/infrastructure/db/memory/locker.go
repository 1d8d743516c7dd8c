package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/usersmanager/account-service/internal/core/ports"
)

// KeyedLocker is an in-process mutex per key. Keys are always taken in
// sorted order so overlapping key sets cannot deadlock.
type KeyedLocker struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

var _ ports.Locker = (*KeyedLocker)(nil)

func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{locks: make(map[string]chan struct{})}
}

func (l *KeyedLocker) Lock(ctx context.Context, keys ...string) (func(), error) {
	ordered := append([]string(nil), keys...)
	sort.Strings(ordered)

	held := make([]string, 0, len(ordered))
	for i, key := range ordered {
		if i > 0 && key == ordered[i-1] {
			continue
		}
		if err := l.acquire(ctx, key); err != nil {
			l.release(held)
			return nil, err
		}
		held = append(held, key)
	}

	var once sync.Once
	return func() { once.Do(func() { l.release(held) }) }, nil
}

func (l *KeyedLocker) acquire(ctx context.Context, key string) error {
	for {
		l.mu.Lock()
		wait, taken := l.locks[key]
		if !taken {
			l.locks[key] = make(chan struct{})
			l.mu.Unlock()
			return nil
		}
		l.mu.Unlock()

		select {
		case <-wait:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (l *KeyedLocker) release(keys []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, key := range keys {
		if ch, ok := l.locks[key]; ok {
			close(ch)
			delete(l.locks, key)
		}
	}
}
