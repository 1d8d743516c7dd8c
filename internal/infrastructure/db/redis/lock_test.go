package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func newTestLocker(t *testing.T) (*Locker, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	l := NewLocker(client, time.Minute, zerolog.Nop())
	l.retryGap = 5 * time.Millisecond
	return l, mr
}

func TestLocker_AcquireAndRelease(t *testing.T) {
	l, mr := newTestLocker(t)

	unlock, err := l.Lock(context.Background(), "login:alice", "admin")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !mr.Exists(lockPrefix+"login:alice") || !mr.Exists(lockPrefix+"admin") {
		t.Fatal("expected both keys to be held")
	}
	if ttl := mr.TTL(lockPrefix + "admin"); ttl != time.Minute {
		t.Errorf("expected ttl of one minute, got %v", ttl)
	}

	unlock()
	unlock()

	if mr.Exists(lockPrefix+"login:alice") || mr.Exists(lockPrefix+"admin") {
		t.Fatal("expected keys to be released")
	}
}

func TestLocker_WaitsForHolder(t *testing.T) {
	l, _ := newTestLocker(t)

	unlock, err := l.Lock(context.Background(), "login:alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	acquired := make(chan struct{})
	go func() {
		second, err := l.Lock(context.Background(), "login:alice")
		if err == nil {
			second()
		}
		close(acquired)
	}()

	select {
	case <-acquired:
		t.Fatal("second caller acquired a held lock")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()

	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("second caller never acquired the released lock")
	}
}

func TestLocker_CancelReleasesPartialSet(t *testing.T) {
	l, mr := newTestLocker(t)

	unlock, err := l.Lock(context.Background(), "login:root")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	// "admin" sorts first and is acquired before blocking on "login:root".
	_, err = l.Lock(ctx, "login:root", "admin")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}
	if mr.Exists(lockPrefix + "admin") {
		t.Fatal("expected admin key to be released after cancellation")
	}
}

func TestLocker_ReleaseKeepsForeignToken(t *testing.T) {
	l, mr := newTestLocker(t)

	unlock, err := l.Lock(context.Background(), "login:alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The lock expired and another instance took it over.
	mr.FastForward(2 * time.Minute)
	if err := mr.Set(lockPrefix+"login:alice", "someone-else"); err != nil {
		t.Fatalf("failed to seed key: %v", err)
	}

	unlock()

	got, err := mr.Get(lockPrefix + "login:alice")
	if err != nil || got != "someone-else" {
		t.Fatalf("expected foreign lock to survive, got %q (%v)", got, err)
	}
}

func TestLocker_Ping(t *testing.T) {
	l, mr := newTestLocker(t)

	if err := l.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mr.Close()
	if err := l.Ping(context.Background()); err == nil {
		t.Fatal("expected ping to fail once redis is gone")
	}
}
