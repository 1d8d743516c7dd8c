package ports

import (
	"context"
	"time"
)

// Clock abstracts time so activation delays can be driven from tests.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done, whichever comes first.
	Sleep(ctx context.Context, d time.Duration) error
}

// Locker serialises check-then-insert sequences on the same keys.
type Locker interface {
	// Lock acquires every key, blocking until all are held or ctx is done.
	// The returned function releases them.
	Lock(ctx context.Context, keys ...string) (unlock func(), err error)
}

// PasswordHasher derives and checks stored password hashes.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) bool
}

// BackgroundRunner runs work detached from the caller's cancellation.
type BackgroundRunner interface {
	// Go starts fn and returns a channel that receives its result exactly once.
	Go(fn func(ctx context.Context) error) <-chan error
}

// AccountMetrics receives lifecycle observations.
type AccountMetrics interface {
	AccountCreated(role string)
	CreateRejected(reason string)
	AccountBlocked()
	AuthenticationResult(success bool)
	ActivationCompleted(d time.Duration, err error)
}

// NopMetrics discards all observations.
type NopMetrics struct{}

func (NopMetrics) AccountCreated(string)                    {}
func (NopMetrics) CreateRejected(string)                    {}
func (NopMetrics) AccountBlocked()                          {}
func (NopMetrics) AuthenticationResult(bool)                {}
func (NopMetrics) ActivationCompleted(time.Duration, error) {}
