package queue

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/usersmanager/account-service/internal/core/ports"
)

// Gauge tracks in-flight tasks. prometheus.Gauge satisfies it.
type Gauge interface {
	Inc()
	Dec()
}

// Runner executes tasks on their own goroutines under a context that request
// cancellation never reaches, so persisted accounts are always activated.
// Wait lets shutdown drain whatever is still pending.
type Runner struct {
	base    context.Context
	wg      sync.WaitGroup
	pending atomic.Int64
	gauge   Gauge
	log     zerolog.Logger
}

var _ ports.BackgroundRunner = (*Runner)(nil)

// NewRunner creates a Runner. gauge may be nil.
func NewRunner(gauge Gauge, log zerolog.Logger) *Runner {
	return &Runner{base: context.Background(), gauge: gauge, log: log}
}

// Go starts fn. The returned channel is buffered, so the task never blocks on
// a caller that stopped listening.
func (r *Runner) Go(fn func(ctx context.Context) error) <-chan error {
	done := make(chan error, 1)

	r.wg.Add(1)
	r.pending.Add(1)
	if r.gauge != nil {
		r.gauge.Inc()
	}

	go func() {
		var err error
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("background task panicked: %v", rec)
				r.log.Error().Err(err).Msg("background task failed")
			}
			r.pending.Add(-1)
			if r.gauge != nil {
				r.gauge.Dec()
			}
			done <- err
			r.wg.Done()
		}()
		err = fn(r.base)
	}()

	return done
}

// Pending returns the number of tasks that have not finished yet.
func (r *Runner) Pending() int64 {
	return r.pending.Load()
}

// Wait blocks until every started task has finished or ctx is done.
func (r *Runner) Wait(ctx context.Context) error {
	idle := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(idle)
	}()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		r.log.Warn().Int64("pending", r.Pending()).Msg("shutdown before background tasks drained")
		return ctx.Err()
	}
}
