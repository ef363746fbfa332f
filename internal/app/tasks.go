package app

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrorHook receives failures of background repository calls.
type ErrorHook func(op string, err error)

// LogErrors is the default ErrorHook.
func LogErrors(op string, err error) {
	log.Printf("%s failed: %v", op, err)
}

// Tasks runs fire-and-forget repository calls. Failures go to the hook and
// never reach the caller, so in-memory state is never rolled back.
type Tasks struct {
	group   errgroup.Group
	timeout time.Duration
	onError ErrorHook
}

// NewTasks creates a runner whose calls are bounded by timeout (0 means none).
func NewTasks(timeout time.Duration, onError ErrorHook) *Tasks {
	if onError == nil {
		onError = LogErrors
	}
	return &Tasks{timeout: timeout, onError: onError}
}

// Go starts fn in the background.
func (t *Tasks) Go(op string, fn func(ctx context.Context) error) {
	t.group.Go(func() error {
		ctx := context.Background()
		if t.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, t.timeout)
			defer cancel()
		}
		if err := fn(ctx); err != nil {
			t.onError(op, err)
		}
		return nil
	})
}

// Wait blocks until every started task has returned.
func (t *Tasks) Wait() {
	_ = t.group.Wait()
}
