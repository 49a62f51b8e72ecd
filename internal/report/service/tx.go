package service

import (
	"context"
	"sync"
	"time"

	dErrors "dugout/pkg/domain-errors"
)

const defaultTxTimeout = 5 * time.Second

// memoryTx serializes version creation with a single lock. Good enough for
// tests and single-process use; the Postgres runner replaces it in
// production wiring.
type memoryTx struct {
	mu      sync.Mutex
	store   Store
	timeout time.Duration
}

// NewMemoryTx wraps a store in a lock-based transaction runner.
func NewMemoryTx(store Store) StoreTx {
	return &memoryTx{store: store}
}

func (t *memoryTx) RunInTx(ctx context.Context, fn func(store Store) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return fn(t.store)
}
