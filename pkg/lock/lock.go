// Package lock defines locks that span processes sharing an account store.
package lock

import (
	"context"
	"sort"

	"github.com/pkg/errors"
)

// Manager creates and manages locks. Locks produced for a given name are
// re-entrant per Manager, so local concurrency must still be coordinated with
// an in-process mechanism such as pkg/sync.
type Manager interface {
	// Create creates an unlocked DistributedLock for a specific name.
	Create(ctx context.Context, name string) (DistributedLock, error)
}

// DistributedLock is a handle to a lock shared across processes.
type DistributedLock interface {
	// Acquire blocks until the lock is held or ctx is done. ctx only bounds
	// the acquisition.
	//
	// The returned channel is closed when the lock is lost, either through
	// Unlock or because the implementation can no longer guarantee
	// ownership.
	Acquire(ctx context.Context) (<-chan struct{}, error)

	// Unlock releases the lock if it is held. Unlock is idempotent.
	Unlock(ctx context.Context) error

	// IsLocked returns whether the lock is currently held.
	IsLocked() bool
}

// HeldLocks is a set of locks acquired together by AcquireAll.
type HeldLocks struct {
	locks []DistributedLock
	lost  []<-chan struct{}
}

// AcquireAll acquires a lock for every distinct name. Names are acquired in
// sorted order so callers locking overlapping sets cannot deadlock each other.
// If any acquisition fails, every lock acquired so far is released.
func AcquireAll(ctx context.Context, m Manager, names ...string) (*HeldLocks, error) {
	sorted := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	held := &HeldLocks{}
	for _, name := range sorted {
		l, err := m.Create(ctx, name)
		if err != nil {
			held.Release(context.Background())
			return nil, errors.Wrapf(err, "failed to create lock %s", name)
		}

		lostCh, err := l.Acquire(ctx)
		if err != nil {
			held.Release(context.Background())
			return nil, errors.Wrapf(err, "failed to acquire lock %s", name)
		}

		held.locks = append(held.locks, l)
		held.lost = append(held.lost, lostCh)
	}

	return held, nil
}

// IsLost returns whether any lock in the set has been lost.
func (h *HeldLocks) IsLost() bool {
	for _, lostCh := range h.lost {
		select {
		case <-lostCh:
			return true
		default:
		}
	}
	return false
}

// Release unlocks every lock in the set in reverse acquisition order and
// returns the first error encountered.
func (h *HeldLocks) Release(ctx context.Context) error {
	var first error
	for i := len(h.locks) - 1; i >= 0; i-- {
		if err := h.locks[i].Unlock(ctx); err != nil && first == nil {
			first = err
		}
	}
	h.locks = nil
	h.lost = nil
	return first
}
