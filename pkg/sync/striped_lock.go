// Package sync provides partitioned locking over arbitrary key spaces.
package sync

import (
	base "sync"

	"github.com/emirpasic/gods/sets/treeset"
)

const (
	replicasPerStripe = 200
)

// StripedLock consistently maps a key space onto a fixed set of locks. Memory
// stays bounded regardless of the number of keys, at the cost of unrelated
// keys occasionally sharing a lock.
type StripedLock struct {
	locks []base.RWMutex
	ring  *ring
}

// NewStripedLock returns a StripedLock with a static number of stripes.
func NewStripedLock(stripes uint) *StripedLock {
	return &StripedLock{
		locks: make([]base.RWMutex, stripes),
		ring:  newRing(stripes, replicasPerStripe),
	}
}

// Get gets the lock for a key.
func (l *StripedLock) Get(key []byte) *base.RWMutex {
	return &l.locks[l.ring.shard(key)]
}

// LockAll write-locks every stripe covering keys and returns a function that
// releases them. Stripes are acquired in ascending order and each at most
// once, so concurrent LockAll calls over overlapping key sets cannot
// deadlock.
func (l *StripedLock) LockAll(keys ...[]byte) (unlock func()) {
	stripes := treeset.NewWithIntComparator()
	for _, key := range keys {
		stripes.Add(l.ring.shard(key))
	}

	ordered := stripes.Values()
	for _, stripe := range ordered {
		l.locks[stripe.(int)].Lock()
	}

	return func() {
		for i := len(ordered) - 1; i >= 0; i-- {
			l.locks[ordered[i].(int)].Unlock()
		}
	}
}
