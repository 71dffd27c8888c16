package sync

import (
	base "sync"
)

// replicas is the number of ring points per lock
const replicas = 200

// StripedLock is a partitioned locking mechanism that consistently maps a key
// space, such as mint addresses, to a fixed set of locks. Distinct keys may
// share a lock, but a key always maps to the same one.
type StripedLock struct {
	locks []base.RWMutex
	ring  *ring
}

// NewStripedLock returns a new StripedLock with a static number of stripes.
func NewStripedLock(stripes uint) *StripedLock {
	if stripes == 0 {
		stripes = 1
	}

	return &StripedLock{
		locks: make([]base.RWMutex, stripes),
		ring:  newRing(int(stripes), replicas),
	}
}

// Get gets the lock for a key
func (l *StripedLock) Get(key []byte) *base.RWMutex {
	return &l.locks[l.ring.bucket(key)]
}
