package store

import (
	"hash/fnv"
	"sync"
)

// StripedLocks spreads per-key locking over a fixed set of RWMutexes. The
// same key always maps to the same stripe.
type StripedLocks struct {
	stripes []sync.RWMutex
	count   uint32
}

// NewStripedLocks creates n stripes; n <= 0 means 32.
func NewStripedLocks(n int) *StripedLocks {
	if n <= 0 {
		n = 32
	}
	return &StripedLocks{
		stripes: make([]sync.RWMutex, n),
		count:   uint32(n),
	}
}

// Lock takes key's stripe exclusively and returns its unlock function.
func (sl *StripedLocks) Lock(key string) func() {
	m := &sl.stripes[sl.index(key)]
	m.Lock()
	return m.Unlock
}

// RLock takes key's stripe shared and returns its unlock function.
func (sl *StripedLocks) RLock(key string) func() {
	m := &sl.stripes[sl.index(key)]
	m.RLock()
	return m.RUnlock
}

func (sl *StripedLocks) index(key string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(key))
	return h.Sum32() % sl.count
}
