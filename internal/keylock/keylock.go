// Package keylock serialises work per key using a fixed set of mutexes.
// Keys hashing to different stripes never block each other.
package keylock

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// DefaultStripes is used when New is called with n <= 0.
const DefaultStripes = 64

// Striped is a set of mutexes selected by key hash. Two vehicles sharing a
// stripe wait on each other.
type Striped struct {
	locks []sync.Mutex
}

// New returns a Striped lock with n stripes.
func New(n int) *Striped {
	if n <= 0 {
		n = DefaultStripes
	}
	return &Striped{locks: make([]sync.Mutex, n)}
}

// Index returns the stripe for key in [0,n).
func Index(key string, n int) int {
	return int(xxhash.Sum64String(key) % uint64(n))
}

// Lock acquires the stripe owning key and returns its unlock function.
func (s *Striped) Lock(key string) func() {
	mu := &s.locks[Index(key, len(s.locks))]
	mu.Lock()
	return mu.Unlock
}
