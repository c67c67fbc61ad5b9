package store

import (
	"sort"
	"sync"
)

// KeyLock serializes mutations per table/club key. Every operation that
// touches a key reads current state, computes a new state, and writes it
// back, so interleaved writers on the same key must be mutually exclusive.
type KeyLock struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewKeyLock creates an empty KeyLock.
func NewKeyLock() *KeyLock {
	return &KeyLock{locks: make(map[string]*sync.Mutex)}
}

func (k *KeyLock) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()

	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	return m
}

// Acquire locks the given keys and returns a release function. Keys are
// deduplicated and locked in sorted order so that multi-key operations
// (seating a club, clubbing tables) cannot deadlock against each other.
func (k *KeyLock) Acquire(keys ...string) func() {
	uniq := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		uniq[key] = struct{}{}
	}
	ordered := make([]string, 0, len(uniq))
	for key := range uniq {
		ordered = append(ordered, key)
	}
	sort.Strings(ordered)

	held := make([]*sync.Mutex, 0, len(ordered))
	for _, key := range ordered {
		m := k.get(key)
		m.Lock()
		held = append(held, m)
	}
	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}
