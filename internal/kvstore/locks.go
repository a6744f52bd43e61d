package kvstore

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// KeyLocks serializes read-modify-write cycles per key within one process.
// Entries are reference counted and dropped once no goroutine holds them.
type KeyLocks struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func NewKeyLocks() *KeyLocks {
	return &KeyLocks{locks: make(map[string]*keyLock)}
}

// Lock blocks until key is held and returns the matching unlock func.
func (l *KeyLocks) Lock(key string) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*keyLock)
	}
	kl, ok := l.locks[key]
	if !ok {
		kl = &keyLock{}
		l.locks[key] = kl
	}
	kl.refs++
	l.mu.Unlock()

	kl.mu.Lock()
	return func() {
		kl.mu.Unlock()
		l.mu.Lock()
		kl.refs--
		if kl.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}

// LockAll acquires several keys in sorted order so two callers locking the
// same set cannot deadlock.
func (l *KeyLocks) LockAll(keys ...string) func() {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	unlocks := make([]func(), 0, len(sorted))
	var prev string
	for i, k := range sorted {
		if i > 0 && k == prev {
			continue
		}
		prev = k
		unlocks = append(unlocks, l.Lock(k))
	}
	return func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
}

// Mutate reads key, passes the current value (nil when absent) to fn and
// writes the result back, all while holding the key's lock.
func (l *KeyLocks) Mutate(ctx context.Context, s Store, key string, fn func(current []byte) ([]byte, error)) error {
	unlock := l.Lock(key)
	defer unlock()
	return mutate(ctx, s, key, fn)
}

// MutateUnlocked is Mutate for callers that already hold the key's lock.
func MutateUnlocked(ctx context.Context, s Store, key string, fn func(current []byte) ([]byte, error)) error {
	return mutate(ctx, s, key, fn)
}

func mutate(ctx context.Context, s Store, key string, fn func(current []byte) ([]byte, error)) error {
	current, err := s.Get(ctx, key)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	next, err := fn(current)
	if err != nil {
		return err
	}
	return s.Set(ctx, key, next)
}
