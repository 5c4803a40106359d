package worker

import "sync"

// KeyedLocks serializes work per key. The entitlement engine uses it to
// make read-modify-write sequences on one identity's record single-writer
// without blocking unrelated identities.
type KeyedLocks struct {
	mu    sync.Mutex
	locks map[int64]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

// NewKeyedLocks creates an empty lock table.
func NewKeyedLocks() *KeyedLocks {
	return &KeyedLocks{locks: make(map[int64]*keyedLock)}
}

// Lock acquires the lock for key, creating it on first use.
func (k *KeyedLocks) Lock(key int64) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
}

// Unlock releases the lock for key. Entries with no waiters are removed
// so the table does not grow with the user base.
func (k *KeyedLocks) Unlock(key int64) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		k.mu.Unlock()
		panic("worker: unlock of unheld keyed lock")
	}
	l.refs--
	if l.refs == 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()

	l.mu.Unlock()
}

// Do runs fn while holding the lock for key.
func (k *KeyedLocks) Do(key int64, fn func() error) error {
	k.Lock(key)
	defer k.Unlock(key)
	return fn()
}
