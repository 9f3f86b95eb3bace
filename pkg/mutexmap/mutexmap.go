// Package mutexmap provides named locks: one mutex per key, created on demand
// and dropped once released.
package mutexmap

import (
	"context"
	"sync"
)

// M is a set of named locks. Each key can be held by one owner at a time.
//
// A held key maps to a channel that is closed on release; waiters block on
// it and then race to take the key again.
type M struct {
	locks    map[string]chan struct{}
	masterMu sync.Mutex
}

func New() *M {
	return &M{
		locks: map[string]chan struct{}{},
	}
}

// Lock blocks until key is acquired and returns its release func.
func (n *M) Lock(key string) func() {
	unlock, _ := n.LockContext(context.Background(), key)
	return unlock
}

// LockContext is Lock bounded by ctx. On cancellation the key is not held
// and the context error is returned.
func (n *M) LockContext(ctx context.Context, key string) (func(), error) {
	for {
		unlock, released := n.tryLockInternal(key)
		if released == nil {
			return unlock, nil
		}

		select {
		case <-released:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// TryLock acquires key only if it is free.
// The release func is nil when ok is false.
func (n *M) TryLock(key string) (unlock func(), ok bool) {
	unlock, released := n.tryLockInternal(key)
	return unlock, released == nil
}

// Len returns the number of keys currently held.
func (n *M) Len() int {
	n.masterMu.Lock()
	defer n.masterMu.Unlock()
	return len(n.locks)
}

// tryLockInternal returns either the release func (key acquired) or the
// channel to wait on before trying again.
func (n *M) tryLockInternal(key string) (func(), <-chan struct{}) {
	n.masterMu.Lock()
	defer n.masterMu.Unlock()

	if released, held := n.locks[key]; held {
		return nil, released
	}

	released := make(chan struct{})
	n.locks[key] = released

	var once sync.Once
	return func() {
		once.Do(func() {
			n.masterMu.Lock()
			defer n.masterMu.Unlock()

			delete(n.locks, key)
			close(released)
		})
	}, nil
}
