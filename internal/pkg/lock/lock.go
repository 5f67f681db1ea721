// Package lock serializes balance mutations per user inside one process.
package lock

import (
	"context"
	"fmt"
	"sync"
)

// entry is a user's mutex plus the number of goroutines holding or
// waiting on it. The entry is dropped when the count returns to zero.
type entry struct {
	mu   sync.Mutex
	refs int
}

// UserLock provides per-user locking so that read-modify-write sequences
// on one account never interleave.
type UserLock struct {
	mu      sync.Mutex
	entries map[int64]*entry
}

// NewUserLock creates a new UserLock instance.
func NewUserLock() *UserLock {
	return &UserLock{entries: make(map[int64]*entry)}
}

func (ul *UserLock) acquire(userID int64) *entry {
	ul.mu.Lock()
	defer ul.mu.Unlock()

	e, ok := ul.entries[userID]
	if !ok {
		e = &entry{}
		ul.entries[userID] = e
	}
	e.refs++
	return e
}

func (ul *UserLock) release(userID int64, e *entry) {
	ul.mu.Lock()
	defer ul.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(ul.entries, userID)
	}
}

// Lock blocks until the user's lock is held.
func (ul *UserLock) Lock(userID int64) {
	ul.acquire(userID).mu.Lock()
}

// Unlock releases the user's lock. Unlocking a user that is not locked is a no-op.
func (ul *UserLock) Unlock(userID int64) {
	ul.mu.Lock()
	e, ok := ul.entries[userID]
	ul.mu.Unlock()
	if !ok {
		return
	}
	e.mu.Unlock()
	ul.release(userID, e)
}

// TryLock acquires the lock without blocking and reports whether it succeeded.
func (ul *UserLock) TryLock(userID int64) bool {
	e := ul.acquire(userID)
	if e.mu.TryLock() {
		return true
	}
	ul.release(userID, e)
	return false
}

// LockContext waits for the user's lock until ctx is done.
func (ul *UserLock) LockContext(ctx context.Context, userID int64) error {
	e := ul.acquire(userID)
	if e.mu.TryLock() {
		return nil
	}

	done := make(chan struct{})
	go func() {
		e.mu.Lock()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		// The waiter still gets the mutex eventually; hand it straight back.
		go func() {
			<-done
			e.mu.Unlock()
			ul.release(userID, e)
		}()
		return fmt.Errorf("%w: %w", ErrLockTimeout, ctx.Err())
	}
}

// WithLock runs fn while holding the user's lock.
func (ul *UserLock) WithLock(ctx context.Context, userID int64, fn func() error) error {
	if err := ul.LockContext(ctx, userID); err != nil {
		return err
	}
	defer ul.Unlock(userID)
	return fn()
}

// Len returns how many users currently hold or wait on a lock.
func (ul *UserLock) Len() int {
	ul.mu.Lock()
	defer ul.mu.Unlock()
	return len(ul.entries)
}
