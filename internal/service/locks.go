package service

import "sync"

// userLocks marks users with a generation pass in flight. A held lock
// means "skip, do not run concurrently for this user"; contenders never
// block or retry.
type userLocks struct {
	mu     sync.Mutex
	active map[uint]struct{}
}

func newUserLocks() *userLocks {
	return &userLocks{active: make(map[uint]struct{})}
}

// tryAcquire marks the user as generating. Returns false when another
// pass already holds the user.
func (l *userLocks) tryAcquire(userID uint) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, held := l.active[userID]; held {
		return false
	}
	l.active[userID] = struct{}{}
	return true
}

func (l *userLocks) release(userID uint) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.active, userID)
}
