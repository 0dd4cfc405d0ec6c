package credits

import "sync"

// EntryLocker serializes credit-affecting work per entry so that concurrent
// moderation actions on the same entry cannot interleave their read-decide-
// write cycles.
type EntryLocker struct {
	mu    sync.Mutex
	locks map[uint]*entryLock
}

type entryLock struct {
	mu   sync.Mutex
	refs int
}

// NewEntryLocker creates an empty locker.
func NewEntryLocker() *EntryLocker {
	return &EntryLocker{locks: make(map[uint]*entryLock)}
}

// Lock acquires the lock for the given entry id and returns its unlock
// function. Locks are created on demand and removed once unused.
func (l *EntryLocker) Lock(entryID uint) func() {
	l.mu.Lock()
	el, ok := l.locks[entryID]
	if !ok {
		el = &entryLock{}
		l.locks[entryID] = el
	}
	el.refs++
	l.mu.Unlock()

	el.mu.Lock()

	return func() {
		el.mu.Unlock()

		l.mu.Lock()
		el.refs--
		if el.refs == 0 {
			delete(l.locks, entryID)
		}
		l.mu.Unlock()
	}
}
