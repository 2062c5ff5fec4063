package combat

import "sync"

// sessionLock is one per-session mutex plus the number of requests holding
// or waiting on it.
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// sessionLocks serialises requests addressed to the same session id. An
// entry lives only while some request holds or waits on it, so ids that never
// name a session leave nothing behind.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[string]*sessionLock)}
}

// lock acquires the mutex for id and returns its release function.
//
// Postcondition: after the last holder releases, the entry for id is gone.
func (l *sessionLocks) lock(id string) func() {
	l.mu.Lock()
	e, ok := l.locks[id]
	if !ok {
		e = &sessionLock{}
		l.locks[id] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		defer l.mu.Unlock()
		e.refs--
		if e.refs == 0 {
			delete(l.locks, id)
		}
	}
}

// len returns the number of live entries.
func (l *sessionLocks) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
