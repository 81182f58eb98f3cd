package vcs

import "sync"

// pathLocks serializes mutating operations per working directory while
// letting read-only ones share it.
type pathLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.RWMutex
}

func newPathLocks() *pathLocks {
	return &pathLocks{locks: make(map[string]*sync.RWMutex)}
}

func (l *pathLocks) get(path string) *sync.RWMutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.locks[path]
	if !ok {
		lock = &sync.RWMutex{}
		l.locks[path] = lock
	}
	return lock
}

// acquire locks path and returns the matching unlock.
func (l *pathLocks) acquire(path string, shared bool) func() {
	lock := l.get(path)
	if shared {
		lock.RLock()
		return lock.RUnlock
	}
	lock.Lock()
	return lock.Unlock
}
