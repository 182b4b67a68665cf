package store

import "sync"

// Locks hands out one mutex per device so read-modify-write cycles on a
// device's records do not interleave within this process.
type Locks struct {
	mu sync.Mutex
	m  map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func NewLocks() *Locks {
	return &Locks{m: make(map[string]*lockEntry)}
}

// Lock blocks until the device is free and returns the matching unlock.
func (l *Locks) Lock(device string) func() {
	l.mu.Lock()
	e, ok := l.m[device]
	if !ok {
		e = &lockEntry{}
		l.m[device] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.m, device)
		}
		l.mu.Unlock()
	}
}
