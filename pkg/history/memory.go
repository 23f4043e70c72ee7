package history

import (
	"errors"
	"fmt"
	"sync"
)

// ErrOutOfRange is returned by Go when the target entry does not exist.
var ErrOutOfRange = errors.New("history: traversal out of range")

// Memory is an in-process history stack. It is the location source used by
// the CLI and by tests, and it behaves like a browser's session history:
// Push truncates forward entries, Go reports the new location to listeners,
// and Push and Replace do not.
type Memory struct {
	mu        sync.Mutex
	entries   []string
	index     int
	listeners map[int]func(string)
	nextID    int
}

// NewMemory creates a history whose only entry is initial.
func NewMemory(initial string) *Memory {
	if initial == "" {
		initial = "/"
	}
	return &Memory{
		entries:   []string{initial},
		listeners: make(map[int]func(string)),
	}
}

// Location returns the current entry.
func (m *Memory) Location() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[m.index]
}

// Listen registers fn for location changes not caused by Push or Replace.
func (m *Memory) Listen(fn func(string)) (stop func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

// Push adds location after the current entry, dropping forward entries.
func (m *Memory) Push(location string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries[:m.index+1], location)
	m.index++
	return nil
}

// Replace overwrites the current entry.
func (m *Memory) Replace(location string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[m.index] = location
	return nil
}

// Go moves delta entries and notifies listeners. Go(0) re-reports the
// current entry.
func (m *Memory) Go(delta int) error {
	m.mu.Lock()
	i := m.index + delta
	if i < 0 || i >= len(m.entries) {
		m.mu.Unlock()
		return fmt.Errorf("%w: %d from entry %d of %d", ErrOutOfRange, delta, m.index, len(m.entries))
	}
	m.index = i
	loc := m.entries[i]
	m.mu.Unlock()

	m.emit(loc)
	return nil
}

// Back is Go(-1).
func (m *Memory) Back() error { return m.Go(-1) }

// Forward is Go(1).
func (m *Memory) Forward() error { return m.Go(1) }

// Set simulates the user entering a location: it is pushed and reported to
// listeners.
func (m *Memory) Set(location string) {
	m.mu.Lock()
	m.entries = append(m.entries[:m.index+1], location)
	m.index++
	m.mu.Unlock()

	m.emit(location)
}

// Entries returns a copy of the stack and the index of the current entry.
func (m *Memory) Entries() ([]string, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.entries...), m.index
}

// emit calls listeners in registration order without holding the lock, so
// a listener may call back into the history.
func (m *Memory) emit(location string) {
	m.mu.Lock()
	fns := make([]func(string), 0, len(m.listeners))
	for id := 0; id < m.nextID; id++ {
		if fn, ok := m.listeners[id]; ok {
			fns = append(fns, fn)
		}
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(location)
	}
}
