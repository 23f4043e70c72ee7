package nav

import "errors"

// fakeSource is a minimal in-memory LocationSource for resolver tests.
type fakeSource struct {
	entries   []string
	index     int
	listeners map[int]func(string)
	nextID    int
	pushes    []string
	replaces  []string
	failWrite error
}

func newFakeSource(initial string) *fakeSource {
	return &fakeSource{
		entries:   []string{initial},
		listeners: make(map[int]func(string)),
	}
}

func (s *fakeSource) Location() string { return s.entries[s.index] }

func (s *fakeSource) Listen(fn func(string)) func() {
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() { delete(s.listeners, id) }
}

func (s *fakeSource) Push(loc string) error {
	if s.failWrite != nil {
		return s.failWrite
	}
	s.entries = append(s.entries[:s.index+1], loc)
	s.index++
	s.pushes = append(s.pushes, loc)
	return nil
}

func (s *fakeSource) Replace(loc string) error {
	if s.failWrite != nil {
		return s.failWrite
	}
	s.entries[s.index] = loc
	s.replaces = append(s.replaces, loc)
	return nil
}

func (s *fakeSource) Go(delta int) error {
	i := s.index + delta
	if i < 0 || i >= len(s.entries) {
		return errors.New("out of range")
	}
	s.index = i
	s.emit(s.entries[i])
	return nil
}

// set simulates the user typing a location.
func (s *fakeSource) set(loc string) {
	s.entries = append(s.entries[:s.index+1], loc)
	s.index++
	s.emit(loc)
}

func (s *fakeSource) emit(loc string) {
	for i := 0; i < s.nextID; i++ {
		if fn, ok := s.listeners[i]; ok {
			fn(loc)
		}
	}
}

// plainSource is a LocationSource without history traversal.
type plainSource struct{ loc string }

func (s *plainSource) Location() string           { return s.loc }
func (s *plainSource) Listen(func(string)) func() { return func() {} }
func (s *plainSource) Push(loc string) error      { s.loc = loc; return nil }
func (s *plainSource) Replace(loc string) error   { s.loc = loc; return nil }
