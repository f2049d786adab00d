package progress

import "sync"

// Stream is the single, request-agnostic channel the fetcher writes its
// status lines to. Lines are delivered synchronously and in publish order
// to every subscriber registered at the time of publishing.
type Stream struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]func(line string)
}

// NewStream creates an empty stream.
func NewStream() *Stream {
	return &Stream{
		subs: make(map[uint64]func(line string)),
	}
}

// Subscribe registers fn and returns the func that removes it.
// The returned func is safe to call more than once.
func (s *Stream) Subscribe(fn func(line string)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// Publish hands line to all current subscribers.
func (s *Stream) Publish(line string) {
	s.mu.RLock()
	handlers := make([]func(string), 0, len(s.subs))
	for _, fn := range s.subs {
		handlers = append(handlers, fn)
	}
	s.mu.RUnlock()

	for _, fn := range handlers {
		fn(line)
	}
}

// SubscriberCount returns the number of registered subscribers.
func (s *Stream) SubscriberCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}
