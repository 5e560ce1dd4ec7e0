package previewcache

import "sync"

// Signal is a broadcast wakeup. Broadcast releases everyone subscribed so far;
// later subscribers wait for the next Broadcast.
type Signal struct {
	mu sync.Mutex
	ch chan struct{}
}

func newSignal() *Signal {
	return &Signal{ch: make(chan struct{})}
}

// Subscribe returns a channel closed by the next Broadcast.
func (s *Signal) Subscribe() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ch
}

// Broadcast wakes all current subscribers.
func (s *Signal) Broadcast() {
	s.mu.Lock()
	close(s.ch)
	s.ch = make(chan struct{})
	s.mu.Unlock()
}
