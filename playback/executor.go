package playback

import "sync"

// serial runs submitted work one item at a time in submission order. The goroutine that
// submits into an idle executor drains it; submissions made while draining, including
// re-entrant ones from the work itself, are queued and return immediately.
type serial struct {
	mu      sync.Mutex
	queue   []func()
	running bool
}

func (s *serial) do(fn func()) {
	s.mu.Lock()
	s.queue = append(s.queue, fn)
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true

	for len(s.queue) > 0 {
		next := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		s.mu.Unlock()
		next()
		s.mu.Lock()
	}

	s.running = false
	s.mu.Unlock()
}
