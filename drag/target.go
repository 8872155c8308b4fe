// Package drag turns pointer and touch input into drag sessions reported as raw coordinates.
package drag

import (
	"sort"
	"sync"

	"github.com/reelctl/reelctl/device"
)

// Mode is the kind of input a tracker listens to.
type Mode int

const (
	Mouse Mode = iota
	Touch
)

func (m Mode) String() string {
	if m == Touch {
		return "touch"
	}
	return "mouse"
}

// DetectMode picks touch input for touch-first user agents and mouse input otherwise.
func DetectMode(userAgent string) Mode {
	if device.IsTouch(userAgent) {
		return Touch
	}
	return Mouse
}

// Kind is an input event type.
type Kind string

const (
	MouseDown  Kind = "mousedown"
	MouseMove  Kind = "mousemove"
	MouseUp    Kind = "mouseup"
	TouchStart Kind = "touchstart"
	TouchMove  Kind = "touchmove"
	TouchEnd   Kind = "touchend"
)

// Event is an input event at a position.
type Event struct {
	Kind Kind
	X, Y float64
}

// Handler receives events.
type Handler func(Event)

// ListenerID identifies a registered handler.
type ListenerID uint64

// Target is something input events can be listened for on.
type Target interface {
	AddListener(kind Kind, fn Handler) ListenerID
	RemoveListener(kind Kind, id ListenerID)
}

// Surface is a Target events are dispatched to by hand, typically by a terminal UI translating
// its mouse messages.
type Surface struct {
	mu        sync.Mutex
	next      ListenerID
	listeners map[Kind]map[ListenerID]Handler
}

func NewSurface() *Surface {
	return &Surface{listeners: make(map[Kind]map[ListenerID]Handler)}
}

func (s *Surface) AddListener(kind Kind, fn Handler) ListenerID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	if s.listeners[kind] == nil {
		s.listeners[kind] = make(map[ListenerID]Handler)
	}
	s.listeners[kind][s.next] = fn
	return s.next
}

func (s *Surface) RemoveListener(kind Kind, id ListenerID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.listeners[kind], id)
}

// Dispatch calls the handlers registered for e.Kind in registration order.
func (s *Surface) Dispatch(e Event) {
	s.mu.Lock()
	ids := make([]ListenerID, 0, len(s.listeners[e.Kind]))
	for id := range s.listeners[e.Kind] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	fns := make([]Handler, 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.listeners[e.Kind][id])
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}

// ListenerCount returns the number of handlers registered for kind, or for every kind when
// kind is empty.
func (s *Surface) ListenerCount(kind Kind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if kind != "" {
		return len(s.listeners[kind])
	}
	n := 0
	for _, ls := range s.listeners {
		n += len(ls)
	}
	return n
}

var viewport = NewSurface()

// Viewport is the process-wide surface covering the whole screen. Mouse drags follow moves
// and releases there so they survive leaving the target.
func Viewport() *Surface {
	return viewport
}
