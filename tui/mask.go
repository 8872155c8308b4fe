package tui

import (
	"sync"

	"github.com/reelctl/reelctl/media"
	"github.com/reelctl/reelctl/playback"
)

var _ media.Mask = (*Mask)(nil)

// Mask is the dimming layer drawn over the video area.
type Mask struct {
	mu      sync.Mutex
	display string
}

func NewMask() *Mask {
	return &Mask{display: playback.MaskHidden}
}

func (m *Mask) SetDisplay(display string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.display = display
}

func (m *Mask) Display() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.display
}

// Shown reports whether the video area should be dimmed.
func (m *Mask) Shown() bool {
	return m.Display() == playback.MaskShown
}
