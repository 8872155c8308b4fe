// Package tui provides the terminal interface of the player: a status screen driving a
// playback adapter, with toasts, a draggable progress bar and a quality picker.
package tui

import (
	"github.com/reelctl/reelctl/config"
	"github.com/reelctl/reelctl/controls"
	"github.com/reelctl/reelctl/log"
	"github.com/reelctl/reelctl/media"
	"github.com/reelctl/reelctl/playback"
	"github.com/reelctl/reelctl/quality"
	"github.com/reelctl/reelctl/toast"
	tea "github.com/charmbracelet/bubbletea"
)

// Options encapsulates the runtime configuration for the terminal user interface.
type Options struct {
	Title string

	Adapter    *playback.Adapter
	Visibility *controls.Visibility
	// Quality is optional; without it the quality picker is disabled.
	Quality *quality.Manager
	// Video reports the intrinsic video size, when the element knows it.
	Video media.Sized
	Mask  *Mask

	Notifier *Notifier
	// Exited is closed when the player goes away.
	Exited <-chan struct{}

	Config config.Options
}

// Notifier queues toasts for the interface. Toasts arriving while the queue is full are dropped.
type Notifier struct {
	ch chan toast.Toast
}

func NewNotifier() *Notifier {
	return &Notifier{ch: make(chan toast.Toast, 16)}
}

func (n *Notifier) Notify(t toast.Toast) {
	select {
	case n.ch <- t:
	default:
		log.Debugf("dropping toast %q", t.Message)
	}
}

// Run initializes and executes the Bubble Tea application loop until the user quits or the
// player exits.
func Run(options *Options) error {
	bubble := newBubble(options)
	defer bubble.close()

	_, err := tea.NewProgram(bubble, tea.WithAltScreen(), tea.WithMouseAllMotion()).Run()
	return err
}
