package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/reelctl/reelctl/color"
	"github.com/reelctl/reelctl/style"
)

// statefulKeymap defines the keyboard interactions available within each state.
type statefulKeymap struct {
	state state

	quit, forceQuit,
	playPause, replay,
	seekForward, seekBackward,
	volumeUp, volumeDown, mute,
	faster, slower,
	loop, darkMask, pictureInPicture, screenshot,
	chooseQuality, confirm, back,
	up, down,
	showHelp key.Binding
}

func (k *statefulKeymap) setState(newState state) {
	k.state = newState
}

func newStatefulKeymap() *statefulKeymap {
	return &statefulKeymap{
		quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		forceQuit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+d"),
			key.WithHelp("ctrl+c", "quit"),
		),
		playPause: key.NewBinding(
			key.WithKeys(" ", "k"),
			key.WithHelp(style.Fg(color.Orange)("space"), style.Fg(color.Orange)("play/pause")),
		),
		replay: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "replay"),
		),
		seekForward: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→", "+5s"),
		),
		seekBackward: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←", "-5s"),
		),
		volumeUp: key.NewBinding(
			key.WithKeys("up", "+", "="),
			key.WithHelp("↑", "volume up"),
		),
		volumeDown: key.NewBinding(
			key.WithKeys("down", "-"),
			key.WithHelp("↓", "volume down"),
		),
		mute: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mute"),
		),
		faster: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "faster"),
		),
		slower: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "slower"),
		),
		loop: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "loop"),
		),
		darkMask: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "dim"),
		),
		pictureInPicture: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "on top"),
		),
		screenshot: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "screenshot"),
		),
		chooseQuality: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "quality"),
		),
		confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "confirm"),
		),
		back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑", "up"),
		),
		down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓", "down"),
		),
		showHelp: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}

func (k *statefulKeymap) help() ([]key.Binding, []key.Binding) {
	h := func(bindings ...key.Binding) []key.Binding {
		return bindings
	}

	to2 := func(a []key.Binding) ([]key.Binding, []key.Binding) {
		return a, a
	}

	switch k.state {
	case playerState:
		return h(k.playPause, k.seekForward, k.seekBackward, k.chooseQuality, k.showHelp, k.quit),
			h(k.playPause, k.replay, k.seekForward, k.seekBackward, k.volumeUp, k.volumeDown, k.mute,
				k.faster, k.slower, k.loop, k.darkMask, k.pictureInPicture, k.screenshot, k.chooseQuality, k.quit)
	case qualityState:
		return to2(h(k.confirm, k.back))
	case errorState:
		return to2(h(k.back, k.quit))
	default:
		return to2(h())
	}
}

func (k *statefulKeymap) ShortHelp() []key.Binding {
	short, _ := k.help()
	return short
}

func (k *statefulKeymap) FullHelp() [][]key.Binding {
	_, full := k.help()
	return [][]key.Binding{full}
}

func (k *statefulKeymap) forList() list.KeyMap {
	return list.KeyMap{
		CursorUp:   k.up,
		CursorDown: k.down,
		Quit:       k.quit,
		ForceQuit:  k.forceQuit,
	}
}
