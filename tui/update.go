package tui

import (
	"errors"
	"fmt"
	"math"

	bubblesKey "github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/reelctl/reelctl/controls"
	"github.com/reelctl/reelctl/drag"
	"github.com/reelctl/reelctl/i18n"
	"github.com/reelctl/reelctl/icon"
	"github.com/reelctl/reelctl/log"
	"github.com/reelctl/reelctl/media"
	"github.com/reelctl/reelctl/playback"
	"github.com/reelctl/reelctl/toast"
	"github.com/reelctl/reelctl/util"
	"github.com/samber/lo"
)

const (
	seekStep   = 5.0
	volumeStep = 0.05
)

func (b *statefulBubble) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if toastCmd := b.toasts.Update(msg); toastCmd != nil {
		cmd = toastCmd
	}

	switch msg := msg.(type) {
	case toast.Toast:
		return b, tea.Batch(cmd, b.waitForToast())
	case updateMsg:
		if msg.Signal == media.Error {
			cmd = tea.Batch(cmd, b.notify(i18n.PlaybackFailed, ""))
		}
		return b, tea.Batch(cmd, b.waitForEvent())
	case controlsMsg:
		b.controls = controls.State(msg)
		return b, tea.Batch(cmd, b.waitForEvent())
	case exitedMsg:
		log.Info("player exited, leaving")
		return b, tea.Quit
	case error:
		b.raiseError(msg)
		return b, cmd
	case tea.WindowSizeMsg:
		b.resize(msg.Width, msg.Height)
		return b, cmd
	case tea.MouseMsg:
		b.activity()
		b.handleMouse(msg)
		return b, cmd
	case tea.KeyMsg:
		b.activity()
		if bubblesKey.Matches(msg, b.keymap.forceQuit) {
			return b, tea.Quit
		}

		switch b.state {
		case playerState:
			return b, tea.Batch(cmd, b.updatePlayer(msg))
		case qualityState:
			return b, tea.Batch(cmd, b.updateQuality(msg))
		case errorState:
			switch {
			case bubblesKey.Matches(msg, b.keymap.back):
				b.lastError = nil
				b.setState(playerState)
			case bubblesKey.Matches(msg, b.keymap.quit):
				return b, tea.Quit
			}
		}
	}

	return b, cmd
}

func (b *statefulBubble) activity() {
	if v := b.options.Visibility; v != nil {
		v.Activity()
	}
}

// notify returns a command showing a toast when toasts are enabled.
func (b *statefulBubble) notify(phrase i18n.Key, subject string) tea.Cmd {
	cfg := b.options.Config
	if !cfg.ToastEnable {
		return nil
	}

	message := b.printer.Text(phrase)
	if subject != "" {
		message += " " + subject
	}

	t := toast.Toast{
		Message:  message,
		Theme:    cfg.Theme,
		Position: toast.ParsePosition(cfg.ToastPosition),
	}
	return func() tea.Msg {
		return t
	}
}

func toggled(on bool) string {
	return lo.Ternary(on, icon.Get(icon.On), icon.Get(icon.Off))
}

func (b *statefulBubble) updatePlayer(msg tea.KeyMsg) tea.Cmd {
	a := b.adapter
	snap := a.Snapshot()

	switch {
	case bubblesKey.Matches(msg, b.keymap.quit):
		return tea.Quit
	case bubblesKey.Matches(msg, b.keymap.playPause):
		a.ChangePlayState()
	case bubblesKey.Matches(msg, b.keymap.replay):
		a.Seek(0)
		a.Play()
		return b.notify(i18n.Replay, "")
	case bubblesKey.Matches(msg, b.keymap.seekForward):
		a.Seek(snap.CurrentTime + seekStep)
	case bubblesKey.Matches(msg, b.keymap.seekBackward):
		a.Seek(snap.CurrentTime - seekStep)
	case bubblesKey.Matches(msg, b.keymap.volumeUp):
		return b.changeVolume(snap.Volume + volumeStep)
	case bubblesKey.Matches(msg, b.keymap.volumeDown):
		return b.changeVolume(snap.Volume - volumeStep)
	case bubblesKey.Matches(msg, b.keymap.mute):
		a.SetMuted(!snap.IsMute)
	case bubblesKey.Matches(msg, b.keymap.faster):
		return b.changeRate(playback.StepRate(snap.Multiple, 1))
	case bubblesKey.Matches(msg, b.keymap.slower):
		return b.changeRate(playback.StepRate(snap.Multiple, -1))
	case bubblesKey.Matches(msg, b.keymap.loop):
		loop := !a.Loop()
		a.SetLoop(loop)
		return b.notify(i18n.Loop, toggled(loop))
	case bubblesKey.Matches(msg, b.keymap.darkMask):
		a.ToggleDarkMask()
		return b.notify(i18n.Light, toggled(a.DarkMask() == playback.MaskShown))
	case bubblesKey.Matches(msg, b.keymap.pictureInPicture):
		a.TogglePictureInPicture()
		return b.notify(lo.Ternary(snap.IsPictureInPicture, i18n.ClosePicture, i18n.OpenPicture), "")
	case bubblesKey.Matches(msg, b.keymap.screenshot):
		return b.screenshot()
	case bubblesKey.Matches(msg, b.keymap.chooseQuality):
		if b.options.Quality == nil {
			return b.notify(i18n.UnsupportedCommand, "")
		}
		b.refreshQualities()
		b.setState(qualityState)
	case bubblesKey.Matches(msg, b.keymap.showHelp):
		b.helpC.ShowAll = !b.helpC.ShowAll
	}

	return nil
}

func (b *statefulBubble) changeVolume(v float64) tea.Cmd {
	v = util.Clamp(v, 0, 1)
	b.adapter.SetVolume(v)
	return b.notify(i18n.Volume, fmt.Sprintf("%d%%", int(math.Round(v*100))))
}

// changeRate goes through the quality manager when there is one, which announces the rate itself.
func (b *statefulBubble) changeRate(rate playback.Rate) tea.Cmd {
	if m := b.options.Quality; m != nil {
		m.ChangeRate(rate.Value)
		return nil
	}
	b.adapter.SetPlayRate(rate.Value)
	return b.notify(i18n.MultipleSwitch, rate.Name)
}

func (b *statefulBubble) screenshot() tea.Cmd {
	path, err := b.adapter.Screenshot()
	switch {
	case errors.Is(err, playback.ErrUnsupported):
		return b.notify(i18n.UnsupportedCommand, "")
	case err != nil:
		log.Warnf("screenshot: %v", err)
		return b.notify(i18n.Error, err.Error())
	default:
		return b.notify(i18n.ScreenshotSaved, path)
	}
}

func (b *statefulBubble) updateQuality(msg tea.KeyMsg) tea.Cmd {
	switch {
	case bubblesKey.Matches(msg, b.keymap.back):
		b.setState(playerState)
		return nil
	case bubblesKey.Matches(msg, b.keymap.confirm):
		item, ok := b.qualityC.SelectedItem().(*qualityItem)
		b.setState(playerState)
		if !ok {
			return nil
		}
		if err := b.options.Quality.Switch(item.entry.Key); err != nil {
			b.raiseError(err)
		}
		return nil
	}

	var cmd tea.Cmd
	b.qualityC, cmd = b.qualityC.Update(msg)
	return cmd
}

// handleMouse feeds terminal mouse input to the progress bar. Presses count only on the bar;
// moves and releases are picked up anywhere on the screen, as with a pointer.
func (b *statefulBubble) handleMouse(msg tea.MouseMsg) {
	if b.state != playerState {
		return
	}

	x, y := float64(msg.X), float64(msg.Y)
	onBar := x >= b.barBounds.Left && x < b.barBounds.Left+b.barBounds.Width &&
		y >= b.barBounds.Top && y < b.barBounds.Top+b.barBounds.Height

	touch := b.seekbar.Mode() == drag.Touch
	var kind drag.Kind

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return
		}
		if !onBar {
			// Clicking the video toggles playback.
			if top := float64(paddingStyle.GetPaddingTop() + 2); y >= top && y < b.barBounds.Top-1 {
				b.adapter.ChangePlayState()
			}
			return
		}
		kind = lo.Ternary(touch, drag.TouchStart, drag.MouseDown)
	case tea.MouseActionMotion:
		kind = lo.Ternary(touch, drag.TouchMove, drag.MouseMove)
	case tea.MouseActionRelease:
		kind = lo.Ternary(touch, drag.TouchEnd, drag.MouseUp)
	default:
		return
	}

	ev := drag.Event{Kind: kind, X: x, Y: y}
	if kind == drag.MouseDown || touch {
		b.bar.Dispatch(ev)
	} else {
		b.screen.Dispatch(ev)
	}
}
