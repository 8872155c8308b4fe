package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/reelctl/reelctl/config"
	"github.com/reelctl/reelctl/filesystem"
	"github.com/reelctl/reelctl/media"
	"github.com/reelctl/reelctl/media/mediatest"
	"github.com/reelctl/reelctl/playback"
	"github.com/reelctl/reelctl/prefs"
	"github.com/reelctl/reelctl/quality"
	"github.com/reelctl/reelctl/toast"
	. "github.com/smartystreets/goconvey/convey"
	"golang.org/x/text/language"
)

func init() {
	filesystem.SetMemMapFs()
}

const (
	sd  = "https://cdn.example.com/480.mp4"
	fhd = "https://cdn.example.com/1080.mp4"
)

type engine struct{}

func (engine) Attach(_ context.Context, el media.Element, url string) error {
	return el.SetSrc(url)
}

func (engine) Detach() {}

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return false
}

// toasts runs cmd and collects the toasts it produces.
func toasts(cmd tea.Cmd) []toast.Toast {
	if cmd == nil {
		return nil
	}

	switch msg := cmd().(type) {
	case toast.Toast:
		return []toast.Toast{msg}
	case tea.BatchMsg:
		var out []toast.Toast
		for _, c := range msg {
			out = append(out, toasts(c)...)
		}
		return out
	}
	return nil
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(b *statefulBubble, s string) tea.Cmd {
	_, cmd := b.Update(keyMsg(s))
	return cmd
}

type fixture struct {
	el      *mediatest.Element
	adapter *playback.Adapter
	mask    *Mask
	options *Options
	bubble  *statefulBubble
}

func newFixture(cfg config.Options) *fixture {
	el := mediatest.New()
	el.Register(sd, mediatest.Resource{Duration: 120, Width: 1280, Height: 720})
	el.Register(fhd, mediatest.Resource{Duration: 120, Width: 1920, Height: 1080})

	f := &fixture{el: el, mask: NewMask()}
	f.adapter = playback.New(
		playback.WithPollInterval(0),
		playback.WithEngine(engine{}),
		playback.WithPreferences(prefs.New(prefs.NewMemoryStore())),
		playback.WithMask(f.mask),
		playback.WithScreenshotDir("/shots"),
	)
	f.options = &Options{
		Title:    "Big Buck Bunny",
		Adapter:  f.adapter,
		Video:    el,
		Mask:     f.mask,
		Notifier: NewNotifier(),
		Config:   cfg,
	}
	return f
}

func (f *fixture) start() {
	So(f.adapter.Attach(f.el, sd), ShouldBeNil)
	select {
	case <-f.adapter.Settled():
	case <-time.After(2 * time.Second):
	}
	f.bubble = newBubble(f.options)
	f.bubble.resize(80, 24)
}

func english() config.Options {
	return config.Options{
		Language:              "en",
		Theme:                 "red",
		ToastEnable:           true,
		ToastPosition:         "rightTop",
		PausePlacement:        "center",
		ProgressFloatEnable:   true,
		ProgressFloatPosition: "top",
	}
}

func TestKeys(t *testing.T) {
	Convey("Given a player screen", t, func() {
		f := newFixture(english())
		f.start()

		Reset(func() {
			f.bubble.close()
			f.adapter.Detach()
		})

		Convey("Space should toggle playback", func() {
			press(f.bubble, " ")
			So(eventually(func() bool { return f.adapter.Snapshot().IsPlay }), ShouldBeTrue)

			press(f.bubble, " ")
			So(eventually(func() bool { return !f.adapter.Snapshot().IsPlay }), ShouldBeTrue)
		})

		Convey("Arrows should seek by five seconds", func() {
			press(f.bubble, "right")
			So(eventually(func() bool { return f.adapter.Snapshot().CurrentTime == 5 }), ShouldBeTrue)
		})

		Convey("Volume changes should be announced in percent", func() {
			got := toasts(press(f.bubble, "up"))
			So(got, ShouldHaveLength, 1)
			So(got[0].Message, ShouldEqual, "Volume 65%")
			So(got[0].Position, ShouldEqual, toast.RightTop)
			So(got[0].Theme, ShouldEqual, "red")
		})

		Convey("Rate steps should follow the presets", func() {
			got := toasts(press(f.bubble, "]"))
			So(got[0].Message, ShouldEqual, "The playback multiple has been switched to 1.25x")
			So(eventually(func() bool { return f.adapter.Snapshot().Multiple == 1.25 }), ShouldBeTrue)
		})

		Convey("Loop and the dark mask should toggle", func() {
			So(toasts(press(f.bubble, "L"))[0].Message, ShouldEqual, "Loop ✓")
			So(f.adapter.Loop(), ShouldBeTrue)

			So(toasts(press(f.bubble, "d"))[0].Message, ShouldEqual, "Dark ✓")
			So(f.mask.Shown(), ShouldBeTrue)
		})

		Convey("Screenshots should report where they were saved", func() {
			got := toasts(press(f.bubble, "s"))
			So(got[0].Message, ShouldStartWith, "Screenshot saved to /shots/screenshot")
		})

		Convey("Picking a quality without a manager should be refused", func() {
			got := toasts(press(f.bubble, "c"))
			So(got[0].Message, ShouldEqual, "Not supported by this player")
			So(f.bubble.state, ShouldEqual, playerState)
		})

		Convey("A media error should be announced", func() {
			_, cmd := f.bubble.Update(updateMsg{Signal: media.Error})
			So(toasts(cmd)[0].Message, ShouldEqual, "Playback failed")
		})

		Convey("q should quit", func() {
			So(press(f.bubble, "q")(), ShouldResemble, tea.QuitMsg{})
		})
	})

	Convey("Disabled toasts should produce nothing", t, func() {
		cfg := english()
		cfg.ToastEnable = false
		f := newFixture(cfg)
		f.start()
		defer f.bubble.close()

		So(toasts(press(f.bubble, "up")), ShouldBeEmpty)
	})
}

func TestQualityPicker(t *testing.T) {
	Convey("Given a player with two renditions", t, func() {
		f := newFixture(english())
		m, err := quality.NewManager(f.adapter, quality.Config{
			CurrentKey: 2,
			List: []quality.Entry{
				{Key: 2, URL: sd, Names: map[string]string{"en": "480p"}},
				{Key: 4, URL: fhd, Names: map[string]string{"en": "1080p"}},
			},
		}, quality.WithNotifier(f.options.Notifier), quality.WithToast(true, toast.RightTop), quality.WithLanguage(language.English))
		So(err, ShouldBeNil)
		f.options.Quality = m
		f.start()

		Reset(func() {
			f.bubble.close()
			m.Close()
			f.adapter.Detach()
		})

		Convey("The picker should list both with the current one selected", func() {
			press(f.bubble, "c")
			So(f.bubble.state, ShouldEqual, qualityState)
			So(f.bubble.qualityC.Items(), ShouldHaveLength, 2)
			So(f.bubble.qualityC.Index(), ShouldEqual, 0)
			So(f.bubble.View(), ShouldContainSubstring, "1080p")

			Convey("Confirming another one should switch to it", func() {
				press(f.bubble, "down")
				press(f.bubble, "enter")
				So(f.bubble.state, ShouldEqual, playerState)
				So(m.Current().Key, ShouldEqual, 4)

				select {
				case got := <-f.options.Notifier.ch:
					So(got.Message, ShouldEqual, "Resolution has been switched to 1080p")
				case <-time.After(time.Second):
					So("no toast", ShouldBeEmpty)
				}
			})

			Convey("Escape should leave it unchanged", func() {
				press(f.bubble, "esc")
				So(f.bubble.state, ShouldEqual, playerState)
				So(m.Current().Key, ShouldEqual, 2)
			})
		})

		Convey("The status line should name the current quality", func() {
			So(f.bubble.View(), ShouldContainSubstring, "Quality 480p")
		})
	})
}

func TestMouse(t *testing.T) {
	Convey("Given a player screen", t, func() {
		f := newFixture(english())
		f.start()
		defer f.bubble.close()

		bar := f.bubble.barBounds
		middle := int(bar.Left + bar.Width/2)
		row := int(bar.Top)

		Convey("Dragging the bar should preview and then seek", func() {
			f.bubble.Update(tea.MouseMsg{X: int(bar.Left), Y: row, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
			f.bubble.Update(tea.MouseMsg{X: middle, Y: row + 3, Action: tea.MouseActionMotion})

			at, ok := f.bubble.preview.Get()
			So(ok, ShouldBeTrue)
			So(at, ShouldEqual, 60)
			So(f.bubble.View(), ShouldContainSubstring, "01:00")

			f.bubble.Update(tea.MouseMsg{X: middle, Y: row + 3, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})
			So(f.bubble.preview.IsPresent(), ShouldBeFalse)
			So(eventually(func() bool { return f.adapter.Snapshot().CurrentTime == 60 }), ShouldBeTrue)
		})

		Convey("Moves without a press on the bar should do nothing", func() {
			f.bubble.Update(tea.MouseMsg{X: middle, Y: row, Action: tea.MouseActionMotion})
			So(f.bubble.preview.IsPresent(), ShouldBeFalse)
		})
	})
}

func TestView(t *testing.T) {
	Convey("Given a player screen", t, func() {
		f := newFixture(english())
		f.start()
		defer f.bubble.close()

		Convey("It should show the title, the clock and the status", func() {
			view := f.bubble.View()
			So(view, ShouldContainSubstring, "Big Buck Bunny")
			So(view, ShouldContainSubstring, "00:00 / 02:00")
			So(view, ShouldContainSubstring, "Volume 60%")
			So(view, ShouldContainSubstring, "⏸")
		})

		Convey("Hidden controls should drop the status line", func() {
			f.bubble.Update(controlsMsg{IsControl: false})
			So(f.bubble.View(), ShouldNotContainSubstring, "Volume 60%")
		})

		Convey("The video area should keep the aspect of the video", func() {
			So(f.bubble.video.Width, ShouldBeGreaterThan, 0)
			So(f.bubble.video.Width/(f.bubble.video.Height*2), ShouldAlmostEqual, 16.0/9.0, 0.01)
		})

		Convey("Errors should get their own screen until dismissed", func() {
			f.bubble.Update(errors.New("source went away"))
			So(f.bubble.state, ShouldEqual, errorState)
			So(f.bubble.View(), ShouldContainSubstring, "source went away")

			press(f.bubble, "esc")
			So(f.bubble.state, ShouldEqual, playerState)
		})

		Convey("Toasts should be drawn over the screen", func() {
			f.bubble.Update(toast.Toast{Message: "hello there", Position: toast.LeftTop})
			So(f.bubble.View(), ShouldContainSubstring, "hello there")
		})
	})
}

func TestNotifier(t *testing.T) {
	Convey("A full notifier should drop toasts instead of blocking", t, func() {
		n := NewNotifier()
		for i := 0; i < cap(n.ch)+5; i++ {
			n.Notify(toast.Toast{Message: "x"})
		}
		So(len(n.ch), ShouldEqual, cap(n.ch))
	})
}
