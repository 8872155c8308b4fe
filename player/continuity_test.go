package player

import (
	"math"
	"testing"
	"time"

	"github.com/reelctl/reelctl/playback"
	"github.com/reelctl/reelctl/quality"
	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/goleak"
)

const (
	sdURL  = "https://cdn.example.com/480.mp4"
	fhdURL = "https://cdn.example.com/1080.mp4"
)

func settledWithin(a *playback.Adapter) bool {
	select {
	case <-a.Settled():
		return true
	case <-time.After(2 * time.Second):
		return false
	}
}

func TestAdapterOverMPV(t *testing.T) {
	defer goleak.VerifyNone(t)

	Convey("Given an adapter driving mpv", t, func() {
		srv := newFakeMPV(t)
		m, err := Dial(srv.path)
		So(err, ShouldBeNil)

		adapter := playback.New(playback.WithPollInterval(5 * time.Millisecond))

		Reset(func() {
			adapter.Detach()
			_ = m.Close()
			srv.Close()
		})

		So(adapter.Attach(m, sdURL), ShouldBeNil)
		So(settledWithin(adapter), ShouldBeTrue)

		adapter.Play()
		So(eventually(func() bool { return adapter.Snapshot().IsPlay }), ShouldBeTrue)

		srv.change("time-pos", 45.0)
		So(eventually(func() bool { return adapter.Snapshot().CurrentTime == 45 }), ShouldBeTrue)

		Convey("Switching quality while playing should resume playing at the same position", func() {
			manager, err := quality.NewManager(adapter, quality.Config{
				CurrentKey: 2,
				List: []quality.Entry{
					{Key: 2, URL: sdURL, Names: map[string]string{"en": "480p"}},
					{Key: 4, URL: fhdURL, Names: map[string]string{"en": "1080p"}},
				},
			})
			So(err, ShouldBeNil)
			defer manager.Close()

			So(manager.Switch(4), ShouldBeNil)
			So(eventually(func() bool { return !manager.Pending() }), ShouldBeTrue)

			So(eventually(func() bool {
				snap := adapter.Snapshot()
				return snap.IsPlay && math.Abs(snap.CurrentTime-45) < 0.5
			}), ShouldBeTrue)
			So(srv.paused(), ShouldBeFalse)
			So(m.Src(), ShouldEqual, fhdURL)

			Convey("and a single toggle should then pause", func() {
				adapter.ChangePlayState()
				So(eventually(func() bool { return !adapter.Snapshot().IsPlay }), ShouldBeTrue)
				So(srv.paused(), ShouldBeTrue)
			})
		})

		Convey("A backward seek made in the mpv window should reach the snapshot", func() {
			srv.change("time-pos", 60.0)
			So(eventually(func() bool { return adapter.Snapshot().CurrentTime == 60 }), ShouldBeTrue)

			srv.jump(10.0)
			So(eventually(func() bool { return adapter.Snapshot().CurrentTime == 10 }), ShouldBeTrue)
		})
	})
}
