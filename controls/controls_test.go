package controls

import (
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/reelctl/reelctl/media/mediatest"
	"github.com/reelctl/reelctl/playback"
	"github.com/samber/mo"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	seq     int
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*fakeTimer
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1700000000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &fakeTimer{clock: c, at: c.now.Add(d), seq: c.seq, f: f}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves time forward, firing due timers in order.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		var due []*fakeTimer
		for _, t := range c.timers {
			if !t.stopped && !t.fired && !t.at.After(target) {
				due = append(due, t)
			}
		}
		if len(due) == 0 {
			c.now = target
			c.mu.Unlock()
			return
		}
		sort.Slice(due, func(i, j int) bool {
			if due[i].at.Equal(due[j].at) {
				return due[i].seq < due[j].seq
			}
			return due[i].at.Before(due[j].at)
		})
		next := due[0]
		next.fired = true
		c.now = next.at
		c.mu.Unlock()

		next.f()
	}
}

func TestReduce(t *testing.T) {
	Convey("Reduce should only touch the field its action names", t, func() {
		s := State{}
		s = Reduce(s, SetControl(true))
		So(s, ShouldResemble, State{IsControl: true})

		s = Reduce(s, SetQuality(4))
		So(s.IsControl, ShouldBeTrue)
		So(s.Quality, ShouldResemble, mo.Some(4))

		s = Reduce(s, SetControl(false))
		So(s.Quality, ShouldResemble, mo.Some(4))
		So(s.IsControl, ShouldBeFalse)

		So(Reduce(s, nil), ShouldResemble, s)
	})
}

func TestVisibility(t *testing.T) {
	Convey("Given controls with a 2s hide time and a 1s throttle", t, func() {
		clock := newFakeClock()
		v := NewVisibility(WithClock(clock), WithHideTime(2*time.Second), WithThrottle(time.Second))

		var transitions []bool
		v.Subscribe(func(s State) {
			transitions = append(transitions, s.IsControl)
		})

		Convey("They should start hidden", func() {
			So(v.State().IsControl, ShouldBeFalse)
		})

		Convey("Activity should show them until the hide time elapses", func() {
			v.Activity()
			So(v.State().IsControl, ShouldBeTrue)

			clock.Advance(1999 * time.Millisecond)
			So(v.State().IsControl, ShouldBeTrue)

			clock.Advance(time.Millisecond)
			So(v.State().IsControl, ShouldBeFalse)
			So(transitions, ShouldResemble, []bool{true, false})
		})

		Convey("Activity after the throttle window should reschedule the hide", func() {
			v.Activity()
			clock.Advance(1500 * time.Millisecond)
			v.Activity()

			clock.Advance(1900 * time.Millisecond)
			So(v.State().IsControl, ShouldBeTrue)

			clock.Advance(100 * time.Millisecond)
			So(v.State().IsControl, ShouldBeFalse)
			So(transitions, ShouldResemble, []bool{true, false})
		})

		Convey("Activity inside the throttle window should be handled when it closes", func() {
			v.Activity()
			clock.Advance(500 * time.Millisecond)
			v.Activity()
			v.Activity()

			clock.Advance(2400 * time.Millisecond)
			So(v.State().IsControl, ShouldBeTrue)

			clock.Advance(100 * time.Millisecond)
			So(v.State().IsControl, ShouldBeFalse)
			So(transitions, ShouldResemble, []bool{true, false})
		})

		Convey("The end of playback should pin them visible", func() {
			v.Activity()
			v.Ended()

			clock.Advance(10 * time.Second)
			So(v.State().IsControl, ShouldBeTrue)

			Convey("Until activity schedules a hide again", func() {
				v.Activity()
				clock.Advance(2 * time.Second)
				So(v.State().IsControl, ShouldBeFalse)
			})
		})

		Convey("Stop should cancel the pending hide", func() {
			v.Activity()
			v.Stop()
			clock.Advance(time.Minute)
			So(v.State().IsControl, ShouldBeTrue)
		})

		Convey("Quality selection should not affect visibility", func() {
			v.Dispatch(SetQuality(2))
			So(v.State().Quality.MustGet(), ShouldEqual, 2)
			So(v.State().IsControl, ShouldBeFalse)
		})
	})

	Convey("Without a throttle every activity should reschedule the hide", t, func() {
		clock := newFakeClock()
		v := NewVisibility(WithClock(clock), WithHideTime(time.Second), WithThrottle(0))

		v.Activity()
		clock.Advance(900 * time.Millisecond)
		v.Activity()
		clock.Advance(900 * time.Millisecond)
		So(v.State().IsControl, ShouldBeTrue)
		clock.Advance(100 * time.Millisecond)
		So(v.State().IsControl, ShouldBeFalse)
	})
}

func TestBind(t *testing.T) {
	Convey("Given controls bound to a playback adapter", t, func() {
		clock := newFakeClock()

		var shown []playback.Attributes
		adapter := playback.New(
			playback.WithPollInterval(0),
			playback.WithCallbacks(playback.Callbacks{
				OnIsControl: func(a playback.Attributes) { shown = append(shown, a) },
			}),
		)

		el := mediatest.New()
		So(adapter.Attach(el, ""), ShouldBeNil)

		v := NewVisibility(WithClock(clock), WithHideTime(2*time.Second), WithThrottle(time.Second))
		cancel := v.Bind(adapter)
		defer cancel()

		Convey("Becoming visible should fire the hook once per transition", func() {
			v.Activity()
			clock.Advance(1100 * time.Millisecond)
			v.Activity()
			So(shown, ShouldHaveLength, 1)

			clock.Advance(5 * time.Second)
			v.Activity()
			So(shown, ShouldHaveLength, 2)
		})

		Convey("The end of playback should show the controls", func() {
			el.Finish()
			So(v.State().IsControl, ShouldBeTrue)

			clock.Advance(time.Minute)
			So(v.State().IsControl, ShouldBeTrue)
			So(shown, ShouldHaveLength, 1)
		})

		Reset(func() {
			adapter.Detach()
		})
	})
}
