package controls

import (
	"sync"
	"time"

	"github.com/reelctl/reelctl/config"
	"github.com/reelctl/reelctl/constant"
	"github.com/reelctl/reelctl/log"
	"github.com/reelctl/reelctl/media"
	"github.com/reelctl/reelctl/playback"
	"golang.org/x/time/rate"
)

type options struct {
	clock    Clock
	hideTime time.Duration
	throttle time.Duration
}

// Option configures a Visibility.
type Option func(*options)

func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithHideTime sets the idle time after which the controls hide.
func WithHideTime(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.hideTime = d
		}
	}
}

// WithThrottle sets the minimum interval between two handled activities.
func WithThrottle(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.throttle = d
		}
	}
}

// FromConfig derives options from the loaded settings.
func FromConfig(cfg config.Options) []Option {
	return []Option{
		WithHideTime(cfg.HideTime),
		WithThrottle(cfg.ActivityThrottle),
	}
}

// Visibility drives State from pointer activity and playback. Activity shows the controls and
// schedules hiding them once the pointer has been idle for the hide time; every handled activity
// reschedules the hide. Activity is throttled on both edges: the first one in a window is handled
// at once and the last one is handled when the window closes.
type Visibility struct {
	opts    options
	limiter *rate.Limiter

	mu        sync.Mutex
	state     State
	hide      Timer
	hideSeq   uint64
	trailing  Timer
	onShown   func()
	observers map[uint64]func(State)
	next      uint64
}

// NewVisibility creates hidden controls.
func NewVisibility(opts ...Option) *Visibility {
	o := options{
		clock:    SystemClock,
		hideTime: constant.DefaultHideTime,
		throttle: constant.DefaultActivityThrottle,
	}
	for _, opt := range opts {
		opt(&o)
	}

	limit := rate.Inf
	if o.throttle > 0 {
		limit = rate.Every(o.throttle)
	}

	return &Visibility{
		opts:      o,
		limiter:   rate.NewLimiter(limit, 1),
		observers: make(map[uint64]func(State)),
	}
}

// State returns the current state.
func (v *Visibility) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Subscribe registers fn for every state change and returns its cancellation.
func (v *Visibility) Subscribe(fn func(State)) (cancel func()) {
	v.mu.Lock()
	v.next++
	id := v.next
	v.observers[id] = fn
	v.mu.Unlock()

	return func() {
		v.mu.Lock()
		delete(v.observers, id)
		v.mu.Unlock()
	}
}

// Dispatch applies a and notifies subscribers when the state changed.
func (v *Visibility) Dispatch(a Action) {
	v.mu.Lock()
	prev := v.state
	next := Reduce(prev, a)
	v.state = next
	fns := make([]func(State), 0, len(v.observers))
	for id := uint64(1); id <= v.next; id++ {
		if fn, ok := v.observers[id]; ok {
			fns = append(fns, fn)
		}
	}
	onShown := v.onShown
	v.mu.Unlock()

	if prev == next {
		return
	}

	for _, fn := range fns {
		fn(next)
	}
	if !prev.IsControl && next.IsControl && onShown != nil {
		onShown()
	}
}

// Activity reports pointer movement over the player.
func (v *Visibility) Activity() {
	now := v.opts.clock.Now()

	v.mu.Lock()
	if v.trailing != nil {
		v.mu.Unlock()
		return
	}

	r := v.limiter.ReserveN(now, 1)
	delay := r.DelayFrom(now)
	if delay <= 0 {
		v.mu.Unlock()
		v.show()
		return
	}

	v.trailing = v.opts.clock.AfterFunc(delay, func() {
		v.mu.Lock()
		v.trailing = nil
		v.mu.Unlock()
		v.show()
	})
	v.mu.Unlock()
}

func (v *Visibility) show() {
	v.armHide()
	v.Dispatch(SetControl(true))
}

func (v *Visibility) armHide() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.hide != nil {
		v.hide.Stop()
	}
	v.hideSeq++
	seq := v.hideSeq
	v.hide = v.opts.clock.AfterFunc(v.opts.hideTime, func() {
		v.mu.Lock()
		current := seq == v.hideSeq
		if current {
			v.hide = nil
		}
		v.mu.Unlock()
		if current {
			v.Dispatch(SetControl(false))
		}
	})
}

// cancel drops the pending hide and trailing activity.
func (v *Visibility) cancel() {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.hideSeq++
	if v.hide != nil {
		v.hide.Stop()
		v.hide = nil
	}
	if v.trailing != nil {
		v.trailing.Stop()
		v.trailing = nil
	}
}

// Ended keeps the controls visible once playback finished.
func (v *Visibility) Ended() {
	v.cancel()
	v.Dispatch(SetControl(true))
}

// Stop cancels pending timers.
func (v *Visibility) Stop() {
	v.cancel()
}

// Bind follows the playback of a: the end of a video forces the controls visible and resuming
// schedules their hiding again. Transitions to visible fire the OnIsControl hook of a.
func (v *Visibility) Bind(a *playback.Adapter) (cancel func()) {
	v.mu.Lock()
	v.onShown = func() {
		a.Callbacks().ControlShown(a.Snapshot())
	}
	v.mu.Unlock()

	unsubscribe := a.Subscribe(func(u playback.Update) {
		switch u.Signal {
		case media.Ended:
			log.Debug("playback ended, pinning controls")
			v.Ended()
		case media.Play:
			if v.State().IsControl {
				v.armHide()
			}
		}
	})

	return func() {
		unsubscribe()
		v.mu.Lock()
		v.onShown = nil
		v.mu.Unlock()
	}
}
