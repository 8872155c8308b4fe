package drag

import (
	"sync"
	"time"

	"github.com/reelctl/reelctl/config"
	"github.com/reelctl/reelctl/constant"
	"github.com/reelctl/reelctl/device"
	"github.com/reelctl/reelctl/log"
	"github.com/reelctl/reelctl/util"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Session is one drag from press to release.
type Session struct {
	StartX, StartY float64
	EndX, EndY     float64
}

// Callbacks receive the session as it evolves. Every callback is optional.
type Callbacks struct {
	OnDragStart func(Session)
	OnDrag      func(Session)
	OnDragEnd   func(Session)
}

func call(fn func(Session), s Session) {
	if fn != nil {
		fn(s)
	}
}

type options struct {
	viewport  Target
	throttle  time.Duration
	now       func() time.Time
	userAgent func() string
}

// Option configures a Tracker.
type Option func(*options)

// WithViewport replaces the surface mouse moves and releases are followed on.
func WithViewport(t Target) Option {
	return func(o *options) {
		if t != nil {
			o.viewport = t
		}
	}
}

// WithThrottle sets the minimum interval between two OnDrag calls. Zero reports every move.
func WithThrottle(d time.Duration) Option {
	return func(o *options) {
		if d >= 0 {
			o.throttle = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithUserAgent fixes the user agent the input mode is detected from.
func WithUserAgent(ua string) Option {
	return func(o *options) {
		o.userAgent = func() string { return ua }
	}
}

// FromConfig derives options from the loaded settings.
func FromConfig(cfg config.Options) []Option {
	return []Option{WithThrottle(cfg.DragThrottle)}
}

type installed struct {
	target Target
	kind   Kind
	id     ListenerID
}

// Tracker reports drags on a target. The input mode is detected on Attach and kept until
// Detach; Detach removes exactly the listeners Attach installed.
type Tracker struct {
	target    Target
	callbacks Callbacks
	opts      options

	mu        sync.Mutex
	mode      Mode
	installed []installed
	limiter   *rate.Limiter
	dragging  bool
	session   Session
}

// NewTracker creates a detached tracker for target, the viewport when target is nil.
func NewTracker(target Target, callbacks Callbacks, opts ...Option) *Tracker {
	o := options{
		viewport:  Viewport(),
		throttle:  constant.DefaultDragThrottle,
		now:       time.Now,
		userAgent: device.UserAgent,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if target == nil {
		target = o.viewport
	}

	return &Tracker{target: target, callbacks: callbacks, opts: o}
}

// Attach installs the listeners of the detected mode. Attaching twice is a no-op.
func (t *Tracker) Attach() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.installed != nil {
		return
	}

	t.mode = DetectMode(t.opts.userAgent())
	add := func(target Target, kind Kind, fn Handler) {
		t.installed = append(t.installed, installed{target: target, kind: kind, id: target.AddListener(kind, fn)})
	}

	switch t.mode {
	case Touch:
		add(t.target, TouchStart, t.start)
		add(t.target, TouchMove, t.move)
		add(t.target, TouchEnd, t.end)
	default:
		add(t.target, MouseDown, t.start)
		add(t.opts.viewport, MouseMove, t.move)
		add(t.opts.viewport, MouseUp, t.end)
	}

	log.WithFields(logrus.Fields{"mode": t.mode}).Debug("drag tracker attached")
}

// Detach removes the installed listeners and abandons a drag in progress without reporting
// its end. Detaching twice is a no-op.
func (t *Tracker) Detach() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, l := range t.installed {
		l.target.RemoveListener(l.kind, l.id)
	}
	t.installed = nil
	t.dragging = false
}

// Mode returns the input mode chosen by the last Attach.
func (t *Tracker) Mode() Mode {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mode
}

// Dragging reports whether a drag is in progress.
func (t *Tracker) Dragging() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dragging
}

// Session returns the current or last session.
func (t *Tracker) Session() Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session
}

func (t *Tracker) start(e Event) {
	t.mu.Lock()
	limit := rate.Inf
	if t.opts.throttle > 0 {
		limit = rate.Every(t.opts.throttle)
	}
	t.limiter = rate.NewLimiter(limit, 1)
	t.dragging = true
	t.session = Session{StartX: e.X, StartY: e.Y, EndX: e.X, EndY: e.Y}
	s := t.session
	t.mu.Unlock()

	call(t.callbacks.OnDragStart, s)
}

// move records every position but reports at most one per throttle interval.
func (t *Tracker) move(e Event) {
	t.mu.Lock()
	if !t.dragging {
		t.mu.Unlock()
		return
	}
	t.session.EndX, t.session.EndY = e.X, e.Y
	s := t.session
	report := t.limiter.AllowN(t.opts.now(), 1)
	t.mu.Unlock()

	if report {
		call(t.callbacks.OnDrag, s)
	}
}

// end closes the session at the last recorded move. Release coordinates are ignored since
// touch releases carry none.
func (t *Tracker) end(Event) {
	t.mu.Lock()
	if !t.dragging {
		t.mu.Unlock()
		return
	}
	t.dragging = false
	s := t.session
	t.mu.Unlock()

	call(t.callbacks.OnDragEnd, s)
}

// Bounds is the on-screen rectangle of a bar.
type Bounds struct {
	Left, Top     float64
	Width, Height float64
}

// PercentX returns how far along b the session ended, in [0, 1], for horizontal bars.
func PercentX(s Session, b Bounds) float64 {
	if b.Width <= 0 {
		return 0
	}
	return util.Clamp((s.EndX-b.Left)/b.Width, 0, 1)
}

// PercentY returns how much of b is filled from the bottom up to where the session ended, in
// [0, 1], for vertical bars.
func PercentY(s Session, b Bounds) float64 {
	if b.Height <= 0 {
		return 0
	}
	return util.Clamp(1-(s.EndY-b.Top)/b.Height, 0, 1)
}
