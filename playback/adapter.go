// Package playback owns the authoritative state of a playback session. It folds the signals of a
// media element and a playhead sampler into one snapshot, notifies observers once per update
// and exposes the commands that drive the element.
package playback

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/reelctl/reelctl/constant"
	"github.com/reelctl/reelctl/log"
	"github.com/reelctl/reelctl/media"
	"github.com/reelctl/reelctl/stream"
	"github.com/samber/mo"
	logrus "github.com/sirupsen/logrus"
)

// Signals produced by the adapter itself rather than by the element.
const (
	// SourceChange reports a snapshot rebuilt for a new source.
	SourceChange media.Signal = "sourcechange"
	// SourceReady reports that format detection for the current source has been applied.
	SourceReady media.Signal = "sourceready"
	// TimeUpdate reports a new playhead position.
	TimeUpdate media.Signal = "timeupdate"
)

// ErrNoElement is returned when attaching a nil element.
var ErrNoElement = errors.New("no media element")

const (
	// seekGrace bounds how long samples disagreeing with a requested seek are ignored.
	seekGrace = time.Second
	// seekTolerance is how far from the target a sample may land and still confirm a seek.
	seekTolerance = 1.0
)

// Update is delivered to observers after every change of the snapshot.
type Update struct {
	Attributes
	// Generation identifies the source the snapshot belongs to. It grows on every source change.
	Generation uint64
	// Signal is what caused the update.
	Signal media.Signal
	URL    string
	Format stream.Format
}

// Observer receives updates. Observers run one at a time in update order and may call commands.
type Observer func(Update)

type pendingSeek struct {
	to       float64
	deadline time.Time
}

// latch is a channel closed at most once.
type latch struct {
	ch   chan struct{}
	once sync.Once
}

func newLatch() *latch {
	return &latch{ch: make(chan struct{})}
}

func (l *latch) release() {
	l.once.Do(func() { close(l.ch) })
}

// Adapter binds to one element at a time.
type Adapter struct {
	opts options
	exec serial

	mu        sync.Mutex
	el        media.Element
	listeners map[media.Signal]media.ListenerID
	snap      Attributes
	gen       uint64
	requested uint64
	url       string
	format    stream.Format
	settled   *latch
	cancel    context.CancelFunc
	restore   bool
	seek      mo.Option[pendingSeek]
	rewind    bool
	stop      chan struct{}

	sampling atomic.Bool

	observers    map[uint64]Observer
	nextObserver uint64
}

// New creates a detached adapter.
func New(opts ...Option) *Adapter {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	settled := newLatch()
	settled.release()

	return &Adapter{
		opts:      o,
		snap:      Fresh(0, false, 1),
		settled:   settled,
		observers: make(map[uint64]Observer),
	}
}

// Callbacks returns the hooks the adapter was configured with.
func (a *Adapter) Callbacks() Callbacks {
	return a.opts.callbacks
}

// Attach binds el and, when src is not empty, loads it. Preferences are restored once the
// first source has been classified, or immediately when there is none. Attaching the element
// already bound is a no-op; attaching another one detaches the previous element first.
func (a *Adapter) Attach(el media.Element, src string) error {
	if el == nil {
		return ErrNoElement
	}

	a.mu.Lock()
	current := a.el
	a.mu.Unlock()

	if current == el {
		return nil
	}
	if current != nil {
		a.Detach()
	}

	ids := make(map[media.Signal]media.ListenerID, len(media.Signals))
	for _, sig := range media.Signals {
		ids[sig] = el.AddListener(sig, a.listen(el))
	}

	fresh := Fresh(el.Volume(), el.Muted(), el.PlaybackRate())

	a.mu.Lock()
	a.el = el
	a.listeners = ids
	a.snap = fresh
	a.gen++
	a.restore = true
	a.startTicker()
	a.mu.Unlock()

	log.WithFields(logrus.Fields{"src": src}).Info("media element attached")

	if src != "" {
		a.SetVideoSrc(src)
		return nil
	}

	a.exec.do(func() {
		a.mu.Lock()
		restore := a.el == el && a.restore
		a.restore = false
		a.mu.Unlock()
		if restore {
			a.restorePreferences(el)
		}
	})
	return nil
}

// Detach unbinds the element, removing exactly the listeners installed by Attach and stopping
// the sampler and any pending detection. It is safe to call when nothing is attached.
func (a *Adapter) Detach() {
	a.mu.Lock()
	el := a.el
	if el == nil {
		a.mu.Unlock()
		return
	}

	ids := a.listeners
	a.el = nil
	a.listeners = nil
	a.gen++
	a.requested++
	a.url = ""
	a.snap = Fresh(0, false, 1)
	a.seek = mo.None[pendingSeek]()
	a.settled.release()
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.stop != nil {
		close(a.stop)
		a.stop = nil
	}
	a.mu.Unlock()

	for sig, id := range ids {
		el.RemoveListener(sig, id)
	}
	a.opts.engine.Detach()

	log.Info("media element detached")
}

// Attached reports whether an element is bound.
func (a *Adapter) Attached() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.el != nil
}

// Snapshot returns the current attributes.
func (a *Adapter) Snapshot() Attributes {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snap
}

// Generation returns the identifier of the current source.
func (a *Adapter) Generation() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.gen
}

// Source returns the URL of the current source and its detected format.
func (a *Adapter) Source() (string, stream.Format) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.url, a.format
}

// Settled returns a channel closed once format detection of the current source has been
// applied, or once that source has been superseded.
func (a *Adapter) Settled() <-chan struct{} {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.settled.ch
}

// Subscribe registers fn for every future update and returns its cancellation.
func (a *Adapter) Subscribe(fn Observer) (cancel func()) {
	a.mu.Lock()
	a.nextObserver++
	id := a.nextObserver
	a.observers[id] = fn
	a.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			a.mu.Lock()
			delete(a.observers, id)
			a.mu.Unlock()
		})
	}
}

// update builds the notification for the current snapshot. Callers hold a.mu.
func (a *Adapter) update(sig media.Signal) Update {
	return Update{
		Attributes: a.snap,
		Generation: a.gen,
		Signal:     sig,
		URL:        a.url,
		Format:     a.format,
	}
}

// publish notifies observers then fires the matching callback. It runs on the executor.
func (a *Adapter) publish(u Update) {
	a.mu.Lock()
	ids := make([]uint64, 0, len(a.observers))
	for id := range a.observers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	fns := make([]Observer, 0, len(ids))
	for _, id := range ids {
		fns = append(fns, a.observers[id])
	}
	a.mu.Unlock()

	for _, fn := range fns {
		fn(u)
	}
	a.opts.callbacks.dispatch(u.Signal, u.Attributes)
}

func (a *Adapter) listen(el media.Element) media.Listener {
	return func(sig media.Signal) {
		a.mu.Lock()
		gen, current := a.gen, a.el == el
		a.mu.Unlock()
		if !current {
			return
		}

		ev := Observe(el, sig, a.opts.now())
		a.exec.do(func() {
			a.apply(gen, ev)
		})
	}
}

func (a *Adapter) apply(gen uint64, ev Event) {
	a.mu.Lock()
	if a.el == nil || gen != a.gen {
		a.mu.Unlock()
		return
	}
	if ev.Signal == media.Seeking {
		// The element moved the playhead itself; let the next sample go backwards.
		a.rewind = true
		a.mu.Unlock()
		return
	}
	if ev.Signal == media.Play && a.snap.IsEnded {
		a.rewind = true
	}
	a.snap = Reduce(a.snap, ev)
	u := a.update(ev.Signal)
	a.mu.Unlock()

	if ev.Signal == media.Error {
		log.WithFields(logrus.Fields{"url": u.URL, "generation": gen}).Warn(u.Error.OrEmpty())
	}

	a.publish(u)
}

// reload starts a new generation for url unless a newer request superseded this one.
func (a *Adapter) reload(req uint64, url string) {
	a.mu.Lock()
	el := a.el
	if el == nil || req != a.requested {
		a.mu.Unlock()
		return
	}
	a.mu.Unlock()

	fresh := Fresh(el.Volume(), el.Muted(), el.PlaybackRate())
	ctx, cancel := context.WithCancel(context.Background())

	a.mu.Lock()
	if a.cancel != nil {
		a.cancel()
	}
	a.cancel = cancel
	a.gen++
	gen := a.gen
	a.url = url
	a.format = stream.Progressive
	a.snap = fresh
	a.seek = mo.None[pendingSeek]()
	a.rewind = false
	a.settled.release()
	a.settled = newLatch()
	u := a.update(SourceChange)
	a.mu.Unlock()

	log.WithFields(logrus.Fields{"url": url, "generation": gen}).Info("loading source")

	a.opts.engine.Detach()
	el.ClearSources()
	for _, t := range media.SupportedTypes {
		el.AppendSource(media.Source{URL: url, Type: t})
	}

	a.publish(u)

	go a.detect(ctx, gen, url)
}

func (a *Adapter) detect(ctx context.Context, gen uint64, url string) {
	format := a.opts.detector.Classify(ctx, url)
	a.exec.do(func() {
		a.ready(ctx, gen, url, format)
	})
}

// ready applies a detection result if its source is still the current one.
func (a *Adapter) ready(ctx context.Context, gen uint64, url string, format stream.Format) {
	entry := log.WithFields(logrus.Fields{"url": url, "generation": gen, "format": format})

	a.mu.Lock()
	el := a.el
	if el == nil || gen != a.gen || url != a.url {
		a.mu.Unlock()
		entry.Debug("dropping detection result of a superseded source")
		return
	}

	a.format = format
	if format == stream.HLS {
		// The engine reloads the element, so nothing known about the resource survives.
		a.snap.Duration = 0
		a.snap.BufferedTime = 0
		a.snap.CurrentTime = 0
	}
	restore := a.restore
	a.restore = false
	settled := a.settled
	u := a.update(SourceReady)
	a.mu.Unlock()

	entry.Info("source classified")
	a.publish(u)

	if format == stream.HLS {
		if err := a.opts.engine.Attach(ctx, el, url); err != nil {
			entry.Warnf("attach hls engine: %v", err)
		}
	}

	if restore {
		a.restorePreferences(el)
	}

	// Released behind the updates queued above so waiters observe them.
	a.exec.do(settled.release)
}

// restorePreferences applies the persisted settings without writing them back.
func (a *Adapter) restorePreferences(el media.Element) {
	p := a.opts.prefs

	volume := p.Volume().OrElse(constant.DefaultVolume / 100.0)
	if err := el.SetVolume(NormalizeVolume(volume)); err != nil {
		log.Warnf("restore volume: %v", err)
	}

	if rate, ok := p.PlayRate().Get(); ok && rate > 0 {
		if err := el.SetPlaybackRate(rate); err != nil {
			log.Warnf("restore playback rate: %v", err)
		}
	}

	if loop, ok := p.Loop().Get(); ok {
		if err := el.SetLoop(loop); err != nil {
			log.Warnf("restore loop: %v", err)
		}
	}

	if display, ok := p.DarkMask().Get(); ok && a.opts.mask != nil {
		a.opts.mask.SetDisplay(display)
	}
}

// startTicker launches the playhead sampler. Callers hold a.mu.
func (a *Adapter) startTicker() {
	if a.opts.pollInterval <= 0 {
		return
	}
	stop := make(chan struct{})
	a.stop = stop
	go a.poll(a.opts.pollInterval, stop)
}

func (a *Adapter) poll(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			a.requestSample()
		}
	}
}

// requestSample queues a sample unless one is already pending.
func (a *Adapter) requestSample() {
	if !a.sampling.CompareAndSwap(false, true) {
		return
	}
	a.exec.do(a.sample)
}

// sample reads the playhead. Within a generation the position only moves backwards through a
// seek, a loop or a replay after the end.
func (a *Adapter) sample() {
	a.sampling.Store(false)

	a.mu.Lock()
	el := a.el
	a.mu.Unlock()
	if el == nil {
		return
	}

	t := el.CurrentTime()
	loop := el.Loop()
	now := a.opts.now()

	a.mu.Lock()
	if a.el != el {
		a.mu.Unlock()
		return
	}

	if pending, ok := a.seek.Get(); ok {
		if math.Abs(t-pending.to) > seekTolerance && now.Before(pending.deadline) {
			a.mu.Unlock()
			return
		}
		a.seek = mo.None[pendingSeek]()
		a.rewind = true
	}

	cur := a.snap.CurrentTime
	if t == cur || (t < cur && !a.rewind && !loop) {
		a.mu.Unlock()
		return
	}
	a.rewind = false
	a.snap.CurrentTime = t
	u := a.update(TimeUpdate)
	a.mu.Unlock()

	a.publish(u)
}

// commitSeek moves the snapshot to a requested position ahead of the element confirming it.
func (a *Adapter) commitSeek(gen uint64, t float64) {
	a.mu.Lock()
	if a.el == nil || gen != a.gen {
		a.mu.Unlock()
		return
	}
	a.seek = mo.Some(pendingSeek{to: t, deadline: a.opts.now().Add(seekGrace)})
	a.rewind = true
	if a.snap.CurrentTime == t {
		a.mu.Unlock()
		return
	}
	a.snap.CurrentTime = t
	u := a.update(TimeUpdate)
	a.mu.Unlock()

	a.publish(u)
}
