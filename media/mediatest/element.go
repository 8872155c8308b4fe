// Package mediatest provides a scriptable in-memory media.Element.
//
// Signals are dispatched synchronously on the goroutine issuing the command, the
// way a browser dispatches media events, which keeps tests deterministic.
package mediatest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/reelctl/reelctl/media"
)

// Resource scripts how the element behaves when a URL is loaded.
type Resource struct {
	Duration float64
	Width    float64
	Height   float64
	// Fail makes loading emit an error signal instead of metadata.
	Fail bool
	// Deferred keeps the resource loading until Resolve is called.
	Deferred bool
}

// ErrNoSource is returned by Play when nothing is loaded.
var ErrNoSource = errors.New("no source loaded")

// Element is a goroutine-safe fake media element.
type Element struct {
	mu        sync.Mutex
	listeners map[media.Signal]map[media.ListenerID]media.Listener
	catalog   map[string]Resource
	calls     []string

	src         string
	sources     []media.Source
	paused      bool
	ended       bool
	duration    float64
	currentTime float64
	buffered    []media.Range
	volume      float64
	muted       bool
	rate        float64
	loop        bool
	pip         bool
	width       float64
	height      float64

	display string
}

// New creates an element with browser defaults: paused, full volume, normal rate.
func New() *Element {
	return &Element{
		listeners: make(map[media.Signal]map[media.ListenerID]media.Listener),
		catalog:   make(map[string]Resource),
		paused:    true,
		volume:    1,
		rate:      1,
	}
}

// Register scripts the behavior of a URL.
func (e *Element) Register(url string, r Resource) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.catalog[url] = r
}

// Calls returns the commands received so far, oldest first.
func (e *Element) Calls() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.calls...)
}

// ResetCalls forgets the recorded commands.
func (e *Element) ResetCalls() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = nil
}

// ListenerCount returns the number of registered listeners over all signals.
func (e *Element) ListenerCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, ls := range e.listeners {
		n += len(ls)
	}
	return n
}

func (e *Element) AddListener(sig media.Signal, fn media.Listener) media.ListenerID {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := media.NextListenerID()
	if e.listeners[sig] == nil {
		e.listeners[sig] = make(map[media.ListenerID]media.Listener)
	}
	e.listeners[sig][id] = fn
	return id
}

func (e *Element) RemoveListener(sig media.Signal, id media.ListenerID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.listeners[sig], id)
}

// Emit dispatches a signal to every listener registered for it.
func (e *Element) Emit(sig media.Signal) {
	e.mu.Lock()
	fns := make([]media.Listener, 0, len(e.listeners[sig]))
	for _, fn := range e.listeners[sig] {
		fns = append(fns, fn)
	}
	e.mu.Unlock()

	for _, fn := range fns {
		fn(sig)
	}
}

func (e *Element) emitAll(sigs []media.Signal) {
	for _, sig := range sigs {
		e.Emit(sig)
	}
}

func (e *Element) record(format string, args ...any) {
	e.calls = append(e.calls, fmt.Sprintf(format, args...))
}

// load resets the element for url and reports the signals to emit once unlocked.
func (e *Element) load(url string) []media.Signal {
	e.src = url
	e.paused = true
	e.ended = false
	e.duration = 0
	e.currentTime = 0
	e.buffered = nil
	e.width, e.height = 0, 0

	r, ok := e.catalog[url]
	if !ok || r.Deferred {
		return nil
	}
	return e.complete(r)
}

func (e *Element) complete(r Resource) []media.Signal {
	if r.Fail {
		return []media.Signal{media.Error}
	}
	e.duration = r.Duration
	e.width, e.height = r.Width, r.Height
	return []media.Signal{media.LoadedMetadata}
}

// Resolve finishes loading a deferred resource.
func (e *Element) Resolve(url string) {
	e.mu.Lock()
	r, ok := e.catalog[url]
	if !ok || e.src != url {
		e.mu.Unlock()
		return
	}
	sigs := e.complete(r)
	e.mu.Unlock()
	e.emitAll(sigs)
}

func (e *Element) Load() error {
	e.mu.Lock()
	e.record("load")
	sigs := e.load(e.src)
	e.mu.Unlock()
	e.emitAll(sigs)
	return nil
}

func (e *Element) Play() error {
	e.mu.Lock()
	e.record("play")
	if e.src == "" {
		e.mu.Unlock()
		return ErrNoSource
	}
	if !e.paused {
		e.mu.Unlock()
		return nil
	}
	if e.ended {
		e.currentTime = 0
		e.ended = false
	}
	e.paused = false
	e.mu.Unlock()
	e.emitAll([]media.Signal{media.Play, media.Playing})
	return nil
}

func (e *Element) Pause() error {
	e.mu.Lock()
	e.record("pause")
	if e.paused {
		e.mu.Unlock()
		return nil
	}
	e.paused = true
	e.mu.Unlock()
	e.Emit(media.Pause)
	return nil
}

func (e *Element) Paused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

func (e *Element) Ended() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ended
}

func (e *Element) Duration() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.duration
}

func (e *Element) CurrentTime() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentTime
}

func (e *Element) SetCurrentTime(seconds float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("seek %g", seconds)
	if seconds < 0 {
		seconds = 0
	}
	if e.duration > 0 && seconds > e.duration {
		seconds = e.duration
	}
	e.currentTime = seconds
	return nil
}

// Advance moves the playhead forward by dt seconds when playing.
func (e *Element) Advance(dt float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.paused {
		return
	}
	e.currentTime += dt
	if e.duration > 0 && e.currentTime > e.duration {
		e.currentTime = e.duration
	}
}

// Jump moves the playhead the way a viewer seeking in the player window would, without going
// through SetCurrentTime, and emits seeking.
func (e *Element) Jump(seconds float64) {
	e.mu.Lock()
	e.currentTime = seconds
	e.ended = false
	e.mu.Unlock()
	e.Emit(media.Seeking)
}

// Finish plays the resource to its end, emitting pause then ended.
func (e *Element) Finish() {
	e.mu.Lock()
	e.currentTime = e.duration
	e.paused = true
	e.ended = true
	e.mu.Unlock()
	e.emitAll([]media.Signal{media.Pause, media.Ended})
}

// Buffer extends the buffered ranges and emits progress.
func (e *Element) Buffer(r media.Range) {
	e.mu.Lock()
	e.buffered = append(e.buffered, r)
	e.mu.Unlock()
	e.Emit(media.Progress)
}

func (e *Element) Buffered() []media.Range {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]media.Range(nil), e.buffered...)
}

func (e *Element) Volume() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.volume
}

func (e *Element) SetVolume(v float64) error {
	e.mu.Lock()
	e.record("volume %g", v)
	if v < 0 || v > 1 {
		e.mu.Unlock()
		return fmt.Errorf("volume %g outside [0, 1]", v)
	}
	changed := e.volume != v
	e.volume = v
	e.mu.Unlock()
	if changed {
		e.Emit(media.VolumeChange)
	}
	return nil
}

func (e *Element) Muted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.muted
}

func (e *Element) SetMuted(muted bool) error {
	e.mu.Lock()
	e.record("muted %t", muted)
	changed := e.muted != muted
	e.muted = muted
	e.mu.Unlock()
	if changed {
		e.Emit(media.VolumeChange)
	}
	return nil
}

func (e *Element) PlaybackRate() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rate
}

func (e *Element) SetPlaybackRate(rate float64) error {
	e.mu.Lock()
	e.record("rate %g", rate)
	changed := e.rate != rate
	e.rate = rate
	e.mu.Unlock()
	if changed {
		e.Emit(media.RateChange)
	}
	return nil
}

func (e *Element) Loop() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loop
}

func (e *Element) SetLoop(loop bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("loop %t", loop)
	e.loop = loop
	return nil
}

func (e *Element) SetSrc(url string) error {
	e.mu.Lock()
	e.record("src %s", url)
	sigs := e.load(url)
	e.mu.Unlock()
	e.emitAll(sigs)
	return nil
}

// Src returns the URL of the selected resource.
func (e *Element) Src() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.src
}

func (e *Element) ClearSources() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("clear sources")
	e.sources = nil
	e.src = ""
}

func (e *Element) AppendSource(src media.Source) {
	e.mu.Lock()
	e.sources = append(e.sources, src)
	var sigs []media.Signal
	if e.src == "" {
		e.record("select %s", src.URL)
		sigs = e.load(src.URL)
	}
	e.mu.Unlock()
	e.emitAll(sigs)
}

func (e *Element) Sources() []media.Source {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]media.Source(nil), e.sources...)
}

func (e *Element) PictureInPicture() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pip
}

func (e *Element) SetPictureInPicture(on bool) error {
	e.mu.Lock()
	changed := e.pip != on
	e.pip = on
	e.mu.Unlock()
	if !changed {
		return nil
	}
	if on {
		e.Emit(media.EnterPictureInPicture)
	} else {
		e.Emit(media.LeavePictureInPicture)
	}
	return nil
}

func (e *Element) VideoSize() (float64, float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.width, e.height
}

func (e *Element) Screenshot(path string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.record("screenshot %s", path)
	if e.src == "" {
		return ErrNoSource
	}
	return nil
}

// SetDisplay and Display make the element double as a dimming mask in tests.
func (e *Element) SetDisplay(display string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.display = display
}

func (e *Element) Display() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.display
}
