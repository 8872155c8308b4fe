package quality

import (
	"fmt"
	"sync"

	"github.com/reelctl/reelctl/config"
	"github.com/reelctl/reelctl/constant"
	"github.com/reelctl/reelctl/controls"
	"github.com/reelctl/reelctl/i18n"
	"github.com/reelctl/reelctl/log"
	"github.com/reelctl/reelctl/media"
	"github.com/reelctl/reelctl/playback"
	"github.com/reelctl/reelctl/stream"
	"github.com/reelctl/reelctl/toast"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"
)

// Player is the part of the playback adapter a Manager drives.
type Player interface {
	Attached() bool
	Snapshot() playback.Attributes
	Generation() uint64
	Subscribe(fn playback.Observer) (cancel func())
	Callbacks() playback.Callbacks

	SetVideoSrc(url string)
	Seek(seconds float64)
	Play()
	Pause()
	SetPlayRate(rate float64)
}

var _ Player = (*playback.Adapter)(nil)

// Dispatcher receives the selected quality. *controls.Visibility is one.
type Dispatcher interface {
	Dispatch(controls.Action)
}

type options struct {
	controls Dispatcher
	notifier toast.Notifier
	toast    bool
	position toast.Position
	theme    string
	language language.Tag
}

// Option configures a Manager.
type Option func(*options)

func WithControls(d Dispatcher) Option {
	return func(o *options) {
		o.controls = d
	}
}

// WithNotifier sends toasts to n. Toasts are only sent when enabled with WithToast.
func WithNotifier(n toast.Notifier) Option {
	return func(o *options) {
		if n != nil {
			o.notifier = n
		}
	}
}

func WithToast(enable bool, position toast.Position) Option {
	return func(o *options) {
		o.toast = enable
		o.position = position
	}
}

func WithTheme(theme string) Option {
	return func(o *options) {
		o.theme = theme
	}
}

func WithLanguage(tag language.Tag) Option {
	return func(o *options) {
		o.language = i18n.Match(tag)
	}
}

// FromConfig derives options from the loaded settings.
func FromConfig(cfg config.Options) []Option {
	return []Option{
		WithToast(cfg.ToastEnable, toast.ParsePosition(cfg.ToastPosition)),
		WithTheme(cfg.Theme),
		WithLanguage(i18n.Parse(cfg.Language)),
	}
}

// restore is the position and play state to reapply once a switched source is loaded.
type restore struct {
	after uint64
	gen   uint64
	url   string

	at   float64
	play bool

	ready    bool
	metadata bool
}

// Manager switches qualities on a Player. After a switch it waits for the new generation to
// be classified and to report metadata, then seeks to the previous position and resumes or
// pauses as before. A newer switch or source change supersedes the pending restore and an
// error in the new generation abandons it.
type Manager struct {
	player Player
	opts   options

	mu          sync.Mutex
	cfg         Config
	pending     *restore
	unsubscribe func()
}

// NewManager validates cfg and starts following p.
func NewManager(p Player, cfg Config, opts ...Option) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{
		notifier: toast.Discard,
		position: toast.LeftTop,
		theme:    constant.DefaultTheme,
		language: i18n.Parse(constant.DefaultLanguage),
	}
	for _, opt := range opts {
		opt(&o)
	}

	m := &Manager{player: p, opts: o, cfg: cfg}
	m.unsubscribe = p.Subscribe(m.observe)
	return m, nil
}

// Close stops following the player and drops the pending restore.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = nil
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}

// Config returns a copy of the quality list with the current key.
func (m *Manager) Config() Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.cfg
	c.List = append([]Entry(nil), m.cfg.List...)
	return c
}

// Current returns the entry being played.
func (m *Manager) Current() Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, _ := m.cfg.Current()
	return e
}

// Pending reports whether a restore is waiting for the switched source.
func (m *Manager) Pending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending != nil
}

// Switch plays the rendition with key k from the current position. Unknown keys are ignored.
func (m *Manager) Switch(k int) error {
	if !m.player.Attached() {
		return playback.ErrDetached
	}

	m.mu.Lock()
	entry, ok := m.cfg.Lookup(k)
	if !ok {
		m.mu.Unlock()
		log.WithFields(logrus.Fields{"key": k}).Warn("ignoring switch to unknown quality")
		return nil
	}

	snap := m.player.Snapshot()
	next := &restore{
		after: m.player.Generation(),
		url:   entry.URL,
		at:    snap.CurrentTime,
		play:  snap.IsPlay,
	}
	// The position of a switch that never loaded is still the one to return to.
	if prev := m.pending; prev != nil {
		next.at, next.play = prev.at, prev.play
	}
	m.cfg.CurrentKey = k
	m.pending = next
	m.mu.Unlock()

	log.WithFields(logrus.Fields{
		"key":     k,
		"url":     entry.URL,
		"resume":  next.at,
		"playing": next.play,
	}).Info("switching quality")

	if m.opts.controls != nil {
		m.opts.controls.Dispatch(controls.SetQuality(k))
	}
	m.player.SetVideoSrc(entry.URL)
	m.player.Callbacks().QualityChanged(m.player.Snapshot())

	m.notify(i18n.QualitySwitch, DisplayName(entry, m.opts.language))
	return nil
}

// ChangeRate sets the playback rate and announces it.
func (m *Manager) ChangeRate(rate float64) {
	if rate <= 0 || !m.player.Attached() {
		return
	}
	m.player.SetPlayRate(rate)
	m.RateToast(rate)
}

// RateToast announces a playback rate, named after its preset when there is one.
func (m *Manager) RateToast(rate float64) {
	name, ok := playback.RateName(rate)
	if !ok {
		name = fmt.Sprintf("%gx", rate)
	}
	m.notify(i18n.MultipleSwitch, name)
}

func (m *Manager) notify(phrase i18n.Key, subject string) {
	if !m.opts.toast {
		return
	}
	m.opts.notifier.Notify(toast.Toast{
		Message:  i18n.For(m.opts.language).Text(phrase) + " " + subject,
		Theme:    m.opts.theme,
		Position: m.opts.position,
	})
}

// observe advances the pending restore. It runs on the adapter's executor.
func (m *Manager) observe(u playback.Update) {
	m.mu.Lock()
	r := m.pending
	if r == nil {
		m.mu.Unlock()
		return
	}

	entry := log.WithFields(logrus.Fields{"url": r.url, "generation": u.Generation})

	if r.gen == 0 {
		if u.Generation <= r.after {
			m.mu.Unlock()
			return
		}
		if u.URL != r.url {
			m.pending = nil
			m.mu.Unlock()
			entry.Debug("source replaced before the switch loaded, dropping restore")
			return
		}
		r.gen = u.Generation
	}

	if u.Generation != r.gen {
		if u.Generation > r.gen {
			m.pending = nil
			entry.Debug("switched source superseded, dropping restore")
		}
		m.mu.Unlock()
		return
	}

	switch u.Signal {
	case media.Error:
		m.pending = nil
		m.mu.Unlock()
		entry.Warn("switched source failed to load, not restoring position")
		return
	case playback.SourceReady:
		r.ready = true
		if u.Format == stream.HLS {
			// The engine loads the rendition again.
			r.metadata = false
		}
	case media.LoadedMetadata:
		r.metadata = true
	}

	if !r.ready || !r.metadata {
		m.mu.Unlock()
		return
	}
	m.pending = nil
	m.mu.Unlock()

	entry.WithField("resume", r.at).Debug("restoring position after quality switch")
	m.player.Seek(r.at)
	if r.play {
		m.player.Play()
	} else {
		m.player.Pause()
	}
}
