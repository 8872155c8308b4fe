package playback

import (
	"time"

	"github.com/reelctl/reelctl/config"
	"github.com/reelctl/reelctl/constant"
	"github.com/reelctl/reelctl/key"
	"github.com/reelctl/reelctl/log"
	"github.com/reelctl/reelctl/media"
	"github.com/reelctl/reelctl/prefs"
	"github.com/reelctl/reelctl/stream"
	"github.com/reelctl/reelctl/where"
)

type options struct {
	pollInterval  time.Duration
	detector      *stream.Detector
	engine        stream.Engine
	prefs         *prefs.Preferences
	callbacks     Callbacks
	mask          media.Mask
	now           func() time.Time
	screenshotDir string
}

func defaultOptions() options {
	return options{
		pollInterval: constant.DefaultPollInterval,
		detector:     &stream.Detector{},
		engine:       stream.NewHLSEngine(),
		prefs:        prefs.New(prefs.NewMemoryStore()),
		now:          time.Now,
	}
}

// Option configures an Adapter.
type Option func(*options)

// WithPollInterval sets how often the playhead is sampled. Zero disables sampling.
func WithPollInterval(d time.Duration) Option {
	return func(o *options) {
		o.pollInterval = d
	}
}

// WithDetector sets how sources are classified. A nil detector keeps the default.
func WithDetector(d *stream.Detector) Option {
	return func(o *options) {
		if d != nil {
			o.detector = d
		}
	}
}

// WithEngine sets the engine HLS sources are attached through.
func WithEngine(e stream.Engine) Option {
	return func(o *options) {
		if e != nil {
			o.engine = e
		}
	}
}

// WithPreferences sets where volume, rate, loop and the dark mask are persisted.
func WithPreferences(p *prefs.Preferences) Option {
	return func(o *options) {
		if p != nil {
			o.prefs = p
		}
	}
}

// WithCallbacks sets the hooks fired after every update.
func WithCallbacks(c Callbacks) Option {
	return func(o *options) {
		o.callbacks = c
	}
}

// WithMask sets the dimming layer driven by SetDarkMask.
func WithMask(m media.Mask) Option {
	return func(o *options) {
		o.mask = m
	}
}

// WithClock sets the time source used to stamp errors.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithScreenshotDir sets where Screenshot saves frames.
func WithScreenshotDir(dir string) Option {
	return func(o *options) {
		o.screenshotDir = dir
	}
}

// FromConfig derives adapter options from the loaded settings. An unknown video type falls
// back to detection.
func FromConfig(cfg config.Options) []Option {
	override, err := stream.ParseFormat(cfg.VideoType)
	if err != nil {
		log.Warnf("%s: %v", key.VideoType, err)
	}

	return []Option{
		WithPollInterval(cfg.PollInterval),
		WithDetector(&stream.Detector{
			CrossOrigin: cfg.CrossOrigin,
			Override:    override,
		}),
		WithScreenshotDir(where.Screenshots()),
	}
}
