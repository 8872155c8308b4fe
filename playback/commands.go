package playback

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"

	"github.com/reelctl/reelctl/log"
	"github.com/reelctl/reelctl/media"
	"github.com/reelctl/reelctl/util"
	"github.com/reelctl/reelctl/where"
)

// Commands is the surface presentation layers drive playback with. Every command is a no-op
// while no element is attached.
type Commands interface {
	Load()
	Play()
	Pause()
	ChangePlayState()
	Seek(seconds float64)
	SetVolume(v float64)
	SetVideoSrc(url string)
	SetPlayRate(rate float64)
	SetMuted(muted bool)
	SetLoop(loop bool)
	SetDarkMask(display string)
	TogglePictureInPicture()
	Screenshot() (string, error)
}

var _ Commands = (*Adapter)(nil)

var (
	// ErrDetached is returned by operations that need an attached element.
	ErrDetached = errors.New("no media element attached")
	// ErrUnsupported is returned when the element cannot carry out a command.
	ErrUnsupported = errors.New("not supported by the media element")
)

// Mask display values.
const (
	MaskShown  = "block"
	MaskHidden = "none"
)

func (a *Adapter) element() (media.Element, uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.el, a.gen
}

func warn(op string, err error) {
	if err != nil {
		log.Warnf("%s: %v", op, err)
	}
}

// Load reloads the current source from the start.
func (a *Adapter) Load() {
	if el, _ := a.element(); el != nil {
		warn("load", el.Load())
	}
}

// Play starts or resumes playback.
func (a *Adapter) Play() {
	if el, _ := a.element(); el != nil {
		warn("play", el.Play())
	}
}

// Pause pauses playback. Pausing a paused element changes nothing.
func (a *Adapter) Pause() {
	if el, _ := a.element(); el != nil {
		warn("pause", el.Pause())
	}
}

// ChangePlayState toggles between playing and paused. A finished video replays from the start.
func (a *Adapter) ChangePlayState() {
	el, _ := a.element()
	if el == nil {
		return
	}

	snap := a.Snapshot()
	if snap.IsPlay {
		warn("pause", el.Pause())
		return
	}
	if snap.IsEnded {
		a.Seek(0)
	}
	warn("play", el.Play())
}

// ClampSeek bounds a seek target to the playable range. An unknown duration only bounds it below.
func ClampSeek(seconds, duration float64) float64 {
	if seconds < 0 || math.IsNaN(seconds) {
		return 0
	}
	if duration > 0 && seconds > duration {
		return duration
	}
	return seconds
}

// Seek moves the playhead to seconds, clamped to [0, duration].
func (a *Adapter) Seek(seconds float64) {
	el, gen := a.element()
	if el == nil {
		return
	}

	t := ClampSeek(seconds, a.Snapshot().Duration)
	if err := el.SetCurrentTime(t); err != nil {
		warn("seek", err)
		return
	}

	a.exec.do(func() {
		a.commitSeek(gen, t)
	})
}

// NormalizeVolume accepts a fraction in [0, 1] or a percentage above 1.
func NormalizeVolume(v float64) float64 {
	if v > 1 {
		v /= 100
	}
	return util.Clamp(v, 0, 1)
}

// SetVolume sets and persists the volume. Values above 1 are read as percentages.
func (a *Adapter) SetVolume(v float64) {
	el, _ := a.element()
	if el == nil {
		return
	}

	v = NormalizeVolume(v)
	if err := el.SetVolume(v); err != nil {
		warn("set volume", err)
		return
	}
	warn("persist volume", a.opts.prefs.SetVolume(v))
}

// SetVideoSrc replaces the source, starting a new generation. Requests superseded before
// they run are skipped.
func (a *Adapter) SetVideoSrc(url string) {
	if url == "" {
		return
	}

	a.mu.Lock()
	if a.el == nil {
		a.mu.Unlock()
		return
	}
	a.requested++
	req := a.requested
	a.mu.Unlock()

	a.exec.do(func() {
		a.reload(req, url)
	})
}

// SetPlayRate sets and persists the playback rate. Non-positive rates are ignored.
func (a *Adapter) SetPlayRate(rate float64) {
	el, _ := a.element()
	if el == nil || rate <= 0 {
		return
	}

	if err := el.SetPlaybackRate(rate); err != nil {
		warn("set playback rate", err)
		return
	}
	warn("persist playback rate", a.opts.prefs.SetPlayRate(rate))
}

// SetMuted mutes or unmutes without touching the volume.
func (a *Adapter) SetMuted(muted bool) {
	if el, _ := a.element(); el != nil {
		warn("set muted", el.SetMuted(muted))
	}
}

// SetLoop sets and persists whether playback restarts at the end.
func (a *Adapter) SetLoop(loop bool) {
	el, _ := a.element()
	if el == nil {
		return
	}

	if err := el.SetLoop(loop); err != nil {
		warn("set loop", err)
		return
	}
	warn("persist loop", a.opts.prefs.SetLoop(loop))
}

// Loop reports whether the attached element restarts at the end.
func (a *Adapter) Loop() bool {
	el, _ := a.element()
	return el != nil && el.Loop()
}

// SetDarkMask shows or hides the dimming layer and persists its display value.
func (a *Adapter) SetDarkMask(display string) {
	el, _ := a.element()
	if el == nil || a.opts.mask == nil {
		return
	}

	a.opts.mask.SetDisplay(display)
	warn("persist dark mask", a.opts.prefs.SetDarkMask(display))
}

// ToggleDarkMask flips the dimming layer.
func (a *Adapter) ToggleDarkMask() {
	if a.opts.mask == nil {
		return
	}
	if a.opts.mask.Display() == MaskShown {
		a.SetDarkMask(MaskHidden)
	} else {
		a.SetDarkMask(MaskShown)
	}
}

// DarkMask returns the display value of the dimming layer.
func (a *Adapter) DarkMask() string {
	if a.opts.mask == nil {
		return MaskHidden
	}
	return a.opts.mask.Display()
}

// TogglePictureInPicture switches the element in or out of picture-in-picture.
func (a *Adapter) TogglePictureInPicture() {
	if el, _ := a.element(); el != nil {
		warn("toggle picture-in-picture", el.SetPictureInPicture(!el.PictureInPicture()))
	}
}

// Screenshot captures the current frame into the screenshot directory and returns the file path.
func (a *Adapter) Screenshot() (string, error) {
	el, _ := a.element()
	if el == nil {
		return "", ErrDetached
	}

	shooter, ok := el.(media.Screenshotter)
	if !ok {
		return "", ErrUnsupported
	}

	dir := a.opts.screenshotDir
	if dir == "" {
		dir = where.Screenshots()
	}

	path := filepath.Join(dir, fmt.Sprintf("screenshot%d.png", a.opts.now().UnixMilli()))
	if err := shooter.Screenshot(path); err != nil {
		return "", fmt.Errorf("screenshot: %w", err)
	}
	return path, nil
}
