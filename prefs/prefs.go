package prefs

import (
	"strconv"

	"github.com/reelctl/reelctl/log"
	"github.com/samber/mo"
	logrus "github.com/sirupsen/logrus"
)

// Keys of the persisted entries. Each preference is stored independently as a string.
const (
	KeyVolume   = "volume"
	KeyLoop     = "loop"
	KeyPlayRate = "playRate"
	KeyDarkMask = "light"
)

// Preferences gives typed access to the entries of a Store. Read failures and malformed
// values read as absent, so a damaged store never prevents playback.
type Preferences struct {
	store Store
}

// New wraps store.
func New(store Store) *Preferences {
	return &Preferences{store: store}
}

func (p *Preferences) raw(key string) mo.Option[string] {
	v, ok, err := p.store.Get(key)
	if err != nil {
		log.WithFields(logrus.Fields{"key": key}).Warnf("read preference: %v", err)
		return mo.None[string]()
	}
	if !ok {
		return mo.None[string]()
	}
	return mo.Some(v)
}

func (p *Preferences) float(key string) mo.Option[float64] {
	raw, ok := p.raw(key).Get()
	if !ok {
		return mo.None[float64]()
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.WithFields(logrus.Fields{"key": key, "value": raw}).Warn("ignoring malformed preference")
		return mo.None[float64]()
	}
	return mo.Some(f)
}

func (p *Preferences) write(key, value string) error {
	return p.store.Set(key, value)
}

// Volume returns the stored volume as a fraction in [0, 1].
func (p *Preferences) Volume() mo.Option[float64] {
	return p.float(KeyVolume)
}

func (p *Preferences) SetVolume(v float64) error {
	return p.write(KeyVolume, strconv.FormatFloat(v, 'f', -1, 64))
}

// Loop returns whether playback restarts at the end. Only the literal "true" reads as true.
func (p *Preferences) Loop() mo.Option[bool] {
	raw, ok := p.raw(KeyLoop).Get()
	if !ok {
		return mo.None[bool]()
	}
	return mo.Some(raw == "true")
}

func (p *Preferences) SetLoop(loop bool) error {
	return p.write(KeyLoop, strconv.FormatBool(loop))
}

// PlayRate returns the stored playback rate.
func (p *Preferences) PlayRate() mo.Option[float64] {
	return p.float(KeyPlayRate)
}

func (p *Preferences) SetPlayRate(rate float64) error {
	return p.write(KeyPlayRate, strconv.FormatFloat(rate, 'f', -1, 64))
}

// DarkMask returns the stored CSS display value of the dimming mask.
func (p *Preferences) DarkMask() mo.Option[string] {
	return p.raw(KeyDarkMask)
}

func (p *Preferences) SetDarkMask(display string) error {
	return p.write(KeyDarkMask, display)
}
