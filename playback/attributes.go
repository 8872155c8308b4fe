package playback

import (
	"fmt"
	"time"

	"github.com/reelctl/reelctl/media"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

// Attributes is the canonical snapshot of a playback session.
type Attributes struct {
	IsPlay    bool
	IsEnded   bool
	IsWaiting bool

	CurrentTime  float64
	Duration     float64
	BufferedTime float64

	Volume float64
	IsMute bool

	// Multiple is the playback rate.
	Multiple float64

	IsPictureInPicture bool

	// Error holds the message of the last media error of the current source.
	Error mo.Option[string]
}

// Fresh returns the snapshot of a source that has not loaded yet. Audio settings and
// rate belong to the element, not the source, and carry over.
func Fresh(volume float64, muted bool, rate float64) Attributes {
	if rate <= 0 {
		rate = 1
	}
	return Attributes{
		Volume:   volume,
		IsMute:   muted,
		Multiple: rate,
	}
}

// Event is a signal together with the element readings taken when it was received.
type Event struct {
	Signal media.Signal

	Paused           bool
	Ended            bool
	Duration         float64
	Volume           float64
	Muted            bool
	Rate             float64
	Buffered         []media.Range
	PictureInPicture bool

	At time.Time
}

// Observe reads the element properties a signal depends on.
func Observe(el media.Element, sig media.Signal, at time.Time) Event {
	e := Event{Signal: sig, At: at}

	switch sig {
	case media.LoadedMetadata:
		e.Duration = el.Duration()
	case media.Play, media.Playing, media.Pause:
		e.Paused = el.Paused()
	case media.Ended:
		e.Ended = el.Ended()
	case media.VolumeChange:
		e.Volume = el.Volume()
		e.Muted = el.Muted()
	case media.RateChange:
		e.Rate = el.PlaybackRate()
	case media.Progress:
		e.Buffered = el.Buffered()
	case media.EnterPictureInPicture, media.LeavePictureInPicture:
		e.PictureInPicture = sig == media.EnterPictureInPicture
	}

	return e
}

// ErrorMessage formats the message recorded for a media error.
func ErrorMessage(at time.Time) string {
	return fmt.Sprintf("playback error, time: %d", at.UnixMilli())
}

// Reduce folds one event into a snapshot. It never touches fields the signal says nothing about.
func Reduce(a Attributes, e Event) Attributes {
	switch e.Signal {
	case media.LoadedMetadata:
		a.Duration = e.Duration
		a.Error = mo.None[string]()
	case media.Play:
		a.IsPlay = !e.Paused
		a.IsEnded = false
	case media.Playing:
		a.IsWaiting = false
		a.IsPlay = !e.Paused
		if a.IsPlay {
			a.IsEnded = false
		}
	case media.Pause:
		a.IsPlay = !e.Paused
	case media.Waiting:
		a.IsWaiting = true
	case media.Ended:
		a.IsEnded = true
		a.IsPlay = false
	case media.VolumeChange:
		a.Volume = e.Volume
		a.IsMute = e.Muted
	case media.RateChange:
		if e.Rate > 0 {
			a.Multiple = e.Rate
		}
	case media.Progress:
		if n := len(e.Buffered); n > 0 {
			a.BufferedTime = e.Buffered[n-1].End
		}
	case media.Error:
		a.Error = mo.Some(ErrorMessage(e.At))
	case media.EnterPictureInPicture, media.LeavePictureInPicture:
		a.IsPictureInPicture = e.PictureInPicture
	}

	return a
}

// Fold applies events in order.
func Fold(a Attributes, events ...Event) Attributes {
	return lo.Reduce(events, func(acc Attributes, e Event, _ int) Attributes {
		return Reduce(acc, e)
	}, a)
}
