// Package media defines the contract of a playable media element: the signals it emits,
// the properties that can be read from it and the commands it accepts.
//
// Concrete elements live elsewhere: player.MPV drives an mpv process and
// media/mediatest provides a scriptable in-memory element.
package media

import "sync/atomic"

// Signal names a discrete notification emitted by an element.
type Signal string

const (
	LoadedMetadata        Signal = "loadedmetadata"
	Play                  Signal = "play"
	Playing               Signal = "playing"
	Pause                 Signal = "pause"
	Waiting               Signal = "waiting"
	Ended                 Signal = "ended"
	VolumeChange          Signal = "volumechange"
	RateChange            Signal = "ratechange"
	Progress              Signal = "progress"
	Error                 Signal = "error"
	EnterPictureInPicture Signal = "enterpictureinpicture"
	LeavePictureInPicture Signal = "leavepictureinpicture"

	// Seeking reports a position jump the element made on its own, outside SetCurrentTime.
	Seeking Signal = "seeking"
)

// Signals lists every signal an element may emit, in a stable order.
var Signals = []Signal{
	LoadedMetadata,
	Play,
	Playing,
	Pause,
	Waiting,
	Ended,
	VolumeChange,
	RateChange,
	Progress,
	Error,
	EnterPictureInPicture,
	LeavePictureInPicture,
	Seeking,
}

// SupportedTypes are the MIME types a source is offered under. The element picks the first it can play.
var SupportedTypes = []string{
	"video/mp4",
	"video/webm",
	"video/ogg",
	"application/vnd.apple.mpegurl",
	"application/x-mpegurl",
}

// Range is a buffered time range in seconds.
type Range struct {
	Start, End float64
}

// Source is a candidate resource offered to the element.
type Source struct {
	URL  string
	Type string
}

// Listener receives signals. It may be invoked from any goroutine.
type Listener func(Signal)

// ListenerID identifies a registered listener for removal.
type ListenerID uint64

var lastListenerID atomic.Uint64

// NextListenerID returns a process-unique listener identifier.
func NextListenerID() ListenerID {
	return ListenerID(lastListenerID.Add(1))
}

// Element is a media element. Setters return an error only when the command could not be
// delivered; the resulting state change is always reported through signals.
type Element interface {
	AddListener(sig Signal, fn Listener) ListenerID
	RemoveListener(sig Signal, id ListenerID)

	Load() error
	Play() error
	Pause() error

	Paused() bool
	Ended() bool
	Duration() float64
	CurrentTime() float64
	SetCurrentTime(seconds float64) error
	Buffered() []Range

	Volume() float64
	SetVolume(v float64) error
	Muted() bool
	SetMuted(muted bool) error
	PlaybackRate() float64
	SetPlaybackRate(rate float64) error
	Loop() bool
	SetLoop(loop bool) error

	// SetSrc replaces the current resource and starts loading it.
	SetSrc(url string) error
	// ClearSources forgets every offered source and the resource selected from them.
	ClearSources()
	// AppendSource offers a source. An element without a selected resource selects
	// the first playable source it is offered and starts loading it.
	AppendSource(src Source)
	Sources() []Source

	PictureInPicture() bool
	SetPictureInPicture(on bool) error
}

// Screenshotter is implemented by elements able to capture the current frame.
type Screenshotter interface {
	Screenshot(path string) error
}

// Sized is implemented by elements that know the intrinsic dimensions of the loaded video.
type Sized interface {
	VideoSize() (width, height float64)
}

// Mask is the dimming layer rendered above the video. Its display value is a raw CSS display string.
type Mask interface {
	SetDisplay(display string)
	Display() string
}
