package playback

import "github.com/reelctl/reelctl/media"

// Callbacks are the hooks a host application registers. Every hook is optional and receives
// the snapshot after the triggering update, except OnError which receives nothing.
type Callbacks struct {
	OnPlay          func(Attributes)
	OnPause         func(Attributes)
	OnEnded         func(Attributes)
	OnError         func()
	OnVolumeChange  func(Attributes)
	OnRateChange    func(Attributes)
	OnWaiting       func(Attributes)
	OnQualityChange func(Attributes)
	OnInPicture     func(Attributes)
	OnLeavePicture  func(Attributes)
	OnIsControl     func(Attributes)
}

func call(fn func(Attributes), a Attributes) {
	if fn != nil {
		fn(a)
	}
}

// dispatch fires the hook bound to sig, if any.
func (c Callbacks) dispatch(sig media.Signal, a Attributes) {
	switch sig {
	case media.Play:
		call(c.OnPlay, a)
	case media.Pause:
		call(c.OnPause, a)
	case media.Ended:
		call(c.OnEnded, a)
	case media.Error:
		if c.OnError != nil {
			c.OnError()
		}
	case media.VolumeChange:
		call(c.OnVolumeChange, a)
	case media.RateChange:
		call(c.OnRateChange, a)
	case media.Waiting:
		call(c.OnWaiting, a)
	case media.EnterPictureInPicture:
		call(c.OnInPicture, a)
	case media.LeavePictureInPicture:
		call(c.OnLeavePicture, a)
	}
}

// QualityChanged fires OnQualityChange.
func (c Callbacks) QualityChanged(a Attributes) {
	call(c.OnQualityChange, a)
}

// ControlShown fires OnIsControl.
func (c Callbacks) ControlShown(a Attributes) {
	call(c.OnIsControl, a)
}
