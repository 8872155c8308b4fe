// Package controls decides whether the on-screen controls are visible and which quality the
// user selected. This is interface intent, kept apart from the playback snapshot.
package controls

import "github.com/samber/mo"

// State is the controls state.
type State struct {
	IsControl bool
	Quality   mo.Option[int]
}

// Action is a state transition. The set of actions is closed.
type Action interface {
	apply(State) State
}

// SetControl shows or hides the controls.
type SetControl bool

func (a SetControl) apply(s State) State {
	s.IsControl = bool(a)
	return s
}

// SetQuality records the selected quality key.
type SetQuality int

func (a SetQuality) apply(s State) State {
	s.Quality = mo.Some(int(a))
	return s
}

// Reduce returns the state after a.
func Reduce(s State, a Action) State {
	if a == nil {
		return s
	}
	return a.apply(s)
}
