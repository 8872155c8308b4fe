package player

import (
	"encoding/json"
	"fmt"

	"github.com/reelctl/reelctl/media"
)

// observed are the mpv properties mirrored into the element state, keyed by observer id.
var observed = []string{
	"pause",
	"eof-reached",
	"time-pos",
	"duration",
	"paused-for-cache",
	"demuxer-cache-time",
	"volume",
	"mute",
	"speed",
	"loop-file",
	"ontop",
	"dwidth",
	"dheight",
}

// state mirrors the observed properties.
type state struct {
	paused    bool
	ended     bool
	buffering bool

	timePos  float64
	duration float64
	buffered float64

	volume float64
	muted  bool
	speed  float64
	loop   bool
	ontop  bool

	width, height float64
}

func decodeFloat(raw json.RawMessage) float64 {
	var v float64
	_ = json.Unmarshal(raw, &v)
	return v
}

func decodeBool(raw json.RawMessage) bool {
	var v bool
	_ = json.Unmarshal(raw, &v)
	return v
}

// decodeLoop reads loop-file, which is "inf", "no", a count or a boolean.
func decodeLoop(raw json.RawMessage) bool {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch v := v.(type) {
	case bool:
		return v
	case float64:
		return v > 0
	case string:
		return v == "inf" || v == "yes"
	}
	return false
}

// observe subscribes to every mirrored property on the connection.
func (m *MPV) observe() error {
	for i, name := range observed {
		if _, err := m.ipc.call("observe_property", i+1, name); err != nil {
			return fmt.Errorf("observe %s: %w", name, err)
		}
	}
	return nil
}

// handle turns an mpv event into state changes and signals.
func (m *MPV) handle(msg ipcMessage) {
	switch msg.Event {
	case "property-change":
		m.emit(m.property(msg.Name, msg.Data)...)
	case "file-loaded":
		m.loaded()
	case "seek", "playback-restart":
		m.emit(media.Seeking)
	case "end-file":
		if msg.Reason == "error" {
			m.mu.Lock()
			m.lastError = msg.FileError
			m.mu.Unlock()
			m.emit(media.Error)
		}
	}
}

// loaded refreshes what the metadata signal reports before emitting it.
func (m *MPV) loaded() {
	duration, _ := m.getFloat("duration")
	width, _ := m.getFloat("dwidth")
	height, _ := m.getFloat("dheight")

	m.mu.Lock()
	m.st.duration = duration
	m.st.width, m.st.height = width, height
	m.st.ended = false
	m.mu.Unlock()

	m.emit(media.LoadedMetadata)
}

// property applies a change and returns the signals it implies. The first notification of a
// property reports its current value and only seeds the state.
func (m *MPV) property(name string, raw json.RawMessage) []media.Signal {
	m.mu.Lock()
	defer m.mu.Unlock()

	first := !m.seen[name]
	m.seen[name] = true
	st := &m.st

	var sigs []media.Signal
	signal := func(s ...media.Signal) {
		if !first {
			sigs = append(sigs, s...)
		}
	}

	switch name {
	case "pause":
		paused := decodeBool(raw)
		if paused == st.paused && !first {
			return nil
		}
		st.paused = paused
		if paused {
			signal(media.Pause)
		} else {
			signal(media.Play)
			if !st.buffering {
				signal(media.Playing)
			}
		}
	case "eof-reached":
		ended := decodeBool(raw)
		if ended && !st.ended {
			st.ended = true
			signal(media.Ended)
		}
		st.ended = ended
	case "paused-for-cache":
		buffering := decodeBool(raw)
		if buffering == st.buffering {
			return nil
		}
		st.buffering = buffering
		if buffering {
			signal(media.Waiting)
		} else if !st.paused {
			signal(media.Playing)
		}
	case "demuxer-cache-time":
		st.buffered = decodeFloat(raw)
		signal(media.Progress)
	case "volume":
		v := decodeFloat(raw) / 100
		if v != st.volume {
			st.volume = v
			signal(media.VolumeChange)
		}
	case "mute":
		muted := decodeBool(raw)
		if muted != st.muted {
			st.muted = muted
			signal(media.VolumeChange)
		}
	case "speed":
		speed := decodeFloat(raw)
		if speed != st.speed {
			st.speed = speed
			signal(media.RateChange)
		}
	case "ontop":
		ontop := decodeBool(raw)
		if ontop != st.ontop {
			st.ontop = ontop
			if ontop {
				signal(media.EnterPictureInPicture)
			} else {
				signal(media.LeavePictureInPicture)
			}
		}
	case "time-pos":
		st.timePos = decodeFloat(raw)
	case "duration":
		st.duration = decodeFloat(raw)
	case "loop-file":
		st.loop = decodeLoop(raw)
	case "dwidth":
		st.width = decodeFloat(raw)
	case "dheight":
		st.height = decodeFloat(raw)
	}

	return sigs
}

// emit calls the listeners of every signal in order.
func (m *MPV) emit(sigs ...media.Signal) {
	for _, sig := range sigs {
		m.listenersMu.Lock()
		fns := make([]media.Listener, 0, len(m.listeners[sig]))
		for _, fn := range m.listeners[sig] {
			fns = append(fns, fn)
		}
		m.listenersMu.Unlock()

		for _, fn := range fns {
			fn(sig)
		}
	}
}
