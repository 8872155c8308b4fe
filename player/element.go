package player

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"

	"github.com/reelctl/reelctl/log"
	"github.com/reelctl/reelctl/media"
	"github.com/samber/lo"
)

// ErrNoSource is returned when playback is requested before a resource was selected.
var ErrNoSource = errors.New("no source selected")

func (m *MPV) AddListener(sig media.Signal, fn media.Listener) media.ListenerID {
	id := media.NextListenerID()

	m.listenersMu.Lock()
	defer m.listenersMu.Unlock()

	if m.listeners[sig] == nil {
		m.listeners[sig] = make(map[media.ListenerID]media.Listener)
	}
	m.listeners[sig][id] = fn
	return id
}

func (m *MPV) RemoveListener(sig media.Signal, id media.ListenerID) {
	m.listenersMu.Lock()
	defer m.listenersMu.Unlock()
	delete(m.listeners[sig], id)
}

// Load reloads the selected resource from the start.
func (m *MPV) Load() error {
	m.mu.Lock()
	src := m.src
	m.mu.Unlock()

	if src == "" {
		return nil
	}
	return m.loadfile(src)
}

// loadfile replaces the resource. mpv keeps playing across a replace, so playback is paused
// first: a new resource starts paused until Play, like any freshly loaded element.
func (m *MPV) loadfile(src string) error {
	m.mu.Lock()
	playing := !m.st.paused
	m.mu.Unlock()

	if playing {
		if err := m.set("pause", true); err != nil {
			return fmt.Errorf("loadfile: %w", err)
		}
		// The property notification may already have been handled; signal only once.
		m.mu.Lock()
		changed := !m.st.paused
		m.st.paused = true
		m.mu.Unlock()
		if changed {
			m.emit(media.Pause)
		}
	}

	m.mu.Lock()
	m.st.ended = false
	m.st.timePos = 0
	m.st.buffered = 0
	m.lastError = ""
	m.mu.Unlock()

	if _, err := m.ipc.call("loadfile", src, "replace"); err != nil {
		return fmt.Errorf("loadfile: %w", err)
	}
	return nil
}

func (m *MPV) Play() error {
	m.mu.Lock()
	src, ended := m.src, m.st.ended
	m.mu.Unlock()

	if src == "" {
		return ErrNoSource
	}
	if ended {
		if err := m.SetCurrentTime(0); err != nil {
			return err
		}
	}
	return m.set("pause", false)
}

func (m *MPV) Pause() error {
	return m.set("pause", true)
}

func (m *MPV) Paused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.paused
}

func (m *MPV) Ended() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.ended
}

func (m *MPV) Duration() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.duration
}

func (m *MPV) CurrentTime() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.timePos
}

func (m *MPV) SetCurrentTime(seconds float64) error {
	if _, err := m.ipc.call("seek", seconds, "absolute"); err != nil {
		return fmt.Errorf("seek: %w", err)
	}

	m.mu.Lock()
	m.st.timePos = seconds
	m.st.ended = false
	m.mu.Unlock()
	return nil
}

// Buffered reports the demuxer cache as a single range from the start.
func (m *MPV) Buffered() []media.Range {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.st.buffered <= 0 {
		return nil
	}
	return []media.Range{{Start: 0, End: m.st.buffered}}
}

// Volume is in [0, 1]; mpv works in percent.
func (m *MPV) Volume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.volume
}

func (m *MPV) SetVolume(v float64) error {
	return m.set("volume", lo.Clamp(v, 0, 1)*100)
}

func (m *MPV) Muted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.muted
}

func (m *MPV) SetMuted(muted bool) error {
	return m.set("mute", muted)
}

func (m *MPV) PlaybackRate() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.speed
}

func (m *MPV) SetPlaybackRate(rate float64) error {
	if rate <= 0 {
		return fmt.Errorf("invalid playback rate %g", rate)
	}
	return m.set("speed", rate)
}

func (m *MPV) Loop() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.loop
}

func (m *MPV) SetLoop(loop bool) error {
	return m.set("loop-file", lo.Ternary(loop, "inf", "no"))
}

func (m *MPV) SetSrc(url string) error {
	target, err := sanitizeMediaTarget(url)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.src = target
	m.mu.Unlock()

	return m.loadfile(target)
}

// Src returns the selected resource.
func (m *MPV) Src() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.src
}

func (m *MPV) ClearSources() {
	m.mu.Lock()
	m.sources = nil
	m.src = ""
	m.mu.Unlock()
}

func (m *MPV) AppendSource(src media.Source) {
	m.mu.Lock()
	m.sources = append(m.sources, src)
	selected := m.src != ""
	m.mu.Unlock()

	if selected || !playable(src) {
		return
	}

	if err := m.SetSrc(src.URL); err != nil {
		log.Warnf("mpv: source %s: %v", src.URL, err)
	}
}

func playable(src media.Source) bool {
	return src.Type == "" || lo.Contains(media.SupportedTypes, src.Type)
}

func (m *MPV) Sources() []media.Source {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]media.Source(nil), m.sources...)
}

// PictureInPicture maps to mpv's always-on-top window.
func (m *MPV) PictureInPicture() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.ontop
}

func (m *MPV) SetPictureInPicture(on bool) error {
	return m.set("ontop", on)
}

// Screenshot saves the current frame without subtitles or OSD.
func (m *MPV) Screenshot(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if _, err := m.ipc.call("screenshot-to-file", abs, "video"); err != nil {
		return fmt.Errorf("screenshot: %w", err)
	}
	return nil
}

func (m *MPV) VideoSize() (width, height float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st.width, m.st.height
}

// DisplaySize reports the pixel size of the display the window is shown on. mpv only knows it
// once the window exists.
func (m *MPV) DisplaySize() (width, height float64, err error) {
	if width, err = m.getFloat("display-width"); err != nil {
		return 0, 0, err
	}
	if height, err = m.getFloat("display-height"); err != nil {
		return 0, 0, err
	}
	return width, height, nil
}

// Resize sets the window size in pixels. Non-positive dimensions are left to mpv.
func (m *MPV) Resize(width, height float64) error {
	w, h := int(math.Round(width)), int(math.Round(height))
	switch {
	case w > 0 && h > 0:
		return m.set("geometry", fmt.Sprintf("%dx%d", w, h))
	case w > 0:
		return m.set("geometry", fmt.Sprintf("%d", w))
	case h > 0:
		return m.set("geometry", fmt.Sprintf("x%d", h))
	}
	return nil
}
