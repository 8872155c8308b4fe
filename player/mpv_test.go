package player

import (
	"bufio"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/reelctl/reelctl/media"
	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/goleak"
)

// fakeMPV speaks enough of the JSON-IPC protocol to drive an element.
type fakeMPV struct {
	ln   net.Listener
	path string

	mu         sync.Mutex
	props      map[string]any
	observed   map[string]bool
	commands   [][]any
	conn       net.Conn
	screenshot string

	writeMu sync.Mutex
	wg      sync.WaitGroup
}

func newFakeMPV(t *testing.T) *fakeMPV {
	dir, err := os.MkdirTemp("", "mpv")
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "ipc.sock")

	ln, err := net.Listen("unix", path)
	if err != nil {
		t.Fatal(err)
	}

	f := &fakeMPV{
		ln:   ln,
		path: path,
		props: map[string]any{
			"pause":              true,
			"eof-reached":        false,
			"time-pos":           nil,
			"duration":           nil,
			"paused-for-cache":   false,
			"demuxer-cache-time": 0.0,
			"volume":             100.0,
			"mute":               false,
			"speed":              1.0,
			"loop-file":          "no",
			"ontop":              false,
			"dwidth":             nil,
			"dheight":            nil,
			"display-width":      1280.0,
			"display-height":     800.0,
		},
		observed: make(map[string]bool),
	}

	f.wg.Add(1)
	go f.serve()
	return f
}

func (f *fakeMPV) serve() {
	defer f.wg.Done()

	conn, err := f.ln.Accept()
	if err != nil {
		return
	}
	f.mu.Lock()
	f.conn = conn
	f.mu.Unlock()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		var req ipcRequest
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			continue
		}
		f.handle(req)
	}
}

func (f *fakeMPV) write(v any) {
	data, _ := json.Marshal(v)

	f.writeMu.Lock()
	defer f.writeMu.Unlock()
	_, _ = f.conn.Write(append(data, '\n'))
}

func (f *fakeMPV) reply(id int64, data any, errText string) {
	f.write(map[string]any{"request_id": id, "error": errText, "data": data})
}

// change updates a property and notifies the client when it is observed.
func (f *fakeMPV) change(name string, value any) {
	f.mu.Lock()
	f.props[name] = value
	observed := f.observed[name]
	f.mu.Unlock()

	if observed {
		f.write(map[string]any{"event": "property-change", "name": name, "data": value})
	}
}

// jump moves the playback position the way mpv reports any seek, including one made with
// the keyboard in its window.
func (f *fakeMPV) jump(to any) {
	f.write(map[string]any{"event": "seek"})
	f.change("eof-reached", false)
	f.change("time-pos", to)
	f.write(map[string]any{"event": "playback-restart"})
}

func (f *fakeMPV) paused() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	paused, _ := f.props["pause"].(bool)
	return paused
}

func (f *fakeMPV) handle(req ipcRequest) {
	f.mu.Lock()
	f.commands = append(f.commands, req.Command)
	f.mu.Unlock()

	name, _ := req.Command[0].(string)
	arg := func(i int) any {
		if i < len(req.Command) {
			return req.Command[i]
		}
		return nil
	}

	switch name {
	case "observe_property":
		prop := arg(2).(string)
		f.mu.Lock()
		f.observed[prop] = true
		value := f.props[prop]
		f.mu.Unlock()
		f.reply(req.RequestID, nil, "success")
		f.write(map[string]any{"event": "property-change", "name": prop, "data": value})
	case "get_property":
		f.mu.Lock()
		value, ok := f.props[arg(1).(string)]
		f.mu.Unlock()
		if !ok {
			f.reply(req.RequestID, nil, "property not found")
			return
		}
		f.reply(req.RequestID, value, "success")
	case "set_property":
		f.reply(req.RequestID, nil, "success")
		f.change(arg(1).(string), arg(2))
	case "seek":
		f.reply(req.RequestID, nil, "success")
		f.jump(arg(1))
	case "loadfile":
		f.reply(req.RequestID, nil, "success")
		if strings.Contains(arg(1).(string), "broken") {
			f.write(map[string]any{"event": "end-file", "reason": "error", "file_error": "loading failed"})
			return
		}
		f.mu.Lock()
		f.props["duration"] = 120.0
		f.props["dwidth"] = 1920.0
		f.props["dheight"] = 1080.0
		f.mu.Unlock()
		f.write(map[string]any{"event": "file-loaded"})
	case "screenshot-to-file":
		f.mu.Lock()
		f.screenshot = arg(1).(string)
		f.mu.Unlock()
		f.reply(req.RequestID, nil, "success")
	case "quit":
		f.reply(req.RequestID, nil, "success")
	default:
		f.reply(req.RequestID, nil, "invalid parameter")
	}
}

func (f *fakeMPV) Commands(name string) [][]any {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out [][]any
	for _, c := range f.commands {
		if c[0] == name {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeMPV) Screenshot() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.screenshot
}

func (f *fakeMPV) Close() {
	_ = f.ln.Close()
	f.mu.Lock()
	if f.conn != nil {
		_ = f.conn.Close()
	}
	f.mu.Unlock()
	f.wg.Wait()
	_ = os.RemoveAll(filepath.Dir(f.path))
}

type signals struct {
	mu  sync.Mutex
	got []media.Signal
}

func (s *signals) listen(el media.Element) {
	for _, sig := range media.Signals {
		el.AddListener(sig, func(sig media.Signal) {
			s.mu.Lock()
			s.got = append(s.got, sig)
			s.mu.Unlock()
		})
	}
}

func (s *signals) has(sig media.Signal) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.got {
		if g == sig {
			return true
		}
	}
	return false
}

func (s *signals) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.got)
}

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestMPV(t *testing.T) {
	defer goleak.VerifyNone(t)

	Convey("Given an element dialed into mpv", t, func() {
		srv := newFakeMPV(t)
		m, err := Dial(srv.path)
		So(err, ShouldBeNil)

		sigs := &signals{}
		sigs.listen(m)

		Reset(func() {
			_ = m.Close()
			srv.Close()
		})

		Convey("Every mirrored property should be observed without signalling", func() {
			So(srv.Commands("observe_property"), ShouldHaveLength, len(observed))
			So(eventually(func() bool { return m.Volume() == 1 }), ShouldBeTrue)
			So(m.Paused(), ShouldBeTrue)
			So(sigs.count(), ShouldEqual, 0)
		})

		Convey("The display size should come from mpv", func() {
			w, h, err := m.DisplaySize()
			So(err, ShouldBeNil)
			So(w, ShouldEqual, 1280)
			So(h, ShouldEqual, 800)
		})

		Convey("Playing without a source should fail", func() {
			So(m.Play(), ShouldEqual, ErrNoSource)
		})

		Convey("Selecting a source should load it and report metadata", func() {
			So(m.SetSrc("https://cdn.example.com/movie.mp4"), ShouldBeNil)
			So(eventually(func() bool { return sigs.has(media.LoadedMetadata) }), ShouldBeTrue)
			So(m.Duration(), ShouldEqual, 120)

			w, h := m.VideoSize()
			So(w, ShouldEqual, 1920)
			So(h, ShouldEqual, 1080)

			loads := srv.Commands("loadfile")
			So(loads, ShouldHaveLength, 1)
			So(loads[0][2], ShouldEqual, "replace")

			Convey("Play and pause should round-trip through signals", func() {
				So(m.Play(), ShouldBeNil)
				So(eventually(func() bool { return sigs.has(media.Playing) }), ShouldBeTrue)
				So(m.Paused(), ShouldBeFalse)

				So(m.Pause(), ShouldBeNil)
				So(eventually(func() bool { return sigs.has(media.Pause) }), ShouldBeTrue)
			})

			Convey("Seeking should move the position", func() {
				So(m.SetCurrentTime(45), ShouldBeNil)
				So(m.CurrentTime(), ShouldEqual, 45)
				seeks := srv.Commands("seek")
				So(seeks[0][2], ShouldEqual, "absolute")
			})

			Convey("A seek made in the mpv window should signal seeking", func() {
				srv.jump(10.0)
				So(eventually(func() bool { return sigs.has(media.Seeking) }), ShouldBeTrue)
				So(eventually(func() bool { return m.CurrentTime() == 10 }), ShouldBeTrue)
			})

			Convey("Replacing the source while playing should pause first", func() {
				So(m.Play(), ShouldBeNil)
				So(eventually(func() bool { return !m.Paused() }), ShouldBeTrue)

				So(m.SetSrc("https://cdn.example.com/other.mp4"), ShouldBeNil)
				So(m.Paused(), ShouldBeTrue)
				So(srv.paused(), ShouldBeTrue)
				So(eventually(func() bool { return sigs.has(media.Pause) }), ShouldBeTrue)
				So(srv.Commands("loadfile"), ShouldHaveLength, 2)
			})

			Convey("Playing an ended video should restart it", func() {
				srv.change("eof-reached", true)
				So(eventually(func() bool { return sigs.has(media.Ended) }), ShouldBeTrue)
				So(m.Ended(), ShouldBeTrue)

				So(m.Play(), ShouldBeNil)
				So(srv.Commands("seek")[0][1], ShouldEqual, 0.0)
				So(m.Ended(), ShouldBeFalse)
			})
		})

		Convey("A source that fails to load should signal an error", func() {
			So(m.SetSrc("https://cdn.example.com/broken.mp4"), ShouldBeNil)
			So(eventually(func() bool { return sigs.has(media.Error) }), ShouldBeTrue)
			So(m.LastError(), ShouldEqual, "loading failed")
		})

		Convey("Volume should be scaled to percent", func() {
			So(m.SetVolume(0.5), ShouldBeNil)
			So(eventually(func() bool { return sigs.has(media.VolumeChange) }), ShouldBeTrue)
			So(m.Volume(), ShouldEqual, 0.5)
			So(srv.Commands("set_property")[0][2], ShouldEqual, 50.0)

			So(m.SetVolume(3), ShouldBeNil)
			So(srv.Commands("set_property")[1][2], ShouldEqual, 100.0)
		})

		Convey("Rate, loop and always-on-top should map to mpv properties", func() {
			So(m.SetPlaybackRate(1.5), ShouldBeNil)
			So(eventually(func() bool { return sigs.has(media.RateChange) }), ShouldBeTrue)
			So(m.PlaybackRate(), ShouldEqual, 1.5)
			So(m.SetPlaybackRate(0), ShouldNotBeNil)

			So(m.SetLoop(true), ShouldBeNil)
			So(eventually(m.Loop), ShouldBeTrue)

			So(m.SetPictureInPicture(true), ShouldBeNil)
			So(eventually(func() bool { return sigs.has(media.EnterPictureInPicture) }), ShouldBeTrue)
			So(m.PictureInPicture(), ShouldBeTrue)
		})

		Convey("Resizing should set the window geometry", func() {
			So(m.Resize(1280, 720.4), ShouldBeNil)
			So(m.Resize(0, 480), ShouldBeNil)
			So(m.Resize(0, 0), ShouldBeNil)

			sets := srv.Commands("set_property")
			So(sets, ShouldHaveLength, 2)
			So(sets[0][2], ShouldEqual, "1280x720")
			So(sets[1][2], ShouldEqual, "x480")
		})

		Convey("Buffering should report waiting and the cached range", func() {
			srv.change("paused-for-cache", true)
			srv.change("demuxer-cache-time", 30.0)
			So(eventually(func() bool { return sigs.has(media.Progress) }), ShouldBeTrue)
			So(sigs.has(media.Waiting), ShouldBeTrue)
			So(m.Buffered(), ShouldResemble, []media.Range{{Start: 0, End: 30}})
		})

		Convey("Only the first playable source should be selected", func() {
			m.AppendSource(media.Source{URL: "https://cdn.example.com/a.flv", Type: "video/x-flv"})
			m.AppendSource(media.Source{URL: "https://cdn.example.com/b.mp4", Type: "video/mp4"})
			m.AppendSource(media.Source{URL: "https://cdn.example.com/c.mp4", Type: "video/mp4"})

			So(m.Sources(), ShouldHaveLength, 3)
			So(m.Src(), ShouldEqual, "https://cdn.example.com/b.mp4")
			So(srv.Commands("loadfile"), ShouldHaveLength, 1)

			m.ClearSources()
			So(m.Sources(), ShouldBeEmpty)
			So(m.Src(), ShouldBeEmpty)
		})

		Convey("Screenshots should be written to an absolute path", func() {
			So(m.Screenshot("shot.png"), ShouldBeNil)
			So(filepath.IsAbs(srv.Screenshot()), ShouldBeTrue)
			So(filepath.Base(srv.Screenshot()), ShouldEqual, "shot.png")
		})

		Convey("Removed listeners should not be called", func() {
			var called atomic.Bool
			id := m.AddListener(media.RateChange, func(media.Signal) { called.Store(true) })
			m.RemoveListener(media.RateChange, id)
			So(m.SetPlaybackRate(2), ShouldBeNil)
			So(eventually(func() bool { return sigs.has(media.RateChange) }), ShouldBeTrue)
			So(called.Load(), ShouldBeFalse)
		})
	})

	Convey("Dialing a missing socket should fail", t, func() {
		_, err := Dial(filepath.Join(os.TempDir(), "reelctl-missing.sock"))
		So(err, ShouldNotBeNil)
	})
}

func TestArgs(t *testing.T) {
	Convey("Launch arguments should carry identity and sorted headers", t, func() {
		m := newMPV([]Option{
			WithTitle("Movie\nNight"),
			WithUserAgent("reelctl-test"),
			WithHeaders(map[string]string{"Referer": "https://example.com", "Cookie": "a=1,b=2"}),
			WithArgs("--hwdec=auto"),
		})
		m.socketPath = "/tmp/reelctl.sock"

		args := m.args()
		So(args, ShouldContain, "--input-ipc-server=/tmp/reelctl.sock")
		So(args, ShouldContain, "--idle=yes")
		So(args, ShouldContain, "--title=Movie Night")
		So(args, ShouldContain, "--user-agent=reelctl-test")
		So(args, ShouldContain, "--http-header-fields=Cookie: a=1%2Cb=2,Referer: https://example.com")
		So(args[len(args)-1], ShouldEqual, "--hwdec=auto")
	})

	Convey("The binary should default to mpv", t, func() {
		So(newMPV(nil).opts.binary, ShouldEqual, "mpv")
		So(newMPV([]Option{WithBinary("")}).opts.binary, ShouldEqual, "mpv")
		So(newMPV([]Option{WithBinary("/opt/mpv")}).opts.binary, ShouldEqual, "/opt/mpv")
	})
}

func TestSanitize(t *testing.T) {
	Convey("Media targets should be validated", t, func() {
		for _, bad := range []string{"", "  ", "-flag", "ftp://host/file", "http://a\nb"} {
			_, err := sanitizeMediaTarget(bad)
			So(err, ShouldNotBeNil)
		}

		u, err := sanitizeMediaTarget(" https://cdn.example.com/v.mp4 ")
		So(err, ShouldBeNil)
		So(u, ShouldEqual, "https://cdn.example.com/v.mp4")

		p, err := sanitizeMediaTarget("videos/../movie.mp4")
		So(err, ShouldBeNil)
		So(p, ShouldEqual, "movie.mp4")
	})

	Convey("Titles should be single-line", t, func() {
		So(sanitizeTitle(" a\tb\r\nc\x00 "), ShouldEqual, "a b  c")
	})
}
