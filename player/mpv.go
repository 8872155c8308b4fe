package player

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/reelctl/reelctl/constant"
	"github.com/reelctl/reelctl/log"
	"github.com/reelctl/reelctl/media"
	"github.com/samber/lo"
)

const (
	socketWaitRetries = 10
	socketWaitDelay   = 300 * time.Millisecond
	quitTimeout       = 3 * time.Second
)

var _ interface {
	media.Element
	media.Screenshotter
	media.Sized
} = (*MPV)(nil)

// MPV is a media element backed by an mpv process driven over JSON-IPC.
type MPV struct {
	opts options

	socketPath string
	cmd        *exec.Cmd
	exited     chan struct{}
	ipc        *ipcConn

	listenersMu sync.Mutex
	listeners   map[media.Signal]map[media.ListenerID]media.Listener

	mu        sync.Mutex
	st        state
	seen      map[string]bool
	src       string
	sources   []media.Source
	lastError string
}

func newMPV(opts []Option) *MPV {
	o := options{
		binary:    "mpv",
		userAgent: constant.UserAgent,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &MPV{
		opts:      o,
		exited:    make(chan struct{}),
		listeners: make(map[media.Signal]map[media.ListenerID]media.Listener),
		seen:      make(map[string]bool),
		st:        state{paused: true, volume: 1, speed: 1},
	}
}

// Start launches an idle mpv window and connects to it.
func Start(opts ...Option) (*MPV, error) {
	m := newMPV(opts)

	if m.opts.socketPath != "" {
		m.socketPath = m.opts.socketPath
	} else {
		randomBytes := make([]byte, 4)
		if _, err := rand.Read(randomBytes); err != nil {
			return nil, fmt.Errorf("generate socket name: %w", err)
		}
		m.socketPath = filepath.Join(os.TempDir(), fmt.Sprintf("%s-%x.sock", constant.Reelctl, randomBytes))
	}

	m.cmd = exec.Command(m.opts.binary, m.args()...)

	// Detach from the parent process group so terminal signals do not reach mpv twice.
	m.cmd.SysProcAttr = sysProcAttr()
	m.cmd.Stdout = nil
	m.cmd.Stderr = nil
	m.cmd.Stdin = nil

	if err := m.cmd.Start(); err != nil {
		return nil, fmt.Errorf("start mpv: %w", err)
	}

	go func() {
		_ = m.cmd.Wait()
		close(m.exited)
	}()

	if err := m.waitForSocket(); err != nil {
		select {
		case <-m.exited:
		default:
			log.Warnf("killing mpv: socket never became ready")
			_ = killProcess(m.cmd)
		}
		return nil, fmt.Errorf("mpv socket not ready: %w", err)
	}

	if err := m.connect(); err != nil {
		_ = m.Close()
		return nil, err
	}
	return m, nil
}

// Dial connects to an mpv instance already listening on socketPath. Closing the element then
// only closes the connection.
func Dial(socketPath string, opts ...Option) (*MPV, error) {
	m := newMPV(opts)
	m.socketPath = socketPath

	if err := m.connect(); err != nil {
		return nil, err
	}

	go func() {
		<-m.ipc.Closed()
		close(m.exited)
	}()
	return m, nil
}

func (m *MPV) connect() error {
	c, err := dialIPC(m.socketPath, m.handle)
	if err != nil {
		return err
	}
	m.ipc = c

	if err := m.observe(); err != nil {
		_ = c.Close()
		return err
	}

	log.Infof("mpv connected on %s", m.socketPath)
	return nil
}

// args builds the command line. The user's mpv.conf is respected: only the IPC socket, the
// window behavior and the request identity are set.
func (m *MPV) args() []string {
	args := []string{
		"--no-terminal",
		"--really-quiet",
		fmt.Sprintf("--input-ipc-server=%s", m.socketPath),
		"--force-window=yes",
		"--idle=yes",
		"--keep-open=yes",
	}

	if title := sanitizeTitle(m.opts.title); title != "" {
		args = append(args,
			fmt.Sprintf("--force-media-title=%s", title),
			fmt.Sprintf("--title=%s", title),
		)
	}

	if m.opts.userAgent != "" {
		args = append(args, fmt.Sprintf("--user-agent=%s", m.opts.userAgent))
	}

	if len(m.opts.headers) > 0 {
		keys := lo.Keys(m.opts.headers)
		sort.Strings(keys)
		fields := lo.Map(keys, func(k string, _ int) string {
			return fmt.Sprintf("%s: %s", k, strings.ReplaceAll(m.opts.headers[k], ",", "%2C"))
		})
		args = append(args, fmt.Sprintf("--http-header-fields=%s", strings.Join(fields, ",")))
	}

	return append(args, m.opts.args...)
}

// waitForSocket polls until the mpv IPC socket is accepting connections.
func (m *MPV) waitForSocket() error {
	for i := 0; i < socketWaitRetries; i++ {
		time.Sleep(socketWaitDelay)

		select {
		case <-m.exited:
			return errors.New("mpv exited before socket was ready")
		default:
		}

		conn, err := net.Dial("unix", m.socketPath)
		if err == nil {
			conn.Close()
			return nil
		}
	}
	return fmt.Errorf("socket %s not ready after %d attempts", m.socketPath, socketWaitRetries)
}

// Wait returns a channel closed when mpv exits, or when the connection of a dialed instance drops.
func (m *MPV) Wait() <-chan struct{} {
	return m.exited
}

// Socket returns the IPC socket path.
func (m *MPV) Socket() string {
	return m.socketPath
}

// LastError returns the reason mpv gave for the last failed load.
func (m *MPV) LastError() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastError
}

// Close quits a launched mpv, killing it if it does not exit in time, and closes the connection.
func (m *MPV) Close() error {
	if m.cmd != nil && m.ipc != nil {
		_, _ = m.ipc.call("quit")
	}
	if m.ipc != nil {
		_ = m.ipc.Close()
	}

	if m.cmd == nil {
		return nil
	}

	select {
	case <-m.exited:
	case <-time.After(quitTimeout):
		_ = killProcess(m.cmd)
	}

	_ = os.Remove(m.socketPath)
	return nil
}

func (m *MPV) set(property string, value any) error {
	if _, err := m.ipc.call("set_property", property, value); err != nil {
		return fmt.Errorf("set %s: %w", property, err)
	}
	return nil
}

func (m *MPV) getFloat(name string) (float64, error) {
	data, err := m.ipc.call("get_property", name)
	if err != nil {
		return 0, err
	}

	var v *float64
	if err := json.Unmarshal(data, &v); err != nil {
		return 0, fmt.Errorf("property %s: %w", name, err)
	}
	if v == nil {
		return 0, fmt.Errorf("property %s: nil response", name)
	}
	return *v, nil
}

// sanitizeMediaTarget validates that a URL is safe to pass to mpv.
func sanitizeMediaTarget(link string) (string, error) {
	l := strings.TrimSpace(link)
	if l == "" {
		return "", errors.New("empty URL")
	}

	if strings.ContainsAny(l, "\x00\n\r") {
		return "", errors.New("invalid control characters in URL")
	}

	// URLs must not be mistaken for flags.
	if strings.HasPrefix(l, "-") {
		return "", errors.New("url must not start with '-' (looks like a flag)")
	}

	if strings.Contains(l, "://") {
		u, err := url.Parse(l)
		if err != nil {
			return "", fmt.Errorf("invalid URL: %w", err)
		}
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return l, nil
		default:
			return "", fmt.Errorf("unsupported URL scheme: %s", u.Scheme)
		}
	}

	return filepath.Clean(l), nil
}

func sanitizeTitle(title string) string {
	t := strings.NewReplacer("\n", " ", "\r", " ", "\t", " ", "\x00", "").Replace(title)
	return strings.TrimSpace(t)
}
