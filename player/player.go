// Package player provides media elements backed by external playback engines. The primary
// implementation drives mpv through its JSON-IPC interface.
package player

type options struct {
	binary     string
	socketPath string
	title      string
	userAgent  string
	headers    map[string]string
	args       []string
}

// Option configures an MPV element.
type Option func(*options)

// WithBinary sets the mpv executable.
func WithBinary(path string) Option {
	return func(o *options) {
		if path != "" {
			o.binary = path
		}
	}
}

// WithSocketPath fixes the IPC socket of a launched mpv instead of a random one.
func WithSocketPath(path string) Option {
	return func(o *options) {
		o.socketPath = path
	}
}

func WithTitle(title string) Option {
	return func(o *options) {
		o.title = title
	}
}

// WithUserAgent sets the user agent mpv sends with HTTP requests.
func WithUserAgent(ua string) Option {
	return func(o *options) {
		o.userAgent = ua
	}
}

// WithHeaders adds HTTP header fields to every request mpv makes.
func WithHeaders(headers map[string]string) Option {
	return func(o *options) {
		o.headers = headers
	}
}

// WithArgs appends raw mpv arguments.
func WithArgs(args ...string) Option {
	return func(o *options) {
		o.args = append(o.args, args...)
	}
}
