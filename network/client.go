// Package network provides the shared HTTP client used to probe media origins.
package network

import (
	"net/http"
	"time"

	"github.com/reelctl/reelctl/constant"
)

// Client is shared by every stream probe so that connections to the same origin are reused
// across source switches.
var Client = &http.Client{
	Timeout:   10 * time.Second,
	Transport: &userAgentTransport{base: newTransport()},
}

// newTransport initializes a tuned http.Transport. Probes are short-lived, so idle connections
// are kept only briefly.
func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 16
	t.MaxIdleConnsPerHost = 4
	t.IdleConnTimeout = 30 * time.Second
	t.ResponseHeaderTimeout = 5 * time.Second
	return t
}

// userAgentTransport stamps outgoing requests with the application user agent unless one is set.
type userAgentTransport struct {
	base http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return t.base.RoundTrip(req)
	}

	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", constant.UserAgent)
	return t.base.RoundTrip(clone)
}
