// Package stream classifies media URLs as progressive files or HLS manifests and attaches
// the adaptive streaming engine to elements playing HLS.
package stream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/reelctl/reelctl/log"
	"github.com/reelctl/reelctl/network"
	"github.com/samber/lo"
	"github.com/samber/mo"
	logrus "github.com/sirupsen/logrus"
)

// Format is the delivery format of a source.
type Format int

const (
	Progressive Format = iota
	HLS
)

func (f Format) String() string {
	if f == HLS {
		return "hls"
	}
	return "progressive"
}

// ParseFormat maps the configured video type to a Format. An empty value means "detect".
func ParseFormat(videoType string) (mo.Option[Format], error) {
	switch strings.ToLower(videoType) {
	case "":
		return mo.None[Format](), nil
	case "hls":
		return mo.Some(HLS), nil
	case "h264", "progressive":
		return mo.Some(Progressive), nil
	default:
		return mo.None[Format](), fmt.Errorf("unknown video type %q", videoType)
	}
}

// HLSMediaTypes are the MIME types origins serve HLS playlists with.
var HLSMediaTypes = []string{
	"application/vnd.apple.mpegurl",
	"application/x-mpegurl",
	"audio/mpegurl",
	"audio/x-mpegurl",
}

// Manifest markers that must both appear in a master playlist.
const (
	markerHeader  = "#EXTM3U"
	markerVariant = "#EXT-X-STREAM-INF"
)

// maxSniff bounds how much of a body is read when looking for manifest markers.
const maxSniff = 64 << 10

// Detector classifies URLs. The zero value only looks at extensions.
type Detector struct {
	// Client performs the probes; network.Client when nil.
	Client *http.Client
	// CrossOrigin allows network probes against the origin.
	CrossOrigin bool
	// Override, when present, wins over every heuristic.
	Override mo.Option[Format]
}

func (d *Detector) client() *http.Client {
	if d.Client != nil {
		return d.Client
	}
	return network.Client
}

// Classify returns the format of rawURL. Heuristics run from most to least confident and stop at
// the first positive answer. Network failures classify as Progressive, never as an error.
func (d *Detector) Classify(ctx context.Context, rawURL string) Format {
	if f, ok := d.Override.Get(); ok {
		return f
	}

	if hasManifestExtension(rawURL) {
		return HLS
	}

	if !d.CrossOrigin {
		return Progressive
	}

	entry := log.WithFields(logrus.Fields{"url": rawURL})

	isHLS, err := d.probeContentType(ctx, rawURL)
	if err != nil {
		entry.Debugf("head probe failed: %v", err)
		return Progressive
	}
	if isHLS {
		return HLS
	}

	isHLS, err = d.probeManifest(ctx, rawURL)
	if err != nil {
		entry.Debugf("manifest probe failed: %v", err)
		return Progressive
	}
	if isHLS {
		return HLS
	}

	return Progressive
}

func hasManifestExtension(rawURL string) bool {
	s := strings.ToLower(strings.TrimSpace(rawURL))
	if u, err := url.Parse(s); err == nil && u.Path != "" {
		s = u.Path
	}
	return strings.HasSuffix(s, ".m3u8")
}

// IsHLSContentType reports whether any component of a Content-Type header names an HLS playlist.
func IsHLSContentType(header string) bool {
	parts := lo.Map(strings.Split(strings.ToLower(header), ";"), func(p string, _ int) string {
		return strings.TrimSpace(p)
	})
	return lo.SomeBy(parts, func(p string) bool {
		return lo.SomeBy(HLSMediaTypes, func(t string) bool {
			return strings.Contains(p, t)
		})
	})
}

// IsManifest reports whether body carries both master playlist markers.
func IsManifest(body string) bool {
	return strings.Contains(body, markerHeader) && strings.Contains(body, markerVariant)
}

func (d *Detector) probeContentType(ctx context.Context, rawURL string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return false, err
	}

	resp, err := d.client().Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	return IsHLSContentType(resp.Header.Get("Content-Type")), nil
}

func (d *Detector) probeManifest(ctx context.Context, rawURL string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return false, err
	}

	resp, err := d.client().Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return false, fmt.Errorf("unexpected status %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxSniff))
	if err != nil {
		return false, err
	}

	return IsManifest(string(body)), nil
}
