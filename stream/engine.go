package stream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	neturl "net/url"
	"sync"

	"github.com/grafov/m3u8"
	"github.com/reelctl/reelctl/log"
	"github.com/reelctl/reelctl/media"
	"github.com/reelctl/reelctl/network"
	logrus "github.com/sirupsen/logrus"
)

// Engine plays adaptive streams on an element.
type Engine interface {
	// Attach loads url into el, detaching any previous attachment first.
	Attach(ctx context.Context, el media.Element, url string) error
	// Detach releases the current attachment. It is safe to call when nothing is attached.
	Detach()
}

// Variant is one rendition advertised by a master playlist.
type Variant struct {
	URI        string
	Bandwidth  uint32
	Resolution string
	Codecs     string
}

// HLSEngine reads the master playlist to learn its variants and hands the manifest to the
// element, which performs segment fetching and bitrate switching itself.
type HLSEngine struct {
	Client *http.Client

	mu       sync.Mutex
	el       media.Element
	url      string
	variants []Variant
}

// NewHLSEngine returns an engine using the shared network client.
func NewHLSEngine() *HLSEngine {
	return &HLSEngine{Client: network.Client}
}

func (e *HLSEngine) client() *http.Client {
	if e.Client != nil {
		return e.Client
	}
	return network.Client
}

func (e *HLSEngine) Attach(ctx context.Context, el media.Element, url string) error {
	if el == nil {
		return errors.New("attach: no element")
	}

	e.Detach()

	variants, err := e.ReadVariants(ctx, url)
	if err != nil {
		// The element can still play a media playlist or a manifest we failed to read.
		log.WithFields(logrus.Fields{"url": url}).Warnf("read master playlist: %v", err)
	}

	if err := el.SetSrc(url); err != nil {
		return fmt.Errorf("attach %s: %w", url, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.el = el
	e.url = url
	e.variants = variants

	log.WithFields(logrus.Fields{"url": url, "variants": len(variants)}).Info("hls engine attached")
	return nil
}

func (e *HLSEngine) Detach() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.el == nil {
		return
	}
	log.WithFields(logrus.Fields{"url": e.url}).Debug("hls engine detached")
	e.el = nil
	e.url = ""
	e.variants = nil
}

// Attached returns the URL currently attached, if any.
func (e *HLSEngine) Attached() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.url, e.el != nil
}

// Variants returns the renditions of the attached master playlist.
func (e *HLSEngine) Variants() []Variant {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Variant(nil), e.variants...)
}

// ReadVariants fetches the playlist at rawURL and returns the renditions it advertises, with
// their URIs resolved against it. A media playlist has none.
func (e *HLSEngine) ReadVariants(ctx context.Context, rawURL string) ([]Variant, error) {
	base, err := neturl.Parse(rawURL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := e.client().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	playlist, listType, err := m3u8.DecodeFrom(resp.Body, false)
	if err != nil {
		return nil, fmt.Errorf("decode playlist: %w", err)
	}

	if listType != m3u8.MASTER {
		return nil, nil
	}

	master := playlist.(*m3u8.MasterPlaylist)
	variants := make([]Variant, 0, len(master.Variants))
	for _, v := range master.Variants {
		if v == nil {
			continue
		}
		uri := v.URI
		if ref, err := neturl.Parse(v.URI); err == nil {
			uri = base.ResolveReference(ref).String()
		}
		variants = append(variants, Variant{
			URI:        uri,
			Bandwidth:  v.Bandwidth,
			Resolution: v.Resolution,
			Codecs:     v.Codecs,
		})
	}
	return variants, nil
}
