// Package constant defines immutable application-level identifiers and configuration defaults.
package constant

const (
	// Reelctl is the canonical application identifier used for filesystem paths and CLI branding.
	Reelctl = "reelctl"

	// Version is the current application semantic version string.
	Version = "0.1.0"

	// Repository is the GitHub owner/name releases are published under.
	Repository = "reelctl/reelctl"

	// UserAgent is sent with stream probes so origin servers answer as they would for a desktop browser.
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Build metadata, overridden through -ldflags at release time.
var (
	BuiltAt  = "unknown"
	BuiltBy  = "unknown"
	Revision = "unknown"
)
