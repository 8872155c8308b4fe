// Package device classifies the host the player runs on from its user agent.
package device

import (
	"os"
	"regexp"
)

// EnvUserAgent overrides the user agent reported by the host.
const EnvUserAgent = "REELCTL_USER_AGENT"

var touchAgents = regexp.MustCompile(`(?i)Android|webOS|iPhone|iPad|iPod|BlackBerry|IEMobile|Opera Mini`)

// IsTouch reports whether the user agent belongs to a touch-first (mobile) device.
func IsTouch(userAgent string) bool {
	return touchAgents.MatchString(userAgent)
}

// UserAgent returns the user agent of the current host. Terminals have none, so it is empty
// unless overridden through REELCTL_USER_AGENT.
func UserAgent() string {
	return os.Getenv(EnvUserAgent)
}
