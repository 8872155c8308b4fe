package constant

import "time"

// Playback defaults applied when neither the configuration nor the preference store provide a value.
const (
	// DefaultVolume is expressed in percent, matching the dual-unit volume command.
	DefaultVolume = 60

	DefaultPollInterval     = 10 * time.Millisecond
	DefaultHideTime         = 2 * time.Second
	DefaultDragThrottle     = 10 * time.Millisecond
	DefaultActivityThrottle = time.Second
	DefaultToastDuration    = 2 * time.Second

	DefaultTheme    = "red"
	DefaultLanguage = "zh"
)
