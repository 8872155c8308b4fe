// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Player Timing - these keys govern the polling and gesture pacing of the playback controller.
const (
	PlayerPollInterval     = "player.poll_interval"
	PlayerHideTime         = "player.hide_time"
	PlayerDragThrottle     = "player.drag_throttle"
	PlayerActivityThrottle = "player.activity_throttle"
)

// Player Geometry - these keys feed the adaptive sizing calculator.
const (
	PlayerWidth    = "player.width"
	PlayerHeight   = "player.height"
	PlayerSizeMode = "player.size_mode"
)

// Source Loading - these keys control stream format detection.
const (
	PlayerCrossOrigin = "player.cross_origin"
	PlayerAutoplay    = "player.autoplay"
	VideoType         = "video.type"
)

// Presentation Hints - these keys are consumed by the presentation layer and the notification side channel.
const (
	PlayerTheme                 = "player.theme"
	PlayerLanguage              = "player.language"
	PlayerPausePlacement        = "player.pause_placement"
	PlayerToastEnable           = "player.toast.enable"
	PlayerToastPosition         = "player.toast.position"
	PlayerProgressFloatEnable   = "player.progress_float.enable"
	PlayerProgressFloatPosition = "player.progress_float.position"
)

// Playback History - these keys control what is remembered about played sources.
const (
	HistorySave = "history.save"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics and auditing system.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment - these flags and settings govern the non-TUI application behavior.
const (
	CliColored      = "cli.colored"
	CliVersionCheck = "cli.version_check"
	IconsVariant    = "icons.variant"
)
