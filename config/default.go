// Package config provides centralized management for application settings, defaults, and the Viper-based configuration engine.
package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/reelctl/reelctl/color"
	"github.com/reelctl/reelctl/constant"
	"github.com/reelctl/reelctl/key"
	"github.com/reelctl/reelctl/style"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// Field represents a configuration field definition.
type Field struct {
	Key         string
	Value       any
	Description string
}

// Pretty returns a colored string representation of the field for display.
func (f *Field) Pretty() string {
	var b strings.Builder
	lo.Must0(prettyTemplate.Execute(&b, f))
	return b.String()
}

// Env returns the environment variable name for this field.
func (f *Field) Env() string {
	env := strings.ToUpper(EnvKeyReplacer.Replace(f.Key))
	prefix := strings.ToUpper(constant.Reelctl + "_")
	if strings.HasPrefix(env, prefix) {
		return env
	}
	return prefix + env
}

// MarshalJSON customizes JSON output to include current and default values.
func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key         string `json:"key"`
		Value       any    `json:"value"`
		Default     any    `json:"default"`
		Description string `json:"description"`
		Type        string `json:"type"`
	}{
		Key:         f.Key,
		Value:       viper.Get(f.Key),
		Default:     f.Value,
		Description: f.Description,
		Type:        f.typeName(),
	})
}

// typeName returns the string representation of the field's underlying value type.
func (f *Field) typeName() string {
	switch f.Value.(type) {
	case string:
		return "string"
	case int:
		return "int"
	case float64:
		return "float"
	case time.Duration:
		return "duration"
	case bool:
		return "bool"
	case []string:
		return "[]string"
	case []int:
		return "[]int"
	default:
		return "unknown"
	}
}

// Default holds the map of all configuration fields.
var Default = make(map[string]Field)

// EnvExposed holds keys that are bound to environment variables.
var EnvExposed []string

func init() {
	// register validates and adds a new configuration field to the global registry.
	register := func(k string, v any, desc string) {
		if _, exists := Default[k]; exists {
			panic("Duplicate config key: " + k)
		}
		f := Field{Key: k, Value: v, Description: desc}
		Default[k] = f
		EnvExposed = append(EnvExposed, k)
	}

	register(key.PlayerPollInterval, constant.DefaultPollInterval, "Interval at which the current playback position is sampled")
	register(key.PlayerHideTime, constant.DefaultHideTime, "Idle time after which the on-screen controls are hidden")
	register(key.PlayerDragThrottle, constant.DefaultDragThrottle, "Minimum interval between drag callbacks while seeking or changing volume")
	register(key.PlayerActivityThrottle, constant.DefaultActivityThrottle, "Minimum interval between pointer activity notifications")
	register(key.PlayerWidth, 0.0, "Explicit player width in pixels.\n0 means derive it from the media")
	register(key.PlayerHeight, 0.0, "Explicit player height in pixels.\n0 means derive it from the media")
	register(key.PlayerSizeMode, "", "Dimension kept fixed when only one is configured.\nAvailable options are: widthFix, heightFix")
	register(key.PlayerAutoplay, true, "Start playing as soon as the source is attached")
	register(key.PlayerCrossOrigin, false, "Allow network probing of sources to detect HLS streams")
	register(key.VideoType, "", "Force the stream format instead of detecting it.\nAvailable options are: hls, h264")
	register(key.PlayerTheme, constant.DefaultTheme, "Accent color used by notifications")
	register(key.PlayerLanguage, constant.DefaultLanguage, "Language of user-facing messages.\nAvailable options are: zh, en")
	register(key.PlayerPausePlacement, "bottomRight", "Placement of the pause button.\nAvailable options are: bottomRight, center")
	register(key.PlayerToastEnable, true, "Show a notification when the quality or playback rate changes")
	register(key.PlayerToastPosition, "leftTop", "Notification position.\nAvailable options are: leftTop, rightTop, leftBottom, rightBottom, center")
	register(key.PlayerProgressFloatEnable, true, "Show a thin progress bar while the controls are hidden")
	register(key.PlayerProgressFloatPosition, "bottom", "Position of the floating progress bar.\nAvailable options are: top, bottom")
	register(key.HistorySave, true, "Remember played sources and where playback stopped")
	register(key.LogsWrite, false, "Write logs")
	register(key.LogsLevel, "info", "Available options are: (from less to most verbose)\npanic, fatal, error, warn, info, debug, trace")
	register(key.LogsJson, false, "Use json format for logs")
	register(key.CliColored, true, "Enable colored CLI output")
	register(key.CliVersionCheck, true, "Check if the new version is available")
	register(key.IconsVariant, "plain", "Icons variant.\nAvailable options are: plain, emoji, nerd, ascii, kaomoji")
}

var prettyTemplate = lo.Must(template.New("pretty").Funcs(template.FuncMap{
	"faint":    style.Faint,
	"bold":     style.Bold,
	"purple":   style.Fg(color.Purple),
	"blue":     style.Fg(color.Blue),
	"cyan":     style.Fg(color.Cyan),
	"value":    func(k string) any { return viper.Get(k) },
	"typename": func(v any) string { return reflect.TypeOf(v).String() },
	"hl": func(v any) string {
		switch value := v.(type) {
		case bool:
			b := strconv.FormatBool(value)
			if value {
				return style.Fg(color.Green)(b)
			}
			return style.Fg(color.Red)(b)
		case string:
			return style.Fg(color.Yellow)(value)
		default:
			return fmt.Sprint(value)
		}
	},
}).Parse(`{{ faint .Description }}
{{ blue "Key:" }}     {{ purple .Key }}
{{ blue "Env:" }}     {{ .Env }}
{{ blue "Value:" }}   {{ hl (value .Key) }}
{{ blue "Default:" }} {{ hl (.Value) }}
{{ blue "Type:" }}    {{ typename .Value }}`))
