package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/reelctl/reelctl/key"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// Allowed values for enumerated settings.
var (
	SizeModes              = []string{"", "widthFix", "heightFix"}
	VideoTypes             = []string{"", "hls", "h264"}
	Languages              = []string{"zh", "en"}
	PausePlacements        = []string{"bottomRight", "center"}
	ToastPositions         = []string{"leftTop", "rightTop", "leftBottom", "rightBottom", "center"}
	ProgressFloatPositions = []string{"top", "bottom"}
)

// Options is a typed snapshot of the player settings held by viper.
type Options struct {
	PollInterval     time.Duration
	HideTime         time.Duration
	DragThrottle     time.Duration
	ActivityThrottle time.Duration

	Width    float64
	Height   float64
	SizeMode string

	CrossOrigin bool
	VideoType   string

	Theme          string
	Language       string
	PausePlacement string

	ToastEnable   bool
	ToastPosition string

	ProgressFloatEnable   bool
	ProgressFloatPosition string
}

// Load reads the current player settings.
func Load() Options {
	return Options{
		PollInterval:          viper.GetDuration(key.PlayerPollInterval),
		HideTime:              viper.GetDuration(key.PlayerHideTime),
		DragThrottle:          viper.GetDuration(key.PlayerDragThrottle),
		ActivityThrottle:      viper.GetDuration(key.PlayerActivityThrottle),
		Width:                 viper.GetFloat64(key.PlayerWidth),
		Height:                viper.GetFloat64(key.PlayerHeight),
		SizeMode:              viper.GetString(key.PlayerSizeMode),
		CrossOrigin:           viper.GetBool(key.PlayerCrossOrigin),
		VideoType:             viper.GetString(key.VideoType),
		Theme:                 viper.GetString(key.PlayerTheme),
		Language:              viper.GetString(key.PlayerLanguage),
		PausePlacement:        viper.GetString(key.PlayerPausePlacement),
		ToastEnable:           viper.GetBool(key.PlayerToastEnable),
		ToastPosition:         viper.GetString(key.PlayerToastPosition),
		ProgressFloatEnable:   viper.GetBool(key.PlayerProgressFloatEnable),
		ProgressFloatPosition: viper.GetString(key.PlayerProgressFloatPosition),
	}
}

// Validate reports every setting holding a value outside its allowed set.
func (o Options) Validate() error {
	var errs []error

	oneOf := func(k, v string, allowed []string) {
		if !lo.Contains(allowed, v) {
			errs = append(errs, fmt.Errorf("%s: unsupported value %q", k, v))
		}
	}

	oneOf(key.PlayerSizeMode, o.SizeMode, SizeModes)
	oneOf(key.VideoType, o.VideoType, VideoTypes)
	oneOf(key.PlayerLanguage, o.Language, Languages)
	oneOf(key.PlayerPausePlacement, o.PausePlacement, PausePlacements)
	oneOf(key.PlayerToastPosition, o.ToastPosition, ToastPositions)
	oneOf(key.PlayerProgressFloatPosition, o.ProgressFloatPosition, ProgressFloatPositions)

	if o.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("%s: must be positive", key.PlayerPollInterval))
	}
	if o.Width < 0 || o.Height < 0 {
		errs = append(errs, errors.New("player dimensions must not be negative"))
	}

	return errors.Join(errs...)
}
