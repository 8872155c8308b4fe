// Package sizing computes the dimensions of the player from the video and the settings.
package sizing

import (
	"fmt"
	"runtime"

	"github.com/reelctl/reelctl/config"
	"github.com/reelctl/reelctl/constant"
	"github.com/reelctl/reelctl/device"
	"github.com/reelctl/reelctl/util"
	"github.com/samber/mo"
)

// Mode tells which configured dimension is fixed when only one should be.
type Mode int

const (
	None Mode = iota
	WidthFix
	HeightFix
)

func (m Mode) String() string {
	switch m {
	case WidthFix:
		return "widthFix"
	case HeightFix:
		return "heightFix"
	default:
		return ""
	}
}

// ParseMode reads the player.size_mode setting.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "":
		return None, nil
	case "widthFix":
		return WidthFix, nil
	case "heightFix":
		return HeightFix, nil
	}
	return None, fmt.Errorf("unknown size mode %q", s)
}

// Size is a width and a height.
type Size struct {
	Width  float64
	Height float64
}

func (s Size) ratio() (float64, bool) {
	if s.Width <= 0 || s.Height <= 0 {
		return 0, false
	}
	return s.Width / s.Height, true
}

// Config is the configured geometry.
type Config struct {
	Width  mo.Option[float64]
	Height mo.Option[float64]
	Mode   Mode
}

// FromConfig reads the geometry from the loaded settings. Zero dimensions are unset.
func FromConfig(cfg config.Options) (Config, error) {
	mode, err := ParseMode(cfg.SizeMode)
	if err != nil {
		return Config{}, err
	}

	positive := func(v float64) mo.Option[float64] {
		if v > 0 {
			return mo.Some(v)
		}
		return mo.None[float64]()
	}

	return Config{
		Width:  positive(cfg.Width),
		Height: positive(cfg.Height),
		Mode:   mode,
	}, nil
}

// Viewport is the visible area the player lives in.
type Viewport struct {
	Width  float64
	Height float64
	Mobile bool
}

// ComputeSize returns the container size for a video of intrinsic size w x h.
//
// Both configured dimensions win outright. A fixed mode keeps its dimension (configured or
// intrinsic) and derives the other one from the intrinsic aspect. Anything else falls back to
// the intrinsic dimension. On mobile viewports the result is then scaled down, aspect kept,
// until it fits.
func ComputeSize(w, h float64, cfg Config, vp Viewport) Size {
	intrinsic := Size{Width: w, Height: h}
	size := Size{Width: cfg.Width.OrElse(w), Height: cfg.Height.OrElse(h)}
	both := cfg.Width.IsPresent() && cfg.Height.IsPresent()

	if ratio, ok := intrinsic.ratio(); ok && !both {
		switch cfg.Mode {
		case WidthFix:
			size.Height = size.Width / ratio
		case HeightFix:
			size.Width = size.Height * ratio
		}
	}

	if vp.Mobile {
		size = clamp(size, vp)
	}
	return size
}

func clamp(s Size, vp Viewport) Size {
	if vp.Width <= 0 || vp.Height <= 0 || s.Width <= 0 || s.Height <= 0 {
		return s
	}
	if s.Width <= vp.Width && s.Height <= vp.Height {
		return s
	}

	scale := util.Min(vp.Width/s.Width, vp.Height/s.Height)
	return Size{Width: s.Width * scale, Height: s.Height * scale}
}

// Fit returns the size of a video of the given intrinsic size shown inside container with
// its aspect kept: bars on the sides when the container is wider, above and below otherwise.
func Fit(container, intrinsic Size) Size {
	vRatio, ok := intrinsic.ratio()
	if !ok {
		return container
	}
	cRatio, ok := container.ratio()
	if !ok {
		return container
	}

	if cRatio > vRatio {
		return Size{Width: vRatio * container.Height, Height: container.Height}
	}
	return Size{Width: container.Width, Height: container.Width / vRatio}
}

// TerminalViewport describes the terminal as a viewport measured in cells. Android hosts and
// touch user agents count as mobile.
func TerminalViewport() (Viewport, error) {
	cols, rows, err := util.TerminalSize()
	if err != nil {
		return Viewport{}, fmt.Errorf("terminal size: %w", err)
	}

	return Viewport{
		Width:  float64(cols),
		Height: float64(rows),
		Mobile: runtime.GOOS == constant.Android || device.IsTouch(device.UserAgent()),
	}, nil
}
