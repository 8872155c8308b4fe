// Package icon renders the symbols used for playback state and command feedback.
//
// Icons can be displayed as plain Unicode shapes, emoji, nerd-font glyphs,
// ASCII or kaomoji depending on user preference.
package icon

import (
	"github.com/reelctl/reelctl/key"
	"github.com/spf13/viper"
)

const (
	plain   = "plain"
	emoji   = "emoji"
	nerd    = "nerd"
	ascii   = "ascii"
	kaomoji = "kaomoji"
)

// AvailableVariants returns every supported icon style.
func AvailableVariants() []string {
	return []string{plain, emoji, nerd, ascii, kaomoji}
}

// Icon identifies a symbol in the registry.
type Icon int

const (
	Success Icon = iota
	Fail
	Play
	Pause
	Ended
	Waiting
	Error
	Current
	On
	Off
)

type iconDef struct {
	plain   string
	emoji   string
	nerd    string
	ascii   string
	kaomoji string
}

var icons = map[Icon]*iconDef{
	Success: {plain: "✓", emoji: "✅", nerd: "", ascii: "+", kaomoji: "(ᵔ◡ᵔ)"},
	Fail:    {plain: "✕", emoji: "❌", nerd: "", ascii: "x", kaomoji: "(╥﹏╥)"},
	Play:    {plain: "▶", emoji: "▶️", nerd: "", ascii: ">", kaomoji: "(ﾉ◕ヮ◕)ﾉ"},
	Pause:   {plain: "⏸", emoji: "⏸️", nerd: "", ascii: "||", kaomoji: "(￣o￣) zzZ"},
	Ended:   {plain: "■", emoji: "⏹️", nerd: "", ascii: "[]", kaomoji: "(￣ー￣)"},
	Waiting: {plain: "◌", emoji: "⏳", nerd: "", ascii: "...", kaomoji: "(・_・;)"},
	Error:   {plain: "✕", emoji: "💥", nerd: "", ascii: "!", kaomoji: "(ノಠ益ಠ)ノ"},
	Current: {plain: "●", emoji: "🔘", nerd: "", ascii: "*", kaomoji: "(•̀ᴗ•́)"},
	On:      {plain: "✓", emoji: "✅", nerd: "", ascii: "on", kaomoji: "(^_^)"},
	Off:     {plain: "✗", emoji: "❎", nerd: "", ascii: "off", kaomoji: "(-_-)"},
}

// Get returns the symbol in the variant selected by icons.variant. Unknown variants render plain.
func (d *iconDef) Get() string {
	switch viper.GetString(key.IconsVariant) {
	case emoji:
		return d.emoji
	case nerd:
		return d.nerd
	case ascii:
		return d.ascii
	case kaomoji:
		return d.kaomoji
	default:
		return d.plain
	}
}

// Get returns the rendered symbol for i, or an empty string for an unregistered icon.
func Get(i Icon) string {
	if d, ok := icons[i]; ok {
		return d.Get()
	}
	return ""
}
