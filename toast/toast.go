// Package toast carries short-lived notifications from the player to whatever presents them.
package toast

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/reelctl/reelctl/color"
	"github.com/reelctl/reelctl/style"
	"github.com/samber/lo"
)

// Position is the corner (or the center) a toast is drawn at.
type Position string

const (
	LeftTop     Position = "leftTop"
	RightTop    Position = "rightTop"
	LeftBottom  Position = "leftBottom"
	RightBottom Position = "rightBottom"
	Center      Position = "center"
)

// Positions lists every supported position.
var Positions = []Position{LeftTop, RightTop, LeftBottom, RightBottom, Center}

// ParsePosition returns the position named s, LeftTop for anything unknown.
func ParsePosition(s string) Position {
	p := Position(s)
	if lo.Contains(Positions, p) {
		return p
	}
	return LeftTop
}

// Toast is a single notification.
type Toast struct {
	Message  string
	Theme    string
	Position Position
}

// Notifier accepts toasts.
type Notifier interface {
	Notify(Toast)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(Toast)

func (f NotifierFunc) Notify(t Toast) {
	f(t)
}

// Sender is satisfied by *tea.Program.
type Sender interface {
	Send(msg tea.Msg)
}

type programNotifier struct {
	sender Sender
}

func (p programNotifier) Notify(t Toast) {
	p.sender.Send(t)
}

// ToProgram forwards toasts as messages to a running bubbletea program, where a Model picks them up.
func ToProgram(s Sender) Notifier {
	return programNotifier{sender: s}
}

// Discard drops every toast.
var Discard Notifier = NotifierFunc(func(Toast) {})

var themes = map[string]lipgloss.Color{
	"red":    style.Red,
	"green":  style.Green,
	"yellow": style.Yellow,
	"blue":   style.Blue,
	"purple": style.Mauve,
	"pink":   style.Pink,
	"orange": color.Orange,
	"gray":   color.Gray,
	"grey":   color.Gray,
	"white":  style.Text,
}

// ThemeColor resolves a theme name or a #rrggbb value to a terminal color.
func ThemeColor(theme string) lipgloss.Color {
	theme = strings.ToLower(strings.TrimSpace(theme))
	if strings.HasPrefix(theme, "#") {
		return lipgloss.Color(theme)
	}
	if c, ok := themes[theme]; ok {
		return c
	}
	return style.AccentColor
}
