package tui

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/reelctl/reelctl/icon"
	"github.com/reelctl/reelctl/quality"
	"github.com/reelctl/reelctl/style"
	"golang.org/x/text/language"
)

// qualityItem implements list.Item for a rendition.
type qualityItem struct {
	entry   quality.Entry
	tag     language.Tag
	current bool
}

func (q *qualityItem) Title() string {
	name := quality.DisplayName(q.entry, q.tag)
	if q.current {
		return name + " " + lipgloss.NewStyle().Bold(true).Foreground(style.AccentColor).Render(icon.Get(icon.Current))
	}
	return name
}

func (q *qualityItem) Description() string {
	return style.Faint(q.entry.URL)
}

func (q *qualityItem) FilterValue() string {
	return quality.DisplayName(q.entry, q.tag) + " " + strconv.Itoa(q.entry.Key)
}
