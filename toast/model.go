package toast

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"github.com/reelctl/reelctl/constant"
	"github.com/samber/mo"
)

// maxWidth bounds the rendered toast box, borders included.
const maxWidth = 40

// Model shows the latest toast on top of a view until it expires.
type Model struct {
	current  mo.Option[Toast]
	shownAt  time.Time
	seq      int
	duration time.Duration
}

// ClearMsg expires the toast it was scheduled for.
type ClearMsg struct {
	seq int
}

// NewModel returns a model keeping toasts on screen for d, or the default duration when d is not positive.
func NewModel(d time.Duration) *Model {
	if d <= 0 {
		d = constant.DefaultToastDuration
	}
	return &Model{duration: d}
}

// Current returns the toast being shown.
func (m *Model) Current() mo.Option[Toast] {
	return m.current
}

// Update shows incoming toasts and schedules their expiry. A newer toast replaces the shown one
// and outlives the expiry scheduled for it.
func (m *Model) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case Toast:
		m.seq++
		m.current = mo.Some(msg)
		m.shownAt = time.Now()
		seq := m.seq
		return tea.Tick(m.duration, func(time.Time) tea.Msg {
			return ClearMsg{seq: seq}
		})
	case ClearMsg:
		if msg.seq == m.seq {
			m.current = mo.None[Toast]()
		}
	}
	return nil
}

// Render returns the boxed toast alone.
func Render(t Toast) string {
	c := ThemeColor(t.Theme)
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(c).
		Foreground(c).
		Padding(0, 1)

	frame, _ := box.GetFrameSize()
	return box.Render(wordwrap.String(t.Message, maxWidth-frame))
}

// View draws the current toast over content, which is laid out as width x height cells.
func (m *Model) View(content string, width, height int) string {
	t, ok := m.current.Get()
	if !ok || width <= 0 || height <= 0 {
		return content
	}

	lines := strings.Split(content, "\n")
	for len(lines) < height {
		lines = append(lines, "")
	}

	box := strings.Split(Render(t), "\n")
	if len(box) > len(lines) {
		box = box[:len(lines)]
	}

	align := lipgloss.Left
	switch t.Position {
	case RightTop, RightBottom:
		align = lipgloss.Right
	case Center:
		align = lipgloss.Center
	}

	var top int
	switch t.Position {
	case LeftBottom, RightBottom:
		top = len(lines) - len(box)
	case Center:
		top = (len(lines) - len(box)) / 2
	}

	for i, row := range box {
		lines[top+i] = lipgloss.PlaceHorizontal(width, align, row)
	}

	return strings.Join(lines, "\n")
}
