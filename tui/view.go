package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wrap"
	"github.com/reelctl/reelctl/config"
	"github.com/reelctl/reelctl/i18n"
	"github.com/reelctl/reelctl/icon"
	"github.com/reelctl/reelctl/playback"
	"github.com/reelctl/reelctl/quality"
	"github.com/reelctl/reelctl/style"
	"github.com/reelctl/reelctl/toast"
	"github.com/reelctl/reelctl/util"
	"github.com/samber/lo"
)

func (b *statefulBubble) View() string {
	var output string

	switch b.state {
	case playerState:
		output = b.viewPlayer()
	case qualityState:
		output = b.viewQuality()
	case errorState:
		output = b.viewError()
	default:
		output = "Unknown state"
	}

	x, y := paddingStyle.GetFrameSize()
	return b.toasts.View(paddingStyle.Render(output), b.width+x, b.height+y)
}

func (b *statefulBubble) viewPlayer() string {
	snap := b.adapter.Snapshot()
	cfg := b.options.Config

	title := b.options.Title
	if title == "" {
		src, _ := b.adapter.Source()
		title = src
	}

	lines := []string{
		style.Title(style.Truncate(util.Max(b.width-2, 1))(title)),
		"",
		lipgloss.PlaceHorizontal(b.width, lipgloss.Center, b.viewVideo(snap)),
	}

	position := snap.CurrentTime
	if at, ok := b.preview.Get(); ok {
		position = at
	}
	fraction := 0.0
	if snap.Duration > 0 {
		fraction = util.Clamp(position/snap.Duration, 0, 1)
	}

	above, below := "", ""
	if b.controls.IsControl {
		below = b.viewStatus(snap)
	}
	if at, ok := b.preview.Get(); ok && cfg.ProgressFloatEnable {
		column := int(fraction * float64(b.progressC.Width))
		tooltip := strings.Repeat(" ", column) + style.Tag(style.Base, toast.ThemeColor(cfg.Theme))(util.FormatClock(at))
		if cfg.ProgressFloatPosition == "bottom" {
			below = tooltip
		} else {
			above = tooltip
		}
	}

	clock := fmt.Sprintf(" %s / %s", util.FormatClock(position), util.FormatClock(snap.Duration))
	lines = append(lines,
		above,
		b.progressC.ViewAs(fraction)+clock,
		below,
		"",
	)

	if b.controls.IsControl {
		lines = append(lines, b.helpC.View(b.keymap))
	}

	return strings.Join(lines, "\n")
}

// viewVideo draws the video area with the playback state in it.
func (b *statefulBubble) viewVideo(snap playback.Attributes) string {
	width, height := util.Max(int(b.video.Width), 1), b.videoRows()

	hPos, vPos := lipgloss.Center, lipgloss.Center
	var glyph string

	switch {
	case snap.Error.IsPresent():
		glyph = style.Fg(style.ErrorColor)(icon.Get(icon.Error) + " " + snap.Error.MustGet())
	case snap.IsWaiting:
		glyph = icon.Get(icon.Waiting)
	case snap.IsEnded:
		glyph = icon.Get(icon.Ended) + " " + style.Faint(b.printer.Text(i18n.Replay)+" [r]")
	case snap.IsPlay:
		glyph = icon.Get(icon.Play)
	default:
		glyph = icon.Get(icon.Pause)
		if b.options.Config.PausePlacement == config.PausePlacements[0] {
			hPos, vPos = lipgloss.Right, lipgloss.Bottom
		}
	}

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(style.BorderColor)

	content := lipgloss.Place(width, height, hPos, vPos, glyph)
	if b.options.Mask.Shown() {
		box = box.Faint(true).BorderForeground(style.FaintColor)
		content = style.Faint(content)
	}

	return box.Render(content)
}

func (b *statefulBubble) viewStatus(snap playback.Attributes) string {
	volume := fmt.Sprintf("%d%%", int(snap.Volume*100+0.5))
	if snap.IsMute {
		volume = style.Faint(volume)
	}

	rate, ok := playback.RateName(snap.Multiple)
	if !ok {
		rate = fmt.Sprintf("%gx", snap.Multiple)
	}

	fields := []string{
		b.printer.Text(i18n.Volume) + " " + volume,
		b.printer.Text(i18n.Multiple) + " " + rate,
		b.printer.Text(i18n.Loop) + " " + toggled(b.adapter.Loop()),
	}

	if m := b.options.Quality; m != nil {
		name := quality.DisplayName(m.Current(), b.printer.Language())
		fields = append(fields, b.printer.Text(i18n.Quality)+" "+lo.Ternary(m.Pending(), style.Faint(name), name))
	}

	return strings.Join(fields, style.Faint("  ·  "))
}

func (b *statefulBubble) viewQuality() string {
	return b.qualityC.View()
}

func (b *statefulBubble) viewError() string {
	message := ""
	if b.lastError != nil {
		message = wrap.String(b.lastError.Error(), util.Max(b.width, 1))
	}

	return strings.Join([]string{
		style.ErrorTitle(b.printer.Text(i18n.Error)),
		"",
		message,
		"",
		b.helpC.View(b.keymap),
	}, "\n")
}
