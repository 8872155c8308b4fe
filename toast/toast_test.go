package toast

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/reelctl/reelctl/style"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeSender struct {
	msgs []tea.Msg
}

func (f *fakeSender) Send(msg tea.Msg) {
	f.msgs = append(f.msgs, msg)
}

func TestPositions(t *testing.T) {
	Convey("ParsePosition should accept every known position", t, func() {
		for _, p := range Positions {
			So(ParsePosition(string(p)), ShouldEqual, p)
		}
	})

	Convey("ParsePosition should fall back to the top left corner", t, func() {
		So(ParsePosition(""), ShouldEqual, LeftTop)
		So(ParsePosition("middle"), ShouldEqual, LeftTop)
	})
}

func TestThemeColor(t *testing.T) {
	Convey("Hex themes should be used verbatim", t, func() {
		So(ThemeColor("#FF0000"), ShouldEqual, lipgloss.Color("#ff0000"))
	})

	Convey("Named themes should map onto the palette", t, func() {
		So(ThemeColor("red"), ShouldEqual, style.Red)
		So(ThemeColor(" Blue "), ShouldEqual, style.Blue)
	})

	Convey("Unknown themes should use the accent color", t, func() {
		So(ThemeColor("chartreuse"), ShouldEqual, style.AccentColor)
	})
}

func TestNotifiers(t *testing.T) {
	Convey("ToProgram should forward toasts as messages", t, func() {
		s := &fakeSender{}
		ToProgram(s).Notify(Toast{Message: "hi"})
		So(s.msgs, ShouldHaveLength, 1)
		So(s.msgs[0], ShouldResemble, Toast{Message: "hi"})
	})

	Convey("NotifierFunc should call the function", t, func() {
		var got []Toast
		NotifierFunc(func(t Toast) { got = append(got, t) }).Notify(Toast{Message: "a"})
		So(got, ShouldResemble, []Toast{{Message: "a"}})
	})
}

func TestModel(t *testing.T) {
	Convey("Given a toast model", t, func() {
		m := NewModel(time.Second)

		Convey("It should show nothing at first", func() {
			So(m.Current().IsAbsent(), ShouldBeTrue)
			So(m.View("content", 20, 1), ShouldEqual, "content")
		})

		Convey("A toast should be shown until its expiry arrives", func() {
			cmd := m.Update(Toast{Message: "Resolution has been switched to 720P"})
			So(cmd, ShouldNotBeNil)
			So(m.Current().MustGet().Message, ShouldEqual, "Resolution has been switched to 720P")

			m.Update(ClearMsg{seq: 1})
			So(m.Current().IsAbsent(), ShouldBeTrue)
		})

		Convey("A stale expiry should not clear a newer toast", func() {
			m.Update(Toast{Message: "first"})
			m.Update(Toast{Message: "second"})
			m.Update(ClearMsg{seq: 1})
			So(m.Current().MustGet().Message, ShouldEqual, "second")
		})

		Convey("Other messages should be ignored", func() {
			So(m.Update(tea.KeyMsg{}), ShouldBeNil)
		})
	})

	Convey("The view should place the toast at its position", t, func() {
		content := strings.Repeat("\n", 9)

		for _, tc := range []struct {
			position Position
			row      int
		}{
			{LeftTop, 0},
			{RightTop, 0},
			{LeftBottom, 7},
			{RightBottom, 7},
			{Center, 3},
		} {
			m := NewModel(0)
			m.Update(Toast{Message: "ok", Position: tc.position})

			lines := strings.Split(m.View(content, 30, 10), "\n")
			So(lines, ShouldHaveLength, 10)
			So(lines[tc.row+1], ShouldContainSubstring, "ok")
			So(lipgloss.Width(lines[tc.row+1]), ShouldEqual, 30)
		}
	})

	Convey("Long messages should be wrapped", t, func() {
		rendered := Render(Toast{Message: strings.Repeat("word ", 20)})
		So(lipgloss.Width(rendered), ShouldBeLessThanOrEqualTo, maxWidth)
		So(strings.Count(rendered, "\n"), ShouldBeGreaterThan, 2)
	})
}
