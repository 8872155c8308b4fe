package util

import (
	"errors"
	"testing"

	"github.com/reelctl/reelctl/filesystem"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestClamp(t *testing.T) {
	Convey("Clamp", t, func() {
		So(Clamp(5, 0, 10), ShouldEqual, 5)
		So(Clamp(-1, 0, 10), ShouldEqual, 0)
		So(Clamp(11.5, 0.0, 10.0), ShouldEqual, 10.0)
	})
}

func TestMaxMin(t *testing.T) {
	Convey("Max/Min", t, func() {
		So(Max(1, 5, 2), ShouldEqual, 5)
		So(Min(1, 5, 2), ShouldEqual, 1)
		So(Max[int](), ShouldEqual, 0)
	})
}

func TestFormatClock(t *testing.T) {
	Convey("FormatClock", t, func() {
		So(FormatClock(0), ShouldEqual, "00:00")
		So(FormatClock(45.9), ShouldEqual, "00:45")
		So(FormatClock(125), ShouldEqual, "02:05")
		So(FormatClock(3725), ShouldEqual, "62:05")
		So(FormatClock(-3), ShouldEqual, "00:00")
	})
}

func TestIgnore(t *testing.T) {
	Convey("Ignore should swallow the error", t, func() {
		So(func() { Ignore(func() error { return errors.New("boom") }) }, ShouldNotPanic)
	})
}

func TestCapitalize(t *testing.T) {
	Convey("Capitalize", t, func() {
		So(Capitalize("logs"), ShouldEqual, "Logs")
		So(Capitalize(""), ShouldEqual, "")
	})
}

func TestDelete(t *testing.T) {
	Convey("Given a directory with a file in it", t, func() {
		fs := filesystem.API()
		So(fs.MkdirAll("/shots/day", 0o755), ShouldBeNil)
		So(fs.WriteFile("/shots/day/a.png", []byte("png"), 0o644), ShouldBeNil)

		Convey("Deleting a file removes only that file", func() {
			So(Delete("/shots/day/a.png"), ShouldBeNil)
			ok, _ := fs.Exists("/shots/day")
			So(ok, ShouldBeTrue)
		})

		Convey("Deleting the directory removes everything below it", func() {
			So(Delete("/shots"), ShouldBeNil)
			ok, _ := fs.Exists("/shots/day/a.png")
			So(ok, ShouldBeFalse)
		})

		Convey("Deleting a missing path fails", func() {
			So(Delete("/nowhere"), ShouldNotBeNil)
		})
	})
}
