package history

import (
	"testing"
	"time"

	"github.com/reelctl/reelctl/filesystem"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestHistory(t *testing.T) {
	Convey("Given two played sources", t, func() {
		now := time.Date(2026, 10, 1, 20, 0, 0, 0, time.UTC)
		older := &Record{Source: "https://cdn.example.com/a.mp4", Title: "A", Position: 30, Duration: 120, PlayedAt: now.Add(-time.Hour)}
		newer := &Record{Source: "/lists/b.toml", FromFile: true, Quality: 4, Position: 12, Duration: 600, PlayedAt: now}

		So(Save(older), ShouldBeNil)
		So(Save(newer), ShouldBeNil)

		Reset(func() {
			_ = Remove(older.Source)
			_ = Remove(newer.Source)
		})

		Convey("Recent should list the latest first", func() {
			records, err := Recent()
			So(err, ShouldBeNil)
			So(len(records), ShouldBeGreaterThanOrEqualTo, 2)
			So(records[0].Source, ShouldEqual, newer.Source)
			So(records[0].Quality, ShouldEqual, 4)
		})

		Convey("Find should return the stored position", func() {
			r, ok, err := Find(older.Source)
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(r.Position, ShouldEqual, 30.0)
			So(r.String(), ShouldEqual, "A  00:30 / 02:00")
		})

		Convey("A source played to the end should start over next time", func() {
			So(Save(&Record{Source: older.Source, Position: 118, Duration: 120, PlayedAt: now}), ShouldBeNil)
			r, _, _ := Find(older.Source)
			So(r.Position, ShouldEqual, 0.0)
		})

		Convey("Remove should forget a source", func() {
			So(Remove(older.Source), ShouldBeNil)
			_, ok, err := Find(older.Source)
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
		})
	})
}
