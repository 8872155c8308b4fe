package prefs

import (
	"errors"
	"testing"

	"github.com/reelctl/reelctl/filesystem"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

type brokenStore struct{}

func (brokenStore) Get(string) (string, bool, error) { return "", false, errors.New("disk gone") }
func (brokenStore) Set(string, string) error         { return errors.New("disk gone") }

func TestPreferences(t *testing.T) {
	Convey("Given an empty store", t, func() {
		p := New(NewMemoryStore())

		Convey("Every preference should be absent", func() {
			So(p.Volume().IsAbsent(), ShouldBeTrue)
			So(p.Loop().IsAbsent(), ShouldBeTrue)
			So(p.PlayRate().IsAbsent(), ShouldBeTrue)
			So(p.DarkMask().IsAbsent(), ShouldBeTrue)
		})

		Convey("When values are written", func() {
			So(p.SetVolume(0.35), ShouldBeNil)
			So(p.SetLoop(true), ShouldBeNil)
			So(p.SetPlayRate(1.5), ShouldBeNil)
			So(p.SetDarkMask("block"), ShouldBeNil)

			Convey("They should read back typed", func() {
				So(p.Volume().MustGet(), ShouldEqual, 0.35)
				So(p.Loop().MustGet(), ShouldBeTrue)
				So(p.PlayRate().MustGet(), ShouldEqual, 1.5)
				So(p.DarkMask().MustGet(), ShouldEqual, "block")
			})
		})
	})

	Convey("Given raw stored strings", t, func() {
		store := NewMemoryStore()
		p := New(store)

		Convey("A malformed float should read as absent", func() {
			_ = store.Set(KeyVolume, "loud")
			So(p.Volume().IsAbsent(), ShouldBeTrue)
		})

		Convey("Anything but \"true\" should read as false for loop", func() {
			_ = store.Set(KeyLoop, "yes")
			So(p.Loop().MustGet(), ShouldBeFalse)
		})

		Convey("Values should be stored as plain strings", func() {
			_ = p.SetPlayRate(2)
			v, ok, _ := store.Get(KeyPlayRate)
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, "2")
		})
	})

	Convey("Given a failing store", t, func() {
		p := New(brokenStore{})

		Convey("Reads should degrade to absent", func() {
			So(p.Volume().IsAbsent(), ShouldBeTrue)
		})

		Convey("Writes should report the error", func() {
			So(p.SetLoop(false), ShouldNotBeNil)
		})
	})
}

func TestFileStore(t *testing.T) {
	Convey("Given a file store", t, func() {
		path := "/prefs/test-preferences.json"
		store := NewFileStore(path)

		Convey("Entries should survive reopening the store", func() {
			So(store.Set(KeyVolume, "0.8"), ShouldBeNil)
			So(store.Set(KeyLoop, "false"), ShouldBeNil)

			reopened := NewFileStore(path)
			v, ok, err := reopened.Get(KeyVolume)
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, "0.8")

			v, ok, err = reopened.Get(KeyLoop)
			So(err, ShouldBeNil)
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, "false")
		})

		Convey("Missing keys should be reported as absent", func() {
			_, ok, err := store.Get("missing")
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
		})
	})
}
