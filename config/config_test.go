package config

import (
	"testing"
	"time"

	"github.com/reelctl/reelctl/filesystem"
	"github.com/reelctl/reelctl/key"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/viper"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestSetup(t *testing.T) {
	Convey("Config Setup", t, func() {
		Convey("Should initialize without error", func() {
			err := Setup()
			So(err, ShouldBeNil)
		})

		Convey("Should have default values populated", func() {
			_ = Setup()
			for name := range Default {
				So(viper.Get(name), ShouldNotBeNil)
			}
		})

		Convey("EnvKeyReplacer should convert dots to underscores", func() {
			result := EnvKeyReplacer.Replace("player.toast.enable")
			So(result, ShouldEqual, "player_toast_enable")
		})
	})
}

func TestOptions(t *testing.T) {
	Convey("Given the default configuration", t, func() {
		So(Setup(), ShouldBeNil)

		Convey("Load should expose the player defaults", func() {
			o := Load()
			So(o.PollInterval, ShouldEqual, 10*time.Millisecond)
			So(o.HideTime, ShouldEqual, 2*time.Second)
			So(o.ToastEnable, ShouldBeTrue)
			So(o.Validate(), ShouldBeNil)
		})

		Convey("An unknown enumerated value should fail validation", func() {
			viper.Set(key.PlayerToastPosition, "middle")
			defer viper.Set(key.PlayerToastPosition, Default[key.PlayerToastPosition].Value)

			err := Load().Validate()
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, key.PlayerToastPosition)
		})

		Convey("A non-positive poll interval should fail validation", func() {
			o := Load()
			o.PollInterval = 0
			So(o.Validate(), ShouldNotBeNil)
		})
	})
}
