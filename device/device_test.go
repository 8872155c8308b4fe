package device

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestIsTouch(t *testing.T) {
	Convey("IsTouch", t, func() {
		Convey("Mobile agents should be touch devices", func() {
			So(IsTouch("Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)"), ShouldBeTrue)
			So(IsTouch("Mozilla/5.0 (Linux; android 14; Pixel 8)"), ShouldBeTrue)
		})

		Convey("Desktop agents and empty agents should not", func() {
			So(IsTouch("Mozilla/5.0 (X11; Linux x86_64)"), ShouldBeFalse)
			So(IsTouch(""), ShouldBeFalse)
		})
	})

	Convey("UserAgent should follow the override variable", t, func() {
		t.Setenv(EnvUserAgent, "iPad")
		So(IsTouch(UserAgent()), ShouldBeTrue)
	})
}
