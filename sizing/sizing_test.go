package sizing

import (
	"testing"

	"github.com/reelctl/reelctl/config"
	"github.com/samber/mo"
	. "github.com/smartystreets/goconvey/convey"
)

var desktop = Viewport{Width: 1920, Height: 1080}

func TestComputeSize(t *testing.T) {
	Convey("Without configuration the intrinsic size should be used", t, func() {
		So(ComputeSize(1280, 720, Config{}, desktop), ShouldResemble, Size{1280, 720})
	})

	Convey("Both configured dimensions should win even when distorting", t, func() {
		cfg := Config{Width: mo.Some(400.0), Height: mo.Some(400.0), Mode: WidthFix}
		So(ComputeSize(1280, 720, cfg, desktop), ShouldResemble, Size{400, 400})
	})

	Convey("A single configured dimension without a mode should keep the other intrinsic", t, func() {
		So(ComputeSize(1280, 720, Config{Width: mo.Some(640.0)}, desktop), ShouldResemble, Size{640, 720})
	})

	Convey("widthFix should derive the height from the aspect", t, func() {
		So(ComputeSize(1280, 720, Config{Width: mo.Some(640.0), Mode: WidthFix}, desktop), ShouldResemble, Size{640, 360})
	})

	Convey("heightFix should derive the width from the aspect", t, func() {
		So(ComputeSize(1280, 720, Config{Height: mo.Some(360.0), Mode: HeightFix}, desktop), ShouldResemble, Size{640, 360})
		So(ComputeSize(1280, 720, Config{Mode: HeightFix}, desktop), ShouldResemble, Size{1280, 720})
	})

	Convey("A fixed mode should leave unknown aspects alone", t, func() {
		So(ComputeSize(0, 0, Config{Width: mo.Some(640.0), Mode: WidthFix}, desktop), ShouldResemble, Size{640, 0})
	})

	Convey("Mobile viewports should scale the result down keeping its aspect", t, func() {
		phone := Viewport{Width: 400, Height: 800, Mobile: true}
		So(ComputeSize(1280, 720, Config{}, phone), ShouldResemble, Size{400, 225})

		Convey("And sizes that fit should be kept", func() {
			So(ComputeSize(320, 180, Config{}, phone), ShouldResemble, Size{320, 180})
		})

		Convey("And the tighter dimension should decide the scale", func() {
			landscape := Viewport{Width: 800, Height: 300, Mobile: true}
			So(ComputeSize(800, 600, Config{}, landscape), ShouldResemble, Size{400, 300})
		})
	})

	Convey("Desktop viewports should never clamp", t, func() {
		So(ComputeSize(4000, 2000, Config{}, desktop), ShouldResemble, Size{4000, 2000})
	})
}

func TestFit(t *testing.T) {
	Convey("A wider container should get bars on the sides", t, func() {
		s := Fit(Size{1000, 400}, Size{1280, 720})
		So(s.Width, ShouldAlmostEqual, 711.111, 0.001)
		So(s.Height, ShouldEqual, 400)
	})

	Convey("A taller container should get bars above and below", t, func() {
		So(Fit(Size{640, 640}, Size{1280, 720}), ShouldResemble, Size{640, 360})
	})

	Convey("Unknown sizes should fill the container", t, func() {
		So(Fit(Size{640, 480}, Size{}), ShouldResemble, Size{640, 480})
	})
}

func TestFromConfig(t *testing.T) {
	Convey("Settings should map onto a geometry", t, func() {
		cfg, err := FromConfig(config.Options{Width: 800, SizeMode: "heightFix"})
		So(err, ShouldBeNil)
		So(cfg.Width, ShouldResemble, mo.Some(800.0))
		So(cfg.Height.IsAbsent(), ShouldBeTrue)
		So(cfg.Mode, ShouldEqual, HeightFix)
		So(cfg.Mode.String(), ShouldEqual, "heightFix")
	})

	Convey("Unknown modes should be rejected", t, func() {
		_, err := FromConfig(config.Options{SizeMode: "stretch"})
		So(err, ShouldNotBeNil)
	})
}
