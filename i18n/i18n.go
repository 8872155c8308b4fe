// Package i18n holds the user-facing phrases of the player in every supported language.
package i18n

import (
	"github.com/reelctl/reelctl/log"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Key names a phrase.
type Key string

const (
	Multiple           Key = "multiple"
	Screenshot         Key = "screenshot"
	OpenPicture        Key = "openPicture"
	ClosePicture       Key = "closePicture"
	MultipleSwitch     Key = "multipleSwitch"
	QualitySwitch      Key = "qualitySwitch"
	Light              Key = "light"
	Loop               Key = "loop"
	Replay             Key = "replay"
	Error              Key = "error"
	Volume             Key = "volume"
	Quality            Key = "quality"
	ScreenshotSaved    Key = "screenshotSaved"
	PlaybackFailed     Key = "playbackFailed"
	UnsupportedCommand Key = "unsupportedCommand"
)

// Supported lists the languages phrases exist for. The first one is the fallback.
var Supported = []language.Tag{language.English, language.Chinese}

var matcher = language.NewMatcher(Supported)

var phrases = map[language.Tag]map[Key]string{
	language.English: {
		Multiple:           "Multiple",
		Screenshot:         "Screenshot",
		OpenPicture:        "Enable Picture-in-Picture",
		ClosePicture:       "Disable Picture-in-Picture",
		MultipleSwitch:     "The playback multiple has been switched to",
		QualitySwitch:      "Resolution has been switched to",
		Light:              "Dark",
		Loop:               "Loop",
		Replay:             "Replay",
		Error:              "Error",
		Volume:             "Volume",
		Quality:            "Quality",
		ScreenshotSaved:    "Screenshot saved to",
		PlaybackFailed:     "Playback failed",
		UnsupportedCommand: "Not supported by this player",
	},
	language.Chinese: {
		Multiple:           "倍数",
		Screenshot:         "截图",
		OpenPicture:        "开启画中画",
		ClosePicture:       "关闭画中画",
		MultipleSwitch:     "播放倍数已切换到",
		QualitySwitch:      "清晰度已切换",
		Light:              "关灯",
		Loop:               "循环",
		Replay:             "重播",
		Error:              "错误",
		Volume:             "音量",
		Quality:            "清晰度",
		ScreenshotSaved:    "截图已保存到",
		PlaybackFailed:     "播放失败",
		UnsupportedCommand: "当前播放器不支持该操作",
	},
}

var builder = func() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(Supported[0]))
	for tag, keys := range phrases {
		for k, msg := range keys {
			if err := b.SetString(tag, string(k), msg); err != nil {
				log.Warnf("register phrase %s/%s: %v", tag, k, err)
			}
		}
	}
	return b
}()

// Match returns the supported language closest to tag.
func Match(tag language.Tag) language.Tag {
	_, i, _ := matcher.Match(tag)
	return Supported[i]
}

// Parse returns the supported language closest to the BCP 47 name s, the fallback when s
// does not parse.
func Parse(s string) language.Tag {
	tag, err := language.Parse(s)
	if err != nil {
		return Supported[0]
	}
	return Match(tag)
}

// Printer formats phrases in one language.
type Printer struct {
	tag language.Tag
	p   *message.Printer
}

// For returns the printer of the supported language closest to tag.
func For(tag language.Tag) Printer {
	tag = Match(tag)
	return Printer{tag: tag, p: message.NewPrinter(tag, message.Catalog(builder))}
}

// Language returns the language phrases are printed in.
func (p Printer) Language() language.Tag {
	return p.tag
}

// Text returns the phrase named k.
func (p Printer) Text(k Key) string {
	return p.p.Sprintf(string(k))
}
