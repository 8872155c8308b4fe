package tui

import (
	"github.com/charmbracelet/bubbles/help"
	bubblesKey "github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/reelctl/reelctl/controls"
	"github.com/reelctl/reelctl/drag"
	"github.com/reelctl/reelctl/i18n"
	"github.com/reelctl/reelctl/playback"
	"github.com/reelctl/reelctl/quality"
	"github.com/reelctl/reelctl/sizing"
	"github.com/reelctl/reelctl/style"
	"github.com/reelctl/reelctl/toast"
	"github.com/reelctl/reelctl/util"
	"github.com/samber/mo"
)

var paddingStyle = lipgloss.NewStyle().Padding(1, 2)

// Rows around the video area: title, gap, box borders, gap, progress bar, status, gap, help.
const chromeRows = 9

const clockWidth = len(" 00:00 / 00:00")

type (
	updateMsg   playback.Update
	controlsMsg controls.State
	exitedMsg   struct{}
)

// statefulBubble holds the interface state and the components it is drawn with.
type statefulBubble struct {
	state  state
	keymap *statefulKeymap

	options *Options
	adapter *playback.Adapter
	printer i18n.Printer

	// components
	qualityC  list.Model
	progressC progress.Model
	helpC     help.Model
	toasts    *toast.Model

	events      chan tea.Msg
	unsubscribe []func()

	bar, screen *drag.Surface
	seekbar     *drag.Tracker
	barBounds   drag.Bounds
	preview     mo.Option[float64]

	controls  controls.State
	lastError error

	width, height int
	video         sizing.Size
}

func (b *statefulBubble) raiseError(err error) {
	b.lastError = err
	b.setState(errorState)
}

func (b *statefulBubble) setState(s state) {
	b.state = s
	b.keymap.setState(s)
}

// send hands a message to the program without blocking the caller. The view re-reads the
// snapshot on every frame, so a dropped update only delays a redraw.
func (b *statefulBubble) send(msg tea.Msg) {
	select {
	case b.events <- msg:
	default:
	}
}

func (b *statefulBubble) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		return <-b.events
	}
}

func (b *statefulBubble) waitForToast() tea.Cmd {
	if b.options.Notifier == nil {
		return nil
	}
	return func() tea.Msg {
		return <-b.options.Notifier.ch
	}
}

func (b *statefulBubble) waitForExit() tea.Cmd {
	if b.options.Exited == nil {
		return nil
	}
	return func() tea.Msg {
		<-b.options.Exited
		return exitedMsg{}
	}
}

// resize lays the screen out for a terminal of width x height cells.
func (b *statefulBubble) resize(width, height int) {
	x, y := paddingStyle.GetFrameSize()
	b.width = width - x
	b.height = height - y

	b.qualityC.SetSize(b.width, b.height)
	b.helpC.Width = b.width

	// Terminal cells are about twice as tall as they are wide.
	container := sizing.Size{
		Width:  float64(util.Max(b.width-2, 1)),
		Height: float64(util.Max(b.height-chromeRows, 1) * 2),
	}
	var intrinsic sizing.Size
	if b.options.Video != nil {
		intrinsic.Width, intrinsic.Height = b.options.Video.VideoSize()
	}
	fit := sizing.Fit(container, intrinsic)
	b.video = sizing.Size{Width: fit.Width, Height: fit.Height / 2}

	b.progressC.Width = util.Max(b.width-clockWidth, 10)

	left, top := paddingStyle.GetPaddingLeft(), paddingStyle.GetPaddingTop()
	b.barBounds = drag.Bounds{
		Left:   float64(left),
		Top:    float64(top + b.barRow()),
		Width:  float64(b.progressC.Width),
		Height: 1,
	}
}

func (b *statefulBubble) videoRows() int {
	return util.Max(int(b.video.Height), 1)
}

// barRow is the row of the progress bar within the content.
func (b *statefulBubble) barRow() int {
	return 2 + b.videoRows() + 2 + 1
}

func (b *statefulBubble) onSeekDrag(s drag.Session) {
	b.preview = mo.Some(drag.PercentX(s, b.barBounds) * b.adapter.Snapshot().Duration)
}

func (b *statefulBubble) onSeekEnd(s drag.Session) {
	b.preview = mo.None[float64]()
	b.adapter.Seek(drag.PercentX(s, b.barBounds) * b.adapter.Snapshot().Duration)
}

func (b *statefulBubble) refreshQualities() {
	m := b.options.Quality
	cfg := m.Config()
	current := m.Current()

	items := make([]list.Item, 0, len(cfg.List))
	selected := 0
	for i, e := range cfg.List {
		items = append(items, &qualityItem{entry: e, tag: b.printer.Language(), current: e.Key == current.Key})
		if e.Key == current.Key {
			selected = i
		}
	}

	b.qualityC.SetItems(items)
	b.qualityC.Select(selected)
}

func (b *statefulBubble) close() {
	for _, cancel := range b.unsubscribe {
		cancel()
	}
	b.unsubscribe = nil
	b.seekbar.Detach()
}

func newBubble(options *Options) *statefulBubble {
	cfg := options.Config
	bubble := &statefulBubble{
		keymap:  newStatefulKeymap(),
		options: options,
		adapter: options.Adapter,
		printer: i18n.For(quality.Language(cfg.Language)),
		events:  make(chan tea.Msg, 256),
		toasts:  toast.NewModel(0),
		bar:     drag.NewSurface(),
		screen:  drag.NewSurface(),
	}

	if options.Mask == nil {
		options.Mask = NewMask()
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = lipgloss.NewStyle().
		Border(lipgloss.ThickBorder(), false, false, false, true).
		BorderForeground(style.AccentColor).
		Foreground(style.AccentColor).
		Padding(0, 0, 0, 1)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedTitle

	bubble.qualityC = list.New([]list.Item{}, delegate, 0, 0)
	bubble.qualityC.KeyMap = bubble.keymap.forList()
	bubble.qualityC.AdditionalShortHelpKeys = func() []bubblesKey.Binding {
		return bubble.keymap.ShortHelp()
	}
	bubble.qualityC.Title = bubble.printer.Text(i18n.Quality)
	bubble.qualityC.Styles.Title = lipgloss.NewStyle().Foreground(style.Base).Background(toast.ThemeColor(cfg.Theme)).Padding(0, 1)
	bubble.qualityC.SetShowStatusBar(false)
	bubble.qualityC.SetFilteringEnabled(false)

	bubble.progressC = progress.New(
		progress.WithSolidFill(string(toast.ThemeColor(cfg.Theme))),
		progress.WithoutPercentage(),
	)
	bubble.helpC = help.New()

	bubble.seekbar = drag.NewTracker(bubble.bar, drag.Callbacks{
		OnDragStart: bubble.onSeekDrag,
		OnDrag:      bubble.onSeekDrag,
		OnDragEnd:   bubble.onSeekEnd,
	}, append(drag.FromConfig(cfg), drag.WithViewport(bubble.screen))...)
	bubble.seekbar.Attach()

	bubble.unsubscribe = append(bubble.unsubscribe, bubble.adapter.Subscribe(func(u playback.Update) {
		bubble.send(updateMsg(u))
	}))

	if v := options.Visibility; v != nil {
		bubble.controls = v.State()
		bubble.unsubscribe = append(bubble.unsubscribe, v.Subscribe(func(s controls.State) {
			bubble.send(controlsMsg(s))
		}))
	} else {
		bubble.controls.IsControl = true
	}

	if w, h, err := util.TerminalSize(); err == nil {
		bubble.resize(w, h)
	} else {
		bubble.resize(80, 24)
	}

	return bubble
}

// Init starts listening for player events.
func (b *statefulBubble) Init() tea.Cmd {
	return tea.Batch(b.waitForEvent(), b.waitForToast(), b.waitForExit())
}
