package cmd

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/reelctl/reelctl/config"
	"github.com/reelctl/reelctl/controls"
	"github.com/reelctl/reelctl/history"
	"github.com/reelctl/reelctl/i18n"
	"github.com/reelctl/reelctl/key"
	"github.com/reelctl/reelctl/log"
	"github.com/reelctl/reelctl/media"
	"github.com/reelctl/reelctl/playback"
	"github.com/reelctl/reelctl/player"
	"github.com/reelctl/reelctl/prefs"
	"github.com/reelctl/reelctl/quality"
	"github.com/reelctl/reelctl/sizing"
	"github.com/reelctl/reelctl/tui"
	"github.com/reelctl/reelctl/util"
	"github.com/reelctl/reelctl/where"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/text/language"
)

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().StringP("qualities", "f", "", "Read the renditions to switch between from a JSON, TOML or YAML file")
	playCmd.Flags().StringP("quality", "q", "", "Start with the rendition whose name best matches")
	playCmd.Flags().BoolP("choose", "c", false, "Choose the starting rendition interactively")
	playCmd.Flags().BoolP("continue", "C", false, "Resume where playback last stopped, or the most recent source when none is given")
	playCmd.MarkFlagsMutuallyExclusive("quality", "choose")

	playCmd.Flags().StringP("title", "t", "", "Title shown in the window and above the progress bar")
	playCmd.Flags().StringToStringP("header", "H", map[string]string{}, "Extra HTTP header sent with media requests")
	playCmd.Flags().String("mpv", "mpv", "Path to the mpv binary")
	playCmd.Flags().String("socket", "", "Control an mpv already listening on this IPC socket instead of starting one")
}

var playCmd = &cobra.Command{
	Use:   "play [url]",
	Short: "Play a video, switching between its renditions from the terminal",
	Example: `  reelctl play https://cdn.example.com/movie.m3u8
  reelctl play -f qualities.toml --choose
  reelctl play --continue`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		handleErr(play(cmd, args))
	},
}

func play(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}
	tag := quality.Language(cfg.Language)

	record, resume, err := resolveSource(cmd, args)
	if err != nil {
		return err
	}

	qualities, err := loadQualities(record)
	if err != nil {
		return err
	}

	var resumeAt float64
	if resume {
		if previous, ok, err := history.Find(record.Source); err != nil {
			log.Warnf("read history: %v", err)
		} else if ok {
			resumeAt = previous.Position
			if _, ok := qualities.Lookup(previous.Quality); ok {
				qualities.CurrentKey = previous.Quality
			}
			if record.Title == "" {
				record.Title = previous.Title
			}
		}
	}

	if name := lo.Must(cmd.Flags().GetString("quality")); name != "" {
		k, err := matchQuality(qualities, name, tag)
		if err != nil {
			return err
		}
		qualities.CurrentKey = k
	}

	if lo.Must(cmd.Flags().GetBool("choose")) && len(qualities.List) > 1 {
		k, err := chooseQuality(qualities, tag)
		if err != nil {
			return err
		}
		qualities.CurrentKey = k
	}

	current, _ := qualities.Current()
	if title := lo.Must(cmd.Flags().GetString("title")); title != "" {
		record.Title = title
	}

	el, err := startPlayer(cmd, lo.Ternary(record.Title != "", record.Title, path.Base(current.URL)))
	if err != nil {
		return err
	}
	defer func() {
		if err := el.Close(); err != nil {
			log.Warnf("close player: %v", err)
		}
	}()

	mask := tui.NewMask()
	adapter := playback.New(append(
		playback.FromConfig(cfg),
		playback.WithPreferences(prefs.New(prefs.NewFileStore(where.Preferences()))),
		playback.WithMask(mask),
	)...)
	defer adapter.Detach()

	visibility := controls.NewVisibility(controls.FromConfig(cfg)...)
	defer visibility.Stop()
	defer visibility.Bind(adapter)()

	notifier := tui.NewNotifier()
	manager, err := quality.NewManager(adapter, qualities, append(
		quality.FromConfig(cfg),
		quality.WithControls(visibility),
		quality.WithNotifier(notifier),
	)...)
	if err != nil {
		return err
	}
	defer manager.Close()

	defer fitWindow(el, adapter, cfg)()
	if resumeAt > 0 {
		defer resumeOnce(adapter, resumeAt)()
	}

	if err := adapter.Attach(el, current.URL); err != nil {
		return err
	}
	if viper.GetBool(key.PlayerAutoplay) {
		adapter.Play()
	}

	err = tui.Run(&tui.Options{
		Title:      record.Title,
		Adapter:    adapter,
		Visibility: visibility,
		Quality:    manager,
		Video:      el,
		Mask:       mask,
		Notifier:   notifier,
		Exited:     el.Wait(),
		Config:     cfg,
	})

	if viper.GetBool(key.HistorySave) {
		snap := adapter.Snapshot()
		record.Quality = manager.Current().Key
		record.Position = snap.CurrentTime
		record.Duration = snap.Duration
		record.PlayedAt = time.Now()
		if err := history.Save(record); err != nil {
			log.Warnf("save history: %v", err)
		}
	}

	return err
}

// resolveSource returns what to play: the --qualities file, the url argument, or an entry of the
// history. resume is set when the stored position should be restored.
func resolveSource(cmd *cobra.Command, args []string) (record *history.Record, resume bool, err error) {
	file := lo.Must(cmd.Flags().GetString("qualities"))
	resume = lo.Must(cmd.Flags().GetBool("continue"))

	switch {
	case file != "" && len(args) > 0:
		return nil, false, errors.New("either a url or --qualities must be given, not both")
	case file != "":
		abs, err := filepath.Abs(file)
		if err != nil {
			return nil, false, err
		}
		return &history.Record{Source: abs, FromFile: true}, resume, nil
	case len(args) > 0:
		return &history.Record{Source: args[0]}, resume, nil
	}

	recent, err := history.Recent()
	if err != nil {
		return nil, false, err
	}
	if len(recent) == 0 {
		return nil, false, errors.New("nothing to play: pass a url or --qualities")
	}
	if resume {
		return recent[0], true, nil
	}

	var index int
	prompt := &survey.Select{
		Message: "Continue",
		Options: lo.Map(recent, func(r *history.Record, _ int) string { return r.String() }),
	}
	if err := survey.AskOne(prompt, &index); err != nil {
		return nil, false, err
	}
	return recent[index], true, nil
}

func loadQualities(record *history.Record) (quality.Config, error) {
	if record.FromFile {
		return quality.Load(record.Source)
	}
	return quality.Single(record.Source), nil
}

// matchQuality finds the entry whose key equals name or whose display name is the closest fuzzy match.
func matchQuality(c quality.Config, name string, tag language.Tag) (int, error) {
	if k, err := strconv.Atoi(name); err == nil {
		if _, ok := c.Lookup(k); ok {
			return k, nil
		}
	}

	names := c.Names(tag)
	ranks := fuzzy.RankFindNormalizedFold(name, names)
	if len(ranks) == 0 {
		return 0, fmt.Errorf("no quality matches %q, available: %v", name, names)
	}

	sort.Sort(ranks)
	return c.List[ranks[0].OriginalIndex].Key, nil
}

func chooseQuality(c quality.Config, tag language.Tag) (int, error) {
	names := c.Names(tag)
	current, _ := c.Current()

	var index int
	prompt := &survey.Select{
		Message: i18n.For(tag).Text(i18n.Quality),
		Options: names,
		Default: quality.DisplayName(current, tag),
	}
	if err := survey.AskOne(prompt, &index); err != nil {
		return 0, err
	}

	return c.List[index].Key, nil
}

func startPlayer(cmd *cobra.Command, title string) (*player.MPV, error) {
	opts := []player.Option{
		player.WithBinary(lo.Must(cmd.Flags().GetString("mpv"))),
		player.WithTitle(title),
		player.WithHeaders(lo.Must(cmd.Flags().GetStringToString("header"))),
	}

	if socket := lo.Must(cmd.Flags().GetString("socket")); socket != "" {
		return player.Dial(socket, opts...)
	}

	CheckDependencies(lo.Must(cmd.Flags().GetString("mpv")))
	return player.Start(opts...)
}

// onMetadata calls fn, off the adapter's observer, whenever a source reports its metadata.
func onMetadata(adapter *playback.Adapter, fn func()) (cancel func()) {
	loaded := make(chan struct{}, 1)
	unsubscribe := adapter.Subscribe(func(u playback.Update) {
		if u.Signal != media.LoadedMetadata {
			return
		}
		select {
		case loaded <- struct{}{}:
		default:
		}
	})

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-loaded:
				fn()
			}
		}
	}()

	return func() {
		unsubscribe()
		close(done)
	}
}

// resumeOnce seeks to at once the first source is loaded.
func resumeOnce(adapter *playback.Adapter, at float64) (cancel func()) {
	var once sync.Once
	return onMetadata(adapter, func() {
		once.Do(func() {
			log.Infof("resuming at %s", util.FormatClock(at))
			adapter.Seek(at)
		})
	})
}

// fitWindow resizes the player window to the configured geometry whenever a source reports
// its metadata. Without a configured width or height the window keeps the size mpv picks.
func fitWindow(el *player.MPV, adapter *playback.Adapter, cfg config.Options) (cancel func()) {
	geometry, err := sizing.FromConfig(cfg)
	if err != nil {
		log.Warnf("window geometry: %v", err)
		return func() {}
	}
	if geometry.Width.IsAbsent() && geometry.Height.IsAbsent() {
		return func() {}
	}

	var mobile bool
	if vp, err := sizing.TerminalViewport(); err == nil {
		mobile = vp.Mobile
	}

	return onMetadata(adapter, func() {
		if err := fitTo(el, geometry, mobile); err != nil {
			log.Warnf("resize window: %v", err)
		}
	})
}

type window interface {
	VideoSize() (width, height float64)
	DisplaySize() (width, height float64, err error)
	Resize(width, height float64) error
}

// fitTo sizes win for its current video. The display the window is on bounds it on mobile;
// the terminal is no measure of a separate window.
func fitTo(win window, geometry sizing.Config, mobile bool) error {
	viewport := sizing.Viewport{Mobile: mobile}
	if w, h, err := win.DisplaySize(); err == nil {
		viewport.Width, viewport.Height = w, h
	} else {
		log.Debugf("display size: %v", err)
	}

	w, h := win.VideoSize()
	size := sizing.ComputeSize(w, h, geometry, viewport)
	return win.Resize(size.Width, size.Height)
}
