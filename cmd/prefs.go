package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/reelctl/reelctl/color"
	"github.com/reelctl/reelctl/filesystem"
	"github.com/reelctl/reelctl/icon"
	"github.com/reelctl/reelctl/prefs"
	"github.com/reelctl/reelctl/style"
	"github.com/reelctl/reelctl/where"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(prefsCmd)
	prefsCmd.Flags().BoolP("json", "j", false, "Format the output as a JSON string")
	prefsCmd.SetOut(os.Stdout)
}

// prefsCmd shows the playback preferences remembered between sessions.
var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Show the playback preferences remembered between sessions",
	Run: func(cmd *cobra.Command, args []string) {
		p := prefs.New(prefs.NewFileStore(where.Preferences()))

		entries := []lo.Tuple2[string, mo.Option[string]]{
			{A: prefs.KeyVolume, B: format(p.Volume(), func(v float64) string { return fmt.Sprintf("%d%%", int(v*100+0.5)) })},
			{A: prefs.KeyLoop, B: format(p.Loop(), strconv.FormatBool)},
			{A: prefs.KeyPlayRate, B: format(p.PlayRate(), func(r float64) string { return strconv.FormatFloat(r, 'f', -1, 64) + "x" })},
			{A: prefs.KeyDarkMask, B: p.DarkMask()},
		}

		if lo.Must(cmd.Flags().GetBool("json")) {
			out := make(map[string]*string, len(entries))
			for _, e := range entries {
				out[e.A] = e.B.ToPointer()
			}
			handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(out))
			return
		}

		for _, e := range entries {
			value := style.Faint("unset")
			if v, ok := e.B.Get(); ok {
				value = style.Fg(color.Yellow)(v)
			}
			cmd.Printf("%s %s\n", style.Fg(color.Purple)(e.A), value)
		}
	},
}

func init() {
	prefsCmd.AddCommand(prefsResetCmd)
}

var prefsResetCmd = &cobra.Command{
	Use:     "reset",
	Short:   "Forget every remembered preference",
	Aliases: []string{"clear"},
	Run: func(cmd *cobra.Command, args []string) {
		err := filesystem.API().Remove(where.Preferences())
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			handleErr(err)
		}

		fmt.Printf("%s preferences reset\n", style.Fg(color.Green)(icon.Get(icon.Success)))
	},
}

func format[T any](o mo.Option[T], f func(T) string) mo.Option[string] {
	if v, ok := o.Get(); ok {
		return mo.Some(f(v))
	}
	return mo.None[string]()
}
