// Package cmd implements the command-line interface for reelctl.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/reelctl/reelctl/color"
	"github.com/reelctl/reelctl/constant"
	"github.com/reelctl/reelctl/icon"
	"github.com/reelctl/reelctl/key"
	"github.com/reelctl/reelctl/log"
	"github.com/reelctl/reelctl/style"
	"github.com/reelctl/reelctl/util"
	"github.com/reelctl/reelctl/version"
	"github.com/reelctl/reelctl/where"
	cc "github.com/ivanpirog/coloredcobra"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print the application version")

	rootCmd.PersistentFlags().StringP("icons", "I", "", "Set the icon variant (plain, emoji, nerd, ascii, kaomoji)")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("icons", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return icon.AvailableVariants(), cobra.ShellCompDirectiveDefault
	}))
	lo.Must0(viper.BindPFlag(key.IconsVariant, rootCmd.PersistentFlags().Lookup("icons")))

	rootCmd.PersistentFlags().StringP("language", "L", "", "Language of player messages (zh, en)")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("language", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"zh", "en"}, cobra.ShellCompDirectiveNoFileComp
	}))
	lo.Must0(viper.BindPFlag(key.PlayerLanguage, rootCmd.PersistentFlags().Lookup("language")))

	helpFunc := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		helpFunc(cmd, args)
		version.Notify()
	})

	// Sockets left behind by players that did not exit cleanly.
	go func() {
		_ = util.Delete(where.Temp())
	}()
}

// rootCmd is the entry point of the reelctl application.
var rootCmd = &cobra.Command{
	Use:   constant.Reelctl,
	Short: "A terminal front-end for mpv with quality switching and persistent playback preferences",
	Long: constant.AsciiArtLogo + "\n" +
		style.New().Italic(true).Foreground(color.HiRed).Render("    - A terminal front-end for mpv with quality switching and persistent playback preferences"),
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if lo.Must(cmd.Flags().GetBool("version")) {
			versionCmd.Run(versionCmd, args)
			return
		}

		if len(args) == 1 {
			playCmd.Run(playCmd, args)
			return
		}

		handleErr(cmd.Help())
	},
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	if viper.GetBool(key.CliColored) {
		cc.Init(&cc.Config{
			RootCmd:       rootCmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func handleErr(err error) {
	if err != nil {
		log.Error(err)
		_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", style.Fg(color.Red)(icon.Get(icon.Fail)), strings.Trim(err.Error(), " \n"))
		os.Exit(1)
	}
}
