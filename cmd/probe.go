package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/reelctl/reelctl/color"
	"github.com/reelctl/reelctl/config"
	"github.com/reelctl/reelctl/icon"
	"github.com/reelctl/reelctl/quality"
	"github.com/reelctl/reelctl/stream"
	"github.com/reelctl/reelctl/style"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(probeCmd)

	probeCmd.Flags().BoolP("json", "j", false, "Print the renditions as a quality list usable with play --qualities")
	probeCmd.Flags().Bool("offline", false, "Classify by the url alone, without requests to the origin")
	probeCmd.Flags().Duration("timeout", 10*time.Second, "Give up on the origin after this long")

	probeCmd.SetOut(os.Stdout)
}

var probeCmd = &cobra.Command{
	Use:   "probe [url]",
	Short: "Detect whether a url is an HLS stream and list its renditions",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var (
			url     = args[0]
			asJson  = lo.Must(cmd.Flags().GetBool("json"))
			offline = lo.Must(cmd.Flags().GetBool("offline"))
			timeout = lo.Must(cmd.Flags().GetDuration("timeout"))
		)

		cfg := config.Load()
		override, err := stream.ParseFormat(cfg.VideoType)
		handleErr(err)

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		detector := &stream.Detector{CrossOrigin: !offline, Override: override}
		format := detector.Classify(ctx, url)

		var variants []stream.Variant
		if format == stream.HLS && !offline {
			variants, err = stream.NewHLSEngine().ReadVariants(ctx, url)
			handleErr(err)
		}

		if asJson {
			list := quality.FromVariants(variants)
			if len(list.List) == 0 {
				list = quality.Single(url)
			}

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			handleErr(encoder.Encode(list))
			return
		}

		cmd.Printf("%s %s\n", style.Fg(color.Green)(icon.Get(icon.Success)), style.Bold(format.String()))
		if len(variants) == 0 {
			return
		}

		cmd.Println()
		for _, v := range variants {
			cmd.Println(renderVariant(v))
		}
	},
}

var variantStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder(), false, false, false, true).
	BorderForeground(color.Purple).
	PaddingLeft(1)

func renderVariant(v stream.Variant) string {
	header := fmt.Sprintf("%s  %s",
		style.Fg(color.Yellow)(lo.Ternary(v.Resolution != "", v.Resolution, "audio")),
		style.Faint(fmt.Sprintf("%.2f Mbps", float64(v.Bandwidth)/1e6)),
	)

	lines := []string{header, v.URI}
	if v.Codecs != "" {
		lines = append(lines, style.Faint(v.Codecs))
	}

	return variantStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
