package version

import (
	"context"
	"fmt"
	"time"

	"github.com/reelctl/reelctl/color"
	"github.com/reelctl/reelctl/constant"
	"github.com/reelctl/reelctl/icon"
	"github.com/reelctl/reelctl/key"
	"github.com/reelctl/reelctl/log"
	"github.com/reelctl/reelctl/style"
	"github.com/reelctl/reelctl/util"
	"github.com/spf13/viper"
)

const checkTimeout = 3 * time.Second

// Notify prints a notice when a newer release than the running one is available.
func Notify() {
	if !viper.GetBool(key.CliVersionCheck) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	erase := util.PrintErasable(fmt.Sprintf("%s Checking if new version is available...", icon.Get(icon.Waiting)))
	latest, err := Latest(ctx)
	erase()
	if err != nil {
		log.Debugf("version check: %v", err)
		return
	}

	if comp, err := Compare(latest, constant.Version); err != nil || comp <= 0 {
		return
	}

	fmt.Printf(`
%s New version is available %s %s
%s

`,
		style.Fg(color.Green)("▇▇▇"),
		style.Bold(latest),
		style.Faint(fmt.Sprintf("(You're on %s)", constant.Version)),
		style.Faint("https://github.com/"+constant.Repository+"/releases/tag/v"+latest),
	)
}
