package playback

import (
	"math"

	"github.com/reelctl/reelctl/util"
	"github.com/samber/lo"
)

// Rate is a selectable playback rate.
type Rate struct {
	Value float64
	Name  string
}

// Rates are the playback rates offered to users, slowest first.
var Rates = []Rate{
	{0.5, "0.5x"},
	{0.75, "0.75x"},
	{1.0, "1.0x"},
	{1.25, "1.25x"},
	{1.5, "1.5x"},
	{2.0, "2.0x"},
}

// RateName returns the preset name of rate, if it is one.
func RateName(rate float64) (string, bool) {
	r, ok := lo.Find(Rates, func(r Rate) bool {
		return math.Abs(r.Value-rate) < 1e-9
	})
	return r.Name, ok
}

// StepRate returns the preset delta steps away from the one closest to current, saturating at
// both ends.
func StepRate(current float64, delta int) Rate {
	closest := 0
	for i, r := range Rates {
		if math.Abs(r.Value-current) < math.Abs(Rates[closest].Value-current) {
			closest = i
		}
	}
	return Rates[util.Clamp(closest+delta, 0, len(Rates)-1)]
}
