package indices

import (
	"time"

	"github.com/thebaptiste/icclim/timeseries"
)

// percentDayCount returns the divisor that turns a per-period day count
// into a percentage of the period, or false when the frequency has no
// defined normalization. Years and months follow the calendar. The named
// seasons use fixed lengths, except that the February-containing winter
// seasons gain a day when that February sits in a leap year. MAM, JJA,
// SON and AMJJAS never span February 29, so their lengths are genuinely
// constant.
func percentDayCount(freq Frequency, label time.Time) (float64, bool) {
	switch freq.Name {
	case "year":
		return float64(timeseries.DaysInYear(label.Year())), true
	case "month":
		return float64(timeseries.DaysInMonth(label.Year(), label.Month())), true
	case "DJF":
		// Anchored at December; February falls in the next year.
		if timeseries.IsLeapYear(label.Year() + 1) {
			return 91, true
		}
		return 90, true
	case "MAM", "JJA":
		return 92, true
	case "SON":
		return 91, true
	case "ONDJFM":
		if timeseries.IsLeapYear(label.Year() + 1) {
			return 183, true
		}
		return 182, true
	case "AMJJAS":
		return 183, true
	default:
		return 0, false
	}
}
