package indices

import (
	"fmt"
	"strings"
	"time"

	"github.com/thebaptiste/icclim/timeseries"
)

// GroupKind distinguishes how a frequency aggregates when a reducer asks
// for label grouping instead of resampling.
type GroupKind string

const (
	// GroupNone means plain resampling with no group-by label.
	GroupNone GroupKind = ""
	// GroupMonth fuses the same calendar month across years.
	GroupMonth GroupKind = "month"
	// GroupDayOfYear fuses the same day of year across years.
	GroupDayOfYear GroupKind = "dayofyear"
	// GroupSpan treats the whole indexed selection as one group. Season
	// frequencies group this way: their days belong together regardless
	// of year framing.
	GroupSpan GroupKind = "span"
)

// MonthDay pins a day inside the recurring year, e.g. {April, 15}.
type MonthDay struct {
	Month time.Month
	Day   int
}

func (md MonthDay) ordinal() int { return int(md.Month)*100 + md.Day }

// Indexer restricts which raw dates participate in a computation. Dates
// outside the indexer are dropped before any comparison or reduction.
// Either Months or the From/To pair is set, never both.
type Indexer struct {
	Months []time.Month
	From   MonthDay
	To     MonthDay
}

// Contains reports whether t falls inside the indexed part of the year.
func (ix *Indexer) Contains(t time.Time) bool {
	if len(ix.Months) > 0 {
		for _, m := range ix.Months {
			if t.Month() == m {
				return true
			}
		}
		return false
	}
	ord := MonthDay{t.Month(), t.Day()}.ordinal()
	from, to := ix.From.ordinal(), ix.To.ordinal()
	if from <= to {
		return ord >= from && ord <= to
	}
	// The span wraps the year end, e.g. Nov 15 to Feb 10.
	return ord >= from || ord <= to
}

// Frequency describes the target resampling of a computation: how raw
// time steps bucket into output periods, which dates participate at all,
// and how the frequency aggregates under label grouping. Output periods
// are labelled by their start and are right-open.
//
// Use the package presets (Yearly, Monthly, Daily, WinterDJF, ...) or the
// Season and BetweenDates constructors; the zero Frequency is invalid.
type Frequency struct {
	Name        string
	Description string
	Group       GroupKind
	Indexer     *Indexer

	key func(time.Time) (time.Time, bool)
	end func(time.Time) time.Time
}

func (f Frequency) valid() bool { return f.key != nil }

// Buckets groups a time index into this frequency's periods. Timestamps
// outside the indexer are excluded.
func (f Frequency) Buckets(times []time.Time) []timeseries.Group {
	return timeseries.GroupBy(times, f.key)
}

// PeriodEnd returns the exclusive end of the period starting at label.
func (f Frequency) PeriodEnd(label time.Time) time.Time {
	return f.end(label)
}

// groupByKey buckets timestamps by the frequency's group kind, fusing
// labels across years. Bucket labels project the key onto the year of the
// first timestamp: month groups label at that year's month starts,
// day-of-year groups at that year's matching dates, and span groups carry
// a single bucket labelled at the first timestamp.
func (f Frequency) groupByKey(times []time.Time) []timeseries.Group {
	if len(times) == 0 {
		return nil
	}
	firstYear := times[0].Year()
	inIndexer := func(t time.Time) bool {
		return f.Indexer == nil || f.Indexer.Contains(t)
	}
	switch f.Group {
	case GroupMonth:
		return timeseries.GroupBy(times, func(t time.Time) (time.Time, bool) {
			if !inIndexer(t) {
				return time.Time{}, false
			}
			return time.Date(firstYear, t.Month(), 1, 0, 0, 0, 0, time.UTC), true
		})
	case GroupDayOfYear:
		base := time.Date(firstYear, 1, 1, 0, 0, 0, 0, time.UTC)
		return timeseries.GroupBy(times, func(t time.Time) (time.Time, bool) {
			if !inIndexer(t) {
				return time.Time{}, false
			}
			return base.AddDate(0, 0, t.YearDay()-1), true
		})
	default:
		var label time.Time
		indices := make([]int, 0, len(times))
		for i, t := range times {
			if !inIndexer(t) {
				continue
			}
			if len(indices) == 0 {
				label = t
			}
			indices = append(indices, i)
		}
		if len(indices) == 0 {
			return nil
		}
		return []timeseries.Group{{Label: label, Indices: indices}}
	}
}

// Preset frequencies. The season presets resample annually, anchored at
// the season's first month, and exclude all other months via their
// indexer.
var (
	Yearly = Frequency{
		Name:        "year",
		Description: "year",
		key: func(t time.Time) (time.Time, bool) {
			return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, time.UTC), true
		},
		end: func(label time.Time) time.Time { return label.AddDate(1, 0, 0) },
	}

	Monthly = Frequency{
		Name:        "month",
		Description: "month",
		Group:       GroupMonth,
		key: func(t time.Time) (time.Time, bool) {
			return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC), true
		},
		end: func(label time.Time) time.Time { return label.AddDate(0, 1, 0) },
	}

	Daily = Frequency{
		Name:        "day",
		Description: "day",
		Group:       GroupDayOfYear,
		key: func(t time.Time) (time.Time, bool) {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		},
		end: func(label time.Time) time.Time { return label.AddDate(0, 0, 1) },
	}

	WinterDJF            = mustSeason("DJF", "winter", time.December, time.January, time.February)
	SpringMAM            = mustSeason("MAM", "spring", time.March, time.April, time.May)
	SummerJJA            = mustSeason("JJA", "summer", time.June, time.July, time.August)
	AutumnSON            = mustSeason("SON", "autumn", time.September, time.October, time.November)
	ExtendedWinterONDJFM = mustSeason("ONDJFM", "extended winter", time.October, time.November, time.December, time.January, time.February, time.March)
	ExtendedSummerAMJJAS = mustSeason("AMJJAS", "extended summer", time.April, time.May, time.June, time.July, time.August, time.September)
)

// Season builds a custom season frequency from consecutive months, given
// in season order. The season may wrap the year end (e.g. November,
// December, January). Each occurrence resamples into one period anchored
// at the first month; months outside the season are excluded.
func Season(months ...time.Month) (Frequency, error) {
	if len(months) == 0 || len(months) > 12 {
		return Frequency{}, newConfigError("season needs between 1 and 12 months, got %d", len(months))
	}
	for _, m := range months {
		if m < time.January || m > time.December {
			return Frequency{}, newConfigError("invalid month %d in season", m)
		}
	}
	for i := 1; i < len(months); i++ {
		next := months[i-1]%12 + 1
		if months[i] != next {
			return Frequency{}, newConfigError("season months must be consecutive, got %s after %s", months[i], months[i-1])
		}
	}

	anchor := months[0]
	name := ""
	for _, m := range months {
		name += m.String()[:1]
	}

	member := make(map[time.Month]bool, len(months))
	for _, m := range months {
		member[m] = true
	}
	span := len(months)

	return Frequency{
		Name:        name,
		Description: name + " season",
		Group:       GroupSpan,
		Indexer:     &Indexer{Months: months},
		key: func(t time.Time) (time.Time, bool) {
			if !member[t.Month()] {
				return time.Time{}, false
			}
			year := t.Year()
			if t.Month() < anchor {
				year--
			}
			return time.Date(year, anchor, 1, 0, 0, 0, 0, time.UTC), true
		},
		end: func(label time.Time) time.Time { return label.AddDate(0, span, 0) },
	}, nil
}

func mustSeason(name, description string, months ...time.Month) Frequency {
	f, err := Season(months...)
	if err != nil {
		panic(err)
	}
	f.Name = name
	f.Description = description
	return f
}

// BetweenDates builds a season frequency bounded by recurring dates,
// inclusive on both ends, wrapping the year end when to precedes from.
func BetweenDates(from, to MonthDay) (Frequency, error) {
	for _, md := range []MonthDay{from, to} {
		if md.Month < time.January || md.Month > time.December || md.Day < 1 || md.Day > 31 {
			return Frequency{}, newConfigError("invalid season bound %s %d", md.Month, md.Day)
		}
	}
	wraps := to.ordinal() < from.ordinal()
	indexer := &Indexer{From: from, To: to}

	return Frequency{
		Name:        fmt.Sprintf("%02d-%02d_to_%02d-%02d", int(from.Month), from.Day, int(to.Month), to.Day),
		Description: fmt.Sprintf("%s %d to %s %d season", from.Month, from.Day, to.Month, to.Day),
		Group:       GroupSpan,
		Indexer:     indexer,
		key: func(t time.Time) (time.Time, bool) {
			if !indexer.Contains(t) {
				return time.Time{}, false
			}
			year := t.Year()
			if wraps && (MonthDay{t.Month(), t.Day()}).ordinal() < from.ordinal() {
				year--
			}
			return time.Date(year, from.Month, from.Day, 0, 0, 0, 0, time.UTC), true
		},
		end: func(label time.Time) time.Time {
			year := label.Year()
			if wraps {
				year++
			}
			return time.Date(year, to.Month, to.Day, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
		},
	}, nil
}

// ParseFrequency resolves a frequency name: "year"/"yearly"/"YS",
// "month"/"monthly"/"MS", "day"/"daily"/"D", or one of the season presets
// by name ("DJF", "ONDJFM", ...).
func ParseFrequency(name string) (Frequency, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "year", "yearly", "annual", "ys":
		return Yearly, nil
	case "month", "monthly", "ms":
		return Monthly, nil
	case "day", "daily", "d":
		return Daily, nil
	case "djf":
		return WinterDJF, nil
	case "mam":
		return SpringMAM, nil
	case "jja":
		return SummerJJA, nil
	case "son":
		return AutumnSON, nil
	case "ondjfm":
		return ExtendedWinterONDJFM, nil
	case "amjjas":
		return ExtendedSummerAMJJAS, nil
	default:
		return Frequency{}, newConfigError("unknown frequency %q", name)
	}
}
