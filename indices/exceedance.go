package indices

import (
	"log/slog"
	"time"

	"github.com/thebaptiste/icclim/observability"
	"github.com/thebaptiste/icclim/percentiles"
	"github.com/thebaptiste/icclim/timeseries"
)

// Mask is the boolean exceedance of one variable against its threshold,
// laid out like the variable's series: time-major, Steps*Cells bits.
// Missing values never exceed.
type Mask struct {
	Steps, Cells int
	Bits         []bool
	// Bootstrapped is set when in-base years were compared against
	// leave-one-year-out climatologies.
	Bootstrapped bool
}

// At reports the bit for step i, cell c.
func (m *Mask) At(i, c int) bool { return m.Bits[i*m.Cells+c] }

// CountTrue counts set bits for cell c among the given step indices.
func (m *Mask) CountTrue(indices []int, c int) int {
	n := 0
	for _, i := range indices {
		if m.Bits[i*m.Cells+c] {
			n++
		}
	}
	return n
}

// buildMask compares a variable against its threshold step by step.
//
// Day-of-year percentile thresholds get the in-base bootstrap: when the
// study period and the reference period share more than one year but the
// study period also extends beyond the reference, every shared year is
// compared against a climatology rebuilt without that year. This removes
// the bias of comparing a year against statistics it contributed to.
// Rebuilds are cached per year.
func buildMask(v *ClimateVariable, log *slog.Logger, metrics *observability.Metrics) (*Mask, error) {
	if v.Threshold == nil {
		return nil, newConfigError("variable %q has no threshold to compare against", v.Name)
	}
	s := v.Series
	th := v.Threshold
	steps, cells := s.Len(), s.Cells()
	mask := &Mask{Steps: steps, Cells: cells, Bits: make([]bool, steps*cells)}

	var (
		overlap map[int]bool
		rebuilt map[int]*percentiles.DoyQuantiles
	)
	if th.Doy != nil {
		overlap = bootstrapYears(s.Years(), th.Doy.Epoch)
		if overlap != nil {
			mask.Bootstrapped = true
			rebuilt = make(map[int]*percentiles.DoyQuantiles, len(overlap))
			log.Info("bootstrapping percentile threshold",
				"variable", v.Name,
				"overlap_years", len(overlap),
			)
		}
	}

	times := s.Times()
	for i, tm := range times {
		q := th.Doy
		if overlap != nil && overlap[tm.Year()] {
			q = rebuiltFor(th.Doy, tm.Year(), rebuilt, metrics)
		}
		for c := 0; c < cells; c++ {
			var (
				thv float64
				ok  bool
			)
			if q != nil {
				thv, ok = doyLookup(q, tm, c)
			} else {
				thv, ok = th.valueFor(tm, c)
			}
			if !ok {
				continue
			}
			val := s.Value(i, c)
			if th.HasMinValue() && val < th.MinValue {
				continue
			}
			if th.Operator.Compare(val, thv) {
				mask.Bits[i*cells+c] = true
			}
		}
	}
	return mask, nil
}

// bootstrapYears returns the study years that fall inside the reference
// epoch, or nil when the bootstrap does not apply. The bootstrap needs
// at least two shared years to rebuild against, and at least one study
// year outside the reference to anchor the unbiased comparison.
func bootstrapYears(studyYears []int, epoch timeseries.Epoch) map[int]bool {
	if epoch.IsZero() {
		return nil
	}
	shared := make(map[int]bool)
	for _, y := range studyYears {
		if y >= epoch.Start.Year() && y <= epoch.End.Year() {
			shared[y] = true
		}
	}
	if len(shared) <= 1 || len(shared) >= len(studyYears) {
		return nil
	}
	return shared
}

func rebuiltFor(base *percentiles.DoyQuantiles, year int, cache map[int]*percentiles.DoyQuantiles, metrics *observability.Metrics) *percentiles.DoyQuantiles {
	if q, ok := cache[year]; ok {
		return q
	}
	q := base.ExcludeYear(year)
	cache[year] = q
	if metrics != nil {
		metrics.BootstrapRebuilds.Inc()
	}
	return q
}

// doyLookup resolves a day-of-year threshold, falling back from day 366
// to day 365 when the climatology carries no leap-day sample.
func doyLookup(q *percentiles.DoyQuantiles, tm time.Time, c int) (float64, bool) {
	doy := tm.YearDay()
	if v, ok := q.Value(doy, c); ok {
		return v, true
	}
	if doy == 366 {
		return q.Value(365, c)
	}
	return 0, false
}
