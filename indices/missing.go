package indices

import (
	"math"
	"time"

	"github.com/thebaptiste/icclim/internal/runlength"
	"github.com/thebaptiste/icclim/timeseries"
)

// WMO completeness limits: a period is unusable with 11 or more missing
// steps, or 5 or more consecutive ones.
const (
	wmoTotalLimit       = 11
	wmoConsecutiveLimit = 5
)

// applyMissingMask voids result periods whose input data is too
// incomplete, per the configured policy. A step is missing when it is
// NaN or absent from the series entirely, measured against the period's
// nominal length; truncated edge periods therefore count as incomplete.
// Flags from all study variables combine with OR, and a result period
// with no input bucket at all is conservatively masked.
//
// Masking only runs when the frequency carries a date indexer; plain
// year and month resampling passes through unmasked, as does any
// group-by result, whose fused periods have no nominal length.
func applyMissingMask(out *timeseries.Series, in reduceInput, policy MissingPolicy) {
	if policy.Method == MissingSkip || in.freq.Indexer == nil || out.Attrs.GroupedBy != "" {
		return
	}

	flags := make(map[time.Time][]bool)
	for _, v := range in.vars {
		flagVariable(flags, v.Series, in, policy)
	}

	cells := out.Cells()
	masked := 0
	for i := 0; i < out.Len(); i++ {
		row, known := flags[out.Time(i)]
		for c := 0; c < cells; c++ {
			if !known || row[c] {
				if !math.IsNaN(out.Value(i, c)) {
					masked++
				}
				out.SetValue(i, c, math.NaN())
			}
		}
	}
	if masked > 0 {
		in.log.Debug("masked incomplete periods",
			"method", string(policy.Method),
			"values", masked,
		)
		if in.metrics != nil {
			in.metrics.MaskedValues.Add(float64(masked))
		}
	}
}

func flagVariable(flags map[time.Time][]bool, s *timeseries.Series, in reduceInput, policy MissingPolicy) {
	groups := in.freq.Buckets(s.Times())
	cells := s.Cells()

	nan := make([]bool, s.Len()*cells)
	for i := 0; i < s.Len(); i++ {
		for c := 0; c < cells; c++ {
			nan[i*cells+c] = math.IsNaN(s.Value(i, c))
		}
	}

	for _, g := range groups {
		expected := int(in.freq.PeriodEnd(g.Label).Sub(g.Label) / in.step)
		absent := expected - len(g.Indices)
		row := flags[g.Label]
		if row == nil {
			row = make([]bool, cells)
			flags[g.Label] = row
		}
		for c := 0; c < cells; c++ {
			valid := s.CountValid(g.Indices, c)
			missing := expected - valid
			var flagged bool
			switch policy.Method {
			case MissingAny:
				flagged = missing > 0
			case MissingPct:
				flagged = expected > 0 && float64(missing)/float64(expected) > policy.Tolerance
			case MissingAtLeastN:
				flagged = valid < policy.MinValid
			case MissingWMO:
				// Steps absent from the series cluster at period edges,
				// so they count as one consecutive block.
				run := runlength.LongestMissingRun(nan, cells, g.Indices, c)
				if absent > run {
					run = absent
				}
				flagged = missing >= wmoTotalLimit || run >= wmoConsecutiveLimit
			}
			row[c] = row[c] || flagged
		}
	}
}
