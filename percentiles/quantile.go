// Package percentiles estimates the percentile thresholds the indicator
// engine compares against: day-of-year climatologies built from a
// reference period with a centered window, whole-period percentiles, and
// the leave-one-year-out rebuilds behind bootstrap correction.
package percentiles

import (
	"fmt"
	"math"
	"sort"

	"github.com/thebaptiste/icclim/timeseries"
)

// Interpolation selects the quantile estimator.
type Interpolation string

const (
	// InterpMedianUnbiased is the Hyndman-Fan type 8 estimator,
	// approximately median-unbiased regardless of the distribution. The
	// default, matching common climate-index practice.
	InterpMedianUnbiased Interpolation = "median_unbiased"
	// InterpLinear is the classic linear estimator (Hyndman-Fan type 7).
	InterpLinear Interpolation = "linear"
)

// Valid reports whether the interpolation name is supported.
func (in Interpolation) Valid() bool {
	return in == InterpMedianUnbiased || in == InterpLinear
}

// quantile estimates the p-quantile (0 <= p <= 1) of sorted, NaN-free
// samples. Empty input yields NaN. Both estimators compute a fractional
// 1-based sample position h and interpolate between the two surrounding
// order statistics; they differ only in how h is placed.
func quantile(sorted []float64, p float64, interp Interpolation) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}

	var h float64
	switch interp {
	case InterpLinear:
		// Hyndman-Fan type 7.
		h = float64(n-1)*p + 1
	default:
		// Hyndman-Fan type 8.
		h = (float64(n)+1.0/3.0)*p + 1.0/3.0
	}

	if h <= 1 {
		return sorted[0]
	}
	if h >= float64(n) {
		return sorted[n-1]
	}
	k := int(math.Floor(h))
	frac := h - float64(k)
	return sorted[k-1] + frac*(sorted[k]-sorted[k-1])
}

// BuildOverall computes one percentile value per cell over the full
// reference series, NaN samples excluded. Cells with no valid samples get
// NaN. Used for whole-period percentile thresholds such as wet-day
// precipitation percentiles, which need no calendar projection and no
// bootstrap.
func BuildOverall(ref *timeseries.Series, percentile float64, interp Interpolation) ([]float64, error) {
	if err := checkRank(percentile, interp); err != nil {
		return nil, err
	}
	out := make([]float64, ref.Cells())
	scratch := make([]float64, 0, ref.Len())
	for c := 0; c < ref.Cells(); c++ {
		scratch = scratch[:0]
		for i := 0; i < ref.Len(); i++ {
			if v := ref.Value(i, c); !math.IsNaN(v) {
				scratch = append(scratch, v)
			}
		}
		sort.Float64s(scratch)
		out[c] = quantile(scratch, percentile/100, interp)
	}
	return out, nil
}

func checkRank(percentile float64, interp Interpolation) error {
	if percentile < 0 || percentile > 100 {
		return fmt.Errorf("percentile rank must be in [0, 100], got %g", percentile)
	}
	if !interp.Valid() {
		return fmt.Errorf("unknown quantile interpolation %q", interp)
	}
	return nil
}
