package indices

import (
	"log/slog"
	"math"
	"time"

	"github.com/thebaptiste/icclim/internal/runlength"
	"github.com/thebaptiste/icclim/observability"
	"github.com/thebaptiste/icclim/timeseries"
	"github.com/thebaptiste/icclim/units"
)

// reduceInput is the resolved environment a reducer runs in: the shaped
// study and reference variables, the output frequency and the knobs the
// individual algorithms read. The evaluator assembles one per call.
type reduceInput struct {
	vars    []*ClimateVariable
	refVars []*ClimateVariable
	freq    Frequency
	step    time.Duration

	window    int
	minSpell  int
	link      LogicalLink
	sampling  SamplingMethod
	dateEvent bool
	toPercent bool

	log     *slog.Logger
	metrics *observability.Metrics
}

// reduceFunc turns shaped inputs into one aggregated value per period.
type reduceFunc func(in reduceInput) (*timeseries.Series, error)

func (in reduceInput) study() *ClimateVariable { return in.vars[0] }

// combinedMask evaluates every study variable against its threshold and
// links the resulting masks into one. All variables must share the same
// time index, bit positions would silently misalign otherwise.
func (in reduceInput) combinedMask() (*Mask, *timeseries.Series, error) {
	src := in.vars[0].Series
	bits := make([][]bool, 0, len(in.vars))
	bootstrapped := false
	for _, v := range in.vars {
		if !sameTimes(v.Series, src) {
			return nil, nil, newDataError("variables %q and %q are not aligned in time", v.Name, in.vars[0].Name)
		}
		m, err := buildMask(v, in.log, in.metrics)
		if err != nil {
			return nil, nil, err
		}
		bits = append(bits, m.Bits)
		bootstrapped = bootstrapped || m.Bootstrapped
	}
	combined, err := in.link.Combine(bits...)
	if err != nil {
		return nil, nil, err
	}
	return &Mask{
		Steps:        src.Len(),
		Cells:        src.Cells(),
		Bits:         combined,
		Bootstrapped: bootstrapped,
	}, src, nil
}

func sameTimes(a, b *timeseries.Series) bool {
	if a == b {
		return true
	}
	if a.Len() != b.Len() {
		return false
	}
	for i := 0; i < a.Len(); i++ {
		if !a.Time(i).Equal(b.Time(i)) {
			return false
		}
	}
	return true
}

// filteredStudy returns the study series with values failing the
// threshold replaced by NaN, or the series itself when no threshold is
// set. The second result reports whether a bootstrap ran.
func (in reduceInput) filteredStudy() (*timeseries.Series, bool, error) {
	v := in.study()
	if v.Threshold == nil {
		return v.Series, false, nil
	}
	mask, err := buildMask(v, in.log, in.metrics)
	if err != nil {
		return nil, false, err
	}
	s := v.Series.Clone()
	for i := 0; i < s.Len(); i++ {
		for c := 0; c < s.Cells(); c++ {
			if !mask.At(i, c) {
				s.SetValue(i, c, math.NaN())
			}
		}
	}
	return s, mask.Bootstrapped, nil
}

// buckets groups a time index into the output periods, failing when the
// frequency selects nothing at all.
func (in reduceInput) buckets(times []time.Time) ([]timeseries.Group, error) {
	groups := in.freq.Buckets(times)
	if len(groups) == 0 {
		return nil, newDataError("frequency %q selects no data", in.freq.Name)
	}
	return groups, nil
}

// referenceEpoch finds the reference period bounds of the first
// percentile threshold among the study variables, for provenance when a
// bootstrap ran.
func (in reduceInput) referenceEpoch() timeseries.Epoch {
	for _, v := range in.vars {
		if v.Threshold != nil && v.Threshold.IsPercentile() {
			return v.Threshold.Epoch
		}
	}
	return timeseries.Epoch{}
}

// newResult assembles per-period data into the output series.
func newResult(groups []timeseries.Group, data []float64, cells int, unit string) (*timeseries.Series, error) {
	out, err := timeseries.New(timeseries.Labels(groups), data, cells)
	if err != nil {
		return nil, wrapDataError(err, "assembling result")
	}
	out.Attrs.Units = unit
	return out, nil
}

func markBootstrapped(out *timeseries.Series, in reduceInput, bootstrapped bool) {
	if bootstrapped {
		out.Attrs.ReferenceEpoch = in.referenceEpoch()
	}
}

// countOccurrences counts exceeding steps per period. With percentage
// output and a known period day count, the count divides by the period
// length; unknown period kinds keep the raw count and the evaluator
// warns.
func countOccurrences(in reduceInput) (*timeseries.Series, error) {
	mask, src, err := in.combinedMask()
	if err != nil {
		return nil, err
	}
	groups, err := in.buckets(src.Times())
	if err != nil {
		return nil, err
	}
	cells := src.Cells()
	data := make([]float64, len(groups)*cells)
	var eventStart, eventEnd []time.Time
	if in.dateEvent {
		eventStart = make([]time.Time, len(groups)*cells)
		eventEnd = make([]time.Time, len(groups)*cells)
	}

	unit := units.CountUnit(in.step)
	normalized := false
	if in.toPercent {
		_, normalized = percentDayCount(in.freq, groups[0].Label)
	}
	for gi, g := range groups {
		var factor float64
		if normalized {
			factor, _ = percentDayCount(in.freq, g.Label)
		}
		for c := 0; c < cells; c++ {
			count := float64(mask.CountTrue(g.Indices, c))
			if normalized {
				count = count / factor * 100
			}
			data[gi*cells+c] = count
			if !in.dateEvent {
				continue
			}
			for _, i := range g.Indices {
				if mask.At(i, c) {
					eventStart[gi*cells+c] = src.Time(i)
					break
				}
			}
			for k := len(g.Indices) - 1; k >= 0; k-- {
				if i := g.Indices[k]; mask.At(i, c) {
					eventEnd[gi*cells+c] = src.Time(i)
					break
				}
			}
		}
	}
	if normalized {
		unit = units.Percent
	}

	out, err := newResult(groups, data, cells, unit)
	if err != nil {
		return nil, err
	}
	out.EventStart, out.EventEnd = eventStart, eventEnd
	markBootstrapped(out, in, mask.Bootstrapped)
	return out, nil
}

// maxConsecutiveOccurrence finds the longest run of exceeding steps per
// period. Runs are attributed to the period containing their start; a
// period holding only the continuation of an earlier run comes back
// undefined.
func maxConsecutiveOccurrence(in reduceInput) (*timeseries.Series, error) {
	mask, src, err := in.combinedMask()
	if err != nil {
		return nil, err
	}
	rle := runlength.Encode(mask.Bits, mask.Steps, mask.Cells)
	groups, err := in.buckets(src.Times())
	if err != nil {
		return nil, err
	}
	cells := src.Cells()
	data := make([]float64, len(groups)*cells)
	var eventStart, eventEnd []time.Time
	if in.dateEvent {
		eventStart = make([]time.Time, len(groups)*cells)
		eventEnd = make([]time.Time, len(groups)*cells)
	}

	for gi, g := range groups {
		for c := 0; c < cells; c++ {
			best := math.NaN()
			bestAt := -1
			for _, i := range g.Indices {
				v := rle[i*cells+c]
				if math.IsNaN(v) {
					continue
				}
				if math.IsNaN(best) || v > best {
					best, bestAt = v, i
				}
			}
			data[gi*cells+c] = best
			if in.dateEvent && bestAt >= 0 && best > 0 {
				start := src.Time(bestAt)
				eventStart[gi*cells+c] = start
				eventEnd[gi*cells+c] = start.Add(time.Duration(best) * in.step)
			}
		}
	}

	out, err := newResult(groups, data, cells, units.CountUnit(in.step))
	if err != nil {
		return nil, err
	}
	out.EventStart, out.EventEnd = eventStart, eventEnd
	markBootstrapped(out, in, mask.Bootstrapped)
	return out, nil
}

// sumOfSpellLengths zeroes every run shorter than the minimum spell
// length and keeps the longest qualifying run per period.
func sumOfSpellLengths(in reduceInput) (*timeseries.Series, error) {
	mask, src, err := in.combinedMask()
	if err != nil {
		return nil, err
	}
	rle := runlength.Encode(mask.Bits, mask.Steps, mask.Cells)
	spells := make([]float64, len(rle))
	for i, v := range rle {
		// NaN never satisfies the comparison, so steps inside runs
		// collapse to zero along with the short runs.
		if v >= float64(in.minSpell) {
			spells[i] = v
		}
	}

	groups, err := in.buckets(src.Times())
	if err != nil {
		return nil, err
	}
	cells := src.Cells()
	data := make([]float64, len(groups)*cells)
	var eventStart, eventEnd []time.Time
	if in.dateEvent {
		eventStart = make([]time.Time, len(groups)*cells)
		eventEnd = make([]time.Time, len(groups)*cells)
	}

	for gi, g := range groups {
		for c := 0; c < cells; c++ {
			best := 0.0
			bestAt := -1
			for _, i := range g.Indices {
				if v := spells[i*cells+c]; v > best {
					best, bestAt = v, i
				}
			}
			data[gi*cells+c] = best
			if in.dateEvent && bestAt >= 0 {
				start := src.Time(bestAt)
				eventStart[gi*cells+c] = start
				eventEnd[gi*cells+c] = start.Add(time.Duration(best) * in.step)
			}
		}
	}

	out, err := newResult(groups, data, cells, units.CountUnit(in.step))
	if err != nil {
		return nil, err
	}
	out.EventStart, out.EventEnd = eventStart, eventEnd
	markBootstrapped(out, in, mask.Bootstrapped)
	return out, nil
}

// excess sums (value - threshold) clipped to non-negative per period,
// the growing-degree-days integral.
func excess(in reduceInput) (*timeseries.Series, error) {
	return clippedIntegral(in, false)
}

// deficit sums (threshold - value) clipped to non-negative per period,
// the heating-degree-days integral.
func deficit(in reduceInput) (*timeseries.Series, error) {
	return clippedIntegral(in, true)
}

func clippedIntegral(in reduceInput, inverted bool) (*timeseries.Series, error) {
	v := in.study()
	if v.Threshold == nil {
		return nil, newConfigError("variable %q has no threshold to integrate against", v.Name)
	}
	src := v.Series
	groups, err := in.buckets(src.Times())
	if err != nil {
		return nil, err
	}
	cells := src.Cells()
	data := make([]float64, len(groups)*cells)

	for gi, g := range groups {
		for c := 0; c < cells; c++ {
			sum := 0.0
			for _, i := range g.Indices {
				val := src.Value(i, c)
				if math.IsNaN(val) {
					continue
				}
				thv, ok := v.Threshold.valueFor(src.Time(i), c)
				if !ok {
					continue
				}
				delta := val - thv
				if inverted {
					delta = -delta
				}
				if delta > 0 {
					sum += delta
				}
			}
			data[gi*cells+c] = sum
		}
	}

	return newResult(groups, data, cells, units.DeltaProductUnit(src.Attrs.Units, in.step))
}

// fractionOfTotal divides the sum of exceeding values by the sum of all
// values per period. A min-value guard on the threshold excludes small
// values from both sums.
func fractionOfTotal(in reduceInput) (*timeseries.Series, error) {
	v := in.study()
	if v.Threshold == nil {
		return nil, newConfigError("variable %q has no threshold for fraction of total", v.Name)
	}
	mask, err := buildMask(v, in.log, in.metrics)
	if err != nil {
		return nil, err
	}
	src := v.Series
	groups, err := in.buckets(src.Times())
	if err != nil {
		return nil, err
	}
	cells := src.Cells()
	data := make([]float64, len(groups)*cells)
	guard := v.Threshold.HasMinValue()

	for gi, g := range groups {
		for c := 0; c < cells; c++ {
			exceeding, total := 0.0, 0.0
			valid := false
			for _, i := range g.Indices {
				val := src.Value(i, c)
				if math.IsNaN(val) {
					continue
				}
				if guard && val < v.Threshold.MinValue {
					continue
				}
				valid = true
				total += val
				if mask.At(i, c) {
					exceeding += val
				}
			}
			switch {
			case !valid || total == 0:
				data[gi*cells+c] = math.NaN()
			case in.toPercent:
				data[gi*cells+c] = exceeding / total * 100
			default:
				data[gi*cells+c] = exceeding / total
			}
		}
	}

	unit := units.Fraction
	if in.toPercent {
		unit = units.Percent
	}
	out, err := newResult(groups, data, cells, unit)
	if err != nil {
		return nil, err
	}
	markBootstrapped(out, in, mask.Bootstrapped)
	return out, nil
}
