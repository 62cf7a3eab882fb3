package indices

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/thebaptiste/icclim/timeseries"
	"github.com/thebaptiste/icclim/units"
)

// couple resolves the two arms of a comparison reducer: either two study
// variables, or one study variable and one reference variable.
func (in reduceInput) couple() (*ClimateVariable, *ClimateVariable, error) {
	switch {
	case len(in.vars) == 2 && len(in.refVars) == 0:
		return in.vars[0], in.vars[1], nil
	case len(in.vars) == 1 && len(in.refVars) == 1:
		return in.vars[0], in.refVars[0], nil
	default:
		return nil, nil, newConfigError("exactly two variables required, got %d study and %d reference",
			len(in.vars), len(in.refVars))
	}
}

// alignedPair restricts both arms to their common timestamps and brings
// the second arm into the first's unit. Comparison reducers that operate
// step by step need this; difference_of_means does not, since its arms
// may cover disjoint periods.
func (in reduceInput) alignedPair() (*timeseries.Series, *timeseries.Series, error) {
	va, vb, err := in.couple()
	if err != nil {
		return nil, nil, err
	}
	a, b, err := timeseries.AlignIntersect(va.Series, vb.Series)
	if err != nil {
		return nil, nil, wrapDataError(err, "aligning %s and %s", va.Name, vb.Name)
	}
	if err := reconcileUnits(b, a.Attrs.Units); err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

func reconcileUnits(s *timeseries.Series, unit string) error {
	if units.Normalize(s.Attrs.Units) == units.Normalize(unit) {
		return nil
	}
	if err := units.ConvertSeries(s, unit); err != nil {
		return newConfigError("cannot reconcile units %q and %q: %v", s.Attrs.Units, unit, err)
	}
	return nil
}

// groupMeans computes the per-cell mean of every group, skipping NaN.
func groupMeans(s *timeseries.Series, groups []timeseries.Group) [][]float64 {
	out := make([][]float64, len(groups))
	scratch := make([]float64, 0, 64)
	for gi, g := range groups {
		row := make([]float64, s.Cells())
		for c := range row {
			scratch = scratch[:0]
			for _, i := range g.Indices {
				if v := s.Value(i, c); !math.IsNaN(v) {
					scratch = append(scratch, v)
				}
			}
			if len(scratch) == 0 {
				row[c] = math.NaN()
			} else {
				row[c] = stat.Mean(scratch, nil)
			}
		}
		out[gi] = row
	}
	return out
}

// meanOfDifference averages the step-wise difference of two aligned
// variables per period, the diurnal temperature range pattern. The unit
// is inherited from the first variable.
func meanOfDifference(in reduceInput) (*timeseries.Series, error) {
	a, b, err := in.alignedPair()
	if err != nil {
		return nil, err
	}
	groups, err := in.buckets(a.Times())
	if err != nil {
		return nil, err
	}
	cells := a.Cells()
	data := make([]float64, len(groups)*cells)
	scratch := make([]float64, 0, 64)

	for gi, g := range groups {
		for c := 0; c < cells; c++ {
			scratch = scratch[:0]
			for _, i := range g.Indices {
				va, vb := a.Value(i, c), b.Value(i, c)
				if math.IsNaN(va) || math.IsNaN(vb) {
					continue
				}
				scratch = append(scratch, va-vb)
			}
			if len(scratch) == 0 {
				data[gi*cells+c] = math.NaN()
			} else {
				data[gi*cells+c] = stat.Mean(scratch, nil)
			}
		}
	}

	return newResult(groups, data, cells, a.Attrs.Units)
}

// differenceOfExtremes subtracts the per-period minimum of the second
// variable from the per-period maximum of the first, the extreme
// temperature range pattern.
func differenceOfExtremes(in reduceInput) (*timeseries.Series, error) {
	a, b, err := in.alignedPair()
	if err != nil {
		return nil, err
	}
	groups, err := in.buckets(a.Times())
	if err != nil {
		return nil, err
	}
	cells := a.Cells()
	data := make([]float64, len(groups)*cells)

	for gi, g := range groups {
		for c := 0; c < cells; c++ {
			hi, lo := math.NaN(), math.NaN()
			for _, i := range g.Indices {
				if v := a.Value(i, c); !math.IsNaN(v) && (math.IsNaN(hi) || v > hi) {
					hi = v
				}
				if v := b.Value(i, c); !math.IsNaN(v) && (math.IsNaN(lo) || v < lo) {
					lo = v
				}
			}
			data[gi*cells+c] = hi - lo
		}
	}

	return newResult(groups, data, cells, a.Attrs.Units)
}

// meanOfAbsoluteOneTimeStepDifference averages |d(t) - d(t-1)| per
// period, where d is the step-wise difference of the two variables. The
// first step of the series has no predecessor and is excluded.
func meanOfAbsoluteOneTimeStepDifference(in reduceInput) (*timeseries.Series, error) {
	a, b, err := in.alignedPair()
	if err != nil {
		return nil, err
	}
	n, cells := a.Len(), a.Cells()
	absStep := make([]float64, n*cells)
	for c := 0; c < cells; c++ {
		absStep[c] = math.NaN()
		prev := a.Value(0, c) - b.Value(0, c)
		for i := 1; i < n; i++ {
			cur := a.Value(i, c) - b.Value(i, c)
			absStep[i*cells+c] = math.Abs(cur - prev)
			prev = cur
		}
	}

	groups, err := in.buckets(a.Times())
	if err != nil {
		return nil, err
	}
	data := make([]float64, len(groups)*cells)
	scratch := make([]float64, 0, 64)
	for gi, g := range groups {
		for c := 0; c < cells; c++ {
			scratch = scratch[:0]
			for _, i := range g.Indices {
				if v := absStep[i*cells+c]; !math.IsNaN(v) {
					scratch = append(scratch, v)
				}
			}
			if len(scratch) == 0 {
				data[gi*cells+c] = math.NaN()
			} else {
				data[gi*cells+c] = stat.Mean(scratch, nil)
			}
		}
	}

	return newResult(groups, data, cells, a.Attrs.Units)
}

// groupKeyOf projects a bucket label onto its year-independent group
// key, so reference and study buckets can be matched across years.
func groupKeyOf(kind GroupKind, label time.Time) int {
	switch kind {
	case GroupMonth:
		return int(label.Month())
	case GroupDayOfYear:
		return label.YearDay()
	default:
		return 0
	}
}

// differenceOfMeans subtracts the reference arm's mean from the study
// arm's mean, with three pairing strategies. Resampling pairs periods by
// label; group-by fuses both arms by the frequency's group key across
// years; the mixed strategy resamples the study arm and matches each
// period against the fused reference group with the same key. With
// percentage output the difference is expressed relative to the
// reference mean.
func differenceOfMeans(in reduceInput) (*timeseries.Series, error) {
	study, ref, err := in.couple()
	if err != nil {
		return nil, err
	}
	refSeries := ref.Series
	if units.Normalize(refSeries.Attrs.Units) != units.Normalize(study.Series.Attrs.Units) {
		refSeries = refSeries.Clone()
		if err := reconcileUnits(refSeries, study.Series.Attrs.Units); err != nil {
			return nil, err
		}
	}

	switch in.sampling {
	case SamplingGroupBy:
		return diffOfMeansGroupBy(in, study.Series, refSeries)
	case SamplingGroupByRefAndResampleStudy:
		return diffOfMeansMixed(in, study.Series, refSeries)
	default:
		return diffOfMeansResample(in, study.Series, refSeries)
	}
}

func diffValue(a, b float64, toPercent bool) float64 {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.NaN()
	}
	if !toPercent {
		return a - b
	}
	if b == 0 {
		return math.NaN()
	}
	return (a - b) / b * 100
}

func diffUnit(in reduceInput, unit string) string {
	if in.toPercent {
		return units.Percent
	}
	return unit
}

func diffOfMeansResample(in reduceInput, study, ref *timeseries.Series) (*timeseries.Series, error) {
	ga, err := in.buckets(study.Times())
	if err != nil {
		return nil, err
	}
	gb, err := in.buckets(ref.Times())
	if err != nil {
		return nil, err
	}
	ma, mb := groupMeans(study, ga), groupMeans(ref, gb)

	refByLabel := make(map[time.Time][]float64, len(gb))
	for gi, g := range gb {
		refByLabel[g.Label] = mb[gi]
	}

	cells := study.Cells()
	labels := make([]time.Time, 0, len(ga))
	data := make([]float64, 0, len(ga)*cells)
	for gi, g := range ga {
		row, ok := refByLabel[g.Label]
		if !ok {
			continue
		}
		labels = append(labels, g.Label)
		for c := 0; c < cells; c++ {
			data = append(data, diffValue(ma[gi][c], row[c], in.toPercent))
		}
	}
	if len(labels) == 0 {
		return nil, newDataError("study and reference share no periods to compare")
	}

	out, err := timeseries.New(labels, data, cells)
	if err != nil {
		return nil, wrapDataError(err, "assembling result")
	}
	out.Attrs.Units = diffUnit(in, study.Attrs.Units)
	return out, nil
}

func diffOfMeansGroupBy(in reduceInput, study, ref *timeseries.Series) (*timeseries.Series, error) {
	ga := in.freq.groupByKey(study.Times())
	gb := in.freq.groupByKey(ref.Times())
	if len(ga) == 0 || len(gb) == 0 {
		return nil, newDataError("frequency %q selects no data to group", in.freq.Name)
	}
	ma, mb := groupMeans(study, ga), groupMeans(ref, gb)

	refByKey := make(map[int][]float64, len(gb))
	for gi, g := range gb {
		refByKey[groupKeyOf(in.freq.Group, g.Label)] = mb[gi]
	}

	cells := study.Cells()
	data := make([]float64, len(ga)*cells)
	for gi, g := range ga {
		row := refByKey[groupKeyOf(in.freq.Group, g.Label)]
		for c := 0; c < cells; c++ {
			if row == nil {
				data[gi*cells+c] = math.NaN()
			} else {
				data[gi*cells+c] = diffValue(ma[gi][c], row[c], in.toPercent)
			}
		}
	}

	out, err := timeseries.New(timeseries.Labels(ga), data, cells)
	if err != nil {
		return nil, wrapDataError(err, "assembling result")
	}
	out.Attrs.Units = diffUnit(in, study.Attrs.Units)
	out.Attrs.GroupedBy = groupedByName(in.freq.Group)
	return out, nil
}

func diffOfMeansMixed(in reduceInput, study, ref *timeseries.Series) (*timeseries.Series, error) {
	groups, err := in.buckets(study.Times())
	if err != nil {
		return nil, err
	}
	ma := groupMeans(study, groups)
	cells := study.Cells()

	perKey := in.freq.Group == GroupMonth || in.freq.Group == GroupDayOfYear
	var refByKey map[int][]float64
	var refOverall []float64
	if perKey {
		gb := in.freq.groupByKey(ref.Times())
		if len(gb) == 0 {
			return nil, newDataError("reference holds no data to group by %s", in.freq.Group)
		}
		mb := groupMeans(ref, gb)
		refByKey = make(map[int][]float64, len(gb))
		for gi, g := range gb {
			refByKey[groupKeyOf(in.freq.Group, g.Label)] = mb[gi]
		}
	} else {
		all := make([]int, ref.Len())
		for i := range all {
			all[i] = i
		}
		refOverall = groupMeans(ref, []timeseries.Group{{Indices: all}})[0]
	}

	data := make([]float64, len(groups)*cells)
	for gi, g := range groups {
		row := refOverall
		if perKey {
			row = refByKey[groupKeyOf(in.freq.Group, g.Label)]
		}
		for c := 0; c < cells; c++ {
			if row == nil {
				data[gi*cells+c] = math.NaN()
			} else {
				data[gi*cells+c] = diffValue(ma[gi][c], row[c], in.toPercent)
			}
		}
	}

	out, err := newResult(groups, data, cells, diffUnit(in, study.Attrs.Units))
	if err != nil {
		return nil, err
	}
	return out, nil
}

func groupedByName(kind GroupKind) string {
	if kind == GroupNone {
		return string(GroupSpan)
	}
	return string(kind)
}
