package indices

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/thebaptiste/icclim/timeseries"
)

type statKind int

const (
	statMax statKind = iota
	statMin
	statSum
	statMean
	statStd
)

func maximum(in reduceInput) (*timeseries.Series, error) { return statReduce(in, statMax) }
func minimum(in reduceInput) (*timeseries.Series, error) { return statReduce(in, statMin) }
func sum(in reduceInput) (*timeseries.Series, error)     { return statReduce(in, statSum) }
func average(in reduceInput) (*timeseries.Series, error) { return statReduce(in, statMean) }
func standardDeviation(in reduceInput) (*timeseries.Series, error) {
	return statReduce(in, statStd)
}

// statReduce applies a plain statistic per period over the threshold-
// filtered study series. Missing and filtered-out values are excluded
// from the reduction, never zeroed; a period with no valid values comes
// back NaN, except for the sum which follows the nansum convention and
// returns 0.
func statReduce(in reduceInput, kind statKind) (*timeseries.Series, error) {
	src, bootstrapped, err := in.filteredStudy()
	if err != nil {
		return nil, err
	}
	groups, err := in.buckets(src.Times())
	if err != nil {
		return nil, err
	}
	cells := src.Cells()
	data := make([]float64, len(groups)*cells)
	var event []time.Time
	wantEvent := in.dateEvent && (kind == statMax || kind == statMin)
	if wantEvent {
		event = make([]time.Time, len(groups)*cells)
	}

	scratch := make([]float64, 0, 64)
	for gi, g := range groups {
		for c := 0; c < cells; c++ {
			switch kind {
			case statMax, statMin:
				best := math.NaN()
				bestAt := -1
				for _, i := range g.Indices {
					v := src.Value(i, c)
					if math.IsNaN(v) {
						continue
					}
					if bestAt < 0 || (kind == statMax && v > best) || (kind == statMin && v < best) {
						best, bestAt = v, i
					}
				}
				data[gi*cells+c] = best
				if wantEvent && bestAt >= 0 {
					event[gi*cells+c] = src.Time(bestAt)
				}
			default:
				scratch = scratch[:0]
				for _, i := range g.Indices {
					if v := src.Value(i, c); !math.IsNaN(v) {
						scratch = append(scratch, v)
					}
				}
				switch {
				case kind == statSum:
					data[gi*cells+c] = floats.Sum(scratch)
				case len(scratch) == 0:
					data[gi*cells+c] = math.NaN()
				case kind == statMean:
					data[gi*cells+c] = stat.Mean(scratch, nil)
				default:
					data[gi*cells+c] = stat.PopStdDev(scratch, nil)
				}
			}
		}
	}

	out, err := newResult(groups, data, cells, src.Attrs.Units)
	if err != nil {
		return nil, err
	}
	out.Event = event
	markBootstrapped(out, in, bootstrapped)
	return out, nil
}

func maxOfRollingSum(in reduceInput) (*timeseries.Series, error) {
	return rollingReduce(in, true, true)
}
func minOfRollingSum(in reduceInput) (*timeseries.Series, error) {
	return rollingReduce(in, true, false)
}
func maxOfRollingAverage(in reduceInput) (*timeseries.Series, error) {
	return rollingReduce(in, false, true)
}
func minOfRollingAverage(in reduceInput) (*timeseries.Series, error) {
	return rollingReduce(in, false, false)
}

// rollingReduce slides a window over the threshold-filtered study series
// and keeps the per-period extreme of the rolling statistic. The event
// coordinates bound the winning window: start at its first step, end one
// window length later.
func rollingReduce(in reduceInput, wantSum, wantMax bool) (*timeseries.Series, error) {
	src, bootstrapped, err := in.filteredStudy()
	if err != nil {
		return nil, err
	}
	var rolled *timeseries.Series
	if wantSum {
		rolled, err = timeseries.RollingSum(src, in.window)
	} else {
		rolled, err = timeseries.RollingMean(src, in.window)
	}
	if err != nil {
		return nil, newConfigError("rolling window: %v", err)
	}

	groups, err := in.buckets(rolled.Times())
	if err != nil {
		return nil, err
	}
	cells := rolled.Cells()
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
				v := rolled.Value(i, c)
				if math.IsNaN(v) {
					continue
				}
				if bestAt < 0 || (wantMax && v > best) || (!wantMax && v < best) {
					best, bestAt = v, i
				}
			}
			data[gi*cells+c] = best
			if in.dateEvent && bestAt >= 0 {
				start := rolled.Time(bestAt)
				eventStart[gi*cells+c] = start
				eventEnd[gi*cells+c] = start.Add(time.Duration(in.window) * in.step)
			}
		}
	}

	out, err := newResult(groups, data, cells, src.Attrs.Units)
	if err != nil {
		return nil, err
	}
	out.EventStart = eventStart
	out.EventEnd = eventEnd
	markBootstrapped(out, in, bootstrapped)
	return out, nil
}
