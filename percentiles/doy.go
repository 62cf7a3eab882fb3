package percentiles

import (
	"fmt"
	"math"
	"sort"

	"github.com/thebaptiste/icclim/timeseries"
)

// DefaultWindow is the centered day-of-year sampling window used when a
// threshold does not specify one. Five days is the conventional width for
// daily percentile climatologies.
const DefaultWindow = 5

// DoyQuantiles is a day-of-year percentile climatology: one value per
// (day-of-year, cell), estimated from every reference value whose position
// falls inside a centered window around that day across all reference
// years. Day-of-year follows the running calendar, so day 60 is Feb 29 in
// leap years and Mar 1 otherwise, and day 366 only exists when the
// reference period contains leap years.
type DoyQuantiles struct {
	Percentile float64
	Window     int
	Interp     Interpolation
	Epoch      timeseries.Epoch

	cells  int
	values map[int][]float64 // day-of-year -> per-cell estimate

	// reference is retained for leave-one-year-out rebuilds.
	reference *timeseries.Series
}

// BuildDoy estimates a day-of-year climatology from a reference series.
// percentile is a rank in [0, 100]; window is the centered width in steps
// (DefaultWindow when <= 0).
func BuildDoy(ref *timeseries.Series, percentile float64, window int, interp Interpolation) (*DoyQuantiles, error) {
	if ref == nil || ref.Len() == 0 {
		return nil, fmt.Errorf("build day-of-year percentiles: empty reference series")
	}
	if err := checkRank(percentile, interp); err != nil {
		return nil, fmt.Errorf("build day-of-year percentiles: %w", err)
	}
	if window <= 0 {
		window = DefaultWindow
	}

	d := &DoyQuantiles{
		Percentile: percentile,
		Window:     window,
		Interp:     interp,
		Epoch:      timeseries.Epoch{Start: ref.Time(0), End: ref.Time(ref.Len() - 1)},
		cells:      ref.Cells(),
		reference:  ref,
	}
	d.values = estimate(ref, percentile, window, interp, 0)
	return d, nil
}

// Cells returns the cell count the climatology was built for.
func (d *DoyQuantiles) Cells() int { return d.cells }

// Value returns the threshold for a day-of-year and cell. ok is false when
// the day-of-year is absent from the climatology, which signals a calendar
// incompatibility between study and reference data.
func (d *DoyQuantiles) Value(doy, cell int) (float64, bool) {
	row, ok := d.values[doy]
	if !ok {
		return 0, false
	}
	return row[cell], true
}

// Days returns the day-of-year keys present, ascending.
func (d *DoyQuantiles) Days() []int {
	days := make([]int, 0, len(d.values))
	for doy := range d.values {
		days = append(days, doy)
	}
	sort.Ints(days)
	return days
}

// ExcludeYear rebuilds the climatology with one reference year left out.
// This is the bootstrap primitive: study years overlapping the reference
// period are compared against the climatology that never saw them.
func (d *DoyQuantiles) ExcludeYear(year int) *DoyQuantiles {
	out := &DoyQuantiles{
		Percentile: d.Percentile,
		Window:     d.Window,
		Interp:     d.Interp,
		Epoch:      d.Epoch,
		cells:      d.cells,
		reference:  d.reference,
	}
	out.values = estimate(d.reference, d.Percentile, d.Window, d.Interp, year)
	return out
}

// estimate gathers, for every day-of-year present in ref, the values at
// positions within the centered window around each occurrence of that day,
// then reduces each sample set to its percentile. Steps belonging to
// excludeYear contribute neither occurrences nor window samples.
func estimate(ref *timeseries.Series, percentile float64, window int, interp Interpolation, excludeYear int) map[int][]float64 {
	lo := -(window - 1) / 2
	hi := window / 2
	cells := ref.Cells()

	excluded := func(i int) bool {
		return excludeYear != 0 && ref.Time(i).Year() == excludeYear
	}

	samples := make(map[int][][]float64)
	for i := 0; i < ref.Len(); i++ {
		if excluded(i) {
			continue
		}
		doy := ref.Time(i).YearDay()
		row, ok := samples[doy]
		if !ok {
			row = make([][]float64, cells)
			samples[doy] = row
		}
		for off := lo; off <= hi; off++ {
			j := i + off
			if j < 0 || j >= ref.Len() || excluded(j) {
				continue
			}
			for c := 0; c < cells; c++ {
				if v := ref.Value(j, c); !math.IsNaN(v) {
					row[c] = append(row[c], v)
				}
			}
		}
	}

	values := make(map[int][]float64, len(samples))
	for doy, row := range samples {
		perCell := make([]float64, cells)
		for c := 0; c < cells; c++ {
			sort.Float64s(row[c])
			perCell[c] = quantile(row[c], percentile/100, interp)
		}
		values[doy] = perCell
	}
	return values
}
