package indices

import (
	"fmt"
	"math"
	"time"

	"github.com/thebaptiste/icclim/percentiles"
	"github.com/thebaptiste/icclim/timeseries"
	"github.com/thebaptiste/icclim/units"
)

// Threshold is the right-hand side of an exceedance comparison. Exactly
// one of Value, PerCell or Doy carries the threshold data: a single
// scalar, one value per cell, or a day-of-year percentile climatology.
// Per-cell thresholds derived from a whole-period percentile additionally
// record their rank and reference epoch for metadata.
type Threshold struct {
	Operator Operator
	Unit     string

	Value   float64
	PerCell []float64
	Doy     *percentiles.DoyQuantiles

	// PercentileRank is the percentile this threshold was built from,
	// zero for plain value thresholds.
	PercentileRank float64
	// MinValue masks out values below it before comparison and, for
	// fraction reducers, from totals. NaN means no guard.
	MinValue float64
	// Epoch is the reference period of a percentile threshold.
	Epoch timeseries.Epoch
}

// NewScalarThreshold builds a single-valued threshold such as "> 25 degC".
func NewScalarThreshold(op Operator, value float64, unit string) Threshold {
	return Threshold{Operator: op, Value: value, Unit: unit, MinValue: math.NaN()}
}

// NewPerCellThreshold builds a threshold with one value per cell.
func NewPerCellThreshold(op Operator, values []float64, unit string) Threshold {
	return Threshold{Operator: op, PerCell: values, Unit: unit, MinValue: math.NaN()}
}

// NewDoyPercentileThreshold wraps a day-of-year percentile climatology as
// a threshold. The unit is the unit of the series the climatology was
// built from.
func NewDoyPercentileThreshold(op Operator, doy *percentiles.DoyQuantiles, unit string) Threshold {
	return Threshold{
		Operator:       op,
		Doy:            doy,
		Unit:           unit,
		PercentileRank: doy.Percentile,
		MinValue:       math.NaN(),
		Epoch:          doy.Epoch,
	}
}

// NewPeriodPercentileThreshold computes one percentile per cell over the
// whole reference period and uses those as per-cell thresholds. Values
// below minValue are excluded from the estimation; pass NaN for no guard.
func NewPeriodPercentileThreshold(op Operator, ref *timeseries.Series, rank float64, interp percentiles.Interpolation, minValue float64) (Threshold, error) {
	sample := ref
	if !math.IsNaN(minValue) {
		sample = ref.Clone()
		for i := 0; i < sample.Len(); i++ {
			for c := 0; c < sample.Cells(); c++ {
				if sample.Value(i, c) < minValue {
					sample.SetValue(i, c, math.NaN())
				}
			}
		}
	}
	values, err := percentiles.BuildOverall(sample, rank, interp)
	if err != nil {
		return Threshold{}, err
	}
	times := ref.Times()
	return Threshold{
		Operator:       op,
		PerCell:        values,
		Unit:           ref.Attrs.Units,
		PercentileRank: rank,
		MinValue:       minValue,
		Epoch:          timeseries.Epoch{Start: times[0], End: times[len(times)-1]},
	}, nil
}

// IsDoyPercentile reports whether the threshold varies by day of year.
func (t *Threshold) IsDoyPercentile() bool { return t.Doy != nil }

// IsPercentile reports whether the threshold was derived from a
// percentile of reference data.
func (t *Threshold) IsPercentile() bool { return t.PercentileRank > 0 }

// HasMinValue reports whether the min-value guard is set.
func (t *Threshold) HasMinValue() bool { return !math.IsNaN(t.MinValue) }

// valueFor resolves the threshold value for cell c at time tm. Day 366
// falls back to day 365 when the climatology has no leap sample. The
// second result is false when no value exists at all.
func (t *Threshold) valueFor(tm time.Time, c int) (float64, bool) {
	if t.Doy != nil {
		return doyLookup(t.Doy, tm, c)
	}
	if t.PerCell != nil {
		if c >= len(t.PerCell) {
			return 0, false
		}
		return t.PerCell[c], true
	}
	return t.Value, true
}

// alignUnit converts the threshold into the variable's unit. Value
// thresholds convert in place; percentile thresholds were built from the
// variable's own reference data and must already match.
func (t *Threshold) alignUnit(varUnit string) error {
	if units.Normalize(t.Unit) == units.Normalize(varUnit) {
		t.Unit = varUnit
		return nil
	}
	if t.IsPercentile() {
		return newConfigError("percentile threshold unit %q does not match variable unit %q", t.Unit, varUnit)
	}
	if t.PerCell != nil {
		for i, v := range t.PerCell {
			conv, err := units.Convert(v, t.Unit, varUnit)
			if err != nil {
				return newConfigError("threshold unit %q incompatible with variable unit %q: %v", t.Unit, varUnit, err)
			}
			t.PerCell[i] = conv
		}
	} else {
		conv, err := units.Convert(t.Value, t.Unit, varUnit)
		if err != nil {
			return newConfigError("threshold unit %q incompatible with variable unit %q: %v", t.Unit, varUnit, err)
		}
		t.Value = conv
	}
	if t.HasMinValue() {
		conv, err := units.Convert(t.MinValue, t.Unit, varUnit)
		if err == nil {
			t.MinValue = conv
		}
	}
	t.Unit = varUnit
	return nil
}

// Describe renders the threshold for index metadata, e.g. "above 25
// degC" or "below the 10th day-of-year percentile of 1961-1990".
func (t *Threshold) Describe() string {
	switch {
	case t.Doy != nil:
		return fmt.Sprintf("%s the %s day-of-year percentile of %s", t.Operator.word(), ordinal(t.PercentileRank), t.epochRange())
	case t.IsPercentile():
		return fmt.Sprintf("%s the %s period percentile of %s", t.Operator.word(), ordinal(t.PercentileRank), t.epochRange())
	case t.PerCell != nil:
		return fmt.Sprintf("%s per-cell thresholds (%s)", t.Operator.word(), t.Unit)
	default:
		return fmt.Sprintf("%s %g %s", t.Operator.word(), t.Value, t.Unit)
	}
}

// slug renders a compact threshold tag for standard names, e.g.
// "above_25_degc" or "below_10_doy_percentile".
func (t *Threshold) slug() string {
	op := t.Operator.slug()
	switch {
	case t.Doy != nil:
		return fmt.Sprintf("%s_%g_doy_percentile", op, t.PercentileRank)
	case t.IsPercentile():
		return fmt.Sprintf("%s_%g_period_percentile", op, t.PercentileRank)
	case t.PerCell != nil:
		return op + "_per_cell_threshold"
	default:
		return op + "_" + slugify(fmt.Sprintf("%g %s", t.Value, t.Unit))
	}
}

func (t *Threshold) epochRange() string {
	if t.Epoch.IsZero() {
		return "the reference period"
	}
	return fmt.Sprintf("%d-%d", t.Epoch.Start.Year(), t.Epoch.End.Year())
}

func ordinal(rank float64) string {
	n := int(rank)
	if float64(n) != rank {
		return fmt.Sprintf("%gth", rank)
	}
	suffix := "th"
	switch {
	case n%100 >= 11 && n%100 <= 13:
	case n%10 == 1:
		suffix = "st"
	case n%10 == 2:
		suffix = "nd"
	case n%10 == 3:
		suffix = "rd"
	}
	return fmt.Sprintf("%d%s", n, suffix)
}
