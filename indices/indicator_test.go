package indices

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thebaptiste/icclim/observability"
	"github.com/thebaptiste/icclim/percentiles"
	"github.com/thebaptiste/icclim/timeseries"
)

func TestEvaluatorCompute(t *testing.T) {
	t.Run("summer days style count", func(t *testing.T) {
		SetClock(clockwork.NewFakeClockAt(time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)))
		defer SetClock(nil)

		values := make([]float64, 365)
		for i := range values {
			if i < 265 {
				values[i] = 30
			} else {
				values[i] = 20
			}
		}
		s := dailySeries(t, "2001-01-01", "degC", values)
		th := NewScalarThreshold(OpGreater, 25, "degC")

		out, err := NewEvaluator().Compute(context.Background(), CountOccurrences, IndicatorConfig{
			Variables: []*ClimateVariable{{Name: "tasmax", Series: s, Threshold: &th}},
			Frequency: Yearly,
		})
		require.NoError(t, err)
		require.Equal(t, 1, out.Len())
		assert.Equal(t, 265.0, out.Value(0, 0))
		assert.Equal(t, "d", out.Attrs.Units)
		assert.Equal(t, "number_of_days_when_tasmax_is_above_25_degc", out.Attrs.StandardName)
		assert.Equal(t, "Number of days of year when tasmax is above 25 degC", out.Attrs.LongName)
		assert.True(t, strings.HasPrefix(out.Attrs.History,
			"2026-03-15T12:00:00Z: count_occurrences of tasmax computed over year ["), out.Attrs.History)
	})

	t.Run("input series stay untouched", func(t *testing.T) {
		s := dailySeries(t, "2001-01-01", "degC", []float64{1, 2, 3})
		th := NewScalarThreshold(OpGreater, 25, "degC")
		cfg := IndicatorConfig{
			Variables:   []*ClimateVariable{{Name: "tas", Series: s, Threshold: &th}},
			Frequency:   Yearly,
			Coefficient: 2,
		}
		_, err := NewEvaluator().Compute(context.Background(), CountOccurrences, cfg)
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 2, 3}, s.Values())
	})

	t.Run("output unit conversion", func(t *testing.T) {
		s := dailySeries(t, "2001-01-01", "degC", []float64{20, 30, 25})
		out, err := NewEvaluator().Compute(context.Background(), Maximum, IndicatorConfig{
			Variables: []*ClimateVariable{{Name: "tasmax", Series: s}},
			Frequency: Yearly,
			OutUnit:   "K",
		})
		require.NoError(t, err)
		assert.InDelta(t, 303.15, out.Value(0, 0), 1e-9)
		assert.Equal(t, "K", out.Attrs.Units)
	})

	t.Run("coefficient scales the input", func(t *testing.T) {
		s := dailySeries(t, "2001-01-01", "mm", []float64{1, 2, 3})
		out, err := NewEvaluator().Compute(context.Background(), Sum, IndicatorConfig{
			Variables:   []*ClimateVariable{{Name: "pr", Series: s}},
			Frequency:   Yearly,
			Coefficient: 2,
		})
		require.NoError(t, err)
		assert.Equal(t, 12.0, out.Value(0, 0))
	})

	t.Run("precipitation rate accumulates into an amount", func(t *testing.T) {
		s := constantSeries(t, "2001-01-01", 10, "mm/day", 2)
		out, err := NewEvaluator().Compute(context.Background(), Sum, IndicatorConfig{
			Variables: []*ClimateVariable{{Name: "pr", Series: s}},
			Frequency: Yearly,
			OutUnit:   "mm",
		})
		require.NoError(t, err)
		assert.InDelta(t, 20.0, out.Value(0, 0), 1e-9)
		assert.Equal(t, "mm", out.Attrs.Units)
	})

	t.Run("percentage of a month", func(t *testing.T) {
		s := constantSeries(t, "2001-01-01", 31, "degC", 30)
		th := NewScalarThreshold(OpGreater, 25, "degC")
		out, err := NewEvaluator().Compute(context.Background(), CountOccurrences, IndicatorConfig{
			Variables: []*ClimateVariable{{Name: "tasmax", Series: s, Threshold: &th}},
			Frequency: Monthly,
			OutUnit:   "%",
		})
		require.NoError(t, err)
		assert.Equal(t, 100.0, out.Value(0, 0))
		assert.Equal(t, "%", out.Attrs.Units)
	})

	t.Run("percentage without a period length warns and stays raw", func(t *testing.T) {
		var buf bytes.Buffer
		eval := NewEvaluator(WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))

		freq, err := BetweenDates(MonthDay{1, 5}, MonthDay{1, 14})
		require.NoError(t, err)
		s := constantSeries(t, "2001-01-01", 31, "degC", 30)
		th := NewScalarThreshold(OpGreater, 25, "degC")
		out, err := eval.Compute(context.Background(), CountOccurrences, IndicatorConfig{
			Variables: []*ClimateVariable{{Name: "tasmax", Series: s, Threshold: &th}},
			Frequency: freq,
			OutUnit:   "%",
		})
		require.NoError(t, err)
		assert.Equal(t, 10.0, out.Value(0, 0))
		assert.Equal(t, "d", out.Attrs.Units)
		assert.Contains(t, buf.String(), "no defined normalization")
	})

	t.Run("seasonal selection with missing policy", func(t *testing.T) {
		s := yearWithMissing(t, 151)
		th := NewScalarThreshold(OpGreater, 0.5, "degC")
		out, err := NewEvaluator().Compute(context.Background(), CountOccurrences, IndicatorConfig{
			Variables: []*ClimateVariable{{Name: "tasmax", Series: s, Threshold: &th}},
			Frequency: SummerJJA,
			Missing:   MissingPolicy{Method: MissingWMO},
		})
		require.NoError(t, err)
		// One hole: within WMO limits, the count survives.
		assert.Equal(t, 91.0, out.Value(0, 0))

		out, err = NewEvaluator().Compute(context.Background(), CountOccurrences, IndicatorConfig{
			Variables: []*ClimateVariable{{Name: "tasmax", Series: s, Threshold: &th}},
			Frequency: SummerJJA,
			Missing:   MissingPolicy{Method: MissingAny},
		})
		require.NoError(t, err)
		assertNaN(t, out.Value(0, 0))
	})

	t.Run("bootstrap provenance lands on the result", func(t *testing.T) {
		ref := constantSeries(t, "2000-01-01", 731, "degC", 10)
		for i := 366; i < 731; i++ {
			ref.SetValue(i, 0, 20)
		}
		doy, err := percentiles.BuildDoy(ref, 50, 1, percentiles.InterpLinear)
		require.NoError(t, err)
		th := NewDoyPercentileThreshold(OpGreater, doy, "degC")

		study := constantSeries(t, "2000-01-01", 1096, "degC", 16)
		out, err := NewEvaluator().Compute(context.Background(), CountOccurrences, IndicatorConfig{
			Variables: []*ClimateVariable{{Name: "tasmax", Series: study, Threshold: &th}},
			Frequency: Yearly,
		})
		require.NoError(t, err)
		require.Equal(t, 3, out.Len())
		assert.Equal(t, 0.0, out.Value(0, 0))
		assert.Equal(t, 365.0, out.Value(1, 0))
		assert.Equal(t, 365.0, out.Value(2, 0))
		assert.Equal(t, day("2000-01-01"), out.Attrs.ReferenceEpoch.Start)
		assert.Equal(t, day("2001-12-31"), out.Attrs.ReferenceEpoch.End)
	})

	t.Run("metrics count the outcome", func(t *testing.T) {
		metrics := observability.NewMetricsForTesting()
		eval := NewEvaluator(WithMetrics(metrics))

		s := dailySeries(t, "2001-01-01", "degC", []float64{1, 2, 3})
		_, err := eval.Compute(context.Background(), Average, IndicatorConfig{
			Variables: []*ClimateVariable{{Name: "tas", Series: s}},
			Frequency: Yearly,
		})
		require.NoError(t, err)
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ComputationsTotal.WithLabelValues("average", "success")))

		_, err = eval.Compute(context.Background(), Average, IndicatorConfig{Frequency: Yearly})
		require.Error(t, err)
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ComputationsTotal.WithLabelValues("average", "error")))
	})

	t.Run("cancelled context stops before work", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		s := dailySeries(t, "2001-01-01", "degC", []float64{1})
		_, err := NewEvaluator().Compute(ctx, Average, IndicatorConfig{
			Variables: []*ClimateVariable{{Name: "tas", Series: s}},
			Frequency: Yearly,
		})
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("nil indicator", func(t *testing.T) {
		_, err := NewEvaluator().Compute(context.Background(), nil, IndicatorConfig{})
		require.Error(t, err)
		assert.True(t, IsKind(err, KindConfig))
	})
}

func TestEvaluatorValidation(t *testing.T) {
	eval := NewEvaluator()
	ctx := context.Background()
	daily := func(values ...float64) *timeseries.Series {
		return dailySeries(t, "2001-01-01", "degC", values)
	}

	t.Run("no variables", func(t *testing.T) {
		_, err := eval.Compute(ctx, Average, IndicatorConfig{Frequency: Yearly})
		require.Error(t, err)
		assert.True(t, IsKind(err, KindConfig))
	})

	t.Run("wrong arity for a single-variable statistic", func(t *testing.T) {
		cfg := IndicatorConfig{
			Variables: []*ClimateVariable{
				plainVar("tasmax", daily(1, 2)),
				plainVar("tasmin", daily(1, 2)),
			},
			Frequency: Yearly,
		}
		_, err := eval.Compute(ctx, Average, cfg)
		require.Error(t, err)
		assert.True(t, IsKind(err, KindConfig))
	})

	t.Run("exceedance needs thresholds", func(t *testing.T) {
		cfg := IndicatorConfig{
			Variables: []*ClimateVariable{plainVar("tasmax", daily(1, 2))},
			Frequency: Yearly,
		}
		_, err := eval.Compute(ctx, CountOccurrences, cfg)
		require.Error(t, err)
		assert.True(t, IsKind(err, KindConfig))
	})

	t.Run("couple reducers refuse thresholds", func(t *testing.T) {
		cfg := IndicatorConfig{
			Variables: []*ClimateVariable{
				scalarVar("tasmax", daily(1, 2), OpGreater, 0),
				plainVar("tasmin", daily(1, 2)),
			},
			Frequency: Yearly,
		}
		_, err := eval.Compute(ctx, MeanOfDifference, cfg)
		require.Error(t, err)
		assert.True(t, IsKind(err, KindConfig))
	})

	t.Run("sampling method must be permitted", func(t *testing.T) {
		cfg := IndicatorConfig{
			Variables: []*ClimateVariable{scalarVar("tasmax", daily(1, 2), OpGreater, 0)},
			Frequency: Monthly,
			Sampling:  SamplingGroupBy,
		}
		_, err := eval.Compute(ctx, CountOccurrences, cfg)
		require.Error(t, err)
		assert.True(t, IsKind(err, KindConfig))
		assert.Contains(t, err.Error(), "does not permit")
	})

	t.Run("date events only where they mean something", func(t *testing.T) {
		cfg := IndicatorConfig{
			Variables: []*ClimateVariable{plainVar("pr", daily(1, 2))},
			Frequency: Yearly,
			DateEvent: true,
		}
		_, err := eval.Compute(ctx, Sum, cfg)
		require.Error(t, err)
		assert.True(t, IsKind(err, KindUnsupported))
	})

	t.Run("reference arm cannot pair by plain resampling", func(t *testing.T) {
		cfg := IndicatorConfig{
			Variables: []*ClimateVariable{
				plainVar("tas", daily(1, 2)),
				refVar("tas_ref", daily(1, 2)),
			},
			Frequency: Yearly,
		}
		_, err := eval.Compute(ctx, DifferenceOfMeans, cfg)
		require.Error(t, err)
		assert.True(t, IsKind(err, KindConfig))
	})

	t.Run("irregular sampling is rejected", func(t *testing.T) {
		times := []time.Time{day("2001-01-01"), day("2001-01-02"), day("2001-01-04")}
		s, err := timeseries.New(times, []float64{1, 2, 3}, 1)
		require.NoError(t, err)
		s.Attrs.Units = "degC"

		cfg := IndicatorConfig{
			Variables: []*ClimateVariable{plainVar("tas", s)},
			Frequency: Yearly,
		}
		_, err = eval.Compute(ctx, Average, cfg)
		require.Error(t, err)
		assert.True(t, IsKind(err, KindData))
	})

	t.Run("variables must share the sampling step", func(t *testing.T) {
		hourly := make([]time.Time, 24)
		for i := range hourly {
			hourly[i] = day("2001-01-01").Add(time.Duration(i) * time.Hour)
		}
		hs, err := timeseries.New(hourly, make([]float64, 24), 1)
		require.NoError(t, err)
		hs.Attrs.Units = "degC"

		cfg := IndicatorConfig{
			Variables: []*ClimateVariable{
				scalarVar("tasmax", daily(1, 2), OpGreater, 0),
				scalarVar("tasmin", hs, OpGreater, 0),
			},
			Frequency: Yearly,
		}
		_, err = eval.Compute(ctx, CountOccurrences, cfg)
		require.Error(t, err)
		assert.True(t, IsKind(err, KindData))
		assert.Contains(t, err.Error(), "sampling frequency")
	})

	t.Run("variables must share the cell count", func(t *testing.T) {
		wide, err := timeseries.New(dailyIndex("2001-01-01", 2), []float64{1, 2, 3, 4}, 2)
		require.NoError(t, err)
		wide.Attrs.Units = "degC"

		cfg := IndicatorConfig{
			Variables: []*ClimateVariable{
				scalarVar("tasmax", daily(1, 2), OpGreater, 0),
				scalarVar("tasmin", wide, OpGreater, 0),
			},
			Frequency: Yearly,
		}
		_, err = eval.Compute(ctx, CountOccurrences, cfg)
		require.Error(t, err)
		assert.True(t, IsKind(err, KindData))
	})

	t.Run("frequency is required", func(t *testing.T) {
		cfg := IndicatorConfig{
			Variables: []*ClimateVariable{plainVar("tas", daily(1, 2))},
		}
		_, err := eval.Compute(ctx, Average, cfg)
		require.Error(t, err)
		assert.True(t, IsKind(err, KindConfig))
	})

	t.Run("at_least_n needs a minimum", func(t *testing.T) {
		cfg := IndicatorConfig{
			Variables: []*ClimateVariable{plainVar("tas", daily(1, 2))},
			Frequency: Yearly,
			Missing:   MissingPolicy{Method: MissingAtLeastN},
		}
		_, err := eval.Compute(ctx, Average, cfg)
		require.Error(t, err)
		assert.True(t, IsKind(err, KindConfig))
	})

	t.Run("season with no data", func(t *testing.T) {
		s := constantSeries(t, "2001-06-01", 30, "degC", 1)
		cfg := IndicatorConfig{
			Variables: []*ClimateVariable{plainVar("tas", s)},
			Frequency: WinterDJF,
		}
		_, err := eval.Compute(ctx, Average, cfg)
		require.Error(t, err)
		assert.True(t, IsKind(err, KindData))
	})

	t.Run("standard name mismatch only warns", func(t *testing.T) {
		var buf bytes.Buffer
		logged := NewEvaluator(WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))

		s := daily(1, 2)
		s.Attrs.StandardName = "sea_surface_temperature"
		cfg := IndicatorConfig{
			Variables: []*ClimateVariable{plainVar("tasmax", s)},
			Frequency: Yearly,
		}
		_, err := logged.Compute(ctx, Average, cfg)
		require.NoError(t, err)
		assert.Contains(t, buf.String(), "standard name mismatch")
	})
}

func TestRegistry(t *testing.T) {
	t.Run("lookup by name", func(t *testing.T) {
		ind, ok := Lookup("count_occurrences")
		require.True(t, ok)
		assert.Equal(t, "count_occurrences", ind.Name())

		_, ok = Lookup("no_such_reduction")
		assert.False(t, ok)
	})

	t.Run("names are sorted and complete", func(t *testing.T) {
		names := Names()
		assert.Len(t, names, 19)
		assert.IsIncreasing(t, names)
		assert.Contains(t, names, "difference_of_means")
		assert.Contains(t, names, "sum_of_spell_lengths")
	})
}
