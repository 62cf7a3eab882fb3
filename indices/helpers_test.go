package indices

import (
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/thebaptiste/icclim/timeseries"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func dailyIndex(start string, days int) []time.Time {
	first := day(start)
	times := make([]time.Time, days)
	for i := range times {
		times[i] = first.AddDate(0, 0, i)
	}
	return times
}

// dailySeries builds a single-cell daily series starting at start.
func dailySeries(t *testing.T, start string, unit string, values []float64) *timeseries.Series {
	t.Helper()
	s, err := timeseries.New(dailyIndex(start, len(values)), values, 1)
	require.NoError(t, err)
	s.Attrs.Units = unit
	return s
}

// constantSeries builds a daily series holding the same value every day.
func constantSeries(t *testing.T, start string, days int, unit string, value float64) *timeseries.Series {
	t.Helper()
	values := make([]float64, days)
	for i := range values {
		values[i] = value
	}
	return dailySeries(t, start, unit, values)
}

// generatedSeries builds a daily series with one value per timestamp.
func generatedSeries(t *testing.T, start string, days int, unit string, f func(time.Time) float64) *timeseries.Series {
	t.Helper()
	times := dailyIndex(start, days)
	values := make([]float64, days)
	for i, tm := range times {
		values[i] = f(tm)
	}
	s, err := timeseries.New(times, values, 1)
	require.NoError(t, err)
	s.Attrs.Units = unit
	return s
}

// scalarVar wraps a series with a scalar threshold in the series' unit.
func scalarVar(name string, s *timeseries.Series, op Operator, value float64) *ClimateVariable {
	th := NewScalarThreshold(op, value, s.Attrs.Units)
	return &ClimateVariable{Name: name, Series: s, Threshold: &th}
}

func plainVar(name string, s *timeseries.Series) *ClimateVariable {
	return &ClimateVariable{Name: name, Series: s}
}

// testInput assembles a reduceInput the way preprocess would, with a
// silent logger and daily sampling.
func testInput(freq Frequency, vars ...*ClimateVariable) reduceInput {
	in := reduceInput{
		freq:     freq,
		step:     24 * time.Hour,
		window:   5,
		minSpell: 6,
		link:     LinkAnd,
		sampling: SamplingResample,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, v := range vars {
		if ix := freq.Indexer; ix != nil {
			v = &ClimateVariable{
				Name:      v.Name,
				Series:    v.Series.Select(ix.Contains),
				Threshold: v.Threshold,
				Reference: v.Reference,
			}
		}
		if v.Reference {
			in.refVars = append(in.refVars, v)
		} else {
			in.vars = append(in.vars, v)
		}
	}
	return in
}

func nan() float64 { return math.NaN() }

func assertNaN(t *testing.T, v float64) {
	t.Helper()
	require.True(t, math.IsNaN(v), "expected NaN, got %v", v)
}
