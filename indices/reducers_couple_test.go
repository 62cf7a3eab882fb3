package indices

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thebaptiste/icclim/timeseries"
)

func refVar(name string, s *timeseries.Series) *ClimateVariable {
	return &ClimateVariable{Name: name, Series: s, Reference: true}
}

// monthValue returns jan for January timestamps and feb for the rest.
func monthValue(jan, feb float64) func(time.Time) float64 {
	return func(tm time.Time) float64 {
		if tm.Month() == time.January {
			return jan
		}
		return feb
	}
}

// twoYears builds two consecutive constant years starting 2001-01-01.
func twoYears(t *testing.T, unit string, first, second float64) *timeseries.Series {
	t.Helper()
	values := make([]float64, 730)
	for i := range values {
		if i < 365 {
			values[i] = first
		} else {
			values[i] = second
		}
	}
	return dailySeries(t, "2001-01-01", unit, values)
}

func TestMeanOfDifference(t *testing.T) {
	t.Run("diurnal range", func(t *testing.T) {
		hi := plainVar("tasmax", dailySeries(t, "2001-01-01", "degC", []float64{10, 12}))
		lo := plainVar("tasmin", dailySeries(t, "2001-01-01", "degC", []float64{9, 10}))

		out, err := meanOfDifference(testInput(Yearly, hi, lo))
		require.NoError(t, err)
		assert.InDelta(t, 1.5, out.Value(0, 0), 1e-12)
		assert.Equal(t, "degC", out.Attrs.Units)
	})

	t.Run("opposed ramps cancel", func(t *testing.T) {
		a := plainVar("tasmax", dailySeries(t, "2001-01-01", "degC", []float64{1, 2, 3}))
		b := plainVar("tasmin", dailySeries(t, "2001-01-01", "degC", []float64{3, 2, 1}))

		out, err := meanOfDifference(testInput(Yearly, a, b))
		require.NoError(t, err)
		assert.InDelta(t, 0.0, out.Value(0, 0), 1e-12)
	})

	t.Run("second arm converts into the first's unit", func(t *testing.T) {
		hi := plainVar("tasmax", dailySeries(t, "2001-01-01", "degC", []float64{10, 12}))
		lo := plainVar("tasmin", dailySeries(t, "2001-01-01", "K", []float64{282.15, 283.15}))

		out, err := meanOfDifference(testInput(Yearly, hi, lo))
		require.NoError(t, err)
		assert.InDelta(t, 1.5, out.Value(0, 0), 1e-9)
	})

	t.Run("steps missing on either arm are skipped", func(t *testing.T) {
		hi := plainVar("tasmax", dailySeries(t, "2001-01-01", "degC", []float64{10, nan()}))
		lo := plainVar("tasmin", dailySeries(t, "2001-01-01", "degC", []float64{9, 8}))

		out, err := meanOfDifference(testInput(Yearly, hi, lo))
		require.NoError(t, err)
		assert.InDelta(t, 1.0, out.Value(0, 0), 1e-12)
	})

	t.Run("needs exactly two variables", func(t *testing.T) {
		a := plainVar("tasmax", dailySeries(t, "2001-01-01", "degC", []float64{10}))
		_, err := meanOfDifference(testInput(Yearly, a))
		require.Error(t, err)
		assert.True(t, IsKind(err, KindConfig))
	})
}

func TestDifferenceOfExtremes(t *testing.T) {
	t.Run("max of first minus min of second", func(t *testing.T) {
		a := plainVar("tasmax", dailySeries(t, "2001-01-01", "degC", []float64{1, 2, 3}))
		b := plainVar("tasmin", dailySeries(t, "2001-01-01", "degC", []float64{3, 2, 1}))

		out, err := differenceOfExtremes(testInput(Yearly, a, b))
		require.NoError(t, err)
		assert.Equal(t, 2.0, out.Value(0, 0))
	})

	t.Run("an arm with no valid values is undefined", func(t *testing.T) {
		a := plainVar("tasmax", dailySeries(t, "2001-01-01", "degC", []float64{1, 2}))
		b := plainVar("tasmin", dailySeries(t, "2001-01-01", "degC", []float64{nan(), nan()}))

		out, err := differenceOfExtremes(testInput(Yearly, a, b))
		require.NoError(t, err)
		assertNaN(t, out.Value(0, 0))
	})
}

func TestMeanOfAbsoluteOneTimeStepDifference(t *testing.T) {
	hi := plainVar("tasmax", dailySeries(t, "2001-01-01", "degC", []float64{10, 12, 11}))
	lo := plainVar("tasmin", dailySeries(t, "2001-01-01", "degC", []float64{5, 6, 4}))

	out, err := meanOfAbsoluteOneTimeStepDifference(testInput(Yearly, hi, lo))
	require.NoError(t, err)
	// Daily ranges 5, 6, 7: two one-step moves of 1 each.
	assert.InDelta(t, 1.0, out.Value(0, 0), 1e-12)
	assert.Equal(t, "degC", out.Attrs.Units)
}

func TestDifferenceOfMeans(t *testing.T) {
	t.Run("resampling pairs periods by label", func(t *testing.T) {
		study := plainVar("tas", constantSeries(t, "2001-01-01", 59, "degC", 10))
		ref := refVar("tas_ref", constantSeries(t, "2001-01-01", 59, "degC", 10))
		in := testInput(Monthly, study, ref)

		out, err := differenceOfMeans(in)
		require.NoError(t, err)
		require.Equal(t, 2, out.Len())
		assert.Equal(t, 0.0, out.Value(0, 0))
		assert.Equal(t, 0.0, out.Value(1, 0))
		assert.Empty(t, out.Attrs.GroupedBy)
	})

	t.Run("resampling with disjoint years finds nothing", func(t *testing.T) {
		study := plainVar("tas", constantSeries(t, "2001-01-01", 31, "degC", 10))
		ref := refVar("tas_ref", constantSeries(t, "2000-01-01", 31, "degC", 4))
		in := testInput(Monthly, study, ref)

		_, err := differenceOfMeans(in)
		require.Error(t, err)
		assert.True(t, IsKind(err, KindData))
	})

	t.Run("group by month matches across years", func(t *testing.T) {
		study := plainVar("tas", generatedSeries(t, "2001-01-01", 59, "degC", monthValue(10, 20)))
		ref := refVar("tas_ref", generatedSeries(t, "2000-01-01", 60, "degC", monthValue(4, 8)))
		in := testInput(Monthly, study, ref)
		in.sampling = SamplingGroupBy

		out, err := differenceOfMeans(in)
		require.NoError(t, err)
		require.Equal(t, 2, out.Len())
		assert.Equal(t, day("2001-01-01"), out.Time(0))
		assert.Equal(t, day("2001-02-01"), out.Time(1))
		assert.InDelta(t, 6.0, out.Value(0, 0), 1e-12)
		assert.InDelta(t, 12.0, out.Value(1, 0), 1e-12)
		assert.Equal(t, "month", out.Attrs.GroupedBy)
	})

	t.Run("mixed strategy holds the reference mean still", func(t *testing.T) {
		sv := plainVar("tas", twoYears(t, "degC", 5, 15))
		ref := refVar("tas_ref", constantSeries(t, "2000-01-01", 366, "degC", 10))
		in := testInput(Yearly, sv, ref)
		in.sampling = SamplingGroupByRefAndResampleStudy

		out, err := differenceOfMeans(in)
		require.NoError(t, err)
		require.Equal(t, 2, out.Len())
		assert.InDelta(t, -5.0, out.Value(0, 0), 1e-12)
		assert.InDelta(t, 5.0, out.Value(1, 0), 1e-12)
	})

	t.Run("group strategies agree on stationary data", func(t *testing.T) {
		fused := testInput(Monthly,
			plainVar("tas", constantSeries(t, "2001-01-01", 59, "degC", 10)),
			refVar("tas_ref", constantSeries(t, "2000-01-01", 60, "degC", 4)))
		fused.sampling = SamplingGroupBy
		byGroup, err := differenceOfMeans(fused)
		require.NoError(t, err)

		mixed := testInput(Monthly,
			plainVar("tas", constantSeries(t, "2001-01-01", 59, "degC", 10)),
			refVar("tas_ref", constantSeries(t, "2000-01-01", 60, "degC", 4)))
		mixed.sampling = SamplingGroupByRefAndResampleStudy
		resampled, err := differenceOfMeans(mixed)
		require.NoError(t, err)

		require.Equal(t, byGroup.Len(), resampled.Len())
		for i := 0; i < byGroup.Len(); i++ {
			assert.InDelta(t, 6.0, byGroup.Value(i, 0), 1e-12)
			assert.InDelta(t, byGroup.Value(i, 0), resampled.Value(i, 0), 1e-12)
		}
	})

	t.Run("percent anomaly against the reference", func(t *testing.T) {
		sv := plainVar("tas", constantSeries(t, "2001-01-01", 365, "degC", 20))
		ref := refVar("tas_ref", constantSeries(t, "2000-01-01", 366, "degC", 10))
		in := testInput(Yearly, sv, ref)
		in.sampling = SamplingGroupByRefAndResampleStudy
		in.toPercent = true

		out, err := differenceOfMeans(in)
		require.NoError(t, err)
		assert.InDelta(t, 100.0, out.Value(0, 0), 1e-9)
		assert.Equal(t, "%", out.Attrs.Units)
	})

	t.Run("reference converts into the study unit", func(t *testing.T) {
		sv := plainVar("tas", constantSeries(t, "2001-01-01", 365, "degC", 20))
		ref := refVar("tas_ref", constantSeries(t, "2000-01-01", 366, "K", 283.15))
		in := testInput(Yearly, sv, ref)
		in.sampling = SamplingGroupByRefAndResampleStudy

		out, err := differenceOfMeans(in)
		require.NoError(t, err)
		assert.InDelta(t, 10.0, out.Value(0, 0), 1e-9)
		assert.Equal(t, "degC", out.Attrs.Units)
	})
}
