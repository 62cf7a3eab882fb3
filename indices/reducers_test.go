package indices

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// spellValues lays out consecutive runs: ones(10) zeros(5) reads as ten
// exceeding days followed by five quiet ones.
func spellValues(runs ...int) []float64 {
	var out []float64
	on := true
	for _, n := range runs {
		v := 0.0
		if on {
			v = 1
		}
		for i := 0; i < n; i++ {
			out = append(out, v)
		}
		on = !on
	}
	return out
}

func TestCountOccurrences(t *testing.T) {
	t.Run("counts exceeding days with event dates", func(t *testing.T) {
		s := dailySeries(t, "2001-01-01", "degC", spellValues(10, 5))
		in := testInput(Yearly, scalarVar("tasmax", s, OpGreater, 0.5))
		in.dateEvent = true

		out, err := countOccurrences(in)
		require.NoError(t, err)
		require.Equal(t, 1, out.Len())
		assert.Equal(t, 10.0, out.Value(0, 0))
		assert.Equal(t, "d", out.Attrs.Units)
		assert.Equal(t, day("2001-01-01"), out.EventStart[0])
		assert.Equal(t, day("2001-01-10"), out.EventEnd[0])
	})

	t.Run("linked variables are order independent", func(t *testing.T) {
		a := scalarVar("tasmax", dailySeries(t, "2001-01-01", "degC", spellValues(10, 5)), OpGreater, 0.5)
		b := scalarVar("tasmin", dailySeries(t, "2001-01-01", "degC", spellValues(0, 5, 10)), OpGreater, 0.5)

		and := testInput(Yearly, a, b)
		out, err := countOccurrences(and)
		require.NoError(t, err)
		assert.Equal(t, 5.0, out.Value(0, 0))

		flipped := testInput(Yearly, b, a)
		swapped, err := countOccurrences(flipped)
		require.NoError(t, err)
		assert.Equal(t, out.Value(0, 0), swapped.Value(0, 0))

		or := testInput(Yearly, a, b)
		or.link = LinkOr
		union, err := countOccurrences(or)
		require.NoError(t, err)
		assert.Equal(t, 15.0, union.Value(0, 0))
	})

	t.Run("full month reads one hundred percent", func(t *testing.T) {
		s := constantSeries(t, "2001-01-01", 31, "degC", 1)
		in := testInput(Monthly, scalarVar("tasmax", s, OpGreater, 0.5))
		in.toPercent = true

		out, err := countOccurrences(in)
		require.NoError(t, err)
		assert.Equal(t, 100.0, out.Value(0, 0))
		assert.Equal(t, "%", out.Attrs.Units)
	})

	t.Run("unknown period length keeps the raw count", func(t *testing.T) {
		freq, err := BetweenDates(MonthDay{1, 5}, MonthDay{1, 14})
		require.NoError(t, err)
		s := constantSeries(t, "2001-01-01", 31, "degC", 1)
		in := testInput(freq, scalarVar("tasmax", s, OpGreater, 0.5))
		in.toPercent = true

		out, err := countOccurrences(in)
		require.NoError(t, err)
		assert.Equal(t, 10.0, out.Value(0, 0))
		assert.Equal(t, "d", out.Attrs.Units)
	})

	t.Run("misaligned variables are rejected", func(t *testing.T) {
		a := scalarVar("tasmax", dailySeries(t, "2001-01-01", "degC", spellValues(5)), OpGreater, 0.5)
		b := scalarVar("tasmin", dailySeries(t, "2001-01-02", "degC", spellValues(5)), OpGreater, 0.5)
		_, err := countOccurrences(testInput(Yearly, a, b))
		require.Error(t, err)
		assert.True(t, IsKind(err, KindData))
	})
}

func TestMaxConsecutiveOccurrence(t *testing.T) {
	t.Run("longest run per year", func(t *testing.T) {
		s := dailySeries(t, "2001-01-01", "degC", spellValues(10, 5, 3))
		in := testInput(Yearly, scalarVar("tasmax", s, OpGreater, 0.5))
		in.dateEvent = true

		out, err := maxConsecutiveOccurrence(in)
		require.NoError(t, err)
		assert.Equal(t, 10.0, out.Value(0, 0))
		assert.Equal(t, day("2001-01-01"), out.EventStart[0])
		assert.Equal(t, day("2001-01-11"), out.EventEnd[0])
	})

	t.Run("no exceedance is a plain zero", func(t *testing.T) {
		s := constantSeries(t, "2001-01-01", 20, "degC", 0)
		in := testInput(Yearly, scalarVar("tasmax", s, OpGreater, 0.5))

		out, err := maxConsecutiveOccurrence(in)
		require.NoError(t, err)
		assert.Equal(t, 0.0, out.Value(0, 0))
	})

	t.Run("runs belong to the period of their start", func(t *testing.T) {
		// Dec 2000 through Feb 2001; one run from Dec 25 to Jan 31.
		values := spellValues(0, 24, 38, 28)
		require.Len(t, values, 90)
		s := dailySeries(t, "2000-12-01", "degC", values)
		in := testInput(Monthly, scalarVar("tasmax", s, OpGreater, 0.5))

		out, err := maxConsecutiveOccurrence(in)
		require.NoError(t, err)
		require.Equal(t, 3, out.Len())
		assert.Equal(t, 38.0, out.Value(0, 0))
		// January holds only the middle of the December run.
		assertNaN(t, out.Value(1, 0))
		assert.Equal(t, 0.0, out.Value(2, 0))
	})
}

func TestSumOfSpellLengths(t *testing.T) {
	t.Run("runs below the minimum vanish", func(t *testing.T) {
		// A run of five, then one of six, under a six-day minimum.
		s := dailySeries(t, "2001-01-01", "degC", spellValues(5, 1, 6, 3))
		in := testInput(Yearly, scalarVar("tasmax", s, OpGreater, 0.5))
		in.dateEvent = true

		out, err := sumOfSpellLengths(in)
		require.NoError(t, err)
		assert.Equal(t, 6.0, out.Value(0, 0))
		assert.Equal(t, day("2001-01-07"), out.EventStart[0])
		assert.Equal(t, day("2001-01-13"), out.EventEnd[0])
	})

	t.Run("raising the minimum past the longest run zeroes the period", func(t *testing.T) {
		s := dailySeries(t, "2001-01-01", "degC", spellValues(5, 1, 6, 3))
		in := testInput(Yearly, scalarVar("tasmax", s, OpGreater, 0.5))
		in.minSpell = 7

		out, err := sumOfSpellLengths(in)
		require.NoError(t, err)
		assert.Equal(t, 0.0, out.Value(0, 0))
	})

	t.Run("longest qualifying run wins", func(t *testing.T) {
		s := dailySeries(t, "2001-01-01", "degC", spellValues(6, 2, 8, 1))
		in := testInput(Yearly, scalarVar("tasmax", s, OpGreater, 0.5))

		out, err := sumOfSpellLengths(in)
		require.NoError(t, err)
		assert.Equal(t, 8.0, out.Value(0, 0))
	})
}

func TestExcessAndDeficit(t *testing.T) {
	s := dailySeries(t, "2001-01-01", "degC", []float64{5, 10, 15, nan()})
	v := scalarVar("tas", s, OpGreater, 10)

	t.Run("excess integrates above the threshold", func(t *testing.T) {
		out, err := excess(testInput(Yearly, v))
		require.NoError(t, err)
		assert.Equal(t, 5.0, out.Value(0, 0))
		assert.Equal(t, "degC d", out.Attrs.Units)
	})

	t.Run("deficit integrates below it", func(t *testing.T) {
		out, err := deficit(testInput(Yearly, v))
		require.NoError(t, err)
		assert.Equal(t, 5.0, out.Value(0, 0))
		assert.Equal(t, "degC d", out.Attrs.Units)
	})

	t.Run("threshold is required", func(t *testing.T) {
		_, err := excess(testInput(Yearly, plainVar("tas", s)))
		require.Error(t, err)
		assert.True(t, IsKind(err, KindConfig))
	})
}

func TestFractionOfTotal(t *testing.T) {
	t.Run("ratio of exceeding to total", func(t *testing.T) {
		s := dailySeries(t, "2001-01-01", "mm/day", []float64{7, 3})
		in := testInput(Yearly, scalarVar("pr", s, OpGreater, 5))

		out, err := fractionOfTotal(in)
		require.NoError(t, err)
		assert.InDelta(t, 0.7, out.Value(0, 0), 1e-12)
		assert.Equal(t, "1", out.Attrs.Units)
	})

	t.Run("percent output scales by one hundred", func(t *testing.T) {
		s := dailySeries(t, "2001-01-01", "mm/day", []float64{7, 3})
		in := testInput(Yearly, scalarVar("pr", s, OpGreater, 5))
		in.toPercent = true

		out, err := fractionOfTotal(in)
		require.NoError(t, err)
		assert.InDelta(t, 70.0, out.Value(0, 0), 1e-9)
		assert.Equal(t, "%", out.Attrs.Units)
	})

	t.Run("min value guard trims both sums", func(t *testing.T) {
		s := dailySeries(t, "2001-01-01", "mm/day", []float64{2, 7, 0.5})
		th := NewScalarThreshold(OpGreaterOrEqual, 5, "mm/day")
		th.MinValue = 1
		v := &ClimateVariable{Name: "pr", Series: s, Threshold: &th}

		out, err := fractionOfTotal(testInput(Yearly, v))
		require.NoError(t, err)
		assert.InDelta(t, 7.0/9.0, out.Value(0, 0), 1e-12)
	})

	t.Run("a period with nothing to sum is undefined", func(t *testing.T) {
		s := dailySeries(t, "2001-01-01", "mm/day", []float64{nan(), nan()})
		in := testInput(Yearly, scalarVar("pr", s, OpGreater, 5))

		out, err := fractionOfTotal(in)
		require.NoError(t, err)
		assertNaN(t, out.Value(0, 0))
	})
}
