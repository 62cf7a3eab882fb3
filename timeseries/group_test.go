package timeseries

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func monthStart(t time.Time) (time.Time, bool) {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC), true
}

func TestGroupBy(t *testing.T) {
	t.Run("buckets by month with ordered labels", func(t *testing.T) {
		times := dailyIndex(t, "2000-01-30", 5) // Jan 30, 31, Feb 1, 2, 3
		groups := GroupBy(times, monthStart)

		require.Len(t, groups, 2)
		assert.Equal(t, time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), groups[0].Label)
		assert.Equal(t, []int{0, 1}, groups[0].Indices)
		assert.Equal(t, time.Date(2000, 2, 1, 0, 0, 0, 0, time.UTC), groups[1].Label)
		assert.Equal(t, []int{2, 3, 4}, groups[1].Indices)
	})

	t.Run("excluded timestamps never appear", func(t *testing.T) {
		times := dailyIndex(t, "2000-01-30", 5)
		groups := GroupBy(times, func(tm time.Time) (time.Time, bool) {
			if tm.Month() != time.February {
				return time.Time{}, false
			}
			return monthStart(tm)
		})

		require.Len(t, groups, 1)
		assert.Equal(t, []int{2, 3, 4}, groups[0].Indices)
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, GroupBy(nil, monthStart))
	})

	t.Run("labels helper", func(t *testing.T) {
		times := dailyIndex(t, "2000-01-30", 5)
		groups := GroupBy(times, monthStart)
		labels := Labels(groups)
		require.Len(t, labels, 2)
		assert.True(t, labels[0].Before(labels[1]))
	})
}
