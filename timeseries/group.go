package timeseries

import (
	"sort"
	"time"
)

// Group is one bucket of a period grouping: the bucket label (period start
// for resampling, projected key for group-by) and the positions of the
// member time steps in the source index.
type Group struct {
	Label   time.Time
	Indices []int
}

// GroupBy buckets a time index. keyFn maps a timestamp to its bucket label
// and returns false to exclude the timestamp entirely (indexer filtering).
// Groups come back ordered by label; member indices stay ascending, so a
// contiguous source range stays contiguous inside its bucket.
func GroupBy(times []time.Time, keyFn func(time.Time) (time.Time, bool)) []Group {
	buckets := make(map[time.Time][]int)
	for i, t := range times {
		label, ok := keyFn(t)
		if !ok {
			continue
		}
		buckets[label] = append(buckets[label], i)
	}

	groups := make([]Group, 0, len(buckets))
	for label, idx := range buckets {
		groups = append(groups, Group{Label: label, Indices: idx})
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Label.Before(groups[j].Label)
	})
	return groups
}

// Labels extracts the bucket labels of a grouping, in order.
func Labels(groups []Group) []time.Time {
	out := make([]time.Time, len(groups))
	for i, g := range groups {
		out[i] = g.Label
	}
	return out
}
