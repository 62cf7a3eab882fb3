// Package timeseries provides the in-memory labelled arrays the indicator
// engine computes on: a regular time index crossed with a flattened cell
// (grid point) dimension, with NaN encoding missing values.
package timeseries

import (
	"fmt"
	"math"
	"time"
)

// Epoch is a closed time interval, used to record the reference period a
// percentile climatology was built from.
type Epoch struct {
	Start time.Time
	End   time.Time
}

// IsZero reports whether both bounds are unset.
func (e Epoch) IsZero() bool {
	return e.Start.IsZero() && e.End.IsZero()
}

// Contains reports whether t falls inside the epoch, bounds included.
func (e Epoch) Contains(t time.Time) bool {
	return !t.Before(e.Start) && !t.After(e.End)
}

// Attrs carries the descriptive metadata attached to a Series. The engine
// rewrites these on every computation; inputs only need Units set.
type Attrs struct {
	Units        string
	StandardName string
	LongName     string
	CellMethods  string
	History      string

	// ReferenceEpoch records the climatology bounds of a percentile
	// threshold when bootstrap correction ran for this result.
	ReferenceEpoch Epoch

	// GroupedBy names the group-by key ("month", "dayofyear", "span") when
	// the result was produced by label grouping rather than resampling. The
	// time index of such a result projects the key onto the first study
	// year.
	GroupedBy string
}

// Series is a regularly sampled time series over one or more grid cells.
// Values are stored time-major: the value for step i and cell c sits at
// data[i*cells+c]. NaN marks a missing value.
//
// The time index is strictly ascending and shared by every cell. A Series
// with one cell models a single station or point; gridded data flattens its
// spatial dimensions into the cell axis.
type Series struct {
	times []time.Time
	data  []float64
	cells int

	Attrs Attrs

	// Event coordinates are set by date-event reductions and align with the
	// data layout. The zero time.Time means no event occurred in a period.
	// Event holds point-event timestamps (extrema); EventStart and EventEnd
	// bound runs and rolling windows.
	Event      []time.Time
	EventStart []time.Time
	EventEnd   []time.Time
}

// New builds a Series from a strictly ascending time index and a time-major
// payload of len(times)*cells values.
func New(times []time.Time, data []float64, cells int) (*Series, error) {
	if cells < 1 {
		return nil, fmt.Errorf("new series: cells must be >= 1, got %d", cells)
	}
	if len(data) != len(times)*cells {
		return nil, fmt.Errorf("new series: data length %d does not match %d steps x %d cells", len(data), len(times), cells)
	}
	for i := 1; i < len(times); i++ {
		if !times[i].After(times[i-1]) {
			return nil, fmt.Errorf("new series: time index not strictly ascending at position %d (%s)", i, times[i].Format(time.RFC3339))
		}
	}
	return &Series{times: times, data: data, cells: cells}, nil
}

// Len returns the number of time steps.
func (s *Series) Len() int { return len(s.times) }

// Cells returns the size of the flattened cell dimension.
func (s *Series) Cells() int { return s.cells }

// Times returns the underlying time index. Callers must not mutate it.
func (s *Series) Times() []time.Time { return s.times }

// Time returns the timestamp of step i.
func (s *Series) Time(i int) time.Time { return s.times[i] }

// Value returns the value at time step i for cell c.
func (s *Series) Value(i, c int) float64 { return s.data[i*s.cells+c] }

// SetValue overwrites the value at time step i for cell c.
func (s *Series) SetValue(i, c int, v float64) { s.data[i*s.cells+c] = v }

// Values returns the raw time-major payload. Callers must not resize it.
func (s *Series) Values() []float64 { return s.data }

// Clone returns a deep copy, attributes and event coordinates included.
func (s *Series) Clone() *Series {
	out := &Series{
		times: append([]time.Time(nil), s.times...),
		data:  append([]float64(nil), s.data...),
		cells: s.cells,
		Attrs: s.Attrs,
	}
	if s.Event != nil {
		out.Event = append([]time.Time(nil), s.Event...)
	}
	if s.EventStart != nil {
		out.EventStart = append([]time.Time(nil), s.EventStart...)
	}
	if s.EventEnd != nil {
		out.EventEnd = append([]time.Time(nil), s.EventEnd...)
	}
	return out
}

// Step infers the sampling interval from the first two timestamps.
func (s *Series) Step() (time.Duration, error) {
	if len(s.times) < 2 {
		return 0, fmt.Errorf("infer step: need at least 2 time steps, got %d", len(s.times))
	}
	return s.times[1].Sub(s.times[0]), nil
}

// CheckRegularStep verifies that every consecutive pair of timestamps is
// separated by the same interval. Run this on raw inputs before any
// indexer filtering, which deliberately punches seasonal gaps.
func (s *Series) CheckRegularStep() error {
	step, err := s.Step()
	if err != nil {
		return err
	}
	for i := 2; i < len(s.times); i++ {
		if d := s.times[i].Sub(s.times[i-1]); d != step {
			return fmt.Errorf("irregular time step at %s: got %s, want %s", s.times[i].Format("2006-01-02"), d, step)
		}
	}
	return nil
}

// Select returns a new Series keeping only the time steps for which keep
// returns true. Attributes are carried over; event coordinates are not.
func (s *Series) Select(keep func(time.Time) bool) *Series {
	times := make([]time.Time, 0, len(s.times))
	data := make([]float64, 0, len(s.data))
	for i, t := range s.times {
		if !keep(t) {
			continue
		}
		times = append(times, t)
		data = append(data, s.data[i*s.cells:(i+1)*s.cells]...)
	}
	return &Series{times: times, data: data, cells: s.cells, Attrs: s.Attrs}
}

// SelectRange returns the sub-series with from <= t <= to, bounds included.
func (s *Series) SelectRange(from, to time.Time) *Series {
	return s.Select(func(t time.Time) bool {
		return !t.Before(from) && !t.After(to)
	})
}

// Years returns the distinct calendar years present, ascending.
func (s *Series) Years() []int {
	years := make([]int, 0, 8)
	last := 0
	for _, t := range s.times {
		if y := t.Year(); len(years) == 0 || y != last {
			years = append(years, y)
			last = y
		}
	}
	return years
}

// CountValid returns the number of non-NaN values for cell c among the
// given time steps.
func (s *Series) CountValid(indices []int, c int) int {
	n := 0
	for _, i := range indices {
		if !math.IsNaN(s.Value(i, c)) {
			n++
		}
	}
	return n
}

// AlignIntersect restricts both series to their common timestamps and
// returns the restricted copies. Both inputs must have the same cell count.
// An empty intersection is an error: elementwise arithmetic on disjoint
// series has no meaningful result.
func AlignIntersect(a, b *Series) (*Series, *Series, error) {
	if a.cells != b.cells {
		return nil, nil, fmt.Errorf("align series: cell counts differ (%d vs %d)", a.cells, b.cells)
	}
	set := make(map[time.Time]struct{}, len(b.times))
	for _, t := range b.times {
		set[t] = struct{}{}
	}
	keep := func(t time.Time) bool {
		_, ok := set[t]
		return ok
	}
	left := a.Select(keep)

	set = make(map[time.Time]struct{}, len(left.times))
	for _, t := range left.times {
		set[t] = struct{}{}
	}
	right := b.Select(keep)

	if left.Len() == 0 {
		return nil, nil, fmt.Errorf("align series: no common timestamps")
	}
	return left, right, nil
}
