package timeseries

import (
	"fmt"
	"math"
	"time"
)

// RollingSum computes a left-aligned rolling sum: the value at step i
// covers the window [i, i+window-1], so an extremum's timestamp is the
// window start. The trailing window-1 steps and any window containing a
// NaN come back as NaN.
func RollingSum(s *Series, window int) (*Series, error) {
	return rolling(s, window, false)
}

// RollingMean computes a left-aligned rolling mean with the same window
// and NaN semantics as RollingSum.
func RollingMean(s *Series, window int) (*Series, error) {
	return rolling(s, window, true)
}

func rolling(s *Series, window int, mean bool) (*Series, error) {
	if window < 1 {
		return nil, fmt.Errorf("rolling window must be >= 1, got %d", window)
	}
	n := s.Len()
	cells := s.Cells()
	data := make([]float64, n*cells)
	for i := range data {
		data[i] = math.NaN()
	}

	for c := 0; c < cells; c++ {
		if n < window {
			continue
		}
		sum := 0.0
		nans := 0
		for i := 0; i < window; i++ {
			v := s.Value(i, c)
			if math.IsNaN(v) {
				nans++
			} else {
				sum += v
			}
		}
		for i := 0; ; i++ {
			if nans == 0 {
				v := sum
				if mean {
					v /= float64(window)
				}
				data[i*cells+c] = v
			}
			if i+window >= n {
				break
			}
			if out := s.Value(i, c); math.IsNaN(out) {
				nans--
			} else {
				sum -= out
			}
			if in := s.Value(i+window, c); math.IsNaN(in) {
				nans++
			} else {
				sum += in
			}
		}
	}

	out := &Series{
		times: append([]time.Time(nil), s.times...),
		data:  data,
		cells: cells,
		Attrs: s.Attrs,
	}
	return out, nil
}
