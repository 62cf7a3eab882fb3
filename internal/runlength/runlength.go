// Package runlength encodes runs of true values in boolean masks. The
// encoding drives the consecutive-occurrence and spell-length reducers.
package runlength

import "math"

// Encode returns a time-major float array mirroring the mask layout: the
// first step of each run of true values holds the run's length, steps
// inside a run hold NaN, and false steps hold 0. Taking a per-period max
// over the encoding therefore attributes each run to the period containing
// its start, which is the attribution rule the spell reducers need.
func Encode(bits []bool, steps, cells int) []float64 {
	out := make([]float64, steps*cells)
	for c := 0; c < cells; c++ {
		i := 0
		for i < steps {
			if !bits[i*cells+c] {
				out[i*cells+c] = 0
				i++
				continue
			}
			start := i
			for i < steps && bits[i*cells+c] {
				i++
			}
			out[start*cells+c] = float64(i - start)
			for j := start + 1; j < i; j++ {
				out[j*cells+c] = math.NaN()
			}
		}
	}
	return out
}

// LongestMissingRun returns, per cell, the longest consecutive run of true
// values among the given step indices. Used by the WMO missing-data rule,
// where the mask marks missing steps. Indices must be ascending; a gap in
// the index list breaks the run.
func LongestMissingRun(bits []bool, cells int, indices []int, cell int) int {
	longest, current, prev := 0, 0, -2
	for _, i := range indices {
		if !bits[i*cells+cell] {
			current = 0
			prev = i
			continue
		}
		if i == prev+1 {
			current++
		} else {
			current = 1
		}
		prev = i
		if current > longest {
			longest = current
		}
	}
	return longest
}
