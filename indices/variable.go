package indices

import (
	"time"

	"github.com/thebaptiste/icclim/timeseries"
)

// ClimateVariable binds an input series to the threshold it is compared
// against. Reducers that need no comparison leave Threshold nil.
type ClimateVariable struct {
	Name      string
	Series    *timeseries.Series
	Threshold *Threshold
	// Reference marks a variable that only provides baseline data, such
	// as the reference arm of a difference of means.
	Reference bool
}

// clone copies the variable deeply enough that preprocessing never
// touches the caller's data. The day-of-year climatology is immutable
// and stays shared.
func (v *ClimateVariable) clone() *ClimateVariable {
	out := &ClimateVariable{Name: v.Name, Series: v.Series.Clone(), Reference: v.Reference}
	if v.Threshold != nil {
		th := *v.Threshold
		if th.PerCell != nil {
			th.PerCell = append([]float64(nil), th.PerCell...)
		}
		out.Threshold = &th
	}
	return out
}

// VariableSpec carries the optional shaping applied when building a
// climate variable from a raw series.
type VariableSpec struct {
	Name string
	// TimeRange subsets the series, inclusive on both bounds. The zero
	// epoch keeps the full extent.
	TimeRange timeseries.Epoch
	// IgnoreFeb29 drops every February 29 so leap years align with
	// common years.
	IgnoreFeb29 bool
	// Reference marks the variable as baseline-only.
	Reference bool
}

// BuildVariable shapes a raw series per the spec and binds it to a
// threshold. The input series is not modified.
func BuildVariable(spec VariableSpec, s *timeseries.Series, th *Threshold) (*ClimateVariable, error) {
	shaped := s
	if !spec.TimeRange.IsZero() {
		shaped = shaped.SelectRange(spec.TimeRange.Start, spec.TimeRange.End)
		if shaped.Len() == 0 {
			return nil, newDataError("variable %q has no data between %s and %s",
				spec.Name, spec.TimeRange.Start.Format("2006-01-02"), spec.TimeRange.End.Format("2006-01-02"))
		}
	}
	if spec.IgnoreFeb29 {
		shaped = shaped.Select(func(t time.Time) bool {
			return !(t.Month() == time.February && t.Day() == 29)
		})
	}
	if shaped == s {
		shaped = s.Clone()
	}
	return &ClimateVariable{
		Name:      spec.Name,
		Series:    shaped,
		Threshold: th,
		Reference: spec.Reference,
	}, nil
}

// SelectReference extracts the reference portion of a series for
// percentile estimation. With onlyLeapYears set, only timestamps falling
// in leap years survive, which keeps a day-of-year climatology defined
// on February 29.
func SelectReference(s *timeseries.Series, epoch timeseries.Epoch, onlyLeapYears bool) (*timeseries.Series, error) {
	ref := s
	if !epoch.IsZero() {
		ref = ref.SelectRange(epoch.Start, epoch.End)
		if ref.Len() == 0 {
			return nil, newDataError("no data inside reference period %d-%d", epoch.Start.Year(), epoch.End.Year())
		}
	}
	if onlyLeapYears {
		ref = ref.Select(func(t time.Time) bool {
			return timeseries.IsLeapYear(t.Year())
		})
		if ref.Len() == 0 {
			return nil, newDataError("no leap years inside reference period")
		}
	}
	if ref == s {
		ref = s.Clone()
	}
	return ref, nil
}
