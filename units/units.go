// Package units converts between the physical units the indicator engine
// understands and derives the units of aggregated results. The supported
// set is deliberately closed: temperatures, water amounts, precipitation
// rates, and dimensionless ratios cover the catalogued indicators.
package units

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/thebaptiste/icclim/timeseries"
)

const (
	// Percent labels ratio outputs scaled to 0-100.
	Percent = "%"
	// Fraction labels ratio outputs left on the 0-1 scale.
	Fraction = "1"
)

// unitDef places a unit inside a family and maps it onto the family's
// canonical unit: canonical = value*scale + offset.
type unitDef struct {
	family string
	scale  float64
	offset float64
}

const (
	familyTemperature = "temperature"
	familyAmount      = "amount"
	familyRate        = "rate"
	familyRatio       = "ratio"
)

// Canonical units per family: K, mm, mm/day, 1.
var unitDefs = map[string]unitDef{
	"K":      {familyTemperature, 1, 0},
	"degC":   {familyTemperature, 1, 273.15},
	"degF":   {familyTemperature, 5.0 / 9.0, 273.15 - 32*5.0/9.0},
	"mm":     {familyAmount, 1, 0},
	"cm":     {familyAmount, 10, 0},
	"m":      {familyAmount, 1000, 0},
	"in":     {familyAmount, 25.4, 0},
	"mm/day": {familyRate, 1, 0},
	"mm/h":   {familyRate, 24, 0},
	// 1 kg of water over 1 m2 is a 1 mm layer.
	"kg m-2 s-1": {familyRate, 86400, 0},
	"1":          {familyRatio, 1, 0},
	"%":          {familyRatio, 0.01, 0},
}

var aliases = map[string]string{
	"kelvin":     "K",
	"k":          "K",
	"°C":         "degC",
	"C":          "degC",
	"celsius":    "degC",
	"deg_C":      "degC",
	"degrees_C":  "degC",
	"°F":         "degF",
	"F":          "degF",
	"fahrenheit": "degF",
	"deg_F":      "degF",
	"mm/d":       "mm/day",
	"mm d-1":     "mm/day",
	"mm day-1":   "mm/day",
	"mm/hr":      "mm/h",
	"mm h-1":     "mm/h",
	"kg/m2/s":    "kg m-2 s-1",
	"kg/m^2/s":   "kg m-2 s-1",
	"percent":    "%",
}

// Normalize maps a unit spelling onto its canonical form, e.g. "°C" to
// "degC". Unknown spellings come back trimmed but otherwise unchanged.
func Normalize(u string) string {
	u = strings.TrimSpace(u)
	if canonical, ok := aliases[u]; ok {
		return canonical
	}
	if _, ok := unitDefs[u]; ok {
		return u
	}
	// Case-insensitive alias match catches "Celsius", "KELVIN" and the like.
	lower := strings.ToLower(u)
	if canonical, ok := aliases[lower]; ok {
		return canonical
	}
	return u
}

// Known reports whether the unit (after normalization) is convertible.
func Known(u string) bool {
	_, ok := unitDefs[Normalize(u)]
	return ok
}

// IsAmount reports whether the unit measures a water amount (mm family).
func IsAmount(u string) bool {
	def, ok := unitDefs[Normalize(u)]
	return ok && def.family == familyAmount
}

// IsRate reports whether the unit measures a precipitation rate.
func IsRate(u string) bool {
	def, ok := unitDefs[Normalize(u)]
	return ok && def.family == familyRate
}

// Convert converts a single value between two units of the same family.
func Convert(v float64, from, to string) (float64, error) {
	fn, err := converter(from, to)
	if err != nil {
		return 0, err
	}
	return fn(v), nil
}

// ConvertSeries converts every value of s to the target unit in place and
// updates the units attribute. NaN values stay NaN.
func ConvertSeries(s *timeseries.Series, to string) error {
	fn, err := converter(s.Attrs.Units, to)
	if err != nil {
		return err
	}
	data := s.Values()
	for i, v := range data {
		if math.IsNaN(v) {
			continue
		}
		data[i] = fn(v)
	}
	s.Attrs.Units = Normalize(to)
	return nil
}

func converter(from, to string) (func(float64) float64, error) {
	nf, nt := Normalize(from), Normalize(to)
	fd, ok := unitDefs[nf]
	if !ok {
		return nil, fmt.Errorf("unknown unit %q", from)
	}
	td, ok := unitDefs[nt]
	if !ok {
		return nil, fmt.Errorf("unknown unit %q", to)
	}
	if fd.family != td.family {
		return nil, fmt.Errorf("cannot convert %q (%s) to %q (%s)", from, fd.family, to, td.family)
	}
	return func(v float64) float64 {
		return (v*fd.scale + fd.offset - td.offset) / td.scale
	}, nil
}

// RateToAmount integrates a rate series over its sampling step, turning
// e.g. mm/day sampled daily into mm per step. The series is converted in
// place and relabelled with the amount unit.
func RateToAmount(s *timeseries.Series) error {
	def, ok := unitDefs[Normalize(s.Attrs.Units)]
	if !ok || def.family != familyRate {
		return fmt.Errorf("rate to amount: %q is not a rate unit", s.Attrs.Units)
	}
	step, err := s.Step()
	if err != nil {
		return fmt.Errorf("rate to amount: %w", err)
	}
	// def.scale converts to mm/day; the step converts a day rate to an
	// amount over one sample.
	factor := def.scale * step.Hours() / 24
	data := s.Values()
	for i, v := range data {
		if math.IsNaN(v) {
			continue
		}
		data[i] = v * factor
	}
	s.Attrs.Units = "mm"
	return nil
}

// CountUnit returns the unit of a count of source steps: "d" for daily
// data, "h" for hourly, falling back to a dimensionless count.
func CountUnit(step time.Duration) string {
	switch step {
	case 24 * time.Hour:
		return "d"
	case time.Hour:
		return "h"
	case time.Minute:
		return "min"
	default:
		return "1"
	}
}

// DeltaProductUnit returns the unit of an accumulated difference, e.g.
// degree-days "degC d" for daily temperature excess.
func DeltaProductUnit(base string, step time.Duration) string {
	return Normalize(base) + " " + CountUnit(step)
}
