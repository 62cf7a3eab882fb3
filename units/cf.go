package units

import "fmt"

// expectedStandardNames maps conventional climate variable names to the CF
// standard name their data should declare. Only the variables the
// catalogued indicators consume are listed; anything else passes the check
// silently.
var expectedStandardNames = map[string]string{
	"tas":     "air_temperature",
	"tasmax":  "air_temperature",
	"tasmin":  "air_temperature",
	"pr":      "precipitation_flux",
	"prec":    "precipitation_flux",
	"snd":     "surface_snow_thickness",
	"sfcWind": "wind_speed",
	"psl":     "air_pressure_at_sea_level",
	"hurs":    "relative_humidity",
	"sund":    "duration_of_sunshine",
}

// CheckStandardName verifies a variable's declared CF standard name
// against the conventional expectation for its name. Variables with no
// declared standard name, or names outside the known table, pass. The
// caller decides whether a mismatch is fatal; the engine logs it as a
// warning.
func CheckStandardName(variable, standardName string) error {
	if standardName == "" {
		return nil
	}
	expected, ok := expectedStandardNames[variable]
	if !ok {
		return nil
	}
	if standardName != expected {
		return fmt.Errorf("variable %q declares standard_name %q, expected %q", variable, standardName, expected)
	}
	return nil
}
