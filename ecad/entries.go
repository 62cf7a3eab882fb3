package ecad

import "github.com/thebaptiste/icclim/indices"

// The catalogue. Thresholds follow the ECA&D conventions: 25 degC for
// summer days, 1 mm/day for wet days, day-of-year percentiles over a
// five-day window for the warm and cold tails. PRCPTOT states its wet-day
// threshold in mm because the series is integrated to amounts before the
// threshold applies.
var catalogue = []*Index{
	{
		ID: "SU", Group: GroupHeat,
		Definition: "Number of summer days (daily maximum temperature above 25 degC)",
		Indicator:  indices.CountOccurrences,
		configure:  scalar("tasmax", indices.OpGreater, 25, "degC"),
	},
	{
		ID: "TR", Group: GroupHeat,
		Definition: "Number of tropical nights (daily minimum temperature above 20 degC)",
		Indicator:  indices.CountOccurrences,
		configure:  scalar("tasmin", indices.OpGreater, 20, "degC"),
	},
	{
		ID: "CSU", Group: GroupHeat,
		Definition: "Longest run of consecutive summer days",
		Indicator:  indices.MaxConsecutiveOccurrence,
		configure:  scalar("tasmax", indices.OpGreater, 25, "degC"),
	},
	{
		ID: "TX90p", Group: GroupHeat,
		Definition: "Share of days with daily maximum temperature above the 90th day-of-year percentile",
		Indicator:  indices.CountOccurrences,
		outUnit:    "%",
		configure:  doyPercentile("tasmax", indices.OpGreater, 90),
	},
	{
		ID: "TN90p", Group: GroupHeat,
		Definition: "Share of days with daily minimum temperature above the 90th day-of-year percentile",
		Indicator:  indices.CountOccurrences,
		outUnit:    "%",
		configure:  doyPercentile("tasmin", indices.OpGreater, 90),
	},
	{
		ID: "TG90p", Group: GroupHeat,
		Definition: "Share of days with daily mean temperature above the 90th day-of-year percentile",
		Indicator:  indices.CountOccurrences,
		outUnit:    "%",
		configure:  doyPercentile("tas", indices.OpGreater, 90),
	},
	{
		ID: "WSDI", Group: GroupHeat,
		Definition: "Warm-spell duration: days in runs of at least 6 consecutive days with daily maximum temperature above the 90th day-of-year percentile",
		Indicator:  indices.SumOfSpellLengths,
		minSpell:   6,
		configure:  doyPercentile("tasmax", indices.OpGreater, 90),
	},
	{
		ID: "TXx", Group: GroupHeat,
		Definition: "Highest daily maximum temperature",
		Indicator:  indices.Maximum,
		configure:  plain("tasmax"),
	},
	{
		ID: "TNx", Group: GroupHeat,
		Definition: "Highest daily minimum temperature",
		Indicator:  indices.Maximum,
		configure:  plain("tasmin"),
	},

	{
		ID: "FD", Group: GroupCold,
		Definition: "Number of frost days (daily minimum temperature below 0 degC)",
		Indicator:  indices.CountOccurrences,
		configure:  scalar("tasmin", indices.OpLower, 0, "degC"),
	},
	{
		ID: "ID", Group: GroupCold,
		Definition: "Number of ice days (daily maximum temperature below 0 degC)",
		Indicator:  indices.CountOccurrences,
		configure:  scalar("tasmax", indices.OpLower, 0, "degC"),
	},
	{
		ID: "CFD", Group: GroupCold,
		Definition: "Longest run of consecutive frost days",
		Indicator:  indices.MaxConsecutiveOccurrence,
		configure:  scalar("tasmin", indices.OpLower, 0, "degC"),
	},
	{
		ID: "TX10p", Group: GroupCold,
		Definition: "Share of days with daily maximum temperature below the 10th day-of-year percentile",
		Indicator:  indices.CountOccurrences,
		outUnit:    "%",
		configure:  doyPercentile("tasmax", indices.OpLower, 10),
	},
	{
		ID: "TN10p", Group: GroupCold,
		Definition: "Share of days with daily minimum temperature below the 10th day-of-year percentile",
		Indicator:  indices.CountOccurrences,
		outUnit:    "%",
		configure:  doyPercentile("tasmin", indices.OpLower, 10),
	},
	{
		ID: "TG10p", Group: GroupCold,
		Definition: "Share of days with daily mean temperature below the 10th day-of-year percentile",
		Indicator:  indices.CountOccurrences,
		outUnit:    "%",
		configure:  doyPercentile("tas", indices.OpLower, 10),
	},
	{
		ID: "CSDI", Group: GroupCold,
		Definition: "Cold-spell duration: days in runs of at least 6 consecutive days with daily minimum temperature below the 10th day-of-year percentile",
		Indicator:  indices.SumOfSpellLengths,
		minSpell:   6,
		configure:  doyPercentile("tasmin", indices.OpLower, 10),
	},
	{
		ID: "TXn", Group: GroupCold,
		Definition: "Lowest daily maximum temperature",
		Indicator:  indices.Minimum,
		configure:  plain("tasmax"),
	},
	{
		ID: "TNn", Group: GroupCold,
		Definition: "Lowest daily minimum temperature",
		Indicator:  indices.Minimum,
		configure:  plain("tasmin"),
	},

	{
		ID: "GD4", Group: GroupTemperature,
		Definition: "Growing degree days (sum of daily mean temperature excess over 4 degC)",
		Indicator:  indices.Excess,
		configure:  scalar("tas", indices.OpGreater, 4, "degC"),
	},
	{
		ID: "HD17", Group: GroupTemperature,
		Definition: "Heating degree days (sum of daily mean temperature deficit below 17 degC)",
		Indicator:  indices.Deficit,
		configure:  scalar("tas", indices.OpLower, 17, "degC"),
	},
	{
		ID: "DTR", Group: GroupTemperature,
		Definition: "Mean diurnal temperature range",
		Indicator:  indices.MeanOfDifference,
		configure:  couple("tasmax", "tasmin"),
	},
	{
		ID: "ETR", Group: GroupTemperature,
		Definition: "Extreme temperature range (highest maximum minus lowest minimum)",
		Indicator:  indices.DifferenceOfExtremes,
		configure:  couple("tasmax", "tasmin"),
	},
	{
		ID: "vDTR", Group: GroupTemperature,
		Definition: "Mean day-to-day variation of the diurnal temperature range",
		Indicator:  indices.MeanOfAbsoluteOneTimeStepDifference,
		configure:  couple("tasmax", "tasmin"),
	},

	{
		ID: "CDD", Group: GroupDrought,
		Definition: "Longest dry spell (consecutive days with precipitation below 1 mm/day)",
		Indicator:  indices.MaxConsecutiveOccurrence,
		configure:  scalar("pr", indices.OpLower, 1, "mm/day"),
	},

	{
		ID: "CWD", Group: GroupRain,
		Definition: "Longest wet spell (consecutive days with precipitation of at least 1 mm/day)",
		Indicator:  indices.MaxConsecutiveOccurrence,
		configure:  scalar("pr", indices.OpGreaterOrEqual, 1, "mm/day"),
	},
	{
		ID: "RR1", Group: GroupRain,
		Definition: "Number of wet days (precipitation of at least 1 mm/day)",
		Indicator:  indices.CountOccurrences,
		configure:  scalar("pr", indices.OpGreaterOrEqual, 1, "mm/day"),
	},
	{
		ID: "R10mm", Group: GroupRain,
		Definition: "Number of heavy precipitation days (at least 10 mm/day)",
		Indicator:  indices.CountOccurrences,
		configure:  scalar("pr", indices.OpGreaterOrEqual, 10, "mm/day"),
	},
	{
		ID: "R20mm", Group: GroupRain,
		Definition: "Number of very heavy precipitation days (at least 20 mm/day)",
		Indicator:  indices.CountOccurrences,
		configure:  scalar("pr", indices.OpGreaterOrEqual, 20, "mm/day"),
	},
	{
		ID: "SDII", Group: GroupRain,
		Definition: "Simple daily intensity (mean precipitation over wet days)",
		Indicator:  indices.Average,
		outUnit:    "mm/day",
		configure:  scalar("pr", indices.OpGreaterOrEqual, 1, "mm/day"),
	},
	{
		ID: "RX1day", Group: GroupRain,
		Definition: "Highest one-day precipitation amount",
		Indicator:  indices.Maximum,
		outUnit:    "mm",
		configure:  plain("pr"),
	},
	{
		ID: "RX5day", Group: GroupRain,
		Definition: "Highest precipitation amount over five consecutive days",
		Indicator:  indices.MaxOfRollingSum,
		outUnit:    "mm",
		window:     5,
		configure:  plain("pr"),
	},
	{
		ID: "PRCPTOT", Group: GroupRain,
		Definition: "Total precipitation over wet days",
		Indicator:  indices.Sum,
		outUnit:    "mm",
		configure:  scalar("pr", indices.OpGreaterOrEqual, 1, "mm"),
	},
	{
		ID: "R95pTOT", Group: GroupRain,
		Definition: "Share of total precipitation falling on days above the 95th percentile of wet-day precipitation",
		Indicator:  indices.FractionOfTotal,
		outUnit:    "%",
		configure:  wetDayFraction(95),
	},
}
