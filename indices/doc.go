// Package indices evaluates climate indicators: aggregations of daily (or
// finer) meteorological series into one value per output period, such as
// "number of frost days per year" or "longest warm spell per summer".
//
// # Model
//
// A computation binds three things:
//
//	ClimateVariable  →  the input series plus an optional Threshold
//	Frequency        →  the output periods (year, month, season, custom)
//	GenericIndicator →  the reduction applied per period
//
// The nineteen generic indicators fall into three families. The
// exceedance family (count_occurrences, max_consecutive_occurrence,
// sum_of_spell_lengths, excess, deficit, fraction_of_total) compares each
// variable against its threshold and reduces the resulting boolean mask.
// The statistics family (maximum, minimum, sum, average,
// standard_deviation and the four rolling variants) reduces the values
// themselves, optionally filtered by a threshold. The comparison family
// (mean_of_difference, difference_of_extremes,
// mean_of_absolute_one_time_step_difference, difference_of_means) takes
// two variables and reduces their difference.
//
// # Thresholds
//
// A Threshold is a scalar ("> 25 degC"), one value per cell, or a
// day-of-year percentile climatology built from a reference period (see
// package percentiles). Day-of-year thresholds repeat across years by
// calendar-date alignment: July 3 of every study year is compared against
// the climatology's day 184.
//
// When the study period partially overlaps the percentile's reference
// period, comparing an overlap year against statistics it contributed to
// would bias the result. The engine applies the standard bootstrap
// correction: each overlap year is compared against a climatology rebuilt
// without that year. The correction activates only when the overlap is
// strictly between one year and the whole study period; full or
// single-year overlap is computed directly.
//
// # Periods
//
// Frequencies resample with right-open periods labelled at their start.
// Season frequencies carry a date indexer: dates outside the season are
// dropped before anything else runs, so a DJF computation never sees a
// July value. Runs and rolling windows operate on the filtered series
// and may therefore bridge the seasonal gap from one March to the next
// October; this matches the reference implementations of the catalogued
// indices.
//
// # Orchestration
//
// Evaluator.Compute drives a fixed state machine per call:
//
//	validate    →  arity, sampling method, regular time steps, CF names
//	preprocess  →  clone inputs, coefficient, unit reconciliation,
//	               threshold alignment, indexer filtering
//	compute     →  the indicator's reduction
//	postprocess →  output unit, missing-data masking, metadata, history
//
// Configuration problems fail before any data moves. Every failure is a
// typed [Error]; callers branch on its kind with [IsKind] rather than on
// message strings. Results carry rendered CF-style attributes (standard
// name, long name, cell methods) and a fresh history line identifying
// the computation.
package indices
