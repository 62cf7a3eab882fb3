package indices

import "sort"

var (
	resampleOnly = map[SamplingMethod]bool{SamplingResample: true}
	anySampling  = map[SamplingMethod]bool{
		SamplingResample:                   true,
		SamplingGroupBy:                    true,
		SamplingGroupByRefAndResampleStudy: true,
	}
)

// checkExceedanceVars admits any number of study variables, each with a
// threshold, since their masks combine under the logical link.
func checkExceedanceVars(cfg *IndicatorConfig) error {
	if len(cfg.studyVariables()) != len(cfg.Variables) {
		return newConfigError("indicator %s takes no reference variables", cfg.IndicatorName)
	}
	for _, v := range cfg.Variables {
		if v.Threshold == nil {
			return newConfigError("indicator %s needs a threshold on variable %q", cfg.IndicatorName, v.Name)
		}
	}
	return nil
}

func checkSingleVar(cfg *IndicatorConfig) error {
	if len(cfg.Variables) != 1 || cfg.Variables[0].Reference {
		return newConfigError("indicator %s takes exactly one study variable", cfg.IndicatorName)
	}
	return nil
}

func checkSingleThresholded(cfg *IndicatorConfig) error {
	if err := checkSingleVar(cfg); err != nil {
		return err
	}
	if cfg.Variables[0].Threshold == nil {
		return newConfigError("indicator %s needs a threshold on variable %q", cfg.IndicatorName, cfg.Variables[0].Name)
	}
	return nil
}

// checkCoupleOfVars admits exactly two study variables and rejects
// thresholds, whose unit reconciliation is undefined for differences.
func checkCoupleOfVars(cfg *IndicatorConfig) error {
	if len(cfg.Variables) != 2 {
		return newConfigError("indicator %s takes exactly two variables, got %d", cfg.IndicatorName, len(cfg.Variables))
	}
	for _, v := range cfg.Variables {
		if v.Threshold != nil {
			return newConfigError("indicator %s does not accept a threshold on %q", cfg.IndicatorName, v.Name)
		}
	}
	if len(cfg.studyVariables()) != 2 {
		return newConfigError("indicator %s takes two study variables", cfg.IndicatorName)
	}
	return nil
}

// checkComparisonVars admits two variables of which at most one is a
// reference arm.
func checkComparisonVars(cfg *IndicatorConfig) error {
	if len(cfg.Variables) != 2 {
		return newConfigError("indicator %s takes exactly two variables, got %d", cfg.IndicatorName, len(cfg.Variables))
	}
	for _, v := range cfg.Variables {
		if v.Threshold != nil {
			return newConfigError("indicator %s does not accept a threshold on %q", cfg.IndicatorName, v.Name)
		}
	}
	if len(cfg.studyVariables()) == 0 {
		return newConfigError("indicator %s needs at least one study variable", cfg.IndicatorName)
	}
	return nil
}

// The generic indicators. Every named climate index binds one of these
// with a concrete threshold and frequency.
var (
	CountOccurrences = &GenericIndicator{
		name: "count_occurrences", reduce: countOccurrences,
		checkVars: checkExceedanceVars, sampling: resampleOnly, dateAware: true,
	}
	MaxConsecutiveOccurrence = &GenericIndicator{
		name: "max_consecutive_occurrence", reduce: maxConsecutiveOccurrence,
		checkVars: checkExceedanceVars, sampling: resampleOnly, dateAware: true,
	}
	SumOfSpellLengths = &GenericIndicator{
		name: "sum_of_spell_lengths", reduce: sumOfSpellLengths,
		checkVars: checkExceedanceVars, sampling: resampleOnly, dateAware: true,
	}
	Excess = &GenericIndicator{
		name: "excess", reduce: excess,
		checkVars: checkSingleThresholded, sampling: resampleOnly,
	}
	Deficit = &GenericIndicator{
		name: "deficit", reduce: deficit,
		checkVars: checkSingleThresholded, sampling: resampleOnly,
	}
	FractionOfTotal = &GenericIndicator{
		name: "fraction_of_total", reduce: fractionOfTotal,
		checkVars: checkSingleThresholded, sampling: resampleOnly,
	}
	Maximum = &GenericIndicator{
		name: "maximum", reduce: maximum,
		checkVars: checkSingleVar, sampling: resampleOnly, dateAware: true,
	}
	Minimum = &GenericIndicator{
		name: "minimum", reduce: minimum,
		checkVars: checkSingleVar, sampling: resampleOnly, dateAware: true,
	}
	Sum = &GenericIndicator{
		name: "sum", reduce: sum,
		checkVars: checkSingleVar, sampling: resampleOnly,
	}
	Average = &GenericIndicator{
		name: "average", reduce: average,
		checkVars: checkSingleVar, sampling: resampleOnly,
	}
	StandardDeviation = &GenericIndicator{
		name: "standard_deviation", reduce: standardDeviation,
		checkVars: checkSingleVar, sampling: resampleOnly,
	}
	MaxOfRollingSum = &GenericIndicator{
		name: "max_of_rolling_sum", reduce: maxOfRollingSum,
		checkVars: checkSingleVar, sampling: resampleOnly, dateAware: true,
	}
	MinOfRollingSum = &GenericIndicator{
		name: "min_of_rolling_sum", reduce: minOfRollingSum,
		checkVars: checkSingleVar, sampling: resampleOnly, dateAware: true,
	}
	MaxOfRollingAverage = &GenericIndicator{
		name: "max_of_rolling_average", reduce: maxOfRollingAverage,
		checkVars: checkSingleVar, sampling: resampleOnly, dateAware: true,
	}
	MinOfRollingAverage = &GenericIndicator{
		name: "min_of_rolling_average", reduce: minOfRollingAverage,
		checkVars: checkSingleVar, sampling: resampleOnly, dateAware: true,
	}
	MeanOfDifference = &GenericIndicator{
		name: "mean_of_difference", reduce: meanOfDifference,
		checkVars: checkCoupleOfVars, sampling: resampleOnly,
	}
	DifferenceOfExtremes = &GenericIndicator{
		name: "difference_of_extremes", reduce: differenceOfExtremes,
		checkVars: checkCoupleOfVars, sampling: resampleOnly,
	}
	MeanOfAbsoluteOneTimeStepDifference = &GenericIndicator{
		name: "mean_of_absolute_one_time_step_difference", reduce: meanOfAbsoluteOneTimeStepDifference,
		checkVars: checkCoupleOfVars, sampling: resampleOnly,
	}
	DifferenceOfMeans = &GenericIndicator{
		name: "difference_of_means", reduce: differenceOfMeans,
		checkVars: checkComparisonVars, sampling: anySampling,
	}
)

var registry = buildRegistry(
	CountOccurrences,
	MaxConsecutiveOccurrence,
	SumOfSpellLengths,
	Excess,
	Deficit,
	FractionOfTotal,
	Maximum,
	Minimum,
	Sum,
	Average,
	StandardDeviation,
	MaxOfRollingSum,
	MinOfRollingSum,
	MaxOfRollingAverage,
	MinOfRollingAverage,
	MeanOfDifference,
	DifferenceOfExtremes,
	MeanOfAbsoluteOneTimeStepDifference,
	DifferenceOfMeans,
)

func buildRegistry(inds ...*GenericIndicator) map[string]*GenericIndicator {
	m := make(map[string]*GenericIndicator, len(inds))
	for _, ind := range inds {
		m[ind.name] = ind
	}
	return m
}

// Lookup returns a registered generic indicator by name.
func Lookup(name string) (*GenericIndicator, bool) {
	ind, ok := registry[name]
	return ind, ok
}

// Names lists the registered indicator names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
