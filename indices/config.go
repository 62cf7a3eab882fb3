package indices

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// SamplingMethod selects how a two-arm comparison pairs study periods
// with reference periods.
type SamplingMethod string

const (
	// SamplingResample reduces both arms over the configured frequency.
	SamplingResample SamplingMethod = "resample"
	// SamplingGroupBy fuses both arms by the frequency's group key
	// across years before comparing.
	SamplingGroupBy SamplingMethod = "groupby"
	// SamplingGroupByRefAndResampleStudy fuses the reference arm by
	// group key but resamples the study arm, pairing each study period
	// with the matching fused reference group.
	SamplingGroupByRefAndResampleStudy SamplingMethod = "groupby_ref_and_resample_study"
)

// ParseSamplingMethod resolves a sampling method name.
func ParseSamplingMethod(name string) (SamplingMethod, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "resample", "":
		return SamplingResample, nil
	case "groupby", "group_by":
		return SamplingGroupBy, nil
	case "groupby_ref_and_resample_study":
		return SamplingGroupByRefAndResampleStudy, nil
	default:
		return "", newConfigError("unknown sampling method %q", name)
	}
}

// Valid reports whether the sampling method is one of the defined values.
func (m SamplingMethod) Valid() bool {
	switch m {
	case SamplingResample, SamplingGroupBy, SamplingGroupByRefAndResampleStudy:
		return true
	}
	return false
}

// MissingMethod names a policy for masking output periods with missing
// input data.
type MissingMethod string

const (
	// MissingSkip disables masking entirely.
	MissingSkip MissingMethod = "skip"
	// MissingAny masks a period when any step is missing.
	MissingAny MissingMethod = "any"
	// MissingPct masks a period when the missing fraction exceeds the
	// configured tolerance.
	MissingPct MissingMethod = "pct"
	// MissingAtLeastN masks a period with fewer valid steps than the
	// configured minimum.
	MissingAtLeastN MissingMethod = "at_least_n"
	// MissingWMO masks a period with 11 or more missing steps, or 5 or
	// more consecutive ones.
	MissingWMO MissingMethod = "wmo"
)

// MissingPolicy configures output masking for periods with missing
// input. Tolerance only applies to MissingPct, MinValid only to
// MissingAtLeastN.
type MissingPolicy struct {
	Method    MissingMethod `validate:"omitempty,oneof=skip any pct at_least_n wmo"`
	Tolerance float64       `validate:"gte=0,lt=1"`
	MinValid  int           `validate:"gte=0"`
}

func (p MissingPolicy) check() error {
	if p.Method == MissingAtLeastN && p.MinValid <= 0 {
		return newConfigError("missing policy at_least_n needs MinValid > 0")
	}
	return nil
}

// IndicatorConfig carries everything a generic indicator needs to run:
// the input variables with their thresholds, the output frequency, and
// the knobs of the individual reducers. Zero values take the package
// defaults: window width 5, minimum spell length 6, link "and", sampling
// "resample" and missing policy "any".
type IndicatorConfig struct {
	// IndicatorName is set by the evaluator from the indicator itself.
	IndicatorName string

	Variables []*ClimateVariable `validate:"required,min=1,dive,required"`
	Frequency Frequency

	// WindowWidth is the rolling window of the *_of_rolling_* reducers.
	WindowWidth int `validate:"gte=0"`
	// MinSpellLength is the shortest run counted by the spell reducers.
	MinSpellLength int `validate:"gte=0"`

	Link     LogicalLink
	Sampling SamplingMethod
	Missing  MissingPolicy

	// DateEvent adds event date coordinates to reducers that locate
	// extremes or spells.
	DateEvent bool
	// OutUnit requests a final conversion of the result, e.g. "%" to
	// turn a fraction or count into a percentage.
	OutUnit string
	// Coefficient scales every input value during preprocessing. Zero
	// means no scaling.
	Coefficient float64
	// SourceName labels the input dataset in rendered metadata.
	SourceName string
}

func (c *IndicatorConfig) applyDefaults() {
	if c.WindowWidth == 0 {
		c.WindowWidth = 5
	}
	if c.MinSpellLength == 0 {
		c.MinSpellLength = 6
	}
	if c.Link == "" {
		c.Link = LinkAnd
	}
	if c.Sampling == "" {
		c.Sampling = SamplingResample
	}
	if c.Missing.Method == "" {
		c.Missing.Method = MissingAny
	}
}

// check validates the indicator-independent part of the configuration.
func (c *IndicatorConfig) check() error {
	if err := validate.Struct(c); err != nil {
		return newConfigError("invalid indicator config: %v", err)
	}
	if !c.Frequency.valid() {
		return newConfigError("frequency is required")
	}
	if !c.Link.Valid() {
		return newConfigError("unknown logical link %q", c.Link)
	}
	if !c.Sampling.Valid() {
		return newConfigError("unknown sampling method %q", c.Sampling)
	}
	if err := c.Missing.check(); err != nil {
		return err
	}
	for _, v := range c.Variables {
		if v.Series == nil {
			return newConfigError("variable %q has no series", v.Name)
		}
	}
	return nil
}

// studyVariables returns the non-reference variables.
func (c *IndicatorConfig) studyVariables() []*ClimateVariable {
	out := make([]*ClimateVariable, 0, len(c.Variables))
	for _, v := range c.Variables {
		if !v.Reference {
			out = append(out, v)
		}
	}
	return out
}
