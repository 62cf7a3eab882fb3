package indices

import (
	"strconv"
	"strings"
	"time"

	"github.com/thebaptiste/icclim/timeseries"
)

// metadataTemplate renders the CF-style attributes of a result. The
// placeholders {vars}, {threshold}, {freq}, {source}, {window} and
// {min_spell} are substituted with prose for the long name and with
// slugs for the standard name. Templates with conditionalThreshold
// append the threshold clause only when a threshold is configured.
type metadataTemplate struct {
	longName             string
	standardName         string
	cellMethods          string
	conditionalThreshold bool
}

var metadataTemplates = map[string]metadataTemplate{
	"count_occurrences": {
		longName:     "Number of {source}s of {freq} when {vars} is {threshold}",
		standardName: "number_of_{source}s_when_{vars}_is_{threshold}",
		cellMethods:  "time: sum over {source}s",
	},
	"max_consecutive_occurrence": {
		longName:     "Maximum number of consecutive {source}s of {freq} when {vars} is {threshold}",
		standardName: "spell_length_of_{source}s_when_{vars}_is_{threshold}",
		cellMethods:  "time: maximum over {source}s",
	},
	"sum_of_spell_lengths": {
		longName:     "Longest spell of at least {min_spell} consecutive {source}s of {freq} when {vars} is {threshold}",
		standardName: "spell_length_of_{source}s_when_{vars}_is_{threshold}",
		cellMethods:  "time: maximum over {source}s",
	},
	"excess": {
		longName:     "Excess of {vars} per {freq} with respect to {threshold}",
		standardName: "integral_of_{vars}_excess_wrt_time",
		cellMethods:  "time: sum over {source}s",
	},
	"deficit": {
		longName:     "Deficit of {vars} per {freq} with respect to {threshold}",
		standardName: "integral_of_{vars}_deficit_wrt_time",
		cellMethods:  "time: sum over {source}s",
	},
	"fraction_of_total": {
		longName:     "Fraction of total {vars} per {freq} when {vars} is {threshold}",
		standardName: "fraction_of_total_{vars}_when_{vars}_is_{threshold}",
		cellMethods:  "time: sum over {source}s",
	},
	"maximum": {
		longName:             "Maximum of {vars} per {freq}",
		standardName:         "{vars}_maximum",
		cellMethods:          "time: maximum over {source}s",
		conditionalThreshold: true,
	},
	"minimum": {
		longName:             "Minimum of {vars} per {freq}",
		standardName:         "{vars}_minimum",
		cellMethods:          "time: minimum over {source}s",
		conditionalThreshold: true,
	},
	"sum": {
		longName:             "Sum of {vars} per {freq}",
		standardName:         "{vars}_sum",
		cellMethods:          "time: sum over {source}s",
		conditionalThreshold: true,
	},
	"average": {
		longName:             "Average of {vars} per {freq}",
		standardName:         "{vars}_average",
		cellMethods:          "time: mean over {source}s",
		conditionalThreshold: true,
	},
	"standard_deviation": {
		longName:             "Standard deviation of {vars} per {freq}",
		standardName:         "{vars}_standard_deviation",
		cellMethods:          "time: standard_deviation over {source}s",
		conditionalThreshold: true,
	},
	"max_of_rolling_sum": {
		longName:             "Maximum {window}-{source} rolling sum of {vars} per {freq}",
		standardName:         "{vars}_maximum_of_rolling_sum",
		cellMethods:          "time: maximum over {source}s",
		conditionalThreshold: true,
	},
	"min_of_rolling_sum": {
		longName:             "Minimum {window}-{source} rolling sum of {vars} per {freq}",
		standardName:         "{vars}_minimum_of_rolling_sum",
		cellMethods:          "time: minimum over {source}s",
		conditionalThreshold: true,
	},
	"max_of_rolling_average": {
		longName:             "Maximum {window}-{source} rolling average of {vars} per {freq}",
		standardName:         "{vars}_maximum_of_rolling_average",
		cellMethods:          "time: maximum over {source}s",
		conditionalThreshold: true,
	},
	"min_of_rolling_average": {
		longName:             "Minimum {window}-{source} rolling average of {vars} per {freq}",
		standardName:         "{vars}_minimum_of_rolling_average",
		cellMethods:          "time: minimum over {source}s",
		conditionalThreshold: true,
	},
	"mean_of_difference": {
		longName:     "Mean of difference between {vars} per {freq}",
		standardName: "{vars}_mean_of_difference",
		cellMethods:  "time: mean over {source}s",
	},
	"difference_of_extremes": {
		longName:     "Difference of extremes of {vars} per {freq}",
		standardName: "{vars}_difference_of_extremes",
		cellMethods:  "time: range over {source}s",
	},
	"mean_of_absolute_one_time_step_difference": {
		longName:     "Mean absolute one-{source} difference of {vars} per {freq}",
		standardName: "{vars}_mean_absolute_step_difference",
		cellMethods:  "time: mean over {source}s",
	},
	"difference_of_means": {
		longName:     "Difference of means of {vars} per {freq}",
		standardName: "{vars}_difference_of_means",
		cellMethods:  "time: mean over {source}s",
	},
}

// renderMetadata writes the rendered long name, standard name and cell
// methods onto the result.
func renderMetadata(out *timeseries.Series, name string, in reduceInput) {
	tpl, ok := metadataTemplates[name]
	if !ok {
		return
	}

	long, std := tpl.longName, tpl.standardName
	if tpl.conditionalThreshold && in.hasThreshold() {
		long += " when {vars} is {threshold}"
		std += "_when_{vars}_is_{threshold}"
	}

	source := sourceWord(in.step)
	prose := strings.NewReplacer(
		"{vars}", in.varNames(" and "),
		"{threshold}", in.thresholdProse(),
		"{freq}", in.freq.Description,
		"{source}", source,
		"{window}", strconv.Itoa(in.window),
		"{min_spell}", strconv.Itoa(in.minSpell),
	)
	slugs := strings.NewReplacer(
		"{vars}", slugify(in.varNames(" and ")),
		"{threshold}", in.thresholdSlug(),
		"{freq}", slugify(in.freq.Name),
		"{source}", source,
		"{window}", strconv.Itoa(in.window),
		"{min_spell}", strconv.Itoa(in.minSpell),
	)

	out.Attrs.LongName = prose.Replace(long)
	out.Attrs.StandardName = slugs.Replace(std)
	out.Attrs.CellMethods = prose.Replace(tpl.cellMethods)
}

func (in reduceInput) varNames(sep string) string {
	names := make([]string, 0, len(in.vars)+len(in.refVars))
	for _, v := range in.vars {
		names = append(names, v.Name)
	}
	for _, v := range in.refVars {
		names = append(names, v.Name)
	}
	return strings.Join(names, sep)
}

func (in reduceInput) hasThreshold() bool {
	for _, v := range in.vars {
		if v.Threshold != nil {
			return true
		}
	}
	return false
}

func (in reduceInput) thresholdProse() string {
	parts := make([]string, 0, len(in.vars))
	for _, v := range in.vars {
		if v.Threshold != nil {
			parts = append(parts, v.Threshold.Describe())
		}
	}
	return strings.Join(parts, " and ")
}

func (in reduceInput) thresholdSlug() string {
	parts := make([]string, 0, len(in.vars))
	for _, v := range in.vars {
		if v.Threshold != nil {
			parts = append(parts, v.Threshold.slug())
		}
	}
	return strings.Join(parts, "_and_")
}

// sourceWord names one step of the source sampling for metadata prose.
func sourceWord(step time.Duration) string {
	switch step {
	case 24 * time.Hour:
		return "day"
	case time.Hour:
		return "hour"
	default:
		return "step"
	}
}

// slugify lowercases s and collapses every non-alphanumeric run into a
// single underscore.
func slugify(s string) string {
	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(s) {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !alnum {
			pending = b.Len() > 0
			continue
		}
		if pending {
			b.WriteByte('_')
			pending = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
