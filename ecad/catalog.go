// Package ecad catalogues the ECA&D climate indices as ready-made
// bindings of the generic indicators: each entry names the daily input
// variables it consumes, the threshold convention it compares against and
// the unit its result is reported in. Callers hand over their series once
// and get back a runnable indicator configuration.
package ecad

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/thebaptiste/icclim/indices"
	"github.com/thebaptiste/icclim/percentiles"
	"github.com/thebaptiste/icclim/timeseries"
	"github.com/thebaptiste/icclim/units"
)

// Group sorts the catalogue the way ECA&D presents it.
type Group string

const (
	GroupTemperature Group = "temperature"
	GroupHeat        Group = "heat"
	GroupCold        Group = "cold"
	GroupDrought     Group = "drought"
	GroupRain        Group = "rain"
)

// Inputs carries the daily series an index may draw from, keyed by their
// conventional variable names. Only the series an index actually consumes
// need to be set.
type Inputs struct {
	// Tas is the daily mean near-surface temperature.
	Tas *timeseries.Series
	// Tasmin is the daily minimum near-surface temperature.
	Tasmin *timeseries.Series
	// Tasmax is the daily maximum near-surface temperature.
	Tasmax *timeseries.Series
	// Pr is the daily precipitation rate.
	Pr *timeseries.Series

	// Reference is the baseline period percentile thresholds are
	// estimated from. Indices without percentile thresholds ignore it.
	Reference timeseries.Epoch
	// Interpolation selects the percentile estimator; empty means
	// median-unbiased.
	Interpolation percentiles.Interpolation
}

// series resolves a canonical variable name against the inputs.
func (in Inputs) series(name string) (*timeseries.Series, error) {
	var s *timeseries.Series
	switch name {
	case "tas":
		s = in.Tas
	case "tasmin":
		s = in.Tasmin
	case "tasmax":
		s = in.Tasmax
	case "pr":
		s = in.Pr
	}
	if s == nil {
		return nil, &indices.Error{
			Kind:    indices.KindConfig,
			Message: fmt.Sprintf("missing %s input series", name),
		}
	}
	return s, nil
}

func (in Inputs) interp() percentiles.Interpolation {
	if in.Interpolation == "" {
		return percentiles.InterpMedianUnbiased
	}
	return in.Interpolation
}

type configureFunc func(in Inputs) (indices.IndicatorConfig, error)

// Index is one catalogue entry: the ECA&D identifier, the generic
// indicator it runs and the threshold convention baked into it.
type Index struct {
	// ID is the ECA&D identifier, e.g. "SU" or "R95pTOT".
	ID string
	// Group is the ECA&D catalogue section the index belongs to.
	Group Group
	// Definition describes the index in one sentence.
	Definition string
	// Indicator is the generic indicator the index binds.
	Indicator *indices.GenericIndicator

	// outUnit is the conventional reporting unit, empty for the unit the
	// reduction produces naturally.
	outUnit string
	// window overrides the rolling window width when non-zero.
	window int
	// minSpell overrides the minimum spell length when non-zero.
	minSpell int

	configure configureFunc
}

// Configure binds the index to the given inputs and output frequency. The
// returned configuration can be adjusted, e.g. to turn on event dates or
// tighten the missing-data policy, before handing it to an evaluator.
func (ix *Index) Configure(in Inputs, freq indices.Frequency) (indices.IndicatorConfig, error) {
	cfg, err := ix.configure(in)
	if err != nil {
		return indices.IndicatorConfig{}, fmt.Errorf("index %s: %w", ix.ID, err)
	}
	cfg.Frequency = freq
	cfg.OutUnit = ix.outUnit
	cfg.WindowWidth = ix.window
	cfg.MinSpellLength = ix.minSpell
	return cfg, nil
}

// Compute looks an index up, configures it for the inputs and runs it.
func Compute(ctx context.Context, eval *indices.Evaluator, id string, in Inputs, freq indices.Frequency) (*timeseries.Series, error) {
	ix, ok := Lookup(id)
	if !ok {
		return nil, &indices.Error{
			Kind:    indices.KindConfig,
			Message: fmt.Sprintf("unknown ECA&D index %q", id),
		}
	}
	cfg, err := ix.Configure(in, freq)
	if err != nil {
		return nil, err
	}
	return eval.Compute(ctx, ix.Indicator, cfg)
}

var byID = func() map[string]*Index {
	m := make(map[string]*Index, len(catalogue))
	for _, ix := range catalogue {
		m[strings.ToUpper(ix.ID)] = ix
	}
	return m
}()

// Lookup finds a catalogue entry by identifier, case-insensitively.
func Lookup(id string) (*Index, bool) {
	ix, ok := byID[strings.ToUpper(id)]
	return ix, ok
}

// IDs lists the catalogue identifiers in lexical order.
func IDs() []string {
	ids := make([]string, 0, len(byID))
	for _, ix := range byID {
		ids = append(ids, ix.ID)
	}
	sort.Strings(ids)
	return ids
}

// ByGroup lists the entries of one catalogue section, in catalogue order.
func ByGroup(g Group) []*Index {
	var out []*Index
	for _, ix := range catalogue {
		if ix.Group == g {
			out = append(out, ix)
		}
	}
	return out
}

// scalar configures a single variable compared against a fixed threshold.
func scalar(name string, op indices.Operator, value float64, unit string) configureFunc {
	return func(in Inputs) (indices.IndicatorConfig, error) {
		s, err := in.series(name)
		if err != nil {
			return indices.IndicatorConfig{}, err
		}
		th := indices.NewScalarThreshold(op, value, unit)
		return indices.IndicatorConfig{
			Variables: []*indices.ClimateVariable{{Name: name, Series: s, Threshold: &th}},
		}, nil
	}
}

// doyPercentile configures a single variable compared against a
// day-of-year percentile of its own reference period.
func doyPercentile(name string, op indices.Operator, rank float64) configureFunc {
	return func(in Inputs) (indices.IndicatorConfig, error) {
		s, err := in.series(name)
		if err != nil {
			return indices.IndicatorConfig{}, err
		}
		if in.Reference.IsZero() {
			return indices.IndicatorConfig{}, &indices.Error{
				Kind:    indices.KindConfig,
				Message: "percentile threshold needs a reference epoch",
			}
		}
		ref, err := indices.SelectReference(s, in.Reference, false)
		if err != nil {
			return indices.IndicatorConfig{}, err
		}
		doy, err := percentiles.BuildDoy(ref, rank, percentiles.DefaultWindow, in.interp())
		if err != nil {
			return indices.IndicatorConfig{}, err
		}
		th := indices.NewDoyPercentileThreshold(op, doy, ref.Attrs.Units)
		return indices.IndicatorConfig{
			Variables: []*indices.ClimateVariable{{Name: name, Series: s, Threshold: &th}},
		}, nil
	}
}

// plain configures a single variable without a threshold.
func plain(name string) configureFunc {
	return func(in Inputs) (indices.IndicatorConfig, error) {
		s, err := in.series(name)
		if err != nil {
			return indices.IndicatorConfig{}, err
		}
		return indices.IndicatorConfig{
			Variables: []*indices.ClimateVariable{{Name: name, Series: s}},
		}, nil
	}
}

// couple configures two threshold-free variables.
func couple(a, b string) configureFunc {
	return func(in Inputs) (indices.IndicatorConfig, error) {
		sa, err := in.series(a)
		if err != nil {
			return indices.IndicatorConfig{}, err
		}
		sb, err := in.series(b)
		if err != nil {
			return indices.IndicatorConfig{}, err
		}
		return indices.IndicatorConfig{
			Variables: []*indices.ClimateVariable{
				{Name: a, Series: sa},
				{Name: b, Series: sb},
			},
		}, nil
	}
}

// wetDayFraction configures precipitation against a whole-period
// percentile of its wet days (at least 1 mm/day) over the reference
// epoch. The min-value guard is converted into the unit the series
// carries so inputs in other rate units estimate the same wet-day set.
func wetDayFraction(rank float64) configureFunc {
	return func(in Inputs) (indices.IndicatorConfig, error) {
		s, err := in.series("pr")
		if err != nil {
			return indices.IndicatorConfig{}, err
		}
		if in.Reference.IsZero() {
			return indices.IndicatorConfig{}, &indices.Error{
				Kind:    indices.KindConfig,
				Message: "percentile threshold needs a reference epoch",
			}
		}
		ref, err := indices.SelectReference(s, in.Reference, false)
		if err != nil {
			return indices.IndicatorConfig{}, err
		}
		wetMin, err := units.Convert(1, "mm/day", ref.Attrs.Units)
		if err != nil {
			return indices.IndicatorConfig{}, err
		}
		th, err := indices.NewPeriodPercentileThreshold(indices.OpGreater, ref, rank, in.interp(), wetMin)
		if err != nil {
			return indices.IndicatorConfig{}, err
		}
		return indices.IndicatorConfig{
			Variables: []*indices.ClimateVariable{{Name: "pr", Series: s, Threshold: &th}},
		}, nil
	}
}
