package indices

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/thebaptiste/icclim/observability"
	"github.com/thebaptiste/icclim/timeseries"
	"github.com/thebaptiste/icclim/units"
)

// GenericIndicator is one declarative reduction: a name, the reduction
// function, the input-arity check and the sampling methods it accepts.
// Indicators are immutable after registration; every named climate index
// binds one of them with a concrete configuration.
type GenericIndicator struct {
	name      string
	reduce    reduceFunc
	checkVars func(cfg *IndicatorConfig) error
	sampling  map[SamplingMethod]bool
	dateAware bool
}

// Name returns the indicator's registry name.
func (gi *GenericIndicator) Name() string { return gi.name }

// Evaluator runs generic indicators through four stages: validate,
// preprocess, compute, postprocess. A zero-option evaluator is silent
// and unmetered; wire a logger and metrics for production use.
type Evaluator struct {
	log     *slog.Logger
	metrics *observability.Metrics
}

// EvaluatorOption configures an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithLogger sets the structured logger computations report through.
func WithLogger(log *slog.Logger) EvaluatorOption {
	return func(e *Evaluator) { e.log = log }
}

// WithMetrics sets the Prometheus metrics computations are counted on.
func WithMetrics(m *observability.Metrics) EvaluatorOption {
	return func(e *Evaluator) { e.metrics = m }
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{log: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compute runs one indicator over the configured variables and returns
// the aggregated series with rendered metadata. The configuration is
// taken by value and the input series are never modified.
func (e *Evaluator) Compute(ctx context.Context, ind *GenericIndicator, cfg IndicatorConfig) (*timeseries.Series, error) {
	if ind == nil {
		return nil, newConfigError("no indicator given")
	}
	id := uuid.NewString()
	log := e.log.With("indicator", ind.name, "computation", id)
	log.Info("computation started",
		"frequency", cfg.Frequency.Name,
		"variables", len(cfg.Variables),
	)

	out, err := e.run(ctx, ind, cfg, log, id)
	outcome := "success"
	if err != nil {
		outcome = "error"
		log.Error("computation failed", "error", err)
	} else {
		log.Info("computation finished", "periods", out.Len())
	}
	if e.metrics != nil {
		e.metrics.ComputationsTotal.WithLabelValues(ind.name, outcome).Inc()
	}
	return out, err
}

func (e *Evaluator) run(ctx context.Context, ind *GenericIndicator, cfg IndicatorConfig, log *slog.Logger, id string) (*timeseries.Series, error) {
	if err := e.stage(ctx, "validate", func() error {
		return e.validate(ind, &cfg, log)
	}); err != nil {
		return nil, err
	}

	var in reduceInput
	if err := e.stage(ctx, "preprocess", func() error {
		var err error
		in, err = e.preprocess(&cfg, log)
		return err
	}); err != nil {
		return nil, err
	}

	var out *timeseries.Series
	if err := e.stage(ctx, "compute", func() error {
		var err error
		out, err = ind.reduce(in)
		return err
	}); err != nil {
		return nil, err
	}

	if err := e.stage(ctx, "postprocess", func() error {
		return e.postprocess(out, ind, in, &cfg, log, id)
	}); err != nil {
		return nil, err
	}
	return out, nil
}

// stage runs one step of the state machine, observing its duration and
// honouring cancellation between stages.
func (e *Evaluator) stage(ctx context.Context, name string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := clock.Now()
	err := fn()
	if e.metrics != nil {
		e.metrics.StageDuration.WithLabelValues(name).Observe(clock.Since(start).Seconds())
	}
	return err
}

// validate fails fast on configuration problems, before any data moves.
func (e *Evaluator) validate(ind *GenericIndicator, cfg *IndicatorConfig, log *slog.Logger) error {
	cfg.applyDefaults()
	cfg.IndicatorName = ind.name
	if err := cfg.check(); err != nil {
		return err
	}
	if err := ind.checkVars(cfg); err != nil {
		return err
	}
	if !ind.sampling[cfg.Sampling] {
		return newConfigError("indicator %s does not permit sampling method %q", ind.name, cfg.Sampling)
	}
	if cfg.DateEvent && !ind.dateAware {
		return newUnsupportedError("indicator %s has no date-of-event semantics", ind.name)
	}

	hasReference := false
	for _, v := range cfg.Variables {
		hasReference = hasReference || v.Reference
	}
	if hasReference && cfg.Sampling == SamplingResample {
		return newConfigError("reference variables cannot be paired by plain resampling; use groupby or groupby_ref_and_resample_study")
	}

	var step time.Duration
	cells := 0
	for _, v := range cfg.Variables {
		if err := v.Series.CheckRegularStep(); err != nil {
			return wrapDataError(err, "variable %q", v.Name)
		}
		s, _ := v.Series.Step()
		if step == 0 {
			step, cells = s, v.Series.Cells()
			continue
		}
		if s != step {
			return newDataError("input variables disagree on source sampling frequency: %s vs %s", s, step)
		}
		if v.Series.Cells() != cells {
			return newDataError("input variables disagree on cell count: %d vs %d", v.Series.Cells(), cells)
		}
	}

	for _, v := range cfg.Variables {
		if err := units.CheckStandardName(v.Name, v.Series.Attrs.StandardName); err != nil {
			log.Warn("standard name mismatch", "variable", v.Name, "error", err)
		}
	}
	return nil
}

// preprocess shapes the inputs: clones every variable, applies the
// scalar coefficient, reconciles rate and amount units, aligns threshold
// units and drops dates outside the frequency's indexer. The source
// sampling step is captured before indexer filtering punches gaps.
func (e *Evaluator) preprocess(cfg *IndicatorConfig, log *slog.Logger) (reduceInput, error) {
	step, err := cfg.Variables[0].Series.Step()
	if err != nil {
		return reduceInput{}, wrapDataError(err, "variable %q", cfg.Variables[0].Name)
	}

	in := reduceInput{
		freq:      cfg.Frequency,
		step:      step,
		window:    cfg.WindowWidth,
		minSpell:  cfg.MinSpellLength,
		link:      cfg.Link,
		sampling:  cfg.Sampling,
		dateEvent: cfg.DateEvent,
		toPercent: units.Normalize(cfg.OutUnit) == units.Percent,
		log:       log,
		metrics:   e.metrics,
	}

	for _, v := range cfg.Variables {
		pv := v.clone()
		s := pv.Series

		if cfg.Coefficient != 0 {
			for i := range s.Values() {
				s.Values()[i] *= cfg.Coefficient
			}
		}

		if units.IsAmount(cfg.OutUnit) && units.IsRate(s.Attrs.Units) {
			if err := units.RateToAmount(s); err != nil {
				return reduceInput{}, wrapDataError(err, "variable %q", pv.Name)
			}
		}

		if pv.Threshold != nil {
			if err := pv.Threshold.alignUnit(s.Attrs.Units); err != nil {
				return reduceInput{}, err
			}
		}

		if ix := cfg.Frequency.Indexer; ix != nil {
			s = s.Select(ix.Contains)
			if s.Len() == 0 {
				return reduceInput{}, newDataError("variable %q has no data inside the %s season", pv.Name, cfg.Frequency.Name)
			}
			pv.Series = s
		}

		if pv.Reference {
			in.refVars = append(in.refVars, pv)
		} else {
			in.vars = append(in.vars, pv)
		}
	}
	if len(in.vars) == 0 {
		return reduceInput{}, newConfigError("all variables are reference-only")
	}
	return in, nil
}

// postprocess converts the output unit, applies the missing-data policy
// and renders the metadata, resetting provenance.
func (e *Evaluator) postprocess(out *timeseries.Series, ind *GenericIndicator, in reduceInput, cfg *IndicatorConfig, log *slog.Logger, id string) error {
	if in.toPercent && out.Attrs.Units != units.Percent {
		log.Warn("percentage output has no defined normalization here; returning unnormalized values",
			"frequency", in.freq.Name,
			"units", out.Attrs.Units,
		)
	} else if cfg.OutUnit != "" && !in.toPercent && units.Normalize(out.Attrs.Units) != units.Normalize(cfg.OutUnit) {
		if err := units.ConvertSeries(out, cfg.OutUnit); err != nil {
			return newConfigError("cannot convert result to %q: %v", cfg.OutUnit, err)
		}
	}

	applyMissingMask(out, in, cfg.Missing)
	renderMetadata(out, ind.name, in)

	source := cfg.SourceName
	if source == "" {
		source = in.varNames(", ")
	}
	out.Attrs.History = fmt.Sprintf("%s: %s of %s computed over %s [%s]",
		clock.Now().UTC().Format(time.RFC3339), ind.name, source, in.freq.Description, id)
	return nil
}
