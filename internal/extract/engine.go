// Package extract wires the extraction pipeline for one record kind: input validation, the
// strategy cascade, value normalization, deduplication and ordering, and summary aggregation.
package extract

import (
	"shuassist-backend/internal/components/telemetry"
	"shuassist-backend/internal/extract/cascade"
	"shuassist-backend/internal/extract/classify"
	"shuassist-backend/internal/extract/dedup"
	"shuassist-backend/internal/extract/kind"
	"shuassist-backend/internal/extract/normalize"
	"shuassist-backend/internal/extract/record"
	"shuassist-backend/internal/extract/strategy"
	"shuassist-backend/internal/extract/summary"
)

const (
	report_engine_run     = "run"
	report_engine_no_data = "run.no-data"
	report_engine_records = "run.records"
)

type Outcome int

const (
	OUTCOME_RECORDS Outcome = iota
	OUTCOME_NO_DATA
)

func (o Outcome) String() string {
	switch o {
	case OUTCOME_RECORDS:
		return "records"
	case OUTCOME_NO_DATA:
		return "no data"
	}
	return "unknown"
}

// Options are the per-run settings supplied by the caller.
type Options struct {
	// Section is the section the run starts in, it overrides the kind's initial section.
	Section string
}

type Result struct {
	Kind    string
	Outcome Outcome
	// Strategy is the name of the strategy that produced the records, empty on no data.
	Strategy  string
	Records   []record.Record
	Summaries []record.SummaryRecord
	// Skipped counts the rows and lines the winning strategy dropped, or those of every
	// strategy when none of them produced records.
	Skipped     int
	Diagnostics []error
}

// Engine runs one record kind. It holds no state between runs, so a single engine may serve
// concurrent runs.
type Engine struct {
	cfg        kind.Config
	runner     cascade.Runner
	normalizer normalize.Normalizer
	aggregator *summary.Aggregator
	tel        telemetry.API
}

type EngineOption func(cfg *engineCfg)

type engineCfg struct {
	tel telemetry.API
}

func WithTelemetryAPI(tel telemetry.API) EngineOption {
	return func(cfg *engineCfg) {
		cfg.tel = tel
	}
}

func NewEngine(cfg kind.Config, opts ...EngineOption) (Engine, error) {
	var options engineCfg
	for _, o := range opts {
		o(&options)
	}
	if options.tel == nil {
		options.tel = telemetry.SlogAPI{}
	}
	tel := telemetry.NewScopedAPI(cfg.Name, options.tel)

	err := cfg.Validate()
	if err != nil {
		return Engine{}, err
	}

	strategies, err := cfg.Strategies(tel)
	if err != nil {
		return Engine{}, err
	}
	normalizer, err := normalize.NewNormalizer(cfg.Normalize, tel)
	if err != nil {
		return Engine{}, err
	}

	e := Engine{
		cfg:        cfg,
		runner:     cascade.NewRunner(tel, strategies...),
		normalizer: normalizer,
		tel:        telemetry.NewScopedAPI("engine", tel),
	}
	if cfg.HasSummaries() {
		classifier, err := classify.NewClassifier(cfg.Classifier)
		if err != nil {
			return Engine{}, err
		}
		aggregator, err := summary.NewAggregator(cfg.Summary, classifier, tel)
		if err != nil {
			return Engine{}, err
		}
		e.aggregator = &aggregator
	}
	return e, nil
}

func (e Engine) Kind() kind.Config {
	return e.cfg
}

// Run extracts every record of the content. The only error is a *record.InputContractError,
// an empty result is reported through Result.Outcome.
func (e Engine) Run(content record.Content, opts Options) (Result, error) {
	err := content.Validate()
	if err != nil {
		e.tel.ReportBroken(report_engine_run, err)
		return Result{}, err
	}

	initial := opts.Section
	if initial == "" {
		initial = e.cfg.InitialSection
	}
	in := strategy.Input{Content: content, InitialSection: initial}

	cascaded := e.runner.Run(in)
	result := Result{
		Kind:        e.cfg.Name,
		Strategy:    cascaded.Strategy,
		Skipped:     cascaded.Skipped,
		Diagnostics: cascaded.Diagnostics,
	}

	if !cascaded.Empty() {
		records, errs := e.normalizer.Normalize(cascaded.Records)
		result.Diagnostics = append(result.Diagnostics, errs...)
		result.Records = dedup.Apply(e.cfg.Dedup, records)
	}

	if e.aggregator != nil {
		summaries, errs := e.aggregator.Aggregate(content.TextLines(), initial)
		result.Diagnostics = append(result.Diagnostics, errs...)
		summaries = dedup.Summaries(summaries)
		dedup.SortSummaries(summaries, e.cfg.SummarySort, e.cfg.Dedup.Order)
		result.Summaries = summaries
	}

	if len(result.Records) == 0 {
		result.Outcome = OUTCOME_NO_DATA
		e.tel.ReportDebug(report_engine_no_data, content.Size(), cascaded.Attempts)
		return result, nil
	}
	result.Outcome = OUTCOME_RECORDS
	e.tel.ReportCount(report_engine_records, int64(len(result.Records)))
	return result, nil
}
