package cascade

import (
	"shuassist-backend/internal/components/assert"
	"shuassist-backend/internal/components/telemetry"
	"shuassist-backend/internal/extract/strategy"
)

const (
	report_cascade_attempt = "attempt"
	report_cascade_empty   = "empty"
)

// Strategy is one complete parsing algorithm.
type Strategy interface {
	Name() string
	Extract(in strategy.Input) strategy.Outcome
}

// Result is the output of the strategy that won. Strategy is empty when every strategy came
// back empty, the skipped counts and diagnostics of all of them are then summed up.
type Result struct {
	Strategy string
	strategy.Outcome
	// Attempts counts how many strategies were invoked.
	Attempts int
}

// Empty reports the "no data found" outcome, it is not a failure.
func (r Result) Empty() bool {
	return r.Strategy == ""
}

// Runner tries strategies in priority order and returns the output of the first one that
// produces records, unchanged.
type Runner struct {
	strategies []Strategy
	tel        telemetry.API
}

func NewRunner(tel telemetry.API, strategies ...Strategy) Runner {
	assert.NotNil(tel)
	for _, s := range strategies {
		assert.NotNil(s)
	}
	return Runner{
		strategies: strategies,
		tel:        telemetry.NewScopedAPI("cascade", tel),
	}
}

// Names returns the strategy names in priority order.
func (r Runner) Names() []string {
	names := make([]string, len(r.strategies))
	for i, s := range r.strategies {
		names[i] = s.Name()
	}
	return names
}

func (r Runner) Run(in strategy.Input) Result {
	result := Result{}
	for _, s := range r.strategies {
		result.Attempts++
		out := s.Extract(in)
		r.tel.ReportDebug(report_cascade_attempt, s.Name(), len(out.Records), out.Skipped)
		if len(out.Records) > 0 {
			result.Strategy = s.Name()
			result.Outcome = out
			return result
		}
		result.Diagnostics = append(result.Diagnostics, out.Diagnostics...)
		result.Skipped += out.Skipped
	}
	r.tel.ReportDebug(report_cascade_empty, result.Attempts)
	result.Records = nil
	return result
}
