package cascade

import (
	"testing"

	"shuassist-backend/internal/components/telemetry"
	"shuassist-backend/internal/extract/record"
	"shuassist-backend/internal/extract/strategy"

	"github.com/stretchr/testify/require"
)

type fakeStrategy struct {
	name  string
	out   strategy.Outcome
	calls *int
}

func (f fakeStrategy) Name() string {
	return f.name
}

func (f fakeStrategy) Extract(strategy.Input) strategy.Outcome {
	*f.calls++
	return f.out
}

func TestRunner(t *testing.T) {
	found := strategy.Outcome{Records: []record.Record{{
		Section: "113",
		Fields:  []record.Field{{Name: "subject", Value: record.String("英文")}, {Name: "category", Value: record.String("必")}},
	}}}

	testCases := []struct {
		name       string
		outcomes   []strategy.Outcome
		expected   string
		records    int
		calls      []int
		diagnostic int
		skipped    int
	}{
		{
			name:     "first wins",
			outcomes: []strategy.Outcome{found, found},
			expected: "s0",
			records:  1,
			calls:    []int{1, 0},
		},
		{
			name: "fallback",
			outcomes: []strategy.Outcome{
				{Skipped: 3, Diagnostics: []error{&record.AnomalousToken{Line: "x"}}},
				found,
			},
			expected: "s1",
			records:  1,
			calls:    []int{1, 1},
		},
		{
			name: "all empty",
			outcomes: []strategy.Outcome{
				{Skipped: 3, Diagnostics: []error{&record.AnomalousToken{Line: "x"}}},
				{Skipped: 2},
			},
			expected:   "",
			calls:      []int{1, 1},
			diagnostic: 1,
			skipped:    5,
		},
	}

	for _, test := range testCases {
		calls := make([]int, len(test.outcomes))
		var strategies []Strategy
		for i, out := range test.outcomes {
			strategies = append(strategies, fakeStrategy{
				name:  []string{"s0", "s1"}[i],
				out:   out,
				calls: &calls[i],
			})
		}

		runner := NewRunner(telemetry.NewRecorder(), strategies...)
		res := runner.Run(strategy.Input{})

		require.Equal(t, test.expected, res.Strategy, test.name)
		require.Equal(t, test.expected == "", res.Empty(), test.name)
		require.Len(t, res.Records, test.records, test.name)
		require.Equal(t, test.calls, calls, test.name)
		require.Len(t, res.Diagnostics, test.diagnostic, test.name)
		require.Equal(t, test.skipped, res.Skipped, test.name)
	}
}

func TestRunnerNames(t *testing.T) {
	calls := 0
	runner := NewRunner(
		telemetry.Nop{},
		fakeStrategy{name: strategy.TABULAR, calls: &calls},
		fakeStrategy{name: strategy.LEXICAL, calls: &calls},
	)
	require.Equal(t, []string{strategy.TABULAR, strategy.LEXICAL}, runner.Names())

	res := runner.Run(strategy.Input{})
	require.True(t, res.Empty())
	require.Equal(t, 2, res.Attempts)
}
