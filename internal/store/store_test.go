package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"shuassist-backend/internal/components/chrono"
	"shuassist-backend/internal/extract"
	"shuassist-backend/internal/extract/record"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, at time.Time) Store {
	t.Helper()
	db, err := OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db, chrono.Fixed{At: at})
}

func TestStore(t *testing.T) {
	at := time.Date(2024, 9, 1, 10, 0, 0, 0, time.UTC)
	s := newStore(t, at)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	runs, err := s.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 0)

	result := extract.Result{
		Kind:     "grades",
		Outcome:  extract.OUTCOME_RECORDS,
		Strategy: "tabular",
		Records: []record.Record{
			{
				Section: "113",
				Fields: []record.Field{
					{Name: "category", Value: record.String("必")},
					{Name: "subject", Value: record.String("英文")},
					{Name: "term1_credit", Value: record.Int(2)},
					{Name: "term1_grade", Value: record.String("85")},
					{Name: "term2_grade", Value: record.Absent()},
				},
			},
			{
				Section: "112",
				Fields: []record.Field{
					{Name: "subject", Value: record.String("微積分")},
					{Name: "average", Value: record.Float(78.5)},
				},
			},
		},
		Summaries: []record.SummaryRecord{
			{
				Record: record.Record{
					Section: "113",
					Fields:  []record.Field{{Name: "average", Value: record.Float(85.5)}},
				},
				SubPeriod: "上學期",
			},
		},
		Skipped:     3,
		Diagnostics: []error{&record.AnomalousToken{Line: "x", Extra: []string{"1"}}},
	}

	id, err := s.SaveRun(ctx, "grades", result)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	records, err := s.Records(ctx, id)
	require.NoError(t, err)
	diff := cmp.Diff(result.Records, records)
	if diff != "" {
		t.Fatal(diff)
	}

	summaries, err := s.Summaries(ctx, id)
	require.NoError(t, err)
	diff = cmp.Diff(result.Summaries, summaries)
	if diff != "" {
		t.Fatal(diff)
	}

	empty, err := s.SaveRun(ctx, "ranking", extract.Result{Kind: "ranking", Outcome: extract.OUTCOME_NO_DATA})
	require.NoError(t, err)

	runs, err = s.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	// same timestamp, the later insert comes first
	require.Equal(t, empty, runs[0].ID)
	require.Equal(t, "no data", runs[0].Outcome)
	require.Equal(t, 0, runs[0].Records)
	require.Equal(t, Run{
		ID:          id,
		Kind:        "grades",
		Outcome:     "records",
		Strategy:    "tabular",
		Records:     2,
		Summaries:   1,
		Skipped:     3,
		Diagnostics: 1,
		CreatedAt:   at,
	}, runs[1])

	records, err = s.Records(ctx, "unknown")
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestOpenDBCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "results.db")
	db, err := OpenDB(path)
	require.NoError(t, err)
	defer db.Close()

	// applying the schema twice is harmless
	_, err = db.Exec(Schema)
	require.NoError(t, err)
}

func TestOpenDBFailure(t *testing.T) {
	// a directory can be opened lazily but never set up
	db, err := OpenDB(t.TempDir())
	require.ErrorContains(t, err, "open db")
	require.Nil(t, db)
}
