package strategy

import (
	"testing"

	"shuassist-backend/internal/components/telemetry"
	"shuassist-backend/internal/extract/classify"
	"shuassist-backend/internal/extract/record"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func newClassifier(t *testing.T, markers ...string) classify.Classifier {
	t.Helper()
	cfg := classify.DefaultConfig()
	if len(markers) > 0 {
		cfg.SectionMarkers = markers
	}
	c, err := classify.NewClassifier(cfg)
	require.NoError(t, err)
	return c
}

func gradeColumns() []Column {
	return []Column{
		{Field: "category", Labels: []string{"選別"}},
		{Field: "subject", Labels: []string{"科目", "科目名稱"}},
		{Field: "term1_credit", Labels: []string{"上學期_學分"}},
		{Field: "term1_grade", Labels: []string{"上學期_成績"}},
		{Field: "term2_credit", Labels: []string{"下學期_學分"}},
		{Field: "term2_grade", Labels: []string{"下學期_成績"}},
	}
}

func gradesTabular(t *testing.T, tel telemetry.API) Tabular {
	t.Helper()
	tab, err := NewTabular(TabularConfig{
		Require:       []string{"科目"},
		FirstOnly:     true,
		Columns:       gradeColumns(),
		MinCells:      3,
		CategoryField: "category",
		Categories:    []string{"必", "選", "通"},
		NameField:     "subject",
	}, newClassifier(t), tel)
	require.NoError(t, err)
	return tab
}

func gradesLexical(t *testing.T, tel telemetry.API) Lexical {
	t.Helper()
	lex, err := NewLexical(LexicalConfig{
		CategoryTokens: []string{"必", "選", "通"},
		Noise:          []string{"選別", "學號", "列印"},
		CategoryField:  "category",
		NameField:      "subject",
		DataFields:     []string{"term1_credit", "term1_grade", "term2_credit", "term2_grade"},
	}, newClassifier(t), tel)
	require.NoError(t, err)
	return lex
}

func fields(pairs ...string) []record.Field {
	out := make([]record.Field, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, record.Field{Name: pairs[i], Value: record.String(pairs[i+1])})
	}
	return out
}

func requireRecords(t *testing.T, expected []record.Record, got []record.Record) {
	t.Helper()
	diff := cmp.Diff(expected, got)
	if diff != "" {
		t.Fatal(diff)
	}
}
