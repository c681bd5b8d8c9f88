package summary

import (
	"testing"

	"shuassist-backend/internal/components/telemetry"
	"shuassist-backend/internal/extract/classify"
	"shuassist-backend/internal/extract/record"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func newAggregator(t *testing.T, tel telemetry.API) Aggregator {
	t.Helper()
	c, err := classify.NewClassifier(classify.DefaultConfig())
	require.NoError(t, err)
	a, err := NewAggregator(DefaultConfig(), c, tel)
	require.NoError(t, err)
	return a
}

func summary(section, sub string, average record.Value, attempted, earned record.Value, conduct record.Value) record.SummaryRecord {
	return record.SummaryRecord{
		Record: record.Record{
			Section: section,
			Fields: []record.Field{
				{Name: classify.AGGREGATE_AVERAGE, Value: average},
				{Name: classify.AGGREGATE_CREDITS_ATTEMPTED, Value: attempted},
				{Name: classify.AGGREGATE_CREDITS_EARNED, Value: earned},
				{Name: classify.AGGREGATE_CONDUCT, Value: conduct},
			},
		},
		SubPeriod: sub,
	}
}

func TestAggregate(t *testing.T) {
	rec := telemetry.NewRecorder()
	a := newAggregator(t, rec)

	out, errs := a.Aggregate([]string{
		"學業成績總平均 80 81",
		"113學年第一學期",
		"必 英文 2 85 2 90",
		"學業成績總平均：85.50 88.2",
		"修習學分數 20 22",
		"實得學分數 20 19",
		"操行成績 甲 乙",
		"112學年",
		"學業成績總平均 70.5",
		"111學年",
	}, "")
	require.Empty(t, errs)

	expected := []record.SummaryRecord{
		summary("113", "上學期", record.Float(85.5), record.Int(20), record.Int(20), record.String("甲")),
		summary("113", "下學期", record.Float(88.2), record.Int(22), record.Int(19), record.String("乙")),
		summary("112", "上學期", record.Float(70.5), record.Absent(), record.Absent(), record.Absent()),
		summary("112", "下學期", record.Absent(), record.Absent(), record.Absent(), record.Absent()),
	}
	diff := cmp.Diff(expected, out)
	if diff != "" {
		t.Fatal(diff)
	}

	require.Len(t, rec.Find(telemetry.REPORT_WARNING, report_summary_short_line), 1)
}

func TestAggregateExtraValues(t *testing.T) {
	rec := telemetry.NewRecorder()
	a := newAggregator(t, rec)

	out, errs := a.Aggregate([]string{
		"操行成績 甲 乙 丙",
	}, "113")
	require.Len(t, errs, 1)
	require.Len(t, out, 2)
	require.Equal(t, "113", out[0].Section)
	require.Equal(t, "乙", out[1].Raw(classify.AGGREGATE_CONDUCT))
	require.Len(t, rec.Find(telemetry.REPORT_WARNING, report_summary_extra), 1)
}

func TestNewAggregatorInvalid(t *testing.T) {
	c, err := classify.NewClassifier(classify.DefaultConfig())
	require.NoError(t, err)
	_, err = NewAggregator(Config{Kinds: []string{"average"}}, c, telemetry.Nop{})
	require.Error(t, err)
}
