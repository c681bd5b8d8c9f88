package dedup

import (
	"testing"

	"shuassist-backend/internal/extract/record"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func course(section, category, subject, grade string) record.Record {
	return record.Record{
		Section: section,
		Fields: []record.Field{
			{Name: "category", Value: record.String(category)},
			{Name: "subject", Value: record.String(subject)},
			{Name: "term1_grade", Value: record.String(grade)},
		},
	}
}

var courseKey = []string{"category", "subject"}

func TestRecordsFirstWins(t *testing.T) {
	records := []record.Record{
		course("113", "必", "英文", "85"),
		course("113", "選", "微積分", "78"),
		course("113", "必", "英文", "60"),
		course("112", "必", "英文", "70"),
		course("113", "必", "英文", "85"),
	}

	out := Records(records, courseKey)
	expected := []record.Record{
		course("113", "必", "英文", "85"),
		course("113", "選", "微積分", "78"),
		course("112", "必", "英文", "70"),
	}
	diff := cmp.Diff(expected, out)
	if diff != "" {
		t.Fatal(diff)
	}

	// fixed point
	diff = cmp.Diff(out, Records(out, courseKey))
	if diff != "" {
		t.Fatal(diff)
	}
}

func TestSort(t *testing.T) {
	records := []record.Record{
		{Section: "113", Fields: []record.Field{{Name: "term", Value: record.String("2")}, {Name: "id", Value: record.String("a")}}},
		{Section: "112", Fields: []record.Field{{Name: "term", Value: record.String("2")}, {Name: "id", Value: record.String("b")}}},
		{Section: "113", Fields: []record.Field{{Name: "term", Value: record.String("1")}, {Name: "id", Value: record.String("c")}}},
		{Section: "112", Fields: []record.Field{{Name: "term", Value: record.String("2")}, {Name: "id", Value: record.String("d")}}},
		{Section: "99", Fields: []record.Field{{Name: "term", Value: record.String("1")}, {Name: "id", Value: record.String("e")}}},
	}

	SortRecords(records, []string{FIELD_SECTION, "term"}, nil)

	var ids []string
	for _, r := range records {
		ids = append(ids, r.Raw("id"))
	}
	// numeric comparison puts 99 first, b and d tie and keep their order
	require.Equal(t, []string{"e", "b", "d", "c", "a"}, ids)
}

func TestSummaries(t *testing.T) {
	summary := func(section, sub, avg string) record.SummaryRecord {
		return record.SummaryRecord{
			Record:    record.Record{Section: section, Fields: []record.Field{{Name: "average", Value: record.String(avg)}}},
			SubPeriod: sub,
		}
	}

	out := Summaries([]record.SummaryRecord{
		summary("113", "下學期", "88"),
		summary("113", "上學期", "85"),
		summary("112", "上學期", "80"),
		summary("113", "上學期", "10"),
	})
	require.Len(t, out, 3)

	SortSummaries(out, []string{FIELD_SECTION, FIELD_SUB_PERIOD}, map[string][]string{
		FIELD_SUB_PERIOD: {"上學期", "下學期"},
	})
	var got []string
	for _, s := range out {
		got = append(got, s.Section+s.SubPeriod+s.Raw("average"))
	}
	require.Equal(t, []string{"112上學期80", "113上學期85", "113下學期88"}, got)
}

func TestApply(t *testing.T) {
	out := Apply(Config{Key: courseKey}, []record.Record{
		course("113", "必", "英文", "85"),
		course("112", "選", "微積分", "78"),
		course("113", "必", "英文", "60"),
	})
	require.Len(t, out, 2)
	require.Equal(t, "113", out[0].Section)
}
