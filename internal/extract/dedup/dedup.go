package dedup

import (
	"slices"
	"strconv"
	"strings"

	"shuassist-backend/internal/extract/record"
	"shuassist-backend/pkg/textutil"
)

const (
	FIELD_SECTION    = "section"
	FIELD_SUB_PERIOD = "sub_period"
)

type Config struct {
	// Key lists the identity fields, the section key is always part of the composite key.
	Key []string `json:"key"`
	// SortBy requests a secondary stable sort, "section" and "sub_period" address the record
	// tags. Empty keeps discovery order.
	SortBy []string `json:"sort_by"`
	// Order gives the explicit rank of the values of a sort field, e.g. sub_period:
	// ["上學期", "下學期"].
	Order map[string][]string `json:"order"`
}

func keyOf(section string, values ...string) string {
	var b strings.Builder
	b.WriteString(textutil.Fold(section))
	for _, v := range values {
		b.WriteByte(0)
		b.WriteString(textutil.Fold(v))
	}
	return b.String()
}

// Records drops every record whose (section, key fields...) was already seen, the first
// occurrence wins and the order of the survivors is unchanged.
func Records(records []record.Record, key []string) []record.Record {
	seen := map[string]struct{}{}
	out := make([]record.Record, 0, len(records))
	for _, r := range records {
		values := make([]string, len(key))
		for i, k := range key {
			values[i] = r.Raw(k)
		}
		id := keyOf(r.Section, values...)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, r)
	}
	return out
}

// Summaries drops repeated (section, sub-period) pairs, the first occurrence wins.
func Summaries(summaries []record.SummaryRecord) []record.SummaryRecord {
	seen := map[string]struct{}{}
	out := make([]record.SummaryRecord, 0, len(summaries))
	for _, s := range summaries {
		id := keyOf(s.Section, s.SubPeriod)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, s)
	}
	return out
}

func rank(value string, order []string) int {
	for i, o := range order {
		if o == value {
			return i
		}
	}
	return len(order)
}

// compareValues orders by explicit rank first, then numerically when both values are
// numbers, then lexically.
func compareValues(a, b string, order []string) int {
	if len(order) > 0 {
		ra, rb := rank(a, order), rank(b, order)
		if ra != rb {
			return ra - rb
		}
	}
	fa, errA := strconv.ParseFloat(textutil.Fold(a), 64)
	fb, errB := strconv.ParseFloat(textutil.Fold(b), 64)
	if errA == nil && errB == nil {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	return strings.Compare(a, b)
}

func compareBy(by []string, order map[string][]string, get func(field string) (string, string)) int {
	for _, field := range by {
		a, b := get(field)
		if c := compareValues(a, b, order[field]); c != 0 {
			return c
		}
	}
	return 0
}

func recordValue(r record.Record, field string) string {
	if field == FIELD_SECTION {
		return r.Section
	}
	return r.Raw(field)
}

func summaryValue(s record.SummaryRecord, field string) string {
	if field == FIELD_SUB_PERIOD {
		return s.SubPeriod
	}
	return recordValue(s.Record, field)
}

// SortRecords sorts in place, ties keep their discovery order.
func SortRecords(records []record.Record, by []string, order map[string][]string) {
	if len(by) == 0 {
		return
	}
	slices.SortStableFunc(records, func(a, b record.Record) int {
		return compareBy(by, order, func(field string) (string, string) {
			return recordValue(a, field), recordValue(b, field)
		})
	})
}

// SortSummaries sorts in place, ties keep their discovery order.
func SortSummaries(summaries []record.SummaryRecord, by []string, order map[string][]string) {
	if len(by) == 0 {
		return
	}
	slices.SortStableFunc(summaries, func(a, b record.SummaryRecord) int {
		return compareBy(by, order, func(field string) (string, string) {
			return summaryValue(a, field), summaryValue(b, field)
		})
	})
}

// Apply deduplicates and then applies the configured secondary sort.
func Apply(cfg Config, records []record.Record) []record.Record {
	out := Records(records, cfg.Key)
	SortRecords(out, cfg.SortBy, cfg.Order)
	return out
}
