package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"shuassist-backend/internal/components/assert"
	"shuassist-backend/internal/components/telemetry"
	"shuassist-backend/internal/extract/record"
	"shuassist-backend/pkg/textutil"
)

const report_normalizer_coerce = "coerce"

type FieldType string

const (
	TYPE_STRING  FieldType = "string"
	TYPE_NAME    FieldType = "name"
	TYPE_INT     FieldType = "int"
	TYPE_GRADE   FieldType = "grade"
	TYPE_FLOAT   FieldType = "float"
	TYPE_TRIPLET FieldType = "triplet"
)

type FieldRule struct {
	Field string    `json:"field"`
	Type  FieldType `json:"type"`
	// Split names the numeric sub-fields of a triplet, at most three.
	Split []string `json:"split"`
}

type Config struct {
	Fields []FieldRule `json:"fields"`
	// Sentinels coerce to absent for int, grade, float and triplet fields, they are compared
	// case-insensitively.
	Sentinels []string `json:"sentinels"`
}

func DefaultSentinels() []string {
	return []string{"---", "-", "", "nan"}
}

var tripletSeparator = regexp.MustCompile(`\s*/\s*`)

// Normalizer coerces raw string values into their declared types. It runs after strategy
// selection, classification always sees raw text.
type Normalizer struct {
	rules     map[string]FieldRule
	sentinels map[string]struct{}
	tel       telemetry.API
}

func NewNormalizer(cfg Config, tel telemetry.API) (Normalizer, error) {
	assert.NotNil(tel)

	sentinels := cfg.Sentinels
	if len(sentinels) == 0 {
		sentinels = DefaultSentinels()
	}
	n := Normalizer{
		rules:     map[string]FieldRule{},
		sentinels: map[string]struct{}{},
		tel:       telemetry.NewScopedAPI("normalizer", tel),
	}
	// the empty string is always a sentinel
	n.sentinels[""] = struct{}{}
	for _, s := range sentinels {
		n.sentinels[strings.ToLower(textutil.Fold(s))] = struct{}{}
	}

	for _, rule := range cfg.Fields {
		if rule.Field == "" {
			return Normalizer{}, fmt.Errorf("normalizer: field rule without a field name")
		}
		switch rule.Type {
		case TYPE_STRING, TYPE_NAME, TYPE_INT, TYPE_GRADE, TYPE_FLOAT:
		case TYPE_TRIPLET:
			if len(rule.Split) == 0 || len(rule.Split) > 3 {
				return Normalizer{}, fmt.Errorf("normalizer: triplet %s needs 1 to 3 sub-fields", rule.Field)
			}
		default:
			return Normalizer{}, fmt.Errorf("normalizer: unknown type %q for %s", rule.Type, rule.Field)
		}
		n.rules[rule.Field] = rule
	}
	return n, nil
}

func (n Normalizer) IsSentinel(raw string) bool {
	_, ok := n.sentinels[strings.ToLower(textutil.Fold(raw))]
	return ok
}

// Normalize returns coerced copies of the records, the input is left untouched. Values that
// cannot be coerced become absent and are returned as *record.NormalizationError.
func (n Normalizer) Normalize(records []record.Record) ([]record.Record, []error) {
	out := make([]record.Record, len(records))
	var diagnostics []error
	for i, r := range records {
		normalized, errs := n.NormalizeRecord(r)
		out[i] = normalized
		diagnostics = append(diagnostics, errs...)
	}
	return out, diagnostics
}

func (n Normalizer) NormalizeRecord(r record.Record) (record.Record, []error) {
	out := record.Record{Section: r.Section, Fields: make([]record.Field, 0, len(r.Fields))}
	var errs []error
	fail := func(field, raw string, t FieldType) {
		err := &record.NormalizationError{Field: field, Raw: raw, Type: string(t)}
		n.tel.ReportWarning(report_normalizer_coerce, err)
		errs = append(errs, err)
	}

	for _, f := range r.Fields {
		rule, ok := n.rules[f.Name]
		if !ok || f.Value.Kind != record.VALUE_STRING {
			out.Fields = append(out.Fields, f)
			continue
		}
		raw := f.Value.Str

		switch rule.Type {
		case TYPE_STRING:
			out.Fields = append(out.Fields, f)
		case TYPE_NAME:
			out.Fields = append(out.Fields, record.Field{Name: f.Name, Value: record.String(textutil.CleanEntityName(raw))})
		case TYPE_GRADE:
			value := record.String(strings.TrimSpace(raw))
			if n.IsSentinel(raw) {
				value = record.Absent()
			}
			out.Fields = append(out.Fields, record.Field{Name: f.Name, Value: value})
		case TYPE_INT:
			value, ok := n.coerceInt(raw)
			if !ok {
				fail(f.Name, raw, rule.Type)
			}
			out.Fields = append(out.Fields, record.Field{Name: f.Name, Value: value})
		case TYPE_FLOAT:
			value := record.Absent()
			if !n.IsSentinel(raw) {
				parsed, err := strconv.ParseFloat(textutil.Fold(raw), 64)
				if err != nil {
					fail(f.Name, raw, rule.Type)
				} else {
					value = record.Float(parsed)
				}
			}
			out.Fields = append(out.Fields, record.Field{Name: f.Name, Value: value})
		case TYPE_TRIPLET:
			fields, ok := n.splitTriplet(f.Name, raw, rule.Split)
			if !ok {
				fail(f.Name, raw, rule.Type)
			}
			out.Fields = append(out.Fields, fields...)
		}
	}
	return out, errs
}

// coerceInt returns absent for sentinels, ok is false only when an actual value could not
// be parsed.
func (n Normalizer) coerceInt(raw string) (record.Value, bool) {
	if n.IsSentinel(raw) {
		return record.Absent(), true
	}
	parsed, err := strconv.ParseInt(textutil.Fold(raw), 10, 64)
	if err != nil {
		return record.Absent(), false
	}
	return record.Int(parsed), true
}

// splitTriplet splits "3/45/120" into numeric sub-fields, missing positions are absent. The
// source field is rewritten as "3／45／120" so spreadsheet programs do not read it as a date,
// the sub-fields are parsed from the original value.
func (n Normalizer) splitTriplet(name, raw string, split []string) ([]record.Field, bool) {
	fields := make([]record.Field, 0, len(split)+1)
	folded := textutil.Fold(raw)

	if n.IsSentinel(raw) {
		fields = append(fields, record.Field{Name: name, Value: record.Absent()})
		for _, sub := range split {
			fields = append(fields, record.Field{Name: sub, Value: record.Absent()})
		}
		return fields, true
	}

	fields = append(fields, record.Field{Name: name, Value: record.String(textutil.WidenSlashes(folded))})
	parts := tripletSeparator.Split(folded, -1)
	ok := len(parts) <= len(split)
	for i, sub := range split {
		value := record.Absent()
		if i < len(parts) {
			parsed, valid := n.coerceInt(parts[i])
			if !valid {
				ok = false
			}
			value = parsed
		}
		fields = append(fields, record.Field{Name: sub, Value: value})
	}
	return fields, ok
}
