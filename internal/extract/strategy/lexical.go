package strategy

import (
	"fmt"
	"strings"

	"shuassist-backend/internal/components/assert"
	"shuassist-backend/internal/components/telemetry"
	"shuassist-backend/internal/extract/classify"
	"shuassist-backend/internal/extract/record"
	"shuassist-backend/pkg/textutil"
)

const report_lexical_tokenize = "tokenize.extra-tokens"

type LexicalConfig struct {
	// CategoryTokens are the leading tokens that start a course line (必, 選, 通).
	CategoryTokens []string `json:"category_tokens"`
	// Noise lists keywords of restated headers, page chrome and banners.
	Noise         []string `json:"noise"`
	CategoryField string   `json:"category_field"`
	NameField     string   `json:"name_field"`
	// DataFields are the four data slots in order: term-1 credit, term-1 grade, term-2
	// credit, term-2 grade.
	DataFields []string `json:"data_fields"`
}

// Lexical is the plain text fallback, it hands every course line to the course-line
// tokenizer.
type Lexical struct {
	cfg        LexicalConfig
	classifier classify.Classifier
	tel        telemetry.API
	categories []string
	noise      []string
}

func NewLexical(cfg LexicalConfig, classifier classify.Classifier, tel telemetry.API) (Lexical, error) {
	assert.NotNil(tel)

	if len(cfg.DataFields) != 4 {
		return Lexical{}, fmt.Errorf("lexical: exactly 4 data fields are required, got %d", len(cfg.DataFields))
	}
	if len(cfg.CategoryTokens) == 0 {
		return Lexical{}, fmt.Errorf("lexical: at least one category token is required")
	}
	if cfg.CategoryField == "" || cfg.NameField == "" {
		return Lexical{}, fmt.Errorf("lexical: category_field and name_field are required")
	}

	return Lexical{
		cfg:        cfg,
		classifier: classifier,
		tel:        telemetry.NewScopedAPI(LEXICAL, tel),
		categories: foldAll(cfg.CategoryTokens),
		noise:      foldAll(cfg.Noise),
	}, nil
}

func (l Lexical) Name() string {
	return LEXICAL
}

func (l Lexical) Extract(in Input) Outcome {
	out := Outcome{}
	tracker := in.tracker()

	for _, line := range in.Content.TextLines() {
		tokens := strings.Fields(line)
		// a course line may mention a year in its subject, it never moves the section
		courseLine := len(tokens) > 0 && contains(l.categories, textutil.Fold(tokens[0]))
		if !courseLine && tracker.Observe(l.classifier.Classify(line)) {
			continue
		}
		if textutil.ContainsAny(textutil.Fold(line), l.noise) {
			out.skip()
			continue
		}
		if !courseLine {
			out.skip()
			continue
		}
		key, ok := tracker.Current()
		if !ok {
			out.skip()
			continue
		}

		rec, extra := l.Tokenize(tokens)
		if len(extra) > 0 {
			out.anomaly(l.tel, report_lexical_tokenize, line, extra)
		}
		if !l.hasData(rec) || !rec.Valid() {
			out.skip()
			continue
		}
		rec.Section = key
		out.Records = append(out.Records, rec)
	}

	return out.finish(l.tel)
}

func (l Lexical) hasData(rec record.Record) bool {
	for _, f := range l.cfg.DataFields {
		if v, ok := rec.Get(f); ok && !v.IsEmpty() {
			return true
		}
	}
	return false
}

// isDataToken reports whether a token ends the entity name: any pure number, a sentinel or
// a decimal.
func (l Lexical) isDataToken(token string) bool {
	folded := textutil.Fold(token)
	return classify.IsDigits(folded) || classify.IsDecimal(folded) || l.classifier.IsSentinel(folded)
}

// Tokenize splits a course line (category token first) into a record and returns the data
// tokens that had no slot.
//
// Data token policy:
//   - 1 token: a credit if purely numeric, otherwise a term-1 grade
//   - 2 tokens: (credit, grade) of term 1 if the first is numeric, otherwise (term-1 grade,
//     term-2 grade)
//   - 3 tokens: (shared credit, term-1 grade, term-2 grade) if the first is numeric,
//     otherwise (term-1 grade, term-2 grade) and the third token is dropped
//   - 4 or more: (term-1 credit, term-1 grade, term-2 credit, term-2 grade), the rest is
//     dropped
func (l Lexical) Tokenize(tokens []string) (record.Record, []string) {
	rec := record.Record{}
	if len(tokens) == 0 {
		return rec, nil
	}
	rec.SetString(l.cfg.CategoryField, tokens[0])

	rest := tokens[1:]
	boundary := len(rest)
	for i, tok := range rest {
		if !l.isDataToken(tok) {
			continue
		}
		// "0 大一外文英文": a placeholder digit in front of a name is part of the name
		if i == 0 && textutil.IsPlaceholderDigit(tok) && i+1 < len(rest) && !l.isDataToken(rest[i+1]) {
			continue
		}
		boundary = i
		break
	}
	rec.SetString(l.cfg.NameField, textutil.CleanEntityName(strings.Join(rest[:boundary], " ")))

	data := rest[boundary:]
	credit1, grade1, credit2, grade2 := l.cfg.DataFields[0], l.cfg.DataFields[1], l.cfg.DataFields[2], l.cfg.DataFields[3]
	numeric := func(tok string) bool {
		return classify.IsDigits(textutil.Fold(tok))
	}

	var extra []string
	switch {
	case len(data) == 0:
	case len(data) == 1:
		if numeric(data[0]) {
			rec.SetString(credit1, data[0])
		} else {
			rec.SetString(grade1, data[0])
		}
	case len(data) == 2:
		if numeric(data[0]) {
			rec.SetString(credit1, data[0])
			rec.SetString(grade1, data[1])
		} else {
			rec.SetString(grade1, data[0])
			rec.SetString(grade2, data[1])
		}
	case len(data) == 3:
		if numeric(data[0]) {
			rec.SetString(credit1, data[0])
			rec.SetString(grade1, data[1])
			rec.SetString(credit2, data[0])
			rec.SetString(grade2, data[2])
		} else {
			rec.SetString(grade1, data[0])
			rec.SetString(grade2, data[1])
			extra = data[2:]
		}
	default:
		rec.SetString(credit1, data[0])
		rec.SetString(grade1, data[1])
		rec.SetString(credit2, data[2])
		rec.SetString(grade2, data[3])
		if len(data) > 4 {
			extra = data[4:]
		}
	}

	l.reorder(&rec)
	return rec, extra
}

// reorder puts the fields in (category, name, data fields...) order.
func (l Lexical) reorder(rec *record.Record) {
	order := append([]string{l.cfg.CategoryField, l.cfg.NameField}, l.cfg.DataFields...)
	fields := make([]record.Field, 0, len(rec.Fields))
	for _, name := range order {
		if v, ok := rec.Get(name); ok {
			fields = append(fields, record.Field{Name: name, Value: v})
		}
	}
	rec.Fields = fields
}
