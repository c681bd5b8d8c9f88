// Package classify implements the field classifier: a pure, ordered predicate table that
// assigns exactly one category to a token or line.
//
// Predicates are evaluated in the following fixed order, the first one that matches wins:
//
//  1. SectionMarker    a configured marker regex matches (e.g. "113學年")
//  2. AggregateMarker  contains an aggregate label (e.g. "學業成績總平均")
//  3. StatusKeyword    contains a status keyword (e.g. "扣考", "請假")
//  4. EntityCode       matches the entity code pattern (e.g. "MIS-101-01-A1")
//  5. NumericCredit    pure digits within [0, max_credit]
//  6. GradeValue       pure digits within [0, 100], a decimal, or a sentinel ("---", "停修")
//  7. EntityName       contains a name hint ("通識", "：", ...)
//  8. PersonName       at most N letters, all outside ASCII, not already assigned in the record
//  9. EntityName       contains any letter
//  10. Unclassified    everything else
//
// Tokens are NFKC folded before matching so full-width digits and punctuation behave like
// their ASCII forms.
package classify

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"shuassist-backend/pkg/textutil"
)

type Category int

const (
	UNCLASSIFIED Category = iota
	SECTION_MARKER
	AGGREGATE_MARKER
	STATUS_KEYWORD
	ENTITY_CODE
	NUMERIC_CREDIT
	GRADE_VALUE
	ENTITY_NAME
	PERSON_NAME
)

func (c Category) String() string {
	switch c {
	case SECTION_MARKER:
		return "SectionMarker"
	case AGGREGATE_MARKER:
		return "AggregateMarker"
	case STATUS_KEYWORD:
		return "StatusKeyword"
	case ENTITY_CODE:
		return "EntityCode"
	case NUMERIC_CREDIT:
		return "NumericCredit"
	case GRADE_VALUE:
		return "GradeValue"
	case ENTITY_NAME:
		return "EntityName"
	case PERSON_NAME:
		return "PersonName"
	default:
		return "Unclassified"
	}
}

// Result is the outcome of classifying one token.
type Result struct {
	Category Category
	// Token is the folded token that was classified.
	Token string
	// Captures holds sub-values: marker capture groups, the aggregate kind and its label, or
	// the matched status keyword.
	Captures []string
}

// Key is the section key carried by a SectionMarker result.
func (r Result) Key() string {
	return strings.Join(r.Captures, "-")
}

// Context is the record being assembled while a token is classified.
type Context struct {
	// Assigned are the values already assigned to fields of the current record.
	Assigned []string
}

type predicate struct {
	name     string
	category Category
	match    func(c Classifier, token string, ctx Context) ([]string, bool)
}

var predicates = []predicate{
	{name: "section-marker", category: SECTION_MARKER, match: Classifier.matchSectionMarker},
	{name: "aggregate-marker", category: AGGREGATE_MARKER, match: Classifier.matchAggregate},
	{name: "status-keyword", category: STATUS_KEYWORD, match: Classifier.matchStatus},
	{name: "entity-code", category: ENTITY_CODE, match: Classifier.matchEntityCode},
	{name: "numeric-credit", category: NUMERIC_CREDIT, match: Classifier.matchNumericCredit},
	{name: "grade-value", category: GRADE_VALUE, match: Classifier.matchGradeValue},
	{name: "entity-name-hinted", category: ENTITY_NAME, match: Classifier.matchHintedName},
	{name: "person-name", category: PERSON_NAME, match: Classifier.matchPersonName},
	{name: "entity-name", category: ENTITY_NAME, match: Classifier.matchGenericName},
}

// Predicates returns the predicate names in evaluation order.
func Predicates() []string {
	names := make([]string, len(predicates))
	for i, p := range predicates {
		names[i] = p.name
	}
	return names
}

type Classifier struct {
	markers        []*regexp.Regexp
	aggregates     []AggregateLabel
	statusKeywords []string
	entityCode     *regexp.Regexp
	maxCredit      int
	sentinels      map[string]struct{}
	nameHints      []string
	personMaxRunes int
}

func NewClassifier(cfg Config) (Classifier, error) {
	c := Classifier{
		maxCredit:      cfg.MaxCredit,
		sentinels:      map[string]struct{}{},
		personMaxRunes: cfg.PersonNameMaxRunes,
	}
	for _, expr := range cfg.SectionMarkers {
		re, err := regexp.Compile(expr)
		if err != nil {
			return Classifier{}, fmt.Errorf("section marker %q: %w", expr, err)
		}
		c.markers = append(c.markers, re)
	}
	if cfg.EntityCode != "" {
		re, err := regexp.Compile(cfg.EntityCode)
		if err != nil {
			return Classifier{}, fmt.Errorf("entity code %q: %w", cfg.EntityCode, err)
		}
		c.entityCode = re
	}
	for _, a := range cfg.Aggregates {
		label := textutil.Fold(a.Label)
		if label == "" || a.Kind == "" {
			return Classifier{}, fmt.Errorf("aggregate label %+v: kind and label are required", a)
		}
		c.aggregates = append(c.aggregates, AggregateLabel{Kind: a.Kind, Label: label})
	}
	for _, k := range cfg.StatusKeywords {
		c.statusKeywords = append(c.statusKeywords, textutil.Fold(k))
	}
	for _, s := range cfg.Sentinels {
		c.sentinels[textutil.Fold(s)] = struct{}{}
	}
	for _, h := range cfg.NameHints {
		c.nameHints = append(c.nameHints, textutil.Fold(h))
	}
	return c, nil
}

// Classify is ClassifyIn with an empty context.
func (c Classifier) Classify(token string) Result {
	return c.ClassifyIn(token, Context{})
}

// ClassifyIn returns the category of the first predicate that matches. It never fails,
// Unclassified is the fallback.
func (c Classifier) ClassifyIn(token string, ctx Context) Result {
	folded := textutil.Fold(token)
	if folded == "" {
		return Result{Category: UNCLASSIFIED}
	}
	for _, p := range predicates {
		captures, ok := p.match(c, folded, ctx)
		if ok {
			return Result{Category: p.category, Token: folded, Captures: captures}
		}
	}
	return Result{Category: UNCLASSIFIED, Token: folded}
}

// Is evaluates only the predicates of the given category.
func (c Classifier) Is(category Category, token string) bool {
	folded := textutil.Fold(token)
	if folded == "" {
		return false
	}
	for _, p := range predicates {
		if p.category != category {
			continue
		}
		if _, ok := p.match(c, folded, Context{}); ok {
			return true
		}
	}
	return false
}

// IsSentinel reports whether the token is one of the configured placeholder strings.
func (c Classifier) IsSentinel(token string) bool {
	_, ok := c.sentinels[textutil.Fold(token)]
	return ok
}

// SectionKey returns the key of the first marker matching the line.
func (c Classifier) SectionKey(line string) (string, bool) {
	captures, ok := c.matchSectionMarker(textutil.Fold(line), Context{})
	if !ok {
		return "", false
	}
	return strings.Join(captures, "-"), true
}

func (c Classifier) matchSectionMarker(token string, _ Context) ([]string, bool) {
	for _, re := range c.markers {
		groups := re.FindStringSubmatch(token)
		if groups == nil {
			continue
		}
		if len(groups) == 1 {
			return []string{groups[0]}, true
		}
		return groups[1:], true
	}
	return nil, false
}

func (c Classifier) matchAggregate(token string, _ Context) ([]string, bool) {
	for _, a := range c.aggregates {
		if strings.Contains(token, a.Label) {
			return []string{a.Kind, a.Label}, true
		}
	}
	return nil, false
}

func (c Classifier) matchStatus(token string, _ Context) ([]string, bool) {
	for _, k := range c.statusKeywords {
		if k != "" && strings.Contains(token, k) {
			return []string{k}, true
		}
	}
	return nil, false
}

func (c Classifier) matchEntityCode(token string, _ Context) ([]string, bool) {
	if c.entityCode == nil {
		return nil, false
	}
	return nil, c.entityCode.MatchString(token)
}

func (c Classifier) matchNumericCredit(token string, _ Context) ([]string, bool) {
	if !IsDigits(token) {
		return nil, false
	}
	n, err := strconv.Atoi(token)
	return nil, err == nil && n >= 0 && n <= c.maxCredit
}

func (c Classifier) matchGradeValue(token string, _ Context) ([]string, bool) {
	if _, ok := c.sentinels[token]; ok {
		return nil, true
	}
	if IsDecimal(token) {
		return nil, true
	}
	if !IsDigits(token) {
		return nil, false
	}
	n, err := strconv.Atoi(token)
	return nil, err == nil && n >= 0 && n <= 100
}

func (c Classifier) matchHintedName(token string, _ Context) ([]string, bool) {
	if !hasLetter(token) {
		return nil, false
	}
	return nil, textutil.ContainsAny(token, c.nameHints)
}

func (c Classifier) matchPersonName(token string, ctx Context) ([]string, bool) {
	count := 0
	for _, r := range token {
		if r <= unicode.MaxASCII || !unicode.IsLetter(r) {
			return nil, false
		}
		count++
	}
	if count == 0 || count > c.personMaxRunes {
		return nil, false
	}
	for _, assigned := range ctx.Assigned {
		if textutil.Fold(assigned) == token {
			return nil, false
		}
	}
	return nil, true
}

func (c Classifier) matchGenericName(token string, _ Context) ([]string, bool) {
	return nil, hasLetter(token)
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// IsDigits reports whether s is a non-empty run of ASCII digits.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// IsDecimal reports whether s looks like "85.5".
func IsDecimal(s string) bool {
	whole, frac, ok := strings.Cut(s, ".")
	return ok && IsDigits(whole) && IsDigits(frac)
}
