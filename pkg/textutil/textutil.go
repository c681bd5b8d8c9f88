package textutil

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

var (
	whitespaceRegex       = regexp.MustCompile(`\s+`)
	horizontalSpaceRegex  = regexp.MustCompile(`[ \t\r\f\v]+`)
	blankLinesRegex       = regexp.MustCompile(`\n{2,}`)
	placeholderDigitRegex = regexp.MustCompile(`^[0０]\s*`)
	slashRegex            = regexp.MustCompile(`\s*[/／]\s*`)
)

// non-breaking and ideographic spaces are not matched by \s
var spaceReplacer = strings.NewReplacer("\u00a0", " ", "\u3000", " ")

// FullWidthSlash is the replacement for "/" in values that spreadsheet programs would otherwise
// read as dates.
var FullWidthSlash = width.Widen.String("/")

// Clean replaces non-breaking/ideographic spaces, collapses horizontal whitespace runs and blank lines and
// trims the result. Newlines are kept.
func Clean(s string) string {
	s = spaceReplacer.Replace(s)
	s = horizontalSpaceRegex.ReplaceAllString(s, " ")
	s = blankLinesRegex.ReplaceAllString(s, "\n")
	return strings.TrimSpace(s)
}

// CollapseSpace turns every whitespace run (newlines included) into a single space.
func CollapseSpace(s string) string {
	s = spaceReplacer.Replace(s)
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(s, " "))
}

// Fold applies NFKC so full-width digits, letters and punctuation compare equal to their ASCII
// forms, then collapses whitespace. It is only meant for matching, never for output values.
func Fold(s string) string {
	return CollapseSpace(norm.NFKC.String(s))
}

// NormalizeLabel folds a header label for comparison, whitespace and underscores are dropped
// and ASCII letters are lowercased.
func NormalizeLabel(s string) string {
	s = strings.ToLower(norm.NFKC.String(s))
	s = whitespaceRegex.ReplaceAllString(s, "")
	return strings.ReplaceAll(s, "_", "")
}

// MatchLabel reports whether the normalized label contains one of the normalized matchers.
func MatchLabel(label string, matchers []string) bool {
	label = NormalizeLabel(label)
	if label == "" {
		return false
	}
	for _, m := range matchers {
		m = NormalizeLabel(m)
		if m != "" && strings.Contains(label, m) {
			return true
		}
	}
	return false
}

// ContainsAny reports whether s contains any of the keywords.
func ContainsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if k != "" && strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// CleanEntityName strips a leading placeholder digit ("0 大一外文英文" -> "大一外文英文") and
// collapses internal whitespace.
func CleanEntityName(name string) string {
	name = strings.TrimSpace(spaceReplacer.Replace(name))
	name = placeholderDigitRegex.ReplaceAllString(name, "")
	return CollapseSpace(name)
}

// IsPlaceholderDigit reports whether the token is the placeholder prefix that CleanEntityName
// removes.
func IsPlaceholderDigit(token string) bool {
	return token == "0" || token == "０"
}

// WidenSlashes rewrites "a / b / c" as "a／b／c".
func WidenSlashes(s string) string {
	return slashRegex.ReplaceAllString(s, FullWidthSlash)
}

// Lines splits text into cleaned, non-empty lines.
func Lines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = CollapseSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}
