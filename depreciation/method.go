package depreciation

import (
	"strings"
	"unicode"
)

// =============================================================================
// METHOD - Which algorithm spreads cost over the useful life
// =============================================================================

// Method is the canonical tag of a depreciation method.
type Method string

const (
	StraightLine     Method = "straight_line"
	DecliningBalance Method = "declining_balance"
	DoubleDeclining  Method = "double_declining"
	SumOfYearsDigits Method = "sum_of_years_digits"
)

var labels = map[Method]string{
	StraightLine:     "Straight Line",
	DecliningBalance: "Declining Balance",
	DoubleDeclining:  "Double Declining Balance",
	SumOfYearsDigits: "Sum of Years Digits",
}

// lookup maps every accepted spelling, after normalizeKey, to its tag.
var lookup = func() map[string]Method {
	m := make(map[string]Method, 2*len(labels))
	for tag, label := range labels {
		m[normalizeKey(string(tag))] = tag
		m[normalizeKey(label)] = tag
	}
	return m
}()

// Methods returns all supported methods in a stable order.
func Methods() []Method {
	return []Method{StraightLine, DecliningBalance, DoubleDeclining, SumOfYearsDigits}
}

// Label returns the human-readable name, e.g. "Sum of Years Digits".
func (m Method) Label() string {
	if l, ok := labels[m]; ok {
		return l
	}
	return string(m)
}

func (m Method) String() string { return string(m) }

// ParseMethod resolves a canonical tag or a human label to a Method.
// Matching ignores case and treats spaces, hyphens and underscores alike,
// so "Straight Line", "straight-line" and "STRAIGHT_LINE" are the same.
func ParseMethod(s string) (Method, error) {
	if m, ok := lookup[normalizeKey(s)]; ok {
		return m, nil
	}
	return "", &UnsupportedMethodError{Label: s}
}

func normalizeKey(s string) string {
	parts := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return r == '-' || r == '_' || unicode.IsSpace(r)
	})
	return strings.Join(parts, "_")
}
