package privacy

import (
	"fmt"
	"regexp"
)

// Pattern detects one PII category. Patterns are applied in slice order;
// the first pattern to match a span wins, so ordering is part of the
// redaction contract and must stay stable.
type Pattern struct {
	Name        string
	Placeholder string
	re          *regexp.Regexp
}

func NewPattern(name, expr, placeholder string) (Pattern, error) {
	re, err := regexp.Compile("(?i)" + expr)
	if err != nil {
		return Pattern{}, fmt.Errorf("pattern %q: %w", name, err)
	}
	return Pattern{Name: name, Placeholder: placeholder, re: re}, nil
}

func (p Pattern) apply(text string) string {
	return p.re.ReplaceAllString(text, p.Placeholder)
}

func (p Pattern) matches(text string) bool {
	return p.re.MatchString(text)
}

// DefaultPatterns returns the built-in category set. Custom patterns from
// configuration are appended after these, never interleaved.
func DefaultPatterns() []Pattern {
	return []Pattern{
		mustPattern("email", `\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`, "[EMAIL REDACTED]"),
		mustPattern("phone", `\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`, "[PHONE REDACTED]"),
		mustPattern("ssn", `\b\d{3}-?\d{2}-?\d{4}\b`, "[SSN REDACTED]"),
		mustPattern("ip", `\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`, "[IP REDACTED]"),
		mustPattern("credit_card", `\b(?:\d{4}[-\s]?){3}\d{4}\b`, "[CREDIT CARD REDACTED]"),
	}
}

func mustPattern(name, expr, placeholder string) Pattern {
	p, err := NewPattern(name, expr, placeholder)
	if err != nil {
		panic(err)
	}
	return p
}
