package manifest

import (
	"fmt"
	"strings"
)

// Element is one comma-separated clause of a header value.
type Element struct {
	Values     []string
	Attributes map[string]string
	Directives map[string]string
}

// Value returns the first value of the clause.
func (e Element) Value() string {
	if len(e.Values) == 0 {
		return ""
	}
	return e.Values[0]
}

// Attribute returns an attribute value, or "" when absent.
func (e Element) Attribute(key string) string {
	return e.Attributes[key]
}

// Directive returns a directive value, or "" when absent.
func (e Element) Directive(key string) string {
	return e.Directives[key]
}

// ParseHeader splits a header value into clauses.
func ParseHeader(value string) ([]Element, error) {
	var elems []Element
	for _, clause := range splitQuoted(value, ',') {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			continue
		}
		e, err := parseClause(clause)
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
	}
	return elems, nil
}

func parseClause(clause string) (Element, error) {
	e := Element{
		Attributes: map[string]string{},
		Directives: map[string]string{},
	}
	for _, part := range splitQuoted(clause, ';') {
		part = strings.TrimSpace(part)
		if part == "" {
			return Element{}, fmt.Errorf("empty component in %q", clause)
		}

		if k, v, ok := strings.Cut(part, ":="); ok && !strings.Contains(k, "=") {
			e.Directives[strings.TrimSpace(k)] = unquote(strings.TrimSpace(v))
			continue
		}
		if k, v, ok := strings.Cut(part, "="); ok {
			e.Attributes[strings.TrimSpace(k)] = unquote(strings.TrimSpace(v))
			continue
		}
		if len(e.Attributes) > 0 || len(e.Directives) > 0 {
			return Element{}, fmt.Errorf("value %q follows parameters in %q", part, clause)
		}
		e.Values = append(e.Values, part)
	}
	if len(e.Values) == 0 {
		return Element{}, fmt.Errorf("clause %q has no value", clause)
	}
	return e, nil
}

// splitQuoted splits s on sep, ignoring separators inside double quotes.
func splitQuoted(s string, sep byte) []string {
	var parts []string
	inQuote := false
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			inQuote = !inQuote
		case sep:
			if !inQuote {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
