package schema

import "strings"

// ExtractColumns returns the column and expression tokens of an index
// definition. It takes the text between the first "(" and the last ")",
// splits it on commas outside nested parentheses, and trims each token.
//
// This is a best-effort reading, not a SQL parser. Quotes are not
// recognised, so a quoted identifier containing a comma is split. A
// definition with a trailing clause such as INCLUDE (...) or WHERE (...)
// widens the span and yields tokens that mix the key list with that clause.
// Callers treat the result as a hint.
func ExtractColumns(definition string) []string {
	lo := strings.Index(definition, "(")
	hi := strings.LastIndex(definition, ")")
	if lo < 0 || hi <= lo {
		return []string{}
	}
	inner := definition[lo+1 : hi]
	if strings.TrimSpace(inner) == "" {
		return []string{}
	}

	var tokens []string
	depth := 0
	start := 0
	for i, r := range inner {
		switch {
		case r == '(':
			depth++
		case r == ')':
			depth--
		case r == ',' && depth <= 0:
			tokens = append(tokens, strings.TrimSpace(inner[start:i]))
			start = i + 1
		}
	}
	return append(tokens, strings.TrimSpace(inner[start:]))
}
