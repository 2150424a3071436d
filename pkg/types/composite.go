package types

import (
	"fmt"
	"strings"
)

// Helpers for Postgres composite-type literals, e.g. ("a","b",NULL).
// Values are quoted on the way out and split quote-aware on the way in.

func quoteCompositeString(value string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(value)
	return `"` + escaped + `"`
}

func quoteCompositeNullable(value *string) string {
	if value == nil {
		return "NULL"
	}
	return quoteCompositeString(*value)
}

func isCompositeNull(value string) bool {
	return strings.EqualFold(value, "NULL")
}

func newCompositeNullable(value string) *string {
	if isCompositeNull(value) {
		return nil
	}
	result := value
	return &result
}

// parseComposite splits a composite literal into its fields, honoring quoted
// sections and backslash escapes. When expected is positive, the field count
// must match exactly.
func parseComposite(raw string, expected int) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) < 2 || raw[0] != '(' || raw[len(raw)-1] != ')' {
		return nil, fmt.Errorf("composite: invalid format %q", raw)
	}

	var (
		fields   []string
		field    strings.Builder
		inQuotes bool
		escaped  bool
	)
	for _, ch := range []byte(raw[1 : len(raw)-1]) {
		switch {
		case escaped:
			field.WriteByte(ch)
			escaped = false
		case ch == '\\':
			escaped = true
		case ch == '"':
			inQuotes = !inQuotes
		case ch == ',' && !inQuotes:
			fields = append(fields, field.String())
			field.Reset()
		default:
			field.WriteByte(ch)
		}
	}
	if inQuotes || escaped {
		return nil, fmt.Errorf("composite: unterminated quoting in %q", raw)
	}
	fields = append(fields, field.String())

	if expected > 0 && len(fields) != expected {
		return nil, fmt.Errorf("%w: got %d expected %d", errCompositeFieldCount, len(fields), expected)
	}
	return fields, nil
}
