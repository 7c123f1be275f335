package natstransport

import (
	"strings"
	"unicode"
)

// SubjectPrefix is the first token of every NATS subject the transport
// uses.
const SubjectPrefix = "wirebus"

// namespace joins parts into a NATS subject under SubjectPrefix. Empty
// parts are skipped and each part is normalized with formatForNamespace.
func namespace(parts ...string) string {
	var b strings.Builder
	b.WriteString(SubjectPrefix)
	for _, part := range parts {
		part = formatForNamespace(part)
		if part == "" {
			continue
		}
		b.WriteByte('.')
		b.WriteString(part)
	}
	return b.String()
}

// formatForNamespace converts camelCase and snake_case to kebab case.
// Letters, digits, dashes, dots and the NATS wildcards are kept; anything
// else is dropped.
func formatForNamespace(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 4)

	var prev rune
	for _, r := range s {
		switch {
		case r == '_':
			b.WriteByte('-')
		case unicode.IsUpper(r) && unicode.IsLower(prev):
			b.WriteByte('-')
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '-', r == '.', r == '*', r == '>':
			b.WriteRune(r)
		default:
			continue
		}
		prev = r
	}
	return b.String()
}
