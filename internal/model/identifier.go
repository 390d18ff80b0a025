package model

import (
	"strings"
	"unicode"
)

// NormalizeIdentifier folds unquoted identifiers to lower case. Quoted identifiers keep
// their literal case, with doubled quotes unescaped.
func NormalizeIdentifier(raw string) string {
	s := strings.TrimSpace(raw)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return strings.ReplaceAll(s[1:len(s)-1], `""`, `"`)
	}
	return strings.ToLower(s)
}

// SplitQualifiedName splits "schema.table" on the first dot outside double quotes and
// normalizes both parts. schema is empty when the name is unqualified.
func SplitQualifiedName(raw string) (schema, name string) {
	raw = strings.TrimSpace(raw)
	inQuote := false
	for i, r := range raw {
		switch {
		case r == '"':
			inQuote = !inQuote
		case r == '.' && !inQuote:
			return NormalizeIdentifier(raw[:i]), NormalizeIdentifier(raw[i+1:])
		}
	}
	return "", NormalizeIdentifier(raw)
}

// NormalizeType canonicalizes a declared column type: upper case outside quoted names,
// single spaces between words, no whitespace inside or before parentheses and brackets.
// "numeric (10, 2)" becomes "NUMERIC(10,2)" and "text []" becomes "TEXT[]".
func NormalizeType(raw string) string {
	var b strings.Builder
	inQuote := false
	depth := 0
	pendingSpace := false
	for _, r := range strings.TrimSpace(raw) {
		if inQuote {
			b.WriteRune(r)
			if r == '"' {
				inQuote = false
			}
			continue
		}
		if unicode.IsSpace(r) {
			if depth == 0 {
				pendingSpace = true
			}
			continue
		}
		switch r {
		case '(', '[':
			pendingSpace = false
			if r == '(' {
				depth++
			}
		case ')':
			if depth > 0 {
				depth--
			}
		}
		if pendingSpace && b.Len() > 0 {
			b.WriteByte(' ')
		}
		pendingSpace = false
		if r == '"' {
			inQuote = true
			b.WriteRune(r)
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}
