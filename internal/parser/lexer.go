package parser

import (
	"regexp"
	"strings"
)

// statement is one top-level SQL statement with comments blanked out
type statement struct {
	text string
	line int
}

var dollarTag = regexp.MustCompile(`^\$(?:[A-Za-z_][A-Za-z_0-9]*)?\$`)

// splitStatements splits sql on semicolons that sit at parenthesis depth zero and outside
// quoted literals, dollar-quoted bodies and comments. A trailing statement without a
// semicolon is kept.
func splitStatements(sql string) ([]statement, error) {
	var (
		stmts     []statement
		cur       strings.Builder
		depth     int
		line      = 1
		startLine = 0
		inSingle  bool
		inDouble  bool
		tag       string // active dollar-quote tag
		quoteLine int
	)

	emit := func() {
		text := strings.TrimSpace(cur.String())
		if text != "" {
			stmts = append(stmts, statement{text: text, line: startLine})
		}
		cur.Reset()
		startLine = 0
	}
	mark := func(c byte) {
		if startLine == 0 && c != ' ' && c != '\t' && c != '\n' && c != '\r' {
			startLine = line
		}
	}

	for i := 0; i < len(sql); i++ {
		c := sql[i]

		switch {
		case tag != "":
			if strings.HasPrefix(sql[i:], tag) {
				cur.WriteString(tag)
				i += len(tag) - 1
				tag = ""
				continue
			}
		case inSingle:
			if c == '\'' {
				inSingle = false
			}
		case inDouble:
			if c == '"' {
				inDouble = false
			}
		default:
			// comments become a single space so tokens on either side stay apart
			if c == '-' && i+1 < len(sql) && sql[i+1] == '-' {
				for i < len(sql) && sql[i] != '\n' {
					i++
				}
				cur.WriteByte(' ')
				if i < len(sql) {
					line++
					cur.WriteByte('\n')
				}
				continue
			}
			if c == '/' && i+1 < len(sql) && sql[i+1] == '*' {
				commentLine := line
				nested := 0
				closed := false
				for i < len(sql) {
					if sql[i] == '\n' {
						line++
					}
					if strings.HasPrefix(sql[i:], "/*") {
						nested++
						i += 2
						continue
					}
					if strings.HasPrefix(sql[i:], "*/") {
						nested--
						i++
						if nested == 0 {
							closed = true
							break
						}
					}
					i++
				}
				if !closed {
					return nil, &ParseError{Construct: "unterminated comment", Statement: cur.String(), Line: commentLine}
				}
				cur.WriteByte(' ')
				continue
			}

			mark(c)
			switch c {
			case '\'':
				inSingle = true
				quoteLine = line
			case '"':
				inDouble = true
				quoteLine = line
			case '$':
				if m := dollarTag.FindString(sql[i:]); m != "" {
					tag = m
					quoteLine = line
					cur.WriteString(m)
					i += len(m) - 1
					continue
				}
			case '(':
				depth++
			case ')':
				depth--
				if depth < 0 {
					cur.WriteByte(c)
					return nil, &ParseError{Construct: "unbalanced parentheses", Detail: "unexpected ')'", Statement: cur.String(), Line: line}
				}
			case ';':
				if depth == 0 {
					emit()
					continue
				}
			}
		}

		if c == '\n' {
			line++
		}
		cur.WriteByte(c)
	}

	switch {
	case inSingle || inDouble || tag != "":
		return nil, &ParseError{Construct: "unterminated quoted literal", Statement: cur.String(), Line: quoteLine}
	case depth > 0:
		return nil, &ParseError{Construct: "unbalanced parentheses", Detail: "missing ')'", Statement: cur.String(), Line: startLine}
	}
	emit()
	return stmts, nil
}

// splitTopLevel splits s on sep where sep sits outside quotes and parentheses.
// Parts are trimmed; empty parts are kept so callers can reject them.
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	inSingle, inDouble := false, false
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inSingle:
			if c == '\'' {
				inSingle = false
			}
		case inDouble:
			if c == '"' {
				inDouble = false
			}
		case c == '\'':
			inSingle = true
		case c == '"':
			inDouble = true
		case c == '(':
			depth++
		case c == ')':
			depth--
		case c == sep && depth == 0:
			parts = append(parts, strings.TrimSpace(s[start:i]))
			start = i + 1
		}
	}
	return append(parts, strings.TrimSpace(s[start:]))
}

// tokenize splits a clause on whitespace outside quotes and parentheses, so
// "NUMERIC(10, 2)" and "'a b'" each stay one token.
func tokenize(s string) []string {
	var tokens []string
	var cur strings.Builder
	depth := 0
	inSingle, inDouble := false, false
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inSingle:
			if c == '\'' {
				inSingle = false
			}
		case inDouble:
			if c == '"' {
				inDouble = false
			}
		case c == '\'':
			inSingle = true
		case c == '"':
			inDouble = true
		case c == '(':
			depth++
		case c == ')':
			depth--
		case depth == 0 && (c == ' ' || c == '\t' || c == '\n' || c == '\r'):
			flush()
			continue
		}
		cur.WriteByte(c)
	}
	flush()
	return tokens
}

// parenGroup returns the text inside the parenthesis group opening at s[open].
func parenGroup(s string, open int) (inner string, end int, ok bool) {
	if open >= len(s) || s[open] != '(' {
		return "", 0, false
	}
	depth := 0
	inSingle, inDouble := false, false
	for i := open; i < len(s); i++ {
		c := s[i]
		switch {
		case inSingle:
			if c == '\'' {
				inSingle = false
			}
		case inDouble:
			if c == '"' {
				inDouble = false
			}
		case c == '\'':
			inSingle = true
		case c == '"':
			inDouble = true
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return s[open+1 : i], i, true
			}
		}
	}
	return "", 0, false
}

// readIdentifier reads one identifier (quoted or bare) starting at s[i].
func readIdentifier(s string, i int) (ident string, end int) {
	if i >= len(s) {
		return "", i
	}
	if s[i] == '"' {
		j := i + 1
		for j < len(s) {
			if s[j] == '"' {
				if j+1 < len(s) && s[j+1] == '"' {
					j += 2
					continue
				}
				return s[i : j+1], j + 1
			}
			j++
		}
		return s[i:], len(s)
	}
	j := i
	for j < len(s) && isIdentByte(s[j]) {
		j++
	}
	return s[i:j], j
}

// readQualifiedName reads "name" or "schema.name" starting at s[i], allowing spaces
// around the dot.
func readQualifiedName(s string, i int) (raw string, end int) {
	first, j := readIdentifier(s, i)
	if first == "" {
		return "", i
	}
	k := skipSpace(s, j)
	if k < len(s) && s[k] == '.' {
		second, m := readIdentifier(s, skipSpace(s, k+1))
		if second != "" {
			return first + "." + second, m
		}
	}
	return first, j
}

func skipSpace(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	return i
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' || c >= 0x80 ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
