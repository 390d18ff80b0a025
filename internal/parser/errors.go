package parser

import (
	"fmt"
	"strings"
)

// ParseError is a fatal syntax problem. It aborts parsing of the whole input.
type ParseError struct {
	Construct string // the offending construct, e.g. "unbalanced parentheses"
	Detail    string
	Statement string
	Line      int
}

func (e *ParseError) Error() string {
	var b strings.Builder
	if e.Line > 0 {
		fmt.Fprintf(&b, "line %d: ", e.Line)
	}
	b.WriteString(e.Construct)
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if s := snippet(e.Statement, 60); s != "" {
		fmt.Fprintf(&b, " near %q", s)
	}
	return b.String()
}

// UnsupportedConstructError names a construct the validator refuses to accept.
type UnsupportedConstructError struct {
	Construct string
	Table     string
}

func (e *UnsupportedConstructError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("unsupported construct: %s in table %s", e.Construct, e.Table)
	}
	return "unsupported construct: " + e.Construct
}

func snippet(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
