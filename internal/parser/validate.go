package parser

import (
	"fmt"
	"regexp"

	"norm-check/internal/model"
)

// unsupportedStatements are top-level statements validation rejects by name.
var unsupportedStatements = []struct {
	construct string
	re        *regexp.Regexp
}{
	{"CREATE TRIGGER", regexp.MustCompile(`(?is)^CREATE\s+(?:OR\s+REPLACE\s+)?(?:CONSTRAINT\s+)?TRIGGER\b`)},
	{"CREATE MATERIALIZED VIEW", regexp.MustCompile(`(?is)^CREATE\s+MATERIALIZED\s+VIEW\b`)},
	{"CREATE VIEW", regexp.MustCompile(`(?is)^CREATE\s+(?:OR\s+REPLACE\s+)?(?:(?:TEMP|TEMPORARY)\s+)?(?:RECURSIVE\s+)?VIEW\b`)},
	{"CREATE FUNCTION", regexp.MustCompile(`(?is)^CREATE\s+(?:OR\s+REPLACE\s+)?FUNCTION\b`)},
	{"CREATE PROCEDURE", regexp.MustCompile(`(?is)^CREATE\s+(?:OR\s+REPLACE\s+)?PROCEDURE\b`)},
	{"CREATE RULE", regexp.MustCompile(`(?is)^CREATE\s+(?:OR\s+REPLACE\s+)?RULE\b`)},
}

func unsupportedStatement(text string) string {
	for _, u := range unsupportedStatements {
		if u.re.MatchString(text) {
			return u.construct
		}
	}
	return ""
}

// Validate checks sql without producing a schema. Syntax failures and unsupported
// constructs are errors; missing tables or primary keys are warnings.
func (sp *SQLParser) Validate(sql string) model.ValidationResult {
	res := model.ValidationResult{
		Errors:   make([]string, 0),
		Warnings: make([]string, 0),
	}

	stmts, err := splitStatements(sql)
	if err != nil {
		res.Errors = append(res.Errors, err.Error())
		return res
	}

	creates, skipped := 0, 0
	declared := make(map[string]bool)
	for _, st := range stmts {
		if construct := unsupportedStatement(st.text); construct != "" {
			res.Errors = append(res.Errors, (&UnsupportedConstructError{Construct: construct}).Error())
			continue
		}
		header := createTableHeader.FindStringSubmatch(st.text)
		if header == nil {
			skipped++
			continue
		}
		creates++

		table, unsupported, err := parseCreateTable(st)
		if err != nil {
			res.Errors = append(res.Errors, err.Error())
			continue
		}
		if declared[table.QualifiedName()] {
			if header[1] == "" {
				res.Errors = append(res.Errors, (&ParseError{Construct: "duplicate table", Detail: table.QualifiedName(), Statement: st.text, Line: st.line}).Error())
			}
			continue
		}
		declared[table.QualifiedName()] = true

		seen := make(map[string]bool)
		for _, construct := range unsupported {
			if seen[construct] {
				continue
			}
			seen[construct] = true
			res.Errors = append(res.Errors, (&UnsupportedConstructError{Construct: construct, Table: table.QualifiedName()}).Error())
		}
		if len(table.PrimaryKey) == 0 {
			res.Warnings = append(res.Warnings, fmt.Sprintf("table %s has no primary key", table.QualifiedName()))
		}
	}

	if creates == 0 {
		res.Warnings = append(res.Warnings, "no CREATE TABLE found")
	}
	if skipped > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("skipped %d statement(s) that are not CREATE TABLE", skipped))
	}

	res.IsValid = len(res.Errors) == 0
	return res
}
