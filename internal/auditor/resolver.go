package auditor

import "norm-check/internal/model"

const tableLevel = "table-level"

func conflictKey(v model.Violation) string {
	col := v.Column
	if col == "" {
		col = tableLevel
	}
	return v.Schema + "." + v.Table + "|" + col
}

// ResolveConflicts drops WARNING violations from every (table, column) group that also
// holds an ERROR. Groups never affect each other, violations are never merged and the
// input order is kept.
func ResolveConflicts(violations []model.Violation) []model.Violation {
	hasError := make(map[string]bool)
	for _, v := range violations {
		if v.Severity == model.SeverityError {
			hasError[conflictKey(v)] = true
		}
	}

	resolved := make([]model.Violation, 0, len(violations))
	for _, v := range violations {
		if hasError[conflictKey(v)] && v.Severity != model.SeverityError {
			continue
		}
		resolved = append(resolved, v)
	}
	return resolved
}
