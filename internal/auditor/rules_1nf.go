package auditor

import (
	"fmt"
	"strings"

	"norm-check/internal/model"
)

// PrimaryKeyRule detects tables without a primary key
type PrimaryKeyRule struct{ ruleBase }

func NewPrimaryKeyRule() *PrimaryKeyRule {
	return &PrimaryKeyRule{ruleBase{id: "1nf.primary_key", name: "Primary Key Required", nf: model.NF1, weight: 0.40, confidence: 1.0}}
}

func (r *PrimaryKeyRule) Evaluate(t *model.Table) (model.RuleResult, error) {
	var violations []model.Violation
	if len(t.PrimaryKey) == 0 {
		v := r.violation(t, "", model.SeverityError, 1.0)
		v.Message = fmt.Sprintf("Table %s has no primary key", t.QualifiedName())
		v.Explanation = "First normal form requires every row to be uniquely identifiable. Without a primary key duplicate rows cannot be told apart."
		v.Suggestion = "Declare a PRIMARY KEY, for example an id column or the natural key of the table."
		violations = append(violations, v)
	}
	return r.result(violations,
		fmt.Sprintf("primary key (%s) identifies every row", strings.Join(t.PrimaryKey, ", ")),
		"table has no primary key"), nil
}

// RepeatingGroupsRule detects array and JSON columns
type RepeatingGroupsRule struct{ ruleBase }

func NewRepeatingGroupsRule() *RepeatingGroupsRule {
	return &RepeatingGroupsRule{ruleBase{id: "1nf.repeating_groups", name: "No Repeating Groups", nf: model.NF1, weight: 0.25, confidence: 1.0}}
}

func (r *RepeatingGroupsRule) Evaluate(t *model.Table) (model.RuleResult, error) {
	var violations []model.Violation
	for _, c := range t.Columns {
		switch {
		case isArrayType(c.Type):
			v := r.violation(t, c.Name, model.SeverityError, 1.0)
			v.Message = fmt.Sprintf("Column %s stores an array (%s)", c.Name, c.Type)
			v.Explanation = "An array column holds a repeating group inside a single row, which breaks first normal form."
			v.Suggestion = fmt.Sprintf("Move the elements of %s into a child table with one row per element.", c.Name)
			violations = append(violations, v)
		case isJSONType(c.Type):
			v := r.violation(t, c.Name, model.SeverityWarning, 1.0)
			v.Message = fmt.Sprintf("Column %s stores JSON (%s)", c.Name, c.Type)
			v.Explanation = "A JSON document can hide nested or repeated values the database cannot constrain."
			v.Suggestion = fmt.Sprintf("Model the stable attributes of %s as columns or child tables.", c.Name)
			violations = append(violations, v)
		}
	}
	return r.result(violations, "no array or JSON columns", fmt.Sprintf("%d column(s) hold repeating groups", len(violations))), nil
}

var multiValueParts = []string{"list", "array", "items", "values", "data", "info", "details", "attributes"}

// AtomicValuesRule flags columns whose names suggest several values in one field
type AtomicValuesRule struct{ ruleBase }

func NewAtomicValuesRule() *AtomicValuesRule {
	return &AtomicValuesRule{ruleBase{id: "1nf.atomic_values", name: "Atomic Values", nf: model.NF1, weight: 0.10, confidence: 0.7}}
}

func (r *AtomicValuesRule) Evaluate(t *model.Table) (model.RuleResult, error) {
	var violations []model.Violation
	for _, c := range t.Columns {
		if c.Type == "TEXT" {
			continue
		}
		var hit string
		for _, part := range nameParts(c.Name) {
			if contains(multiValueParts, part) {
				hit = part
				break
			}
		}
		if hit == "" {
			continue
		}
		v := r.violation(t, c.Name, model.SeverityWarning, 0.7)
		v.Message = fmt.Sprintf("Column %s may hold several values", c.Name)
		v.Explanation = fmt.Sprintf("The name part %q usually marks a multi-valued field, and the type %s can carry structure.", hit, c.Type)
		v.Suggestion = fmt.Sprintf("Check that %s holds one atomic value; otherwise split it into a child table.", c.Name)
		violations = append(violations, v)
	}
	return r.result(violations, "column names suggest atomic values", fmt.Sprintf("%d column(s) look multi-valued", len(violations))), nil
}
