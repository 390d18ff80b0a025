package auditor

import (
	"fmt"
	"strings"

	"norm-check/internal/model"
)

var keyPartSuffixes = []string{"_id", "_code", "_type", "_name", "_key", "_no"}

// PartialDependencyRule flags non-key columns that seem to depend on one part of a
// composite primary key.
type PartialDependencyRule struct{ ruleBase }

func NewPartialDependencyRule() *PartialDependencyRule {
	return &PartialDependencyRule{ruleBase{id: "2nf.partial_dependency", name: "No Partial Dependencies", nf: model.NF2, weight: 0.60, confidence: 0.6}}
}

func (r *PartialDependencyRule) Evaluate(t *model.Table) (model.RuleResult, error) {
	if len(t.PrimaryKey) < 2 {
		return r.result(nil, "primary key is not composite", ""), nil
	}

	var violations []model.Violation
	for _, c := range t.NonKeyColumns() {
		best, part := 0.0, ""
		for _, pk := range t.PrimaryKey {
			if conf := partialConfidence(c.Name, pk); conf > best {
				best, part = conf, pk
			}
		}
		if best < 0.6 {
			continue
		}
		v := r.violation(t, c.Name, model.SeverityWarning, best)
		v.Message = fmt.Sprintf("Column %s may depend only on %s", c.Name, part)
		v.Explanation = fmt.Sprintf("The primary key is (%s). %s appears to describe %s alone, not the whole key.",
			strings.Join(t.PrimaryKey, ", "), c.Name, part)
		v.Suggestion = fmt.Sprintf("Move %s to the table keyed by %s.", c.Name, part)
		violations = append(violations, v)
	}
	return r.result(violations, "non-key columns depend on the whole key", fmt.Sprintf("%d column(s) look partially dependent", len(violations))), nil
}

func partialConfidence(column, keyPart string) float64 {
	stem, _ := trimSuffixes(keyPart, keyPartSuffixes)
	switch {
	case stem != "" && strings.HasPrefix(column, stem+"_"):
		return 0.8
	case column == "description" && strings.Contains(keyPart, "id"):
		return 0.6
	}
	return 0.0
}

var (
	derivedPrefixes = []string{"total_", "sum_", "count_", "avg_", "average_", "min_", "max_", "num_"}
	derivedSuffixes = []string{"_total", "_sum", "_count", "_avg", "_average"}
)

// FullFunctionalDependencyRule flags stored aggregates and other derived values
type FullFunctionalDependencyRule struct{ ruleBase }

func NewFullFunctionalDependencyRule() *FullFunctionalDependencyRule {
	return &FullFunctionalDependencyRule{ruleBase{id: "2nf.full_functional_dependency", name: "Full Functional Dependency", nf: model.NF2, weight: 0.40, confidence: 0.7}}
}

func (r *FullFunctionalDependencyRule) Evaluate(t *model.Table) (model.RuleResult, error) {
	var violations []model.Violation
	for _, c := range t.NonKeyColumns() {
		conf := derivedConfidence(c.Name)
		if conf <= 0.5 {
			continue
		}
		v := r.violation(t, c.Name, model.SeverityWarning, conf)
		v.Message = fmt.Sprintf("Column %s looks like a derived value", c.Name)
		v.Explanation = "Aggregates and counts depend on other rows rather than on the key of this row."
		v.Suggestion = fmt.Sprintf("Compute %s in a query or view instead of storing it.", c.Name)
		violations = append(violations, v)
	}
	return r.result(violations, "no derived columns", fmt.Sprintf("%d column(s) look derived", len(violations))), nil
}

func derivedConfidence(column string) float64 {
	name := strings.ToLower(column)
	for _, p := range derivedPrefixes {
		if strings.HasPrefix(name, p) {
			return 0.7
		}
	}
	for _, s := range derivedSuffixes {
		if strings.HasSuffix(name, s) {
			return 0.7
		}
	}
	return 0.3
}
