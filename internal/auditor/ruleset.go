package auditor

import "norm-check/internal/model"

// LockedMaxWeights are the per normal form maxima of the standard rule set. Every score
// is relative to them, so adding a rule changes historical scores.
var LockedMaxWeights = map[model.NormalForm]float64{
	model.NF1: 0.75,
	model.NF2: 1.00,
	model.NF3: 1.00,
}

// StandardRules returns the built-in rules in registration order.
func StandardRules() []model.Rule {
	return []model.Rule{
		NewPrimaryKeyRule(),
		NewRepeatingGroupsRule(),
		NewAtomicValuesRule(),
		NewPartialDependencyRule(),
		NewFullFunctionalDependencyRule(),
		NewTransitiveDependencyRule(),
		NewBCNFRule(),
	}
}

// ruleBase carries the fixed identity of a rule
type ruleBase struct {
	id         string
	name       string
	nf         model.NormalForm
	weight     float64
	confidence float64 // reported when the rule passes
}

func (b ruleBase) ID() string                   { return b.id }
func (b ruleBase) Name() string                 { return b.name }
func (b ruleBase) NormalForm() model.NormalForm { return b.nf }
func (b ruleBase) Weight() float64              { return b.weight }

func (b ruleBase) violation(t *model.Table, column string, severity model.Severity, confidence float64) model.Violation {
	return model.Violation{
		RuleID:     b.id,
		NormalForm: b.nf,
		Schema:     t.Schema,
		Table:      t.Name,
		Column:     column,
		Severity:   severity,
		Confidence: confidence,
	}
}

// result builds a RuleResult. Failed rules report their most confident violation.
func (b ruleBase) result(violations []model.Violation, passed, failed string) model.RuleResult {
	if len(violations) == 0 {
		return model.RuleResult{
			Violations:  make([]model.Violation, 0),
			Passed:      true,
			Confidence:  b.confidence,
			Explanation: passed,
		}
	}
	conf := 0.0
	for _, v := range violations {
		if v.Confidence > conf {
			conf = v.Confidence
		}
	}
	return model.RuleResult{
		Violations:  violations,
		Passed:      false,
		Confidence:  conf,
		Explanation: failed,
	}
}
