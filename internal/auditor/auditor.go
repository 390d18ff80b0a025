package auditor

import (
	"fmt"

	"go.uber.org/zap"

	"norm-check/internal/model"
)

// RuleEvaluationError is a failure of one rule on one table. It never aborts the analysis.
type RuleEvaluationError struct {
	RuleID string
	Table  string
	Err    error
}

func (e *RuleEvaluationError) Error() string {
	return fmt.Sprintf("rule %s on table %s: %v", e.RuleID, e.Table, e.Err)
}

func (e *RuleEvaluationError) Unwrap() error {
	return e.Err
}

type Auditor struct {
	rules  []model.Rule
	logger *zap.Logger
}

func NewAuditor(logger *zap.Logger) *Auditor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Auditor{
		rules:  make([]model.Rule, 0),
		logger: logger,
	}
}

// NewStandardAuditor returns an auditor with the built-in rules registered.
func NewStandardAuditor(logger *zap.Logger) *Auditor {
	a := NewAuditor(logger)
	for _, r := range StandardRules() {
		a.Register(r)
	}
	return a
}

func (a *Auditor) Register(rule model.Rule) {
	a.rules = append(a.rules, rule)
}

func (a *Auditor) Rules() []model.Rule {
	return a.rules
}

// MaxWeight is the sum of the weights registered for nf.
func (a *Auditor) MaxWeight(nf model.NormalForm) float64 {
	total := 0.0
	for _, r := range a.rules {
		if r.NormalForm() == nf {
			total += r.Weight()
		}
	}
	return total
}

func (a *Auditor) RuleInfo() []model.RuleInfo {
	infos := make([]model.RuleInfo, 0, len(a.rules))
	for _, r := range a.rules {
		infos = append(infos, model.RuleInfo{ID: r.ID(), Name: r.Name(), NormalForm: r.NormalForm(), Weight: r.Weight()})
	}
	return infos
}

// evaluate runs one rule, turning a returned error or a panic into a RuleEvaluationError.
func (a *Auditor) evaluate(rule model.Rule, t *model.Table) (res model.RuleResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &RuleEvaluationError{RuleID: rule.ID(), Table: t.QualifiedName(), Err: fmt.Errorf("panic: %v", p)}
		}
	}()
	res, err = rule.Evaluate(t)
	if err != nil {
		return res, &RuleEvaluationError{RuleID: rule.ID(), Table: t.QualifiedName(), Err: err}
	}
	return res, nil
}

// AuditTable runs every registered rule against t, resolves conflicts and scores the result.
func (a *Auditor) AuditTable(t *model.Table) model.TableReport {
	report := model.TableReport{
		Schema: t.Schema,
		Table:  t.Name,
		Rules:  make([]model.RuleOutcome, 0, len(a.rules)),
	}

	var all []model.Violation
	for _, rule := range a.rules {
		outcome := model.RuleOutcome{
			RuleID:     rule.ID(),
			Name:       rule.Name(),
			NormalForm: rule.NormalForm(),
			Weight:     rule.Weight(),
		}

		res, err := a.evaluate(rule, t)
		if err != nil {
			a.logger.Warn("rule evaluation failed",
				zap.String("rule", rule.ID()),
				zap.String("table", t.QualifiedName()),
				zap.Error(err))
			report.Errors = append(report.Errors, err.Error())
			outcome.Explanation = err.Error()
			report.Rules = append(report.Rules, outcome)
			continue
		}

		for _, v := range res.Violations {
			v.RuleID = rule.ID()
			v.NormalForm = rule.NormalForm()
			v.Schema, v.Table = t.Schema, t.Name
			all = append(all, v)
		}
		outcome.Passed = res.Passed
		outcome.Confidence = res.Confidence
		outcome.Explanation = res.Explanation
		report.Rules = append(report.Rules, outcome)
	}

	report.Violations = ResolveConflicts(all)
	for _, nf := range model.NormalForms {
		report.Compliance = append(report.Compliance, a.Compliance(nf, report.Violations))
	}
	report.OverallScore = OverallScore(report.Compliance)

	a.logger.Debug("table audited",
		zap.String("table", t.QualifiedName()),
		zap.Int("violations", len(report.Violations)),
		zap.Float64("score", report.OverallScore))
	return report
}

// Audit runs AuditTable over every table in declaration order.
func (a *Auditor) Audit(tables []*model.Table) []model.TableReport {
	reports := make([]model.TableReport, 0, len(tables))
	for _, t := range tables {
		reports = append(reports, a.AuditTable(t))
	}
	return reports
}
