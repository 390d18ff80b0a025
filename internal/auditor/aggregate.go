package auditor

import (
	"go.uber.org/zap"

	"norm-check/internal/model"
)

// SystemSchemas are never analysed
var SystemSchemas = map[string]bool{
	"pg_catalog":         true,
	"information_schema": true,
	"pg_toast":           true,
}

// StatusFor labels a schema or database score. Any violation rules out PERFECT.
func StatusFor(score float64, violations int) model.Status {
	switch {
	case violations == 0:
		return model.StatusPerfect
	case score >= passThreshold:
		return model.StatusGood
	case score >= warningThreshold:
		return model.StatusNeedsAttention
	default:
		return model.StatusCritical
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 100
	}
	total := 0.0
	for _, v := range values {
		total += v
	}
	return round2(total / float64(len(values)))
}

func hasNormalForm(r model.TableReport, nf model.NormalForm) bool {
	for _, v := range r.Violations {
		if v.NormalForm == nf {
			return true
		}
	}
	return false
}

func collectViolations(reports []model.TableReport) []model.Violation {
	all := make([]model.Violation, 0)
	for _, r := range reports {
		all = append(all, r.Violations...)
	}
	return all
}

// AnalyzeSchema rolls the tables of one PostgreSQL schema up. A normal form scores the
// share of tables without violations for it.
func (a *Auditor) AnalyzeSchema(name string, tables []*model.Table) model.SchemaAnalysisResult {
	reports := a.Audit(tables)

	res := model.SchemaAnalysisResult{
		SchemaName: name,
		TableCount: len(reports),
		Violations: collectViolations(reports),
		Tables:     reports,
	}

	overall := make([]float64, 0, len(reports))
	for _, r := range reports {
		overall = append(overall, r.OverallScore)
	}
	res.OverallScore = mean(overall)

	for _, nf := range model.NormalForms {
		summary := model.NormalFormSummary{NormalForm: nf, Score: 100, TotalTables: len(reports)}
		for _, r := range reports {
			if hasNormalForm(r, nf) {
				summary.ViolatedTables++
			}
		}
		if summary.ViolatedTables > 0 {
			summary.Score = round2(100 - float64(summary.ViolatedTables)/float64(summary.TotalTables)*100)
		}
		res.NormalForms = append(res.NormalForms, summary)
	}

	res.Status = StatusFor(res.OverallScore, len(res.Violations))
	return res
}

// AnalyzeMultiSchema groups tables by owning schema in first-appearance order, skipping
// system schemas. The database score is the unweighted mean of the schema scores.
func (a *Auditor) AnalyzeMultiSchema(schema *model.Schema) *model.MultiSchemaReport {
	report := &model.MultiSchemaReport{Schemas: make([]model.SchemaAnalysisResult, 0)}

	scores := make([]float64, 0)
	violations := 0
	for _, name := range schema.SchemaNames() {
		if SystemSchemas[name] {
			a.logger.Debug("skipping system schema", zap.String("schema", name))
			continue
		}
		res := a.AnalyzeSchema(name, schema.TablesIn(name))
		report.Schemas = append(report.Schemas, res)
		report.TotalTables += res.TableCount
		scores = append(scores, res.OverallScore)
		violations += len(res.Violations)
	}

	report.TotalSchemas = len(report.Schemas)
	report.OverallScore = mean(scores)
	report.Status = StatusFor(report.OverallScore, violations)
	return report
}

// Analyze treats every table as one unit and reports mean compliance per normal form.
func (a *Auditor) Analyze(schema *model.Schema) *model.AnalysisReport {
	reports := a.Audit(schema.Tables)

	report := &model.AnalysisReport{
		TableCount: len(reports),
		Violations: collectViolations(reports),
		Tables:     reports,
	}

	overall := make([]float64, 0, len(reports))
	for _, r := range reports {
		overall = append(overall, r.OverallScore)
	}
	report.OverallScore = mean(overall)

	for _, nf := range model.NormalForms {
		summary := model.NormalFormSummary{NormalForm: nf, TotalTables: len(reports)}
		scores := make([]float64, 0, len(reports))
		for _, r := range reports {
			if c := r.ComplianceFor(nf); c != nil {
				scores = append(scores, c.Score)
			}
			if hasNormalForm(r, nf) {
				summary.ViolatedTables++
			}
		}
		summary.Score = mean(scores)
		report.NormalForms = append(report.NormalForms, summary)
	}

	report.Status = StatusFor(report.OverallScore, len(report.Violations))
	return report
}
