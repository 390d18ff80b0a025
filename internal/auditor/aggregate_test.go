package auditor

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"norm-check/internal/model"
)

func TestAuditor_AnalyzeMultiSchema(t *testing.T) {
	schema := mustSchema(t, `
		CREATE TABLE app.users (id SERIAL PRIMARY KEY, email TEXT UNIQUE);
		CREATE TABLE legacy.a (id INT PRIMARY KEY, email TEXT);
		CREATE TABLE legacy.b (id INT PRIMARY KEY, email TEXT);
		CREATE TABLE legacy.c (id INT PRIMARY KEY, email TEXT);
		CREATE TABLE pg_catalog.pg_class (oid INT);
	`)

	report := NewStandardAuditor(nil).AnalyzeMultiSchema(schema)

	require.Equal(t, 2, report.TotalSchemas)
	assert.Equal(t, 4, report.TotalTables)

	app, legacy := report.Schemas[0], report.Schemas[1]
	assert.Equal(t, "app", app.SchemaName)
	assert.Equal(t, 100.0, app.OverallScore)
	assert.Equal(t, model.StatusPerfect, app.Status)

	assert.Equal(t, "legacy", legacy.SchemaName)
	assert.Equal(t, 3, legacy.TableCount)
	assert.Equal(t, 90.0, legacy.OverallScore)
	assert.Equal(t, model.StatusGood, legacy.Status)
	assert.Len(t, legacy.Violations, 3)
	assert.Equal(t, []model.NormalFormSummary{
		{NormalForm: model.NF1, Score: 100, ViolatedTables: 0, TotalTables: 3},
		{NormalForm: model.NF2, Score: 100, ViolatedTables: 0, TotalTables: 3},
		{NormalForm: model.NF3, Score: 0, ViolatedTables: 3, TotalTables: 3},
	}, legacy.NormalForms)

	// unweighted mean of the schema scores, not of the four tables
	assert.Equal(t, 95.0, report.OverallScore)
	assert.Equal(t, model.StatusGood, report.Status)
}

func TestAuditor_AnalyzeMultiSchema_FailingSchemaDoesNotDilute(t *testing.T) {
	schema := &model.Schema{}
	schema.Tables = append(schema.Tables, mustTable(t, "CREATE TABLE good.users (id SERIAL PRIMARY KEY, email TEXT UNIQUE);"))
	for i := 0; i < 17; i++ {
		schema.Tables = append(schema.Tables, mustTable(t, fmt.Sprintf("CREATE TABLE bad.t%d (name TEXT);", i)))
	}

	report := NewStandardAuditor(nil).AnalyzeMultiSchema(schema)
	require.Len(t, report.Schemas, 2)

	good, bad := report.Schemas[0], report.Schemas[1]
	assert.Equal(t, model.StatusPerfect, good.Status)
	assert.Equal(t, 17, bad.NormalForms[0].ViolatedTables)
	assert.Equal(t, 0.0, bad.NormalForms[0].Score)
	assert.InDelta(t, bad.Tables[0].OverallScore, bad.OverallScore, 0.001)
	assert.InDelta(t, (good.OverallScore+bad.OverallScore)/2, report.OverallScore, 0.01)
}

func TestAuditor_AnalyzeMultiSchema_Empty(t *testing.T) {
	report := NewStandardAuditor(nil).AnalyzeMultiSchema(&model.Schema{})
	assert.Equal(t, 0, report.TotalSchemas)
	assert.Equal(t, 100.0, report.OverallScore)
	assert.Equal(t, model.StatusPerfect, report.Status)
	assert.NotNil(t, report.Schemas)
}

func TestAuditor_Analyze(t *testing.T) {
	schema := mustSchema(t, `
		CREATE TABLE users (id SERIAL PRIMARY KEY, email TEXT UNIQUE);
		CREATE TABLE contacts (id INT PRIMARY KEY, email TEXT);
	`)

	report := NewStandardAuditor(nil).Analyze(schema)

	assert.Equal(t, 2, report.TableCount)
	assert.Equal(t, 95.0, report.OverallScore)
	assert.Equal(t, model.StatusGood, report.Status)
	require.Len(t, report.NormalForms, 3)
	assert.Equal(t, 100.0, report.NormalForms[0].Score)
	assert.Equal(t, model.NormalFormSummary{NormalForm: model.NF3, Score: 75, ViolatedTables: 1, TotalTables: 2}, report.NormalForms[2])
	require.Len(t, report.Violations, 1)
	assert.Equal(t, "3nf.bcnf", report.Violations[0].RuleID)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		score      float64
		violations int
		want       model.Status
	}{
		{100, 0, model.StatusPerfect},
		{40, 0, model.StatusPerfect},
		{100, 1, model.StatusGood},
		{90, 2, model.StatusGood},
		{89.99, 1, model.StatusNeedsAttention},
		{70, 1, model.StatusNeedsAttention},
		{69.99, 1, model.StatusCritical},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.score, tt.violations), "score %v violations %d", tt.score, tt.violations)
	}
}
