package auditor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"norm-check/internal/model"
	"norm-check/internal/parser"
)

// MockRule for testing Auditor
type MockRule struct {
	id         string
	nf         model.NormalForm
	weight     float64
	violations []model.Violation
	err        error
	panics     bool
}

func (m *MockRule) ID() string                   { return m.id }
func (m *MockRule) Name() string                 { return "mock " + m.id }
func (m *MockRule) NormalForm() model.NormalForm { return m.nf }
func (m *MockRule) Weight() float64              { return m.weight }
func (m *MockRule) Evaluate(t *model.Table) (model.RuleResult, error) {
	if m.panics {
		panic("mock failure")
	}
	if m.err != nil {
		return model.RuleResult{}, m.err
	}
	return model.RuleResult{Violations: m.violations, Passed: len(m.violations) == 0, Confidence: 1}, nil
}

func mustTable(t *testing.T, ddl string) *model.Table {
	t.Helper()
	table, err := parser.NewSQLParser().ParseTable(ddl)
	require.NoError(t, err)
	return table
}

func mustSchema(t *testing.T, ddl string) *model.Schema {
	t.Helper()
	schema, err := parser.NewSQLParser().Parse(ddl)
	require.NoError(t, err)
	return schema
}

func TestStandardRules_LockedWeights(t *testing.T) {
	a := NewStandardAuditor(nil)
	require.Len(t, a.Rules(), 7)
	for nf, want := range LockedMaxWeights {
		assert.InDelta(t, want, a.MaxWeight(nf), 1e-9, "max weight of %s", nf)
	}

	seen := make(map[string]bool)
	for _, info := range a.RuleInfo() {
		assert.False(t, seen[info.ID], "duplicate rule id %s", info.ID)
		seen[info.ID] = true
	}
}

func TestAuditor_AuditTable(t *testing.T) {
	tests := []struct {
		name       string
		ddl        string
		want1NF    float64
		want2NF    float64
		want3NF    float64
		wantStatus model.ComplianceStatus // 1NF status
	}{
		{
			name:       "Clean users table",
			ddl:        "CREATE TABLE users (id SERIAL PRIMARY KEY, email TEXT UNIQUE);",
			want1NF:    100,
			want2NF:    100,
			want3NF:    100,
			wantStatus: model.CompliancePass,
		},
		{
			name:       "Array without primary key",
			ddl:        "CREATE TABLE t (tags TEXT[]);",
			want1NF:    13.33,
			want2NF:    100,
			want3NF:    100,
			wantStatus: model.ComplianceFail,
		},
		{
			name:       "JSON column only",
			ddl:        "CREATE TABLE t (id INT PRIMARY KEY, payload JSONB);",
			want1NF:    66.67,
			want2NF:    100,
			want3NF:    100,
			wantStatus: model.ComplianceFail,
		},
		{
			name:       "Determinant outside candidate keys",
			ddl:        "CREATE TABLE t (id INT PRIMARY KEY, email TEXT);",
			want1NF:    100,
			want2NF:    100,
			want3NF:    50,
			wantStatus: model.CompliancePass,
		},
	}

	a := NewStandardAuditor(nil)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := a.AuditTable(mustTable(t, tt.ddl))
			require.Len(t, report.Compliance, 3)

			assert.Equal(t, tt.want1NF, report.ComplianceFor(model.NF1).Score)
			assert.Equal(t, tt.want2NF, report.ComplianceFor(model.NF2).Score)
			assert.Equal(t, tt.want3NF, report.ComplianceFor(model.NF3).Score)
			assert.Equal(t, tt.wantStatus, report.ComplianceFor(model.NF1).Status)
			assert.Len(t, report.Rules, 7)
			assert.Empty(t, report.Errors)
		})
	}
}

func TestAuditor_AuditTable_CleanTableScoresPerfect(t *testing.T) {
	report := NewStandardAuditor(nil).AuditTable(mustTable(t, "CREATE TABLE users (id SERIAL PRIMARY KEY, email TEXT UNIQUE);"))

	assert.Empty(t, report.Violations)
	assert.Equal(t, 100.0, report.OverallScore)
	for _, r := range report.Rules {
		assert.True(t, r.Passed, r.RuleID)
	}
}

func TestAuditor_AuditTable_ArrayScore(t *testing.T) {
	report := NewStandardAuditor(nil).AuditTable(mustTable(t, "CREATE TABLE t (tags TEXT[]);"))

	nf1 := report.ComplianceFor(model.NF1)
	assert.Equal(t, 0.75, nf1.MaxWeight)
	assert.Equal(t, 0.65, nf1.ViolatedWeight)
	assert.Equal(t, 3, nf1.RuleCount)
	require.Len(t, nf1.Violations, 2)
	for _, v := range nf1.Violations {
		assert.Equal(t, model.SeverityError, v.Severity)
		assert.Equal(t, 1.0, v.Confidence)
	}
	assert.InDelta(t, 56.67, report.OverallScore, 0.011)
}

func TestAuditor_AuditTable_MissingKeyCap(t *testing.T) {
	ddls := []string{
		"CREATE TABLE t (name TEXT);",
		"CREATE TABLE t (name TEXT, tags TEXT[]);",
		"CREATE TABLE t (detail_list VARCHAR(100), meta JSON);",
		"CREATE TABLE t ();",
	}
	a := NewStandardAuditor(nil)
	for _, ddl := range ddls {
		report := a.AuditTable(mustTable(t, ddl))
		assert.LessOrEqual(t, report.ComplianceFor(model.NF1).Score, 46.67, ddl)
	}
}

func TestAuditor_AuditTable_ErrorSuppressesWarningOnSameColumn(t *testing.T) {
	report := NewStandardAuditor(nil).AuditTable(mustTable(t,
		"CREATE TABLE t (id INT PRIMARY KEY, data_list TEXT[], tag_list VARCHAR(20));"))

	require.Len(t, report.Violations, 2)
	assert.Equal(t, "1nf.repeating_groups", report.Violations[0].RuleID)
	assert.Equal(t, "data_list", report.Violations[0].Column)
	assert.Equal(t, "1nf.atomic_values", report.Violations[1].RuleID)
	assert.Equal(t, "tag_list", report.Violations[1].Column)
	assert.Equal(t, 53.33, report.ComplianceFor(model.NF1).Score)
}

func TestAuditor_AuditTable_Idempotent(t *testing.T) {
	a := NewStandardAuditor(nil)
	table := mustTable(t, `CREATE TABLE order_items (
		order_id INT, product_id INT, product_name TEXT, total_price NUMERIC,
		customer_id INT, customer_name TEXT, tags TEXT[],
		PRIMARY KEY (order_id, product_id));`)

	assert.Equal(t, a.AuditTable(table), a.AuditTable(table))
}

func TestAuditor_RuleIsolation(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	a := NewAuditor(zap.New(core))

	table := mustTable(t, "CREATE TABLE t (id INT PRIMARY KEY);")
	good := &MockRule{
		id:     "mock.good",
		nf:     model.NF1,
		weight: 1,
		violations: []model.Violation{
			{Severity: model.SeverityWarning, Message: "Mock issue found", Confidence: 0.5},
		},
	}
	a.Register(&MockRule{id: "mock.panic", nf: model.NF1, weight: 1, panics: true})
	a.Register(&MockRule{id: "mock.error", nf: model.NF2, weight: 1, err: errors.New("boom")})
	a.Register(good)

	report := a.AuditTable(table)

	require.Len(t, report.Violations, 1)
	v := report.Violations[0]
	assert.Equal(t, "mock.good", v.RuleID)
	assert.Equal(t, model.NF1, v.NormalForm)
	assert.Equal(t, "public", v.Schema)
	assert.Equal(t, "t", v.Table)

	require.Len(t, report.Errors, 2)
	assert.Contains(t, report.Errors[0], "rule mock.panic on table public.t: panic:")
	assert.Equal(t, "rule mock.error on table public.t: boom", report.Errors[1])
	assert.Equal(t, 2, logs.FilterMessage("rule evaluation failed").Len())

	assert.Equal(t, 50.0, report.ComplianceFor(model.NF1).Score)
	assert.Equal(t, 100.0, report.ComplianceFor(model.NF2).Score)
	assert.Equal(t, 100.0, report.ComplianceFor(model.NF3).Score)
}

func TestAuditor_EvaluateWrapsErrors(t *testing.T) {
	a := NewAuditor(nil)
	cause := errors.New("boom")
	_, err := a.evaluate(&MockRule{id: "mock.error", err: cause}, model.NewTable("", "t"))

	var re *RuleEvaluationError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "mock.error", re.RuleID)
	assert.Equal(t, "public.t", re.Table)
	assert.ErrorIs(t, err, cause)
}
