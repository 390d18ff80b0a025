package auditor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"norm-check/internal/model"
)

func v(rule, table, column string, sev model.Severity) model.Violation {
	return model.Violation{RuleID: rule, Schema: "public", Table: table, Column: column, Severity: sev}
}

func TestResolveConflicts(t *testing.T) {
	tests := []struct {
		name  string
		input []model.Violation
		want  []model.Violation
	}{
		{
			name:  "Empty",
			input: nil,
			want:  []model.Violation{},
		},
		{
			name: "Error suppresses warning on same column",
			input: []model.Violation{
				v("a", "t", "c", model.SeverityWarning),
				v("b", "t", "c", model.SeverityError),
			},
			want: []model.Violation{
				v("b", "t", "c", model.SeverityError),
			},
		},
		{
			name: "Error never crosses columns",
			input: []model.Violation{
				v("a", "t", "c1", model.SeverityError),
				v("b", "t", "c2", model.SeverityWarning),
			},
			want: []model.Violation{
				v("a", "t", "c1", model.SeverityError),
				v("b", "t", "c2", model.SeverityWarning),
			},
		},
		{
			name: "Table level error keeps column warnings",
			input: []model.Violation{
				v("pk", "t", "", model.SeverityError),
				v("x", "t", "c", model.SeverityWarning),
				v("y", "t", "", model.SeverityWarning),
			},
			want: []model.Violation{
				v("pk", "t", "", model.SeverityError),
				v("x", "t", "c", model.SeverityWarning),
			},
		},
		{
			name: "Same column in another table is a separate group",
			input: []model.Violation{
				v("a", "t1", "c", model.SeverityError),
				v("b", "t2", "c", model.SeverityWarning),
			},
			want: []model.Violation{
				v("a", "t1", "c", model.SeverityError),
				v("b", "t2", "c", model.SeverityWarning),
			},
		},
		{
			name: "Warnings are never merged",
			input: []model.Violation{
				v("a", "t", "c", model.SeverityWarning),
				v("b", "t", "c", model.SeverityWarning),
				v("c", "t", "c", model.SeverityWarning),
			},
			want: []model.Violation{
				v("a", "t", "c", model.SeverityWarning),
				v("b", "t", "c", model.SeverityWarning),
				v("c", "t", "c", model.SeverityWarning),
			},
		},
		{
			name: "Multiple errors on one column are all kept",
			input: []model.Violation{
				v("a", "t", "c", model.SeverityError),
				v("w", "t", "c", model.SeverityWarning),
				v("b", "t", "c", model.SeverityError),
			},
			want: []model.Violation{
				v("a", "t", "c", model.SeverityError),
				v("b", "t", "c", model.SeverityError),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveConflicts(tt.input))
		})
	}
}
