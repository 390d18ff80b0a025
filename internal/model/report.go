package model

// Violation represents a normalization problem found by a rule
type Violation struct {
	RuleID      string     `json:"ruleId" yaml:"ruleId"`
	NormalForm  NormalForm `json:"normalForm" yaml:"normalForm"`
	Schema      string     `json:"schema" yaml:"schema"`
	Table       string     `json:"table" yaml:"table"`
	Column      string     `json:"column,omitempty" yaml:"column,omitempty"` // empty for table-level findings
	Severity    Severity   `json:"severity" yaml:"severity"`
	Message     string     `json:"message" yaml:"message"`
	Explanation string     `json:"explanation" yaml:"explanation"`
	Suggestion  string     `json:"suggestion" yaml:"suggestion"`
	Confidence  float64    `json:"confidence" yaml:"confidence"`
}

// RuleResult is the outcome of evaluating one rule against one table
type RuleResult struct {
	Violations  []Violation
	Passed      bool
	Confidence  float64
	Explanation string
}

// RuleOutcome is the reported form of a RuleResult
type RuleOutcome struct {
	RuleID      string     `json:"ruleId" yaml:"ruleId"`
	Name        string     `json:"name" yaml:"name"`
	NormalForm  NormalForm `json:"normalForm" yaml:"normalForm"`
	Weight      float64    `json:"weight" yaml:"weight"`
	Passed      bool       `json:"passed" yaml:"passed"`
	Confidence  float64    `json:"confidence" yaml:"confidence"`
	Explanation string     `json:"explanation" yaml:"explanation"`
}

// ComplianceStatus is the per normal form threshold label
type ComplianceStatus string

const (
	CompliancePass    ComplianceStatus = "PASS"
	ComplianceWarning ComplianceStatus = "WARNING"
	ComplianceFail    ComplianceStatus = "FAIL"
)

type ComplianceScore struct {
	NormalForm     NormalForm       `json:"normalForm" yaml:"normalForm"`
	Score          float64          `json:"score" yaml:"score"`
	MaxWeight      float64          `json:"maxWeight" yaml:"maxWeight"`
	ViolatedWeight float64          `json:"violatedWeight" yaml:"violatedWeight"`
	RuleCount      int              `json:"ruleCount" yaml:"ruleCount"`
	Status         ComplianceStatus `json:"status" yaml:"status"`
	Violations     []Violation      `json:"violations" yaml:"violations"`
}

// TableReport is the analysis of a single table
type TableReport struct {
	Schema       string            `json:"schema" yaml:"schema"`
	Table        string            `json:"table" yaml:"table"`
	Compliance   []ComplianceScore `json:"compliance" yaml:"compliance"`
	OverallScore float64           `json:"overallScore" yaml:"overallScore"`
	Violations   []Violation       `json:"violations" yaml:"violations"`
	Rules        []RuleOutcome     `json:"rules" yaml:"rules"`
	Errors       []string          `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// ComplianceFor returns the score of one normal form, or nil.
func (r *TableReport) ComplianceFor(nf NormalForm) *ComplianceScore {
	for i := range r.Compliance {
		if r.Compliance[i].NormalForm == nf {
			return &r.Compliance[i]
		}
	}
	return nil
}

// Status is the display label of a schema or database. It never feeds back into scoring.
type Status string

const (
	StatusPerfect        Status = "PERFECT"
	StatusGood           Status = "GOOD"
	StatusNeedsAttention Status = "NEEDS_ATTENTION"
	StatusCritical       Status = "CRITICAL"
)

// NormalFormSummary rolls one normal form up over several tables
type NormalFormSummary struct {
	NormalForm     NormalForm `json:"normalForm" yaml:"normalForm"`
	Score          float64    `json:"score" yaml:"score"`
	ViolatedTables int        `json:"violatedTables" yaml:"violatedTables"`
	TotalTables    int        `json:"totalTables" yaml:"totalTables"`
}

// AnalysisReport is the legacy single-schema report shape.
type AnalysisReport struct {
	AnalysisID   string              `json:"analysisId" yaml:"analysisId"`
	TableCount   int                 `json:"tableCount" yaml:"tableCount"`
	OverallScore float64             `json:"overallScore" yaml:"overallScore"`
	Status       Status              `json:"status" yaml:"status"`
	NormalForms  []NormalFormSummary `json:"normalForms" yaml:"normalForms"`
	Violations   []Violation         `json:"violations" yaml:"violations"`
	Tables       []TableReport       `json:"tables" yaml:"tables"`
}

type SchemaAnalysisResult struct {
	SchemaName   string              `json:"schemaName" yaml:"schemaName"`
	TableCount   int                 `json:"tableCount" yaml:"tableCount"`
	NormalForms  []NormalFormSummary `json:"normalForms" yaml:"normalForms"`
	Violations   []Violation         `json:"violations" yaml:"violations"`
	OverallScore float64             `json:"overallScore" yaml:"overallScore"`
	Status       Status              `json:"status" yaml:"status"`
	Tables       []TableReport       `json:"tables" yaml:"tables"`
}

type MultiSchemaReport struct {
	AnalysisID   string                 `json:"analysisId" yaml:"analysisId"`
	TotalSchemas int                    `json:"totalSchemas" yaml:"totalSchemas"`
	TotalTables  int                    `json:"totalTables" yaml:"totalTables"`
	OverallScore float64                `json:"overallScore" yaml:"overallScore"`
	Status       Status                 `json:"status" yaml:"status"`
	Schemas      []SchemaAnalysisResult `json:"schemas" yaml:"schemas"`
}

// FileReport pairs a scanned input with its analysis
type FileReport struct {
	Path   string             `json:"path" yaml:"path"`
	Report *MultiSchemaReport `json:"report,omitempty" yaml:"report,omitempty"`
	Error  string             `json:"error,omitempty" yaml:"error,omitempty"`
}

type ValidationResult struct {
	IsValid  bool     `json:"isValid" yaml:"isValid"`
	Errors   []string `json:"errors" yaml:"errors"`
	Warnings []string `json:"warnings" yaml:"warnings"`
}

// RuleInfo describes a registered rule
type RuleInfo struct {
	ID         string     `json:"id" yaml:"id"`
	Name       string     `json:"name" yaml:"name"`
	NormalForm NormalForm `json:"normalForm" yaml:"normalForm"`
	Weight     float64    `json:"weight" yaml:"weight"`
}

type Features struct {
	Dialects    []string     `json:"dialects" yaml:"dialects"`
	Statements  []string     `json:"statements" yaml:"statements"`
	NormalForms []NormalForm `json:"normalForms" yaml:"normalForms"`
	Rules       []RuleInfo   `json:"rules" yaml:"rules"`
}
