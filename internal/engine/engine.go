// Package engine exposes the analysis operations over DDL text, dump content and
// canonical schemas. Every call is independent; nothing is cached between calls.
package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"norm-check/internal/auditor"
	"norm-check/internal/builder"
	"norm-check/internal/extractor"
	"norm-check/internal/model"
	"norm-check/internal/parser"
)

// analysisNamespace seeds the name-based analysis ids
var analysisNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("norm-check/analysis"))

// ValidationError blocks analysis of DDL that failed validation.
type ValidationError struct {
	Result model.ValidationResult
}

func (e *ValidationError) Error() string {
	if len(e.Result.Errors) == 0 {
		return "validation failed"
	}
	return "validation failed: " + strings.Join(e.Result.Errors, "; ")
}

type Engine struct {
	logger    *zap.Logger
	parser    *parser.SQLParser
	extractor *extractor.DumpExtractor
	builder   *builder.Builder
	auditor   *auditor.Auditor
}

type Option func(*Engine)

func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func New(opts ...Option) *Engine {
	e := &Engine{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	e.parser = parser.NewSQLParser()
	e.extractor = extractor.NewDumpExtractor()
	e.builder = builder.New()
	e.auditor = auditor.NewStandardAuditor(e.logger)
	return e
}

// ParseDDL converts DDL text into a canonical schema.
func (e *Engine) ParseDDL(ddl string) (*model.Schema, error) {
	return e.parser.Parse(ddl)
}

func (e *Engine) ValidateDDL(ddl string) model.ValidationResult {
	return e.parser.Validate(ddl)
}

// ExtractDumpTables finds the CREATE TABLE blocks of a text or binary dump.
func (e *Engine) ExtractDumpTables(content []byte) model.ExtractionResult {
	res := e.extractor.Extract(content)
	e.logger.Debug("dump extracted",
		zap.String("format", string(res.Metadata.DetectedFormat)),
		zap.Int("tables", len(res.Tables)),
		zap.Int("warnings", len(res.Errors)))
	return res
}

// Analyze scores schema as a single unit.
func (e *Engine) Analyze(schema *model.Schema) (*model.AnalysisReport, error) {
	if schema == nil {
		return nil, fmt.Errorf("analyze: nil schema")
	}
	id, err := analysisID(schema)
	if err != nil {
		return nil, err
	}
	report := e.auditor.Analyze(schema)
	report.AnalysisID = id
	e.logger.Info("analysis complete",
		zap.String("analysisId", id),
		zap.Int("tables", report.TableCount),
		zap.Float64("score", report.OverallScore))
	return report, nil
}

// AnalyzeMultiSchema scores every PostgreSQL schema in schema separately.
func (e *Engine) AnalyzeMultiSchema(schema *model.Schema) (*model.MultiSchemaReport, error) {
	if schema == nil {
		return nil, fmt.Errorf("analyze: nil schema")
	}
	id, err := analysisID(schema)
	if err != nil {
		return nil, err
	}
	report := e.auditor.AnalyzeMultiSchema(schema)
	report.AnalysisID = id
	e.logger.Info("multi-schema analysis complete",
		zap.String("analysisId", id),
		zap.Int("schemas", report.TotalSchemas),
		zap.Int("tables", report.TotalTables),
		zap.Float64("score", report.OverallScore))
	return report, nil
}

// AnalyzeExtracted builds extracted tables and analyses them per schema. A table that
// cannot be built fails the whole call.
func (e *Engine) AnalyzeExtracted(tables []model.ExtractedTable) (*model.MultiSchemaReport, error) {
	schema, err := e.builder.BuildAll(tables)
	if err != nil {
		return nil, fmt.Errorf("analyze extracted tables: %w", err)
	}
	return e.AnalyzeMultiSchema(schema)
}

// AnalyzeDDL validates, parses and analyses DDL text. Validation failure blocks analysis.
func (e *Engine) AnalyzeDDL(ddl string) (*model.AnalysisReport, error) {
	if res := e.ValidateDDL(ddl); !res.IsValid {
		return nil, &ValidationError{Result: res}
	}
	schema, err := e.ParseDDL(ddl)
	if err != nil {
		return nil, err
	}
	return e.Analyze(schema)
}

// AnalyzeContent analyses a file's content per schema. Dumps are recognised by the
// custom-format signature or a .dump/.backup extension; everything else is DDL.
func (e *Engine) AnalyzeContent(name string, content []byte) (*model.MultiSchemaReport, error) {
	if IsDump(name, content) {
		res := e.ExtractDumpTables(content)
		for _, w := range res.Errors {
			e.logger.Warn("extraction warning", zap.String("file", name), zap.String("warning", w))
		}
		return e.AnalyzeExtracted(res.Tables)
	}

	ddl := string(content)
	if res := e.ValidateDDL(ddl); !res.IsValid {
		return nil, &ValidationError{Result: res}
	}
	schema, err := e.ParseDDL(ddl)
	if err != nil {
		return nil, err
	}
	return e.AnalyzeMultiSchema(schema)
}

// IsDump reports whether content should go through dump extraction.
func IsDump(name string, content []byte) bool {
	if bytes.HasPrefix(content, []byte(extractor.BinarySignature)) {
		return true
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".dump", ".backup":
		return true
	}
	return false
}

func (e *Engine) SupportedFeatures() model.Features {
	return model.Features{
		Dialects:    []string{"PostgreSQL"},
		Statements:  []string{"CREATE TABLE", "CREATE TABLE IF NOT EXISTS"},
		NormalForms: append([]model.NormalForm(nil), model.NormalForms...),
		Rules:       e.auditor.RuleInfo(),
	}
}

// analysisID derives a stable id from the canonical form of the analysed tables, so the
// same input always yields the same id.
func analysisID(schema *model.Schema) (string, error) {
	data, err := json.Marshal(schema.Tables)
	if err != nil {
		return "", fmt.Errorf("analysis id: %w", err)
	}
	return uuid.NewSHA1(analysisNamespace, data).String(), nil
}
