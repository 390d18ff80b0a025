package model

// Extractor is responsible for pulling CREATE TABLE blocks out of raw content
type Extractor interface {
	// Extract scans the given content and returns the blocks it found
	Extract(content []byte) ExtractionResult
}

// Rule represents a single normalization check
type Rule interface {
	// ID returns the unique identifier stamped on every violation the rule produces
	ID() string
	NormalForm() NormalForm
	// Name returns the human readable rule name
	Name() string
	// Weight is the rule's fixed share of its normal form's maximum score
	Weight() float64
	// Evaluate examines one table
	Evaluate(table *Table) (RuleResult, error)
}

// Reporter defines how to output results
type Reporter interface {
	Report(reports []FileReport) error
}
