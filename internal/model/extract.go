package model

// DumpFormat is the detected layout of dump content
type DumpFormat string

const (
	DumpFormatText   DumpFormat = "text"
	DumpFormatBinary DumpFormat = "binary"
)

// ExtractedTable is one CREATE TABLE block found in a dump. Statement is verbatim; Facts is
// set only when the producer already holds structured column and constraint facts, in which
// case Schema and Name are raw spellings too.
type ExtractedTable struct {
	Schema    string      `json:"schema" yaml:"schema"`
	Name      string      `json:"name" yaml:"name"`
	Statement string      `json:"statement" yaml:"statement"`
	Line      int         `json:"line,omitempty" yaml:"line,omitempty"`
	Facts     *TableFacts `json:"facts,omitempty" yaml:"facts,omitempty"`
}

// TableFacts are pre-structured facts about a table, in raw (unnormalized) spelling.
type TableFacts struct {
	Columns           []ColumnFact `json:"columns" yaml:"columns"`
	PrimaryKey        []string     `json:"primaryKey,omitempty" yaml:"primaryKey,omitempty"`
	ForeignKeys       []ForeignKey `json:"foreignKeys,omitempty" yaml:"foreignKeys,omitempty"`
	UniqueConstraints [][]string   `json:"uniqueConstraints,omitempty" yaml:"uniqueConstraints,omitempty"`
}

type ColumnFact struct {
	Name       string     `json:"name" yaml:"name"`
	Type       string     `json:"type" yaml:"type"`
	NotNull    bool       `json:"notNull,omitempty" yaml:"notNull,omitempty"`
	PrimaryKey bool       `json:"primaryKey,omitempty" yaml:"primaryKey,omitempty"`
	Unique     bool       `json:"unique,omitempty" yaml:"unique,omitempty"`
	References *Reference `json:"references,omitempty" yaml:"references,omitempty"`
}

type ExtractionMetadata struct {
	TotalSize      int        `json:"totalSize" yaml:"totalSize"`
	ExtractedSize  int        `json:"extractedSize" yaml:"extractedSize"`
	DetectedFormat DumpFormat `json:"detectedFormat" yaml:"detectedFormat"`
}

type ExtractionResult struct {
	Success  bool               `json:"success" yaml:"success"`
	Tables   []ExtractedTable   `json:"tables" yaml:"tables"`
	Errors   []string           `json:"errors" yaml:"errors"`
	Metadata ExtractionMetadata `json:"metadata" yaml:"metadata"`
}
