package model

import (
	"fmt"
	"strings"
)

// DefaultSchema is the owning schema of tables declared without a qualifier.
const DefaultSchema = "public"

// NormalForm tags a rule and its violations
type NormalForm string

const (
	NF1 NormalForm = "1NF"
	NF2 NormalForm = "2NF"
	NF3 NormalForm = "3NF"
)

// NormalForms lists the evaluated normal forms in reporting order.
var NormalForms = []NormalForm{NF1, NF2, NF3}

// Severity defines how certain a finding is
type Severity string

const (
	// SeverityError is reserved for deterministic checks.
	SeverityError Severity = "ERROR"
	// SeverityWarning is reserved for heuristic, pattern-based checks.
	SeverityWarning Severity = "WARNING"
)

// Reference is an unresolved foreign-key target. The target is never checked for existence.
type Reference struct {
	Table  string `json:"table" yaml:"table"`
	Column string `json:"column,omitempty" yaml:"column,omitempty"`
}

type Column struct {
	Name         string     `json:"name" yaml:"name"`
	Type         string     `json:"type" yaml:"type"`
	Nullable     bool       `json:"nullable" yaml:"nullable"`
	IsPrimaryKey bool       `json:"isPrimaryKey" yaml:"isPrimaryKey"`
	IsUnique     bool       `json:"isUnique" yaml:"isUnique"`
	ForeignKey   *Reference `json:"foreignKey,omitempty" yaml:"foreignKey,omitempty"`
}

// ForeignKey is one edge column -> refTable.refColumn
type ForeignKey struct {
	Column    string `json:"column" yaml:"column"`
	RefTable  string `json:"refTable" yaml:"refTable"`
	RefColumn string `json:"refColumn,omitempty" yaml:"refColumn,omitempty"`
}

// Table is the canonical description of one CREATE TABLE statement.
// Columns keep declaration order and names are unique within the table.
type Table struct {
	Schema            string       `json:"schema" yaml:"schema"`
	Name              string       `json:"name" yaml:"name"`
	Columns           []*Column    `json:"columns" yaml:"columns"`
	PrimaryKey        []string     `json:"primaryKey" yaml:"primaryKey"`
	ForeignKeys       []ForeignKey `json:"foreignKeys" yaml:"foreignKeys"`
	UniqueConstraints [][]string   `json:"uniqueConstraints" yaml:"uniqueConstraints"`
}

// NewTable returns an empty table, defaulting the schema to public.
func NewTable(schema, name string) *Table {
	if schema == "" {
		schema = DefaultSchema
	}
	return &Table{
		Schema:            schema,
		Name:              name,
		Columns:           make([]*Column, 0),
		PrimaryKey:        make([]string, 0),
		ForeignKeys:       make([]ForeignKey, 0),
		UniqueConstraints: make([][]string, 0),
	}
}

// QualifiedName returns schema.table
func (t *Table) QualifiedName() string {
	return t.Schema + "." + t.Name
}

// Column looks up a column by its canonical name.
func (t *Table) Column(name string) *Column {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// AddColumn appends a column, rejecting duplicates.
func (t *Table) AddColumn(c *Column) error {
	if t.Column(c.Name) != nil {
		return fmt.Errorf("duplicate column %q in table %q", c.Name, t.Name)
	}
	t.Columns = append(t.Columns, c)
	return nil
}

// AddPrimaryKey appends columns to the primary key list, keeping the first position of repeats.
func (t *Table) AddPrimaryKey(cols ...string) {
	for _, c := range cols {
		if !t.IsPrimaryKey(c) {
			t.PrimaryKey = append(t.PrimaryKey, c)
		}
	}
}

func (t *Table) IsPrimaryKey(name string) bool {
	for _, pk := range t.PrimaryKey {
		if pk == name {
			return true
		}
	}
	return false
}

// SyncKeyFlags restores the invariant between Column.IsPrimaryKey and the primary-key list,
// and attaches foreign-key edges to columns that carry no reference yet.
func (t *Table) SyncKeyFlags() {
	for _, c := range t.Columns {
		if c.IsPrimaryKey {
			t.AddPrimaryKey(c.Name)
		}
	}
	for _, c := range t.Columns {
		c.IsPrimaryKey = t.IsPrimaryKey(c.Name)
		if c.IsPrimaryKey {
			c.Nullable = false
		}
	}
	for _, fk := range t.ForeignKeys {
		if c := t.Column(fk.Column); c != nil && c.ForeignKey == nil {
			c.ForeignKey = &Reference{Table: fk.RefTable, Column: fk.RefColumn}
		}
	}
}

// PrimaryKeyColumns returns the key columns in declared key order. Key names without a
// matching column are skipped.
func (t *Table) PrimaryKeyColumns() []*Column {
	cols := make([]*Column, 0, len(t.PrimaryKey))
	for _, name := range t.PrimaryKey {
		if c := t.Column(name); c != nil {
			cols = append(cols, c)
		}
	}
	return cols
}

// NonKeyColumns returns every column outside the primary key, in declaration order.
func (t *Table) NonKeyColumns() []*Column {
	cols := make([]*Column, 0, len(t.Columns))
	for _, c := range t.Columns {
		if !t.IsPrimaryKey(c.Name) {
			cols = append(cols, c)
		}
	}
	return cols
}

// CandidateKeys returns the set of columns that individually or as part of the primary key
// identify a row: primary key columns, unique columns and single-column unique constraints.
func (t *Table) CandidateKeys() map[string]bool {
	keys := make(map[string]bool)
	for _, pk := range t.PrimaryKey {
		keys[pk] = true
	}
	for _, c := range t.Columns {
		if c.IsUnique {
			keys[c.Name] = true
		}
	}
	for _, group := range t.UniqueConstraints {
		if len(group) == 1 {
			keys[group[0]] = true
		}
	}
	return keys
}

// Schema is the set of tables under analysis, possibly spread over several PostgreSQL schemas.
type Schema struct {
	Tables []*Table `json:"tables" yaml:"tables"`
}

// SchemaNames returns the distinct owning schema names in first-appearance order.
func (s *Schema) SchemaNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, t := range s.Tables {
		if !seen[t.Schema] {
			seen[t.Schema] = true
			names = append(names, t.Schema)
		}
	}
	return names
}

// TablesIn returns the tables owned by the named schema.
func (s *Schema) TablesIn(schema string) []*Table {
	var tables []*Table
	for _, t := range s.Tables {
		if t.Schema == schema {
			tables = append(tables, t)
		}
	}
	return tables
}

// Table finds a table by name, accepting "schema.table" or a bare name in public.
func (s *Schema) Table(name string) *Table {
	schema, table := DefaultSchema, name
	if i := strings.LastIndex(name, "."); i > 0 {
		schema, table = name[:i], name[i+1:]
	}
	for _, t := range s.Tables {
		if t.Schema == schema && t.Name == table {
			return t
		}
	}
	return nil
}
