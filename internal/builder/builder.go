// Package builder turns extracted dump blocks into canonical tables.
package builder

import (
	"fmt"

	"norm-check/internal/model"
	"norm-check/internal/parser"
)

// BuildError names the table that could not be built.
type BuildError struct {
	Table string
	Line  int
	Err   error
}

func (e *BuildError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("build table %s (line %d): %v", e.Table, e.Line, e.Err)
	}
	return fmt.Sprintf("build table %s: %v", e.Table, e.Err)
}

func (e *BuildError) Unwrap() error {
	return e.Err
}

// Builder converts ExtractedTables into model.Tables. Blocks carrying structured facts are
// built directly, all others go through the DDL parser.
type Builder struct {
	parser *parser.SQLParser
}

func New() *Builder {
	return &Builder{parser: parser.NewSQLParser()}
}

// Build converts one extracted table.
func (b *Builder) Build(ext model.ExtractedTable) (*model.Table, error) {
	var (
		table *model.Table
		err   error
	)
	if ext.Facts != nil {
		table, err = fromFacts(ext)
	} else {
		table, err = b.parser.ParseTable(ext.Statement)
	}
	if err != nil {
		return nil, &BuildError{Table: qualified(ext), Line: ext.Line, Err: err}
	}
	return table, nil
}

// BuildAll builds every table in order and stops at the first failure.
func (b *Builder) BuildAll(tables []model.ExtractedTable) (*model.Schema, error) {
	schema := &model.Schema{Tables: make([]*model.Table, 0, len(tables))}
	for _, ext := range tables {
		table, err := b.Build(ext)
		if err != nil {
			return nil, err
		}
		if schema.Table(table.QualifiedName()) != nil {
			return nil, &BuildError{Table: table.QualifiedName(), Line: ext.Line, Err: fmt.Errorf("duplicate table")}
		}
		schema.Tables = append(schema.Tables, table)
	}
	return schema, nil
}

func qualified(ext model.ExtractedTable) string {
	schema := ext.Schema
	if schema == "" {
		schema = model.DefaultSchema
	}
	return schema + "." + ext.Name
}

// factsName normalizes the raw table name of a facts block the way the parser folds a
// CREATE TABLE header. A qualified Name wins over an empty Schema.
func factsName(ext model.ExtractedTable) (schema, name string) {
	if ext.Schema == "" {
		return model.SplitQualifiedName(ext.Name)
	}
	return model.NormalizeIdentifier(ext.Schema), model.NormalizeIdentifier(ext.Name)
}

func fromFacts(ext model.ExtractedTable) (*model.Table, error) {
	f := ext.Facts
	table := model.NewTable(factsName(ext))

	flagged := 0
	for _, cf := range f.Columns {
		if cf.PrimaryKey {
			flagged++
		}
	}
	if flagged > 1 || (flagged == 1 && len(f.PrimaryKey) > 0) {
		return nil, fmt.Errorf("multiple primary keys for table %s", table.QualifiedName())
	}

	for _, cf := range f.Columns {
		if cf.Type == "" {
			return nil, fmt.Errorf("column %q has no type", cf.Name)
		}
		col := &model.Column{
			Name:         model.NormalizeIdentifier(cf.Name),
			Type:         model.NormalizeType(cf.Type),
			Nullable:     !cf.NotNull,
			IsPrimaryKey: cf.PrimaryKey,
			IsUnique:     cf.Unique,
		}
		if cf.References != nil {
			ref := normalizeReference(*cf.References)
			col.ForeignKey = &ref
			table.ForeignKeys = append(table.ForeignKeys, model.ForeignKey{Column: col.Name, RefTable: ref.Table, RefColumn: ref.Column})
		}
		if err := table.AddColumn(col); err != nil {
			return nil, err
		}
	}

	table.AddPrimaryKey(normalizeAll(f.PrimaryKey)...)
	for _, fk := range f.ForeignKeys {
		ref := normalizeReference(model.Reference{Table: fk.RefTable, Column: fk.RefColumn})
		table.ForeignKeys = append(table.ForeignKeys, model.ForeignKey{
			Column:    model.NormalizeIdentifier(fk.Column),
			RefTable:  ref.Table,
			RefColumn: ref.Column,
		})
	}
	for _, group := range f.UniqueConstraints {
		table.UniqueConstraints = append(table.UniqueConstraints, normalizeAll(group))
	}

	for _, name := range table.PrimaryKey {
		if table.Column(name) == nil {
			return nil, fmt.Errorf("primary key column %q does not exist", name)
		}
	}
	for _, group := range table.UniqueConstraints {
		for _, name := range group {
			if table.Column(name) == nil {
				return nil, fmt.Errorf("unique column %q does not exist", name)
			}
		}
	}
	for _, fk := range table.ForeignKeys {
		if table.Column(fk.Column) == nil {
			return nil, fmt.Errorf("foreign key column %q does not exist", fk.Column)
		}
	}
	table.SyncKeyFlags()
	return table, nil
}

func normalizeAll(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		out = append(out, model.NormalizeIdentifier(n))
	}
	return out
}

// normalizeReference normalizes the target the way the DDL parser does; an unqualified
// target stays unqualified.
func normalizeReference(ref model.Reference) model.Reference {
	schema, name := model.SplitQualifiedName(ref.Table)
	out := model.Reference{Table: name}
	if schema != "" {
		out.Table = schema + "." + name
	}
	if ref.Column != "" {
		out.Column = model.NormalizeIdentifier(ref.Column)
	}
	return out
}
