package parser

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"norm-check/internal/model"
)

var (
	createTableHeader = regexp.MustCompile(`(?is)^CREATE\s+(?:(?:GLOBAL|LOCAL)\s+)?(?:(?:TEMPORARY|TEMP|UNLOGGED)\s+)?TABLE\s+(IF\s+NOT\s+EXISTS\s+)?`)

	primaryKeyClause = regexp.MustCompile(`(?is)^PRIMARY\s+KEY\s*`)
	foreignKeyClause = regexp.MustCompile(`(?is)^FOREIGN\s+KEY\s*`)
	uniqueClause     = regexp.MustCompile(`(?is)^UNIQUE\b(?:\s+NULLS\s+(?:NOT\s+)?DISTINCT)?\s*`)
	constraintClause = regexp.MustCompile(`(?is)^CONSTRAINT\s+`)
	checkClause      = regexp.MustCompile(`(?is)^CHECK\s*\(`)
	excludeClause    = regexp.MustCompile(`(?is)^EXCLUDE\s*(?:USING\b|\()`)
	likeClause       = regexp.MustCompile(`(?is)^LIKE\s+`)
	referencesClause = regexp.MustCompile(`(?is)^\s*REFERENCES\s+`)
)

// SQLParser turns PostgreSQL DDL into canonical tables. It keeps no state between calls.
type SQLParser struct{}

func NewSQLParser() *SQLParser {
	return &SQLParser{}
}

// Parse converts every CREATE TABLE statement in sql into a canonical table.
// Other statements are skipped.
func (sp *SQLParser) Parse(sql string) (*model.Schema, error) {
	stmts, err := splitStatements(sql)
	if err != nil {
		return nil, err
	}

	schema := &model.Schema{Tables: make([]*model.Table, 0)}
	for _, st := range stmts {
		header := createTableHeader.FindStringSubmatch(st.text)
		if header == nil {
			continue
		}
		table, _, err := parseCreateTable(st)
		if err != nil {
			return nil, err
		}
		if schema.Table(table.QualifiedName()) != nil {
			if header[1] != "" {
				continue // IF NOT EXISTS
			}
			return nil, &ParseError{Construct: "duplicate table", Detail: table.QualifiedName(), Statement: st.text, Line: st.line}
		}
		schema.Tables = append(schema.Tables, table)
	}
	return schema, nil
}

// ParseTable parses the first CREATE TABLE statement found in sql.
func (sp *SQLParser) ParseTable(sql string) (*model.Table, error) {
	stmts, err := splitStatements(sql)
	if err != nil {
		return nil, err
	}
	for _, st := range stmts {
		if createTableHeader.MatchString(st.text) {
			table, _, err := parseCreateTable(st)
			return table, err
		}
	}
	return nil, &ParseError{Construct: "CREATE TABLE", Detail: "no CREATE TABLE statement found", Statement: sql}
}

// LoadSchema reads a SQL file and parses it
func (sp *SQLParser) LoadSchema(path string) (*model.Schema, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	schema, err := sp.Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("schema parse error in %s: %w", path, err)
	}
	return schema, nil
}

// tableParse holds the state of one CREATE TABLE body being parsed
type tableParse struct {
	table       *model.Table
	stmt        statement
	unsupported []string
	hasLike     bool
}

func (tp *tableParse) fail(construct, detail string) error {
	return &ParseError{Construct: construct, Detail: detail, Statement: tp.stmt.text, Line: tp.stmt.line}
}

// setPrimaryKey records the table's only primary key.
func (tp *tableParse) setPrimaryKey(cols ...string) error {
	if len(tp.table.PrimaryKey) > 0 {
		return tp.fail("PRIMARY KEY", fmt.Sprintf("multiple primary keys for table %s", tp.table.QualifiedName()))
	}
	tp.table.AddPrimaryKey(cols...)
	return nil
}

// parseCreateTable parses one CREATE TABLE statement. It also returns the unsupported
// constructs it skipped over, which only validation reports.
func parseCreateTable(st statement) (*model.Table, []string, error) {
	loc := createTableHeader.FindStringIndex(st.text)
	if loc == nil {
		return nil, nil, &ParseError{Construct: "CREATE TABLE", Detail: "not a CREATE TABLE statement", Statement: st.text, Line: st.line}
	}
	rest := st.text[loc[1]:]

	rawName, end := readQualifiedName(rest, 0)
	if rawName == "" {
		return nil, nil, &ParseError{Construct: "CREATE TABLE", Detail: "missing table name", Statement: st.text, Line: st.line}
	}
	schemaName, tableName := model.SplitQualifiedName(rawName)

	tp := &tableParse{table: model.NewTable(schemaName, tableName), stmt: st}

	open := skipSpace(rest, end)
	if open >= len(rest) || rest[open] != '(' {
		return nil, nil, tp.fail("CREATE TABLE", fmt.Sprintf("table %s has no column list", tp.table.QualifiedName()))
	}
	body, _, ok := parenGroup(rest, open)
	if !ok {
		return nil, nil, tp.fail("unbalanced parentheses", fmt.Sprintf("column list of table %s is not closed", tp.table.QualifiedName()))
	}

	if strings.TrimSpace(body) != "" {
		for _, clause := range splitTopLevel(body, ',') {
			if clause == "" {
				return nil, nil, tp.fail("column definition", fmt.Sprintf("empty definition in table %s", tp.table.QualifiedName()))
			}
			if err := tp.parseClause(clause); err != nil {
				return nil, nil, err
			}
		}
	}

	if err := tp.checkKeyColumns(); err != nil {
		return nil, nil, err
	}
	tp.table.SyncKeyFlags()
	return tp.table, tp.unsupported, nil
}

// checkKeyColumns rejects key constraints naming columns the table does not declare.
func (tp *tableParse) checkKeyColumns() error {
	if tp.hasLike {
		return nil
	}
	t := tp.table
	check := func(construct, col string) error {
		if t.Column(col) == nil {
			return tp.fail(construct, fmt.Sprintf("column %q does not exist in table %s", col, t.QualifiedName()))
		}
		return nil
	}
	for _, col := range t.PrimaryKey {
		if err := check("PRIMARY KEY", col); err != nil {
			return err
		}
	}
	for _, group := range t.UniqueConstraints {
		for _, col := range group {
			if err := check("UNIQUE", col); err != nil {
				return err
			}
		}
	}
	for _, fk := range t.ForeignKeys {
		if err := check("FOREIGN KEY", fk.Column); err != nil {
			return err
		}
	}
	return nil
}

// parseClause dispatches one top-level clause of the table body on its leading keyword.
func (tp *tableParse) parseClause(clause string) error {
	switch {
	case constraintClause.MatchString(clause):
		rest := clause[constraintClause.FindStringIndex(clause)[1]:]
		_, end := readIdentifier(rest, 0)
		body := strings.TrimSpace(rest[end:])
		if body == "" {
			return tp.fail("CONSTRAINT", "constraint has no body")
		}
		return tp.parseClause(body)
	case primaryKeyClause.MatchString(clause):
		cols, _, err := tp.columnList(clause, primaryKeyClause, "PRIMARY KEY")
		if err != nil {
			return err
		}
		return tp.setPrimaryKey(cols...)
	case foreignKeyClause.MatchString(clause):
		return tp.parseForeignKey(clause)
	case uniqueClause.MatchString(clause):
		cols, _, err := tp.columnList(clause, uniqueClause, "UNIQUE")
		if err != nil {
			return err
		}
		tp.table.UniqueConstraints = append(tp.table.UniqueConstraints, cols)
	case checkClause.MatchString(clause):
		tp.unsupported = append(tp.unsupported, "CHECK")
	case excludeClause.MatchString(clause):
		tp.unsupported = append(tp.unsupported, "EXCLUDE")
	case likeClause.MatchString(clause):
		// LIKE copies another table's columns, which are not visible here
		tp.hasLike = true
	default:
		return tp.parseColumn(clause)
	}
	return nil
}

// columnList reads the "(a, b)" list following the keyword matched by re.
func (tp *tableParse) columnList(clause string, re *regexp.Regexp, construct string) ([]string, int, error) {
	open := re.FindStringIndex(clause)[1]
	inner, end, ok := parenGroup(clause, open)
	if !ok {
		return nil, 0, tp.fail(construct, fmt.Sprintf("expected column list in %q", clause))
	}
	cols := identList(inner)
	if len(cols) == 0 {
		return nil, 0, tp.fail(construct, "constraint names no columns")
	}
	return cols, end + 1, nil
}

func (tp *tableParse) parseForeignKey(clause string) error {
	cols, end, err := tp.columnList(clause, foreignKeyClause, "FOREIGN KEY")
	if err != nil {
		return err
	}
	rest := clause[end:]
	loc := referencesClause.FindStringIndex(rest)
	if loc == nil {
		return tp.fail("FOREIGN KEY", "missing REFERENCES")
	}
	target, refCols, err := tp.reference(rest[loc[1]:])
	if err != nil {
		return err
	}
	for i, col := range cols {
		ref := ""
		if i < len(refCols) {
			ref = refCols[i]
		}
		tp.table.ForeignKeys = append(tp.table.ForeignKeys, model.ForeignKey{Column: col, RefTable: target, RefColumn: ref})
		if c := tp.table.Column(col); c != nil && c.ForeignKey == nil {
			c.ForeignKey = &model.Reference{Table: target, Column: ref}
		}
	}
	return nil
}

// reference reads "table [(col, ...)]" after a REFERENCES keyword.
func (tp *tableParse) reference(s string) (string, []string, error) {
	i := skipSpace(s, 0)
	raw, end := readQualifiedName(s, i)
	if raw == "" {
		return "", nil, tp.fail("REFERENCES", "missing target table")
	}
	target := qualifiedName(raw)
	open := skipSpace(s, end)
	if open < len(s) && s[open] == '(' {
		inner, _, ok := parenGroup(s, open)
		if !ok {
			return "", nil, tp.fail("REFERENCES", "unclosed column list")
		}
		return target, identList(inner), nil
	}
	return target, nil, nil
}

// parseColumn parses "name type [modifiers...]".
func (tp *tableParse) parseColumn(clause string) error {
	tokens := tokenize(clause)
	name := model.NormalizeIdentifier(tokens[0])
	if name == "" {
		return tp.fail("column definition", fmt.Sprintf("missing column name in %q", clause))
	}

	i := 1
	var typeTokens []string
	for i < len(tokens) && !isModifier(tokens[i]) {
		typeTokens = append(typeTokens, tokens[i])
		i++
	}
	if len(typeTokens) == 0 {
		return tp.fail("column definition", fmt.Sprintf("column %q has no type", name))
	}

	col := &model.Column{
		Name:     name,
		Type:     model.NormalizeType(strings.Join(typeTokens, " ")),
		Nullable: true,
	}

	for i < len(tokens) {
		switch keyword(tokens[i]) {
		case "NOT":
			if i+1 < len(tokens) && keyword(tokens[i+1]) == "NULL" {
				col.Nullable = false
				i++
			}
		case "PRIMARY":
			if i+1 < len(tokens) && keyword(tokens[i+1]) == "KEY" {
				col.IsPrimaryKey = true
				col.Nullable = false
				i++
			}
		case "UNIQUE":
			col.IsUnique = true
		case "REFERENCES":
			rest := strings.Join(tokens[i+1:], " ")
			target, refCols, err := tp.reference(rest)
			if err != nil {
				return err
			}
			ref := ""
			if len(refCols) > 0 {
				ref = refCols[0]
			}
			col.ForeignKey = &model.Reference{Table: target, Column: ref}
			tp.table.ForeignKeys = append(tp.table.ForeignKeys, model.ForeignKey{Column: name, RefTable: target, RefColumn: ref})
			// skip the target table and its optional column list
			i++
			if i+1 < len(tokens) && strings.HasPrefix(tokens[i+1], "(") {
				i++
			}
		case "ON":
			i = referentialAction(tokens, i)
		case "CHECK":
			tp.unsupported = append(tp.unsupported, "CHECK")
			if !strings.Contains(tokens[i], "(") && i+1 < len(tokens) {
				i++
			}
		case "DEFAULT", "COLLATE", "CONSTRAINT":
			i++ // skip the operand
		}
		i++
	}

	if err := tp.table.AddColumn(col); err != nil {
		return tp.fail("column definition", err.Error())
	}
	if col.IsPrimaryKey {
		return tp.setPrimaryKey(name)
	}
	return nil
}

// referentialAction returns the index of the last token of an "ON DELETE|UPDATE action"
// clause starting at tokens[i], or i when tokens[i] does not open one.
func referentialAction(tokens []string, i int) int {
	if i+2 >= len(tokens) {
		return i
	}
	switch keyword(tokens[i+1]) {
	case "DELETE", "UPDATE":
	default:
		return i
	}
	i += 2
	switch keyword(tokens[i]) {
	case "NO", "SET":
		// NO ACTION, SET NULL, SET DEFAULT
		if i+1 < len(tokens) {
			i++
			if i+1 < len(tokens) && strings.HasPrefix(tokens[i+1], "(") {
				i++ // SET NULL (col, ...)
			}
		}
	}
	return i
}

var modifiers = map[string]bool{
	"NOT": true, "NULL": true, "PRIMARY": true, "UNIQUE": true, "DEFAULT": true,
	"REFERENCES": true, "CONSTRAINT": true, "CHECK": true, "COLLATE": true,
	"GENERATED": true, "DEFERRABLE": true, "INITIALLY": true,
}

func isModifier(token string) bool {
	return modifiers[keyword(token)]
}

// keyword upper-cases the bare word at the start of token, ignoring quoted tokens.
func keyword(token string) string {
	if strings.HasPrefix(token, `"`) || strings.HasPrefix(token, `'`) {
		return ""
	}
	if i := strings.IndexByte(token, '('); i >= 0 {
		token = token[:i]
	}
	return strings.ToUpper(token)
}

// identList normalizes a comma separated list of column names, dropping sort options.
func identList(inner string) []string {
	var cols []string
	for _, part := range splitTopLevel(inner, ',') {
		tokens := tokenize(part)
		if len(tokens) == 0 {
			continue
		}
		cols = append(cols, model.NormalizeIdentifier(tokens[0]))
	}
	return cols
}

// qualifiedName renders a normalized "schema.table" or bare "table".
func qualifiedName(raw string) string {
	schema, name := model.SplitQualifiedName(raw)
	if schema == "" {
		return name
	}
	return schema + "." + name
}
