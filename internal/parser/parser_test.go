package parser

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLParser_Parse(t *testing.T) {
	p := NewSQLParser()

	tests := []struct {
		name       string
		sql        string
		wantTables []string
	}{
		{
			name:       "Single table",
			sql:        "CREATE TABLE users (id SERIAL PRIMARY KEY, email TEXT UNIQUE);",
			wantTables: []string{"public.users"},
		},
		{
			name:       "Other statements skipped",
			sql:        "SET search_path = public; CREATE INDEX idx ON a (id); INSERT INTO a VALUES (1); CREATE TABLE a (id INT);",
			wantTables: []string{"public.a"},
		},
		{
			name:       "Semicolon inside default literal",
			sql:        "CREATE TABLE notes (id INT, body TEXT DEFAULT 'a;b'); CREATE TABLE tags (id INT)",
			wantTables: []string{"public.notes", "public.tags"},
		},
		{
			name:       "Comments",
			sql:        "-- users; table\nCREATE TABLE t (id INT /* pk; */ PRIMARY KEY);",
			wantTables: []string{"public.t"},
		},
		{
			name: "Dollar quoted function body",
			sql: `CREATE FUNCTION f() RETURNS int AS $body$ SELECT 1; $body$ LANGUAGE sql;
			      CREATE TABLE t (id INT);`,
			wantTables: []string{"public.t"},
		},
		{
			name:       "Schema qualified and IF NOT EXISTS",
			sql:        "CREATE TABLE IF NOT EXISTS Sales.Orders (id INT); CREATE TABLE IF NOT EXISTS sales.orders (id INT);",
			wantTables: []string{"sales.orders"},
		},
		{
			name:       "No tables",
			sql:        "SELECT 1;",
			wantTables: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema, err := p.Parse(tt.sql)
			require.NoError(t, err)

			var got []string
			for _, table := range schema.Tables {
				got = append(got, table.QualifiedName())
			}
			assert.Equal(t, tt.wantTables, got)
		})
	}
}

func TestSQLParser_CompositePrimaryKeyOrder(t *testing.T) {
	p := NewSQLParser()

	tests := []struct {
		name string
		sql  string
		want []string
	}{
		{
			name: "Table level",
			sql:  "CREATE TABLE order_items (product_id INT, order_id INT, qty INT, PRIMARY KEY (order_id, product_id));",
			want: []string{"order_id", "product_id"},
		},
		{
			name: "Named constraint",
			sql:  "CREATE TABLE order_items (a INT, b INT, c INT, CONSTRAINT order_items_pkey PRIMARY KEY (c, a, b));",
			want: []string{"c", "a", "b"},
		},
		{
			name: "Declared before columns",
			sql:  "CREATE TABLE x (PRIMARY KEY (b, a), a INT, b INT);",
			want: []string{"b", "a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := p.ParseTable(tt.sql)
			require.NoError(t, err)
			assert.Equal(t, tt.want, table.PrimaryKey)
			for _, col := range table.Columns {
				assert.Equal(t, table.IsPrimaryKey(col.Name), col.IsPrimaryKey, col.Name)
			}
		})
	}
}

func TestSQLParser_Identifiers(t *testing.T) {
	p := NewSQLParser()

	table, err := p.ParseTable(`CREATE TABLE "UserAccounts" ("UserId" INT PRIMARY KEY, Email TEXT, "Display Name" VARCHAR(80));`)
	require.NoError(t, err)

	assert.Equal(t, "UserAccounts", table.Name)
	assert.Equal(t, "public", table.Schema)
	require.Len(t, table.Columns, 3)
	assert.Equal(t, "UserId", table.Columns[0].Name)
	assert.Equal(t, "email", table.Columns[1].Name)
	assert.Equal(t, "Display Name", table.Columns[2].Name)
	assert.Equal(t, []string{"UserId"}, table.PrimaryKey)
}

func TestSQLParser_Columns(t *testing.T) {
	p := NewSQLParser()

	table, err := p.ParseTable(`
		CREATE TABLE products (
			id          BIGSERIAL PRIMARY KEY,
			sku         VARCHAR (32) NOT NULL UNIQUE,
			price       NUMERIC(10, 2) NOT NULL DEFAULT 0,
			tags        TEXT[],
			attrs       JSONB,
			ratio       DOUBLE PRECISION NULL,
			created_at  TIMESTAMP WITH TIME ZONE DEFAULT now(),
			vendor_id   INT REFERENCES vendors(id) ON DELETE CASCADE,
			category_id INT,
			code        TEXT COLLATE "C",
			FOREIGN KEY (category_id) REFERENCES catalog.categories (id),
			UNIQUE (vendor_id, code),
			CONSTRAINT products_code_key UNIQUE (code)
		) WITH (fillfactor = 90);`)
	require.NoError(t, err)

	wantTypes := map[string]string{
		"id":          "BIGSERIAL",
		"sku":         "VARCHAR(32)",
		"price":       "NUMERIC(10,2)",
		"tags":        "TEXT[]",
		"attrs":       "JSONB",
		"ratio":       "DOUBLE PRECISION",
		"created_at":  "TIMESTAMP WITH TIME ZONE",
		"vendor_id":   "INT",
		"category_id": "INT",
		"code":        "TEXT",
	}
	require.Len(t, table.Columns, len(wantTypes))
	for name, typ := range wantTypes {
		col := table.Column(name)
		require.NotNil(t, col, name)
		assert.Equal(t, typ, col.Type, name)
	}

	assert.False(t, table.Column("id").Nullable)
	assert.False(t, table.Column("sku").Nullable)
	assert.True(t, table.Column("sku").IsUnique)
	assert.False(t, table.Column("price").Nullable)
	assert.True(t, table.Column("ratio").Nullable)

	require.NotNil(t, table.Column("vendor_id").ForeignKey)
	assert.Equal(t, "vendors", table.Column("vendor_id").ForeignKey.Table)
	assert.Equal(t, "id", table.Column("vendor_id").ForeignKey.Column)
	require.NotNil(t, table.Column("category_id").ForeignKey)
	assert.Equal(t, "catalog.categories", table.Column("category_id").ForeignKey.Table)
	assert.Len(t, table.ForeignKeys, 2)

	assert.Equal(t, [][]string{{"vendor_id", "code"}, {"code"}}, table.UniqueConstraints)
}

func TestSQLParser_ParseErrors(t *testing.T) {
	p := NewSQLParser()

	tests := []struct {
		name          string
		sql           string
		wantConstruct string
	}{
		{"Missing close paren", "CREATE TABLE t (id INT;", "unbalanced parentheses"},
		{"Extra close paren", "CREATE TABLE t (id INT));", "unbalanced parentheses"},
		{"No column list", "CREATE TABLE t;", "CREATE TABLE"},
		{"Unterminated literal", "CREATE TABLE t (id INT DEFAULT 'x);", "unterminated quoted literal"},
		{"Unterminated comment", "CREATE TABLE t (id INT); /* open", "unterminated comment"},
		{"Column without type", "CREATE TABLE t (id);", "column definition"},
		{"Duplicate column", "CREATE TABLE t (id INT, ID TEXT);", "column definition"},
		{"Empty definition", "CREATE TABLE t (id INT,);", "column definition"},
		{"Unknown key column", "CREATE TABLE t (id INT, PRIMARY KEY (uid));", "PRIMARY KEY"},
		{"Duplicate table", "CREATE TABLE t (id INT); CREATE TABLE t (id INT);", "duplicate table"},
		{"Two inline primary keys", "CREATE TABLE t (a INT PRIMARY KEY, b INT PRIMARY KEY);", "PRIMARY KEY"},
		{"Inline and table primary key", "CREATE TABLE t (a INT PRIMARY KEY, b INT, PRIMARY KEY (b));", "PRIMARY KEY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Parse(tt.sql)
			require.Error(t, err)

			var perr *ParseError
			require.True(t, errors.As(err, &perr), "want *ParseError, got %T", err)
			assert.Equal(t, tt.wantConstruct, perr.Construct)
			assert.NotEmpty(t, perr.Error())
		})
	}
}

func TestSQLParser_ParseErrorLine(t *testing.T) {
	p := NewSQLParser()

	_, err := p.Parse("CREATE TABLE a (id INT);\n\nCREATE TABLE b (id);")
	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, 3, perr.Line)
	assert.Contains(t, perr.Error(), "line 3")
}

func TestSQLParser_Validate(t *testing.T) {
	p := NewSQLParser()

	tests := []struct {
		name         string
		sql          string
		wantValid    bool
		wantErrors   []string
		wantWarnings []string
	}{
		{
			name:      "Valid table",
			sql:       "CREATE TABLE users (id SERIAL PRIMARY KEY);",
			wantValid: true,
		},
		{
			name:         "Missing primary key",
			sql:          "CREATE TABLE t (tags TEXT[]);",
			wantValid:    true,
			wantWarnings: []string{"table public.t has no primary key"},
		},
		{
			name:         "No CREATE TABLE",
			sql:          "SELECT 1;",
			wantValid:    true,
			wantWarnings: []string{"no CREATE TABLE found", "skipped 1 statement(s) that are not CREATE TABLE"},
		},
		{
			name:       "Table level CHECK",
			sql:        "CREATE TABLE t (id INT PRIMARY KEY, price INT, CHECK (price > 0));",
			wantValid:  false,
			wantErrors: []string{"unsupported construct: CHECK in table public.t"},
		},
		{
			name:       "Inline CHECK",
			sql:        "CREATE TABLE t (id INT PRIMARY KEY, price INT CHECK (price > 0));",
			wantValid:  false,
			wantErrors: []string{"unsupported construct: CHECK in table public.t"},
		},
		{
			name:         "View",
			sql:          "CREATE OR REPLACE VIEW v AS SELECT 1;",
			wantValid:    false,
			wantErrors:   []string{"unsupported construct: CREATE VIEW"},
			wantWarnings: []string{"no CREATE TABLE found"},
		},
		{
			name:         "Trigger",
			sql:          "CREATE TRIGGER trg BEFORE INSERT ON t FOR EACH ROW EXECUTE FUNCTION f();",
			wantValid:    false,
			wantErrors:   []string{"unsupported construct: CREATE TRIGGER"},
			wantWarnings: []string{"no CREATE TABLE found"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := p.Validate(tt.sql)
			assert.Equal(t, tt.wantValid, res.IsValid)
			for _, want := range tt.wantErrors {
				assert.Contains(t, res.Errors, want)
			}
			if len(tt.wantErrors) == 0 {
				assert.Empty(t, res.Errors)
			}
			if tt.wantWarnings == nil {
				assert.Empty(t, res.Warnings)
			} else {
				assert.Equal(t, tt.wantWarnings, res.Warnings)
			}
		})
	}
}

func TestSQLParser_ReferentialActions(t *testing.T) {
	p := NewSQLParser()

	tests := []struct {
		name   string
		column string
	}{
		{"Set default", "parent_id INT REFERENCES parent(id) ON DELETE SET DEFAULT NOT NULL"},
		{"Set null with columns", "parent_id INT REFERENCES parent (id) ON DELETE SET NULL (parent_id) NOT NULL"},
		{"Both actions", "parent_id INT REFERENCES parent(id) ON UPDATE NO ACTION ON DELETE SET DEFAULT NOT NULL"},
		{"Action before default", "parent_id INT REFERENCES parent(id) ON DELETE CASCADE DEFAULT 0 NOT NULL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := p.ParseTable("CREATE TABLE child (id INT PRIMARY KEY, " + tt.column + ", note TEXT);")
			require.NoError(t, err)
			require.Len(t, table.Columns, 3)

			col := table.Column("parent_id")
			assert.False(t, col.Nullable)
			assert.Equal(t, "INT", col.Type)
			require.NotNil(t, col.ForeignKey)
			assert.Equal(t, "parent", col.ForeignKey.Table)
			assert.Equal(t, "id", col.ForeignKey.Column)
		})
	}
}

func TestSQLParser_ValidateDuplicateTable(t *testing.T) {
	p := NewSQLParser()

	res := p.Validate("CREATE TABLE t (id INT PRIMARY KEY);\nCREATE TABLE public.T (id INT PRIMARY KEY);")
	assert.False(t, res.IsValid)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "duplicate table: public.t")

	res = p.Validate("CREATE TABLE t (id INT PRIMARY KEY);\nCREATE TABLE IF NOT EXISTS t (id INT PRIMARY KEY);")
	assert.True(t, res.IsValid)
	assert.Empty(t, res.Errors)
}

func TestSQLParser_ValidateMalformed(t *testing.T) {
	p := NewSQLParser()

	res := p.Validate("CREATE TABLE t (id INT")
	assert.False(t, res.IsValid)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "unbalanced parentheses")
}

func TestSQLParser_LoadSchema(t *testing.T) {
	content := `
		CREATE TABLE users (
			id INT PRIMARY KEY,
			name VARCHAR(255),
			email VARCHAR(255)
		);
	`
	path := filepath.Join(t.TempDir(), "schema.sql")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	p := NewSQLParser()
	schema, err := p.LoadSchema(path)
	require.NoError(t, err)
	require.Len(t, schema.Tables, 1)
	assert.Len(t, schema.Tables[0].Columns, 3)

	_, err = p.LoadSchema(filepath.Join(t.TempDir(), "missing.sql"))
	assert.Error(t, err)
}
