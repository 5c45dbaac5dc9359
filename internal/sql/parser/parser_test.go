package parser

import (
	"testing"

	"github.com/cabewaldrop/claude-db/internal/sql/lexer"
)

func parse(t *testing.T, input string) Statement {
	t.Helper()
	l := lexer.New(input)
	p := New(l)
	stmt, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", input, err)
	}
	return stmt
}

func TestParseSelect(t *testing.T) {
	tests := []struct {
		input      string
		expectCols int
		expectFrom string
	}{
		{"SELECT * FROM users", 0, "users"},
		{"SELECT name FROM users", 1, "users"},
		{"SELECT name, age FROM users", 2, "users"},
		{"SELECT id, name, age FROM people", 3, "people"},
	}

	for _, tt := range tests {
		sel, ok := parse(t, tt.input).(*SelectStatement)
		if !ok {
			t.Errorf("Parse(%q) expected SelectStatement, got different type", tt.input)
			continue
		}

		if len(sel.Columns) != tt.expectCols {
			t.Errorf("Parse(%q) expected %d columns, got %d", tt.input, tt.expectCols, len(sel.Columns))
		}

		if sel.Table != tt.expectFrom {
			t.Errorf("Parse(%q) expected FROM %q, got %q", tt.input, tt.expectFrom, sel.Table)
		}
	}
}

func TestParseSelectWithWhere(t *testing.T) {
	sel, ok := parse(t, "SELECT name FROM users WHERE age = 18").(*SelectStatement)
	if !ok {
		t.Fatal("expected SelectStatement")
	}

	if len(sel.Where) != 1 {
		t.Fatalf("expected 1 WHERE term, got %d", len(sel.Where))
	}
	if sel.Where[0].Column != "age" {
		t.Errorf("expected column age, got %s", sel.Where[0].Column)
	}
	lit, ok := sel.Where[0].Value.(*IntegerLiteral)
	if !ok || lit.Value != 18 {
		t.Errorf("expected integer literal 18, got %#v", sel.Where[0].Value)
	}
}

func TestParseSelectWithAndConjunction(t *testing.T) {
	sel, ok := parse(t, `SELECT yolk, white, shell FROM egg WHERE yolk = "yellow" AND shell = 2`).(*SelectStatement)
	if !ok {
		t.Fatal("expected SelectStatement")
	}

	if len(sel.Where) != 2 {
		t.Fatalf("expected 2 WHERE terms, got %d", len(sel.Where))
	}
	if sel.Where[0].Column != "yolk" || sel.Where[1].Column != "shell" {
		t.Errorf("unexpected WHERE columns: %+v", sel.Where)
	}
}

func TestParseInsert(t *testing.T) {
	ins, ok := parse(t, "INSERT INTO users (name, age) VALUES ('Alice', 30)").(*InsertStatement)
	if !ok {
		t.Fatal("expected InsertStatement")
	}

	if ins.Table != "users" {
		t.Errorf("expected table users, got %s", ins.Table)
	}
	if len(ins.Columns) != 2 {
		t.Errorf("expected 2 columns, got %d", len(ins.Columns))
	}
	if len(ins.Values) != 2 {
		t.Errorf("expected 2 values, got %d", len(ins.Values))
	}

	strVal, ok := ins.Values[0].(*StringLiteral)
	if !ok {
		t.Errorf("expected StringLiteral, got %T", ins.Values[0])
	} else if strVal.Value != "Alice" {
		t.Errorf("expected 'Alice', got %q", strVal.Value)
	}

	intVal, ok := ins.Values[1].(*IntegerLiteral)
	if !ok {
		t.Errorf("expected IntegerLiteral, got %T", ins.Values[1])
	} else if intVal.Value != 30 {
		t.Errorf("expected 30, got %d", intVal.Value)
	}
}

func TestParseInsertWithoutColumnList(t *testing.T) {
	ins, ok := parse(t, "INSERT INTO egg VALUES ('yellow', 1, 2)").(*InsertStatement)
	if !ok {
		t.Fatal("expected InsertStatement")
	}
	if ins.Columns != nil {
		t.Errorf("expected no explicit column list, got %v", ins.Columns)
	}
	if len(ins.Values) != 3 {
		t.Errorf("expected 3 values, got %d", len(ins.Values))
	}
}

func TestParseCreateTable(t *testing.T) {
	create, ok := parse(t, "CREATE TABLE users (id INT, name TEXT, active BOOLEAN)").(*CreateTableStatement)
	if !ok {
		t.Fatal("expected CreateTableStatement")
	}

	if create.Table != "users" {
		t.Errorf("expected table users, got %s", create.Table)
	}
	if create.IfNotExists {
		t.Error("did not expect IfNotExists")
	}
	if len(create.Columns) != 3 {
		t.Fatalf("expected 3 columns, got %d", len(create.Columns))
	}

	wantTypes := []ColumnType{ColumnTypeInt, ColumnTypeText, ColumnTypeBoolean}
	for i, col := range create.Columns {
		if col.Type != wantTypes[i] {
			t.Errorf("column %d: expected type %v, got %v", i, wantTypes[i], col.Type)
		}
	}
	if create.Columns[0].Name != "id" {
		t.Errorf("expected column id, got %s", create.Columns[0].Name)
	}
}

func TestParseCreateTableIfNotExists(t *testing.T) {
	create, ok := parse(t, "CREATE TABLE IF NOT EXISTS users (id INT)").(*CreateTableStatement)
	if !ok {
		t.Fatal("expected CreateTableStatement")
	}
	if !create.IfNotExists {
		t.Error("expected IfNotExists to be set")
	}
	if create.Table != "users" {
		t.Errorf("expected table users, got %s", create.Table)
	}
}

func TestParseCreateIndex(t *testing.T) {
	create, ok := parse(t, "CREATE INDEX chicken ON egg USING BTREE (yolk, shell)").(*CreateIndexStatement)
	if !ok {
		t.Fatal("expected CreateIndexStatement")
	}

	if create.IndexName != "chicken" {
		t.Errorf("expected index chicken, got %s", create.IndexName)
	}
	if create.Table != "egg" {
		t.Errorf("expected table egg, got %s", create.Table)
	}
	if create.IndexType != IndexTypeBTree {
		t.Errorf("expected BTREE index, got %v", create.IndexType)
	}
	if len(create.Columns) != 2 || create.Columns[0] != "yolk" || create.Columns[1] != "shell" {
		t.Errorf("unexpected columns: %v", create.Columns)
	}
}

func TestParseCreateIndexHash(t *testing.T) {
	create, ok := parse(t, "CREATE INDEX chicken ON egg USING HASH (yolk)").(*CreateIndexStatement)
	if !ok {
		t.Fatal("expected CreateIndexStatement")
	}
	if create.IndexType != IndexTypeHash {
		t.Errorf("expected HASH index, got %v", create.IndexType)
	}
}

func TestParseDelete(t *testing.T) {
	del, ok := parse(t, "DELETE FROM users WHERE age = 18").(*DeleteStatement)
	if !ok {
		t.Fatal("expected DeleteStatement")
	}

	if del.Table != "users" {
		t.Errorf("expected table users, got %s", del.Table)
	}
	if len(del.Where) != 1 {
		t.Error("expected a WHERE clause")
	}
}

func TestParseDropTable(t *testing.T) {
	drop, ok := parse(t, "DROP TABLE users").(*DropTableStatement)
	if !ok {
		t.Fatal("expected DropTableStatement")
	}
	if drop.Table != "users" {
		t.Errorf("expected table users, got %s", drop.Table)
	}
}

func TestParseDropIndex(t *testing.T) {
	drop, ok := parse(t, "DROP INDEX chicken FROM egg").(*DropIndexStatement)
	if !ok {
		t.Fatal("expected DropIndexStatement")
	}
	if drop.IndexName != "chicken" {
		t.Errorf("expected index chicken, got %s", drop.IndexName)
	}
	if drop.Table != "egg" {
		t.Errorf("expected table egg, got %s", drop.Table)
	}
}

func TestParseShowTables(t *testing.T) {
	show, ok := parse(t, "SHOW TABLES").(*ShowStatement)
	if !ok {
		t.Fatal("expected ShowStatement")
	}
	if show.Kind != ShowTables {
		t.Errorf("expected ShowTables, got %v", show.Kind)
	}
}

func TestParseShowColumns(t *testing.T) {
	show, ok := parse(t, "SHOW COLUMNS FROM egg").(*ShowStatement)
	if !ok {
		t.Fatal("expected ShowStatement")
	}
	if show.Kind != ShowColumns {
		t.Errorf("expected ShowColumns, got %v", show.Kind)
	}
	if show.Table != "egg" {
		t.Errorf("expected table egg, got %s", show.Table)
	}
}

func TestParseShowIndex(t *testing.T) {
	show, ok := parse(t, "SHOW INDEX FROM egg").(*ShowStatement)
	if !ok {
		t.Fatal("expected ShowStatement")
	}
	if show.Kind != ShowIndex {
		t.Errorf("expected ShowIndex, got %v", show.Kind)
	}
	if show.Table != "egg" {
		t.Errorf("expected table egg, got %s", show.Table)
	}
}

func TestParseErrorOnGarbage(t *testing.T) {
	l := lexer.New("CREATE BANANA users")
	p := New(l)
	if _, err := p.Parse(); err == nil {
		t.Fatal("expected a parse error")
	}
}
