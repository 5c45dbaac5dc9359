// Package executor implements the SQL query executor.
//
// EDUCATIONAL NOTES:
// ------------------
// The executor is the component that actually runs SQL queries.
// It takes an AST (Abstract Syntax Tree) from the parser and:
// 1. Validates the query (table exists, columns exist, etc.)
// 2. Builds an evaluation plan out of table scan/select/project nodes
// 3. Evaluates the plan and returns results
//
// Statements that mutate the catalog (CREATE/DROP TABLE/INDEX, SHOW) go straight to
// internal/catalog; SELECT goes through internal/plan so WHERE pushdown happens the
// same way whether the relation is a bare table scan or a nested filter.

package executor

import (
	"fmt"
	"strings"

	"github.com/cabewaldrop/claude-db/internal/catalog"
	"github.com/cabewaldrop/claude-db/internal/errs"
	"github.com/cabewaldrop/claude-db/internal/plan"
	"github.com/cabewaldrop/claude-db/internal/sql/parser"
	"github.com/cabewaldrop/claude-db/internal/storage"
	"github.com/cabewaldrop/claude-db/internal/table"
	"github.com/cabewaldrop/claude-db/internal/types"
)

// Result carries what a statement produced: the projected column names and
// attributes for a SELECT/SHOW, the matching rows, and a human-readable message for
// everything else (CREATE/DROP/INSERT/DELETE).
type Result struct {
	ColumnNames      []string
	ColumnAttributes []types.DataType
	Rows             []types.Row
	Message          string
}

// String formats the result for display: a message alone, or a column-aligned table
// followed by a row count.
func (r *Result) String() string {
	if len(r.ColumnNames) == 0 {
		return r.Message
	}
	if len(r.Rows) == 0 {
		return "(no rows)"
	}

	var sb strings.Builder

	widths := make([]int, len(r.ColumnNames))
	for i, col := range r.ColumnNames {
		widths[i] = len(col)
	}
	cellText := make([][]string, len(r.Rows))
	for ri, row := range r.Rows {
		cellText[ri] = make([]string, len(r.ColumnNames))
		for ci, col := range r.ColumnNames {
			text := row[col].String()
			cellText[ri][ci] = text
			if len(text) > widths[ci] {
				widths[ci] = len(text)
			}
		}
	}

	writeRule := func() {
		sb.WriteString("+")
		for _, w := range widths {
			sb.WriteString(strings.Repeat("-", w+2))
			sb.WriteString("+")
		}
		sb.WriteString("\n")
	}

	writeRule()
	sb.WriteString("|")
	for i, col := range r.ColumnNames {
		sb.WriteString(fmt.Sprintf(" %-*s |", widths[i], col))
	}
	sb.WriteString("\n")
	writeRule()
	for _, cells := range cellText {
		sb.WriteString("|")
		for i, text := range cells {
			sb.WriteString(fmt.Sprintf(" %-*s |", widths[i], text))
		}
		sb.WriteString("\n")
	}
	writeRule()
	sb.WriteString(fmt.Sprintf("(%d rows)\n", len(r.Rows)))

	return sb.String()
}

// Executor runs parsed statements against a catalog Database.
type Executor struct {
	db *catalog.Database
}

// New creates an Executor over db.
func New(db *catalog.Database) *Executor {
	return &Executor{db: db}
}

// DB returns the catalog Database the executor runs statements against, for callers
// (the web admin UI) that need direct table access alongside SQL execution.
func (e *Executor) DB() *catalog.Database {
	return e.db
}

// Execute runs a single parsed statement and returns its result.
func (e *Executor) Execute(stmt parser.Statement) (*Result, error) {
	switch s := stmt.(type) {
	case *parser.CreateTableStatement:
		return e.executeCreateTable(s)
	case *parser.CreateIndexStatement:
		return e.executeCreateIndex(s)
	case *parser.DropTableStatement:
		return e.executeDropTable(s)
	case *parser.DropIndexStatement:
		return e.executeDropIndex(s)
	case *parser.ShowStatement:
		return e.executeShow(s)
	case *parser.InsertStatement:
		return e.executeInsert(s)
	case *parser.SelectStatement:
		return e.executeSelect(s)
	case *parser.DeleteStatement:
		return e.executeDelete(s)
	default:
		return nil, errs.SQLExec(nil, "unsupported statement type: %T", stmt)
	}
}

func columnType(t parser.ColumnType) types.DataType {
	switch t {
	case parser.ColumnTypeInt:
		return types.TypeInt
	case parser.ColumnTypeText:
		return types.TypeText
	case parser.ColumnTypeBoolean:
		return types.TypeBoolean
	default:
		return types.TypeUnknown
	}
}

func literalValue(lit parser.Literal, want types.DataType) (types.Value, error) {
	switch l := lit.(type) {
	case *parser.IntegerLiteral:
		if want != types.TypeInt {
			return types.Value{}, errs.SchemaViolation("expected %s, got an integer literal", want)
		}
		return types.NewInt(int32(l.Value)), nil
	case *parser.StringLiteral:
		if want != types.TypeText {
			return types.Value{}, errs.SchemaViolation("expected %s, got a string literal", want)
		}
		return types.NewText(l.Value), nil
	case *parser.BooleanLiteral:
		if want != types.TypeBoolean {
			return types.Value{}, errs.SchemaViolation("expected %s, got a boolean literal", want)
		}
		return types.NewBoolean(l.Value), nil
	default:
		return types.Value{}, errs.SQLExec(nil, "unknown literal type %T", lit)
	}
}

// executeCreateTable handles CREATE TABLE name (col type, ...).
func (e *Executor) executeCreateTable(stmt *parser.CreateTableStatement) (*Result, error) {
	columns := make([]types.Column, len(stmt.Columns))
	for i, c := range stmt.Columns {
		columns[i] = types.Column{Name: c.Name, Type: columnType(c.Type)}
	}
	if stmt.IfNotExists {
		exists, err := e.db.TableExists(stmt.Table)
		if err != nil {
			return nil, errs.SQLExec(err, "CREATE TABLE %s failed", stmt.Table)
		}
		if exists {
			return &Result{Message: fmt.Sprintf("table %q already exists", stmt.Table)}, nil
		}
	}
	if err := e.db.CreateTable(stmt.Table, columns); err != nil {
		return nil, errs.SQLExec(err, "CREATE TABLE %s failed", stmt.Table)
	}
	return &Result{Message: fmt.Sprintf("table %q created", stmt.Table)}, nil
}

// executeCreateIndex handles CREATE INDEX name ON table USING {BTREE|HASH} (cols...).
func (e *Executor) executeCreateIndex(stmt *parser.CreateIndexStatement) (*Result, error) {
	indexType := "BTREE"
	if stmt.IndexType == parser.IndexTypeHash {
		indexType = "HASH"
	}
	if err := e.db.CreateIndex(stmt.Table, stmt.IndexName, stmt.Columns, indexType); err != nil {
		return nil, errs.SQLExec(err, "CREATE INDEX %s failed", stmt.IndexName)
	}
	return &Result{Message: fmt.Sprintf("index %q created on table %q", stmt.IndexName, stmt.Table)}, nil
}

// executeDropTable handles DROP TABLE name.
func (e *Executor) executeDropTable(stmt *parser.DropTableStatement) (*Result, error) {
	if err := e.db.DropTable(stmt.Table); err != nil {
		return nil, errs.SQLExec(err, "DROP TABLE %s failed", stmt.Table)
	}
	return &Result{Message: fmt.Sprintf("table %q dropped", stmt.Table)}, nil
}

// executeDropIndex handles DROP INDEX name FROM table.
func (e *Executor) executeDropIndex(stmt *parser.DropIndexStatement) (*Result, error) {
	if err := e.db.DropIndex(stmt.Table, stmt.IndexName); err != nil {
		return nil, errs.SQLExec(err, "DROP INDEX %s failed", stmt.IndexName)
	}
	return &Result{Message: fmt.Sprintf("index %q dropped", stmt.IndexName)}, nil
}

// executeShow handles SHOW TABLES, SHOW COLUMNS FROM table, and SHOW INDEX FROM table.
func (e *Executor) executeShow(stmt *parser.ShowStatement) (*Result, error) {
	switch stmt.Kind {
	case parser.ShowTables:
		names, err := e.db.ShowTables()
		if err != nil {
			return nil, errs.SQLExec(err, "SHOW TABLES failed")
		}
		rows := make([]types.Row, len(names))
		for i, name := range names {
			rows[i] = types.Row{"table_name": types.NewText(name)}
		}
		return &Result{
			ColumnNames:      []string{"table_name"},
			ColumnAttributes: []types.DataType{types.TypeText},
			Rows:             rows,
		}, nil

	case parser.ShowColumns:
		columns, err := e.db.ShowColumns(stmt.Table)
		if err != nil {
			return nil, errs.SQLExec(err, "SHOW COLUMNS FROM %s failed", stmt.Table)
		}
		rows := make([]types.Row, len(columns))
		for i, col := range columns {
			rows[i] = types.Row{
				"column_name": types.NewText(col.Name),
				"data_type":   types.NewText(col.Type.String()),
			}
		}
		return &Result{
			ColumnNames:      []string{"column_name", "data_type"},
			ColumnAttributes: []types.DataType{types.TypeText, types.TypeText},
			Rows:             rows,
		}, nil

	case parser.ShowIndex:
		infos, err := e.db.ShowIndex(stmt.Table)
		if err != nil {
			return nil, errs.SQLExec(err, "SHOW INDEX FROM %s failed", stmt.Table)
		}
		var rows []types.Row
		for _, info := range infos {
			for _, col := range info.Columns {
				rows = append(rows, types.Row{
					"index_name":  types.NewText(info.Name),
					"column_name": types.NewText(col),
					"index_type":  types.NewText(info.IndexType),
					"is_unique":   types.NewBoolean(info.Unique),
				})
			}
		}
		return &Result{
			ColumnNames:      []string{"index_name", "column_name", "index_type", "is_unique"},
			ColumnAttributes: []types.DataType{types.TypeText, types.TypeText, types.TypeText, types.TypeBoolean},
			Rows:             rows,
		}, nil

	default:
		return nil, errs.SQLExec(nil, "unsupported SHOW kind")
	}
}

// executeInsert handles INSERT INTO table (cols...) VALUES (literals...).
func (e *Executor) executeInsert(stmt *parser.InsertStatement) (*Result, error) {
	tbl, err := e.db.GetTable(stmt.Table)
	if err != nil {
		return nil, errs.SQLExec(err, "INSERT INTO %s failed", stmt.Table)
	}
	defer tbl.Close()

	columns := stmt.Columns
	if len(columns) == 0 {
		columns = tbl.Schema().ColumnNames()
	}
	if len(columns) != len(stmt.Values) {
		return nil, errs.SQLExec(nil, "INSERT INTO %s: %d columns but %d values", stmt.Table, len(columns), len(stmt.Values))
	}

	row := make(types.Row, len(columns))
	for i, colName := range columns {
		want, ok := tbl.Schema().Type(colName)
		if !ok {
			return nil, errs.SQLExec(errs.NoSuchColumn("table %q has no column %q", stmt.Table, colName), "INSERT INTO %s failed", stmt.Table)
		}
		val, err := literalValue(stmt.Values[i], want)
		if err != nil {
			return nil, errs.SQLExec(err, "INSERT INTO %s failed", stmt.Table)
		}
		row[colName] = val
	}

	handle, err := tbl.Insert(row)
	if err != nil {
		return nil, errs.SQLExec(err, "INSERT INTO %s failed", stmt.Table)
	}
	if err := e.insertIntoIndexes(stmt.Table, tbl, handle); err != nil {
		return nil, errs.SQLExec(err, "INSERT INTO %s failed", stmt.Table)
	}
	return &Result{Message: fmt.Sprintf("1 row inserted into %q", stmt.Table)}, nil
}

// insertIntoIndexes adds handle to every functional (BTREE) index on table, keeping
// each index in sync with the row just inserted into its owning relation. HASH
// indexes are recorded in the catalog but have no B+Tree behind them, so they are
// skipped rather than treated as a failure.
func (e *Executor) insertIntoIndexes(tableName string, tbl *table.HeapTable, handle storage.Handle) error {
	infos, err := e.db.ShowIndex(tableName)
	if err != nil {
		return err
	}
	for _, info := range infos {
		idx, err := e.db.GetIndex(tableName, info.Name)
		if errs.IsNotImplemented(err) {
			continue
		}
		if err != nil {
			return err
		}
		insertErr := idx.Insert(tbl, handle)
		if closeErr := idx.Close(); insertErr == nil {
			insertErr = closeErr
		}
		if insertErr != nil {
			return insertErr
		}
	}
	return nil
}

// whereRow turns a parsed equality conjunction into the types.Row the storage layer
// matches equality predicates with.
func whereRow(schema types.Schema, where []parser.Equality) (types.Row, error) {
	if len(where) == 0 {
		return nil, nil
	}
	row := make(types.Row, len(where))
	for _, eq := range where {
		want, ok := schema.Type(eq.Column)
		if !ok {
			return nil, errs.NoSuchColumn("no column %q", eq.Column)
		}
		val, err := literalValue(eq.Value, want)
		if err != nil {
			return nil, err
		}
		row[eq.Column] = val
	}
	return row, nil
}

// executeSelect handles SELECT cols|* FROM table [WHERE eq [AND eq]*], building and
// evaluating an internal/plan tree.
func (e *Executor) executeSelect(stmt *parser.SelectStatement) (*Result, error) {
	tbl, err := e.db.GetTable(stmt.Table)
	if err != nil {
		return nil, errs.SQLExec(err, "SELECT FROM %s failed", stmt.Table)
	}
	defer tbl.Close()

	where, err := whereRow(tbl.Schema(), stmt.Where)
	if err != nil {
		return nil, errs.SQLExec(err, "SELECT FROM %s failed", stmt.Table)
	}

	var root *plan.Plan
	relation := plan.NewTableScan(tbl)
	if len(where) > 0 {
		relation = plan.NewSelect(where, relation)
	}
	if len(stmt.Columns) == 0 {
		root = plan.NewProjectAll(relation)
	} else {
		for _, col := range stmt.Columns {
			if !tbl.Schema().Has(col) {
				return nil, errs.SQLExec(errs.NoSuchColumn("table %q has no column %q", stmt.Table, col), "SELECT FROM %s failed", stmt.Table)
			}
		}
		root = plan.NewProject(stmt.Columns, relation)
	}

	rows, err := root.Optimize().Evaluate()
	if err != nil {
		return nil, errs.SQLExec(err, "SELECT FROM %s failed", stmt.Table)
	}

	columnNames := stmt.Columns
	if len(columnNames) == 0 {
		columnNames = tbl.Schema().ColumnNames()
	}
	attributes := make([]types.DataType, len(columnNames))
	for i, col := range columnNames {
		attributes[i], _ = tbl.Schema().Type(col)
	}

	return &Result{ColumnNames: columnNames, ColumnAttributes: attributes, Rows: rows}, nil
}

// executeDelete handles DELETE FROM table [WHERE eq [AND eq]*]. Deletion is not
// implemented: it would need to remove every index entry pointing at the deleted
// rows, and no index tracks its owning table's deletes yet.
func (e *Executor) executeDelete(stmt *parser.DeleteStatement) (*Result, error) {
	return nil, errs.SQLExec(errs.NotImplemented("DELETE"), "DELETE FROM %s failed", stmt.Table)
}
