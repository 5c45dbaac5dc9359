// Package catalog owns the three permanent schema relations -- _tables, _columns,
// and _indices -- and the lazy, process-wide Database handle that lets the executor
// materialize a HeapTable or Index by name instead of carrying schema state itself.
package catalog

import (
	"os"
	"sort"

	"github.com/rs/zerolog"

	"github.com/cabewaldrop/claude-db/internal/errs"
	"github.com/cabewaldrop/claude-db/internal/table"
	"github.com/cabewaldrop/claude-db/internal/types"
)

const (
	tablesName  = "_tables"
	columnsName = "_columns"
	indicesName = "_indices"
)

func tablesSchema() types.Schema {
	return types.NewSchema([]types.Column{
		{Name: "table_name", Type: types.TypeText},
	})
}

func columnsSchema() types.Schema {
	return types.NewSchema([]types.Column{
		{Name: "table_name", Type: types.TypeText},
		{Name: "column_name", Type: types.TypeText},
		{Name: "data_type", Type: types.TypeText},
	})
}

func indicesSchema() types.Schema {
	return types.NewSchema([]types.Column{
		{Name: "table_name", Type: types.TypeText},
		{Name: "index_name", Type: types.TypeText},
		{Name: "column_name", Type: types.TypeText},
		{Name: "seq_in_index", Type: types.TypeInt},
		{Name: "index_type", Type: types.TypeText},
		{Name: "is_unique", Type: types.TypeBoolean},
	})
}

func isSchemaTable(name string) bool {
	return name == tablesName || name == columnsName || name == indicesName
}

// IndexInfo describes one catalog-recorded index, as SHOW INDEX reports it.
type IndexInfo struct {
	Name      string
	Table     string
	Columns   []string
	IndexType string
	Unique    bool
}

// Database owns the three schema relations and every table/index handle opened
// through it. It is meant to be instantiated once per process and reused across
// every statement the executor runs; the schema relations are bootstrapped on first
// use and never reinitialized for the life of the Database.
type Database struct {
	dir     string
	tables  *table.HeapTable
	columns *table.HeapTable
	indices *table.HeapTable
	log     zerolog.Logger
}

// NewDatabase returns a Database rooted at dir. The schema relations are not opened
// yet -- that happens lazily, the first time any catalog operation runs. An optional
// logger may be passed in; with none given it defaults to a console writer on
// stderr, matching the teacher's plain-stdout REPL texture.
func NewDatabase(dir string, logger ...zerolog.Logger) *Database {
	db := &Database{dir: dir}
	if len(logger) > 0 {
		db.log = logger[0]
	} else {
		db.log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return db
}

// ensureOpen bootstraps or reopens the three schema relations exactly once. Every
// catalog operation calls this first.
func (db *Database) ensureOpen() error {
	if db.tables != nil {
		return nil
	}
	tables, err := openOrCreate(db.dir, tablesName, tablesSchema())
	if err != nil {
		return err
	}
	columns, err := openOrCreate(db.dir, columnsName, columnsSchema())
	if err != nil {
		tables.Close()
		return err
	}
	indices, err := openOrCreate(db.dir, indicesName, indicesSchema())
	if err != nil {
		columns.Close()
		tables.Close()
		return err
	}
	db.tables, db.columns, db.indices = tables, columns, indices
	return nil
}

func openOrCreate(dir, name string, schema types.Schema) (*table.HeapTable, error) {
	if t, err := table.OpenHeapTable(dir, name, schema); err == nil {
		return t, nil
	}
	return table.CreateHeapTable(dir, name, schema)
}

// Close releases the three schema relations, in the reverse order they were opened
// in: indices, then columns, then tables.
func (db *Database) Close() error {
	if db.tables == nil {
		return nil
	}
	errIndices := db.indices.Close()
	errColumns := db.columns.Close()
	errTables := db.tables.Close()
	db.tables, db.columns, db.indices = nil, nil, nil
	if errIndices != nil {
		return errIndices
	}
	if errColumns != nil {
		return errColumns
	}
	return errTables
}

func (db *Database) tableExists(name string) (bool, error) {
	handles, err := db.tables.SelectWhere(types.Row{"table_name": types.NewText(name)})
	if err != nil {
		return false, err
	}
	return len(handles) > 0, nil
}

// TableExists reports whether name is already a registered table, for the executor's
// CREATE TABLE IF NOT EXISTS handling.
func (db *Database) TableExists(name string) (bool, error) {
	if err := db.ensureOpen(); err != nil {
		return false, err
	}
	return db.tableExists(name)
}

// GetTable materializes a HeapTable by reconstructing its schema from _columns. The
// caller owns the returned handle and must Close it.
func (db *Database) GetTable(name string) (*table.HeapTable, error) {
	if err := db.ensureOpen(); err != nil {
		return nil, err
	}
	schema, err := db.schemaOf(name)
	if err != nil {
		return nil, err
	}
	return table.OpenHeapTable(db.dir, name, schema)
}

// schemaOf reconstructs a table's Schema from its _columns rows, in the order they
// were inserted.
func (db *Database) schemaOf(name string) (types.Schema, error) {
	handles, err := db.columns.SelectWhere(types.Row{"table_name": types.NewText(name)})
	if err != nil {
		return types.Schema{}, err
	}
	if len(handles) == 0 {
		ok, err := db.tableExists(name)
		if err != nil {
			return types.Schema{}, err
		}
		if !ok {
			return types.Schema{}, errs.NoSuchTable("table %q does not exist", name)
		}
		return types.Schema{}, errs.Corruption("table %q has no columns recorded in the catalog", name)
	}
	columns := make([]types.Column, len(handles))
	for i, h := range handles {
		row, err := db.columns.Project(h, nil)
		if err != nil {
			return types.Schema{}, err
		}
		dataType, err := types.ParseDataType(row["data_type"].Text)
		if err != nil {
			return types.Schema{}, err
		}
		columns[i] = types.Column{Name: row["column_name"].Text, Type: dataType}
	}
	return types.NewSchema(columns), nil
}

// CreateTable registers a brand-new table in the catalog and creates its heap file.
// If creating the heap file fails after catalog rows were already inserted,
// CreateTable removes them again on a best-effort basis before returning the
// original error.
func (db *Database) CreateTable(name string, columns []types.Column) error {
	if err := db.ensureOpen(); err != nil {
		return err
	}
	if isSchemaTable(name) {
		return errs.SchemaViolation("%q is a catalog table and cannot be created", name)
	}
	exists, err := db.tableExists(name)
	if err != nil {
		return err
	}
	if exists {
		return errs.SchemaViolation("table %q already exists", name)
	}

	tableHandle, err := db.tables.Insert(types.Row{"table_name": types.NewText(name)})
	if err != nil {
		return err
	}
	for _, col := range columns {
		if _, err := db.columns.Insert(types.Row{
			"table_name":  types.NewText(name),
			"column_name": types.NewText(col.Name),
			"data_type":   types.NewText(col.Type.String()),
		}); err != nil {
			db.rollbackColumns(name)
			db.tables.Delete(tableHandle)
			return err
		}
	}

	tbl, err := table.CreateHeapTable(db.dir, name, types.NewSchema(columns))
	if err != nil {
		db.rollbackColumns(name)
		db.tables.Delete(tableHandle)
		return err
	}
	if err := tbl.Close(); err != nil {
		db.rollbackColumns(name)
		db.tables.Delete(tableHandle)
		return err
	}
	db.log.Info().Str("table", name).Int("columns", len(columns)).Msg("created table")
	return nil
}

// rollbackColumns removes whatever _columns rows CreateTable managed to insert before
// failing, swallowing secondary errors -- this only ever runs on an already-failing
// path, so there is no better error to surface than the original one.
func (db *Database) rollbackColumns(name string) {
	handles, err := db.columns.SelectWhere(types.Row{"table_name": types.NewText(name)})
	if err != nil {
		return
	}
	for _, h := range handles {
		db.columns.Delete(h)
	}
}

// DropTable removes a table and everything that depends on it: its indices (catalog
// rows and underlying files), its _columns rows, its heap file, and finally its
// _tables row. Schema tables may not be dropped.
func (db *Database) DropTable(name string) error {
	if err := db.ensureOpen(); err != nil {
		return err
	}
	if isSchemaTable(name) {
		return errs.SchemaViolation("%q is a catalog table and cannot be dropped", name)
	}
	exists, err := db.tableExists(name)
	if err != nil {
		return err
	}
	if !exists {
		return errs.NoSuchTable("table %q does not exist", name)
	}

	indexNames, err := db.indexNamesForTable(name)
	if err != nil {
		return err
	}
	for _, indexName := range indexNames {
		if err := db.DropIndex(name, indexName); err != nil {
			return err
		}
	}

	columnHandles, err := db.columns.SelectWhere(types.Row{"table_name": types.NewText(name)})
	if err != nil {
		return err
	}
	for _, h := range columnHandles {
		if err := db.columns.Delete(h); err != nil {
			return err
		}
	}

	if err := table.DropHeapTable(db.dir, name); err != nil {
		return err
	}

	tableHandles, err := db.tables.SelectWhere(types.Row{"table_name": types.NewText(name)})
	if err != nil {
		return err
	}
	for _, h := range tableHandles {
		if err := db.tables.Delete(h); err != nil {
			return err
		}
	}
	db.log.Info().Str("table", name).Msg("dropped table")
	return nil
}

func (db *Database) indexNamesForTable(tableName string) ([]string, error) {
	handles, err := db.indices.SelectWhere(types.Row{"table_name": types.NewText(tableName)})
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var names []string
	for _, h := range handles {
		row, err := db.indices.Project(h, []string{"index_name"})
		if err != nil {
			return nil, err
		}
		name := row["index_name"].Text
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names, nil
}

// CreateIndex records one _indices row per column, numbered from 1 in the given
// column order, and -- for a BTREE index, the only functional index type -- builds
// the backing B+Tree over table's existing rows via a full scan and bulk insert. A
// HASH index is recorded in the catalog but has no backing structure -- only BTREE is
// functional, so it registers successfully and shows up in SHOW INDEX, but GetIndex
// refuses to open it.
func (db *Database) CreateIndex(tableName, indexName string, columns []string, indexType string) error {
	if err := db.ensureOpen(); err != nil {
		return err
	}
	existing, err := db.indexExists(tableName, indexName)
	if err != nil {
		return err
	}
	if existing {
		return errs.SchemaViolation("index %q already exists on table %q", indexName, tableName)
	}

	schema, err := db.schemaOf(tableName)
	if err != nil {
		return err
	}
	for _, col := range columns {
		if !schema.Has(col) {
			return errs.NoSuchColumn("table %q has no column %q", tableName, col)
		}
	}

	unique := indexType == "BTREE"
	if unique {
		heapTable, err := table.OpenHeapTable(db.dir, tableName, schema)
		if err != nil {
			return err
		}
		defer heapTable.Close()

		idx, err := table.CreateIndex(db.dir, indexName, heapTable, columns)
		if err != nil {
			return err
		}
		defer idx.Close()
	}

	for i, col := range columns {
		if _, err := db.indices.Insert(types.Row{
			"table_name":   types.NewText(tableName),
			"index_name":   types.NewText(indexName),
			"column_name":  types.NewText(col),
			"seq_in_index": types.NewInt(int32(i + 1)),
			"index_type":   types.NewText(indexType),
			"is_unique":    types.NewBoolean(unique),
		}); err != nil {
			return err
		}
	}
	db.log.Info().Str("table", tableName).Str("index", indexName).Str("type", indexType).Msg("created index")
	return nil
}

func (db *Database) indexExists(tableName, indexName string) (bool, error) {
	handles, err := db.indices.SelectWhere(types.Row{
		"table_name": types.NewText(tableName),
		"index_name": types.NewText(indexName),
	})
	if err != nil {
		return false, err
	}
	return len(handles) > 0, nil
}

// GetIndex reconstructs a BTreeIndex from its _indices rows. The caller owns the
// returned handle and must Close it.
func (db *Database) GetIndex(tableName, indexName string) (*table.Index, error) {
	if err := db.ensureOpen(); err != nil {
		return nil, err
	}
	info, err := db.indexInfo(tableName, indexName)
	if err != nil {
		return nil, err
	}
	if info.IndexType != "BTREE" {
		return nil, errs.NotImplemented("index %q on table %q is a %s index, and only BTREE is functional", indexName, tableName, info.IndexType)
	}
	schema, err := db.schemaOf(tableName)
	if err != nil {
		return nil, err
	}
	profile, err := types.BuildKeyProfile(schema, info.Columns)
	if err != nil {
		return nil, err
	}
	return table.OpenIndex(db.dir, indexName, tableName, info.Columns, profile)
}

func (db *Database) indexInfo(tableName, indexName string) (IndexInfo, error) {
	handles, err := db.indices.SelectWhere(types.Row{
		"table_name": types.NewText(tableName),
		"index_name": types.NewText(indexName),
	})
	if err != nil {
		return IndexInfo{}, err
	}
	if len(handles) == 0 {
		return IndexInfo{}, errs.NoSuchIndex("index %q on table %q does not exist", indexName, tableName)
	}
	type seqCol struct {
		seq int32
		col string
	}
	var seqCols []seqCol
	var indexType string
	var unique bool
	for _, h := range handles {
		row, err := db.indices.Project(h, nil)
		if err != nil {
			return IndexInfo{}, err
		}
		seqCols = append(seqCols, seqCol{seq: row["seq_in_index"].Int, col: row["column_name"].Text})
		indexType = row["index_type"].Text
		unique = row["is_unique"].Bool
	}
	sort.Slice(seqCols, func(i, j int) bool { return seqCols[i].seq < seqCols[j].seq })
	columns := make([]string, len(seqCols))
	for i, sc := range seqCols {
		columns[i] = sc.col
	}
	return IndexInfo{Name: indexName, Table: tableName, Columns: columns, IndexType: indexType, Unique: unique}, nil
}

// DropIndex deletes an index's underlying B+Tree file and its _indices rows.
func (db *Database) DropIndex(tableName, indexName string) error {
	if err := db.ensureOpen(); err != nil {
		return err
	}
	exists, err := db.indexExists(tableName, indexName)
	if err != nil {
		return err
	}
	if !exists {
		return errs.NoSuchIndex("index %q on table %q does not exist", indexName, tableName)
	}
	if err := table.DropIndex(db.dir, indexName, tableName); err != nil {
		return err
	}
	handles, err := db.indices.SelectWhere(types.Row{
		"table_name": types.NewText(tableName),
		"index_name": types.NewText(indexName),
	})
	if err != nil {
		return err
	}
	for _, h := range handles {
		if err := db.indices.Delete(h); err != nil {
			return err
		}
	}
	db.log.Info().Str("table", tableName).Str("index", indexName).Msg("dropped index")
	return nil
}

// ShowTables lists every user-created table, hiding the catalog's own schema relations.
func (db *Database) ShowTables() ([]string, error) {
	if err := db.ensureOpen(); err != nil {
		return nil, err
	}
	handles, err := db.tables.Select()
	if err != nil {
		return nil, err
	}
	var names []string
	for _, h := range handles {
		row, err := db.tables.Project(h, []string{"table_name"})
		if err != nil {
			return nil, err
		}
		name := row["table_name"].Text
		if !isSchemaTable(name) {
			names = append(names, name)
		}
	}
	return names, nil
}

// ShowColumns lists a table's columns in declaration order.
func (db *Database) ShowColumns(tableName string) ([]types.Column, error) {
	if err := db.ensureOpen(); err != nil {
		return nil, err
	}
	schema, err := db.schemaOf(tableName)
	if err != nil {
		return nil, err
	}
	return schema.Columns, nil
}

// ShowIndex lists every index recorded against tableName.
func (db *Database) ShowIndex(tableName string) ([]IndexInfo, error) {
	if err := db.ensureOpen(); err != nil {
		return nil, err
	}
	names, err := db.indexNamesForTable(tableName)
	if err != nil {
		return nil, err
	}
	infos := make([]IndexInfo, len(names))
	for i, name := range names {
		info, err := db.indexInfo(tableName, name)
		if err != nil {
			return nil, err
		}
		infos[i] = info
	}
	return infos, nil
}
