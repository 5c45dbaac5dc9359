package table

import (
	"github.com/cabewaldrop/claude-db/internal/errs"
	"github.com/cabewaldrop/claude-db/internal/storage"
	"github.com/cabewaldrop/claude-db/internal/types"
)

// Index is a unique B+Tree index over one or more columns of a HeapTable. It owns
// its own heap file (named by the table and index name together) and keeps its
// entries in sync with the relation only at the points its Insert is called (the
// bulk load in CreateIndex and the executor's INSERT path) --
// there is no trigger wiring, so every insert path into the relation must also
// insert into each of its indexes.
type Index struct {
	name       string
	tableName  string
	columns    []string
	btree      *storage.BTree
	keyProfile types.KeyProfile
}

func fileName(tableName, indexName string) string {
	return tableName + "-" + indexName
}

// CreateIndex builds a brand-new index over table's existing rows. Only unique
// indexes are supported; B+Tree has no story for duplicate keys.
func CreateIndex(dir, indexName string, table *HeapTable, columns []string) (*Index, error) {
	profile, err := types.BuildKeyProfile(table.Schema(), columns)
	if err != nil {
		return nil, err
	}
	btree, err := storage.CreateBTree(dir, fileName(table.Name(), indexName), profile)
	if err != nil {
		return nil, err
	}
	idx := &Index{name: indexName, tableName: table.Name(), columns: columns, btree: btree, keyProfile: profile}

	handles, err := table.Select()
	if err != nil {
		return nil, err
	}
	for _, h := range handles {
		if err := idx.insertHandle(table, h); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

// OpenIndex reopens an existing index whose schema-derived key profile is already known.
func OpenIndex(dir, indexName, tableName string, columns []string, profile types.KeyProfile) (*Index, error) {
	btree, err := storage.OpenBTree(dir, fileName(tableName, indexName), profile)
	if err != nil {
		return nil, err
	}
	return &Index{name: indexName, tableName: tableName, columns: columns, btree: btree, keyProfile: profile}, nil
}

// DropIndex deletes an index's underlying storage. The caller is responsible for
// closing it first.
func DropIndex(dir, indexName, tableName string) error {
	return storage.DropBTree(dir, fileName(tableName, indexName))
}

// Close releases the index's underlying heap file.
func (idx *Index) Close() error {
	return idx.btree.Close()
}

// Name returns the index's name.
func (idx *Index) Name() string { return idx.name }

// Columns returns the indexed column names in key order.
func (idx *Index) Columns() []string { return idx.columns }

// Insert adds table's row at handle to the index. The row must already be present
// in the table.
func (idx *Index) Insert(table *HeapTable, handle storage.Handle) error {
	return idx.insertHandle(table, handle)
}

func (idx *Index) insertHandle(table *HeapTable, handle storage.Handle) error {
	row, err := table.Project(handle, idx.columns)
	if err != nil {
		return err
	}
	key := types.ProjectKey(row, idx.columns)
	return idx.btree.Insert(key, handle)
}

// Lookup finds the handle of the row whose indexed columns equal key, an equality
// dictionary keyed by column name.
func (idx *Index) Lookup(key types.Row) (storage.Handle, bool, error) {
	keyValue := types.ProjectKey(key, idx.columns)
	return idx.btree.Lookup(keyValue)
}

// Range is not implemented: the underlying B+Tree does not support range scans.
func (idx *Index) Range(types.Row, types.Row) ([]storage.Handle, error) {
	return nil, errs.NotImplemented("index range scan")
}

// Delete is not implemented: the underlying B+Tree does not support deletion.
func (idx *Index) Delete(types.Row) error {
	return errs.NotImplemented("index delete")
}
