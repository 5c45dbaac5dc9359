// Package table implements HeapTable, the row-oriented relation built on top of a
// heap file: insert, scan, project, and delete over typed rows whose byte encoding
// is delegated to internal/types.
package table

import (
	"fmt"

	"github.com/cabewaldrop/claude-db/internal/errs"
	"github.com/cabewaldrop/claude-db/internal/storage"
	"github.com/cabewaldrop/claude-db/internal/types"
)

// HeapTable is a relation: a fixed Schema plus the heap file holding its rows.
// Handles returned by Insert/Select remain valid across inserts and deletes of
// other rows -- deletion tombstones a slot rather than renumbering it.
type HeapTable struct {
	name   string
	schema types.Schema
	file   *storage.HeapFile
}

// CreateHeapTable creates a brand-new, empty table on disk.
func CreateHeapTable(dir, name string, schema types.Schema) (*HeapTable, error) {
	file, err := storage.CreateHeapFile(dir, name)
	if err != nil {
		return nil, err
	}
	return &HeapTable{name: name, schema: schema, file: file}, nil
}

// OpenHeapTable reopens a table whose schema has already been recovered from the
// catalog.
func OpenHeapTable(dir, name string, schema types.Schema) (*HeapTable, error) {
	file, err := storage.OpenHeapFile(dir, name)
	if err != nil {
		return nil, err
	}
	return &HeapTable{name: name, schema: schema, file: file}, nil
}

// DropHeapTable deletes a table's underlying storage.
func DropHeapTable(dir, name string) error {
	return storage.DropHeapFile(dir, name)
}

// Close releases the table's underlying heap file.
func (t *HeapTable) Close() error {
	return t.file.Close()
}

// Schema returns the table's column list.
func (t *HeapTable) Schema() types.Schema {
	return t.schema
}

// Name returns the table's name.
func (t *HeapTable) Name() string {
	return t.name
}

// Insert validates row against the schema, marshals it, and appends it to the last
// block of the heap file. If the last block has no room, a fresh block is allocated
// and the insert retried there -- a block is never split or compacted to make room.
func (t *HeapTable) Insert(row types.Row) (storage.Handle, error) {
	for _, col := range t.schema.Columns {
		if _, ok := row[col.Name]; !ok {
			return storage.Handle{}, errs.SchemaViolation("missing value for column %q of table %q", col.Name, t.name)
		}
	}
	data, err := types.MarshalRow(t.schema, row)
	if err != nil {
		return storage.Handle{}, err
	}

	block := t.file.Last()
	page, err := t.file.Get(block)
	if err != nil {
		return storage.Handle{}, err
	}
	recordID, err := page.Add(data)
	if errs.IsNoRoom(err) {
		page, err = t.file.GetNew()
		if err != nil {
			return storage.Handle{}, err
		}
		block = page.ID()
		recordID, err = page.Add(data)
		if err != nil {
			return storage.Handle{}, fmt.Errorf("insert into %q: %w", t.name, err)
		}
	} else if err != nil {
		return storage.Handle{}, fmt.Errorf("insert into %q: %w", t.name, err)
	}
	if err := t.file.Put(page); err != nil {
		return storage.Handle{}, err
	}
	return storage.Handle{Block: block, Record: recordID}, nil
}

// Select returns the handles of every live row in block, then record id order.
func (t *HeapTable) Select() ([]storage.Handle, error) {
	return t.SelectWhere(nil)
}

// SelectWhere returns the handles of every live row matching where, an equality
// conjunction over zero or more columns. A nil or empty where matches every row.
func (t *HeapTable) SelectWhere(where types.Row) ([]storage.Handle, error) {
	var handles []storage.Handle
	for _, block := range t.file.BlockIDs() {
		page, err := t.file.Get(block)
		if err != nil {
			return nil, err
		}
		for _, recordID := range page.IDs() {
			if len(where) == 0 {
				handles = append(handles, storage.Handle{Block: block, Record: recordID})
				continue
			}
			data, ok := page.Get(recordID)
			if !ok {
				continue
			}
			row, err := types.UnmarshalRow(t.schema, data)
			if err != nil {
				return nil, err
			}
			if where.MatchedBy(row) {
				handles = append(handles, storage.Handle{Block: block, Record: recordID})
			}
		}
	}
	return handles, nil
}

// SelectAmong filters an already-computed handle list by where, without rescanning
// the heap file -- the building block a nested Select plan node uses over a relation
// other than a bare TableScan.
func (t *HeapTable) SelectAmong(handles []storage.Handle, where types.Row) ([]storage.Handle, error) {
	if len(where) == 0 {
		return handles, nil
	}
	var matched []storage.Handle
	for _, handle := range handles {
		row, err := t.Project(handle, nil)
		if err != nil {
			return nil, err
		}
		if where.MatchedBy(row) {
			matched = append(matched, handle)
		}
	}
	return matched, nil
}

// Project reads the row at handle and returns the requested columns. An empty
// columnNames list returns every column; an unknown column name is NoSuchColumn.
func (t *HeapTable) Project(handle storage.Handle, columnNames []string) (types.Row, error) {
	page, err := t.file.Get(handle.Block)
	if err != nil {
		return nil, err
	}
	data, ok := page.Get(handle.Record)
	if !ok {
		return nil, errs.Corruption("handle %+v refers to a deleted or nonexistent record", handle)
	}
	row, err := types.UnmarshalRow(t.schema, data)
	if err != nil {
		return nil, err
	}
	if len(columnNames) == 0 {
		return row, nil
	}
	projected := make(types.Row, len(columnNames))
	for _, name := range columnNames {
		val, ok := row[name]
		if !ok {
			return nil, errs.NoSuchColumn("table %q has no column %q", t.name, name)
		}
		projected[name] = val
	}
	return projected, nil
}

// Delete tombstones the record at handle. The record id is never reused; any index
// entry pointing at this handle now dangles and must be removed by the caller.
func (t *HeapTable) Delete(handle storage.Handle) error {
	page, err := t.file.Get(handle.Block)
	if err != nil {
		return err
	}
	page.Delete(handle.Record)
	return t.file.Put(page)
}

// Update is not implemented: only insert, select, project, and delete are supported
// over heap-stored rows.
func (t *HeapTable) Update(storage.Handle, types.Row) error {
	return errs.NotImplemented("HeapTable.Update")
}
