// Package types implements the engine's typed value model: the tagged Value scalar,
// rows, column/schema descriptions, and the key profiles the B+Tree index uses. It sits
// below both internal/storage and internal/table so neither has to import the other
// just to share these shapes.
package types

import (
	"fmt"

	"github.com/cabewaldrop/claude-db/internal/errs"
)

// DataType tags a Value's payload. The engine only understands these three: anything
// else fails at construction time with an UnsupportedType error.
type DataType int

const (
	TypeUnknown DataType = iota
	TypeInt
	TypeText
	TypeBoolean
)

func (d DataType) String() string {
	switch d {
	case TypeInt:
		return "INT"
	case TypeText:
		return "TEXT"
	case TypeBoolean:
		return "BOOLEAN"
	default:
		return "UNKNOWN"
	}
}

// ParseDataType converts a SQL type name to a DataType, failing for anything outside
// {INT, TEXT, BOOLEAN}.
func ParseDataType(name string) (DataType, error) {
	switch name {
	case "INT", "INTEGER":
		return TypeInt, nil
	case "TEXT", "VARCHAR", "STRING":
		return TypeText, nil
	case "BOOL", "BOOLEAN":
		return TypeBoolean, nil
	default:
		return TypeUnknown, errs.UnsupportedType("data type %q is outside {INT, TEXT, BOOLEAN}", name)
	}
}

// Value is a tagged scalar: exactly one of Int/Text/Bool is meaningful, chosen by Type.
// Equality requires both the tag and the payload to match; ordering is only defined
// between two Values sharing a tag.
type Value struct {
	Type DataType
	Int  int32
	Text string
	Bool bool
}

func NewInt(n int32) Value    { return Value{Type: TypeInt, Int: n} }
func NewText(s string) Value  { return Value{Type: TypeText, Text: s} }
func NewBoolean(b bool) Value { return Value{Type: TypeBoolean, Bool: b} }

// Equal reports same-tag, same-payload equality.
func (v Value) Equal(other Value) bool {
	if v.Type != other.Type {
		return false
	}
	switch v.Type {
	case TypeInt:
		return v.Int == other.Int
	case TypeText:
		return v.Text == other.Text
	case TypeBoolean:
		return v.Bool == other.Bool
	default:
		return false
	}
}

// Less defines an ordering within one tag. Comparing across tags panics -- callers
// (the B+Tree's key comparison) never do this because a KeyProfile fixes each
// position's type.
func (v Value) Less(other Value) bool {
	if v.Type != other.Type {
		panic(fmt.Sprintf("cannot order %s against %s", v.Type, other.Type))
	}
	switch v.Type {
	case TypeInt:
		return v.Int < other.Int
	case TypeText:
		return v.Text < other.Text
	case TypeBoolean:
		return !v.Bool && other.Bool
	default:
		return false
	}
}

func (v Value) String() string {
	switch v.Type {
	case TypeInt:
		return fmt.Sprintf("%d", v.Int)
	case TypeText:
		return v.Text
	case TypeBoolean:
		return fmt.Sprintf("%t", v.Bool)
	default:
		return "?"
	}
}

// Row is a mapping from column name to Value. The column set is fixed by the
// relation's schema; keys are unique by construction (it's a map).
type Row map[string]Value

// MatchedBy reports whether got agrees with want on every column want specifies --
// the equality-conjunction filter HeapTable.SelectWhere applies to a WHERE clause.
func (want Row) MatchedBy(got Row) bool {
	for col, wantVal := range want {
		gotVal, ok := got[col]
		if !ok || !gotVal.Equal(wantVal) {
			return false
		}
	}
	return true
}

// Column is one column definition: name plus data type, positionally ordered within
// a Schema.
type Column struct {
	Name string
	Type DataType
}

// Schema is a relation's fixed, ordered column list.
type Schema struct {
	Columns []Column
}

// NewSchema builds a Schema from a column list.
func NewSchema(columns []Column) Schema {
	return Schema{Columns: columns}
}

// ColumnNames returns the schema's column names in declaration order.
func (s Schema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// ColumnAttributes returns the schema's data types in declaration order, positionally
// aligned with ColumnNames.
func (s Schema) ColumnAttributes() []DataType {
	types := make([]DataType, len(s.Columns))
	for i, c := range s.Columns {
		types[i] = c.Type
	}
	return types
}

// Type looks up a column's data type by name.
func (s Schema) Type(name string) (DataType, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c.Type, true
		}
	}
	return TypeUnknown, false
}

// Has reports whether the schema declares a column with the given name.
func (s Schema) Has(name string) bool {
	_, ok := s.Type(name)
	return ok
}

// KeyProfile is an ordered list of data-type tags describing a composite index key,
// derived by matching the index's key column names against the relation's schema.
type KeyProfile []DataType

// KeyValue is an ordered sequence of Values following a KeyProfile.
type KeyValue []Value

// BuildKeyProfile derives a KeyProfile for keyColumns against schema, failing with
// NoSuchColumn if a key column isn't part of the relation.
func BuildKeyProfile(schema Schema, keyColumns []string) (KeyProfile, error) {
	profile := make(KeyProfile, len(keyColumns))
	for i, name := range keyColumns {
		t, ok := schema.Type(name)
		if !ok {
			return nil, errs.NoSuchColumn("index key column %q is not in the relation", name)
		}
		profile[i] = t
	}
	return profile, nil
}

// ProjectKey extracts the KeyValue for keyColumns out of a row.
func ProjectKey(row Row, keyColumns []string) KeyValue {
	key := make(KeyValue, len(keyColumns))
	for i, name := range keyColumns {
		key[i] = row[name]
	}
	return key
}
