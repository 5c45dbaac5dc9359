package types

import (
	"encoding/binary"

	"github.com/cabewaldrop/claude-db/internal/errs"
)

// MarshalRow encodes row in schema's column order: INT as 4 little-endian bytes,
// TEXT as a u16 length followed by the raw (7-bit ASCII) bytes, BOOLEAN as one byte.
// All three value kinds marshal uniformly, matching the key codec below.
func MarshalRow(schema Schema, row Row) ([]byte, error) {
	buf := make([]byte, 0, 64)
	for _, col := range schema.Columns {
		val, ok := row[col.Name]
		if !ok {
			return nil, errs.SchemaViolation("missing value for column %q (NULLs/defaults are not supported)", col.Name)
		}
		b, err := marshalValue(col.Type, val)
		if err != nil {
			return nil, err
		}
		buf = append(buf, b...)
	}
	return buf, nil
}

func marshalValue(t DataType, val Value) ([]byte, error) {
	switch t {
	case TypeInt:
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, uint32(val.Int))
		return b, nil
	case TypeText:
		if err := checkASCII(val.Text); err != nil {
			return nil, err
		}
		if len(val.Text) > 0xFFFF {
			return nil, errs.SchemaViolation("text field of %d bytes too long to marshal", len(val.Text))
		}
		b := make([]byte, 2+len(val.Text))
		binary.LittleEndian.PutUint16(b[0:2], uint16(len(val.Text)))
		copy(b[2:], val.Text)
		return b, nil
	case TypeBoolean:
		if val.Bool {
			return []byte{1}, nil
		}
		return []byte{0}, nil
	default:
		return nil, errs.UnsupportedType("only know how to marshal INT, TEXT, and BOOLEAN")
	}
}

func checkASCII(s string) error {
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7F {
			return errs.UnsupportedType("text field contains non-ASCII byte at position %d", i)
		}
	}
	return nil
}

// UnmarshalRow reverses MarshalRow, producing a row keyed by column name.
func UnmarshalRow(schema Schema, data []byte) (Row, error) {
	row := make(Row, len(schema.Columns))
	offset := 0
	for _, col := range schema.Columns {
		val, n, err := unmarshalValue(col.Type, data[offset:])
		if err != nil {
			return nil, err
		}
		row[col.Name] = val
		offset += n
	}
	return row, nil
}

func unmarshalValue(t DataType, data []byte) (Value, int, error) {
	switch t {
	case TypeInt:
		if len(data) < 4 {
			return Value{}, 0, errs.Corruption("row truncated: need 4 bytes for INT, have %d", len(data))
		}
		return NewInt(int32(binary.LittleEndian.Uint32(data[0:4]))), 4, nil
	case TypeText:
		if len(data) < 2 {
			return Value{}, 0, errs.Corruption("row truncated: need 2 bytes for TEXT length, have %d", len(data))
		}
		size := int(binary.LittleEndian.Uint16(data[0:2]))
		if len(data) < 2+size {
			return Value{}, 0, errs.Corruption("row truncated: need %d bytes for TEXT, have %d", size, len(data)-2)
		}
		return NewText(string(data[2 : 2+size])), 2 + size, nil
	case TypeBoolean:
		if len(data) < 1 {
			return Value{}, 0, errs.Corruption("row truncated: need 1 byte for BOOLEAN, have 0")
		}
		return NewBoolean(data[0] != 0), 1, nil
	default:
		return Value{}, 0, errs.UnsupportedType("only know how to unmarshal INT, TEXT, and BOOLEAN")
	}
}

// MarshalKey encodes a KeyValue the same way B+Tree node bodies expect: INT 4 bytes
// little-endian, TEXT u16-length-prefixed ASCII, BOOLEAN 1 byte.
func MarshalKey(profile KeyProfile, key KeyValue) ([]byte, error) {
	buf := make([]byte, 0, 16)
	for i, t := range profile {
		b, err := marshalValue(t, key[i])
		if err != nil {
			return nil, err
		}
		buf = append(buf, b...)
	}
	return buf, nil
}

// UnmarshalKey reverses MarshalKey.
func UnmarshalKey(profile KeyProfile, data []byte) (KeyValue, error) {
	key := make(KeyValue, len(profile))
	offset := 0
	for i, t := range profile {
		val, n, err := unmarshalValue(t, data[offset:])
		if err != nil {
			return nil, err
		}
		key[i] = val
		offset += n
	}
	return key, nil
}
