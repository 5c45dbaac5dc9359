package storage

import "encoding/binary"

// Handle is a (BlockID, RecordID) pair uniquely identifying a row within a relation.
// It is stable across in-block compactions: record ids are never reused or renumbered
// after a delete.
type Handle struct {
	Block  BlockID
	Record RecordID
}

// MarshalHandle encodes a Handle as BlockID (4 bytes) followed by RecordID (2 bytes),
// both little-endian -- the format B+Tree leaf nodes store alongside each key.
func MarshalHandle(h Handle) []byte {
	b := make([]byte, 6)
	binary.LittleEndian.PutUint32(b[0:4], uint32(h.Block))
	binary.LittleEndian.PutUint16(b[4:6], uint16(h.Record))
	return b
}

// UnmarshalHandle reverses MarshalHandle.
func UnmarshalHandle(b []byte) Handle {
	return Handle{
		Block:  BlockID(binary.LittleEndian.Uint32(b[0:4])),
		Record: RecordID(binary.LittleEndian.Uint16(b[4:6])),
	}
}

// MarshalBlockID encodes a BlockID as 4 little-endian bytes.
func MarshalBlockID(id BlockID) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, uint32(id))
	return b
}

// UnmarshalBlockID reverses MarshalBlockID.
func UnmarshalBlockID(b []byte) BlockID {
	return BlockID(binary.LittleEndian.Uint32(b))
}
