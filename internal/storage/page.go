// Package storage implements the block-oriented storage engine: slotted pages,
// the pager (block store), and the B+Tree index built on top of them.
//
// EDUCATIONAL NOTES:
// ------------------
// Real databases store data in fixed-size blocks called "pages" (typically 4KB or 8KB).
// This approach has several advantages:
// 1. Efficient disk I/O - reading/writing fixed-size blocks is optimal for disk access
// 2. Memory management - pages can be cached and managed in a buffer pool
// 3. Crash recovery - pages can be atomically written to disk
//
// A slotted page additionally lets records of varying length live in one block: a
// directory of (size, offset) slots grows up from the bottom of the block while record
// payloads grow down from the top, and a delete simply zeroes a slot and slides the
// remaining payloads to keep the free region contiguous.

package storage

import (
	"encoding/binary"
	"fmt"

	"github.com/cabewaldrop/claude-db/internal/errs"
)

const (
	// PageSize is the size of each block in bytes ("B" in the layout description).
	PageSize = 4096

	// slotHeaderBytes is the width of one slot directory entry: 2 bytes size + 2 bytes offset.
	slotHeaderBytes = 4
)

// BlockID names a block within a file. 0 is reserved as a sentinel ("no such block").
type BlockID uint32

// RecordID names a record within a block. 0 is reserved for the block header slot and
// also doubles as the tombstone sentinel stored in a deleted record's offset field.
type RecordID uint16

// Page is one fixed-size slotted block: a two-field header (num_records, end_free)
// followed by a slot directory that grows upward and a payload region that grows
// downward from the top of the block.
//
// Layout (B=4096 bytes):
//
//	bytes 0..1   num_records (u16)
//	bytes 2..3   end_free (u16) -- offset of the last byte still free at the bottom
//	bytes 4i..4i+1   size of record i  (0 means tombstoned)
//	bytes 4i+2..4i+3 offset of record i (0 means tombstoned)
//	...payload bytes for all live records, growing down from byte B-1...
type Page struct {
	id    BlockID
	data  [PageSize]byte
	dirty bool
}

// NewPage creates a fresh, empty page for the given block id.
func NewPage(id BlockID) *Page {
	p := &Page{id: id, dirty: true}
	p.putHeader(0, 0, PageSize-1)
	return p
}

// LoadPage reconstructs a Page from previously stored block bytes.
func LoadPage(id BlockID, raw []byte) (*Page, error) {
	if len(raw) != PageSize {
		return nil, fmt.Errorf("load page %d: %w", id, errs.Corruption("block has %d bytes, want %d", len(raw), PageSize))
	}
	p := &Page{id: id}
	copy(p.data[:], raw)
	return p, nil
}

// ID returns the page's block id.
func (p *Page) ID() BlockID { return p.id }

// IsDirty reports whether the page has been modified since it was last marked clean.
func (p *Page) IsDirty() bool { return p.dirty }

// MarkClean clears the dirty flag after the page has been flushed to disk.
func (p *Page) MarkClean() { p.dirty = false }

// Bytes returns the raw block contents, suitable for handing to a block store.
func (p *Page) Bytes() []byte {
	out := make([]byte, PageSize)
	copy(out, p.data[:])
	return out
}

func (p *Page) numRecords() uint16 {
	return binary.LittleEndian.Uint16(p.data[0:2])
}

func (p *Page) endFree() uint16 {
	return binary.LittleEndian.Uint16(p.data[2:4])
}

// getHeader reads the (size, offset) slot entry for the given record id. id 0 is the
// block header itself (num_records, end_free).
func (p *Page) getHeader(id RecordID) (size, loc uint16) {
	off := slotHeaderBytes * uint32(id)
	size = binary.LittleEndian.Uint16(p.data[off : off+2])
	loc = binary.LittleEndian.Uint16(p.data[off+2 : off+4])
	return size, loc
}

// putHeader writes the (size, offset) slot entry for id. id 0 writes the block header.
func (p *Page) putHeader(id RecordID, size, loc uint16) {
	off := slotHeaderBytes * uint32(id)
	binary.LittleEndian.PutUint16(p.data[off:off+2], size)
	binary.LittleEndian.PutUint16(p.data[off+2:off+4], loc)
}

// putBlockHeader rewrites the id-0 header slot from the page's own num_records/end_free.
func (p *Page) putBlockHeader() {
	p.putHeader(0, p.numRecords(), p.endFree())
}

func (p *Page) setNumRecords(n uint16) {
	binary.LittleEndian.PutUint16(p.data[0:2], n)
}

func (p *Page) setEndFree(n uint16) {
	binary.LittleEndian.PutUint16(p.data[2:4], n)
}

// hasRoom reports whether a new record of the given payload size (header bytes excluded)
// fits: the directory needs one more 4-byte slot, plus the id-0 block header slot, and
// the payload region must still cover it with no overlap at the exact boundary.
func (p *Page) hasRoom(size uint16) bool {
	return uint32(slotHeaderBytes)*uint32(p.numRecords()+2)+uint32(size) <= uint32(p.endFree())+1
}

// Add stores a new record and returns its RecordID. Fails with a NoRoom error if the
// record (plus its slot header) would not fit in the remaining free space.
func (p *Page) Add(data []byte) (RecordID, error) {
	size := uint16(len(data))
	if !p.hasRoom(size) {
		return 0, errs.NoRoom("not enough room for new record of %d bytes", size)
	}
	id := RecordID(p.numRecords() + 1)
	p.setNumRecords(uint16(id))
	loc := p.endFree() - size
	p.setEndFree(loc)
	loc++
	p.putBlockHeader()
	p.putHeader(id, size, loc)
	copy(p.data[loc:loc+size], data)
	p.dirty = true
	return id, nil
}

// Get returns the stored payload for record_id, or (nil, false) if it has been deleted.
func (p *Page) Get(id RecordID) ([]byte, bool) {
	size, loc := p.getHeader(id)
	if loc == 0 {
		return nil, false
	}
	out := make([]byte, size)
	copy(out, p.data[loc:loc+size])
	return out, true
}

// Put replaces the contents of an existing record, sliding neighboring payloads to
// make room (or to compact) as needed. Fails with NoRoom if the page cannot grow enough.
func (p *Page) Put(id RecordID, data []byte) error {
	size, loc := p.getHeader(id)
	newSize := uint16(len(data))
	if newSize > size {
		extra := newSize - size
		if !p.hasRoom(extra) {
			return errs.NoRoom("not enough room for enlarged record of %d bytes", newSize)
		}
		p.slide(loc, loc-extra)
		copy(p.data[loc-extra:loc-extra+newSize], data)
	} else {
		copy(p.data[loc:loc+newSize], data)
		p.slide(loc+newSize, loc+size)
	}
	_, loc = p.getHeader(id)
	p.putHeader(id, newSize, loc)
	p.dirty = true
	return nil
}

// Delete tombstones a record (zeroing its slot) and slides remaining payloads to
// reclaim the freed space. The record id itself is never reused.
func (p *Page) Delete(id RecordID) {
	size, loc := p.getHeader(id)
	if loc == 0 {
		return
	}
	p.putHeader(id, 0, 0)
	p.slide(loc, loc+size)
	p.dirty = true
}

// IDs returns the non-tombstoned record ids in ascending order.
func (p *Page) IDs() []RecordID {
	var ids []RecordID
	n := p.numRecords()
	for id := RecordID(1); id <= RecordID(n); id++ {
		if _, loc := p.getHeader(id); loc != 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

// slide shifts the payload region by (end - start) bytes and fixes up every slot
// whose offset falls at or before start. A positive shift compacts (reclaiming space
// after a delete or shrink); a negative shift makes room (growing a record in place).
func (p *Page) slide(start, end uint16) {
	shift := int(end) - int(start)
	if shift == 0 {
		return
	}

	from := int(p.endFree()) + 1
	to := from + shift
	n := int(start) - from
	copy(p.data[to:to+n], p.data[from:from+n])

	for _, id := range p.IDs() {
		size, loc := p.getHeader(id)
		if loc <= start {
			p.putHeader(id, size, uint16(int(loc)+shift))
		}
	}
	p.setEndFree(uint16(int(p.endFree()) + shift))
	p.putBlockHeader()
}
