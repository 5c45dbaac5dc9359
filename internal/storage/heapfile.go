package storage

import (
	"fmt"
)

// HeapFile is an ordered sequence of slotted pages over a keyed block store (the
// Pager). It owns `last`, the highest allocated BlockID; BlockIDs are 1..last,
// contiguous, and never recycled.
type HeapFile struct {
	name   string
	pager  *Pager
	closed bool
}

// CreateHeapFile creates a brand-new heap file on disk and allocates its first
// (empty) page, so that `last` >= 1 immediately after creation.
func CreateHeapFile(dir, name string) (*HeapFile, error) {
	pager, err := OpenPager(path(dir, name), true)
	if err != nil {
		return nil, fmt.Errorf("create heap file %q: %w", name, err)
	}
	hf := &HeapFile{name: name, pager: pager}
	if _, err := hf.GetNew(); err != nil {
		return nil, err
	}
	return hf, nil
}

// OpenHeapFile opens an existing heap file.
func OpenHeapFile(dir, name string) (*HeapFile, error) {
	pager, err := OpenPager(path(dir, name), false)
	if err != nil {
		return nil, fmt.Errorf("open heap file %q: %w", name, err)
	}
	return &HeapFile{name: name, pager: pager}, nil
}

// DropHeapFile deletes a heap file's underlying storage.
func DropHeapFile(dir, name string) error {
	return RemoveFile(path(dir, name))
}

func path(dir, name string) string {
	if dir == "" {
		return name + ".tbl"
	}
	return dir + "/" + name + ".tbl"
}

// Close releases the underlying pager.
func (hf *HeapFile) Close() error {
	if hf.closed {
		return nil
	}
	hf.closed = true
	return hf.pager.Close()
}

// Last returns the highest allocated BlockID.
func (hf *HeapFile) Last() BlockID {
	return BlockID(hf.pager.Stat())
}

// Get materializes a slotted-page view of the stored bytes for block_id.
func (hf *HeapFile) Get(id BlockID) (*Page, error) {
	raw, err := hf.pager.Get(id)
	if err != nil {
		return nil, fmt.Errorf("get block %d of %q: %w", id, hf.name, err)
	}
	return LoadPage(id, raw)
}

// GetNew allocates a new, empty page at the end of the file and returns it.
func (hf *HeapFile) GetNew() (*Page, error) {
	page, err := hf.pager.AllocateBlock()
	if err != nil {
		return nil, fmt.Errorf("allocate block in %q: %w", hf.name, err)
	}
	return page, nil
}

// Put writes a (presumably mutated) page back to storage.
func (hf *HeapFile) Put(page *Page) error {
	if err := hf.pager.WritePage(page); err != nil {
		return fmt.Errorf("put block %d of %q: %w", page.ID(), hf.name, err)
	}
	return nil
}

// BlockIDs returns 1..last.
func (hf *HeapFile) BlockIDs() []BlockID {
	last := hf.Last()
	ids := make([]BlockID, 0, last)
	for i := BlockID(1); i <= last; i++ {
		ids = append(ids, i)
	}
	return ids
}
