package storage

import (
	"fmt"

	"github.com/cabewaldrop/claude-db/internal/errs"
	"github.com/cabewaldrop/claude-db/internal/types"
)

// Insertion reports the result of an insert that propagated up one level: when Split
// is true, the caller's node was split and NewBlock/Boundary describe the new sibling
// and the key that now separates it from its left neighbor. A zero Insertion (Split
// false) means the insert fit without splitting.
type Insertion struct {
	Split    bool
	NewBlock BlockID
	Boundary types.KeyValue
}

const (
	statBlockID    = BlockID(1)
	rootRecordID   = RecordID(1)
	heightRecordID = RecordID(2)
)

// BTree is a unique, ordered index over KeyValue -> Handle, stored as its own heap
// file of leaf and interior nodes plus a one-block stat page recording the root
// block and the tree's height. Block 1 is always the stat page; it is allocated
// automatically when the underlying heap file is created.
type BTree struct {
	file       *HeapFile
	name       string
	keyProfile types.KeyProfile
	rootID     BlockID
	height     uint32
	closed     bool
}

// CreateBTree creates a brand-new, empty index: a stat block recording a fresh leaf
// root at height 1.
func CreateBTree(dir, name string, profile types.KeyProfile) (*BTree, error) {
	file, err := CreateHeapFile(dir, name)
	if err != nil {
		return nil, fmt.Errorf("create btree %q: %w", name, err)
	}
	root, err := newLeafNode(file)
	if err != nil {
		return nil, err
	}
	if err := root.save(file, profile); err != nil {
		return nil, err
	}
	if err := writeStat(file, root.id, 1); err != nil {
		return nil, err
	}
	return &BTree{file: file, name: name, keyProfile: profile, rootID: root.id, height: 1}, nil
}

// OpenBTree reopens an existing index, recovering its root block and height from the
// stat page. closed starts false: opening succeeded, so lookup/insert are enabled.
func OpenBTree(dir, name string, profile types.KeyProfile) (*BTree, error) {
	file, err := OpenHeapFile(dir, name)
	if err != nil {
		return nil, fmt.Errorf("open btree %q: %w", name, err)
	}
	rootID, height, err := readStat(file)
	if err != nil {
		return nil, err
	}
	return &BTree{file: file, name: name, keyProfile: profile, rootID: rootID, height: height, closed: false}, nil
}

// DropBTree deletes an index's underlying storage. The index must already be closed.
func DropBTree(dir, name string) error {
	return DropHeapFile(dir, name)
}

// Close releases the index's underlying heap file. Disables lookup and insert.
func (t *BTree) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true
	return t.file.Close()
}

// Lookup finds the Handle stored under key, if any.
func (t *BTree) Lookup(key types.KeyValue) (Handle, bool, error) {
	if t.closed {
		return Handle{}, false, errs.StoreFailure(nil, "btree index %q is closed", t.name)
	}
	return t.lookup(t.rootID, t.height, key)
}

func (t *BTree) lookup(blockID BlockID, height uint32, key types.KeyValue) (Handle, bool, error) {
	if height == 1 {
		leaf, err := loadLeaf(t.file, blockID, t.keyProfile)
		if err != nil {
			return Handle{}, false, err
		}
		h, ok := leaf.find(key)
		return h, ok, nil
	}
	interior, err := loadInterior(t.file, blockID, t.keyProfile)
	if err != nil {
		return Handle{}, false, err
	}
	return t.lookup(interior.childFor(key), height-1, key)
}

// Insert adds key -> handle to the index, failing with DuplicateKey if key is already
// present. A split that reaches the root grows the tree by one level.
func (t *BTree) Insert(key types.KeyValue, handle Handle) error {
	if t.closed {
		return errs.StoreFailure(nil, "btree index %q is closed", t.name)
	}
	insertion, err := t.insert(t.rootID, t.height, key, handle)
	if err != nil {
		return fmt.Errorf("insert into btree %q: %w", t.name, err)
	}
	if !insertion.Split {
		return nil
	}
	newRoot, err := newInteriorNode(t.file)
	if err != nil {
		return err
	}
	newRoot.first = t.rootID
	newRoot.insertBoundary(insertion.Boundary, insertion.NewBlock)
	if err := newRoot.save(t.file, t.keyProfile); err != nil {
		return err
	}
	t.rootID = newRoot.id
	t.height++
	return writeStat(t.file, t.rootID, t.height)
}

func (t *BTree) insert(blockID BlockID, height uint32, key types.KeyValue, handle Handle) (Insertion, error) {
	if height == 1 {
		leaf, err := loadLeaf(t.file, blockID, t.keyProfile)
		if err != nil {
			return Insertion{}, err
		}
		return leaf.insert(t.file, t.keyProfile, key, handle)
	}
	interior, err := loadInterior(t.file, blockID, t.keyProfile)
	if err != nil {
		return Insertion{}, err
	}
	insertion, err := t.insert(interior.childFor(key), height-1, key, handle)
	if err != nil {
		return Insertion{}, err
	}
	if !insertion.Split {
		return Insertion{}, nil
	}
	return interior.insert(t.file, t.keyProfile, insertion.Boundary, insertion.NewBlock)
}

// Range is not implemented: this index only supports unique-key lookup and insert.
func (t *BTree) Range(types.KeyValue, types.KeyValue) ([]Handle, error) {
	return nil, errs.NotImplemented("btree range scan")
}

// Delete is not implemented for the same reason.
func (t *BTree) Delete(types.KeyValue) error {
	return errs.NotImplemented("btree delete")
}

func readStat(file *HeapFile) (BlockID, uint32, error) {
	page, err := file.Get(statBlockID)
	if err != nil {
		return 0, 0, err
	}
	rootData, ok := page.Get(rootRecordID)
	if !ok {
		return 0, 0, errs.Corruption("btree stat block is missing its root pointer")
	}
	heightData, ok := page.Get(heightRecordID)
	if !ok {
		return 0, 0, errs.Corruption("btree stat block is missing its height")
	}
	return UnmarshalBlockID(rootData), uint32(UnmarshalBlockID(heightData)), nil
}

func writeStat(file *HeapFile, rootID BlockID, height uint32) error {
	page, err := file.Get(statBlockID)
	if err != nil {
		return err
	}
	rootData := MarshalBlockID(rootID)
	heightData := MarshalBlockID(BlockID(height))
	if _, ok := page.Get(rootRecordID); ok {
		if err := page.Put(rootRecordID, rootData); err != nil {
			return err
		}
	} else if _, err := page.Add(rootData); err != nil {
		return err
	}
	if _, ok := page.Get(heightRecordID); ok {
		if err := page.Put(heightRecordID, heightData); err != nil {
			return err
		}
	} else if _, err := page.Add(heightData); err != nil {
		return err
	}
	return file.Put(page)
}

// compareKeys orders two KeyValues lexicographically by position, the ordering a
// KeyProfile's column order defines.
func compareKeys(a, b types.KeyValue) int {
	for i := range a {
		if a[i].Equal(b[i]) {
			continue
		}
		if a[i].Less(b[i]) {
			return -1
		}
		return 1
	}
	return 0
}

// leafEntry is one key -> handle pair stored in a leaf node, kept sorted by key.
type leafEntry struct {
	key    types.KeyValue
	handle Handle
}

// leafNode is a B+Tree leaf: a sorted run of key/handle pairs plus a pointer to the
// next leaf in key order, forming the leaf chain a range scan would walk.
type leafNode struct {
	id       BlockID
	nextLeaf BlockID
	entries  []leafEntry
}

func newLeafNode(file *HeapFile) (*leafNode, error) {
	page, err := file.GetNew()
	if err != nil {
		return nil, err
	}
	return &leafNode{id: page.ID()}, nil
}

// loadLeaf reconstructs a leaf's entries from its slotted page. Records alternate
// handle, key for each entry in order; the final record is the next-leaf pointer.
func loadLeaf(file *HeapFile, id BlockID, profile types.KeyProfile) (*leafNode, error) {
	page, err := file.Get(id)
	if err != nil {
		return nil, err
	}
	ids := page.IDs()
	leaf := &leafNode{id: id}
	if len(ids) == 0 {
		return leaf, nil
	}
	n := len(ids)
	lastData, _ := page.Get(ids[n-1])
	leaf.nextLeaf = UnmarshalBlockID(lastData)
	for i := 0; i < n-1; i += 2 {
		handleData, _ := page.Get(ids[i])
		keyData, _ := page.Get(ids[i+1])
		key, err := types.UnmarshalKey(profile, keyData)
		if err != nil {
			return nil, err
		}
		leaf.entries = append(leaf.entries, leafEntry{key: key, handle: UnmarshalHandle(handleData)})
	}
	return leaf, nil
}

// search binary-searches the sorted entries for key, returning its index (the
// insertion point if not found) and whether it was found.
func (leaf *leafNode) search(key types.KeyValue) (int, bool) {
	lo, hi := 0, len(leaf.entries)
	for lo < hi {
		mid := (lo + hi) / 2
		switch compareKeys(leaf.entries[mid].key, key) {
		case 0:
			return mid, true
		case -1:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return lo, false
}

func (leaf *leafNode) find(key types.KeyValue) (Handle, bool) {
	idx, found := leaf.search(key)
	if !found {
		return Handle{}, false
	}
	return leaf.entries[idx].handle, true
}

// insert adds key -> handle to the leaf, splitting it in two if it no longer fits.
func (leaf *leafNode) insert(file *HeapFile, profile types.KeyProfile, key types.KeyValue, handle Handle) (Insertion, error) {
	idx, found := leaf.search(key)
	if found {
		return Insertion{}, errs.DuplicateKey("key %v already exists in unique index", key)
	}

	candidate := make([]leafEntry, 0, len(leaf.entries)+1)
	candidate = append(candidate, leaf.entries[:idx]...)
	candidate = append(candidate, leafEntry{key: key, handle: handle})
	candidate = append(candidate, leaf.entries[idx:]...)

	page, err := serializeLeaf(leaf.id, candidate, leaf.nextLeaf, profile)
	if err == nil {
		leaf.entries = candidate
		return Insertion{}, file.Put(page)
	}
	if !errs.IsNoRoom(err) {
		return Insertion{}, err
	}

	sibling, err := newLeafNode(file)
	if err != nil {
		return Insertion{}, err
	}
	split := len(candidate) / 2
	sibling.nextLeaf = leaf.nextLeaf
	sibling.entries = append([]leafEntry{}, candidate[split:]...)
	leaf.nextLeaf = sibling.id
	leaf.entries = candidate[:split]

	if err := leaf.save(file, profile); err != nil {
		return Insertion{}, err
	}
	if err := sibling.save(file, profile); err != nil {
		return Insertion{}, err
	}
	return Insertion{Split: true, NewBlock: sibling.id, Boundary: sibling.entries[0].key}, nil
}

func (leaf *leafNode) save(file *HeapFile, profile types.KeyProfile) error {
	page, err := serializeLeaf(leaf.id, leaf.entries, leaf.nextLeaf, profile)
	if err != nil {
		return err
	}
	return file.Put(page)
}

func serializeLeaf(id BlockID, entries []leafEntry, nextLeaf BlockID, profile types.KeyProfile) (*Page, error) {
	page := NewPage(id)
	for _, e := range entries {
		if _, err := page.Add(MarshalHandle(e.handle)); err != nil {
			return nil, err
		}
		keyBytes, err := types.MarshalKey(profile, e.key)
		if err != nil {
			return nil, err
		}
		if _, err := page.Add(keyBytes); err != nil {
			return nil, err
		}
	}
	if _, err := page.Add(MarshalBlockID(nextLeaf)); err != nil {
		return nil, err
	}
	return page, nil
}

// interiorNode is a B+Tree interior node: a first pointer covering every key less
// than the first boundary, then boundary/pointer pairs where pointers[i] covers keys
// in [boundaries[i], boundaries[i+1]).
type interiorNode struct {
	id         BlockID
	first      BlockID
	boundaries []types.KeyValue
	pointers   []BlockID
}

func newInteriorNode(file *HeapFile) (*interiorNode, error) {
	page, err := file.GetNew()
	if err != nil {
		return nil, err
	}
	return &interiorNode{id: page.ID()}, nil
}

// loadInterior reconstructs an interior node from its slotted page: first pointer,
// then alternating key, pointer records.
func loadInterior(file *HeapFile, id BlockID, profile types.KeyProfile) (*interiorNode, error) {
	page, err := file.Get(id)
	if err != nil {
		return nil, err
	}
	ids := page.IDs()
	n := &interiorNode{id: id}
	if len(ids) == 0 {
		return n, nil
	}
	firstData, _ := page.Get(ids[0])
	n.first = UnmarshalBlockID(firstData)
	for i := 1; i+1 < len(ids); i += 2 {
		keyData, _ := page.Get(ids[i])
		ptrData, _ := page.Get(ids[i+1])
		key, err := types.UnmarshalKey(profile, keyData)
		if err != nil {
			return nil, err
		}
		n.boundaries = append(n.boundaries, key)
		n.pointers = append(n.pointers, UnmarshalBlockID(ptrData))
	}
	return n, nil
}

// childFor returns which child block a key descends into: the default is the last
// pointer, overridden by the pointer (or first, for the very first boundary) to the
// left of the first boundary that exceeds key.
func (n *interiorNode) childFor(key types.KeyValue) BlockID {
	down := n.pointers[len(n.pointers)-1]
	for i, b := range n.boundaries {
		if compareKeys(b, key) > 0 {
			if i > 0 {
				down = n.pointers[i-1]
			} else {
				down = n.first
			}
			break
		}
	}
	return down
}

// insertBoundary inserts a (boundary, blockID) pair in sorted position.
func (n *interiorNode) insertBoundary(boundary types.KeyValue, blockID BlockID) {
	idx := len(n.boundaries)
	for i, b := range n.boundaries {
		if compareKeys(boundary, b) < 0 {
			idx = i
			break
		}
	}
	n.boundaries = append(n.boundaries, types.KeyValue{})
	copy(n.boundaries[idx+1:], n.boundaries[idx:])
	n.boundaries[idx] = boundary

	n.pointers = append(n.pointers, BlockID(0))
	copy(n.pointers[idx+1:], n.pointers[idx:])
	n.pointers[idx] = blockID
}

// insert adds a (boundary, blockID) pair, splitting the node if it no longer fits.
// On split the middle boundary is lifted into the returned Insertion rather than
// kept on either side: it belongs to the parent, not to either child.
func (n *interiorNode) insert(file *HeapFile, profile types.KeyProfile, boundary types.KeyValue, blockID BlockID) (Insertion, error) {
	candidate := cloneInterior(n)
	candidate.insertBoundary(boundary, blockID)

	page, err := serializeInterior(n.id, candidate, profile)
	if err == nil {
		n.boundaries = candidate.boundaries
		n.pointers = candidate.pointers
		return Insertion{}, file.Put(page)
	}
	if !errs.IsNoRoom(err) {
		return Insertion{}, err
	}

	sibling, err := newInteriorNode(file)
	if err != nil {
		return Insertion{}, err
	}
	split := len(candidate.boundaries) / 2
	sibling.first = candidate.pointers[split]
	lifted := candidate.boundaries[split]
	sibling.boundaries = append([]types.KeyValue{}, candidate.boundaries[split+1:]...)
	sibling.pointers = append([]BlockID{}, candidate.pointers[split+1:]...)

	n.boundaries = candidate.boundaries[:split]
	n.pointers = candidate.pointers[:split]

	if err := n.save(file, profile); err != nil {
		return Insertion{}, err
	}
	if err := sibling.save(file, profile); err != nil {
		return Insertion{}, err
	}
	return Insertion{Split: true, NewBlock: sibling.id, Boundary: lifted}, nil
}

func (n *interiorNode) save(file *HeapFile, profile types.KeyProfile) error {
	page, err := serializeInterior(n.id, n, profile)
	if err != nil {
		return err
	}
	return file.Put(page)
}

func cloneInterior(n *interiorNode) *interiorNode {
	return &interiorNode{
		id:         n.id,
		first:      n.first,
		boundaries: append([]types.KeyValue{}, n.boundaries...),
		pointers:   append([]BlockID{}, n.pointers...),
	}
}

func serializeInterior(id BlockID, n *interiorNode, profile types.KeyProfile) (*Page, error) {
	page := NewPage(id)
	if _, err := page.Add(MarshalBlockID(n.first)); err != nil {
		return nil, err
	}
	for i, b := range n.boundaries {
		keyBytes, err := types.MarshalKey(profile, b)
		if err != nil {
			return nil, err
		}
		if _, err := page.Add(keyBytes); err != nil {
			return nil, err
		}
		if _, err := page.Add(MarshalBlockID(n.pointers[i])); err != nil {
			return nil, err
		}
	}
	return page, nil
}
