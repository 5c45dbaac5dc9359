// Pager component: the concrete BlockStore collaborator.
//
// EDUCATIONAL NOTES:
// ------------------
// The Pager is the layer between higher-level storage structures (heap files, B+Tree
// nodes) and the file system. It owns the database file and exposes exactly the
// operations the rest of the engine needs from a keyed, fixed-length block store:
// open/put/get/stat/remove/close. BlockIDs are 1-based; 0 is reserved as a sentinel
// and the pager never hands it out.
//
// In production databases, the pager would also handle:
// - Write-ahead logging (WAL) for crash recovery
// - Page checksums for corruption detection
// - Background flushing of dirty pages

package storage

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/cabewaldrop/claude-db/internal/errs"
)

// Pager manages reading and writing blocks to a database file and fronts disk access
// with a bounded, cost-aware cache so hot pages (the B+Tree's upper levels, a table's
// tail page) don't round-trip through the filesystem on every access.
type Pager struct {
	file     *os.File
	filePath string

	// blockCount is the highest allocated BlockID; blocks are 1..blockCount, dense.
	blockCount uint32

	cache *ristretto.Cache[BlockID, *Page]

	mu  sync.RWMutex
	log zerolog.Logger
}

// OpenPager opens filePath as a block store. When create is true it behaves like
// CREATE|EXCL: the file must not already exist. When create is false it behaves like
// a plain open: the file must already exist.
func OpenPager(filePath string, create bool) (*Pager, error) {
	_, statErr := os.Stat(filePath)
	exists := statErr == nil
	if create && exists {
		return nil, errs.SchemaViolation("database file %q already exists", filePath)
	}
	if !create && !exists {
		return nil, fmt.Errorf("open %q: %w", filePath, os.ErrNotExist)
	}

	file, err := os.OpenFile(filePath, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, errs.StoreFailure(err, "open database file %q", filePath)
	}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, errs.StoreFailure(err, "stat database file %q", filePath)
	}
	blockCount := uint32(stat.Size() / PageSize)

	cache, err := ristretto.NewCache(&ristretto.Config[BlockID, *Page]{
		NumCounters: 10_000,
		MaxCost:     1 << 20, // cost budget in units; every page is Set with cost 1
		BufferItems: 64,
	})
	if err != nil {
		file.Close()
		return nil, errs.StoreFailure(err, "initialize page cache for %q", filePath)
	}

	pager := &Pager{
		file:       file,
		filePath:   filePath,
		blockCount: blockCount,
		cache:      cache,
		log:        log.With().Str("component", "pager").Str("file", filePath).Logger(),
	}
	pager.log.Debug().Uint32("blocks", blockCount).Bool("create", create).Msg("opened block store")
	return pager, nil
}

// Close releases the page cache and closes the database file. Nothing is flushed
// here: every write already went through to disk when it was made.
func (p *Pager) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache.Close()
	if err := p.file.Close(); err != nil {
		return errs.StoreFailure(err, "close database file %q", p.filePath)
	}
	p.log.Debug().Msg("closed block store")
	return nil
}

// Get reads the block bytes stored under id, consulting the cache first.
func (p *Pager) Get(id BlockID) ([]byte, error) {
	page, err := p.getPage(id)
	if err != nil {
		return nil, err
	}
	return page.Bytes(), nil
}

// getPage returns the cached or disk-loaded Page for id.
func (p *Pager) getPage(id BlockID) (*Page, error) {
	p.mu.RLock()
	if page, ok := p.cache.Get(id); ok {
		p.mu.RUnlock()
		return page, nil
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	if page, ok := p.cache.Get(id); ok {
		return page, nil
	}
	if uint32(id) == 0 || uint32(id) > p.blockCount {
		return nil, errs.Corruption("block %d does not exist (only %d blocks)", id, p.blockCount)
	}
	page, err := p.readPageFromDisk(id)
	if err != nil {
		return nil, err
	}
	p.cache.Set(id, page, 1)
	p.cache.Wait()
	return page, nil
}

// Put writes block bytes under id, creating the underlying page slot if id is new and
// overwriting it idempotently if it already exists.
func (p *Pager) Put(id BlockID, data []byte) error {
	page, err := LoadPage(id, data)
	if err != nil {
		return err
	}
	page.dirty = true
	p.mu.Lock()
	defer p.mu.Unlock()
	if uint32(id) > p.blockCount {
		p.blockCount = uint32(id)
	}
	p.cache.Set(id, page, 1)
	p.cache.Wait()
	return p.flushPageLocked(page)
}

// AllocateBlock creates a fresh, zeroed-then-initialized page under the next unused
// BlockID. Blocks are never recycled: the highest id only ever grows.
func (p *Pager) AllocateBlock() (*Page, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.blockCount++
	id := BlockID(p.blockCount)
	page := NewPage(id)
	p.cache.Set(id, page, 1)
	p.cache.Wait()
	if err := p.flushPageLocked(page); err != nil {
		return nil, err
	}
	p.log.Debug().Uint32("block", uint32(id)).Msg("allocated block")
	return page, nil
}

// WritePage persists an in-memory page that has already been mutated in place
// (e.g. by a slotted-page Add/Put/Delete call) back through the pager.
func (p *Pager) WritePage(page *Page) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache.Set(page.ID(), page, 1)
	p.cache.Wait()
	return p.flushPageLocked(page)
}

// Stat returns the number of logical blocks in the store, used to recover the heap
// file's `last` pointer on reopen.
func (p *Pager) Stat() uint32 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.blockCount
}

func (p *Pager) readPageFromDisk(id BlockID) (*Page, error) {
	offset := int64(id-1) * PageSize
	buf := make([]byte, PageSize)
	n, err := p.file.ReadAt(buf, offset)
	if err != nil {
		return nil, errs.StoreFailure(err, "read block %d", id)
	}
	if n != PageSize {
		return nil, errs.Corruption("short read for block %d: got %d bytes, want %d", id, n, PageSize)
	}
	return LoadPage(id, buf)
}

// flushPageLocked writes a page to disk. Caller must hold the lock.
func (p *Pager) flushPageLocked(page *Page) error {
	if !page.IsDirty() {
		return nil
	}
	offset := int64(page.ID()-1) * PageSize
	data := page.Bytes()
	n, err := p.file.WriteAt(data, offset)
	if err != nil {
		return errs.StoreFailure(err, "write block %d", page.ID())
	}
	if n != PageSize {
		return errs.Corruption("short write for block %d: wrote %d bytes, want %d", page.ID(), n, PageSize)
	}
	if err := p.file.Sync(); err != nil {
		return errs.StoreFailure(err, "sync after writing block %d", page.ID())
	}
	page.MarkClean()
	return nil
}

// RemoveFile deletes the database file entirely (DROP's underlying operation).
func RemoveFile(filePath string) error {
	if _, err := os.Stat(filePath); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return os.Remove(filePath)
}
