// Package bufferpool caches fixed-size pages from a disk manager in memory,
// with pinning semantics and LRU-driven eviction over an extendible-hash
// page table. It is the shared page cache every B+ tree operation fetches
// pages through.
package bufferpool

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"TreeStore/internal/common"
	"TreeStore/internal/diskmanager"
	"TreeStore/internal/extendiblehash"
	"TreeStore/internal/lru"
)

// Sentinel errors for the pool's failure kinds: resource exhaustion
// (ErrOutOfMemory), pin-discipline violations (ErrPagePinned), and
// addressing a page that is not resident (ErrPageNotFound).
var (
	// ErrOutOfMemory is returned when the pool cannot provide a frame
	// because every frame is pinned.
	ErrOutOfMemory = errors.New("bufferpool: out of memory, all frames pinned")
	// ErrPagePinned is returned when an operation that requires an unpinned
	// page (delete) is attempted on a pinned one.
	ErrPagePinned = errors.New("bufferpool: page is pinned")
	// ErrPageNotFound is returned when an operation addresses a page id
	// that is not currently resident in the pool.
	ErrPageNotFound = errors.New("bufferpool: page not resident")
)

const defaultPageTableBucketSize = 4

// Frame is one slot of the pool's fixed frame array: a page's bytes plus
// the metadata the pool uses to track its lifetime.
type Frame struct {
	PageID   common.PageID
	Data     []byte
	PinCount int
	Dirty    bool
}

// Pool is the buffer pool: a fixed-size frame array, a free list of
// frames holding no page, a page table mapping resident page ids to frame
// indices (via an extendible hash), and an LRU replacer over unpinned
// frames.
type Pool struct {
	mu        sync.Mutex
	frames    []Frame
	freeList  []int
	pageTable *extendiblehash.Table[common.PageID, int]
	replacer  *lru.Replacer[int]
	dm        *diskmanager.Manager
	sessionID uuid.UUID
	sid       string // short session id prefixing diagnostic lines

	hits, misses, evictions int64
}

// New creates a pool of poolSize frames backed by dm.
func New(poolSize int, dm *diskmanager.Manager) *Pool {
	frames := make([]Frame, poolSize)
	freeList := make([]int, poolSize)
	for i := range frames {
		frames[i].Data = make([]byte, common.PageSize)
		frames[i].PageID = common.InvalidPageID
		freeList[i] = poolSize - 1 - i
	}
	id := uuid.New()
	return &Pool{
		frames:    frames,
		freeList:  freeList,
		pageTable: extendiblehash.New[common.PageID, int](defaultPageTableBucketSize, fingerprintPageID),
		replacer:  lru.New[int](),
		dm:        dm,
		sessionID: id,
		sid:       id.String()[:8],
	}
}

func fingerprintPageID(id common.PageID) uint32 {
	var b [4]byte
	b[0] = byte(id)
	b[1] = byte(id >> 8)
	b[2] = byte(id >> 16)
	b[3] = byte(id >> 24)
	return common.Fingerprint(b[:])
}

// acquireFrame returns the index of a frame ready to take on a new page:
// preferring the free list, falling back to asking the replacer for a
// victim to evict. Callers must hold p.mu; acquireFrame is not itself
// synchronized — Fetch/New serialize all pool access.
func (p *Pool) acquireFrame() (int, error) {
	if n := len(p.freeList); n > 0 {
		idx := p.freeList[n-1]
		p.freeList = p.freeList[:n-1]
		return idx, nil
	}

	idx, ok := p.replacer.Victim()
	if !ok {
		return 0, ErrOutOfMemory
	}

	f := &p.frames[idx]
	fmt.Printf("[BufferPool %s] EVICT pageID=%d dirty=%v\n", p.sid, f.PageID, f.Dirty)
	if f.Dirty {
		if err := p.dm.WritePage(f.PageID, f.Data); err != nil {
			return 0, fmt.Errorf("bufferpool: evict page %d: %w", f.PageID, err)
		}
		f.Dirty = false
	}
	if f.PageID.IsValid() {
		p.pageTable.Remove(f.PageID)
	}
	p.evictions++
	return idx, nil
}

// Fetch returns the frame holding id, pinning it, loading it from disk
// first if it is not already resident. Returns ErrOutOfMemory if every
// frame is pinned and none can be evicted.
func (p *Pool) Fetch(id common.PageID) (*Frame, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if frameIdx, ok := p.pageTable.Find(id); ok {
		f := &p.frames[frameIdx]
		if f.PinCount == 0 {
			p.replacer.Erase(frameIdx)
		}
		f.PinCount++
		p.hits++
		fmt.Printf("[BufferPool %s] HIT  pageID=%d pinCount=%d\n", p.sid, id, f.PinCount)
		return f, nil
	}
	p.misses++
	fmt.Printf("[BufferPool %s] MISS pageID=%d, loading from disk\n", p.sid, id)

	frameIdx, err := p.acquireFrame()
	if err != nil {
		return nil, err
	}
	f := &p.frames[frameIdx]

	if err := p.dm.ReadPage(id, f.Data); err != nil {
		f.PageID = common.InvalidPageID
		p.freeList = append(p.freeList, frameIdx)
		return nil, fmt.Errorf("bufferpool: fetch page %d: %w", id, err)
	}
	f.PageID = id
	f.PinCount = 1
	f.Dirty = false
	p.pageTable.Insert(id, frameIdx)
	return f, nil
}

// New allocates a fresh page id via the disk manager and returns a pinned,
// zeroed frame for it.
func (p *Pool) New() (*Frame, common.PageID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	frameIdx, err := p.acquireFrame()
	if err != nil {
		return nil, common.InvalidPageID, err
	}

	id, err := p.dm.AllocatePage()
	if err != nil {
		p.freeList = append(p.freeList, frameIdx)
		return nil, common.InvalidPageID, fmt.Errorf("bufferpool: allocate page: %w", err)
	}

	f := &p.frames[frameIdx]
	for i := range f.Data {
		f.Data[i] = 0
	}
	f.PageID = id
	f.PinCount = 1
	f.Dirty = true
	p.pageTable.Insert(id, frameIdx)
	return f, id, nil
}

// Unpin decrements id's pin count, ORing wasDirty into the frame's dirty
// flag. Once the count reaches zero the frame becomes an eviction
// candidate again.
func (p *Pool) Unpin(id common.PageID, wasDirty bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	frameIdx, ok := p.pageTable.Find(id)
	if !ok {
		return fmt.Errorf("bufferpool: unpin page %d: %w", id, ErrPageNotFound)
	}
	f := &p.frames[frameIdx]
	if f.PinCount == 0 {
		return fmt.Errorf("bufferpool: unpin page %d: pin count is already zero", id)
	}

	f.PinCount--
	if wasDirty {
		f.Dirty = true
	}
	if f.PinCount == 0 {
		p.replacer.Touch(frameIdx)
	}
	return nil
}

// Flush writes id's frame to disk if dirty and clears the dirty flag.
func (p *Pool) Flush(id common.PageID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	frameIdx, ok := p.pageTable.Find(id)
	if !ok {
		return fmt.Errorf("bufferpool: flush page %d: %w", id, ErrPageNotFound)
	}
	f := &p.frames[frameIdx]
	if !f.Dirty {
		return nil
	}
	fmt.Printf("[BufferPool %s] FLUSH pageID=%d\n", p.sid, id)
	if err := p.dm.WritePage(id, f.Data); err != nil {
		return fmt.Errorf("bufferpool: flush page %d: %w", id, err)
	}
	f.Dirty = false
	return nil
}

// FlushAll writes every dirty resident page to disk.
func (p *Pool) FlushAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Printf("[BufferPool %s] FlushAll, pool size=%d\n", p.sid, len(p.frames))
	for i := range p.frames {
		f := &p.frames[i]
		if !f.PageID.IsValid() || !f.Dirty {
			continue
		}
		fmt.Printf("[BufferPool %s]   flushing pageID=%d\n", p.sid, f.PageID)
		if err := p.dm.WritePage(f.PageID, f.Data); err != nil {
			return fmt.Errorf("bufferpool: flush all, page %d: %w", f.PageID, err)
		}
		f.Dirty = false
	}
	return nil
}

// Delete removes id from the pool and returns its id to the disk manager's
// free list. Fails if the page is still pinned. A page that is not resident
// is left alone: Delete returns nil and does not deallocate its id.
func (p *Pool) Delete(id common.PageID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	frameIdx, ok := p.pageTable.Find(id)
	if !ok {
		return nil // already not resident
	}
	f := &p.frames[frameIdx]
	if f.PinCount > 0 {
		return fmt.Errorf("bufferpool: delete page %d: %w", id, ErrPagePinned)
	}

	p.pageTable.Remove(id)
	p.replacer.Erase(frameIdx)
	f.PageID = common.InvalidPageID
	f.Dirty = false
	p.freeList = append(p.freeList, frameIdx)

	return p.dm.DeallocatePage(id)
}

// MarkDirty flags a resident, currently-pinned page as dirty without
// changing its pin count — used by callers that mutate a frame's bytes in
// place after an earlier Fetch/New rather than going through Unpin.
func (p *Pool) MarkDirty(id common.PageID) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	frameIdx, ok := p.pageTable.Find(id)
	if !ok {
		return fmt.Errorf("bufferpool: mark dirty page %d: %w", id, ErrPageNotFound)
	}
	p.frames[frameIdx].Dirty = true
	return nil
}
