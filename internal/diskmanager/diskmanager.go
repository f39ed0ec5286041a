// Package diskmanager performs raw page I/O against a single data file:
// allocating and deallocating page ids and reading/writing fixed-size page
// frames at their corresponding file offset.
package diskmanager

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"TreeStore/internal/common"
)

// Manager owns one open data file and the page-id space within it.
// Page id 0 is reserved for the catalog/header page (see internal/catalog)
// and is allocated automatically when a new file is created.
type Manager struct {
	mu         sync.RWMutex
	file       *os.File
	path       string
	nextPageID common.PageID
	freeList   []common.PageID
}

// Open opens path, creating it (and reserving page 0 for the catalog) if it
// does not exist. The file is advisory-locked for exclusive access for the
// lifetime of the Manager; see lock_unix.go / lock_other.go.
func Open(path string) (*Manager, error) {
	_, statErr := os.Stat(path)
	isNew := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("diskmanager: open %s: %w", path, err)
	}

	if err := lockExclusive(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("diskmanager: lock %s: %w", path, err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("diskmanager: stat %s: %w", path, err)
	}

	dm := &Manager{
		file:       f,
		path:       path,
		nextPageID: common.PageID(stat.Size() / common.PageSize),
	}

	if isNew {
		if _, err := dm.AllocatePage(); err != nil {
			f.Close()
			return nil, fmt.Errorf("diskmanager: reserve catalog page: %w", err)
		}
	}
	fmt.Printf("[DiskManager] Open path=%s pages=%d new=%v\n", path, dm.nextPageID, isNew)

	return dm, nil
}

// ReadPage reads PageSize bytes for id into buf, which must have length
// common.PageSize. A page that was allocated but never written lies past
// the file's end (or in a hole); reads there come back zero-filled rather
// than failing.
func (dm *Manager) ReadPage(id common.PageID, buf []byte) error {
	if len(buf) != common.PageSize {
		return fmt.Errorf("diskmanager: read buffer must be %d bytes, got %d", common.PageSize, len(buf))
	}
	dm.mu.RLock()
	defer dm.mu.RUnlock()

	offset := int64(id) * common.PageSize
	n, err := dm.file.ReadAt(buf, offset)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("diskmanager: read page %d: %w", id, err)
	}
	for i := n; i < len(buf); i++ {
		buf[i] = 0
	}
	return nil
}

// WritePage writes buf (which must have length common.PageSize) to id's
// offset in the file.
func (dm *Manager) WritePage(id common.PageID, buf []byte) error {
	if len(buf) != common.PageSize {
		return fmt.Errorf("diskmanager: write buffer must be %d bytes, got %d", common.PageSize, len(buf))
	}
	dm.mu.Lock()
	defer dm.mu.Unlock()

	offset := int64(id) * common.PageSize
	if _, err := dm.file.WriteAt(buf, offset); err != nil {
		return fmt.Errorf("diskmanager: write page %d: %w", id, err)
	}
	return nil
}

// AllocatePage reserves a fresh page id, preferring a deallocated id from
// the free list over growing the file. It does not write anything to
// disk — the buffer pool zeroes and flushes the frame when convenient.
func (dm *Manager) AllocatePage() (common.PageID, error) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if n := len(dm.freeList); n > 0 {
		id := dm.freeList[n-1]
		dm.freeList = dm.freeList[:n-1]
		return id, nil
	}

	id := dm.nextPageID
	dm.nextPageID++
	return id, nil
}

// DeallocatePage returns id to the free list for future reuse. The caller
// (the buffer pool) is responsible for ensuring the page is unpinned and
// already removed from the page table before calling this.
func (dm *Manager) DeallocatePage(id common.PageID) error {
	if !id.IsValid() {
		return fmt.Errorf("diskmanager: cannot deallocate invalid page id")
	}
	dm.mu.Lock()
	defer dm.mu.Unlock()
	dm.freeList = append(dm.freeList, id)
	return nil
}

// Sync flushes the data file to stable storage.
func (dm *Manager) Sync() error {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return syncData(dm.file)
}

// Close syncs and closes the underlying file, releasing its lock.
func (dm *Manager) Close() error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if err := dm.file.Sync(); err != nil {
		dm.file.Close()
		return fmt.Errorf("diskmanager: sync on close: %w", err)
	}
	return dm.file.Close()
}

// Path returns the data file's path on disk.
func (dm *Manager) Path() string { return dm.path }

// Size returns the total number of allocated pages, including freed ones
// still counted against the file's extent.
func (dm *Manager) Size() int64 {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return int64(dm.nextPageID)
}
