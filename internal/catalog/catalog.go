// Package catalog implements the header-page directory: index name ->
// root page id, persisted on page 0 of the data file. The B+ tree talks
// to it only through bplustree.Open's onRootChange hook, so the tree never
// depends on the catalog's layout.
package catalog

import (
	"encoding/binary"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/sony/sonyflake"

	"TreeStore/internal/bufferpool"
	"TreeStore/internal/common"
)

const (
	nameSize   = 32               // null-padded index name
	entrySize  = nameSize + 4 + 8 // name + root page id + sonyflake index id
	headerSize = 4                // entry count
)

// MaxEntries is the number of index registrations that fit on the single
// catalog page (page id 0).
var MaxEntries = (common.PageSize - headerSize) / entrySize

type record struct {
	name    string
	root    common.PageID
	indexID uint64
}

// Catalog is the index-name -> root-page-id directory living on page 0.
type Catalog struct {
	mu      sync.Mutex
	bpm     *bufferpool.Pool
	flake   *sonyflake.Sonyflake
	records []record
}

// Open reads the catalog page (id 0, reserved by diskmanager.Open) and
// returns a Catalog backed by bpm.
func Open(bpm *bufferpool.Pool) (*Catalog, error) {
	f, err := bpm.Fetch(0)
	if err != nil {
		return nil, fmt.Errorf("catalog: fetch page 0: %w", err)
	}
	records, err := decode(f.Data)
	if err != nil {
		_ = bpm.Unpin(0, false)
		return nil, err
	}
	if err := bpm.Unpin(0, false); err != nil {
		return nil, fmt.Errorf("catalog: unpin page 0: %w", err)
	}

	return &Catalog{
		bpm:     bpm,
		flake:   sonyflake.NewSonyflake(sonyflake.Settings{StartTime: time.Now()}),
		records: records,
	}, nil
}

func decode(buf []byte) ([]record, error) {
	n := int(binary.LittleEndian.Uint32(buf[0:]))
	if n > MaxEntries {
		return nil, fmt.Errorf("catalog: page 0 reports %d entries, max is %d", n, MaxEntries)
	}
	out := make([]record, 0, n)
	for i := 0; i < n; i++ {
		off := headerSize + i*entrySize
		nameBytes := buf[off : off+nameSize]
		end := 0
		for end < len(nameBytes) && nameBytes[end] != 0 {
			end++
		}
		root := common.PageID(binary.LittleEndian.Uint32(buf[off+nameSize:]))
		idx := binary.LittleEndian.Uint64(buf[off+nameSize+4:])
		out = append(out, record{name: string(nameBytes[:end]), root: root, indexID: idx})
	}
	return out, nil
}

func (c *Catalog) encode(buf []byte) error {
	if len(c.records) > MaxEntries {
		return fmt.Errorf("catalog: %d registrations exceed page capacity %d", len(c.records), MaxEntries)
	}
	for i := range buf {
		buf[i] = 0
	}
	binary.LittleEndian.PutUint32(buf[0:], uint32(len(c.records)))
	for i, r := range c.records {
		if len(r.name) > nameSize {
			return fmt.Errorf("catalog: index name %q exceeds %d bytes", r.name, nameSize)
		}
		off := headerSize + i*entrySize
		copy(buf[off:off+nameSize], r.name)
		binary.LittleEndian.PutUint32(buf[off+nameSize:], uint32(r.root))
		binary.LittleEndian.PutUint64(buf[off+nameSize+4:], r.indexID)
	}
	return nil
}

func (c *Catalog) persist() error {
	f, err := c.bpm.Fetch(0)
	if err != nil {
		return fmt.Errorf("catalog: fetch page 0: %w", err)
	}
	if err := c.encode(f.Data); err != nil {
		_ = c.bpm.Unpin(0, false)
		return err
	}
	return c.bpm.Unpin(0, true)
}

func (c *Catalog) indexOf(name string) int {
	for i, r := range c.records {
		if r.name == name {
			return i
		}
	}
	return -1
}

// InsertRecord registers a new index name with the given root page id,
// failing if name is already registered. It assigns and returns a
// sonyflake-generated IndexID, stable across later root-page churn, that
// callers can use as an identifier independent of the tree's physical
// layout.
func (c *Catalog) InsertRecord(name string, root common.PageID) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.indexOf(name) >= 0 {
		return 0, fmt.Errorf("catalog: index %q already registered", name)
	}
	if len(c.records) >= MaxEntries {
		return 0, fmt.Errorf("catalog: page 0 is full (%d entries)", MaxEntries)
	}
	id, err := c.flake.NextID()
	if err != nil {
		return 0, fmt.Errorf("catalog: generate index id: %w", err)
	}

	c.records = append(c.records, record{name: name, root: root, indexID: id})
	if err := c.persist(); err != nil {
		c.records = c.records[:len(c.records)-1]
		return 0, err
	}
	log.Printf("catalog: registered index %q root=%d id=%d", name, root, id)
	return id, nil
}

// UpdateRecord rewrites name's root page id, e.g. after the tree's root
// changes because of a split or a root collapse.
func (c *Catalog) UpdateRecord(name string, root common.PageID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(name)
	if i < 0 {
		return fmt.Errorf("catalog: index %q not registered", name)
	}
	c.records[i].root = root
	return c.persist()
}

// GetRoot returns the root page id registered for name.
func (c *Catalog) GetRoot(name string) (common.PageID, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(name)
	if i < 0 {
		return common.InvalidPageID, false
	}
	return c.records[i].root, true
}

// IndexID returns the sonyflake id assigned to name at registration.
func (c *Catalog) IndexID(name string) (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(name)
	if i < 0 {
		return 0, false
	}
	return c.records[i].indexID, true
}

// OnRootChange returns a closure bound to name, suitable for
// bplustree.Open's onRootChange parameter.
func (c *Catalog) OnRootChange(name string) func(common.PageID) error {
	return func(id common.PageID) error {
		return c.UpdateRecord(name, id)
	}
}
