// Package bplustree implements a B+ tree index over pages borrowed from a
// bufferpool.Pool: keys stored in sort order across a forest of internal
// and leaf pages linked into a tree, with insertion/split and
// deletion/merge-or-redistribute.
package bplustree

import (
	"encoding/binary"
	"fmt"

	"TreeStore/internal/common"
)

// NodeType distinguishes a page's role in the tree. The numeric values
// match the on-disk page_type field.
type NodeType uint32

const (
	// Internal pages hold separator keys and child page ids.
	Internal NodeType = 1
	// Leaf pages hold keys and record ids, linked via NextPageID.
	Leaf NodeType = 2
)

func (t NodeType) String() string {
	if t == Leaf {
		return "LEAF"
	}
	return "INTERNAL"
}

const (
	headerSize     = 20             // page_type, size, max_size, parent_page_id, page_id
	leafHeaderSize = headerSize + 4 // + next_page_id

	leafEntrySize     = common.KeySize + 8 // key + RID{PageID(4) Slot(4)}
	internalEntrySize = common.KeySize + 4 // key + child PageID(4)
)

// LeafMaxSize returns the number of entries that fit in one leaf page
// after its header, derived from common.PageSize and common.KeySize.
func LeafMaxSize() int {
	return (common.PageSize - leafHeaderSize) / leafEntrySize
}

// InternalMaxSize returns the number of entries (sentinel included) that
// fit in one internal page after its header.
func InternalMaxSize() int {
	return (common.PageSize - headerSize) / internalEntrySize
}

// MinSize is the ceil(max/2) occupancy floor every non-root node must
// keep, leaf or internal (the internal count includes the sentinel entry
// at index 0, so the arithmetic is the same for both kinds).
func MinSize(maxSize int) int {
	return (maxSize + 1) / 2
}

// node is the decoded, in-memory form of one B+ tree page. A node is only
// ever reached by fetching its page through a bufferpool.Pool; callers use
// the nodeHandle wrapper (see tree.go) to keep decode/encode next to the
// pin that backs it.
type node struct {
	PageID       common.PageID
	ParentPageID common.PageID
	Type         NodeType
	MaxSize      int

	Keys [][]byte // len == size for both node kinds

	// Leaf-only.
	RIDs       []common.RID
	NextPageID common.PageID

	// Internal-only. Children[i] is entry i's child page id; Keys[0] is
	// the unused sentinel.
	Children []common.PageID
}

// leafNode and internalNode give each page kind its own method set over
// the shared decoded form; tree code converts with asLeaf/asInternal after
// checking Type.
type leafNode struct{ *node }

type internalNode struct{ *node }

func (n *node) asLeaf() leafNode { return leafNode{n} }

func (n *node) asInternal() internalNode { return internalNode{n} }

func newLeafNode(pageID, parentID common.PageID) *node {
	return &node{
		PageID:       pageID,
		ParentPageID: parentID,
		Type:         Leaf,
		MaxSize:      LeafMaxSize(),
		NextPageID:   common.InvalidPageID,
	}
}

func newInternalNode(pageID, parentID common.PageID) *node {
	return &node{
		PageID:       pageID,
		ParentPageID: parentID,
		Type:         Internal,
		MaxSize:      InternalMaxSize(),
	}
}

func (n *node) size() int { return len(n.Keys) }

func (n *node) minSize() int { return MinSize(n.MaxSize) }

func (n *node) isOverfull() bool { return n.size() > n.MaxSize }

func (n *node) isUnderfull() bool { return n.size() < n.minSize() }

// encode serializes n into buf, which must be common.PageSize bytes.
func (n *node) encode(buf []byte) error {
	if len(buf) != common.PageSize {
		return fmt.Errorf("bplustree: encode buffer must be %d bytes", common.PageSize)
	}

	binary.LittleEndian.PutUint32(buf[0:], uint32(n.Type))
	binary.LittleEndian.PutUint32(buf[4:], uint32(n.size()))
	binary.LittleEndian.PutUint32(buf[8:], uint32(n.MaxSize))
	binary.LittleEndian.PutUint32(buf[12:], uint32(n.ParentPageID))
	binary.LittleEndian.PutUint32(buf[16:], uint32(n.PageID))

	offset := headerSize
	if n.Type == Leaf {
		binary.LittleEndian.PutUint32(buf[20:], uint32(n.NextPageID))
		offset = leafHeaderSize
	}

	for i, key := range n.Keys {
		if len(key) != common.KeySize {
			return fmt.Errorf("bplustree: key %d has length %d, want %d", i, len(key), common.KeySize)
		}
		entryOff := offset + i*entrySizeFor(n.Type)
		copy(buf[entryOff:], key)
		valOff := entryOff + common.KeySize
		if n.Type == Leaf {
			binary.LittleEndian.PutUint32(buf[valOff:], uint32(n.RIDs[i].PageID))
			binary.LittleEndian.PutUint32(buf[valOff+4:], n.RIDs[i].Slot)
		} else {
			binary.LittleEndian.PutUint32(buf[valOff:], uint32(n.Children[i]))
		}
	}
	return nil
}

func entrySizeFor(t NodeType) int {
	if t == Leaf {
		return leafEntrySize
	}
	return internalEntrySize
}

// decodeNode reads a node out of a page's raw bytes.
func decodeNode(buf []byte) (*node, error) {
	if len(buf) != common.PageSize {
		return nil, fmt.Errorf("bplustree: decode buffer must be %d bytes", common.PageSize)
	}

	n := &node{
		Type:         NodeType(binary.LittleEndian.Uint32(buf[0:])),
		ParentPageID: common.PageID(binary.LittleEndian.Uint32(buf[12:])),
		PageID:       common.PageID(binary.LittleEndian.Uint32(buf[16:])),
	}
	size := int(binary.LittleEndian.Uint32(buf[4:]))
	n.MaxSize = int(binary.LittleEndian.Uint32(buf[8:]))

	if n.Type != Internal && n.Type != Leaf {
		return nil, fmt.Errorf("bplustree: unknown page_type %d", n.Type)
	}

	offset := headerSize
	if n.Type == Leaf {
		n.NextPageID = common.PageID(binary.LittleEndian.Uint32(buf[20:]))
		offset = leafHeaderSize
	}

	n.Keys = make([][]byte, size)
	if n.Type == Leaf {
		n.RIDs = make([]common.RID, size)
	} else {
		n.Children = make([]common.PageID, size)
	}

	entrySize := entrySizeFor(n.Type)
	for i := 0; i < size; i++ {
		entryOff := offset + i*entrySize
		key := make([]byte, common.KeySize)
		copy(key, buf[entryOff:entryOff+common.KeySize])
		n.Keys[i] = key

		valOff := entryOff + common.KeySize
		if n.Type == Leaf {
			n.RIDs[i] = common.RID{
				PageID: common.PageID(binary.LittleEndian.Uint32(buf[valOff:])),
				Slot:   binary.LittleEndian.Uint32(buf[valOff+4:]),
			}
		} else {
			n.Children[i] = common.PageID(binary.LittleEndian.Uint32(buf[valOff:]))
		}
	}

	return n, nil
}
