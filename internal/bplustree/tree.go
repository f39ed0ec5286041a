package bplustree

import (
	"fmt"
	"sync"

	"github.com/dgraph-io/ristretto/v2"

	"TreeStore/internal/bufferpool"
	"TreeStore/internal/common"
)

// Tree is a B+ tree index over pages borrowed from a bufferpool.Pool. All
// operations are serialized by mu — a coarse lock rather than latch
// crabbing, so the tree itself never holds two conflicting writers.
type Tree struct {
	mu sync.Mutex

	bpm     *bufferpool.Pool
	cmp     common.Comparator
	rootID  common.PageID
	rootPtr func(common.PageID) error // persists a new root id, supplied by catalog

	// decoded holds already-decoded nodes keyed by page id, so an iterator
	// or a repeated lookup that walks the same leaf doesn't pay decodeNode's
	// cost on every fetch. Entries are the live *node the tree mutates in
	// place, so reads stay consistent without explicit invalidation; the
	// only place staleness could creep in is a page id getting reused after
	// delete, which deletePage guards against.
	decoded *ristretto.Cache[uint32, *node]
}

// Open constructs a tree rooted at rootID (common.InvalidPageID for a brand
// new, empty index) backed by bpm. onRootChange is called whenever the root
// page id changes, so a catalog page can persist it.
func Open(bpm *bufferpool.Pool, cmp common.Comparator, rootID common.PageID, onRootChange func(common.PageID) error) *Tree {
	if onRootChange == nil {
		onRootChange = func(common.PageID) error { return nil }
	}
	cache, err := ristretto.NewCache(&ristretto.Config[uint32, *node]{
		NumCounters: 10_000,
		MaxCost:     1 << 16,
		BufferItems: 64,
	})
	if err != nil {
		// A cache that fails to construct only costs us the decode
		// shortcut, never correctness: fall through with caching disabled.
		cache = nil
	}
	return &Tree{bpm: bpm, cmp: cmp, rootID: rootID, rootPtr: onRootChange, decoded: cache}
}

// RootPageID returns the tree's current root page id, or
// common.InvalidPageID if the tree is empty.
func (t *Tree) RootPageID() common.PageID {
	return t.rootID
}

func (t *Tree) IsEmpty() bool {
	return !t.rootID.IsValid()
}

// nodeHandle pairs a decoded node with the pinned frame it was decoded
// from, so a caller always has both in hand and can never forget which
// page an unpin belongs to.
type nodeHandle struct {
	frame *bufferpool.Frame
	node  *node
}

// fetchNode pins pageID, decodes it (or reuses a cached decode), and
// returns the paired handle.
func (t *Tree) fetchNode(pageID common.PageID) (*nodeHandle, error) {
	f, err := t.bpm.Fetch(pageID)
	if err != nil {
		return nil, fmt.Errorf("bplustree: fetch node %d: %w", pageID, err)
	}

	if t.decoded != nil {
		if n, ok := t.decoded.Get(uint32(pageID)); ok {
			return &nodeHandle{frame: f, node: n}, nil
		}
	}

	n, err := decodeNode(f.Data)
	if err != nil {
		_ = t.bpm.Unpin(pageID, false)
		return nil, fmt.Errorf("bplustree: decode node %d: %w", pageID, err)
	}
	if t.decoded != nil {
		t.decoded.Set(uint32(pageID), n, 1)
		t.decoded.Wait()
	}
	return &nodeHandle{frame: f, node: n}, nil
}

// deletePage removes pageID from the buffer pool and drops any cached
// decode for it, so a later page-id reuse by the disk manager never returns
// a stale node for the wrong page.
func (t *Tree) deletePage(pageID common.PageID) error {
	if t.decoded != nil {
		t.decoded.Del(uint32(pageID))
	}
	return t.bpm.Delete(pageID)
}

// newNode allocates a fresh page, wraps it as a leaf or internal node
// depending on asLeaf, and returns the paired handle. The caller still
// owns the pin and must release it.
func (t *Tree) newNode(parentID common.PageID, asLeaf bool) (*nodeHandle, error) {
	f, id, err := t.bpm.New()
	if err != nil {
		return nil, fmt.Errorf("bplustree: allocate node: %w", err)
	}
	var n *node
	if asLeaf {
		n = newLeafNode(id, parentID)
	} else {
		n = newInternalNode(id, parentID)
	}
	if t.decoded != nil {
		t.decoded.Set(uint32(id), n, 1)
		t.decoded.Wait()
	}
	return &nodeHandle{frame: f, node: n}, nil
}

// flush re-encodes h.node into its frame's bytes. Callers call this before
// release whenever they mutated the node.
func (h *nodeHandle) flush() error {
	return h.node.encode(h.frame.Data)
}

// release flushes (if dirty) and unpins h's page, in one step so every
// call site that is done with a handle does exactly one matched unpin.
func (t *Tree) release(h *nodeHandle, dirty bool) error {
	if dirty {
		if err := h.flush(); err != nil {
			return err
		}
	}
	return t.bpm.Unpin(h.node.PageID, dirty)
}

// findLeaf descends from the root to the leaf that would contain key,
// pinning only the leaf on return: at each level it fetches the child
// before unpinning the clean parent, so no two levels stay pinned longer
// than the hand-over takes. If leftmost is true the descent always takes
// child 0, ignoring key — used by the iterator's Begin() with no lower
// bound.
func (t *Tree) findLeaf(key []byte, leftmost bool) (*nodeHandle, error) {
	cur, err := t.fetchNode(t.rootID)
	if err != nil {
		return nil, err
	}
	for cur.node.Type == Internal {
		var childID common.PageID
		if leftmost {
			childID = cur.node.Children[0]
		} else {
			childID = cur.node.asInternal().lookup(key, t.cmp)
		}
		child, err := t.fetchNode(childID)
		if relErr := t.release(cur, false); relErr != nil && err == nil {
			err = relErr
		}
		if err != nil {
			return nil, err
		}
		cur = child
	}
	return cur, nil
}

// GetValue looks up key and reports whether it is present.
func (t *Tree) GetValue(key []byte) (common.RID, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.IsEmpty() {
		return common.RID{}, false, nil
	}
	leaf, err := t.findLeaf(key, false)
	if err != nil {
		return common.RID{}, false, err
	}
	rid, ok := leaf.node.asLeaf().lookup(key, t.cmp)
	if err := t.release(leaf, false); err != nil {
		return common.RID{}, false, err
	}
	return rid, ok, nil
}

func (t *Tree) setRoot(id common.PageID) error {
	t.rootID = id
	return t.rootPtr(id)
}
