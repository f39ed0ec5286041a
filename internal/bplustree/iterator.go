package bplustree

import "TreeStore/internal/common"

// Iterator is a finite forward sequence over a leaf chain, holding at most
// one leaf page pinned at a time. Advancing past a leaf's last entry unpins
// it and fetches NextPageID, if any. The zero value is not usable; only
// iterators returned by Tree.Begin/BeginAt are.
type Iterator struct {
	tree *Tree
	leaf *nodeHandle
	idx  int
}

// Begin returns an iterator positioned at the first entry of the tree's
// leftmost leaf.
func (t *Tree) Begin() (*Iterator, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.IsEmpty() {
		return &Iterator{tree: t}, nil
	}
	leaf, err := t.findLeaf(nil, true)
	if err != nil {
		return nil, err
	}
	return &Iterator{tree: t, leaf: leaf}, nil
}

// BeginAt returns an iterator positioned at the first entry with a key
// greater than or equal to key.
func (t *Tree) BeginAt(key []byte) (*Iterator, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.IsEmpty() {
		return &Iterator{tree: t}, nil
	}
	leaf, err := t.findLeaf(key, false)
	if err != nil {
		return nil, err
	}
	idx := keyIndex(leaf.node.Keys, key, t.cmp)
	it := &Iterator{tree: t, leaf: leaf, idx: idx}
	if idx >= leaf.node.size() {
		if err := it.advanceLeaf(); err != nil {
			return nil, err
		}
	}
	return it, nil
}

// Valid reports whether the iterator is positioned at an entry.
func (it *Iterator) Valid() bool {
	return it.leaf != nil && it.idx < it.leaf.node.size()
}

// Key returns the current entry's key. Only valid when Valid() is true.
func (it *Iterator) Key() []byte {
	return it.leaf.node.Keys[it.idx]
}

// Value returns the current entry's RID. Only valid when Valid() is true.
func (it *Iterator) Value() common.RID {
	return it.leaf.node.RIDs[it.idx]
}

// Next advances to the following entry, crossing into the sibling leaf via
// NextPageID as needed. It returns false (and releases the iterator's pin)
// once the sequence is exhausted.
func (it *Iterator) Next() (bool, error) {
	if !it.Valid() {
		return false, nil
	}
	it.idx++
	if it.idx < it.leaf.node.size() {
		return true, nil
	}

	it.tree.mu.Lock()
	err := it.advanceLeaf()
	it.tree.mu.Unlock()
	if err != nil {
		return false, err
	}
	return it.Valid(), nil
}

// advanceLeaf releases the current leaf and fetches its right sibling, if
// any, positioning idx at its first entry. Callers hold the tree's mutex.
func (it *Iterator) advanceLeaf() error {
	next := it.leaf.node.NextPageID
	if err := it.tree.release(it.leaf, false); err != nil {
		return err
	}
	it.leaf = nil
	it.idx = 0
	if !next.IsValid() {
		return nil
	}
	h, err := it.tree.fetchNode(next)
	if err != nil {
		return err
	}
	it.leaf = h
	return nil
}

// Close releases the leaf the iterator currently holds pinned, if any. It
// must be called whenever a caller stops consuming an iterator before it is
// exhausted, to avoid leaking a pin.
func (it *Iterator) Close() error {
	if it.leaf == nil {
		return nil
	}
	it.tree.mu.Lock()
	defer it.tree.mu.Unlock()

	err := it.tree.release(it.leaf, false)
	it.leaf = nil
	return err
}
