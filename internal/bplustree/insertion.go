package bplustree

import (
	"fmt"

	"TreeStore/internal/common"
)

// Insert adds (key, value) to the tree, reporting false without modifying
// anything if key is already present — duplicates are rejected, never
// overwritten.
func (t *Tree) Insert(key []byte, value common.RID) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.IsEmpty() {
		h, err := t.newNode(common.InvalidPageID, true)
		if err != nil {
			return false, fmt.Errorf("bplustree: insert: start new tree: %w", err)
		}
		h.node.asLeaf().insert(key, value, t.cmp)
		if err := t.release(h, true); err != nil {
			return false, err
		}
		return true, t.setRoot(h.node.PageID)
	}

	leaf, err := t.findLeaf(key, false)
	if err != nil {
		return false, err
	}
	if _, exists := leaf.node.asLeaf().lookup(key, t.cmp); exists {
		if err := t.release(leaf, false); err != nil {
			return false, err
		}
		return false, nil
	}

	leaf.node.asLeaf().insert(key, value, t.cmp)
	if !leaf.node.isOverfull() {
		return true, t.release(leaf, true)
	}

	sibling, err := t.newNode(leaf.node.ParentPageID, true)
	if err != nil {
		return false, fmt.Errorf("bplustree: insert: split leaf %d: %w", leaf.node.PageID, err)
	}
	leaf.node.asLeaf().moveHalfTo(sibling.node.asLeaf())
	sibling.node.NextPageID = leaf.node.NextPageID
	leaf.node.NextPageID = sibling.node.PageID
	sepKey := sibling.node.Keys[0]

	if err := t.insertIntoParent(leaf, sepKey, sibling); err != nil {
		return false, err
	}
	return true, nil
}

// insertIntoParent installs (sepKey, right) as a new separator/child pair in
// left's parent, allocating a new root if left had none, and recursing into
// a parent split if the parent overflows. It always consumes (flushes and
// unpins) both left and right, regardless of outcome.
func (t *Tree) insertIntoParent(left *nodeHandle, sepKey []byte, right *nodeHandle) error {
	if !left.node.ParentPageID.IsValid() {
		root, err := t.newNode(common.InvalidPageID, false)
		if err != nil {
			return fmt.Errorf("bplustree: insert: allocate new root: %w", err)
		}
		root.node.asInternal().populateNewRoot(left.node.PageID, sepKey, right.node.PageID)
		left.node.ParentPageID = root.node.PageID
		right.node.ParentPageID = root.node.PageID

		if err := t.release(left, true); err != nil {
			return err
		}
		if err := t.release(right, true); err != nil {
			return err
		}
		if err := t.release(root, true); err != nil {
			return err
		}
		return t.setRoot(root.node.PageID)
	}

	parent, err := t.fetchNode(left.node.ParentPageID)
	if err != nil {
		return err
	}
	parent.node.asInternal().insertAfter(left.node.PageID, sepKey, right.node.PageID)
	right.node.ParentPageID = parent.node.PageID

	if err := t.release(left, true); err != nil {
		return err
	}
	if err := t.release(right, true); err != nil {
		return err
	}

	if !parent.node.isOverfull() {
		return t.release(parent, true)
	}

	newRight, err := t.newNode(parent.node.ParentPageID, false)
	if err != nil {
		return fmt.Errorf("bplustree: insert: split internal %d: %w", parent.node.PageID, err)
	}
	promoted, movedChildren := parent.node.asInternal().moveHalfTo(newRight.node.asInternal())
	for _, childID := range movedChildren {
		if err := t.reparentChild(childID, newRight.node.PageID); err != nil {
			return err
		}
	}
	return t.insertIntoParent(parent, promoted, newRight)
}

// reparentChild fetches childID, rewrites its parent pointer, and releases
// it dirty — required whenever an entry whose value is a child page id is
// relocated to a different parent node.
func (t *Tree) reparentChild(childID common.PageID, newParentID common.PageID) error {
	h, err := t.fetchNode(childID)
	if err != nil {
		return fmt.Errorf("bplustree: reparent child %d: %w", childID, err)
	}
	h.node.ParentPageID = newParentID
	return t.release(h, true)
}
