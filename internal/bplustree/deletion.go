package bplustree

import (
	"fmt"

	"TreeStore/internal/common"
)

// Remove deletes key from the tree. A missing key or an empty tree is a
// silent no-op, not an error.
func (t *Tree) Remove(key []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.IsEmpty() {
		return nil
	}
	leaf, err := t.findLeaf(key, false)
	if err != nil {
		return err
	}

	oldSize := leaf.node.size()
	newSize := leaf.node.asLeaf().remove(key, t.cmp)
	if newSize == oldSize {
		return t.release(leaf, false)
	}

	if leaf.node.PageID == t.rootID {
		// A root leaf never coalesces or redistributes, even if the removal
		// leaves it underfull or empty; the next Insert repopulates it.
		return t.release(leaf, true)
	}
	if leaf.node.isUnderfull() {
		return t.coalesceOrRedistribute(leaf)
	}
	return t.release(leaf, true)
}

// coalesceOrRedistribute restores node's min-size invariant by borrowing an
// entry from an adjacent sibling (redistribute) or merging with one
// (coalesce), recursing up the tree if the parent itself becomes underfull.
// It always consumes node.
func (t *Tree) coalesceOrRedistribute(node *nodeHandle) error {
	parent, err := t.fetchNode(node.node.ParentPageID)
	if err != nil {
		return fmt.Errorf("bplustree: coalesce: fetch parent of %d: %w", node.node.PageID, err)
	}
	idx := parent.node.asInternal().valueIndex(node.node.PageID)
	isSiblingLeft := idx == parent.node.size()-1

	siblingIdx := idx + 1
	if isSiblingLeft {
		siblingIdx = idx - 1
	}
	sibling, err := t.fetchNode(parent.node.Children[siblingIdx])
	if err != nil {
		return fmt.Errorf("bplustree: coalesce: fetch sibling of %d: %w", node.node.PageID, err)
	}

	if node.node.size()+sibling.node.size() > node.node.MaxSize {
		return t.redistribute(node, sibling, parent, idx, siblingIdx, isSiblingLeft)
	}
	return t.coalesce(node, sibling, parent, idx, siblingIdx, isSiblingLeft)
}

// redistribute moves exactly one entry across the node/sibling boundary to
// bring node back up to min size. The parent separator at the crossing
// point always becomes the first key of whichever node ends up on the
// right after the move.
func (t *Tree) redistribute(node, sibling, parent *nodeHandle, idx, siblingIdx int, isSiblingLeft bool) error {
	if node.node.Type == Leaf {
		if isSiblingLeft {
			moved := sibling.node.asLeaf().moveLastToFrontOf(node.node.asLeaf())
			parent.node.Keys[idx] = moved
		} else {
			moved := sibling.node.asLeaf().moveFirstToEndOf(node.node.asLeaf())
			parent.node.Keys[siblingIdx] = moved
		}
	} else {
		if isSiblingLeft {
			movedChild, newSep := sibling.node.asInternal().moveLastToFrontOf(node.node.asInternal(), parent.node.Keys[idx])
			parent.node.Keys[idx] = newSep
			if err := t.reparentChild(movedChild, node.node.PageID); err != nil {
				return err
			}
		} else {
			movedChild, newSep := sibling.node.asInternal().moveFirstToEndOf(node.node.asInternal(), parent.node.Keys[siblingIdx])
			parent.node.Keys[siblingIdx] = newSep
			if err := t.reparentChild(movedChild, node.node.PageID); err != nil {
				return err
			}
		}
	}
	if err := t.release(sibling, true); err != nil {
		return err
	}
	if err := t.release(node, true); err != nil {
		return err
	}
	return t.release(parent, true)
}

// coalesce merges node and sibling into whichever of the two sits on the
// left, deletes the emptied right-hand page, drops the separator the merge
// consumed from the parent, and recurses upward if the parent is now
// underfull itself (collapsing the root if it drops to a single child).
func (t *Tree) coalesce(node, sibling, parent *nodeHandle, idx, siblingIdx int, isSiblingLeft bool) error {
	leftH, rightH, rightIdx := node, sibling, siblingIdx
	if isSiblingLeft {
		leftH, rightH, rightIdx = sibling, node, idx
	}

	if node.node.Type == Leaf {
		rightH.node.asLeaf().moveAllTo(leftH.node.asLeaf())
	} else {
		parentSepKey := parent.node.Keys[rightIdx]
		movedChildren := rightH.node.asInternal().moveAllTo(leftH.node.asInternal(), parentSepKey)
		for _, childID := range movedChildren {
			if err := t.reparentChild(childID, leftH.node.PageID); err != nil {
				return err
			}
		}
	}
	parent.node.asInternal().removeAtIndex(rightIdx)

	deletedID := rightH.node.PageID
	if err := t.bpm.Unpin(deletedID, false); err != nil {
		return fmt.Errorf("bplustree: coalesce: unpin emptied page %d: %w", deletedID, err)
	}
	if err := t.deletePage(deletedID); err != nil {
		return fmt.Errorf("bplustree: coalesce: delete emptied page %d: %w", deletedID, err)
	}
	if err := t.release(leftH, true); err != nil {
		return err
	}

	if parent.node.PageID == t.rootID {
		return t.collapseRootIfSingleChild(parent)
	}
	if parent.node.isUnderfull() {
		return t.coalesceOrRedistribute(parent)
	}
	return t.release(parent, true)
}

// collapseRootIfSingleChild handles the root shrinking away: once an
// internal root drops to a single child (size == 1, the sentinel entry
// alone), that child becomes the new root and the old root page is
// discarded.
func (t *Tree) collapseRootIfSingleChild(root *nodeHandle) error {
	if root.node.size() != 1 {
		return t.release(root, true)
	}
	remainingChild := root.node.Children[0]
	child, err := t.fetchNode(remainingChild)
	if err != nil {
		return fmt.Errorf("bplustree: collapse root: fetch remaining child: %w", err)
	}
	child.node.ParentPageID = common.InvalidPageID
	if err := t.release(child, true); err != nil {
		return err
	}

	oldRootID := root.node.PageID
	if err := t.bpm.Unpin(oldRootID, false); err != nil {
		return fmt.Errorf("bplustree: collapse root: unpin old root %d: %w", oldRootID, err)
	}
	if err := t.deletePage(oldRootID); err != nil {
		return fmt.Errorf("bplustree: collapse root: delete old root %d: %w", oldRootID, err)
	}
	return t.setRoot(remainingChild)
}
