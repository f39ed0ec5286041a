package bplustree

import "TreeStore/internal/common"

// lookup returns the child page id to descend into for key. Entry 0's key
// is the unused sentinel: the search only ever compares against Keys[1:].
func (n internalNode) lookup(key []byte, cmp common.Comparator) common.PageID {
	lo, hi := 1, n.size()
	for lo < hi {
		mid := lo + (hi-lo)/2
		if cmp(n.Keys[mid], key) <= 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return n.Children[lo-1]
}

// valueIndex returns the index of the entry whose child is childID, or -1.
func (n internalNode) valueIndex(childID common.PageID) int {
	for i, c := range n.Children {
		if c == childID {
			return i
		}
	}
	return -1
}

// populateNewRoot initializes a freshly allocated internal page as a root
// with exactly two children separated by sepKey.
func (n internalNode) populateNewRoot(left common.PageID, sepKey []byte, right common.PageID) {
	n.Keys = [][]byte{make([]byte, common.KeySize), sepKey} // index 0 is the sentinel
	n.Children = []common.PageID{left, right}
}

// insertAfter inserts (newKey, newValue) immediately after the entry whose
// value is oldValue. Returns the node's new size.
func (n internalNode) insertAfter(oldValue common.PageID, newKey []byte, newValue common.PageID) int {
	idx := n.valueIndex(oldValue)
	n.Keys = insertAt(n.Keys, idx+1, newKey)
	n.Children = insertAt(n.Children, idx+1, newValue)
	return n.size()
}

// removeAtIndex deletes the entry at index, used to drop a separator/child
// pair during coalesce.
func (n internalNode) removeAtIndex(index int) int {
	n.Keys = removeAt(n.Keys, index)
	n.Children = removeAt(n.Children, index)
	return n.size()
}

// moveHalfTo performs a ceiling split for internal nodes. The median
// entry's key is lifted to the caller (it becomes the parent separator);
// everything at and after the median goes to recipient, with the median's
// own child becoming recipient's sentinel slot. Returns the promoted key
// and the child ids that moved (for parent-pointer maintenance).
func (n internalNode) moveHalfTo(recipient internalNode) (promoted []byte, movedChildren []common.PageID) {
	mid := n.size() / 2
	promoted = n.Keys[mid]

	recipient.Keys = append(recipient.Keys, n.Keys[mid:]...)
	recipient.Keys[0] = make([]byte, common.KeySize) // new sentinel, promoted key lifted out
	recipient.Children = append(recipient.Children, n.Children[mid:]...)

	movedChildren = append(movedChildren, recipient.Children...)

	n.Keys = n.Keys[:mid]
	n.Children = n.Children[:mid]
	return promoted, movedChildren
}

// moveAllTo appends every entry of n, plus the separator that used to
// bound it in the parent, to recipient — used when coalescing n into its
// left sibling. parentSepKey is pulled down to become the key carried at
// the junction, replacing n's sentinel. Returns the child ids that moved.
func (n internalNode) moveAllTo(recipient internalNode, parentSepKey []byte) (movedChildren []common.PageID) {
	n.Keys[0] = parentSepKey
	recipient.Keys = append(recipient.Keys, n.Keys...)
	recipient.Children = append(recipient.Children, n.Children...)
	movedChildren = append(movedChildren, n.Children...)
	n.Keys = nil
	n.Children = nil
	return movedChildren
}

// moveFirstToEndOf relocates this node's first entry to the back of
// recipient. parentSepKey is the parent's current separator for n; it is
// pulled down to pair with the sentinel child crossing the boundary, and
// n's next real key becomes the fresh sentinel slot. Returns the moved
// child id and the new separator the caller must install in the parent
// (the smallest key remaining under n).
func (n internalNode) moveFirstToEndOf(recipient internalNode, parentSepKey []byte) (movedChild common.PageID, newSeparator []byte) {
	movedChild = n.Children[0]
	// Keys[1] bounds the subtree at Children[1], n's first child once
	// Children[0] moves away, so it is exactly the parent's new separator.
	newSeparator = n.Keys[1]

	recipient.Keys = append(recipient.Keys, parentSepKey)
	recipient.Children = append(recipient.Children, movedChild)

	n.Keys = removeAt(n.Keys, 0)
	n.Children = removeAt(n.Children, 0)
	n.Keys[0] = make([]byte, common.KeySize) // new sentinel, unused

	return movedChild, newSeparator
}

// moveLastToFrontOf relocates this node's last entry to the front of
// recipient. parentSepKey is the parent's current separator for recipient;
// it is pulled down to pair with recipient's old sentinel child. Returns
// the moved child id and the separator the caller must install in the
// parent (the key lifted off n).
func (n internalNode) moveLastToFrontOf(recipient internalNode, parentSepKey []byte) (movedChild common.PageID, newSeparator []byte) {
	last := n.size() - 1
	newSeparator = n.Keys[last]
	movedChild = n.Children[last]

	n.Keys = n.Keys[:last]
	n.Children = n.Children[:last]

	recipient.Keys[0] = parentSepKey
	recipient.Keys = insertAt(recipient.Keys, 0, make([]byte, common.KeySize))
	recipient.Children = insertAt(recipient.Children, 0, movedChild)

	return movedChild, newSeparator
}
