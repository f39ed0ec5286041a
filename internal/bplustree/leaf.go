package bplustree

import "TreeStore/internal/common"

// lookup returns the RID stored for key, if present.
func (n leafNode) lookup(key []byte, cmp common.Comparator) (common.RID, bool) {
	i := keyIndex(n.Keys, key, cmp)
	if i < n.size() && cmp(n.Keys[i], key) == 0 {
		return n.RIDs[i], true
	}
	return common.RID{}, false
}

// insert adds (key, value) in sorted position. An already-present key is
// left untouched; callers that need duplicate detection check with lookup
// first. Returns the node's new size.
func (n leafNode) insert(key []byte, value common.RID, cmp common.Comparator) int {
	i := keyIndex(n.Keys, key, cmp)
	if i < n.size() && cmp(n.Keys[i], key) == 0 {
		return n.size()
	}
	n.Keys = insertAt(n.Keys, i, key)
	n.RIDs = insertAt(n.RIDs, i, value)
	return n.size()
}

// remove deletes key if present. A miss leaves the node unchanged; the
// current size is returned either way, never an error.
func (n leafNode) remove(key []byte, cmp common.Comparator) int {
	i := keyIndex(n.Keys, key, cmp)
	if i < n.size() && cmp(n.Keys[i], key) == 0 {
		n.Keys = removeAt(n.Keys, i)
		n.RIDs = removeAt(n.RIDs, i)
	}
	return n.size()
}

// moveHalfTo performs a ceiling split: the upper half of n's entries move
// into recipient, which must be empty.
func (n leafNode) moveHalfTo(recipient leafNode) {
	mid := n.size() / 2
	recipient.Keys = append(recipient.Keys, n.Keys[mid:]...)
	recipient.RIDs = append(recipient.RIDs, n.RIDs[mid:]...)
	n.Keys = n.Keys[:mid]
	n.RIDs = n.RIDs[:mid]
}

// moveAllTo appends every entry of n to recipient and carries over n's
// leaf-list pointer, used when coalescing n into its left sibling.
func (n leafNode) moveAllTo(recipient leafNode) {
	recipient.Keys = append(recipient.Keys, n.Keys...)
	recipient.RIDs = append(recipient.RIDs, n.RIDs...)
	recipient.NextPageID = n.NextPageID
	n.Keys = nil
	n.RIDs = nil
}

// moveFirstToEndOf relocates this leaf's first entry to the back of
// recipient (used when redistributing from a right sibling leftward).
// Returns the new first key of n, which the caller installs as the
// updated parent separator for n.
func (n leafNode) moveFirstToEndOf(recipient leafNode) []byte {
	recipient.Keys = append(recipient.Keys, n.Keys[0])
	recipient.RIDs = append(recipient.RIDs, n.RIDs[0])
	n.Keys = removeAt(n.Keys, 0)
	n.RIDs = removeAt(n.RIDs, 0)
	return n.Keys[0]
}

// moveLastToFrontOf relocates this leaf's last entry to the front of
// recipient (used when redistributing from a left sibling rightward).
// Returns the moved key, which the caller installs as the updated parent
// separator for recipient.
func (n leafNode) moveLastToFrontOf(recipient leafNode) []byte {
	last := n.size() - 1
	movedKey, movedRID := n.Keys[last], n.RIDs[last]
	n.Keys = n.Keys[:last]
	n.RIDs = n.RIDs[:last]
	recipient.Keys = insertAt(recipient.Keys, 0, movedKey)
	recipient.RIDs = insertAt(recipient.RIDs, 0, movedRID)
	return movedKey
}
