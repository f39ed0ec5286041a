package bplustree

import (
	"fmt"
	"io"

	"TreeStore/internal/bufferpool"
	"TreeStore/internal/common"
)

// DumpTo writes a human-readable, breadth-first dump of the tree rooted at
// rootID to w: one header line per page, internal nodes show their
// separator keys and child ids, leaves show their next-page link and then
// one line per key -> RID entry.
// It reads pages straight through bpm rather than through a Tree, so it can
// inspect an index whose catalog entry is already known without needing a
// live Tree for it (used by cmd/indexdump).
func DumpTo(w io.Writer, bpm *bufferpool.Pool, rootID common.PageID) error {
	if !rootID.IsValid() {
		fmt.Fprintln(w, "  (empty tree)")
		return nil
	}

	queue := []common.PageID{rootID}
	level := 0
	for len(queue) > 0 {
		fmt.Fprintf(w, "Level %d:\n", level)
		var next []common.PageID
		for _, pageID := range queue {
			f, err := bpm.Fetch(pageID)
			if err != nil {
				fmt.Fprintf(w, "  [page %d] fetch error: %v\n", pageID, err)
				continue
			}
			n, err := decodeNode(f.Data)
			_ = bpm.Unpin(pageID, false)
			if err != nil {
				fmt.Fprintf(w, "  [page %d] decode error: %v\n", pageID, err)
				continue
			}

			if n.Type == Internal {
				fmt.Fprintf(w, "  [page %d] INTERNAL size=%d keys=%v children=%v\n",
					pageID, n.size(), formatKeys(n.Keys[1:]), n.Children)
				next = append(next, n.Children...)
			} else {
				fmt.Fprintf(w, "  [page %d] LEAF size=%d next=%d\n", pageID, n.size(), n.NextPageID)
				for i, k := range n.Keys {
					fmt.Fprintf(w, "      %s -> %s\n", formatKey(k), formatRID(n.RIDs[i]))
				}
			}
		}
		queue = next
		level++
	}
	return nil
}

func formatKeys(keys [][]byte) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = formatKey(k)
	}
	return out
}

// formatKey renders a fixed-width key as the big-endian integer it most
// likely encodes (big-endian keys sort bytewise the way integers sort
// numerically, so that is how cmd/seed writes them).
func formatKey(k []byte) string {
	var v uint64
	for i := 0; i < len(k); i++ {
		v = v<<8 | uint64(k[i])
	}
	return fmt.Sprintf("%d", v)
}

func formatRID(r common.RID) string {
	return fmt.Sprintf("(page=%d slot=%d)", r.PageID, r.Slot)
}
