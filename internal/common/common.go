// Package common holds the small set of types shared by the disk manager,
// buffer pool, and B+ tree: page ids, record ids, and the page byte layout
// constants every layer agrees on.
package common

import "github.com/cespare/xxhash/v2"

// PageSize is the fixed size of every page frame, in bytes.
const PageSize = 4096

// KeySize is the build-time width of every B+ tree key, in bytes. Valid
// choices are 4, 8, 16, 32, 64; 8 covers int64 and most fixed-width keys
// used in the test suite and the cmd/indexdump tool.
const KeySize = 8

// PageID identifies a page within a single data file. Page 0 is reserved
// for the catalog/header page. InvalidPageID denotes "no page".
type PageID int32

// InvalidPageID is the reserved "no page" sentinel.
const InvalidPageID PageID = -1

// IsValid reports whether id refers to an actual page.
func (id PageID) IsValid() bool { return id >= 0 }

// RID is an opaque reference to a heap-file record: a page id plus a slot
// index within that page. The heap layout itself is out of scope here —
// RID is only ever stored and compared, never interpreted.
type RID struct {
	PageID PageID
	Slot   uint32
}

// IsZero reports whether r is the zero RID.
func (r RID) IsZero() bool { return r.PageID == 0 && r.Slot == 0 }

// Comparator orders two fixed-width keys, following bytes.Compare's
// contract: negative if a < b, zero if equal, positive if a > b.
type Comparator func(a, b []byte) int

// Fingerprint derives a 32-bit hash-table fingerprint from a key. It is
// used only for hash addressing (extendible hash directory slots), never
// for equality — equality is always decided by the Comparator.
func Fingerprint(key []byte) uint32 {
	return uint32(xxhash.Sum64(key))
}
