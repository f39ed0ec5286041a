package extendiblehash

import "testing"

func identityFingerprint(k uint32) uint32 { return k }

func TestFindInsertRemoveRoundTrip(t *testing.T) {
	tbl := New[uint32, string](4, identityFingerprint)

	tbl.Insert(1, "a")
	tbl.Insert(2, "b")
	tbl.Insert(3, "c")

	if v, ok := tbl.Find(1); !ok || v != "a" {
		t.Fatalf("expected Find(1)=a, got %q ok=%v", v, ok)
	}
	if v, ok := tbl.Find(2); !ok || v != "b" {
		t.Fatalf("expected Find(2)=b, got %q ok=%v", v, ok)
	}

	// Update in place.
	tbl.Insert(2, "bb")
	if v, ok := tbl.Find(2); !ok || v != "bb" {
		t.Fatalf("expected Find(2)=bb after update, got %q ok=%v", v, ok)
	}

	if !tbl.Remove(1) {
		t.Fatalf("expected Remove(1) to report found")
	}
	if _, ok := tbl.Find(1); ok {
		t.Fatalf("expected Find(1) to miss after removal")
	}
	if tbl.Remove(1) {
		t.Fatalf("expected second Remove(1) to report not found")
	}
	if _, ok := tbl.Find(999); ok {
		t.Fatalf("expected Find on never-inserted key to miss")
	}
}

// TestSplitBumpsDepth walks a bucket through overflow with max_bucket_size
// 2 and fingerprints that collide in their low bits (0b000, 0b100, 0b010,
// 0b110, 0b1010), checking global depth, local depths, and bucket counts
// after each step. The first overflow needs two splits before the third
// key separates from the first two, leaving behind the empty odd-slot
// bucket from the intermediate level.
func TestSplitBumpsDepth(t *testing.T) {
	tbl := New[uint32, int](2, identityFingerprint)

	tbl.Insert(0b000, 1)
	tbl.Insert(0b100, 2)
	if tbl.GlobalDepth() != 0 {
		t.Fatalf("expected depth 0 before any split, got %d", tbl.GlobalDepth())
	}
	if got := tbl.BucketCount(); got != 1 {
		t.Fatalf("expected the single root bucket, got %d", got)
	}

	// 0b010 overflows {0b000, 0b100}: splitting on bit 0 separates nothing
	// (all three are even), so a second split on bit 1 is needed, taking
	// global depth to 2.
	tbl.Insert(0b010, 3)
	if got := tbl.GlobalDepth(); got != 2 {
		t.Fatalf("expected depth 2 after third insert, got %d", got)
	}
	if got := tbl.BucketCount(); got != 3 {
		t.Fatalf("expected 3 buckets after third insert, got %d", got)
	}
	if got := tbl.LocalDepth(0b000); got != 2 {
		t.Fatalf("expected local depth 2 for the even bucket, got %d", got)
	}
	if got := tbl.LocalDepth(0b001); got != 1 {
		t.Fatalf("expected the odd bucket left at local depth 1, got %d", got)
	}

	// 0b110 lands with 0b010 (low bits 10) and just fits.
	tbl.Insert(0b110, 4)
	if got := tbl.GlobalDepth(); got != 2 {
		t.Fatalf("expected depth unchanged by a non-overflowing insert, got %d", got)
	}

	// 0b1010 overflows the {0b010, 0b110} bucket; bit 2 separates 0b110
	// from the other two, taking global depth to 3.
	tbl.Insert(0b1010, 5)
	if got := tbl.GlobalDepth(); got != 3 {
		t.Fatalf("expected depth 3 after fifth insert, got %d", got)
	}
	if got := tbl.BucketCount(); got != 4 {
		t.Fatalf("expected 4 buckets after fifth insert, got %d", got)
	}
	if got := tbl.LocalDepth(0b110); got != 3 {
		t.Fatalf("expected local depth 3 for the split bucket, got %d", got)
	}

	for k, want := range map[uint32]int{0b000: 1, 0b100: 2, 0b010: 3, 0b110: 4, 0b1010: 5} {
		if v, ok := tbl.Find(k); !ok || v != want {
			t.Fatalf("Find(%b) = %d, %v; want %d, true", k, v, ok, want)
		}
	}
}

func TestDirectoryLengthMatchesGlobalDepth(t *testing.T) {
	tbl := New[uint32, int](1, identityFingerprint)
	for i := uint32(0); i < 16; i++ {
		tbl.Insert(i, int(i))
	}
	want := 1 << uint(tbl.GlobalDepth())
	if len(tbl.directory) != want {
		t.Fatalf("directory length %d != 2^globalDepth %d", len(tbl.directory), want)
	}
	for k := uint32(0); k < 16; k++ {
		if got := tbl.LocalDepth(k); got > tbl.GlobalDepth() {
			t.Fatalf("local depth %d exceeds global depth %d for key %d", got, tbl.GlobalDepth(), k)
		}
	}
}
