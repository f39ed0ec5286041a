package bufferpool

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"TreeStore/internal/common"
	"TreeStore/internal/diskmanager"
)

func newTestPool(t *testing.T, poolSize int) *Pool {
	t.Helper()
	dir := filepath.Join(os.TempDir(), "treestore_bufferpool_test")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("mkdir temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	dm, err := diskmanager.Open(filepath.Join(dir, "data.db"))
	if err != nil {
		t.Fatalf("diskmanager.Open: %v", err)
	}
	t.Cleanup(func() { dm.Close() })
	return New(poolSize, dm)
}

func TestNewAndFetchRoundTrip(t *testing.T) {
	p := newTestPool(t, 4)

	f, id, err := p.New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	copy(f.Data, []byte("payload"))
	if err := p.Unpin(id, true); err != nil {
		t.Fatalf("Unpin: %v", err)
	}
	if err := p.Flush(id); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	got, err := p.Fetch(id)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(got.Data[:7]) != "payload" {
		t.Fatalf("fetched data mismatch: %q", got.Data[:7])
	}
	if err := p.Unpin(id, false); err != nil {
		t.Fatalf("Unpin: %v", err)
	}
}

func TestFetchPinsAndUnpinMakesEvictable(t *testing.T) {
	p := newTestPool(t, 1)

	_, id1, err := p.New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// Pool of size 1 is fully pinned: a second New must fail.
	if _, _, err := p.New(); !errors.Is(err, ErrOutOfMemory) {
		t.Fatalf("expected ErrOutOfMemory with sole frame pinned, got %v", err)
	}

	if err := p.Unpin(id1, false); err != nil {
		t.Fatalf("Unpin: %v", err)
	}

	// Now that the only frame is unpinned, New can evict it.
	if _, _, err := p.New(); err != nil {
		t.Fatalf("expected New to succeed after eviction, got %v", err)
	}
}

func TestDeletePinnedPageFails(t *testing.T) {
	p := newTestPool(t, 2)

	_, id, err := p.New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := p.Delete(id); !errors.Is(err, ErrPagePinned) {
		t.Fatalf("expected ErrPagePinned, got %v", err)
	}

	if err := p.Unpin(id, false); err != nil {
		t.Fatalf("Unpin: %v", err)
	}
	if err := p.Delete(id); err != nil {
		t.Fatalf("Delete after unpin: %v", err)
	}

	// The deleted page's id goes back to the disk manager's free list, so
	// the next allocation hands it out again.
	_, reused, err := p.New()
	if err != nil {
		t.Fatalf("New after delete: %v", err)
	}
	if reused != id {
		t.Fatalf("expected deleted page id %d to be reused, got %d", id, reused)
	}
}

// TestLRUEvictionOrder fills a pool of 3 frames with pages 1, 2, 3 and
// unpins each; allocating a fourth page must evict page 1 (least recently
// unpinned). Eviction is observed through the Stats counters: a fetch of
// a victim is a miss (it reloads from disk), a fetch of a survivor is a
// hit.
func TestLRUEvictionOrder(t *testing.T) {
	p := newTestPool(t, 3)

	ids := make([]common.PageID, 0, 3)
	for i := 0; i < 3; i++ {
		_, id, err := p.New()
		if err != nil {
			t.Fatalf("New %d: %v", i, err)
		}
		ids = append(ids, id)
		if err := p.Unpin(id, false); err != nil {
			t.Fatalf("Unpin %d: %v", id, err)
		}
	}
	page1, page2, page3 := ids[0], ids[1], ids[2]

	if got := p.Stats().Evictions; got != 0 {
		t.Fatalf("expected no evictions while the free list lasts, got %d", got)
	}

	_, page4, err := p.New()
	if err != nil {
		t.Fatalf("New page4: %v", err)
	}
	if got := p.Stats().Evictions; got != 1 {
		t.Fatalf("expected 1 eviction after overflowing the pool, got %d", got)
	}

	// Pages 2 and 3 survived; fetching them must hit the pool.
	before := p.Stats()
	for _, id := range []common.PageID{page2, page3} {
		if _, err := p.Fetch(id); err != nil {
			t.Fatalf("Fetch surviving page %d: %v", id, err)
		}
		if err := p.Unpin(id, false); err != nil {
			t.Fatalf("Unpin %d: %v", id, err)
		}
	}
	after := p.Stats()
	if after.Misses != before.Misses || after.Hits != before.Hits+2 {
		t.Fatalf("expected 2 hits and no misses fetching survivors, got hits %d->%d misses %d->%d",
			before.Hits, after.Hits, before.Misses, after.Misses)
	}

	// Page 1 was the least recently used and must be the one that went.
	before = p.Stats()
	if _, err := p.Fetch(page1); err != nil {
		t.Fatalf("Fetch evicted page %d: %v", page1, err)
	}
	after = p.Stats()
	if after.Misses != before.Misses+1 {
		t.Fatalf("expected a miss refetching the victim, got misses %d->%d", before.Misses, after.Misses)
	}
	if err := p.Unpin(page1, false); err != nil {
		t.Fatalf("Unpin %d: %v", page1, err)
	}
	if err := p.Unpin(page4, false); err != nil {
		t.Fatalf("Unpin %d: %v", page4, err)
	}
}

func TestFlushAllClearsDirtyFlags(t *testing.T) {
	p := newTestPool(t, 2)

	f, id, err := p.New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	copy(f.Data, []byte("dirty"))
	if err := p.Unpin(id, true); err != nil {
		t.Fatalf("Unpin: %v", err)
	}
	if err := p.FlushAll(); err != nil {
		t.Fatalf("FlushAll: %v", err)
	}
	if p.frames[0].Dirty {
		t.Fatalf("expected dirty flag cleared after FlushAll")
	}
}
