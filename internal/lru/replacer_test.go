package lru

import "testing"

func TestReplacerVictimIsLeastRecentlyTouched(t *testing.T) {
	r := New[int]()
	r.Touch(1)
	r.Touch(2)
	r.Touch(3)

	v, ok := r.Victim()
	if !ok || v != 1 {
		t.Fatalf("expected victim 1, got %d ok=%v", v, ok)
	}
	v, ok = r.Victim()
	if !ok || v != 2 {
		t.Fatalf("expected victim 2, got %d ok=%v", v, ok)
	}
}

func TestReplacerTouchReordersExisting(t *testing.T) {
	r := New[int]()
	r.Touch(1)
	r.Touch(2)
	r.Touch(3)
	r.Touch(1) // 1 moves to the back; 2 becomes the next victim

	v, ok := r.Victim()
	if !ok || v != 2 {
		t.Fatalf("expected victim 2 after re-touching 1, got %d ok=%v", v, ok)
	}
	v, ok = r.Victim()
	if !ok || v != 3 {
		t.Fatalf("expected victim 3, got %d ok=%v", v, ok)
	}
	v, ok = r.Victim()
	if !ok || v != 1 {
		t.Fatalf("expected victim 1 last, got %d ok=%v", v, ok)
	}
}

func TestReplacerErase(t *testing.T) {
	r := New[int]()
	r.Touch(1)
	r.Touch(2)

	if !r.Erase(1) {
		t.Fatalf("expected Erase(1) to report found")
	}
	if r.Erase(1) {
		t.Fatalf("expected second Erase(1) to report not found")
	}

	v, ok := r.Victim()
	if !ok || v != 2 {
		t.Fatalf("expected only remaining item 2 as victim, got %d ok=%v", v, ok)
	}
}

func TestReplacerSizeAndEmptyVictim(t *testing.T) {
	r := New[int]()
	if r.Size() != 0 {
		t.Fatalf("expected empty replacer, size=%d", r.Size())
	}
	if _, ok := r.Victim(); ok {
		t.Fatalf("expected no victim from an empty replacer")
	}

	r.Touch(10)
	r.Touch(20)
	if r.Size() != 2 {
		t.Fatalf("expected size 2, got %d", r.Size())
	}
}
