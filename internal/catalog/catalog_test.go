package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"TreeStore/internal/bufferpool"
	"TreeStore/internal/common"
	"TreeStore/internal/diskmanager"
)

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	dir := filepath.Join(os.TempDir(), "treestore_catalog_test")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("mkdir temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	dm, err := diskmanager.Open(filepath.Join(dir, "data.db"))
	if err != nil {
		t.Fatalf("diskmanager.Open: %v", err)
	}
	t.Cleanup(func() { dm.Close() })

	bpm := bufferpool.New(8, dm)
	cat, err := Open(bpm)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	return cat
}

func TestInsertGetUpdateRoundTrip(t *testing.T) {
	cat := newTestCatalog(t)

	id, err := cat.InsertRecord("orders_pk", common.PageID(1))
	if err != nil {
		t.Fatalf("InsertRecord: %v", err)
	}
	if id == 0 {
		t.Fatalf("expected a nonzero sonyflake index id")
	}

	root, ok := cat.GetRoot("orders_pk")
	if !ok || root != 1 {
		t.Fatalf("GetRoot = %d, %v; want 1, true", root, ok)
	}

	if err := cat.UpdateRecord("orders_pk", common.PageID(2)); err != nil {
		t.Fatalf("UpdateRecord: %v", err)
	}
	root, ok = cat.GetRoot("orders_pk")
	if !ok || root != 2 {
		t.Fatalf("GetRoot after update = %d, %v; want 2, true", root, ok)
	}

	gotID, ok := cat.IndexID("orders_pk")
	if !ok || gotID != id {
		t.Fatalf("IndexID = %d, %v; want %d, true", gotID, ok, id)
	}
}

func TestInsertRejectsDuplicateName(t *testing.T) {
	cat := newTestCatalog(t)
	if _, err := cat.InsertRecord("idx", common.PageID(1)); err != nil {
		t.Fatalf("InsertRecord: %v", err)
	}
	if _, err := cat.InsertRecord("idx", common.PageID(2)); err == nil {
		t.Fatalf("expected error registering a duplicate index name")
	}
}

func TestUpdateUnknownNameFails(t *testing.T) {
	cat := newTestCatalog(t)
	if err := cat.UpdateRecord("nonexistent", common.PageID(1)); err == nil {
		t.Fatalf("expected error updating an unregistered index")
	}
}

func TestGetRootUnknownNameMisses(t *testing.T) {
	cat := newTestCatalog(t)
	if _, ok := cat.GetRoot("nonexistent"); ok {
		t.Fatalf("expected GetRoot to miss for an unregistered index")
	}
}

func TestCatalogPersistsAcrossReopen(t *testing.T) {
	dir := filepath.Join(os.TempDir(), "treestore_catalog_persist_test")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("mkdir temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	path := filepath.Join(dir, "data.db")

	dm, err := diskmanager.Open(path)
	if err != nil {
		t.Fatalf("diskmanager.Open: %v", err)
	}
	bpm := bufferpool.New(8, dm)
	cat, err := Open(bpm)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	if _, err := cat.InsertRecord("users_pk", common.PageID(3)); err != nil {
		t.Fatalf("InsertRecord: %v", err)
	}
	if err := bpm.FlushAll(); err != nil {
		t.Fatalf("FlushAll: %v", err)
	}
	if err := dm.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	dm2, err := diskmanager.Open(path)
	if err != nil {
		t.Fatalf("reopen diskmanager: %v", err)
	}
	defer dm2.Close()
	bpm2 := bufferpool.New(8, dm2)
	cat2, err := Open(bpm2)
	if err != nil {
		t.Fatalf("reopen catalog: %v", err)
	}

	root, ok := cat2.GetRoot("users_pk")
	if !ok || root != 3 {
		t.Fatalf("GetRoot after reopen = %d, %v; want 3, true", root, ok)
	}
}

func TestOnRootChangeUpdatesRecord(t *testing.T) {
	cat := newTestCatalog(t)
	if _, err := cat.InsertRecord("idx", common.PageID(1)); err != nil {
		t.Fatalf("InsertRecord: %v", err)
	}

	hook := cat.OnRootChange("idx")
	if err := hook(common.PageID(7)); err != nil {
		t.Fatalf("OnRootChange hook: %v", err)
	}

	root, ok := cat.GetRoot("idx")
	if !ok || root != 7 {
		t.Fatalf("GetRoot after hook = %d, %v; want 7, true", root, ok)
	}
}
