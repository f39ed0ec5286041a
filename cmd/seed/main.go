// seed builds a fresh TreeStore data file, registers one index in the
// catalog, and inserts a run of sample keys into it — a smoke-test fixture
// for cmd/indexdump.
// Usage: go run ./cmd/seed <data-file> <index-name> <count>
package main

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"log"
	"os"
	"strconv"

	"TreeStore/internal/bplustree"
	"TreeStore/internal/bufferpool"
	"TreeStore/internal/catalog"
	"TreeStore/internal/common"
	"TreeStore/internal/config"
	"TreeStore/internal/diskmanager"
)

func main() {
	if len(os.Args) < 4 {
		fmt.Fprintf(os.Stderr, "Usage: %s <data-file> <index-name> <count>\n", os.Args[0])
		os.Exit(1)
	}
	path, name := os.Args[1], os.Args[2]
	count, err := strconv.Atoi(os.Args[3])
	if err != nil {
		log.Fatalf("bad count: %v", err)
	}

	cfg := config.Default(path)
	dm, err := diskmanager.Open(cfg.DataFile)
	if err != nil {
		log.Fatalf("open data file: %v", err)
	}
	defer dm.Close()

	bpm := bufferpool.New(cfg.PoolSize, dm)
	cat, err := catalog.Open(bpm)
	if err != nil {
		log.Fatalf("open catalog: %v", err)
	}

	root, registered := cat.GetRoot(name)
	if !registered {
		root = common.InvalidPageID
		if _, err := cat.InsertRecord(name, root); err != nil {
			log.Fatalf("register index: %v", err)
		}
	}

	tree := bplustree.Open(bpm, bytes.Compare, root, cat.OnRootChange(name))
	for i := 0; i < count; i++ {
		key := make([]byte, common.KeySize)
		binary.BigEndian.PutUint64(key, uint64(i))
		ok, err := tree.Insert(key, common.RID{PageID: common.PageID(i), Slot: 0})
		if err != nil {
			log.Fatalf("insert %d: %v", i, err)
		}
		if !ok {
			log.Printf("seed: key %d already present, skipped", i)
		}
	}

	if err := bpm.FlushAll(); err != nil {
		log.Fatalf("flush: %v", err)
	}
	log.Printf("seeded %d keys into index %q, root=%d", count, name, tree.RootPageID())
}
