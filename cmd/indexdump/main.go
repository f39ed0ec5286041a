// indexdump opens a TreeStore data file and prints a breadth-first dump of
// one named index's B+ tree, page by page.
// Usage: go run ./cmd/indexdump <data-file> <index-name>
package main

import (
	"fmt"
	"os"

	"TreeStore/internal/bplustree"
	"TreeStore/internal/bufferpool"
	"TreeStore/internal/catalog"
	"TreeStore/internal/config"
	"TreeStore/internal/diskmanager"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintf(os.Stderr, "Usage: %s <data-file> <index-name>\n", os.Args[0])
		os.Exit(1)
	}
	path, name := os.Args[1], os.Args[2]

	cfg := config.Default(path)
	dm, err := diskmanager.Open(cfg.DataFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open data file: %v\n", err)
		os.Exit(1)
	}
	defer dm.Close()

	bpm := bufferpool.New(cfg.PoolSize, dm)
	cat, err := catalog.Open(bpm)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open catalog: %v\n", err)
		os.Exit(1)
	}

	root, ok := cat.GetRoot(name)
	if !ok {
		fmt.Fprintf(os.Stderr, "no index registered under name %q\n", name)
		os.Exit(1)
	}
	id, _ := cat.IndexID(name)
	fmt.Printf("index %q (id=%d) root=%d\n", name, id, root)

	if err := bplustree.DumpTo(os.Stdout, bpm, root); err != nil {
		fmt.Fprintf(os.Stderr, "dump: %v\n", err)
		os.Exit(1)
	}

	stats := bpm.Stats()
	fmt.Println(stats.String())
}
