// Package config gathers the handful of constants fixed per deployment
// (data file path, pool sizing, page-table bucket size) into one struct
// passed explicitly into the constructors that need them.
package config

import "TreeStore/internal/common"

// Config bundles the constants a running instance of the buffer pool and
// B+ tree need at construction time.
type Config struct {
	// DataFile is the path to the disk manager's backing file.
	DataFile string
	// PoolSize is the number of frames the buffer pool holds.
	PoolSize int
	// MaxBucketSize is the page-table hash bucket size. bufferpool.New
	// does not take it: the pool uses its own fixed bucket size of 4.
	MaxBucketSize int
}

// Default returns sane values for local development and tests.
func Default(dataFile string) Config {
	return Config{
		DataFile:      dataFile,
		PoolSize:      64,
		MaxBucketSize: 4,
	}
}

// PageSize is re-exported from internal/common so callers configuring a
// pool don't need a second import to size buffers against it.
const PageSize = common.PageSize

// KeySize is re-exported from internal/common for the same reason.
const KeySize = common.KeySize
