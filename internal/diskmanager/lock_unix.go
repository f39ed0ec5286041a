//go:build unix

package diskmanager

import (
	"os"

	"golang.org/x/sys/unix"
)

// lockExclusive takes a non-blocking advisory exclusive lock on f, so two
// Manager instances never open the same data file at once.
func lockExclusive(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
}

// syncData flushes file data without forcing a metadata-only sync,
// cheaper than File.Sync. Manager.Sync is its only caller.
func syncData(f *os.File) error {
	return unix.Fdatasync(int(f.Fd()))
}
