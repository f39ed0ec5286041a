//go:build !unix

package diskmanager

import "os"

// lockExclusive is a no-op on platforms without flock semantics; the
// Manager still serializes access internally via its own mutex.
func lockExclusive(f *os.File) error {
	return nil
}

func syncData(f *os.File) error {
	return f.Sync()
}
