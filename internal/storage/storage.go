// Package storage provides the removable-medium driver used by the storage
// writer. The real implementation mounts a block device on Linux.
// The fake implementation scripts result codes for tests.
package storage

import "errors"

// ErrNotMounted is returned by operations that need a mounted volume.
var ErrNotMounted = errors.New("storage: volume not mounted")

// Volume is a removable filesystem.
type Volume interface {
	// Detect reports whether the medium is present.
	Detect() bool

	// Mount makes the volume available. Safe to call again after a failure.
	Mount() error

	// Open opens (creating if absent) a file for read/write, positioned for
	// appending.
	Open(name string) (File, error)

	// FreeSpace returns total and free capacity in bytes.
	FreeSpace() (total, free uint64, err error)

	// Unmount releases the volume.
	Unmount() error
}

// File is an open data file on a Volume.
type File interface {
	Write(p []byte) (int, error)
	Sync() error
	Close() error

	// Size returns the current file size in bytes.
	Size() (int64, error)
}
