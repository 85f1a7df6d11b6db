// Package blockio implements the block I/O port (spec.md §4.1, §6):
// reading and writing a fixed BlockSize-byte block, identified by
// linear index, in a host container file. It never sees byte offsets —
// only whole blocks — leaving byte-granular addressing to the engine's
// read/write path.
package blockio

import (
	"os"

	"github.com/ondiskfs/blockfs/layout"
)

// Device is the block I/O port the engine consumes. Implementations
// need not be safe for concurrent use; spec.md §5 guarantees upcalls
// are already serialized by the caller.
type Device interface {
	// ReadBlock reads exactly layout.BlockSize bytes at block index
	// idx into dst, which must have length layout.BlockSize.
	ReadBlock(idx int64, dst []byte) error

	// WriteBlock writes exactly layout.BlockSize bytes from src, which
	// must have length layout.BlockSize, at block index idx.
	WriteBlock(idx int64, src []byte) error

	// Sync flushes any buffered writes to stable storage.
	Sync() error

	// Close releases the underlying resource. No further calls may be
	// made to the Device afterward.
	Close() error
}

// Created reports whether opening path produced a brand-new,
// zero-length container that the caller must still initialize, versus
// an existing image that can be read back as-is. It is the on-disk
// analogue of spec.md §4.1's "open of a non-existent container ...
// which the engine treats as a signal to initialise."
func Created(path string) (bool, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return info.Size() == 0, nil
}

func checkLen(b []byte) {
	if len(b) != layout.BlockSize {
		panic("blockio: buffer must be exactly layout.BlockSize bytes")
	}
}
