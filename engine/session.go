package engine

import (
	"github.com/ondiskfs/blockfs/fserr"
	"github.com/ondiskfs/blockfs/layout"
)

// resolve returns the slot holding path, or fserr.ErrNotFound.
func (e *Engine) resolve(path string) (int32, error) {
	slot, ok := e.img.FindByPath(path)
	if !ok {
		return 0, fserr.ErrNotFound
	}
	return slot, nil
}

// Open locates path and marks its slot held open, returning the slot
// index as the opaque handle (spec.md §4.9, glossary: "a handle ...
// is, in this design, identical to the slot index").
func (e *Engine) Open(path string) (int32, error) {
	slot, err := e.resolve(path)
	if err != nil {
		return 0, err
	}
	if e.numOpen >= layout.NumOpenFiles {
		return 0, fserr.ErrTooManyOpen
	}
	if e.open[slot] {
		return 0, fserr.ErrAlreadyOpen
	}
	e.open[slot] = true
	e.numOpen++
	return slot, nil
}

// Release validates handle and clears its open-handle entry.
func (e *Engine) Release(handle int32) error {
	if handle < 0 || int(handle) >= layout.NumDirEntries || !e.open[handle] {
		return fserr.ErrBadHandle
	}
	e.open[handle] = false
	e.numOpen--
	return nil
}

// isOpen reports whether slot currently has a live handle.
func (e *Engine) isOpen(slot int32) bool {
	return e.open[slot]
}
