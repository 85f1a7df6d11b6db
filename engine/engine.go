// Package engine implements the engine façade (spec.md §4.9, C10): the
// upcall-shaped operations an adaptor would dispatch to, each of which
// resolves a path, mutates the in-memory mirror of the relevant
// persisted region, and writes the affected regions back before
// returning.
//
// Engine is the mount context spec.md §9's Design Notes call for:
// "the single mounted engine should be expressed as a mount context
// constructed in init and destroyed in destroy." It replaces the
// teacher's package-level state.GlobalMountedPartitions /
// state.CurrentSession (backend/state/state.go) with fields on a
// value callers own and pass around explicitly.
package engine

import (
	"github.com/ondiskfs/blockfs/blockio"
	"github.com/ondiskfs/blockfs/fserr"
	"github.com/ondiskfs/blockfs/layout"
	"github.com/ondiskfs/blockfs/ondisk"
)

// Backend selects which blockio.Device implementation Init uses.
type Backend int

const (
	// BackendFile opens the container with plain ReadAt/WriteAt calls.
	BackendFile Backend = iota

	// BackendMmap memory-maps the whole container file once at Init.
	BackendMmap
)

// Options configures Init.
type Options struct {
	// Path is the container file to mount. It is created (zero-filled,
	// then initialized) if it doesn't already exist.
	Path string

	// Backend selects the block I/O port implementation. Zero value is
	// BackendFile.
	Backend Backend

	// Logger receives diagnostic messages. Defaults to fserr.NopLogger.
	Logger fserr.Logger
}

// Engine is a mounted image plus its open-handle table. It is not
// internally synchronized — spec.md §5 guarantees upcalls are already
// serialized by the caller.
type Engine struct {
	img    *ondisk.Image
	dev    blockio.Device
	logger fserr.Logger

	// open is the open-handle table: open[slot] is true iff slot is
	// currently held open. A handle is, by construction, identical to
	// the slot index (spec.md glossary).
	open    [layout.NumDirEntries]bool
	numOpen int
}

// Init mounts the container named by opts.Path, creating and
// initializing it if it does not already exist, and returns the mount
// context. This is the upcall named init in spec.md §6.
func Init(opts Options) (*Engine, error) {
	logger := opts.Logger
	if logger == nil {
		logger = fserr.NopLogger
	}

	created, err := blockio.Created(opts.Path)
	if err != nil {
		return nil, fserr.WrapIO(err, "stat %s", opts.Path)
	}

	var dev blockio.Device
	switch opts.Backend {
	case BackendMmap:
		dev, err = blockio.NewMappedDevice(opts.Path)
	default:
		dev, err = blockio.NewFileDevice(opts.Path)
	}
	if err != nil {
		return nil, fserr.WrapIO(err, "opening %s", opts.Path)
	}

	img, err := ondisk.Load(dev, created)
	if err != nil {
		dev.Close()
		return nil, err
	}

	logger.Logf("mounted %s (created=%v)", opts.Path, created)

	return &Engine{img: img, dev: dev, logger: logger}, nil
}

// Destroy unmounts the engine, flushing and closing the underlying
// block device. This is the upcall named destroy in spec.md §6.
func (e *Engine) Destroy() error {
	if err := e.dev.Sync(); err != nil {
		return fserr.WrapIO(err, "syncing before unmount")
	}
	return e.dev.Close()
}

// Image exposes the mounted image directly for components, such as
// package diag, that need to inspect persisted regions the upcall
// surface doesn't expose.
func (e *Engine) Image() *ondisk.Image { return e.img }
