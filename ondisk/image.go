package ondisk

import (
	"github.com/ondiskfs/blockfs/blockio"
	"github.com/ondiskfs/blockfs/layout"
)

// Image is the in-memory mirror of every persisted region of a mounted
// container file: the superblock, the free-block bitmap, the chain
// table and the root directory table. All mutation goes through Image
// so that region-crossing invariants (spec.md §3, invariants 1–4) stay
// enforced in one place.
type Image struct {
	dev blockio.Device

	sb Superblock

	// bitmap has one entry per data block: 1 = free, 0 = occupied.
	bitmap []byte

	// chain has one "next" entry per data block, parallel to bitmap.
	chain []int32

	// dir holds exactly layout.NumDirEntries slots, one per block of
	// the root region.
	dir [layout.NumDirEntries]DirEntry
}

// Load mounts an image over dev. If created is true the device was
// freshly allocated (spec.md §4.1/§4.3: "open of a non-existent
// container ... the engine treats as a signal to initialise"), so a
// brand-new superblock, all-free bitmap, all-terminated chain table
// and all-empty root directory are written out. Otherwise every region
// is read back from dev.
func Load(dev blockio.Device, created bool) (*Image, error) {
	img := &Image{dev: dev}

	if created {
		return img, img.initFresh()
	}
	return img, img.loadExisting()
}

func (img *Image) initFresh() error {
	img.sb = newSuperblock()

	img.bitmap = make([]byte, layout.NumDataBlocks)
	for i := range img.bitmap {
		img.bitmap[i] = 1
	}

	img.chain = make([]int32, layout.NumDataBlocks)
	for i := range img.chain {
		img.chain[i] = layout.ChainEnd
	}

	for i := range img.dir {
		img.dir[i] = emptyDirEntry()
	}

	if err := writeSuperblock(img.dev, img.sb); err != nil {
		return err
	}
	if err := writeBitmapFull(img.dev, img.bitmap); err != nil {
		return err
	}
	if err := writeChainFull(img.dev, img.chain); err != nil {
		return err
	}
	if err := writeRootFull(img.dev, &img.dir); err != nil {
		return err
	}
	return nil
}

func (img *Image) loadExisting() error {
	sb, err := readSuperblock(img.dev)
	if err != nil {
		return err
	}
	img.sb = sb

	bitmap, err := readBitmapFull(img.dev)
	if err != nil {
		return err
	}
	img.bitmap = bitmap

	chain, err := readChainFull(img.dev)
	if err != nil {
		return err
	}
	img.chain = chain

	dir, err := readRootFull(img.dev)
	if err != nil {
		return err
	}
	img.dir = dir

	return nil
}

// NumFreeBlocks returns the live free-block counter.
func (img *Image) NumFreeBlocks() int32 { return img.sb.NumFreeBlocks }

// NumDirEntries is the number of slots in the root directory table.
func (img *Image) NumDirEntries() int32 { return layout.NumDirEntries }

// Entries returns a snapshot copy of every directory slot, in slot
// order. Used by readdir and by package diag's consistency walk.
func (img *Image) Entries() [layout.NumDirEntries]DirEntry {
	return img.dir
}

// Device returns the underlying block device, for components that need
// to read raw blocks the Image doesn't itself expose a typed accessor
// for.
func (img *Image) Device() blockio.Device { return img.dev }

// FlushSuperblock persists the current in-memory superblock.
func (img *Image) FlushSuperblock() error {
	return writeSuperblock(img.dev, img.sb)
}
