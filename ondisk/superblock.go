// Package ondisk defines the persisted, byte-exact regions of a
// block-addressed single-directory file system image (spec.md §3): the
// superblock, the free-block bitmap, the chain table (FAT) and the
// root directory table. It keeps an in-memory mirror of each region
// and flushes mutations back through a blockio.Device.
//
// Grounded on the teacher's backend/structs/superblock.go (the field
// set: total size, per-region start offsets, free-block counter) and
// backend/fs/fs.go's read-modify-write-at-computed-offset idiom
// (ReadInode/WriteInode/FindFreeBlock/MarkBlockAsUsed), generalized
// from an inode table to the bitmap/FAT/root regions this spec calls
// for instead.
package ondisk

import (
	"bytes"
	"encoding/binary"

	"github.com/ondiskfs/blockfs/blockio"
	"github.com/ondiskfs/blockfs/fserr"
	"github.com/ondiskfs/blockfs/layout"
)

// Superblock is the image header, stored zero-padded in block
// layout.SuperblockStart.
type Superblock struct {
	TotalSize       int64 // total image size in bytes
	DataSize        int64 // data region payload capacity in bytes
	SuperblockStart int32
	BitmapStart     int32
	ChainStart      int32
	RootStart       int32
	DataStart       int32
	NumFreeBlocks   int32
}

// newSuperblock builds the header for a freshly initialized image: the
// free-block counter starts at NumDataBlocks, matching spec.md §4.3's
// "if reading fails with 'not found' the counter is initialised to
// NUM_DATA_BLOCKS."
func newSuperblock() Superblock {
	return Superblock{
		TotalSize:       layout.TotalBytes,
		DataSize:        int64(layout.NumDataBlocks) * layout.BlockSize,
		SuperblockStart: layout.SuperblockStart,
		BitmapStart:     layout.BitmapStart,
		ChainStart:      layout.ChainStart,
		RootStart:       layout.RootStart,
		DataStart:       layout.DataStart,
		NumFreeBlocks:   layout.NumDataBlocks,
	}
}

func (sb Superblock) encode() []byte {
	buf := make([]byte, layout.BlockSize)
	w := bytes.NewBuffer(buf[:0])
	for _, v := range []any{
		sb.TotalSize, sb.DataSize,
		sb.SuperblockStart, sb.BitmapStart, sb.ChainStart, sb.RootStart, sb.DataStart,
		sb.NumFreeBlocks,
	} {
		// binary.Write into a fixed-capacity buffer never fails.
		_ = binary.Write(w, binary.LittleEndian, v)
	}
	return buf
}

func decodeSuperblock(block []byte) (Superblock, error) {
	var sb Superblock
	r := bytes.NewReader(block)
	for _, v := range []any{
		&sb.TotalSize, &sb.DataSize,
		&sb.SuperblockStart, &sb.BitmapStart, &sb.ChainStart, &sb.RootStart, &sb.DataStart,
		&sb.NumFreeBlocks,
	} {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return Superblock{}, fserr.WrapIO(err, "decoding superblock")
		}
	}
	return sb, nil
}

func readSuperblock(dev blockio.Device) (Superblock, error) {
	block := make([]byte, layout.BlockSize)
	if err := dev.ReadBlock(layout.SuperblockStart, block); err != nil {
		return Superblock{}, fserr.WrapIO(err, "reading superblock")
	}
	return decodeSuperblock(block)
}

func writeSuperblock(dev blockio.Device, sb Superblock) error {
	if err := dev.WriteBlock(layout.SuperblockStart, sb.encode()); err != nil {
		return fserr.WrapIO(err, "writing superblock")
	}
	return nil
}
