package ondisk

import (
	"encoding/binary"

	"github.com/ondiskfs/blockfs/blockio"
	"github.com/ondiskfs/blockfs/fserr"
	"github.com/ondiskfs/blockfs/layout"
)

// entriesPerChainBlock is how many 32-bit "next" links fit in one
// layout.BlockSize block of the chain table.
const entriesPerChainBlock = layout.BlockSize / 4

func readChainFull(dev blockio.Device) ([]int32, error) {
	chain := make([]int32, layout.NumDataBlocks)
	block := make([]byte, layout.BlockSize)
	for b := 0; b < layout.ChainBlocks; b++ {
		if err := dev.ReadBlock(int64(layout.ChainStart+b), block); err != nil {
			return nil, fserr.WrapIO(err, "reading chain block %d", b)
		}
		for e := 0; e < entriesPerChainBlock; e++ {
			chain[b*entriesPerChainBlock+e] = int32(binary.LittleEndian.Uint32(block[e*4 : e*4+4]))
		}
	}
	return chain, nil
}

func encodeChainBlock(chain []int32, b int) []byte {
	block := make([]byte, layout.BlockSize)
	for e := 0; e < entriesPerChainBlock; e++ {
		binary.LittleEndian.PutUint32(block[e*4:e*4+4], uint32(chain[b*entriesPerChainBlock+e]))
	}
	return block
}

func writeChainFull(dev blockio.Device, chain []int32) error {
	for b := 0; b < layout.ChainBlocks; b++ {
		if err := dev.WriteBlock(int64(layout.ChainStart+b), encodeChainBlock(chain, b)); err != nil {
			return fserr.WrapIO(err, "writing chain block %d", b)
		}
	}
	return nil
}

// flushChainEntry rewrites only the sub-block of the chain table
// containing idx, per spec.md §4.5's hot-path allowance.
func (img *Image) flushChainEntry(idx int32) error {
	b := int(idx) / entriesPerChainBlock
	if err := img.dev.WriteBlock(int64(layout.ChainStart+b), encodeChainBlock(img.chain, b)); err != nil {
		return fserr.WrapIO(err, "writing chain block %d", b)
	}
	return nil
}

// Next returns the successor of data block i, or layout.ChainEnd if i
// is the last block of its chain.
func (img *Image) Next(i int32) int32 {
	return img.chain[i]
}

// Link sets FAT[i] = j and persists the affected chain block.
func (img *Image) Link(i, j int32) error {
	img.chain[i] = j
	return img.flushChainEntry(i)
}

// ChainLength counts the blocks in the chain starting at head, or 0 if
// head is layout.NullBlock.
func (img *Image) ChainLength(head int32) int {
	n := 0
	for cur := head; cur != layout.ChainEnd && cur != layout.NullBlock; cur = img.chain[cur] {
		n++
	}
	return n
}

// BlockAt returns the block reached by following hops "next" links
// starting at head. Used by the read/write path to translate a byte
// offset into a starting block (spec.md §4.8's "shared pre-walk").
func (img *Image) BlockAt(head int32, hops int) int32 {
	cur := head
	for i := 0; i < hops; i++ {
		cur = img.chain[cur]
	}
	return cur
}

// WalkChain calls fn with every block index in the chain starting at
// head, in order, stopping early if fn returns false.
func (img *Image) WalkChain(head int32, fn func(block int32) bool) {
	for cur := head; cur != layout.ChainEnd && cur != layout.NullBlock; cur = img.chain[cur] {
		if !fn(cur) {
			return
		}
	}
}

// UnlinkFrom walks the chain starting at first and, for every visited
// block, sets its FAT entry to layout.ChainEnd, marks it free in the
// bitmap, and increments the free-block counter — per spec.md §4.5.
// It persists the chain and bitmap blocks it touches plus the
// superblock once at the end, in the flush order FAT → bitmap →
// superblock that spec.md §5 calls for.
func (img *Image) UnlinkFrom(first int32) error {
	cur := first
	for cur != layout.ChainEnd {
		next := img.chain[cur]

		img.chain[cur] = layout.ChainEnd
		if err := img.flushChainEntry(cur); err != nil {
			return err
		}

		img.bitmap[cur] = 1
		if err := img.flushBitmapByte(cur); err != nil {
			return err
		}
		img.sb.NumFreeBlocks++

		cur = next
	}
	return img.FlushSuperblock()
}
