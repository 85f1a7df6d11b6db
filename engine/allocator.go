package engine

import (
	"github.com/ondiskfs/blockfs/fserr"
	"github.com/ondiskfs/blockfs/layout"
	"github.com/ondiskfs/blockfs/ondisk"
)

// allocate appends n blocks to slot's chain, per spec.md §4.7.
// Grounded on backend/commands/mkfile.go's allocate-as-you-go content
// layout, generalized from "one direct pointer per iteration" to
// "one FAT link per iteration".
func (e *Engine) allocate(slot int32, n int) error {
	if n <= 0 {
		return nil
	}
	if int64(n) > int64(e.img.NumFreeBlocks()) {
		return fserr.ErrNoSpace
	}

	entry := e.img.Entry(slot)

	remaining := n
	var tail int32

	if entry.ChainHead == layout.NullBlock {
		head, err := e.img.FindFree()
		if err != nil {
			return err
		}
		if head == ondisk.ErrBlockNumber {
			return fserr.ErrNoSpace
		}
		entry.ChainHead = head
		tail = head
		remaining--
	} else {
		tail = entry.ChainHead
		for e.img.Next(tail) != layout.ChainEnd {
			tail = e.img.Next(tail)
		}
	}

	for i := 0; i < remaining; i++ {
		blk, err := e.img.FindFree()
		if err != nil {
			return err
		}
		if blk == ondisk.ErrBlockNumber {
			return fserr.ErrNoSpace
		}
		if err := e.img.Link(tail, blk); err != nil {
			return err
		}
		tail = blk
	}

	return e.img.SetEntry(slot, entry)
}

// shrink reduces slot's chain to newBlocks blocks, per spec.md §4.7.
// newBlocks == 0 releases the whole chain and nulls the chain head.
func (e *Engine) shrink(slot int32, newBlocks int) error {
	entry := e.img.Entry(slot)

	if newBlocks <= 0 {
		head := entry.ChainHead
		entry.ChainHead = layout.NullBlock
		if err := e.img.SetEntry(slot, entry); err != nil {
			return err
		}
		if head == layout.NullBlock {
			return nil
		}
		return e.img.UnlinkFrom(head)
	}

	walker := entry.ChainHead
	for i := 0; i < newBlocks-1; i++ {
		walker = e.img.Next(walker)
	}
	successor := e.img.Next(walker)

	if err := e.img.Link(walker, layout.ChainEnd); err != nil {
		return err
	}
	if successor == layout.ChainEnd {
		return nil
	}
	return e.img.UnlinkFrom(successor)
}
