package engine

import (
	"time"

	"github.com/ondiskfs/blockfs/fserr"
	"github.com/ondiskfs/blockfs/layout"
)

// readAt implements the byte-granular read path of spec.md §4.8.
func (e *Engine) readAt(slot int32, dst []byte, length int, offset int64) (int, error) {
	if offset < 0 || length < 0 {
		return 0, fserr.ErrInvalidArgument
	}

	entry := e.img.Entry(slot)

	if offset >= entry.Size {
		return 0, nil
	}
	if remaining := entry.Size - offset; int64(length) > remaining {
		length = int(remaining)
	}
	if length == 0 {
		return 0, nil
	}

	startBlk := int(offset / layout.BlockSize)
	off0 := int(offset % layout.BlockSize)
	numBlocks := int(layout.CeilBlocks(int64(off0 + length)))

	cur := e.img.BlockAt(entry.ChainHead, startBlk)
	scratch := make([]byte, layout.BlockSize)

	copied := 0
	remaining := length
	for i := 0; i < numBlocks; i++ {
		if err := e.dev.ReadBlock(layout.DataStart+int64(cur), scratch); err != nil {
			return copied, fserr.WrapIO(err, "reading block %d", cur)
		}

		var n int
		switch {
		case i == 0:
			n = layout.BlockSize - off0
			if n > remaining {
				n = remaining
			}
			copy(dst[copied:copied+n], scratch[off0:off0+n])
		case remaining < layout.BlockSize:
			n = remaining
			copy(dst[copied:copied+n], scratch[:n])
		default:
			n = layout.BlockSize
			copy(dst[copied:copied+n], scratch[:n])
		}

		copied += n
		remaining -= n
		if i < numBlocks-1 {
			cur = e.img.Next(cur)
		}
	}

	entry.Atime = nowUnix()
	if err := e.img.SetEntry(slot, entry); err != nil {
		return copied, err
	}

	return copied, nil
}

// writeAt implements the byte-granular write path of spec.md §4.8.
func (e *Engine) writeAt(slot int32, src []byte, length int, offset int64) (int, error) {
	if offset < 0 || length < 0 {
		return 0, fserr.ErrInvalidArgument
	}
	if length == 0 {
		return 0, nil
	}

	entry := e.img.Entry(slot)

	needed := int(layout.CeilBlocks(offset + int64(length)))
	have := int(layout.CeilBlocks(entry.Size))
	if needed > have {
		if err := e.allocate(slot, needed-have); err != nil {
			return 0, err
		}
		entry = e.img.Entry(slot)
	}

	startBlk := int(offset / layout.BlockSize)
	off0 := int(offset % layout.BlockSize)
	numBlocks := int(layout.CeilBlocks(int64(off0 + length)))

	cur := e.img.BlockAt(entry.ChainHead, startBlk)
	scratch := make([]byte, layout.BlockSize)

	written := 0
	remaining := length
	for i := 0; i < numBlocks; i++ {
		switch {
		case i == 0 && off0 > 0:
			if err := e.dev.ReadBlock(layout.DataStart+int64(cur), scratch); err != nil {
				return written, fserr.WrapIO(err, "reading block %d", cur)
			}
			n := layout.BlockSize - off0
			if n > remaining {
				n = remaining
			}
			copy(scratch[off0:off0+n], src[written:written+n])
			if err := e.dev.WriteBlock(layout.DataStart+int64(cur), scratch); err != nil {
				return written, fserr.WrapIO(err, "writing block %d", cur)
			}
			written += n
			remaining -= n
			off0 = 0

		case remaining < layout.BlockSize:
			if offset+int64(length) < entry.Size {
				if err := e.dev.ReadBlock(layout.DataStart+int64(cur), scratch); err != nil {
					return written, fserr.WrapIO(err, "reading block %d", cur)
				}
			} else {
				for i := range scratch {
					scratch[i] = 0
				}
			}
			copy(scratch[:remaining], src[written:written+remaining])
			if err := e.dev.WriteBlock(layout.DataStart+int64(cur), scratch); err != nil {
				return written, fserr.WrapIO(err, "writing block %d", cur)
			}
			written += remaining
			remaining = 0

		default:
			if err := e.dev.WriteBlock(layout.DataStart+int64(cur), src[written:written+layout.BlockSize]); err != nil {
				return written, fserr.WrapIO(err, "writing block %d", cur)
			}
			written += layout.BlockSize
			remaining -= layout.BlockSize
		}

		if i < numBlocks-1 {
			cur = e.img.Next(cur)
		}
	}

	if newSize := offset + int64(length); newSize > entry.Size {
		entry.Size = newSize
	}
	now := nowUnix()
	entry.Mtime = now
	entry.Atime = now
	entry.Ctime = now
	if err := e.img.SetEntry(slot, entry); err != nil {
		return written, err
	}

	return written, nil
}

func nowUnix() int64 {
	return time.Now().Unix()
}
