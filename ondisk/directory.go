package ondisk

import (
	"bytes"
	"encoding/binary"

	"github.com/ondiskfs/blockfs/blockio"
	"github.com/ondiskfs/blockfs/fserr"
	"github.com/ondiskfs/blockfs/layout"
)

// DirEntry is one slot of the root directory table: one per file,
// stored one-per-block. A slot is empty iff its path's first byte is
// not '/' (spec.md §3).
type DirEntry struct {
	Size      int64
	ChainHead int32
	Uid       uint32
	Gid       uint32
	Mode      uint32
	Atime     int64
	Mtime     int64
	Ctime     int64

	cpath [layout.PathCap]byte
}

func emptyDirEntry() DirEntry {
	return DirEntry{ChainHead: layout.NullBlock}
}

// Empty reports whether this slot holds no file.
func (e *DirEntry) Empty() bool {
	return e.cpath[0] != '/'
}

// Path returns the slot's NUL-terminated path as a string.
func (e *DirEntry) Path() string {
	n := bytes.IndexByte(e.cpath[:], 0)
	if n < 0 {
		n = len(e.cpath)
	}
	return string(e.cpath[:n])
}

// SetPath stores path, which must start with '/' and fit in
// layout.PathCap bytes; a path of exactly layout.PathCap bytes is stored
// without a terminating NUL, which Path handles. Callers validate length
// before calling this; it does not itself return an error.
func (e *DirEntry) SetPath(path string) {
	for i := range e.cpath {
		e.cpath[i] = 0
	}
	copy(e.cpath[:], path)
}

// Clear resets the slot to empty, per spec.md §4.9 unlink: "zero the
// metadata, set cPath[0] = '\0', set chainHead = NULL_BLOCK."
func (e *DirEntry) Clear() {
	*e = emptyDirEntry()
}

func (e DirEntry) encode() []byte {
	buf := make([]byte, layout.BlockSize)
	w := bytes.NewBuffer(buf[:0])
	for _, v := range []any{
		e.Size, e.ChainHead, e.Uid, e.Gid, e.Mode, e.Atime, e.Mtime, e.Ctime,
	} {
		_ = binary.Write(w, binary.LittleEndian, v)
	}
	n := w.Len()
	copy(buf[n:], e.cpath[:])
	return buf
}

func decodeDirEntry(block []byte) (DirEntry, error) {
	var e DirEntry
	r := bytes.NewReader(block)
	for _, v := range []any{
		&e.Size, &e.ChainHead, &e.Uid, &e.Gid, &e.Mode, &e.Atime, &e.Mtime, &e.Ctime,
	} {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return DirEntry{}, fserr.WrapIO(err, "decoding directory entry")
		}
	}
	n := len(block) - r.Len()
	copy(e.cpath[:], block[n:])
	return e, nil
}

func readRootFull(dev blockio.Device) ([layout.NumDirEntries]DirEntry, error) {
	var dir [layout.NumDirEntries]DirEntry
	block := make([]byte, layout.BlockSize)
	for i := 0; i < layout.NumDirEntries; i++ {
		if err := dev.ReadBlock(int64(layout.RootStart+i), block); err != nil {
			return dir, fserr.WrapIO(err, "reading root entry %d", i)
		}
		e, err := decodeDirEntry(block)
		if err != nil {
			return dir, err
		}
		dir[i] = e
	}
	return dir, nil
}

func writeRootFull(dev blockio.Device, dir *[layout.NumDirEntries]DirEntry) error {
	for i, e := range dir {
		if err := dev.WriteBlock(int64(layout.RootStart+i), e.encode()); err != nil {
			return fserr.WrapIO(err, "writing root entry %d", i)
		}
	}
	return nil
}

// FlushEntry persists only slot i, per spec.md §4.6's "the targeted
// block only" allowance.
func (img *Image) FlushEntry(i int32) error {
	if err := img.dev.WriteBlock(int64(layout.RootStart+int(i)), img.dir[i].encode()); err != nil {
		return fserr.WrapIO(err, "writing root entry %d", i)
	}
	return nil
}

// Entry returns a copy of directory slot i.
func (img *Image) Entry(i int32) DirEntry { return img.dir[i] }

// SetEntry replaces directory slot i and persists it.
func (img *Image) SetEntry(i int32, e DirEntry) error {
	img.dir[i] = e
	return img.FlushEntry(i)
}

// FindByPath returns the slot index holding path, or false if no
// non-empty slot matches. Linear scan, per spec.md §4.9.
func (img *Image) FindByPath(path string) (int32, bool) {
	for i := range img.dir {
		if !img.dir[i].Empty() && img.dir[i].Path() == path {
			return int32(i), true
		}
	}
	return 0, false
}

// FindEmptySlot returns the first empty slot index, or false if the
// table is full. First-fit, per spec.md §3's lifecycle note.
func (img *Image) FindEmptySlot() (int32, bool) {
	for i := range img.dir {
		if img.dir[i].Empty() {
			return int32(i), true
		}
	}
	return 0, false
}

// CountUsed returns the number of non-empty slots, which must equal
// iCounterFiles (spec.md §3, invariant 4).
func (img *Image) CountUsed() int {
	n := 0
	for i := range img.dir {
		if !img.dir[i].Empty() {
			n++
		}
	}
	return n
}
