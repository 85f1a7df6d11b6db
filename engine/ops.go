package engine

import (
	"golang.org/x/sys/unix"

	"github.com/ondiskfs/blockfs/fserr"
	"github.com/ondiskfs/blockfs/layout"
	"github.com/ondiskfs/blockfs/ondisk"
)

// Attr is the metadata getattr reports, per spec.md §4.9.
type Attr struct {
	Size  int64
	Mode  uint32
	Uid   uint32
	Gid   uint32
	Nlink uint32
	Atime int64
	Mtime int64
	Ctime int64
}

// Getattr reports metadata for path. "/" is synthesized as a directory;
// any other path returns the stored directory entry.
func (e *Engine) Getattr(path string) (Attr, error) {
	if path == "/" {
		return Attr{Mode: unix.S_IFDIR | 0755, Nlink: 2}, nil
	}
	slot, err := e.resolve(path)
	if err != nil {
		return Attr{}, err
	}
	entry := e.img.Entry(slot)
	return Attr{
		Size:  entry.Size,
		Mode:  entry.Mode,
		Uid:   entry.Uid,
		Gid:   entry.Gid,
		Nlink: 1,
		Atime: entry.Atime,
		Mtime: entry.Mtime,
		Ctime: entry.Ctime,
	}, nil
}

// Mknod creates an empty file at path with the given mode, uid and gid.
func (e *Engine) Mknod(path string, mode, uid, gid uint32) error {
	if e.img.CountUsed() >= layout.NumDirEntries {
		return fserr.ErrNoSpace
	}
	if len(path) == 0 || path[0] != '/' || len(path)-1 > layout.NameLength {
		return fserr.ErrInvalidArgument
	}
	if _, exists := e.img.FindByPath(path); exists {
		return fserr.ErrExists
	}
	slot, ok := e.img.FindEmptySlot()
	if !ok {
		return fserr.ErrNoSpace
	}

	now := nowUnix()
	entry := ondisk.DirEntry{
		ChainHead: layout.NullBlock,
		Mode:      mode,
		Uid:       uid,
		Gid:       gid,
		Atime:     now,
		Mtime:     now,
		Ctime:     now,
	}
	entry.SetPath(path)
	return e.img.SetEntry(slot, entry)
}

// Unlink removes the file at path, releasing its chain.
func (e *Engine) Unlink(path string) error {
	slot, err := e.resolve(path)
	if err != nil {
		return err
	}
	if e.isOpen(slot) {
		return fserr.ErrBusy
	}
	entry := e.img.Entry(slot)
	if entry.ChainHead != layout.NullBlock {
		if err := e.img.UnlinkFrom(entry.ChainHead); err != nil {
			return err
		}
	}
	entry.Clear()
	return e.img.SetEntry(slot, entry)
}

// Rename moves the file at oldPath to newPath.
func (e *Engine) Rename(oldPath, newPath string) error {
	if len(newPath) == 0 || newPath[0] != '/' || len(newPath)-1 > layout.NameLength {
		return fserr.ErrInvalidArgument
	}
	slot, err := e.resolve(oldPath)
	if err != nil {
		return err
	}
	if _, exists := e.img.FindByPath(newPath); exists {
		return fserr.ErrExists
	}

	entry := e.img.Entry(slot)
	entry.SetPath(newPath)
	entry.Ctime = nowUnix()
	return e.img.SetEntry(slot, entry)
}

// Chmod overwrites the mode of the file at path.
func (e *Engine) Chmod(path string, mode uint32) error {
	slot, err := e.resolve(path)
	if err != nil {
		return err
	}
	entry := e.img.Entry(slot)
	entry.Mode = mode
	entry.Ctime = nowUnix()
	return e.img.SetEntry(slot, entry)
}

// Chown overwrites the owner and group of the file at path.
func (e *Engine) Chown(path string, uid, gid uint32) error {
	slot, err := e.resolve(path)
	if err != nil {
		return err
	}
	entry := e.img.Entry(slot)
	entry.Uid = uid
	entry.Gid = gid
	entry.Ctime = nowUnix()
	return e.img.SetEntry(slot, entry)
}

// Read copies up to len(dst) bytes from the file held open as handle,
// starting at offset, into dst.
func (e *Engine) Read(handle int32, dst []byte, offset int64) (int, error) {
	if handle < 0 || int(handle) >= layout.NumDirEntries || !e.open[handle] {
		return 0, fserr.ErrBadHandle
	}
	return e.readAt(handle, dst, len(dst), offset)
}

// Write writes src into the file held open as handle, starting at
// offset, growing the file's chain as needed.
func (e *Engine) Write(handle int32, src []byte, offset int64) (int, error) {
	if handle < 0 || int(handle) >= layout.NumDirEntries || !e.open[handle] {
		return 0, fserr.ErrBadHandle
	}
	return e.writeAt(handle, src, len(src), offset)
}

// Truncate resizes the file at path to newSize, growing or shrinking
// its chain as needed.
func (e *Engine) Truncate(path string, newSize int64) error {
	slot, err := e.resolve(path)
	if err != nil {
		return err
	}
	return e.truncateSlot(slot, newSize)
}

// TruncateHandle is the handle-addressed form of Truncate, used when
// the caller already holds the file open (spec.md §6: "truncate | ...
// [, handle]").
func (e *Engine) TruncateHandle(handle int32, newSize int64) error {
	if handle < 0 || int(handle) >= layout.NumDirEntries || !e.open[handle] {
		return fserr.ErrBadHandle
	}
	return e.truncateSlot(handle, newSize)
}

func (e *Engine) truncateSlot(slot int32, newSize int64) error {
	if newSize < 0 {
		return fserr.ErrInvalidArgument
	}

	entry := e.img.Entry(slot)
	oldBlocks := int(layout.CeilBlocks(entry.Size))
	newBlocks := int(layout.CeilBlocks(newSize))

	switch {
	case newSize == 0:
		if err := e.shrink(slot, 0); err != nil {
			return err
		}
	case newBlocks > oldBlocks:
		if err := e.allocate(slot, newBlocks-oldBlocks); err != nil {
			return err
		}
	case newBlocks < oldBlocks:
		if err := e.shrink(slot, newBlocks); err != nil {
			return err
		}
	}

	entry = e.img.Entry(slot)
	entry.Size = newSize
	now := nowUnix()
	entry.Mtime = now
	entry.Ctime = now
	return e.img.SetEntry(slot, entry)
}

// Readdir lists "." and ".." plus every non-empty slot's path, without
// its leading '/', when path is "/". Deeper paths aren't represented
// (spec.md §4.9: "only a root directory exists").
func (e *Engine) Readdir(path string) ([]string, error) {
	if path != "/" {
		return nil, fserr.ErrNotFound
	}
	names := []string{".", ".."}
	for _, entry := range e.img.Entries() {
		if !entry.Empty() {
			names = append(names, entry.Path()[1:])
		}
	}
	return names, nil
}
