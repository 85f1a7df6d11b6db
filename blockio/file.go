package blockio

import (
	"os"

	"github.com/ondiskfs/blockfs/layout"
)

// FileDevice is a Device backed by direct ReadAt/WriteAt calls on an
// *os.File, addressed at idx*layout.BlockSize. It is grounded on the
// teacher's backend/fs/fs.go idiom of seeking to a computed offset and
// reading/writing a fixed-size struct — generalized here to a raw
// fixed-size block instead of a typed struct, since the typed encoding
// lives one layer up, in package ondisk.
type FileDevice struct {
	f *os.File
}

// NewFileDevice opens (creating if necessary) the container file at
// path and returns a Device over it. If the file is newly created it
// is truncated to the full image size so that every block index is
// addressable from the start.
func NewFileDevice(path string) (*FileDevice, error) {
	created, err := Created(path)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, err
	}

	if created {
		if err := f.Truncate(layout.TotalBytes); err != nil {
			f.Close()
			return nil, err
		}
	}

	return &FileDevice{f: f}, nil
}

func (d *FileDevice) ReadBlock(idx int64, dst []byte) error {
	checkLen(dst)
	_, err := d.f.ReadAt(dst, idx*layout.BlockSize)
	return err
}

func (d *FileDevice) WriteBlock(idx int64, src []byte) error {
	checkLen(src)
	_, err := d.f.WriteAt(src, idx*layout.BlockSize)
	return err
}

func (d *FileDevice) Sync() error { return d.f.Sync() }

func (d *FileDevice) Close() error { return d.f.Close() }
