//go:build linux || darwin

package blockio

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/ondiskfs/blockfs/layout"
)

// MappedDevice is a Device backed by a single mmap of the whole
// container file, grounded on qingw1230-corekv/utils/mmap: the file is
// mapped once, MAP_SHARED, and block reads/writes become plain slice
// copies against the mapping. Sync issues an msync to push dirty pages
// back to the file. This is the "degraded mode" alternative spec.md §5
// allows alongside the always-open FileDevice.
type MappedDevice struct {
	f    *os.File
	data []byte
}

// NewMappedDevice opens (creating if necessary) the container file at
// path, sizes it to the full image size, and memory-maps it.
func NewMappedDevice(path string) (*MappedDevice, error) {
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

	data, err := unix.Mmap(int(f.Fd()), 0, int(layout.TotalBytes), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &MappedDevice{f: f, data: data}, nil
}

func (d *MappedDevice) ReadBlock(idx int64, dst []byte) error {
	checkLen(dst)
	off := idx * layout.BlockSize
	copy(dst, d.data[off:off+layout.BlockSize])
	return nil
}

func (d *MappedDevice) WriteBlock(idx int64, src []byte) error {
	checkLen(src)
	off := idx * layout.BlockSize
	copy(d.data[off:off+layout.BlockSize], src)
	return nil
}

func (d *MappedDevice) Sync() error {
	return unix.Msync(d.data, unix.MS_SYNC)
}

func (d *MappedDevice) Close() error {
	if err := unix.Munmap(d.data); err != nil {
		d.f.Close()
		return err
	}
	return d.f.Close()
}
