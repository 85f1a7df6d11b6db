package engine

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ondiskfs/blockfs/fserr"
	"github.com/ondiskfs/blockfs/layout"
)

func mustInit(t *testing.T, path string) *Engine {
	e, err := Init(Options{Path: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Destroy() })
	return e
}

// Scenario 1: empty image, readdir("/") returns exactly [".", ".."].
func TestScenarioEmptyImage(t *testing.T) {
	e := mustInit(t, filepath.Join(t.TempDir(), "img"))
	names, err := e.Readdir("/")
	require.NoError(t, err)
	require.Equal(t, []string{".", ".."}, names)
}

// Scenario 2: small file round-trip.
func TestScenarioSmallFile(t *testing.T) {
	e := mustInit(t, filepath.Join(t.TempDir(), "img"))

	require.NoError(t, e.Mknod("/a", 0644, 1000, 1000))
	h, err := e.Open("/a")
	require.NoError(t, err)

	n, err := e.Write(h, []byte("hello"), 0)
	require.NoError(t, err)
	require.Equal(t, 5, n)

	buf := make([]byte, 5)
	n, err = e.Read(h, buf, 0)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, "hello", string(buf))

	attr, err := e.Getattr("/a")
	require.NoError(t, err)
	require.EqualValues(t, 5, attr.Size)
}

// Scenario 3: cross-block write spans two blocks.
func TestScenarioCrossBlockWrite(t *testing.T) {
	e := mustInit(t, filepath.Join(t.TempDir(), "img"))

	require.NoError(t, e.Mknod("/b", 0644, 0, 0))
	h, err := e.Open("/b")
	require.NoError(t, err)

	payload := make([]byte, 600)
	for i := range payload {
		payload[i] = byte(i)
	}
	n, err := e.Write(h, payload, 0)
	require.NoError(t, err)
	require.Equal(t, 600, n)

	attr, err := e.Getattr("/b")
	require.NoError(t, err)
	require.EqualValues(t, 600, attr.Size)

	slot, ok := e.img.FindByPath("/b")
	require.True(t, ok)
	require.Equal(t, 2, e.img.ChainLength(e.img.Entry(slot).ChainHead))

	buf := make([]byte, 600)
	n, err = e.Read(h, buf, 0)
	require.NoError(t, err)
	require.Equal(t, 600, n)
	require.Equal(t, payload, buf)
}

// Scenario 4: sparse extension past the current end of file.
func TestScenarioSparseExtension(t *testing.T) {
	e := mustInit(t, filepath.Join(t.TempDir(), "img"))

	require.NoError(t, e.Mknod("/b", 0644, 0, 0))
	h, err := e.Open("/b")
	require.NoError(t, err)

	_, err = e.Write(h, make([]byte, 600), 0)
	require.NoError(t, err)

	n, err := e.Write(h, []byte("Z"), 1025)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	attr, err := e.Getattr("/b")
	require.NoError(t, err)
	require.EqualValues(t, 1026, attr.Size)

	buf := make([]byte, 1)
	n, err = e.Read(h, buf, 1025)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.Equal(t, "Z", string(buf))

	slot, _ := e.img.FindByPath("/b")
	require.Equal(t, 3, e.img.ChainLength(e.img.Entry(slot).ChainHead))
}

// Scenario 5: rename, then unmount/remount, preserves content.
func TestScenarioRenamePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img")

	e := mustInit(t, path)
	require.NoError(t, e.Mknod("/b", 0644, 0, 0))
	h, err := e.Open("/b")
	require.NoError(t, err)
	_, err = e.Write(h, []byte("payload"), 0)
	require.NoError(t, err)
	require.NoError(t, e.Release(h))
	require.NoError(t, e.Rename("/b", "/c"))
	require.NoError(t, e.Destroy())

	e2, err := Init(Options{Path: path})
	require.NoError(t, err)
	defer e2.Destroy()

	names, err := e2.Readdir("/")
	require.NoError(t, err)
	require.Contains(t, names, "c")
	require.NotContains(t, names, "b")

	h2, err := e2.Open("/c")
	require.NoError(t, err)
	buf := make([]byte, 7)
	n, err := e2.Read(h2, buf, 0)
	require.NoError(t, err)
	require.Equal(t, 7, n)
	require.Equal(t, "payload", string(buf))
}

// Scenario 6: the directory table fills up, then drains.
func TestScenarioFullDirectory(t *testing.T) {
	e := mustInit(t, filepath.Join(t.TempDir(), "img"))

	for i := 0; i < layout.NumDirEntries; i++ {
		require.NoError(t, e.Mknod(pathFor(i), 0644, 0, 0))
	}
	err := e.Mknod("/overflow", 0644, 0, 0)
	require.ErrorIs(t, err, fserr.ErrNoSpace)

	require.NoError(t, e.Unlink(pathFor(0)))
	require.NoError(t, e.Mknod("/overflow", 0644, 0, 0))
}

func pathFor(i int) string {
	return "/f" + string(rune('a'+i%26)) + string(rune('0'+i/26))
}

// Scenario 7: the data region fills up entirely.
func TestScenarioFullDataRegion(t *testing.T) {
	e := mustInit(t, filepath.Join(t.TempDir(), "img"))

	require.NoError(t, e.Mknod("/a", 0644, 0, 0))

	// Drain every free block except one directly through the bitmap,
	// rather than writing layout.NumDataBlocks*layout.BlockSize bytes.
	for e.img.NumFreeBlocks() > 1 {
		_, err := e.img.FindFree()
		require.NoError(t, err)
	}

	h, err := e.Open("/a")
	require.NoError(t, err)

	_, err = e.Write(h, []byte("x"), 0)
	require.NoError(t, err)

	_, err = e.Write(h, make([]byte, layout.BlockSize), layout.BlockSize)
	require.ErrorIs(t, err, fserr.ErrNoSpace)

	require.EqualValues(t, 0, e.img.NumFreeBlocks())
}

// Scenario 8: truncate down then back up.
func TestScenarioTruncateDownThenUp(t *testing.T) {
	e := mustInit(t, filepath.Join(t.TempDir(), "img"))

	require.NoError(t, e.Mknod("/d", 0644, 0, 0))
	h, err := e.Open("/d")
	require.NoError(t, err)
	_, err = e.Write(h, make([]byte, 2048), 0)
	require.NoError(t, err)

	require.NoError(t, e.Truncate("/d", 1000))
	attr, err := e.Getattr("/d")
	require.NoError(t, err)
	require.EqualValues(t, 1000, attr.Size)
	slot, _ := e.img.FindByPath("/d")
	require.Equal(t, 2, e.img.ChainLength(e.img.Entry(slot).ChainHead))

	require.NoError(t, e.Truncate("/d", 0))
	attr, err = e.Getattr("/d")
	require.NoError(t, err)
	require.EqualValues(t, 0, attr.Size)
	require.Equal(t, layout.NullBlock, int(e.img.Entry(slot).ChainHead))
	require.EqualValues(t, layout.NumDataBlocks, e.img.NumFreeBlocks())

	require.NoError(t, e.Truncate("/d", 600))
	attr, err = e.Getattr("/d")
	require.NoError(t, err)
	require.EqualValues(t, 600, attr.Size)
	require.Equal(t, 2, e.img.ChainLength(e.img.Entry(slot).ChainHead))
}

func TestUnlinkRejectsOpenFile(t *testing.T) {
	e := mustInit(t, filepath.Join(t.TempDir(), "img"))
	require.NoError(t, e.Mknod("/a", 0644, 0, 0))
	h, err := e.Open("/a")
	require.NoError(t, err)
	_ = h

	err = e.Unlink("/a")
	require.ErrorIs(t, err, fserr.ErrBusy)
}

func TestOpenRejectsDoubleOpen(t *testing.T) {
	e := mustInit(t, filepath.Join(t.TempDir(), "img"))
	require.NoError(t, e.Mknod("/a", 0644, 0, 0))
	_, err := e.Open("/a")
	require.NoError(t, err)

	_, err = e.Open("/a")
	require.ErrorIs(t, err, fserr.ErrAlreadyOpen)
}

func TestGetattrRoot(t *testing.T) {
	e := mustInit(t, filepath.Join(t.TempDir(), "img"))
	attr, err := e.Getattr("/")
	require.NoError(t, err)
	require.EqualValues(t, 2, attr.Nlink)
}

func TestChmodIdempotent(t *testing.T) {
	e := mustInit(t, filepath.Join(t.TempDir(), "img"))
	require.NoError(t, e.Mknod("/a", 0644, 0, 0))

	require.NoError(t, e.Chmod("/a", 0600))
	require.NoError(t, e.Chmod("/a", 0600))

	attr, err := e.Getattr("/a")
	require.NoError(t, err)
	require.EqualValues(t, 0600, attr.Mode)
}
