package blockio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ondiskfs/blockfs/layout"
)

func TestFileDeviceCreatesFullSizedImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "image.bin")

	created, err := Created(path)
	require.NoError(t, err)
	require.True(t, created)

	dev, err := NewFileDevice(path)
	require.NoError(t, err)
	defer dev.Close()

	created, err = Created(path)
	require.NoError(t, err)
	require.False(t, created)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, layout.TotalBytes, info.Size())
}

func TestFileDeviceRoundTrip(t *testing.T) {
	dir := t.TempDir()
	dev, err := NewFileDevice(filepath.Join(dir, "image.bin"))
	require.NoError(t, err)
	defer dev.Close()

	block := make([]byte, layout.BlockSize)
	for i := range block {
		block[i] = byte(i)
	}

	require.NoError(t, dev.WriteBlock(42, block))

	got := make([]byte, layout.BlockSize)
	require.NoError(t, dev.ReadBlock(42, got))
	require.Equal(t, block, got)

	other := make([]byte, layout.BlockSize)
	require.NoError(t, dev.ReadBlock(0, other))
	for _, b := range other {
		require.Equal(t, byte(0), b)
	}
}

func TestFileDeviceReopenPreservesContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "image.bin")

	dev, err := NewFileDevice(path)
	require.NoError(t, err)
	block := make([]byte, layout.BlockSize)
	block[0] = 0xAB
	require.NoError(t, dev.WriteBlock(7, block))
	require.NoError(t, dev.Sync())
	require.NoError(t, dev.Close())

	dev2, err := NewFileDevice(path)
	require.NoError(t, err)
	defer dev2.Close()

	got := make([]byte, layout.BlockSize)
	require.NoError(t, dev2.ReadBlock(7, got))
	require.Equal(t, byte(0xAB), got[0])
}
