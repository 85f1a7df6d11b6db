package diag

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ondiskfs/blockfs/engine"
)

func TestFsckCleanOnFreshImage(t *testing.T) {
	e, err := engine.Init(engine.Options{Path: filepath.Join(t.TempDir(), "img")})
	require.NoError(t, err)
	defer e.Destroy()

	r := Fsck(e.Image())
	require.True(t, r.Clean())
	require.Equal(t, 0, r.UsedSlots)
}

func TestFsckCleanAfterWrites(t *testing.T) {
	e, err := engine.Init(engine.Options{Path: filepath.Join(t.TempDir(), "img")})
	require.NoError(t, err)
	defer e.Destroy()

	require.NoError(t, e.Mknod("/a", 0644, 0, 0))
	h, err := e.Open("/a")
	require.NoError(t, err)
	_, err = e.Write(h, make([]byte, 1200), 0)
	require.NoError(t, err)

	r := Fsck(e.Image())
	require.True(t, r.Clean())
	require.Equal(t, 1, r.UsedSlots)
}
