package fserr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrnoMapsSentinels(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{ErrNotFound, -2},
		{ErrExists, -17},
		{ErrNoSpace, -28},
		{ErrTooManyOpen, -24},
		{ErrBusy, -16},
		{ErrAlreadyOpen, -1},
		{ErrInvalidArgument, -22},
		{ErrBadHandle, -9},
		{ErrIO, -5},
	}
	for _, c := range cases {
		require.Equal(t, c.want, Errno(c.err))
	}
}

func TestErrnoNilIsZero(t *testing.T) {
	require.Equal(t, 0, Errno(nil))
}

func TestErrnoUnknownIsEPERM(t *testing.T) {
	require.Equal(t, -1, Errno(errors.New("mystery")))
}

func TestWrapIOPreservesSentinel(t *testing.T) {
	wrapped := WrapIO(errors.New("disk on fire"), "writing block %d", 7)
	require.True(t, errors.Is(wrapped, ErrIO))
	require.Equal(t, -5, Errno(wrapped))
	require.Contains(t, wrapped.Error(), "disk on fire")
	require.Contains(t, wrapped.Error(), "writing block 7")
}

func TestWrapIONilIsNil(t *testing.T) {
	require.NoError(t, WrapIO(nil, "whatever"))
}
