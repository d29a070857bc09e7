package quarantine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/trion-lang/trion/trionerr"
)

func TestSealThenDestroy(t *testing.T) {
	q := New(4)

	a, err := q.Alloc(8)
	require.NoError(t, err)
	b, err := q.Alloc(16)
	require.NoError(t, err)
	c, err := q.Alloc(24)
	require.NoError(t, err)
	require.Equal(t, 3, q.Len())

	q.Seal()
	require.True(t, q.Sealed())

	_, err = q.Alloc(8)
	require.ErrorIs(t, err, trionerr.ErrSealed)

	require.NotNil(t, a.Bytes())
	require.NotNil(t, b.Bytes())
	require.NotNil(t, c.Bytes())

	q.Destroy()
	require.Equal(t, 0, q.Len())
}

func TestFreeSwapsLastEntry(t *testing.T) {
	q := New(0)
	a, _ := q.Alloc(1)
	b, _ := q.Alloc(1)
	c, _ := q.Alloc(1)
	require.Equal(t, 3, q.Len())

	require.NoError(t, q.Free(a))
	require.Equal(t, 2, q.Len())

	// a is no longer a member; freeing it again is ErrNotFound.
	err := q.Free(a)
	require.True(t, errors.Is(err, trionerr.ErrNotFound))

	require.NoError(t, q.Free(b))
	require.NoError(t, q.Free(c))
	require.Equal(t, 0, q.Len())
}

func TestAllocZeroSizeIsInvalid(t *testing.T) {
	q := New(0)
	_, err := q.Alloc(0)
	require.ErrorIs(t, err, trionerr.ErrInvalidArgs)
}

func TestStrdup(t *testing.T) {
	q := New(0)
	b, err := q.Strdup("hello")
	require.NoError(t, err)
	require.Equal(t, "hello\x00", string(b.Bytes()))
}

func TestDefaultCapacity(t *testing.T) {
	q := New(0)
	require.Equal(t, defaultInitialCapacity, q.Cap())
}
