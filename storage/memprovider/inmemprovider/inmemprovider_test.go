package inmemprovider

import (
	"testing"

	"github.com/kasuganosora/pagedb/storage/memprovider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrowAndReadWrite(t *testing.T) {
	p := New()
	pages, err := p.Pages()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), pages)

	prev, err := p.Grow(2)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), prev)

	pages, err = p.Pages()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), pages)

	require.NoError(t, p.WriteAt(10, []byte{1, 2, 3}))
	buf := make([]byte, 3)
	require.NoError(t, p.ReadAt(10, buf))
	assert.Equal(t, []byte{1, 2, 3}, buf)
}

func TestOutOfBounds(t *testing.T) {
	p := New()
	_, _ = p.Grow(1)
	err := p.ReadAt(memprovider.PageSize-1, make([]byte, 2))
	require.Error(t, err)
	var target *memprovider.ErrOutOfBounds
	assert.ErrorAs(t, err, &target)
}

func TestSnapshotRoundTrip(t *testing.T) {
	p := New()
	_, _ = p.Grow(1)
	require.NoError(t, p.WriteAt(0, []byte{0xFF}))

	restored := FromBytes(p.Bytes())
	buf := make([]byte, 1)
	require.NoError(t, restored.ReadAt(0, buf))
	assert.Equal(t, byte(0xFF), buf[0])
}
