package badgerprovider

import (
	"testing"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/kasuganosora/pagedb/storage/memprovider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openInMemory(t *testing.T) *Provider {
	t.Helper()
	p, err := OpenWithOptions(badger.DefaultOptions("").WithInMemory(true).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestBadgerProviderGrowAndReadWrite(t *testing.T) {
	p := openInMemory(t)

	prev, err := p.Grow(2)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), prev)

	pages, err := p.Pages()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), pages)

	require.NoError(t, p.WriteAt(memprovider.PageSize-2, []byte{1, 2, 3, 4}))
	buf := make([]byte, 4)
	require.NoError(t, p.ReadAt(memprovider.PageSize-2, buf))
	assert.Equal(t, []byte{1, 2, 3, 4}, buf)
}

func TestBadgerProviderOutOfBounds(t *testing.T) {
	p := openInMemory(t)
	_, err := p.Grow(1)
	require.NoError(t, err)

	err = p.ReadAt(memprovider.PageSize, make([]byte, 1))
	require.Error(t, err)
	var target *memprovider.ErrOutOfBounds
	assert.ErrorAs(t, err, &target)
}
