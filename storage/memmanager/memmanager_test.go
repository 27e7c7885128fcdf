package memmanager

import (
	"testing"

	"github.com/kasuganosora/pagedb/storage/memprovider"
	"github.com/kasuganosora/pagedb/storage/memprovider/inmemprovider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReservesSchemaAndACLPages(t *testing.T) {
	m, err := New(inmemprovider.New())
	require.NoError(t, err)
	pages, err := m.Pages()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), pages)
}

func TestAllocatePageIsZeroed(t *testing.T) {
	m, err := New(inmemprovider.New())
	require.NoError(t, err)
	page, err := m.AllocatePage()
	require.NoError(t, err)
	assert.Equal(t, uint32(2), page)

	buf, err := m.ReadRawExact(page, 0, memprovider.PageSize)
	require.NoError(t, err)
	for _, b := range buf {
		assert.Equal(t, byte(0), b)
	}
}

func TestWriteRawOutOfPageFails(t *testing.T) {
	m, err := New(inmemprovider.New())
	require.NoError(t, err)
	page, err := m.AllocatePage()
	require.NoError(t, err)

	err = m.WriteRaw(page, memprovider.PageSize-2, []byte{1, 2, 3})
	require.Error(t, err)
	var target *ErrSegmentationFault
	assert.ErrorAs(t, err, &target)
}

func TestWriteToUnallocatedPageFails(t *testing.T) {
	m, err := New(inmemprovider.New())
	require.NoError(t, err)
	err = m.WriteRaw(999, 0, []byte{1})
	require.Error(t, err)
	var target *ErrSegmentationFault
	assert.ErrorAs(t, err, &target)
}
