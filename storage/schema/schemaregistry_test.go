package schema

import (
	"testing"

	"github.com/kasuganosora/pagedb/storage/memmanager"
	"github.com/kasuganosora/pagedb/storage/memprovider/inmemprovider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRegisterIsIdempotentAndDurable(t *testing.T) {
	mgr, err := memmanager.New(inmemprovider.New())
	require.NoError(t, err)

	reg, err := Load(mgr)
	require.NoError(t, err)
	assert.Empty(t, reg.Tables())

	loc1, err := reg.RegisterTable(42)
	require.NoError(t, err)
	assert.NotZero(t, loc1.PagesListPage)
	assert.NotZero(t, loc1.FreeSegmentsPage)
	assert.NotZero(t, loc1.DeletedRecordsPage)

	loc2, err := reg.RegisterTable(42)
	require.NoError(t, err)
	assert.Equal(t, loc1, loc2)

	reloaded, err := Load(mgr)
	require.NoError(t, err)
	found, ok := reloaded.Lookup(42)
	require.True(t, ok)
	assert.Equal(t, loc1, found)
}

func TestRegistryDistinctFingerprintsGetDistinctPages(t *testing.T) {
	mgr, err := memmanager.New(inmemprovider.New())
	require.NoError(t, err)
	reg, err := Load(mgr)
	require.NoError(t, err)

	a, err := reg.RegisterTable(1)
	require.NoError(t, err)
	b, err := reg.RegisterTable(2)
	require.NoError(t, err)

	assert.NotEqual(t, a.PagesListPage, b.PagesListPage)
	assert.NotEqual(t, a.FreeSegmentsPage, b.FreeSegmentsPage)
	assert.NotEqual(t, a.DeletedRecordsPage, b.DeletedRecordsPage)
	assert.Len(t, reg.Tables(), 2)
}
