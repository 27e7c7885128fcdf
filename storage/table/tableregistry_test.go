package table

import (
	"testing"

	"github.com/kasuganosora/pagedb/storage/memmanager"
	"github.com/kasuganosora/pagedb/storage/memprovider/inmemprovider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistry(t *testing.T) *Registry {
	t.Helper()
	mgr, err := memmanager.New(inmemprovider.New())
	require.NoError(t, err)

	pagesListPage, err := mgr.AllocatePage()
	require.NoError(t, err)
	freeSegmentsPage, err := mgr.AllocatePage()
	require.NoError(t, err)
	deletedRecordsPage, err := mgr.AllocatePage()
	require.NoError(t, err)

	reg, err := Open(mgr, pagesListPage, freeSegmentsPage, deletedRecordsPage)
	require.NoError(t, err)
	return reg
}

func readAll(t *testing.T, reg *Registry) []NextRecord {
	t.Helper()
	r := reg.Read()
	var out []NextRecord
	for {
		rec, ok, err := r.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		out = append(out, rec)
	}
	return out
}

func TestRegistryInsertAndRead(t *testing.T) {
	reg := newRegistry(t)

	page, offset, err := reg.Insert([]byte("hello"))
	require.NoError(t, err)

	recs := readAll(t, reg)
	require.Len(t, recs, 1)
	assert.Equal(t, page, recs[0].Page)
	assert.Equal(t, offset, recs[0].Offset)
	assert.Equal(t, []byte("hello"), recs[0].Payload)

	raw, err := reg.mgr.ReadRawExact(page, offset, 1)
	require.NoError(t, err)
	assert.Equal(t, byte(magicByte), raw[0])
}

func TestRegistryDeleteZeroesAndFreesSpace(t *testing.T) {
	reg := newRegistry(t)

	page, offset, err := reg.Insert([]byte("to-delete"))
	require.NoError(t, err)

	require.NoError(t, reg.Delete(page, offset, len("to-delete")))

	raw, err := reg.mgr.ReadRawExact(page, offset, int(rawRecordSize(len("to-delete"))))
	require.NoError(t, err)
	for _, b := range raw {
		assert.Equal(t, byte(0), b)
	}

	assert.Empty(t, readAll(t, reg))

	seg, ok := reg.freeSegments.FindReusableSegment(rawRecordSize(len("to-delete")))
	require.True(t, ok)
	assert.Equal(t, page, seg.Page)
	assert.Equal(t, offset, seg.Offset)

	entries := reg.deleted.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, uint64(1), entries[0].OpID)
}

func TestRegistryInsertReusesFreedSegment(t *testing.T) {
	reg := newRegistry(t)

	page, offset, err := reg.Insert([]byte("first-value"))
	require.NoError(t, err)
	require.NoError(t, reg.Delete(page, offset, len("first-value")))

	page2, offset2, err := reg.Insert([]byte("other-value"))
	require.NoError(t, err)
	assert.Equal(t, page, page2)
	assert.Equal(t, offset, offset2)

	recs := readAll(t, reg)
	require.Len(t, recs, 1)
	assert.Equal(t, []byte("other-value"), recs[0].Payload)
}

func TestRegistryUpdateInPlaceSameSize(t *testing.T) {
	reg := newRegistry(t)

	page, offset, err := reg.Insert([]byte("abcde"))
	require.NoError(t, err)

	newPage, newOffset, err := reg.Update([]byte("zyxwv"), page, offset, len("abcde"))
	require.NoError(t, err)
	assert.Equal(t, page, newPage)
	assert.Equal(t, offset, newOffset)

	recs := readAll(t, reg)
	require.Len(t, recs, 1)
	assert.Equal(t, []byte("zyxwv"), recs[0].Payload)
}

func TestRegistryUpdateRelocatesOnSizeChange(t *testing.T) {
	reg := newRegistry(t)

	page, offset, err := reg.Insert([]byte("short"))
	require.NoError(t, err)

	newPage, newOffset, err := reg.Update([]byte("a much longer payload value"), page, offset, len("short"))
	require.NoError(t, err)

	recs := readAll(t, reg)
	require.Len(t, recs, 1)
	assert.Equal(t, []byte("a much longer payload value"), recs[0].Payload)
	assert.Equal(t, newPage, recs[0].Page)
	assert.Equal(t, newOffset, recs[0].Offset)
}
