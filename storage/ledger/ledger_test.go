package ledger

import (
	"testing"

	"github.com/kasuganosora/pagedb/storage/memmanager"
	"github.com/kasuganosora/pagedb/storage/memprovider/inmemprovider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T) *memmanager.Manager {
	t.Helper()
	m, err := memmanager.New(inmemprovider.New())
	require.NoError(t, err)
	return m
}

func TestPageLedgerAllocatesAndReuses(t *testing.T) {
	m := newManager(t)
	ledgerPage, err := m.AllocatePage()
	require.NoError(t, err)

	pl, err := LoadPageLedger(m, ledgerPage)
	require.NoError(t, err)
	assert.Empty(t, pl.Records())

	page, offset, err := pl.GetPageAndOffsetForRecord(100)
	require.NoError(t, err)
	assert.Equal(t, uint16(0), offset)
	require.NoError(t, pl.Commit(page, 100))

	page2, offset2, err := pl.GetPageAndOffsetForRecord(50)
	require.NoError(t, err)
	assert.Equal(t, page, page2)
	assert.Equal(t, uint16(100), offset2)

	reloaded, err := LoadPageLedger(m, ledgerPage)
	require.NoError(t, err)
	require.Len(t, reloaded.Records(), 1)
}

func TestPageLedgerRejectsOversizedRecord(t *testing.T) {
	m := newManager(t)
	ledgerPage, err := m.AllocatePage()
	require.NoError(t, err)
	pl, err := LoadPageLedger(m, ledgerPage)
	require.NoError(t, err)

	_, _, err = pl.GetPageAndOffsetForRecord(5000)
	require.Error(t, err)
	var target *ErrDataTooLarge
	assert.ErrorAs(t, err, &target)
}

func TestFreeSegmentsLedgerFirstFitAndRemainder(t *testing.T) {
	m := newManager(t)
	ledgerPage, err := m.AllocatePage()
	require.NoError(t, err)
	fl, err := LoadFreeSegmentsLedger(m, ledgerPage)
	require.NoError(t, err)

	require.NoError(t, fl.InsertFreeSegment(3, 100, 50))
	seg, ok := fl.FindReusableSegment(30)
	require.True(t, ok)
	assert.Equal(t, FreeSegment{Page: 3, Offset: 100, Size: 50}, seg)

	require.NoError(t, fl.CommitReusedSpace(seg, 30))
	remaining := fl.Segments()
	require.Len(t, remaining, 1)
	assert.Equal(t, FreeSegment{Page: 3, Offset: 130, Size: 20}, remaining[0])
}

func TestFreeSegmentsLedgerExactFitLeavesNoRemainder(t *testing.T) {
	m := newManager(t)
	ledgerPage, err := m.AllocatePage()
	require.NoError(t, err)
	fl, err := LoadFreeSegmentsLedger(m, ledgerPage)
	require.NoError(t, err)

	require.NoError(t, fl.InsertFreeSegment(1, 0, 10))
	seg, ok := fl.FindReusableSegment(10)
	require.True(t, ok)
	require.NoError(t, fl.CommitReusedSpace(seg, 10))
	assert.Empty(t, fl.Segments())
}

func TestDeletedRecordsLedgerAudit(t *testing.T) {
	m := newManager(t)
	page, err := m.AllocatePage()
	require.NoError(t, err)
	dl, err := LoadDeletedRecordsLedger(m, page)
	require.NoError(t, err)

	require.NoError(t, dl.Record(5, 20, 30, 1))
	require.NoError(t, dl.Record(5, 50, 30, 2))

	reloaded, err := LoadDeletedRecordsLedger(m, page)
	require.NoError(t, err)
	assert.Equal(t, []DeletedRecord{{Page: 5, Offset: 20, Size: 30, OpID: 1}, {Page: 5, Offset: 50, Size: 30, OpID: 2}}, reloaded.Entries())
}
