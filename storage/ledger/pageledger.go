// Package ledger implements the PageLedger and FreeSegmentsLedger of spec
// §4.D/§4.E, plus a supplemental DeletedRecordsLedger (SPEC_FULL.md §5).
package ledger

import (
	"encoding/binary"

	"github.com/kasuganosora/pagedb/storage/memmanager"
	"github.com/kasuganosora/pagedb/storage/memprovider"
)

// PageRecord is the per-page free-space entry of spec §3/§4.D.
type PageRecord struct {
	Page uint32
	Free uint64
}

// ErrDataTooLarge is returned when a single record is larger than one
// page (spec §4.D).
type ErrDataTooLarge struct {
	RecordSize int
	PageSize   int
}

func (e *ErrDataTooLarge) Error() string {
	return "ledger: record size exceeds page size"
}

// PageLedger is the per-table page/free-space index of spec §4.D, durable
// at a dedicated ledger page.
type PageLedger struct {
	mgr        *memmanager.Manager
	ledgerPage uint32
	records    []PageRecord
}

// LoadPageLedger reads the ledger stored at ledgerPage. An empty/unwritten
// page decodes to zero records.
func LoadPageLedger(mgr *memmanager.Manager, ledgerPage uint32) (*PageLedger, error) {
	records, err := memmanager.ReadDynamic(mgr, ledgerPage, 0, decodePageRecords)
	if err != nil {
		return nil, err
	}
	return &PageLedger{mgr: mgr, ledgerPage: ledgerPage, records: records}, nil
}

func (l *PageLedger) persist() error {
	return l.mgr.WriteValue(l.ledgerPage, 0, encodedPageRecords(l.records))
}

// Records returns the ledger's entries in stored order — the order a
// TableReader walks pages in (spec §4.F).
func (l *PageLedger) Records() []PageRecord {
	out := make([]PageRecord, len(l.records))
	copy(out, l.records)
	return out
}

// GetPageAndOffsetForRecord finds the first page with enough free space
// for a record of recordSize bytes, allocating a new page if none exists
// (spec §4.D).
func (l *PageLedger) GetPageAndOffsetForRecord(recordSize uint16) (page uint32, offset uint16, err error) {
	if int(recordSize) > memprovider.PageSize {
		return 0, 0, &ErrDataTooLarge{RecordSize: int(recordSize), PageSize: memprovider.PageSize}
	}
	for _, r := range l.records {
		if r.Free >= uint64(recordSize) {
			return r.Page, uint16(memprovider.PageSize) - uint16(r.Free), nil
		}
	}
	newPage, err := l.mgr.AllocatePage()
	if err != nil {
		return 0, 0, err
	}
	l.records = append(l.records, PageRecord{Page: newPage, Free: memprovider.PageSize})
	if err := l.persist(); err != nil {
		return 0, 0, err
	}
	return newPage, 0, nil
}

// Commit decrements the free counter for page by recordSize and persists
// the ledger (spec §4.D).
func (l *PageLedger) Commit(page uint32, recordSize uint16) error {
	for i := range l.records {
		if l.records[i].Page == page {
			l.records[i].Free -= uint64(recordSize)
			return l.persist()
		}
	}
	return nil
}

type encodedPageRecords []PageRecord

func (r encodedPageRecords) EncodedBytes() []byte {
	buf := make([]byte, 4+len(r)*12)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(r)))
	pos := 4
	for _, rec := range r {
		binary.LittleEndian.PutUint32(buf[pos:pos+4], rec.Page)
		binary.LittleEndian.PutUint64(buf[pos+4:pos+12], rec.Free)
		pos += 12
	}
	return buf
}

func decodePageRecords(buf []byte) ([]PageRecord, error) {
	if len(buf) < 4 {
		return nil, nil
	}
	count := binary.LittleEndian.Uint32(buf[0:4])
	records := make([]PageRecord, 0, count)
	pos := 4
	for i := uint32(0); i < count; i++ {
		if pos+12 > len(buf) {
			break
		}
		records = append(records, PageRecord{
			Page: binary.LittleEndian.Uint32(buf[pos : pos+4]),
			Free: binary.LittleEndian.Uint64(buf[pos+4 : pos+12]),
		})
		pos += 12
	}
	return records, nil
}
