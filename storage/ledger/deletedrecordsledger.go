package ledger

import (
	"encoding/binary"

	"github.com/kasuganosora/pagedb/storage/memmanager"
)

// DeletedRecord is one entry in the audit trail kept by
// DeletedRecordsLedger (SPEC_FULL.md §5, supplementing
// original_source/ic-dbms-canister/src/memory/table_registry/deleted_records_ledger.rs,
// which the spec.md distillation folded away). It records that a record
// of Size bytes at (Page, Offset) was deleted, and the op that deleted
// it, purely for auditability — nothing in the read path consults it.
type DeletedRecord struct {
	Page   uint32
	Offset uint16
	Size   uint16
	OpID   uint64
}

// DeletedRecordsLedger is a per-table durable append-only log of deletes.
type DeletedRecordsLedger struct {
	mgr     *memmanager.Manager
	page    uint32
	entries []DeletedRecord
}

// LoadDeletedRecordsLedger reads the ledger stored at page.
func LoadDeletedRecordsLedger(mgr *memmanager.Manager, page uint32) (*DeletedRecordsLedger, error) {
	entries, err := memmanager.ReadDynamic(mgr, page, 0, DecodeDeletedRecords)
	if err != nil {
		return nil, err
	}
	return &DeletedRecordsLedger{mgr: mgr, page: page, entries: entries}, nil
}

// Record appends an entry and persists the ledger.
func (l *DeletedRecordsLedger) Record(page uint32, offset, size uint16, opID uint64) error {
	l.entries = append(l.entries, DeletedRecord{Page: page, Offset: offset, Size: size, OpID: opID})
	return l.mgr.WriteValue(l.page, 0, l)
}

// Entries returns the ledger's current entries, oldest first.
func (l *DeletedRecordsLedger) Entries() []DeletedRecord {
	out := make([]DeletedRecord, len(l.entries))
	copy(out, l.entries)
	return out
}

// EncodedBytes implements memmanager.Encodable.
func (l *DeletedRecordsLedger) EncodedBytes() []byte {
	buf := make([]byte, 4+len(l.entries)*16)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(l.entries)))
	pos := 4
	for _, e := range l.entries {
		binary.LittleEndian.PutUint32(buf[pos:pos+4], e.Page)
		binary.LittleEndian.PutUint16(buf[pos+4:pos+6], e.Offset)
		binary.LittleEndian.PutUint16(buf[pos+6:pos+8], e.Size)
		binary.LittleEndian.PutUint64(buf[pos+8:pos+16], e.OpID)
		pos += 16
	}
	return buf
}

// DecodeDeletedRecords parses the wire format produced by EncodedBytes.
func DecodeDeletedRecords(buf []byte) ([]DeletedRecord, error) {
	if len(buf) < 4 {
		return nil, nil
	}
	count := binary.LittleEndian.Uint32(buf[0:4])
	entries := make([]DeletedRecord, 0, count)
	pos := 4
	for i := uint32(0); i < count; i++ {
		if pos+16 > len(buf) {
			break
		}
		entries = append(entries, DeletedRecord{
			Page:   binary.LittleEndian.Uint32(buf[pos : pos+4]),
			Offset: binary.LittleEndian.Uint16(buf[pos+4 : pos+6]),
			Size:   binary.LittleEndian.Uint16(buf[pos+6 : pos+8]),
			OpID:   binary.LittleEndian.Uint64(buf[pos+8 : pos+16]),
		})
		pos += 16
	}
	return entries, nil
}
