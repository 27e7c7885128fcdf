package table

import (
	"github.com/kasuganosora/pagedb/storage/ledger"
	"github.com/kasuganosora/pagedb/storage/memmanager"
)

// Registry is the TableRegistry of spec §4.F: a per-table record
// allocator, reader, insert/delete/update, sitting on a PageLedger and a
// FreeSegmentsLedger. It also keeps a DeletedRecordsLedger, the
// supplemental audit trail of SPEC_FULL.md §5 — additive only, never
// consulted by reads.
type Registry struct {
	mgr          *memmanager.Manager
	pages        *ledger.PageLedger
	freeSegments *ledger.FreeSegmentsLedger
	deleted      *ledger.DeletedRecordsLedger
	nextOpID     uint64
}

// Open loads a table's ledgers given the (pagesListPage, freeSegmentsPage)
// pair a SchemaRegistry entry carries (spec §4.G), plus a page reserved
// for the supplemental deleted-records audit trail.
func Open(mgr *memmanager.Manager, pagesListPage, freeSegmentsPage, deletedRecordsPage uint32) (*Registry, error) {
	pages, err := ledger.LoadPageLedger(mgr, pagesListPage)
	if err != nil {
		return nil, err
	}
	freeSegments, err := ledger.LoadFreeSegmentsLedger(mgr, freeSegmentsPage)
	if err != nil {
		return nil, err
	}
	deleted, err := ledger.LoadDeletedRecordsLedger(mgr, deletedRecordsPage)
	if err != nil {
		return nil, err
	}
	return &Registry{mgr: mgr, pages: pages, freeSegments: freeSegments, deleted: deleted}, nil
}

// Insert writes payload as a new raw record and returns its location
// (spec §4.F insert).
func (r *Registry) Insert(payload []byte) (page uint32, offset uint16, err error) {
	raw := wrapRaw(payload)
	size := uint16(len(raw))

	if seg, ok := r.freeSegments.FindReusableSegment(size); ok {
		if err := r.mgr.WriteRaw(seg.Page, seg.Offset, raw); err != nil {
			return 0, 0, err
		}
		if err := r.freeSegments.CommitReusedSpace(seg, size); err != nil {
			return 0, 0, err
		}
		return seg.Page, seg.Offset, nil
	}

	page, offset, err = r.pages.GetPageAndOffsetForRecord(size)
	if err != nil {
		return 0, 0, err
	}
	if err := r.mgr.WriteRaw(page, offset, raw); err != nil {
		return 0, 0, err
	}
	if err := r.pages.Commit(page, size); err != nil {
		return 0, 0, err
	}
	return page, offset, nil
}

// Delete zeroes the raw record at (page, offset) — payloadLen bytes plus
// the header — and records the reclaimed span as a free segment (spec
// §4.F delete). The page's PageRecord.Free counter is deliberately left
// untouched, per spec §9 OQ1: only a later reused-segment insert revives
// this space.
func (r *Registry) Delete(page uint32, offset uint16, payloadLen int) error {
	size := rawRecordSize(payloadLen)
	if err := r.mgr.Zero(page, offset, int(size)); err != nil {
		return err
	}
	if err := r.freeSegments.InsertFreeSegment(page, offset, size); err != nil {
		return err
	}
	r.nextOpID++
	return r.deleted.Record(page, offset, size, r.nextOpID)
}

// Update overwrites in place when the new payload is the same size as the
// old one, or deletes the old record and inserts the new one otherwise
// (spec §4.F update).
func (r *Registry) Update(newPayload []byte, oldPage uint32, oldOffset uint16, oldPayloadLen int) (page uint32, offset uint16, err error) {
	if len(newPayload) == oldPayloadLen {
		raw := wrapRaw(newPayload)
		if err := r.mgr.WriteRaw(oldPage, oldOffset, raw); err != nil {
			return 0, 0, err
		}
		return oldPage, oldOffset, nil
	}
	if err := r.Delete(oldPage, oldOffset, oldPayloadLen); err != nil {
		return 0, 0, err
	}
	return r.Insert(newPayload)
}

// Read returns a fresh linear-scan Reader over the table's live records
// (spec §4.F read).
func (r *Registry) Read() *Reader {
	return NewReader(r.mgr, r.pages.Records())
}
