package table

import (
	"github.com/kasuganosora/pagedb/storage/ledger"
	"github.com/kasuganosora/pagedb/storage/memmanager"
	"github.com/kasuganosora/pagedb/storage/memprovider"
)

// NextRecord is one live record yielded by a Reader, along with its
// on-disk location so callers can issue follow-up deletes/updates (spec
// §4.F).
type NextRecord struct {
	Payload []byte
	Page    uint32
	Offset  uint16
}

// Reader is the TableReader of spec §4.F: a linear scan across every page
// listed in a table's PageLedger, in ledger order, skipping the zero-byte
// holes left by deletes.
type Reader struct {
	mgr     *memmanager.Manager
	pages   []ledger.PageRecord
	pageIdx int
	buf     []byte
	pos     int
}

// NewReader builds a Reader over pages, in ledger order.
func NewReader(mgr *memmanager.Manager, pages []ledger.PageRecord) *Reader {
	return &Reader{mgr: mgr, pages: pages, pageIdx: -1}
}

// Next returns the next live record, or ok=false once every page has been
// exhausted.
func (r *Reader) Next() (rec NextRecord, ok bool, err error) {
	for {
		if r.buf == nil {
			r.pageIdx++
			if r.pageIdx >= len(r.pages) {
				return NextRecord{}, false, nil
			}
			buf, err := r.mgr.ReadRawExact(r.pages[r.pageIdx].Page, 0, memprovider.PageSize)
			if err != nil {
				return NextRecord{}, false, err
			}
			r.buf = buf
			r.pos = 0
		}

		page := r.pages[r.pageIdx].Page
		for r.pos < len(r.buf) {
			if r.buf[r.pos] != magicByte {
				r.pos++
				continue
			}
			payload, size, err := unwrapRaw(r.buf[r.pos:], page, uint16(r.pos))
			if err != nil {
				return NextRecord{}, false, err
			}
			rec = NextRecord{Payload: payload, Page: page, Offset: uint16(r.pos)}
			r.pos += int(size)
			return rec, true, nil
		}
		// page exhausted, advance to the next ledger entry
		r.buf = nil
	}
}
