package overlay

import (
	"github.com/kasuganosora/pagedb/query/filter"
	"github.com/kasuganosora/pagedb/storage/table"
)

// DecodeRow turns a raw record payload into a column-name-keyed row.
// Database-layer callers supply one per table, generated from the
// table's schema (spec §4.C's per-field Encode concatenation, inverted).
type DecodeRow func(payload []byte) (filter.Row, error)

// Row is one row yielded by a Reader. Page/Offset locate it in the
// durable store for one-shot follow-up writes; they are zero for rows
// that exist only in the overlay's buffered inserts.
type Row struct {
	Values          filter.Row
	Page            uint32
	Offset          uint16
	FromOverlayOnly bool
}

// Reader is the DatabaseOverlayReader of spec §4.I: composes a base
// table.Reader with a TableOverlay so the sequence of rows it yields
// matches what the base would yield after every buffered op were
// applied, with surviving inserts appended at the end in insertion
// order.
type Reader struct {
	base         *table.Reader
	baseExhausted bool
	overlay      *TableOverlay
	pkColumn     string
	decode       DecodeRow
	inserted     []filter.Row
	insertedIdx  int
}

// NewReader builds a Reader. overlay may be nil, meaning no active
// transaction — reads see only the base store (spec §4.K select step 2).
func NewReader(base *table.Reader, overlay *TableOverlay, pkColumn string, decode DecodeRow) *Reader {
	ov := overlay
	if ov == nil {
		ov = &TableOverlay{}
	}
	return &Reader{
		base:     base,
		overlay:  ov,
		pkColumn: pkColumn,
		decode:   decode,
		inserted: ov.IterInserted(pkColumn),
	}
}

// Next yields the next row per spec §4.I's four-step algorithm: pull a
// base row (falling back to inserted-overlay rows once exhausted), apply
// PatchRow, and loop past overlaid-deletes.
func (r *Reader) Next() (Row, bool, error) {
	for {
		if !r.baseExhausted {
			rec, ok, err := r.base.Next()
			if err != nil {
				return Row{}, false, err
			}
			if !ok {
				r.baseExhausted = true
				continue
			}
			row, err := r.decode(rec.Payload)
			if err != nil {
				return Row{}, false, err
			}
			patched, present := r.overlay.PatchRow(row, r.pkColumn)
			if !present {
				continue
			}
			return Row{Values: patched, Page: rec.Page, Offset: rec.Offset}, true, nil
		}

		if r.insertedIdx >= len(r.inserted) {
			return Row{}, false, nil
		}
		row := r.inserted[r.insertedIdx]
		r.insertedIdx++
		return Row{Values: row, FromOverlayOnly: true}, true, nil
	}
}
