// Package overlay implements the DatabaseOverlay of spec §4.I: a
// per-transaction, per-table buffer of Insert/Update/Delete operations
// that patches reads without touching the durable store until commit.
package overlay

import (
	"github.com/kasuganosora/pagedb/dberr"
	"github.com/kasuganosora/pagedb/query/filter"
	"github.com/kasuganosora/pagedb/storage/value"
)

// Kind identifies the shape of a buffered op.
type Kind int

const (
	KindInsert Kind = iota
	KindUpdate
	KindDelete
)

// Op is one entry in a TableOverlay's ordered op list.
type Op struct {
	Kind    Kind
	PK      value.Value
	Row     filter.Row // Insert
	Patches map[string]value.Value // Update
}

// TableOverlay is the per-table overlay of spec §4.I: an append-only,
// ordered list of ops. Reads fold the list per primary key via PatchRow.
type TableOverlay struct {
	ops []Op
}

func cloneRow(row filter.Row) filter.Row {
	out := make(filter.Row, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}

// Insert buffers an Insert op, keyed by the value of pkColumn in row.
// Fails with ErrMissingNonNullableField if the pk column is absent.
func (t *TableOverlay) Insert(pkColumn string, row filter.Row) error {
	pk, ok := row[pkColumn]
	if !ok {
		return &dberr.ErrMissingNonNullableField{Name: pkColumn}
	}
	t.ops = append(t.ops, Op{Kind: KindInsert, PK: pk, Row: cloneRow(row)})
	return nil
}

// Update buffers an Update op for the row identified by pk.
func (t *TableOverlay) Update(pk value.Value, patches map[string]value.Value) {
	t.ops = append(t.ops, Op{Kind: KindUpdate, PK: pk, Patches: patches})
}

// Delete buffers a Delete op for the row identified by pk.
func (t *TableOverlay) Delete(pk value.Value) {
	t.ops = append(t.ops, Op{Kind: KindDelete, PK: pk})
}

// Ops returns the buffered ops in insertion order. Commit does not replay
// these: it replays the transaction's own op log (txn.Transaction.Ops).
func (t *TableOverlay) Ops() []Op {
	out := make([]Op, len(t.ops))
	copy(out, t.ops)
	return out
}

// PatchRow folds every buffered op whose pk matches row's value at
// pkColumn, in list order, onto row (spec §4.I patch_row). The second
// return value is false when the row was overlaid-deleted. If row has no
// value at pkColumn, no op can target it and row is returned unchanged.
func (t *TableOverlay) PatchRow(row filter.Row, pkColumn string) (filter.Row, bool) {
	pk, ok := row[pkColumn]
	if !ok {
		return row, true
	}

	acc := cloneRow(row)
	present := true
	for _, op := range t.ops {
		if !value.Equal(op.PK, pk) {
			continue
		}
		switch op.Kind {
		case KindInsert:
			acc = cloneRow(op.Row)
			present = true
		case KindDelete:
			present = false
		case KindUpdate:
			if !present {
				continue
			}
			for col, v := range op.Patches {
				acc[col] = v
			}
		}
	}
	if !present {
		return nil, false
	}
	return acc, true
}

// IterInserted applies PatchRow to every Insert op's own row, in order,
// and returns the surviving rows — the overlay's contribution to a scan
// beyond what the base TableReader yields (spec §4.I iter_inserted).
func (t *TableOverlay) IterInserted(pkColumn string) []filter.Row {
	var out []filter.Row
	for _, op := range t.ops {
		if op.Kind != KindInsert {
			continue
		}
		if row, ok := t.PatchRow(op.Row, pkColumn); ok {
			out = append(out, row)
		}
	}
	return out
}
