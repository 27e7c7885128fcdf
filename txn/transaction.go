// Package txn implements the Transaction and TransactionSession of spec
// §4.J: an op log plus per-table overlays, and a process-wide session map
// keyed by transaction id.
package txn

import (
	"github.com/kasuganosora/pagedb/query/filter"
	"github.com/kasuganosora/pagedb/storage/value"
	"github.com/kasuganosora/pagedb/txn/overlay"
)

// ID is a TransactionId: monotonic and never reused within a process
// (spec §4.J). Generated by an atomic counter on the Session rather than
// a random uuid — stability and ordering matter here, randomness does
// not.
type ID uint64

// OpKind mirrors overlay.Kind at the transaction-log level, naming the
// operation a commit replay must perform (spec §4.J: "records every
// mutation twice").
type OpKind int

const (
	OpInsert OpKind = iota
	OpUpdate
	OpDelete
)

// DeleteBehavior controls how a buffered Delete op cascades at commit
// time (spec §6.4).
type DeleteBehavior int

const (
	DeleteRestrict DeleteBehavior = iota
	DeleteCascade
	DeleteBreak
)

// LogOp is one entry in a Transaction's op log — the record commit
// replays, as distinct from the TableOverlay entry that serves reads in
// the meantime (spec §4.J).
type LogOp struct {
	Kind     OpKind
	Table    string
	PK       value.Value
	Row      filter.Row              // Insert
	Patches  map[string]value.Value  // Update
	Behavior DeleteBehavior          // Delete
	Filter   *filter.Filter          // Delete, informational
}

// Transaction is the spec §4.J Transaction: an id, an owning principal,
// a per-table overlay map, and the ordered op log commit replays.
type Transaction struct {
	ID      ID
	Owner   string
	overlay map[string]*overlay.TableOverlay
	ops     []LogOp
}

func newTransaction(id ID, owner string) *Transaction {
	return &Transaction{ID: id, Owner: owner, overlay: make(map[string]*overlay.TableOverlay)}
}

// Overlay returns the transaction's overlay for table, creating an empty
// one on first access.
func (t *Transaction) Overlay(table string) *overlay.TableOverlay {
	ov, ok := t.overlay[table]
	if !ok {
		ov = &overlay.TableOverlay{}
		t.overlay[table] = ov
	}
	return ov
}

// AppendOp appends to the op log — the half of a mutation commit replays.
func (t *Transaction) AppendOp(op LogOp) {
	t.ops = append(t.ops, op)
}

// Ops returns the op log in insertion order.
func (t *Transaction) Ops() []LogOp {
	out := make([]LogOp, len(t.ops))
	copy(out, t.ops)
	return out
}
