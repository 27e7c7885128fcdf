package dbms

import (
	"github.com/kasuganosora/pagedb/dberr"
	"github.com/kasuganosora/pagedb/dbms/tableschema"
	"github.com/kasuganosora/pagedb/query/filter"
	"github.com/kasuganosora/pagedb/txn"
)

// Trap is the abort-the-process sink of spec §6.3's `trap(msg) -> !`.
type Trap func(msg string)

// Database is the short-lived façade of spec §3/§4.K:
// { schema, transaction: Optional<TransactionId> }.
type Database struct {
	schema      *Registry
	session     *txn.Session
	transaction *txn.ID
	trap        Trap
}

// Oneshot builds a Database with no active transaction (spec §6.4
// oneshot(schema)).
func Oneshot(schema *Registry, session *txn.Session, trap Trap) *Database {
	return &Database{schema: schema, session: session, trap: trap}
}

// FromTransaction builds a Database bound to an existing transaction
// (spec §6.4 from_transaction(schema, tx_id)).
func FromTransaction(schema *Registry, session *txn.Session, trap Trap, id txn.ID) *Database {
	tid := id
	return &Database{schema: schema, session: session, transaction: &tid, trap: trap}
}

// Select implements spec §6.4 select<T>(Query<T>).
func (d *Database) Select(table string, q tableschema.Query) ([]tableschema.Record, error) {
	return d.schema.Select(d, table, q)
}

// Insert implements spec §6.4 insert<T>(T::Insert).
func (d *Database) Insert(table string, row filter.Row) error {
	return d.schema.Insert(d, table, row)
}

// Update implements spec §6.4 update<T>(T::Update) -> row-count.
func (d *Database) Update(table string, patch Patch) (uint64, error) {
	return d.schema.Update(d, table, patch)
}

// Delete implements spec §6.4 delete<T>(DeleteBehavior, Optional<Filter>) -> row-count.
func (d *Database) Delete(table string, behavior txn.DeleteBehavior, f *filter.Filter) (uint64, error) {
	return d.schema.Delete(d, table, behavior, f)
}

// Commit implements spec §4.K commit: take the transaction out of the
// session, then replay its op log. Any replay error traps the process.
func (d *Database) Commit() error {
	if d.transaction == nil {
		return &dberr.ErrNoActiveTransaction{}
	}
	id := *d.transaction
	tx, err := d.session.TakeTransaction(id)
	if err != nil {
		return err
	}
	d.transaction = nil

	oneshot := Oneshot(d.schema, d.session, d.trap)
	atomic(oneshot, func(db *Database) (struct{}, error) {
		for _, op := range tx.Ops() {
			if err := replayOp(db, op); err != nil {
				return struct{}{}, err
			}
		}
		return struct{}{}, nil
	})
	return nil
}

// replayOp applies one logged op during commit (spec §4.K commit step
// 2): Insert re-validates against the now-authoritative view before
// applying; Update/Delete key their filter off the table's real primary
// key column, looked up fresh since a transaction's op log spans many
// tables.
func replayOp(db *Database, op txn.LogOp) error {
	switch op.Kind {
	case txn.OpInsert:
		if err := db.schema.ValidateInsert(db, op.Table, op.Row); err != nil {
			return err
		}
		return db.schema.Insert(db, op.Table, op.Row)
	case txn.OpUpdate:
		ts, err := db.schema.tableSchema(op.Table)
		if err != nil {
			return err
		}
		_, err = db.schema.Update(db, op.Table, Patch{Filter: filter.Eq(ts.PrimaryKeyColumn(), op.PK), Set: op.Patches})
		return err
	case txn.OpDelete:
		ts, err := db.schema.tableSchema(op.Table)
		if err != nil {
			return err
		}
		_, err = db.schema.Delete(db, op.Table, op.Behavior, filter.Eq(ts.PrimaryKeyColumn(), op.PK))
		return err
	default:
		return nil
	}
}

// Rollback implements spec §4.K rollback: discard the transaction. Never
// fails.
func (d *Database) Rollback() error {
	if d.transaction == nil {
		return nil
	}
	d.session.CloseTransaction(*d.transaction)
	d.transaction = nil
	return nil
}

// Atomic exposes spec §4.K's atomic(f) to callers building their own
// multi-step one-shot mutations against d.
func Atomic[T any](d *Database, f func(*Database) (T, error)) T {
	return atomic(d, f)
}
