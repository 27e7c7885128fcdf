// Package dbms implements the Database façade of spec §4.K and the
// DatabaseSchema dispatcher of spec §4.M.
package dbms

import (
	"fmt"
	"sort"

	"github.com/kasuganosora/pagedb/dberr"
	"github.com/kasuganosora/pagedb/dbms/integrity"
	"github.com/kasuganosora/pagedb/dbms/tableschema"
	"github.com/kasuganosora/pagedb/query/filter"
	"github.com/kasuganosora/pagedb/storage/memmanager"
	"github.com/kasuganosora/pagedb/storage/schema"
	"github.com/kasuganosora/pagedb/storage/table"
	"github.com/kasuganosora/pagedb/storage/value"
	"github.com/kasuganosora/pagedb/txn"
	"github.com/kasuganosora/pagedb/txn/overlay"
)

// Registry is the runtime DatabaseSchema of spec §4.M: a name-keyed
// dispatch table over compile-time TableSchemas, generalized the way
// spec §9's "re-architecture" note prescribes — a hand-rolled dynamic
// dispatch table standing in for the trait-object erasure a Rust source
// would use.
type Registry struct {
	mgr       *memmanager.Manager
	schemaReg *schema.Registry
	tables    map[string]tableschema.TableSchema
	tableRegs map[string]*table.Registry
}

// NewRegistry loads the durable SchemaRegistry from mgr.
func NewRegistry(mgr *memmanager.Manager) (*Registry, error) {
	sr, err := schema.Load(mgr)
	if err != nil {
		return nil, err
	}
	return &Registry{
		mgr:       mgr,
		schemaReg: sr,
		tables:    make(map[string]tableschema.TableSchema),
		tableRegs: make(map[string]*table.Registry),
	}, nil
}

// RegisterTable wires a compile-time TableSchema into the dispatcher,
// allocating its ledger pages on first registration (spec §4.G
// register_table, invoked here rather than lazily).
func (r *Registry) RegisterTable(ts tableschema.TableSchema) error {
	loc, err := r.schemaReg.RegisterTable(ts.Fingerprint())
	if err != nil {
		return err
	}
	tr, err := table.Open(r.mgr, loc.PagesListPage, loc.FreeSegmentsPage, loc.DeletedRecordsPage)
	if err != nil {
		return err
	}
	r.tables[ts.TableName()] = ts
	r.tableRegs[ts.TableName()] = tr
	return nil
}

func (r *Registry) tableSchema(name string) (tableschema.TableSchema, error) {
	ts, ok := r.tables[name]
	if !ok {
		return nil, &dberr.ErrTableNotFound{Name: name}
	}
	return ts, nil
}

func (r *Registry) tableRegistry(name string) (*table.Registry, error) {
	tr, ok := r.tableRegs[name]
	if !ok {
		return nil, &dberr.ErrTableNotFound{Name: name}
	}
	return tr, nil
}

// ReferencedTables implements spec §4.M's referenced_tables: every
// registered table with a foreign key pointing at name.
func (r *Registry) ReferencedTables(name string) []tableschema.ReferencedTable {
	var out []tableschema.ReferencedTable
	names := make([]string, 0, len(r.tables))
	for n := range r.tables {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, tname := range names {
		ts := r.tables[tname]
		var cols []string
		for _, col := range ts.Columns() {
			if col.ForeignKey != nil && col.ForeignKey.ForeignTable == name {
				cols = append(cols, col.Name)
			}
		}
		if len(cols) > 0 {
			out = append(out, tableschema.ReferencedTable{ReferencingTable: tname, LocalColumns: cols})
		}
	}
	return out
}

func (r *Registry) activeOverlay(db *Database, tableName string) (*overlay.TableOverlay, error) {
	if db.transaction == nil {
		return nil, nil
	}
	tx, err := db.session.GetTransaction(*db.transaction)
	if err != nil {
		return nil, err
	}
	return tx.Overlay(tableName), nil
}

// selectRaw streams the overlaid rows of tableName matching f, without
// projection, eager relations, ordering, or limit — the shared base for
// Select, Update, Delete, and the integrity validator's counts.
func (r *Registry) selectRaw(db *Database, tableName string, f *filter.Filter) ([]overlay.Row, error) {
	tr, err := r.tableRegistry(tableName)
	if err != nil {
		return nil, err
	}
	ts, err := r.tableSchema(tableName)
	if err != nil {
		return nil, err
	}
	ov, err := r.activeOverlay(db, tableName)
	if err != nil {
		return nil, err
	}
	reader := overlay.NewReader(tr.Read(), ov, ts.PrimaryKeyColumn(), ts.DecodeRow)

	var out []overlay.Row
	for {
		row, ok, err := reader.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if f != nil {
			matched, err := f.Matches(row.Values)
			if err != nil {
				return nil, err
			}
			if !matched {
				continue
			}
		}
		out = append(out, row)
	}
	return out, nil
}

// countAdapter binds a Database to the integrity.RowSource interface
// without giving the integrity package a dependency on dbms.
type countAdapter struct {
	db *Database
	r  *Registry
}

func (a countAdapter) CountWhere(table, column string, val value.Value) (int, error) {
	rows, err := a.r.selectRaw(a.db, table, filter.Eq(column, val))
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// ValidateInsert runs the spec §4.L checks against db's overlaid view.
func (r *Registry) ValidateInsert(db *Database, tableName string, row filter.Row) error {
	ts, err := r.tableSchema(tableName)
	if err != nil {
		return err
	}
	return integrity.ValidateInsert(countAdapter{db: db, r: r}, ts, row)
}

// Select implements spec §4.K select<T>.
func (r *Registry) Select(db *Database, tableName string, q tableschema.Query) ([]tableschema.Record, error) {
	ts, err := r.tableSchema(tableName)
	if err != nil {
		return nil, err
	}

	rows, err := r.selectFilteredLimited(db, tableName, q)
	if err != nil {
		return nil, err
	}
	sortRows(rows, q.OrderBy)

	records := make([]tableschema.Record, 0, len(rows))
	for _, row := range rows {
		rec, err := r.projectRow(db, ts, row, q)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (r *Registry) selectFilteredLimited(db *Database, tableName string, q tableschema.Query) ([]filter.Row, error) {
	tr, err := r.tableRegistry(tableName)
	if err != nil {
		return nil, err
	}
	ts, err := r.tableSchema(tableName)
	if err != nil {
		return nil, err
	}
	ov, err := r.activeOverlay(db, tableName)
	if err != nil {
		return nil, err
	}
	reader := overlay.NewReader(tr.Read(), ov, ts.PrimaryKeyColumn(), ts.DecodeRow)

	limit := 0
	if q.Limit != nil {
		limit = *q.Limit
	}
	offset := 0
	if q.Offset != nil {
		offset = *q.Offset
	}

	results := make([]filter.Row, 0, tableschema.DefaultSelectCapacityHint)
	matched := 0
	for {
		row, ok, err := reader.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if q.Filter != nil {
			ok, err := q.Filter.Matches(row.Values)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		matched++
		if matched <= offset {
			continue
		}
		results = append(results, row.Values)
		if limit > 0 && len(results) >= limit {
			break
		}
	}
	return results, nil
}

// sortRows implements spec §4.K step 5: stable-sort, applied in reverse
// key order so earlier keys dominate (standard multi-key stable-sort
// composition). Rows missing the sort column sort last ascending, first
// descending (spec §9 OQ4: sorting runs on the un-projected row).
func sortRows(rows []filter.Row, orderBy []tableschema.OrderBy) {
	for i := len(orderBy) - 1; i >= 0; i-- {
		ob := orderBy[i]
		sort.SliceStable(rows, func(a, b int) bool {
			va, okA := rows[a][ob.Column]
			vb, okB := rows[b][ob.Column]
			if !okA && !okB {
				return false
			}
			if !okA {
				return ob.Dir == tableschema.Desc
			}
			if !okB {
				return ob.Dir != tableschema.Desc
			}
			cmp := value.Compare(va, vb)
			if ob.Dir == tableschema.Desc {
				cmp = -cmp
			}
			return cmp < 0
		})
	}
}

func findForeignKey(ts tableschema.TableSchema, relation string) *tableschema.ForeignKey {
	for _, col := range ts.Columns() {
		if col.ForeignKey != nil && col.ForeignKey.ForeignTable == relation {
			return col.ForeignKey
		}
	}
	return nil
}

// projectRow implements spec §4.K's select_queried_fields: eager
// relation fetch, then projection of the base row.
func (r *Registry) projectRow(db *Database, ts tableschema.TableSchema, row filter.Row, q tableschema.Query) (tableschema.Record, error) {
	var groups []tableschema.TableColumnGroup

	for _, rel := range q.EagerRelations {
		fk := findForeignKey(ts, rel)
		if fk == nil {
			return tableschema.Record{}, &dberr.ErrInvalidQuery{Message: fmt.Sprintf("cannot load relation %q", rel)}
		}
		fkVal, ok := row[fk.LocalColumn]
		if !ok {
			return tableschema.Record{}, &dberr.ErrMissingNonNullableField{Name: fk.LocalColumn}
		}
		foreignRecords, err := r.Select(db, fk.ForeignTable, tableschema.Query{
			Columns: tableschema.AllColumns(),
			Filter:  filter.Eq(fk.ForeignColumn, fkVal),
		})
		if err != nil {
			return tableschema.Record{}, err
		}
		foreignRows := make([]filter.Row, 0, len(foreignRecords))
		for _, fr := range foreignRecords {
			if base, ok := fr.BaseRow(); ok {
				foreignRows = append(foreignRows, base)
			}
		}
		groups = append(groups, tableschema.TableColumnGroup{
			Source: tableschema.ForeignSource(fk.ForeignTable, fk.LocalColumn),
			Rows:   foreignRows,
		})
	}

	if q.Columns.All {
		groups = append(groups, tableschema.TableColumnGroup{Source: tableschema.This(), Rows: []filter.Row{row}})
	} else {
		projected := make(filter.Row, len(q.Columns.Names))
		for _, name := range q.Columns.Names {
			v, ok := row[name]
			if !ok {
				return tableschema.Record{}, &dberr.ErrUnknownColumn{Name: name}
			}
			projected[name] = v
		}
		groups = append(groups, tableschema.TableColumnGroup{Source: tableschema.This(), Rows: []filter.Row{projected}})
	}

	return tableschema.Record{Groups: groups}, nil
}

// Insert implements spec §4.K insert<T>.
func (r *Registry) Insert(db *Database, tableName string, row filter.Row) error {
	ts, err := r.tableSchema(tableName)
	if err != nil {
		return err
	}
	if err := r.ValidateInsert(db, tableName, row); err != nil {
		return err
	}

	if db.transaction != nil {
		tx, err := db.session.GetTransaction(*db.transaction)
		if err != nil {
			return err
		}
		ov := tx.Overlay(tableName)
		if err := ov.Insert(ts.PrimaryKeyColumn(), row); err != nil {
			return err
		}
		tx.AppendOp(txn.LogOp{Kind: txn.OpInsert, Table: tableName, PK: row[ts.PrimaryKeyColumn()], Row: row})
		return nil
	}

	tr, err := r.tableRegistry(tableName)
	if err != nil {
		return err
	}
	payload, err := ts.EncodeRow(row)
	if err != nil {
		return err
	}
	_, _, err = tr.Insert(payload)
	return err
}

// Patch is spec §6.4's update payload: a filter selecting affected rows
// and the field assignments to apply.
type Patch struct {
	Filter *filter.Filter
	Set    map[string]value.Value
}

func applyPatch(row filter.Row, set map[string]value.Value) filter.Row {
	out := make(filter.Row, len(row))
	for k, v := range row {
		out[k] = v
	}
	for k, v := range set {
		out[k] = v
	}
	return out
}

// atomic is the atomic(f) primitive of spec §4.K: it invokes f and traps
// the process on error instead of propagating it, so partial one-shot
// mutations can never be observed as durable.
func atomic[T any](db *Database, f func(*Database) (T, error)) T {
	v, err := f(db)
	if err != nil {
		db.trap(err.Error())
	}
	return v
}

// Update implements spec §4.K update<T>.
func (r *Registry) Update(db *Database, tableName string, patch Patch) (uint64, error) {
	ts, err := r.tableSchema(tableName)
	if err != nil {
		return 0, err
	}
	rows, err := r.selectRaw(db, tableName, patch.Filter)
	if err != nil {
		return 0, err
	}
	count := uint64(len(rows))

	if db.transaction != nil {
		tx, err := db.session.GetTransaction(*db.transaction)
		if err != nil {
			return 0, err
		}
		ov := tx.Overlay(tableName)
		for _, row := range rows {
			pkVal := row.Values[ts.PrimaryKeyColumn()]
			ov.Update(pkVal, patch.Set)
			tx.AppendOp(txn.LogOp{Kind: txn.OpUpdate, Table: tableName, PK: pkVal, Patches: patch.Set})
		}
		return count, nil
	}

	tr, err := r.tableRegistry(tableName)
	if err != nil {
		return 0, err
	}
	return atomic(db, func(db *Database) (uint64, error) {
		for _, row := range rows {
			oldPayload, err := ts.EncodeRow(row.Values)
			if err != nil {
				return 0, err
			}
			newPayload, err := ts.EncodeRow(applyPatch(row.Values, patch.Set))
			if err != nil {
				return 0, err
			}
			if _, _, err := tr.Update(newPayload, row.Page, row.Offset, len(oldPayload)); err != nil {
				return 0, err
			}
		}
		return count, nil
	}), nil
}

// Delete implements spec §4.K delete<T>.
func (r *Registry) Delete(db *Database, tableName string, behavior txn.DeleteBehavior, f *filter.Filter) (uint64, error) {
	ts, err := r.tableSchema(tableName)
	if err != nil {
		return 0, err
	}
	rows, err := r.selectRaw(db, tableName, f)
	if err != nil {
		return 0, err
	}

	if db.transaction != nil {
		tx, err := db.session.GetTransaction(*db.transaction)
		if err != nil {
			return 0, err
		}
		ov := tx.Overlay(tableName)
		for _, row := range rows {
			pkVal := row.Values[ts.PrimaryKeyColumn()]
			ov.Delete(pkVal)
			tx.AppendOp(txn.LogOp{Kind: txn.OpDelete, Table: tableName, PK: pkVal, Behavior: behavior, Filter: f})
		}
		return uint64(len(rows)), nil
	}

	return atomic(db, func(db *Database) (uint64, error) {
		return r.deleteOneShot(db, tableName, ts, rows, behavior)
	}), nil
}

func (r *Registry) deleteOneShot(db *Database, tableName string, ts tableschema.TableSchema, rows []overlay.Row, behavior txn.DeleteBehavior) (uint64, error) {
	tr, err := r.tableRegistry(tableName)
	if err != nil {
		return 0, err
	}

	var total uint64
	for _, row := range rows {
		pkVal := row.Values[ts.PrimaryKeyColumn()]

		switch behavior {
		case txn.DeleteCascade:
			for _, ref := range r.ReferencedTables(tableName) {
				for _, localCol := range ref.LocalColumns {
					childCount, err := r.Delete(db, ref.ReferencingTable, txn.DeleteCascade, filter.Eq(localCol, pkVal))
					if err != nil {
						return 0, err
					}
					total += childCount
				}
			}
		case txn.DeleteRestrict:
			for _, ref := range r.ReferencedTables(tableName) {
				for _, localCol := range ref.LocalColumns {
					n, err := r.countRows(db, ref.ReferencingTable, localCol, pkVal)
					if err != nil {
						return 0, err
					}
					if n > 0 {
						return 0, &dberr.ErrForeignKeyConstraintViolation{ReferencingTable: ref.ReferencingTable, Field: localCol}
					}
				}
			}
		case txn.DeleteBreak:
			// no FK handling
		}

		oldPayload, err := ts.EncodeRow(row.Values)
		if err != nil {
			return 0, err
		}
		if err := tr.Delete(row.Page, row.Offset, len(oldPayload)); err != nil {
			return 0, err
		}
		total++
	}
	return total, nil
}

func (r *Registry) countRows(db *Database, tableName, column string, val value.Value) (int, error) {
	rows, err := r.selectRaw(db, tableName, filter.Eq(column, val))
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}
