// Package integrity implements the InsertIntegrityValidator of spec
// §4.L: primary-key conflict, then foreign-key existence, then
// non-null-field checks against the overlaid view.
package integrity

import (
	"github.com/kasuganosora/pagedb/dberr"
	"github.com/kasuganosora/pagedb/dbms/tableschema"
	"github.com/kasuganosora/pagedb/query/filter"
	"github.com/kasuganosora/pagedb/storage/value"
)

// RowSource counts rows matching an equality predicate, evaluated
// against whatever view (overlaid or durable) the caller is validating
// against. dbms.Registry implements this per-call via a small adapter
// bound to the active Database, keeping this package free of a cyclic
// import on dbms.
type RowSource interface {
	CountWhere(table, column string, val value.Value) (int, error)
}

// ValidateInsert runs the three checks of spec §4.L in order: a failure
// in an earlier check short-circuits the later ones.
func ValidateInsert(src RowSource, ts tableschema.TableSchema, row filter.Row) error {
	pkCol := ts.PrimaryKeyColumn()
	pkVal, ok := row[pkCol]
	if !ok {
		return &dberr.ErrMissingNonNullableField{Name: pkCol}
	}
	count, err := src.CountWhere(ts.TableName(), pkCol, pkVal)
	if err != nil {
		return err
	}
	if count > 0 {
		return &dberr.ErrPrimaryKeyConflict{Table: ts.TableName(), Key: pkVal}
	}

	for _, col := range ts.Columns() {
		if col.ForeignKey == nil {
			continue
		}
		val, ok := row[col.Name]
		if !ok || val.IsNull() {
			continue // absent/null fk values are caught by the non-null pass below
		}
		cnt, err := src.CountWhere(col.ForeignKey.ForeignTable, col.ForeignKey.ForeignColumn, val)
		if err != nil {
			return err
		}
		if cnt == 0 {
			return &dberr.ErrBrokenForeignKeyReference{Table: col.ForeignKey.ForeignTable, Key: val}
		}
	}

	// Presence-only, per spec §9 OQ3: a Null value still satisfies
	// presence for a non-nullable column.
	for _, col := range ts.Columns() {
		if col.Nullable {
			continue
		}
		if _, ok := row[col.Name]; !ok {
			return &dberr.ErrMissingNonNullableField{Name: col.Name}
		}
	}
	return nil
}
