// Package dberr is the error taxonomy of spec §7: one exported struct per
// reportable failure kind, each with an Error() string method, so callers
// can errors.As a specific kind instead of string-matching.
package dberr

import (
	"fmt"

	"github.com/kasuganosora/pagedb/storage/value"
)

// ErrPrimaryKeyConflict is returned when an insert's primary-key value
// already exists in the table (spec §4.L step 1).
type ErrPrimaryKeyConflict struct {
	Table string
	Key   value.Value
}

func (e *ErrPrimaryKeyConflict) Error() string {
	return fmt.Sprintf("dberr: primary key conflict in table %q", e.Table)
}

// ErrBrokenForeignKeyReference is returned when an insert references a
// parent row that does not exist (spec §4.L step 2).
type ErrBrokenForeignKeyReference struct {
	Table string
	Key   value.Value
}

func (e *ErrBrokenForeignKeyReference) Error() string {
	return fmt.Sprintf("dberr: broken foreign key reference to table %q", e.Table)
}

// ErrForeignKeyConstraintViolation is returned when a Restrict-mode
// delete is blocked by referencing child rows (spec §4.K delete).
type ErrForeignKeyConstraintViolation struct {
	ReferencingTable string
	Field            string
}

func (e *ErrForeignKeyConstraintViolation) Error() string {
	return fmt.Sprintf("dberr: delete blocked by referencing table %q on field %q", e.ReferencingTable, e.Field)
}

// ErrUnknownColumn is returned when a projected or filtered column is
// absent from the table's schema.
type ErrUnknownColumn struct {
	Name string
}

func (e *ErrUnknownColumn) Error() string { return fmt.Sprintf("dberr: unknown column %q", e.Name) }

// ErrMissingNonNullableField is returned when a required column is
// absent from an insert, or a primary key is absent from a row the
// overlay needs to key on (spec §4.I, §4.L step 3).
type ErrMissingNonNullableField struct {
	Name string
}

func (e *ErrMissingNonNullableField) Error() string {
	return fmt.Sprintf("dberr: missing non-nullable field %q", e.Name)
}

// ErrTypeMismatch is returned when a filter or assignment value's kind
// does not match the column's declared type.
type ErrTypeMismatch struct {
	Column   string
	Expected value.Kind
	Found    value.Kind
}

func (e *ErrTypeMismatch) Error() string {
	return fmt.Sprintf("dberr: column %q expected %s, found %s", e.Column, e.Expected, e.Found)
}

// ErrInvalidQuery is returned for a Like on a non-Text column, an
// unknown eager relation, or any other structurally-invalid query.
type ErrInvalidQuery struct {
	Message string
}

func (e *ErrInvalidQuery) Error() string { return "dberr: invalid query: " + e.Message }

// ErrTableNotFound is returned when a DatabaseSchema dispatch names an
// unregistered table.
type ErrTableNotFound struct {
	Name string
}

func (e *ErrTableNotFound) Error() string { return fmt.Sprintf("dberr: table %q not found", e.Name) }

// ErrTransactionNotFound is returned for an unknown transaction id.
type ErrTransactionNotFound struct {
	ID uint64
}

func (e *ErrTransactionNotFound) Error() string {
	return fmt.Sprintf("dberr: transaction %d not found", e.ID)
}

// ErrNoActiveTransaction is returned by commit when the façade carries no
// transaction id. Rollback without a transaction returns nil.
type ErrNoActiveTransaction struct{}

func (e *ErrNoActiveTransaction) Error() string { return "dberr: no active transaction" }
