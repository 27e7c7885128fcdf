// Package tableschema carries the compile-time table vocabulary of spec
// §3/§4.M: ColumnDef, the TableSchema a table binding implements, and the
// Record/Query shapes the façade operates on. It has no dependency on
// dbms itself so both dbms and dbms/integrity can share it without a
// cycle.
package tableschema

import (
	"github.com/kasuganosora/pagedb/query/filter"
	"github.com/kasuganosora/pagedb/storage/value"
)

// ForeignKey describes a single-column reference from this table's
// LocalColumn to another table's ForeignColumn (spec §3 ColumnDef).
type ForeignKey struct {
	LocalColumn   string
	ForeignTable  string
	ForeignColumn string
}

// ColumnDef is spec §3's ColumnDef.
type ColumnDef struct {
	Name       string
	Type       value.Kind
	Nullable   bool
	PrimaryKey bool
	ForeignKey *ForeignKey
}

// TableSchema is the compile-time table description of spec §3: name,
// column list, primary key, a stable per-process fingerprint (spec §9
// OQ2), and the row-level Encode/decode pair that stands in for the
// out-of-scope derive macro (spec §1). Hand-written per table — see
// dbms/tablebind for the shared assembly helper.
type TableSchema interface {
	TableName() string
	Columns() []ColumnDef
	PrimaryKeyColumn() string
	Fingerprint() uint64
	EncodeRow(row filter.Row) ([]byte, error)
	DecodeRow(payload []byte) (filter.Row, error)
}

// ValuesSource tags a TableColumnGroup as the row itself or an eagerly
// fetched relation (spec §3 Record: ValuesSource ∈ {This, Foreign}).
type ValuesSource struct {
	Foreign     bool
	Table       string
	LocalColumn string
}

// This is the ValuesSource for a record's own row.
func This() ValuesSource { return ValuesSource{} }

// ForeignSource is the ValuesSource for an eagerly fetched relation.
func ForeignSource(table, localColumn string) ValuesSource {
	return ValuesSource{Foreign: true, Table: table, LocalColumn: localColumn}
}

// TableColumnGroup is one (ValuesSource, rows) pair of spec §3's Record.
type TableColumnGroup struct {
	Source ValuesSource
	Rows   []filter.Row
}

// Record is spec §3's Record: a base row plus zero or more eagerly
// fetched relation groups.
type Record struct {
	Groups []TableColumnGroup
}

// BaseRow returns the record's own (This) row, if present.
func (r Record) BaseRow() (filter.Row, bool) {
	for _, g := range r.Groups {
		if !g.Source.Foreign && len(g.Rows) > 0 {
			return g.Rows[0], true
		}
	}
	return nil, false
}

// ForeignRows returns the eagerly fetched rows for relation table, if
// present.
func (r Record) ForeignRows(table string) ([]filter.Row, bool) {
	for _, g := range r.Groups {
		if g.Source.Foreign && g.Source.Table == table {
			return g.Rows, true
		}
	}
	return nil, false
}

// OrderDir is a sort direction for Query.OrderBy.
type OrderDir int

const (
	Asc OrderDir = iota
	Desc
)

// OrderBy is one (column, direction) pair of spec §6.4.
type OrderBy struct {
	Column string
	Dir    OrderDir
}

// Columns selects either every column or a named subset (spec §6.4
// "columns: All | Columns([name])").
type Columns struct {
	All   bool
	Names []string
}

func AllColumns() Columns                { return Columns{All: true} }
func SomeColumns(names ...string) Columns { return Columns{Names: names} }

// Query is spec §6.4's Query: filter, projection, eager relations,
// ordering, and offset/limit.
type Query struct {
	Columns        Columns
	EagerRelations []string
	Filter         *filter.Filter
	OrderBy        []OrderBy
	Limit          *int
	Offset         *int
}

// DefaultSelectCapacityHint is spec §4.K's "default capacity hint 128" —
// used only to pre-size the result slice, never as an implicit cap (an
// absent Limit means unlimited).
const DefaultSelectCapacityHint = 128

// ReferencedTable is one entry of spec §4.M's
// `referenced_tables(name) -> &[(foreign_table, &[local_column])]`:
// ReferencingTable is a table with a foreign key pointing at `name`,
// through the listed LocalColumns on ReferencingTable.
type ReferencedTable struct {
	ReferencingTable string
	LocalColumns     []string
}
