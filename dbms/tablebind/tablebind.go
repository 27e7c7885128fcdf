// Package tablebind is the hand-written stand-in for the Encode-deriving
// macro spec §1 scopes out: given a table's ordered ColumnDef list, it
// assembles EncodeRow/DecodeRow by concatenating (or consuming) each
// column's wire encoding in declaration order — the same rule spec §4.C
// gives for struct-derived Encode. A concrete table can embed a RowCodec
// instead of writing its own field-by-field encode/decode.
package tablebind

import (
	"hash/fnv"
	"reflect"

	"github.com/kasuganosora/pagedb/dberr"
	"github.com/kasuganosora/pagedb/dbms/tableschema"
	"github.com/kasuganosora/pagedb/query/filter"
	"github.com/kasuganosora/pagedb/storage/value"
)

// RowCodec implements EncodeRow/DecodeRow for a fixed, ordered column
// list — the generic half of a TableSchema; TableName/PrimaryKeyColumn/
// Fingerprint still come from the concrete table type, since those are
// identity, not encoding.
type RowCodec struct {
	Columns []tableschema.ColumnDef
}

// NewRowCodec builds a codec over columns, in the order EncodeRow will
// concatenate them and DecodeRow will consume them.
func NewRowCodec(columns []tableschema.ColumnDef) RowCodec {
	return RowCodec{Columns: columns}
}

// EncodeRow concatenates each column's Encode output in declaration
// order (spec §4.C). A missing nullable column encodes as Null; a
// missing non-nullable column is a caller bug, surfaced as
// MissingNonNullableField rather than panicking.
func (c RowCodec) EncodeRow(row filter.Row) ([]byte, error) {
	var buf []byte
	for _, col := range c.Columns {
		v, ok := row[col.Name]
		if !ok {
			if !col.Nullable {
				return nil, &dberr.ErrMissingNonNullableField{Name: col.Name}
			}
			v = value.Null()
		}
		enc, err := value.EncodeValue(v, col.Type, col.Nullable)
		if err != nil {
			return nil, err
		}
		buf = append(buf, enc...)
	}
	return buf, nil
}

// DecodeRow walks columns in order, decoding each one and advancing past
// its self-described size (spec §4.C decode rule).
func (c RowCodec) DecodeRow(payload []byte) (filter.Row, error) {
	row := make(filter.Row, len(c.Columns))
	pos := 0
	for _, col := range c.Columns {
		v, n, err := value.DecodeValue(payload[pos:], col.Type, col.Nullable)
		if err != nil {
			return nil, err
		}
		row[col.Name] = v
		pos += n
	}
	return row, nil
}

// FingerprintOf derives a per-process TableFingerprint from schema's
// concrete Go type (spec §9 OQ2: not stable across binaries, which
// matches the original's compile-time-identity-derived fingerprint).
func FingerprintOf(schema tableschema.TableSchema) uint64 {
	h := fnv.New64a()
	h.Write([]byte(reflect.TypeOf(schema).String()))
	return h.Sum64()
}
