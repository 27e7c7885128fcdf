// Package value implements the tagged Value union and its binary codec —
// the wire format every stored column value round-trips through.
package value

// Kind identifies the concrete type carried by a Value, and the declared
// type of a ColumnDef. It does not have a variant for Null: nullability is
// a property of the column (ColumnDef.Nullable), not of the type itself.
type Kind uint8

const (
	KindBlob Kind = iota
	KindBoolean
	KindDate
	KindDateTime
	KindDecimal
	KindInt32
	KindInt64
	KindUint32
	KindUint64
	KindPrincipal
	KindText
	KindUuid
)

func (k Kind) String() string {
	switch k {
	case KindBlob:
		return "Blob"
	case KindBoolean:
		return "Boolean"
	case KindDate:
		return "Date"
	case KindDateTime:
		return "DateTime"
	case KindDecimal:
		return "Decimal"
	case KindInt32:
		return "Int32"
	case KindInt64:
		return "Int64"
	case KindUint32:
		return "Uint32"
	case KindUint64:
		return "Uint64"
	case KindPrincipal:
		return "Principal"
	case KindText:
		return "Text"
	case KindUuid:
		return "Uuid"
	default:
		return "Unknown"
	}
}

// MaxDynamicLen bounds Text and Blob payloads: their length prefix is a
// little-endian uint16 (spec §4.C, §9 OQ5).
const MaxDynamicLen = 65535

// MaxPrincipalLen bounds Principal payloads: their length prefix is a
// single byte.
const MaxPrincipalLen = 255
