package value

import (
	"encoding/binary"
	"unicode/utf8"

	"github.com/google/uuid"
)

// EncodeValue implements the Encode contract of spec §6.1 for a single
// column: if nullable, a presence byte (0 = null, 1 = value) precedes the
// payload; otherwise the payload is written directly and v must not be
// Null. The returned slice's length always equals the Size the column
// would report for this value.
func EncodeValue(v Value, kind Kind, nullable bool) ([]byte, error) {
	if v.isNull {
		if !nullable {
			return nil, &ErrNullNotAllowed{}
		}
		return []byte{0}, nil
	}
	if v.kind != kind {
		return nil, &ErrKindMismatch{Expected: kind, Found: v.kind}
	}
	payload, err := encodePayload(v, kind)
	if err != nil {
		return nil, err
	}
	if !nullable {
		return payload, nil
	}
	out := make([]byte, 0, len(payload)+1)
	out = append(out, 1)
	out = append(out, payload...)
	return out, nil
}

// DecodeValue is the inverse of EncodeValue. It returns the decoded Value
// and the number of bytes of buf it consumed.
func DecodeValue(buf []byte, kind Kind, nullable bool) (Value, int, error) {
	if nullable {
		if len(buf) < 1 {
			return Value{}, 0, &ErrTooShort{Kind: kind, Needed: 1, Available: len(buf)}
		}
		if buf[0] == 0 {
			return Null(), 1, nil
		}
		v, n, err := decodePayload(buf[1:], kind)
		if err != nil {
			return Value{}, 0, err
		}
		return v, n + 1, nil
	}
	return decodePayload(buf, kind)
}

func encodePayload(v Value, kind Kind) ([]byte, error) {
	switch kind {
	case KindBoolean:
		b, _ := v.AsBoolean()
		if b {
			return []byte{1}, nil
		}
		return []byte{0}, nil
	case KindInt32:
		n, _ := v.AsInt32()
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, uint32(n))
		return buf, nil
	case KindUint32:
		n, _ := v.AsUint32()
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint32(buf, n)
		return buf, nil
	case KindInt64:
		n, _ := v.AsInt64()
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint64(buf, uint64(n))
		return buf, nil
	case KindUint64:
		n, _ := v.AsUint64()
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint64(buf, n)
		return buf, nil
	case KindDate:
		d, _ := v.AsDate()
		buf := make([]byte, 4)
		binary.LittleEndian.PutUint16(buf, d.Year)
		buf[2] = d.Month
		buf[3] = d.Day
		return buf, nil
	case KindDateTime:
		d, _ := v.AsDateTime()
		buf := make([]byte, 12)
		binary.LittleEndian.PutUint16(buf[0:2], d.Year)
		buf[2] = d.Month
		buf[3] = d.Day
		buf[4] = d.Hour
		buf[5] = d.Minute
		buf[6] = d.Second
		binary.LittleEndian.PutUint32(buf[7:11], d.Microsecond)
		binary.LittleEndian.PutUint16(buf[11:12], uint16(d.TZOffsetMinutes))
		return buf, nil
	case KindDecimal:
		d, _ := v.AsDecimal()
		buf := make([]byte, 16)
		binary.LittleEndian.PutUint64(buf[0:8], uint64(d.Unscaled))
		buf[8] = d.Scale
		return buf, nil
	case KindUuid:
		u, _ := v.AsUuid()
		buf := make([]byte, 16)
		copy(buf, u[:])
		return buf, nil
	case KindText:
		s, _ := v.AsText()
		if len(s) > MaxDynamicLen {
			return nil, &ErrDataTooLarge{Kind: kind, Length: len(s), Max: MaxDynamicLen}
		}
		buf := make([]byte, 2+len(s))
		binary.LittleEndian.PutUint16(buf, uint16(len(s)))
		copy(buf[2:], s)
		return buf, nil
	case KindBlob:
		b, _ := v.AsBlob()
		if len(b) > MaxDynamicLen {
			return nil, &ErrDataTooLarge{Kind: kind, Length: len(b), Max: MaxDynamicLen}
		}
		buf := make([]byte, 2+len(b))
		binary.LittleEndian.PutUint16(buf, uint16(len(b)))
		copy(buf[2:], b)
		return buf, nil
	case KindPrincipal:
		p, _ := v.AsPrincipal()
		if len(p) > MaxPrincipalLen {
			return nil, &ErrDataTooLarge{Kind: kind, Length: len(p), Max: MaxPrincipalLen}
		}
		buf := make([]byte, 1+len(p))
		buf[0] = byte(len(p))
		copy(buf[1:], p)
		return buf, nil
	default:
		return nil, &ErrKindMismatch{Expected: kind, Found: kind}
	}
}

func decodePayload(buf []byte, kind Kind) (Value, int, error) {
	need := func(n int) error {
		if len(buf) < n {
			return &ErrTooShort{Kind: kind, Needed: n, Available: len(buf)}
		}
		return nil
	}
	switch kind {
	case KindBoolean:
		if err := need(1); err != nil {
			return Value{}, 0, err
		}
		return NewBoolean(buf[0] != 0), 1, nil
	case KindInt32:
		if err := need(4); err != nil {
			return Value{}, 0, err
		}
		return NewInt32(int32(binary.LittleEndian.Uint32(buf))), 4, nil
	case KindUint32:
		if err := need(4); err != nil {
			return Value{}, 0, err
		}
		return NewUint32(binary.LittleEndian.Uint32(buf)), 4, nil
	case KindInt64:
		if err := need(8); err != nil {
			return Value{}, 0, err
		}
		return NewInt64(int64(binary.LittleEndian.Uint64(buf))), 8, nil
	case KindUint64:
		if err := need(8); err != nil {
			return Value{}, 0, err
		}
		return NewUint64(binary.LittleEndian.Uint64(buf)), 8, nil
	case KindDate:
		if err := need(4); err != nil {
			return Value{}, 0, err
		}
		d := Date{Year: binary.LittleEndian.Uint16(buf[0:2]), Month: buf[2], Day: buf[3]}
		return NewDate(d), 4, nil
	case KindDateTime:
		if err := need(12); err != nil {
			return Value{}, 0, err
		}
		d := DateTime{
			Year:            binary.LittleEndian.Uint16(buf[0:2]),
			Month:           buf[2],
			Day:             buf[3],
			Hour:            buf[4],
			Minute:          buf[5],
			Second:          buf[6],
			Microsecond:     binary.LittleEndian.Uint32(buf[7:11]),
			TZOffsetMinutes: int16(binary.LittleEndian.Uint16(buf[11:12])),
		}
		return NewDateTime(d), 12, nil
	case KindDecimal:
		if err := need(16); err != nil {
			return Value{}, 0, err
		}
		d := Decimal{Unscaled: int64(binary.LittleEndian.Uint64(buf[0:8])), Scale: buf[8]}
		return NewDecimal(d), 16, nil
	case KindUuid:
		if err := need(16); err != nil {
			return Value{}, 0, err
		}
		var u uuid.UUID
		copy(u[:], buf[:16])
		return NewUuid(u), 16, nil
	case KindText:
		if err := need(2); err != nil {
			return Value{}, 0, err
		}
		l := int(binary.LittleEndian.Uint16(buf))
		if err := need(2 + l); err != nil {
			return Value{}, 0, err
		}
		s := buf[2 : 2+l]
		if !utf8.Valid(s) {
			return Value{}, 0, &ErrUtf8{}
		}
		return NewText(string(s)), 2 + l, nil
	case KindBlob:
		if err := need(2); err != nil {
			return Value{}, 0, err
		}
		l := int(binary.LittleEndian.Uint16(buf))
		if err := need(2 + l); err != nil {
			return Value{}, 0, err
		}
		return NewBlob(buf[2 : 2+l]), 2 + l, nil
	case KindPrincipal:
		if err := need(1); err != nil {
			return Value{}, 0, err
		}
		l := int(buf[0])
		if err := need(1 + l); err != nil {
			return Value{}, 0, err
		}
		return NewPrincipal(buf[1 : 1+l]), 1 + l, nil
	default:
		return Value{}, 0, &ErrKindMismatch{Expected: kind, Found: kind}
	}
}
