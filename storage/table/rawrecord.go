// Package table implements the TableRegistry, RawRecord framing, and
// TableReader of spec §4.F.
package table

import (
	"encoding/binary"
	"fmt"
)

// magicByte begins every raw record; a zeroed region never starts with it
// (spec §3, §6.2).
const magicByte = 0xFF

// headerSize is the [0xFF][u16 length] framing that precedes every
// record's payload.
const headerSize = 3

// ErrBadRawRecordHeader is returned when a raw record does not begin with
// magicByte where one was expected (spec §7 DecodeError::BadRawRecordHeader).
type ErrBadRawRecordHeader struct {
	Page   uint32
	Offset uint16
	Found  byte
}

func (e *ErrBadRawRecordHeader) Error() string {
	return fmt.Sprintf("table: bad raw record header at page %d offset %d (found 0x%02X)", e.Page, e.Offset, e.Found)
}

// wrapRaw frames payload as [0xFF][len:u16-LE][payload].
func wrapRaw(payload []byte) []byte {
	buf := make([]byte, headerSize+len(payload))
	buf[0] = magicByte
	binary.LittleEndian.PutUint16(buf[1:3], uint16(len(payload)))
	copy(buf[3:], payload)
	return buf
}

// rawRecordSize is the total on-disk size of a record whose payload is
// payloadLen bytes.
func rawRecordSize(payloadLen int) uint16 {
	return uint16(headerSize + payloadLen)
}

// unwrapRaw validates the header at the start of buf and returns the
// payload slice plus the total raw record size.
func unwrapRaw(buf []byte, page uint32, offset uint16) (payload []byte, size uint16, err error) {
	if len(buf) < headerSize || buf[0] != magicByte {
		found := byte(0)
		if len(buf) > 0 {
			found = buf[0]
		}
		return nil, 0, &ErrBadRawRecordHeader{Page: page, Offset: offset, Found: found}
	}
	length := binary.LittleEndian.Uint16(buf[1:3])
	if len(buf) < headerSize+int(length) {
		return nil, 0, &ErrBadRawRecordHeader{Page: page, Offset: offset, Found: buf[0]}
	}
	return buf[headerSize : headerSize+int(length)], rawRecordSize(int(length)), nil
}
