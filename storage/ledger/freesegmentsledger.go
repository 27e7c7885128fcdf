package ledger

import (
	"encoding/binary"

	"github.com/kasuganosora/pagedb/storage/memmanager"
)

// FreeSegment is a hole left by delete/update that can be reused by a
// later insert (spec §3/§4.E).
type FreeSegment struct {
	Page   uint32
	Offset uint16
	Size   uint16
}

// FreeSegmentsLedger is the per-table index of reusable holes (spec
// §4.E), durable at a dedicated free-segments page.
type FreeSegmentsLedger struct {
	mgr      *memmanager.Manager
	ledgerPage uint32
	segments []FreeSegment
}

// LoadFreeSegmentsLedger reads the ledger stored at ledgerPage.
func LoadFreeSegmentsLedger(mgr *memmanager.Manager, ledgerPage uint32) (*FreeSegmentsLedger, error) {
	segments, err := memmanager.ReadDynamic(mgr, ledgerPage, 0, decodeFreeSegments)
	if err != nil {
		return nil, err
	}
	return &FreeSegmentsLedger{mgr: mgr, ledgerPage: ledgerPage, segments: segments}, nil
}

func (l *FreeSegmentsLedger) persist() error {
	return l.mgr.WriteValue(l.ledgerPage, 0, encodedFreeSegments(l.segments))
}

// InsertFreeSegment records a hole left by a delete or update (spec §4.E).
func (l *FreeSegmentsLedger) InsertFreeSegment(page uint32, offset, size uint16) error {
	l.segments = append(l.segments, FreeSegment{Page: page, Offset: offset, Size: size})
	return l.persist()
}

// FindReusableSegment returns the first segment large enough for
// recordSize (first-fit, spec §4.E).
func (l *FreeSegmentsLedger) FindReusableSegment(recordSize uint16) (FreeSegment, bool) {
	for _, s := range l.segments {
		if s.Size >= recordSize {
			return s, true
		}
	}
	return FreeSegment{}, false
}

// CommitReusedSpace removes segment from the ledger, re-inserting any
// leftover space after the used recordSize bytes (spec §4.E).
func (l *FreeSegmentsLedger) CommitReusedSpace(segment FreeSegment, recordSize uint16) error {
	for i, s := range l.segments {
		if s == segment {
			l.segments = append(l.segments[:i], l.segments[i+1:]...)
			break
		}
	}
	if segment.Size > recordSize {
		l.segments = append(l.segments, FreeSegment{
			Page:   segment.Page,
			Offset: segment.Offset + recordSize,
			Size:   segment.Size - recordSize,
		})
	}
	return l.persist()
}

// Segments returns the ledger's current entries.
func (l *FreeSegmentsLedger) Segments() []FreeSegment {
	out := make([]FreeSegment, len(l.segments))
	copy(out, l.segments)
	return out
}

type encodedFreeSegments []FreeSegment

func (s encodedFreeSegments) EncodedBytes() []byte {
	buf := make([]byte, 4+len(s)*8)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(s)))
	pos := 4
	for _, seg := range s {
		binary.LittleEndian.PutUint32(buf[pos:pos+4], seg.Page)
		binary.LittleEndian.PutUint16(buf[pos+4:pos+6], seg.Offset)
		binary.LittleEndian.PutUint16(buf[pos+6:pos+8], seg.Size)
		pos += 8
	}
	return buf
}

func decodeFreeSegments(buf []byte) ([]FreeSegment, error) {
	if len(buf) < 4 {
		return nil, nil
	}
	count := binary.LittleEndian.Uint32(buf[0:4])
	segments := make([]FreeSegment, 0, count)
	pos := 4
	for i := uint32(0); i < count; i++ {
		if pos+8 > len(buf) {
			break
		}
		segments = append(segments, FreeSegment{
			Page:   binary.LittleEndian.Uint32(buf[pos : pos+4]),
			Offset: binary.LittleEndian.Uint16(buf[pos+4 : pos+6]),
			Size:   binary.LittleEndian.Uint16(buf[pos+6 : pos+8]),
		})
		pos += 8
	}
	return segments, nil
}
