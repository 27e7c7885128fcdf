// Package memmanager implements the MemoryManager of spec §4.B: page
// allocation and bounds-checked reads/writes layered on a
// memprovider.Provider.
package memmanager

import (
	"fmt"

	"github.com/kasuganosora/pagedb/storage/memprovider"
)

// SchemaPage and ACLPage are the two pages reserved on first
// initialization (spec §4.B). ACLPage's contents are outside this core.
const (
	SchemaPage uint32 = 0
	ACLPage    uint32 = 1
)

// Manager owns a single Provider. It keeps no page count of its own:
// AllocatePage zeroes the page whose index the provider's Grow reports.
type Manager struct {
	provider memprovider.Provider
}

// New wraps provider in a Manager, reserving pages 0 and 1 if the
// provider is currently empty (fresh stable memory). If the provider
// already has pages (a restored snapshot), no allocation happens — the
// caller is resuming, not initializing.
func New(provider memprovider.Provider) (*Manager, error) {
	m := &Manager{provider: provider}
	pages, err := provider.Pages()
	if err != nil {
		return nil, err
	}
	if pages == 0 {
		if _, err := m.AllocatePage(); err != nil { // page 0: schema
			return nil, err
		}
		if _, err := m.AllocatePage(); err != nil { // page 1: ACL
			return nil, err
		}
	}
	return m, nil
}

// AllocatePage grows the provider by one page, zeroes it, and returns its
// index.
func (m *Manager) AllocatePage() (uint32, error) {
	prev, err := m.provider.Grow(1)
	if err != nil {
		return 0, err
	}
	page := uint32(prev)
	if err := m.provider.WriteAt(absOffset(page, 0), make([]byte, memprovider.PageSize)); err != nil {
		return 0, err
	}
	return page, nil
}

// Pages returns the total number of allocated pages.
func (m *Manager) Pages() (uint64, error) {
	return m.provider.Pages()
}

func absOffset(page uint32, offset uint16) uint64 {
	return uint64(page)*memprovider.PageSize + uint64(offset)
}

// ErrSegmentationFault is returned when a write would cross a page
// boundary or target an unallocated page (spec §4.B, §7).
type ErrSegmentationFault struct {
	Page     uint32
	Offset   uint16
	DataSize int
	PageSize int
}

func (e *ErrSegmentationFault) Error() string {
	return fmt.Sprintf("memmanager: write of %d bytes at page %d offset %d exceeds page size %d",
		e.DataSize, e.Page, e.Offset, e.PageSize)
}

func (m *Manager) checkBounds(page uint32, offset uint16, dataLen int) error {
	pages, err := m.provider.Pages()
	if err != nil {
		return err
	}
	if uint64(page) >= pages {
		return &ErrSegmentationFault{Page: page, Offset: offset, DataSize: dataLen, PageSize: memprovider.PageSize}
	}
	if int(offset)+dataLen > memprovider.PageSize {
		return &ErrSegmentationFault{Page: page, Offset: offset, DataSize: dataLen, PageSize: memprovider.PageSize}
	}
	return nil
}

// WriteRaw writes data at (page, offset), after bounds-checking.
func (m *Manager) WriteRaw(page uint32, offset uint16, data []byte) error {
	if err := m.checkBounds(page, offset, len(data)); err != nil {
		return err
	}
	return m.provider.WriteAt(absOffset(page, offset), data)
}

// ReadRawExact reads exactly n bytes at (page, offset), after
// bounds-checking. Used for fixed-size values.
func (m *Manager) ReadRawExact(page uint32, offset uint16, n int) ([]byte, error) {
	if err := m.checkBounds(page, offset, n); err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if err := m.provider.ReadAt(absOffset(page, offset), buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// ReadRawToPageEnd reads from offset to the end of the page, for dynamic
// values whose decoder stops at its self-described length.
func (m *Manager) ReadRawToPageEnd(page uint32, offset uint16) ([]byte, error) {
	n := memprovider.PageSize - int(offset)
	if err := m.checkBounds(page, offset, n); err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if err := m.provider.ReadAt(absOffset(page, offset), buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// Zero writes n zero bytes at (page, offset), after bounds-checking.
func (m *Manager) Zero(page uint32, offset uint16, n int) error {
	if err := m.checkBounds(page, offset, n); err != nil {
		return err
	}
	return m.provider.WriteAt(absOffset(page, offset), make([]byte, n))
}

// Encodable is implemented by any fixed- or dynamic-size value that can be
// written through WriteValue (spec §6.1's Encode contract, restated as a
// Go interface since Go has no derive macro to generate it — spec §1
// notes equivalent code must be hand-written).
type Encodable interface {
	EncodedBytes() []byte
}

// WriteValue encodes e and writes it at (page, offset).
func (m *Manager) WriteValue(page uint32, offset uint16, e Encodable) error {
	return m.WriteRaw(page, offset, e.EncodedBytes())
}

// ReadFixed reads exactly n bytes at (page, offset) and decodes them with
// decode — the "fixed D" path of spec §4.B's read_at.
func ReadFixed[T any](m *Manager, page uint32, offset uint16, n int, decode func([]byte) (T, error)) (T, error) {
	var zero T
	buf, err := m.ReadRawExact(page, offset, n)
	if err != nil {
		return zero, err
	}
	return decode(buf)
}

// ReadDynamic reads from offset to the end of the page and decodes with
// decode, which must stop at its own self-described length — the
// "dynamic D" path of spec §4.B's read_at.
func ReadDynamic[T any](m *Manager, page uint32, offset uint16, decode func([]byte) (T, error)) (T, error) {
	var zero T
	buf, err := m.ReadRawToPageEnd(page, offset)
	if err != nil {
		return zero, err
	}
	return decode(buf)
}
