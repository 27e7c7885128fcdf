// Package memprovider defines the host contract the engine is built on
// top of (spec §4.A, §6.3): a raw paged byte array that the host grows,
// reads and writes. The engine never assumes how pages are physically
// backed — only that they are addressable as page*PageSize+offset.
package memprovider

import "fmt"

// PageSize is the compile-time page size every absolute offset is computed
// against (spec §4.A). It is not baked into any on-disk format (spec §6.2).
const PageSize = 4096

// Provider is the MemoryProvider contract of spec §4.A.
type Provider interface {
	// Pages returns the number of pages currently allocated.
	Pages() (uint64, error)
	// Grow adds n pages and returns the page count before growth.
	Grow(n uint64) (uint64, error)
	// ReadAt reads len(buf) bytes starting at absOffset.
	ReadAt(absOffset uint64, buf []byte) error
	// WriteAt writes buf starting at absOffset.
	WriteAt(absOffset uint64, buf []byte) error
}

// Size returns Pages()*PageSize.
func Size(p Provider) (uint64, error) {
	pages, err := p.Pages()
	if err != nil {
		return 0, err
	}
	return pages * PageSize, nil
}

// ErrOutOfBounds is returned when an access would read or write past the
// provider's current size (spec §4.A, §7).
type ErrOutOfBounds struct {
	Offset uint64
	Length int
	Size   uint64
}

func (e *ErrOutOfBounds) Error() string {
	return fmt.Sprintf("memprovider: access [%d, %d) exceeds size %d", e.Offset, e.Offset+uint64(e.Length), e.Size)
}

// ErrGrowFailed is returned when the host fails to grow the backing store.
type ErrGrowFailed struct {
	Reason string
}

func (e *ErrGrowFailed) Error() string {
	return "memprovider: grow failed: " + e.Reason
}
