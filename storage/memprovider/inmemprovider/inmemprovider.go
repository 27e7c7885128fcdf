// Package inmemprovider is the default MemoryProvider: a flat in-process
// byte slice that grows by appending zeroed pages. It is the reference
// implementation used by every example and most tests — the paging and
// zero-region invariants it relies on are grounded on the buffer
// management in the teacher's pkg/resource/memory (buffer_pool.go /
// paging.go), adapted from an evictable row-page cache to a durable flat
// array because spec §4.A has no eviction concept.
package inmemprovider

import (
	"sync"

	"github.com/kasuganosora/pagedb/storage/memprovider"
)

// Provider is a Provider backed by an in-process []byte. It does not
// survive process restarts on its own — callers that need spec §1's
// "stable memory survives restarts" property snapshot Bytes() themselves
// or use badgerprovider instead.
type Provider struct {
	mu    sync.RWMutex
	bytes []byte
}

var _ memprovider.Provider = (*Provider)(nil)

// New returns an empty Provider with zero pages allocated.
func New() *Provider {
	return &Provider{}
}

// FromBytes restores a Provider from a prior snapshot. len(data) must be a
// multiple of PageSize.
func FromBytes(data []byte) *Provider {
	cp := make([]byte, len(data))
	copy(cp, data)
	return &Provider{bytes: cp}
}

// Bytes returns a snapshot of the provider's current contents, suitable
// for persisting across restarts and restoring via FromBytes.
func (p *Provider) Bytes() []byte {
	p.mu.RLock()
	defer p.mu.RUnlock()
	cp := make([]byte, len(p.bytes))
	copy(cp, p.bytes)
	return cp
}

func (p *Provider) Pages() (uint64, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return uint64(len(p.bytes)) / memprovider.PageSize, nil
}

func (p *Provider) Grow(n uint64) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	prev := uint64(len(p.bytes)) / memprovider.PageSize
	p.bytes = append(p.bytes, make([]byte, n*memprovider.PageSize)...)
	return prev, nil
}

func (p *Provider) ReadAt(absOffset uint64, buf []byte) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if absOffset+uint64(len(buf)) > uint64(len(p.bytes)) {
		return &memprovider.ErrOutOfBounds{Offset: absOffset, Length: len(buf), Size: uint64(len(p.bytes))}
	}
	copy(buf, p.bytes[absOffset:absOffset+uint64(len(buf))])
	return nil
}

func (p *Provider) WriteAt(absOffset uint64, buf []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if absOffset+uint64(len(buf)) > uint64(len(p.bytes)) {
		return &memprovider.ErrOutOfBounds{Offset: absOffset, Length: len(buf), Size: uint64(len(p.bytes))}
	}
	copy(p.bytes[absOffset:absOffset+uint64(len(buf))], buf)
	return nil
}
