package txn

import (
	"sync"
	"sync/atomic"

	"github.com/kasuganosora/pagedb/dberr"
)

// Session is the TransactionSession of spec §4.J: a process-wide
// singleton holding every in-flight transaction, its owner, and a
// monotonic id counter. A single mutex guards the maps — the engine's
// single-threaded cooperative model (spec §5) means this is never a
// contention point, only a correctness guard against accidental misuse.
type Session struct {
	mu           sync.Mutex
	transactions map[ID]*Transaction
	owners       map[ID]string
	nextID       uint64
}

// NewSession returns an empty session (spec §4.J "init").
func NewSession() *Session {
	return &Session{
		transactions: make(map[ID]*Transaction),
		owners:       make(map[ID]string),
	}
}

// BeginTransaction creates and registers a new transaction owned by
// owner, returning its id.
func (s *Session) BeginTransaction(owner string) ID {
	id := ID(atomic.AddUint64(&s.nextID, 1))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[id] = newTransaction(id, owner)
	s.owners[id] = owner
	return id
}

// HasTransaction reports whether id exists and is owned by caller.
func (s *Session) HasTransaction(id ID, caller string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	owner, ok := s.owners[id]
	return ok && owner == caller
}

// GetTransaction returns the transaction for id without removing it.
func (s *Session) GetTransaction(id ID) (*Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.transactions[id]
	if !ok {
		return nil, &dberr.ErrTransactionNotFound{ID: uint64(id)}
	}
	return tx, nil
}

// TakeTransaction removes and returns the transaction for id — used by
// commit, which invalidates the overlay by taking it out of the session
// (spec §4.K commit step 1). Rollback uses CloseTransaction instead.
func (s *Session) TakeTransaction(id ID) (*Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.transactions[id]
	if !ok {
		return nil, &dberr.ErrTransactionNotFound{ID: uint64(id)}
	}
	delete(s.transactions, id)
	delete(s.owners, id)
	return tx, nil
}

// CloseTransaction removes id from both maps without requiring the
// transaction pointer back.
func (s *Session) CloseTransaction(id ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.transactions, id)
	delete(s.owners, id)
}
