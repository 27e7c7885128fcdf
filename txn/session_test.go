package txn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBeginAndTakeTransaction(t *testing.T) {
	s := NewSession()
	id := s.BeginTransaction("alice")
	assert.True(t, s.HasTransaction(id, "alice"))
	assert.False(t, s.HasTransaction(id, "bob"))

	tx, err := s.TakeTransaction(id)
	require.NoError(t, err)
	assert.Equal(t, id, tx.ID)

	_, err = s.GetTransaction(id)
	require.Error(t, err)
}

func TestTransactionIdsAreMonotonicAndNeverReused(t *testing.T) {
	s := NewSession()
	id1 := s.BeginTransaction("a")
	id2 := s.BeginTransaction("a")
	assert.Less(t, uint64(id1), uint64(id2))

	_, err := s.TakeTransaction(id1)
	require.NoError(t, err)

	id3 := s.BeginTransaction("a")
	assert.NotEqual(t, id1, id3)
	assert.Less(t, uint64(id2), uint64(id3))
}

func TestCloseTransactionRemovesWithoutReturning(t *testing.T) {
	s := NewSession()
	id := s.BeginTransaction("a")
	s.CloseTransaction(id)
	assert.False(t, s.HasTransaction(id, "a"))
}

func TestOverlayIsPerTableAndLazilyCreated(t *testing.T) {
	s := NewSession()
	id := s.BeginTransaction("a")
	tx, err := s.GetTransaction(id)
	require.NoError(t, err)

	usersOverlay := tx.Overlay("users")
	assert.Same(t, usersOverlay, tx.Overlay("users"))
	assert.NotSame(t, usersOverlay, tx.Overlay("posts"))
}
