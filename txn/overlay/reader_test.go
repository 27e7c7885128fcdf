package overlay

import (
	"testing"

	"github.com/kasuganosora/pagedb/query/filter"
	"github.com/kasuganosora/pagedb/storage/memmanager"
	"github.com/kasuganosora/pagedb/storage/memprovider/inmemprovider"
	"github.com/kasuganosora/pagedb/storage/table"
	"github.com/kasuganosora/pagedb/storage/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// encodeUserRow/decodeUserRow model a minimal users(id: Uint32, name: Text)
// table's wire format for reader tests, mirroring the spec §8 fixture.
func encodeUserRow(id uint32, name string) []byte {
	idBytes, _ := value.EncodeValue(value.NewUint32(id), value.KindUint32, false)
	nameBytes, _ := value.EncodeValue(value.NewText(name), value.KindText, false)
	return append(idBytes, nameBytes...)
}

func decodeUserRow(payload []byte) (filter.Row, error) {
	id, n, err := value.DecodeValue(payload, value.KindUint32, false)
	if err != nil {
		return nil, err
	}
	name, _, err := value.DecodeValue(payload[n:], value.KindText, false)
	if err != nil {
		return nil, err
	}
	return filter.Row{"id": id, "name": name}, nil
}

func newRegistryForTest(t *testing.T) *table.Registry {
	t.Helper()
	mgr, err := memmanager.New(inmemprovider.New())
	require.NoError(t, err)
	p1, err := mgr.AllocatePage()
	require.NoError(t, err)
	p2, err := mgr.AllocatePage()
	require.NoError(t, err)
	p3, err := mgr.AllocatePage()
	require.NoError(t, err)
	reg, err := table.Open(mgr, p1, p2, p3)
	require.NoError(t, err)
	return reg
}

func TestOverlayReaderComposesBaseAndInserts(t *testing.T) {
	reg := newRegistryForTest(t)
	_, _, err := reg.Insert(encodeUserRow(1, "Alice"))
	require.NoError(t, err)

	var ov TableOverlay
	require.NoError(t, ov.Insert("id", filter.Row{"id": value.NewUint32(2), "name": value.NewText("Bob")}))

	r := NewReader(reg.Read(), &ov, "id", decodeUserRow)
	var names []string
	for {
		row, ok, err := r.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		n, _ := row.Values["name"].AsText()
		names = append(names, n)
	}
	assert.Equal(t, []string{"Alice", "Bob"}, names)
}

func TestOverlayReaderHidesDeletedBaseRow(t *testing.T) {
	reg := newRegistryForTest(t)
	_, _, err := reg.Insert(encodeUserRow(1, "Alice"))
	require.NoError(t, err)
	_, _, err = reg.Insert(encodeUserRow(2, "Bob"))
	require.NoError(t, err)

	var ov TableOverlay
	ov.Delete(value.NewUint32(1))

	r := NewReader(reg.Read(), &ov, "id", decodeUserRow)
	var ids []uint32
	for {
		row, ok, err := r.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		id, _ := row.Values["id"].AsUint32()
		ids = append(ids, id)
	}
	assert.Equal(t, []uint32{2}, ids)
}

func TestOverlayReaderAppliesUpdateToBaseRow(t *testing.T) {
	reg := newRegistryForTest(t)
	_, _, err := reg.Insert(encodeUserRow(1, "Alice"))
	require.NoError(t, err)

	var ov TableOverlay
	ov.Update(value.NewUint32(1), map[string]value.Value{"name": value.NewText("Alicia")})

	r := NewReader(reg.Read(), &ov, "id", decodeUserRow)
	row, ok, err := r.Next()
	require.NoError(t, err)
	require.True(t, ok)
	name, _ := row.Values["name"].AsText()
	assert.Equal(t, "Alicia", name)
}

func TestOverlayReaderWithNilOverlayPassesThroughBase(t *testing.T) {
	reg := newRegistryForTest(t)
	_, _, err := reg.Insert(encodeUserRow(1, "Alice"))
	require.NoError(t, err)

	r := NewReader(reg.Read(), nil, "id", decodeUserRow)
	row, ok, err := r.Next()
	require.NoError(t, err)
	require.True(t, ok)
	name, _ := row.Values["name"].AsText()
	assert.Equal(t, "Alice", name)

	_, ok, err = r.Next()
	require.NoError(t, err)
	assert.False(t, ok)
}
