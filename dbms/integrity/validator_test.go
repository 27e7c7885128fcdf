package integrity

import (
	"testing"

	"github.com/kasuganosora/pagedb/dberr"
	"github.com/kasuganosora/pagedb/dbms/tableschema"
	"github.com/kasuganosora/pagedb/query/filter"
	"github.com/kasuganosora/pagedb/storage/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	counts map[string]int // "table.column=value text" -> count
}

func (f fakeSource) CountWhere(table, column string, val value.Value) (int, error) {
	key := table + "." + column + "=" + valueKey(val)
	return f.counts[key], nil
}

func valueKey(v value.Value) string {
	if s, ok := v.AsText(); ok {
		return s
	}
	if n, ok := v.AsUint32(); ok {
		return string(rune(n))
	}
	return ""
}

type postsSchema struct{}

func (postsSchema) TableName() string { return "posts" }
func (postsSchema) Columns() []tableschema.ColumnDef {
	return []tableschema.ColumnDef{
		{Name: "id", Type: value.KindUint32, PrimaryKey: true},
		{Name: "title", Type: value.KindText},
		{Name: "user_id", Type: value.KindUint32, ForeignKey: &tableschema.ForeignKey{
			LocalColumn: "user_id", ForeignTable: "users", ForeignColumn: "id",
		}},
	}
}
func (postsSchema) PrimaryKeyColumn() string                          { return "id" }
func (postsSchema) Fingerprint() uint64                               { return 1 }
func (postsSchema) EncodeRow(filter.Row) ([]byte, error)              { return nil, nil }
func (postsSchema) DecodeRow([]byte) (filter.Row, error)              { return nil, nil }

func TestValidateInsertPrimaryKeyConflict(t *testing.T) {
	src := fakeSource{counts: map[string]int{"posts.id=\x01": 1}}
	row := filter.Row{"id": value.NewUint32(1), "title": value.NewText("t"), "user_id": value.NewUint32(1)}
	err := ValidateInsert(src, postsSchema{}, row)
	require.Error(t, err)
	var target *dberr.ErrPrimaryKeyConflict
	assert.ErrorAs(t, err, &target)
}

func TestValidateInsertBrokenForeignKey(t *testing.T) {
	src := fakeSource{counts: map[string]int{}}
	row := filter.Row{"id": value.NewUint32(2), "title": value.NewText("t"), "user_id": value.NewUint32(99)}
	err := ValidateInsert(src, postsSchema{}, row)
	require.Error(t, err)
	var target *dberr.ErrBrokenForeignKeyReference
	assert.ErrorAs(t, err, &target)
}

func TestValidateInsertMissingNonNullable(t *testing.T) {
	src := fakeSource{counts: map[string]int{"users.id=\x01": 1}}
	row := filter.Row{"id": value.NewUint32(3), "user_id": value.NewUint32(1)}
	err := ValidateInsert(src, postsSchema{}, row)
	require.Error(t, err)
	var target *dberr.ErrMissingNonNullableField
	assert.ErrorAs(t, err, &target)
	assert.Equal(t, "title", target.Name)
}

func TestValidateInsertSucceeds(t *testing.T) {
	src := fakeSource{counts: map[string]int{"users.id=\x01": 1}}
	row := filter.Row{"id": value.NewUint32(4), "title": value.NewText("t"), "user_id": value.NewUint32(1)}
	err := ValidateInsert(src, postsSchema{}, row)
	require.NoError(t, err)
}
