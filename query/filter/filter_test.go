package filter

import (
	"testing"

	"github.com/kasuganosora/pagedb/storage/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(age int64, name string) Row {
	return Row{
		"age":  value.NewInt64(age),
		"name": value.NewText(name),
	}
}

func TestComparisonOperators(t *testing.T) {
	r := row(30, "alice")

	ok, err := Eq("age", value.NewInt64(30)).Matches(r)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Gt("age", value.NewInt64(20)).Matches(r)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Lt("age", value.NewInt64(20)).Matches(r)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = In("name", value.NewText("bob"), value.NewText("alice")).Matches(r)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAndOrNot(t *testing.T) {
	r := row(30, "alice")

	f := And(Eq("name", value.NewText("alice")), Gt("age", value.NewInt64(18)))
	ok, err := f.Matches(r)
	require.NoError(t, err)
	assert.True(t, ok)

	f = Or(Eq("name", value.NewText("bob")), Eq("age", value.NewInt64(30)))
	ok, err = f.Matches(r)
	require.NoError(t, err)
	assert.True(t, ok)

	f = Not(Eq("name", value.NewText("alice")))
	ok, err = f.Matches(r)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNullChecks(t *testing.T) {
	r := Row{"nickname": value.Null()}

	ok, err := IsNull("nickname").Matches(r)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = NotNull("nickname").Matches(r)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMissingColumnEvaluatesFalseNotError(t *testing.T) {
	r := row(1, "x")

	ok, err := Eq("missing", value.NewInt64(1)).Matches(r)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = In("missing", value.NewInt64(1)).Matches(r)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = IsNull("missing").Matches(r)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = NotNull("missing").Matches(r)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = Like("missing", "a%").Matches(r)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLikePatterns(t *testing.T) {
	cases := []struct {
		text, pattern string
		want          bool
	}{
		{"hello world", "hello%", true},
		{"hello world", "%world", true},
		{"hello world", "h_llo%", true},
		{"hello world", "xyz%", false},
		{"100%", "100%%", true},
		{"abc", "a_c", true},
		{"ac", "a_c", false},
	}
	for _, c := range cases {
		r := Row{"t": value.NewText(c.text)}
		ok, err := Like("t", c.pattern).Matches(r)
		require.NoError(t, err)
		assert.Equal(t, c.want, ok, "pattern %q against %q", c.pattern, c.text)
	}
}

func TestLikeOnNonTextColumnIsInvalidQuery(t *testing.T) {
	r := Row{"n": value.NewInt64(5)}
	_, err := Like("n", "5%").Matches(r)
	require.Error(t, err)
}

func TestLikeOnNullColumnIsFalseNotError(t *testing.T) {
	r := Row{"t": value.Null()}
	ok, err := Like("t", "%").Matches(r)
	require.NoError(t, err)
	assert.False(t, ok)
}
