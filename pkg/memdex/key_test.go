package memdex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Compare_Orders_Null_Before_Everything(t *testing.T) {
	t.Parallel()

	nonNull := []Key{StringKey(""), StringKey("a"), IntKey(-100), IntKey(0), BoolKey(false)}

	for _, key := range nonNull {
		c, err := NullKey().Compare(key)
		require.NoError(t, err)
		assert.Negative(t, c, "null vs %v", key)

		c, err = key.Compare(NullKey())
		require.NoError(t, err)
		assert.Positive(t, c, "%v vs null", key)
	}

	c, err := NullKey().Compare(NullKey())
	require.NoError(t, err)
	assert.Zero(t, c)
}

func Test_Compare_Orders_Within_Kind(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b Key
		want int
	}{
		{name: "ints ascending", a: IntKey(-2), b: IntKey(0), want: -1},
		{name: "ints equal", a: IntKey(5), b: IntKey(5), want: 0},
		{name: "ints descending", a: IntKey(9), b: IntKey(4), want: 1},
		{name: "strings bytewise", a: StringKey("a"), b: StringKey("b"), want: -1},
		{name: "empty string first", a: StringKey(""), b: StringKey("a"), want: -1},
		{name: "strings equal", a: StringKey("d"), b: StringKey("d"), want: 0},
		{name: "false before true", a: BoolKey(false), b: BoolKey(true), want: -1},
		{name: "bools equal", a: BoolKey(true), b: BoolKey(true), want: 0},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := tc.a.Compare(tc.b)
			require.NoError(t, err)

			switch {
			case tc.want < 0:
				assert.Negative(t, got)
			case tc.want > 0:
				assert.Positive(t, got)
			default:
				assert.Zero(t, got)
			}
		})
	}
}

func Test_Compare_Fails_Across_Kinds(t *testing.T) {
	t.Parallel()

	_, err := IntKey(9).Compare(StringKey("9"))
	require.ErrorIs(t, err, ErrNotComparable)

	_, err = BoolKey(true).Compare(IntKey(1))
	require.ErrorIs(t, err, ErrNotComparable)
}

func Test_Zero_Key_Is_Null(t *testing.T) {
	t.Parallel()

	assert.Equal(t, NullKey(), Key{})
	assert.Equal(t, KindNull, Key{}.Kind)
}

func Test_FormatKey_Renders_Each_Kind(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "null", formatKey(NullKey()))
	assert.Equal(t, `"d"`, formatKey(StringKey("d")))
	assert.Equal(t, "-2", formatKey(IntKey(-2)))
	assert.Equal(t, "true", formatKey(BoolKey(true)))
}

func Test_KindName_Covers_All_Kinds(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "null", KindNull.String())
	assert.Equal(t, "string", KindString.String())
	assert.Equal(t, "int", KindInt.String())
	assert.Equal(t, "bool", KindBool.String())
}
