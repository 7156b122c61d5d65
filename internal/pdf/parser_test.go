package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParserBasicTypes(t *testing.T) {
	p := newParser([]byte("null true false 42 3.14 (he(l)lo) <48454C4C4F> /A#20B [1 2 3] 7 0 R"), 0)

	next := func() *Object {
		t.Helper()
		o, err := p.object()
		require.NoError(t, err)
		return o
	}

	assert.Equal(t, Null, next().Kind)
	assert.True(t, next().Bool)
	assert.Equal(t, &Object{Kind: Bool}, next())
	assert.Equal(t, &Object{Kind: Int, Int: 42}, next())
	assert.InDelta(t, 3.14, next().Real, 1e-9)
	assert.Equal(t, "he(l)lo", string(next().Str))
	assert.Equal(t, "HELLO", string(next().Str))
	assert.Equal(t, "A B", next().Name)

	arr := next()
	require.Equal(t, Array, arr.Kind)
	require.Len(t, arr.Array, 3)
	assert.Equal(t, int64(2), arr.Array[1].Int)

	assert.Equal(t, &Object{Kind: Reference, Ref: Ref{Num: 7}}, next())
}

func TestParserDictionaryAndStream(t *testing.T) {
	src := "<< /Type /XObject /Length 5 /Nested << /K [1 /N] >> >>\nstream\nhello\nendstream"
	o, err := newParser([]byte(src), 0).object()
	require.NoError(t, err)

	require.Equal(t, Stream, o.Kind)
	assert.Equal(t, "hello", string(o.Data))
	name, ok := o.Dict.Name("Type")
	assert.True(t, ok)
	assert.Equal(t, "XObject", name)
	assert.Equal(t, Dictionary, o.Dict["Nested"].Kind)
}

func TestParserStreamWithoutLength(t *testing.T) {
	o, err := newParser([]byte("<< /Length 3 0 R >>\r\nstream\r\nabc\r\nendstream"), 0).object()
	require.NoError(t, err)
	require.Equal(t, Stream, o.Kind)
	assert.Equal(t, "abc\r\n", string(o.Data))
}

func TestParserDepthLimit(t *testing.T) {
	deep := make([]byte, 0, 2*(maxDepth+10))
	for i := 0; i < maxDepth+10; i++ {
		deep = append(deep, '[')
	}
	_, err := newParser(deep, 0).object()
	assert.Error(t, err)
}
