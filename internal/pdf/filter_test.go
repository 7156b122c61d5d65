package pdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeFlate(t *testing.T) {
	o := &Object{
		Kind: Stream,
		Dict: Dict{"Filter": {Kind: Name, Name: "FlateDecode"}},
		Data: deflate(t, []byte("slide")),
	}
	got, err := decode(o)
	require.NoError(t, err)
	assert.Equal(t, "slide", string(got))
}

func TestDecodePassesImageCodecsThrough(t *testing.T) {
	o := &Object{
		Kind: Stream,
		Dict: Dict{"Filter": {Kind: Name, Name: "DCTDecode"}},
		Data: []byte{0xff, 0xd8, 0xff},
	}
	got, err := decode(o)
	require.NoError(t, err)
	assert.Equal(t, o.Data, got)
}

func TestDecodeUnsupportedFilter(t *testing.T) {
	o := &Object{Kind: Stream, Dict: Dict{"Filter": {Kind: Name, Name: "LZWDecode"}}}
	_, err := decode(o)
	assert.ErrorContains(t, err, "LZWDecode")
}

func TestUnpredictPNG(t *testing.T) {
	parms := Dict{
		"Predictor": {Kind: Int, Int: 12},
		"Columns":   {Kind: Int, Int: 3},
	}
	// Row 1 uses None, row 2 uses Up, row 3 uses Sub.
	data := []byte{
		0, 1, 2, 3,
		2, 1, 1, 1,
		1, 5, 1, 1,
	}
	assert.Equal(t, []byte{1, 2, 3, 2, 3, 4, 5, 6, 7}, unpredictPNG(data, parms))
}

func TestPaeth(t *testing.T) {
	assert.Equal(t, byte(10), paeth(10, 20, 20))
	assert.Equal(t, byte(20), paeth(10, 20, 10))
	assert.Equal(t, byte(5), paeth(10, 0, 5))
}
