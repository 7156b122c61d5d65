package pdf

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
)

// maxDecoded caps the size of a decoded stream (256 MB).
const maxDecoded = 256 << 20

// decode applies the stream's filter chain. Image codecs such as DCTDecode
// are left encoded; callers look at their dictionaries instead.
func decode(o *Object) ([]byte, error) {
	filters, _ := o.Dict.Array("Filter")
	parms, _ := o.Dict.Array("DecodeParms")

	data := o.Data
	for i, f := range filters {
		var p Dict
		if i < len(parms) && parms[i].Kind == Dictionary {
			p = parms[i].Dict
		}
		switch f.Name {
		case "FlateDecode", "Fl":
			var err error
			if data, err = inflate(data, p); err != nil {
				return nil, err
			}
		case "DCTDecode", "DCT", "JPXDecode", "JBIG2Decode", "CCITTFaxDecode", "CCF":
			return data, nil
		default:
			return nil, fmt.Errorf("unsupported filter %s", f.Name)
		}
	}
	return data, nil
}

func inflate(data []byte, p Dict) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("zlib: %w", err)
	}
	defer r.Close()

	out, err := io.ReadAll(io.LimitReader(r, maxDecoded+1))
	if err != nil {
		return nil, fmt.Errorf("zlib: %w", err)
	}
	if len(out) > maxDecoded {
		return nil, fmt.Errorf("decoded stream larger than %d bytes", maxDecoded)
	}
	if pred, _ := p.Int("Predictor"); pred >= 10 {
		return unpredictPNG(out, p), nil
	}
	return out, nil
}

// unpredictPNG reverses PNG row filters (predictors 10 to 15).
func unpredictPNG(data []byte, p Dict) []byte {
	colors, cols, bpc := int64(1), int64(1), int64(8)
	if v, ok := p.Int("Colors"); ok && v > 0 {
		colors = v
	}
	if v, ok := p.Int("Columns"); ok && v > 0 {
		cols = v
	}
	if v, ok := p.Int("BitsPerComponent"); ok && v > 0 {
		bpc = v
	}
	row := int((cols*colors*bpc + 7) / 8)
	bpp := int((colors*bpc + 7) / 8)
	stride := row + 1

	rows := len(data) / stride
	out := make([]byte, rows*row)
	prev := make([]byte, row)
	for r := 0; r < rows; r++ {
		src := data[r*stride+1 : (r+1)*stride]
		dst := out[r*row : (r+1)*row]
		kind := data[r*stride]
		for i := range dst {
			var left, upLeft byte
			if i >= bpp {
				left = dst[i-bpp]
				upLeft = prev[i-bpp]
			}
			up := prev[i]
			switch kind {
			case 1:
				dst[i] = src[i] + left
			case 2:
				dst[i] = src[i] + up
			case 3:
				dst[i] = src[i] + byte((int(left)+int(up))/2)
			case 4:
				dst[i] = src[i] + paeth(left, up, upLeft)
			default:
				dst[i] = src[i]
			}
		}
		copy(prev, dst)
	}
	return out
}

func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := absInt(p-int(a)), absInt(p-int(b)), absInt(p-int(c))
	switch {
	case pa <= pb && pa <= pc:
		return a
	case pb <= pc:
		return b
	}
	return c
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
