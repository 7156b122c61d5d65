package pdf

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
)

// xrefEntry locates one object, either at a file offset or inside an
// object stream.
type xrefEntry struct {
	offset    int
	inStream  bool
	streamNum int
	index     int
}

// Document is a parsed PDF file.
type Document struct {
	data    []byte
	xref    map[int]xrefEntry
	trailer Dict
	cache   map[int]*Object
}

// Open reads and parses the PDF at path.
func Open(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return Load(data)
}

// Load parses a PDF held in memory.
func Load(data []byte) (*Document, error) {
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return nil, fmt.Errorf("not a PDF file")
	}
	d := &Document{data: data, xref: map[int]xrefEntry{}, cache: map[int]*Object{}}
	off, err := d.startXRef()
	if err != nil {
		return nil, err
	}
	seen := map[int]bool{}
	for off >= 0 {
		if seen[off] {
			return nil, fmt.Errorf("xref loop at offset %d", off)
		}
		seen[off] = true
		if off, err = d.readXRef(off); err != nil {
			return nil, fmt.Errorf("loading xref: %w", err)
		}
	}
	return d, nil
}

// Version returns the header version, for example "1.4".
func (d *Document) Version() string {
	end := bytes.IndexAny(d.data[5:min(len(d.data), 20)], "\r\n ")
	if end < 0 {
		return "?"
	}
	return string(d.data[5 : 5+end])
}

func (d *Document) startXRef() (int, error) {
	tail := d.data[max(0, len(d.data)-1024):]
	i := bytes.LastIndex(tail, []byte("startxref"))
	if i < 0 {
		return 0, fmt.Errorf("startxref not found")
	}
	p := newParser(tail, i+len("startxref"))
	p.skip()
	off, err := strconv.Atoi(p.token())
	if err != nil || off < 0 || off >= len(d.data) {
		return 0, fmt.Errorf("invalid startxref offset")
	}
	return off, nil
}

// readXRef loads the section at off and returns the previous section's
// offset, or -1 when there is none. Entries already known win, since
// later sections override earlier ones.
func (d *Document) readXRef(off int) (int, error) {
	if off < 0 || off >= len(d.data) {
		return -1, fmt.Errorf("offset %d out of range", off)
	}
	p := newParser(d.data, off)
	p.skip()
	var dict Dict
	var err error
	if p.keyword("xref") {
		dict, err = d.readXRefTable(p)
	} else {
		dict, err = d.readXRefStream(p)
	}
	if err != nil {
		return -1, err
	}
	if d.trailer == nil {
		d.trailer = dict
	}
	if prev, ok := dict.Int("Prev"); ok && prev > 0 {
		return int(prev), nil
	}
	return -1, nil
}

func (d *Document) readXRefTable(p *parser) (Dict, error) {
	for {
		p.skip()
		if p.keyword("trailer") {
			o, err := p.object()
			if err != nil {
				return nil, err
			}
			if o.Kind != Dictionary {
				return nil, fmt.Errorf("trailer is not a dictionary")
			}
			return o.Dict, nil
		}
		first, err1 := strconv.Atoi(p.token())
		p.skip()
		count, err2 := strconv.Atoi(p.token())
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("malformed xref subsection at offset %d", p.pos)
		}
		for i := 0; i < count; i++ {
			p.skip()
			offset, _ := strconv.Atoi(p.token())
			p.skip()
			p.token() // generation
			p.skip()
			inUse := p.keyword("n")
			if !inUse {
				p.keyword("f")
			}
			if _, known := d.xref[first+i]; !known && inUse {
				d.xref[first+i] = xrefEntry{offset: offset}
			}
		}
	}
}

func (d *Document) readXRefStream(p *parser) (Dict, error) {
	if err := p.objectHeader(); err != nil {
		return nil, err
	}
	o, err := p.object()
	if err != nil {
		return nil, err
	}
	if o.Kind != Stream {
		return nil, fmt.Errorf("xref section is neither a table nor a stream")
	}
	data, err := decode(o)
	if err != nil {
		return nil, fmt.Errorf("xref stream: %w", err)
	}

	w, _ := o.Dict.Array("W")
	if len(w) < 3 {
		return nil, fmt.Errorf("xref stream without /W")
	}
	w0, w1, w2 := int(w[0].Int), int(w[1].Int), int(w[2].Int)
	size := w0 + w1 + w2
	if size == 0 {
		return nil, fmt.Errorf("xref stream with empty entries")
	}

	index, ok := o.Dict.Array("Index")
	if !ok {
		n, _ := o.Dict.Int("Size")
		index = []*Object{{Kind: Int}, {Kind: Int, Int: n}}
	}
	pos := 0
	for s := 0; s+1 < len(index); s += 2 {
		first, count := int(index[s].Int), int(index[s+1].Int)
		for i := 0; i < count && pos+size <= len(data); i++ {
			typ := 1
			if w0 > 0 {
				typ = beInt(data[pos : pos+w0])
			}
			f1 := beInt(data[pos+w0 : pos+w0+w1])
			f2 := beInt(data[pos+w0+w1 : pos+size])
			pos += size

			num := first + i
			if _, known := d.xref[num]; known {
				continue
			}
			switch typ {
			case 1:
				d.xref[num] = xrefEntry{offset: f1}
			case 2:
				d.xref[num] = xrefEntry{inStream: true, streamNum: f1, index: f2}
			}
		}
	}
	return o.Dict, nil
}

func beInt(b []byte) int {
	v := 0
	for _, c := range b {
		v = v<<8 | int(c)
	}
	return v
}

// Resolve follows o if it is a reference. Missing objects resolve to null.
func (d *Document) Resolve(o *Object) *Object {
	for depth := 0; o != nil && o.Kind == Reference && depth < maxDepth; depth++ {
		o = d.object(o.Ref.Num)
	}
	if o == nil {
		return null
	}
	return o
}

func (d *Document) object(num int) *Object {
	if o, ok := d.cache[num]; ok {
		return o
	}
	e, ok := d.xref[num]
	if !ok {
		return null
	}
	var o *Object
	var err error
	if e.inStream {
		o, err = d.fromObjectStream(e)
	} else {
		o, err = d.atOffset(e.offset)
	}
	if err != nil {
		o = null
	}
	d.cache[num] = o
	return o
}

func (d *Document) atOffset(off int) (*Object, error) {
	if off < 0 || off >= len(d.data) {
		return nil, fmt.Errorf("object offset %d out of range", off)
	}
	p := newParser(d.data, off)
	if err := p.objectHeader(); err != nil {
		return nil, err
	}
	o, err := p.object()
	if err != nil {
		return nil, err
	}
	// An indirect /Length made the parser fall back to scanning for
	// endstream; trim to the real length once it is known.
	if o.Kind == Stream {
		if l := o.Dict["Length"]; l != nil && l.Kind == Reference {
			if n, ok := d.Resolve(l).Number(); ok && int(n) <= len(o.Data) {
				o.Data = o.Data[:int(n)]
			}
		}
	}
	return o, nil
}

func (d *Document) fromObjectStream(e xrefEntry) (*Object, error) {
	s := d.object(e.streamNum)
	if s.Kind != Stream {
		return nil, fmt.Errorf("object stream %d missing", e.streamNum)
	}
	data, err := decode(s)
	if err != nil {
		return nil, err
	}
	n, _ := s.Dict.Int("N")
	first, _ := s.Dict.Int("First")
	if int64(e.index) >= n {
		return nil, fmt.Errorf("object index %d beyond stream of %d", e.index, n)
	}
	p := newParser(data, 0)
	off := 0
	for i := 0; i <= e.index; i++ {
		p.skip()
		p.token() // object number
		p.skip()
		off, _ = strconv.Atoi(p.token())
	}
	return newParser(data, int(first)+off).object()
}

// Pages returns the page dictionaries in document order.
func (d *Document) Pages() ([]Dict, error) {
	root := d.Resolve(d.trailer["Root"])
	if root.Kind != Dictionary {
		return nil, fmt.Errorf("document has no catalog")
	}
	tree := d.Resolve(root.Dict["Pages"])
	if tree.Kind != Dictionary {
		return nil, fmt.Errorf("catalog has no page tree")
	}
	var pages []Dict
	d.walkPages(tree.Dict, 0, &pages)
	return pages, nil
}

func (d *Document) walkPages(node Dict, depth int, out *[]Dict) {
	if depth > maxDepth {
		return
	}
	if t, _ := node.Name("Type"); t == "Page" {
		*out = append(*out, node)
		return
	}
	kids, _ := node.Array("Kids")
	for _, k := range kids {
		if kid := d.Resolve(k); kid.Kind == Dictionary {
			d.walkPages(kid.Dict, depth+1, out)
		}
	}
}
