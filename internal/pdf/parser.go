package pdf

import (
	"bytes"
	"fmt"
	"strconv"
)

const maxDepth = 64

// parser is a recursive-descent reader for PDF object syntax.
type parser struct {
	data  []byte
	pos   int
	depth int
}

func newParser(data []byte, pos int) *parser {
	return &parser{data: data, pos: pos}
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\r', '\n', '\f', 0:
		return true
	}
	return false
}

func isDelim(b byte) bool {
	switch b {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

// skip moves past whitespace and comments.
func (p *parser) skip() {
	for p.pos < len(p.data) {
		switch c := p.data[p.pos]; {
		case c == '%':
			for p.pos < len(p.data) && p.data[p.pos] != '\n' && p.data[p.pos] != '\r' {
				p.pos++
			}
		case isSpace(c):
			p.pos++
		default:
			return
		}
	}
}

// keyword consumes kw if it comes next.
func (p *parser) keyword(kw string) bool {
	if bytes.HasPrefix(p.data[p.pos:], []byte(kw)) {
		p.pos += len(kw)
		return true
	}
	return false
}

// token reads a run of regular characters.
func (p *parser) token() string {
	start := p.pos
	for p.pos < len(p.data) && !isSpace(p.data[p.pos]) && !isDelim(p.data[p.pos]) {
		p.pos++
	}
	return string(p.data[start:p.pos])
}

// objectHeader consumes "N G obj".
func (p *parser) objectHeader() error {
	p.skip()
	p.token()
	p.skip()
	p.token()
	p.skip()
	if !p.keyword("obj") {
		return fmt.Errorf("expected obj at offset %d", p.pos)
	}
	return nil
}

// object parses the next value.
func (p *parser) object() (*Object, error) {
	if p.depth > maxDepth {
		return nil, fmt.Errorf("objects nested deeper than %d", maxDepth)
	}
	p.depth++
	defer func() { p.depth-- }()

	p.skip()
	if p.pos >= len(p.data) {
		return null, nil
	}
	switch c := p.data[p.pos]; {
	case c == '/':
		return &Object{Kind: Name, Name: p.name()}, nil
	case c == '<' && p.pos+1 < len(p.data) && p.data[p.pos+1] == '<':
		return p.dict()
	case c == '<':
		return p.hexString(), nil
	case c == '(':
		return p.literal(), nil
	case c == '[':
		return p.array()
	case c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9'):
		return p.number(), nil
	case p.keyword("true"):
		return &Object{Kind: Bool, Bool: true}, nil
	case p.keyword("false"):
		return &Object{Kind: Bool}, nil
	case p.keyword("null"):
		return null, nil
	}
	// Unknown keyword: step over it so callers always make progress.
	if p.token() == "" {
		p.pos++
	}
	return null, nil
}

func (p *parser) name() string {
	p.pos++ // '/'
	raw := p.token()
	if !bytes.ContainsRune([]byte(raw), '#') {
		return raw
	}
	var b bytes.Buffer
	for i := 0; i < len(raw); i++ {
		if raw[i] == '#' && i+2 < len(raw) {
			b.WriteByte(unhex(raw[i+1])<<4 | unhex(raw[i+2]))
			i += 2
			continue
		}
		b.WriteByte(raw[i])
	}
	return b.String()
}

func unhex(b byte) byte {
	switch {
	case b >= '0' && b <= '9':
		return b - '0'
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10
	}
	return 0
}

func (p *parser) hexString() *Object {
	p.pos++ // '<'
	var digits []byte
	for p.pos < len(p.data) && p.data[p.pos] != '>' {
		if !isSpace(p.data[p.pos]) {
			digits = append(digits, p.data[p.pos])
		}
		p.pos++
	}
	p.pos++ // '>'
	if len(digits)%2 == 1 {
		digits = append(digits, '0')
	}
	out := make([]byte, len(digits)/2)
	for i := range out {
		out[i] = unhex(digits[2*i])<<4 | unhex(digits[2*i+1])
	}
	return &Object{Kind: String, Str: out}
}

// literal reads a (...) string. Escapes are kept simple: the reader only
// needs strings to skip past them correctly.
func (p *parser) literal() *Object {
	p.pos++ // '('
	var b bytes.Buffer
	for depth := 1; p.pos < len(p.data); p.pos++ {
		c := p.data[p.pos]
		switch c {
		case '\\':
			p.pos++
			if p.pos < len(p.data) {
				b.WriteByte(p.data[p.pos])
			}
			continue
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				p.pos++
				return &Object{Kind: String, Str: b.Bytes()}
			}
		}
		b.WriteByte(c)
	}
	return &Object{Kind: String, Str: b.Bytes()}
}

func (p *parser) array() (*Object, error) {
	p.pos++ // '['
	arr := &Object{Kind: Array}
	for {
		p.skip()
		if p.pos >= len(p.data) {
			return arr, nil
		}
		if p.data[p.pos] == ']' {
			p.pos++
			return arr, nil
		}
		o, err := p.object()
		if err != nil {
			return nil, err
		}
		arr.Array = append(arr.Array, o)
	}
}

func (p *parser) dict() (*Object, error) {
	p.pos += 2 // '<<'
	d := Dict{}
	for {
		p.skip()
		if p.pos >= len(p.data) {
			break
		}
		if p.keyword(">>") {
			break
		}
		if p.data[p.pos] != '/' {
			p.pos++
			continue
		}
		key := p.name()
		val, err := p.object()
		if err != nil {
			return nil, err
		}
		d[key] = val
	}

	save := p.pos
	p.skip()
	if !p.keyword("stream") {
		p.pos = save
		return &Object{Kind: Dictionary, Dict: d}, nil
	}
	// The end-of-line after the keyword is not part of the data.
	_ = p.keyword("\r\n") || p.keyword("\n") || p.keyword("\r")
	start := p.pos
	var end int
	if n, ok := d.Int("Length"); ok && n >= 0 && start+int(n) <= len(p.data) {
		end = start + int(n)
	} else if i := bytes.Index(p.data[start:], []byte("endstream")); i >= 0 {
		end = start + i
	} else {
		end = len(p.data)
	}
	p.pos = end
	p.skip()
	p.keyword("endstream")
	return &Object{Kind: Stream, Dict: d, Data: p.data[start:end]}, nil
}

// number reads an integer, a real, or an "N G R" reference.
func (p *parser) number() *Object {
	tok := p.token()
	n, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		f, _ := strconv.ParseFloat(tok, 64)
		return &Object{Kind: Real, Real: f}
	}

	save := p.pos
	p.skip()
	if gen, err := strconv.Atoi(p.token()); err == nil {
		p.skip()
		if p.pos < len(p.data) && p.data[p.pos] == 'R' &&
			(p.pos+1 == len(p.data) || isSpace(p.data[p.pos+1]) || isDelim(p.data[p.pos+1])) {
			p.pos++
			return &Object{Kind: Reference, Ref: Ref{Num: int(n), Gen: gen}}
		}
	}
	p.pos = save
	return &Object{Kind: Int, Int: n}
}
