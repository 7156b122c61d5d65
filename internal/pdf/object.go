// Package pdf reads just enough of a PDF file to describe its pages and
// the images drawn on them. It is used to check assembled decks.
package pdf

// Kind identifies the type of a PDF object.
type Kind int

const (
	Null Kind = iota
	Bool
	Int
	Real
	String
	Name
	Array
	Dictionary
	Stream
	Reference
)

// Object is any PDF value. Only the fields matching Kind are set.
type Object struct {
	Kind  Kind
	Bool  bool
	Int   int64
	Real  float64
	Str   []byte
	Name  string
	Array []*Object
	Dict  Dict
	Data  []byte // raw, still-encoded stream bytes
	Ref   Ref
}

// Ref is an indirect object reference "N G R".
type Ref struct {
	Num int
	Gen int
}

var null = &Object{Kind: Null}

// Number returns the object as a float, accepting integers.
func (o *Object) Number() (float64, bool) {
	if o == nil {
		return 0, false
	}
	switch o.Kind {
	case Int:
		return float64(o.Int), true
	case Real:
		return o.Real, true
	}
	return 0, false
}

// Dict is a PDF dictionary keyed by name without the leading slash.
type Dict map[string]*Object

// Int returns an integer entry. Reals are truncated.
func (d Dict) Int(key string) (int64, bool) {
	o, ok := d[key]
	if !ok {
		return 0, false
	}
	switch o.Kind {
	case Int:
		return o.Int, true
	case Real:
		return int64(o.Real), true
	}
	return 0, false
}

// Name returns a name entry.
func (d Dict) Name(key string) (string, bool) {
	o, ok := d[key]
	if !ok || o.Kind != Name {
		return "", false
	}
	return o.Name, true
}

// Array returns an array entry. A single value reads as a one-element array.
func (d Dict) Array(key string) ([]*Object, bool) {
	o, ok := d[key]
	if !ok {
		return nil, false
	}
	if o.Kind == Array {
		return o.Array, true
	}
	return []*Object{o}, true
}
