// Package value is the closed set of shapes that may cross the wire.
//
// A Value is one of Null, Bool, Number, String, Sequence, or Mapping. There is
// no variant for references, functions, or type names, and the only way to
// build a Value is through the constructors in this package. Constructors copy
// their inputs, so a Value never shares storage with its caller or with
// another Value.
package value

import (
	"errors"
	"fmt"
	"math"
	"unicode/utf8"
)

// Kind identifies a Value variant.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindSequence
	KindMapping
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

var (
	ErrDuplicateKey     = errors.New("value: duplicate mapping key")
	ErrNonFiniteNumber  = errors.New("value: number must be finite")
	ErrInvalidUTF8      = errors.New("value: string is not valid utf-8")
	ErrUnsupportedValue = errors.New("value: unsupported native type")
)

// Value is an immutable, acyclic wire value. The zero Value is Null.
type Value struct {
	kind    Kind
	b       bool
	n       float64
	s       string
	items   []Value
	entries []Entry
}

// Entry is one key/value pair of a Mapping.
type Entry struct {
	Key   string
	Value Value
}

func Null() Value { return Value{kind: KindNull} }

func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number returns a Number value. It panics on NaN or infinities; use
// NewNumber when the input is not trusted.
func Number(n float64) Value {
	v, err := NewNumber(n)
	if err != nil {
		panic(err)
	}
	return v
}

// NewNumber returns a Number value or ErrNonFiniteNumber.
func NewNumber(n float64) (Value, error) {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return Value{}, ErrNonFiniteNumber
	}
	return Value{kind: KindNumber, n: n}, nil
}

// String returns a String value. It panics on invalid UTF-8; use NewString
// when the input is not trusted.
func String(s string) Value {
	v, err := NewString(s)
	if err != nil {
		panic(err)
	}
	return v
}

// NewString returns a String value or ErrInvalidUTF8.
func NewString(s string) (Value, error) {
	if !utf8.ValidString(s) {
		return Value{}, ErrInvalidUTF8
	}
	return Value{kind: KindString, s: s}, nil
}

// Sequence returns an ordered list of values.
func Sequence(items ...Value) Value {
	out := make([]Value, len(items))
	copy(out, items)
	return Value{kind: KindSequence, items: out}
}

// Mapping returns an ordered mapping. Keys must be unique and valid UTF-8.
func Mapping(entries ...Entry) (Value, error) {
	seen := make(map[string]struct{}, len(entries))
	out := make([]Entry, len(entries))
	for i, e := range entries {
		if !utf8.ValidString(e.Key) {
			return Value{}, ErrInvalidUTF8
		}
		if _, dup := seen[e.Key]; dup {
			return Value{}, fmt.Errorf("%w: %q", ErrDuplicateKey, e.Key)
		}
		seen[e.Key] = struct{}{}
		out[i] = e
	}
	return Value{kind: KindMapping, entries: out}, nil
}

// MustMapping is Mapping for trusted, statically known entries.
func MustMapping(entries ...Entry) Value {
	v, err := Mapping(entries...)
	if err != nil {
		panic(err)
	}
	return v
}

// E is shorthand for building an Entry.
func E(key string, v Value) Entry {
	return Entry{Key: key, Value: v}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

func (v Value) AsNumber() (float64, bool) { return v.n, v.kind == KindNumber }

func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// Len is the element count of a Sequence or Mapping, zero otherwise.
func (v Value) Len() int {
	switch v.kind {
	case KindSequence:
		return len(v.items)
	case KindMapping:
		return len(v.entries)
	default:
		return 0
	}
}

// Items returns a copy of a Sequence's elements.
func (v Value) Items() []Value {
	if v.kind != KindSequence {
		return nil
	}
	out := make([]Value, len(v.items))
	copy(out, v.items)
	return out
}

// Index returns the i-th element of a Sequence.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != KindSequence || i < 0 || i >= len(v.items) {
		return Value{}, false
	}
	return v.items[i], true
}

// Entries returns a copy of a Mapping's entries in order.
func (v Value) Entries() []Entry {
	if v.kind != KindMapping {
		return nil
	}
	out := make([]Entry, len(v.entries))
	copy(out, v.entries)
	return out
}

// Get looks up key in a Mapping.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindMapping {
		return Value{}, false
	}
	for _, e := range v.entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return Value{}, false
}

// Equal reports structural equality. Mapping entry order is significant.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindNumber:
		return v.n == o.n
	case KindString:
		return v.s == o.s
	case KindSequence:
		if len(v.items) != len(o.items) {
			return false
		}
		for i := range v.items {
			if !v.items[i].Equal(o.items[i]) {
				return false
			}
		}
		return true
	case KindMapping:
		if len(v.entries) != len(o.entries) {
			return false
		}
		for i := range v.entries {
			if v.entries[i].Key != o.entries[i].Key || !v.entries[i].Value.Equal(o.entries[i].Value) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Depth is the nesting depth; scalars have depth 1.
func (v Value) Depth() int {
	max := 0
	switch v.kind {
	case KindSequence:
		for _, it := range v.items {
			if d := it.Depth(); d > max {
				max = d
			}
		}
	case KindMapping:
		for _, e := range v.entries {
			if d := e.Value.Depth(); d > max {
				max = d
			}
		}
	default:
		return 1
	}
	return max + 1
}

func (v Value) String() string {
	b, err := v.MarshalJSON()
	if err != nil {
		return "<" + v.kind.String() + ">"
	}
	return string(b)
}
