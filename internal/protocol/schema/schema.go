// Package schema declares the accepted shape of action arguments and results
// and checks decoded values against it.
//
// Schemas are built once, at registration time, from trusted code. Every
// builder method returns a new Schema; a Schema is never modified after it is
// built, so registered schemas can be shared across goroutines freely.
package schema

import (
	"fmt"
	"regexp"
	"slices"
)

type Kind uint8

const (
	// kindUnset is the zero Schema. It matches nothing and is rejected at
	// registration, so a forgotten schema never turns into an open one.
	kindUnset Kind = iota
	KindAny
	KindNull
	KindBool
	KindNumber
	KindString
	KindList
	KindFixedSequence
	KindRecord
	KindMap
	KindAnyOf
)

func (k Kind) String() string {
	switch k {
	case kindUnset:
		return "unset"
	case KindAny:
		return "any"
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindFixedSequence:
		return "fixed sequence"
	case KindRecord:
		return "record"
	case KindMap:
		return "map"
	case KindAnyOf:
		return "any of"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Schema is an immutable shape constraint.
type Schema struct {
	kind        Kind
	description string

	// number
	integer  bool
	min, max *float64

	// string
	minLen, maxLen *int
	pattern        *regexp.Regexp
	oneOf          []string

	// list items, map values
	elem               *Schema
	minItems, maxItems *int

	// fixed sequence
	elems []Schema

	// record
	fields []Field
	open   bool

	// any of
	options []Schema
}

// Field is one declared record key.
type Field struct {
	Name     string
	Schema   Schema
	Optional bool
}

// Required declares a record key that must be present.
func Required(name string, s Schema) Field {
	return Field{Name: name, Schema: s}
}

// Optional declares a record key that may be absent.
func Optional(name string, s Schema) Field {
	return Field{Name: name, Schema: s, Optional: true}
}

// Any accepts every value and passes it through in generic native form.
func Any() Schema { return Schema{kind: KindAny} }

func Null() Schema { return Schema{kind: KindNull} }

func Bool() Schema { return Schema{kind: KindBool} }

// Number accepts any finite number; native form is float64.
func Number() Schema { return Schema{kind: KindNumber} }

// Integer accepts whole numbers within ±2^53; native form is int64.
func Integer() Schema { return Schema{kind: KindNumber, integer: true} }

func String() Schema { return Schema{kind: KindString} }

// List accepts a homogeneous sequence; native form is []any.
func List(items Schema) Schema {
	items.mustSet("List")
	return Schema{kind: KindList, elem: &items}
}

// FixedSequence accepts a sequence of exactly len(items) elements, each
// matching the schema at the same position.
func FixedSequence(items ...Schema) Schema {
	for _, it := range items {
		it.mustSet("FixedSequence")
	}
	return Schema{kind: KindFixedSequence, elems: slices.Clone(items)}
}

// Record accepts a mapping with the declared fields. It is closed: undeclared
// keys are rejected unless Open is applied. Duplicate field names panic.
func Record(fields ...Field) Schema {
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if _, dup := seen[f.Name]; dup {
			panic(fmt.Sprintf("schema: duplicate record field %q", f.Name))
		}
		seen[f.Name] = struct{}{}
		f.Schema.mustSet(fmt.Sprintf("Record field %q", f.Name))
	}
	return Schema{kind: KindRecord, fields: slices.Clone(fields)}
}

// MapOf accepts a mapping with arbitrary keys whose values all match values.
func MapOf(values Schema) Schema {
	values.mustSet("MapOf")
	return Schema{kind: KindMap, elem: &values}
}

// AnyOf accepts a value matching at least one option; the first match wins.
func AnyOf(options ...Schema) Schema {
	if len(options) == 0 {
		panic("schema: AnyOf needs at least one option")
	}
	for _, opt := range options {
		opt.mustSet("AnyOf")
	}
	return Schema{kind: KindAnyOf, options: slices.Clone(options)}
}

// Nullable is AnyOf(Null(), s).
func Nullable(s Schema) Schema {
	return AnyOf(Null(), s)
}

func (s Schema) Kind() Kind { return s.kind }

// IsSet reports whether s was built by a constructor. The zero Schema is unset.
func (s Schema) IsSet() bool { return s.kind != kindUnset }

func (s Schema) Description() string { return s.description }

// IsOpen reports whether a record accepts undeclared keys.
func (s Schema) IsOpen() bool { return s.open }

// Fields returns a copy of a record's declared fields.
func (s Schema) Fields() []Field { return slices.Clone(s.fields) }

// Describe attaches documentation text.
func (s Schema) Describe(text string) Schema {
	s.description = text
	return s
}

// Open marks a record as accepting undeclared keys. Extra keys are passed to
// the handler in generic native form.
func (s Schema) Open() Schema {
	s.mustKind("Open", KindRecord)
	s.open = true
	return s
}

func (s Schema) Min(v float64) Schema {
	s.mustKind("Min", KindNumber)
	s.min = &v
	return s
}

func (s Schema) Max(v float64) Schema {
	s.mustKind("Max", KindNumber)
	s.max = &v
	return s
}

// MinLen bounds string length in runes.
func (s Schema) MinLen(n int) Schema {
	s.mustKind("MinLen", KindString)
	s.minLen = &n
	return s
}

// MaxLen bounds string length in runes.
func (s Schema) MaxLen(n int) Schema {
	s.mustKind("MaxLen", KindString)
	s.maxLen = &n
	return s
}

// Pattern requires strings to match expr (RE2 syntax, linear time).
func (s Schema) Pattern(expr string) Schema {
	s.mustKind("Pattern", KindString)
	s.pattern = regexp.MustCompile(expr)
	return s
}

// OneOf restricts strings to an enumerated set.
func (s Schema) OneOf(values ...string) Schema {
	s.mustKind("OneOf", KindString)
	s.oneOf = slices.Clone(values)
	return s
}

func (s Schema) MinItems(n int) Schema {
	s.mustKind("MinItems", KindList, KindMap)
	s.minItems = &n
	return s
}

func (s Schema) MaxItems(n int) Schema {
	s.mustKind("MaxItems", KindList, KindMap)
	s.maxItems = &n
	return s
}

func (s Schema) mustSet(op string) {
	if !s.IsSet() {
		panic(fmt.Sprintf("schema: %s given an unset schema", op))
	}
}

func (s Schema) mustKind(op string, kinds ...Kind) {
	if !slices.Contains(kinds, s.kind) {
		panic(fmt.Sprintf("schema: %s does not apply to %s schemas", op, s.kind))
	}
}
