package schema

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strconv"
	"unicode/utf8"

	"github.com/danmuck/actionwire/internal/protocol"
	"github.com/danmuck/actionwire/internal/protocol/value"
)

const maxSafeInteger = 1 << 53

// Check matches v against s and returns v in native form, or a
// *protocol.ValidationError for the first divergence.
//
// Order is fixed: depth-first; record fields in declared order, then
// undeclared keys sorted; sequences left to right. The reported path does
// not depend on payload key order.
func Check(s Schema, v value.Value) (any, error) {
	return check(s, v, value.Root)
}

// Validate is Check without the native result.
func Validate(s Schema, v value.Value) error {
	_, err := check(s, v, value.Root)
	return err
}

func fail(path, reason string, args ...any) error {
	return &protocol.ValidationError{Path: path, Reason: fmt.Sprintf(reason, args...)}
}

func mismatch(path string, want Kind, got value.Value) error {
	return fail(path, "expected %s, got %s", want, got.Kind())
}

func check(s Schema, v value.Value, path string) (any, error) {
	switch s.kind {
	case KindAny:
		return v.Native(), nil
	case KindNull:
		if !v.IsNull() {
			return nil, mismatch(path, KindNull, v)
		}
		return nil, nil
	case KindBool:
		b, ok := v.AsBool()
		if !ok {
			return nil, mismatch(path, KindBool, v)
		}
		return b, nil
	case KindNumber:
		return checkNumber(s, v, path)
	case KindString:
		return checkString(s, v, path)
	case KindList:
		return checkList(s, v, path)
	case KindFixedSequence:
		return checkFixed(s, v, path)
	case KindRecord:
		return checkRecord(s, v, path)
	case KindMap:
		return checkMap(s, v, path)
	case KindAnyOf:
		for _, opt := range s.options {
			if out, err := check(opt, v, path); err == nil {
				return out, nil
			}
		}
		return nil, fail(path, "value matches none of %d alternatives", len(s.options))
	default:
		return nil, fail(path, "unsupported schema kind %s", s.kind)
	}
}

func checkNumber(s Schema, v value.Value, path string) (any, error) {
	n, ok := v.AsNumber()
	if !ok {
		return nil, mismatch(path, KindNumber, v)
	}
	if s.integer {
		if n != math.Trunc(n) || math.Abs(n) > maxSafeInteger {
			return nil, fail(path, "expected integer")
		}
	}
	if s.min != nil && n < *s.min {
		return nil, fail(path, "must be at least %s", formatNumber(*s.min))
	}
	if s.max != nil && n > *s.max {
		return nil, fail(path, "must be at most %s", formatNumber(*s.max))
	}
	if s.integer {
		return int64(n), nil
	}
	return n, nil
}

func checkString(s Schema, v value.Value, path string) (any, error) {
	str, ok := v.AsString()
	if !ok {
		return nil, mismatch(path, KindString, v)
	}
	if s.minLen != nil || s.maxLen != nil {
		n := utf8.RuneCountInString(str)
		if s.minLen != nil && n < *s.minLen {
			return nil, fail(path, "length must be at least %d", *s.minLen)
		}
		if s.maxLen != nil && n > *s.maxLen {
			return nil, fail(path, "length must be at most %d", *s.maxLen)
		}
	}
	if s.pattern != nil && !s.pattern.MatchString(str) {
		return nil, fail(path, "does not match pattern %s", s.pattern.String())
	}
	if len(s.oneOf) > 0 && !slices.Contains(s.oneOf, str) {
		return nil, fail(path, "must be one of %v", s.oneOf)
	}
	return str, nil
}

func checkCount(s Schema, n int, path string) error {
	if s.minItems != nil && n < *s.minItems {
		return fail(path, "must have at least %d elements", *s.minItems)
	}
	if s.maxItems != nil && n > *s.maxItems {
		return fail(path, "must have at most %d elements", *s.maxItems)
	}
	return nil
}

func checkList(s Schema, v value.Value, path string) (any, error) {
	if v.Kind() != value.KindSequence {
		return nil, mismatch(path, KindList, v)
	}
	if err := checkCount(s, v.Len(), path); err != nil {
		return nil, err
	}
	out := make([]any, 0, v.Len())
	for i, it := range v.Items() {
		n, err := check(*s.elem, it, value.IndexPath(path, i))
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func checkFixed(s Schema, v value.Value, path string) (any, error) {
	if v.Kind() != value.KindSequence {
		return nil, mismatch(path, KindFixedSequence, v)
	}
	items := v.Items()
	out := make([]any, 0, len(s.elems))
	for i, es := range s.elems {
		if i >= len(items) {
			return nil, fail(value.IndexPath(path, i), "missing element")
		}
		n, err := check(es, items[i], value.IndexPath(path, i))
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	if len(items) > len(s.elems) {
		return nil, fail(value.IndexPath(path, len(s.elems)), "unexpected element")
	}
	return out, nil
}

func checkRecord(s Schema, v value.Value, path string) (any, error) {
	if v.Kind() != value.KindMapping {
		return nil, mismatch(path, KindRecord, v)
	}
	entries := v.Entries()
	byKey := make(map[string]value.Value, len(entries))
	for _, e := range entries {
		byKey[e.Key] = e.Value
	}

	out := make(map[string]any, len(s.fields))
	for _, f := range s.fields {
		fv, ok := byKey[f.Name]
		if !ok {
			if f.Optional {
				continue
			}
			return nil, fail(value.KeyPath(path, f.Name), "missing required field")
		}
		n, err := check(f.Schema, fv, value.KeyPath(path, f.Name))
		if err != nil {
			return nil, err
		}
		out[f.Name] = n
		delete(byKey, f.Name)
	}

	if len(byKey) == 0 {
		return out, nil
	}
	extras := make([]string, 0, len(byKey))
	for k := range byKey {
		extras = append(extras, k)
	}
	sort.Strings(extras)
	if !s.open {
		return nil, fail(value.KeyPath(path, extras[0]), "unexpected field")
	}
	for _, k := range extras {
		out[k] = byKey[k].Native()
	}
	return out, nil
}

func checkMap(s Schema, v value.Value, path string) (any, error) {
	if v.Kind() != value.KindMapping {
		return nil, mismatch(path, KindMap, v)
	}
	if err := checkCount(s, v.Len(), path); err != nil {
		return nil, err
	}
	entries := v.Entries()
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	out := make(map[string]any, len(entries))
	for _, e := range entries {
		n, err := check(*s.elem, e.Value, value.KeyPath(path, e.Key))
		if err != nil {
			return nil, err
		}
		out[e.Key] = n
	}
	return out, nil
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
