package value

import (
	"fmt"
	"sort"
)

// MaxNativeDepth bounds FromNative so cyclic maps or slices fail instead of
// recursing forever.
const MaxNativeDepth = 64

// Native returns the generic Go form of v: nil, bool, float64, string,
// []any, or map[string]any. The result shares nothing with v.
func (v Value) Native() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.n
	case KindString:
		return v.s
	case KindSequence:
		out := make([]any, len(v.items))
		for i, it := range v.items {
			out[i] = it.Native()
		}
		return out
	case KindMapping:
		out := make(map[string]any, len(v.entries))
		for _, e := range v.entries {
			out[e.Key] = e.Value.Native()
		}
		return out
	default:
		return nil
	}
}

// FromNative converts a handler result into a Value. Only the closed native
// set is accepted; structs, pointers, funcs, and channels are rejected.
// Go maps become mappings with sorted keys.
func FromNative(in any) (Value, error) {
	return fromNative(in, 0)
}

func fromNative(in any, depth int) (Value, error) {
	if depth > MaxNativeDepth {
		return Value{}, fmt.Errorf("%w: nesting deeper than %d", ErrUnsupportedValue, MaxNativeDepth)
	}
	switch x := in.(type) {
	case nil:
		return Null(), nil
	case Value:
		return x, nil
	case bool:
		return Bool(x), nil
	case string:
		return NewString(x)
	case float64:
		return NewNumber(x)
	case float32:
		return NewNumber(float64(x))
	case int:
		return NewNumber(float64(x))
	case int8:
		return NewNumber(float64(x))
	case int16:
		return NewNumber(float64(x))
	case int32:
		return NewNumber(float64(x))
	case int64:
		return NewNumber(float64(x))
	case uint:
		return NewNumber(float64(x))
	case uint8:
		return NewNumber(float64(x))
	case uint16:
		return NewNumber(float64(x))
	case uint32:
		return NewNumber(float64(x))
	case uint64:
		return NewNumber(float64(x))
	case []string:
		items := make([]Value, 0, len(x))
		for _, s := range x {
			sv, err := NewString(s)
			if err != nil {
				return Value{}, err
			}
			items = append(items, sv)
		}
		return Value{kind: KindSequence, items: items}, nil
	case []any:
		items := make([]Value, 0, len(x))
		for _, it := range x {
			iv, err := fromNative(it, depth+1)
			if err != nil {
				return Value{}, err
			}
			items = append(items, iv)
		}
		return Value{kind: KindSequence, items: items}, nil
	case []Value:
		return Sequence(x...), nil
	case map[string]string:
		keys := sortedKeys(x)
		entries := make([]Entry, 0, len(keys))
		for _, k := range keys {
			sv, err := NewString(x[k])
			if err != nil {
				return Value{}, err
			}
			entries = append(entries, Entry{Key: k, Value: sv})
		}
		return Mapping(entries...)
	case map[string]any:
		keys := sortedKeys(x)
		entries := make([]Entry, 0, len(keys))
		for _, k := range keys {
			ev, err := fromNative(x[k], depth+1)
			if err != nil {
				return Value{}, err
			}
			entries = append(entries, Entry{Key: k, Value: ev})
		}
		return Mapping(entries...)
	default:
		return Value{}, fmt.Errorf("%w: %T", ErrUnsupportedValue, in)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
