package value

import (
	"errors"
	"strconv"
)

// Root is the path of the outermost value.
const Root = "$"

// SkipChildren may be returned by a WalkFunc to skip a container's elements.
var SkipChildren = errors.New("value: skip children")

// WalkFunc is called for every node in pre-order.
type WalkFunc func(path string, v Value) error

// Walk visits v and its descendants depth-first, left to right.
func Walk(v Value, fn WalkFunc) error {
	return walk(Root, v, fn)
}

func walk(path string, v Value, fn WalkFunc) error {
	if err := fn(path, v); err != nil {
		if errors.Is(err, SkipChildren) {
			return nil
		}
		return err
	}
	switch v.kind {
	case KindSequence:
		for i, it := range v.items {
			if err := walk(IndexPath(path, i), it, fn); err != nil {
				return err
			}
		}
	case KindMapping:
		for _, e := range v.entries {
			if err := walk(KeyPath(path, e.Key), e.Value, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

// KeyPath appends a mapping key to path: $.name or $["not an ident"].
func KeyPath(path, key string) string {
	if isIdent(key) {
		return path + "." + key
	}
	return path + "[" + strconv.QuoteToASCII(key) + "]"
}

// IndexPath appends a sequence index to path: $[3].
func IndexPath(path string, i int) string {
	return path + "[" + strconv.Itoa(i) + "]"
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		letter := c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		digit := c >= '0' && c <= '9'
		if !letter && !(digit && i > 0) {
			return false
		}
	}
	return true
}
