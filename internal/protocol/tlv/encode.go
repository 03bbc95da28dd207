package tlv

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/danmuck/actionwire/internal/protocol/value"
)

var ErrValueTooLarge = errors.New("tlv: value too large")

// Encode serializes v. Decode(Encode(v)) == v for every Value.
func Encode(v value.Value) ([]byte, error) {
	return AppendValue(nil, v)
}

// AppendValue appends the encoding of v to dst.
func AppendValue(dst []byte, v value.Value) ([]byte, error) {
	switch v.Kind() {
	case value.KindNull:
		return append(dst, TagNull), nil
	case value.KindBool:
		b, _ := v.AsBool()
		if b {
			return append(dst, TagBool, 1), nil
		}
		return append(dst, TagBool, 0), nil
	case value.KindNumber:
		n, _ := v.AsNumber()
		dst = append(dst, TagNumber)
		return binary.BigEndian.AppendUint64(dst, math.Float64bits(n)), nil
	case value.KindString:
		s, _ := v.AsString()
		return AppendString(dst, s)
	case value.KindSequence:
		items := v.Items()
		if uint64(len(items)) > math.MaxUint32 {
			return nil, ErrValueTooLarge
		}
		dst = append(dst, TagSequence)
		dst = binary.BigEndian.AppendUint32(dst, uint32(len(items)))
		var err error
		for _, it := range items {
			if dst, err = AppendValue(dst, it); err != nil {
				return nil, err
			}
		}
		return dst, nil
	case value.KindMapping:
		entries := v.Entries()
		if uint64(len(entries)) > math.MaxUint32 {
			return nil, ErrValueTooLarge
		}
		dst = append(dst, TagMapping)
		dst = binary.BigEndian.AppendUint32(dst, uint32(len(entries)))
		var err error
		for _, e := range entries {
			if dst, err = AppendString(dst, e.Key); err != nil {
				return nil, err
			}
			if dst, err = AppendValue(dst, e.Value); err != nil {
				return nil, err
			}
		}
		return dst, nil
	default:
		return nil, fmt.Errorf("tlv: unknown value kind %s", v.Kind())
	}
}

// AppendString appends a STRING-tagged value.
func AppendString(dst []byte, s string) ([]byte, error) {
	if uint64(len(s)) > math.MaxUint32 {
		return nil, ErrValueTooLarge
	}
	dst = append(dst, TagString)
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(s)))
	return append(dst, s...), nil
}
