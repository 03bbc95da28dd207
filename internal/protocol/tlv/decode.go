package tlv

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/danmuck/actionwire/internal/protocol"
	"github.com/danmuck/actionwire/internal/protocol/value"
)

// Decode parses exactly one value from b. Trailing bytes are an error.
func Decode(b []byte, limits Limits) (value.Value, error) {
	v, n, err := DecodePrefix(b, limits)
	if err != nil {
		return value.Value{}, err
	}
	if n != len(b) {
		return value.Value{}, &protocol.DecodeError{Offset: n, Reason: "trailing bytes after value"}
	}
	return v, nil
}

// DecodePrefix parses one value from the start of b and reports how many
// bytes it consumed.
func DecodePrefix(b []byte, limits Limits) (value.Value, int, error) {
	limits = limits.normalized()
	if len(b) > limits.MaxPayloadBytes {
		return value.Value{}, 0, &protocol.DecodeError{
			Reason: fmt.Sprintf("payload exceeds %d bytes", limits.MaxPayloadBytes),
		}
	}
	d := decoder{buf: b, limits: limits}
	v, err := d.value(1)
	if err != nil {
		return value.Value{}, 0, err
	}
	return v, d.off, nil
}

type decoder struct {
	buf    []byte
	off    int
	limits Limits
}

func (d *decoder) fail(reason string, args ...any) error {
	return &protocol.DecodeError{Offset: d.off, Reason: fmt.Sprintf(reason, args...)}
}

func (d *decoder) remaining() int {
	return len(d.buf) - d.off
}

func (d *decoder) need(n int) error {
	if d.remaining() < n {
		return d.fail("truncated input: need %d bytes, have %d", n, d.remaining())
	}
	return nil
}

func (d *decoder) u8() (uint8, error) {
	if err := d.need(1); err != nil {
		return 0, err
	}
	b := d.buf[d.off]
	d.off++
	return b, nil
}

func (d *decoder) u32() (uint32, error) {
	if err := d.need(lenPrefixSize); err != nil {
		return 0, err
	}
	n := binary.BigEndian.Uint32(d.buf[d.off : d.off+lenPrefixSize])
	d.off += lenPrefixSize
	return n, nil
}

func (d *decoder) value(depth int) (value.Value, error) {
	if depth > d.limits.MaxDepth {
		return value.Value{}, d.fail("nesting deeper than %d", d.limits.MaxDepth)
	}
	tag, err := d.u8()
	if err != nil {
		return value.Value{}, err
	}
	switch tag {
	case TagNull:
		return value.Null(), nil
	case TagBool:
		return d.boolBody()
	case TagNumber:
		return d.numberBody()
	case TagString:
		s, err := d.stringBody()
		if err != nil {
			return value.Value{}, err
		}
		return value.NewString(s)
	case TagSequence:
		return d.sequenceBody(depth)
	case TagMapping:
		return d.mappingBody(depth)
	default:
		d.off--
		return value.Value{}, d.fail("unrecognized tag 0x%02x", tag)
	}
}

func (d *decoder) boolBody() (value.Value, error) {
	b, err := d.u8()
	if err != nil {
		return value.Value{}, err
	}
	switch b {
	case 0:
		return value.Bool(false), nil
	case 1:
		return value.Bool(true), nil
	default:
		d.off--
		return value.Value{}, d.fail("invalid bool byte 0x%02x", b)
	}
}

func (d *decoder) numberBody() (value.Value, error) {
	if err := d.need(numberSize); err != nil {
		return value.Value{}, err
	}
	bits := binary.BigEndian.Uint64(d.buf[d.off : d.off+numberSize])
	f := math.Float64frombits(bits)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return value.Value{}, d.fail("non-finite number")
	}
	d.off += numberSize
	return value.NewNumber(f)
}

func (d *decoder) stringBody() (string, error) {
	n, err := d.u32()
	if err != nil {
		return "", err
	}
	if uint64(n) > uint64(d.remaining()) {
		return "", d.fail("truncated input: string length %d exceeds remaining %d", n, d.remaining())
	}
	raw := d.buf[d.off : d.off+int(n)]
	if !utf8.Valid(raw) {
		return "", d.fail("string is not valid utf-8")
	}
	d.off += int(n)
	// string conversion copies; nothing aliases the input buffer
	return string(raw), nil
}

func (d *decoder) count(minElem int) (int, error) {
	n, err := d.u32()
	if err != nil {
		return 0, err
	}
	if uint64(n)*uint64(minElem) > uint64(d.remaining()) {
		return 0, d.fail("element count %d exceeds remaining input", n)
	}
	return int(n), nil
}

func (d *decoder) sequenceBody(depth int) (value.Value, error) {
	n, err := d.count(minValueSize)
	if err != nil {
		return value.Value{}, err
	}
	items := make([]value.Value, 0, n)
	for i := 0; i < n; i++ {
		it, err := d.value(depth + 1)
		if err != nil {
			return value.Value{}, err
		}
		items = append(items, it)
	}
	return value.Sequence(items...), nil
}

func (d *decoder) mappingBody(depth int) (value.Value, error) {
	n, err := d.count(minEntrySize)
	if err != nil {
		return value.Value{}, err
	}
	entries := make([]value.Entry, 0, n)
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		keyOff := d.off
		tag, err := d.u8()
		if err != nil {
			return value.Value{}, err
		}
		if tag != TagString {
			d.off = keyOff
			return value.Value{}, d.fail("mapping key must be STRING, got tag 0x%02x", tag)
		}
		key, err := d.stringBody()
		if err != nil {
			return value.Value{}, err
		}
		if _, dup := seen[key]; dup {
			d.off = keyOff
			return value.Value{}, d.fail("duplicate mapping key")
		}
		seen[key] = struct{}{}
		v, err := d.value(depth + 1)
		if err != nil {
			return value.Value{}, err
		}
		entries = append(entries, value.Entry{Key: key, Value: v})
	}
	return value.Mapping(entries...)
}
