package value

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

var ErrJSONDepth = errors.New("value: json nesting too deep")

// MarshalJSON renders v as JSON, keeping mapping entry order.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.writeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) writeJSON(buf *bytes.Buffer) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindNumber:
		b, err := json.Marshal(v.n)
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindString:
		b, err := json.Marshal(v.s)
		if err != nil {
			return err
		}
		buf.Write(b)
	case KindSequence:
		buf.WriteByte('[')
		for i, it := range v.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := it.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindMapping:
		buf.WriteByte('{')
		for i, e := range v.entries {
			if i > 0 {
				buf.WriteByte(',')
			}
			k, err := json.Marshal(e.Key)
			if err != nil {
				return err
			}
			buf.Write(k)
			buf.WriteByte(':')
			if err := e.Value.writeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("value: unknown kind %d", v.kind)
	}
	return nil
}

// ParseJSON reads exactly one JSON document into a Value. Object key order is
// preserved and duplicate keys are rejected.
func ParseJSON(data []byte, maxDepth int) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := parseJSONValue(dec, 1, maxDepth)
	if err != nil {
		return Value{}, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Value{}, errors.New("value: trailing data after json document")
	}
	return v, nil
}

func parseJSONValue(dec *json.Decoder, depth, maxDepth int) (Value, error) {
	if maxDepth > 0 && depth > maxDepth {
		return Value{}, ErrJSONDepth
	}
	tok, err := dec.Token()
	if err != nil {
		return Value{}, fmt.Errorf("value: read json: %w", err)
	}
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		f, err := strconv.ParseFloat(t.String(), 64)
		if err != nil {
			return Value{}, fmt.Errorf("value: json number %s: %w", t, ErrNonFiniteNumber)
		}
		return NewNumber(f)
	case string:
		return NewString(t)
	case json.Delim:
		switch t {
		case '[':
			items := make([]Value, 0)
			for dec.More() {
				it, err := parseJSONValue(dec, depth+1, maxDepth)
				if err != nil {
					return Value{}, err
				}
				items = append(items, it)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, fmt.Errorf("value: read json: %w", err)
			}
			return Value{kind: KindSequence, items: items}, nil
		case '{':
			entries := make([]Entry, 0)
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, fmt.Errorf("value: read json: %w", err)
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, errors.New("value: json object key is not a string")
				}
				ev, err := parseJSONValue(dec, depth+1, maxDepth)
				if err != nil {
					return Value{}, err
				}
				entries = append(entries, Entry{Key: key, Value: ev})
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, fmt.Errorf("value: read json: %w", err)
			}
			return Mapping(entries...)
		}
	}
	return Value{}, fmt.Errorf("value: unexpected json token %v", tok)
}
