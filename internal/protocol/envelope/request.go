package envelope

import (
	"bytes"
	"fmt"

	"github.com/danmuck/actionwire/internal/protocol"
	"github.com/danmuck/actionwire/internal/protocol/tlv"
	"github.com/danmuck/actionwire/internal/protocol/value"
)

// EncodeRequest builds a request envelope. args must be a sequence or
// mapping.
func EncodeRequest(actionID string, args value.Value) ([]byte, error) {
	if k := args.Kind(); k != value.KindSequence && k != value.KindMapping {
		return nil, fmt.Errorf("%w: got %s", ErrArgumentsShape, k)
	}
	out := []byte{FormatVersion}
	out, err := tlv.AppendString(out, actionID)
	if err != nil {
		return nil, err
	}
	return tlv.AppendValue(out, args)
}

// ParseRequest splits b into the action id and the undecoded arguments.
// Arguments are copied so the request does not alias b.
func ParseRequest(b []byte, limits tlv.Limits) (Request, error) {
	if err := checkHeader(b, limits); err != nil {
		return Request{}, err
	}
	id, n, err := tlv.DecodePrefix(b[1:], limits)
	if err != nil {
		return Request{}, shift(err, 1)
	}
	actionID, ok := id.AsString()
	if !ok {
		return Request{}, decodeErr(1, "action id must be a string, got %s", id.Kind())
	}
	return Request{
		ActionID:     actionID,
		RawArguments: bytes.Clone(b[1+n:]),
	}, nil
}

// DecodeArguments decodes the arguments of a request. The top-level value
// must be a sequence or mapping and fill raw exactly.
func DecodeArguments(raw []byte, limits tlv.Limits) (value.Value, error) {
	if len(raw) == 0 {
		return value.Value{}, decodeErr(0, "missing arguments")
	}
	if raw[0] != tlv.TagSequence && raw[0] != tlv.TagMapping {
		if !tlv.KnownTag(raw[0]) {
			return value.Value{}, decodeErr(0, "unrecognized tag 0x%02x", raw[0])
		}
		return value.Value{}, decodeErr(0, "arguments must be a sequence or mapping")
	}
	return tlv.Decode(raw, limits)
}

// shift rebases a decode offset from a sub-slice onto the full envelope.
func shift(err error, by int) error {
	if de, ok := err.(*protocol.DecodeError); ok {
		return &protocol.DecodeError{Offset: de.Offset + by, Reason: de.Reason}
	}
	return err
}
