package envelope

import (
	"fmt"

	"github.com/danmuck/actionwire/internal/protocol"
	"github.com/danmuck/actionwire/internal/protocol/tlv"
	"github.com/danmuck/actionwire/internal/protocol/value"
)

const (
	errorKindKey    = "kind"
	errorMessageKey = "message"
)

// EncodeResponse builds a response envelope for r.
func EncodeResponse(r Result) ([]byte, error) {
	out := []byte{FormatVersion, byte(r.Status())}
	if r.IsOK() {
		return tlv.AppendValue(out, r.Value)
	}
	payload, err := value.Mapping(
		value.E(errorKindKey, value.String(string(r.Kind))),
		value.E(errorMessageKey, value.String(r.Message)),
	)
	if err != nil {
		return nil, err
	}
	return tlv.AppendValue(out, payload)
}

// ParseResponse reads a response envelope. It is the client half of
// EncodeResponse.
func ParseResponse(b []byte, limits tlv.Limits) (Result, error) {
	if err := checkHeader(b, limits); err != nil {
		return Result{}, err
	}
	if len(b) < 2 {
		return Result{}, decodeErr(1, "missing status")
	}
	status := Status(b[1])
	payload, err := tlv.Decode(b[2:], limits)
	if err != nil {
		return Result{}, shift(err, 2)
	}
	switch status {
	case StatusOK:
		return OK(payload), nil
	case StatusError:
		return parseFailure(payload)
	default:
		return Result{}, decodeErr(1, "unknown status %d", uint8(status))
	}
}

func parseFailure(payload value.Value) (Result, error) {
	if payload.Kind() != value.KindMapping || payload.Len() != 2 {
		return Result{}, decodeErr(2, "error payload must be {kind, message}")
	}
	kind, okKind := stringField(payload, errorKindKey)
	msg, okMsg := stringField(payload, errorMessageKey)
	if !okKind || !okMsg || kind == "" {
		return Result{}, decodeErr(2, "error payload must be {kind, message}")
	}
	return Failure(protocol.ErrorKind(kind), msg), nil
}

func stringField(v value.Value, key string) (string, bool) {
	f, ok := v.Get(key)
	if !ok {
		return "", false
	}
	return f.AsString()
}

// Err converts a failed result into an error for client callers.
func (r Result) Err() error {
	if r.IsOK() {
		return nil
	}
	return &RemoteError{Kind: r.Kind, Message: r.Message}
}

// RemoteError is a failure reported by the peer.
type RemoteError struct {
	Kind    protocol.ErrorKind
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}
