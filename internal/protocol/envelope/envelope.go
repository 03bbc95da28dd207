// Package envelope frames protocol values into request and response
// messages.
//
//	request  = u8 version | STRING actionId | SEQUENCE|MAPPING arguments
//	response = u8 version | u8 status | payload
//
// An OK payload is the result value. An ERROR payload is
// MAPPING{kind: STRING, message: STRING}.
package envelope

import (
	"errors"
	"fmt"

	"github.com/danmuck/actionwire/internal/protocol"
	"github.com/danmuck/actionwire/internal/protocol/tlv"
	"github.com/danmuck/actionwire/internal/protocol/value"
)

// FormatVersion is the only wire version this package reads or writes.
const FormatVersion uint8 = 1

// Status is the response outcome byte.
type Status uint8

const (
	StatusOK    Status = 0
	StatusError Status = 1
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusError:
		return "ERROR"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

var ErrArgumentsShape = errors.New("envelope: arguments must be a sequence or mapping")

// Request is one inbound call. RawArguments is undecoded; the dispatcher
// decodes it only after the action id resolves.
type Request struct {
	ActionID     string
	RawArguments []byte
}

// Result is the outcome of one call: a value when Kind is empty, otherwise a
// public error kind and message.
type Result struct {
	Value   value.Value
	Kind    protocol.ErrorKind
	Message string
}

func OK(v value.Value) Result {
	return Result{Value: v}
}

func Failure(kind protocol.ErrorKind, message string) Result {
	return Result{Kind: kind, Message: message}
}

// FailureFrom builds the sanitized wire result for err.
func FailureFrom(err error) Result {
	kind, msg := protocol.PublicMessage(err)
	return Failure(kind, msg)
}

func (r Result) IsOK() bool { return r.Kind == "" }

func (r Result) Status() Status {
	if r.IsOK() {
		return StatusOK
	}
	return StatusError
}

func decodeErr(offset int, reason string, args ...any) error {
	return &protocol.DecodeError{Offset: offset, Reason: fmt.Sprintf(reason, args...)}
}

func checkHeader(b []byte, limits tlv.Limits) error {
	if limits.MaxPayloadBytes > 0 && len(b) > limits.MaxPayloadBytes {
		return decodeErr(0, "payload exceeds %d bytes", limits.MaxPayloadBytes)
	}
	if len(b) == 0 {
		return decodeErr(0, "empty envelope")
	}
	if b[0] != FormatVersion {
		return decodeErr(0, "unsupported format version %d", b[0])
	}
	return nil
}
