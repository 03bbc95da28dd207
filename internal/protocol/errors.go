package protocol

import (
	"errors"
	"fmt"
)

// ErrorKind is the wire-visible error classification.
type ErrorKind string

const (
	KindDecode           ErrorKind = "DecodeError"
	KindUnknownAction    ErrorKind = "UnknownActionError"
	KindValidation       ErrorKind = "ValidationError"
	KindDuplicateAction  ErrorKind = "DuplicateActionError"
	KindRegistrySealed   ErrorKind = "RegistrySealedError"
	KindHandler          ErrorKind = "HandlerError"
	KindInternalContract ErrorKind = "InternalContractError"

	// KindInternal is what clients see in place of KindInternalContract.
	KindInternal ErrorKind = "InternalError"
)

var (
	ErrDecode           = errors.New("protocol: decode failed")
	ErrUnknownAction    = errors.New("protocol: unknown action")
	ErrValidation       = errors.New("protocol: validation failed")
	ErrDuplicateAction  = errors.New("protocol: action already registered")
	ErrRegistrySealed   = errors.New("protocol: registry sealed")
	ErrHandler          = errors.New("protocol: handler failed")
	ErrInternalContract = errors.New("protocol: result violates declared schema")
)

const maxPathLen = 256

// DecodeError reports malformed wire input. Reason never contains payload bytes.
type DecodeError struct {
	Offset int
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("protocol: decode failed at offset %d: %s", e.Offset, e.Reason)
}

func (e *DecodeError) Unwrap() error { return ErrDecode }

// ValidationError names the first path at which a value diverged from its schema.
type ValidationError struct {
	Path   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("protocol: validation failed at %s: %s", e.Path, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// UnknownActionError is returned when an action id is not in the catalog.
type UnknownActionError struct {
	ActionID string
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("protocol: unknown action %q", e.ActionID)
}

func (e *UnknownActionError) Unwrap() error { return ErrUnknownAction }

// HandlerError wraps a failure raised by a registered handler.
type HandlerError struct {
	ActionID string
	Err      error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("protocol: action %q failed: %v", e.ActionID, e.Err)
}

func (e *HandlerError) Is(target error) bool { return target == ErrHandler }

func (e *HandlerError) Unwrap() error { return e.Err }

// ContractError reports a handler result that does not match the action's
// declared result schema.
type ContractError struct {
	ActionID string
	Err      error
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("protocol: action %q returned invalid result: %v", e.ActionID, e.Err)
}

func (e *ContractError) Is(target error) bool { return target == ErrInternalContract }

func (e *ContractError) Unwrap() error { return e.Err }

// KindOf classifies err. Unclassified errors are treated as handler failures.
func KindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrInternalContract):
		return KindInternalContract
	case errors.Is(err, ErrHandler):
		return KindHandler
	case errors.Is(err, ErrUnknownAction):
		return KindUnknownAction
	case errors.Is(err, ErrDecode):
		return KindDecode
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrDuplicateAction):
		return KindDuplicateAction
	case errors.Is(err, ErrRegistrySealed):
		return KindRegistrySealed
	default:
		return KindHandler
	}
}

// PublicMessage returns the kind and message that may be placed on the wire
// for err. Handler and contract detail stays server-side.
func PublicMessage(err error) (ErrorKind, string) {
	switch kind := KindOf(err); kind {
	case KindDecode:
		var de *DecodeError
		if errors.As(err, &de) {
			return kind, "malformed payload: " + de.Reason
		}
		return kind, "malformed payload"
	case KindUnknownAction:
		return kind, "unknown action"
	case KindValidation:
		var ve *ValidationError
		if errors.As(err, &ve) {
			return kind, truncatePath(ve.Path) + ": " + ve.Reason
		}
		return kind, "invalid arguments"
	case KindInternalContract:
		return KindInternal, "internal server error"
	case KindDuplicateAction, KindRegistrySealed:
		return KindInternal, "internal server error"
	default:
		return KindHandler, "action failed"
	}
}

func truncatePath(path string) string {
	if len(path) <= maxPathLen {
		return path
	}
	return path[:maxPathLen] + "..."
}
