// Package demo registers the example actions served by actiond.
package demo

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/danmuck/actionwire/internal/actions"
	"github.com/danmuck/actionwire/internal/protocol/schema"
	"github.com/rs/zerolog/log"
)

const (
	EchoID       = "echo"
	FormSubmitID = "form.submit"
	MathAddID    = "math.add"

	// MaxFormData bounds form.submit data in runes.
	MaxFormData = 4096

	formSubmitted = "Action executed"
)

var ErrArgument = errors.New("demo: unexpected argument shape")

// RegisterAll adds every demo action to reg, with a fresh kv store.
func RegisterAll(reg *actions.Registry) error {
	descs := []actions.Descriptor{Echo(), FormSubmit(), MathAdd()}
	descs = append(descs, NewStore(DefaultMaxEntries).Descriptors()...)
	for _, d := range descs {
		if err := reg.Register(d); err != nil {
			return err
		}
	}
	return nil
}

// Echo returns its arguments unchanged.
func Echo() actions.Descriptor {
	shape := schema.Record(schema.Required("msg", schema.String()))
	return actions.Descriptor{
		ID:          EchoID,
		Description: "returns the message it was sent",
		Args:        shape,
		Result:      shape,
		Handler: func(_ context.Context, args any) (any, error) {
			msg, err := stringArg(args, "msg")
			if err != nil {
				return nil, err
			}
			return map[string]any{"msg": msg}, nil
		},
	}
}

// FormSubmit accepts a bounded form field. Only the data length is logged.
func FormSubmit() actions.Descriptor {
	return actions.Descriptor{
		ID:          FormSubmitID,
		Description: "accepts one form field and acknowledges it",
		Args: schema.Record(
			schema.Required("data", schema.String().MaxLen(MaxFormData).Describe("form field contents")),
		),
		Result: schema.String(),
		Handler: func(ctx context.Context, args any) (any, error) {
			data, err := stringArg(args, "data")
			if err != nil {
				return nil, err
			}
			log.Ctx(ctx).Info().Str("action", FormSubmitID).Int("data_len", len(data)).Msg("action executed")
			return formSubmitted, nil
		},
	}
}

// MathAdd sums two numbers given positionally.
func MathAdd() actions.Descriptor {
	return actions.Descriptor{
		ID:          MathAddID,
		Description: "adds two numbers",
		Args:        schema.FixedSequence(schema.Number(), schema.Number()),
		Result:      schema.Number(),
		Handler: func(_ context.Context, args any) (any, error) {
			pair, ok := args.([]any)
			if !ok || len(pair) != 2 {
				return nil, ErrArgument
			}
			a, okA := pair[0].(float64)
			b, okB := pair[1].(float64)
			if !okA || !okB {
				return nil, ErrArgument
			}
			sum := a + b
			if math.IsInf(sum, 0) {
				return nil, errors.New("demo: sum overflows")
			}
			return sum, nil
		},
	}
}

func stringArg(args any, key string) (string, error) {
	m, ok := args.(map[string]any)
	if !ok {
		return "", ErrArgument
	}
	s, ok := m[key].(string)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrArgument, key)
	}
	return s, nil
}

func optionalStringArg(args any, key string) (string, error) {
	m, ok := args.(map[string]any)
	if !ok {
		return "", ErrArgument
	}
	raw, present := m[key]
	if !present {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrArgument, key)
	}
	return s, nil
}
