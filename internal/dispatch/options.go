package dispatch

import (
	"time"

	"github.com/danmuck/actionwire/internal/protocol/tlv"
	"github.com/rs/zerolog"
)

// DefaultHandlerTimeout bounds handlers that declare no timeout of their own.
const DefaultHandlerTimeout = 10 * time.Second

type Option func(*Dispatcher)

// WithLimits sets decode limits for envelopes and arguments.
func WithLimits(l tlv.Limits) Option {
	return func(d *Dispatcher) { d.limits = l }
}

// WithHandlerTimeout sets the default handler timeout. Zero disables it.
func WithHandlerTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) { d.timeout = timeout }
}

// WithLogger sets the fallback logger for contexts that carry none.
func WithLogger(l zerolog.Logger) Option {
	return func(d *Dispatcher) { d.logger = l }
}

// WithObserver registers fn to receive every completed Record. fn is called
// from request goroutines and must be safe for concurrent use.
func WithObserver(fn func(Record)) Option {
	return func(d *Dispatcher) { d.observe = fn }
}
