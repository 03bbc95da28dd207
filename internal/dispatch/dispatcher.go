package dispatch

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/danmuck/actionwire/internal/actions"
	"github.com/danmuck/actionwire/internal/observability"
	"github.com/danmuck/actionwire/internal/protocol"
	"github.com/danmuck/actionwire/internal/protocol/envelope"
	"github.com/danmuck/actionwire/internal/protocol/schema"
	"github.com/danmuck/actionwire/internal/protocol/tlv"
	"github.com/danmuck/actionwire/internal/protocol/value"
	"github.com/danmuck/actionwire/internal/telemetry"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrAborted       = errors.New("dispatch: request aborted")
	ErrEmptyEnvelope = errors.New("dispatch: envelope too short to read version")
	ErrHandlerPanic  = errors.New("dispatch: handler panicked")
)

const tracerName = "actionwire/dispatch"

// Dispatcher invokes actions from a sealed catalog.
type Dispatcher struct {
	catalog *actions.Catalog
	limits  tlv.Limits
	timeout time.Duration
	logger  zerolog.Logger
	tracer  trace.Tracer
	observe func(Record)
}

func New(catalog *actions.Catalog, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		catalog: catalog,
		limits:  tlv.DefaultLimits(),
		timeout: DefaultHandlerTimeout,
		logger:  log.Logger,
		tracer:  telemetry.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Limits returns the decode limits in effect.
func (d *Dispatcher) Limits() tlv.Limits { return d.limits }

// Catalog returns the action set this dispatcher serves.
func (d *Dispatcher) Catalog() *actions.Catalog { return d.catalog }

// Serve handles one raw request envelope and returns the encoded response.
// A non-nil error means no response must be sent.
func (d *Dispatcher) Serve(ctx context.Context, raw []byte) ([]byte, error) {
	if len(raw) == 0 {
		return nil, ErrEmptyEnvelope
	}
	ctx, rec, span := d.begin(ctx)
	defer span.End()

	var res envelope.Result
	req, err := envelope.ParseRequest(raw, d.limits)
	if err == nil {
		res, err = d.dispatch(ctx, rec, req)
	}
	if err != nil {
		if errors.Is(err, ErrAborted) {
			d.complete(ctx, rec, span, err)
			return nil, err
		}
		res = d.failure(ctx, rec, err)
	}

	out, encErr := envelope.EncodeResponse(res)
	if encErr != nil {
		d.loggerFor(ctx).Error().Err(encErr).Str("invocation", rec.ID).Msg("response encoding failed")
		rec.fail(protocol.KindInternal)
		out, encErr = envelope.EncodeResponse(envelope.Failure(protocol.KindInternal, "internal server error"))
		if encErr != nil {
			d.complete(ctx, rec, span, encErr)
			return nil, encErr
		}
	}
	rec.advance(PhaseEncoded)
	d.complete(ctx, rec, span, nil)
	return out, nil
}

// Dispatch runs a parsed request. The returned Result is ready to encode;
// the error is non-nil only when the request was aborted.
func (d *Dispatcher) Dispatch(ctx context.Context, req envelope.Request) (envelope.Result, error) {
	ctx, rec, span := d.begin(ctx)
	defer span.End()

	res, err := d.dispatch(ctx, rec, req)
	if err != nil {
		if errors.Is(err, ErrAborted) {
			d.complete(ctx, rec, span, err)
			return envelope.Result{}, err
		}
		res = d.failure(ctx, rec, err)
	}
	d.complete(ctx, rec, span, nil)
	return res, nil
}

func (d *Dispatcher) dispatch(ctx context.Context, rec *Record, req envelope.Request) (envelope.Result, error) {
	if err := aborted(ctx); err != nil {
		return envelope.Result{}, err
	}
	desc, ok := d.catalog.Lookup(req.ActionID)
	if !ok {
		return envelope.Result{}, &protocol.UnknownActionError{ActionID: req.ActionID}
	}
	rec.ActionID = desc.ID
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("actionwire.action", desc.ID))

	args, err := envelope.DecodeArguments(req.RawArguments, d.limits)
	if err != nil {
		return envelope.Result{}, err
	}
	rec.advance(PhaseDecoded)

	native, err := schema.Check(desc.Args, args)
	if err != nil {
		return envelope.Result{}, err
	}
	rec.advance(PhaseValidated)

	if err := aborted(ctx); err != nil {
		return envelope.Result{}, err
	}
	out, err := d.invoke(ctx, rec, desc, native)
	rec.advance(PhaseInvoked)
	if err := aborted(ctx); err != nil {
		return envelope.Result{}, err
	}
	if err != nil {
		return envelope.Result{}, &protocol.HandlerError{ActionID: desc.ID, Err: err}
	}

	v, err := value.FromNative(out)
	if err != nil {
		return envelope.Result{}, &protocol.ContractError{ActionID: desc.ID, Err: err}
	}
	if err := schema.Validate(desc.Result, v); err != nil {
		return envelope.Result{}, &protocol.ContractError{ActionID: desc.ID, Err: err}
	}
	return envelope.OK(v), nil
}

type handlerOutcome struct {
	out any
	err error
}

// invoke runs the handler once under the action's timeout. A handler that
// ignores its context is abandoned when the deadline passes.
func (d *Dispatcher) invoke(ctx context.Context, rec *Record, desc actions.Descriptor, args any) (any, error) {
	timeout := desc.Timeout
	if timeout == 0 {
		timeout = d.timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	logger := d.loggerFor(ctx).With().Str("invocation", rec.ID).Str("action", desc.ID).Logger()
	ctx = logger.WithContext(ctx)

	done := make(chan handlerOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error().Str("stack", string(debug.Stack())).Msgf("handler panic: %v", r)
				done <- handlerOutcome{err: fmt.Errorf("%w: %v", ErrHandlerPanic, r)}
			}
		}()
		out, err := desc.Handler(ctx, args)
		done <- handlerOutcome{out: out, err: err}
	}()

	select {
	case o := <-done:
		return o.out, o.err
	case <-ctx.Done():
		logger.Warn().Err(ctx.Err()).Dur("timeout", timeout).Msg("handler abandoned after its context ended")
		return nil, ctx.Err()
	}
}

// failure converts err into its public Result and logs the private detail.
func (d *Dispatcher) failure(ctx context.Context, rec *Record, err error) envelope.Result {
	kind := protocol.KindOf(err)
	rec.fail(kind)

	logger := d.loggerFor(ctx)
	switch kind {
	case protocol.KindInternalContract:
		logger.Error().Err(err).Str("invocation", rec.ID).Str("action", rec.ActionID).
			Msg("action result violates its declared schema")
	case protocol.KindHandler:
		logger.Error().Err(err).Str("invocation", rec.ID).Str("action", rec.ActionID).
			Msg("action handler failed")
	default:
		logger.Debug().Err(err).Str("invocation", rec.ID).Str("kind", string(kind)).
			Msg("request rejected")
	}
	return envelope.FailureFrom(err)
}

func (d *Dispatcher) begin(ctx context.Context) (context.Context, *Record, trace.Span) {
	rec := &Record{ID: uuid.NewString(), Phase: PhaseReceived, Started: time.Now()}
	ctx, span := d.tracer.Start(ctx, "dispatch",
		trace.WithAttributes(attribute.String("actionwire.invocation", rec.ID)),
	)
	return ctx, rec, span
}

func (d *Dispatcher) complete(ctx context.Context, rec *Record, span trace.Span, err error) {
	if err != nil {
		rec.Phase = PhaseFailed
		rec.Aborted = errors.Is(err, ErrAborted)
		span.RecordError(err)
	}
	rec.Duration = time.Since(rec.Started)

	if rec.Kind != "" || err != nil {
		span.SetStatus(codes.Error, rec.Outcome())
	}
	span.SetAttributes(attribute.String("actionwire.outcome", rec.Outcome()))
	observability.RecordDispatch(rec.metricAction(), rec.Outcome(), rec.Duration)

	d.loggerFor(ctx).Debug().
		Str("invocation", rec.ID).
		Str("action", rec.ActionID).
		Str("phase", string(rec.Phase)).
		Str("outcome", rec.Outcome()).
		Dur("duration", rec.Duration).
		Msg("dispatch complete")

	if d.observe != nil {
		d.observe(*rec)
	}
}

func (d *Dispatcher) loggerFor(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &d.logger
}

func aborted(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrAborted, err)
	}
	return nil
}
