package dispatch

import (
	"time"

	"github.com/danmuck/actionwire/internal/observability"
	"github.com/danmuck/actionwire/internal/protocol"
)

// Phase is the lifecycle position of one request.
type Phase string

const (
	PhaseReceived  Phase = "received"
	PhaseDecoded   Phase = "decoded"
	PhaseValidated Phase = "validated"
	PhaseInvoked   Phase = "invoked"
	PhaseEncoded   Phase = "encoded"
	PhaseFailed    Phase = "failed"
)

const outcomeOK = "ok"
const outcomeAborted = "aborted"

// Record describes one completed request. ActionID is set only when the
// requested id resolved in the catalog.
type Record struct {
	ID       string
	ActionID string
	Phase    Phase
	Kind     protocol.ErrorKind
	Aborted  bool
	Started  time.Time
	Duration time.Duration
}

// Outcome is "ok", "aborted", or the error kind.
func (r Record) Outcome() string {
	switch {
	case r.Aborted:
		return outcomeAborted
	case r.Kind != "":
		return string(r.Kind)
	default:
		return outcomeOK
	}
}

// metricAction never returns a client-chosen string.
func (r Record) metricAction() string {
	if r.ActionID == "" {
		return observability.UnknownAction
	}
	return r.ActionID
}

func (r *Record) advance(p Phase) {
	r.Phase = p
}

func (r *Record) fail(kind protocol.ErrorKind) {
	r.Phase = PhaseFailed
	r.Kind = kind
}
