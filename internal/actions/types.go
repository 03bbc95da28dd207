package actions

import (
	"context"
	"time"

	"github.com/danmuck/actionwire/internal/protocol/schema"
)

// Handler runs one action. args is the validated native form of the
// arguments; the returned value must convert through value.FromNative and
// satisfy the action's Result schema.
type Handler func(ctx context.Context, args any) (any, error)

// Descriptor is the registration contract for one action.
type Descriptor struct {
	ID          string
	Description string
	Args        schema.Schema
	Result      schema.Schema
	Handler     Handler

	// Timeout bounds one invocation. Zero uses the dispatcher default.
	Timeout time.Duration
}

// Info is the listing view of a registered action.
type Info struct {
	ID          string
	Description string
	Args        schema.Schema
	Result      schema.Schema
}

func (d Descriptor) info() Info {
	return Info{ID: d.ID, Description: d.Description, Args: d.Args, Result: d.Result}
}
