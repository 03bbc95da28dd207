// Package actions holds the closed set of invocable actions.
//
// Registration happens in two phases. A Registry accepts descriptors at
// startup; Seal freezes it into a Catalog, which is the only thing the
// dispatcher can see. Nothing reachable from a request can add an action.
package actions

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/danmuck/actionwire/internal/protocol"
	"github.com/rs/zerolog/log"
)

var (
	ErrDuplicateAction   = protocol.ErrDuplicateAction
	ErrRegistrySealed    = protocol.ErrRegistrySealed
	ErrInvalidDescriptor = errors.New("actions: invalid descriptor")
)

// Registry collects descriptors until Seal is called.
type Registry struct {
	mu      sync.Mutex
	items   map[string]Descriptor
	catalog *Catalog
}

// NewRegistry creates an empty, open registry.
func NewRegistry() *Registry {
	return &Registry{items: make(map[string]Descriptor)}
}

// ValidateDescriptor checks the id format, handler presence and that both
// schemas were set. Use schema.Any() to accept every shape explicitly.
func ValidateDescriptor(d Descriptor) error {
	if strings.TrimSpace(d.ID) != d.ID || !isValidID(d.ID) {
		return fmt.Errorf("%w: invalid id format %q", ErrInvalidDescriptor, d.ID)
	}
	if d.Handler == nil {
		return fmt.Errorf("%w: action %q has no handler", ErrInvalidDescriptor, d.ID)
	}
	if !d.Args.IsSet() {
		return fmt.Errorf("%w: action %q has no argument schema", ErrInvalidDescriptor, d.ID)
	}
	if !d.Result.IsSet() {
		return fmt.Errorf("%w: action %q has no result schema", ErrInvalidDescriptor, d.ID)
	}
	if d.Timeout < 0 {
		return fmt.Errorf("%w: action %q has negative timeout", ErrInvalidDescriptor, d.ID)
	}
	return nil
}

// Register adds an action. It fails once the registry is sealed.
func (r *Registry) Register(d Descriptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.catalog != nil {
		return fmt.Errorf("%w: cannot register %q", ErrRegistrySealed, d.ID)
	}
	if err := ValidateDescriptor(d); err != nil {
		return err
	}
	if _, ok := r.items[d.ID]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateAction, d.ID)
	}
	r.items[d.ID] = d
	log.Debug().Str("action", d.ID).Msg("action registered")
	return nil
}

// MustRegister panics on registration failure. For startup wiring only.
func (r *Registry) MustRegister(d Descriptor) {
	if err := r.Register(d); err != nil {
		panic(err)
	}
}

// Seal freezes the registry. It is idempotent: later calls return the same
// Catalog.
func (r *Registry) Seal() *Catalog {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.catalog != nil {
		return r.catalog
	}
	items := make(map[string]Descriptor, len(r.items))
	ids := make([]string, 0, len(r.items))
	for id, d := range r.items {
		items[id] = d
		ids = append(ids, id)
	}
	sort.Strings(ids)
	r.catalog = &Catalog{items: items, ids: ids}
	r.items = nil
	log.Info().Int("actions", len(ids)).Msg("action registry sealed")
	return r.catalog
}

// Sealed reports whether Seal has been called.
func (r *Registry) Sealed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.catalog != nil
}

// Catalog is the sealed, read-only action set. Lookups take no locks.
type Catalog struct {
	items map[string]Descriptor
	ids   []string
}

// Lookup returns the descriptor registered under id.
func (c *Catalog) Lookup(id string) (Descriptor, bool) {
	if c == nil {
		return Descriptor{}, false
	}
	d, ok := c.items[id]
	return d, ok
}

// Has reports whether id is registered.
func (c *Catalog) Has(id string) bool {
	_, ok := c.Lookup(id)
	return ok
}

// Len returns the number of registered actions.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.ids)
}

// List returns action listings ordered by id.
func (c *Catalog) List() []Info {
	if c == nil {
		return nil
	}
	out := make([]Info, 0, len(c.ids))
	for _, id := range c.ids {
		out = append(out, c.items[id].info())
	}
	return out
}

// isValidID accepts [A-Za-z0-9] runs joined by single '.', '-' or '_'.
func isValidID(id string) bool {
	if id == "" {
		return false
	}
	lastSep := false
	for i := 0; i < len(id); i++ {
		c := id[i]
		isAlpha := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		isDigit := c >= '0' && c <= '9'
		isSep := c == '.' || c == '-' || c == '_'
		if !(isAlpha || isDigit || isSep) {
			return false
		}
		if (i == 0 || i == len(id)-1) && isSep {
			return false
		}
		if isSep && lastSep {
			return false
		}
		lastSep = isSep
	}
	return true
}
