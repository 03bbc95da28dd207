package actions

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/danmuck/actionwire/internal/protocol"
	"github.com/danmuck/actionwire/internal/protocol/schema"
	"github.com/danmuck/actionwire/internal/testutil/testlog"
)

func descriptor(id string) Descriptor {
	return Descriptor{
		ID:          id,
		Description: "test action " + id,
		Args:        schema.Record(),
		Result:      schema.Null(),
		Handler:     func(context.Context, any) (any, error) { return nil, nil },
	}
}

func TestRegisterLookupAndDuplicate(t *testing.T) {
	testlog.Start(t)
	r := NewRegistry()
	if err := r.Register(descriptor("echo")); err != nil {
		t.Fatalf("register: %v", err)
	}
	err := r.Register(descriptor("echo"))
	if !errors.Is(err, ErrDuplicateAction) {
		t.Fatalf("expected ErrDuplicateAction, got %v", err)
	}
	if protocol.KindOf(err) != protocol.KindDuplicateAction {
		t.Fatalf("unexpected kind: %s", protocol.KindOf(err))
	}
	c := r.Seal()
	got, ok := c.Lookup("echo")
	if !ok || got.ID != "echo" {
		t.Fatalf("lookup failed: ok=%v id=%q", ok, got.ID)
	}
}

func TestLookupMissingAction(t *testing.T) {
	testlog.Start(t)
	c := NewRegistry().Seal()
	if _, ok := c.Lookup("missing"); ok {
		t.Fatalf("expected missing action to return ok=false")
	}
	if c.Has("") {
		t.Fatalf("empty id must never resolve")
	}
}

func TestRegisterAfterSealLeavesCatalogUnchanged(t *testing.T) {
	testlog.Start(t)
	r := NewRegistry()
	if err := r.Register(descriptor("a")); err != nil {
		t.Fatalf("register: %v", err)
	}
	c := r.Seal()
	err := r.Register(descriptor("b"))
	if !errors.Is(err, ErrRegistrySealed) {
		t.Fatalf("expected ErrRegistrySealed, got %v", err)
	}
	if protocol.KindOf(err) != protocol.KindRegistrySealed {
		t.Fatalf("unexpected kind: %s", protocol.KindOf(err))
	}
	if c.Has("b") || c.Len() != 1 {
		t.Fatalf("catalog changed after seal: len=%d", c.Len())
	}
	if again := r.Seal(); again != c {
		t.Fatalf("Seal must be idempotent")
	}
	if !r.Sealed() {
		t.Fatalf("registry must report sealed")
	}
}

func TestListSortedByID(t *testing.T) {
	testlog.Start(t)
	r := NewRegistry()
	for _, id := range []string{"kv.put", "echo", "math.add"} {
		r.MustRegister(descriptor(id))
	}
	list := r.Seal().List()
	ids := make([]string, 0, len(list))
	for _, info := range list {
		ids = append(ids, info.ID)
	}
	want := []string{"echo", "kv.put", "math.add"}
	if !reflect.DeepEqual(ids, want) {
		t.Fatalf("unexpected order: got=%v want=%v", ids, want)
	}
}

func TestValidateDescriptor(t *testing.T) {
	testlog.Start(t)
	valid := []string{"echo", "form.submit", "kv-store_v2", "Form.Submit", "a1"}
	for _, id := range valid {
		if err := ValidateDescriptor(descriptor(id)); err != nil {
			t.Fatalf("expected valid id %q: %v", id, err)
		}
	}
	invalid := []string{"", " echo", ".echo", "echo.", "a..b", "a.-b", "a b", "__proto__", "constructor()", "é"}
	for _, id := range invalid {
		if err := ValidateDescriptor(descriptor(id)); !errors.Is(err, ErrInvalidDescriptor) {
			t.Fatalf("expected invalid id %q, got %v", id, err)
		}
	}

	d := descriptor("echo")
	d.Handler = nil
	if err := ValidateDescriptor(d); !errors.Is(err, ErrInvalidDescriptor) {
		t.Fatalf("expected ErrInvalidDescriptor for nil handler, got %v", err)
	}
	d = descriptor("echo")
	d.Timeout = -1
	if err := ValidateDescriptor(d); !errors.Is(err, ErrInvalidDescriptor) {
		t.Fatalf("expected ErrInvalidDescriptor for negative timeout, got %v", err)
	}
}

func TestRegisterRejectsMissingSchemas(t *testing.T) {
	testlog.Start(t)
	r := NewRegistry()
	handler := func(_ context.Context, args any) (any, error) { return map[string]any{"leak": args}, nil }

	cases := map[string]Descriptor{
		"noschema": {ID: "noschema", Handler: handler},
		"noargs":   {ID: "noargs", Result: schema.Any(), Handler: handler},
		"noresult": {ID: "noresult", Args: schema.Record(), Handler: handler},
	}
	for id, d := range cases {
		if err := r.Register(d); !errors.Is(err, ErrInvalidDescriptor) {
			t.Fatalf("%s: expected ErrInvalidDescriptor, got %v", id, err)
		}
	}

	explicit := Descriptor{ID: "passthrough", Args: schema.Any(), Result: schema.Any(), Handler: handler}
	if err := r.Register(explicit); err != nil {
		t.Fatalf("explicit Any schemas must register: %v", err)
	}
	c := r.Seal()
	if c.Len() != 1 || c.Has("noschema") {
		t.Fatalf("unexpected catalog: %+v", c.List())
	}
}

func TestMustRegisterPanicsOnDuplicate(t *testing.T) {
	testlog.Start(t)
	r := NewRegistry()
	r.MustRegister(descriptor("echo"))
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	r.MustRegister(descriptor("echo"))
}
