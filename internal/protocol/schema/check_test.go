package schema

import (
	"errors"
	"reflect"
	"testing"

	"github.com/danmuck/actionwire/internal/protocol"
	"github.com/danmuck/actionwire/internal/protocol/value"
	"github.com/danmuck/actionwire/internal/testutil/testlog"
)

var echoArgs = Record(Required("msg", String()))

func TestCheckEchoRecord(t *testing.T) {
	testlog.Start(t)
	native, err := Check(echoArgs, value.MustMapping(value.E("msg", value.String("hi"))))
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	want := map[string]any{"msg": "hi"}
	if !reflect.DeepEqual(native, want) {
		t.Fatalf("unexpected native: %#v", native)
	}
}

func TestCheckClosedRecordRejectsExtraField(t *testing.T) {
	testlog.Start(t)
	v := value.MustMapping(value.E("msg", value.String("hi")), value.E("extra", value.String("x")))
	_, err := Check(echoArgs, v)
	expectViolation(t, err, "$.extra", "unexpected field")
}

func TestCheckOpenRecordAcceptsExtraField(t *testing.T) {
	testlog.Start(t)
	v := value.MustMapping(value.E("msg", value.String("hi")), value.E("extra", value.String("x")))
	native, err := Check(echoArgs.Open(), v)
	if err != nil {
		t.Fatalf("open record: %v", err)
	}
	want := map[string]any{"msg": "hi", "extra": "x"}
	if !reflect.DeepEqual(native, want) {
		t.Fatalf("unexpected native: %#v", native)
	}
	if echoArgs.IsOpen() {
		t.Fatalf("Open must not modify the original schema")
	}
}

func TestCheckReportedPathIgnoresPayloadOrder(t *testing.T) {
	testlog.Start(t)
	s := Record(Required("a", Integer()), Required("b", String()))
	first := value.MustMapping(
		value.E("zz", value.Null()),
		value.E("b", value.Number(1)),
		value.E("a", value.String("x")),
		value.E("yy", value.Null()),
	)
	second := value.MustMapping(
		value.E("a", value.String("x")),
		value.E("yy", value.Null()),
		value.E("b", value.Number(1)),
		value.E("zz", value.Null()),
	)
	_, err1 := Check(s, first)
	_, err2 := Check(s, second)
	expectViolation(t, err1, "$.a", "expected number, got string")
	expectViolation(t, err2, "$.a", "expected number, got string")

	// declared fields win over extras; extras are reported sorted
	ok := value.MustMapping(
		value.E("zz", value.Null()),
		value.E("b", value.String("y")),
		value.E("a", value.Number(1)),
		value.E("yy", value.Null()),
	)
	_, err := Check(s, ok)
	expectViolation(t, err, "$.yy", "unexpected field")
}

func TestCheckMissingRequiredDeterministic(t *testing.T) {
	testlog.Start(t)
	s := Record(Required("a", String()), Optional("b", String()), Required("c", String()))
	_, err := Check(s, value.MustMapping())
	expectViolation(t, err, "$.a", "missing required field")

	native, err := Check(s, value.MustMapping(value.E("a", value.String("1")), value.E("c", value.String("3"))))
	if err != nil {
		t.Fatalf("optional absent: %v", err)
	}
	if _, ok := native.(map[string]any)["b"]; ok {
		t.Fatalf("absent optional field must not appear in native args")
	}
}

func TestCheckNestedPaths(t *testing.T) {
	testlog.Start(t)
	s := Record(Required("items", List(Record(Required("name", String().MinLen(1))))))
	v := value.MustMapping(value.E("items", value.Sequence(
		value.MustMapping(value.E("name", value.String("ok"))),
		value.MustMapping(value.E("name", value.String(""))),
	)))
	_, err := Check(s, v)
	expectViolation(t, err, "$.items[1].name", "length must be at least 1")
}

func TestCheckConstraints(t *testing.T) {
	testlog.Start(t)
	cases := []struct {
		name   string
		schema Schema
		in     value.Value
		reason string
	}{
		{"min", Number().Min(0), value.Number(-1), "must be at least 0"},
		{"max", Number().Max(10), value.Number(10.5), "must be at most 10"},
		{"integer", Integer(), value.Number(1.5), "expected integer"},
		{"integer range", Integer(), value.Number(1e300), "expected integer"},
		{"max len runes", String().MaxLen(2), value.String("héé"), "length must be at most 2"},
		{"pattern", String().Pattern(`^[a-z]+$`), value.String("ABC"), "does not match pattern ^[a-z]+$"},
		{"one of", String().OneOf("a", "b"), value.String("c"), "must be one of [a b]"},
		{"min items", List(Any()).MinItems(1), value.Sequence(), "must have at least 1 elements"},
		{"max items", List(Any()).MaxItems(1), value.Sequence(value.Null(), value.Null()), "must have at most 1 elements"},
		{"null", Null(), value.Bool(false), "expected null, got bool"},
		{"bool", Bool(), value.Null(), "expected bool, got null"},
		{"any of", AnyOf(Null(), Bool()), value.Number(1), "value matches none of 2 alternatives"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Check(tc.schema, tc.in)
			expectViolation(t, err, "$", tc.reason)
		})
	}
}

func TestCheckNativeForms(t *testing.T) {
	testlog.Start(t)
	s := Record(
		Required("n", Integer()),
		Required("f", Number()),
		Required("pair", FixedSequence(String(), Bool())),
		Required("tags", MapOf(String())),
		Required("maybe", Nullable(String())),
		Required("blob", Any()),
	)
	v := value.MustMapping(
		value.E("n", value.Number(3)),
		value.E("f", value.Number(0.5)),
		value.E("pair", value.Sequence(value.String("x"), value.Bool(true))),
		value.E("tags", value.MustMapping(value.E("k", value.String("v")))),
		value.E("maybe", value.Null()),
		value.E("blob", value.Sequence(value.Number(1))),
	)
	native, err := Check(s, v)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	want := map[string]any{
		"n":     int64(3),
		"f":     0.5,
		"pair":  []any{"x", true},
		"tags":  map[string]any{"k": "v"},
		"maybe": nil,
		"blob":  []any{1.0},
	}
	if !reflect.DeepEqual(native, want) {
		t.Fatalf("unexpected native:\n got=%#v\nwant=%#v", native, want)
	}
}

func TestCheckFixedSequenceArity(t *testing.T) {
	testlog.Start(t)
	s := FixedSequence(Number(), Number())
	_, err := Check(s, value.Sequence(value.Number(1)))
	expectViolation(t, err, "$[1]", "missing element")
	_, err = Check(s, value.Sequence(value.Number(1), value.Number(2), value.Number(3)))
	expectViolation(t, err, "$[2]", "unexpected element")
}

func TestCheckMapKeysQuotedInPath(t *testing.T) {
	testlog.Start(t)
	_, err := Check(MapOf(Bool()), value.MustMapping(value.E("a key", value.Null())))
	expectViolation(t, err, `$["a key"]`, "expected bool, got null")
}

func TestBuilderMisusePanics(t *testing.T) {
	testlog.Start(t)
	mustPanic(t, func() { String().Min(1) })
	mustPanic(t, func() { Number().Open() })
	mustPanic(t, func() { Record(Required("a", Null()), Optional("a", Null())) })
	mustPanic(t, func() { AnyOf() })
	mustPanic(t, func() { Record(Required("a", Schema{})) })
	mustPanic(t, func() { List(Schema{}) })
	mustPanic(t, func() { Nullable(Schema{}) })
}

func TestCheckUnsetSchemaMatchesNothing(t *testing.T) {
	testlog.Start(t)
	var unset Schema
	if unset.IsSet() || !Any().IsSet() {
		t.Fatalf("zero Schema must be unset and Any must be set")
	}
	_, err := Check(unset, value.MustMapping(value.E("extra", value.String("x"))))
	expectViolation(t, err, "$", "unsupported schema kind unset")
}

func expectViolation(t *testing.T, err error, path, reason string) {
	t.Helper()
	if !errors.Is(err, protocol.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	var ve *protocol.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if ve.Path != path || ve.Reason != reason {
		t.Fatalf("unexpected violation: path=%q reason=%q (want %q %q)", ve.Path, ve.Reason, path, reason)
	}
}

func mustPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	fn()
}
