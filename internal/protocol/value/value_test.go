package value

import (
	"errors"
	"math"
	"testing"

	"github.com/danmuck/actionwire/internal/testutil/testlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMappingRejectsDuplicateKeys(t *testing.T) {
	testlog.Start(t)
	_, err := Mapping(E("a", Null()), E("b", Null()), E("a", Bool(true)))
	require.ErrorIs(t, err, ErrDuplicateKey)
}

func TestConstructorsRejectNonCanonicalInput(t *testing.T) {
	testlog.Start(t)
	_, err := NewNumber(math.NaN())
	assert.ErrorIs(t, err, ErrNonFiniteNumber)
	_, err = NewNumber(math.Inf(-1))
	assert.ErrorIs(t, err, ErrNonFiniteNumber)
	_, err = NewString(string([]byte{0xff, 0xfe}))
	assert.ErrorIs(t, err, ErrInvalidUTF8)
	assert.Panics(t, func() { Number(math.Inf(1)) })
}

func TestValuesDoNotShareCallerStorage(t *testing.T) {
	testlog.Start(t)
	items := []Value{String("a"), String("b")}
	seq := Sequence(items...)
	items[0] = String("mutated")
	first, ok := seq.Index(0)
	require.True(t, ok)
	assert.True(t, first.Equal(String("a")))

	got := seq.Items()
	got[1] = Null()
	second, _ := seq.Index(1)
	assert.True(t, second.Equal(String("b")))
}

func TestEqualIsOrderSensitiveForMappings(t *testing.T) {
	testlog.Start(t)
	a := MustMapping(E("x", Number(1)), E("y", Number(2)))
	b := MustMapping(E("y", Number(2)), E("x", Number(1)))
	c := MustMapping(E("x", Number(1)), E("y", Number(2)))
	assert.False(t, a.Equal(b))
	assert.True(t, a.Equal(c))
	assert.False(t, Null().Equal(Bool(false)))
	assert.True(t, Value{}.Equal(Null()))
}

func TestWalkVisitsPathsInOrder(t *testing.T) {
	testlog.Start(t)
	v := MustMapping(
		E("msg", String("hi")),
		E("tags", Sequence(String("a"), String("b"))),
		E("odd key", Null()),
	)
	var paths []string
	err := Walk(v, func(path string, _ Value) error {
		paths = append(paths, path)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"$", "$.msg", "$.tags", "$.tags[0]", "$.tags[1]", `$["odd key"]`}, paths)
}

func TestWalkSkipChildrenAndStop(t *testing.T) {
	testlog.Start(t)
	v := Sequence(Sequence(Null(), Null()), Bool(true))
	var visited int
	err := Walk(v, func(path string, n Value) error {
		visited++
		if path == "$[0]" {
			return SkipChildren
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, visited)

	stop := errors.New("stop")
	err = Walk(v, func(string, Value) error { return stop })
	assert.ErrorIs(t, err, stop)
}

func TestFromNativeClosedSet(t *testing.T) {
	testlog.Start(t)
	v, err := FromNative(map[string]any{
		"b":    true,
		"a":    int64(3),
		"list": []any{"x", 1.5, nil},
		"tags": []string{"t"},
		"env":  map[string]string{"k": "v"},
	})
	require.NoError(t, err)
	keys := make([]string, 0)
	for _, e := range v.Entries() {
		keys = append(keys, e.Key)
	}
	assert.Equal(t, []string{"a", "b", "env", "list", "tags"}, keys)

	for _, bad := range []any{struct{}{}, &struct{}{}, func() {}, make(chan int), []int{1}} {
		_, err := FromNative(bad)
		assert.ErrorIs(t, err, ErrUnsupportedValue, "%T", bad)
	}
}

func TestFromNativeRejectsCycles(t *testing.T) {
	testlog.Start(t)
	m := map[string]any{}
	m["self"] = m
	_, err := FromNative(m)
	require.ErrorIs(t, err, ErrUnsupportedValue)
}

func TestNativeRoundTrip(t *testing.T) {
	testlog.Start(t)
	v := MustMapping(E("n", Number(2)), E("s", Sequence(Bool(true), Null())))
	native := v.Native()
	assert.Equal(t, map[string]any{"n": 2.0, "s": []any{true, nil}}, native)
	back, err := FromNative(native)
	require.NoError(t, err)
	assert.True(t, back.Equal(v))
}

func TestParseJSONPreservesOrderAndRejectsDuplicates(t *testing.T) {
	testlog.Start(t)
	v, err := ParseJSON([]byte(`{"z":1,"a":[true,null,"s"],"m":{"k":-2.5}}`), 16)
	require.NoError(t, err)
	out, err := v.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"z":1,"a":[true,null,"s"],"m":{"k":-2.5}}`, string(out))
	assert.Equal(t, "z", v.Entries()[0].Key)

	_, err = ParseJSON([]byte(`{"a":1,"a":2}`), 16)
	assert.ErrorIs(t, err, ErrDuplicateKey)

	_, err = ParseJSON([]byte(`[[[1]]]`), 2)
	assert.ErrorIs(t, err, ErrJSONDepth)

	_, err = ParseJSON([]byte(`1 2`), 16)
	assert.Error(t, err)

	_, err = ParseJSON([]byte(`1e999`), 16)
	assert.ErrorIs(t, err, ErrNonFiniteNumber)
}

func TestDepth(t *testing.T) {
	testlog.Start(t)
	assert.Equal(t, 1, Null().Depth())
	assert.Equal(t, 1, Sequence().Depth())
	assert.Equal(t, 3, Sequence(MustMapping(E("a", Null()))).Depth())
}
