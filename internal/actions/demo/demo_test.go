package demo

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/danmuck/actionwire/internal/actions"
	"github.com/danmuck/actionwire/internal/protocol/schema"
	"github.com/danmuck/actionwire/internal/protocol/value"
	"github.com/danmuck/actionwire/internal/testutil/testlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// call runs d the way the dispatcher does: validate args, invoke, check result.
func call(t *testing.T, d actions.Descriptor, args value.Value) (any, error) {
	t.Helper()
	native, err := schema.Check(d.Args, args)
	if err != nil {
		return nil, err
	}
	out, err := d.Handler(context.Background(), native)
	if err != nil {
		return nil, err
	}
	v, err := value.FromNative(out)
	require.NoError(t, err)
	require.NoError(t, schema.Validate(d.Result, v), "result must satisfy the declared schema")
	return out, nil
}

func TestRegisterAll(t *testing.T) {
	testlog.Start(t)
	reg := actions.NewRegistry()
	require.NoError(t, RegisterAll(reg))
	c := reg.Seal()
	for _, id := range []string{EchoID, FormSubmitID, MathAddID, KVPutID, KVGetID, KVDeleteID, KVListID} {
		assert.True(t, c.Has(id), id)
	}
	assert.Equal(t, 7, c.Len())
}

func TestEcho(t *testing.T) {
	testlog.Start(t)
	out, err := call(t, Echo(), value.MustMapping(value.E("msg", value.String("hi"))))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"msg": "hi"}, out)
}

func TestFormSubmit(t *testing.T) {
	testlog.Start(t)
	out, err := call(t, FormSubmit(), value.MustMapping(value.E("data", value.String("name=alice"))))
	require.NoError(t, err)
	assert.Equal(t, "Action executed", out)

	_, err = call(t, FormSubmit(), value.MustMapping(value.E("data", value.String(strings.Repeat("x", MaxFormData+1)))))
	assert.Error(t, err)
}

func TestMathAdd(t *testing.T) {
	testlog.Start(t)
	out, err := call(t, MathAdd(), value.Sequence(value.Number(2), value.Number(40)))
	require.NoError(t, err)
	assert.Equal(t, 42.0, out)

	_, err = call(t, MathAdd(), value.Sequence(value.Number(1.7e308), value.Number(1.7e308)))
	assert.Error(t, err)
}

func TestKVLifecycle(t *testing.T) {
	testlog.Start(t)
	s := NewStore(0)
	byID := map[string]actions.Descriptor{}
	for _, d := range s.Descriptors() {
		byID[d.ID] = d
	}
	key := func(k string) value.Value { return value.MustMapping(value.E("key", value.String(k))) }

	_, err := call(t, byID[KVPutID], value.MustMapping(value.E("key", value.String("app.a")), value.E("value", value.String("1"))))
	require.NoError(t, err)
	_, err = call(t, byID[KVPutID], value.MustMapping(value.E("key", value.String("b")), value.E("value", value.String("2"))))
	require.NoError(t, err)

	out, err := call(t, byID[KVGetID], key("app.a"))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"found": true, "value": "1"}, out)

	out, err = call(t, byID[KVListID], value.MustMapping(value.E("prefix", value.String("app."))))
	require.NoError(t, err)
	assert.Equal(t, []string{"app.a"}, out)

	out, err = call(t, byID[KVListID], value.MustMapping())
	require.NoError(t, err)
	assert.Equal(t, []string{"app.a", "b"}, out)

	out, err = call(t, byID[KVDeleteID], key("app.a"))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"deleted": true}, out)

	out, err = call(t, byID[KVGetID], key("app.a"))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"found": false, "value": nil}, out)

	_, err = call(t, byID[KVGetID], key(""))
	assert.Error(t, err, "empty key must fail validation")
}

func TestKVStoreBoundedAndConcurrent(t *testing.T) {
	testlog.Start(t)
	s := NewStore(64)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 8; j++ {
				k := fmt.Sprintf("k%d-%d", i, j)
				assert.NoError(t, s.Put(k, "v"))
				_, _ = s.Get(k)
				_ = s.Keys("k")
			}
		}(i)
	}
	wg.Wait()
	assert.Len(t, s.Keys(""), 64)
	assert.ErrorIs(t, s.Put("overflow", "v"), ErrStoreFull)
	assert.NoError(t, s.Put("k0-0", "updated"), "overwriting an existing key is allowed when full")
}
