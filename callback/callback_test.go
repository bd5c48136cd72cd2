package callback

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero/api"

	bridgeerrors "github.com/wippyai/wasm-bridge/errors"
	"github.com/wippyai/wasm-bridge/eventloop"
	"github.com/wippyai/wasm-bridge/resource"
	"github.com/wippyai/wasm-bridge/value"
)

type export struct {
	params  []api.ValueType
	results []api.ValueType
	fn      func(params []uint64) ([]uint64, error)
}

// fakeInvoker stands in for an instantiated module.
type fakeInvoker map[string]export

func (f fakeInvoker) Call(_ context.Context, name string, params ...uint64) ([]uint64, error) {
	e, ok := f[name]
	if !ok {
		return nil, errors.New("no export " + name)
	}
	return e.fn(params)
}

func (f fakeInvoker) Signature(name string) ([]api.ValueType, []api.ValueType, bool) {
	e, ok := f[name]
	return e.params, e.results, ok
}

func i32s(n int) []api.ValueType {
	out := make([]api.ValueType, n)
	for i := range out {
		out[i] = api.ValueTypeI32
	}
	return out
}

func TestRegistry_TrampolineValidation(t *testing.T) {
	inv := fakeInvoker{
		"cb2":     {params: i32s(4), results: i32s(1)},
		"cb0void": {params: i32s(2)},
		"short":   {params: i32s(1), results: i32s(1)},
		"float":   {params: []api.ValueType{api.ValueTypeI32, api.ValueTypeI32, api.ValueTypeF64}, results: i32s(1)},
		"multi":   {params: i32s(3), results: i32s(2)},
	}
	reg := NewRegistry(inv, resource.NewTable())

	tests := []struct {
		name    string
		export  string
		arity   int
		errKind bridgeerrors.Kind
	}{
		{"two args with result", "cb2", 2, ""},
		{"no args no result", "cb0void", 0, ""},
		{"missing argc", "short", 0, bridgeerrors.KindSignatureMismatch},
		{"non i32 param", "float", 0, bridgeerrors.KindSignatureMismatch},
		{"two results", "multi", 0, bridgeerrors.KindSignatureMismatch},
		{"not exported", "nope", 0, bridgeerrors.KindMissingImport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			arity, err := reg.Trampoline(tt.export)
			if tt.errKind != "" {
				var be *bridgeerrors.Error
				require.ErrorAs(t, err, &be)
				assert.Equal(t, tt.errKind, be.Kind)
				assert.Equal(t, bridgeerrors.PhaseInstantiate, be.Phase)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.arity, arity)
		})
	}
}

func TestWrapper_PadsMissingArguments(t *testing.T) {
	table := resource.NewTable()
	var got []uint64
	inv := fakeInvoker{
		"$cb3": {params: i32s(5), results: i32s(1), fn: func(p []uint64) ([]uint64, error) {
			got = append([]uint64(nil), p...)
			// echo the first argument back as a fresh module-owned handle
			v := table.Value(resource.Handle(api.DecodeU32(p[2])))
			return []uint64{api.EncodeU32(uint32(table.Insert(v)))}, nil
		}},
	}
	reg := NewRegistry(inv, table)
	w, err := reg.Wrap("$cb3", 77)
	require.NoError(t, err)
	assert.Equal(t, 3, w.Arity())
	assert.Equal(t, uint32(77), w.ModuleTarget())

	res, err := w.Call(context.Background(), value.String("x"))
	require.NoError(t, err)
	assert.Equal(t, value.String("x"), res)

	require.Len(t, got, 5)
	assert.Equal(t, uint32(77), api.DecodeU32(got[0]))
	assert.Equal(t, int32(1), api.DecodeI32(got[1]), "argc counts supplied arguments")
	assert.NotZero(t, got[2])
	assert.Zero(t, got[3], "missing argument is handle 0")
	assert.Zero(t, got[4])

	assert.Zero(t, table.Len(), "borrowed and result handles are released")
}

func TestWrapper_ArgcCountsExtraArguments(t *testing.T) {
	var argc int32
	inv := fakeInvoker{
		"$cb1": {params: i32s(3), fn: func(p []uint64) ([]uint64, error) {
			argc = api.DecodeI32(p[1])
			return nil, nil
		}},
	}
	w, err := NewRegistry(inv, resource.NewTable()).Wrap("$cb1", 1)
	require.NoError(t, err)

	res, err := w.Call(context.Background(), value.Number(1), value.Number(2), value.Number(3))
	require.NoError(t, err)
	assert.True(t, res.IsUndefined())
	assert.Equal(t, int32(3), argc)
}

func TestWrapper_ErrorAndHook(t *testing.T) {
	trap := errors.New("unreachable")
	inv := fakeInvoker{
		"$cb0": {params: i32s(2), results: i32s(1), fn: func([]uint64) ([]uint64, error) {
			return nil, trap
		}},
	}
	reg := NewRegistry(inv, resource.NewTable())
	var seen []error
	reg.SetHook(func(_ string, err error) { seen = append(seen, err) })

	w, err := reg.Wrap("$cb0", 5)
	require.NoError(t, err)
	_, err = w.Call(context.Background())
	assert.ErrorIs(t, err, trap)
	assert.Equal(t, []error{trap}, seen)
}

func TestRegistry_LiveTracksHandleDrops(t *testing.T) {
	table := resource.NewTable()
	inv := fakeInvoker{"$cb0": {params: i32s(2)}}
	reg := NewRegistry(inv, table)

	w, err := reg.Wrap("$cb0", 1)
	require.NoError(t, err)
	h := table.Insert(value.Of(w))
	assert.Equal(t, 1, reg.Live())

	_, isWrapped := value.IsModuleWrapped(table.Value(h))
	assert.True(t, isWrapped)

	table.Release(h)
	assert.Equal(t, 0, reg.Live())
	w.Drop()
	assert.Equal(t, 0, reg.Live(), "drop is counted once")
}

func collectUntil(t *testing.T, loop *eventloop.Loop, cond func() bool) {
	t.Helper()
	for range 100 {
		runtime.GC()
		require.NoError(t, loop.RunPending(context.Background()))
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached after repeated collections")
}

func TestFinalizers_CallbackRunsOnLoop(t *testing.T) {
	loop := eventloop.New()
	var held []value.Value
	f := NewFinalizers(loop, value.Func(func(_ context.Context, args ...value.Value) (value.Value, error) {
		held = append(held, value.Arg(args, 0))
		return value.Undefined, nil
	}))

	func() {
		target := value.NewArray(value.Number(1))
		require.NoError(t, f.Register(value.Of(target), value.String("token-a"), value.Undefined))
	}()

	collectUntil(t, loop, func() bool { return len(held) == 1 })
	assert.Equal(t, value.String("token-a"), held[0])
}

func TestFinalizers_Unregister(t *testing.T) {
	loop := eventloop.New()
	called := false
	f := NewFinalizers(loop, value.Func(func(context.Context, ...value.Value) (value.Value, error) {
		called = true
		return value.Undefined, nil
	}))
	token := value.Of(value.NewObject())

	func() {
		target := value.NewObject()
		require.NoError(t, f.Register(value.Of(target), value.Number(1), token))
	}()
	assert.True(t, f.Unregister(token))
	assert.False(t, f.Unregister(token))

	for range 5 {
		runtime.GC()
		require.NoError(t, loop.RunPending(context.Background()))
	}
	assert.False(t, called)
}

func TestFinalizers_RejectsInvalidTargets(t *testing.T) {
	f := NewFinalizers(eventloop.New(), value.Func(nil))
	obj := value.Of(value.NewObject())

	tests := []struct {
		name   string
		target value.Value
		held   value.Value
		token  value.Value
	}{
		{"primitive target", value.Number(1), value.Undefined, value.Undefined},
		{"held is target", obj, obj, value.Undefined},
		{"primitive token", obj, value.Undefined, value.String("t")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.Register(tt.target, tt.held, tt.token)
			var be *bridgeerrors.Error
			require.ErrorAs(t, err, &be)
			assert.Equal(t, bridgeerrors.KindInvalidInput, be.Kind)
		})
	}
}

func TestWeakRef(t *testing.T) {
	_, err := NewWeakRef(value.String("primitive"))
	require.Error(t, err)

	strong := value.NewArray(value.Number(1))
	ref, err := NewWeakRef(value.Of(strong))
	require.NoError(t, err)
	got, ok := ref.Deref().Array()
	require.True(t, ok)
	assert.Same(t, strong, got)
	runtime.KeepAlive(strong)

	var dead *WeakRef
	func() {
		tmp := value.NewObject()
		dead, err = NewWeakRef(value.Of(tmp))
		require.NoError(t, err)
	}()
	loop := eventloop.New()
	collectUntil(t, loop, func() bool { return dead.Deref().IsUndefined() })
}

func TestWeakMap(t *testing.T) {
	m := NewWeakMap()
	k1 := value.Of(value.NewObject())
	k2 := value.Of(value.NewArray())

	require.NoError(t, m.Set(k1, value.Number(1)))
	require.NoError(t, m.Set(k2, value.String("two")))
	require.Error(t, m.Set(value.Number(3), value.Undefined))

	assert.Equal(t, value.Number(1), m.Get(k1))
	assert.Equal(t, value.String("two"), m.Get(k2))
	assert.True(t, m.Get(value.Of(value.NewObject())).IsUndefined())
	assert.True(t, m.Has(k1))

	assert.True(t, m.Delete(k1))
	assert.False(t, m.Has(k1))
	assert.Equal(t, 1, m.Len())
	runtime.KeepAlive(k2)
}
