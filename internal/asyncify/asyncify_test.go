package asyncify_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stealthrocket/wasishim/internal/asyncify"
	"github.com/stealthrocket/wasishim/internal/future"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// fakeGuest stands in for an asyncified wasm instance: its five hook
// exports are plain Go closures over a shared state word, and its "run"
// export calls straight into whatever import closure the test wires up,
// mimicking a guest whose only body is one WASI call.
type fakeGuest struct {
	state  int32
	import_ api.GoModuleFunc
}

func buildFakeGuest(ctx context.Context, r wazero.Runtime, g *fakeGuest) api.Module {
	builder := r.NewHostModuleBuilder("guest")
	builder.NewFunctionBuilder().
		WithFunc(func() int32 { return atomic.LoadInt32(&g.state) }).
		Export("asyncify_get_state")
	builder.NewFunctionBuilder().
		WithFunc(func(int32) { atomic.StoreInt32(&g.state, 1) }).
		Export("asyncify_start_unwind")
	builder.NewFunctionBuilder().
		WithFunc(func() { atomic.StoreInt32(&g.state, 0) }).
		Export("asyncify_stop_unwind")
	builder.NewFunctionBuilder().
		WithFunc(func(int32) { atomic.StoreInt32(&g.state, 2) }).
		Export("asyncify_start_rewind")
	builder.NewFunctionBuilder().
		WithFunc(func() { atomic.StoreInt32(&g.state, 0) }).
		Export("asyncify_stop_rewind")
	builder.NewFunctionBuilder().
		WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
			g.import_(ctx, mod, stack)
		}), nil, []api.ValueType{api.ValueTypeI32}).
		Export("run")

	mod, err := builder.Instantiate(ctx)
	if err != nil {
		panic(err)
	}
	return mod
}

func TestImportResolvesSynchronously(t *testing.T) {
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	g := &fakeGuest{}
	mod := buildFakeGuest(ctx, r, g)

	ctrl := asyncify.New()
	g.import_ = ctrl.WrapImport(func(ctx context.Context, mod api.Module, stack []uint64) future.Value[uint64] {
		return future.Ready[uint64](7)
	})
	if err := ctrl.Bind(mod); err != nil {
		t.Fatal(err)
	}

	export, err := ctrl.WrapExport("run")
	if err != nil {
		t.Fatal(err)
	}
	results, err := export.Call(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if results[0] != 7 {
		t.Fatalf("want 7, got %d", results[0])
	}
	if atomic.LoadInt32(&g.state) != 0 {
		t.Fatalf("expected state None after completion, got %d", g.state)
	}
}

func TestImportSuspendsAndRewinds(t *testing.T) {
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	g := &fakeGuest{}
	mod := buildFakeGuest(ctx, r, g)

	ctrl := asyncify.New()
	resolved, resolve := future.New[uint64]()
	calls := 0
	g.import_ = ctrl.WrapImport(func(ctx context.Context, mod api.Module, stack []uint64) future.Value[uint64] {
		calls++
		return future.Pending(resolved)
	})
	if err := ctrl.Bind(mod); err != nil {
		t.Fatal(err)
	}
	if err := ctrl.Init(ctx); err != nil {
		t.Fatal(err)
	}

	go resolve(42, nil)

	export, err := ctrl.WrapExport("run")
	if err != nil {
		t.Fatal(err)
	}
	results, err := export.Call(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Fatalf("import body should run exactly once across unwind/rewind, ran %d times", calls)
	}
	if results[0] != 42 {
		t.Fatalf("want 42, got %d", results[0])
	}
}

func TestWrapExportIsMemoised(t *testing.T) {
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	g := &fakeGuest{}
	mod := buildFakeGuest(ctx, r, g)
	ctrl := asyncify.New()
	if err := ctrl.Bind(mod); err != nil {
		t.Fatal(err)
	}

	a, err := ctrl.WrapExport("run")
	if err != nil {
		t.Fatal(err)
	}
	b, err := ctrl.WrapExport("run")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatal("expected the same *WrappedExport for repeated WrapExport calls")
	}
}
