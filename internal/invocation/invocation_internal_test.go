package invocation

import (
	"context"
	"testing"

	"github.com/stealthrocket/wasishim/internal/asyncify"
	"github.com/stealthrocket/wasishim/internal/assert"
	"github.com/stealthrocket/wasishim/internal/wasi1"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// buildFakeGuest stands in for a real asyncified wasm module: a host module
// exporting real linear memory plus no-op asyncify hooks (these tests never
// suspend), so callExport's exit-code mapping can be exercised without a
// compiled wasm binary.
func buildFakeGuest(ctx context.Context, r wazero.Runtime, exports map[string]func()) api.Module {
	builder := r.NewHostModuleBuilder("guest").ExportMemory("memory", 1)
	builder.NewFunctionBuilder().WithFunc(func() int32 { return 0 }).Export("asyncify_get_state")
	builder.NewFunctionBuilder().WithFunc(func(int32) {}).Export("asyncify_start_unwind")
	builder.NewFunctionBuilder().WithFunc(func() {}).Export("asyncify_stop_unwind")
	builder.NewFunctionBuilder().WithFunc(func(int32) {}).Export("asyncify_start_rewind")
	builder.NewFunctionBuilder().WithFunc(func() {}).Export("asyncify_stop_rewind")
	for name, body := range exports {
		body := body
		builder.NewFunctionBuilder().WithFunc(body).Export(name)
	}
	mod, err := builder.Instantiate(ctx)
	if err != nil {
		panic(err)
	}
	return mod
}

func newTestInvocation(ctx context.Context, t *testing.T, exports map[string]func(), exportNames []string) *Invocation {
	t.Helper()
	r := wazero.NewRuntime(ctx)
	t.Cleanup(func() { r.Close(ctx) })

	guest := buildFakeGuest(ctx, r, exports)
	ctrl := asyncify.New()
	assert.OK(t, ctrl.Bind(guest))
	assert.OK(t, ctrl.Init(ctx))

	return &Invocation{runtime: r, guest: guest, ctrl: ctrl, exports: exportNames}
}

func TestRunMapsExitStatusToCode(t *testing.T) {
	ctx := context.Background()
	inv := newTestInvocation(ctx, t, map[string]func(){
		"_start": func() { panic(wasi1.ExitStatus(120)) },
	}, nil)

	code, err := inv.Run(ctx)
	assert.OK(t, err)
	assert.Equal(t, code, 120)
}

func TestRunReturnsZeroOnNormalCompletion(t *testing.T) {
	ctx := context.Background()
	ran := false
	inv := newTestInvocation(ctx, t, map[string]func(){
		"_start": func() { ran = true },
	}, nil)

	code, err := inv.Run(ctx)
	assert.OK(t, err)
	assert.Equal(t, code, 0)
	if !ran {
		t.Fatal("_start was never called")
	}
}

func TestRunExportModeStopsAtFirstNonzeroExit(t *testing.T) {
	ctx := context.Background()
	var calls []string
	inv := newTestInvocation(ctx, t, map[string]func(){
		"one": func() { calls = append(calls, "one") },
		"two": func() { calls = append(calls, "two"); panic(wasi1.ExitStatus(7)) },
		"three": func() { calls = append(calls, "three") },
	}, []string{"one", "two", "three"})

	code, err := inv.Run(ctx)
	assert.OK(t, err)
	assert.Equal(t, code, 7)
	assert.EqualAll(t, calls, []string{"one", "two"})
}

func TestCallExportReturnsRawResults(t *testing.T) {
	ctx := context.Background()
	r := wazero.NewRuntime(ctx)
	defer r.Close(ctx)

	builder := r.NewHostModuleBuilder("guest").ExportMemory("memory", 1)
	builder.NewFunctionBuilder().WithFunc(func() int32 { return 0 }).Export("asyncify_get_state")
	builder.NewFunctionBuilder().WithFunc(func(int32) {}).Export("asyncify_start_unwind")
	builder.NewFunctionBuilder().WithFunc(func() {}).Export("asyncify_stop_unwind")
	builder.NewFunctionBuilder().WithFunc(func(int32) {}).Export("asyncify_start_rewind")
	builder.NewFunctionBuilder().WithFunc(func() {}).Export("asyncify_stop_rewind")
	builder.NewFunctionBuilder().WithFunc(func(a, b int32) int32 { return a + b }).Export("sum")
	guest, err := builder.Instantiate(ctx)
	assert.OK(t, err)

	ctrl := asyncify.New()
	assert.OK(t, ctrl.Bind(guest))
	assert.OK(t, ctrl.Init(ctx))

	inv := &Invocation{runtime: r, guest: guest, ctrl: ctrl}
	results, err := inv.CallExport(ctx, "sum", api.EncodeI32(1), api.EncodeI32(1))
	assert.OK(t, err)
	assert.Equal(t, len(results), 1)
	assert.Equal(t, int32(api.DecodeI32(results[0])), int32(2))
}
