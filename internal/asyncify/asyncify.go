// Package asyncify implements the unwind/rewind trampoline described in
// spec §4.C: it lets a guest module compiled with the Asyncify Binaryen
// pass make a blocking-looking WASI call that is actually serviced by an
// asynchronous host, by unwinding the guest's own call stack into linear
// memory and replaying it once the host operation resolves.
//
// The controller is a singleton per guest instance. Its state -- None,
// Unwinding, Rewinding -- lives inside the guest (read via
// asyncify_get_state) and must never be interleaved across concurrent
// export calls, per spec §5.
package asyncify

import (
	"context"
	"fmt"

	"github.com/stealthrocket/wasishim/internal/future"
	"github.com/tetratelabs/wazero/api"
)

// DataAddr is the fixed address of the asyncify descriptor: two
// little-endian u32 words (stack_begin, stack_end) describing the scratch
// region the Binaryen pass uses to save the guest's unwound call stack.
const DataAddr = 16

const (
	stackBegin = DataAddr + 8
	stackEnd   = 1024
)

type state int32

const (
	stateNone      state = 0
	stateUnwinding state = 1
	stateRewinding state = 2
)

// HostFunc is the shape every wrapped WASI import conforms to: read
// parameters out of stack/guest memory, do the work, and either return a
// Ready future.Value holding the WASI errno, or a Pending one that resolves
// to the errno once the host operation completes. WrapImport, not the
// HostFunc, writes that errno into stack[0]. The asyncify controller never
// looks past the errno -- every function in this ABI returns exactly one
// scalar result.
type HostFunc func(ctx context.Context, mod api.Module, stack []uint64) future.Value[uint64]

// Controller drives one guest instance's asyncify state machine. Its
// import wrappers (WrapImport) only need a *Controller, not a guest module,
// so they can be built before the guest is instantiated; Bind resolves the
// hook exports and memory once the instance exists, breaking the cycle
// between the WASI binding surface and the controller per spec §9.
type Controller struct {
	mod api.Module

	getState    api.Function
	startUnwind api.Function
	stopUnwind  api.Function
	startRewind api.Function
	stopRewind  api.Function

	pending *future.Future[uint64]
	stashed uint64

	exports map[string]*WrappedExport
}

// New returns an unbound Controller. Call Bind once the guest instance
// exists and before calling any wrapped export.
func New() *Controller {
	return &Controller{exports: make(map[string]*WrappedExport)}
}

// Bind resolves the five asyncify hook exports off mod. It returns an error
// if the module is missing any of them -- the precondition from spec §4.C.
func (c *Controller) Bind(mod api.Module) error {
	c.mod = mod
	for _, hook := range []struct {
		name string
		dst  *api.Function
	}{
		{"asyncify_get_state", &c.getState},
		{"asyncify_start_unwind", &c.startUnwind},
		{"asyncify_stop_unwind", &c.stopUnwind},
		{"asyncify_start_rewind", &c.startRewind},
		{"asyncify_stop_rewind", &c.stopRewind},
	} {
		fn := mod.ExportedFunction(hook.name)
		if fn == nil {
			return fmt.Errorf("asyncify: guest module missing required export %q", hook.name)
		}
		*hook.dst = fn
	}
	return nil
}

// Init writes the asyncify descriptor at DataAddr, per spec §4.C and §6.4:
// stack_begin = DataAddr+8, stack_end = 1024.
func (c *Controller) Init(ctx context.Context) error {
	mem := c.mod.Memory()
	if !mem.WriteUint32Le(DataAddr, stackBegin) || !mem.WriteUint32Le(DataAddr+4, stackEnd) {
		return fmt.Errorf("asyncify: failed writing descriptor at %d", DataAddr)
	}
	return nil
}

func (c *Controller) state(ctx context.Context) (state, error) {
	results, err := c.getState.Call(ctx)
	if err != nil {
		return stateNone, err
	}
	return state(int32(results[0])), nil
}

// WrapImport adapts fn into the api.GoModuleFunc wazero registers as a WASI
// import, implementing the import-wrapping algorithm of spec §4.C.
func (c *Controller) WrapImport(fn HostFunc) api.GoModuleFunc {
	return func(ctx context.Context, mod api.Module, stack []uint64) {
		st, err := c.state(ctx)
		if err != nil {
			panic(err)
		}
		if st == stateRewinding {
			if _, err := c.stopRewind.Call(ctx); err != nil {
				panic(err)
			}
			stack[0] = c.stashed
			c.stashed = 0
			return
		}

		v := fn(ctx, mod, stack)
		if !v.IsPending() {
			stack[0] = v.Value()
			return
		}

		c.pending = v.Future()
		if _, err := c.startUnwind.Call(ctx, uint64(DataAddr)); err != nil {
			panic(err)
		}
	}
}

// WrappedExport is a guest export driven through the rewind loop. Obtain one
// via Controller.WrapExport.
type WrappedExport struct {
	ctrl *Controller
	fn   api.Function
}

// WrapExport memoises the wrapper for fn by name, per spec §4.C's
// requirement that repeated wrapping of the same export yield the same
// handle.
func (c *Controller) WrapExport(name string) (*WrappedExport, error) {
	if w, ok := c.exports[name]; ok {
		return w, nil
	}
	fn := c.mod.ExportedFunction(name)
	if fn == nil {
		return nil, fmt.Errorf("asyncify: guest module has no export %q", name)
	}
	w := &WrappedExport{ctrl: c, fn: fn}
	c.exports[name] = w
	return w, nil
}

// Call runs the wrapped export to completion, looping through as many
// unwind/rewind cycles as the guest's WASI calls require (spec §4.C export
// wrapping). ctx cancellation is observed while awaiting a suspended
// operation between an unwind and its rewind.
func (w *WrappedExport) Call(ctx context.Context, args ...uint64) ([]uint64, error) {
	c := w.ctrl
	results, err := w.fn.Call(ctx, args...)
	if err != nil {
		return nil, err
	}
	for {
		st, err := c.state(ctx)
		if err != nil {
			return nil, err
		}
		if st != stateUnwinding {
			break
		}
		if _, err := c.stopUnwind.Call(ctx); err != nil {
			return nil, err
		}
		val, err := c.pending.Await(ctx)
		c.pending = nil
		if err != nil {
			return nil, err
		}
		c.stashed = val
		if _, err := c.startRewind.Call(ctx, uint64(DataAddr)); err != nil {
			return nil, err
		}
		// No arguments on re-entry: the guest recovers them from the
		// asyncified stack it saved while unwinding.
		results, err = w.fn.Call(ctx)
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
