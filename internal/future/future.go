// Package future provides the single suspension primitive the rest of this
// runtime is built on: a one-shot value that may not be ready yet.
//
// It exists because spec §4.D requires every WASI call to be able to return
// either a completed result or "a pending async value" for the asyncify
// controller to stash and await later. Go has no built-in promise type, so
// Future plays that role using a channel, in the same spirit as the
// teacher's stream.Optional/stream.ChanReader pairing of a channel with a
// value-or-error result.
package future

import "context"

// Future is a value of type T that becomes available at most once. It is
// created alongside the function that resolves it (Resolve); readers call
// Await, which blocks until the value is available or ctx is cancelled.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// New returns a Future and the function used to resolve it. Resolve must be
// called exactly once; later calls panic.
func New[T any]() (*Future[T], func(T, error)) {
	f := &Future[T]{done: make(chan struct{})}
	resolved := false
	resolve := func(v T, err error) {
		if resolved {
			panic("future: resolved more than once")
		}
		resolved = true
		f.val, f.err = v, err
		close(f.done)
	}
	return f, resolve
}

// Done returns a Future that is already resolved with v and err, for
// implementations that happen to complete synchronously but still need to
// satisfy a Future-returning signature.
func Done[T any](v T, err error) *Future[T] {
	f, resolve := New[T]()
	resolve(v, err)
	return f
}

// Ready reports whether the future has already been resolved, without
// blocking.
func (f *Future[T]) Ready() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Await blocks until the future resolves or ctx is cancelled, per spec §5:
// cancellation is observed while awaiting.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Map derives a Future[U] from a Future[T], applying fn once f resolves or
// ctx is cancelled. fn also sees the error f resolved with, so it can run
// side effects (like advancing a file position) only on success.
func Map[T, U any](ctx context.Context, f *Future[T], fn func(T, error) (U, error)) *Future[U] {
	out, resolve := New[U]()
	go func() {
		v, err := f.Await(ctx)
		resolve(fn(v, err))
	}()
	return out
}

// Then chains a Future-returning continuation onto f, for sequencing a
// series of dependent asynchronous steps (e.g. one fd_read per io-vector)
// without blocking the calling goroutine between them.
func Then[T, U any](ctx context.Context, f *Future[T], fn func(T, error) *Future[U]) *Future[U] {
	out, resolve := New[U]()
	go func() {
		v, err := f.Await(ctx)
		next := fn(v, err)
		nv, nerr := next.Await(ctx)
		resolve(nv, nerr)
	}()
	return out
}

// Value is the result of a WASI System call: either a value that is ready
// now, or a Future that the asyncify controller must suspend the guest on.
type Value[T any] struct {
	val     T
	pending *Future[T]
}

// Ready wraps a value that is available immediately; the import wrapper
// returns it to the guest synchronously without unwinding.
func Ready[T any](v T) Value[T] {
	return Value[T]{val: v}
}

// Pending wraps a Future that has not resolved yet; the import wrapper
// stashes it and drives the asyncify unwind/rewind dance until it does.
func Pending[T any](f *Future[T]) Value[T] {
	return Value[T]{pending: f}
}

// ValueOf adapts a Future into a Value, resolving synchronously if the
// Future has already completed without error (so the asyncify controller
// never unwinds the guest for work that was in fact immediate) and
// deferring to it otherwise. A Future that resolved with an error always
// takes the Pending path even when already done, so the asyncify
// controller's own Await -- which does check the error -- is the one place
// that decides whether to abort the invocation (spec §7); this function
// must never discard an error by taking the fast path.
func ValueOf[T any](ctx context.Context, f *Future[T]) Value[T] {
	if f.Ready() {
		if v, err := f.Await(ctx); err == nil {
			return Ready(v)
		}
	}
	return Pending(f)
}

// IsPending reports whether this Value needs to be awaited.
func (v Value[T]) IsPending() bool { return v.pending != nil }

// Future returns the pending Future, or nil if the value was already ready.
func (v Value[T]) Future() *Future[T] { return v.pending }

// Value returns the immediate value; it must only be called when
// IsPending() is false.
func (v Value[T]) Value() T { return v.val }
