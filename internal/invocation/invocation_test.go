package invocation_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stealthrocket/wasishim/internal/invocation"
)

// wasmPreamble is the 8-byte header shared by every WebAssembly binary
// ("\0asm" followed by version 1) with no sections -- a valid, empty
// module. It compiles and instantiates cleanly, letting these tests reach
// New's asyncify-binding step without needing a real compiled guest.
var wasmPreamble = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

func TestNewRejectsGuestMissingAsyncifyExports(t *testing.T) {
	ctx := context.Background()
	_, err := invocation.New(ctx, invocation.Config{Code: wasmPreamble})
	if err == nil {
		t.Fatal("expected an error for a guest with no asyncify exports")
	}
	if !strings.Contains(err.Error(), "asyncify_get_state") {
		t.Fatalf("expected the error to name the missing export, got: %s", err)
	}
}

func TestNewRejectsInvalidWasm(t *testing.T) {
	ctx := context.Background()
	_, err := invocation.New(ctx, invocation.Config{Code: []byte("not a wasm module")})
	if err == nil {
		t.Fatal("expected an error compiling invalid wasm bytes")
	}
}
