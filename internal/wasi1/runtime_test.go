package wasi1_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stealthrocket/wasishim/internal/assert"
	"github.com/stealthrocket/wasishim/internal/fdtable"
	"github.com/stealthrocket/wasishim/internal/fsprovider"
	"github.com/stealthrocket/wasishim/internal/future"
	"github.com/stealthrocket/wasishim/internal/memfs"
	"github.com/stealthrocket/wasishim/internal/stream"
	"github.com/stealthrocket/wasishim/internal/wasi1"
)

// await resolves a future.Value regardless of whether it completed
// synchronously or needs awaiting -- Map always hands back a Value backed
// by a fresh goroutine, so IsPending() is not a reliable way to tell which
// path a given call took even when the underlying provider is in-memory.
func await[T any](ctx context.Context, v future.Value[T]) T {
	if !v.IsPending() {
		return v.Value()
	}
	val, _ := v.Future().Await(ctx)
	return val
}

// newMountedRuntime builds a Runtime backed by a memfs mount at /sandbox
// pre-populated with files, the way spec §8's scenarios describe.
func newMountedRuntime(t *testing.T, files map[string]string, stdin string, stdout, stderr *bytes.Buffer) *wasi1.Runtime {
	t.Helper()
	fsys := memfs.New()
	ctx := context.Background()
	for name, contents := range files {
		h, err := fsys.GetFileOrDir(name, fsprovider.KindFile, fsprovider.OpenFlags{Create: true}).Await(ctx)
		assert.OK(t, err)
		_, err = h.File.WriteAt([]byte(contents), 0).Await(ctx)
		assert.OK(t, err)
	}
	table := fdtable.New([]fdtable.PreOpen{{Path: "/sandbox", Provider: fsys}})
	return wasi1.NewRuntime(nil, nil, stream.NewReader([]byte(stdin)...), stdout, stderr, table)
}

func readAll(t *testing.T, r *wasi1.Runtime, fd wasi1.FD, n int) string {
	t.Helper()
	ctx := context.Background()
	buf := make([]byte, n)
	res := await(ctx, r.FDRead(ctx, fd, [][]byte{buf}))
	assert.Equal(t, res.Errno, wasi1.ESUCCESS)
	return string(buf[:res.N])
}

func openInSandbox(t *testing.T, r *wasi1.Runtime, path string, oflags wasi1.OFlags, fsFlags wasi1.FDFlags) wasi1.OpenResult {
	t.Helper()
	ctx := context.Background()
	return await(ctx, r.PathOpen(ctx, fdtable.FirstPreopenFD, path, oflags, fsFlags, false))
}

func TestReadFile(t *testing.T) {
	var stdout, stderr bytes.Buffer
	r := newMountedRuntime(t, map[string]string{"input.txt": "hello from input.txt\n"}, "", &stdout, &stderr)

	or := openInSandbox(t, r, "input.txt", 0, 0)
	assert.Equal(t, or.Errno, wasi1.ESUCCESS)

	got := readAll(t, r, or.FD, 64)
	assert.Equal(t, got, "hello from input.txt\n")

	stdout.WriteString(got)
	assert.Equal(t, stdout.String(), "hello from input.txt\n")
}

func TestReadFileTwice(t *testing.T) {
	var stdout, stderr bytes.Buffer
	r := newMountedRuntime(t, map[string]string{"input.txt": "hello from input.txt\n"}, "", &stdout, &stderr)

	for i := 0; i < 2; i++ {
		or := openInSandbox(t, r, "input.txt", 0, 0)
		assert.Equal(t, or.Errno, wasi1.ESUCCESS)
		got := readAll(t, r, or.FD, 64)
		assert.Equal(t, got, "hello from input.txt\n")
		stdout.WriteString(got)
		assert.Equal(t, r.Table.Close(or.FD), wasi1.ESUCCESS)
	}

	assert.Equal(t, stdout.String(), "hello from input.txt\nhello from input.txt\n")
}

func TestStdinEcho(t *testing.T) {
	var stdout, stderr bytes.Buffer
	r := newMountedRuntime(t, nil, "hello world", &stdout, &stderr)
	ctx := context.Background()

	got := readAll(t, r, 0, 64)
	assert.Equal(t, got, "hello world")

	wres := await(ctx, r.FDWrite(ctx, 1, [][]byte{[]byte(got)}))
	assert.Equal(t, wres.Errno, wasi1.ESUCCESS)
	assert.Equal(t, stdout.String(), "hello world")
}

func TestExitCode(t *testing.T) {
	var stdout, stderr bytes.Buffer
	r := newMountedRuntime(t, nil, "", &stdout, &stderr)
	v := r.ProcExit(context.Background(), 120)
	assert.Equal(t, v.Value(), wasi1.ESUCCESS)
}

func TestFreopenFromSecondFile(t *testing.T) {
	var stdout, stderr bytes.Buffer
	r := newMountedRuntime(t, map[string]string{
		"input.txt":  "hello from input.txt\n",
		"input2.txt": "hello from input2.txt\n",
	}, "", &stdout, &stderr)

	or := openInSandbox(t, r, "input2.txt", 0, 0)
	assert.Equal(t, or.Errno, wasi1.ESUCCESS)

	got := readAll(t, r, or.FD, 64)
	assert.Equal(t, got, "hello from input2.txt\n")
	stdout.WriteString(got)
	assert.Equal(t, stdout.String(), "hello from input2.txt\n")
}

func TestStdoutWithFlush(t *testing.T) {
	var stdout, stderr bytes.Buffer
	r := newMountedRuntime(t, nil, "", &stdout, &stderr)
	ctx := context.Background()

	v1 := await(ctx, r.FDWrite(ctx, 1, [][]byte{[]byte("12")}))
	assert.Equal(t, v1.Errno, wasi1.ESUCCESS)
	assert.Equal(t, await(ctx, r.FDSync(ctx, 1)), wasi1.ESUCCESS)
	v2 := await(ctx, r.FDWrite(ctx, 1, [][]byte{[]byte("\n34")}))
	assert.Equal(t, v2.Errno, wasi1.ESUCCESS)

	assert.Equal(t, stdout.String(), "12\n34")
}

func TestPathOpenMissingFileReturnsENOENT(t *testing.T) {
	var stdout, stderr bytes.Buffer
	r := newMountedRuntime(t, nil, "", &stdout, &stderr)
	or := openInSandbox(t, r, "missing.txt", 0, 0)
	assert.Equal(t, or.Errno, wasi1.ENOENT)
}

func TestPathOpenDirectoryAgainstFileReturnsENOTDIR(t *testing.T) {
	var stdout, stderr bytes.Buffer
	r := newMountedRuntime(t, map[string]string{"input.txt": "x"}, "", &stdout, &stderr)
	or := openInSandbox(t, r, "input.txt", wasi1.OFlagDirectory, 0)
	assert.Equal(t, or.Errno, wasi1.ENOTDIR)
}

func TestPathOpenNonNonBlockFsFlagsReturnsENOSYS(t *testing.T) {
	var stdout, stderr bytes.Buffer
	r := newMountedRuntime(t, map[string]string{"input.txt": "x"}, "", &stdout, &stderr)
	or := openInSandbox(t, r, "input.txt", 0, wasi1.FDFlags(1))
	assert.Equal(t, or.Errno, wasi1.ENOSYS)
}

func TestPollOneoffZeroSubscriptionsIsPrecondition(t *testing.T) {
	var stdout, stderr bytes.Buffer
	r := newMountedRuntime(t, nil, "", &stdout, &stderr)
	res := r.PollOneoff(context.Background(), nil)
	assert.Equal(t, res.Value().Errno, wasi1.EINVAL)
}

func TestPollOneoffClockSubscriptionCancellation(t *testing.T) {
	var stdout, stderr bytes.Buffer
	r := newMountedRuntime(t, nil, "", &stdout, &stderr)

	ctx, cancel := context.WithCancel(context.Background())
	v := r.PollOneoff(ctx, []wasi1.Subscription{{
		Userdata: 1,
		Tag:      wasi1.EventTypeClock,
		Clock:    wasi1.SubscriptionClock{ID: wasi1.ClockMonotonic, Timeout: uint64(time.Hour)},
	}})
	assert.Equal(t, v.IsPending(), true)

	cancel()
	out, err := v.Future().Await(context.Background())
	assert.OK(t, err)
	assert.Equal(t, out.Errno, wasi1.ECANCELED)
}
