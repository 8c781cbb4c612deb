package memfs_test

import (
	"context"
	"os"
	"testing"

	"github.com/stealthrocket/wasishim/internal/assert"
	"github.com/stealthrocket/wasishim/internal/fsprovider"
	"github.com/stealthrocket/wasishim/internal/memfs"
)

func TestCreateWriteReadBack(t *testing.T) {
	ctx := context.Background()
	fsys := memfs.New()

	h, err := fsys.GetFileOrDir("greeting.txt", fsprovider.KindFile, fsprovider.OpenFlags{Create: true}).Await(ctx)
	assert.OK(t, err)
	assert.Equal(t, h.Kind, fsprovider.KindFile)

	n, err := h.File.WriteAt([]byte("hello"), 0).Await(ctx)
	assert.OK(t, err)
	assert.Equal(t, n, 5)

	buf := make([]byte, 5)
	n, err = h.File.ReadAt(buf, 0).Await(ctx)
	assert.OK(t, err)
	assert.Equal(t, n, 5)
	assert.Equal(t, string(buf), "hello")
}

func TestExclusiveCreateFailsWhenPresent(t *testing.T) {
	ctx := context.Background()
	fsys := memfs.New()

	_, err := fsys.GetFileOrDir("a", fsprovider.KindFile, fsprovider.OpenFlags{Create: true}).Await(ctx)
	assert.OK(t, err)

	_, err = fsys.GetFileOrDir("a", fsprovider.KindFile, fsprovider.OpenFlags{Create: true, Exclusive: true}).Await(ctx)
	assert.Error(t, err, os.ErrExist)
}

func TestMissingWithoutCreateIsNotExist(t *testing.T) {
	ctx := context.Background()
	fsys := memfs.New()

	_, err := fsys.GetFileOrDir("missing", fsprovider.KindFile, fsprovider.OpenFlags{}).Await(ctx)
	assert.Error(t, err, os.ErrNotExist)
}

func TestDirectoryEntriesSortedAndResumable(t *testing.T) {
	ctx := context.Background()
	fsys := memfs.New()
	for _, name := range []string{"b", "a", "c"} {
		_, err := fsys.GetFileOrDir(name, fsprovider.KindFile, fsprovider.OpenFlags{Create: true}).Await(ctx)
		assert.OK(t, err)
	}

	h, err := fsys.GetFileOrDir(".", fsprovider.KindDirectory, fsprovider.OpenFlags{}).Await(ctx)
	assert.OK(t, err)

	entries, err := h.Dir.GetEntries(0).Await(ctx)
	assert.OK(t, err)
	assert.Equal(t, len(entries), 3)
	assert.Equal(t, entries[0].Name, "a")
	assert.Equal(t, entries[1].Name, "b")
	assert.Equal(t, entries[2].Name, "c")

	rest, err := h.Dir.GetEntries(2).Await(ctx)
	assert.OK(t, err)
	assert.Equal(t, len(rest), 1)
	assert.Equal(t, rest[0].Name, "c")
}

func TestDeleteNonEmptyDirFails(t *testing.T) {
	ctx := context.Background()
	fsys := memfs.New()

	_, err := fsys.GetFileOrDir("dir", fsprovider.KindDirectory, fsprovider.OpenFlags{Create: true}).Await(ctx)
	assert.OK(t, err)
	_, err = fsys.GetFileOrDir("dir/child", fsprovider.KindFile, fsprovider.OpenFlags{Create: true}).Await(ctx)
	assert.OK(t, err)

	_, err = fsys.Delete("dir").Await(ctx)
	assert.Error(t, err, fsprovider.ErrNotEmpty)

	_, err = fsys.Delete("dir/child").Await(ctx)
	assert.OK(t, err)
	_, err = fsys.Delete("dir").Await(ctx)
	assert.OK(t, err)
}

func TestTruncateOnOpen(t *testing.T) {
	ctx := context.Background()
	fsys := memfs.New()

	h, err := fsys.GetFileOrDir("f", fsprovider.KindFile, fsprovider.OpenFlags{Create: true}).Await(ctx)
	assert.OK(t, err)
	_, err = h.File.WriteAt([]byte("data"), 0).Await(ctx)
	assert.OK(t, err)

	h, err = fsys.GetFileOrDir("f", fsprovider.KindFile, fsprovider.OpenFlags{Truncate: true}).Await(ctx)
	assert.OK(t, err)
	info, err := h.File.GetFile().Await(ctx)
	assert.OK(t, err)
	assert.Equal(t, info.Size, uint64(0))
}
