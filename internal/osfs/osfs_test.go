package osfs_test

import (
	"context"
	"os"
	"testing"

	"github.com/stealthrocket/wasishim/internal/assert"
	"github.com/stealthrocket/wasishim/internal/fsprovider"
	"github.com/stealthrocket/wasishim/internal/osfs"
)

func TestCreateWriteReadBack(t *testing.T) {
	ctx := context.Background()
	fsys := osfs.New(t.TempDir())

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

func TestMissingWithoutCreateIsNotExist(t *testing.T) {
	ctx := context.Background()
	fsys := osfs.New(t.TempDir())

	_, err := fsys.GetFileOrDir("missing", fsprovider.KindFile, fsprovider.OpenFlags{}).Await(ctx)
	assert.Error(t, err, os.ErrNotExist)
}

func TestDirectoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	fsys := osfs.New(t.TempDir())

	_, err := fsys.GetFileOrDir("sub", fsprovider.KindDirectory, fsprovider.OpenFlags{Create: true}).Await(ctx)
	assert.OK(t, err)
	for _, name := range []string{"sub/b", "sub/a"} {
		_, err := fsys.GetFileOrDir(name, fsprovider.KindFile, fsprovider.OpenFlags{Create: true}).Await(ctx)
		assert.OK(t, err)
	}

	h, err := fsys.GetFileOrDir("sub", fsprovider.KindDirectory, fsprovider.OpenFlags{}).Await(ctx)
	assert.OK(t, err)
	entries, err := h.Dir.GetEntries(0).Await(ctx)
	assert.OK(t, err)
	assert.Equal(t, len(entries), 2)
	assert.Equal(t, entries[0].Name, "a")
	assert.Equal(t, entries[1].Name, "b")
}

func TestDeleteNonEmptyDirFails(t *testing.T) {
	ctx := context.Background()
	fsys := osfs.New(t.TempDir())

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
	fsys := osfs.New(t.TempDir())

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
