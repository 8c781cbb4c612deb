package fdtable_test

import (
	"testing"

	"github.com/stealthrocket/wasishim/internal/assert"
	"github.com/stealthrocket/wasishim/internal/fdtable"
	"github.com/stealthrocket/wasishim/internal/memfs"
	"github.com/stealthrocket/wasishim/internal/wasi1types"
)

func newTable() *fdtable.Table {
	return fdtable.New([]fdtable.PreOpen{
		{Path: "/sandbox", Provider: memfs.New()},
		{Path: "/other", Provider: memfs.New()},
	})
}

func TestPreopensOccupyLowestFdsInOrder(t *testing.T) {
	table := newTable()
	po, errno := table.GetPreOpen(fdtable.FirstPreopenFD)
	assert.Equal(t, errno, wasi1types.ESUCCESS)
	assert.Equal(t, po.Path, "/sandbox")

	po, errno = table.GetPreOpen(fdtable.FirstPreopenFD + 1)
	assert.Equal(t, errno, wasi1types.ESUCCESS)
	assert.Equal(t, po.Path, "/other")
}

func TestGetPreOpenOnUnknownFdIsEBADF(t *testing.T) {
	table := newTable()
	_, errno := table.GetPreOpen(fdtable.FirstPreopenFD + 99)
	assert.Equal(t, errno, wasi1types.EBADF)
}

func TestInsertAllocatesLowestUnusedFd(t *testing.T) {
	table := newTable()
	first := table.InsertFile(&fdtable.OpenFile{})
	assert.Equal(t, first, fdtable.FirstPreopenFD+2)

	assert.Equal(t, table.Close(first), wasi1types.ESUCCESS)

	second := table.InsertDir(&fdtable.OpenDirectory{})
	assert.Equal(t, second, fdtable.FirstPreopenFD+2)
}

func TestCloseOnStdioFdsIsNoop(t *testing.T) {
	table := newTable()
	assert.Equal(t, table.Close(0), wasi1types.ESUCCESS)
	assert.Equal(t, table.Close(1), wasi1types.ESUCCESS)
	assert.Equal(t, table.Close(2), wasi1types.ESUCCESS)
}

func TestCloseOnPreopenIsNotCapable(t *testing.T) {
	table := newTable()
	assert.Equal(t, table.Close(fdtable.FirstPreopenFD), wasi1types.ENOTCAPABLE)
}

func TestCloseOnUnknownDynamicFdIsEBADF(t *testing.T) {
	table := newTable()
	assert.Equal(t, table.Close(fdtable.FirstPreopenFD+50), wasi1types.EBADF)
}

func TestGetFileOnDirFdIsEISDIR(t *testing.T) {
	table := newTable()
	fd := table.InsertDir(&fdtable.OpenDirectory{})
	_, errno := table.GetFile(fd)
	assert.Equal(t, errno, wasi1types.EISDIR)
}

func TestGetDirOnFileFdIsENOTDIR(t *testing.T) {
	table := newTable()
	fd := table.InsertFile(&fdtable.OpenFile{})
	_, errno := table.GetDir(fd)
	assert.Equal(t, errno, wasi1types.ENOTDIR)
}

func TestRenumberRelocatesAndClosesTarget(t *testing.T) {
	table := newTable()
	from := table.InsertFile(&fdtable.OpenFile{Position: 7})
	to := table.InsertFile(&fdtable.OpenFile{Position: 0})

	assert.Equal(t, table.Renumber(from, to), wasi1types.ESUCCESS)

	_, errno := table.GetFile(from)
	assert.Equal(t, errno, wasi1types.EBADF)

	f, errno := table.GetFile(to)
	assert.Equal(t, errno, wasi1types.ESUCCESS)
	assert.Equal(t, f.Position, int64(7))
}

func TestRenumberUnknownFromIsEBADF(t *testing.T) {
	table := newTable()
	assert.Equal(t, table.Renumber(fdtable.FirstPreopenFD+50, fdtable.FirstPreopenFD+51), wasi1types.EBADF)
}

func TestFindRelPathPicksLongestWholeSegmentPrefix(t *testing.T) {
	table := fdtable.New([]fdtable.PreOpen{
		{Path: "/sandbox", Provider: memfs.New()},
		{Path: "/sandbox/nested", Provider: memfs.New()},
	})

	po, rel, errno := table.FindRelPath("/sandbox/nested/file.txt")
	assert.Equal(t, errno, wasi1types.ESUCCESS)
	assert.Equal(t, po.Path, "/sandbox/nested")
	assert.Equal(t, rel, "file.txt")

	po, rel, errno = table.FindRelPath("/sandbox/file.txt")
	assert.Equal(t, errno, wasi1types.ESUCCESS)
	assert.Equal(t, po.Path, "/sandbox")
	assert.Equal(t, rel, "file.txt")
}

func TestFindRelPathRejectsPartialSegmentMatch(t *testing.T) {
	table := fdtable.New([]fdtable.PreOpen{{Path: "/sandbox", Provider: memfs.New()}})
	_, _, errno := table.FindRelPath("/sandbox2/file.txt")
	assert.Equal(t, errno, wasi1types.ENOENT)
}

func TestResolveUnderPreopenRejectsEscape(t *testing.T) {
	_, errno := fdtable.ResolveUnderPreopen("../escape.txt")
	assert.Equal(t, errno, wasi1types.ENOTCAPABLE)
}

func TestResolveUnderPreopenCleansPath(t *testing.T) {
	rel, errno := fdtable.ResolveUnderPreopen("./a/../b/c")
	assert.Equal(t, errno, wasi1types.ESUCCESS)
	assert.Equal(t, rel, "b/c")
}
