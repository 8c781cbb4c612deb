package fdtable

import (
	"context"

	"github.com/stealthrocket/wasishim/internal/fsprovider"
	"github.com/stealthrocket/wasishim/internal/future"
)

// OpenDirectory is a directory fd: a host directory handle plus a
// resumable enumeration over its entries keyed by a 64-bit cookie -- the
// 0-based position in the enumeration (spec §3).
type OpenDirectory struct {
	Handle fsprovider.DirHandle
}

// GetEntries returns entries starting at the given cookie, restartable from
// any cookie a previous call returned. fd_readdir fetches one entry at a
// time and only ever advances the cookie past an entry it actually wrote to
// the guest buffer (functions.go's readDirLoop), so there is no pushed-back
// entry to account for here.
func (d *OpenDirectory) GetEntries(ctx context.Context, cookie uint64) *future.Future[[]fsprovider.Entry] {
	return d.Handle.GetEntries(int(cookie))
}
