package fdtable

import (
	"context"
	"os"

	"github.com/stealthrocket/wasishim/internal/fsprovider"
	"github.com/stealthrocket/wasishim/internal/future"
	"github.com/stealthrocket/wasishim/internal/wasi1types"
)

// OpenResult is what Open eventually resolves to: a new fd, or a failure.
type OpenResult struct {
	FD    wasi1types.FD
	Errno wasi1types.Errno
}

// Open resolves relPath against preopen's root, applies the creation,
// exclusivity, truncation and directory-only flags from oflags, and
// allocates a new fd for the result (spec §4.B open).
func (t *Table) Open(ctx context.Context, preopen *PreOpen, relPath string, oflags wasi1types.OFlags) *future.Future[OpenResult] {
	clean, errno := ResolveUnderPreopen(relPath)
	if errno != wasi1types.ESUCCESS {
		return future.Done(OpenResult{Errno: errno}, nil)
	}

	kind := fsprovider.Kind(-1)
	if oflags.Has(wasi1types.OFlagDirectory) {
		kind = fsprovider.KindDirectory
	}

	pending := preopen.Provider.GetFileOrDir(clean, kind, fsprovider.OpenFlags{
		Create:    oflags.Has(wasi1types.OFlagCreate),
		Exclusive: oflags.Has(wasi1types.OFlagExclusive),
		Truncate:  oflags.Has(wasi1types.OFlagTruncate),
		Directory: oflags.Has(wasi1types.OFlagDirectory),
	})

	return future.Map(ctx, pending, func(h fsprovider.Handle, err error) (OpenResult, error) {
		if err != nil {
			errno, ok := TranslateError(err)
			if !ok {
				return OpenResult{}, err
			}
			return OpenResult{Errno: errno}, nil
		}
		switch h.Kind {
		case fsprovider.KindDirectory:
			// Opening a directory without O_DIRECTORY succeeds (fd_readdir
			// is routinely called on such fds); only an explicit request to
			// truncate it -- using it "as a file" -- is rejected.
			if oflags.Has(wasi1types.OFlagTruncate) {
				return OpenResult{Errno: wasi1types.EISDIR}, nil
			}
			fd := t.InsertDir(&OpenDirectory{Handle: h.Dir})
			return OpenResult{FD: fd}, nil
		default:
			if oflags.Has(wasi1types.OFlagDirectory) {
				return OpenResult{Errno: wasi1types.ENOTDIR}, nil
			}
			of := &OpenFile{Handle: h.File}
			if oflags.Has(wasi1types.OFlagTruncate) {
				if _, err := h.File.SetSize(0).Await(ctx); err != nil {
					errno, ok := TranslateError(err)
					if !ok {
						return OpenResult{}, err
					}
					return OpenResult{Errno: errno}, nil
				}
			}
			fd := t.InsertFile(of)
			return OpenResult{FD: fd}, nil
		}
	})
}

// TranslateError maps a host-provider error to the WASI errno taxonomy, per
// spec §7's translation table. The second return value reports whether err
// was recognised: false means the error must propagate and abort the
// invocation rather than degrade to a guest-visible errno, per spec §7
// ("any unrecognised error is re-thrown and aborts the entire invocation").
func TranslateError(err error) (wasi1types.Errno, bool) {
	switch {
	case os.IsNotExist(err):
		return wasi1types.ENOENT, true
	case os.IsExist(err):
		return wasi1types.EEXIST, true
	case os.IsPermission(err):
		return wasi1types.EACCES, true
	case err == fsprovider.ErrNotEmpty:
		return wasi1types.ENOTEMPTY, true
	case err == os.ErrInvalid:
		return wasi1types.EINVAL, true
	case err == context.Canceled:
		return wasi1types.ECANCELED, true
	default:
		return 0, false
	}
}
