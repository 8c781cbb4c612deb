package main

import (
	"context"
	"fmt"

	"github.com/stealthrocket/wasishim/internal/fdtable"
	"github.com/stealthrocket/wasishim/internal/wasi1"
)

const resolveUsage = `
Usage:	wasishim resolve [options] <path>

Reports which pre-open mount an absolute guest path would resolve under,
and the path relative to that mount's root, using the fd table's
longest whole-segment prefix lookup. Useful for sanity-checking a
--dir/--mounts configuration before running a guest against it.

Options:
       --dir host:guest    Expose host directory host to the guest at guest path
       --mounts path.yaml  Load a list of {path, dir} mounts from a YAML file
`

func resolve(ctx context.Context, args []string) error {
	var (
		dirs   stringList
		mounts string
	)

	flagSet := newFlagSet("wasishim resolve", resolveUsage)
	customVar(flagSet, &dirs, "dir")
	flagSet.StringVar(&mounts, "mounts", "", "")

	if err := flagSet.Parse(args); err != nil {
		return err
	}

	args = flagSet.Args()
	if len(args) != 1 {
		return usageError(`expected exactly one path argument`)
	}

	preopens, err := buildPreopens(dirs, mounts)
	if err != nil {
		return err
	}

	table := fdtable.New(preopens)
	po, rel, errno := table.FindRelPath(args[0])
	if errno != wasi1.ESUCCESS {
		return fmt.Errorf("%s: no pre-open mount matches this path", args[0])
	}
	fmt.Printf("%s -> %s (relative path %q)\n", args[0], po.Path, rel)
	return nil
}
