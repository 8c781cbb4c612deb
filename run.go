package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/stealthrocket/wasishim/internal/fdtable"
	"github.com/stealthrocket/wasishim/internal/invocation"
	"github.com/stealthrocket/wasishim/internal/memfs"
	"github.com/stealthrocket/wasishim/internal/osfs"
	"github.com/stealthrocket/wasishim/internal/print/human"
)

const runUsage = `
Usage:	wasishim run [options] [--] <module> [args...]

Options:
   -e, --env name=value    Pass an environment variable to the guest module
       --dir host:guest    Expose host directory host to the guest at guest path
       --mounts path.yaml  Load a list of {path, dir} mounts from a YAML file
   -x, --export name       Call the named export instead of _start (repeatable)
       --restrict          Do not automatically expose the host environment
   -T, --trace             Enable strace-like logging of WASI calls to stderr
       --trace-file path   Write the trace to path instead of stderr
                            (zstd-compressed when path ends in .zst)
       --trace-color yn    Color propagated-error trace lines red (default yes)
`

func run(ctx context.Context, args []string) error {
	var (
		envs      stringList
		dirs      stringList
		exports   stringList
		mounts    string
		restrict  bool
		trace      bool
		traceFile  string
		traceColor = human.Boolean(true)
	)

	flagSet := newFlagSet("wasishim run", runUsage)
	customVar(flagSet, &envs, "e", "env")
	customVar(flagSet, &dirs, "dir")
	customVar(flagSet, &exports, "x", "export")
	flagSet.StringVar(&mounts, "mounts", "", "")
	boolVar(flagSet, &restrict, "restrict")
	boolVar(flagSet, &trace, "T", "trace")
	flagSet.StringVar(&traceFile, "trace-file", "", "")
	customVar(flagSet, &traceColor, "trace-color")

	if err := flagSet.Parse(args); err != nil {
		return err
	}

	args = flagSet.Args()
	if len(args) == 0 {
		return usageError(`missing module path`)
	}

	if !restrict {
		envs = append(os.Environ(), envs...)
	}

	wasmPath := args[0]
	wasmName := filepath.Base(wasmPath)
	code, err := os.ReadFile(wasmPath)
	if err != nil {
		return fmt.Errorf("could not read wasm file %q: %w", wasmPath, err)
	}

	preopens, err := buildPreopens(dirs, mounts)
	if err != nil {
		return err
	}

	var traceWriter io.Writer
	var traceCloser io.Closer
	switch {
	case traceFile != "":
		traceWriter, traceCloser, err = openTraceSink(traceFile)
		if err != nil {
			return err
		}
	case trace:
		traceWriter = os.Stderr
	}
	if traceCloser != nil {
		defer traceCloser.Close()
	}

	cfg := invocation.Config{
		Code:       code,
		Args:       append([]string{wasmName}, args[1:]...),
		Env:        envs,
		Stdin:      os.Stdin,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		PreOpens:   preopens,
		Trace:      traceWriter,
		TraceColor: bool(traceColor),
		Exports:    exports,
	}

	inv, err := invocation.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer inv.Close(ctx)

	code2, err := inv.Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return exitCode(130)
		}
		return err
	}
	if code2 != 0 {
		return exitCode(code2)
	}
	return nil
}

// buildPreopens assembles the pre-open mount list from --dir flags and an
// optional --mounts YAML file. With neither, the guest gets a single
// in-memory mount at "/" (SPEC_FULL's reference provider, used whenever no
// real OS directory is requested).
func buildPreopens(dirs []string, mountsPath string) ([]fdtable.PreOpen, error) {
	var preopens []fdtable.PreOpen

	for _, d := range dirs {
		host, guest, ok := strings.Cut(d, ":")
		if !ok {
			guest = host
		}
		preopens = append(preopens, fdtable.PreOpen{Path: guest, Provider: osfs.New(host)})
	}

	if mountsPath != "" {
		entries, err := loadMounts(mountsPath)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", mountsPath, err)
		}
		for _, m := range entries {
			preopens = append(preopens, fdtable.PreOpen{Path: m.Path, Provider: osfs.New(m.Dir)})
		}
	}

	if len(preopens) == 0 {
		preopens = append(preopens, fdtable.PreOpen{Path: "/", Provider: memfs.New()})
	}

	return preopens, nil
}
