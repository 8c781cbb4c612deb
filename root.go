package main

// Notes on program structure
// --------------------------
//
// wasishim uses subcommands to invoke specific functionality of the
// program. Each subcommand is implemented by a function named after the
// command, in a file of the same name (e.g. the "run" command is
// implemented by the run function in run.go).
//
// The usage message for each command is declared by a constant starting
// with the command name and followed by the suffix "Usage". The usage
// message contains a "Usage:	wasishim <command>" section presenting the
// structure of the command. Note the tabulation separating "Usage:" and
// "wasishim".

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"strings"

	"github.com/stealthrocket/wasishim/internal/print/human"
	"golang.org/x/exp/slices"
)

const rootUsage = `wasishim - a WASI preview1 host runtime

   wasishim runs WebAssembly modules compiled against wasi_snapshot_preview1
   against an asynchronous host filesystem, bridging the two through an
   asyncify unwind/rewind trampoline.

Example:

   $ wasishim run --dir .:/sandbox -- app.wasm
   ...

For a list of commands available, run 'wasishim help'.`

// root is the wasishim entrypoint.
func root(ctx context.Context, args ...string) int {
	var (
		// Secret options, undocumented, for development use only.
		cpuProfile human.Path
		memProfile human.Path
	)

	flagSet := newFlagSet("wasishim", rootUsage)
	customVar(flagSet, &cpuProfile, "cpuprofile")
	customVar(flagSet, &memProfile, "memprofile")
	_ = flagSet.Parse(args)

	if args = flagSet.Args(); len(args) == 0 {
		fmt.Println(rootUsage)
		return 0
	}

	if cpuProfile != "" {
		f, err := os.Create(string(cpuProfile))
		if err != nil {
			fmt.Fprintf(os.Stderr, "WARN: could not create CPU profile: %s\n", err)
		} else {
			defer f.Close()
			_ = pprof.StartCPUProfile(f)
			defer pprof.StopCPUProfile()
		}
	}

	if memProfile != "" {
		defer func() {
			f, err := os.Create(string(memProfile))
			if err != nil {
				fmt.Fprintf(os.Stderr, "WARN: could not create memory profile: %s\n", err)
				return
			}
			defer f.Close()
			runtime.GC()
			_ = pprof.WriteHeapProfile(f)
		}()
	}

	cmd, args := args[0], args[1:]

run_command:
	var err error
	switch cmd {
	case "help":
		err = help(ctx, args)
	case "run":
		err = run(ctx, args)
	case "resolve":
		err = resolve(ctx, args)
	case "version":
		err = version(ctx, args)
	default:
		err = usageError("wasishim %s: unknown command", cmd)
	}

	switch e := err.(type) {
	case nil:
		return 0
	case exitCode:
		return int(e)
	case restart:
		goto run_command
	case usage:
		fmt.Fprintf(os.Stderr, "%s\n", e)
		return 2
	default:
		fmt.Fprintf(os.Stderr, "ERR: wasishim %s: %s\n", cmd, err)
		return 1
	}
}

// exitCode is an error type returned from command functions to indicate the
// exit code that should be returned by the program.
type exitCode int

func (e exitCode) Error() string {
	return fmt.Sprintf("exit: %d", e)
}

// restart is an error type returned from command functions to indicate that
// a command should be restarted.
type restart struct{}

func (restart) Error() string { return "restart" }

// usage is an error type returned from command functions to indicate a usage
// error. Usage errors cause the program to exit with status code 2.
type usage string

func usageError(msg string, args ...any) error {
	return usage(fmt.Sprintf(msg, args...))
}

func (e usage) Error() string {
	return string(e)
}

type stringList []string

func (s stringList) String() string {
	return fmt.Sprintf("%v", []string(s))
}

func (s *stringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}

func newFlagSet(cmd, usage string) *flag.FlagSet {
	usage = strings.TrimSpace(usage)
	flagSet := flag.NewFlagSet(cmd, flag.ExitOnError)
	flagSet.Usage = func() { fmt.Println(usage) }
	return flagSet
}

// parseFlags is a greedy parser which consumes all options known to f and
// returns the remaining arguments.
func parseFlags(f *flag.FlagSet, args []string) []string {
	var unknownArgs []string
	for {
		if err := f.Parse(args); err != nil {
			panic(err)
		}
		if args = f.Args(); len(args) == 0 {
			return unknownArgs
		}
		i := slices.IndexFunc(args, func(s string) bool {
			return strings.HasPrefix(s, "-")
		})
		if i < 0 {
			i = len(args)
		} else if args[i] == "-" {
			i++
		}
		if i == 0 {
			panic("parsing command line arguments did not error on " + args[0])
		}
		unknownArgs = append(unknownArgs, args[:i]...)
		args = args[i:]
	}
}

func boolVar(f *flag.FlagSet, dst *bool, name string, alias ...string) {
	f.BoolVar(dst, name, *dst, "")
	for _, name := range alias {
		f.BoolVar(dst, name, *dst, "")
	}
}

func customVar(f *flag.FlagSet, dst flag.Value, name string, alias ...string) {
	f.Var(dst, name, "")
	for _, name := range alias {
		f.Var(dst, name, "")
	}
}
