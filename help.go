package main

import (
	"context"
	"fmt"
)

const helpUsage = `
Usage:	wasishim <command> [options]

Runtime Commands:
   run      Run a WebAssembly module against a virtual filesystem
   resolve  Show which pre-open mount an absolute guest path resolves under

Other Commands:
   help     Show usage information about wasishim commands
   version  Show the wasishim version information

For a description of each command, run 'wasishim help <command>'.`

func help(ctx context.Context, args []string) error {
	flagSet := newFlagSet("wasishim help", helpUsage)
	parseFlags(flagSet, args)

	var cmd string
	if args = flagSet.Args(); len(args) > 0 {
		cmd = args[0]
	}

	var msg string
	switch cmd {
	case "help", "":
		msg = helpUsage
	case "run":
		msg = runUsage
	case "resolve":
		msg = resolveUsage
	case "version":
		msg = versionUsage
	default:
		fmt.Printf("wasishim help %s: unknown command\n", cmd)
		return exitCode(1)
	}

	fmt.Println(msg)
	return nil
}
