package main

import (
	"context"
	"fmt"
	"runtime/debug"
)

const versionUsage = `
Usage:	wasishim version

Options:
   -h, --help  Show this usage information
`

func version(ctx context.Context, args []string) error {
	flagSet := newFlagSet("wasishim version", versionUsage)
	parseFlags(flagSet, args)
	fmt.Printf("wasishim %s\n", currentVersion())
	return nil
}

func currentVersion() string {
	v := "devel"
	if info, ok := debug.ReadBuildInfo(); ok {
		switch info.Main.Version {
		case "", "(devel)":
		default:
			v = info.Main.Version
		}
	}
	return v
}
