// ABOUTME: CLI flag parsing using stdlib flag package
// ABOUTME: Supports --config, --lean, --cwd, --transport, --timeout, --v, --no-color, --version

package main

import (
	"flag"
	"fmt"
	"io"
	"time"
)

type cliArgs struct {
	config    string
	lean      string
	cwd       string
	transport string
	timeout   time.Duration
	verbose   bool
	noColor   bool
	version   bool
	rest      []string
}

func parseFlags(argv []string, stderr io.Writer) (cliArgs, error) {
	var args cliArgs

	fs := flag.NewFlagSet("lean-client", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&args.config, "config", "", "Config file (overrides ~/.lean-client and .lean-client)")
	fs.StringVar(&args.lean, "lean", "", "Path to the lean executable")
	fs.StringVar(&args.cwd, "cwd", "", "Working directory for the server process")
	fs.StringVar(&args.transport, "transport", "", "Transport: process, worker or invm")
	fs.DurationVar(&args.timeout, "timeout", 2*time.Minute, "Give up after this long")
	fs.BoolVar(&args.verbose, "v", false, "Log server traffic")
	fs.BoolVar(&args.noColor, "no-color", false, "Disable colored output")
	fs.BoolVar(&args.version, "version", false, "Show version and exit")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: lean-client [flags] <command> [args]\n\ncommands:\n%s\nflags:\n", commandHelp())
		fs.PrintDefaults()
	}

	if err := fs.Parse(argv); err != nil {
		return args, err
	}
	args.rest = fs.Args()
	return args, nil
}
