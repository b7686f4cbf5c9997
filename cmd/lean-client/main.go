// ABOUTME: CLI entry point for lean-client: drives a Lean server from the command line
// ABOUTME: Parses flags, loads config, builds the transport, connects a session and dispatches the command

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"golang.org/x/term"

	"github.com/mauromedda/lean-client-go/internal/config"
	lchttp "github.com/mauromedda/lean-client-go/internal/http"
	"github.com/mauromedda/lean-client-go/internal/log"
	"github.com/mauromedda/lean-client-go/internal/render"
	"github.com/mauromedda/lean-client-go/pkg/session"
	"github.com/mauromedda/lean-client-go/pkg/transport"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(realMain(os.Args[1:], os.Stdout, os.Stderr))
}

func realMain(argv []string, stdout, stderr io.Writer) int {
	args, err := parseFlags(argv, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		return 2
	}

	if args.version {
		fmt.Fprintf(stdout, "lean-client %s (%s) built %s\n", version, commit, date)
		return 0
	}

	if err := run(args, stdout, stderr); err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		if errors.Is(err, errUsage) {
			return 2
		}
		return 1
	}
	return 0
}

// run loads config, connects and dispatches to the selected command.
func run(args cliArgs, stdout, stderr io.Writer) error {
	if len(args.rest) == 0 {
		return fmt.Errorf("%w: missing command", errUsage)
	}
	cmd, ok := commands[args.rest[0]]
	if !ok {
		return fmt.Errorf("%w: unknown command %q", errUsage, args.rest[0])
	}
	if len(args.rest)-1 < cmd.minArgs {
		return fmt.Errorf("%w: %s %s", errUsage, args.rest[0], cmd.usage)
	}

	cfg, err := loadConfig(args)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log.SetOutput(stderr)
	if lvl, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}
	if cfg.LogMessages || args.verbose {
		log.SetLevel(log.LevelDebug)
	}

	client := lchttp.AssetClient(0)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	env := &cmdEnv{
		ctx:     ctx,
		printer: newPrinter(stdout, args.noColor),
		out:     stdout,
		client:  client,
	}
	if !cmd.session {
		return cmd.run(env, args.rest[1:])
	}

	tr, err := cfg.NewTransport(client)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, args.timeout)
	defer cancel()
	env.ctx = ctx

	s := session.New(tr)
	unsub := s.Errors().Subscribe(func(e *transport.Error) {
		log.Warn("%v", e)
	})
	defer unsub()

	if err := s.Connect(); err != nil {
		return fmt.Errorf("connecting: %w", err)
	}
	defer s.Dispose()

	env.session = s
	return cmd.run(env, args.rest[1:])
}

func loadConfig(args cliArgs) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if args.config != "" {
		cfg, err = config.LoadFile(args.config)
		if err == nil {
			config.ResolveEnvVars(cfg)
			config.ApplyEnvOverrides(cfg)
		}
	} else {
		var cwd string
		cwd, err = os.Getwd()
		if err == nil {
			cfg, err = config.Load(cwd)
		}
	}
	if err != nil {
		return nil, err
	}

	if args.transport != "" {
		cfg.Transport = args.transport
	}
	if args.lean != "" {
		cfg.Process.Executable = args.lean
	}
	if args.cwd != "" {
		cfg.Process.WorkingDirectory = args.cwd
	}
	return cfg, cfg.Validate()
}

// newPrinter enables color and measures width only on a terminal.
func newPrinter(out io.Writer, noColor bool) *render.Printer {
	f, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return render.NewPrinter(out, 0, false)
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		width = 0
	}
	return render.NewPrinter(out, width, !noColor)
}
