// ABOUTME: Subcommands: check, info, complete, search, demo and serve-worker
// ABOUTME: Each syncs what it needs through the session and prints via the render package

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	lchttp "github.com/mauromedda/lean-client-go/internal/http"
	"github.com/mauromedda/lean-client-go/internal/log"
	"github.com/mauromedda/lean-client-go/internal/render"
	"github.com/mauromedda/lean-client-go/pkg/fuzzy"
	"github.com/mauromedda/lean-client-go/pkg/protocol"
	"github.com/mauromedda/lean-client-go/pkg/session"
	"github.com/mauromedda/lean-client-go/pkg/transport/worker"
)

var errUsage = errors.New("usage")

type cmdEnv struct {
	ctx context.Context
	// session is nil for commands that do not talk to a server.
	session *session.Session
	printer *render.Printer
	out     io.Writer
	client  *http.Client
}

type command struct {
	usage   string
	help    string
	minArgs int
	session bool
	run     func(env *cmdEnv, args []string) error
}

var commands = map[string]command{
	"check":        {"FILE...", "check files and print their diagnostics", 1, true, runCheck},
	"info":         {"FILE LINE COL", "show information at a position", 3, true, runInfo},
	"complete":     {"FILE LINE COL [PREFIX]", "list completions at a position", 3, true, runComplete},
	"search":       {"QUERY", "search declarations by name", 1, true, runSearch},
	"demo":         {"", "sync a sample file, query it, restart and repeat", 0, true, runDemo},
	"serve-worker": {"[ADDR]", "host in-memory engines for remote worker clients", 0, false, runServeWorker},
}

func commandHelp() string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	var b strings.Builder
	for _, name := range names {
		c := commands[name]
		fmt.Fprintf(&b, "  %-13s %-24s %s\n", name, c.usage, c.help)
	}
	return b.String()
}

// syncFile sends path's content and returns its lines.
func syncFile(env *cmdEnv, path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	content := string(data)
	if _, err := env.session.Sync(env.ctx, path, content); err != nil {
		return nil, fmt.Errorf("syncing %s: %w", path, err)
	}
	return strings.Split(content, "\n"), nil
}

func position(args []string) (line, col int, err error) {
	if line, err = strconv.Atoi(args[0]); err != nil {
		return 0, 0, fmt.Errorf("%w: line %q is not a number", errUsage, args[0])
	}
	if col, err = strconv.Atoi(args[1]); err != nil {
		return 0, 0, fmt.Errorf("%w: column %q is not a number", errUsage, args[1])
	}
	return line, col, nil
}

// runCheck syncs every file, declares them all visible, and prints the
// diagnostics once the server reports it is idle.
func runCheck(env *cmdEnv, files []string) error {
	var (
		mu  sync.Mutex
		roi *session.Future
	)
	idle := make(chan struct{}, 1)
	unsub := env.session.Tasks().Subscribe(func(t *protocol.CurrentTasksResponse) {
		mu.Lock()
		f := roi
		mu.Unlock()
		if t.IsRunning || f == nil {
			return
		}
		// Snapshots handled before the roi reply describe the previous state.
		select {
		case <-f.Done():
		default:
			return
		}
		select {
		case idle <- struct{}{}:
		default:
		}
	})
	defer unsub()

	sources := make(map[string][]string, len(files))
	rois := make([]protocol.FileRoi, 0, len(files))
	for _, f := range files {
		lines, err := syncFile(env, f)
		if err != nil {
			return err
		}
		sources[f] = lines
		rois = append(rois, protocol.WholeFile(f))
	}

	mu.Lock()
	roi = env.session.Go(&protocol.RoiRequest{Mode: protocol.CheckVisibleFiles, Files: rois})
	mu.Unlock()
	if _, err := roi.Await(env.ctx); err != nil {
		return fmt.Errorf("declaring region of interest: %w", err)
	}

	select {
	case <-idle:
	case <-env.ctx.Done():
		log.Warn("server still busy, printing partial results: %v", env.ctx.Err())
	}

	var msgs []protocol.Message
	for _, m := range env.session.CurrentMessages() {
		if _, ok := sources[m.FileName]; ok {
			msgs = append(msgs, m)
		}
	}
	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].FileName != msgs[j].FileName {
			return msgs[i].FileName < msgs[j].FileName
		}
		if msgs[i].PosLine != msgs[j].PosLine {
			return msgs[i].PosLine < msgs[j].PosLine
		}
		return msgs[i].PosCol < msgs[j].PosCol
	})
	env.printer.Diagnostics(msgs, sources)

	for _, m := range msgs {
		if m.Severity == protocol.SeverityError {
			return errors.New("check failed")
		}
	}
	return nil
}

func runInfo(env *cmdEnv, args []string) error {
	line, col, err := position(args[1:])
	if err != nil {
		return err
	}
	if _, err := syncFile(env, args[0]); err != nil {
		return err
	}
	res, err := env.session.Info(env.ctx, args[0], line, col)
	if err != nil {
		return err
	}
	env.printer.Info(res.Record)
	return nil
}

func runComplete(env *cmdEnv, args []string) error {
	line, col, err := position(args[1:])
	if err != nil {
		return err
	}
	if _, err := syncFile(env, args[0]); err != nil {
		return err
	}
	res, err := env.session.Complete(env.ctx, args[0], line, col, false)
	if err != nil {
		return err
	}
	pattern := res.Prefix
	if len(args) > 3 {
		pattern = args[3]
	}
	env.printer.Completions(fuzzy.Completions(pattern, res.Completions))
	return nil
}

func runSearch(env *cmdEnv, args []string) error {
	query := strings.Join(args, " ")
	res, err := env.session.Search(env.ctx, query)
	if err != nil {
		return err
	}
	ranked := fuzzy.SearchResults(query, res.Results)
	items := make([]protocol.SearchItem, len(ranked))
	for i, m := range ranked {
		items[i] = m.Item
	}
	if len(ranked) == 0 {
		items = res.Results
	}
	env.printer.SearchResults(items)
	return nil
}

const demoFile = "variables p q r s : Prop\n" +
	"theorem my_and_comm : p /\\ q <-> q /\\ p :=\n" +
	"iff.intro\n" +
	"  (assume Hpq : p /\\ q,\n" +
	"    and.intro (and.elim_right Hpq) (and.elim_left Hpq))\n" +
	"  (assume Hqp : q /\\ p,\n" +
	"    and.intro (and.elim_right Hqp) (and.elim_left Hqp))\n" +
	"#check @nat.rec_on\n" +
	"#print \"end of file!\"\n"

// runDemo exercises the session the way an editor would: sync, a
// fire-and-forget request, a query, then a restart and the same again.
func runDemo(env *cmdEnv, _ []string) error {
	s := env.session
	unsubMsgs := s.AllMessages().Subscribe(func(r *protocol.AllMessagesResponse) {
		fmt.Fprintf(env.out, "messages: %d\n", len(r.Msgs))
	})
	defer unsubMsgs()
	unsubTasks := s.Tasks().Subscribe(env.printer.Tasks)
	defer unsubTasks()

	file := filepath.Join(os.TempDir(), "test.lean")
	source := strings.Split(demoFile, "\n")

	round := func() error {
		if _, err := s.Sync(env.ctx, file, demoFile); err != nil {
			fmt.Fprintf(env.out, "error while syncing file: %v\n", err)
		}
		s.Go(&protocol.SleepRequest{})
		res, err := s.Info(env.ctx, file, 3, 0)
		if err != nil {
			fmt.Fprintf(env.out, "error while getting info: %v\n", err)
			return nil
		}
		env.printer.Info(res.Record)
		return env.ctx.Err()
	}

	if err := round(); err != nil {
		return err
	}
	if err := s.Restart(); err != nil {
		return fmt.Errorf("restarting: %w", err)
	}
	if err := round(); err != nil {
		return err
	}
	env.printer.Diagnostics(s.CurrentMessages(), map[string][]string{file: source})
	return nil
}

// runServeWorker serves worker connections until interrupted. Each client
// gets its own in-memory engine, so only one can be active at a time.
func runServeWorker(env *cmdEnv, args []string) error {
	addr := ":8080"
	if len(args) > 0 {
		addr = args[0]
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	srv := lchttp.WorkerServer(worker.Handler(worker.InVMTransport(env.client)), addr)
	fmt.Fprintf(env.out, "serving workers on ws://%s\n", ln.Addr())

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		return err
	case <-env.ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
