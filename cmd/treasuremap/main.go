// Command treasuremap edits and catalogues treasure-map boards against the
// configured map store. Storage and archive backends are chosen from the
// environment (see core.OpenMapStore and blob.Open).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"treasuremap/internal/blob"
	"treasuremap/internal/core"
	"treasuremap/pkg/domain"
)

var (
	exitFunc    = os.Exit
	openStore   = core.OpenMapStore
	openArchive = blob.Open
)

// command runs one subcommand against an assembled app.
type command struct {
	summary string
	archive bool // needs the archive store
	run     func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"save":     {summary: "save a board file as a new map", run: runSave},
	"update":   {summary: "replace the board of an existing map", run: runUpdate},
	"get":      {summary: "print a stored map document", run: runGet},
	"search":   {summary: "list maps with the given chest counts", run: runSearch},
	"list":     {summary: "list every map grouped by chest signature", run: runList},
	"delete":   {summary: "delete a map", run: runDelete},
	"reorder":  {summary: "move a map up or down within its group", run: runReorder},
	"check":    {summary: "check a board file for duplicates", run: runCheck},
	"rotate":   {summary: "show the four rotations of a map", run: runRotate},
	"export":   {summary: "write a map as an exchange document", run: runExport},
	"import":   {summary: "preview an exchange document without saving", run: runImport},
	"archive":  {summary: "store an export of a map in the archive", archive: true, run: runArchive},
	"archives": {summary: "list archived exports", archive: true, run: runArchives},
	"restore":  {summary: "save an archived export as a new map", archive: true, run: runRestore},
	"share":    {summary: "print a share link for an archived export", archive: true, run: runShare},
}

// app bundles what subcommands need.
type app struct {
	svc    *core.Service
	logger *slog.Logger
	stdout io.Writer
	stderr io.Writer
}

// main runs the command-line interface using the program arguments and exits
// the process with the status code returned by cli.
func main() {
	code := cli(os.Args[1:], os.Stdout, os.Stderr)
	exitFunc(code)
}

func cli(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("treasuremap", flag.ContinueOnError)
	fs.SetOutput(stderr)
	levelStr := fs.String("log-level", "warn", "debug|info|warn|error")
	pushURL := fs.String("pushgateway", "", "Prometheus Pushgateway URL to push operation metrics to")
	trace := fs.Bool("trace", false, "write a JSON trace line per operation to stderr")
	fs.Usage = func() { usage(stderr, fs) }
	if err := fs.Parse(args); err != nil {
		return 2
	}
	rest := fs.Args()
	if len(rest) == 0 {
		usage(stderr, fs)
		return 2
	}
	cmd, ok := commands[rest[0]]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n", rest[0])
		usage(stderr, fs)
		return 2
	}

	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: parseLevel(*levelStr)}))
	ctx := context.Background()

	store, err := openStore(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "open store: %v\n", err)
		return 1
	}
	defer func() { _ = store.Close() }()

	reg := prometheus.NewRegistry()
	promMetrics, err := core.NewPrometheusMetricsRecorder(reg)
	if err != nil {
		fmt.Fprintf(stderr, "metrics: %v\n", err)
		return 1
	}
	totals := core.NewExpvarMetricsRecorder("")
	opts := []core.ServiceOption{
		core.WithLogger(logger),
		core.WithMetrics(core.MultiMetricsRecorder{promMetrics, totals}),
	}
	if *trace {
		opts = append(opts, core.WithTracer(core.NewJSONTracer(stderr)))
	}
	if cmd.archive {
		archive, err := openArchive(ctx)
		if err != nil {
			fmt.Fprintf(stderr, "open archive: %v\n", err)
			return 1
		}
		opts = append(opts, core.WithArchive(archive))
	}
	a := &app{svc: core.NewService(store, opts...), logger: logger, stdout: stdout, stderr: stderr}
	logger.Debug("store opened", "driver", store.Driver())

	runErr := cmd.run(ctx, a, rest[1:])
	logger.Debug("operation totals", "results", totals.Snapshot().Results)
	if *pushURL != "" {
		if err := pushMetrics(*pushURL, reg); err != nil {
			logger.Warn("push metrics failed", "url", *pushURL, "err", err)
		}
	}
	if runErr != nil {
		if errors.Is(runErr, flag.ErrHelp) {
			return 2
		}
		fmt.Fprintf(stderr, "%s: %v\n", rest[0], runErr)
		if errors.As(runErr, new(usageError)) {
			return 2
		}
		return 1
	}
	return 0
}

func pushMetrics(url string, g prometheus.Gatherer) error {
	return push.New(url, "treasuremap").Gatherer(g).Push()
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

func usage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, "usage: treasuremap [flags] <command> [args]")
	fmt.Fprintln(w, "\ncommands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-9s %s\n", name, commands[name].summary)
	}
	fmt.Fprintln(w, "\nflags:")
	fs.PrintDefaults()
}

// usageError marks a bad invocation of a subcommand.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func requireOne(args []string, what string) (string, error) {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return "", usageError{msg: "expected exactly one " + what}
	}
	return args[0], nil
}

func warnDecode(a *app, warnings []domain.DecodeWarning) {
	for _, w := range warnings {
		a.logger.Warn("tile decoded with fallback", "tile", w.Index, "field", w.Field, "value", w.Value)
	}
}
