package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/staleness/internal/config"
	"github.com/roach88/staleness/internal/metrics"
	"github.com/roach88/staleness/internal/sourcemap"
	"github.com/roach88/staleness/internal/staleness"
	"github.com/roach88/staleness/internal/store"
	"github.com/roach88/staleness/internal/trace"
)

// stdio names standard input or output in path flags.
const stdio = "-"

// AnalyzeOptions holds flags for the analyze command.
type AnalyzeOptions struct {
	*RootOptions
	Out            string
	Database       string
	ConfigPath     string
	MetricsFile    string
	GlobalObjectID int64
}

// AnalyzeResult summarizes one analyze invocation.
type AnalyzeResult struct {
	Trace   string `json:"trace"`
	Events  int    `json:"events"`
	Lines   int    `json:"lines"`
	Records int    `json:"records"`
	Output  string `json:"output"`
	RunID   string `json:"run_id,omitempty"`
}

func (r AnalyzeResult) String() string {
	s := fmt.Sprintf("Analyzed %s: %d events, %d records -> %s", r.Trace, r.Events, r.Records, r.Output)
	if r.RunID != "" {
		s += fmt.Sprintf(" (run %s)", r.RunID)
	}
	return s
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AnalyzeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "analyze <trace.jsonl>",
		Short: "Replay a trace and emit staleness records",
		Long: `Replay an instrumentation trace and emit one staleness record per object
that became unreachable.

Records are written as JSON arrays, one per line, to stdout or --out. With
--db they are appended to a SQLite database as a new run instead. Use "-"
to read the trace from stdin.

Examples:
  staleness analyze trace.jsonl > records.jsonl
  staleness analyze --out records.jsonl trace.jsonl
  staleness analyze --db runs.db --metrics-file staleness.prom trace.jsonl
  staleness analyze --config staleness.yaml trace.jsonl`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "JSONL output file (default stdout)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "append records to this SQLite database")
	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "YAML configuration file")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "write Prometheus metrics to this textfile at exit")
	cmd.Flags().Int64Var(&opts.GlobalObjectID, "global-id", int64(staleness.DefaultGlobalObjectID), "object id reserved for the global object")
	cmd.MarkFlagsMutuallyExclusive("out", "db")

	return cmd
}

func runAnalyze(opts *AnalyzeOptions, tracePath string, cmd *cobra.Command) error {
	cfg, err := resolveConfig(opts, cmd)
	if err != nil {
		return err
	}
	setupLogging(cmd.ErrOrStderr(), cfg.SlogLevel(), opts.Verbose)

	in, closeIn, err := openTrace(tracePath, cmd.InOrStdin())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open trace", err)
	}
	defer closeIn()

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var reg *prometheus.Registry
	var collector *metrics.Collector
	if cfg.Metrics.Textfile != "" {
		reg = prometheus.NewRegistry()
		collector = metrics.New(reg)
	}

	src := sourcemap.New()
	analysisOpts := []staleness.AnalysisOption{
		staleness.WithGlobalObjectID(staleness.ObjectID(cfg.GlobalObjectID)),
		staleness.WithFormatter(src),
	}
	replayOpts := []trace.ReplayOption{trace.WithSourceMap(src)}
	if collector != nil {
		analysisOpts = append(analysisOpts, staleness.WithObserver(collector))
		replayOpts = append(replayOpts, trace.WithObserver(collector.ObserveEvent))
	}

	result := AnalyzeResult{Trace: tracePath}
	summary := cmd.OutOrStdout()

	slog.Info("analysis starting", "trace", tracePath, "format", cfg.Output.Format)

	var stats trace.Stats
	var runErr error
	switch cfg.Output.Format {
	case config.FormatSQLite:
		st, err := store.Open(cfg.Output.DB)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()

		run, err := st.BeginRun(ctx, tracePath)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to start run", err)
		}

		a := staleness.New(run, analysisOpts...)
		stats, runErr = trace.Replay(ctx, in, a, replayOpts...)
		if err := run.Finish(context.WithoutCancel(ctx), stats.Events, runErr); err != nil && runErr == nil {
			runErr = err
		}
		result.Records = a.Emitted()
		result.Output = cfg.Output.DB
		result.RunID = run.ID()

	default:
		out, closeOut, err := openOutput(cfg.Output.Path, cmd.OutOrStdout())
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open output", err)
		}
		if cfg.Output.Path == "" || cfg.Output.Path == stdio {
			summary = cmd.ErrOrStderr()
			result.Output = "stdout"
		} else {
			result.Output = cfg.Output.Path
		}

		a := staleness.New(staleness.NewJSONLSink(out), analysisOpts...)
		stats, runErr = trace.Replay(ctx, in, a, replayOpts...)
		if err := closeOut(); err != nil && runErr == nil {
			runErr = err
		}
		result.Records = a.Emitted()
	}

	result.Events = stats.Events
	result.Lines = stats.Lines

	if collector != nil {
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile, reg); err != nil {
			slog.Error("failed to write metrics", "path", cfg.Metrics.Textfile, "error", err)
			if runErr == nil {
				runErr = err
			}
		}
	}

	formatter := newFormatter(opts.RootOptions, cmd)
	formatter.Writer = summary

	if runErr != nil {
		slog.Error("analysis failed", "trace", tracePath, "lines", stats.Lines, "error", runErr)
		exitErr := classifyRunError(runErr)
		if opts.Format == "json" {
			_ = formatter.Error(ErrorCode(runErr), exitErr.Error(), errorDetails(runErr))
		}
		return exitErr
	}

	slog.Info("analysis finished", "events", result.Events, "records", result.Records)
	return formatter.Success(result)
}

// resolveConfig loads the config file, if any, and applies explicitly set
// flags on top.
func resolveConfig(opts *AnalyzeOptions, cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if opts.ConfigPath != "" {
		loaded, err := config.Load(opts.ConfigPath)
		if err != nil {
			return config.Config{}, WrapExitError(ExitCommandError, "failed to load config", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("out") {
		cfg.Output.Format = config.FormatJSONL
		cfg.Output.Path = opts.Out
	}
	if flags.Changed("db") {
		cfg.Output.Format = config.FormatSQLite
		cfg.Output.DB = opts.Database
	}
	if flags.Changed("metrics-file") {
		cfg.Metrics.Textfile = opts.MetricsFile
	}
	if flags.Changed("global-id") {
		cfg.GlobalObjectID = opts.GlobalObjectID
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	return cfg, nil
}

// classifyRunError maps a replay failure to an exit code.
func classifyRunError(err error) *ExitError {
	var de *trace.DecodeError
	switch {
	case errors.As(err, &de):
		return WrapExitError(ExitCommandError, "malformed trace", err)
	case staleness.IsInvariantError(err):
		return WrapExitError(ExitFailure, "trace violates analysis invariant", err)
	case errors.Is(err, trace.ErrIncomplete):
		return WrapExitError(ExitFailure, "trace incomplete", err)
	case errors.Is(err, context.Canceled):
		return WrapExitError(ExitFailure, "analysis interrupted", err)
	default:
		return WrapExitError(ExitCommandError, "analysis failed", err)
	}
}

func errorDetails(err error) any {
	var ie *staleness.InvariantError
	if errors.As(err, &ie) && len(ie.Details) > 0 {
		return ie.Details
	}
	var de *trace.DecodeError
	if errors.As(err, &de) {
		return map[string]int{"line": de.Line}
	}
	return nil
}

func openTrace(path string, stdin io.Reader) (io.Reader, func(), error) {
	if path == stdio {
		return stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

func openOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "" || path == stdio {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
