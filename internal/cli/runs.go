package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/staleness/internal/store"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	Database string
}

// RunsResult lists stored runs.
type RunsResult struct {
	Runs []store.Run `json:"runs"`
}

func (r RunsResult) String() string {
	if len(r.Runs) == 0 {
		return "No runs found."
	}

	var b strings.Builder
	fmt.Fprintln(&b, "=== Runs ===")
	for i, run := range r.Runs {
		if i > 0 {
			fmt.Fprintln(&b)
		}
		fmt.Fprintf(&b, "  %s  %-8s  %d records  %d events  %s", run.ID, run.Status, run.Records, run.Events, run.Source)
		if run.Error != "" {
			fmt.Fprintf(&b, "\n       error: %s", run.Error)
		}
	}
	return b.String()
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored analysis runs",
		Long: `List the analysis runs stored in a SQLite database, oldest first.

Examples:
  staleness runs --db runs.db
  staleness runs --db runs.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runRuns(opts *RunsOptions, cmd *cobra.Command) error {
	st, err := openExistingStore(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListRuns(cmd.Context())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}
	return newFormatter(opts.RootOptions, cmd).Success(RunsResult{Runs: runs})
}

// openExistingStore opens a database for reading. Unlike analyze, it does
// not create a missing file.
func openExistingStore(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, WrapExitError(ExitCommandError, "database not found", err)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}
