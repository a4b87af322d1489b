package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/staleness/internal/staleness"
	"github.com/roach88/staleness/internal/store"
)

// ReportOptions holds flags for the report command.
type ReportOptions struct {
	*RootOptions
	Database string
	RunID    string
	Limit    int
}

// ReportRow is one record in a report, with its staleness.
type ReportRow struct {
	ObjectID          int64    `json:"object_id"`
	Type              string   `json:"type"`
	Staleness         int64    `json:"staleness"`
	AllocationSite    string   `json:"allocation_site"`
	CreationTime      int64    `json:"creation_time"`
	CreationStack     []string `json:"creation_stack"`
	MostRecentUseTime int64    `json:"most_recent_use_time"`
	MostRecentUseSite string   `json:"most_recent_use_site"`
	UnreachableTime   int64    `json:"unreachable_time"`
	UnreachableSite   string   `json:"unreachable_site"`
}

// ReportResult holds the report output.
type ReportResult struct {
	Run     store.Run   `json:"run"`
	Records []ReportRow `json:"records"`
}

func (r ReportResult) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Run: %s (%s)\n", r.Run.ID, r.Run.Status)
	fmt.Fprintf(&b, "Source: %s\n", r.Run.Source)
	fmt.Fprintf(&b, "Records: %d\n", r.Run.Records)
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "=== Most Stale ===")
	if len(r.Records) == 0 {
		fmt.Fprint(&b, "  (no records)")
		return b.String()
	}
	for i, row := range r.Records {
		if i > 0 {
			fmt.Fprintln(&b)
		}
		fmt.Fprintf(&b, "  [%d] %s #%d stale for %d\n", i+1, row.Type, row.ObjectID, row.Staleness)
		fmt.Fprintf(&b, "       allocated:   %s @ %d\n", row.AllocationSite, row.CreationTime)
		fmt.Fprintf(&b, "       last used:   %s @ %d\n", row.MostRecentUseSite, row.MostRecentUseTime)
		fmt.Fprintf(&b, "       unreachable: %s @ %d", row.UnreachableSite, row.UnreachableTime)
		if len(row.CreationStack) > 0 {
			fmt.Fprintf(&b, "\n       call stack:  %s", strings.Join(row.CreationStack, " > "))
		}
	}
	return b.String()
}

// NewReportCommand creates the report command.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show the most stale objects of a run",
		Long: `Show the records of a stored run, most stale first.

Staleness is the time between an object's last use (or its creation, if it
was never used) and the moment it became unreachable. Without --run the
latest run is reported.

Examples:
  staleness report --db runs.db
  staleness report --db runs.db --run 0190b6d2-7c2e-7d4f-8a51-3c9e1f0a2b44 --limit 5
  staleness report --db runs.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "run id (default latest run)")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "maximum records to show (0 for all)")

	return cmd
}

func runReport(opts *ReportOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := openExistingStore(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	var run store.Run
	if opts.RunID != "" {
		run, err = st.GetRun(ctx, opts.RunID)
	} else {
		run, err = st.LatestRun(ctx)
	}
	if errors.Is(err, store.ErrRunNotFound) {
		if opts.Format == "json" {
			_ = formatter.Error(CodeNotFound, err.Error(), nil)
		}
		return WrapExitError(ExitCommandError, "no such run", err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	records, err := st.ReadRecords(ctx, run.ID, opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read records", err)
	}

	rows := make([]ReportRow, len(records))
	for i, rec := range records {
		rows[i] = newReportRow(rec)
	}
	return formatter.Success(ReportResult{Run: run, Records: rows})
}

func newReportRow(rec staleness.Record) ReportRow {
	return ReportRow{
		ObjectID:          int64(rec.ObjectID),
		Type:              rec.Type.String(),
		Staleness:         rec.Staleness(),
		AllocationSite:    rec.AllocationSite,
		CreationTime:      rec.CreationTime,
		CreationStack:     rec.CreationStack,
		MostRecentUseTime: rec.MostRecentUseTime,
		MostRecentUseSite: rec.MostRecentUseSite,
		UnreachableTime:   rec.UnreachableTime,
		UnreachableSite:   rec.UnreachableSite,
	}
}
