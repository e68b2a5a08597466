// Package history implements the history command for inspecting recorded
// report runs.
package history

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/joshsymonds/appquality/internal/database"
	"github.com/joshsymonds/appquality/pkg/logger"
)

const timeLayout = "2006-01-02 15:04"

// NewCommand returns the history command with its subcommands.
func NewCommand() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded report runs",
		Long: `Query the SQLite database that "appquality report --history" writes to.`,
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "History database file")
	_ = cmd.MarkPersistentFlagRequired("db")

	cmd.AddCommand(
		newListCommand(&dbPath),
		newTrendCommand(&dbPath),
		newPruneCommand(&dbPath),
	)
	return cmd
}

func newListCommand(dbPath *string) *cobra.Command {
	var (
		limit int
		since string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter := database.RunFilter{Limit: limit}
			if since != "" {
				t, err := parseDate("--since", since)
				if err != nil {
					return err
				}
				filter.Since = t
			}
			return withDB(cmd.Context(), *dbPath, func(db *database.DB) error {
				return List(cmd.Context(), cmd.OutOrStdout(), db, filter)
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show (0 for all)")
	cmd.Flags().StringVar(&since, "since", "", "Only show runs generated on or after this date (YYYY-MM-DD)")
	return cmd
}

func newTrendCommand(dbPath *string) *cobra.Command {
	var (
		group string
		rule  string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "trend",
		Short: "Show one rule's percentage for a group across runs",
		Example: `  appquality history trend --db reports/history.db --group EU --rule "Overall Quality"`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDB(cmd.Context(), *dbPath, func(db *database.DB) error {
				return Trend(cmd.Context(), cmd.OutOrStdout(), db, group, rule, limit)
			})
		},
	}
	cmd.Flags().StringVar(&group, "group", "", "Group label")
	cmd.Flags().StringVar(&rule, "rule", "", "Rule name")
	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of runs to show (0 for all)")
	_ = cmd.MarkFlagRequired("group")
	_ = cmd.MarkFlagRequired("rule")
	return cmd
}

func newPruneCommand(dbPath *string) *cobra.Command {
	var before string

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete runs generated before a date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := parseDate("--before", before)
			if err != nil {
				return err
			}
			return withDB(cmd.Context(), *dbPath, func(db *database.DB) error {
				n, err := db.DeleteRunsBefore(cmd.Context(), t)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d run(s) generated before %s\n", n, t.Format(time.DateOnly))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&before, "before", "", "Cutoff date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("before")
	return cmd
}

// List writes the runs matching filter as a table.
func List(ctx context.Context, w io.Writer, db *database.DB, filter database.RunFilter) error {
	runs, err := db.ListRuns(ctx, filter)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs recorded.")
		return err
	}

	t := newTable("Generated", "Run", "Source", "Groups", "Rows")
	for _, r := range runs {
		t.Row(r.GeneratedAt.UTC().Format(timeLayout), r.ID, r.Source, strconv.Itoa(r.Groups), strconv.Itoa(r.Rows))
	}
	_, err = fmt.Fprintln(w, t.Render())
	return err
}

// Trend writes a rule's results for a group across runs, newest first.
func Trend(ctx context.Context, w io.Writer, db *database.DB, group, rule string, limit int) error {
	points, err := db.RuleTrend(ctx, group, rule, limit)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		_, err := fmt.Fprintf(w, "No recorded results for %q in group %q.\n", rule, group)
		return err
	}

	t := newTable("Generated", "Run", "Compliant", "Non-compliant", "%")
	for _, p := range points {
		t.Row(
			p.GeneratedAt.UTC().Format(timeLayout),
			p.RunID,
			strconv.Itoa(p.Compliant),
			strconv.Itoa(p.NonCompliant),
			strconv.Itoa(p.Percentage),
		)
	}
	_, err = fmt.Fprintf(w, "%s • %s\n%s\n", group, rule, t.Render())
	return err
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers(headers...)
}

func withDB(ctx context.Context, path string, fn func(*database.DB) error) (err error) {
	db, err := database.New(ctx, path, database.WithLogger(logger.GetGlobalLogger()))
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return fn(db)
}

func parseDate(flag, value string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s date %q: %w", flag, value, err)
	}
	return t, nil
}
