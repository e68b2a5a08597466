// Package report implements the report command for generating application
// quality reports.
package report

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshsymonds/appquality/internal/catalog"
	"github.com/joshsymonds/appquality/internal/config"
	"github.com/joshsymonds/appquality/internal/database"
	"github.com/joshsymonds/appquality/internal/market"
	"github.com/joshsymonds/appquality/internal/pipeline"
	"github.com/joshsymonds/appquality/internal/report"
	"github.com/joshsymonds/appquality/internal/rules"
	"github.com/joshsymonds/appquality/internal/storage"
	"github.com/joshsymonds/appquality/internal/ui"
	"github.com/joshsymonds/appquality/pkg/logger"
)

// Options represents report command options.
type Options struct {
	ConfigFile  string
	SourceDir   string
	OutputDir   string
	HistoryDB   string
	AsOf        string
	Formats     []string
	Interactive bool
}

// browse is replaced in tests.
var browse = ui.Run

// NewCommand returns the report command.
func NewCommand() *cobra.Command {
	opts := &Options{}

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Evaluate the quality rules and render a report",
		Long: `Fetch the catalog, evaluate every quality rule per group and render the
result. Without --output the report is written to stdout.`,
		Example: `  appquality report --source-dir catalog
  appquality report --config acme.yaml --format html,json --output reports
  appquality report --config acme.yaml --history reports/history.db
  appquality report --config acme.yaml --interactive`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return Run(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.ConfigFile, "config", "", "Configuration file (YAML)")
	f.StringVar(&opts.SourceDir, "source-dir", "", "Read catalog snapshots from this directory")
	f.StringVar(&opts.OutputDir, "output", "", "Save the report under this directory instead of printing it")
	f.StringVar(&opts.HistoryDB, "history", "", "Record the run in this SQLite history database")
	f.StringVar(&opts.AsOf, "as-of", "", "Evaluate time-windowed rules as of this date (YYYY-MM-DD)")
	f.StringSliceVar(&opts.Formats, "format", nil, "Report format(s): "+strings.Join(report.ListFormats(), ", "))
	f.BoolVar(&opts.Interactive, "interactive", false, "Browse the report in the terminal")

	return cmd
}

// Run builds a report with the given options and writes or saves it.
func Run(ctx context.Context, opts *Options, stdout io.Writer) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	policy, err := policyFor(opts.AsOf)
	if err != nil {
		return err
	}

	log := logger.GetGlobalLogger()

	formats := make([]report.Format, 0, len(cfg.Report.Formats))
	for _, name := range cfg.Report.Formats {
		format, err := report.GetFormat(strings.TrimSpace(name), log)
		if err != nil {
			return err
		}
		formats = append(formats, format)
	}

	source, err := catalog.New(ctx, cfg.Catalog, log)
	if err != nil {
		return fmt.Errorf("creating catalog source: %w", err)
	}

	labeler, err := market.New(cfg.Grouping)
	if err != nil {
		return fmt.Errorf("creating group labeler: %w", err)
	}

	log.Info("Generating report",
		"source", source.Name(),
		"formats", cfg.Report.Formats,
		"as_of", policy.Now().Format(time.DateOnly))

	rep, err := pipeline.NewOrchestratorWithLogger(source, labeler, policy, cfg, log).Run(ctx)
	if err != nil {
		return fmt.Errorf("building report: %w", err)
	}

	switch {
	case cfg.Report.OutputDir != "":
		dir, err := storage.NewStorageWithLogger(cfg.Report.OutputDir, log).SaveReport(rep, formats)
		if err != nil {
			return fmt.Errorf("saving report: %w", err)
		}
		fmt.Fprintf(stdout, "Report saved to %s\n", dir)
	case !opts.Interactive:
		for _, format := range formats {
			if err := format.Render(stdout, rep); err != nil {
				return fmt.Errorf("rendering %s report: %w", format.Name(), err)
			}
		}
	}

	// Only runs whose output was delivered are recorded.
	if cfg.Report.HistoryDB != "" {
		if err := recordHistory(ctx, cfg.Report.HistoryDB, rep, source.Name(), log); err != nil {
			return err
		}
	}

	if opts.Interactive {
		return browse(rep)
	}
	return nil
}

// loadConfig reads the config file, if any, and applies flag overrides.
func loadConfig(opts *Options) (*config.Config, error) {
	cfg := config.Default()
	if opts.ConfigFile != "" {
		var err error
		cfg, err = config.LoadConfig(opts.ConfigFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}

	if opts.SourceDir != "" {
		cfg.Catalog.Source = config.SourceFile
		cfg.Catalog.Dir = opts.SourceDir
	}
	if len(opts.Formats) > 0 {
		cfg.Report.Formats = opts.Formats
	}
	if opts.OutputDir != "" {
		cfg.Report.OutputDir = opts.OutputDir
	}
	if opts.HistoryDB != "" {
		cfg.Report.HistoryDB = opts.HistoryDB
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func recordHistory(ctx context.Context, path string, rep *report.Report, source string, log logger.Logger) (err error) {
	db, err := database.New(ctx, path, database.WithLogger(log))
	if err != nil {
		return fmt.Errorf("opening history: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing history: %w", closeErr)
		}
	}()

	if err := db.SaveRun(ctx, rep, source); err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	return nil
}

func policyFor(asOf string) (*rules.Policy, error) {
	if asOf == "" {
		return rules.Default(), nil
	}
	t, err := time.Parse(time.DateOnly, asOf)
	if err != nil {
		return nil, fmt.Errorf("invalid --as-of date %q: %w", asOf, err)
	}
	return rules.Reference(t), nil
}
