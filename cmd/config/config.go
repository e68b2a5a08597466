// Package config implements the config command.
package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshsymonds/appquality/internal/catalog"
	"github.com/joshsymonds/appquality/internal/config"
)

// NewCommand returns the config command and its subcommands.
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration files",
	}
	cmd.AddCommand(newValidateCommand())
	return cmd
}

func newValidateCommand() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:     "validate",
		Short:   "Validate a configuration file",
		Example: "  appquality config validate --config acme.yaml",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return Validate(configFile, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&configFile, "config", "", "Configuration file to validate (required)")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

// Validate loads the configuration file and prints a summary of it.
func Validate(configFile string, w io.Writer) error {
	if configFile == "" {
		return fmt.Errorf("--config flag is required")
	}

	fmt.Fprintf(w, "🔍 Validating configuration: %s\n\n", configFile)

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return fmt.Errorf("configuration is invalid: %w", err)
	}

	printSummary(w, cfg)

	fmt.Fprintln(w, "\n✅ Configuration is valid!")
	return nil
}

func printSummary(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, "📚 Catalog:")
	fmt.Fprintf(w, "   Source: %s\n", cfg.Catalog.Source)
	switch cfg.Catalog.Source {
	case config.SourceFile:
		fmt.Fprintf(w, "   Directory: %s (%s)\n", cfg.Catalog.Dir, cfg.Catalog.Glob)
	case config.SourceHTTP:
		fmt.Fprintf(w, "   Endpoint: %s\n", cfg.Catalog.Endpoint)
		fmt.Fprintf(w, "   Timeout: %s\n", cfg.Catalog.Timeout)
	case config.SourceS3:
		fmt.Fprintf(w, "   Bucket: s3://%s/%s\n", cfg.Catalog.Bucket, cfg.Catalog.Prefix)
		if cfg.Catalog.Region != "" {
			fmt.Fprintf(w, "   Region: %s\n", cfg.Catalog.Region)
		}
	}
	if cfg.Catalog.CacheDir != "" {
		ttl := cfg.Catalog.CacheTTL
		if ttl <= 0 {
			ttl = catalog.DefaultCacheTTL
		}
		fmt.Fprintf(w, "   Cache: %s (ttl %s)\n", cfg.Catalog.CacheDir, ttl)
	}

	fmt.Fprintln(w, "\n🏷️  Taxonomy:")
	fmt.Fprintf(w, "   Application: %s / %s\n", cfg.Taxonomy.Application.Group, cfg.Taxonomy.Application.Tag)
	fmt.Fprintf(w, "   IT: %s / %s\n", cfg.Taxonomy.IT.Group, cfg.Taxonomy.IT.Tag)
	fmt.Fprintf(w, "   AppMap: %s / %s\n", cfg.Taxonomy.AppMap.Group, cfg.Taxonomy.AppMap.Tag)

	fmt.Fprintln(w, "\n🗂️  Grouping:")
	fmt.Fprintf(w, "   Strategy: %s\n", cfg.Grouping.Strategy)
	switch cfg.Grouping.Strategy {
	case config.GroupByTagGroup:
		fmt.Fprintf(w, "   Tag group: %s\n", cfg.Grouping.TagGroup)
	case config.GroupByNamePrefix:
		fmt.Fprintf(w, "   Pattern: %s\n", cfg.Grouping.Pattern)
	}

	fmt.Fprintln(w, "\n📄 Report:")
	fmt.Fprintf(w, "   Formats: %s\n", strings.Join(cfg.Report.Formats, ", "))
	if cfg.Report.OutputDir != "" {
		fmt.Fprintf(w, "   Output: %s\n", cfg.Report.OutputDir)
	}
	if cfg.Report.HistoryDB != "" {
		fmt.Fprintf(w, "   History: %s\n", cfg.Report.HistoryDB)
	}
	if cfg.Report.FactSheetBaseURL != "" {
		fmt.Fprintf(w, "   Fact sheet links: %s\n", cfg.Report.FactSheetBaseURL)
	}
}
