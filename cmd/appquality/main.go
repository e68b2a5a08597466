// Package main is the entry point for the appquality CLI. appquality reads
// an enterprise architecture catalog, evaluates data-quality rules over its
// applications per market group and renders the results as reports.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	configcmd "github.com/joshsymonds/appquality/cmd/config"
	historycmd "github.com/joshsymonds/appquality/cmd/history"
	reportcmd "github.com/joshsymonds/appquality/cmd/report"
	rulescmd "github.com/joshsymonds/appquality/cmd/rules"
	"github.com/joshsymonds/appquality/pkg/logger"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func newRootCommand() *cobra.Command {
	var (
		debug     bool
		logFormat string
	)

	root := &cobra.Command{
		Use:           "appquality",
		Short:         "Application catalog data-quality reports",
		Version:       fmt.Sprintf("%s (built %s)", version, buildTime),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if logFormat != "text" && logFormat != "json" {
				return fmt.Errorf("unknown --log-format %q (want text or json)", logFormat)
			}
			logger.SetupLogger(debug, logFormat)
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.BoolVar(&debug, "debug", false, "Enable debug logging")
	pf.StringVar(&logFormat, "log-format", "text", "Log format (text or json)")

	root.AddCommand(
		reportcmd.NewCommand(),
		rulescmd.NewCommand(),
		historycmd.NewCommand(),
		configcmd.NewCommand(),
	)

	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		logger.Error("command failed", "error", err)
		stop()
		os.Exit(1) //nolint:gocritic // stop is called above
	}
}
