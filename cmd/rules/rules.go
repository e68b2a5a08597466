// Package rules implements the rules command, which lists the quality
// policy in evaluation order.
package rules

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/joshsymonds/appquality/internal/rules"
)

// NewCommand returns the rules command.
func NewCommand() *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the quality rules in evaluation order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			now := time.Now()
			if asOf != "" {
				t, err := time.Parse(time.DateOnly, asOf)
				if err != nil {
					return fmt.Errorf("invalid --as-of date %q: %w", asOf, err)
				}
				now = t
			}
			return List(cmd.OutOrStdout(), rules.Reference(now))
		},
	}
	cmd.Flags().StringVar(&asOf, "as-of", "", "Show the recent window as of this date (YYYY-MM-DD)")

	return cmd
}

// List writes the policy's rules as a table.
func List(w io.Writer, policy *rules.Policy) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers("#", "Rule", "Kind", "Evaluated Over")

	for i, r := range policy.Rules() {
		kind, subset := "aggregate", "earlier rules"
		if leaf, ok := r.(*rules.LeafRule); ok {
			kind, subset = "leaf", leaf.Subset.String()
		}
		t.Row(strconv.Itoa(i+1), r.RuleName(), kind, subset)
	}

	_, err := fmt.Fprintf(w, "%s\nRecent window: after %s (as of %s)\n",
		t.Render(),
		policy.Cutoff().Format(time.DateOnly),
		policy.Now().Format(time.DateOnly))
	return err
}
