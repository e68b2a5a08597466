package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var tableColumns = []string{"group", "rule", "compliant", "non-compliant", "percentage"}

// TableFormat renders the report as a bordered terminal table.
type TableFormat struct {
	headerStyle  lipgloss.Style
	cellStyle    lipgloss.Style
	overallStyle lipgloss.Style
	borderStyle  lipgloss.Style
}

// NewTableFormat creates a table format with the default styles.
func NewTableFormat() *TableFormat {
	return &TableFormat{
		headerStyle:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86")).Padding(0, 1),
		cellStyle:    lipgloss.NewStyle().Padding(0, 1),
		overallStyle: lipgloss.NewStyle().Bold(true).Padding(0, 1),
		borderStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

// Render implements Format.
func (f *TableFormat) Render(w io.Writer, rep *Report) error {
	if len(rep.Rows) == 0 {
		_, err := fmt.Fprintln(w, "No applications matched the report filter.")
		return err
	}

	title := cases.Title(language.English, cases.NoLower)
	headers := make([]string, 0, len(tableColumns))
	for _, c := range tableColumns {
		headers = append(headers, title.String(c))
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(f.borderStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return f.headerStyle
			case row >= 0 && row < len(rep.Rows) && rep.Rows[row].Overall:
				return f.overallStyle
			default:
				return f.cellStyle
			}
		})

	for _, r := range rep.Rows {
		t.Row(
			r.Group,
			r.Rule,
			strconv.Itoa(r.Compliant),
			strconv.Itoa(r.NonCompliant),
			strconv.Itoa(r.Percentage)+"%",
		)
	}

	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// Name implements Format.
func (f *TableFormat) Name() string { return "table" }

// Extension implements Format.
func (f *TableFormat) Extension() string { return "txt" }

// Description implements Format.
func (f *TableFormat) Description() string { return "Terminal table of per-group rule percentages" }
