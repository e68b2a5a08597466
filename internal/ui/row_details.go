package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/joshsymonds/appquality/internal/report"
)

// RowDetailsMsg opens the details page for a row.
type RowDetailsMsg struct {
	Row report.Row
}

// RowDetails lists the compliant and non-compliant applications of a row.
type RowDetails struct {
	row      *report.Row
	viewport viewport.Model
	width    int
	height   int
	ready    bool
}

// NewRowDetails creates a new row details view.
func NewRowDetails() *RowDetails {
	return &RowDetails{
		viewport: viewport.New(0, 0),
	}
}

// Update handles messages for the row details view.
func (d *RowDetails) Update(msg tea.Msg) (*RowDetails, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		d.width = msg.Width
		d.height = msg.Height
		if !d.ready {
			d.viewport = viewport.New(msg.Width-4, msg.Height-8)
			d.viewport.KeyMap = viewport.DefaultKeyMap()
			d.ready = true
		} else {
			d.viewport.Width = msg.Width - 4
			d.viewport.Height = msg.Height - 8
		}
		d.viewport.SetContent(d.content())

	case RowDetailsMsg:
		row := msg.Row
		d.row = &row
		d.viewport.SetContent(d.content())
		d.viewport.GotoTop()
		return d, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "q":
			return d, func() tea.Msg { return BackMsg{} }
		}
	}

	var cmd tea.Cmd
	d.viewport, cmd = d.viewport.Update(msg)
	return d, cmd
}

// View renders the row details view.
func (d *RowDetails) View() string {
	if d.row == nil {
		return "No row selected"
	}

	header := lipgloss.JoinVertical(lipgloss.Left,
		TitleStyle.Render(d.row.Rule),
		fmt.Sprintf("Group: %s • Compliant: %d • Non-compliant: %d • %s",
			d.row.Group, d.row.Compliant, d.row.NonCompliant,
			percentStyle(d.row.Percentage).Render(fmt.Sprintf("%d%%", d.row.Percentage))),
	)

	body := d.content()
	if d.ready {
		body = d.viewport.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		"",
		body,
		HelpStyle.Render("Scroll: j/k • Back: Esc"),
	)
}

func (d *RowDetails) content() string {
	if d.row == nil {
		return ""
	}
	if d.row.Overall {
		return lipgloss.NewStyle().Foreground(MutedColor).Render(
			"Overall Quality sums every rule of the group; it lists no applications.")
	}

	var b strings.Builder
	writeLinks(&b, "Compliant", d.row.CompliantApps, FullColor)
	b.WriteString("\n")
	writeLinks(&b, "Non-compliant", d.row.NonCompliantApps, LowColor)
	return b.String()
}

func writeLinks(b *strings.Builder, title string, links []report.Link, color lipgloss.Color) {
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(color).Render(
		fmt.Sprintf("%s (%d)", title, len(links))))
	b.WriteString("\n")

	if len(links) == 0 {
		b.WriteString("  none\n")
		return
	}
	for _, l := range links {
		b.WriteString("  • " + l.Text)
		if l.Link != "" {
			b.WriteString(lipgloss.NewStyle().Foreground(MutedColor).Render("  " + l.Link))
		}
		b.WriteString("\n")
	}
}
