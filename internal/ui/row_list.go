package ui

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/joshsymonds/appquality/internal/report"
)

// RowList is the report overview: one line per (group, rule) row.
type RowList struct {
	report  *report.Report
	groups  []string
	visible []report.Row
	group   int // index into groups; -1 shows every group
	cursor  int
	width   int
	height  int
}

// NewRowList creates a row list over the report.
func NewRowList(rep *report.Report) *RowList {
	if rep == nil {
		rep = &report.Report{}
	}

	handles := make([]int, 0, len(rep.Groups))
	for h := range rep.Groups {
		handles = append(handles, h)
	}
	sort.Ints(handles)

	groups := make([]string, 0, len(handles))
	for _, h := range handles {
		groups = append(groups, rep.Groups[h])
	}

	r := &RowList{report: rep, groups: groups, group: -1}
	r.applyFilter()
	return r
}

// Update handles row list updates.
func (r *RowList) Update(msg tea.Msg) (*RowList, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return r, nil
	}

	switch keyMsg.String() {
	case "j", "down":
		if r.cursor < len(r.visible)-1 {
			r.cursor++
		}
	case "k", "up":
		if r.cursor > 0 {
			r.cursor--
		}
	case "g":
		r.cursor = 0
	case "G":
		if len(r.visible) > 0 {
			r.cursor = len(r.visible) - 1
		}
	case "tab":
		r.group++
		if r.group >= len(r.groups) {
			r.group = -1
		}
		r.applyFilter()
	case "enter":
		if r.cursor < len(r.visible) {
			row := r.visible[r.cursor]
			return r, func() tea.Msg { return RowDetailsMsg{Row: row} }
		}
	}
	return r, nil
}

// applyFilter recomputes the visible rows for the selected group and resets
// the cursor.
func (r *RowList) applyFilter() {
	r.cursor = 0
	if r.group < 0 {
		r.visible = r.report.Rows
		return
	}

	name := r.groups[r.group]
	r.visible = make([]report.Row, 0, len(r.report.Rows))
	for _, row := range r.report.Rows {
		if row.Group == name {
			r.visible = append(r.visible, row)
		}
	}
}

// SelectedGroup returns the group filter, or "" when every group is shown.
func (r *RowList) SelectedGroup() string {
	if r.group < 0 {
		return ""
	}
	return r.groups[r.group]
}

// View renders the row list.
func (r *RowList) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("Application Quality Report"))
	b.WriteString("\n")

	filter := "all groups"
	if g := r.SelectedGroup(); g != "" {
		filter = g
	}
	b.WriteString(lipgloss.NewStyle().Foreground(MutedColor).Render(fmt.Sprintf(
		"Generated %s • Run %s • Showing %s",
		r.report.GeneratedAt.Format("2006-01-02 15:04 MST"), r.report.RunID, filter)))
	b.WriteString("\n\n")

	if len(r.visible) == 0 {
		b.WriteString("No applications matched the report filter.")
	} else {
		header := fmt.Sprintf("  %s %s %s %s %s",
			padRight("Group", 10), padRight("Rule", 60), padRight("OK", 5), padRight("Not OK", 7), "%")
		b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(AccentColor).Render(header))
		b.WriteString("\n")

		for i, row := range r.visible {
			cursor := "  "
			style := NormalItemStyle
			if row.Overall {
				style = OverallItemStyle
			}
			if r.cursor == i {
				cursor = "▸ "
				style = SelectedItemStyle
			}

			line := fmt.Sprintf("%s%s %s %s %s ",
				cursor,
				padRight(row.Group, 10),
				padRight(row.Rule, 60),
				padRight(fmt.Sprint(row.Compliant), 5),
				padRight(fmt.Sprint(row.NonCompliant), 7),
			)
			b.WriteString(style.Render(line))
			b.WriteString(percentStyle(row.Percentage).Render(fmt.Sprintf("%3d%%", row.Percentage)))
			b.WriteString("\n")

			if r.height > 0 && i > r.height-12 {
				b.WriteString(lipgloss.NewStyle().Foreground(MutedColor).Render(
					fmt.Sprintf("  ... and %d more rows", len(r.visible)-i-1)))
				b.WriteString("\n")
				break
			}
		}
	}

	b.WriteString(HelpStyle.Render("Navigate: j/k • Details: Enter • Group: Tab • Quit: q"))
	return b.String()
}

// SetSize updates the page dimensions.
func (r *RowList) SetSize(width, height int) {
	r.width = width
	r.height = height
}

// padRight pads or truncates a string to the given display width.
func padRight(str string, length int) string {
	runes := []rune(str)
	if len(runes) > length {
		return string(runes[:length-1]) + "…"
	}
	return str + strings.Repeat(" ", length-len(runes))
}
