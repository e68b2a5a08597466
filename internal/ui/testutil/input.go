package testutil

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joshsymonds/appquality/internal/report"
)

// SimulateKeyPress sends a key press to the model and returns the result.
func SimulateKeyPress(model tea.Model, key string) (tea.Model, tea.Cmd) {
	var msg tea.Msg

	switch key {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case "up":
		msg = tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		msg = tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+c":
		msg = tea.KeyMsg{Type: tea.KeyCtrlC}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}

	return model.Update(msg)
}

// SampleReport returns a two-group report with one leaf rule and the
// overall row per group.
func SampleReport() *report.Report {
	return &report.Report{
		GeneratedAt: time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC),
		RunID:       "run-1",
		Groups:      map[int]string{0: "EU", 1: "US"},
		Rows: []report.Row{
			row("EU", 0, "has Description (only active)", []report.Link{link("app-crm", "CRM")}, []report.Link{link("app-billing", "Billing")}, 50),
			overall("EU", 0, 1, 1, 50),
			row("US", 1, "has Description (only active)", []report.Link{link("app-hr", "Legacy HR")}, []report.Link{}, 100),
			overall("US", 1, 1, 0, 100),
		},
	}
}

func link(id, name string) report.Link {
	return report.Link{
		ID:     id,
		Text:   name,
		Link:   "https://catalog.example.com/factsheet/Application/" + id,
		Target: "_blank",
	}
}

func row(group string, handle int, rule string, compliant, nonCompliant []report.Link, percentage int) report.Row {
	return report.Row{
		ID:               group + "-" + rule,
		Group:            group,
		Rule:             rule,
		CompliantApps:    compliant,
		NonCompliantApps: nonCompliant,
		GroupHandle:      handle,
		Compliant:        len(compliant),
		NonCompliant:     len(nonCompliant),
		Percentage:       percentage,
	}
}

func overall(group string, handle, compliant, nonCompliant, percentage int) report.Row {
	r := row(group, handle, "Overall Quality", []report.Link{}, []report.Link{}, percentage)
	r.Compliant = compliant
	r.NonCompliant = nonCompliant
	r.Overall = true
	return r
}
