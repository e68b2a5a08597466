// Package ui provides the interactive terminal browser for quality reports.
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/joshsymonds/appquality/internal/report"
)

// Page represents different pages in the browser.
type Page int

const (
	// RowListPage lists every report row.
	RowListPage Page = iota
	// RowDetailsPage shows the applications behind one row.
	RowDetailsPage
)

// NavigateToPageMsg requests a page change.
type NavigateToPageMsg struct {
	Page Page
}

// BackMsg returns to the previous page.
type BackMsg struct{}

// Run starts the browser on the report and blocks until the user quits.
func Run(rep *report.Report) error {
	p := tea.NewProgram(NewBrowser(rep), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Browser is the root model. It routes messages to the active page.
type Browser struct {
	rows        *RowList
	details     *RowDetails
	pageHistory []Page
	currentPage Page
	width       int
	height      int
	quitting    bool
}

// NewBrowser creates a browser over the report rows.
func NewBrowser(rep *report.Report) *Browser {
	return &Browser{
		rows:        NewRowList(rep),
		details:     NewRowDetails(),
		currentPage: RowListPage,
		pageHistory: []Page{},
	}
}

// Init initializes the browser.
func (m *Browser) Init() tea.Cmd {
	return nil
}

// Update handles all browser updates.
func (m *Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.rows.SetSize(msg.Width, msg.Height)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "q":
			if m.currentPage == RowListPage {
				m.quitting = true
				return m, tea.Quit
			}
		}

	case NavigateToPageMsg:
		m.pageHistory = append(m.pageHistory, m.currentPage)
		m.currentPage = msg.Page
		return m, nil

	case BackMsg:
		if len(m.pageHistory) > 0 {
			m.currentPage = m.pageHistory[len(m.pageHistory)-1]
			m.pageHistory = m.pageHistory[:len(m.pageHistory)-1]
		}
		return m, nil

	case RowDetailsMsg:
		_, _ = m.details.Update(msg)
		return m, func() tea.Msg { return NavigateToPageMsg{Page: RowDetailsPage} }
	}

	var cmd tea.Cmd
	switch m.currentPage {
	case RowListPage:
		m.rows, cmd = m.rows.Update(msg)
	case RowDetailsPage:
		m.details, cmd = m.details.Update(msg)
	}
	return m, cmd
}

// View renders the active page.
func (m *Browser) View() string {
	if m.quitting {
		return ""
	}

	switch m.currentPage {
	case RowDetailsPage:
		return BaseStyle.Render(m.details.View())
	default:
		return BaseStyle.Render(m.rows.View())
	}
}

// Style definitions.
var (
	FullColor    = lipgloss.Color("#00AA00")
	PartialColor = lipgloss.Color("#FFA500")
	LowColor     = lipgloss.Color("#FF0000")
	MutedColor   = lipgloss.Color("#808080")
	AccentColor  = lipgloss.Color("#00FFFF")

	BaseStyle         = lipgloss.NewStyle().Padding(1, 2)
	TitleStyle        = lipgloss.NewStyle().Bold(true).Foreground(AccentColor).MarginBottom(1)
	SelectedItemStyle = lipgloss.NewStyle().Foreground(AccentColor).Bold(true)
	NormalItemStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	OverallItemStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	HelpStyle         = lipgloss.NewStyle().Foreground(MutedColor).MarginTop(1)
)

// percentStyle colors a compliance percentage: full, partial (at least half)
// or low.
func percentStyle(p int) lipgloss.Style {
	var color lipgloss.Color
	switch {
	case p == 100:
		color = FullColor
	case p >= 50:
		color = PartialColor
	default:
		color = LowColor
	}
	return lipgloss.NewStyle().Foreground(color).Bold(true)
}
