package ui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshsymonds/appquality/internal/ui/testutil"
)

func TestRowDetails_Empty(t *testing.T) {
	d := NewRowDetails()
	assert.Equal(t, "No row selected", d.View())
}

func TestRowDetails_ShowsApplications(t *testing.T) {
	rep := testutil.SampleReport()
	d := NewRowDetails()
	_, _ = d.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	_, cmd := d.Update(RowDetailsMsg{Row: rep.Rows[0]})
	assert.Nil(t, cmd)

	view := testutil.StripANSI(d.View())
	testutil.AssertViewContains(t, view, []string{
		"has Description (only active)",
		"Group: EU",
		"Compliant: 1",
		"Non-compliant: 1",
		"50%",
		"CRM",
		"https://catalog.example.com/factsheet/Application/app-billing",
	})
	testutil.AssertContainsInOrder(t, view, []string{"Compliant (1)", "CRM", "Non-compliant (1)", "Billing"})
}

func TestRowDetails_EmptyListAndOverall(t *testing.T) {
	rep := testutil.SampleReport()
	d := NewRowDetails()

	_, _ = d.Update(RowDetailsMsg{Row: rep.Rows[2]})
	view := testutil.StripANSI(d.View())
	testutil.AssertContainsInOrder(t, view, []string{"Non-compliant (0)", "none"})

	_, _ = d.Update(RowDetailsMsg{Row: rep.Rows[3]})
	view = testutil.StripANSI(d.View())
	assert.Contains(t, view, "it lists no applications")
	assert.NotContains(t, view, "Compliant (")
}

func TestRowDetails_BackKeys(t *testing.T) {
	for _, k := range []tea.KeyMsg{{Type: tea.KeyEsc}, {Type: tea.KeyRunes, Runes: []rune("q")}} {
		d := NewRowDetails()
		_, cmd := d.Update(k)
		require.NotNil(t, cmd)
		assert.Equal(t, BackMsg{}, cmd())
	}
}
