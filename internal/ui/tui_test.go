package ui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshsymonds/appquality/internal/ui/testutil"
)

// drain runs a command and feeds its message back into the model.
func drain(t *testing.T, m tea.Model, cmd tea.Cmd) tea.Model {
	t.Helper()
	for cmd != nil {
		m, cmd = m.Update(cmd())
	}
	return m
}

func TestBrowser_DrillDownAndBack(t *testing.T) {
	b := NewBrowser(testutil.SampleReport())
	assert.Nil(t, b.Init())

	m, _ := b.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m, _ = testutil.SimulateKeyPress(m, "j")
	m, cmd := testutil.SimulateKeyPress(m, "enter")
	m = drain(t, m, cmd)

	require.Equal(t, RowDetailsPage, b.currentPage)
	assert.Equal(t, []Page{RowListPage}, b.pageHistory)
	assert.Contains(t, testutil.StripANSI(m.View()), "it lists no applications")

	m, cmd = testutil.SimulateKeyPress(m, "esc")
	m = drain(t, m, cmd)
	assert.Equal(t, RowListPage, b.currentPage)
	assert.Empty(t, b.pageHistory)
	assert.Contains(t, testutil.StripANSI(m.View()), "Application Quality Report")
}

func TestBrowser_QuitKeys(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		details  bool
		wantQuit bool
	}{
		{name: "q on list", key: "q", wantQuit: true},
		{name: "ctrl+c on list", key: "ctrl+c", wantQuit: true},
		{name: "ctrl+c on details", key: "ctrl+c", details: true, wantQuit: true},
		{name: "q on details goes back", key: "q", details: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBrowser(testutil.SampleReport())
			if tt.details {
				_, cmd := testutil.SimulateKeyPress(b, "enter")
				drain(t, b, cmd)
				require.Equal(t, RowDetailsPage, b.currentPage)
			}

			_, cmd := testutil.SimulateKeyPress(b, tt.key)
			require.NotNil(t, cmd)
			msg := cmd()

			_, isQuit := msg.(tea.QuitMsg)
			assert.Equal(t, tt.wantQuit, isQuit)
			assert.Equal(t, tt.wantQuit, b.quitting)
			if tt.wantQuit {
				assert.Empty(t, b.View())
			} else {
				assert.Equal(t, BackMsg{}, msg)
			}
		})
	}
}

func TestBrowser_BackWithoutHistory(t *testing.T) {
	b := NewBrowser(testutil.SampleReport())
	_, cmd := b.Update(BackMsg{})
	assert.Nil(t, cmd)
	assert.Equal(t, RowListPage, b.currentPage)
}

func TestPercentStyle(t *testing.T) {
	assert.Equal(t, FullColor, percentStyle(100).GetForeground())
	assert.Equal(t, PartialColor, percentStyle(50).GetForeground())
	assert.Equal(t, PartialColor, percentStyle(99).GetForeground())
	assert.Equal(t, LowColor, percentStyle(49).GetForeground())
}
