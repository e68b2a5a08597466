package storage

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshsymonds/appquality/internal/report"
	"github.com/joshsymonds/appquality/pkg/logger"
)

type failingFormat struct{}

func (failingFormat) Render(io.Writer, *report.Report) error { return errors.New("template broken") }
func (failingFormat) Name() string                           { return "broken" }
func (failingFormat) Extension() string                      { return "broken" }
func (failingFormat) Description() string                    { return "always fails" }

func testReport() *report.Report {
	return &report.Report{
		GeneratedAt: time.Date(2026, 6, 15, 12, 30, 0, 0, time.UTC),
		Groups:      map[int]string{0: "EU"},
		Rows: []report.Row{{
			ID: "EU-Overall Quality", Group: "EU", Rule: "Overall Quality", Overall: true,
			Compliant: 3, NonCompliant: 1, Percentage: 75,
			CompliantApps: []report.Link{}, NonCompliantApps: []report.Link{},
		}},
	}
}

func formats(t *testing.T, names ...string) []report.Format {
	t.Helper()
	out := make([]report.Format, 0, len(names))
	for _, n := range names {
		f, err := report.GetFormat(n, logger.NewMockLogger())
		require.NoError(t, err)
		out = append(out, f)
	}
	return out
}

func TestNewStorage(t *testing.T) {
	storage := NewStorage("/tmp/test")
	assert.NotNil(t, storage)
	assert.Equal(t, "/tmp/test", storage.baseDir)
}

func TestSaveReport(t *testing.T) {
	tempDir := t.TempDir()
	mock := logger.NewMockLogger()
	storage := NewStorageWithLogger(tempDir, mock)

	rep := testReport()
	rep.RunID = "run-1"

	dir, err := storage.SaveReport(rep, formats(t, "json", "html", "table"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tempDir, "20260615T123000Z-run-1"), dir)

	for _, name := range []string{"report.json", "report.html", "report.txt", "run.json"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}

	data, err := os.ReadFile(filepath.Join(dir, "report.json"))
	require.NoError(t, err)
	var saved report.Report
	require.NoError(t, json.Unmarshal(data, &saved))
	assert.Equal(t, "run-1", saved.RunID)
	assert.Equal(t, 75, saved.Rows[0].Percentage)

	data, err = os.ReadFile(filepath.Join(dir, "run.json"))
	require.NoError(t, err)
	var manifest Manifest
	require.NoError(t, json.Unmarshal(data, &manifest))
	assert.Equal(t, []string{"report.json", "report.html", "report.txt"}, manifest.Files)
	assert.Equal(t, 1, manifest.Rows)
	assert.Equal(t, 1, manifest.Groups)

	assert.True(t, mock.HasMessage("INFO", "Saved report"))
}

func TestSaveReport_AssignsRunID(t *testing.T) {
	tempDir := t.TempDir()
	storage := NewStorageWithLogger(tempDir, logger.NewMockLogger())

	first := testReport()
	second := testReport()

	dir1, err := storage.SaveReport(first, formats(t, "yaml"))
	require.NoError(t, err)
	dir2, err := storage.SaveReport(second, formats(t, "yaml"))
	require.NoError(t, err)

	assert.NotEmpty(t, first.RunID)
	assert.NotEqual(t, first.RunID, second.RunID)
	assert.NotEqual(t, dir1, dir2, "runs never overwrite each other")
	assert.Equal(t, RunDir(first), filepath.Base(dir1))
}

func TestSaveReport_Errors(t *testing.T) {
	tempDir := t.TempDir()
	storage := NewStorageWithLogger(tempDir, logger.NewMockLogger())

	_, err := storage.SaveReport(testReport(), nil)
	assert.ErrorContains(t, err, "no report formats selected")

	_, err = storage.SaveReport(testReport(), []report.Format{failingFormat{}})
	assert.ErrorContains(t, err, "rendering broken report")

	_, err = storage.SaveReport(testReport(), formats(t, "json", "json"))
	assert.ErrorContains(t, err, "share the file name")

	entries, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "failed saves leave nothing behind")

	_, err = NewStorageWithLogger("", logger.NewMockLogger()).SaveReport(testReport(), formats(t, "json"))
	assert.ErrorContains(t, err, "invalid output directory")
}
