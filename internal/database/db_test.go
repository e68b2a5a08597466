package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshsymonds/appquality/internal/report"
	"github.com/joshsymonds/appquality/pkg/logger"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(context.Background(), filepath.Join(t.TempDir(), "history.db"), WithLogger(logger.NewMockLogger()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func sampleReport(runID string, at time.Time, euPercent int) *report.Report {
	return &report.Report{
		GeneratedAt: at,
		RunID:       runID,
		Groups:      map[int]string{0: "EU", 1: "US"},
		Rows: []report.Row{
			{ID: "EU-has Description (only active)", Group: "EU", GroupHandle: 0, Rule: "has Description (only active)", Compliant: euPercent, NonCompliant: 100 - euPercent, Percentage: euPercent},
			{ID: "EU-Overall Quality", Group: "EU", GroupHandle: 0, Rule: "Overall Quality", Compliant: euPercent, NonCompliant: 100 - euPercent, Percentage: euPercent, Overall: true},
			{ID: "US-has Description (only active)", Group: "US", GroupHandle: 1, Rule: "has Description (only active)", Compliant: 1, Percentage: 100},
			{ID: "US-Overall Quality", Group: "US", GroupHandle: 1, Rule: "Overall Quality", Compliant: 1, Percentage: 100, Overall: true},
		},
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		opts    []Option
		wantErr string
	}{
		{name: "in-memory database", path: ":memory:"},
		{
			name: "file with options",
			path: filepath.Join(t.TempDir(), "history.db"),
			opts: []Option{WithMaxConnections(2), WithBusyTimeout(10 * time.Second)},
		},
		{name: "traversal", path: "../history.db", wantErr: "invalid history database path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := New(context.Background(), tt.path, append(tt.opts, WithLogger(logger.NewMockLogger()))...)
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			defer func() { assert.NoError(t, db.Close()) }()

			version, err := db.SchemaVersion(context.Background())
			require.NoError(t, err)
			assert.Equal(t, 1, version)
		})
	}
}

func TestNew_MigratesOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	db, err := New(context.Background(), path, WithLogger(logger.NewMockLogger()))
	require.NoError(t, err)
	require.NoError(t, db.SaveRun(context.Background(), sampleReport("run-1", time.Now(), 50), "file"))
	require.NoError(t, db.Close())

	mock := logger.NewMockLogger()
	db, err = New(context.Background(), path, WithLogger(mock))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	assert.False(t, mock.HasMessage("DEBUG", "Applied migration"))
	runs, err := db.ListRuns(context.Background(), RunFilter{})
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestClose_Twice(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Close())
	assert.NoError(t, db.Close())
}

func TestLoadMigrations(t *testing.T) {
	migrations, err := loadMigrations()
	require.NoError(t, err)
	require.NotEmpty(t, migrations)
	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, "initial", migrations[0].Name)
	assert.Contains(t, migrations[0].SQL, "CREATE TABLE runs")
}
