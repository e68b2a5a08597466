package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 6, 15, 9, 0, 0, 0, time.UTC)

func TestSaveRun_AndGetRows(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	rep := sampleReport("run-1", t0, 50)
	require.NoError(t, db.SaveRun(ctx, rep, "file"))

	run, err := db.GetRun(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "file", run.Source)
	assert.Equal(t, 2, run.Groups)
	assert.Equal(t, 4, run.Rows)
	assert.True(t, t0.Equal(run.GeneratedAt))

	rows, err := db.GetRows(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	for i, r := range rows {
		assert.Equal(t, i, r.Position)
		assert.Equal(t, rep.Rows[i].ID, r.RowID)
		assert.Equal(t, rep.Rows[i].Percentage, r.Percentage)
		assert.Equal(t, rep.Rows[i].Overall, r.Overall)
	}
	assert.Equal(t, 1, rows[2].GroupHandle)
}

func TestSaveRun_Errors(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	assert.ErrorContains(t, db.SaveRun(ctx, nil, "file"), "no run id")
	assert.ErrorContains(t, db.SaveRun(ctx, sampleReport("", t0, 50), "file"), "no run id")

	require.NoError(t, db.SaveRun(ctx, sampleReport("run-1", t0, 50), "file"))
	assert.ErrorContains(t, db.SaveRun(ctx, sampleReport("run-1", t0, 50), "file"), "inserting run")

	// the failed save left nothing behind
	runs, err := db.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestGetRun_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetRun(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)

	_, err = db.GetRows(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestListRuns(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	for i, id := range []string{"run-1", "run-2", "run-3"} {
		require.NoError(t, db.SaveRun(ctx, sampleReport(id, t0.AddDate(0, 0, i), 50), "s3"))
	}

	tests := []struct {
		name   string
		filter RunFilter
		want   []string
	}{
		{name: "all newest first", want: []string{"run-3", "run-2", "run-1"}},
		{name: "limit", filter: RunFilter{Limit: 2}, want: []string{"run-3", "run-2"}},
		{name: "limit and offset", filter: RunFilter{Limit: 2, Offset: 2}, want: []string{"run-1"}},
		{name: "since", filter: RunFilter{Since: t0.AddDate(0, 0, 1)}, want: []string{"run-3", "run-2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runs, err := db.ListRuns(ctx, tt.filter)
			require.NoError(t, err)
			ids := make([]string, 0, len(runs))
			for _, r := range runs {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestRuleTrend(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	require.NoError(t, db.SaveRun(ctx, sampleReport("run-1", t0, 25), "file"))
	require.NoError(t, db.SaveRun(ctx, sampleReport("run-2", t0.AddDate(0, 1, 0), 50), "file"))
	require.NoError(t, db.SaveRun(ctx, sampleReport("run-3", t0.AddDate(0, 2, 0), 75), "file"))

	points, err := db.RuleTrend(ctx, "EU", "Overall Quality", 0)
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, []int{75, 50, 25}, []int{points[0].Percentage, points[1].Percentage, points[2].Percentage})
	assert.Equal(t, "run-3", points[0].RunID)

	points, err = db.RuleTrend(ctx, "EU", "Overall Quality", 1)
	require.NoError(t, err)
	assert.Len(t, points, 1)

	points, err = db.RuleTrend(ctx, "APAC", "Overall Quality", 0)
	require.NoError(t, err)
	assert.Empty(t, points)
}

func TestDeleteRunsBefore(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	require.NoError(t, db.SaveRun(ctx, sampleReport("old", t0, 50), "file"))
	require.NoError(t, db.SaveRun(ctx, sampleReport("new", t0.AddDate(0, 1, 0), 50), "file"))

	n, err := db.DeleteRunsBefore(ctx, t0.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = db.GetRun(ctx, "old")
	assert.ErrorIs(t, err, ErrRunNotFound)

	points, err := db.RuleTrend(ctx, "US", "Overall Quality", 0)
	require.NoError(t, err)
	require.Len(t, points, 1, "rows of the deleted run cascade")
	assert.Equal(t, "new", points[0].RunID)
}
