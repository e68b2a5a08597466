package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/joshsymonds/appquality/internal/report"
)

// ErrRunNotFound is returned when no run has the requested id.
var ErrRunNotFound = errors.New("run not found")

// SaveRun records the report and all of its rows in one transaction. The
// report must carry a run id; saving the same run twice fails.
func (db *DB) SaveRun(ctx context.Context, rep *report.Report, source string) error {
	if rep == nil || rep.RunID == "" {
		return fmt.Errorf("report has no run id")
	}

	err := db.InTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO runs (id, generated_at, source, group_count, row_count)
			VALUES (?, ?, ?, ?, ?)`,
			rep.RunID, rep.GeneratedAt.UTC(), source, len(rep.Groups), len(rep.Rows),
		); err != nil {
			return fmt.Errorf("inserting run: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO run_rows (run_id, row_id, group_label, group_handle, rule, position,
			                      compliant, non_compliant, percentage, overall)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("preparing statement: %w", err)
		}
		defer func() {
			_ = stmt.Close()
		}()

		for i, r := range rep.Rows {
			if _, err := stmt.ExecContext(ctx,
				rep.RunID, r.ID, r.Group, r.GroupHandle, r.Rule, i,
				r.Compliant, r.NonCompliant, r.Percentage, r.Overall,
			); err != nil {
				return fmt.Errorf("inserting row %q: %w", r.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	db.logger.Info("Recorded run in history", "run_id", rep.RunID, "rows", len(rep.Rows))
	return nil
}

// GetRun returns the run with the given id.
func (db *DB) GetRun(ctx context.Context, id string) (*Run, error) {
	run := &Run{}
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, generated_at, source, group_count, row_count
		FROM runs WHERE id = ?`, id,
	).Scan(&run.ID, &run.GeneratedAt, &run.Source, &run.Groups, &run.Rows)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying run: %w", err)
	}
	return run, nil
}

// ListRuns returns runs newest first.
func (db *DB) ListRuns(ctx context.Context, filter RunFilter) ([]*Run, error) {
	query := `
		SELECT id, generated_at, source, group_count, row_count
		FROM runs
		WHERE 1=1`

	var args []any
	if !filter.Since.IsZero() {
		query += " AND generated_at >= ?"
		args = append(args, filter.Since.UTC())
	}

	query += " ORDER BY generated_at DESC, created_at DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	runs := []*Run{}
	for rows.Next() {
		run := &Run{}
		if err := rows.Scan(&run.ID, &run.GeneratedAt, &run.Source, &run.Groups, &run.Rows); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}

// GetRows returns a run's rows in report order.
func (db *DB) GetRows(ctx context.Context, runID string) ([]*RowRecord, error) {
	if _, err := db.GetRun(ctx, runID); err != nil {
		return nil, err
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT run_id, row_id, group_label, group_handle, rule, position,
		       compliant, non_compliant, percentage, overall
		FROM run_rows
		WHERE run_id = ?
		ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying rows: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	records := []*RowRecord{}
	for rows.Next() {
		r := &RowRecord{}
		if err := rows.Scan(&r.RunID, &r.RowID, &r.Group, &r.GroupHandle, &r.Rule, &r.Position,
			&r.Compliant, &r.NonCompliant, &r.Percentage, &r.Overall); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return records, nil
}

// RuleTrend returns the rule's results for a group across runs, newest
// first. Runs in which the group did not appear are skipped.
func (db *DB) RuleTrend(ctx context.Context, group, rule string, limit int) ([]TrendPoint, error) {
	query := `
		SELECT r.id, r.generated_at, rr.compliant, rr.non_compliant, rr.percentage
		FROM run_rows rr
		JOIN runs r ON r.id = rr.run_id
		WHERE rr.group_label = ? AND rr.rule = ?
		ORDER BY r.generated_at DESC, r.created_at DESC`
	args := []any{group, rule}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying trend: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	points := []TrendPoint{}
	for rows.Next() {
		var p TrendPoint
		if err := rows.Scan(&p.RunID, &p.GeneratedAt, &p.Compliant, &p.NonCompliant, &p.Percentage); err != nil {
			return nil, fmt.Errorf("scanning trend point: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating trend: %w", err)
	}
	return points, nil
}

// DeleteRunsBefore removes runs generated before t together with their rows
// and returns how many runs were removed.
func (db *DB) DeleteRunsBefore(ctx context.Context, t time.Time) (int64, error) {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM runs WHERE generated_at < ?`, t.UTC())
	if err != nil {
		return 0, fmt.Errorf("deleting runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted runs: %w", err)
	}
	if n > 0 {
		db.logger.Info("Pruned run history", "before", t.UTC(), "runs", n)
	}
	return n, nil
}
