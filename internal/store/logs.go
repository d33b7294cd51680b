package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

func (s *SQLite) Logs(ctx context.Context) ([]WorkLog, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT l.id, COALESCE(c.name, ?), l.task, l.mode, l.duration, l.completed, l.timestamp
		FROM work_logs l
		LEFT JOIN categories c ON c.id = l.category_id
		ORDER BY l.timestamp DESC, l.id DESC`, ProtectedCategory,
	)
	if err != nil {
		return nil, fmt.Errorf("list logs: %w", err)
	}
	defer rows.Close()

	var logs []WorkLog
	for rows.Next() {
		var l WorkLog
		var mode, timestamp string
		var completed int
		if err := rows.Scan(&l.ID, &l.Category, &l.Task, &mode, &l.Duration, &completed, &timestamp); err != nil {
			return nil, err
		}
		if l.Mode, err = ParseWorkMode(mode); err != nil {
			return nil, fmt.Errorf("log %s: %w", l.ID, err)
		}
		l.Completed = completed == 1
		l.Timestamp, _ = time.Parse(time.RFC3339, timestamp)
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// AppendLog inserts a log. A log whose category is not in the catalog is
// attached to ProtectedCategory. Re-inserting an existing id is a no-op.
func (s *SQLite) AppendLog(ctx context.Context, l WorkLog) error {
	return s.withinTx(ctx, func(tx *sql.Tx) error {
		var categoryID int64
		err := tx.QueryRowContext(ctx, `SELECT id FROM categories WHERE name = ?`, l.Category).Scan(&categoryID)
		if errors.Is(err, sql.ErrNoRows) {
			categoryID, err = protectedCategoryID(ctx, tx)
		}
		if err != nil {
			return fmt.Errorf("resolve category %q: %w", l.Category, err)
		}

		completed := 0
		if l.Completed {
			completed = 1
		}
		_, err = tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO work_logs (id, category_id, task, mode, duration, completed, timestamp, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			l.ID, categoryID, l.Task, l.Mode.String(), l.Duration, completed,
			l.Timestamp.UTC().Format(time.RFC3339), time.Now().UTC().Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("insert log: %w", err)
		}
		return nil
	})
}

func (s *SQLite) DeleteLog(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM work_logs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete log %s: %w", id, err)
	}
	return nil
}

// LogCount returns the number of stored logs.
func (s *SQLite) LogCount(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM work_logs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count logs: %w", err)
	}
	return n, nil
}
