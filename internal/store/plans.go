package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

func (s *SQLite) Plans(ctx context.Context) ([]Plan, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, steps FROM pomodoro_plans ORDER BY created_at DESC, rowid DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	var plans []Plan
	for rows.Next() {
		var p Plan
		var steps string
		if err := rows.Scan(&p.ID, &p.Name, &steps); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(steps), &p.Steps); err != nil {
			return nil, fmt.Errorf("decode steps of plan %s: %w", p.ID, err)
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

// SavePlan inserts a plan. Plans are immutable, so saving an existing id is a
// no-op.
func (s *SQLite) SavePlan(ctx context.Context, p Plan) error {
	steps, err := json.Marshal(p.Steps)
	if err != nil {
		return fmt.Errorf("encode steps: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO pomodoro_plans (id, name, steps, created_at) VALUES (?, ?, ?, ?)`,
		p.ID, p.Name, string(steps), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert plan: %w", err)
	}
	return nil
}

func (s *SQLite) DeletePlan(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM pomodoro_plans WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete plan %s: %w", id, err)
	}
	return nil
}
