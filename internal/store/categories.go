package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

func (s *SQLite) Categories(ctx context.Context) ([]Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, created_at FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		var createdAt string
		if err := rows.Scan(&c.ID, &c.Name, &createdAt); err != nil {
			return nil, err
		}
		c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// AddCategory inserts a category; an existing name is silently kept.
func (s *SQLite) AddCategory(ctx context.Context, name string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO categories (name, created_at) VALUES (?, ?)`, name, now,
	)
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (s *SQLite) UpdateCategory(ctx context.Context, id int64, name string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE categories SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return fmt.Errorf("update category %d: %w", id, err)
	}
	return nil
}

func (s *SQLite) DeleteCategory(ctx context.Context, id int64) (bool, error) {
	deleted := false
	err := s.withinTx(ctx, func(tx *sql.Tx) error {
		var name string
		err := tx.QueryRowContext(ctx, `SELECT name FROM categories WHERE id = ?`, id).Scan(&name)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get category %d: %w", id, err)
		}
		if name == ProtectedCategory {
			return nil
		}

		otherID, err := protectedCategoryID(ctx, tx)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE work_logs SET category_id = ? WHERE category_id = ?`, otherID, id,
		); err != nil {
			return fmt.Errorf("reassign logs: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete category %d: %w", id, err)
		}
		deleted = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return deleted, nil
}

type queryExecer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// protectedCategoryID returns the id of ProtectedCategory, recreating the row
// if it has gone missing.
func protectedCategoryID(ctx context.Context, q queryExecer) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx, `SELECT id FROM categories WHERE name = ?`, ProtectedCategory).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("get protected category: %w", err)
	}
	res, err := q.ExecContext(ctx,
		`INSERT INTO categories (name, created_at) VALUES (?, ?)`,
		ProtectedCategory, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("insert protected category: %w", err)
	}
	return res.LastInsertId()
}
