package shopping

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Repository stores manual items and planned-item checked state in SQLite.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new shopping list repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

func (r *Repository) ListManual(ctx context.Context) ([]ManualItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, checked, created_at
		FROM shopping_items
		ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to list shopping items: %w", err)
	}
	defer rows.Close()

	items := []ManualItem{}
	for rows.Next() {
		var it ManualItem
		if err := rows.Scan(&it.ID, &it.Name, &it.Checked, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan shopping item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *Repository) AddManual(ctx context.Context, it ManualItem) error {
	if it.CreatedAt.IsZero() {
		it.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO shopping_items (id, name, checked, created_at)
		VALUES (?, ?, ?, ?)`,
		it.ID, it.Name, it.Checked, it.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert shopping item: %w", err)
	}
	return nil
}

func (r *Repository) DeleteManual(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM shopping_items WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete shopping item: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *Repository) SetManualChecked(ctx context.Context, id string, checked bool) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE shopping_items SET checked = ? WHERE id = ?`, checked, id)
	if err != nil {
		return false, fmt.Errorf("failed to update shopping item: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *Repository) DeleteCheckedManual(ctx context.Context) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM shopping_items WHERE checked = 1`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear checked shopping items: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// All returns the checked state of every known aggregation key.
func (r *Repository) All(ctx context.Context) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, checked FROM shopping_checked`)
	if err != nil {
		return nil, fmt.Errorf("failed to load checked state: %w", err)
	}
	defer rows.Close()

	checked := make(map[string]bool)
	for rows.Next() {
		var (
			key string
			on  bool
		)
		if err := rows.Scan(&key, &on); err != nil {
			return nil, fmt.Errorf("failed to scan checked state: %w", err)
		}
		checked[key] = on
	}
	return checked, rows.Err()
}

// Set upserts the checked state of a single key.
func (r *Repository) Set(ctx context.Context, key string, checked bool) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO shopping_checked (key, checked, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			checked = excluded.checked,
			updated_at = excluded.updated_at`,
		key, checked, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save checked state for %s: %w", key, err)
	}
	return nil
}
