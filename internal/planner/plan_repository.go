package planner

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

// PlanRepository is a database-backed repository for planned meals.
type PlanRepository struct {
	db *sql.DB
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(d *sql.DB) *PlanRepository {
	return &PlanRepository{db: d}
}

// Save inserts or replaces a planned meal.
func (r *PlanRepository) Save(ctx context.Context, m PlannedMeal) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal planned meal: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO planned_meals (id, date, meal_id, is_shopped, data, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date,
			meal_id = excluded.meal_id,
			is_shopped = excluded.is_shopped,
			data = excluded.data
	`, m.ID, m.Date, m.MealID, boolToInt(m.IsShopped), string(data), m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save planned meal %s: %w", m.ID, err)
	}
	return nil
}

// Get retrieves a planned meal by its ID.
func (r *PlanRepository) Get(ctx context.Context, id string) (*PlannedMeal, error) {
	var data string
	err := r.db.QueryRowContext(ctx, `SELECT data FROM planned_meals WHERE id = ?`, id).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get planned meal: %w", err)
	}

	var m PlannedMeal
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal planned meal JSON: %w", err)
	}
	return &m, nil
}

// ListRange returns meals with from <= date <= to, ordered by date.
func (r *PlanRepository) ListRange(ctx context.Context, from, to string, includeShopped bool) ([]PlannedMeal, error) {
	query := `SELECT id, data FROM planned_meals WHERE date >= ? AND date <= ?`
	if !includeShopped {
		query += ` AND is_shopped = 0`
	}
	query += ` ORDER BY date, created_at`
	return r.query(ctx, query, from, to)
}

// ListUnshopped returns every meal whose groceries have not been bought yet.
func (r *PlanRepository) ListUnshopped(ctx context.Context) ([]PlannedMeal, error) {
	return r.query(ctx, `SELECT id, data FROM planned_meals WHERE is_shopped = 0 ORDER BY date, created_at`)
}

// Delete removes a planned meal. It reports whether a row was deleted.
func (r *PlanRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM planned_meals WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete planned meal %s: %w", id, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// MarkShopped flags every unshopped meal between from and to as shopped and
// returns how many meals changed. The meals are read inside the transaction so
// a concurrent servings change is not overwritten with stale data.
func (r *PlanRepository) MarkShopped(ctx context.Context, from, to string) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	meals, err := scanMeals(tx.QueryContext(ctx,
		`SELECT id, data FROM planned_meals WHERE date >= ? AND date <= ? AND is_shopped = 0 ORDER BY date, created_at`,
		from, to,
	))
	if err != nil {
		return 0, err
	}

	for _, m := range meals {
		m.IsShopped = true
		data, err := json.Marshal(m)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal planned meal: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE planned_meals SET is_shopped = 1, data = ? WHERE id = ?`,
			string(data), m.ID,
		); err != nil {
			return 0, fmt.Errorf("failed to mark meal %s shopped: %w", m.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return len(meals), nil
}

func (r *PlanRepository) query(ctx context.Context, query string, args ...any) ([]PlannedMeal, error) {
	return scanMeals(r.db.QueryContext(ctx, query, args...))
}

func scanMeals(rows *sql.Rows, err error) ([]PlannedMeal, error) {
	if err != nil {
		return nil, fmt.Errorf("failed to list planned meals: %w", err)
	}
	defer rows.Close()

	meals := []PlannedMeal{}
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("failed to scan planned meal: %w", err)
		}
		var m PlannedMeal
		if err := json.Unmarshal([]byte(data), &m); err != nil {
			log.Printf("Warning: Failed to unmarshal planned meal JSON for ID %s: %v", id, err)
			continue
		}
		meals = append(meals, m)
	}
	return meals, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// UpdateServings rescales a meal's ingredients and cost estimate to servings
// and stores it. It returns nil when the meal does not exist.
func (r *PlanRepository) UpdateServings(ctx context.Context, id string, servings int) (*PlannedMeal, error) {
	m, err := r.Get(ctx, id)
	if err != nil || m == nil {
		return nil, err
	}

	previous := m.PlannedServings
	if previous <= 0 {
		previous = m.Servings
	}
	if previous > 0 {
		m.CostEstimate = m.CostEstimate * float64(servings) / float64(previous)
	}
	m.PlannedServings = servings
	if m.MealID != LeftoversMealID {
		m.ScaledIngredients = ScaleIngredients(m.Ingredients, m.Servings, servings)
	}
	if err := r.Save(ctx, *m); err != nil {
		return nil, err
	}
	return m, nil
}
