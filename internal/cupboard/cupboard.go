package cupboard

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"family-meal-planner/internal/recipe"
	"family-meal-planner/internal/units"

	"github.com/google/uuid"
)

var ErrEmptyName = errors.New("ingredient name is required")

// Item is something the household already has at home.
type Item struct {
	ID             string    `json:"id"`
	IngredientName string    `json:"ingredient_name"`
	Amount         *float64  `json:"amount"`
	Unit           string    `json:"unit"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Repository stores cupboard items in SQLite.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Save inserts or updates an item. A missing ID is generated.
func (r *Repository) Save(ctx context.Context, it Item) (*Item, error) {
	it.IngredientName = strings.ToLower(strings.TrimSpace(it.IngredientName))
	if it.IngredientName == "" {
		return nil, ErrEmptyName
	}
	it.Unit = strings.ToLower(strings.TrimSpace(it.Unit))
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	it.UpdatedAt = time.Now().UTC()

	var amount sql.NullFloat64
	if it.Amount != nil {
		amount = sql.NullFloat64{Float64: *it.Amount, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cupboard_items (id, ingredient_name, amount, unit, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			ingredient_name = excluded.ingredient_name,
			amount = excluded.amount,
			unit = excluded.unit,
			updated_at = excluded.updated_at
	`, it.ID, it.IngredientName, amount, it.Unit, it.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to save cupboard item: %w", err)
	}
	return &it, nil
}

func (r *Repository) Get(ctx context.Context, id string) (*Item, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, ingredient_name, amount, unit, updated_at
		FROM cupboard_items WHERE id = ?`, id)

	it, err := scanItem(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cupboard item: %w", err)
	}
	return it, nil
}

func (r *Repository) List(ctx context.Context) ([]Item, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, ingredient_name, amount, unit, updated_at
		FROM cupboard_items ORDER BY ingredient_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list cupboard items: %w", err)
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cupboard item: %w", err)
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

func (r *Repository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cupboard_items WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete cupboard item: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Consume subtracts cooked ingredients from matching cupboard items. Items
// match on lower-cased name and only when both sides normalize to the same
// unit; amounts never go below zero. Matched items are rewritten in the
// canonical unit.
func (r *Repository) Consume(ctx context.Context, ingredients []recipe.Ingredient) error {
	items, err := r.List(ctx)
	if err != nil {
		return err
	}

	byName := make(map[string]*Item, len(items))
	for i := range items {
		byName[items[i].IngredientName] = &items[i]
	}

	for _, ing := range ingredients {
		if ing.Amount == nil || math.IsNaN(*ing.Amount) {
			continue
		}
		it, ok := byName[strings.ToLower(strings.TrimSpace(ing.Name))]
		if !ok || it.Amount == nil {
			continue
		}

		used, usedUnit := units.Normalize(*ing.Amount, ing.Unit)
		have, haveUnit := units.Normalize(*it.Amount, it.Unit)
		if usedUnit != haveUnit {
			continue
		}

		it.Amount = recipe.Amount(math.Max(0, have-used))
		it.Unit = string(haveUnit)
		if _, err := r.Save(ctx, *it); err != nil {
			return err
		}
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(s scanner) (*Item, error) {
	var (
		it     Item
		amount sql.NullFloat64
	)
	if err := s.Scan(&it.ID, &it.IngredientName, &amount, &it.Unit, &it.UpdatedAt); err != nil {
		return nil, err
	}
	if amount.Valid {
		it.Amount = recipe.Amount(amount.Float64)
	}
	return &it, nil
}
