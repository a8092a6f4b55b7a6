package shopping

import (
	"context"

	"family-meal-planner/internal/planner"
)

// PlannedSource provides the meals whose groceries are still to be bought.
type PlannedSource interface {
	ListUnshopped(ctx context.Context) ([]planner.PlannedMeal, error)
}

// ManualStore persists manual items.
type ManualStore interface {
	ListManual(ctx context.Context) ([]ManualItem, error)
	AddManual(ctx context.Context, item ManualItem) error
	DeleteManual(ctx context.Context, id string) (bool, error)
	SetManualChecked(ctx context.Context, id string, checked bool) (bool, error)
	DeleteCheckedManual(ctx context.Context) (int, error)
}

// CheckedStore persists the checked flag of planned items by aggregation key.
// All is a bulk read; Set writes a single key so concurrent toggles of
// different items never overwrite each other.
type CheckedStore interface {
	All(ctx context.Context) (map[string]bool, error)
	Set(ctx context.Context, key string, checked bool) error
}
