package shopping

import (
	"errors"
	"time"

	"family-meal-planner/internal/units"
)

// Source says where a shopping list line came from.
type Source string

const (
	SourceManual  Source = "manual"
	SourcePlanned Source = "planned"
)

var (
	ErrEmptyName     = errors.New("item name is required")
	ErrUnknownSource = errors.New("unknown item source")
	ErrItemNotFound  = errors.New("shopping item not found")
)

// ManualItem is a line the household typed in directly.
type ManualItem struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Checked   bool      `json:"checked"`
	CreatedAt time.Time `json:"created_at"`
}

// AggregatedEntry is the summed demand for one ingredient in one canonical unit.
// Key doubles as the checked-state key.
type AggregatedEntry struct {
	Key    string     `json:"key"`
	Name   string     `json:"name"`
	Amount float64    `json:"amount"`
	Unit   units.Unit `json:"unit"`
}

// ShopItem is one rendered line of the shopping list. ID is the manual item ID
// or the aggregation key, depending on Source.
type ShopItem struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Amount  *float64 `json:"amount,omitempty"`
	Unit    string   `json:"unit,omitempty"`
	Checked bool     `json:"checked"`
	Source  Source   `json:"source"`
}

// ParseSource validates a source coming from a request.
func ParseSource(s string) (Source, error) {
	switch Source(s) {
	case SourceManual, SourcePlanned:
		return Source(s), nil
	default:
		return "", ErrUnknownSource
	}
}
