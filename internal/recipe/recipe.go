package recipe

import (
	"fmt"
	"strings"
	"time"
)

// Ingredient is a single line of a recipe. Amount is nil when the source gives
// no quantity ("salt to taste").
type Ingredient struct {
	Name   string   `json:"name"`
	Amount *float64 `json:"amount"`
	Unit   string   `json:"unit"`
}

// Nutrition holds per-serving estimates.
type Nutrition struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// Recipe is a stored household recipe.
type Recipe struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Description  string       `json:"description,omitempty"`
	SourceURL    string       `json:"source_url,omitempty"`
	ImageURL     string       `json:"image_url,omitempty"`
	Servings     int          `json:"servings"`
	PrepTime     string       `json:"prep_time,omitempty"`
	Ingredients  []Ingredient `json:"ingredients"`
	Instructions []string     `json:"instructions"`
	CostEstimate float64      `json:"cost_estimate,omitempty"`
	Nutrition    *Nutrition   `json:"nutrition,omitempty"`
	CreatedBy    string       `json:"created_by,omitempty"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// Amount returns a pointer to v, for building ingredient lists.
func Amount(v float64) *float64 {
	return &v
}

// String renders the ingredient the way it appears in a recipe card.
func (i Ingredient) String() string {
	if i.Amount == nil {
		return i.Name
	}
	qty := strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", *i.Amount), "0"), ".")
	if i.Unit == "" {
		return fmt.Sprintf("%s %s", qty, i.Name)
	}
	return fmt.Sprintf("%s %s %s", qty, i.Unit, i.Name)
}

// Clean trims whitespace, drops nameless ingredients and lower-cases units.
func (r *Recipe) Clean() {
	r.Name = strings.TrimSpace(r.Name)
	if r.Servings <= 0 {
		r.Servings = 1
	}

	cleaned := make([]Ingredient, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		ing.Name = strings.TrimSpace(ing.Name)
		ing.Unit = strings.ToLower(strings.TrimSpace(ing.Unit))
		if ing.Name == "" {
			continue
		}
		cleaned = append(cleaned, ing)
	}
	r.Ingredients = cleaned
}
