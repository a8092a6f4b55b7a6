package planner

import (
	"time"

	"family-meal-planner/internal/recipe"
)

// LeftoversMealID marks a calendar slot that reuses an earlier meal.
const LeftoversMealID = "leftovers"

const dateLayout = "2006-01-02"

// PlannedMeal is one meal on the household calendar.
type PlannedMeal struct {
	ID              string              `json:"id"`
	Date            string              `json:"date"` // YYYY-MM-DD
	MealID          string              `json:"meal_id"`
	MealName        string              `json:"meal_name"`
	Servings        int                 `json:"servings"` // base servings of the recipe
	PlannedServings int                 `json:"planned_servings"`
	Ingredients     []recipe.Ingredient `json:"ingredients"`
	// ScaledIngredients, when non-nil, replaces Ingredients for this occurrence.
	ScaledIngredients []recipe.Ingredient `json:"scaled_ingredients"`
	IsShopped         bool                `json:"is_shopped"`
	IsCooked          bool                `json:"is_cooked"`
	Notes             string              `json:"notes,omitempty"`
	CostEstimate      float64             `json:"cost_estimate,omitempty"`
	PlannedBy         string              `json:"planned_by,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
}

// ShoppingIngredients returns the list the shopping list should be built from.
func (m PlannedMeal) ShoppingIngredients() []recipe.Ingredient {
	if m.ScaledIngredients != nil {
		return m.ScaledIngredients
	}
	return m.Ingredients
}

// ScaleIngredients rescales base quantities from baseServings to plannedServings.
// Ingredients without an amount are copied as-is.
func ScaleIngredients(base []recipe.Ingredient, baseServings, plannedServings int) []recipe.Ingredient {
	if baseServings <= 0 {
		baseServings = 1
	}
	factor := float64(plannedServings) / float64(baseServings)

	scaled := make([]recipe.Ingredient, len(base))
	for i, ing := range base {
		scaled[i] = ing
		if ing.Amount != nil {
			scaled[i].Amount = recipe.Amount(*ing.Amount * factor)
		}
	}
	return scaled
}

// Leftovers returns a placeholder meal for date. It carries no ingredients.
func Leftovers(date string) PlannedMeal {
	return PlannedMeal{
		Date:        date,
		MealID:      LeftoversMealID,
		MealName:    "Leftovers",
		Ingredients: []recipe.Ingredient{},
	}
}

// WeekBounds returns the Monday and Sunday of the week containing t.
func WeekBounds(t time.Time) (from, to string) {
	offset := (int(t.Weekday()) + 6) % 7
	monday := t.AddDate(0, 0, -offset)
	return monday.Format(dateLayout), monday.AddDate(0, 0, 6).Format(dateLayout)
}

// TotalCost sums the cost estimates of meals that are still to be shopped.
func TotalCost(meals []PlannedMeal) float64 {
	var total float64
	for _, m := range meals {
		if !m.IsShopped {
			total += m.CostEstimate
		}
	}
	return total
}

func validDate(s string) bool {
	_, err := time.Parse(dateLayout, s)
	return err == nil
}
