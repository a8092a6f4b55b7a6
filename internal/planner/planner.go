package planner

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"family-meal-planner/internal/recipe"

	"github.com/google/uuid"
)

var (
	ErrInvalidServings = errors.New("servings must be greater than zero")
	ErrInvalidDate     = errors.New("date must be formatted as YYYY-MM-DD")
	ErrRecipeNotFound  = errors.New("recipe not found")
	ErrMealNotFound    = errors.New("planned meal not found")
)

// RecipeSource looks up recipes to plan.
type RecipeSource interface {
	Get(ctx context.Context, id string) (*recipe.Recipe, error)
}

// Pantry is told which ingredients a cooked meal used up.
type Pantry interface {
	Consume(ctx context.Context, ingredients []recipe.Ingredient) error
}

// Planner schedules recipes on the household calendar.
type Planner struct {
	recipes RecipeSource
	repo    *PlanRepository
	pantry  Pantry

	// OnChange, when set, runs after every successful calendar write.
	OnChange func(ctx context.Context)
}

// NewPlanner creates a new Planner. pantry may be nil.
func NewPlanner(recipes RecipeSource, repo *PlanRepository, pantry Pantry) *Planner {
	return &Planner{recipes: recipes, repo: repo, pantry: pantry}
}

// PlanRecipe puts a recipe on the calendar for date, scaled to servings.
func (p *Planner) PlanRecipe(ctx context.Context, recipeID, date string, servings int, plannedBy string) (*PlannedMeal, error) {
	if servings <= 0 {
		return nil, ErrInvalidServings
	}
	if !validDate(date) {
		return nil, ErrInvalidDate
	}

	rec, err := p.recipes.Get(ctx, recipeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load recipe: %w", err)
	}
	if rec == nil {
		return nil, ErrRecipeNotFound
	}

	base := rec.Servings
	if base <= 0 {
		base = 1
	}

	meal := PlannedMeal{
		ID:                uuid.NewString(),
		Date:              date,
		MealID:            rec.ID,
		MealName:          rec.Name,
		Servings:          base,
		PlannedServings:   servings,
		Ingredients:       rec.Ingredients,
		ScaledIngredients: ScaleIngredients(rec.Ingredients, base, servings),
		CostEstimate:      rec.CostEstimate * float64(servings) / float64(base),
		PlannedBy:         strings.TrimSpace(plannedBy),
		CreatedAt:         time.Now().UTC(),
	}
	if err := p.repo.Save(ctx, meal); err != nil {
		return nil, err
	}

	p.changed(ctx)
	return &meal, nil
}

// PlanLeftovers reserves date for leftovers.
func (p *Planner) PlanLeftovers(ctx context.Context, date string) (*PlannedMeal, error) {
	if !validDate(date) {
		return nil, ErrInvalidDate
	}

	meal := Leftovers(date)
	meal.ID = uuid.NewString()
	meal.CreatedAt = time.Now().UTC()
	if err := p.repo.Save(ctx, meal); err != nil {
		return nil, err
	}

	p.changed(ctx)
	return &meal, nil
}

// ChangeServings rescales a planned meal.
func (p *Planner) ChangeServings(ctx context.Context, id string, servings int) (*PlannedMeal, error) {
	if servings <= 0 {
		return nil, ErrInvalidServings
	}

	meal, err := p.repo.UpdateServings(ctx, id, servings)
	if err != nil {
		return nil, err
	}
	if meal == nil {
		return nil, ErrMealNotFound
	}

	p.changed(ctx)
	return meal, nil
}

// Remove deletes a planned meal.
func (p *Planner) Remove(ctx context.Context, id string) error {
	ok, err := p.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrMealNotFound
	}

	p.changed(ctx)
	return nil
}

// MarkShopped flags the meals between from and to as shopped so they drop off
// the shopping list.
func (p *Planner) MarkShopped(ctx context.Context, from, to string) (int, error) {
	if !validDate(from) || !validDate(to) {
		return 0, ErrInvalidDate
	}

	n, err := p.repo.MarkShopped(ctx, from, to)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		p.changed(ctx)
	}
	return n, nil
}

// MarkCooked flags a meal as cooked and deducts its ingredients from the pantry.
// A pantry failure is logged and does not undo the cooked flag.
func (p *Planner) MarkCooked(ctx context.Context, id string) (*PlannedMeal, error) {
	meal, err := p.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if meal == nil {
		return nil, ErrMealNotFound
	}
	if meal.IsCooked {
		return meal, nil
	}

	meal.IsCooked = true
	if err := p.repo.Save(ctx, *meal); err != nil {
		return nil, err
	}

	if p.pantry != nil {
		if err := p.pantry.Consume(ctx, meal.ShoppingIngredients()); err != nil {
			log.Printf("Warning: failed to update cupboard for meal %s: %v", meal.ID, err)
		}
	}

	p.changed(ctx)
	return meal, nil
}

// Week returns every meal in the week containing t, shopped or not.
func (p *Planner) Week(ctx context.Context, t time.Time) ([]PlannedMeal, error) {
	from, to := WeekBounds(t)
	return p.repo.ListRange(ctx, from, to, true)
}

// Range returns every meal between from and to, shopped or not.
func (p *Planner) Range(ctx context.Context, from, to string) ([]PlannedMeal, error) {
	if !validDate(from) || !validDate(to) {
		return nil, ErrInvalidDate
	}
	return p.repo.ListRange(ctx, from, to, true)
}

func (p *Planner) changed(ctx context.Context) {
	if p.OnChange != nil {
		p.OnChange(ctx)
	}
}
