package acceptance_tests

import (
	"context"
	"path/filepath"
	"testing"

	"family-meal-planner/internal/app"
	"family-meal-planner/internal/config"
	"family-meal-planner/internal/recipe"
	"family-meal-planner/internal/shopping"
)

func newConfig(dir string) *config.Config {
	return &config.Config{
		DatabasePath:     filepath.Join(dir, "mealplanner.db"),
		CheckedStatePath: filepath.Join(dir, "checked.json"),
	}
}

// TestShoppingListSurvivesRestart runs the whole stack on a real database file
// and a file-backed checked store, then reopens it.
func TestShoppingListSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first, err := app.New(ctx, newConfig(dir))
	if err != nil {
		t.Fatalf("Failed to start app: %v", err)
	}

	err = first.Recipes.Save(ctx, recipe.Recipe{
		ID:       "tacos",
		Name:     "Tacos",
		Servings: 4,
		Ingredients: []recipe.Ingredient{
			{Name: "Minced beef", Amount: recipe.Amount(0.4), Unit: "kg"},
			{Name: "Tortilla", Amount: recipe.Amount(8), Unit: "stk"},
			{Name: "Salt", Unit: "ts"},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := first.Planner.PlanRecipe(ctx, "tacos", "2026-10-16", 4, "Kari"); err != nil {
		t.Fatalf("PlanRecipe failed: %v", err)
	}
	if _, err := first.Shopping.AddManualItem(ctx, "Sour cream"); err != nil {
		t.Fatalf("AddManualItem failed: %v", err)
	}
	if err := first.Shopping.ToggleItem(ctx, shopping.Key("Tortilla", "stk"), true, shopping.SourcePlanned); err != nil {
		t.Fatalf("ToggleItem failed: %v", err)
	}

	want := "- Sour cream\n- Minced beef (400 g)"
	if got := first.Shopping.Export(); got != want {
		t.Errorf("Expected export %q, got %q", want, got)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	second, err := app.New(ctx, newConfig(dir))
	if err != nil {
		t.Fatalf("Failed to restart app: %v", err)
	}
	defer second.Close()

	if got := second.Shopping.Export(); got != want {
		t.Errorf("Expected export %q after restart, got %q", want, got)
	}

	n, err := second.Planner.MarkShopped(ctx, "2026-10-12", "2026-10-18")
	if err != nil {
		t.Fatalf("MarkShopped failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 shopped meal, got %d", n)
	}
	if got := second.Shopping.Export(); got != "- Sour cream" {
		t.Errorf("Expected only the manual item after shopping, got %q", got)
	}
}

// TestShoppingListSharedBetweenProcesses opens two apps on one database, the
// way the bot and the API server run side by side.
func TestShoppingListSharedBetweenProcesses(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	api, err := app.New(ctx, newConfig(dir))
	if err != nil {
		t.Fatalf("Failed to start api app: %v", err)
	}
	defer api.Close()

	bot, err := app.New(ctx, newConfig(dir))
	if err != nil {
		t.Fatalf("Failed to start bot app: %v", err)
	}
	defer bot.Close()

	if _, err := api.Shopping.AddManualItem(ctx, "Milk"); err != nil {
		t.Fatalf("AddManualItem failed: %v", err)
	}

	items, err := bot.ShoppingList(ctx, "", "")
	if err != nil {
		t.Fatalf("ShoppingList failed: %v", err)
	}
	if len(items) != 1 || items[0].Name != "Milk" {
		t.Errorf("Expected Milk added by the other app, got %+v", items)
	}

	if _, err := bot.Shopping.AddManualItem(ctx, "Bread"); err != nil {
		t.Fatalf("AddManualItem failed: %v", err)
	}
	items, err = api.Shopping.Current(ctx)
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	if got := shopping.Format(items); got != "- Milk\n- Bread" {
		t.Errorf("Expected both manual items, got %q", got)
	}
}
