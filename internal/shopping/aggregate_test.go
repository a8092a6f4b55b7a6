package shopping

import (
	"math"
	"reflect"
	"testing"

	"family-meal-planner/internal/planner"
	"family-meal-planner/internal/recipe"
	"family-meal-planner/internal/units"
)

func ing(name string, amount float64, unit string) recipe.Ingredient {
	return recipe.Ingredient{Name: name, Amount: recipe.Amount(amount), Unit: unit}
}

func meal(ingredients ...recipe.Ingredient) planner.PlannedMeal {
	return planner.PlannedMeal{Ingredients: ingredients}
}

func TestAggregate(t *testing.T) {
	t.Run("SumsAcrossUnitsAndCase", func(t *testing.T) {
		got := Aggregate([]planner.PlannedMeal{
			meal(ing("Flour", 500, "g")),
			meal(ing("flour", 1, "kg")),
		})
		want := []AggregatedEntry{{Key: "flour-g", Name: "Flour", Amount: 1500, Unit: units.Gram}}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Expected %+v, got %+v", want, got)
		}
	})

	t.Run("ShoppedMealsExcluded", func(t *testing.T) {
		shopped := meal(ing("Rice", 200, "g"))
		shopped.IsShopped = true
		if got := Aggregate([]planner.PlannedMeal{shopped}); len(got) != 0 {
			t.Errorf("Expected no entries, got %+v", got)
		}
	})

	t.Run("Idempotent", func(t *testing.T) {
		meals := []planner.PlannedMeal{
			meal(ing("Tomato", 400, "g"), ing("Milk", 1, "l"), ing("Egg", 2, "stk")),
			meal(ing("tomato", 0.2, "kg"), ing("Sugar", 2, "ss"), ing("milk", 3, "dl")),
		}
		first := Aggregate(meals)
		second := Aggregate(meals)
		if !reflect.DeepEqual(first, second) {
			t.Errorf("Expected equal results, got %+v and %+v", first, second)
		}
		if len(first) != 4 {
			t.Fatalf("Expected 4 entries, got %d", len(first))
		}
		// First-seen order.
		if first[0].Key != "tomato-g" || first[1].Key != "milk-dl" || first[2].Key != "egg-stk" || first[3].Key != "sugar-ts" {
			t.Errorf("Unexpected order %+v", first)
		}
	})

	t.Run("ScaledIngredientsTakePrecedence", func(t *testing.T) {
		m := meal(ing("Pasta", 250, "g"))
		m.ScaledIngredients = []recipe.Ingredient{ing("Pasta", 500, "g")}
		got := Aggregate([]planner.PlannedMeal{m})
		if len(got) != 1 || got[0].Amount != 500 {
			t.Errorf("Expected 500 g pasta, got %+v", got)
		}
	})

	t.Run("MalformedSkipped", func(t *testing.T) {
		got := Aggregate([]planner.PlannedMeal{meal(
			recipe.Ingredient{Name: "Salt", Unit: "ts"},
			ing("Pepper", 1, "  "),
			ing("  ", 1, "g"),
			ing("Oil", -1, "dl"),
			ing("Butter", math.NaN(), "g"),
			ing("Cream", math.Inf(1), "dl"),
			ing("Water", 0, "dl"),
		)})
		if len(got) != 1 || got[0].Key != "water-dl" || got[0].Amount != 0 {
			t.Errorf("Expected only the zero-amount water entry, got %+v", got)
		}
	})

	t.Run("SpoonUnits", func(t *testing.T) {
		got := Aggregate([]planner.PlannedMeal{
			meal(ing("Sugar", 2, "ss")),
			meal(ing("sugar", 1, "ts")),
		})
		if len(got) != 1 || got[0].Amount != 7 || got[0].Unit != units.Teaspoon {
			t.Errorf("Expected 7 ts sugar, got %+v", got)
		}
	})

	t.Run("DifferentDimensionsStaySeparate", func(t *testing.T) {
		got := Aggregate([]planner.PlannedMeal{
			meal(ing("Butter", 100, "g"), ing("Butter", 2, "ss")),
		})
		if len(got) != 2 {
			t.Errorf("Expected separate g and ts entries, got %+v", got)
		}
	})

	t.Run("UnknownUnitPassesThrough", func(t *testing.T) {
		got := Aggregate([]planner.PlannedMeal{
			meal(ing("Yeast", 1, "Pakke")),
			meal(ing("yeast", 1, "pakke")),
		})
		if len(got) != 1 || got[0].Key != "yeast-pakke" || got[0].Amount != 2 {
			t.Errorf("Expected 2 pakke yeast, got %+v", got)
		}
	})

	t.Run("ExactDecimalSums", func(t *testing.T) {
		got := Aggregate([]planner.PlannedMeal{
			meal(ing("Saffron", 0.1, "g")),
			meal(ing("Saffron", 0.2, "g")),
		})
		if got[0].Amount != 0.3 {
			t.Errorf("Expected 0.3, got %v", got[0].Amount)
		}
	})

	t.Run("UnicodeNames", func(t *testing.T) {
		got := Aggregate([]planner.PlannedMeal{
			meal(ing("crème fraîche", 1, "dl")),
			meal(ing("Cre\u0300me frai\u0302che", 2, "dl")), // decomposed
			meal(ing("ørret", 300, "g")),
		})
		if len(got) != 2 {
			t.Fatalf("Expected composed and decomposed names to share a key, got %+v", got)
		}
		if got[0].Amount != 3 || got[0].Name != "Crème fraîche" {
			t.Errorf("Unexpected entry %+v", got[0])
		}
		if got[1].Name != "Ørret" {
			t.Errorf("Expected 'Ørret', got '%s'", got[1].Name)
		}
	})
}

func TestKey(t *testing.T) {
	if got := Key("  Tomato ", units.Gram); got != "tomato-g" {
		t.Errorf("Expected 'tomato-g', got '%s'", got)
	}
}
