package shopping

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"family-meal-planner/internal/planner"
	"family-meal-planner/internal/units"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"
)

// Key builds the aggregation key for an ingredient name in a canonical unit.
func Key(name string, unit units.Unit) string {
	return norm.NFC.String(strings.ToLower(strings.TrimSpace(name))) + "-" + string(unit)
}

type bucket struct {
	name   string
	amount decimal.Decimal
	unit   units.Unit
}

// Aggregate sums the ingredients of all unshopped meals per name and canonical
// unit. Ingredients without a name, unit or usable amount are skipped. Entries
// come out in first-seen order, so equal input gives equal output.
func Aggregate(meals []planner.PlannedMeal) []AggregatedEntry {
	var order []string
	buckets := make(map[string]*bucket)

	for _, meal := range meals {
		if meal.IsShopped {
			continue
		}
		for _, ing := range meal.ShoppingIngredients() {
			name := strings.TrimSpace(ing.Name)
			if name == "" || strings.TrimSpace(ing.Unit) == "" || ing.Amount == nil {
				continue
			}
			amount := *ing.Amount
			if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
				continue
			}

			amount, unit := units.Normalize(amount, ing.Unit)
			key := Key(name, unit)

			b, ok := buckets[key]
			if !ok {
				b = &bucket{name: capitalize(name), unit: unit}
				buckets[key] = b
				order = append(order, key)
			}
			b.amount = b.amount.Add(decimal.NewFromFloat(amount))
		}
	}

	entries := make([]AggregatedEntry, 0, len(order))
	for _, key := range order {
		b := buckets[key]
		entries = append(entries, AggregatedEntry{
			Key:    key,
			Name:   b.name,
			Amount: b.amount.InexactFloat64(),
			Unit:   b.unit,
		})
	}
	return entries
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
