package shopping

import (
	"sort"

	"family-meal-planner/internal/planner"
)

// Merge combines manual items and aggregated entries into one list with the
// unchecked items first. Within each group the input order is kept, manual
// items before planned ones.
func Merge(manual []ManualItem, aggregated []AggregatedEntry, checked map[string]bool) []ShopItem {
	items := make([]ShopItem, 0, len(manual)+len(aggregated))

	for _, m := range manual {
		items = append(items, ShopItem{
			ID:      m.ID,
			Name:    m.Name,
			Checked: m.Checked,
			Source:  SourceManual,
		})
	}

	for _, e := range aggregated {
		amount := e.Amount
		items = append(items, ShopItem{
			ID:      e.Key,
			Name:    e.Name,
			Amount:  &amount,
			Unit:    string(e.Unit),
			Checked: checked[e.Key],
			Source:  SourcePlanned,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return !items[i].Checked && items[j].Checked
	})
	return items
}

// Recompute rebuilds the whole list from the latest copy of each source. It has
// no side effects and may be called with partially stale inputs.
func Recompute(meals []planner.PlannedMeal, manual []ManualItem, checked map[string]bool) []ShopItem {
	return Merge(manual, Aggregate(meals), checked)
}
