package shopping

import (
	"fmt"
	"strings"

	"family-meal-planner/internal/units"
)

// Format renders the items still to buy, one "- name" or "- name (amount unit)"
// line each. Checked items are left out.
func Format(items []ShopItem) string {
	lines := make([]string, 0, len(items))
	for _, it := range items {
		if it.Checked {
			continue
		}
		lines = append(lines, formatLine(it))
	}
	return strings.Join(lines, "\n")
}

func formatLine(it ShopItem) string {
	if it.Source != SourcePlanned || it.Amount == nil {
		return "- " + it.Name
	}
	return fmt.Sprintf("- %s (%s)", it.Name, units.Display(*it.Amount, units.Unit(it.Unit)))
}
