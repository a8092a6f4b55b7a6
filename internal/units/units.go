package units

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Unit is a measuring unit as stored on an ingredient.
type Unit string

const (
	Gram       Unit = "g"
	Kilogram   Unit = "kg"
	Liter      Unit = "l"
	Deciliter  Unit = "dl"
	Piece      Unit = "stk"
	Tablespoon Unit = "ss"
	Teaspoon   Unit = "ts"
)

const (
	gramsPerKilogram   = 1000
	decilitersPerLiter = 10
	teaspoonsPerSpoon  = 3
)

// Normalize expands an amount to the smallest unit of its dimension so that
// quantities of the same ingredient can be summed. Unknown units are returned
// lower-cased with the amount untouched.
func Normalize(amount float64, unit string) (float64, Unit) {
	u := Unit(strings.ToLower(strings.TrimSpace(unit)))

	switch u {
	case Kilogram:
		return amount * gramsPerKilogram, Gram
	case Liter:
		return amount * decilitersPerLiter, Deciliter
	case Tablespoon:
		return amount * teaspoonsPerSpoon, Teaspoon
	default:
		return amount, u
	}
}

// Display renders an aggregated amount for people, collapsing grams into
// kilograms and deciliters into liters once past the threshold. Spoons and
// pieces are never collapsed.
// The amount is rounded to two decimals before the threshold is checked.
func Display(amount float64, unit Unit) string {
	d := decimal.NewFromFloat(amount).Round(2)

	switch {
	case unit == Gram && d.GreaterThanOrEqual(decimal.NewFromInt(gramsPerKilogram)):
		return d.Div(decimal.NewFromInt(gramsPerKilogram)).StringFixed(1) + " " + string(Kilogram)
	case unit == Deciliter && d.GreaterThanOrEqual(decimal.NewFromInt(decilitersPerLiter)):
		return d.Div(decimal.NewFromInt(decilitersPerLiter)).StringFixed(1) + " " + string(Liter)
	}

	return d.String() + " " + string(unit)
}
