package money

import (
	"fmt"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Format renders an amount as a locale-aware currency string (symbol plus
// 2 decimals) for the given ISO 4217 code. An unknown code falls back to a
// plain "$X.XX" string.
func Format(amount float64, code string) string {
	amount = Round2(amount)
	unit, err := currency.ParseISO(code)
	if err != nil {
		return fmt.Sprintf("$%.2f", amount)
	}
	p := message.NewPrinter(language.English)
	return p.Sprintf("%v", currency.NarrowSymbol(unit.Amount(amount)))
}
