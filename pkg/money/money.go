// Package money formats amounts the way they are printed on French-language invoices.
package money

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.French)

// Format renders an amount with two decimals and French separators ("1 234,50").
func Format(d decimal.Decimal) string {
	return printer.Sprint(number.Decimal(d.Round(2).InexactFloat64(), number.Scale(2)))
}

// FormatDH appends the dirham currency suffix.
func FormatDH(d decimal.Decimal) string {
	return Format(d) + " DH"
}

// FormatQuantity drops trailing zeros ("2", "1,5").
func FormatQuantity(d decimal.Decimal) string {
	if d.IsInteger() {
		return printer.Sprint(number.Decimal(d.IntPart()))
	}
	return printer.Sprint(number.Decimal(d.InexactFloat64(), number.MaxFractionDigits(3)))
}
