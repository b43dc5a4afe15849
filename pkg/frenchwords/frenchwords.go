// Package frenchwords spells numbers and amounts in French.
package frenchwords

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

var units = [...]string{"", "un", "deux", "trois", "quatre", "cinq", "six", "sept", "huit", "neuf"}

var teens = [...]string{"dix", "onze", "douze", "treize", "quatorze", "quinze", "seize", "dix-sept", "dix-huit", "dix-neuf"}

var tens = [...]string{"", "dix", "vingt", "trente", "quarante", "cinquante", "soixante"}

// FromInt spells an integer in French ("quatre-vingt-dix-sept", "deux cents", "mille").
func FromInt(n int64) string {
	if n == 0 {
		return "zéro"
	}
	if n < 0 {
		return "moins " + spell(uint64(-(n+1))+1)
	}
	return spell(uint64(n))
}

func spell(n uint64) string {
	var parts []string

	groups := []struct {
		size     uint64
		singular string
		plural   string
	}{
		{1_000_000_000, "un milliard", "milliards"},
		{1_000_000, "un million", "millions"},
	}
	for _, g := range groups {
		if q := n / g.size; q > 0 {
			if q == 1 {
				parts = append(parts, g.singular)
			} else {
				parts = append(parts, spell(q)+" "+g.plural)
			}
			n %= g.size
		}
	}

	if q := n / 1000; q > 0 {
		if q == 1 {
			parts = append(parts, "mille")
		} else {
			// "cent" and "vingt" stay singular before mille
			parts = append(parts, belowThousand(q, true)+" mille")
		}
		n %= 1000
	}

	if n > 0 {
		parts = append(parts, belowThousand(n, false))
	}
	return strings.Join(parts, " ")
}

func belowThousand(n uint64, invariable bool) string {
	var parts []string
	if h := n / 100; h > 0 {
		n %= 100
		switch {
		case h == 1:
			parts = append(parts, "cent")
		case n == 0 && !invariable:
			parts = append(parts, units[h]+" cents")
		default:
			parts = append(parts, units[h]+" cent")
		}
	}
	if n > 0 {
		parts = append(parts, belowHundred(n, invariable))
	}
	return strings.Join(parts, " ")
}

func belowHundred(n uint64, invariable bool) string {
	if n < 10 {
		return units[n]
	}
	if n < 20 {
		return teens[n-10]
	}

	t, u := n/10, n%10
	switch t {
	case 7:
		if u == 1 {
			return "soixante-et-onze"
		}
		return "soixante-" + teens[u]
	case 8:
		if u == 0 {
			if invariable {
				return "quatre-vingt"
			}
			return "quatre-vingts"
		}
		return "quatre-vingt-" + units[u]
	case 9:
		return "quatre-vingt-" + teens[u]
	}

	switch u {
	case 0:
		return tens[t]
	case 1:
		return tens[t] + "-et-un"
	default:
		return tens[t] + "-" + units[u]
	}
}

const amountPrefix = "Arrêté la présente facture à la somme de : "

// Amount renders the legal amount sentence printed on invoices, for example
// "Arrêté la présente facture à la somme de : Mille deux cents dirhams et cinquante centimes".
func Amount(amount decimal.Decimal) string {
	amount = amount.Abs().Round(2)
	whole := amount.IntPart()
	cents := amount.Sub(decimal.NewFromInt(whole)).Mul(decimal.NewFromInt(100)).IntPart()

	var b strings.Builder
	b.WriteString(amountPrefix)
	b.WriteString(capitalize(FromInt(whole)))
	b.WriteString(" dirhams")
	if cents > 0 {
		b.WriteString(" et ")
		b.WriteString(FromInt(cents))
		b.WriteString(" centimes")
	}
	return b.String()
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
