package money

import (
	"strings"
	"testing"
	"unicode"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func digitsAndComma(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) || r == ',' {
			return r
		}
		return -1
	}, s)
}

func TestFormatUsesFrenchDecimalComma(t *testing.T) {
	got := Format(decimal.RequireFromString("1234.5"))
	assert.Equal(t, "1234,50", digitsAndComma(got))
	assert.NotContains(t, got, ".")
}

func TestFormatDH(t *testing.T) {
	got := FormatDH(decimal.RequireFromString("20"))
	assert.True(t, strings.HasSuffix(got, " DH"))
	assert.Equal(t, "20,00", digitsAndComma(got))
}

func TestFormatQuantity(t *testing.T) {
	assert.Equal(t, "2", digitsAndComma(FormatQuantity(decimal.NewFromInt(2))))
	assert.Equal(t, "1,5", digitsAndComma(FormatQuantity(decimal.RequireFromString("1.5"))))
}
