package service

import (
	"facture/pkg/frenchwords"

	"github.com/shopspring/decimal"
)

// TotalsResponse is the tax split of a tax-inclusive amount.
type TotalsResponse struct {
	TotalHT      decimal.Decimal `json:"total_ht"`
	TotalTVA     decimal.Decimal `json:"total_tva"`
	TotalTTC     decimal.Decimal `json:"total_ttc"`
	TotalInWords string          `json:"total_in_words"`
	TaxRate      decimal.Decimal `json:"tax_rate"`
}

// ComputeTotals splits a TTC amount: HT = TTC / (1 + rate) and TVA = TTC - HT,
// each rounded to centimes.
func ComputeTotals(ttc, rate decimal.Decimal) TotalsResponse {
	ttc = ttc.Round(2)
	ht := ttc.Div(decimal.NewFromInt(1).Add(rate)).Round(2)
	return TotalsResponse{
		TotalHT:      ht,
		TotalTVA:     ttc.Sub(ht),
		TotalTTC:     ttc,
		TotalInWords: frenchwords.Amount(ttc),
		TaxRate:      rate,
	}
}
