package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaxRuleTimeline(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()

	rules, err := ts.tax.GetTaxRules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	seeded := rules[0]

	// an open-ended rule overlaps the seeded one
	_, err = ts.tax.CreateTaxRule(ctx, "tester", TaxRuleRequest{TaxType: "TVA", Rate: "0.14", EffectiveFrom: "2025-01-01"})
	require.ErrorIs(t, err, ErrConflict)

	_, err = ts.tax.UpdateTaxRule(ctx, "tester", seeded.ID, TaxRuleRequest{
		TaxType: "TVA", Rate: "0.20", EffectiveFrom: "2000-01-01", EffectiveTo: "2024-12-31",
	})
	require.NoError(t, err)

	_, err = ts.tax.CreateTaxRule(ctx, "tester", TaxRuleRequest{TaxType: "TVA", Rate: "0.14", EffectiveFrom: "2025-01-01"})
	require.NoError(t, err)

	lastDay := time.Date(2024, 12, 31, 18, 0, 0, 0, time.UTC)
	rate, err := ts.tax.RateOn(ctx, "TVA", lastDay)
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.RequireFromString("0.20")), rate.String())

	rate, err = ts.tax.RateOn(ctx, "TVA", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.RequireFromString("0.14")), rate.String())

	res, err := ts.invoices.CreateInvoice(ctx, "tester", validRequest())
	require.NoError(t, err)
	assert.True(t, res.TaxRate.Equal(decimal.RequireFromString("0.14")))
	assert.Equal(t, "1052.63", res.TotalHT.StringFixed(2))
}

func TestTaxRuleValidation(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()

	bad := []TaxRuleRequest{
		{TaxType: "TVA", Rate: "abc", EffectiveFrom: "2030-01-01"},
		{TaxType: "TVA", Rate: "1.5", EffectiveFrom: "2030-01-01"},
		{TaxType: "TVA", Rate: "0.1", EffectiveFrom: "01-01-2030"},
		{TaxType: "TVA", Rate: "0.1", EffectiveFrom: "2030-01-01", EffectiveTo: "2029-01-01"},
	}
	for _, req := range bad {
		_, err := ts.tax.CreateTaxRule(ctx, "tester", req)
		assert.ErrorIs(t, err, ErrInvalidInput, req)
	}
}

func TestRateOnFallsBackToDefault(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()

	rules, err := ts.tax.GetTaxRules(ctx)
	require.NoError(t, err)
	require.NoError(t, ts.tax.DeleteTaxRule(ctx, "tester", rules[0].ID))

	rate, err := ts.tax.RateOn(ctx, "TVA", time.Now())
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.RequireFromString("0.20")))

	active, err := ts.tax.GetActiveTaxRate(ctx, "TVA")
	require.NoError(t, err)
	assert.Equal(t, "0.2000", active.Rate)
	assert.Empty(t, active.RuleID)
}
