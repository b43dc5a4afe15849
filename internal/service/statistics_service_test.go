package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboard(t *testing.T) {
	ts := newTestServices(t)
	ctx := context.Background()
	p := ts.product(t, "CAB-01", 3, "60")

	_, err := ts.invoices.CreateInvoice(ctx, "tester", validRequest(
		InvoiceItemRequest{ProductID: p.ID, Description: p.Name, Quantity: decimal.NewFromInt(2), UnitPriceTTC: decimal.RequireFromString("60")},
		InvoiceItemRequest{Description: "Transport", Quantity: decimal.NewFromInt(1), UnitPriceTTC: decimal.RequireFromString("50")},
	))
	require.NoError(t, err)

	december := validRequest()
	december.Date = "05-12-2025"
	december.ClientName = "Rif Matériaux"
	december.ClientICE = "009999999000011"
	_, err = ts.invoices.CreateInvoice(ctx, "tester", december)
	require.NoError(t, err)

	other := validRequest()
	other.Date = "05-01-2024"
	_, err = ts.invoices.CreateInvoice(ctx, "tester", other)
	require.NoError(t, err)

	dash, err := ts.stats.GetDashboard(ctx, 2025)
	require.NoError(t, err)

	assert.Equal(t, 2025, dash.Year)
	assert.EqualValues(t, 2, dash.TotalInvoices)
	assert.Equal(t, "1370.00", dash.TotalRevenue.StringFixed(2))
	// (120 - 2*10) + 50 + 1200
	assert.Equal(t, "1350.00", dash.TotalNetProfit.StringFixed(2))

	require.Len(t, dash.MonthlyRevenue, 12)
	assert.Equal(t, "Mar", dash.MonthlyRevenue[2].Month)
	assert.Equal(t, "170.00", dash.MonthlyRevenue[2].Revenue.StringFixed(2))
	assert.Equal(t, "Déc", dash.MonthlyRevenue[11].Month)
	assert.True(t, dash.MonthlyRevenue[0].Revenue.IsZero())

	require.Len(t, dash.TopClients, 2)
	assert.Equal(t, "Rif Matériaux", dash.TopClients[0].Name)
	assert.EqualValues(t, 1, dash.TopClients[1].InvoiceCount)

	require.Len(t, dash.TopProducts, 3)
	assert.Equal(t, p.Name, dash.TopProducts[0].Name)
	assert.Equal(t, "2", dash.TopProducts[0].QuantitySold.String())

	require.Len(t, dash.RecentInvoices, 2)
	assert.Equal(t, "05-12-2025", dash.RecentInvoices[0].Date)

	assert.EqualValues(t, 1, dash.ProductCount)
	assert.EqualValues(t, 1, dash.LowStockCount)
}
