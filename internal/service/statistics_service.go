package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"facture/internal/model"
	"facture/internal/repository"

	"github.com/shopspring/decimal"
)

var monthLabels = [12]string{"Jan", "Fév", "Mar", "Avr", "Mai", "Juin", "Juil", "Août", "Sep", "Oct", "Nov", "Déc"}

const topN = 5

type InvoiceSummary struct {
	ID         string          `json:"id"`
	DisplayID  string          `json:"display_id"`
	Date       string          `json:"date"`
	ClientName string          `json:"client_name"`
	TotalTTC   decimal.Decimal `json:"total_ttc"`
}

type DashboardResponse struct {
	Year           int                    `json:"year"`
	TotalRevenue   decimal.Decimal        `json:"total_revenue"`
	TotalNetProfit decimal.Decimal        `json:"total_net_profit"`
	TotalInvoices  int64                  `json:"total_invoices"`
	RecentInvoices []InvoiceSummary       `json:"recent_invoices"`
	MonthlyRevenue []model.MonthlyRevenue `json:"monthly_revenue"`
	TopClients     []model.ClientRanking  `json:"top_clients"`
	TopProducts    []model.ProductRanking `json:"top_products"`
	ProductCount   int64                  `json:"product_count"`
	LowStockCount  int64                  `json:"low_stock_count"`
}

type StatisticsService interface {
	GetDashboard(ctx context.Context, year int) (DashboardResponse, error)
}

type statisticsService struct {
	statsRepo   repository.StatisticsRepository
	productRepo repository.ProductRepository
	now         func() time.Time
}

func NewStatisticsService(statsRepo repository.StatisticsRepository, productRepo repository.ProductRepository) StatisticsService {
	return &statisticsService{statsRepo: statsRepo, productRepo: productRepo, now: time.Now}
}

// GetDashboard aggregates the invoices of year (current year when 0).
// Net profit is the sum over lines of TTC minus the buying price snapshot times quantity.
func (s *statisticsService) GetDashboard(ctx context.Context, year int) (DashboardResponse, error) {
	if year <= 0 {
		year = s.now().Year()
	}

	invoices, err := s.statsRepo.InvoicesOfYear(ctx, year)
	if err != nil {
		return DashboardResponse{}, fmt.Errorf("failed to load invoices: %w", err)
	}

	res := DashboardResponse{
		Year:           year,
		TotalRevenue:   decimal.Zero,
		TotalNetProfit: decimal.Zero,
		TotalInvoices:  int64(len(invoices)),
		RecentInvoices: []InvoiceSummary{},
		MonthlyRevenue: make([]model.MonthlyRevenue, 12),
	}

	monthly := [12]decimal.Decimal{}
	clients := map[string]*model.ClientRanking{}
	products := map[string]*model.ProductRanking{}

	for _, inv := range invoices {
		res.TotalRevenue = res.TotalRevenue.Add(inv.TotalTTC)
		monthly[inv.Date.Month()-1] = monthly[inv.Date.Month()-1].Add(inv.TotalTTC)

		c, ok := clients[inv.ClientName]
		if !ok {
			c = &model.ClientRanking{Name: inv.ClientName, ICE: inv.ClientICE, TotalSpend: decimal.Zero}
			clients[inv.ClientName] = c
		}
		c.TotalSpend = c.TotalSpend.Add(inv.TotalTTC)
		c.InvoiceCount++

		for _, it := range inv.Items {
			res.TotalNetProfit = res.TotalNetProfit.Add(it.TotalTTC.Sub(it.BuyingPrice.Mul(it.Quantity)))

			p, ok := products[it.Description]
			if !ok {
				p = &model.ProductRanking{Name: it.Description, QuantitySold: decimal.Zero, Revenue: decimal.Zero}
				products[it.Description] = p
			}
			p.QuantitySold = p.QuantitySold.Add(it.Quantity)
			p.Revenue = p.Revenue.Add(it.TotalTTC)
		}
	}

	for i := range monthly {
		res.MonthlyRevenue[i] = model.MonthlyRevenue{Month: monthLabels[i], Revenue: monthly[i]}
	}
	res.TopClients = topClients(clients)
	res.TopProducts = topProducts(products)
	res.RecentInvoices = recentInvoices(invoices)

	if res.ProductCount, err = s.productRepo.Count(ctx); err != nil {
		return DashboardResponse{}, fmt.Errorf("failed to count products: %w", err)
	}
	if res.LowStockCount, err = s.productRepo.CountLowStock(ctx); err != nil {
		return DashboardResponse{}, fmt.Errorf("failed to count low stock products: %w", err)
	}

	return res, nil
}

func topClients(m map[string]*model.ClientRanking) []model.ClientRanking {
	out := make([]model.ClientRanking, 0, len(m))
	for _, c := range m {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].TotalSpend.Cmp(out[j].TotalSpend); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

func topProducts(m map[string]*model.ProductRanking) []model.ProductRanking {
	out := make([]model.ProductRanking, 0, len(m))
	for _, p := range m {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].QuantitySold.Cmp(out[j].QuantitySold); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

// recentInvoices expects invoices sorted by date ascending.
func recentInvoices(invoices []model.Invoice) []InvoiceSummary {
	out := make([]InvoiceSummary, 0, topN)
	for i := len(invoices) - 1; i >= 0 && len(out) < topN; i-- {
		inv := invoices[i]
		out = append(out, InvoiceSummary{
			ID:         inv.ID.String(),
			DisplayID:  inv.DisplayID(),
			Date:       inv.Date.Format(DateLayout),
			ClientName: inv.ClientName,
			TotalTTC:   inv.TotalTTC,
		})
	}
	return out
}
