package service

import (
	"context"
	"fmt"

	"facture/internal/repository"

	"github.com/xuri/excelize/v2"
)

const (
	invoicesSheet = "Factures"
	linesSheet    = "Lignes"
)

type ExportService interface {
	// ExportYear builds an XLSX workbook of the invoices of year and their lines.
	ExportYear(ctx context.Context, year int) ([]byte, error)
}

type exportService struct {
	statsRepo repository.StatisticsRepository
}

func NewExportService(statsRepo repository.StatisticsRepository) ExportService {
	return &exportService{statsRepo: statsRepo}
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func setRow(f *excelize.File, sheet string, row int, values ...interface{}) error {
	for i, v := range values {
		if err := f.SetCellValue(sheet, cellName(i+1, row), v); err != nil {
			return err
		}
	}
	return nil
}

func (s *exportService) ExportYear(ctx context.Context, year int) ([]byte, error) {
	invoices, err := s.statsRepo.InvoicesOfYear(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoices: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", invoicesSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(linesSheet); err != nil {
		return nil, err
	}

	if err := setRow(f, invoicesSheet, 1, "N°", "Date", "Client", "ICE", "Ville", "Total HT", "TVA", "Total TTC", "Paiement"); err != nil {
		return nil, err
	}
	if err := setRow(f, linesSheet, 1, "N°", "Désignation", "Quantité", "Prix unitaire TTC", "Total TTC"); err != nil {
		return nil, err
	}

	lineRow := 2
	for i, inv := range invoices {
		err := setRow(f, invoicesSheet, i+2,
			inv.DisplayID(),
			inv.Date.Format(DateLayout),
			inv.ClientName,
			inv.ClientICE,
			inv.ClientCity,
			inv.TotalHT.InexactFloat64(),
			inv.TotalTVA.InexactFloat64(),
			inv.TotalTTC.InexactFloat64(),
			inv.PaymentMethod,
		)
		if err != nil {
			return nil, err
		}

		for _, it := range inv.Items {
			err := setRow(f, linesSheet, lineRow,
				inv.DisplayID(),
				it.Description,
				it.Quantity.InexactFloat64(),
				it.UnitPriceTTC.InexactFloat64(),
				it.TotalTTC.InexactFloat64(),
			)
			if err != nil {
				return nil, err
			}
			lineRow++
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
