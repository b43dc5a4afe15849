// Package pdf renders invoices as A4 documents with maroto.
package pdf

import (
	"fmt"

	"facture/internal/model"
	"facture/pkg/money"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// Options control the page layout. TopMarginMM leaves room for pre-printed letterheads.
type Options struct {
	TopMarginMM float64
	CompanyName string
	CompanyICE  string
}

var (
	primaryColor  = &props.Color{Red: 41, Green: 128, Blue: 185}
	headerBgColor = &props.Color{Red: 236, Green: 240, Blue: 241}
	lineColor     = &props.Color{Red: 149, Green: 165, Blue: 166}
	mutedColor    = &props.Color{Red: 127, Green: 140, Blue: 141}
	stripeColor   = &props.Color{Red: 250, Green: 250, Blue: 250}
)

type Renderer struct {
	opts Options
}

func NewRenderer(opts Options) *Renderer {
	if opts.TopMarginMM <= 0 {
		opts.TopMarginMM = 40
	}
	return &Renderer{opts: opts}
}

// Render produces the PDF bytes of an invoice. Items must be loaded.
func (r *Renderer) Render(inv *model.Invoice) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} / {total}",
			Place:   props.RightBottom,
		}).
		WithLeftMargin(15).
		WithRightMargin(15).
		WithTopMargin(r.opts.TopMarginMM).
		Build()

	m := maroto.New(cfg)

	addHeader(m, inv)
	addSeparator(m)
	m.AddRow(8)
	addItems(m, inv)
	m.AddRow(10)
	addTotals(m, inv)
	addSeparator(m)
	m.AddRow(6)
	m.AddRow(12, text.NewCol(12, inv.TotalInWords, props.Text{Size: 10, Style: fontstyle.BoldItalic}))
	m.AddRow(6)
	addPayment(m, inv)
	m.AddRow(15)
	r.addFooter(m)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return doc.GetBytes(), nil
}

func addSeparator(m core.Maroto) {
	m.AddRow(3, col.New(12).Add(line.New(props.Line{Color: lineColor, Thickness: 0.5})))
}

func addHeader(m core.Maroto, inv *model.Invoice) {
	m.AddRow(10,
		text.NewCol(6, "FACTURE N°: "+inv.DisplayID(), props.Text{Size: 14, Style: fontstyle.Bold, Color: primaryColor}),
		text.NewCol(6, "Client: "+inv.ClientName, props.Text{Size: 12, Style: fontstyle.Bold, Align: align.Right}),
	)
	m.AddRow(6,
		text.NewCol(6, "Date: "+inv.Date.Format("02/01/2006"), props.Text{Size: 10}),
		text.NewCol(6, "Ville: "+inv.ClientCity, props.Text{Size: 10, Align: align.Right}),
	)
	m.AddRow(6,
		col.New(6),
		text.NewCol(6, "ICE: "+inv.ClientICE, props.Text{Size: 10, Align: align.Right, Color: mutedColor}),
	)
}

func addItems(m core.Maroto, inv *model.Invoice) {
	head := props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Center}
	m.AddRow(9,
		text.NewCol(5, "DÉSIGNATION", head),
		text.NewCol(2, "QTÉ", head),
		text.NewCol(3, "PRIX UNIT. TTC", head),
		text.NewCol(2, "TOTAL TTC", head),
	).WithStyle(&props.Cell{BackgroundColor: headerBgColor})
	m.AddRow(1, col.New(12).Add(line.New(props.Line{Color: primaryColor, Thickness: 1.0})))

	cell := props.Text{Size: 9, Align: align.Center}
	for i, it := range inv.Items {
		row := m.AddRow(8,
			text.NewCol(5, it.Description, props.Text{Size: 9, Align: align.Left, Left: 2}),
			text.NewCol(2, money.FormatQuantity(it.Quantity), cell),
			text.NewCol(3, money.Format(it.UnitPriceTTC), cell),
			text.NewCol(2, money.Format(it.TotalTTC), cell),
		)
		if i%2 == 1 {
			row.WithStyle(&props.Cell{BackgroundColor: stripeColor})
		}
	}
}

func addTotals(m core.Maroto, inv *model.Invoice) {
	label := props.Text{Size: 10, Align: align.Right}
	value := props.Text{Size: 10, Align: align.Right, Style: fontstyle.Bold}

	rate := inv.TaxRate.Shift(2).StringFixed(0)
	m.AddRow(7, col.New(6), text.NewCol(3, "Total HT:", label), text.NewCol(3, money.FormatDH(inv.TotalHT), value))
	m.AddRow(7, col.New(6), text.NewCol(3, "TVA ("+rate+"%):", label), text.NewCol(3, money.FormatDH(inv.TotalTVA), value))
	m.AddRow(9, col.New(6),
		text.NewCol(3, "Total TTC:", props.Text{Size: 12, Align: align.Right, Style: fontstyle.Bold}),
		text.NewCol(3, money.FormatDH(inv.TotalTTC), props.Text{Size: 12, Align: align.Right, Style: fontstyle.Bold, Color: primaryColor}),
	)
}

func addPayment(m core.Maroto, inv *model.Invoice) {
	style := props.Text{Size: 10}
	switch inv.PaymentMethod {
	case model.PaymentCheque:
		m.AddRow(6, text.NewCol(12, "Mode de paiement: Chèque N° "+inv.ChequeNumber, props.Text{Size: 10, Style: fontstyle.Bold}))
		m.AddRow(6, text.NewCol(12, "Banque: "+inv.ChequeBank+optional(" - Ville: ", inv.ChequeCity)+optional(" - Réf: ", inv.ChequeReference), style))
	case model.PaymentEffet:
		m.AddRow(6, text.NewCol(12, "Mode de paiement: Effet, échéance le "+inv.EffetDueDate, props.Text{Size: 10, Style: fontstyle.Bold}))
		m.AddRow(6, text.NewCol(12, "Ville: "+inv.EffetCity+optional(" - Banque: ", inv.EffetBank)+optional(" - Réf: ", inv.EffetReference), style))
	default:
		m.AddRow(6, text.NewCol(12, "Mode de paiement: Espèce", props.Text{Size: 10, Style: fontstyle.Bold}))
	}
}

func (r *Renderer) addFooter(m core.Maroto) {
	footer := "ICE: " + r.opts.CompanyICE
	if r.opts.CompanyName != "" {
		footer = r.opts.CompanyName + " - " + footer
	}
	m.AddRow(6, text.NewCol(12, footer, props.Text{Size: 9, Align: align.Center, Color: mutedColor}))
}

func optional(label, value string) string {
	if value == "" {
		return ""
	}
	return label + value
}
