// Command facturectl drives the facture API from a terminal: it submits
// invoice drafts written in YAML, previews totals and handles PDFs.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	"facture/internal/apiclient"
	"facture/internal/config"
	"facture/internal/draft"
	"facture/internal/middleware"
	"facture/pkg/money"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "facturectl",
		Usage: "manage invoices through the facture API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "server", Value: "http://localhost:8080", EnvVars: []string{"FACTURE_SERVER"}, Usage: "API base URL"},
			&cli.StringFlag{Name: "token", EnvVars: []string{"FACTURE_TOKEN"}, Usage: "bearer token when auth is enabled"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "log to stderr"},
		},
		Commands: []*cli.Command{
			submitCommand(),
			{
				Name:      "totals",
				Usage:     "split a TTC amount into HT and TVA",
				ArgsUsage: "AMOUNT",
				Action:    totalsAction,
			},
			{
				Name:      "pdf",
				Usage:     "generate an invoice PDF and open, print or download it",
				ArgsUsage: "INVOICE_ID",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "print", Usage: "send to the printer instead of opening"},
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "download to this file"},
				},
				Action: pdfAction,
			},
			{
				Name:  "invoices",
				Usage: "list the invoices of a year",
				Flags: []cli.Flag{&cli.IntFlag{Name: "year", Usage: "defaults to the current year"}},
				Action: func(c *cli.Context) error {
					list, err := client(c).ListInvoices(c.Context, c.Int("year"))
					if err != nil {
						return err
					}
					for _, inv := range list {
						fmt.Fprintln(c.App.Writer, apiclient.Summary(inv))
					}
					return nil
				},
			},
			{
				Name:  "export",
				Usage: "download the yearly invoice workbook",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "year", Required: true},
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "defaults to Factures_<year>.xlsx"},
				},
				Action: exportAction,
			},
			clientsCommand(),
			productsCommand(),
			{
				Name:   "dashboard",
				Usage:  "yearly revenue summary",
				Flags:  []cli.Flag{&cli.IntFlag{Name: "year"}},
				Action: dashboardAction,
			},
			{
				Name:  "token",
				Usage: "mint an API token from the local server configuration",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "subject", Value: "facturectl"},
					&cli.StringSliceFlag{Name: "config", Usage: "directories searched for config.yaml"},
				},
				Action: tokenAction,
			},
		},
	}
}

func newLogger(c *cli.Context) *zap.Logger {
	if !c.Bool("verbose") {
		return zap.NewNop()
	}
	log, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

func client(c *cli.Context) *apiclient.Client {
	var opts []apiclient.Option
	if token := c.String("token"); token != "" {
		opts = append(opts, apiclient.WithToken(token))
	}
	return apiclient.New(c.String("server"), opts...)
}

func submitCommand() *cli.Command {
	return &cli.Command{
		Name:  "submit",
		Usage: "create (or update with --edit) an invoice from a YAML draft",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Required: true},
			&cli.StringFlag{Name: "edit", Usage: "id of the invoice to update"},
			&cli.BoolFlag{Name: "no-open", Usage: "do not open the generated PDF"},
		},
		Action: func(c *cli.Context) error {
			ctx := c.Context
			log := newLogger(c)
			api := client(c)

			file, err := readDraftFile(c.String("file"))
			if err != nil {
				return err
			}

			deps := draft.Deps{Totals: api, Invoices: api, PDF: api}
			if !c.Bool("no-open") {
				deps.Viewer = apiclient.NewOpener(log)
			}
			e := draft.New(deps, draft.WithLogger(log))
			catalog := draft.NewCatalog(api, e.Notices())

			if id := c.String("edit"); id != "" {
				if err := e.Load(ctx, id); err != nil {
					reportNotices(c, e.Notices())
					return err
				}
			}
			if err := file.apply(ctx, e, catalog); err != nil {
				reportNotices(c, e.Notices())
				return err
			}

			w := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
			for _, l := range e.Snapshot().Lines {
				warn := ""
				if l.ExceedsStock() {
					warn = "stock insuffisant ?"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", l.Description, money.FormatQuantity(l.Quantity), money.Format(l.UnitPrice), money.Format(l.Total), warn)
			}
			printTotals(w, e.Totals())
			_ = w.Flush()

			saved, err := e.Submit(ctx)
			reportNotices(c, e.Notices())
			if err != nil {
				var verr *draft.ValidationError
				if errors.As(err, &verr) {
					return cli.Exit(verr.Message, 2)
				}
				if saved.ID != "" {
					fmt.Fprintf(c.App.Writer, "saved %s (%s) without PDF\n", saved.DisplayID, saved.ID)
				}
				return err
			}

			fmt.Fprintf(c.App.Writer, "id:  %s\npdf: %s\n", saved.ID, saved.PDFPath)
			return nil
		},
	}
}

func printTotals(w *tabwriter.Writer, t draft.Totals) {
	if t.IsZero() {
		return
	}
	fmt.Fprintf(w, "Total HT\t%s\n", money.FormatDH(t.HT))
	fmt.Fprintf(w, "TVA\t%s\n", money.FormatDH(t.TVA))
	fmt.Fprintf(w, "Total TTC\t%s\n", money.FormatDH(t.TTC))
	fmt.Fprintf(w, "%s\n", t.Words)
}

func totalsAction(c *cli.Context) error {
	amount, err := decimal.NewFromString(c.Args().First())
	if err != nil {
		return cli.Exit("AMOUNT must be a number", 2)
	}
	totals, err := client(c).CalculateTotals(c.Context, amount)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
	printTotals(w, totals)
	return w.Flush()
}

func pdfAction(c *cli.Context) error {
	id := c.Args().First()
	if id == "" {
		return cli.Exit("INVOICE_ID is required", 2)
	}
	api := client(c)

	if out := c.String("out"); out != "" {
		return writeFile(out, func(f *os.File) error { return api.DownloadPDF(c.Context, id, f) })
	}

	path, err := api.GeneratePDF(c.Context, id)
	if err != nil {
		return err
	}
	log := newLogger(c)
	opener := apiclient.NewOpener(log)
	if c.Bool("print") {
		e := draft.New(draft.Deps{PDF: api, Viewer: opener}, draft.WithLogger(log))
		err = e.Print(c.Context, path)
		reportNotices(c, e.Notices())
	} else {
		err = opener.OpenPDF(c.Context, path)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, path)
	return nil
}

func exportAction(c *cli.Context) error {
	year := c.Int("year")
	out := c.String("out")
	if out == "" {
		out = fmt.Sprintf("Factures_%d.xlsx", year)
	}
	if err := writeFile(out, func(f *os.File) error { return client(c).ExportYear(c.Context, year, f) }); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, out)
	return nil
}

// writeFile removes out again when fill fails.
func writeFile(out string, fill func(f *os.File) error) error {
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := fill(f); err != nil {
		_ = f.Close()
		_ = os.Remove(out)
		return err
	}
	return f.Close()
}

func dashboardAction(c *cli.Context) error {
	d, err := client(c).Dashboard(c.Context, c.Int("year"))
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Année\t%s\n", strconv.Itoa(d.Year))
	fmt.Fprintf(w, "Chiffre d'affaires\t%s\n", money.FormatDH(d.TotalRevenue))
	fmt.Fprintf(w, "Bénéfice net\t%s\n", money.FormatDH(d.TotalNetProfit))
	fmt.Fprintf(w, "Factures\t%d\n", d.TotalInvoices)
	fmt.Fprintf(w, "Produits en stock bas\t%d / %d\n", d.LowStockCount, d.ProductCount)
	for _, m := range d.MonthlyRevenue {
		fmt.Fprintf(w, "  %s\t%s\n", m.Month, money.FormatDH(m.Revenue))
	}
	return w.Flush()
}

func tokenAction(c *cli.Context) error {
	cfg, err := config.Load(c.StringSlice("config")...)
	if err != nil {
		return err
	}
	if cfg.Auth.JWTSecret == "" {
		return cli.Exit("auth.jwt_secret is not configured", 2)
	}
	token, err := middleware.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL).Issue(c.String("subject"))
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, token)
	return nil
}
