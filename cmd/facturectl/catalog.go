package main

import (
	"fmt"
	"text/tabwriter"

	"facture/internal/draft"
	"facture/pkg/money"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
)

// reportNotices prints the banners left by an engine or catalog call and
// dismisses the error ones.
func reportNotices(c *cli.Context, n *draft.Notices) {
	if msg := n.Error(); msg != "" {
		fmt.Fprintln(c.App.ErrWriter, msg)
		n.DismissError()
	}
	if msg := n.PDFError(); msg != "" {
		fmt.Fprintln(c.App.ErrWriter, msg)
		n.DismissPDFError()
	}
	if msg := n.Success(); msg != "" {
		fmt.Fprintln(c.App.Writer, msg)
	}
}

// withCatalog runs fn against a notice-reporting catalog.
func withCatalog(c *cli.Context, fn func(cat *draft.Catalog) error) error {
	notices := draft.NewNotices(nil)
	err := fn(draft.NewCatalog(client(c), notices))
	reportNotices(c, notices)
	return err
}

func clientFlags(required bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "name", Required: required},
		&cli.StringFlag{Name: "ice", Required: required, Usage: "15 digits"},
		&cli.StringFlag{Name: "city", Required: required},
		&cli.StringFlag{Name: "address"},
		&cli.StringFlag{Name: "phone"},
		&cli.StringFlag{Name: "email"},
	}
}

// applyClientFlags overwrites the fields whose flag was given.
func applyClientFlags(c *cli.Context, cl *draft.Client) {
	for name, field := range map[string]*string{
		"name": &cl.Name, "ice": &cl.ICE, "city": &cl.City,
		"address": &cl.Address, "phone": &cl.Phone, "email": &cl.Email,
	} {
		if c.IsSet(name) {
			*field = c.String(name)
		}
	}
}

func clientsCommand() *cli.Command {
	return &cli.Command{
		Name:  "clients",
		Usage: "client address book",
		Subcommands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "search by name or ICE; lists everyone without a query",
				ArgsUsage: "[QUERY]",
				Action: func(c *cli.Context) error {
					return withCatalog(c, func(cat *draft.Catalog) error {
						clients, err := cat.SearchClients(c.Context, c.Args().First())
						if err != nil {
							return err
						}
						w := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
						fmt.Fprintln(w, "ID\tICE\tNOM\tVILLE")
						for _, cl := range clients {
							fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", cl.ID, cl.ICE, cl.Name, cl.City)
						}
						return w.Flush()
					})
				},
			},
			{
				Name:  "add",
				Flags: clientFlags(true),
				Action: func(c *cli.Context) error {
					return withCatalog(c, func(cat *draft.Catalog) error {
						var cl draft.Client
						applyClientFlags(c, &cl)
						created, err := cat.CreateClient(c.Context, cl)
						if err != nil {
							return err
						}
						fmt.Fprintln(c.App.Writer, created.ID)
						return nil
					})
				},
			},
			{
				Name:      "update",
				ArgsUsage: "CLIENT_ID",
				Flags:     clientFlags(false),
				Action: func(c *cli.Context) error {
					id := c.Args().First()
					return withCatalog(c, func(cat *draft.Catalog) error {
						all, err := cat.ListClients(c.Context)
						if err != nil {
							return err
						}
						for _, cl := range all {
							if cl.ID.String() == id {
								applyClientFlags(c, &cl)
								_, err := cat.UpdateClient(c.Context, id, cl)
								return err
							}
						}
						return cli.Exit(fmt.Sprintf("no client %q", id), 2)
					})
				},
			},
			{
				Name:      "rm",
				ArgsUsage: "CLIENT_ID",
				Action: func(c *cli.Context) error {
					return withCatalog(c, func(cat *draft.Catalog) error {
						return cat.DeleteClient(c.Context, c.Args().First())
					})
				},
			},
		},
	}
}

func productFlags(required bool) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "ref", Required: required, Usage: "unique reference"},
		&cli.StringFlag{Name: "name", Required: required},
		&cli.StringFlag{Name: "category"},
		&cli.StringFlag{Name: "buying-price"},
		&cli.StringFlag{Name: "price", Usage: "selling price TTC"},
		&cli.IntFlag{Name: "stock", Usage: "initial stock, ignored on update"},
		&cli.IntFlag{Name: "min-stock"},
	}
}

// applyProductFlags overwrites the fields whose flag was given.
func applyProductFlags(c *cli.Context, p *draft.Product) error {
	if c.IsSet("ref") {
		p.Reference = c.String("ref")
	}
	if c.IsSet("name") {
		p.Name = c.String("name")
	}
	if c.IsSet("category") {
		p.Category = c.String("category")
	}
	for flag, field := range map[string]*decimal.Decimal{"buying-price": &p.BuyingPrice, "price": &p.PriceTTC} {
		if !c.IsSet(flag) {
			continue
		}
		v, err := decimal.NewFromString(c.String(flag))
		if err != nil {
			return cli.Exit(fmt.Sprintf("--%s must be a number", flag), 2)
		}
		*field = v
	}
	if c.IsSet("stock") {
		p.Stock = c.Int("stock")
	}
	if c.IsSet("min-stock") {
		p.MinStock = c.Int("min-stock")
	}
	return nil
}

func productsCommand() *cli.Command {
	return &cli.Command{
		Name:  "products",
		Usage: "product catalog",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Flags: []cli.Flag{&cli.StringFlag{Name: "search"}},
				Action: func(c *cli.Context) error {
					return withCatalog(c, func(cat *draft.Catalog) error {
						products, err := cat.ListProducts(c.Context, c.String("search"))
						if err != nil {
							return err
						}
						w := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
						fmt.Fprintln(w, "ID\tREF\tDÉSIGNATION\tPRIX TTC\tSTOCK\t")
						for _, p := range products {
							low := ""
							if p.LowStock {
								low = "bas"
							}
							fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n", p.ID, p.Reference, p.Name, money.Format(p.PriceTTC), p.Stock, low)
						}
						return w.Flush()
					})
				},
			},
			{
				Name:  "add",
				Flags: productFlags(true),
				Action: func(c *cli.Context) error {
					var p draft.Product
					if err := applyProductFlags(c, &p); err != nil {
						return err
					}
					return withCatalog(c, func(cat *draft.Catalog) error {
						created, err := cat.CreateProduct(c.Context, p)
						if err != nil {
							return err
						}
						fmt.Fprintln(c.App.Writer, created.ID)
						return nil
					})
				},
			},
			{
				Name:      "update",
				ArgsUsage: "PRODUCT_ID",
				Flags:     productFlags(false),
				Action: func(c *cli.Context) error {
					id := c.Args().First()
					return withCatalog(c, func(cat *draft.Catalog) error {
						all, err := cat.ListProducts(c.Context, "")
						if err != nil {
							return err
						}
						for _, p := range all {
							if p.ID.String() != id {
								continue
							}
							if err := applyProductFlags(c, &p); err != nil {
								return err
							}
							_, err := cat.UpdateProduct(c.Context, id, p)
							return err
						}
						return cli.Exit(fmt.Sprintf("no product %q", id), 2)
					})
				},
			},
			{
				Name:      "rm",
				ArgsUsage: "PRODUCT_ID",
				Action: func(c *cli.Context) error {
					return withCatalog(c, func(cat *draft.Catalog) error {
						return cat.DeleteProduct(c.Context, c.Args().First())
					})
				},
			},
		},
	}
}
