package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"facture/internal/draft"

	"gopkg.in/yaml.v3"
)

// draftFile is the YAML form of an invoice draft.
type draftFile struct {
	Date     string `yaml:"date"`
	CustomID string `yaml:"custom_id"`
	Client   struct {
		Name string `yaml:"name"`
		City string `yaml:"city"`
		ICE  string `yaml:"ice"`
	} `yaml:"client"`
	Payment struct {
		Method    string `yaml:"method"`
		Number    string `yaml:"number"`
		Bank      string `yaml:"bank"`
		City      string `yaml:"city"`
		DueDate   string `yaml:"due_date"`
		Reference string `yaml:"reference"`
	} `yaml:"payment"`
	Lines []struct {
		Product     string `yaml:"product"` // catalog reference
		Description string `yaml:"description"`
		Quantity    string `yaml:"quantity"`
		UnitPrice   string `yaml:"unit_price"`
	} `yaml:"lines"`
}

// catalogLookup resolves product references and client ICEs; draft.Catalog
// satisfies it.
type catalogLookup interface {
	ListProducts(ctx context.Context, search string) ([]draft.Product, error)
	SearchClients(ctx context.Context, query string) ([]draft.Client, error)
}

func readDraftFile(path string) (*draftFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f draftFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &f, nil
}

func (f *draftFile) payment() (draft.Payment, error) {
	method := strings.ToUpper(strings.TrimSpace(f.Payment.Method))
	if method == "" {
		method = draft.MethodCash
	}
	in := f.Payment
	switch p := draft.PaymentFor(method).(type) {
	case draft.Cash:
		return p, nil
	case draft.Cheque:
		p.Number, p.Bank, p.City, p.Reference = in.Number, in.Bank, in.City, in.Reference
		return p, nil
	case draft.Effet:
		p.City, p.DueDate, p.Bank, p.Reference = in.City, in.DueDate, in.Bank, in.Reference
		return p, nil
	}
	return nil, fmt.Errorf("unknown payment method %q", f.Payment.Method)
}

// apply writes the file onto the engine's draft. Empty header fields keep the
// current values; lines, when present, replace the current ones. A client
// given by ICE alone is taken from the address book.
func (f *draftFile) apply(ctx context.Context, e *draft.Engine, catalog catalogLookup) error {
	cur := e.Snapshot()
	if f.Date != "" {
		if err := e.SetDate(f.Date); err != nil {
			return err
		}
	}
	if f.CustomID != "" {
		if err := e.SetCustomID(f.CustomID); err != nil {
			return err
		}
	}
	switch {
	case f.Client.Name == "" && f.Client.ICE != "":
		cl, err := findClient(ctx, catalog, f.Client.ICE)
		if err != nil {
			return err
		}
		if f.Client.City != "" {
			cl.City = f.Client.City
		}
		if err := e.SelectClient(cl); err != nil {
			return err
		}
	case f.Client.Name != "" || f.Client.City != "":
		if err := e.SetClient(or(f.Client.Name, cur.ClientName), or(f.Client.City, cur.ClientCity), or(f.Client.ICE, cur.ClientICE)); err != nil {
			return err
		}
	}
	if f.Payment.Method != "" {
		p, err := f.payment()
		if err != nil {
			return err
		}
		if err := e.SetPayment(p); err != nil {
			return err
		}
	}

	if len(f.Lines) == 0 {
		return nil
	}
	for n := len(cur.Lines); n > 1; n-- {
		e.RemoveLine(ctx, n-1)
	}
	for i, l := range f.Lines {
		if i > 0 {
			if err := e.AddLine(ctx); err != nil {
				return err
			}
		}
		if l.Product != "" {
			p, err := findProduct(ctx, catalog, l.Product)
			if err != nil {
				return fmt.Errorf("line %d: %w", i+1, err)
			}
			if err := e.SelectProduct(ctx, i, p); err != nil {
				return err
			}
		} else {
			// the kept first line may still carry a product
			if err := e.SelectProduct(ctx, i, draft.Product{}); err != nil {
				return err
			}
		}
		if l.Description != "" {
			if err := e.SetDescription(ctx, i, l.Description); err != nil {
				return err
			}
		}
		if err := e.SetQuantity(ctx, i, or(l.Quantity, "1")); err != nil {
			return err
		}
		if l.UnitPrice != "" {
			if err := e.SetUnitPrice(ctx, i, l.UnitPrice); err != nil {
				return err
			}
		}
	}
	return nil
}

func findProduct(ctx context.Context, catalog catalogLookup, reference string) (draft.Product, error) {
	found, err := catalog.ListProducts(ctx, reference)
	if err != nil {
		return draft.Product{}, err
	}
	for _, p := range found {
		if strings.EqualFold(p.Reference, reference) {
			return p, nil
		}
	}
	return draft.Product{}, fmt.Errorf("no product with reference %q", reference)
}

func findClient(ctx context.Context, catalog catalogLookup, ice string) (draft.Client, error) {
	found, err := catalog.SearchClients(ctx, ice)
	if err != nil {
		return draft.Client{}, err
	}
	for _, cl := range found {
		if cl.ICE == ice {
			return cl, nil
		}
	}
	return draft.Client{}, fmt.Errorf("no client with ICE %q", ice)
}

func or(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
