package draft

import (
	"context"
	"fmt"
	"strings"
)

// CatalogStore is the product and client CRUD the form works with.
type CatalogStore interface {
	ListProducts(ctx context.Context, search string) ([]Product, error)
	CreateProduct(ctx context.Context, p Product) (Product, error)
	UpdateProduct(ctx context.Context, id string, p Product) (Product, error)
	DeleteProduct(ctx context.Context, id string) error

	ListClients(ctx context.Context) ([]Client, error)
	SearchClients(ctx context.Context, query string) ([]Client, error)
	CreateClient(ctx context.Context, c Client) (Client, error)
	UpdateClient(ctx context.Context, id string, c Client) (Client, error)
	DeleteClient(ctx context.Context, id string) error
}

// Catalog reports the outcome of CatalogStore calls through Notices.
type Catalog struct {
	store   CatalogStore
	notices *Notices
}

func NewCatalog(store CatalogStore, notices *Notices) *Catalog {
	return &Catalog{store: store, notices: notices}
}

func (c *Catalog) fail(op string, err error) error {
	c.notices.setError(err.Error())
	return fmt.Errorf("%s: %w", op, err)
}

func (c *Catalog) ListProducts(ctx context.Context, search string) ([]Product, error) {
	products, err := c.store.ListProducts(ctx, search)
	if err != nil {
		return nil, c.fail("list products", err)
	}
	return products, nil
}

func (c *Catalog) CreateProduct(ctx context.Context, p Product) (Product, error) {
	created, err := c.store.CreateProduct(ctx, p)
	if err != nil {
		return Product{}, c.fail("create product", err)
	}
	c.notices.setSuccess(fmt.Sprintf("Produit %s créé avec succès", created.Reference))
	return created, nil
}

func (c *Catalog) UpdateProduct(ctx context.Context, id string, p Product) (Product, error) {
	updated, err := c.store.UpdateProduct(ctx, id, p)
	if err != nil {
		return Product{}, c.fail("update product", err)
	}
	c.notices.setSuccess(fmt.Sprintf("Produit %s mis à jour", updated.Reference))
	return updated, nil
}

func (c *Catalog) DeleteProduct(ctx context.Context, id string) error {
	if err := c.store.DeleteProduct(ctx, id); err != nil {
		return c.fail("delete product", err)
	}
	c.notices.setSuccess("Produit supprimé")
	return nil
}

func (c *Catalog) ListClients(ctx context.Context) ([]Client, error) {
	clients, err := c.store.ListClients(ctx)
	if err != nil {
		return nil, c.fail("list clients", err)
	}
	return clients, nil
}

// SearchClients falls back to the full list for an empty query.
func (c *Catalog) SearchClients(ctx context.Context, query string) ([]Client, error) {
	if strings.TrimSpace(query) == "" {
		return c.ListClients(ctx)
	}
	clients, err := c.store.SearchClients(ctx, query)
	if err != nil {
		return nil, c.fail("search clients", err)
	}
	return clients, nil
}

func (c *Catalog) CreateClient(ctx context.Context, cl Client) (Client, error) {
	created, err := c.store.CreateClient(ctx, cl)
	if err != nil {
		return Client{}, c.fail("create client", err)
	}
	c.notices.setSuccess(fmt.Sprintf("Client %s créé avec succès", created.Name))
	return created, nil
}

func (c *Catalog) UpdateClient(ctx context.Context, id string, cl Client) (Client, error) {
	updated, err := c.store.UpdateClient(ctx, id, cl)
	if err != nil {
		return Client{}, c.fail("update client", err)
	}
	c.notices.setSuccess(fmt.Sprintf("Client %s mis à jour", updated.Name))
	return updated, nil
}

func (c *Catalog) DeleteClient(ctx context.Context, id string) error {
	if err := c.store.DeleteClient(ctx, id); err != nil {
		return c.fail("delete client", err)
	}
	c.notices.setSuccess("Client supprimé")
	return nil
}
