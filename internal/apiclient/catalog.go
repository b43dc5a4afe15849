package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"facture/internal/draft"
	"facture/internal/service"

	"github.com/google/uuid"
)

// ListProducts implements draft.CatalogStore.
func (c *Client) ListProducts(ctx context.Context, search string) ([]draft.Product, error) {
	var q url.Values
	if search != "" {
		q = url.Values{"search": {search}}
	}
	var res []service.ProductResponse
	if err := c.do(ctx, http.MethodGet, "/api/products", q, nil, &res); err != nil {
		return nil, err
	}
	out := make([]draft.Product, 0, len(res))
	for _, p := range res {
		out = append(out, toProduct(p))
	}
	return out, nil
}

func (c *Client) CreateProduct(ctx context.Context, p draft.Product) (draft.Product, error) {
	var res service.ProductResponse
	if err := c.do(ctx, http.MethodPost, "/api/products", nil, toProductRequest(p), &res); err != nil {
		return draft.Product{}, err
	}
	return toProduct(res), nil
}

func (c *Client) UpdateProduct(ctx context.Context, id string, p draft.Product) (draft.Product, error) {
	var res service.ProductResponse
	if err := c.do(ctx, http.MethodPut, "/api/products/"+url.PathEscape(id), nil, toProductRequest(p), &res); err != nil {
		return draft.Product{}, err
	}
	return toProduct(res), nil
}

func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/products/"+url.PathEscape(id), nil, nil, nil)
}

func (c *Client) ListClients(ctx context.Context) ([]draft.Client, error) {
	return c.clients(ctx, "/api/clients", nil)
}

func (c *Client) SearchClients(ctx context.Context, query string) ([]draft.Client, error) {
	return c.clients(ctx, "/api/clients/search", url.Values{"q": {query}})
}

func (c *Client) clients(ctx context.Context, path string, q url.Values) ([]draft.Client, error) {
	var res []service.ClientResponse
	if err := c.do(ctx, http.MethodGet, path, q, nil, &res); err != nil {
		return nil, err
	}
	out := make([]draft.Client, 0, len(res))
	for _, cl := range res {
		out = append(out, toClient(cl))
	}
	return out, nil
}

func (c *Client) CreateClient(ctx context.Context, cl draft.Client) (draft.Client, error) {
	var res service.ClientResponse
	if err := c.do(ctx, http.MethodPost, "/api/clients", nil, toClientRequest(cl), &res); err != nil {
		return draft.Client{}, err
	}
	return toClient(res), nil
}

func (c *Client) UpdateClient(ctx context.Context, id string, cl draft.Client) (draft.Client, error) {
	var res service.ClientResponse
	if err := c.do(ctx, http.MethodPut, "/api/clients/"+url.PathEscape(id), nil, toClientRequest(cl), &res); err != nil {
		return draft.Client{}, err
	}
	return toClient(res), nil
}

func (c *Client) DeleteClient(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/clients/"+url.PathEscape(id), nil, nil, nil)
}

func (c *Client) Dashboard(ctx context.Context, year int) (service.DashboardResponse, error) {
	var q url.Values
	if year > 0 {
		q = url.Values{"year": {strconv.Itoa(year)}}
	}
	var res service.DashboardResponse
	err := c.do(ctx, http.MethodGet, "/api/dashboard", q, nil, &res)
	return res, err
}

func toProduct(p service.ProductResponse) draft.Product {
	id, _ := uuid.Parse(p.ID)
	return draft.Product{
		ID:          id,
		Reference:   p.Reference,
		Name:        p.Name,
		Category:    p.Category,
		BuyingPrice: p.BuyingPrice,
		PriceTTC:    p.SellingPriceTTC,
		Stock:       p.CurrentStock,
		MinStock:    p.MinStockLevel,
		LowStock:    p.LowStock,
	}
}

func toProductRequest(p draft.Product) service.ProductRequest {
	return service.ProductRequest{
		Reference:       p.Reference,
		Name:            p.Name,
		Category:        p.Category,
		BuyingPrice:     p.BuyingPrice,
		SellingPriceTTC: p.PriceTTC,
		CurrentStock:    p.Stock,
		MinStockLevel:   p.MinStock,
	}
}

func toClient(c service.ClientResponse) draft.Client {
	id, _ := uuid.Parse(c.ID)
	return draft.Client{
		ID:      id,
		Name:    c.Name,
		ICE:     c.ICE,
		City:    c.City,
		Address: c.Address,
		Phone:   c.Phone,
		Email:   c.Email,
	}
}

func toClientRequest(c draft.Client) service.ClientRequest {
	return service.ClientRequest{
		Name:    c.Name,
		ICE:     c.ICE,
		City:    c.City,
		Address: c.Address,
		Phone:   c.Phone,
		Email:   c.Email,
	}
}
