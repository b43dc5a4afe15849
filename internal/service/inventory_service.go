package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"facture/internal/metrics"
	"facture/internal/model"
	"facture/internal/repository"
	ws "facture/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var maxStockQuantity = decimal.NewFromInt(math.MaxInt32)

// DTOs
type ProductRequest struct {
	Reference       string          `json:"reference" binding:"required"`
	Name            string          `json:"name" binding:"required"`
	Category        string          `json:"category"`
	BuyingPrice     decimal.Decimal `json:"buying_price"`
	SellingPriceTTC decimal.Decimal `json:"selling_price_ttc"`
	CurrentStock    int             `json:"current_stock" binding:"min=0"` // initial stock, ignored on update
	MinStockLevel   int             `json:"min_stock_level" binding:"min=0"`
}

type StockAdjustmentRequest struct {
	Quantity int    `json:"quantity" binding:"required"` // positive to add, negative to remove
	Note     string `json:"note"`
}

type ProductResponse struct {
	ID              string          `json:"id"`
	Reference       string          `json:"reference"`
	Name            string          `json:"name"`
	Category        string          `json:"category"`
	BuyingPrice     decimal.Decimal `json:"buying_price"`
	SellingPriceTTC decimal.Decimal `json:"selling_price_ttc"`
	CurrentStock    int             `json:"current_stock"`
	MinStockLevel   int             `json:"min_stock_level"`
	LowStock        bool            `json:"low_stock"`
}

type StockMovementResponse struct {
	ID              string  `json:"id"`
	InvoiceID       *string `json:"invoice_id"`
	TransactionType string  `json:"transaction_type"`
	QuantityChanged int     `json:"quantity_changed"`
	StockAfter      int     `json:"stock_after"`
	Note            string  `json:"note"`
	CreatedAt       string  `json:"created_at"`
}

// StockEvent is the websocket payload of stock changes.
type StockEvent struct {
	ProductID     string `json:"product_id"`
	Reference     string `json:"reference"`
	Name          string `json:"name"`
	CurrentStock  int    `json:"current_stock"`
	MinStockLevel int    `json:"min_stock_level"`
}

type InventoryService interface {
	GetProducts(ctx context.Context, search string) ([]ProductResponse, error)
	GetProduct(ctx context.Context, id string) (ProductResponse, error)
	CreateProduct(ctx context.Context, actor string, req ProductRequest) (ProductResponse, error)
	UpdateProduct(ctx context.Context, actor, id string, req ProductRequest) (ProductResponse, error)
	DeleteProduct(ctx context.Context, actor, id string) error
	AdjustStock(ctx context.Context, actor, id string, req StockAdjustmentRequest) (ProductResponse, error)
	GetMovements(ctx context.Context, id string, limit int) ([]StockMovementResponse, error)

	// Withdraw and Restock move stock for invoice lines. They must run inside
	// the caller's transaction and return the product after the movement.
	Withdraw(ctx context.Context, productID uuid.UUID, qty int, invoiceID *uuid.UUID, note string) (*model.Product, error)
	Restock(ctx context.Context, productID uuid.UUID, qty int, invoiceID *uuid.UUID, note string) (*model.Product, error)
	// NotifyStock publishes stock events for products changed by a committed transaction.
	NotifyStock(products []*model.Product)
}

type inventoryService struct {
	productRepo repository.ProductRepository
	invTxRepo   repository.InventoryTxRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
	hub         *ws.Hub
	metrics     *metrics.Metrics
	log         *zap.Logger
}

func NewInventoryService(
	productRepo repository.ProductRepository,
	invTxRepo repository.InventoryTxRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
	m *metrics.Metrics,
	log *zap.Logger,
) InventoryService {
	return &inventoryService{
		productRepo: productRepo,
		invTxRepo:   invTxRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		hub:         hub,
		metrics:     m,
		log:         log,
	}
}

func toProductResponse(p *model.Product) ProductResponse {
	return ProductResponse{
		ID:              p.ID.String(),
		Reference:       p.Reference,
		Name:            p.Name,
		Category:        p.Category,
		BuyingPrice:     p.BuyingPrice,
		SellingPriceTTC: p.SellingPriceTTC,
		CurrentStock:    p.CurrentStock,
		MinStockLevel:   p.MinStockLevel,
		LowStock:        p.IsLowStock(),
	}
}

func validateProduct(req *ProductRequest) error {
	req.Reference = strings.TrimSpace(req.Reference)
	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)
	switch {
	case req.Reference == "":
		return invalidf("reference is required")
	case req.Name == "":
		return invalidf("name is required")
	case req.BuyingPrice.IsNegative():
		return invalidf("buying price cannot be negative")
	case req.SellingPriceTTC.IsNegative():
		return invalidf("selling price cannot be negative")
	case req.CurrentStock < 0 || req.MinStockLevel < 0:
		return invalidf("stock levels cannot be negative")
	}
	return nil
}

func parseProductID(id string) (uuid.UUID, error) {
	productID, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, invalidf("invalid product id")
	}
	return productID, nil
}

func (s *inventoryService) GetProducts(ctx context.Context, search string) ([]ProductResponse, error) {
	products, err := s.productRepo.List(ctx, search)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	res := make([]ProductResponse, 0, len(products))
	for i := range products {
		res = append(res, toProductResponse(&products[i]))
	}
	return res, nil
}

func (s *inventoryService) GetProduct(ctx context.Context, id string) (ProductResponse, error) {
	productID, err := parseProductID(id)
	if err != nil {
		return ProductResponse{}, err
	}
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return ProductResponse{}, lookupErr("product", err)
	}
	return toProductResponse(product), nil
}

func (s *inventoryService) CreateProduct(ctx context.Context, actor string, req ProductRequest) (ProductResponse, error) {
	if err := validateProduct(&req); err != nil {
		return ProductResponse{}, err
	}

	product := model.Product{
		Reference:       req.Reference,
		Name:            req.Name,
		Category:        req.Category,
		BuyingPrice:     req.BuyingPrice,
		SellingPriceTTC: req.SellingPriceTTC,
		CurrentStock:    req.CurrentStock,
		MinStockLevel:   req.MinStockLevel,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.productRepo.Create(txCtx, &product); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("a product with reference %s %w", req.Reference, ErrConflict)
			}
			return fmt.Errorf("failed to create product: %w", err)
		}

		if product.CurrentStock > 0 {
			if err := s.invTxRepo.Create(txCtx, &model.InventoryTransaction{
				ProductID:       product.ID,
				TransactionType: model.TxTypeIn,
				QuantityChanged: product.CurrentStock,
				StockAfter:      product.CurrentStock,
				Note:            "initial stock",
			}); err != nil {
				return fmt.Errorf("failed to record inventory transaction: %w", err)
			}
		}

		return writeAudit(txCtx, s.auditRepo, actor, model.ActionCreateProduct, product.ID.String(), product.Name, req)
	})
	if err != nil {
		return ProductResponse{}, err
	}

	s.hub.Publish(ws.EventProductChanged, toProductResponse(&product))
	return toProductResponse(&product), nil
}

func (s *inventoryService) UpdateProduct(ctx context.Context, actor, id string, req ProductRequest) (ProductResponse, error) {
	productID, err := parseProductID(id)
	if err != nil {
		return ProductResponse{}, err
	}
	if err := validateProduct(&req); err != nil {
		return ProductResponse{}, err
	}

	var product *model.Product
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		product, err = s.productRepo.FindByIDForUpdate(txCtx, productID)
		if err != nil {
			return lookupErr("product", err)
		}

		// stock only moves through invoices and adjustments
		product.Reference = req.Reference
		product.Name = req.Name
		product.Category = req.Category
		product.BuyingPrice = req.BuyingPrice
		product.SellingPriceTTC = req.SellingPriceTTC
		product.MinStockLevel = req.MinStockLevel

		if err := s.productRepo.Update(txCtx, product); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("a product with reference %s %w", req.Reference, ErrConflict)
			}
			return fmt.Errorf("failed to update product: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionUpdateProduct, product.ID.String(), product.Name, req)
	})
	if err != nil {
		return ProductResponse{}, err
	}

	s.hub.Publish(ws.EventProductChanged, toProductResponse(product))
	return toProductResponse(product), nil
}

func (s *inventoryService) DeleteProduct(ctx context.Context, actor, id string) error {
	productID, err := parseProductID(id)
	if err != nil {
		return err
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		product, err := s.productRepo.FindByID(txCtx, productID)
		if err != nil {
			return lookupErr("product", err)
		}

		used, err := s.productRepo.CountInvoiceLines(txCtx, productID)
		if err != nil {
			return fmt.Errorf("failed to check product usage: %w", err)
		}
		if used > 0 {
			return fmt.Errorf("%w: product %s appears on %d invoice lines", ErrInUse, product.Reference, used)
		}

		if err := s.productRepo.Delete(txCtx, productID); err != nil {
			return fmt.Errorf("failed to delete product: %w", err)
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionDeleteProduct, product.ID.String(), product.Name, map[string]string{"deleted_id": id})
	})
}

func (s *inventoryService) AdjustStock(ctx context.Context, actor, id string, req StockAdjustmentRequest) (ProductResponse, error) {
	productID, err := parseProductID(id)
	if err != nil {
		return ProductResponse{}, err
	}
	if req.Quantity == 0 {
		return ProductResponse{}, invalidf("quantity must not be zero")
	}

	note := strings.TrimSpace(req.Note)
	if note == "" {
		note = "manual adjustment"
	}

	var product *model.Product
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if req.Quantity > 0 {
			product, err = s.Restock(txCtx, productID, req.Quantity, nil, note)
		} else {
			product, err = s.Withdraw(txCtx, productID, -req.Quantity, nil, note)
		}
		if err != nil {
			return err
		}
		return writeAudit(txCtx, s.auditRepo, actor, model.ActionUpdateProduct, product.ID.String(), product.Name, req)
	})
	if err != nil {
		return ProductResponse{}, err
	}

	s.NotifyStock([]*model.Product{product})
	return toProductResponse(product), nil
}

func (s *inventoryService) GetMovements(ctx context.Context, id string, limit int) ([]StockMovementResponse, error) {
	productID, err := parseProductID(id)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, lookupErr("product", err)
	}

	txs, err := s.invTxRepo.ListByProduct(ctx, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list stock movements: %w", err)
	}

	res := make([]StockMovementResponse, 0, len(txs))
	for _, t := range txs {
		var invoiceID *string
		if t.InvoiceID != nil {
			ref := t.InvoiceID.String()
			invoiceID = &ref
		}
		res = append(res, StockMovementResponse{
			ID:              t.ID.String(),
			InvoiceID:       invoiceID,
			TransactionType: t.TransactionType,
			QuantityChanged: t.QuantityChanged,
			StockAfter:      t.StockAfter,
			Note:            t.Note,
			CreatedAt:       t.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	return res, nil
}

func (s *inventoryService) Withdraw(ctx context.Context, productID uuid.UUID, qty int, invoiceID *uuid.UUID, note string) (*model.Product, error) {
	if qty <= 0 {
		return nil, invalidf("withdrawn quantity must be positive, got %d", qty)
	}
	product, err := s.productRepo.FindByIDForUpdate(ctx, productID)
	if err != nil {
		return nil, lookupErr("product", err)
	}
	if product.CurrentStock < qty {
		return nil, fmt.Errorf("%w for %s: available %d, requested %d", ErrInsufficientStock, product.Name, product.CurrentStock, qty)
	}
	return s.move(ctx, product, -qty, invoiceID, note)
}

func (s *inventoryService) Restock(ctx context.Context, productID uuid.UUID, qty int, invoiceID *uuid.UUID, note string) (*model.Product, error) {
	product, err := s.productRepo.FindByIDForUpdate(ctx, productID)
	if err != nil {
		return nil, lookupErr("product", err)
	}
	return s.move(ctx, product, qty, invoiceID, note)
}

func (s *inventoryService) move(ctx context.Context, product *model.Product, delta int, invoiceID *uuid.UUID, note string) (*model.Product, error) {
	product.CurrentStock += delta
	if err := s.productRepo.UpdateStock(ctx, product.ID, product.CurrentStock); err != nil {
		return nil, fmt.Errorf("failed to update stock: %w", err)
	}

	txType, qty := model.TxTypeIn, delta
	if delta < 0 {
		txType, qty = model.TxTypeOut, -delta
	}
	if err := s.invTxRepo.Create(ctx, &model.InventoryTransaction{
		ProductID:       product.ID,
		InvoiceID:       invoiceID,
		TransactionType: txType,
		QuantityChanged: qty,
		StockAfter:      product.CurrentStock,
		Note:            note,
	}); err != nil {
		return nil, fmt.Errorf("failed to record inventory transaction: %w", err)
	}
	return product, nil
}

func (s *inventoryService) NotifyStock(products []*model.Product) {
	for _, p := range products {
		event := StockEvent{
			ProductID:     p.ID.String(),
			Reference:     p.Reference,
			Name:          p.Name,
			CurrentStock:  p.CurrentStock,
			MinStockLevel: p.MinStockLevel,
		}
		s.hub.Publish(ws.EventStockChanged, event)
		if p.IsLowStock() {
			s.metrics.StockLow(p.Reference)
			s.hub.Publish(ws.EventStockLow, event)
			s.log.Warn("product stock is low",
				zap.String("reference", p.Reference),
				zap.Int("stock", p.CurrentStock),
				zap.Int("min_level", p.MinStockLevel))
		}
	}
}

// wholeQuantity converts an invoice quantity to stock units.
func wholeQuantity(q decimal.Decimal) (int, error) {
	if !q.IsInteger() {
		return 0, errors.New("quantity of a catalog product must be a whole number")
	}
	if !q.IsPositive() || q.GreaterThan(maxStockQuantity) {
		return 0, fmt.Errorf("quantity of a catalog product must be between 1 and %s", maxStockQuantity)
	}
	return int(q.IntPart()), nil
}
