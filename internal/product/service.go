package product

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/services/shoppingcart-service-go/internal/inventory"
	"github.com/andreasstove999/ecommerce-system/services/shoppingcart-service-go/internal/store"
)

var ErrInvalidProduct = errors.New("invalid product")

type Product struct {
	SKU            string          `json:"skuNumber"`
	Name           string          `json:"productName"`
	Description    string          `json:"description"`
	InventoryCount int             `json:"inventoryCount"`
	Price          decimal.Decimal `json:"price"`
	CategoryName   string          `json:"productCategoryName"`
	CreatedDate    time.Time       `json:"createdDate"`
}

func fromRecord(p store.Product) Product {
	return Product{
		SKU:            p.SKU,
		Name:           p.Name,
		Description:    p.Description,
		InventoryCount: p.InventoryCount,
		Price:          p.Price,
		CategoryName:   p.CategoryName,
		CreatedDate:    p.CreatedDate,
	}
}

// Service manages the catalogue. Inventory set here is the starting stock;
// carts move it afterwards.
type Service struct {
	store  store.Store
	logger *slog.Logger
	now    func() time.Time
}

func NewService(st store.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: st, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// AddProduct creates the product or replaces the stored one with the same sku.
func (s *Service) AddProduct(ctx context.Context, p Product) (Product, error) {
	switch {
	case p.SKU == "":
		return Product{}, fmt.Errorf("%w: sku is required", ErrInvalidProduct)
	case p.InventoryCount < 0:
		return Product{}, fmt.Errorf("%w: inventory count must not be negative", ErrInvalidProduct)
	case p.Price.IsNegative():
		return Product{}, fmt.Errorf("%w: price must not be negative", ErrInvalidProduct)
	}

	rec := store.Product{
		SKU:            p.SKU,
		Name:           p.Name,
		Description:    p.Description,
		InventoryCount: p.InventoryCount,
		Price:          p.Price,
		CategoryName:   p.CategoryName,
		CreatedDate:    s.now(),
	}

	var saved store.Product
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.SaveProduct(ctx, rec); err != nil {
			return err
		}
		var err error
		saved, err = tx.FindProductBySku(ctx, rec.SKU)
		return err
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "save product failed", "sku", p.SKU, "error", err)
		return Product{}, fmt.Errorf("save product %s: %w", p.SKU, err)
	}

	s.logger.InfoContext(ctx, "product saved", "sku", saved.SKU, "inventory", saved.InventoryCount)
	return fromRecord(saved), nil
}

func (s *Service) GetProduct(ctx context.Context, sku string) (Product, error) {
	var p store.Product
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		p, err = tx.FindProductBySku(ctx, sku)
		return err
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Product{}, fmt.Errorf("%w: %s", inventory.ErrProductNotFound, sku)
		}
		return Product{}, fmt.Errorf("get product %s: %w", sku, err)
	}
	return fromRecord(p), nil
}

func (s *Service) ListProducts(ctx context.Context, category string) ([]Product, error) {
	var recs []store.Product
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		recs, err = tx.ListProductsByCategory(ctx, category)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list products %s: %w", category, err)
	}

	out := make([]Product, 0, len(recs))
	for _, r := range recs {
		out = append(out, fromRecord(r))
	}
	return out, nil
}
