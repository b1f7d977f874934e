package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/andreasstove999/ecommerce-system/services/shoppingcart-service-go/internal/store"
)

var (
	ErrProductNotFound       = errors.New("product not found")
	ErrInsufficientInventory = errors.New("insufficient inventory")
	ErrInvalidQuantity       = errors.New("quantity must be greater than zero")
)

// Store adjusts product inventory inside a caller-owned transaction. Both
// operations lock the product row before reading the count, so concurrent
// reservations against the same sku are serialized.
type Store struct{}

func NewStore() *Store {
	return &Store{}
}

// Reserve takes quantity units of sku out of inventory and returns the updated product.
// The count is never driven below zero; a short reservation fails without mutating anything.
func (s *Store) Reserve(ctx context.Context, tx store.Tx, sku string, quantity int) (store.Product, error) {
	if quantity <= 0 {
		return store.Product{}, fmt.Errorf("%w: %d", ErrInvalidQuantity, quantity)
	}

	p, err := lockProduct(ctx, tx, sku)
	if err != nil {
		return store.Product{}, err
	}

	if p.InventoryCount < quantity {
		return store.Product{}, fmt.Errorf("%w: %s requested %d, available %d",
			ErrInsufficientInventory, sku, quantity, p.InventoryCount)
	}

	p.InventoryCount -= quantity
	if err := tx.SaveProduct(ctx, p); err != nil {
		return store.Product{}, fmt.Errorf("reserve %s: %w", sku, err)
	}
	return p, nil
}

// Release returns quantity units of sku to inventory.
func (s *Store) Release(ctx context.Context, tx store.Tx, sku string, quantity int) (store.Product, error) {
	if quantity <= 0 {
		return store.Product{}, fmt.Errorf("%w: %d", ErrInvalidQuantity, quantity)
	}

	p, err := lockProduct(ctx, tx, sku)
	if err != nil {
		return store.Product{}, err
	}

	p.InventoryCount += quantity
	if err := tx.SaveProduct(ctx, p); err != nil {
		return store.Product{}, fmt.Errorf("release %s: %w", sku, err)
	}
	return p, nil
}

func lockProduct(ctx context.Context, tx store.Tx, sku string) (store.Product, error) {
	p, err := tx.LockProduct(ctx, sku)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, sku)
		}
		return store.Product{}, fmt.Errorf("lock product %s: %w", sku, err)
	}
	return p, nil
}
