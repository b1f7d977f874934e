package cart

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/andreasstove999/ecommerce-system/services/shoppingcart-service-go/internal/inventory"
	"github.com/andreasstove999/ecommerce-system/services/shoppingcart-service-go/internal/store"
)

// ItemLedger tracks the line items of a cart and keeps product inventory in
// lockstep with every quantity change.
type ItemLedger struct {
	inventory *inventory.Store
}

func NewItemLedger(inv *inventory.Store) *ItemLedger {
	return &ItemLedger{inventory: inv}
}

// Add reserves quantity units and credits them to the cart's item for sku,
// creating the item on first add.
func (l *ItemLedger) Add(ctx context.Context, tx store.Tx, cartName, sku string, quantity int, now time.Time) (store.Item, store.Product, error) {
	p, err := l.inventory.Reserve(ctx, tx, sku, quantity)
	if err != nil {
		return store.Item{}, store.Product{}, err
	}

	it, err := tx.FindItemBySku(ctx, cartName, sku)
	switch {
	case errors.Is(err, store.ErrNotFound):
		it = store.Item{CartName: cartName, SKU: sku, Quantity: quantity, CreatedDate: now}
	case err != nil:
		return store.Item{}, store.Product{}, fmt.Errorf("find item %s/%s: %w", cartName, sku, err)
	default:
		it.Quantity += quantity
	}

	saved, err := tx.SaveItem(ctx, it)
	if err != nil {
		return store.Item{}, store.Product{}, fmt.Errorf("save item %s/%s: %w", cartName, sku, err)
	}
	return saved, p, nil
}

// Remove debits quantity units from the cart's item for sku and releases them.
// At most the quantity the item holds is released; an item that reaches zero
// is deleted and returned with Quantity 0.
func (l *ItemLedger) Remove(ctx context.Context, tx store.Tx, cartName, sku string, quantity int) (store.Item, store.Product, int, error) {
	it, err := tx.FindItemBySku(ctx, cartName, sku)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Item{}, store.Product{}, 0, fmt.Errorf("%w: %s in cart %s", ErrItemNotFound, sku, cartName)
		}
		return store.Item{}, store.Product{}, 0, fmt.Errorf("find item %s/%s: %w", cartName, sku, err)
	}

	released := min(quantity, it.Quantity)
	p, err := l.inventory.Release(ctx, tx, sku, released)
	if err != nil {
		return store.Item{}, store.Product{}, 0, err
	}

	it.Quantity -= released
	if it.Quantity <= 0 {
		if err := tx.DeleteItem(ctx, it.ID); err != nil {
			return store.Item{}, store.Product{}, 0, fmt.Errorf("delete item %d: %w", it.ID, err)
		}
		it.Quantity = 0
		return it, p, released, nil
	}

	saved, err := tx.SaveItem(ctx, it)
	if err != nil {
		return store.Item{}, store.Product{}, 0, fmt.Errorf("save item %s/%s: %w", cartName, sku, err)
	}
	return saved, p, released, nil
}

// ReleaseAll releases and deletes every item of the cart. Products are locked
// in ascending sku order.
func (l *ItemLedger) ReleaseAll(ctx context.Context, tx store.Tx, cartName string) ([]EventLine, error) {
	items, err := tx.ListItems(ctx, cartName)
	if err != nil {
		return nil, fmt.Errorf("list items %s: %w", cartName, err)
	}
	slices.SortFunc(items, func(a, b store.Item) int { return cmp.Compare(a.SKU, b.SKU) })

	lines := make([]EventLine, 0, len(items))
	for _, it := range items {
		p, err := l.inventory.Release(ctx, tx, it.SKU, it.Quantity)
		if err != nil {
			return nil, err
		}
		if err := tx.DeleteItem(ctx, it.ID); err != nil {
			return nil, fmt.Errorf("delete item %d: %w", it.ID, err)
		}
		lines = append(lines, EventLine{SKU: it.SKU, Quantity: it.Quantity, InventoryCount: p.InventoryCount})
	}
	return lines, nil
}

// Views returns the cart's items joined with their products.
func (l *ItemLedger) Views(ctx context.Context, tx store.Tx, cartName string) ([]ItemView, error) {
	items, err := tx.ListItems(ctx, cartName)
	if err != nil {
		return nil, fmt.Errorf("list items %s: %w", cartName, err)
	}

	views := make([]ItemView, 0, len(items))
	for _, it := range items {
		p, err := tx.FindProductBySku(ctx, it.SKU)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s", inventory.ErrProductNotFound, it.SKU)
			}
			return nil, fmt.Errorf("find product %s: %w", it.SKU, err)
		}
		views = append(views, newItemView(it, p))
	}
	return views, nil
}
