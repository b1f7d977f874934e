package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andreasstove999/ecommerce-system/services/shoppingcart-service-go/internal/store"
)

// CartStore holds cart records keyed by cart name.
type CartStore struct{}

func (CartStore) Find(ctx context.Context, tx store.Tx, name string) (store.Cart, error) {
	c, err := tx.FindCartByName(ctx, name)
	return c, cartErr(name, err)
}

// Lock returns the cart and holds its row until the transaction ends.
func (CartStore) Lock(ctx context.Context, tx store.Tx, name string) (store.Cart, error) {
	c, err := tx.LockCart(ctx, name)
	return c, cartErr(name, err)
}

func (CartStore) Create(ctx context.Context, tx store.Tx, name, description string, now time.Time) (store.Cart, error) {
	c := store.Cart{
		Name:        name,
		Description: description,
		Status:      store.CartStatusActive,
		CreatedDate: now,
		UpdatedDate: now,
	}
	if err := tx.InsertCart(ctx, c); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return store.Cart{}, fmt.Errorf("%w: %s", ErrCartExists, name)
		}
		return store.Cart{}, fmt.Errorf("insert cart %s: %w", name, err)
	}
	return c, nil
}

func (CartStore) Touch(ctx context.Context, tx store.Tx, c store.Cart, now time.Time) (store.Cart, error) {
	c.UpdatedDate = now
	if err := tx.SaveCart(ctx, c); err != nil {
		return store.Cart{}, cartErr(c.Name, err)
	}
	return c, nil
}

func (CartStore) Delete(ctx context.Context, tx store.Tx, name string) error {
	return cartErr(name, tx.DeleteCartByName(ctx, name))
}

func cartErr(name string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%w: %s", ErrCartNotFound, name)
	default:
		return fmt.Errorf("cart %s: %w", name, err)
	}
}
