package store

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)

// Tx is the set of record operations available inside one transaction.
// Lock* variants hold the row until the transaction ends.
type Tx interface {
	FindCartByName(ctx context.Context, name string) (Cart, error)
	LockCart(ctx context.Context, name string) (Cart, error)
	InsertCart(ctx context.Context, c Cart) error
	SaveCart(ctx context.Context, c Cart) error
	DeleteCartByName(ctx context.Context, name string) error

	FindProductBySku(ctx context.Context, sku string) (Product, error)
	LockProduct(ctx context.Context, sku string) (Product, error)
	SaveProduct(ctx context.Context, p Product) error
	ListProductsByCategory(ctx context.Context, category string) ([]Product, error)

	FindItemByID(ctx context.Context, id int64) (Item, error)
	FindItemBySku(ctx context.Context, cartName, sku string) (Item, error)
	ListItems(ctx context.Context, cartName string) ([]Item, error)
	SaveItem(ctx context.Context, it Item) (Item, error)
	DeleteItem(ctx context.Context, id int64) error

	// NextSequence allocates the next event sequence number for a partition.
	NextSequence(ctx context.Context, partitionKey string) (int64, error)
}

// Store runs fn inside a transaction: fn returning nil commits, any error rolls back.
type Store interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}
