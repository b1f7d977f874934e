package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/andreasstove999/ecommerce-system/services/shoppingcart-service-go/internal/store"
)

// Reseed wipes every table and loads the fixture in one transaction.
func Reseed(ctx context.Context, db *sql.DB, f store.Fixture) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `TRUNCATE items, carts, products, event_sequences RESTART IDENTITY`); err != nil {
		return fmt.Errorf("truncate: %w", err)
	}

	for _, p := range f.Products {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO products (sku_number, product_name, description, inventory_count, price, product_category_name, created_date)
             VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			p.SKU, p.Name, p.Description, p.InventoryCount, p.Price.StringFixed(2), p.CategoryName, p.CreatedDate,
		); err != nil {
			return fmt.Errorf("insert product %s: %w", p.SKU, err)
		}
	}

	for _, c := range f.Carts {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO carts (cart_name, description, status, created_date, updated_date)
             VALUES ($1, $2, $3, $4, $5)`,
			c.Name, c.Description, string(c.Status), c.CreatedDate, c.UpdatedDate,
		); err != nil {
			return fmt.Errorf("insert cart %s: %w", c.Name, err)
		}
	}

	for _, it := range f.Items {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO items (cart_name, sku_number, quantity, created_date)
             VALUES ($1, $2, $3, $4)`,
			it.CartName, it.SKU, it.Quantity, it.CreatedDate,
		); err != nil {
			return fmt.Errorf("insert item %s/%s: %w", it.CartName, it.SKU, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
