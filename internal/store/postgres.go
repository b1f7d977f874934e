package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrCheckViolation = errors.New("check constraint violated")

const (
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
	pgCheckViolation       = "23514"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// DBPool matches the methods from *pgxpool.Pool that we use.
// This allows us to mock the database in tests.
type DBPool interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
}

type PostgresStore struct {
	pool DBPool

	maxAttempts int
	backoff     time.Duration
}

func NewPostgresStore(pool DBPool) *PostgresStore {
	return &PostgresStore{pool: pool, maxAttempts: 3, backoff: 20 * time.Millisecond}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// WithTx retries the whole transaction when Postgres aborts it with a
// serialization failure or a deadlock; every other error is returned as is.
func (s *PostgresStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	for attempt := 1; ; attempt++ {
		err := s.runTx(ctx, fn)
		if err == nil || !retryable(err) || attempt >= s.maxAttempts {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * s.backoff):
		}
	}
}

func (s *PostgresStore) runTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(ctx)
		}
	}()

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		committed = true // pgx rolls back a failed commit itself
		return fmt.Errorf("commit: %w", translate(err))
	}
	committed = true
	return nil
}

func retryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgSerializationFailure || pgErr.Code == pgDeadlockDetected
}

// translate maps constraint violations onto the store sentinels and keeps the
// original error in the chain.
func translate(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %w", ErrConflict, err)
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: %w", ErrNotFound, err)
		case pgCheckViolation:
			return fmt.Errorf("%w: %w", ErrCheckViolation, err)
		}
	}
	return err
}

type pgTx struct {
	tx pgx.Tx
}

const (
	cartColumns    = `cart_name, description, status, created_date, updated_date`
	productColumns = `sku_number, product_name, description, inventory_count, price, product_category_name, created_date`
	itemColumns    = `item_id, cart_name, sku_number, quantity, created_date`
)

func (t *pgTx) FindCartByName(ctx context.Context, name string) (Cart, error) {
	return t.scanCart(t.tx.QueryRow(ctx, `SELECT `+cartColumns+` FROM carts WHERE cart_name = $1`, name))
}

func (t *pgTx) LockCart(ctx context.Context, name string) (Cart, error) {
	return t.scanCart(t.tx.QueryRow(ctx, `SELECT `+cartColumns+` FROM carts WHERE cart_name = $1 FOR UPDATE`, name))
}

func (t *pgTx) scanCart(row pgx.Row) (Cart, error) {
	var c Cart
	var status string
	if err := row.Scan(&c.Name, &c.Description, &status, &c.CreatedDate, &c.UpdatedDate); err != nil {
		return Cart{}, translate(err)
	}
	c.Status = CartStatus(status)
	return c, nil
}

func (t *pgTx) InsertCart(ctx context.Context, c Cart) error {
	tag, err := t.tx.Exec(ctx, `
		INSERT INTO carts (cart_name, description, status, created_date, updated_date)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (cart_name) DO NOTHING
	`, c.Name, c.Description, string(c.Status), c.CreatedDate, c.UpdatedDate)
	if err != nil {
		return fmt.Errorf("insert cart: %w", translate(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}

func (t *pgTx) SaveCart(ctx context.Context, c Cart) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE carts
		SET description = $2, status = $3, updated_date = $4
		WHERE cart_name = $1
	`, c.Name, c.Description, string(c.Status), c.UpdatedDate)
	if err != nil {
		return fmt.Errorf("update cart: %w", translate(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *pgTx) DeleteCartByName(ctx context.Context, name string) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM carts WHERE cart_name = $1`, name)
	if err != nil {
		return fmt.Errorf("delete cart: %w", translate(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *pgTx) FindProductBySku(ctx context.Context, sku string) (Product, error) {
	return scanProduct(t.tx.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE sku_number = $1`, sku))
}

func (t *pgTx) LockProduct(ctx context.Context, sku string) (Product, error) {
	return scanProduct(t.tx.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE sku_number = $1 FOR UPDATE`, sku))
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	if err := row.Scan(&p.SKU, &p.Name, &p.Description, &p.InventoryCount, &p.Price, &p.CategoryName, &p.CreatedDate); err != nil {
		return Product{}, translate(err)
	}
	return p, nil
}

func (t *pgTx) SaveProduct(ctx context.Context, p Product) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (sku_number) DO UPDATE SET
			product_name = EXCLUDED.product_name,
			description = EXCLUDED.description,
			inventory_count = EXCLUDED.inventory_count,
			price = EXCLUDED.price,
			product_category_name = EXCLUDED.product_category_name
	`, p.SKU, p.Name, p.Description, p.InventoryCount, p.Price, p.CategoryName, p.CreatedDate)
	if err != nil {
		return fmt.Errorf("save product %s: %w", p.SKU, translate(err))
	}
	return nil
}

func (t *pgTx) ListProductsByCategory(ctx context.Context, category string) ([]Product, error) {
	rows, err := t.tx.Query(ctx, `SELECT `+productColumns+` FROM products WHERE product_category_name = $1 ORDER BY sku_number`, category)
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	defer rows.Close()

	out := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (t *pgTx) FindItemByID(ctx context.Context, id int64) (Item, error) {
	return scanItem(t.tx.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE item_id = $1`, id))
}

func (t *pgTx) FindItemBySku(ctx context.Context, cartName, sku string) (Item, error) {
	return scanItem(t.tx.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE cart_name = $1 AND sku_number = $2 FOR UPDATE`, cartName, sku))
}

func scanItem(row pgx.Row) (Item, error) {
	var it Item
	if err := row.Scan(&it.ID, &it.CartName, &it.SKU, &it.Quantity, &it.CreatedDate); err != nil {
		return Item{}, translate(err)
	}
	return it, nil
}

func (t *pgTx) ListItems(ctx context.Context, cartName string) ([]Item, error) {
	rows, err := t.tx.Query(ctx, `SELECT `+itemColumns+` FROM items WHERE cart_name = $1 ORDER BY created_date, item_id`, cartName)
	if err != nil {
		return nil, fmt.Errorf("select items: %w", err)
	}
	defer rows.Close()

	out := []Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return out, nil
}

func (t *pgTx) SaveItem(ctx context.Context, it Item) (Item, error) {
	if it.ID == 0 {
		err := t.tx.QueryRow(ctx, `
			INSERT INTO items (cart_name, sku_number, quantity, created_date)
			VALUES ($1, $2, $3, $4)
			RETURNING item_id
		`, it.CartName, it.SKU, it.Quantity, it.CreatedDate).Scan(&it.ID)
		if err != nil {
			return Item{}, fmt.Errorf("insert item: %w", translate(err))
		}
		return it, nil
	}

	tag, err := t.tx.Exec(ctx, `UPDATE items SET quantity = $2 WHERE item_id = $1`, it.ID, it.Quantity)
	if err != nil {
		return Item{}, fmt.Errorf("update item %d: %w", it.ID, translate(err))
	}
	if tag.RowsAffected() == 0 {
		return Item{}, ErrNotFound
	}
	return it, nil
}

func (t *pgTx) DeleteItem(ctx context.Context, id int64) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM items WHERE item_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete item %d: %w", id, translate(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *pgTx) NextSequence(ctx context.Context, partitionKey string) (int64, error) {
	if partitionKey == "" {
		return 0, fmt.Errorf("partition key is required")
	}

	var seq int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO event_sequences (partition_key, last_sequence, updated_at)
		VALUES ($1, 1, now())
		ON CONFLICT (partition_key)
		DO UPDATE SET last_sequence = event_sequences.last_sequence + 1, updated_at = now()
		RETURNING last_sequence
	`, partitionKey).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next sequence: %w", err)
	}
	return seq, nil
}
