package store

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// MemoryStore keeps all records in process. Transactions are serialized by a
// single mutex and work on a private copy that replaces the live state only on
// commit, so a failed transaction leaves nothing behind.
type MemoryStore struct {
	mu    sync.Mutex
	state memState
}

type memState struct {
	products   map[string]Product
	carts      map[string]Cart
	items      map[int64]Item
	sequences  map[string]int64
	nextItemID int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: emptyState()}
}

func emptyState() memState {
	return memState{
		products:  map[string]Product{},
		carts:     map[string]Cart{},
		items:     map[int64]Item{},
		sequences: map[string]int64{},
	}
}

func (st memState) clone() memState {
	return memState{
		products:   maps.Clone(st.products),
		carts:      maps.Clone(st.carts),
		items:      maps.Clone(st.items),
		sequences:  maps.Clone(st.sequences),
		nextItemID: st.nextItemID,
	}
}

func (s *MemoryStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	if err := fn(&memTx{st: &work}); err != nil {
		return err
	}
	s.state = work
	return nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Load replaces every record with the fixture contents.
func (s *MemoryStore) Load(f Fixture) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := emptyState()
	tx := &memTx{st: &work}
	ctx := context.Background()
	for _, p := range f.Products {
		if err := tx.SaveProduct(ctx, p); err != nil {
			return err
		}
	}
	for _, c := range f.Carts {
		if err := tx.InsertCart(ctx, c); err != nil {
			return err
		}
	}
	for _, it := range f.Items {
		it.ID = 0
		if _, err := tx.SaveItem(ctx, it); err != nil {
			return err
		}
	}
	s.state = work
	return nil
}

type memTx struct {
	st *memState
}

func (t *memTx) FindCartByName(_ context.Context, name string) (Cart, error) {
	c, ok := t.st.carts[name]
	if !ok {
		return Cart{}, ErrNotFound
	}
	return c, nil
}

func (t *memTx) LockCart(ctx context.Context, name string) (Cart, error) {
	return t.FindCartByName(ctx, name)
}

func (t *memTx) InsertCart(_ context.Context, c Cart) error {
	if _, ok := t.st.carts[c.Name]; ok {
		return ErrConflict
	}
	t.st.carts[c.Name] = c
	return nil
}

func (t *memTx) SaveCart(_ context.Context, c Cart) error {
	existing, ok := t.st.carts[c.Name]
	if !ok {
		return ErrNotFound
	}
	c.CreatedDate = existing.CreatedDate
	t.st.carts[c.Name] = c
	return nil
}

func (t *memTx) DeleteCartByName(_ context.Context, name string) error {
	if _, ok := t.st.carts[name]; !ok {
		return ErrNotFound
	}
	delete(t.st.carts, name)
	for id, it := range t.st.items {
		if it.CartName == name {
			delete(t.st.items, id)
		}
	}
	return nil
}

func (t *memTx) FindProductBySku(_ context.Context, sku string) (Product, error) {
	p, ok := t.st.products[sku]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (t *memTx) LockProduct(ctx context.Context, sku string) (Product, error) {
	return t.FindProductBySku(ctx, sku)
}

func (t *memTx) SaveProduct(_ context.Context, p Product) error {
	if p.InventoryCount < 0 {
		return fmt.Errorf("save product %s: %w", p.SKU, ErrCheckViolation)
	}
	if existing, ok := t.st.products[p.SKU]; ok {
		p.CreatedDate = existing.CreatedDate
	}
	t.st.products[p.SKU] = p
	return nil
}

func (t *memTx) ListProductsByCategory(_ context.Context, category string) ([]Product, error) {
	out := []Product{}
	for _, sku := range slices.Sorted(maps.Keys(t.st.products)) {
		if p := t.st.products[sku]; p.CategoryName == category {
			out = append(out, p)
		}
	}
	return out, nil
}

func (t *memTx) FindItemByID(_ context.Context, id int64) (Item, error) {
	it, ok := t.st.items[id]
	if !ok {
		return Item{}, ErrNotFound
	}
	return it, nil
}

func (t *memTx) FindItemBySku(_ context.Context, cartName, sku string) (Item, error) {
	for _, it := range t.st.items {
		if it.CartName == cartName && it.SKU == sku {
			return it, nil
		}
	}
	return Item{}, ErrNotFound
}

func (t *memTx) ListItems(_ context.Context, cartName string) ([]Item, error) {
	out := []Item{}
	for _, id := range slices.Sorted(maps.Keys(t.st.items)) {
		if it := t.st.items[id]; it.CartName == cartName {
			out = append(out, it)
		}
	}
	return out, nil
}

func (t *memTx) SaveItem(ctx context.Context, it Item) (Item, error) {
	if it.Quantity <= 0 {
		return Item{}, fmt.Errorf("save item: %w", ErrCheckViolation)
	}

	if it.ID == 0 {
		if _, ok := t.st.carts[it.CartName]; !ok {
			return Item{}, fmt.Errorf("insert item: cart %s: %w", it.CartName, ErrNotFound)
		}
		if _, ok := t.st.products[it.SKU]; !ok {
			return Item{}, fmt.Errorf("insert item: product %s: %w", it.SKU, ErrNotFound)
		}
		if _, err := t.FindItemBySku(ctx, it.CartName, it.SKU); err == nil {
			return Item{}, fmt.Errorf("insert item: %w", ErrConflict)
		} else if !errors.Is(err, ErrNotFound) {
			return Item{}, err
		}
		t.st.nextItemID++
		it.ID = t.st.nextItemID
		t.st.items[it.ID] = it
		return it, nil
	}

	existing, ok := t.st.items[it.ID]
	if !ok {
		return Item{}, ErrNotFound
	}
	existing.Quantity = it.Quantity
	t.st.items[it.ID] = existing
	return existing, nil
}

func (t *memTx) DeleteItem(_ context.Context, id int64) error {
	if _, ok := t.st.items[id]; !ok {
		return ErrNotFound
	}
	delete(t.st.items, id)
	return nil
}

func (t *memTx) NextSequence(_ context.Context, partitionKey string) (int64, error) {
	if partitionKey == "" {
		return 0, fmt.Errorf("partition key is required")
	}
	t.st.sequences[partitionKey]++
	return t.st.sequences[partitionKey], nil
}
