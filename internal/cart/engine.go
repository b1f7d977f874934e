package cart

import (
	"context"
	"log/slog"
	"time"

	"github.com/andreasstove999/ecommerce-system/services/shoppingcart-service-go/internal/inventory"
	"github.com/andreasstove999/ecommerce-system/services/shoppingcart-service-go/internal/store"
)

type Options struct {
	Notifier Notifier
	Logger   *slog.Logger
	Clock    func() time.Time
}

// Engine applies cart mutations. Every call runs in exactly one store
// transaction, so inventory, items and the cart change together or not at all.
// Events are handed to the notifier only after commit.
type Engine struct {
	store    store.Store
	carts    CartStore
	ledger   *ItemLedger
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

func NewEngine(st store.Store, opts Options) *Engine {
	e := &Engine{
		store:    st,
		ledger:   NewItemLedger(inventory.NewStore()),
		notifier: opts.Notifier,
		logger:   opts.Logger,
		now:      opts.Clock,
	}
	if e.notifier == nil {
		e.notifier = NopNotifier{}
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.now == nil {
		e.now = func() time.Time { return time.Now().UTC() }
	}
	return e
}

func (e *Engine) CreateCart(ctx context.Context, name, description string) (CartView, error) {
	if name == "" {
		return CartView{}, ErrInvalidCartName
	}

	var (
		view CartView
		ev   Event
	)
	err := e.store.WithTx(ctx, func(tx store.Tx) error {
		now := e.now()
		c, err := e.carts.Create(ctx, tx, name, description, now)
		if err != nil {
			return err
		}
		view = newCartView(c, nil)
		ev, err = e.event(ctx, tx, EventCartCreated, name, now, nil)
		return err
	})
	if err != nil {
		e.reject(ctx, "create cart", err, "cart", name)
		return CartView{}, err
	}

	e.logger.InfoContext(ctx, "cart created", "cart", name)
	e.publish(ctx, ev)
	return view, nil
}

func (e *Engine) FindCart(ctx context.Context, name string) (CartView, error) {
	var view CartView
	err := e.store.WithTx(ctx, func(tx store.Tx) error {
		c, err := e.carts.Find(ctx, tx, name)
		if err != nil {
			return err
		}
		items, err := e.ledger.Views(ctx, tx, name)
		if err != nil {
			return err
		}
		view = newCartView(c, items)
		return nil
	})
	if err != nil {
		e.reject(ctx, "find cart", err, "cart", name)
		return CartView{}, err
	}
	return view, nil
}

func (e *Engine) ListItems(ctx context.Context, cartName string) ([]ItemView, error) {
	var items []ItemView
	err := e.store.WithTx(ctx, func(tx store.Tx) error {
		if _, err := e.carts.Find(ctx, tx, cartName); err != nil {
			return err
		}
		var err error
		items, err = e.ledger.Views(ctx, tx, cartName)
		return err
	})
	if err != nil {
		e.reject(ctx, "list items", err, "cart", cartName)
		return nil, err
	}
	return items, nil
}

// AddItem reserves quantity units of sku and credits them to the cart. Adding
// a sku the cart already holds increments the existing item.
func (e *Engine) AddItem(ctx context.Context, cartName, sku string, quantity int) (ItemView, error) {
	if quantity <= 0 {
		return ItemView{}, ErrInvalidQuantity
	}

	var (
		view ItemView
		ev   Event
	)
	err := e.store.WithTx(ctx, func(tx store.Tx) error {
		now := e.now()
		c, err := e.carts.Lock(ctx, tx, cartName)
		if err != nil {
			return err
		}
		it, p, err := e.ledger.Add(ctx, tx, cartName, sku, quantity, now)
		if err != nil {
			return err
		}
		if _, err := e.carts.Touch(ctx, tx, c, now); err != nil {
			return err
		}
		view = newItemView(it, p)
		ev, err = e.event(ctx, tx, EventItemAdded, cartName, now, []EventLine{
			{SKU: sku, Quantity: quantity, ItemQuantity: it.Quantity, InventoryCount: p.InventoryCount},
		})
		return err
	})
	if err != nil {
		e.reject(ctx, "add item", err, "cart", cartName, "sku", sku, "quantity", quantity)
		return ItemView{}, err
	}

	e.logger.InfoContext(ctx, "item added",
		"cart", cartName, "sku", sku, "quantity", quantity,
		"itemQuantity", view.Quantity, "inventory", ev.Lines[0].InventoryCount)
	e.publish(ctx, ev)
	return view, nil
}

// RemoveItem debits quantity units of sku from the cart and returns them to
// inventory. At most the quantity the item holds is released. The returned
// view has Quantity 0 when the item was deleted.
func (e *Engine) RemoveItem(ctx context.Context, cartName, sku string, quantity int) (ItemView, error) {
	if quantity <= 0 {
		return ItemView{}, ErrInvalidQuantity
	}

	var (
		view ItemView
		ev   Event
	)
	err := e.store.WithTx(ctx, func(tx store.Tx) error {
		now := e.now()
		c, err := e.carts.Lock(ctx, tx, cartName)
		if err != nil {
			return err
		}
		it, p, released, err := e.ledger.Remove(ctx, tx, cartName, sku, quantity)
		if err != nil {
			return err
		}
		if _, err := e.carts.Touch(ctx, tx, c, now); err != nil {
			return err
		}
		view = newItemView(it, p)
		ev, err = e.event(ctx, tx, EventItemRemoved, cartName, now, []EventLine{
			{SKU: sku, Quantity: released, ItemQuantity: it.Quantity, InventoryCount: p.InventoryCount},
		})
		return err
	})
	if err != nil {
		e.reject(ctx, "remove item", err, "cart", cartName, "sku", sku, "quantity", quantity)
		return ItemView{}, err
	}

	e.logger.InfoContext(ctx, "item removed",
		"cart", cartName, "sku", sku, "released", ev.Lines[0].Quantity,
		"itemQuantity", view.Quantity, "inventory", ev.Lines[0].InventoryCount)
	e.publish(ctx, ev)
	return view, nil
}

// DeleteCart releases the inventory held by every item, deletes the items and
// then the cart. It returns the cart as it was before deletion.
func (e *Engine) DeleteCart(ctx context.Context, name string) (CartView, error) {
	var (
		view CartView
		ev   Event
	)
	err := e.store.WithTx(ctx, func(tx store.Tx) error {
		now := e.now()
		c, err := e.carts.Lock(ctx, tx, name)
		if err != nil {
			return err
		}
		items, err := e.ledger.Views(ctx, tx, name)
		if err != nil {
			return err
		}
		view = newCartView(c, items)

		lines, err := e.ledger.ReleaseAll(ctx, tx, name)
		if err != nil {
			return err
		}
		if err := e.carts.Delete(ctx, tx, name); err != nil {
			return err
		}
		ev, err = e.event(ctx, tx, EventCartDeleted, name, now, lines)
		return err
	})
	if err != nil {
		e.reject(ctx, "delete cart", err, "cart", name)
		return CartView{}, err
	}

	e.logger.InfoContext(ctx, "cart deleted", "cart", name, "releasedItems", len(ev.Lines))
	e.publish(ctx, ev)
	return view, nil
}

func (e *Engine) event(ctx context.Context, tx store.Tx, kind EventKind, cartName string, now time.Time, lines []EventLine) (Event, error) {
	seq, err := tx.NextSequence(ctx, cartName)
	if err != nil {
		return Event{}, err
	}
	return Event{Kind: kind, CartName: cartName, Sequence: seq, OccurredAt: now, Lines: lines}, nil
}

func (e *Engine) publish(ctx context.Context, ev Event) {
	if err := e.notifier.Notify(ctx, ev); err != nil {
		e.logger.ErrorContext(ctx, "publish cart event failed",
			"event", ev.Kind, "cart", ev.CartName, "sequence", ev.Sequence, "error", err)
	}
}

func (e *Engine) reject(ctx context.Context, op string, err error, attrs ...any) {
	attrs = append(attrs, "error", err)
	if IsDomainError(err) {
		e.logger.DebugContext(ctx, op+" rejected", attrs...)
		return
	}
	e.logger.ErrorContext(ctx, op+" failed", attrs...)
}
