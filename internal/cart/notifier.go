package cart

import (
	"context"
	"time"
)

type EventKind string

const (
	EventCartCreated EventKind = "CartCreated"
	EventItemAdded   EventKind = "ItemAdded"
	EventItemRemoved EventKind = "ItemRemoved"
	EventCartDeleted EventKind = "CartDeleted"
)

// Event describes a committed cart mutation. Sequence is allocated inside the
// mutating transaction and orders events per cart.
type Event struct {
	Kind       EventKind
	CartName   string
	Sequence   int64
	OccurredAt time.Time
	Lines      []EventLine
}

// EventLine is one inventory movement caused by the mutation.
type EventLine struct {
	SKU            string
	Quantity       int
	ItemQuantity   int
	InventoryCount int
}

type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Event) error { return nil }
