package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/andreasstove999/ecommerce-system/services/shoppingcart-service-go/internal/cart"
)

// EventEnvelope represents the shared envelope for v1 contracts.
type EventEnvelope struct {
	EventName     string          `json:"eventName"`
	EventVersion  int             `json:"eventVersion"`
	EventID       string          `json:"eventId"`
	CorrelationID string          `json:"correlationId,omitempty"`
	Producer      string          `json:"producer"`
	PartitionKey  string          `json:"partitionKey"`
	Sequence      int64           `json:"sequence,omitempty"`
	OccurredAt    time.Time       `json:"occurredAt"`
	Schema        string          `json:"schema"`
	Payload       json.RawMessage `json:"payload"`
}

// Validate checks the envelope before it is published.
func (e EventEnvelope) Validate(expectedName string, expectedVersion int) error {
	if e.EventName != expectedName {
		return fmt.Errorf("unexpected eventName %q", e.EventName)
	}
	if e.EventVersion != expectedVersion {
		return fmt.Errorf("unexpected eventVersion %d", e.EventVersion)
	}
	if e.PartitionKey == "" {
		return fmt.Errorf("missing partitionKey")
	}
	if e.EventID == "" {
		return fmt.Errorf("missing eventId")
	}
	return nil
}

type CartCreatedPayload struct {
	CartName  string    `json:"cartName"`
	Timestamp time.Time `json:"timestamp"`
}

type ItemChangedPayload struct {
	CartName       string    `json:"cartName"`
	SkuNumber      string    `json:"skuNumber"`
	Quantity       int       `json:"quantity"`
	ItemQuantity   int       `json:"itemQuantity"`
	InventoryCount int       `json:"inventoryCount"`
	Timestamp      time.Time `json:"timestamp"`
}

type ReleasedItem struct {
	SkuNumber      string `json:"skuNumber"`
	Quantity       int    `json:"quantity"`
	InventoryCount int    `json:"inventoryCount"`
}

type CartDeletedPayload struct {
	CartName  string         `json:"cartName"`
	Released  []ReleasedItem `json:"released"`
	Timestamp time.Time      `json:"timestamp"`
}

type EventMeta struct {
	CorrelationID string
}

func payloadFor(ev cart.Event) (any, error) {
	switch ev.Kind {
	case cart.EventCartCreated:
		return CartCreatedPayload{CartName: ev.CartName, Timestamp: ev.OccurredAt}, nil
	case cart.EventItemAdded, cart.EventItemRemoved:
		if len(ev.Lines) != 1 {
			return nil, fmt.Errorf("%s: expected one line, got %d", ev.Kind, len(ev.Lines))
		}
		ln := ev.Lines[0]
		return ItemChangedPayload{
			CartName:       ev.CartName,
			SkuNumber:      ln.SKU,
			Quantity:       ln.Quantity,
			ItemQuantity:   ln.ItemQuantity,
			InventoryCount: ln.InventoryCount,
			Timestamp:      ev.OccurredAt,
		}, nil
	case cart.EventCartDeleted:
		p := CartDeletedPayload{CartName: ev.CartName, Released: []ReleasedItem{}, Timestamp: ev.OccurredAt}
		for _, ln := range ev.Lines {
			p.Released = append(p.Released, ReleasedItem{
				SkuNumber:      ln.SKU,
				Quantity:       ln.Quantity,
				InventoryCount: ln.InventoryCount,
			})
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown event kind %q", ev.Kind)
	}
}

// BuildEnvelope wraps a committed cart event. The cart name is the partition key.
func BuildEnvelope(ev cart.Event, meta EventMeta, producer string) (EventEnvelope, error) {
	r, ok := routes[ev.Kind]
	if !ok {
		return EventEnvelope{}, fmt.Errorf("unknown event kind %q", ev.Kind)
	}

	payload, err := payloadFor(ev)
	if err != nil {
		return EventEnvelope{}, err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return EventEnvelope{}, fmt.Errorf("marshal %s payload: %w", ev.Kind, err)
	}

	occurredAt := ev.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}
	if producer == "" {
		producer = ShoppingCartProducer
	}

	return EventEnvelope{
		EventName:     string(ev.Kind),
		EventVersion:  1,
		EventID:       uuid.NewString(),
		CorrelationID: meta.CorrelationID,
		Producer:      producer,
		PartitionKey:  ev.CartName,
		Sequence:      ev.Sequence,
		OccurredAt:    occurredAt,
		Schema:        r.schema,
		Payload:       body,
	}, nil
}
