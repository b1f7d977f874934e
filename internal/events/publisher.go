package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/andreasstove999/ecommerce-system/services/shoppingcart-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/services/shoppingcart-service-go/internal/middleware"
)

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher sends committed cart events to the events exchange.
type Publisher struct {
	ch       amqpChannel
	producer string
}

type PublisherOptions struct {
	Producer string
}

func NewPublisher(conn *amqp.Connection, opts PublisherOptions) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declareEventsExchange(ch); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare events exchange: %w", err)
	}

	return newPublisher(ch, opts), nil
}

func newPublisher(ch amqpChannel, opts PublisherOptions) *Publisher {
	producer := opts.Producer
	if producer == "" {
		producer = ShoppingCartProducer
	}
	return &Publisher{ch: ch, producer: producer}
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

// Notify implements cart.Notifier.
func (p *Publisher) Notify(ctx context.Context, ev cart.Event) error {
	env, err := BuildEnvelope(ev, EventMeta{CorrelationID: middleware.GetCorrelationID(ctx)}, p.producer)
	if err != nil {
		return err
	}
	if err := env.Validate(string(ev.Kind), 1); err != nil {
		return fmt.Errorf("invalid %s envelope: %w", ev.Kind, err)
	}

	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal %s envelope: %w", ev.Kind, err)
	}

	return p.publishJSON(ctx, routes[ev.Kind].routingKey, env.EventID, body)
}

func (p *Publisher) publishJSON(ctx context.Context, routingKey, messageID string, body []byte) error {
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		EventsExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    messageID,
			Body:         body,
		},
	)
}
