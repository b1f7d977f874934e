package events

import (
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/andreasstove999/ecommerce-system/services/shoppingcart-service-go/internal/cart"
)

const (
	EventsExchange = "ecommerce.events"

	CartCreatedRoutingKey = "cart.created.v1"
	ItemAddedRoutingKey   = "cart.item.added.v1"
	ItemRemovedRoutingKey = "cart.item.removed.v1"
	CartDeletedRoutingKey = "cart.deleted.v1"

	ShoppingCartProducer = "shoppingcart-service"
)

const schemaPrefix = "contracts/events/cart/"

type route struct {
	routingKey string
	schema     string
}

var routes = map[cart.EventKind]route{
	cart.EventCartCreated: {CartCreatedRoutingKey, schemaPrefix + "CartCreated.v1.enveloped.schema.json"},
	cart.EventItemAdded:   {ItemAddedRoutingKey, schemaPrefix + "ItemAdded.v1.enveloped.schema.json"},
	cart.EventItemRemoved: {ItemRemovedRoutingKey, schemaPrefix + "ItemRemoved.v1.enveloped.schema.json"},
	cart.EventCartDeleted: {CartDeletedRoutingKey, schemaPrefix + "CartDeleted.v1.enveloped.schema.json"},
}

func declareEventsExchange(ch *amqp.Channel) error {
	return ch.ExchangeDeclare(
		EventsExchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
}
