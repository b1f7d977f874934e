package store

import (
	"time"

	"github.com/shopspring/decimal"
)

const DemoCategory = "Electronics"

// Fixture is a full data set used to (re)seed a store.
type Fixture struct {
	Products []Product
	Carts    []Cart
	Items    []Item
}

// DemoFixture is the catalogue the service ships with for local runs and
// end-to-end tests. MyFirstCart already holds one IPAD10, and the IPAD10
// inventory reflects that reservation.
func DemoFixture(now time.Time) Fixture {
	now = now.UTC().Truncate(time.Microsecond)
	return Fixture{
		Products: []Product{
			{SKU: "IPAD10", Name: "IPAD10", Description: "IPAD10", InventoryCount: 99, Price: decimal.RequireFromString("100.00"), CategoryName: DemoCategory, CreatedDate: now},
			{SKU: "IPHONE11", Name: "IPHONE11", Description: "IPHONE11", InventoryCount: 50, Price: decimal.RequireFromString("699.99"), CategoryName: DemoCategory, CreatedDate: now},
			{SKU: "MACBOOKPRO", Name: "MACBOOKPRO", Description: "MACBOOKPRO", InventoryCount: 20, Price: decimal.RequireFromString("2399.00"), CategoryName: DemoCategory, CreatedDate: now},
		},
		Carts: []Cart{
			{Name: "MyFirstCart", Description: "MyFirstCart", Status: CartStatusActive, CreatedDate: now, UpdatedDate: now},
		},
		Items: []Item{
			{CartName: "MyFirstCart", SKU: "IPAD10", Quantity: 1, CreatedDate: now},
		},
	}
}
