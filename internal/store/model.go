package store

import (
	"time"

	"github.com/shopspring/decimal"
)

type CartStatus string

const (
	CartStatusActive   CartStatus = "ACTIVE"
	CartStatusInactive CartStatus = "INACTIVE"
)

type Product struct {
	SKU            string
	Name           string
	Description    string
	InventoryCount int
	Price          decimal.Decimal
	CategoryName   string
	CreatedDate    time.Time
}

type Cart struct {
	Name        string
	Description string
	Status      CartStatus
	CreatedDate time.Time
	UpdatedDate time.Time
}

// Item references its cart and product by key; ID is assigned by the store on first save.
type Item struct {
	ID          int64
	CartName    string
	SKU         string
	Quantity    int
	CreatedDate time.Time
}
