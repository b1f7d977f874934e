package cart

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/services/shoppingcart-service-go/internal/store"
)

type ItemView struct {
	ItemID      int64           `json:"itemId"`
	CartName    string          `json:"cartName"`
	SKU         string          `json:"skuNumber"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	LineTotal   decimal.Decimal `json:"lineTotal"`
	CreatedDate time.Time       `json:"createdDate"`
}

type CartView struct {
	Name        string           `json:"cartName"`
	Description string           `json:"description"`
	Status      store.CartStatus `json:"status"`
	Items       []ItemView       `json:"items"`
	Total       decimal.Decimal  `json:"total"`
	CreatedDate time.Time        `json:"createdDate"`
	UpdatedDate time.Time        `json:"updatedDate"`
}

func newItemView(it store.Item, p store.Product) ItemView {
	return ItemView{
		ItemID:      it.ID,
		CartName:    it.CartName,
		SKU:         it.SKU,
		ProductName: p.Name,
		Quantity:    it.Quantity,
		UnitPrice:   p.Price,
		LineTotal:   p.Price.Mul(decimal.NewFromInt(int64(it.Quantity))),
		CreatedDate: it.CreatedDate,
	}
}

func newCartView(c store.Cart, items []ItemView) CartView {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.LineTotal)
	}
	if items == nil {
		items = []ItemView{}
	}
	return CartView{
		Name:        c.Name,
		Description: c.Description,
		Status:      c.Status,
		Items:       items,
		Total:       total,
		CreatedDate: c.CreatedDate,
		UpdatedDate: c.UpdatedDate,
	}
}
