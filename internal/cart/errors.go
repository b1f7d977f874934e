package cart

import (
	"errors"

	"github.com/andreasstove999/ecommerce-system/services/shoppingcart-service-go/internal/inventory"
)

var (
	ErrCartNotFound    = errors.New("cart not found")
	ErrItemNotFound    = errors.New("item not found")
	ErrCartExists      = errors.New("cart already exists")
	ErrInvalidCartName = errors.New("cart name is required")
	ErrInvalidQuantity = inventory.ErrInvalidQuantity
)

// IsDomainError reports whether err is an expected rejection rather than an
// infrastructure failure.
func IsDomainError(err error) bool {
	for _, target := range []error{
		ErrCartNotFound,
		ErrItemNotFound,
		ErrCartExists,
		ErrInvalidCartName,
		ErrInvalidQuantity,
		inventory.ErrProductNotFound,
		inventory.ErrInsufficientInventory,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
