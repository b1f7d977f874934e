package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type addCartRequest struct {
	CartName    string `json:"cartName" validate:"required"`
	Description string `json:"description"`
}

type deleteCartRequest struct {
	CartName string `json:"cartName" validate:"required"`
}

type itemRequest struct {
	CartName  string `json:"cartName" validate:"required"`
	SkuNumber string `json:"skuNumber" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
}

type addProductRequest struct {
	SkuNumber           string          `json:"skuNumber" validate:"required"`
	ProductName         string          `json:"productName" validate:"required"`
	Description         string          `json:"description"`
	InventoryCount      int             `json:"inventoryCount" validate:"gte=0,lte=2147483647"`
	Price               decimal.Decimal `json:"price"`
	ProductCategoryName string          `json:"productCategoryName"`
}

const maxBodyBytes = 1 << 20

// decode reads a JSON body into dst and validates it. The returned error is
// safe to show to the client.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)
		}
		return errors.New("invalid JSON body")
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fieldMessage(fe))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
