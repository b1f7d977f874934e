package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/andreasstove999/ecommerce-system/services/shoppingcart-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/services/shoppingcart-service-go/internal/product"
)

type CartEngine interface {
	CreateCart(ctx context.Context, name, description string) (cart.CartView, error)
	FindCart(ctx context.Context, name string) (cart.CartView, error)
	DeleteCart(ctx context.Context, name string) (cart.CartView, error)
	AddItem(ctx context.Context, cartName, sku string, quantity int) (cart.ItemView, error)
	RemoveItem(ctx context.Context, cartName, sku string, quantity int) (cart.ItemView, error)
	ListItems(ctx context.Context, cartName string) ([]cart.ItemView, error)
}

type Catalog interface {
	AddProduct(ctx context.Context, p product.Product) (product.Product, error)
	GetProduct(ctx context.Context, sku string) (product.Product, error)
	ListProducts(ctx context.Context, category string) ([]product.Product, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	carts   CartEngine
	catalog Catalog
	db      Pinger
	logger  *slog.Logger
}

func NewHandler(carts CartEngine, catalog Catalog, db Pinger, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{carts: carts, catalog: catalog, db: db, logger: logger}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := h.db.Ping(r.Context()); err != nil {
			h.logger.WarnContext(r.Context(), "health check failed", "error", err)
			writeError(w, http.StatusServiceUnavailable, "store unavailable")
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// writeDomainError maps engine and catalogue errors to a status. Anything not
// recognised is logged and reported as a bare 500.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, cart.ErrCartExists):
		writeError(w, http.StatusConflict, err.Error())
	case cart.IsDomainError(err), errors.Is(err, product.ErrInvalidProduct):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
