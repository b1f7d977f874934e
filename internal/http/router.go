package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/andreasstove999/ecommerce-system/services/shoppingcart-service-go/internal/middleware"
)

type RouterOptions struct {
	Logger           *slog.Logger
	CORSAllowOrigins []string
	RequestTimeout   time.Duration
}

func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	origins := opts.CORSAllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.CorrelationID)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Recover(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", middleware.HeaderCorrelationID},
		ExposedHeaders: []string{middleware.HeaderCorrelationID},
		MaxAge:         300,
	}))
	if opts.RequestTimeout > 0 {
		r.Use(chimw.Timeout(opts.RequestTimeout))
	}

	r.Get("/health", h.Health)

	r.Route("/api/carts", func(r chi.Router) {
		r.Post("/cart", h.CreateCart)
		r.Get("/cart/{cartName}", h.GetCart)
		r.Delete("/cart", h.DeleteCart)
	})

	r.Route("/api/items", func(r chi.Router) {
		r.Post("/item", h.AddItem)
		r.Post("/cart/item", h.RemoveItem)
		r.Get("/{cartName}", h.ListItems)
	})

	r.Route("/api/products", func(r chi.Router) {
		r.Post("/product", h.AddProduct)
		r.Get("/product/{skuNumber}", h.GetProduct)
		r.Get("/{productCategoryName}", h.ListProducts)
	})

	return r
}
