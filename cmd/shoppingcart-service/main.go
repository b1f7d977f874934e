package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/andreasstove999/ecommerce-system/services/shoppingcart-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/services/shoppingcart-service-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/services/shoppingcart-service-go/internal/db"
	"github.com/andreasstove999/ecommerce-system/services/shoppingcart-service-go/internal/events"
	httpapi "github.com/andreasstove999/ecommerce-system/services/shoppingcart-service-go/internal/http"
	"github.com/andreasstove999/ecommerce-system/services/shoppingcart-service-go/internal/logger"
	"github.com/andreasstove999/ecommerce-system/services/shoppingcart-service-go/internal/product"
	"github.com/andreasstove999/ecommerce-system/services/shoppingcart-service-go/internal/store"
)

const serviceName = "shoppingcart-service"

type backend interface {
	store.Store
	httpapi.Pinger
}

func main() {
	cfg := config.Load()
	log := logger.New(logger.Options{Service: serviceName, Env: cfg.AppEnv, Level: cfg.LogLevel})

	if err := run(cfg, log); err != nil {
		log.Error("shoppingcart-service stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	var notifier cart.Notifier = cart.NopNotifier{}
	if cfg.EventsEnabled() {
		conn, err := events.Dial(cfg.RabbitMQURL)
		if err != nil {
			return err
		}
		defer conn.Close()

		publisher, err := events.NewPublisher(conn, events.PublisherOptions{Producer: serviceName})
		if err != nil {
			return fmt.Errorf("create publisher: %w", err)
		}
		defer func() {
			if err := publisher.Close(); err != nil {
				log.Warn("publisher close error", "error", err)
			}
		}()
		notifier = publisher
		log.Info("event publishing enabled", "exchange", events.EventsExchange)
	}

	handler := httpapi.NewHandler(
		cart.NewEngine(st, cart.Options{Notifier: notifier, Logger: log}),
		product.NewService(st, log),
		st,
		log,
	)

	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: httpapi.NewRouter(handler, httpapi.RouterOptions{
			Logger:           log,
			CORSAllowOrigins: cfg.CORSAllowOrigins,
			RequestTimeout:   cfg.RequestTimeout,
		}),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("shoppingcart-service listening", "addr", cfg.HTTPAddr, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("graceful shutdown error", "error", err)
	}
	return nil
}

func openStore(ctx context.Context, cfg config.Config, log *slog.Logger) (backend, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		st := store.NewMemoryStore()
		if cfg.SeedOnStart {
			if err := st.Load(store.DemoFixture(time.Now())); err != nil {
				return nil, nil, fmt.Errorf("seed memory store: %w", err)
			}
			log.Info("memory store seeded")
		}
		return st, func() {}, nil

	case config.StoreDriverPostgres:
		if cfg.RunMigrations {
			if err := db.RunMigrations(cfg.DatabaseDSN, log); err != nil {
				return nil, nil, fmt.Errorf("run migrations: %w", err)
			}
		}
		if cfg.SeedOnStart {
			if err := reseed(ctx, cfg.DatabaseDSN); err != nil {
				return nil, nil, err
			}
			log.Info("database reseeded")
		}

		pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open pool: %w", err)
		}
		st := store.NewPostgresStore(pool)
		if err := st.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("ping database: %w", err)
		}
		return st, pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}

func reseed(ctx context.Context, dsn string) error {
	sqlDB, err := db.OpenSQL(dsn)
	if err != nil {
		return fmt.Errorf("open db for reseed: %w", err)
	}
	defer sqlDB.Close()

	if err := db.Reseed(ctx, sqlDB, store.DemoFixture(time.Now())); err != nil {
		return fmt.Errorf("reseed: %w", err)
	}
	return nil
}
