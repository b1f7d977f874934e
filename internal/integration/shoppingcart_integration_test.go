//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/sync/errgroup"

	"github.com/andreasstove999/ecommerce-system/services/shoppingcart-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/services/shoppingcart-service-go/internal/db"
	"github.com/andreasstove999/ecommerce-system/services/shoppingcart-service-go/internal/events"
	httpapi "github.com/andreasstove999/ecommerce-system/services/shoppingcart-service-go/internal/http"
	"github.com/andreasstove999/ecommerce-system/services/shoppingcart-service-go/internal/logger"
	"github.com/andreasstove999/ecommerce-system/services/shoppingcart-service-go/internal/product"
	"github.com/andreasstove999/ecommerce-system/services/shoppingcart-service-go/internal/store"
)

func TestShoppingCartIntegration(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	pgC, dsn := startPostgres(ctx, t)
	defer terminateContainer(t, pgC)

	rabbitC, rabbitURL := startRabbitMQ(ctx, t)
	defer terminateContainer(t, rabbitC)

	log := logger.Discard()
	require.NoError(t, db.RunMigrations(dsn, log))

	sqlDB, err := db.OpenSQL(dsn)
	require.NoError(t, err)
	defer sqlDB.Close()
	require.NoError(t, db.Reseed(ctx, sqlDB, store.DemoFixture(time.Now())))

	conn, err := events.Dial(rabbitURL)
	require.NoError(t, err)
	defer conn.Close()

	deliveries := bindTestQueue(t, conn)

	app := startService(ctx, t, dsn, conn)
	defer app.stop()

	client := &http.Client{Timeout: 5 * time.Second}

	t.Run("find missing cart", func(t *testing.T) {
		resp := call(t, client, http.MethodGet, app.baseURL+"/api/carts/cart/InvalidCart", nil)
		require.Equal(t, http.StatusBadRequest, resp.status)
		require.Equal(t, "cart not found: InvalidCart", resp.body["message"])
	})

	t.Run("delete seeded cart restores inventory", func(t *testing.T) {
		require.EqualValues(t, 99, inventory(t, client, app.baseURL, "IPAD10"))

		resp := call(t, client, http.MethodDelete, app.baseURL+"/api/carts/cart", map[string]string{"cartName": "MyFirstCart"})
		require.Equal(t, http.StatusOK, resp.status)
		require.EqualValues(t, 100, inventory(t, client, app.baseURL, "IPAD10"))

		env := waitForEvent(ctx, t, deliveries, events.CartDeletedRoutingKey)
		require.NoError(t, env.Validate(string(cart.EventCartDeleted), 1))
		require.Equal(t, "MyFirstCart", env.PartitionKey)
	})

	t.Run("concurrent adds never oversell", func(t *testing.T) {
		const carts = 30
		for i := range carts {
			resp := call(t, client, http.MethodPost, app.baseURL+"/api/carts/cart",
				map[string]string{"cartName": fmt.Sprintf("load-%d", i)})
			require.Equal(t, http.StatusOK, resp.status)
		}

		var ok, rejected atomic.Int32
		g, gctx := errgroup.WithContext(ctx)
		for i := range carts {
			g.Go(func() error {
				resp, err := post(gctx, client, app.baseURL+"/api/items/item", map[string]any{
					"cartName": fmt.Sprintf("load-%d", i), "skuNumber": "MACBOOKPRO", "quantity": 1,
				})
				if err != nil {
					return err
				}
				switch resp {
				case http.StatusOK:
					ok.Add(1)
				case http.StatusBadRequest:
					rejected.Add(1)
				default:
					return fmt.Errorf("unexpected status %d", resp)
				}
				return nil
			})
		}
		require.NoError(t, g.Wait())

		require.EqualValues(t, 20, ok.Load())
		require.EqualValues(t, carts-20, rejected.Load())
		require.EqualValues(t, 0, inventory(t, client, app.baseURL, "MACBOOKPRO"))
	})
}

type shoppingCartApp struct {
	baseURL string
	stop    func()
}

func startService(ctx context.Context, t *testing.T, dsn string, conn *amqp.Connection) *shoppingCartApp {
	t.Helper()

	pool, err := db.NewPool(ctx, dsn)
	require.NoError(t, err)

	publisher, err := events.NewPublisher(conn, events.PublisherOptions{})
	require.NoError(t, err)

	log := logger.Discard()
	st := store.NewPostgresStore(pool)
	handler := httpapi.NewHandler(
		cart.NewEngine(st, cart.Options{Notifier: publisher, Logger: log}),
		product.NewService(st, log),
		st,
		log,
	)
	router := httpapi.NewRouter(handler, httpapi.RouterOptions{Logger: log, RequestTimeout: 5 * time.Second})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	server := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	return &shoppingCartApp{
		baseURL: fmt.Sprintf("http://%s", ln.Addr().String()),
		stop: func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
			_ = publisher.Close()
			pool.Close()

			select {
			case err := <-errCh:
				t.Logf("server error: %v", err)
			default:
			}
		},
	}
}

type response struct {
	status int
	body   map[string]any
}

func call(t *testing.T, client *http.Client, method, url string, body any) response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := response{status: resp.StatusCode, body: map[string]any{}}
	_ = json.NewDecoder(resp.Body).Decode(&out.body)
	return out
}

func post(ctx context.Context, client *http.Client, url string, body any) (int, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

func inventory(t *testing.T, client *http.Client, baseURL, sku string) float64 {
	t.Helper()
	resp := call(t, client, http.MethodGet, baseURL+"/api/products/product/"+sku, nil)
	require.Equal(t, http.StatusOK, resp.status)
	n, ok := resp.body["inventoryCount"].(float64)
	require.True(t, ok, "inventoryCount missing: %v", resp.body)
	return n
}

func bindTestQueue(t *testing.T, conn *amqp.Connection) <-chan amqp.Delivery {
	t.Helper()

	ch, err := conn.Channel()
	require.NoError(t, err)
	t.Cleanup(func() { _ = ch.Close() })

	require.NoError(t, ch.ExchangeDeclare(events.EventsExchange, "topic", true, false, false, false, nil))

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	require.NoError(t, err)
	require.NoError(t, ch.QueueBind(q.Name, "cart.#", events.EventsExchange, false, nil))

	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	require.NoError(t, err)
	return deliveries
}

func waitForEvent(ctx context.Context, t *testing.T, deliveries <-chan amqp.Delivery, routingKey string) events.EventEnvelope {
	t.Helper()

	for {
		select {
		case <-ctx.Done():
			t.Fatalf("timed out waiting for %s", routingKey)
		case d := <-deliveries:
			if d.RoutingKey != routingKey {
				continue
			}
			var env events.EventEnvelope
			require.NoError(t, json.Unmarshal(d.Body, &env))
			return env
		}
	}
}

func startPostgres(ctx context.Context, t *testing.T) (testcontainers.Container, string) {
	t.Helper()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16",
		Env:          map[string]string{"POSTGRES_PASSWORD": "postgres", "POSTGRES_USER": "postgres", "POSTGRES_DB": "shoppingcart"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	mappedPort, err := container.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://postgres:postgres@%s:%s/shoppingcart?sslmode=disable", host, mappedPort.Port())
	return container, dsn
}

func startRabbitMQ(ctx context.Context, t *testing.T) (testcontainers.Container, string) {
	t.Helper()

	req := testcontainers.ContainerRequest{
		Image:        "rabbitmq:3-management",
		ExposedPorts: []string{"5672/tcp"},
		WaitingFor:   wait.ForListeningPort("5672/tcp").WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	mappedPort, err := container.MappedPort(ctx, "5672/tcp")
	require.NoError(t, err)

	return container, fmt.Sprintf("amqp://guest:guest@%s:%s/", host, mappedPort.Port())
}

func terminateContainer(t *testing.T, c testcontainers.Container) {
	t.Helper()
	if c == nil {
		return
	}
	if err := c.Terminate(context.Background()); err != nil {
		t.Logf("terminate container: %v", err)
	}
}
