package db

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/services/shoppingcart-service-go/internal/store"
)

func TestReseed_LoadsFixture(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	f := store.DemoFixture(now)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`TRUNCATE items, carts, products, event_sequences RESTART IDENTITY`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	for _, p := range f.Products {
		mock.ExpectExec(`INSERT INTO products`).
			WithArgs(p.SKU, p.Name, p.Description, p.InventoryCount, p.Price.StringFixed(2), p.CategoryName, now).
			WillReturnResult(sqlmock.NewResult(1, 1))
	}
	mock.ExpectExec(`INSERT INTO carts`).
		WithArgs("MyFirstCart", "MyFirstCart", "ACTIVE", now, now).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO items`).
		WithArgs("MyFirstCart", "IPAD10", 1, now).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	require.NoError(t, Reseed(context.Background(), db, f))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReseed_RollsBackOnInsertError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	f := store.DemoFixture(time.Now())

	mock.ExpectBegin()
	mock.ExpectExec(`TRUNCATE`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO products`).WillReturnError(errors.New("insert failed"))
	mock.ExpectRollback()

	err = Reseed(context.Background(), db, f)
	require.Error(t, err)
	require.Contains(t, err.Error(), "IPAD10")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReseed_BeginError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin().WillReturnError(errors.New("db down"))

	require.Error(t, Reseed(context.Background(), db, store.Fixture{}))
	require.NoError(t, mock.ExpectationsWereMet())
}
