package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryStore_FailedTxLeavesNoTrace(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Load(DemoFixture(time.Now())))

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx Tx) error {
		p, err := tx.LockProduct(ctx, "IPAD10")
		require.NoError(t, err)
		p.InventoryCount = 0
		require.NoError(t, tx.SaveProduct(ctx, p))
		require.NoError(t, tx.DeleteCartByName(ctx, "MyFirstCart"))
		return boom
	})
	require.ErrorIs(t, err, boom)

	require.NoError(t, s.WithTx(ctx, func(tx Tx) error {
		p, err := tx.FindProductBySku(ctx, "IPAD10")
		require.NoError(t, err)
		require.Equal(t, 99, p.InventoryCount)

		items, err := tx.ListItems(ctx, "MyFirstCart")
		require.NoError(t, err)
		require.Len(t, items, 1)
		return nil
	}))
}

func TestMemoryStore_DeleteCartCascadesItems(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Load(DemoFixture(time.Now())))

	require.NoError(t, s.WithTx(ctx, func(tx Tx) error {
		return tx.DeleteCartByName(ctx, "MyFirstCart")
	}))
	require.NoError(t, s.WithTx(ctx, func(tx Tx) error {
		items, err := tx.ListItems(ctx, "MyFirstCart")
		require.NoError(t, err)
		require.Empty(t, items)
		_, err = tx.FindCartByName(ctx, "MyFirstCart")
		require.ErrorIs(t, err, ErrNotFound)
		return nil
	}))
}

func TestMemoryStore_Constraints(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Load(DemoFixture(time.Now())))

	_ = s.WithTx(ctx, func(tx Tx) error {
		err := tx.InsertCart(ctx, Cart{Name: "MyFirstCart"})
		require.ErrorIs(t, err, ErrConflict)

		_, err = tx.SaveItem(ctx, Item{CartName: "MyFirstCart", SKU: "IPAD10", Quantity: 1})
		require.ErrorIs(t, err, ErrConflict)

		_, err = tx.SaveItem(ctx, Item{CartName: "Nope", SKU: "IPAD10", Quantity: 1})
		require.ErrorIs(t, err, ErrNotFound)

		_, err = tx.SaveItem(ctx, Item{CartName: "MyFirstCart", SKU: "IPHONE11", Quantity: 0})
		require.ErrorIs(t, err, ErrCheckViolation)

		err = tx.SaveProduct(ctx, Product{SKU: "IPAD10", InventoryCount: -1})
		require.ErrorIs(t, err, ErrCheckViolation)
		return nil
	})
}

func TestMemoryStore_SequencesPerPartition(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var got []int64
	require.NoError(t, s.WithTx(ctx, func(tx Tx) error {
		for _, key := range []string{"Cart1", "Cart1", "Cart2"} {
			seq, err := tx.NextSequence(ctx, key)
			if err != nil {
				return err
			}
			got = append(got, seq)
		}
		_, err := tx.NextSequence(ctx, "")
		require.Error(t, err)
		return nil
	}))
	require.Equal(t, []int64{1, 2, 1}, got)
}

func TestMemoryStore_ListProductsByCategorySorted(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Load(DemoFixture(time.Now())))

	require.NoError(t, s.WithTx(ctx, func(tx Tx) error {
		ps, err := tx.ListProductsByCategory(ctx, DemoCategory)
		require.NoError(t, err)
		require.Len(t, ps, 3)
		require.Equal(t, "IPAD10", ps[0].SKU)
		require.Equal(t, "MACBOOKPRO", ps[2].SKU)

		none, err := tx.ListProductsByCategory(ctx, "Garden")
		require.NoError(t, err)
		require.Empty(t, none)
		return nil
	}))
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewMemoryStore().WithTx(ctx, func(tx Tx) error { return nil })
	require.ErrorIs(t, err, context.Canceled)
}
