package memstore

import (
	"context"
	"errors"
	"farmacia-service/internal/app/models"
	"farmacia-service/internal/pkg/exceptions"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithinTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("Failure Restores Every Write", func(t *testing.T) {
		store := New()
		store.SeedCatalog(models.CatalogItem{Kind: models.LineItemKindMedicamento, ID: "ibuprofeno", Stock: 5})

		boom := errors.New("boom")
		err := store.WithinTransaction(ctx, func(ctx context.Context) error {
			ok, err := store.DecrementStock(ctx, models.LineItemKindMedicamento, "ibuprofeno", 3)
			require.NoError(t, err)
			require.True(t, ok)
			_, err = store.NextDailyNumber(ctx, time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC))
			require.NoError(t, err)
			return boom
		})
		assert.ErrorIs(t, err, boom)

		stock, _ := store.Stock(models.LineItemKindMedicamento, "ibuprofeno")
		assert.Equal(t, 5, stock, "stock must be restored after rollback")

		n, err := store.NextDailyNumber(ctx, time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, 1, n, "sequence must be restored after rollback")
	})

	t.Run("Nested Calls Join The Outer Transaction", func(t *testing.T) {
		store := New()
		err := store.WithinTransaction(ctx, func(ctx context.Context) error {
			return store.WithinTransaction(ctx, func(ctx context.Context) error {
				_, err := store.NextDailyNumber(ctx, time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC))
				return err
			})
		})
		require.NoError(t, err)
	})

	t.Run("Cancelled Context Does Not Commit", func(t *testing.T) {
		store := New()
		store.SeedCatalog(models.CatalogItem{Kind: models.LineItemKindInsumo, ID: "gasa", Stock: 2})

		cctx, cancel := context.WithCancel(ctx)
		err := store.WithinTransaction(cctx, func(txCtx context.Context) error {
			_, err := store.DecrementStock(txCtx, models.LineItemKindInsumo, "gasa", 2)
			cancel()
			return err
		})
		assert.Error(t, err)

		stock, _ := store.Stock(models.LineItemKindInsumo, "gasa")
		assert.Equal(t, 2, stock)
	})
}

func TestStoreRepositories(t *testing.T) {
	ctx := context.Background()

	t.Run("Conditional Decrement", func(t *testing.T) {
		store := New()
		store.SeedCatalog(models.CatalogItem{Kind: models.LineItemKindMedicamento, ID: "amoxicilina", Stock: 1})

		ok, err := store.DecrementStock(ctx, models.LineItemKindMedicamento, "amoxicilina", 2)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = store.DecrementStock(ctx, models.LineItemKindMedicamento, "amoxicilina", 1)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("Duplicate Blocked Date", func(t *testing.T) {
		store := New()
		day := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)
		require.NoError(t, store.CreateBlockedDate(ctx, &models.BlockedDate{Date: day, Reason: "feriado"}))

		err := store.CreateBlockedDate(ctx, &models.BlockedDate{Date: day, Reason: "again"})
		assert.True(t, exceptions.IsCode(err, exceptions.CodeDuplicateDate))

		between, err := store.FindBlockedDatesBetween(ctx, day.AddDate(0, 0, -1), day.AddDate(0, 0, 1))
		require.NoError(t, err)
		assert.Len(t, between, 1)
	})

	t.Run("Active Slot Is Unique", func(t *testing.T) {
		store := New()
		slot := time.Date(2026, 3, 3, 14, 0, 0, 0, time.UTC)
		one, two := 1, 2
		for _, id := range []string{"a", "b"} {
			require.NoError(t, store.CreateTurno(ctx, &models.Turno{ID: id, Status: models.TurnoStatusPendiente}))
		}
		require.NoError(t, store.UpdateTurno(ctx, &models.Turno{ID: "a", Status: models.TurnoStatusAprobado, Slot: &slot, DailyNumber: &one}))

		err := store.UpdateTurno(ctx, &models.Turno{ID: "b", Status: models.TurnoStatusAprobado, Slot: &slot, DailyNumber: &two})
		assert.True(t, exceptions.IsCode(err, exceptions.CodeConcurrencyConflict))
	})

	t.Run("Parse Catalog Seed", func(t *testing.T) {
		items, err := ParseCatalogSeed([]string{"medicamento:ibuprofeno:10", "insumo:gasa:0"})
		require.NoError(t, err)
		assert.Equal(t, []models.CatalogItem{
			{Kind: models.LineItemKindMedicamento, ID: "ibuprofeno", Name: "ibuprofeno", Stock: 10},
			{Kind: models.LineItemKindInsumo, ID: "gasa", Name: "gasa", Stock: 0},
		}, items)

		_, err = ParseCatalogSeed([]string{"vacuna:x:1"})
		assert.Error(t, err)
		_, err = ParseCatalogSeed([]string{"insumo:gasa:-1"})
		assert.Error(t, err)
	})
}
