package blockeddates

import (
	"context"
	"farmacia-service/internal/app/services/shared/locker"
	"farmacia-service/internal/app/services/shared/memstore"
	"farmacia-service/internal/pkg/dto/requests"
	"farmacia-service/internal/pkg/exceptions"
	"farmacia-service/internal/pkg/utils"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestUsecase(t *testing.T) (*blockedDateUsecase, *time.Location) {
	t.Helper()
	loc, err := time.LoadLocation("America/Argentina/Buenos_Aires")
	require.NoError(t, err)
	opts := locker.Options{TTL: time.Minute, Wait: 30 * time.Millisecond, RetryInterval: 2 * time.Millisecond}
	uc := NewBlockedDateUsecase(memstore.New(), locker.NewMemoryLocker(), opts, loc, zap.NewNop()).(*blockedDateUsecase)
	return uc, loc
}

func TestBlockedDateUsecase(t *testing.T) {
	ctx := context.Background()

	t.Run("Add Then Query", func(t *testing.T) {
		uc, loc := newTestUsecase(t)

		blocked, err := uc.AddBlockedDate(ctx, &requests.AddBlockedDate{Date: "2026-05-25", Reason: " Revolución de Mayo ", ActorID: "admin-1"})
		require.NoError(t, err)
		assert.Equal(t, "2026-05-25", blocked.DayKey())
		assert.Equal(t, "Revolución de Mayo", blocked.Reason)
		assert.Equal(t, "admin-1", blocked.CreatedBy)

		isBlocked, err := uc.IsBlocked(ctx, time.Date(2026, 5, 25, 15, 30, 0, 0, loc))
		require.NoError(t, err)
		assert.True(t, isBlocked, "any instant of the day is blocked")

		isBlocked, err = uc.IsBlocked(ctx, time.Date(2026, 5, 26, 0, 0, 0, 0, loc))
		require.NoError(t, err)
		assert.False(t, isBlocked)
	})

	t.Run("Day Is Taken In The Configured Timezone", func(t *testing.T) {
		uc, _ := newTestUsecase(t)
		_, err := uc.AddBlockedDate(ctx, &requests.AddBlockedDate{Date: "2026-05-25", Reason: "feriado", ActorID: "admin-1"})
		require.NoError(t, err)

		// 02:00 UTC on the 26th is still the 25th in Buenos Aires.
		isBlocked, err := uc.IsBlocked(ctx, time.Date(2026, 5, 26, 2, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.True(t, isBlocked)
	})

	t.Run("Duplicate Date", func(t *testing.T) {
		uc, _ := newTestUsecase(t)
		_, err := uc.AddBlockedDate(ctx, &requests.AddBlockedDate{Date: "2026-07-09", Reason: "feriado", ActorID: "admin-1"})
		require.NoError(t, err)

		_, err = uc.AddBlockedDate(ctx, &requests.AddBlockedDate{Date: "2026-07-09", Reason: "otra vez", ActorID: "admin-2"})
		assert.True(t, exceptions.IsCode(err, exceptions.CodeDuplicateDate))
	})

	t.Run("Invalid Input", func(t *testing.T) {
		uc, _ := newTestUsecase(t)

		_, err := uc.AddBlockedDate(ctx, &requests.AddBlockedDate{Date: "09/07/2026", Reason: "feriado", ActorID: "admin-1"})
		assert.True(t, exceptions.IsCode(err, exceptions.CodeValidation))

		_, err = uc.AddBlockedDate(ctx, &requests.AddBlockedDate{Date: "2026-07-09", Reason: "   ", ActorID: "admin-1"})
		assert.True(t, exceptions.IsCode(err, exceptions.CodeValidation))
	})

	t.Run("Blocking Waits For A Slot Reservation On The Day", func(t *testing.T) {
		uc, loc := newTestUsecase(t)
		day := time.Date(2026, 7, 14, 0, 0, 0, 0, loc)

		ok, value, err := uc.Locker.TryLock(ctx, utils.SlotDayLockKey(day, loc), time.Minute)
		require.NoError(t, err)
		require.True(t, ok)

		_, err = uc.AddBlockedDate(ctx, &requests.AddBlockedDate{Date: "2026-07-14", Reason: "inventario", ActorID: "admin-1"})
		assert.True(t, exceptions.IsCode(err, exceptions.CodeConcurrencyConflict), "should not block a day while a reservation holds it")

		isBlocked, err := uc.IsBlocked(ctx, day)
		require.NoError(t, err)
		assert.False(t, isBlocked)

		require.NoError(t, uc.Locker.Unlock(ctx, utils.SlotDayLockKey(day, loc), value))
		_, err = uc.AddBlockedDate(ctx, &requests.AddBlockedDate{Date: "2026-07-14", Reason: "inventario", ActorID: "admin-1"})
		require.NoError(t, err)
	})

	t.Run("Remove", func(t *testing.T) {
		uc, loc := newTestUsecase(t)
		_, err := uc.AddBlockedDate(ctx, &requests.AddBlockedDate{Date: "2026-12-08", Reason: "feriado", ActorID: "admin-1"})
		require.NoError(t, err)

		require.NoError(t, uc.RemoveBlockedDate(ctx, time.Date(2026, 12, 8, 0, 0, 0, 0, loc)))

		err = uc.RemoveBlockedDate(ctx, time.Date(2026, 12, 8, 0, 0, 0, 0, loc))
		assert.True(t, exceptions.IsCode(err, exceptions.CodeNotFound), "removing an absent date reports NotFound")
	})

	t.Run("List Between Is Inclusive And Ordered", func(t *testing.T) {
		uc, loc := newTestUsecase(t)
		for _, day := range []string{"2026-03-10", "2026-03-03", "2026-03-24", "2026-04-02"} {
			_, err := uc.AddBlockedDate(ctx, &requests.AddBlockedDate{Date: day, Reason: "cierre", ActorID: "admin-1"})
			require.NoError(t, err)
		}

		between, err := uc.ListBlockedDatesBetween(ctx, time.Date(2026, 3, 3, 12, 0, 0, 0, loc), time.Date(2026, 3, 24, 0, 0, 0, 0, loc))
		require.NoError(t, err)
		require.Len(t, between, 3)
		assert.Equal(t, "2026-03-03", between[0].DayKey())
		assert.Equal(t, "2026-03-24", between[2].DayKey())

		all, err := uc.ListBlockedDates(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 4)
	})
}
