package slot

import (
	"context"
	"farmacia-service/internal/app/config"
	"farmacia-service/internal/app/contracts"
	"farmacia-service/internal/app/models"
	"farmacia-service/internal/app/services/core/blockeddates"
	"farmacia-service/internal/app/services/shared/locker"
	"farmacia-service/internal/app/services/shared/memstore"
	"farmacia-service/internal/pkg/dto/requests"
	"farmacia-service/internal/pkg/exceptions"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var buenosAires = mustLoadLocation("America/Argentina/Buenos_Aires")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func defaultScheduleConfig() config.AppSchedule {
	return config.AppSchedule{
		Weekdays:          []string{"tuesday", "thursday"},
		WindowStart:       "14:00",
		WindowEnd:         "17:00",
		SlotMinutes:       6,
		SlotBufferMinutes: 0,
		DailyCapacity:     30,
		HorizonDays:       366,
	}
}

type fixture struct {
	store     *memstore.Store
	blocked   contracts.BlockedDateUsecase
	locker    contracts.LockerService
	allocator contracts.SlotAllocator
}

func newFixture(t *testing.T, cfg config.AppSchedule) *fixture {
	t.Helper()
	schedule, err := NewSchedule(cfg, buenosAires)
	require.NoError(t, err)

	store := memstore.New()
	lockerService := locker.NewMemoryLocker()
	opts := locker.Options{TTL: time.Minute, Wait: 30 * time.Millisecond, RetryInterval: 5 * time.Millisecond}
	blocked := blockeddates.NewBlockedDateUsecase(store, lockerService, opts, buenosAires, zap.NewNop())
	return &fixture{
		store:     store,
		blocked:   blocked,
		locker:    lockerService,
		allocator: NewSlotAllocator(store, blocked, lockerService, opts, schedule, zap.NewNop()),
	}
}

// occupy stores an approved turno holding slot.
func (f *fixture) occupy(t *testing.T, slot time.Time, number int) {
	t.Helper()
	ctx := context.Background()
	id := fmt.Sprintf("turno-%d-%d", slot.Unix(), number)
	require.NoError(t, f.store.CreateTurno(ctx, &models.Turno{ID: id, Status: models.TurnoStatusPendiente}))
	s, n := slot, number
	require.NoError(t, f.store.UpdateTurno(ctx, &models.Turno{ID: id, Status: models.TurnoStatusAprobado, Slot: &s, DailyNumber: &n}))
}

func at(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, buenosAires)
}

func TestNewSchedule(t *testing.T) {
	t.Run("Default Window Yields Thirty Slots", func(t *testing.T) {
		schedule, err := NewSchedule(defaultScheduleConfig(), buenosAires)
		require.NoError(t, err)

		slots := schedule.slotsOn(at(2026, 3, 3, 0, 0))
		require.Len(t, slots, 30)
		assert.Equal(t, at(2026, 3, 3, 14, 0), slots[0].Start)
		assert.Equal(t, at(2026, 3, 3, 16, 54), slots[29].Start)
		assert.Empty(t, schedule.slotsOn(at(2026, 3, 4, 0, 0)), "wednesday is not eligible")
	})

	t.Run("Invalid Configuration", func(t *testing.T) {
		cases := map[string]func(*config.AppSchedule){
			"window reversed":  func(c *config.AppSchedule) { c.WindowStart, c.WindowEnd = "17:00", "14:00" },
			"bad clock":        func(c *config.AppSchedule) { c.WindowStart = "2pm" },
			"unknown weekday":  func(c *config.AppSchedule) { c.Weekdays = []string{"funday"} },
			"no weekdays":      func(c *config.AppSchedule) { c.Weekdays = nil },
			"zero slot length": func(c *config.AppSchedule) { c.SlotMinutes = 0 },
			"zero capacity":    func(c *config.AppSchedule) { c.DailyCapacity = 0 },
			"zero horizon":     func(c *config.AppSchedule) { c.HorizonDays = 0 },
		}
		for name, mutate := range cases {
			cfg := defaultScheduleConfig()
			mutate(&cfg)
			_, err := NewSchedule(cfg, buenosAires)
			assert.Error(t, err, name)
		}
	})

	t.Run("Spanish Weekday Names", func(t *testing.T) {
		cfg := defaultScheduleConfig()
		cfg.Weekdays = []string{"martes", "jueves"}
		_, err := NewSchedule(cfg, buenosAires)
		assert.NoError(t, err)
	})
}

func TestNextAvailableSlot(t *testing.T) {
	ctx := context.Background()

	t.Run("Moves To The Next Eligible Weekday", func(t *testing.T) {
		f := newFixture(t, defaultScheduleConfig())
		slot, err := f.allocator.NextAvailableSlot(ctx, at(2026, 3, 2, 10, 0))
		require.NoError(t, err)
		assert.Equal(t, at(2026, 3, 3, 14, 0), slot)
	})

	t.Run("Same Day Slot Is Not Earlier Than After", func(t *testing.T) {
		f := newFixture(t, defaultScheduleConfig())
		slot, err := f.allocator.NextAvailableSlot(ctx, at(2026, 3, 3, 14, 31))
		require.NoError(t, err)
		assert.Equal(t, at(2026, 3, 3, 14, 36), slot)
	})

	t.Run("After The Window Goes To The Next Day", func(t *testing.T) {
		f := newFixture(t, defaultScheduleConfig())
		slot, err := f.allocator.NextAvailableSlot(ctx, at(2026, 3, 3, 17, 0))
		require.NoError(t, err)
		assert.Equal(t, at(2026, 3, 5, 14, 0), slot)
	})

	t.Run("Occupied Slots Are Skipped", func(t *testing.T) {
		f := newFixture(t, defaultScheduleConfig())
		f.occupy(t, at(2026, 3, 3, 14, 0), 1)
		f.occupy(t, at(2026, 3, 3, 14, 6), 2)

		slot, err := f.allocator.NextAvailableSlot(ctx, at(2026, 3, 3, 8, 0))
		require.NoError(t, err)
		assert.Equal(t, at(2026, 3, 3, 14, 12), slot)
	})

	t.Run("Full Day Rolls To Next Eligible Day", func(t *testing.T) {
		f := newFixture(t, defaultScheduleConfig())
		for i, s := range f.mustSlots(t, at(2026, 3, 3, 0, 0)) {
			f.occupy(t, s, i+1)
		}

		slot, err := f.allocator.NextAvailableSlot(ctx, at(2026, 3, 3, 8, 0))
		require.NoError(t, err)
		assert.Equal(t, at(2026, 3, 5, 14, 0), slot)
	})

	t.Run("Daily Cap Below Slot Count Closes The Day", func(t *testing.T) {
		cfg := defaultScheduleConfig()
		cfg.DailyCapacity = 2
		f := newFixture(t, cfg)
		f.occupy(t, at(2026, 3, 3, 14, 0), 1)
		f.occupy(t, at(2026, 3, 3, 14, 12), 2)

		slot, err := f.allocator.NextAvailableSlot(ctx, at(2026, 3, 3, 8, 0))
		require.NoError(t, err)
		assert.Equal(t, at(2026, 3, 5, 14, 0), slot, "14:06 is free but the day already holds its cap")
	})

	t.Run("Blocked Day Is Skipped", func(t *testing.T) {
		f := newFixture(t, defaultScheduleConfig())
		_, err := f.blocked.AddBlockedDate(ctx, &requests.AddBlockedDate{Date: "2026-03-03", Reason: "inventario", ActorID: "admin"})
		require.NoError(t, err)

		slot, err := f.allocator.NextAvailableSlot(ctx, at(2026, 3, 2, 10, 0))
		require.NoError(t, err)
		assert.Equal(t, at(2026, 3, 5, 14, 0), slot)
	})

	t.Run("No Capacity Within Horizon", func(t *testing.T) {
		cfg := defaultScheduleConfig()
		cfg.HorizonDays = 7
		f := newFixture(t, cfg)
		for _, day := range []string{"2026-03-03", "2026-03-05"} {
			_, err := f.blocked.AddBlockedDate(ctx, &requests.AddBlockedDate{Date: day, Reason: "cierre", ActorID: "admin"})
			require.NoError(t, err)
		}

		_, err := f.allocator.NextAvailableSlot(ctx, at(2026, 3, 2, 10, 0))
		assert.True(t, exceptions.IsCode(err, exceptions.CodeNoCapacityFound))
	})
}

func (f *fixture) mustSlots(t *testing.T, day time.Time) []time.Time {
	t.Helper()
	schedule, err := NewSchedule(defaultScheduleConfig(), buenosAires)
	require.NoError(t, err)
	var out []time.Time
	for _, iv := range schedule.slotsOn(day) {
		out = append(out, iv.Start)
	}
	return out
}

func TestReserveSlot(t *testing.T) {
	ctx := context.Background()

	t.Run("Holds The Day Until Released", func(t *testing.T) {
		f := newFixture(t, defaultScheduleConfig())

		first, err := f.allocator.ReserveSlot(ctx, at(2026, 3, 2, 10, 0))
		require.NoError(t, err)
		assert.Equal(t, at(2026, 3, 3, 14, 0), first.Slot)
		assert.Equal(t, at(2026, 3, 3, 0, 0), first.Day)

		_, err = f.allocator.ReserveSlot(ctx, at(2026, 3, 2, 10, 0))
		assert.True(t, exceptions.IsCode(err, exceptions.CodeConcurrencyConflict), "day lock is held by the first reservation")

		first.Release()
		second, err := f.allocator.ReserveSlot(ctx, at(2026, 3, 2, 10, 0))
		require.NoError(t, err)
		second.Release()
	})

	t.Run("Rechecks Occupancy Under The Lock", func(t *testing.T) {
		f := newFixture(t, defaultScheduleConfig())
		f.occupy(t, at(2026, 3, 3, 14, 0), 1)

		reservation, err := f.allocator.ReserveSlot(ctx, at(2026, 3, 2, 10, 0))
		require.NoError(t, err)
		defer reservation.Release()
		assert.Equal(t, at(2026, 3, 3, 14, 6), reservation.Slot)
	})
}

func TestDailySlotNumberAndCapacity(t *testing.T) {
	ctx := context.Background()

	t.Run("Numbers Are Monotonic Per Day", func(t *testing.T) {
		f := newFixture(t, defaultScheduleConfig())

		for want := 1; want <= 3; want++ {
			n, err := f.allocator.DailySlotNumber(ctx, at(2026, 3, 3, 14, 0))
			require.NoError(t, err)
			assert.Equal(t, want, n)
		}

		n, err := f.allocator.DailySlotNumber(ctx, at(2026, 3, 5, 15, 0))
		require.NoError(t, err)
		assert.Equal(t, 1, n, "each day has its own sequence")
	})

	t.Run("Capacity Report", func(t *testing.T) {
		f := newFixture(t, defaultScheduleConfig())
		f.occupy(t, at(2026, 3, 3, 14, 0), 1)

		capacity, err := f.allocator.SlotCapacity(ctx, at(2026, 3, 3, 9, 0))
		require.NoError(t, err)
		assert.Equal(t, "2026-03-03", capacity.Date)
		assert.True(t, capacity.Eligible)
		assert.False(t, capacity.Blocked)
		assert.Equal(t, 30, capacity.Capacity)
		assert.Equal(t, 1, capacity.Occupied)
		assert.Equal(t, 29, capacity.Free)
		require.NotNil(t, capacity.NextFreeSlot)
		assert.Equal(t, at(2026, 3, 3, 14, 6), *capacity.NextFreeSlot)

		wednesday, err := f.allocator.SlotCapacity(ctx, at(2026, 3, 4, 9, 0))
		require.NoError(t, err)
		assert.False(t, wednesday.Eligible)
		assert.Zero(t, wednesday.Capacity)
		assert.Nil(t, wednesday.NextFreeSlot)
	})

	t.Run("Blocking Keeps Existing Approved Slots", func(t *testing.T) {
		f := newFixture(t, defaultScheduleConfig())
		f.occupy(t, at(2026, 3, 3, 14, 0), 1)
		_, err := f.blocked.AddBlockedDate(ctx, &requests.AddBlockedDate{Date: "2026-03-03", Reason: "cierre", ActorID: "admin"})
		require.NoError(t, err)

		capacity, err := f.allocator.SlotCapacity(ctx, at(2026, 3, 3, 0, 0))
		require.NoError(t, err)
		assert.True(t, capacity.Blocked)
		assert.Equal(t, 1, capacity.Occupied, "approved turno keeps its slot")
		assert.Zero(t, capacity.Free)
	})
}
