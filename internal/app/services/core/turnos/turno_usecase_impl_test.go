package turnos

import (
	"bytes"
	"context"
	"farmacia-service/internal/app/config"
	"farmacia-service/internal/app/contracts"
	"farmacia-service/internal/app/models"
	"farmacia-service/internal/app/services/core/blockeddates"
	"farmacia-service/internal/app/services/core/inventory"
	"farmacia-service/internal/app/services/core/quota"
	"farmacia-service/internal/app/services/core/slot"
	"farmacia-service/internal/app/services/shared/eventqueue"
	"farmacia-service/internal/app/services/shared/hasher"
	"farmacia-service/internal/app/services/shared/locker"
	"farmacia-service/internal/app/services/shared/memstore"
	"farmacia-service/internal/app/services/shared/storage"
	"farmacia-service/internal/pkg/constvars"
	"farmacia-service/internal/pkg/dto/requests"
	"farmacia-service/internal/pkg/exceptions"
	"fmt"
	"sync"
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

const (
	enalapril = "enalapril-10"
	tiras     = "tiras-reactivas"
)

type fixture struct {
	store     *memstore.Store
	publisher *eventqueue.LogPublisher
	storage   *storage.MemoryStorage
	blocked   *blockedDates
	uc        *turnoUsecase
}

type blockedDates struct {
	add func(day string)
}

// newFixture wires the engine on the memory driver. The clock is fixed on
// Monday 2026-03-02 09:00, so the first eligible slot is Tuesday 14:00.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithRepository(t, nil)
}

func newFixtureWithRepository(t *testing.T, wrap func(*memstore.Store) *flakyTurnoRepository) *fixture {
	t.Helper()
	log := zap.NewNop()

	store := memstore.New()
	store.SeedCatalog(
		models.CatalogItem{Kind: models.LineItemKindMedicamento, ID: enalapril, Stock: 100},
		models.CatalogItem{Kind: models.LineItemKindInsumo, ID: tiras, Stock: 5},
	)

	schedule, err := slot.NewSchedule(config.AppSchedule{
		Weekdays:      []string{"tuesday", "thursday"},
		WindowStart:   "14:00",
		WindowEnd:     "17:00",
		SlotMinutes:   6,
		DailyCapacity: 30,
		HorizonDays:   366,
	}, buenosAires)
	require.NoError(t, err)

	documentHasher, err := hasher.NewDocumentHasher("test-document-key")
	require.NoError(t, err)

	lockerService := locker.NewMemoryLocker()
	lockOptions := locker.Options{TTL: 10 * time.Second, Wait: 2 * time.Second, RetryInterval: 2 * time.Millisecond}
	blockedDateUsecase := blockeddates.NewBlockedDateUsecase(store, lockerService, lockOptions, buenosAires, log)
	publisher := eventqueue.NewLogPublisher(log)
	memoryStorage := storage.NewMemoryStorage()

	internalConfig := &config.InternalConfig{
		Minio: config.AppMinio{
			DocumentBucketName:              "turno-documents",
			DocumentMaxUploadSizeInMB:       1,
			PreSignedUrlExpiryTimeInMinutes: 15,
		},
	}

	var repo contracts.TurnoRepository = store
	if wrap != nil {
		repo = wrap(store)
	}
	uc := NewTurnoUsecase(
		store,
		repo,
		store,
		store,
		slot.NewSlotAllocator(store, blockedDateUsecase, lockerService, lockOptions, schedule, log),
		quota.NewQuotaEnforcer(repo, buenosAires, 2, log),
		inventory.NewInventoryGateway(store, log),
		documentHasher,
		publisher,
		memoryStorage,
		lockerService,
		lockOptions,
		internalConfig,
		log,
	).(*turnoUsecase)
	uc.now = func() time.Time { return time.Date(2026, 3, 2, 9, 0, 0, 0, buenosAires) }

	return &fixture{
		store:     store,
		publisher: publisher,
		storage:   memoryStorage,
		blocked: &blockedDates{add: func(day string) {
			_, err := blockedDateUsecase.AddBlockedDate(context.Background(), &requests.AddBlockedDate{Date: day, Reason: "feriado", ActorID: "admin-1"})
			require.NoError(t, err)
		}},
		uc: uc,
	}
}

func (f *fixture) request(t *testing.T, requesterID string, lines ...requests.TurnoLineItem) *models.Turno {
	t.Helper()
	if len(lines) == 0 {
		lines = []requests.TurnoLineItem{{Kind: "medicamento", CatalogItemID: enalapril, Quantity: 2}}
	}
	turno, err := f.uc.RequestTurno(context.Background(), &requests.CreateTurno{
		RequesterID:            requesterID,
		DocumentIdentification: "30.123.456",
		LineItems:              lines,
	})
	require.NoError(t, err)
	return turno
}

func (f *fixture) approve(t *testing.T, turnoID string) *models.Turno {
	t.Helper()
	turno, err := f.uc.ApproveTurno(context.Background(), &requests.ApproveTurno{TurnoID: turnoID, ReviewerID: "farmaceutico-1"})
	require.NoError(t, err)
	return turno
}

func (f *fixture) stock(kind models.LineItemKind, id string) int {
	stock, _ := f.store.Stock(kind, id)
	return stock
}

func at(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, buenosAires)
}

func TestRequestTurno(t *testing.T) {
	ctx := context.Background()

	t.Run("Creates Pending Turno", func(t *testing.T) {
		f := newFixture(t)
		turno := f.request(t, "paciente-1",
			requests.TurnoLineItem{Kind: "medicamento", CatalogItemID: enalapril, Quantity: 2},
			requests.TurnoLineItem{Kind: "insumo", CatalogItemID: tiras, Quantity: 10},
		)

		assert.Equal(t, models.TurnoStatusPendiente, turno.Status)
		assert.Nil(t, turno.Slot)
		assert.Nil(t, turno.DailyNumber)
		assert.NotEmpty(t, turno.DocumentHash)
		assert.NotContains(t, turno.DocumentHash, "30123456", "document must never be stored in clear")
		require.Len(t, turno.LineItems, 2)
		assert.True(t, turno.LineItems[0].AvailableWhenRequested)
		assert.False(t, turno.LineItems[1].AvailableWhenRequested, "only 5 tiras in stock")
		assert.Nil(t, turno.LineItems[0].ApprovedQuantity)
		assert.Equal(t, 100, f.stock(models.LineItemKindMedicamento, enalapril), "requesting never decrements stock")

		history, err := f.uc.FindTransitionHistory(ctx, turno.ID)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, models.TurnoStatus(""), history[0].FromStatus)
		assert.Equal(t, models.TurnoStatusPendiente, history[0].ToStatus)
	})

	t.Run("Same Document Hashes Identically", func(t *testing.T) {
		f := newFixture(t)
		first := f.request(t, "paciente-1")
		second := f.request(t, "paciente-2")
		assert.Equal(t, first.DocumentHash, second.DocumentHash)
	})

	t.Run("Validation Errors", func(t *testing.T) {
		f := newFixture(t)
		cases := map[string]*requests.CreateTurno{
			"no line items": {RequesterID: "paciente-1", DocumentIdentification: "123"},
			"zero quantity": {RequesterID: "paciente-1", DocumentIdentification: "123", LineItems: []requests.TurnoLineItem{
				{Kind: "medicamento", CatalogItemID: enalapril, Quantity: 0},
			}},
			"missing document": {RequesterID: "paciente-1", LineItems: []requests.TurnoLineItem{
				{Kind: "medicamento", CatalogItemID: enalapril, Quantity: 1},
			}},
			"unknown kind": {RequesterID: "paciente-1", DocumentIdentification: "123", LineItems: []requests.TurnoLineItem{
				{Kind: "cosmetico", CatalogItemID: enalapril, Quantity: 1},
			}},
			"duplicate catalog item": {RequesterID: "paciente-1", DocumentIdentification: "123", LineItems: []requests.TurnoLineItem{
				{Kind: "medicamento", CatalogItemID: enalapril, Quantity: 1},
				{Kind: "medicamento", CatalogItemID: enalapril, Quantity: 2},
			}},
		}
		for name, request := range cases {
			_, err := f.uc.RequestTurno(ctx, request)
			require.Error(t, err, name)
			assert.True(t, exceptions.IsCode(err, exceptions.CodeValidation), name)
		}
	})

	t.Run("Unknown Catalog Item", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.uc.RequestTurno(ctx, &requests.CreateTurno{
			RequesterID:            "paciente-1",
			DocumentIdentification: "123",
			LineItems:              []requests.TurnoLineItem{{Kind: "medicamento", CatalogItemID: "inexistente", Quantity: 1}},
		})
		require.Error(t, err)
		assert.True(t, exceptions.IsCode(err, exceptions.CodeNotFound))
	})
}

func TestQuota(t *testing.T) {
	ctx := context.Background()

	t.Run("Third Request In The Month Is Refused", func(t *testing.T) {
		f := newFixture(t)
		f.request(t, "paciente-1")
		second := f.request(t, "paciente-1")

		_, err := f.uc.RequestTurno(ctx, &requests.CreateTurno{
			RequesterID:            "paciente-1",
			DocumentIdentification: "123",
			LineItems:              []requests.TurnoLineItem{{Kind: "medicamento", CatalogItemID: enalapril, Quantity: 1}},
		})
		require.Error(t, err)
		assert.True(t, exceptions.IsCode(err, exceptions.CodeQuotaExceeded))

		decision, err := f.uc.GetQuota(ctx, "paciente-1")
		require.NoError(t, err)
		assert.False(t, decision.Allowed)
		assert.Equal(t, 2, decision.Used)

		_, err = f.uc.RejectTurno(ctx, &requests.RejectTurno{TurnoID: second.ID, ReviewerID: "farmaceutico-1", Reason: "receta vencida"})
		require.NoError(t, err)

		f.request(t, "paciente-1")
	})

	t.Run("Concurrent Requests Never Exceed The Limit", func(t *testing.T) {
		f := newFixture(t)

		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
			refused   int
		)
		for i := 0; i < 6; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := f.uc.RequestTurno(ctx, &requests.CreateTurno{
					RequesterID:            "paciente-1",
					DocumentIdentification: "123",
					LineItems:              []requests.TurnoLineItem{{Kind: "medicamento", CatalogItemID: enalapril, Quantity: 1}},
				})
				mu.Lock()
				defer mu.Unlock()
				if err == nil {
					succeeded++
				} else if exceptions.IsCode(err, exceptions.CodeQuotaExceeded) {
					refused++
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 2, succeeded)
		assert.Equal(t, 4, refused)
	})

	t.Run("Requester Id Is Required", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.uc.GetQuota(ctx, "")
		assert.True(t, exceptions.IsCode(err, exceptions.CodeValidation))
	})
}

func TestApproveTurno(t *testing.T) {
	ctx := context.Background()

	t.Run("Assigns Slot Number And Decrements Stock", func(t *testing.T) {
		f := newFixture(t)
		turno := f.request(t, "paciente-1",
			requests.TurnoLineItem{Kind: "medicamento", CatalogItemID: enalapril, Quantity: 3},
			requests.TurnoLineItem{Kind: "insumo", CatalogItemID: tiras, Quantity: 2},
		)

		approved := f.approve(t, turno.ID)
		assert.Equal(t, models.TurnoStatusAprobado, approved.Status)
		require.NotNil(t, approved.Slot)
		assert.True(t, at(2026, 3, 3, 14, 0).Equal(*approved.Slot))
		require.NotNil(t, approved.DailyNumber)
		assert.Equal(t, 1, *approved.DailyNumber)
		assert.Equal(t, "farmaceutico-1", approved.ReviewerID)
		assert.NotNil(t, approved.ReviewedAt)
		assert.Equal(t, 3, approved.LineItems[0].ApprovedOrZero(), "defaults to the requested quantity")

		assert.Equal(t, 97, f.stock(models.LineItemKindMedicamento, enalapril))
		assert.Equal(t, 3, f.stock(models.LineItemKindInsumo, tiras))

		approvedEvents := f.publisher.ApprovedEvents()
		require.Len(t, approvedEvents, 1)
		assert.Equal(t, turno.ID, approvedEvents[0].TurnoID)
		assert.Equal(t, 1, approvedEvents[0].DailyNumber)
		assert.Len(t, approvedEvents[0].LineItems, 2)

		statusEvents := f.publisher.StatusChangedEvents()
		require.Len(t, statusEvents, 1)
		assert.Equal(t, models.TurnoStatusPendiente, statusEvents[0].OldStatus)
		assert.Equal(t, models.TurnoStatusAprobado, statusEvents[0].NewStatus)
	})

	t.Run("Partial Quantities", func(t *testing.T) {
		f := newFixture(t)
		turno := f.request(t, "paciente-1",
			requests.TurnoLineItem{Kind: "medicamento", CatalogItemID: enalapril, Quantity: 3},
			requests.TurnoLineItem{Kind: "insumo", CatalogItemID: tiras, Quantity: 2},
		)

		approved, err := f.uc.ApproveTurno(ctx, &requests.ApproveTurno{
			TurnoID:    turno.ID,
			ReviewerID: "farmaceutico-1",
			ApprovedLineItems: []requests.ApprovedLineItem{
				{LineItemID: turno.LineItems[0].ID, Quantity: 1},
				{LineItemID: turno.LineItems[1].ID, Quantity: 0},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, approved.LineItems[0].ApprovedOrZero())
		assert.Equal(t, 0, approved.LineItems[1].ApprovedOrZero())
		assert.Equal(t, 99, f.stock(models.LineItemKindMedicamento, enalapril))
		assert.Equal(t, 5, f.stock(models.LineItemKindInsumo, tiras))
	})

	t.Run("Invalid Quantities Leave Turno Pending", func(t *testing.T) {
		f := newFixture(t)
		turno := f.request(t, "paciente-1")

		_, err := f.uc.ApproveTurno(ctx, &requests.ApproveTurno{
			TurnoID:           turno.ID,
			ReviewerID:        "farmaceutico-1",
			ApprovedLineItems: []requests.ApprovedLineItem{{LineItemID: turno.LineItems[0].ID, Quantity: 3}},
		})
		assert.True(t, exceptions.IsCode(err, exceptions.CodeValidation), "more than requested")

		_, err = f.uc.ApproveTurno(ctx, &requests.ApproveTurno{
			TurnoID:           turno.ID,
			ReviewerID:        "farmaceutico-1",
			ApprovedLineItems: []requests.ApprovedLineItem{{LineItemID: "otra-linea", Quantity: 1}},
		})
		assert.True(t, exceptions.IsCode(err, exceptions.CodeValidation), "unknown line item")

		_, err = f.uc.ApproveTurno(ctx, &requests.ApproveTurno{TurnoID: turno.ID})
		assert.True(t, exceptions.IsCode(err, exceptions.CodeValidation), "reviewer is required")

		current, err := f.uc.FindTurnoByID(ctx, turno.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TurnoStatusPendiente, current.Status)
		assert.Nil(t, current.LineItems[0].ApprovedQuantity)
	})

	t.Run("Insufficient Stock Changes Nothing", func(t *testing.T) {
		f := newFixture(t)
		turno := f.request(t, "paciente-1",
			requests.TurnoLineItem{Kind: "medicamento", CatalogItemID: enalapril, Quantity: 4},
			requests.TurnoLineItem{Kind: "insumo", CatalogItemID: tiras, Quantity: 6},
		)

		_, err := f.uc.ApproveTurno(ctx, &requests.ApproveTurno{TurnoID: turno.ID, ReviewerID: "farmaceutico-1"})
		require.Error(t, err)
		assert.True(t, exceptions.IsCode(err, exceptions.CodeInsufficientStock))

		current, err := f.uc.FindTurnoByID(ctx, turno.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TurnoStatusPendiente, current.Status)
		assert.Nil(t, current.Slot)
		assert.Equal(t, 100, f.stock(models.LineItemKindMedicamento, enalapril))
		assert.Equal(t, 5, f.stock(models.LineItemKindInsumo, tiras))
		assert.Empty(t, f.publisher.ApprovedEvents())

		other := f.request(t, "paciente-2")
		assert.Equal(t, 1, *f.approve(t, other.ID).DailyNumber, "a rolled back approval consumes no number")
	})

	t.Run("Concurrent Approvals Get Distinct Slots And Numbers", func(t *testing.T) {
		f := newFixture(t)
		const count = 8
		ids := make([]string, 0, count)
		for i := 0; i < count; i++ {
			ids = append(ids, f.request(t, fmt.Sprintf("paciente-%d", i)).ID)
		}

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			results []*models.Turno
			errs    []error
		)
		for _, id := range ids {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				turno, err := f.uc.ApproveTurno(ctx, &requests.ApproveTurno{TurnoID: id, ReviewerID: "farmaceutico-1"})
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					errs = append(errs, err)
					return
				}
				results = append(results, turno)
			}(id)
		}
		wg.Wait()

		require.Empty(t, errs)
		require.Len(t, results, count)
		slots := make(map[int64]struct{})
		numbers := make(map[int]struct{})
		for _, turno := range results {
			slots[turno.Slot.Unix()] = struct{}{}
			numbers[*turno.DailyNumber] = struct{}{}
		}
		assert.Len(t, slots, count)
		assert.Len(t, numbers, count)
		assert.Equal(t, 100-2*count, f.stock(models.LineItemKindMedicamento, enalapril))
	})

	t.Run("Blocked Day Is Skipped", func(t *testing.T) {
		f := newFixture(t)
		f.blocked.add("2026-03-03")
		approved := f.approve(t, f.request(t, "paciente-1").ID)
		assert.True(t, at(2026, 3, 5, 14, 0).Equal(*approved.Slot))
	})

	t.Run("Unknown Turno", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.uc.ApproveTurno(ctx, &requests.ApproveTurno{TurnoID: "inexistente", ReviewerID: "farmaceutico-1"})
		assert.True(t, exceptions.IsCode(err, exceptions.CodeNotFound))
	})
}

func TestRejectTurno(t *testing.T) {
	ctx := context.Background()

	t.Run("Rejects Once", func(t *testing.T) {
		f := newFixture(t)
		turno := f.request(t, "paciente-1")

		rejected, err := f.uc.RejectTurno(ctx, &requests.RejectTurno{TurnoID: turno.ID, ReviewerID: "farmaceutico-1", Reason: "receta ilegible"})
		require.NoError(t, err)
		assert.Equal(t, models.TurnoStatusRechazado, rejected.Status)
		assert.Equal(t, "receta ilegible", rejected.ReviewerNotes)
		assert.Equal(t, 0, rejected.LineItems[0].ApprovedOrZero())
		require.NotNil(t, rejected.LineItems[0].ApprovedQuantity)

		eventsBefore := len(f.publisher.StatusChangedEvents())
		_, err = f.uc.RejectTurno(ctx, &requests.RejectTurno{TurnoID: turno.ID, ReviewerID: "farmaceutico-1", Reason: "otra vez"})
		require.Error(t, err)
		assert.True(t, exceptions.IsCode(err, exceptions.CodeInvalidTransition))
		assert.Len(t, f.publisher.StatusChangedEvents(), eventsBefore, "failed transitions emit nothing")

		current, err := f.uc.FindTurnoByID(ctx, turno.ID)
		require.NoError(t, err)
		assert.Equal(t, "receta ilegible", current.ReviewerNotes)
	})

	t.Run("Reason Is Required", func(t *testing.T) {
		f := newFixture(t)
		turno := f.request(t, "paciente-1")
		_, err := f.uc.RejectTurno(ctx, &requests.RejectTurno{TurnoID: turno.ID, ReviewerID: "farmaceutico-1", Reason: "   "})
		assert.True(t, exceptions.IsCode(err, exceptions.CodeValidation))
	})

	t.Run("Approved Turno Cannot Be Rejected", func(t *testing.T) {
		f := newFixture(t)
		turno := f.approve(t, f.request(t, "paciente-1").ID)
		_, err := f.uc.RejectTurno(ctx, &requests.RejectTurno{TurnoID: turno.ID, ReviewerID: "farmaceutico-1", Reason: "tarde"})
		assert.True(t, exceptions.IsCode(err, exceptions.CodeInvalidTransition))
	})
}

func TestCancelTurno(t *testing.T) {
	ctx := context.Background()

	t.Run("Cancelling Approved Turno Restores Stock And Keeps Number Consumed", func(t *testing.T) {
		f := newFixture(t)
		first := f.approve(t, f.request(t, "paciente-1",
			requests.TurnoLineItem{Kind: "medicamento", CatalogItemID: enalapril, Quantity: 7},
		).ID)
		assert.Equal(t, 93, f.stock(models.LineItemKindMedicamento, enalapril))

		cancelled, err := f.uc.CancelTurno(ctx, &requests.CancelTurno{TurnoID: first.ID, ActorID: "paciente-1", ActorRole: constvars.RolePatient})
		require.NoError(t, err)
		assert.Equal(t, models.TurnoStatusCancelado, cancelled.Status)
		assert.Nil(t, cancelled.Slot)
		assert.Nil(t, cancelled.DailyNumber)
		assert.Equal(t, 100, f.stock(models.LineItemKindMedicamento, enalapril))

		second := f.approve(t, f.request(t, "paciente-2").ID)
		assert.True(t, first.Slot.Equal(*second.Slot), "the slot is free again")
		assert.Equal(t, 2, *second.DailyNumber, "the number is never reused")

		_, err = f.uc.CancelTurno(ctx, &requests.CancelTurno{TurnoID: first.ID, ActorID: "paciente-1"})
		assert.True(t, exceptions.IsCode(err, exceptions.CodeInvalidTransition))
		assert.Equal(t, 98, f.stock(models.LineItemKindMedicamento, enalapril), "second cancel credits nothing")
	})

	t.Run("Only Requester Or Admin", func(t *testing.T) {
		f := newFixture(t)
		turno := f.request(t, "paciente-1")

		_, err := f.uc.CancelTurno(ctx, &requests.CancelTurno{TurnoID: turno.ID, ActorID: "paciente-2", ActorRole: constvars.RolePatient})
		assert.True(t, exceptions.IsCode(err, exceptions.CodeForbidden))

		cancelled, err := f.uc.CancelTurno(ctx, &requests.CancelTurno{TurnoID: turno.ID, ActorID: "admin-1", ActorRole: constvars.RoleAdmin})
		require.NoError(t, err)
		assert.Equal(t, models.TurnoStatusCancelado, cancelled.Status)
	})

	t.Run("Not After The Slot", func(t *testing.T) {
		f := newFixture(t)
		turno := f.approve(t, f.request(t, "paciente-1").ID)

		f.uc.now = func() time.Time { return turno.Slot.Add(time.Minute) }
		_, err := f.uc.CancelTurno(ctx, &requests.CancelTurno{TurnoID: turno.ID, ActorID: "paciente-1"})
		assert.True(t, exceptions.IsCode(err, exceptions.CodeInvalidTransition))
		assert.Equal(t, 98, f.stock(models.LineItemKindMedicamento, enalapril))
	})
}

func TestCompleteAndTicket(t *testing.T) {
	ctx := context.Background()

	t.Run("Complete Requires Approval", func(t *testing.T) {
		f := newFixture(t)
		turno := f.request(t, "paciente-1")

		_, err := f.uc.CompleteTurno(ctx, &requests.CompleteTurno{TurnoID: turno.ID})
		assert.True(t, exceptions.IsCode(err, exceptions.CodeInvalidTransition))

		f.approve(t, turno.ID)
		completed, err := f.uc.CompleteTurno(ctx, &requests.CompleteTurno{TurnoID: turno.ID, ActorID: "farmaceutico-1"})
		require.NoError(t, err)
		assert.Equal(t, models.TurnoStatusCompletado, completed.Status)
		assert.NotNil(t, completed.DeliveredAt)
		assert.NotNil(t, completed.Slot, "completed turnos keep their slot")

		_, err = f.uc.CancelTurno(ctx, &requests.CancelTurno{TurnoID: turno.ID, ActorID: "paciente-1"})
		assert.True(t, exceptions.IsCode(err, exceptions.CodeInvalidTransition))

		history, err := f.uc.FindTransitionHistory(ctx, turno.ID)
		require.NoError(t, err)
		require.Len(t, history, 3)
		assert.Equal(t, models.TurnoStatusCompletado, history[2].ToStatus)
	})

	t.Run("Ticket Reference Only For Approved Turnos", func(t *testing.T) {
		f := newFixture(t)
		turno := f.request(t, "paciente-1")

		_, err := f.uc.SetTicketReference(ctx, &requests.SetTicketReference{TurnoID: turno.ID, TicketReference: "tickets/1.pdf"})
		assert.True(t, exceptions.IsCode(err, exceptions.CodeInvalidTransition))

		f.approve(t, turno.ID)
		updated, err := f.uc.SetTicketReference(ctx, &requests.SetTicketReference{TurnoID: turno.ID, TicketReference: "tickets/1.pdf"})
		require.NoError(t, err)
		assert.Equal(t, "tickets/1.pdf", updated.TicketReference)
		assert.Equal(t, models.TurnoStatusAprobado, updated.Status)
	})
}

func TestDocuments(t *testing.T) {
	ctx := context.Background()

	t.Run("Attach And List", func(t *testing.T) {
		f := newFixture(t)
		turno := f.request(t, "paciente-1")
		content := []byte("%PDF-1.4 receta")

		document, err := f.uc.AttachDocument(ctx, &requests.AttachDocument{
			TurnoID:     turno.ID,
			ActorID:     "paciente-1",
			ActorRole:   constvars.RolePatient,
			Category:    "receta",
			FileName:    "receta.pdf",
			ContentType: "application/pdf",
			Size:        int64(len(content)),
			File:        bytes.NewReader(content),
		})
		require.NoError(t, err)
		assert.Equal(t, "receta", document.Category)
		assert.Contains(t, document.DownloadURL, "memory://turno-documents/")

		documents, err := f.uc.ListDocuments(ctx, turno.ID)
		require.NoError(t, err)
		require.Len(t, documents, 1)
		assert.Equal(t, document.ID, documents[0].ID)
	})

	t.Run("Stranger Cannot Attach", func(t *testing.T) {
		f := newFixture(t)
		turno := f.request(t, "paciente-1")
		_, err := f.uc.AttachDocument(ctx, &requests.AttachDocument{
			TurnoID:  turno.ID,
			ActorID:  "paciente-2",
			Category: "dni",
			FileName: "dni.jpg",
			Size:     3,
			File:     bytes.NewReader([]byte("abc")),
		})
		assert.True(t, exceptions.IsCode(err, exceptions.CodeForbidden))
	})

	t.Run("Oversized Document", func(t *testing.T) {
		f := newFixture(t)
		turno := f.request(t, "paciente-1")
		_, err := f.uc.AttachDocument(ctx, &requests.AttachDocument{
			TurnoID:  turno.ID,
			ActorID:  "paciente-1",
			Category: "dni",
			FileName: "dni.jpg",
			Size:     2 << 20,
			File:     bytes.NewReader([]byte("abc")),
		})
		assert.True(t, exceptions.IsCode(err, exceptions.CodeValidation))
	})

	t.Run("Unknown Turno", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.uc.ListDocuments(ctx, "inexistente")
		assert.True(t, exceptions.IsCode(err, exceptions.CodeNotFound))
	})
}

func TestGetAvailability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	slotTime, err := f.uc.GetAvailability(ctx, time.Time{})
	require.NoError(t, err)
	assert.True(t, at(2026, 3, 3, 14, 0).Equal(slotTime))

	slotTime, err = f.uc.GetAvailability(ctx, at(2026, 3, 3, 16, 57))
	require.NoError(t, err)
	assert.True(t, at(2026, 3, 5, 14, 0).Equal(slotTime), "no slot starts at or after 16:57 on Tuesday")
}

func TestListTurnos(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.request(t, "paciente-1")
	f.request(t, "paciente-2")
	f.approve(t, first.ID)

	turnos, total, err := f.uc.ListTurnos(ctx, &requests.ListTurnos{RequesterID: "paciente-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, first.ID, turnos[0].ID)

	turnos, total, err = f.uc.ListTurnos(ctx, &requests.ListTurnos{Status: "pendiente"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "paciente-2", turnos[0].RequesterID)

	_, _, err = f.uc.ListTurnos(ctx, &requests.ListTurnos{Status: "perdido"})
	assert.True(t, exceptions.IsCode(err, exceptions.CodeValidation))
}

// flakyTurnoRepository fails the first UpdateTurno calls with a concurrency
// conflict, the way a unique index violation surfaces from postgres. It also
// counts lookups.
type flakyTurnoRepository struct {
	*memstore.Store
	mu       sync.Mutex
	failures int
	lookups  int
}

func (r *flakyTurnoRepository) FindTurnoByID(ctx context.Context, turnoID string) (*models.Turno, error) {
	r.mu.Lock()
	r.lookups++
	r.mu.Unlock()
	return r.Store.FindTurnoByID(ctx, turnoID)
}

func (r *flakyTurnoRepository) UpdateTurno(ctx context.Context, turno *models.Turno) error {
	r.mu.Lock()
	if r.failures > 0 {
		r.failures--
		r.mu.Unlock()
		return exceptions.ErrConcurrencyConflict(nil, "turnos_active_slot_uidx")
	}
	r.mu.Unlock()
	return r.Store.UpdateTurno(ctx, turno)
}

func TestConcurrencyConflictRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("Retries Once", func(t *testing.T) {
		var repo *flakyTurnoRepository
		f := newFixtureWithRepository(t, func(store *memstore.Store) *flakyTurnoRepository {
			repo = &flakyTurnoRepository{Store: store}
			return repo
		})
		turno := f.request(t, "paciente-1")

		repo.failures = 1
		approved := f.approve(t, turno.ID)
		assert.Equal(t, 1, *approved.DailyNumber, "the failed attempt was rolled back")
		assert.Equal(t, 98, f.stock(models.LineItemKindMedicamento, enalapril))
	})

	t.Run("Gives Up After The Retry", func(t *testing.T) {
		var repo *flakyTurnoRepository
		f := newFixtureWithRepository(t, func(store *memstore.Store) *flakyTurnoRepository {
			repo = &flakyTurnoRepository{Store: store}
			return repo
		})
		turno := f.request(t, "paciente-1")

		repo.failures = 2
		_, err := f.uc.ApproveTurno(ctx, &requests.ApproveTurno{TurnoID: turno.ID, ReviewerID: "farmaceutico-1"})
		require.Error(t, err)
		assert.True(t, exceptions.IsCode(err, exceptions.CodeConcurrencyConflict))

		current, err := f.uc.FindTurnoByID(ctx, turno.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TurnoStatusPendiente, current.Status)
		assert.Equal(t, 100, f.stock(models.LineItemKindMedicamento, enalapril))
	})
}

func TestMalformedTurnoID(t *testing.T) {
	ctx := context.Background()
	var repo *flakyTurnoRepository
	f := newFixtureWithRepository(t, func(store *memstore.Store) *flakyTurnoRepository {
		repo = &flakyTurnoRepository{Store: store}
		return repo
	})

	_, err := f.uc.FindTurnoByID(ctx, "not-a-uuid")
	assert.True(t, exceptions.IsCode(err, exceptions.CodeNotFound))

	_, err = f.uc.ApproveTurno(ctx, &requests.ApproveTurno{TurnoID: "not-a-uuid", ReviewerID: "farmaceutico-1"})
	assert.True(t, exceptions.IsCode(err, exceptions.CodeNotFound))

	_, err = f.uc.CancelTurno(ctx, &requests.CancelTurno{TurnoID: "not-a-uuid", ActorID: "paciente-1", ActorRole: constvars.RolePatient})
	assert.True(t, exceptions.IsCode(err, exceptions.CodeNotFound))

	_, err = f.uc.ListDocuments(ctx, "not-a-uuid")
	assert.True(t, exceptions.IsCode(err, exceptions.CodeNotFound))

	assert.Zero(t, repo.lookups, "malformed ids must not reach the repository")
}

// failingDocumentRepository rejects every insert and remembers the object it
// was asked to link.
type failingDocumentRepository struct {
	*memstore.Store
	objectName string
}

func (r *failingDocumentRepository) CreateDocument(_ context.Context, document *models.TurnoDocument) error {
	r.objectName = document.ObjectName
	return exceptions.ErrPostgresDBInsertData(fmt.Errorf("connection reset"))
}

func TestAttachDocumentCleanup(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	turno := f.request(t, "paciente-1")
	documents := &failingDocumentRepository{Store: f.store}
	f.uc.TurnoDocumentRepository = documents

	content := []byte("%PDF-1.4 receta")
	_, err := f.uc.AttachDocument(ctx, &requests.AttachDocument{
		TurnoID:     turno.ID,
		ActorID:     "paciente-1",
		ActorRole:   constvars.RolePatient,
		Category:    "receta",
		FileName:    "receta.pdf",
		ContentType: "application/pdf",
		Size:        int64(len(content)),
		File:        bytes.NewReader(content),
	})
	require.Error(t, err)
	require.NotEmpty(t, documents.objectName)

	_, stored := f.storage.Object("turno-documents", documents.objectName)
	assert.False(t, stored, "the uploaded object should be removed when the insert fails")
}
