package slot

import (
	"context"
	"farmacia-service/internal/app/contracts"
	"farmacia-service/internal/app/models"
	"farmacia-service/internal/app/services/shared/locker"
	"farmacia-service/internal/pkg/constvars"
	"farmacia-service/internal/pkg/exceptions"
	"farmacia-service/internal/pkg/utils"
	"time"

	"go.uber.org/zap"
)

type slotAllocator struct {
	SlotRepository     contracts.SlotRepository
	BlockedDateUsecase contracts.BlockedDateUsecase
	Locker             contracts.LockerService
	LockOptions        locker.Options
	Schedule           *Schedule
	Log                *zap.Logger
}

func NewSlotAllocator(
	slotRepository contracts.SlotRepository,
	blockedDateUsecase contracts.BlockedDateUsecase,
	lockerService contracts.LockerService,
	lockOptions locker.Options,
	schedule *Schedule,
	logger *zap.Logger,
) contracts.SlotAllocator {
	return &slotAllocator{
		SlotRepository:     slotRepository,
		BlockedDateUsecase: blockedDateUsecase,
		Locker:             lockerService,
		LockOptions:        lockOptions,
		Schedule:           schedule,
		Log:                logger,
	}
}

// dayState is what the allocator knows about one calendar day.
type dayState struct {
	blocked  bool
	occupied map[int64]struct{}
}

func (uc *slotAllocator) NextAvailableSlot(ctx context.Context, after time.Time) (time.Time, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	uc.Log.Info("slotAllocator.NextAvailableSlot called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.Time(constvars.LoggingSlotKey, after),
	)

	firstDay := uc.Schedule.dayAt(after, 0)
	slot, _, err := uc.search(ctx, after, firstDay, uc.Schedule.dayAt(firstDay, uc.Schedule.horizonDays))
	if err != nil {
		uc.Log.Info("slotAllocator.NextAvailableSlot found no slot",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return time.Time{}, err
	}

	uc.Log.Info("slotAllocator.NextAvailableSlot succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.Time(constvars.LoggingSlotKey, slot),
	)
	return slot, nil
}

// search walks [fromDay, untilDay) and returns the first free slot not
// earlier than after, together with its day.
func (uc *slotAllocator) search(ctx context.Context, after, fromDay, untilDay time.Time) (time.Time, time.Time, error) {
	if !fromDay.Before(untilDay) {
		return time.Time{}, time.Time{}, exceptions.ErrTurnoNoCapacityFound(uc.Schedule.horizonDays)
	}

	blockedDates, err := uc.BlockedDateUsecase.ListBlockedDatesBetween(ctx, fromDay, uc.Schedule.dayAt(untilDay, -1))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	blocked := make(map[string]struct{}, len(blockedDates))
	for _, b := range blockedDates {
		blocked[b.DayKey()] = struct{}{}
	}

	occupiedSlots, err := uc.SlotRepository.FindOccupiedSlots(ctx, fromDay, untilDay)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	occupied := groupSlotsByLocalDay(occupiedSlots, uc.Schedule.loc)

	for day := fromDay; day.Before(untilDay); day = uc.Schedule.dayAt(day, 1) {
		if err := ctx.Err(); err != nil {
			return time.Time{}, time.Time{}, exceptions.ErrServerDeadlineExceeded(err)
		}
		key := day.Format(constvars.DateLayout)
		_, isBlocked := blocked[key]
		if slot, ok := uc.freeSlotOn(day, after, dayState{blocked: isBlocked, occupied: occupied[key]}); ok {
			return slot, day, nil
		}
	}
	return time.Time{}, time.Time{}, exceptions.ErrTurnoNoCapacityFound(uc.Schedule.horizonDays)
}

// freeSlotOn returns the earliest unoccupied slot of day not earlier than
// after. Blocked days, ineligible weekdays and days at capacity have none.
func (uc *slotAllocator) freeSlotOn(day, after time.Time, state dayState) (time.Time, bool) {
	if state.blocked {
		return time.Time{}, false
	}
	candidates := uc.Schedule.slotsOn(day)
	if len(candidates) == 0 {
		return time.Time{}, false
	}
	if len(state.occupied) >= uc.Schedule.capacityOn(day) {
		return time.Time{}, false
	}
	for _, c := range candidates {
		if c.Start.Before(after) {
			continue
		}
		if _, taken := state.occupied[c.Start.Unix()]; taken {
			continue
		}
		return c.Start, true
	}
	return time.Time{}, false
}

// loadDay reads the state of a single day, used for re-checks under the day lock.
func (uc *slotAllocator) loadDay(ctx context.Context, day time.Time) (dayState, error) {
	isBlocked, err := uc.BlockedDateUsecase.IsBlocked(ctx, day)
	if err != nil {
		return dayState{}, err
	}
	slots, err := uc.SlotRepository.FindOccupiedSlots(ctx, day, uc.Schedule.dayAt(day, 1))
	if err != nil {
		return dayState{}, err
	}
	occupied := make(map[int64]struct{}, len(slots))
	for _, s := range slots {
		occupied[s.Unix()] = struct{}{}
	}
	return dayState{blocked: isBlocked, occupied: occupied}, nil
}

func (uc *slotAllocator) ReserveSlot(ctx context.Context, after time.Time) (*models.SlotReservation, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	uc.Log.Info("slotAllocator.ReserveSlot called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.Time(constvars.LoggingSlotKey, after),
	)

	firstDay := uc.Schedule.dayAt(after, 0)
	untilDay := uc.Schedule.dayAt(firstDay, uc.Schedule.horizonDays)
	fromDay := firstDay

	for fromDay.Before(untilDay) {
		_, day, err := uc.search(ctx, after, fromDay, untilDay)
		if err != nil {
			return nil, err
		}

		dayKey := utils.SlotDayLockKey(day, uc.Schedule.loc)
		held, err := locker.AcquireAll(ctx, uc.Locker, uc.Log, uc.LockOptions, dayKey)
		if err != nil {
			uc.Log.Warn("slotAllocator.ReserveSlot could not lock day",
				zap.String(constvars.LoggingRequestIDKey, requestID),
				zap.String(constvars.LoggingSlotDayKey, dayKey),
				zap.Error(err),
			)
			return nil, err
		}

		state, err := uc.loadDay(ctx, day)
		if err != nil {
			held.Release(ctx)
			return nil, err
		}
		if slot, ok := uc.freeSlotOn(day, after, state); ok {
			uc.Log.Info("slotAllocator.ReserveSlot succeeded",
				zap.String(constvars.LoggingRequestIDKey, requestID),
				zap.Time(constvars.LoggingSlotKey, slot),
			)
			return &models.SlotReservation{
				Slot:    slot,
				Day:     day,
				Release: func() { held.Release(ctx) },
			}, nil
		}

		// The day filled up between the search and the lock.
		held.Release(ctx)
		fromDay = uc.Schedule.dayAt(day, 1)
	}
	return nil, exceptions.ErrTurnoNoCapacityFound(uc.Schedule.horizonDays)
}

func (uc *slotAllocator) DailySlotNumber(ctx context.Context, day time.Time) (int, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)

	number, err := uc.SlotRepository.NextDailyNumber(ctx, uc.Schedule.dayAt(day, 0))
	if err != nil {
		uc.Log.Error("slotAllocator.DailySlotNumber error calling SlotRepository.NextDailyNumber",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return 0, err
	}

	uc.Log.Info("slotAllocator.DailySlotNumber succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingSlotDayKey, uc.Schedule.dayAt(day, 0).Format(constvars.DateLayout)),
		zap.Int(constvars.LoggingDailyNumberKey, number),
	)
	return number, nil
}

func (uc *slotAllocator) SlotCapacity(ctx context.Context, day time.Time) (*models.SlotCapacity, error) {
	day = uc.Schedule.dayAt(day, 0)
	state, err := uc.loadDay(ctx, day)
	if err != nil {
		return nil, err
	}

	eligible := len(uc.Schedule.slotsOn(day)) > 0
	capacity := 0
	if eligible && !state.blocked {
		capacity = uc.Schedule.capacityOn(day)
	}
	free := capacity - len(state.occupied)
	if free < 0 {
		free = 0
	}

	result := &models.SlotCapacity{
		Date:     day.Format(constvars.DateLayout),
		Eligible: eligible,
		Blocked:  state.blocked,
		Capacity: capacity,
		Occupied: len(state.occupied),
		Free:     free,
	}
	if slot, ok := uc.freeSlotOn(day, day, state); ok {
		result.NextFreeSlot = &slot
	}
	return result, nil
}
