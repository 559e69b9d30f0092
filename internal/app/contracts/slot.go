package contracts

import (
	"context"
	"farmacia-service/internal/app/models"
	"time"
)

type SlotRepository interface {
	// FindOccupiedSlots returns the slot timestamps held by approved or
	// completed turnos within [from, to).
	FindOccupiedSlots(ctx context.Context, from, to time.Time) ([]time.Time, error)
	// NextDailyNumber consumes and returns the next ticket number of day.
	NextDailyNumber(ctx context.Context, day time.Time) (int, error)
}

type SlotAllocator interface {
	NextAvailableSlot(ctx context.Context, after time.Time) (time.Time, error)
	// ReserveSlot finds the next free slot and keeps its day locked until the
	// reservation is released.
	ReserveSlot(ctx context.Context, after time.Time) (*models.SlotReservation, error)
	DailySlotNumber(ctx context.Context, day time.Time) (int, error)
	SlotCapacity(ctx context.Context, day time.Time) (*models.SlotCapacity, error)
}
