package blockeddates

import (
	"context"
	"farmacia-service/internal/app/contracts"
	"farmacia-service/internal/app/models"
	"farmacia-service/internal/app/services/shared/locker"
	"farmacia-service/internal/pkg/constvars"
	"farmacia-service/internal/pkg/dto/requests"
	"farmacia-service/internal/pkg/exceptions"
	"farmacia-service/internal/pkg/utils"
	"time"

	"go.uber.org/zap"
)

type blockedDateUsecase struct {
	BlockedDateRepository contracts.BlockedDateRepository
	Locker                contracts.LockerService
	LockOptions           locker.Options
	Location              *time.Location
	Log                   *zap.Logger
	now                   func() time.Time
}

// NewBlockedDateUsecase manages the days on which no pickups are scheduled.
// Every day is interpreted in loc. Blocking a day takes the same day lock as
// slot reservation.
func NewBlockedDateUsecase(
	repository contracts.BlockedDateRepository,
	lockerService contracts.LockerService,
	lockOptions locker.Options,
	loc *time.Location,
	logger *zap.Logger,
) contracts.BlockedDateUsecase {
	return &blockedDateUsecase{
		BlockedDateRepository: repository,
		Locker:                lockerService,
		LockOptions:           lockOptions,
		Location:              loc,
		Log:                   logger,
		now:                   time.Now,
	}
}

func (uc *blockedDateUsecase) IsBlocked(ctx context.Context, day time.Time) (bool, error) {
	blocked, err := uc.BlockedDateRepository.FindBlockedDate(ctx, utils.StartOfDay(day, uc.Location))
	if err != nil {
		requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
		uc.Log.Error("blockedDateUsecase.IsBlocked error fetching blocked date",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingBlockedDateKey, utils.DayKey(day, uc.Location)),
			zap.Error(err),
		)
		return false, err
	}
	return blocked != nil, nil
}

func (uc *blockedDateUsecase) ListBlockedDates(ctx context.Context) ([]models.BlockedDate, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	uc.Log.Info("blockedDateUsecase.ListBlockedDates called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
	)

	result, err := uc.BlockedDateRepository.FindAllBlockedDates(ctx)
	if err != nil {
		uc.Log.Error("blockedDateUsecase.ListBlockedDates error fetching blocked dates",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, err
	}

	uc.Log.Info("blockedDateUsecase.ListBlockedDates succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.Int(constvars.LoggingBlockedDateCountKey, len(result)),
	)
	return result, nil
}

func (uc *blockedDateUsecase) ListBlockedDatesBetween(ctx context.Context, from, to time.Time) ([]models.BlockedDate, error) {
	from = utils.StartOfDay(from, uc.Location)
	to = utils.StartOfDay(to, uc.Location)
	if to.Before(from) {
		return []models.BlockedDate{}, nil
	}
	return uc.BlockedDateRepository.FindBlockedDatesBetween(ctx, from, to)
}

func (uc *blockedDateUsecase) AddBlockedDate(ctx context.Context, request *requests.AddBlockedDate) (*models.BlockedDate, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	uc.Log.Info("blockedDateUsecase.AddBlockedDate called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingBlockedDateKey, request.Date),
		zap.String(constvars.LoggingActorIDKey, request.ActorID),
	)

	utils.SanitizeAddBlockedDateRequest(request)
	if err := utils.ValidateStruct(request); err != nil {
		return nil, exceptions.ErrInputValidation(err)
	}

	day, err := utils.ParseDay(request.Date, uc.Location)
	if err != nil {
		return nil, exceptions.ErrCannotParseDate(err)
	}

	held, err := locker.AcquireAll(ctx, uc.Locker, uc.Log, uc.LockOptions, utils.SlotDayLockKey(day, uc.Location))
	if err != nil {
		uc.Log.Warn("blockedDateUsecase.AddBlockedDate could not lock day",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingBlockedDateKey, request.Date),
			zap.Error(err),
		)
		return nil, err
	}
	defer held.Release(ctx)

	blockedDate := &models.BlockedDate{
		Date:      day,
		Reason:    request.Reason,
		CreatedBy: request.ActorID,
		CreatedAt: uc.now().UTC(),
	}
	if err := uc.BlockedDateRepository.CreateBlockedDate(ctx, blockedDate); err != nil {
		uc.Log.Error("blockedDateUsecase.AddBlockedDate error creating blocked date",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingBlockedDateKey, blockedDate.DayKey()),
			zap.Error(err),
		)
		return nil, err
	}

	uc.Log.Info("blockedDateUsecase.AddBlockedDate succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingBlockedDateKey, blockedDate.DayKey()),
	)
	return blockedDate, nil
}

func (uc *blockedDateUsecase) RemoveBlockedDate(ctx context.Context, day time.Time) error {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	dayKey := utils.DayKey(day, uc.Location)
	uc.Log.Info("blockedDateUsecase.RemoveBlockedDate called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingBlockedDateKey, dayKey),
	)

	deleted, err := uc.BlockedDateRepository.DeleteBlockedDate(ctx, utils.StartOfDay(day, uc.Location))
	if err != nil {
		uc.Log.Error("blockedDateUsecase.RemoveBlockedDate error deleting blocked date",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return err
	}
	if !deleted {
		return exceptions.ErrBlockedDateNotFound(dayKey)
	}

	uc.Log.Info("blockedDateUsecase.RemoveBlockedDate succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingBlockedDateKey, dayKey),
	)
	return nil
}
