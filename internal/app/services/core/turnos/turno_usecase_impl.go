package turnos

import (
	"context"
	"farmacia-service/internal/app/config"
	"farmacia-service/internal/app/contracts"
	"farmacia-service/internal/app/models"
	"farmacia-service/internal/app/services/shared/locker"
	"farmacia-service/internal/pkg/constvars"
	"farmacia-service/internal/pkg/dto/requests"
	"farmacia-service/internal/pkg/exceptions"
	"farmacia-service/internal/pkg/utils"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type turnoUsecase struct {
	Transactor              contracts.Transactor
	TurnoRepository         contracts.TurnoRepository
	TurnoDocumentRepository contracts.TurnoDocumentRepository
	TransitionLogRepository contracts.TransitionLogRepository
	SlotAllocator           contracts.SlotAllocator
	QuotaEnforcer           contracts.QuotaEnforcer
	InventoryGateway        contracts.InventoryGateway
	DocumentHasher          contracts.DocumentHasher
	EventPublisher          contracts.TurnoEventPublisher
	Storage                 contracts.Storage
	Locker                  contracts.LockerService
	LockOptions             locker.Options
	InternalConfig          *config.InternalConfig
	Log                     *zap.Logger
	now                     func() time.Time
}

func NewTurnoUsecase(
	transactor contracts.Transactor,
	turnoRepository contracts.TurnoRepository,
	turnoDocumentRepository contracts.TurnoDocumentRepository,
	transitionLogRepository contracts.TransitionLogRepository,
	slotAllocator contracts.SlotAllocator,
	quotaEnforcer contracts.QuotaEnforcer,
	inventoryGateway contracts.InventoryGateway,
	documentHasher contracts.DocumentHasher,
	eventPublisher contracts.TurnoEventPublisher,
	storage contracts.Storage,
	lockerService contracts.LockerService,
	lockOptions locker.Options,
	internalConfig *config.InternalConfig,
	logger *zap.Logger,
) contracts.TurnoUsecase {
	return &turnoUsecase{
		Transactor:              transactor,
		TurnoRepository:         turnoRepository,
		TurnoDocumentRepository: turnoDocumentRepository,
		TransitionLogRepository: transitionLogRepository,
		SlotAllocator:           slotAllocator,
		QuotaEnforcer:           quotaEnforcer,
		InventoryGateway:        inventoryGateway,
		DocumentHasher:          documentHasher,
		EventPublisher:          eventPublisher,
		Storage:                 storage,
		Locker:                  lockerService,
		LockOptions:             lockOptions,
		InternalConfig:          internalConfig,
		Log:                     logger,
		now:                     time.Now,
	}
}

func (uc *turnoUsecase) RequestTurno(ctx context.Context, request *requests.CreateTurno) (*models.Turno, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	uc.Log.Info("turnoUsecase.RequestTurno called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingRequesterIDKey, request.RequesterID),
		zap.Int(constvars.LoggingLineItemCountKey, len(request.LineItems)),
	)

	utils.SanitizeCreateTurnoRequest(request)
	if err := utils.ValidateStruct(request); err != nil {
		uc.Log.Error("turnoUsecase.RequestTurno error validating request",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, exceptions.ErrInputValidation(err)
	}
	if err := validateDistinctLineItems(request.LineItems); err != nil {
		return nil, err
	}

	documentHash, err := uc.DocumentHasher.Hash(request.DocumentIdentification)
	if err != nil {
		uc.Log.Error("turnoUsecase.RequestTurno error hashing document identification",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, err
	}

	now := uc.now()
	turno := &models.Turno{
		ID:             uuid.NewString(),
		RequesterID:    request.RequesterID,
		DocumentHash:   documentHash,
		RequestedAt:    now,
		Status:         models.TurnoStatusPendiente,
		RequesterNotes: request.Notes,
		UpdatedAt:      now,
	}
	for _, item := range request.LineItems {
		turno.LineItems = append(turno.LineItems, models.TurnoLineItem{
			ID:                uuid.NewString(),
			TurnoID:           turno.ID,
			Kind:              models.LineItemKind(item.Kind),
			CatalogItemID:     item.CatalogItemID,
			RequestedQuantity: item.Quantity,
		})
	}

	err = uc.withRetry(ctx, "RequestTurno", func() error {
		held, err := locker.AcquireAll(ctx, uc.Locker, uc.Log, uc.LockOptions, uc.QuotaEnforcer.LockKey(request.RequesterID))
		if err != nil {
			return err
		}
		defer held.Release(ctx)

		return uc.Transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
			decision, err := uc.QuotaEnforcer.CanRequest(txCtx, request.RequesterID, now)
			if err != nil {
				return err
			}
			if !decision.Allowed {
				return exceptions.ErrTurnoQuotaExceeded(decision.Used, decision.Limit)
			}
			if err := uc.InventoryGateway.Snapshot(txCtx, turno.LineItems); err != nil {
				return err
			}
			return uc.TurnoRepository.CreateTurno(txCtx, turno)
		})
	})
	if err != nil {
		uc.Log.Error("turnoUsecase.RequestTurno error creating turno",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingRequesterIDKey, request.RequesterID),
			zap.Error(err),
		)
		return nil, err
	}

	uc.recordTransition(ctx, turno, "", request.RequesterID, request.Notes)

	uc.Log.Info("turnoUsecase.RequestTurno succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingTurnoIDKey, turno.ID),
	)
	return turno, nil
}

func (uc *turnoUsecase) ApproveTurno(ctx context.Context, request *requests.ApproveTurno) (*models.Turno, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	uc.Log.Info("turnoUsecase.ApproveTurno called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingTurnoIDKey, request.TurnoID),
		zap.String(constvars.LoggingReviewerIDKey, request.ReviewerID),
	)

	utils.SanitizeApproveTurnoRequest(request)
	if err := utils.ValidateStruct(request); err != nil {
		return nil, exceptions.ErrInputValidation(err)
	}

	var approved *models.Turno
	err := uc.withRetry(ctx, "ApproveTurno", func() error {
		release, _, err := uc.lockTurno(ctx, request.TurnoID, true)
		if err != nil {
			return err
		}
		defer release()

		var reservation *models.SlotReservation
		defer func() {
			if reservation != nil {
				reservation.Release()
			}
		}()

		return uc.Transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
			turno, err := uc.loadForTransition(txCtx, request.TurnoID, models.TurnoStatusAprobado, models.TurnoStatusPendiente)
			if err != nil {
				return err
			}
			if err := applyApprovedQuantities(turno, request.ApprovedLineItems); err != nil {
				return err
			}
			if err := uc.InventoryGateway.Commit(txCtx, turno.LineItems); err != nil {
				return err
			}

			now := uc.now()
			reservation, err = uc.SlotAllocator.ReserveSlot(txCtx, now)
			if err != nil {
				return err
			}
			number, err := uc.SlotAllocator.DailySlotNumber(txCtx, reservation.Day)
			if err != nil {
				return err
			}

			slot := reservation.Slot
			turno.Slot = &slot
			turno.DailyNumber = &number
			turno.Status = models.TurnoStatusAprobado
			turno.ReviewerID = request.ReviewerID
			turno.ReviewerNotes = request.Comments
			turno.ReviewedAt = &now
			turno.UpdatedAt = now
			if err := uc.TurnoRepository.UpdateTurno(txCtx, turno); err != nil {
				return err
			}
			approved = turno
			return nil
		})
	})
	if err != nil {
		uc.Log.Error("turnoUsecase.ApproveTurno error approving turno",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingTurnoIDKey, request.TurnoID),
			zap.Error(err),
		)
		return nil, err
	}

	uc.afterTransition(ctx, approved, models.TurnoStatusPendiente, request.ReviewerID, request.Comments)
	uc.publishApproved(ctx, approved)

	uc.Log.Info("turnoUsecase.ApproveTurno succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingTurnoIDKey, approved.ID),
		zap.Time(constvars.LoggingSlotKey, *approved.Slot),
		zap.Int(constvars.LoggingDailyNumberKey, *approved.DailyNumber),
	)
	return approved, nil
}

func (uc *turnoUsecase) RejectTurno(ctx context.Context, request *requests.RejectTurno) (*models.Turno, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	uc.Log.Info("turnoUsecase.RejectTurno called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingTurnoIDKey, request.TurnoID),
		zap.String(constvars.LoggingReviewerIDKey, request.ReviewerID),
	)

	utils.SanitizeRejectTurnoRequest(request)
	if err := utils.ValidateStruct(request); err != nil {
		return nil, exceptions.ErrInputValidation(err)
	}

	var rejected *models.Turno
	err := uc.withRetry(ctx, "RejectTurno", func() error {
		release, _, err := uc.lockTurno(ctx, request.TurnoID, false)
		if err != nil {
			return err
		}
		defer release()

		return uc.Transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
			turno, err := uc.loadForTransition(txCtx, request.TurnoID, models.TurnoStatusRechazado, models.TurnoStatusPendiente)
			if err != nil {
				return err
			}

			now := uc.now()
			zeroApprovedQuantities(turno)
			turno.Status = models.TurnoStatusRechazado
			turno.ReviewerID = request.ReviewerID
			turno.ReviewerNotes = request.Reason
			turno.ReviewedAt = &now
			turno.UpdatedAt = now
			if err := uc.TurnoRepository.UpdateTurno(txCtx, turno); err != nil {
				return err
			}
			rejected = turno
			return nil
		})
	})
	if err != nil {
		uc.Log.Error("turnoUsecase.RejectTurno error rejecting turno",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingTurnoIDKey, request.TurnoID),
			zap.Error(err),
		)
		return nil, err
	}

	uc.afterTransition(ctx, rejected, models.TurnoStatusPendiente, request.ReviewerID, request.Reason)

	uc.Log.Info("turnoUsecase.RejectTurno succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingTurnoIDKey, rejected.ID),
	)
	return rejected, nil
}

func (uc *turnoUsecase) CancelTurno(ctx context.Context, request *requests.CancelTurno) (*models.Turno, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	uc.Log.Info("turnoUsecase.CancelTurno called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingTurnoIDKey, request.TurnoID),
		zap.String(constvars.LoggingActorIDKey, request.ActorID),
		zap.String(constvars.LoggingActorRoleKey, request.ActorRole),
	)

	request.Reason = utils.SanitizeText(request.Reason)
	if err := utils.ValidateStruct(request); err != nil {
		return nil, exceptions.ErrInputValidation(err)
	}

	var (
		cancelled *models.Turno
		oldStatus models.TurnoStatus
	)
	err := uc.withRetry(ctx, "CancelTurno", func() error {
		release, _, err := uc.lockTurno(ctx, request.TurnoID, true)
		if err != nil {
			return err
		}
		defer release()

		return uc.Transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
			turno, err := uc.TurnoRepository.FindTurnoByID(txCtx, request.TurnoID)
			if err != nil {
				return err
			}
			if turno == nil {
				return exceptions.ErrTurnoNotFound(nil, request.TurnoID)
			}
			if !turno.IsOwnedBy(request.ActorID) && request.ActorRole != constvars.RoleAdmin {
				return exceptions.ErrTurnoForbidden(request.ActorID, request.TurnoID)
			}

			now := uc.now()
			oldStatus = turno.Status
			switch turno.Status {
			case models.TurnoStatusPendiente:
				zeroApprovedQuantities(turno)
			case models.TurnoStatusAprobado:
				if turno.Slot != nil && !now.Before(*turno.Slot) {
					return exceptions.ErrTurnoSlotAlreadyPassed(turno.ID)
				}
				if err := uc.InventoryGateway.Release(txCtx, turno.LineItems); err != nil {
					return err
				}
				turno.ClearSlot()
			default:
				return exceptions.ErrTurnoInvalidTransition(string(turno.Status), string(models.TurnoStatusCancelado))
			}

			turno.Status = models.TurnoStatusCancelado
			turno.UpdatedAt = now
			if err := uc.TurnoRepository.UpdateTurno(txCtx, turno); err != nil {
				return err
			}
			cancelled = turno
			return nil
		})
	})
	if err != nil {
		uc.Log.Error("turnoUsecase.CancelTurno error cancelling turno",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingTurnoIDKey, request.TurnoID),
			zap.Error(err),
		)
		return nil, err
	}

	uc.afterTransition(ctx, cancelled, oldStatus, request.ActorID, request.Reason)

	uc.Log.Info("turnoUsecase.CancelTurno succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingTurnoIDKey, cancelled.ID),
		zap.String(constvars.LoggingTurnoOldStatusKey, string(oldStatus)),
	)
	return cancelled, nil
}

func (uc *turnoUsecase) CompleteTurno(ctx context.Context, request *requests.CompleteTurno) (*models.Turno, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	uc.Log.Info("turnoUsecase.CompleteTurno called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingTurnoIDKey, request.TurnoID),
	)

	if err := utils.ValidateStruct(request); err != nil {
		return nil, exceptions.ErrInputValidation(err)
	}

	var completed *models.Turno
	err := uc.withRetry(ctx, "CompleteTurno", func() error {
		release, _, err := uc.lockTurno(ctx, request.TurnoID, false)
		if err != nil {
			return err
		}
		defer release()

		return uc.Transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
			turno, err := uc.loadForTransition(txCtx, request.TurnoID, models.TurnoStatusCompletado, models.TurnoStatusAprobado)
			if err != nil {
				return err
			}

			now := uc.now()
			turno.Status = models.TurnoStatusCompletado
			turno.DeliveredAt = &now
			turno.UpdatedAt = now
			if err := uc.TurnoRepository.UpdateTurno(txCtx, turno); err != nil {
				return err
			}
			completed = turno
			return nil
		})
	})
	if err != nil {
		uc.Log.Error("turnoUsecase.CompleteTurno error completing turno",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingTurnoIDKey, request.TurnoID),
			zap.Error(err),
		)
		return nil, err
	}

	uc.afterTransition(ctx, completed, models.TurnoStatusAprobado, request.ActorID, "")

	uc.Log.Info("turnoUsecase.CompleteTurno succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingTurnoIDKey, completed.ID),
	)
	return completed, nil
}

// SetTicketReference stores the reference of the rendered pickup ticket. It
// does not change the status.
func (uc *turnoUsecase) SetTicketReference(ctx context.Context, request *requests.SetTicketReference) (*models.Turno, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	uc.Log.Info("turnoUsecase.SetTicketReference called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingTurnoIDKey, request.TurnoID),
	)

	if err := utils.ValidateStruct(request); err != nil {
		return nil, exceptions.ErrInputValidation(err)
	}

	var updated *models.Turno
	err := uc.withRetry(ctx, "SetTicketReference", func() error {
		release, _, err := uc.lockTurno(ctx, request.TurnoID, false)
		if err != nil {
			return err
		}
		defer release()

		return uc.Transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
			turno, err := uc.TurnoRepository.FindTurnoByID(txCtx, request.TurnoID)
			if err != nil {
				return err
			}
			if turno == nil {
				return exceptions.ErrTurnoNotFound(nil, request.TurnoID)
			}
			if !turno.Status.HoldsSlot() {
				return exceptions.ErrTurnoInvalidTransition(string(turno.Status), string(turno.Status))
			}

			turno.TicketReference = request.TicketReference
			turno.UpdatedAt = uc.now()
			if err := uc.TurnoRepository.UpdateTurno(txCtx, turno); err != nil {
				return err
			}
			updated = turno
			return nil
		})
	})
	if err != nil {
		uc.Log.Error("turnoUsecase.SetTicketReference error updating turno",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingTurnoIDKey, request.TurnoID),
			zap.Error(err),
		)
		return nil, err
	}

	uc.Log.Info("turnoUsecase.SetTicketReference succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingTurnoIDKey, updated.ID),
	)
	return updated, nil
}

func (uc *turnoUsecase) FindTurnoByID(ctx context.Context, turnoID string) (*models.Turno, error) {
	if err := checkTurnoID(turnoID); err != nil {
		return nil, err
	}

	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)

	turno, err := uc.TurnoRepository.FindTurnoByID(ctx, turnoID)
	if err != nil {
		uc.Log.Error("turnoUsecase.FindTurnoByID error calling TurnoRepository.FindTurnoByID",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingTurnoIDKey, turnoID),
			zap.Error(err),
		)
		return nil, err
	}
	if turno == nil {
		return nil, exceptions.ErrTurnoNotFound(nil, turnoID)
	}
	return turno, nil
}

func (uc *turnoUsecase) ListTurnos(ctx context.Context, request *requests.ListTurnos) ([]models.Turno, int, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	uc.Log.Info("turnoUsecase.ListTurnos called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingRequesterIDKey, request.RequesterID),
		zap.String(constvars.LoggingTurnoStatusKey, request.Status),
	)

	if err := utils.ValidateStruct(request); err != nil {
		return nil, 0, exceptions.ErrInputValidation(err)
	}

	turnos, total, err := uc.TurnoRepository.FindTurnos(ctx, models.TurnoFilter{
		RequesterID: request.RequesterID,
		Status:      models.TurnoStatus(request.Status),
		Page:        request.Page,
		PageSize:    request.PageSize,
	})
	if err != nil {
		uc.Log.Error("turnoUsecase.ListTurnos error calling TurnoRepository.FindTurnos",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, 0, err
	}

	uc.Log.Info("turnoUsecase.ListTurnos succeeded",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.Int(constvars.LoggingTurnoCountKey, len(turnos)),
	)
	return turnos, total, nil
}

// GetAvailability returns the next free slot at or after from. Past instants
// are moved up to now.
func (uc *turnoUsecase) GetAvailability(ctx context.Context, from time.Time) (time.Time, error) {
	now := uc.now()
	if from.IsZero() || from.Before(now) {
		from = now
	}
	return uc.SlotAllocator.NextAvailableSlot(ctx, from)
}

func (uc *turnoUsecase) GetQuota(ctx context.Context, requesterID string) (*models.QuotaDecision, error) {
	if requesterID == "" {
		return nil, exceptions.ErrValidation("requester id is required")
	}
	return uc.QuotaEnforcer.CanRequest(ctx, requesterID, uc.now())
}
