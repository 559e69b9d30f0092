package turnos

import (
	"context"
	"farmacia-service/internal/app/models"
	"farmacia-service/internal/app/services/shared/locker"
	"farmacia-service/internal/pkg/constvars"
	"farmacia-service/internal/pkg/dto/requests"
	"farmacia-service/internal/pkg/exceptions"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// withRetry runs fn and retries it once when it fails with a concurrency conflict.
func (uc *turnoUsecase) withRetry(ctx context.Context, operation string, fn func() error) error {
	err := fn()
	if err == nil || !exceptions.IsCode(err, exceptions.CodeConcurrencyConflict) {
		return err
	}

	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	uc.Log.Warn("turnoUsecase."+operation+" retrying after concurrency conflict",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.Int(constvars.LoggingAttemptKey, 2),
		zap.Error(err),
	)
	return fn()
}

// checkTurnoID keeps ids that cannot name a stored turno away from the
// repositories, whose uuid columns would fail the cast.
func checkTurnoID(turnoID string) error {
	if _, err := uuid.Parse(turnoID); err != nil {
		return exceptions.ErrTurnoNotFound(err, turnoID)
	}
	return nil
}

// lockTurno takes the turno key and, when withStock is set, the stock keys of
// its line items, in that order. The returned function releases all of them.
func (uc *turnoUsecase) lockTurno(ctx context.Context, turnoID string, withStock bool) (func(), *models.Turno, error) {
	if err := checkTurnoID(turnoID); err != nil {
		return nil, nil, err
	}

	turnoHeld, err := locker.AcquireAll(ctx, uc.Locker, uc.Log, uc.LockOptions, constvars.LockKeyTurnoIDPrefix+turnoID)
	if err != nil {
		return nil, nil, err
	}

	turno, err := uc.TurnoRepository.FindTurnoByID(ctx, turnoID)
	if err != nil {
		turnoHeld.Release(ctx)
		return nil, nil, err
	}
	if turno == nil {
		turnoHeld.Release(ctx)
		return nil, nil, exceptions.ErrTurnoNotFound(nil, turnoID)
	}
	if !withStock {
		return func() { turnoHeld.Release(ctx) }, turno, nil
	}

	stockHeld, err := locker.AcquireAll(ctx, uc.Locker, uc.Log, uc.LockOptions, uc.InventoryGateway.LockKeys(turno.LineItems)...)
	if err != nil {
		turnoHeld.Release(ctx)
		return nil, nil, err
	}
	return func() {
		stockHeld.Release(ctx)
		turnoHeld.Release(ctx)
	}, turno, nil
}

// loadForTransition reads the turno inside the transaction and checks it is
// in the status the transition starts from.
func (uc *turnoUsecase) loadForTransition(ctx context.Context, turnoID string, to, from models.TurnoStatus) (*models.Turno, error) {
	turno, err := uc.TurnoRepository.FindTurnoByID(ctx, turnoID)
	if err != nil {
		return nil, err
	}
	if turno == nil {
		return nil, exceptions.ErrTurnoNotFound(nil, turnoID)
	}
	if turno.Status != from {
		return nil, exceptions.ErrTurnoInvalidTransition(string(turno.Status), string(to))
	}
	return turno, nil
}

// afterTransition writes the audit entry and emits the status change once the
// transaction has committed. Failures are logged and never undo the transition.
func (uc *turnoUsecase) afterTransition(ctx context.Context, turno *models.Turno, oldStatus models.TurnoStatus, actorID, reason string) {
	uc.recordTransition(ctx, turno, oldStatus, actorID, reason)

	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	event := models.NewTurnoStatusChangedEvent(turno, oldStatus, turno.UpdatedAt)
	if err := uc.EventPublisher.PublishTurnoStatusChanged(context.WithoutCancel(ctx), event); err != nil {
		uc.Log.Error("turnoUsecase.afterTransition error publishing status changed event",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingTurnoIDKey, turno.ID),
			zap.Error(err),
		)
	}
}

func (uc *turnoUsecase) recordTransition(ctx context.Context, turno *models.Turno, oldStatus models.TurnoStatus, actorID, reason string) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	entry := &models.TransitionLog{
		TurnoID:    turno.ID,
		FromStatus: oldStatus,
		ToStatus:   turno.Status,
		ActorID:    actorID,
		Reason:     reason,
		At:         turno.UpdatedAt,
	}
	if err := uc.TransitionLogRepository.InsertTransition(context.WithoutCancel(ctx), entry); err != nil {
		uc.Log.Error("turnoUsecase.recordTransition error calling TransitionLogRepository.InsertTransition",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingTurnoIDKey, turno.ID),
			zap.String(constvars.LoggingTurnoNewStatusKey, string(turno.Status)),
			zap.Error(err),
		)
	}
}

func (uc *turnoUsecase) publishApproved(ctx context.Context, turno *models.Turno) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	event := models.NewTurnoApprovedEvent(turno, turno.UpdatedAt)
	if err := uc.EventPublisher.PublishTurnoApproved(context.WithoutCancel(ctx), event); err != nil {
		uc.Log.Error("turnoUsecase.publishApproved error publishing approved event",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingTurnoIDKey, turno.ID),
			zap.Error(err),
		)
	}
}

// applyApprovedQuantities sets the approved quantity of every line. Lines the
// reviewer did not mention are approved in full.
func applyApprovedQuantities(turno *models.Turno, approvals []requests.ApprovedLineItem) error {
	requested := make(map[string]int, len(turno.LineItems))
	for _, item := range turno.LineItems {
		requested[item.ID] = item.RequestedQuantity
	}

	quantities := make(map[string]int, len(approvals))
	for _, approval := range approvals {
		limit, ok := requested[approval.LineItemID]
		if !ok {
			return exceptions.ErrTurnoUnknownLineItem(approval.LineItemID, turno.ID)
		}
		if _, dup := quantities[approval.LineItemID]; dup {
			return exceptions.ErrValidation(fmt.Sprintf("line item %s is listed more than once", approval.LineItemID))
		}
		if approval.Quantity < 0 || approval.Quantity > limit {
			return exceptions.ErrTurnoApprovedQuantity(approval.Quantity, approval.LineItemID, limit)
		}
		quantities[approval.LineItemID] = approval.Quantity
	}

	for i := range turno.LineItems {
		quantity, ok := quantities[turno.LineItems[i].ID]
		if !ok {
			quantity = turno.LineItems[i].RequestedQuantity
		}
		turno.LineItems[i].ApprovedQuantity = &quantity
	}
	return nil
}

func zeroApprovedQuantities(turno *models.Turno) {
	for i := range turno.LineItems {
		zero := 0
		turno.LineItems[i].ApprovedQuantity = &zero
	}
}

func validateDistinctLineItems(lineItems []requests.TurnoLineItem) error {
	seen := make(map[string]struct{}, len(lineItems))
	for _, item := range lineItems {
		key := item.Kind + ":" + item.CatalogItemID
		if _, ok := seen[key]; ok {
			return exceptions.ErrValidation(fmt.Sprintf("catalog item %s of kind %s is requested more than once", item.CatalogItemID, item.Kind))
		}
		seen[key] = struct{}{}
	}
	return nil
}
