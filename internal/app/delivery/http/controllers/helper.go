package controllers

import (
	"context"
	"errors"
	"farmacia-service/internal/app/models"
	"farmacia-service/internal/pkg/constvars"
	"farmacia-service/internal/pkg/exceptions"
	"farmacia-service/internal/pkg/utils"
	"net/http"

	"go.uber.org/zap"
)

func actorFromContext(ctx context.Context) (string, string) {
	actorID, _ := ctx.Value(constvars.CONTEXT_ACTOR_ID_KEY).(string)
	actorRole, _ := ctx.Value(constvars.CONTEXT_ACTOR_ROLE_KEY).(string)
	return actorID, actorRole
}

func isStaff(role string) bool {
	return role == constvars.RoleAdmin || role == constvars.RolePharmacist
}

// authorizeTurnoRead allows staff to read every turno and requesters their own.
func authorizeTurnoRead(turno *models.Turno, actorID, actorRole string) error {
	if isStaff(actorRole) || turno.IsOwnedBy(actorID) {
		return nil
	}
	return exceptions.ErrTurnoForbidden(actorID, turno.ID)
}

func buildUsecaseErrorResponse(log *zap.Logger, w http.ResponseWriter, err error) {
	var customErr *exceptions.CustomError
	if errors.Is(err, context.DeadlineExceeded) && !errors.As(err, &customErr) {
		utils.BuildErrorResponse(log, w, exceptions.ErrServerDeadlineExceeded(err))
		return
	}
	utils.BuildErrorResponse(log, w, err)
}
