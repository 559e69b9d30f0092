package quota

import (
	"context"
	"farmacia-service/internal/app/contracts"
	"farmacia-service/internal/app/models"
	"farmacia-service/internal/pkg/constvars"
	"farmacia-service/internal/pkg/utils"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type quotaEnforcer struct {
	TurnoRepository contracts.TurnoRepository
	Location        *time.Location
	MonthlyLimit    int
	Log             *zap.Logger
}

// NewQuotaEnforcer limits how many live turnos a requester may open per
// calendar month of loc.
func NewQuotaEnforcer(turnoRepository contracts.TurnoRepository, loc *time.Location, monthlyLimit int, logger *zap.Logger) contracts.QuotaEnforcer {
	return &quotaEnforcer{
		TurnoRepository: turnoRepository,
		Location:        loc,
		MonthlyLimit:    monthlyLimit,
		Log:             logger,
	}
}

func (uc *quotaEnforcer) CanRequest(ctx context.Context, requesterID string, now time.Time) (*models.QuotaDecision, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)

	windowStart, windowEnd := utils.MonthWindow(now, uc.Location)
	used, err := uc.TurnoRepository.CountRequesterTurnos(ctx, requesterID, windowStart, windowEnd, models.QuotaCountedStatuses)
	if err != nil {
		uc.Log.Error("quotaEnforcer.CanRequest error calling TurnoRepository.CountRequesterTurnos",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingRequesterIDKey, requesterID),
			zap.Error(err),
		)
		return nil, err
	}

	decision := &models.QuotaDecision{
		Allowed:     used < uc.MonthlyLimit,
		Used:        used,
		Limit:       uc.MonthlyLimit,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
	}
	if !decision.Allowed {
		decision.Reason = fmt.Sprintf("monthly limit of %d turnos reached for %s", uc.MonthlyLimit, windowStart.Format("2006-01"))
	}

	uc.Log.Info("quotaEnforcer.CanRequest evaluated",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingRequesterIDKey, requesterID),
		zap.Int(constvars.LoggingQuotaUsedKey, used),
		zap.Int(constvars.LoggingQuotaLimitKey, uc.MonthlyLimit),
		zap.Bool("allowed", decision.Allowed),
	)
	return decision, nil
}

func (uc *quotaEnforcer) LockKey(requesterID string) string {
	return constvars.LockKeyTurnoQuotaPrefix + requesterID
}
