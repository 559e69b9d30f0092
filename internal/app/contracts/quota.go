package contracts

import (
	"context"
	"farmacia-service/internal/app/models"
	"time"
)

type QuotaEnforcer interface {
	CanRequest(ctx context.Context, requesterID string, now time.Time) (*models.QuotaDecision, error)
	LockKey(requesterID string) string
}
