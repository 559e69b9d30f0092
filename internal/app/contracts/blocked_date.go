package contracts

import (
	"context"
	"farmacia-service/internal/app/models"
	"farmacia-service/internal/pkg/dto/requests"
	"time"
)

type BlockedDateRepository interface {
	// CreateBlockedDate fails with a DuplicateDate error when the day is already blocked.
	CreateBlockedDate(ctx context.Context, blockedDate *models.BlockedDate) error
	// DeleteBlockedDate reports whether a row was removed.
	DeleteBlockedDate(ctx context.Context, day time.Time) (bool, error)
	FindBlockedDate(ctx context.Context, day time.Time) (*models.BlockedDate, error)
	FindAllBlockedDates(ctx context.Context) ([]models.BlockedDate, error)
	FindBlockedDatesBetween(ctx context.Context, from, to time.Time) ([]models.BlockedDate, error)
}

type BlockedDateUsecase interface {
	IsBlocked(ctx context.Context, day time.Time) (bool, error)
	ListBlockedDates(ctx context.Context) ([]models.BlockedDate, error)
	ListBlockedDatesBetween(ctx context.Context, from, to time.Time) ([]models.BlockedDate, error)
	AddBlockedDate(ctx context.Context, request *requests.AddBlockedDate) (*models.BlockedDate, error)
	RemoveBlockedDate(ctx context.Context, day time.Time) error
}
