package blockeddates

import (
	"context"
	"database/sql"
	"errors"
	"farmacia-service/internal/app/contracts"
	"farmacia-service/internal/app/models"
	"farmacia-service/internal/app/services/core/transactions"
	"farmacia-service/internal/pkg/constvars"
	"farmacia-service/internal/pkg/exceptions"
	"farmacia-service/internal/pkg/queries"
	"farmacia-service/internal/pkg/utils"
	"sync"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

const pqUniqueViolation = "23505"

type blockedDatePostgresRepository struct {
	DB       *sql.DB
	Location *time.Location
	Log      *zap.Logger
}

var (
	blockedDatePostgresRepositoryInstance contracts.BlockedDateRepository
	onceBlockedDatePostgresRepository     sync.Once
)

func NewBlockedDatePostgresRepository(db *sql.DB, loc *time.Location, logger *zap.Logger) contracts.BlockedDateRepository {
	onceBlockedDatePostgresRepository.Do(func() {
		blockedDatePostgresRepositoryInstance = &blockedDatePostgresRepository{
			DB:       db,
			Location: loc,
			Log:      logger,
		}
	})
	return blockedDatePostgresRepositoryInstance
}

func (r *blockedDatePostgresRepository) CreateBlockedDate(ctx context.Context, blockedDate *models.BlockedDate) error {
	_, err := transactions.ExecutorFromContext(ctx, r.DB).ExecContext(ctx, queries.InsertBlockedDate,
		blockedDate.DayKey(),
		blockedDate.Reason,
		blockedDate.CreatedBy,
		blockedDate.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return exceptions.ErrBlockedDateDuplicate(err, blockedDate.DayKey())
		}
		return exceptions.ErrPostgresDBInsertData(err)
	}
	return nil
}

func (r *blockedDatePostgresRepository) DeleteBlockedDate(ctx context.Context, day time.Time) (bool, error) {
	result, err := transactions.ExecutorFromContext(ctx, r.DB).ExecContext(ctx, queries.DeleteBlockedDate, day.Format(constvars.DateLayout))
	if err != nil {
		return false, exceptions.ErrPostgresDBDeleteData(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, exceptions.ErrPostgresDBDeleteData(err)
	}
	return affected > 0, nil
}

func (r *blockedDatePostgresRepository) FindBlockedDate(ctx context.Context, day time.Time) (*models.BlockedDate, error) {
	row := transactions.ExecutorFromContext(ctx, r.DB).QueryRowContext(ctx, queries.GetBlockedDate, day.Format(constvars.DateLayout))
	blockedDate, err := r.scan(row)
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, exceptions.ErrPostgresDBFindData(err)
	}
	return blockedDate, nil
}

func (r *blockedDatePostgresRepository) FindAllBlockedDates(ctx context.Context) ([]models.BlockedDate, error) {
	rows, err := transactions.ExecutorFromContext(ctx, r.DB).QueryContext(ctx, queries.GetAllBlockedDates)
	if err != nil {
		return nil, exceptions.ErrPostgresDBFindData(err)
	}
	return r.collect(rows)
}

func (r *blockedDatePostgresRepository) FindBlockedDatesBetween(ctx context.Context, from, to time.Time) ([]models.BlockedDate, error) {
	rows, err := transactions.ExecutorFromContext(ctx, r.DB).QueryContext(ctx, queries.GetBlockedDatesBetween,
		from.Format(constvars.DateLayout),
		to.Format(constvars.DateLayout),
	)
	if err != nil {
		return nil, exceptions.ErrPostgresDBFindData(err)
	}
	return r.collect(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *blockedDatePostgresRepository) scan(row rowScanner) (*models.BlockedDate, error) {
	var (
		model   models.BlockedDate
		dateStr string
	)
	if err := row.Scan(&dateStr, &model.Reason, &model.CreatedBy, &model.CreatedAt); err != nil {
		return nil, err
	}
	day, err := utils.ParseDay(dateStr, r.Location)
	if err != nil {
		return nil, err
	}
	model.Date = day
	return &model, nil
}

func (r *blockedDatePostgresRepository) collect(rows *sql.Rows) ([]models.BlockedDate, error) {
	defer rows.Close()

	blockedDates := make([]models.BlockedDate, 0)
	for rows.Next() {
		model, err := r.scan(rows)
		if err != nil {
			return nil, exceptions.ErrPostgresDBIterateDataset(err)
		}
		blockedDates = append(blockedDates, *model)
	}
	if err := rows.Err(); err != nil {
		return nil, exceptions.ErrPostgresDBIterateDataset(err)
	}
	return blockedDates, nil
}
