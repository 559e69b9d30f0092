package slot

import (
	"context"
	"database/sql"
	"farmacia-service/internal/app/contracts"
	"farmacia-service/internal/app/services/core/transactions"
	"farmacia-service/internal/pkg/constvars"
	"farmacia-service/internal/pkg/exceptions"
	"farmacia-service/internal/pkg/queries"
	"sync"
	"time"

	"go.uber.org/zap"
)

type slotPostgresRepository struct {
	DB  *sql.DB
	Log *zap.Logger
}

var (
	slotPostgresRepositoryInstance contracts.SlotRepository
	onceSlotPostgresRepository     sync.Once
)

func NewSlotPostgresRepository(db *sql.DB, logger *zap.Logger) contracts.SlotRepository {
	onceSlotPostgresRepository.Do(func() {
		slotPostgresRepositoryInstance = &slotPostgresRepository{
			DB:  db,
			Log: logger,
		}
	})
	return slotPostgresRepositoryInstance
}

func (r *slotPostgresRepository) FindOccupiedSlots(ctx context.Context, from, to time.Time) ([]time.Time, error) {
	rows, err := transactions.ExecutorFromContext(ctx, r.DB).QueryContext(ctx, queries.GetOccupiedSlots, from, to)
	if err != nil {
		return nil, exceptions.ErrPostgresDBFindData(err)
	}
	defer rows.Close()

	var slots []time.Time
	for rows.Next() {
		var slot time.Time
		if err := rows.Scan(&slot); err != nil {
			return nil, exceptions.ErrPostgresDBIterateDataset(err)
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, exceptions.ErrPostgresDBIterateDataset(err)
	}
	return slots, nil
}

// NextDailyNumber upserts the per-day sequence row. The row lock taken by the
// upsert serialises concurrent callers until their transaction ends.
func (r *slotPostgresRepository) NextDailyNumber(ctx context.Context, day time.Time) (int, error) {
	var number int
	err := transactions.ExecutorFromContext(ctx, r.DB).
		QueryRowContext(ctx, queries.NextTurnoDailyNumber, day.Format(constvars.DateLayout)).
		Scan(&number)
	if err != nil {
		return 0, exceptions.ErrPostgresDBUpdateData(err)
	}
	return number, nil
}
