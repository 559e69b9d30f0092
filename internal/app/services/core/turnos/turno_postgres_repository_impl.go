package turnos

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
	"fmt"
	"sync"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

type turnoPostgresRepository struct {
	DB       *sql.DB
	Location *time.Location
	Log      *zap.Logger
}

var (
	turnoPostgresRepositoryInstance contracts.TurnoRepository
	onceTurnoPostgresRepository     sync.Once
)

func NewTurnoPostgresRepository(db *sql.DB, loc *time.Location, logger *zap.Logger) contracts.TurnoRepository {
	onceTurnoPostgresRepository.Do(func() {
		turnoPostgresRepositoryInstance = &turnoPostgresRepository{
			DB:       db,
			Location: loc,
			Log:      logger,
		}
	})
	return turnoPostgresRepositoryInstance
}

// CreateTurno inserts the turno row and its line items. Callers run it inside
// a transaction so the lines are never stored without their turno.
func (r *turnoPostgresRepository) CreateTurno(ctx context.Context, turno *models.Turno) error {
	executor := transactions.ExecutorFromContext(ctx, r.DB)

	_, err := executor.ExecContext(ctx, queries.InsertTurno,
		turno.ID,
		turno.RequesterID,
		turno.DocumentHash,
		turno.RequestedAt,
		string(turno.Status),
		turno.RequesterNotes,
		turno.UpdatedAt,
	)
	if err != nil {
		return exceptions.ErrPostgresDBInsertData(err)
	}

	for position, item := range turno.LineItems {
		_, err := executor.ExecContext(ctx, queries.InsertTurnoLineItem,
			item.ID,
			turno.ID,
			position,
			string(item.Kind),
			item.CatalogItemID,
			item.RequestedQuantity,
			item.AvailableWhenRequested,
			nullableInt(item.ApprovedQuantity),
		)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation {
				return exceptions.ErrCatalogItemNotFound(string(item.Kind), item.CatalogItemID)
			}
			return exceptions.ErrPostgresDBInsertData(err)
		}
	}
	return nil
}

// FindTurnoByID locks the row when called inside a transaction.
func (r *turnoPostgresRepository) FindTurnoByID(ctx context.Context, turnoID string) (*models.Turno, error) {
	query := queries.GetTurnoByID
	if transactions.InTransaction(ctx) {
		query = queries.GetTurnoByIDForUpdate
	}

	executor := transactions.ExecutorFromContext(ctx, r.DB)
	turno, err := scanTurno(executor.QueryRowContext(ctx, query, turnoID))
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, exceptions.ErrPostgresDBFindData(err)
	}

	if err := r.attachLineItems(ctx, []*models.Turno{turno}); err != nil {
		return nil, err
	}
	return turno, nil
}

func (r *turnoPostgresRepository) FindTurnos(ctx context.Context, filter models.TurnoFilter) ([]models.Turno, int, error) {
	executor := transactions.ExecutorFromContext(ctx, r.DB)

	var total int
	if err := executor.QueryRowContext(ctx, queries.CountTurnos, filter.RequesterID, string(filter.Status)).Scan(&total); err != nil {
		return nil, 0, exceptions.ErrPostgresDBFindData(err)
	}

	limit := filter.PageSize
	if limit <= 0 {
		limit = total
	}
	rows, err := executor.QueryContext(ctx, queries.GetTurnos, filter.RequesterID, string(filter.Status), limit, filter.Offset())
	if err != nil {
		return nil, 0, exceptions.ErrPostgresDBFindData(err)
	}
	defer rows.Close()

	turnos := make([]*models.Turno, 0)
	for rows.Next() {
		turno, err := scanTurno(rows)
		if err != nil {
			return nil, 0, exceptions.ErrPostgresDBIterateDataset(err)
		}
		turnos = append(turnos, turno)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, exceptions.ErrPostgresDBIterateDataset(err)
	}

	if err := r.attachLineItems(ctx, turnos); err != nil {
		return nil, 0, err
	}

	result := make([]models.Turno, 0, len(turnos))
	for _, turno := range turnos {
		result = append(result, *turno)
	}
	return result, total, nil
}

func (r *turnoPostgresRepository) UpdateTurno(ctx context.Context, turno *models.Turno) error {
	executor := transactions.ExecutorFromContext(ctx, r.DB)

	var slotDay interface{}
	if turno.Slot != nil {
		slotDay = turno.Slot.In(r.Location).Format(constvars.DateLayout)
	}

	result, err := executor.ExecContext(ctx, queries.UpdateTurno,
		nullableTime(turno.Slot),
		slotDay,
		nullableInt(turno.DailyNumber),
		string(turno.Status),
		turno.ReviewerNotes,
		turno.ReviewerID,
		nullableTime(turno.ReviewedAt),
		nullableTime(turno.DeliveredAt),
		turno.TicketReference,
		turno.UpdatedAt,
		turno.ID,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return exceptions.ErrConcurrencyConflict(err, pqErr.Constraint)
		}
		return exceptions.ErrPostgresDBUpdateData(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return exceptions.ErrPostgresDBUpdateData(err)
	}
	if affected == 0 {
		return exceptions.ErrTurnoNotFound(nil, turno.ID)
	}

	for _, item := range turno.LineItems {
		_, err := executor.ExecContext(ctx, queries.UpdateTurnoLineItemApprovedQuantity,
			nullableInt(item.ApprovedQuantity),
			item.ID,
			turno.ID,
		)
		if err != nil {
			return exceptions.ErrPostgresDBUpdateData(err)
		}
	}
	return nil
}

func (r *turnoPostgresRepository) CountRequesterTurnos(ctx context.Context, requesterID string, from, to time.Time, statuses []models.TurnoStatus) (int, error) {
	values := make([]string, 0, len(statuses))
	for _, status := range statuses {
		values = append(values, string(status))
	}

	var count int
	err := transactions.ExecutorFromContext(ctx, r.DB).
		QueryRowContext(ctx, queries.CountRequesterTurnosInWindow, requesterID, from, to, pq.Array(values)).
		Scan(&count)
	if err != nil {
		return 0, exceptions.ErrPostgresDBFindData(err)
	}
	return count, nil
}

func (r *turnoPostgresRepository) attachLineItems(ctx context.Context, turnos []*models.Turno) error {
	if len(turnos) == 0 {
		return nil
	}

	ids := make([]string, 0, len(turnos))
	byID := make(map[string]*models.Turno, len(turnos))
	for _, turno := range turnos {
		ids = append(ids, turno.ID)
		byID[turno.ID] = turno
		turno.LineItems = make([]models.TurnoLineItem, 0)
	}

	rows, err := transactions.ExecutorFromContext(ctx, r.DB).QueryContext(ctx, queries.GetTurnoLineItemsByTurnoIDs, pq.Array(ids))
	if err != nil {
		return exceptions.ErrPostgresDBFindData(err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			item     models.TurnoLineItem
			kind     string
			approved sql.NullInt64
		)
		if err := rows.Scan(&item.ID, &item.TurnoID, &kind, &item.CatalogItemID, &item.RequestedQuantity, &item.AvailableWhenRequested, &approved); err != nil {
			return exceptions.ErrPostgresDBIterateDataset(err)
		}
		item.Kind = models.LineItemKind(kind)
		if approved.Valid {
			quantity := int(approved.Int64)
			item.ApprovedQuantity = &quantity
		}
		turno, ok := byID[item.TurnoID]
		if !ok {
			return exceptions.ErrPostgresDBIterateDataset(fmt.Errorf("line item %s belongs to unexpected turno %s", item.ID, item.TurnoID))
		}
		turno.LineItems = append(turno.LineItems, item)
	}
	if err := rows.Err(); err != nil {
		return exceptions.ErrPostgresDBIterateDataset(err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTurno(row rowScanner) (*models.Turno, error) {
	var (
		turno       models.Turno
		status      string
		slot        sql.NullTime
		dailyNumber sql.NullInt64
		reviewedAt  sql.NullTime
		deliveredAt sql.NullTime
	)
	err := row.Scan(
		&turno.ID,
		&turno.RequesterID,
		&turno.DocumentHash,
		&slot,
		&dailyNumber,
		&turno.RequestedAt,
		&status,
		&turno.RequesterNotes,
		&turno.ReviewerNotes,
		&turno.ReviewerID,
		&reviewedAt,
		&deliveredAt,
		&turno.TicketReference,
		&turno.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	turno.Status = models.TurnoStatus(status)
	if slot.Valid {
		turno.Slot = &slot.Time
	}
	if dailyNumber.Valid {
		number := int(dailyNumber.Int64)
		turno.DailyNumber = &number
	}
	if reviewedAt.Valid {
		turno.ReviewedAt = &reviewedAt.Time
	}
	if deliveredAt.Valid {
		turno.DeliveredAt = &deliveredAt.Time
	}
	return &turno, nil
}

func nullableInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullableTime(v *time.Time) sql.NullTime {
	if v == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *v, Valid: true}
}
