package inventory

import (
	"context"
	"database/sql"
	"farmacia-service/internal/app/contracts"
	"farmacia-service/internal/app/models"
	"farmacia-service/internal/app/services/core/transactions"
	"farmacia-service/internal/pkg/exceptions"
	"farmacia-service/internal/pkg/queries"
	"sync"

	"go.uber.org/zap"
)

type catalogPostgresRepository struct {
	DB  *sql.DB
	Log *zap.Logger
}

var (
	catalogPostgresRepositoryInstance contracts.CatalogStockRepository
	onceCatalogPostgresRepository     sync.Once
)

func NewCatalogPostgresRepository(db *sql.DB, logger *zap.Logger) contracts.CatalogStockRepository {
	onceCatalogPostgresRepository.Do(func() {
		catalogPostgresRepositoryInstance = &catalogPostgresRepository{
			DB:  db,
			Log: logger,
		}
	})
	return catalogPostgresRepositoryInstance
}

func (r *catalogPostgresRepository) FindStock(ctx context.Context, kind models.LineItemKind, itemID string) (*int, error) {
	var stock int
	err := transactions.ExecutorFromContext(ctx, r.DB).QueryRowContext(ctx, queries.GetCatalogItemStock, string(kind), itemID).Scan(&stock)
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, exceptions.ErrPostgresDBFindData(err)
	}
	return &stock, nil
}

func (r *catalogPostgresRepository) DecrementStock(ctx context.Context, kind models.LineItemKind, itemID string, quantity int) (bool, error) {
	result, err := transactions.ExecutorFromContext(ctx, r.DB).ExecContext(ctx, queries.DecrementCatalogItemStock, string(kind), itemID, quantity)
	if err != nil {
		return false, exceptions.ErrPostgresDBUpdateData(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, exceptions.ErrPostgresDBUpdateData(err)
	}
	return affected == 1, nil
}

func (r *catalogPostgresRepository) CreditStock(ctx context.Context, kind models.LineItemKind, itemID string, quantity int) error {
	result, err := transactions.ExecutorFromContext(ctx, r.DB).ExecContext(ctx, queries.CreditCatalogItemStock, string(kind), itemID, quantity)
	if err != nil {
		return exceptions.ErrPostgresDBUpdateData(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return exceptions.ErrPostgresDBUpdateData(err)
	}
	if affected == 0 {
		return exceptions.ErrCatalogItemNotFound(string(kind), itemID)
	}
	return nil
}
