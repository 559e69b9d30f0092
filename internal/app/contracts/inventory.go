package contracts

import (
	"context"
	"farmacia-service/internal/app/models"
)

type CatalogStockRepository interface {
	// FindStock returns nil without error when the catalog item does not exist.
	FindStock(ctx context.Context, kind models.LineItemKind, itemID string) (*int, error)
	// DecrementStock subtracts quantity only when enough stock is left and
	// reports whether it did.
	DecrementStock(ctx context.Context, kind models.LineItemKind, itemID string, quantity int) (bool, error)
	CreditStock(ctx context.Context, kind models.LineItemKind, itemID string, quantity int) error
}

type InventoryGateway interface {
	Snapshot(ctx context.Context, lineItems []models.TurnoLineItem) error
	Commit(ctx context.Context, lineItems []models.TurnoLineItem) error
	Release(ctx context.Context, lineItems []models.TurnoLineItem) error
	LockKeys(lineItems []models.TurnoLineItem) []string
}
