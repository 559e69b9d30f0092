package inventory

import (
	"context"
	"farmacia-service/internal/app/contracts"
	"farmacia-service/internal/app/models"
	"farmacia-service/internal/pkg/constvars"
	"farmacia-service/internal/pkg/exceptions"
	"sort"

	"go.uber.org/zap"
)

type inventoryGateway struct {
	CatalogStockRepository contracts.CatalogStockRepository
	Log                    *zap.Logger
}

func NewInventoryGateway(catalogStockRepository contracts.CatalogStockRepository, logger *zap.Logger) contracts.InventoryGateway {
	return &inventoryGateway{
		CatalogStockRepository: catalogStockRepository,
		Log:                    logger,
	}
}

// Snapshot records on every line whether the catalog could cover the
// requested quantity right now. Stock is left untouched.
func (g *inventoryGateway) Snapshot(ctx context.Context, lineItems []models.TurnoLineItem) error {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)

	for i := range lineItems {
		item := &lineItems[i]
		stock, err := g.CatalogStockRepository.FindStock(ctx, item.Kind, item.CatalogItemID)
		if err != nil {
			g.Log.Error("inventoryGateway.Snapshot error calling CatalogStockRepository.FindStock",
				zap.String(constvars.LoggingRequestIDKey, requestID),
				zap.String(constvars.LoggingCatalogItemIDKey, item.CatalogItemID),
				zap.Error(err),
			)
			return err
		}
		if stock == nil {
			return exceptions.ErrCatalogItemNotFound(string(item.Kind), item.CatalogItemID)
		}
		item.AvailableWhenRequested = *stock >= item.RequestedQuantity
	}
	return nil
}

// Commit decrements the approved quantity of every line. It must run inside
// the approval transaction: a shortage on any line returns
// InsufficientStock and the caller rolls back what was already taken.
func (g *inventoryGateway) Commit(ctx context.Context, lineItems []models.TurnoLineItem) error {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)

	for _, item := range lineItems {
		quantity := item.ApprovedOrZero()
		if quantity == 0 {
			continue
		}

		decremented, err := g.CatalogStockRepository.DecrementStock(ctx, item.Kind, item.CatalogItemID, quantity)
		if err != nil {
			g.Log.Error("inventoryGateway.Commit error calling CatalogStockRepository.DecrementStock",
				zap.String(constvars.LoggingRequestIDKey, requestID),
				zap.String(constvars.LoggingCatalogItemIDKey, item.CatalogItemID),
				zap.Error(err),
			)
			return err
		}
		if decremented {
			continue
		}

		stock, err := g.CatalogStockRepository.FindStock(ctx, item.Kind, item.CatalogItemID)
		if err != nil {
			return err
		}
		if stock == nil {
			return exceptions.ErrCatalogItemNotFound(string(item.Kind), item.CatalogItemID)
		}
		g.Log.Warn("inventoryGateway.Commit insufficient stock",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingCatalogItemKindKey, string(item.Kind)),
			zap.String(constvars.LoggingCatalogItemIDKey, item.CatalogItemID),
			zap.Int(constvars.LoggingQuantityKey, quantity),
		)
		return exceptions.ErrTurnoInsufficientStock(string(item.Kind), item.CatalogItemID, *stock, quantity)
	}
	return nil
}

// Release credits back the approved quantities of a previously approved turno.
func (g *inventoryGateway) Release(ctx context.Context, lineItems []models.TurnoLineItem) error {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)

	for _, item := range lineItems {
		quantity := item.ApprovedOrZero()
		if quantity == 0 {
			continue
		}
		if err := g.CatalogStockRepository.CreditStock(ctx, item.Kind, item.CatalogItemID, quantity); err != nil {
			g.Log.Error("inventoryGateway.Release error calling CatalogStockRepository.CreditStock",
				zap.String(constvars.LoggingRequestIDKey, requestID),
				zap.String(constvars.LoggingCatalogItemIDKey, item.CatalogItemID),
				zap.Error(err),
			)
			return err
		}
	}
	return nil
}

// LockKeys returns one sorted, de-duplicated key per catalog item so every
// caller takes the stock locks in the same order.
func (g *inventoryGateway) LockKeys(lineItems []models.TurnoLineItem) []string {
	seen := make(map[string]struct{}, len(lineItems))
	keys := make([]string, 0, len(lineItems))
	for _, item := range lineItems {
		key := StockLockKey(item.Kind, item.CatalogItemID)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func StockLockKey(kind models.LineItemKind, itemID string) string {
	return constvars.LockKeyTurnoStockPrefix + string(kind) + ":" + itemID
}
