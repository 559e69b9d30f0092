package queries

const (
	GetCatalogItemStock = `
		SELECT stock
		FROM catalog_items
		WHERE kind = $1 AND id = $2
	`

	// DecrementCatalogItemStock only matches while enough stock is left.
	DecrementCatalogItemStock = `
		UPDATE catalog_items
		SET stock = stock - $3, updated_at = NOW()
		WHERE kind = $1 AND id = $2 AND stock >= $3
	`

	CreditCatalogItemStock = `
		UPDATE catalog_items
		SET stock = stock + $3, updated_at = NOW()
		WHERE kind = $1 AND id = $2
	`
)
