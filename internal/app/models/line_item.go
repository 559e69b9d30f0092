package models

type LineItemKind string

const (
	LineItemKindMedicamento LineItemKind = "medicamento"
	LineItemKindInsumo      LineItemKind = "insumo"
)

func (k LineItemKind) IsValid() bool {
	return k == LineItemKindMedicamento || k == LineItemKindInsumo
}

// TurnoLineItem is one requested catalog item of a turno. Medicine and supply
// lines share the same shape and are told apart by Kind.
type TurnoLineItem struct {
	ID                     string       `json:"id"`
	TurnoID                string       `json:"turno_id"`
	Kind                   LineItemKind `json:"kind"`
	CatalogItemID          string       `json:"catalog_item_id"`
	RequestedQuantity      int          `json:"requested_quantity"`
	AvailableWhenRequested bool         `json:"available_when_requested"`
	ApprovedQuantity       *int         `json:"approved_quantity,omitempty"`
}

func (l TurnoLineItem) Clone() TurnoLineItem {
	out := l
	if l.ApprovedQuantity != nil {
		q := *l.ApprovedQuantity
		out.ApprovedQuantity = &q
	}
	return out
}

// ApprovedOrZero returns the approved quantity, treating unset as zero.
func (l TurnoLineItem) ApprovedOrZero() int {
	if l.ApprovedQuantity == nil {
		return 0
	}
	return *l.ApprovedQuantity
}

type CatalogItem struct {
	Kind  LineItemKind `json:"kind"`
	ID    string       `json:"id"`
	Name  string       `json:"name"`
	Stock int          `json:"stock"`
}
