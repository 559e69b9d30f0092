package requests

import "io"

type Pagination struct {
	Page     int
	PageSize int
}

type TurnoLineItem struct {
	Kind          string `json:"kind" validate:"required,oneof=medicamento insumo"`
	CatalogItemID string `json:"catalog_item_id" validate:"required,max=64"`
	Quantity      int    `json:"quantity" validate:"required,gte=1"`
}

type CreateTurno struct {
	RequesterID            string          `json:"-" validate:"required"`
	DocumentIdentification string          `json:"document_identification" validate:"required,max=64"`
	LineItems              []TurnoLineItem `json:"line_items" validate:"required,min=1,dive"`
	Notes                  string          `json:"notes" validate:"max=1000"`
}

type ApprovedLineItem struct {
	LineItemID string `json:"line_item_id" validate:"required"`
	Quantity   int    `json:"quantity" validate:"gte=0"`
}

type ApproveTurno struct {
	TurnoID           string             `json:"-" validate:"required"`
	ReviewerID        string             `json:"-" validate:"required"`
	ApprovedLineItems []ApprovedLineItem `json:"approved_line_items" validate:"dive"`
	Comments          string             `json:"comments" validate:"max=1000"`
}

type RejectTurno struct {
	TurnoID    string `json:"-" validate:"required"`
	ReviewerID string `json:"-" validate:"required"`
	Reason     string `json:"reason" validate:"required,not_blank,max=1000"`
}

type CancelTurno struct {
	TurnoID   string `json:"-" validate:"required"`
	ActorID   string `json:"-" validate:"required"`
	ActorRole string `json:"-"`
	Reason    string `json:"reason" validate:"max=1000"`
}

type CompleteTurno struct {
	TurnoID string `json:"-" validate:"required"`
	ActorID string `json:"-"`
}

type SetTicketReference struct {
	TurnoID         string `json:"-" validate:"required"`
	TicketReference string `json:"ticket_reference" validate:"required,max=512"`
}

type ListTurnos struct {
	RequesterID string `validate:"omitempty"`
	Status      string `validate:"omitempty,oneof=pendiente aprobado rechazado completado cancelado"`
	Pagination
}

type AttachDocument struct {
	TurnoID     string    `validate:"required"`
	ActorID     string    `validate:"required"`
	ActorRole   string    `validate:"omitempty"`
	Category    string    `validate:"required,max=64"`
	FileName    string    `validate:"required"`
	ContentType string    `validate:"omitempty"`
	Size        int64     `validate:"gte=1"`
	File        io.Reader `validate:"required"`
}
