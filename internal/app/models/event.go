package models

import "time"

const (
	EventTypeTurnoApproved      = "turno.approved"
	EventTypeTurnoStatusChanged = "turno.status_changed"
)

type TurnoApprovedEvent struct {
	EventType   string                  `json:"event_type"`
	TurnoID     string                  `json:"turno_id"`
	RequesterID string                  `json:"requester_id"`
	Slot        time.Time               `json:"slot"`
	DailyNumber int                     `json:"daily_number"`
	LineItems   []TurnoApprovedLineItem `json:"line_items"`
	At          time.Time               `json:"at"`
}

type TurnoApprovedLineItem struct {
	Kind             LineItemKind `json:"kind"`
	CatalogItemID    string       `json:"catalog_item_id"`
	ApprovedQuantity int          `json:"approved_quantity"`
}

type TurnoStatusChangedEvent struct {
	EventType   string      `json:"event_type"`
	TurnoID     string      `json:"turno_id"`
	RequesterID string      `json:"requester_id"`
	OldStatus   TurnoStatus `json:"old_status"`
	NewStatus   TurnoStatus `json:"new_status"`
	At          time.Time   `json:"at"`
}

func NewTurnoApprovedEvent(turno *Turno, at time.Time) TurnoApprovedEvent {
	event := TurnoApprovedEvent{
		EventType:   EventTypeTurnoApproved,
		TurnoID:     turno.ID,
		RequesterID: turno.RequesterID,
		At:          at,
	}
	if turno.Slot != nil {
		event.Slot = *turno.Slot
	}
	if turno.DailyNumber != nil {
		event.DailyNumber = *turno.DailyNumber
	}
	for _, item := range turno.LineItems {
		event.LineItems = append(event.LineItems, TurnoApprovedLineItem{
			Kind:             item.Kind,
			CatalogItemID:    item.CatalogItemID,
			ApprovedQuantity: item.ApprovedOrZero(),
		})
	}
	return event
}

func NewTurnoStatusChangedEvent(turno *Turno, oldStatus TurnoStatus, at time.Time) TurnoStatusChangedEvent {
	return TurnoStatusChangedEvent{
		EventType:   EventTypeTurnoStatusChanged,
		TurnoID:     turno.ID,
		RequesterID: turno.RequesterID,
		OldStatus:   oldStatus,
		NewStatus:   turno.Status,
		At:          at,
	}
}
