package models

import "time"

type TurnoStatus string

const (
	TurnoStatusPendiente  TurnoStatus = "pendiente"
	TurnoStatusAprobado   TurnoStatus = "aprobado"
	TurnoStatusRechazado  TurnoStatus = "rechazado"
	TurnoStatusCompletado TurnoStatus = "completado"
	TurnoStatusCancelado  TurnoStatus = "cancelado"
)

// QuotaCountedStatuses are the statuses that consume a requester's monthly quota.
var QuotaCountedStatuses = []TurnoStatus{
	TurnoStatusPendiente,
	TurnoStatusAprobado,
	TurnoStatusCompletado,
}

func (s TurnoStatus) IsTerminal() bool {
	return s == TurnoStatusRechazado || s == TurnoStatusCompletado || s == TurnoStatusCancelado
}

// HoldsSlot reports whether a turno in this status must carry a slot and daily number.
func (s TurnoStatus) HoldsSlot() bool {
	return s == TurnoStatusAprobado || s == TurnoStatusCompletado
}

func (s TurnoStatus) IsValid() bool {
	switch s {
	case TurnoStatusPendiente, TurnoStatusAprobado, TurnoStatusRechazado, TurnoStatusCompletado, TurnoStatusCancelado:
		return true
	}
	return false
}

type Turno struct {
	ID              string          `json:"id"`
	RequesterID     string          `json:"requester_id"`
	DocumentHash    string          `json:"-"`
	Slot            *time.Time      `json:"slot,omitempty"`
	DailyNumber     *int            `json:"daily_number,omitempty"`
	RequestedAt     time.Time       `json:"requested_at"`
	Status          TurnoStatus     `json:"status"`
	RequesterNotes  string          `json:"requester_notes,omitempty"`
	ReviewerNotes   string          `json:"reviewer_notes,omitempty"`
	ReviewerID      string          `json:"reviewer_id,omitempty"`
	ReviewedAt      *time.Time      `json:"reviewed_at,omitempty"`
	DeliveredAt     *time.Time      `json:"delivered_at,omitempty"`
	TicketReference string          `json:"ticket_reference,omitempty"`
	LineItems       []TurnoLineItem `json:"line_items"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Clone returns a deep copy so callers can mutate it without touching shared state.
func (t *Turno) Clone() *Turno {
	if t == nil {
		return nil
	}
	out := *t
	out.Slot = cloneTime(t.Slot)
	out.ReviewedAt = cloneTime(t.ReviewedAt)
	out.DeliveredAt = cloneTime(t.DeliveredAt)
	if t.DailyNumber != nil {
		n := *t.DailyNumber
		out.DailyNumber = &n
	}
	out.LineItems = make([]TurnoLineItem, len(t.LineItems))
	for i, item := range t.LineItems {
		out.LineItems[i] = item.Clone()
	}
	return &out
}

func (t *Turno) IsOwnedBy(actorID string) bool {
	return actorID != "" && t.RequesterID == actorID
}

func (t *Turno) ClearSlot() {
	t.Slot = nil
	t.DailyNumber = nil
}

type TurnoFilter struct {
	RequesterID string
	Status      TurnoStatus
	Page        int
	PageSize    int
}

func (f TurnoFilter) Offset() int {
	if f.Page <= 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
