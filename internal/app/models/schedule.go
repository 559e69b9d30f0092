package models

import "time"

type QuotaDecision struct {
	Allowed     bool      `json:"allowed"`
	Reason      string    `json:"reason,omitempty"`
	Used        int       `json:"used"`
	Limit       int       `json:"limit"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
}

type SlotCapacity struct {
	Date         string     `json:"date"`
	Eligible     bool       `json:"eligible"`
	Blocked      bool       `json:"blocked"`
	Capacity     int        `json:"capacity"`
	Occupied     int        `json:"occupied"`
	Free         int        `json:"free"`
	NextFreeSlot *time.Time `json:"next_free_slot,omitempty"`
}

// SlotReservation is a slot chosen under the per-day lock. Release must be
// called once the enclosing transaction has finished.
type SlotReservation struct {
	Slot    time.Time
	Day     time.Time
	Release func()
}
