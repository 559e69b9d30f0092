package models

import "time"

type BlockedDate struct {
	Date      time.Time `json:"date"`
	Reason    string    `json:"reason"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

func (b BlockedDate) DayKey() string {
	return b.Date.Format("2006-01-02")
}
