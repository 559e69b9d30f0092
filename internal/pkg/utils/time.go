package utils

import (
	"farmacia-service/internal/pkg/constvars"
	"time"
)

// StartOfDay returns local midnight of t in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	y, m, d := local.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(constvars.DateLayout)
}

// ParseDay parses a YYYY-MM-DD value as local midnight in loc.
func ParseDay(value string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(constvars.DateLayout, value, loc)
}

// MonthWindow returns the calendar month containing t in loc as [start, end).
func MonthWindow(t time.Time, loc *time.Location) (time.Time, time.Time) {
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0)
}

// SlotDayLockKey is the locker key serialising everything that decides whether
// a day can take another slot.
func SlotDayLockKey(day time.Time, loc *time.Location) string {
	return constvars.LockKeyTurnoSlotDayPrefix + DayKey(day, loc)
}
