package slot

import (
	"errors"
	"farmacia-service/internal/app/config"
	"farmacia-service/internal/pkg/constvars"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Schedule is the validated weekly pickup recurrence.
type Schedule struct {
	plan          weeklyPlan
	slotMinutes   int
	bufferMinutes int
	dailyCapacity int
	horizonDays   int
	loc           *time.Location
}

// NewSchedule validates the schedule configuration. It fails fast on the first
// invalid value so a misconfigured service never starts handing out slots.
func NewSchedule(cfg config.AppSchedule, loc *time.Location) (*Schedule, error) {
	if loc == nil {
		return nil, errors.New("schedule: timezone is required")
	}
	start, ok := parseClockFlex(cfg.WindowStart)
	if !ok {
		return nil, fmt.Errorf("schedule: invalid window start '%s'", cfg.WindowStart)
	}
	end, ok := parseClockFlex(cfg.WindowEnd)
	if !ok {
		return nil, fmt.Errorf("schedule: invalid window end '%s'", cfg.WindowEnd)
	}
	if !validWindow(start, end) {
		return nil, fmt.Errorf("schedule: start >= end (%02d:%02d >= %02d:%02d)", start.H, start.M, end.H, end.M)
	}
	if cfg.SlotMinutes <= 0 {
		return nil, fmt.Errorf("schedule: invalid slot minutes: %d", cfg.SlotMinutes)
	}
	if cfg.SlotBufferMinutes < 0 {
		return nil, fmt.Errorf("schedule: invalid buffer minutes: %d", cfg.SlotBufferMinutes)
	}
	if cfg.DailyCapacity <= 0 {
		return nil, fmt.Errorf("schedule: invalid daily capacity: %d", cfg.DailyCapacity)
	}
	if cfg.HorizonDays <= 0 {
		return nil, fmt.Errorf("schedule: invalid horizon days: %d", cfg.HorizonDays)
	}

	var wp weeklyPlan
	w := dayWindow{Start: start, End: end}
	for _, tok := range cfg.Weekdays {
		mapped := mapDayToken(tok)
		if len(mapped) == 0 {
			return nil, fmt.Errorf("schedule: unknown day token '%s'", tok)
		}
		for _, wd := range mapped {
			appendWindow(&wp, wd, w)
		}
	}
	if wp.isEmpty() {
		return nil, errors.New("schedule: no eligible weekdays configured")
	}

	return &Schedule{
		plan:          wp,
		slotMinutes:   cfg.SlotMinutes,
		bufferMinutes: cfg.SlotBufferMinutes,
		dailyCapacity: cfg.DailyCapacity,
		horizonDays:   cfg.HorizonDays,
		loc:           loc,
	}, nil
}

func (s *Schedule) Location() *time.Location {
	return s.loc
}

func (s *Schedule) HorizonDays() int {
	return s.horizonDays
}

// slotsOn returns the candidate slots of day in chronological order. Ineligible
// weekdays have none.
func (s *Schedule) slotsOn(day time.Time) []interval {
	return generateSlotsForDayWindows(day, s.loc, s.plan.forWeekday(day.In(s.loc).Weekday()), s.slotMinutes, s.bufferMinutes)
}

// capacityOn is the number of turnos day can hold: the daily cap, bounded by
// the number of slots the windows produce.
func (s *Schedule) capacityOn(day time.Time) int {
	n := len(s.slotsOn(day))
	if n > s.dailyCapacity {
		return s.dailyCapacity
	}
	return n
}

// dayAt returns local midnight of the day offset days after day.
func (s *Schedule) dayAt(day time.Time, offset int) time.Time {
	d := day.In(s.loc)
	y, m, dd := d.Date()
	return time.Date(y, m, dd+offset, 0, 0, 0, 0, s.loc)
}

func parseClockFlex(s string) (clock, bool) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ".", ":")
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return clock{}, false
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || h < 0 || h > 24 || m < 0 || m > 59 || (h == 24 && m != 0) {
		return clock{}, false
	}
	return clock{H: h, M: m}, true
}

func validWindow(a, b clock) bool {
	return a.minutes() < b.minutes()
}

func mapDayToken(s string) []time.Weekday {
	t := strings.ToLower(strings.TrimSpace(s))
	switch t {
	case "mon", "monday", "lun", "lunes":
		return []time.Weekday{time.Monday}
	case "tue", "tues", "tuesday", "mar", "martes":
		return []time.Weekday{time.Tuesday}
	case "wed", "wednesday", "mie", "miercoles", "miércoles":
		return []time.Weekday{time.Wednesday}
	case "thu", "thur", "thurs", "thursday", "jue", "jueves":
		return []time.Weekday{time.Thursday}
	case "fri", "friday", "vie", "viernes":
		return []time.Weekday{time.Friday}
	case "sat", "saturday", "sab", "sabado", "sábado":
		return []time.Weekday{time.Saturday}
	case "sun", "sunday", "dom", "domingo":
		return []time.Weekday{time.Sunday}
	}
	return nil
}

func appendWindow(wp *weeklyPlan, wd time.Weekday, w dayWindow) {
	switch wd {
	case time.Monday:
		wp.Monday = append(wp.Monday, w)
	case time.Tuesday:
		wp.Tuesday = append(wp.Tuesday, w)
	case time.Wednesday:
		wp.Wednesday = append(wp.Wednesday, w)
	case time.Thursday:
		wp.Thursday = append(wp.Thursday, w)
	case time.Friday:
		wp.Friday = append(wp.Friday, w)
	case time.Saturday:
		wp.Saturday = append(wp.Saturday, w)
	case time.Sunday:
		wp.Sunday = append(wp.Sunday, w)
	}
}

// generateSlotsBetween produces fixed-length slots within [start,end) with a configurable buffer gap.
// Each slot has duration = slotMinutes; consecutive starts are spaced by slotMinutes + bufferMinutes.
// Any candidate whose end exceeds 'end' is dropped.
func generateSlotsBetween(start, end time.Time, slotMinutes, bufferMinutes int) []interval {
	if slotMinutes <= 0 {
		return nil
	}
	step := time.Duration(slotMinutes+bufferMinutes) * time.Minute
	lenSlot := time.Duration(slotMinutes) * time.Minute
	var out []interval
	for t := start; ; t = t.Add(step) {
		if t.Add(lenSlot).After(end) {
			break
		}
		out = append(out, interval{Start: t, End: t.Add(lenSlot)})
	}
	return out
}

// generateSlotsForDayWindows generates slots for all provided windows on a specific local day.
// Windows are independent; no slot crosses a window boundary.
func generateSlotsForDayWindows(day time.Time, tz *time.Location, windows []dayWindow, slotMinutes, bufferMinutes int) []interval {
	if tz == nil {
		tz = time.Local
	}
	var out []interval
	for _, w := range windows {
		dayStart := atClock(day, w.Start.H, w.Start.M, tz)
		dayEnd := atClock(day, w.End.H, w.End.M, tz)
		out = append(out, generateSlotsBetween(dayStart, dayEnd, slotMinutes, bufferMinutes)...)
	}
	return out
}

// atClock returns the time on 'day' at hour:minute in the given timezone.
func atClock(day time.Time, h, m int, loc *time.Location) time.Time {
	d := day.In(loc)
	y, mo, dd := d.Date()
	return time.Date(y, mo, dd, h, m, 0, 0, loc)
}

// groupSlotsByLocalDay returns a map from local calendar date (YYYY-MM-DD in loc)
// to the set of occupied slot starts on that date.
func groupSlotsByLocalDay(slots []time.Time, loc *time.Location) map[string]map[int64]struct{} {
	out := make(map[string]map[int64]struct{})
	for _, s := range slots {
		dayKey := s.In(loc).Format(constvars.DateLayout)
		if out[dayKey] == nil {
			out[dayKey] = make(map[int64]struct{})
		}
		out[dayKey][s.Unix()] = struct{}{}
	}
	return out
}
