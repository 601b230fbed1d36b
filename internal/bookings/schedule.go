package bookings

import (
	"errors"
	"strings"
	"time"

	"github.com/jeffgoval/massage/internal/tenants"
)

var (
	ErrInvalidDate = errors.New("invalid date format")
	ErrInvalidTime = errors.New("invalid time format")
	ErrSlotPast    = errors.New("slot is in the past")
	ErrSlotClosed  = errors.New("slot outside working hours")
	ErrSlotTaken   = errors.New("slot already booked")
)

func parseDate(dateStr string, loc *time.Location) (time.Time, error) {
	date, err := time.ParseInLocation("2006-01-02", dateStr, loc)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return date, nil
}

func parseDateTime(dateStr, timeStr string, loc *time.Location) (time.Time, error) {
	if _, err := time.Parse("15:04", timeStr); err != nil {
		return time.Time{}, ErrInvalidTime
	}
	if _, err := parseDate(dateStr, loc); err != nil {
		return time.Time{}, err
	}
	parsed, err := time.ParseInLocation("2006-01-02 15:04", dateStr+" "+timeStr, loc)
	if err != nil {
		return time.Time{}, ErrInvalidTime
	}
	return parsed, nil
}

func parseClockToMinutes(timeStr string) (int, error) {
	tm, err := time.Parse("15:04", timeStr)
	if err != nil {
		return 0, ErrInvalidTime
	}
	return tm.Hour()*60 + tm.Minute(), nil
}

func dayKey(day time.Weekday) string {
	return strings.ToLower(day.String())
}

// slotWithinSchedule checks the slot against the tenant's own week schedule:
// the day must be enabled and [slot, slot+duration] must fit inside the
// day's working window.
func slotWithinSchedule(week tenants.WeekSchedule, dateStr, timeStr string, duration int, loc *time.Location) error {
	date, err := parseDate(dateStr, loc)
	if err != nil {
		return err
	}
	day, ok := week[dayKey(date.Weekday())]
	if !ok || !day.Enabled {
		return ErrSlotClosed
	}

	slotMin, err := parseClockToMinutes(timeStr)
	if err != nil {
		return err
	}
	startMin, err := parseClockToMinutes(day.Start)
	if err != nil {
		return ErrSlotClosed
	}
	endMin, err := parseClockToMinutes(day.End)
	if err != nil {
		return ErrSlotClosed
	}
	if slotMin < startMin || slotMin+duration > endMin {
		return ErrSlotClosed
	}
	return nil
}

func slotIsPast(dateStr, timeStr string, loc *time.Location, now time.Time) (bool, error) {
	slot, err := parseDateTime(dateStr, timeStr, loc)
	if err != nil {
		return false, err
	}
	return !slot.After(now.In(loc)), nil
}

type interval struct {
	start int
	end   int
}

func overlaps(a, b interval) bool {
	return a.start < b.end && b.start < a.end
}

// reservedIntervals maps held bookings on a date to minute intervals.
// Cancelled bookings release their slot.
func reservedIntervals(held []Booking) ([]interval, error) {
	out := make([]interval, 0, len(held))
	for _, b := range held {
		start, err := parseClockToMinutes(b.Time)
		if err != nil {
			return nil, err
		}
		out = append(out, interval{start: start, end: start + b.DurationMinutes})
	}
	return out, nil
}
