package bookings

import (
	"errors"
	"testing"
	"time"

	"github.com/jeffgoval/massage/internal/tenants"
)

func testWeek() tenants.WeekSchedule {
	return tenants.WeekSchedule{
		"monday":   {Enabled: true, Start: "10:00", End: "22:00"},
		"saturday": {Enabled: true, Start: "10:00", End: "14:00"},
		"sunday":   {Enabled: false},
	}
}

func TestSlotWithinSchedule(t *testing.T) {
	week := testWeek()

	// 2026-02-02 is a Monday, 2026-02-07 a Saturday, 2026-02-01 a Sunday.
	cases := []struct {
		name     string
		date     string
		time     string
		duration int
		wantErr  error
	}{
		{"monday opening slot", "2026-02-02", "10:00", 60, nil},
		{"monday last fitting slot", "2026-02-02", "21:00", 60, nil},
		{"monday overruns closing", "2026-02-02", "21:30", 60, ErrSlotClosed},
		{"monday before opening", "2026-02-02", "09:00", 60, ErrSlotClosed},
		{"saturday short window", "2026-02-07", "13:00", 60, nil},
		{"saturday overruns", "2026-02-07", "13:30", 60, ErrSlotClosed},
		{"sunday disabled", "2026-02-01", "11:00", 60, ErrSlotClosed},
		{"unknown day entry", "2026-02-03", "11:00", 60, ErrSlotClosed},
		{"bad date", "02/02/2026", "11:00", 60, ErrInvalidDate},
		{"bad time", "2026-02-02", "11h00", 60, ErrInvalidTime},
	}

	for _, tc := range cases {
		err := slotWithinSchedule(week, tc.date, tc.time, tc.duration, time.UTC)
		if !errors.Is(err, tc.wantErr) {
			t.Fatalf("%s: got %v, want %v", tc.name, err, tc.wantErr)
		}
	}
}

func TestSlotIsPast(t *testing.T) {
	now := time.Date(2026, 2, 2, 12, 0, 0, 0, time.UTC)

	past, err := slotIsPast("2026-02-02", "11:00", time.UTC, now)
	if err != nil {
		t.Fatalf("slotIsPast: %v", err)
	}
	if !past {
		t.Fatalf("expected 11:00 to be past at noon")
	}

	past, err = slotIsPast("2026-02-02", "13:00", time.UTC, now)
	if err != nil {
		t.Fatalf("slotIsPast: %v", err)
	}
	if past {
		t.Fatalf("expected 13:00 to be future at noon")
	}
}

func TestOverlaps(t *testing.T) {
	cases := []struct {
		a, b interval
		want bool
	}{
		{interval{600, 660}, interval{630, 690}, true},
		{interval{600, 660}, interval{660, 720}, false},
		{interval{600, 660}, interval{540, 600}, false},
		{interval{600, 660}, interval{610, 650}, true},
	}
	for i, tc := range cases {
		if got := overlaps(tc.a, tc.b); got != tc.want {
			t.Fatalf("case %d: overlaps = %v, want %v", i, got, tc.want)
		}
	}
}

func TestReservedIntervals(t *testing.T) {
	held := []Booking{
		{Time: "10:00", DurationMinutes: 60},
		{Time: "14:30", DurationMinutes: 90},
	}
	got, err := reservedIntervals(held)
	if err != nil {
		t.Fatalf("reservedIntervals: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("interval count = %d, want 2", len(got))
	}
	if got[0] != (interval{600, 660}) || got[1] != (interval{870, 960}) {
		t.Fatalf("unexpected intervals: %v", got)
	}
}
