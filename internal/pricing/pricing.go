// Package pricing resolves a tenant's price for a given instant from the
// base price plus time-of-day and day-of-week modifier tables.
package pricing

import (
	"time"

	"github.com/jeffgoval/massage/internal/jsoncfg"
)

// DefaultBasePrice is the price used when a tenant has neither a pricing
// config nor an active package. Whole currency units.
const DefaultBasePrice = 300

const (
	PeriodMorning   = "morning"
	PeriodAfternoon = "afternoon"
	PeriodEvening   = "evening"
	PeriodLateNight = "lateNight"
)

// Modifier is one cell of the periods/weekdays tables. Enabled gates whether
// the modifier applies; it does not gate storage.
type Modifier struct {
	Enabled  bool `json:"enabled"`
	Modifier int  `json:"modifier"`
}

type Table map[string]Modifier

// Config is the stored pricing_configs document. Periods and Weekdays hold
// JSON-encoded Tables; malformed blobs decode to empty tables.
type Config struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	TenantID  string    `bson:"tenant_id" json:"tenantId"`
	BasePrice int       `bson:"basePrice" json:"basePrice"`
	Periods   string    `bson:"periods" json:"periods"`
	Weekdays  string    `bson:"weekdays" json:"weekdays"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// PackagePrice is the slice of a service package the resolver needs.
// PriceCents is in minor units; resolved prices are whole units.
type PackagePrice struct {
	PriceCents int
	Active     bool
}

var weekdayKeys = map[time.Weekday]string{
	time.Sunday:    "sunday",
	time.Monday:    "monday",
	time.Tuesday:   "tuesday",
	time.Wednesday: "wednesday",
	time.Thursday:  "thursday",
	time.Friday:    "friday",
	time.Saturday:  "saturday",
}

// PeriodFor maps a local hour to its period. Intervals are half-open;
// the boundary hour belongs to the later period.
func PeriodFor(hour int) string {
	switch {
	case hour >= 6 && hour < 12:
		return PeriodMorning
	case hour >= 12 && hour < 18:
		return PeriodAfternoon
	case hour >= 18 && hour < 24:
		return PeriodEvening
	default:
		return PeriodLateNight
	}
}

// WeekdayKey returns the table key for a weekday.
func WeekdayKey(d time.Weekday) string {
	return weekdayKeys[d]
}

// Resolve computes the price at now. It is total: any input, including a nil
// config or malformed tables, yields a usable number. Negative results clamp
// to zero.
func Resolve(cfg *Config, packages []PackagePrice, now time.Time) int {
	if cfg == nil {
		return fallbackPrice(packages)
	}

	periods := jsoncfg.Decode(cfg.Periods, Table{})
	weekdays := jsoncfg.Decode(cfg.Weekdays, Table{})

	base := cfg.BasePrice
	if base == 0 {
		base = DefaultBasePrice
	}

	price := base
	if m, ok := periods[PeriodFor(now.Hour())]; ok && m.Enabled {
		price += m.Modifier
	}
	if m, ok := weekdays[WeekdayKey(now.Weekday())]; ok && m.Enabled {
		price += m.Modifier
	}

	if price < 0 {
		price = 0
	}
	return price
}

func fallbackPrice(packages []PackagePrice) int {
	min := 0
	found := false
	for _, p := range packages {
		if !p.Active {
			continue
		}
		whole := p.PriceCents / 100
		if !found || whole < min {
			min = whole
			found = true
		}
	}
	if !found {
		return DefaultBasePrice
	}
	return min
}
