package pricing

import (
	"testing"
	"time"
)

func mustEncode(t *testing.T, table Table) string {
	t.Helper()
	raw, err := encodeTable(table)
	if err != nil {
		t.Fatalf("encode table: %v", err)
	}
	return raw
}

func TestPeriodBoundaries(t *testing.T) {
	cases := []struct {
		hour   int
		period string
	}{
		{0, PeriodLateNight},
		{5, PeriodLateNight},
		{6, PeriodMorning},
		{11, PeriodMorning},
		{12, PeriodAfternoon},
		{17, PeriodAfternoon},
		{18, PeriodEvening},
		{23, PeriodEvening},
	}
	for _, c := range cases {
		if got := PeriodFor(c.hour); got != c.period {
			t.Fatalf("hour %d: expected %s, got %s", c.hour, c.period, got)
		}
	}
}

func TestResolveEveningFriday(t *testing.T) {
	cfg := &Config{
		TenantID:  "t1",
		BasePrice: 300,
		Periods:   mustEncode(t, Table{PeriodEvening: {Enabled: true, Modifier: 50}}),
		Weekdays:  mustEncode(t, Table{"friday": {Enabled: true, Modifier: 50}}),
	}

	// 2026-01-02 is a Friday.
	now := time.Date(2026, 1, 2, 19, 0, 0, 0, time.UTC)
	if got := Resolve(cfg, nil, now); got != 400 {
		t.Fatalf("expected 400, got %d", got)
	}
}

func TestResolveDisabledModifierIgnored(t *testing.T) {
	now := time.Date(2026, 1, 2, 19, 0, 0, 0, time.UTC)
	for _, modifier := range []int{-500, 0, 75, 9999} {
		cfg := &Config{
			BasePrice: 300,
			Periods:   mustEncode(t, Table{PeriodEvening: {Enabled: false, Modifier: modifier}}),
			Weekdays:  mustEncode(t, Table{"friday": {Enabled: false, Modifier: modifier}}),
		}
		if got := Resolve(cfg, nil, now); got != 300 {
			t.Fatalf("modifier %d: expected 300, got %d", modifier, got)
		}
	}
}

func TestResolveMalformedTablesFallBack(t *testing.T) {
	cfg := &Config{
		BasePrice: 250,
		Periods:   "{invalid",
		Weekdays:  "also not json",
	}
	now := time.Date(2026, 1, 2, 19, 0, 0, 0, time.UTC)
	if got := Resolve(cfg, nil, now); got != 250 {
		t.Fatalf("expected base price only, got %d", got)
	}
}

func TestResolveNoConfigFallsBackToPackages(t *testing.T) {
	packages := []PackagePrice{
		{PriceCents: 35000, Active: true},
		{PriceCents: 20000, Active: true},
		{PriceCents: 5000, Active: false},
	}
	now := time.Now()
	if got := Resolve(nil, packages, now); got != 200 {
		t.Fatalf("expected cheapest active package (200), got %d", got)
	}
}

func TestResolveNoConfigNoPackages(t *testing.T) {
	if got := Resolve(nil, nil, time.Now()); got != DefaultBasePrice {
		t.Fatalf("expected default base price, got %d", got)
	}
}

func TestResolveClampsToZero(t *testing.T) {
	cfg := &Config{
		BasePrice: 100,
		Periods:   mustEncode(t, Table{PeriodLateNight: {Enabled: true, Modifier: -400}}),
	}
	now := time.Date(2026, 1, 2, 3, 0, 0, 0, time.UTC)
	if got := Resolve(cfg, nil, now); got != 0 {
		t.Fatalf("expected clamp to 0, got %d", got)
	}
}

func TestResolveZeroBaseUsesDefault(t *testing.T) {
	cfg := &Config{TenantID: "t1"}
	now := time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)
	if got := Resolve(cfg, nil, now); got != DefaultBasePrice {
		t.Fatalf("expected default base price, got %d", got)
	}
}
