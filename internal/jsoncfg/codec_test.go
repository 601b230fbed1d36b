package jsoncfg

import (
	"errors"
	"strings"
	"testing"
)

type sample struct {
	Enabled  bool `json:"enabled"`
	Modifier int  `json:"modifier"`
}

func TestDecodeRoundTrip(t *testing.T) {
	in := map[string]sample{
		"evening": {Enabled: true, Modifier: 50},
		"morning": {Enabled: false, Modifier: -20},
	}
	raw, err := Encode(in)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	out := Decode(raw, map[string]sample{})
	if len(out) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(out))
	}
	if out["evening"] != in["evening"] || out["morning"] != in["morning"] {
		t.Fatalf("round trip mismatch: %v", out)
	}
}

func TestDecodeMalformedFallsBack(t *testing.T) {
	fallback := []string{"a", "b"}
	for _, raw := range []string{"", "{invalid", "not json"} {
		out := Decode(raw, fallback)
		if len(out) != 2 || out[0] != "a" {
			t.Fatalf("expected fallback for %q, got %v", raw, out)
		}
	}
}

func TestDecodeWrongShapeFallsBack(t *testing.T) {
	out := Decode(`{"k":"v"}`, []string{"default"})
	if len(out) != 1 || out[0] != "default" {
		t.Fatalf("expected fallback for wrong shape, got %v", out)
	}
}

func TestEncodeLimited(t *testing.T) {
	if _, err := EncodeLimited([]string{"ok"}, MaxAmenitiesLen); err != nil {
		t.Fatalf("EncodeLimited error: %v", err)
	}

	big := []string{strings.Repeat("x", MaxAvailabilityLen)}
	_, err := EncodeLimited(big, MaxAvailabilityLen)
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
}
