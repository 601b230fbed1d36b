// Package jsoncfg decodes the JSON blobs stored inside fixed-width string
// attributes (photos, amenities, availability, pricing sub-objects). Decoding
// never fails: malformed or empty input yields the caller's fallback.
package jsoncfg

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Maximum encoded sizes of the stored attributes, matching the provisioned
// schema.
const (
	MaxPhotosLen       = 5000
	MaxAmenitiesLen    = 2000
	MaxAvailabilityLen = 1000
	MaxPricingLen      = 5000
)

var ErrPayloadTooLarge = errors.New("encoded payload exceeds field limit")

func Decode[T any](raw string, fallback T) T {
	if raw == "" {
		return fallback
	}
	var out T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return fallback
	}
	return out
}

func Encode(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// EncodeLimited encodes v and rejects results longer than max, so oversized
// blobs fail at the persistence boundary instead of being truncated by the
// store.
func EncodeLimited(v any, max int) (string, error) {
	raw, err := Encode(v)
	if err != nil {
		return "", err
	}
	if max > 0 && len(raw) > max {
		return "", fmt.Errorf("%w: %d > %d", ErrPayloadTooLarge, len(raw), max)
	}
	return raw, nil
}
