package services

import (
	"strings"

	"github.com/oklog/ulid/v2"
)

// maxOrderNumberAttempts bounds regeneration after a unique index collision.
const maxOrderNumberAttempts = 5

// OrderNumberGenerator returns a new human-shareable order number per call.
type OrderNumberGenerator func() string

// NewOrderNumberGenerator yields "<prefix>-<ULID>": a millisecond timestamp
// followed by 80 random bits, Crockford base32. Numbers sort by creation time.
func NewOrderNumberGenerator(prefix string) OrderNumberGenerator {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), "-")
	return func() string {
		id := ulid.Make().String()
		if prefix == "" {
			return id
		}
		return prefix + "-" + id
	}
}
