// Package id generates opaque record identifiers.
package id

import (
	"fmt"

	"github.com/google/uuid"
)

// NewID returns a time-ordered UUIDv7 string. Time ordering keeps primary-key
// inserts append-mostly and gives list pagination a stable creation order.
func NewID() (string, error) {
	value, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return value.String(), nil
}
