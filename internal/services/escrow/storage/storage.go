// Package storage defines persistence contracts for escrow ledger state.
package storage

import (
	"context"
	"errors"

	"github.com/gigmate/gigmate/internal/services/escrow/domain"
)

var (
	// ErrNotFound indicates a requested booking is missing.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists indicates a booking with the same id already exists.
	ErrAlreadyExists = errors.New("record already exists")
	// ErrConflict indicates concurrent writers kept winning the race for a
	// booking until the store gave up.
	ErrConflict = errors.New("concurrent update conflict")
)

// MutateFunc computes the next state of a booking from the state currently
// stored. It may run more than once for a single UpdateBooking call, always
// against freshly read state, so it must not have side effects. Returning
// changed=false commits nothing; returning an error aborts the update and
// leaves the stored row untouched.
type MutateFunc func(current domain.Booking) (next domain.Booking, changed bool, err error)

// ListBookingsQuery selects one page of bookings.
type ListBookingsQuery struct {
	// Filter is an AIP-160 expression; empty matches everything.
	Filter    string
	PageSize  int
	PageToken string
}

// BookingPage stores one page of bookings ordered by id.
type BookingPage struct {
	Bookings      []domain.Booking
	NextPageToken string
}

// BookingStore persists bookings. UpdateBooking is linearizable per booking:
// the mutation is evaluated on the latest committed state and the write only
// lands if no other writer committed in between.
type BookingStore interface {
	CreateBooking(ctx context.Context, booking domain.Booking) (domain.Booking, error)
	GetBooking(ctx context.Context, id string) (domain.Booking, error)
	ListBookings(ctx context.Context, query ListBookingsQuery) (BookingPage, error)
	UpdateBooking(ctx context.Context, id string, mutate MutateFunc) (domain.Booking, error)
	Close() error
}
