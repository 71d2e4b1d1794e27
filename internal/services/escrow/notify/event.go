// Package notify delivers escrow lifecycle events to collaborators outside
// the ledger: the payment service through a Redis stream and the operations
// team through email.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/gigmate/gigmate/internal/services/escrow/domain"
)

// EventType names one committed escrow transition.
type EventType string

const (
	EventBookingCreated    EventType = "booking.created"
	EventBookingAccepted   EventType = "booking.accepted"
	EventBookingEscrowed   EventType = "booking.escrowed"
	EventBookingCancelled  EventType = "booking.cancelled"
	EventBookingConfirmed  EventType = "booking.confirmed"
	EventBookingRated      EventType = "booking.rated"
	EventFundsReleased     EventType = "booking.funds_released"
	EventMediationRequired EventType = "booking.mediation_required"
	EventBookingDisputed   EventType = "booking.disputed"
)

// Event is a snapshot of a booking right after a committed transition.
type Event struct {
	Type         EventType
	BookingID    string
	VenueID      string
	MusicianID   string
	Status       domain.Status
	Currency     string
	AgreedRate   domain.Money
	GigmateFee   domain.Money
	MediationFee domain.Money
	TotalAmount  domain.Money
	// Party is the side that triggered the transition, when there is one.
	Party      domain.Party
	Reason     string
	OccurredAt time.Time
}

// NewEvent snapshots booking for eventType.
func NewEvent(eventType EventType, booking domain.Booking, party domain.Party) Event {
	return Event{
		Type:         eventType,
		BookingID:    booking.ID,
		VenueID:      booking.VenueID,
		MusicianID:   booking.MusicianID,
		Status:       booking.Status,
		Currency:     booking.Currency,
		AgreedRate:   booking.AgreedRate,
		GigmateFee:   booking.GigmateFee,
		MediationFee: booking.MediationFee,
		TotalAmount:  booking.TotalAmount,
		Party:        party,
		Reason:       booking.DisputeReason,
		OccurredAt:   booking.UpdatedAt,
	}
}

// Notifier delivers one event.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// Fanout delivers every event to each notifier in order and joins failures.
type Fanout []Notifier

// Notify implements Notifier.
func (f Fanout) Notify(ctx context.Context, event Event) error {
	var errs []error
	for _, notifier := range f {
		if notifier == nil {
			continue
		}
		if err := notifier.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Noop drops every event.
type Noop struct{}

// Notify implements Notifier.
func (Noop) Notify(context.Context, Event) error { return nil }
