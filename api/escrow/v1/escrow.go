// Package escrowv1 defines the escrow.v1 wire contract shared by the gRPC
// service, its clients and the HTTP gateway. Amounts travel as decimal
// strings with two fractional digits.
package escrowv1

import "time"

// Booking is the wire form of one booking.
type Booking struct {
	ID                string     `json:"id"`
	VenueID           string     `json:"venue_id"`
	MusicianID        string     `json:"musician_id"`
	AgreedRate        string     `json:"agreed_rate"`
	Currency          string     `json:"currency"`
	GigmateFee        string     `json:"gigmate_fee"`
	MediationFee      string     `json:"mediation_fee"`
	TotalAmount       string     `json:"total_amount"`
	Status            string     `json:"status"`
	VenueConfirmed    bool       `json:"venue_confirmed"`
	MusicianConfirmed bool       `json:"musician_confirmed"`
	VenueRating       *Rating    `json:"venue_rating,omitempty"`
	MusicianRating    *Rating    `json:"musician_rating,omitempty"`
	CanReleaseFunds   bool       `json:"can_release_funds"`
	MediationRequired bool       `json:"mediation_required"`
	PaymentReference  string     `json:"payment_reference,omitempty"`
	CancelledBy       string     `json:"cancelled_by,omitempty"`
	DisputedBy        string     `json:"disputed_by,omitempty"`
	DisputeReason     string     `json:"dispute_reason,omitempty"`
	EventDate         *time.Time `json:"event_date,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	Version           int64      `json:"version"`
}

// Rating is one party's rating of the counterparty.
type Rating struct {
	Stars       int       `json:"stars"`
	Comment     string    `json:"comment,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Fees is a fee breakdown.
type Fees struct {
	GigmateFee   string `json:"gigmate_fee"`
	MediationFee string `json:"mediation_fee"`
	TotalAmount  string `json:"total_amount"`
}

type CreateBookingRequest struct {
	VenueID    string     `json:"venue_id"`
	MusicianID string     `json:"musician_id"`
	AgreedRate string     `json:"agreed_rate"`
	Currency   string     `json:"currency,omitempty"`
	EventDate  *time.Time `json:"event_date,omitempty"`
}

type GetBookingRequest struct {
	BookingID string `json:"booking_id"`
}

type ListBookingsRequest struct {
	Filter    string `json:"filter,omitempty"`
	PageSize  int32  `json:"page_size,omitempty"`
	PageToken string `json:"page_token,omitempty"`
}

type ListBookingsResponse struct {
	Bookings      []Booking `json:"bookings"`
	NextPageToken string    `json:"next_page_token,omitempty"`
}

type AcceptBookingRequest struct {
	BookingID string `json:"booking_id"`
}

type MarkEscrowedRequest struct {
	BookingID        string `json:"booking_id"`
	PaymentReference string `json:"payment_reference"`
}

type CancelBookingRequest struct {
	BookingID string `json:"booking_id"`
	Party     string `json:"party"`
}

type ConfirmBookingRequest struct {
	BookingID string `json:"booking_id"`
	Party     string `json:"party"`
}

type OpenDisputeRequest struct {
	BookingID string `json:"booking_id"`
	Party     string `json:"party"`
	Reason    string `json:"reason"`
}

type SubmitRatingRequest struct {
	BookingID string `json:"booking_id"`
	Party     string `json:"party"`
	Stars     int    `json:"stars"`
	Comment   string `json:"comment,omitempty"`
}

type SubmitRatingResponse struct {
	Booking Booking `json:"booking"`
	// Decision is awaiting_counterparty, release or mediation.
	Decision string `json:"decision"`
}

type ComputeFeesRequest struct {
	AgreedRate        string `json:"agreed_rate"`
	MediationRequired bool   `json:"mediation_required"`
}

type ComputeFeesResponse struct {
	Fees Fees `json:"fees"`
}

// BookingResponse wraps a single booking.
type BookingResponse struct {
	Booking Booking `json:"booking"`
}
