package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/gigmate/gigmate/internal/platform/id"
	"golang.org/x/text/currency"
)

const (
	// MinStars and MaxStars bound a rating.
	MinStars = 1
	MaxStars = 5
	// ReleaseThreshold is the lowest rating that still lets funds release.
	ReleaseThreshold = 4
	// MaxCommentLength caps rating comments and dispute reasons, in runes.
	MaxCommentLength = 2000
	// DefaultCurrency applies when a booking is created without one.
	DefaultCurrency = "USD"
)

// Rating is one party's immutable review of the other party.
type Rating struct {
	Stars       int
	Comment     string
	SubmittedAt time.Time
}

// Booking is one agreed engagement between a venue and a musician.
type Booking struct {
	ID         string
	VenueID    string
	MusicianID string

	AgreedRate   Money
	Currency     string
	GigmateFee   Money
	MediationFee Money
	TotalAmount  Money

	Status            Status
	VenueConfirmed    bool
	MusicianConfirmed bool

	// VenueRating is the venue's rating of the musician; MusicianRating is
	// the musician's rating of the venue.
	VenueRating    *Rating
	MusicianRating *Rating

	CanReleaseFunds   bool
	MediationRequired bool

	PaymentReference string
	CancelledBy      Party
	DisputedBy       Party
	DisputeReason    string

	EventDate time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	// Version increments on every stored write.
	Version int64
}

// Decision is the outcome of evaluating the release rule after a rating.
type Decision int

const (
	// DecisionAwaitingCounterparty means only one party has rated.
	DecisionAwaitingCounterparty Decision = iota
	// DecisionRelease means both ratings cleared the threshold.
	DecisionRelease
	// DecisionMediation means at least one rating fell below the threshold.
	DecisionMediation
)

func (d Decision) String() string {
	switch d {
	case DecisionRelease:
		return "release"
	case DecisionMediation:
		return "mediation"
	default:
		return "awaiting_counterparty"
	}
}

// CreateBookingInput describes the terms a venue proposes to a musician.
type CreateBookingInput struct {
	VenueID    string
	MusicianID string
	AgreedRate Money
	Currency   string
	EventDate  time.Time
}

// NewBooking creates a pending booking with a generated ID and computed fees.
func NewBooking(input CreateBookingInput, now func() time.Time, idGenerator func() (string, error)) (Booking, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	normalized, err := NormalizeCreateBookingInput(input)
	if err != nil {
		return Booking{}, err
	}

	bookingID, err := idGenerator()
	if err != nil {
		return Booking{}, fmt.Errorf("generate booking id: %w", err)
	}

	createdAt := now().UTC()
	fees := ComputeFees(normalized.AgreedRate, false)
	return Booking{
		ID:           bookingID,
		VenueID:      normalized.VenueID,
		MusicianID:   normalized.MusicianID,
		AgreedRate:   normalized.AgreedRate,
		Currency:     normalized.Currency,
		GigmateFee:   fees.GigmateFee,
		MediationFee: fees.MediationFee,
		TotalAmount:  fees.Total,
		Status:       StatusPending,
		EventDate:    normalized.EventDate,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}, nil
}

// NormalizeCreateBookingInput trims and validates booking terms.
func NormalizeCreateBookingInput(input CreateBookingInput) (CreateBookingInput, error) {
	input.VenueID = strings.TrimSpace(input.VenueID)
	input.MusicianID = strings.TrimSpace(input.MusicianID)
	if input.VenueID == "" {
		return CreateBookingInput{}, invalidInput("venue_id", "venue id is required")
	}
	if input.MusicianID == "" {
		return CreateBookingInput{}, invalidInput("musician_id", "musician id is required")
	}
	if input.VenueID == input.MusicianID {
		return CreateBookingInput{}, invalidInput("musician_id", "venue and musician must be different accounts")
	}
	if err := ValidateAgreedRate(input.AgreedRate); err != nil {
		return CreateBookingInput{}, err
	}

	code := strings.ToUpper(strings.TrimSpace(input.Currency))
	if code == "" {
		code = DefaultCurrency
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return CreateBookingInput{}, invalidInput("currency", fmt.Sprintf("currency %q is not an ISO 4217 code", input.Currency))
	}
	input.Currency = unit.String()

	if !input.EventDate.IsZero() {
		input.EventDate = input.EventDate.UTC()
	}
	return input, nil
}

// ValidateAgreedRate rejects rates that are not positive or exceed
// MaxAgreedRate.
func ValidateAgreedRate(rate Money) error {
	if rate <= 0 {
		return invalidInput("agreed_rate", "agreed rate must be positive")
	}
	if rate > MaxAgreedRate {
		return invalidInput("agreed_rate", fmt.Sprintf("agreed rate must not exceed %s", MaxAgreedRate))
	}
	return nil
}

// Fees returns the booking's current fee breakdown.
func (b Booking) Fees() Fees {
	return Fees{GigmateFee: b.GigmateFee, MediationFee: b.MediationFee, Total: b.TotalAmount}
}

// RatingBy returns the rating submitted by party, or nil.
func (b Booking) RatingBy(party Party) *Rating {
	switch party {
	case PartyVenue:
		return b.VenueRating
	case PartyMusician:
		return b.MusicianRating
	default:
		return nil
	}
}

// PartyID returns the account id on the given side of the booking.
func (b Booking) PartyID(party Party) string {
	if party == PartyVenue {
		return b.VenueID
	}
	return b.MusicianID
}

// Accept records the musician's acceptance of the proposed terms.
func (b Booking) Accept(at time.Time) (Booking, error) {
	return b.transition(StatusAccepted, "accept", at)
}

// MarkEscrowed records that the venue's payment was captured and is held.
// Repeating the call with the reference already on file is a no-op so
// payment webhooks can be delivered more than once; changed is false then.
func (b Booking) MarkEscrowed(paymentReference string, at time.Time) (next Booking, changed bool, err error) {
	paymentReference = strings.TrimSpace(paymentReference)
	if paymentReference == "" {
		return b, false, invalidInput("payment_reference", "payment reference is required")
	}
	if b.Status == StatusEscrowed && b.PaymentReference == paymentReference {
		return b, false, nil
	}
	next, err = b.transition(StatusEscrowed, "escrow", at)
	if err != nil {
		return b, false, err
	}
	next.PaymentReference = paymentReference
	return next, true, nil
}

// Cancel ends a booking before any money is captured.
func (b Booking) Cancel(by Party, at time.Time) (Booking, error) {
	if err := validateParty(by); err != nil {
		return b, err
	}
	next, err := b.transition(StatusCancelled, "cancel", at)
	if err != nil {
		return b, err
	}
	next.CancelledBy = by
	return next, nil
}

// Confirm sets the party's confirmation flag. It is allowed once terms are
// accepted and while funds are in escrow, and has no effect on release.
func (b Booking) Confirm(by Party, at time.Time) (next Booking, changed bool, err error) {
	if err := validateParty(by); err != nil {
		return b, false, err
	}
	if b.Status != StatusAccepted && b.Status != StatusEscrowed {
		return b, false, invalidState(b.Status, "confirm")
	}
	next = b
	switch by {
	case PartyVenue:
		if b.VenueConfirmed {
			return b, false, nil
		}
		next.VenueConfirmed = true
	case PartyMusician:
		if b.MusicianConfirmed {
			return b, false, nil
		}
		next.MusicianConfirmed = true
	}
	next.UpdatedAt = at.UTC()
	return next, true, nil
}

// OpenDispute moves escrowed funds out of the rating path and into the
// operations queue.
func (b Booking) OpenDispute(by Party, reason string, at time.Time) (Booking, error) {
	if err := validateParty(by); err != nil {
		return b, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return b, invalidInput("reason", "dispute reason is required")
	}
	if len([]rune(reason)) > MaxCommentLength {
		return b, invalidInput("reason", fmt.Sprintf("dispute reason exceeds %d characters", MaxCommentLength))
	}
	next, err := b.transition(StatusDisputed, "dispute", at)
	if err != nil {
		return b, err
	}
	next.DisputedBy = by
	next.DisputeReason = reason
	return next, nil
}

// SubmitRating records by's rating of the counterparty and evaluates the
// release rule. Checks run in a fixed order (star range, status, duplicate)
// and any rejection returns the receiver unchanged.
func (b Booking) SubmitRating(by Party, stars int, comment string, at time.Time) (Booking, Decision, error) {
	if err := validateParty(by); err != nil {
		return b, DecisionAwaitingCounterparty, err
	}
	if stars < MinStars || stars > MaxStars {
		return b, DecisionAwaitingCounterparty, invalidRating(stars)
	}
	if b.Status != StatusEscrowed {
		return b, DecisionAwaitingCounterparty, invalidState(b.Status, "rate")
	}
	if b.RatingBy(by) != nil {
		return b, DecisionAwaitingCounterparty, alreadyRated(by)
	}
	comment = strings.TrimSpace(comment)
	if len([]rune(comment)) > MaxCommentLength {
		return b, DecisionAwaitingCounterparty, invalidInput("comment", fmt.Sprintf("comment exceeds %d characters", MaxCommentLength))
	}

	next := b
	rating := &Rating{Stars: stars, Comment: comment, SubmittedAt: at.UTC()}
	if by == PartyVenue {
		next.VenueRating = rating
	} else {
		next.MusicianRating = rating
	}
	next.UpdatedAt = at.UTC()

	if next.VenueRating == nil || next.MusicianRating == nil {
		return next, DecisionAwaitingCounterparty, nil
	}

	if next.VenueRating.Stars >= ReleaseThreshold && next.MusicianRating.Stars >= ReleaseThreshold {
		next.CanReleaseFunds = true
		next.Status = StatusCompleted
		return next, DecisionRelease, nil
	}

	next.MediationRequired = true
	next.CanReleaseFunds = false
	fees := ComputeFees(next.AgreedRate, true)
	next.GigmateFee = fees.GigmateFee
	next.MediationFee = fees.MediationFee
	next.TotalAmount = fees.Total
	next.Status = StatusMediation
	return next, DecisionMediation, nil
}

// Validate checks the stored invariants of a booking.
func (b Booking) Validate() error {
	if strings.TrimSpace(b.ID) == "" {
		return fmt.Errorf("booking id is required")
	}
	if b.VenueID == "" || b.MusicianID == "" {
		return fmt.Errorf("booking %s: both parties are required", b.ID)
	}
	if b.AgreedRate <= 0 || b.AgreedRate > MaxAgreedRate {
		return fmt.Errorf("booking %s: agreed rate %s out of range", b.ID, b.AgreedRate)
	}
	if _, err := ParseStatus(string(b.Status)); err != nil {
		return fmt.Errorf("booking %s: %w", b.ID, err)
	}
	if want := ComputeFees(b.AgreedRate, b.MediationRequired); b.Fees() != want {
		return fmt.Errorf("booking %s: fees %+v do not match agreed rate (want %+v)", b.ID, b.Fees(), want)
	}
	for _, rating := range []*Rating{b.VenueRating, b.MusicianRating} {
		if rating != nil && (rating.Stars < MinStars || rating.Stars > MaxStars) {
			return fmt.Errorf("booking %s: rating %d out of range", b.ID, rating.Stars)
		}
	}
	if b.CanReleaseFunds != (b.Status == StatusCompleted) {
		return fmt.Errorf("booking %s: can_release_funds=%t with status %s", b.ID, b.CanReleaseFunds, b.Status)
	}
	if b.Status == StatusMediation && !b.MediationRequired {
		return fmt.Errorf("booking %s: mediation status without mediation_required", b.ID)
	}
	return nil
}

func (b Booking) transition(to Status, operation string, at time.Time) (Booking, error) {
	if !b.Status.CanTransition(to) {
		return b, invalidState(b.Status, operation)
	}
	next := b
	next.Status = to
	next.UpdatedAt = at.UTC()
	return next, nil
}

func validateParty(party Party) error {
	if party != PartyVenue && party != PartyMusician {
		return invalidInput("party", fmt.Sprintf("unknown party %q", party))
	}
	return nil
}
