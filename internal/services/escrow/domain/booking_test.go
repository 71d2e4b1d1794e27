package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	apperrors "github.com/gigmate/gigmate/internal/platform/errors"
)

var fixedNow = time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func fixedID(value string) func() (string, error) {
	return func() (string, error) { return value, nil }
}

func newEscrowedBooking(t *testing.T, rate Money) Booking {
	t.Helper()
	booking, err := NewBooking(CreateBookingInput{
		VenueID:    "venue-1",
		MusicianID: "musician-1",
		AgreedRate: rate,
	}, fixedClock, fixedID("booking-1"))
	if err != nil {
		t.Fatalf("new booking: %v", err)
	}
	booking, err = booking.Accept(fixedNow)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	booking, _, err = booking.MarkEscrowed("pay-1", fixedNow)
	if err != nil {
		t.Fatalf("escrow: %v", err)
	}
	return booking
}

func TestNewBooking(t *testing.T) {
	booking, err := NewBooking(CreateBookingInput{
		VenueID:    " venue-1 ",
		MusicianID: "musician-1",
		AgreedRate: 50000,
		Currency:   "brl",
	}, fixedClock, fixedID("booking-1"))
	if err != nil {
		t.Fatalf("NewBooking: %v", err)
	}
	if booking.ID != "booking-1" || booking.VenueID != "venue-1" {
		t.Fatalf("booking = %+v", booking)
	}
	if booking.Status != StatusPending {
		t.Fatalf("status = %s, want pending", booking.Status)
	}
	if booking.Currency != "BRL" {
		t.Fatalf("currency = %q, want BRL", booking.Currency)
	}
	if booking.GigmateFee != 5000 || booking.MediationFee != 0 || booking.TotalAmount != 55000 {
		t.Fatalf("fees = %+v", booking.Fees())
	}
	if !booking.CreatedAt.Equal(fixedNow) || !booking.UpdatedAt.Equal(fixedNow) {
		t.Fatalf("timestamps = %v / %v", booking.CreatedAt, booking.UpdatedAt)
	}
	if err := booking.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestNewBookingDefaultsCurrency(t *testing.T) {
	booking, err := NewBooking(CreateBookingInput{VenueID: "v", MusicianID: "m", AgreedRate: 1}, fixedClock, fixedID("b"))
	if err != nil {
		t.Fatalf("NewBooking: %v", err)
	}
	if booking.Currency != DefaultCurrency {
		t.Fatalf("currency = %q", booking.Currency)
	}
}

func TestNewBookingRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		input CreateBookingInput
	}{
		{name: "missing venue", input: CreateBookingInput{MusicianID: "m", AgreedRate: 100}},
		{name: "missing musician", input: CreateBookingInput{VenueID: "v", AgreedRate: 100}},
		{name: "same party", input: CreateBookingInput{VenueID: "x", MusicianID: "x", AgreedRate: 100}},
		{name: "zero rate", input: CreateBookingInput{VenueID: "v", MusicianID: "m"}},
		{name: "negative rate", input: CreateBookingInput{VenueID: "v", MusicianID: "m", AgreedRate: -1}},
		{name: "rate past fee bound", input: CreateBookingInput{VenueID: "v", MusicianID: "m", AgreedRate: MaxAgreedRate + 1}},
		{name: "bad currency", input: CreateBookingInput{VenueID: "v", MusicianID: "m", AgreedRate: 100, Currency: "dollars"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBooking(tt.input, fixedClock, fixedID("b"))
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("err = %v, want invalid input", err)
			}
		})
	}
}

func TestNewBookingPropagatesIDError(t *testing.T) {
	boom := errors.New("entropy exhausted")
	_, err := NewBooking(CreateBookingInput{VenueID: "v", MusicianID: "m", AgreedRate: 100}, fixedClock, func() (string, error) {
		return "", boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

func TestReleaseRuleGrid(t *testing.T) {
	for venueStars := MinStars; venueStars <= MaxStars; venueStars++ {
		for musicianStars := MinStars; musicianStars <= MaxStars; musicianStars++ {
			t.Run(fmt.Sprintf("venue_%d_musician_%d", venueStars, musicianStars), func(t *testing.T) {
				booking := newEscrowedBooking(t, 50000)

				booking, decision, err := booking.SubmitRating(PartyVenue, venueStars, "", fixedNow)
				if err != nil {
					t.Fatalf("venue rating: %v", err)
				}
				if decision != DecisionAwaitingCounterparty || booking.Status != StatusEscrowed || booking.CanReleaseFunds {
					t.Fatalf("after one rating: decision=%s status=%s release=%t", decision, booking.Status, booking.CanReleaseFunds)
				}
				if booking.Fees() != ComputeFees(50000, false) {
					t.Fatalf("fees changed after one rating: %+v", booking.Fees())
				}

				booking, decision, err = booking.SubmitRating(PartyMusician, musicianStars, "", fixedNow)
				if err != nil {
					t.Fatalf("musician rating: %v", err)
				}
				release := venueStars >= ReleaseThreshold && musicianStars >= ReleaseThreshold
				if booking.CanReleaseFunds != release {
					t.Fatalf("can_release_funds = %t, want %t", booking.CanReleaseFunds, release)
				}
				if release {
					if decision != DecisionRelease || booking.Status != StatusCompleted || booking.MediationRequired {
						t.Fatalf("decision=%s status=%s mediation=%t", decision, booking.Status, booking.MediationRequired)
					}
					if booking.TotalAmount != 55000 {
						t.Fatalf("total = %s, want 550.00", booking.TotalAmount)
					}
				} else {
					if decision != DecisionMediation || booking.Status != StatusMediation || !booking.MediationRequired {
						t.Fatalf("decision=%s status=%s mediation=%t", decision, booking.Status, booking.MediationRequired)
					}
					if booking.MediationFee != 5000 || booking.TotalAmount != 60000 {
						t.Fatalf("fees = %+v, want mediation 50.00 total 600.00", booking.Fees())
					}
				}
				if err := booking.Validate(); err != nil {
					t.Fatalf("Validate: %v", err)
				}
			})
		}
	}
}

func TestSubmitRatingScenarioMutualHighRatings(t *testing.T) {
	booking := newEscrowedBooking(t, 50000)
	booking, _, _ = booking.SubmitRating(PartyVenue, 5, "great set", fixedNow)
	booking, _, err := booking.SubmitRating(PartyMusician, 4, "good sound", fixedNow)
	if err != nil {
		t.Fatalf("SubmitRating: %v", err)
	}
	if !booking.CanReleaseFunds || booking.Status != StatusCompleted || booking.TotalAmount != 55000 {
		t.Fatalf("booking = %+v", booking)
	}
	if booking.VenueRating.Comment != "great set" || booking.MusicianRating.Comment != "good sound" {
		t.Fatalf("comments = %q / %q", booking.VenueRating.Comment, booking.MusicianRating.Comment)
	}
}

func TestSubmitRatingScenarioLowRatingRoutesToMediation(t *testing.T) {
	booking := newEscrowedBooking(t, 50000)
	booking, _, _ = booking.SubmitRating(PartyVenue, 5, "", fixedNow)
	booking, _, err := booking.SubmitRating(PartyMusician, 3, "", fixedNow)
	if err != nil {
		t.Fatalf("SubmitRating: %v", err)
	}
	if !booking.MediationRequired || booking.MediationFee != 5000 || booking.TotalAmount != 60000 || booking.Status != StatusMediation {
		t.Fatalf("booking = %+v", booking)
	}
	if booking.CanReleaseFunds {
		t.Fatal("funds must not release in mediation")
	}
}

func TestSubmitRatingScenarioDuplicateRating(t *testing.T) {
	booking := newEscrowedBooking(t, 50000)
	booking, _, _ = booking.SubmitRating(PartyVenue, 5, "", fixedNow)
	next, _, err := booking.SubmitRating(PartyVenue, 4, "", fixedNow)
	if !errors.Is(err, ErrAlreadyRated) {
		t.Fatalf("err = %v, want already rated", err)
	}
	if next.VenueRating.Stars != 5 || next.MusicianRating != nil || next.Status != StatusEscrowed {
		t.Fatalf("booking changed after rejection: %+v", next)
	}
}

func TestSubmitRatingScenarioRatingBeforeEscrow(t *testing.T) {
	booking, err := NewBooking(CreateBookingInput{VenueID: "v", MusicianID: "m", AgreedRate: 50000}, fixedClock, fixedID("b"))
	if err != nil {
		t.Fatalf("NewBooking: %v", err)
	}
	booking, _ = booking.Accept(fixedNow)
	next, _, err := booking.SubmitRating(PartyVenue, 5, "", fixedNow)
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("err = %v, want invalid state", err)
	}
	if next.Status != StatusAccepted || next.VenueRating != nil {
		t.Fatalf("booking changed after rejection: %+v", next)
	}
}

func TestSubmitRatingValidationOrder(t *testing.T) {
	escrowed := newEscrowedBooking(t, 50000)
	rated, _, _ := escrowed.SubmitRating(PartyVenue, 5, "", fixedNow)
	pending, _ := NewBooking(CreateBookingInput{VenueID: "v", MusicianID: "m", AgreedRate: 100}, fixedClock, fixedID("b"))

	tests := []struct {
		name    string
		booking Booking
		stars   int
		want    error
	}{
		{name: "bad stars beats bad state", booking: pending, stars: 0, want: ErrInvalidRating},
		{name: "bad stars beats duplicate", booking: rated, stars: 6, want: ErrInvalidRating},
		{name: "bad state", booking: pending, stars: 5, want: ErrInvalidState},
		{name: "duplicate", booking: rated, stars: 5, want: ErrAlreadyRated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := tt.booking.SubmitRating(PartyVenue, tt.stars, "", fixedNow)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSubmitRatingRejectedAfterDecision(t *testing.T) {
	booking := newEscrowedBooking(t, 50000)
	booking, _, _ = booking.SubmitRating(PartyVenue, 2, "", fixedNow)
	booking, _, _ = booking.SubmitRating(PartyMusician, 2, "", fixedNow)
	if booking.Status != StatusMediation {
		t.Fatalf("status = %s", booking.Status)
	}
	if _, _, err := booking.SubmitRating(PartyVenue, 5, "", fixedNow); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("err = %v, want invalid state", err)
	}
}

func TestSubmitRatingRejectsLongComment(t *testing.T) {
	booking := newEscrowedBooking(t, 50000)
	long := make([]rune, MaxCommentLength+1)
	for i := range long {
		long[i] = 'a'
	}
	if _, _, err := booking.SubmitRating(PartyVenue, 5, string(long), fixedNow); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want invalid input", err)
	}
}

func TestMarkEscrowedIsIdempotentForSameReference(t *testing.T) {
	booking := newEscrowedBooking(t, 50000)

	next, changed, err := booking.MarkEscrowed("pay-1", fixedNow.Add(time.Hour))
	if err != nil {
		t.Fatalf("MarkEscrowed: %v", err)
	}
	if changed || !next.UpdatedAt.Equal(booking.UpdatedAt) {
		t.Fatalf("changed=%t updated_at=%v", changed, next.UpdatedAt)
	}

	if _, _, err := booking.MarkEscrowed("pay-2", fixedNow); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("different reference err = %v, want invalid state", err)
	}
}

func TestMarkEscrowedRequiresReference(t *testing.T) {
	booking, _ := NewBooking(CreateBookingInput{VenueID: "v", MusicianID: "m", AgreedRate: 100}, fixedClock, fixedID("b"))
	booking, _ = booking.Accept(fixedNow)
	if _, _, err := booking.MarkEscrowed("  ", fixedNow); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want invalid input", err)
	}
}

func TestCancel(t *testing.T) {
	pending, _ := NewBooking(CreateBookingInput{VenueID: "v", MusicianID: "m", AgreedRate: 100}, fixedClock, fixedID("b"))
	cancelled, err := pending.Cancel(PartyMusician, fixedNow)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != StatusCancelled || cancelled.CancelledBy != PartyMusician {
		t.Fatalf("booking = %+v", cancelled)
	}
	if _, err := cancelled.Accept(fixedNow); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("accept after cancel err = %v", err)
	}

	escrowed := newEscrowedBooking(t, 100)
	if _, err := escrowed.Cancel(PartyVenue, fixedNow); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("cancel escrowed err = %v, want invalid state", err)
	}
	if _, err := pending.Cancel(Party("fan"), fixedNow); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("unknown party err = %v, want invalid input", err)
	}
}

func TestConfirm(t *testing.T) {
	pending, _ := NewBooking(CreateBookingInput{VenueID: "v", MusicianID: "m", AgreedRate: 100}, fixedClock, fixedID("b"))
	if _, _, err := pending.Confirm(PartyVenue, fixedNow); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("confirm pending err = %v", err)
	}

	accepted, _ := pending.Accept(fixedNow)
	confirmed, changed, err := accepted.Confirm(PartyVenue, fixedNow)
	if err != nil || !changed || !confirmed.VenueConfirmed || confirmed.MusicianConfirmed {
		t.Fatalf("confirm = %+v changed=%t err=%v", confirmed, changed, err)
	}
	again, changed, err := confirmed.Confirm(PartyVenue, fixedNow)
	if err != nil || changed || !again.VenueConfirmed {
		t.Fatalf("repeat confirm changed=%t err=%v", changed, err)
	}
	if again.Status != StatusAccepted || again.CanReleaseFunds {
		t.Fatalf("confirm must not move status or release funds: %+v", again)
	}
}

func TestOpenDispute(t *testing.T) {
	booking := newEscrowedBooking(t, 50000)
	if _, err := booking.OpenDispute(PartyVenue, " ", fixedNow); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty reason err = %v", err)
	}
	disputed, err := booking.OpenDispute(PartyVenue, "no show", fixedNow)
	if err != nil {
		t.Fatalf("OpenDispute: %v", err)
	}
	if disputed.Status != StatusDisputed || disputed.DisputedBy != PartyVenue || disputed.DisputeReason != "no show" {
		t.Fatalf("booking = %+v", disputed)
	}
	if _, _, err := disputed.SubmitRating(PartyMusician, 5, "", fixedNow); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("rating after dispute err = %v", err)
	}
}

func TestOperationsOutsideGraphAreRejected(t *testing.T) {
	booking := newEscrowedBooking(t, 50000)
	booking, _, _ = booking.SubmitRating(PartyVenue, 1, "", fixedNow)
	mediation, _, _ := booking.SubmitRating(PartyMusician, 1, "", fixedNow)

	if _, err := mediation.Accept(fixedNow); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("accept err = %v", err)
	}
	if _, _, err := mediation.MarkEscrowed("pay-1", fixedNow); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("escrow err = %v", err)
	}
	if _, err := mediation.Cancel(PartyVenue, fixedNow); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("cancel err = %v", err)
	}
	if _, err := mediation.OpenDispute(PartyVenue, "late", fixedNow); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("dispute err = %v", err)
	}
}

func TestValidateDetectsFeeDrift(t *testing.T) {
	booking := newEscrowedBooking(t, 50000)
	booking.TotalAmount++
	if err := booking.Validate(); err == nil {
		t.Fatal("expected fee drift to fail validation")
	}
}

func TestInvalidStateCarriesMessageMetadata(t *testing.T) {
	booking := newEscrowedBooking(t, 100)
	_, err := booking.Cancel(PartyVenue, fixedNow)

	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("err = %T, want *errors.Error", err)
	}
	if appErr.Metadata["status"] != "escrowed" || appErr.Metadata["operation"] != "cancelled" {
		t.Fatalf("metadata = %v", appErr.Metadata)
	}
}

func TestSubmitRatingRequiresEscrowedStatus(t *testing.T) {
	for _, status := range []Status{
		StatusPending,
		StatusAccepted,
		StatusCompleted,
		StatusDisputed,
		StatusMediation,
		StatusCancelled,
	} {
		t.Run(string(status), func(t *testing.T) {
			booking := newEscrowedBooking(t, 50000)
			booking.Status = status
			booking.Version = 7

			got, decision, err := booking.SubmitRating(PartyVenue, 5, "", fixedNow)
			if !errors.Is(err, ErrInvalidState) {
				t.Fatalf("err = %v, want invalid state", err)
			}
			if decision != DecisionAwaitingCounterparty {
				t.Fatalf("decision = %s", decision)
			}
			if got.Version != 7 || got.Status != status || got.VenueRating != nil {
				t.Fatalf("booking changed: %+v", got)
			}
		})
	}
}
