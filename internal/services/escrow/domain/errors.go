package domain

import (
	"fmt"

	apperrors "github.com/gigmate/gigmate/internal/platform/errors"
)

// Sentinel rejections. errors.Is matches any error carrying the same code,
// so callers can test against these regardless of the attached metadata.
var (
	// ErrInvalidState rejects an operation the current status does not allow.
	ErrInvalidState = apperrors.New(apperrors.CodeBookingInvalidState, "booking status does not allow this operation")
	// ErrAlreadyRated rejects a second rating from the same party.
	ErrAlreadyRated = apperrors.New(apperrors.CodeBookingAlreadyRated, "party has already rated this booking")
	// ErrInvalidRating rejects a star value outside 1..5.
	ErrInvalidRating = apperrors.New(apperrors.CodeBookingInvalidRating, "rating must be between 1 and 5 stars")
	// ErrInvalidInput rejects malformed booking input.
	ErrInvalidInput = apperrors.New(apperrors.CodeBookingInvalidInput, "invalid booking input")
)

// pastTense feeds user-facing messages such as "cannot be rated".
var pastTense = map[string]string{
	"accept":  "accepted",
	"escrow":  "escrowed",
	"cancel":  "cancelled",
	"confirm": "confirmed",
	"dispute": "disputed",
	"rate":    "rated",
}

func invalidState(status Status, operation string) error {
	return apperrors.WithMetadata(
		apperrors.CodeBookingInvalidState,
		fmt.Sprintf("cannot %s a booking that is %s", operation, status),
		map[string]string{"status": string(status), "operation": pastTense[operation]},
	)
}

func alreadyRated(party Party) error {
	return apperrors.WithMetadata(
		apperrors.CodeBookingAlreadyRated,
		fmt.Sprintf("%s has already rated this booking", party),
		map[string]string{"party": string(party)},
	)
}

func invalidRating(stars int) error {
	return apperrors.WithMetadata(
		apperrors.CodeBookingInvalidRating,
		fmt.Sprintf("rating %d is outside 1..%d", stars, MaxStars),
		map[string]string{"stars": fmt.Sprint(stars)},
	)
}

func invalidInput(field, message string) error {
	return apperrors.WithMetadata(
		apperrors.CodeBookingInvalidInput,
		message,
		map[string]string{"field": field},
	)
}
