package ledger

import (
	"context"
	"errors"

	apperrors "github.com/gigmate/gigmate/internal/platform/errors"
	"github.com/gigmate/gigmate/internal/services/escrow/storage"
	"github.com/gigmate/gigmate/internal/services/escrow/storage/filter"
)

var (
	// ErrNotFound reports a missing booking.
	ErrNotFound = apperrors.New(apperrors.CodeNotFound, "booking not found")
	// ErrPersistence reports a storage failure. Rejections never carry it.
	ErrPersistence = apperrors.New(apperrors.CodePersistence, "booking storage failed")
	// ErrConflict reports that concurrent writers kept winning the race for
	// the booking; the caller may retry the whole operation.
	ErrConflict = apperrors.New(apperrors.CodePersistenceConflict, "booking was modified concurrently")
)

// classify maps storage failures onto the ledger's error categories.
// Domain rejections and context errors pass through unchanged.
func classify(bookingID string, err error) error {
	if err == nil {
		return nil
	}
	if apperrors.CodeOf(err) != apperrors.CodeUnknown {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	meta := map[string]string{}
	if bookingID != "" {
		meta["booking_id"] = bookingID
	}
	var classified *apperrors.Error
	switch {
	case errors.Is(err, storage.ErrNotFound):
		classified = apperrors.Wrap(apperrors.CodeNotFound, "booking not found", err)
	case errors.Is(err, storage.ErrAlreadyExists):
		classified = apperrors.Wrap(apperrors.CodeAlreadyExists, "booking already exists", err)
	case errors.Is(err, storage.ErrConflict):
		classified = apperrors.Wrap(apperrors.CodePersistenceConflict, "booking was modified concurrently", err)
	default:
		classified = apperrors.Wrap(apperrors.CodePersistence, "booking storage failed", err)
	}
	classified.Metadata = meta
	return classified
}

func isPersistence(err error) bool {
	return apperrors.CodeOf(err).IsPersistence()
}

func invalidInput(field, message string) error {
	return apperrors.WithMetadata(apperrors.CodeBookingInvalidInput, message, map[string]string{"field": field})
}

func validateFilter(raw string) error {
	if _, err := filter.Parse(raw); err != nil {
		return apperrors.WithMetadata(apperrors.CodeBookingInvalidInput, err.Error(), map[string]string{"field": "filter"})
	}
	return nil
}
