// Package errors provides structured error handling with i18n support.
package errors

import "google.golang.org/grpc/codes"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Booking validation errors
	CodeBookingInvalidInput  Code = "BOOKING_INVALID_INPUT"
	CodeBookingInvalidRating Code = "BOOKING_INVALID_RATING"

	// Booking state errors
	CodeBookingInvalidState Code = "BOOKING_INVALID_STATE"
	CodeBookingAlreadyRated Code = "BOOKING_ALREADY_RATED"

	// Storage errors
	CodeNotFound            Code = "NOT_FOUND"
	CodeAlreadyExists       Code = "ALREADY_EXISTS"
	CodePersistence         Code = "PERSISTENCE_ERROR"
	CodePersistenceConflict Code = "PERSISTENCE_CONFLICT"
)

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeBookingInvalidInput,
		CodeBookingInvalidRating:
		return codes.InvalidArgument

	// FailedPrecondition - state doesn't allow operation
	case CodeBookingInvalidState,
		CodeBookingAlreadyRated:
		return codes.FailedPrecondition

	case CodeNotFound:
		return codes.NotFound

	case CodeAlreadyExists:
		return codes.AlreadyExists

	// Aborted - lost a concurrent write; caller may retry the whole call
	case CodePersistenceConflict:
		return codes.Aborted

	// Unavailable - backing store failed; try again later
	case CodePersistence:
		return codes.Unavailable

	default:
		return codes.Internal
	}
}

// IsValidation reports whether the code describes rejected caller input or
// a rejected state transition, as opposed to an infrastructure failure.
func (c Code) IsValidation() bool {
	switch c {
	case CodeBookingInvalidInput,
		CodeBookingInvalidRating,
		CodeBookingInvalidState,
		CodeBookingAlreadyRated:
		return true
	default:
		return false
	}
}

// IsPersistence reports whether the code belongs to the persistence category.
func (c Code) IsPersistence() bool {
	return c == CodePersistence || c == CodePersistenceConflict
}
