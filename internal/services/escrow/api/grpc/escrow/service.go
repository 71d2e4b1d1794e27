// Package escrow exposes the escrow ledger as escrow.v1 gRPC operations.
package escrow

import (
	"context"
	"errors"

	escrowv1 "github.com/gigmate/gigmate/api/escrow/v1"
	apperrors "github.com/gigmate/gigmate/internal/platform/errors"
	"github.com/gigmate/gigmate/internal/platform/errors/i18n"
	"github.com/gigmate/gigmate/internal/services/escrow/domain"
	"github.com/gigmate/gigmate/internal/services/escrow/ledger"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// Service exposes escrow.v1 gRPC operations.
type Service struct {
	escrowv1.UnimplementedBookingEscrowServiceServer
	ledger *ledger.Ledger
}

// NewService creates an escrow service backed by the ledger.
func NewService(l *ledger.Ledger) *Service {
	return &Service{ledger: l}
}

// CreateBooking proposes a booking in pending.
func (s *Service) CreateBooking(ctx context.Context, in *escrowv1.CreateBookingRequest) (*escrowv1.BookingResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "create booking request is required")
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	rate, err := parseAmount(ctx, "agreed_rate", in.AgreedRate)
	if err != nil {
		return nil, err
	}
	input := domain.CreateBookingInput{
		VenueID:    in.VenueID,
		MusicianID: in.MusicianID,
		AgreedRate: rate,
		Currency:   in.Currency,
	}
	if in.EventDate != nil {
		input.EventDate = *in.EventDate
	}
	booking, err := s.ledger.CreateBooking(ctx, input)
	if err != nil {
		return nil, statusFromError(ctx, err)
	}
	return &escrowv1.BookingResponse{Booking: BookingToWire(booking)}, nil
}

// GetBooking returns one booking.
func (s *Service) GetBooking(ctx context.Context, in *escrowv1.GetBookingRequest) (*escrowv1.BookingResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "get booking request is required")
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	booking, err := s.ledger.GetBooking(ctx, in.BookingID)
	if err != nil {
		return nil, statusFromError(ctx, err)
	}
	return &escrowv1.BookingResponse{Booking: BookingToWire(booking)}, nil
}

// ListBookings returns a page of bookings.
func (s *Service) ListBookings(ctx context.Context, in *escrowv1.ListBookingsRequest) (*escrowv1.ListBookingsResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "list bookings request is required")
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	page, err := s.ledger.ListBookings(ctx, ledger.ListBookingsRequest{
		Filter:    in.Filter,
		PageSize:  in.PageSize,
		PageToken: in.PageToken,
	})
	if err != nil {
		return nil, statusFromError(ctx, err)
	}
	resp := &escrowv1.ListBookingsResponse{
		Bookings:      make([]escrowv1.Booking, 0, len(page.Bookings)),
		NextPageToken: page.NextPageToken,
	}
	for _, booking := range page.Bookings {
		resp.Bookings = append(resp.Bookings, BookingToWire(booking))
	}
	return resp, nil
}

// AcceptBooking moves a booking from pending to accepted.
func (s *Service) AcceptBooking(ctx context.Context, in *escrowv1.AcceptBookingRequest) (*escrowv1.BookingResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "accept booking request is required")
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	return bookingResponse(ctx)(s.ledger.AcceptBooking(ctx, in.BookingID))
}

// MarkEscrowed records a captured payment.
func (s *Service) MarkEscrowed(ctx context.Context, in *escrowv1.MarkEscrowedRequest) (*escrowv1.BookingResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "mark escrowed request is required")
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	return bookingResponse(ctx)(s.ledger.MarkEscrowed(ctx, in.BookingID, in.PaymentReference))
}

// CancelBooking cancels a booking before escrow.
func (s *Service) CancelBooking(ctx context.Context, in *escrowv1.CancelBookingRequest) (*escrowv1.BookingResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "cancel booking request is required")
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	party, err := parseParty(ctx, in.Party)
	if err != nil {
		return nil, err
	}
	return bookingResponse(ctx)(s.ledger.CancelBooking(ctx, in.BookingID, party))
}

// ConfirmBooking sets one party's confirmation flag.
func (s *Service) ConfirmBooking(ctx context.Context, in *escrowv1.ConfirmBookingRequest) (*escrowv1.BookingResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "confirm booking request is required")
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	party, err := parseParty(ctx, in.Party)
	if err != nil {
		return nil, err
	}
	return bookingResponse(ctx)(s.ledger.ConfirmBooking(ctx, in.BookingID, party))
}

// OpenDispute moves escrowed funds into dispute.
func (s *Service) OpenDispute(ctx context.Context, in *escrowv1.OpenDisputeRequest) (*escrowv1.BookingResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "open dispute request is required")
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	party, err := parseParty(ctx, in.Party)
	if err != nil {
		return nil, err
	}
	return bookingResponse(ctx)(s.ledger.OpenDispute(ctx, in.BookingID, party, in.Reason))
}

// SubmitRating records one party's rating and reports the release decision.
func (s *Service) SubmitRating(ctx context.Context, in *escrowv1.SubmitRatingRequest) (*escrowv1.SubmitRatingResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "submit rating request is required")
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	party, err := parseParty(ctx, in.Party)
	if err != nil {
		return nil, err
	}
	result, err := s.ledger.SubmitRating(ctx, ledger.SubmitRatingRequest{
		BookingID: in.BookingID,
		Party:     party,
		Stars:     in.Stars,
		Comment:   in.Comment,
	})
	if err != nil {
		return nil, statusFromError(ctx, err)
	}
	return &escrowv1.SubmitRatingResponse{
		Booking:  BookingToWire(result.Booking),
		Decision: result.Decision.String(),
	}, nil
}

// ComputeFees returns the fee breakdown for an agreed rate.
func (s *Service) ComputeFees(ctx context.Context, in *escrowv1.ComputeFeesRequest) (*escrowv1.ComputeFeesResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "compute fees request is required")
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	rate, err := parseAmount(ctx, "agreed_rate", in.AgreedRate)
	if err != nil {
		return nil, err
	}
	fees, err := s.ledger.ComputeFees(rate, in.MediationRequired)
	if err != nil {
		return nil, statusFromError(ctx, err)
	}
	return &escrowv1.ComputeFeesResponse{Fees: FeesToWire(fees)}, nil
}

func (s *Service) ready() error {
	if s == nil || s.ledger == nil {
		return status.Error(codes.Internal, "escrow ledger is not configured")
	}
	return nil
}

func bookingResponse(ctx context.Context) func(domain.Booking, error) (*escrowv1.BookingResponse, error) {
	return func(booking domain.Booking, err error) (*escrowv1.BookingResponse, error) {
		if err != nil {
			return nil, statusFromError(ctx, err)
		}
		return &escrowv1.BookingResponse{Booking: BookingToWire(booking)}, nil
	}
}

func parseAmount(ctx context.Context, field, raw string) (domain.Money, error) {
	amount, err := domain.ParseMoney(raw)
	if err != nil {
		return 0, statusFromError(ctx, apperrors.WithMetadata(apperrors.CodeBookingInvalidInput, err.Error(), map[string]string{"field": field}))
	}
	return amount, nil
}

func parseParty(ctx context.Context, raw string) (domain.Party, error) {
	party, err := domain.ParseParty(raw)
	if err != nil {
		return "", statusFromError(ctx, apperrors.WithMetadata(apperrors.CodeBookingInvalidInput, err.Error(), map[string]string{"field": "party"}))
	}
	return party, nil
}

// statusFromError converts a ledger error into a gRPC status whose details
// carry the error code and a message localized for the caller.
func statusFromError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return status.FromContextError(err).Err()
	}
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		return status.Errorf(codes.Internal, "escrow: %v", err)
	}
	catalog := i18n.GetCatalog(localeFromContext(ctx))
	return appErr.ToGRPCStatus(catalog.Locale(), catalog.Format(string(appErr.Code), appErr.Metadata))
}

func localeFromContext(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if values := md.Get("accept-language"); len(values) > 0 {
		return values[0]
	}
	return ""
}

// BookingToWire converts a domain booking to its escrow.v1 form.
func BookingToWire(b domain.Booking) escrowv1.Booking {
	wire := escrowv1.Booking{
		ID:                b.ID,
		VenueID:           b.VenueID,
		MusicianID:        b.MusicianID,
		AgreedRate:        b.AgreedRate.String(),
		Currency:          b.Currency,
		GigmateFee:        b.GigmateFee.String(),
		MediationFee:      b.MediationFee.String(),
		TotalAmount:       b.TotalAmount.String(),
		Status:            string(b.Status),
		VenueConfirmed:    b.VenueConfirmed,
		MusicianConfirmed: b.MusicianConfirmed,
		VenueRating:       ratingToWire(b.VenueRating),
		MusicianRating:    ratingToWire(b.MusicianRating),
		CanReleaseFunds:   b.CanReleaseFunds,
		MediationRequired: b.MediationRequired,
		PaymentReference:  b.PaymentReference,
		CancelledBy:       string(b.CancelledBy),
		DisputedBy:        string(b.DisputedBy),
		DisputeReason:     b.DisputeReason,
		CreatedAt:         b.CreatedAt,
		UpdatedAt:         b.UpdatedAt,
		Version:           b.Version,
	}
	if !b.EventDate.IsZero() {
		eventDate := b.EventDate
		wire.EventDate = &eventDate
	}
	return wire
}

// FeesToWire converts a fee breakdown to its escrow.v1 form.
func FeesToWire(f domain.Fees) escrowv1.Fees {
	return escrowv1.Fees{
		GigmateFee:   f.GigmateFee.String(),
		MediationFee: f.MediationFee.String(),
		TotalAmount:  f.Total.String(),
	}
}

func ratingToWire(r *domain.Rating) *escrowv1.Rating {
	if r == nil {
		return nil
	}
	return &escrowv1.Rating{Stars: r.Stars, Comment: r.Comment, SubmittedAt: r.SubmittedAt}
}

var _ escrowv1.BookingEscrowServiceServer = (*Service)(nil)
