package escrow

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	escrowv1 "github.com/gigmate/gigmate/api/escrow/v1"
	"github.com/gigmate/gigmate/internal/services/escrow/ledger"
	"github.com/gigmate/gigmate/internal/services/escrow/storage/sqlite"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

var testNow = time.Date(2026, time.March, 14, 20, 0, 0, 0, time.UTC)

func newTestClient(t *testing.T) escrowv1.BookingEscrowServiceClient {
	t.Helper()

	store, err := sqlite.Open(context.Background(), filepath.Join(t.TempDir(), "escrow.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	l := ledger.New(store, ledger.WithClock(func() time.Time { return testNow }))
	server := grpc.NewServer()
	escrowv1.RegisterBookingEscrowServiceServer(server, NewService(l))

	lis := bufconn.Listen(1 << 20)
	go func() { _ = server.Serve(lis) }()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial bufconn: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return escrowv1.NewBookingEscrowServiceClient(conn)
}

func escrowedBooking(t *testing.T, client escrowv1.BookingEscrowServiceClient) escrowv1.Booking {
	t.Helper()

	ctx := context.Background()
	created, err := client.CreateBooking(ctx, &escrowv1.CreateBookingRequest{
		VenueID:    "venue-1",
		MusicianID: "musician-1",
		AgreedRate: "500.00",
	})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	if _, err := client.AcceptBooking(ctx, &escrowv1.AcceptBookingRequest{BookingID: created.Booking.ID}); err != nil {
		t.Fatalf("accept booking: %v", err)
	}
	escrowed, err := client.MarkEscrowed(ctx, &escrowv1.MarkEscrowedRequest{BookingID: created.Booking.ID, PaymentReference: "pay-1"})
	if err != nil {
		t.Fatalf("mark escrowed: %v", err)
	}
	return escrowed.Booking
}

func TestCreateBookingReturnsComputedFees(t *testing.T) {
	client := newTestClient(t)
	resp, err := client.CreateBooking(context.Background(), &escrowv1.CreateBookingRequest{
		VenueID:    "venue-1",
		MusicianID: "musician-1",
		AgreedRate: "500",
		Currency:   "usd",
	})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	b := resp.Booking
	if b.ID == "" || b.Status != "pending" || b.Currency != "USD" {
		t.Fatalf("booking = %+v", b)
	}
	if b.AgreedRate != "500.00" || b.GigmateFee != "50.00" || b.MediationFee != "0.00" || b.TotalAmount != "550.00" {
		t.Fatalf("amounts = %s %s %s %s", b.AgreedRate, b.GigmateFee, b.MediationFee, b.TotalAmount)
	}
	if !b.CreatedAt.Equal(testNow) || b.Version != 1 {
		t.Fatalf("created_at/version = %v/%d", b.CreatedAt, b.Version)
	}
}

func TestCreateBookingRejectsOverPreciseRate(t *testing.T) {
	client := newTestClient(t)
	_, err := client.CreateBooking(context.Background(), &escrowv1.CreateBookingRequest{
		VenueID:    "venue-1",
		MusicianID: "musician-1",
		AgreedRate: "500.001",
	})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("code = %v, want %v", status.Code(err), codes.InvalidArgument)
	}
}

func TestSubmitRatingFlow(t *testing.T) {
	client := newTestClient(t)
	booking := escrowedBooking(t, client)
	ctx := context.Background()

	first, err := client.SubmitRating(ctx, &escrowv1.SubmitRatingRequest{BookingID: booking.ID, Party: "venue", Stars: 5, Comment: "great"})
	if err != nil {
		t.Fatalf("venue rating: %v", err)
	}
	if first.Decision != "awaiting_counterparty" || first.Booking.Status != "escrowed" {
		t.Fatalf("first = %+v", first)
	}

	second, err := client.SubmitRating(ctx, &escrowv1.SubmitRatingRequest{BookingID: booking.ID, Party: "musician", Stars: 3})
	if err != nil {
		t.Fatalf("musician rating: %v", err)
	}
	b := second.Booking
	if second.Decision != "mediation" || b.Status != "mediation" || !b.MediationRequired || b.CanReleaseFunds {
		t.Fatalf("second = %+v", second)
	}
	if b.MediationFee != "50.00" || b.TotalAmount != "600.00" {
		t.Fatalf("fees = %s / %s", b.MediationFee, b.TotalAmount)
	}
	if b.VenueRating == nil || b.VenueRating.Comment != "great" || b.MusicianRating == nil || b.MusicianRating.Stars != 3 {
		t.Fatalf("ratings = %+v / %+v", b.VenueRating, b.MusicianRating)
	}
}

func TestErrorStatusCarriesDetails(t *testing.T) {
	client := newTestClient(t)
	booking := escrowedBooking(t, client)
	ctx := context.Background()

	if _, err := client.SubmitRating(ctx, &escrowv1.SubmitRatingRequest{BookingID: booking.ID, Party: "venue", Stars: 5}); err != nil {
		t.Fatalf("venue rating: %v", err)
	}

	tests := []struct {
		name   string
		req    *escrowv1.SubmitRatingRequest
		code   codes.Code
		reason string
	}{
		{
			name:   "duplicate rating",
			req:    &escrowv1.SubmitRatingRequest{BookingID: booking.ID, Party: "venue", Stars: 4},
			code:   codes.FailedPrecondition,
			reason: "BOOKING_ALREADY_RATED",
		},
		{
			name:   "stars out of range",
			req:    &escrowv1.SubmitRatingRequest{BookingID: booking.ID, Party: "musician", Stars: 6},
			code:   codes.InvalidArgument,
			reason: "BOOKING_INVALID_RATING",
		},
		{
			name:   "unknown booking",
			req:    &escrowv1.SubmitRatingRequest{BookingID: "missing", Party: "musician", Stars: 4},
			code:   codes.NotFound,
			reason: "NOT_FOUND",
		},
		{
			name:   "unknown party",
			req:    &escrowv1.SubmitRatingRequest{BookingID: booking.ID, Party: "fan", Stars: 4},
			code:   codes.InvalidArgument,
			reason: "BOOKING_INVALID_INPUT",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.SubmitRating(ctx, tt.req)
			st := status.Convert(err)
			if st.Code() != tt.code {
				t.Fatalf("code = %v, want %v (%v)", st.Code(), tt.code, err)
			}
			info, localized := statusDetails(st)
			if info == nil || info.GetReason() != tt.reason || info.GetDomain() != "gigmate.app" {
				t.Fatalf("error info = %+v", info)
			}
			if localized == nil || localized.GetMessage() == "" {
				t.Fatalf("localized message = %+v", localized)
			}
		})
	}
}

func TestErrorMessageIsLocalized(t *testing.T) {
	client := newTestClient(t)
	created, err := client.CreateBooking(context.Background(), &escrowv1.CreateBookingRequest{
		VenueID:    "venue-1",
		MusicianID: "musician-1",
		AgreedRate: "500.00",
	})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}

	ctx := metadata.AppendToOutgoingContext(context.Background(), "accept-language", "pt-BR,pt;q=0.9")
	_, err = client.SubmitRating(ctx, &escrowv1.SubmitRatingRequest{BookingID: created.Booking.ID, Party: "venue", Stars: 5})
	st := status.Convert(err)
	if st.Code() != codes.FailedPrecondition {
		t.Fatalf("code = %v, want %v", st.Code(), codes.FailedPrecondition)
	}
	_, localized := statusDetails(st)
	if localized == nil || localized.GetLocale() != "pt-BR" {
		t.Fatalf("localized = %+v", localized)
	}
	if want := "Esta reserva está pendente e não pode ser avaliada agora."; localized.GetMessage() != want {
		t.Fatalf("message = %q, want %q", localized.GetMessage(), want)
	}
}

func TestListBookingsAndComputeFees(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	booking := escrowedBooking(t, client)

	list, err := client.ListBookings(ctx, &escrowv1.ListBookingsRequest{Filter: `status = "escrowed"`})
	if err != nil {
		t.Fatalf("list bookings: %v", err)
	}
	if len(list.Bookings) != 1 || list.Bookings[0].ID != booking.ID {
		t.Fatalf("list = %+v", list)
	}

	fees, err := client.ComputeFees(ctx, &escrowv1.ComputeFeesRequest{AgreedRate: "123.45", MediationRequired: true})
	if err != nil {
		t.Fatalf("compute fees: %v", err)
	}
	if fees.Fees.GigmateFee != "12.35" || fees.Fees.MediationFee != "12.35" || fees.Fees.TotalAmount != "148.15" {
		t.Fatalf("fees = %+v", fees.Fees)
	}
}

func TestDisputeCancelAndConfirm(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()
	booking := escrowedBooking(t, client)

	confirmed, err := client.ConfirmBooking(ctx, &escrowv1.ConfirmBookingRequest{BookingID: booking.ID, Party: "venue"})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if !confirmed.Booking.VenueConfirmed {
		t.Fatal("venue confirmation not recorded")
	}
	if _, err := client.CancelBooking(ctx, &escrowv1.CancelBookingRequest{BookingID: booking.ID, Party: "venue"}); status.Code(err) != codes.FailedPrecondition {
		t.Fatalf("cancel escrowed code = %v", status.Code(err))
	}
	disputed, err := client.OpenDispute(ctx, &escrowv1.OpenDisputeRequest{BookingID: booking.ID, Party: "musician", Reason: "venue closed"})
	if err != nil {
		t.Fatalf("open dispute: %v", err)
	}
	if disputed.Booking.Status != "disputed" || disputed.Booking.DisputedBy != "musician" {
		t.Fatalf("disputed = %+v", disputed.Booking)
	}
}

func TestNilServiceReturnsInternal(t *testing.T) {
	svc := NewService(nil)
	_, err := svc.GetBooking(context.Background(), &escrowv1.GetBookingRequest{BookingID: "b"})
	if status.Code(err) != codes.Internal {
		t.Fatalf("code = %v, want %v", status.Code(err), codes.Internal)
	}
	if _, err := svc.GetBooking(context.Background(), nil); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("nil request code = %v", status.Code(err))
	}
}

func statusDetails(st *status.Status) (*errdetails.ErrorInfo, *errdetails.LocalizedMessage) {
	var info *errdetails.ErrorInfo
	var localized *errdetails.LocalizedMessage
	for _, detail := range st.Details() {
		switch d := detail.(type) {
		case *errdetails.ErrorInfo:
			info = d
		case *errdetails.LocalizedMessage:
			localized = d
		}
	}
	return info, localized
}
