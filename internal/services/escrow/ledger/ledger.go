// Package ledger runs escrow operations against booking storage. Each
// mutation is one read-modify-write unit on a single booking; committed
// transitions are then announced to notifiers on a best-effort basis.
package ledger

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gigmate/gigmate/internal/platform/grpc/pagination"
	"github.com/gigmate/gigmate/internal/platform/id"
	"github.com/gigmate/gigmate/internal/platform/logging"
	"github.com/gigmate/gigmate/internal/platform/timeouts"
	"github.com/gigmate/gigmate/internal/services/escrow/domain"
	"github.com/gigmate/gigmate/internal/services/escrow/notify"
	"github.com/gigmate/gigmate/internal/services/escrow/storage"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/gigmate/gigmate/internal/services/escrow/ledger"

const (
	defaultListPageSize = 50
	maxListPageSize     = 200
)

// Ledger executes escrow operations.
type Ledger struct {
	store         storage.BookingStore
	notifier      notify.Notifier
	logger        logrus.FieldLogger
	tracer        trace.Tracer
	clock         func() time.Time
	idGenerator   func() (string, error)
	notifyTimeout time.Duration
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithNotifier sets the collaborator told about committed transitions.
func WithNotifier(notifier notify.Notifier) Option {
	return func(l *Ledger) {
		if notifier != nil {
			l.notifier = notifier
		}
	}
}

// WithLogger sets the ledger logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(l *Ledger) {
		if clock != nil {
			l.clock = clock
		}
	}
}

// WithIDGenerator overrides booking id generation.
func WithIDGenerator(generator func() (string, error)) Option {
	return func(l *Ledger) {
		if generator != nil {
			l.idGenerator = generator
		}
	}
}

// WithNotifyTimeout bounds each post-commit notification. Non-positive values
// keep the default.
func WithNotifyTimeout(timeout time.Duration) Option {
	return func(l *Ledger) {
		if timeout > 0 {
			l.notifyTimeout = timeout
		}
	}
}

// New builds a ledger over store.
func New(store storage.BookingStore, opts ...Option) *Ledger {
	l := &Ledger{
		store:         store,
		notifier:      notify.Noop{},
		logger:        logging.Discard(),
		tracer:        otel.Tracer(tracerName),
		clock:         time.Now,
		idGenerator:   id.NewID,
		notifyTimeout: timeouts.Notify,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ListBookingsRequest selects a page of bookings.
type ListBookingsRequest struct {
	Filter    string
	PageSize  int32
	PageToken string
}

// SubmitRatingRequest carries one party's rating of the counterparty.
type SubmitRatingRequest struct {
	BookingID string
	Party     domain.Party
	Stars     int
	Comment   string
}

// RatingResult is the booking after a rating plus the release decision.
type RatingResult struct {
	Booking  domain.Booking
	Decision domain.Decision
}

// CreateBooking stores a new pending booking.
func (l *Ledger) CreateBooking(ctx context.Context, input domain.CreateBookingInput) (_ domain.Booking, err error) {
	ctx, span := l.tracer.Start(ctx, "ledger.CreateBooking")
	defer func() { endSpan(span, err) }()

	booking, err := domain.NewBooking(input, l.clock, l.idGenerator)
	if err != nil {
		return domain.Booking{}, l.reject(ctx, "create", "", err)
	}
	span.SetAttributes(attribute.String("booking.id", booking.ID))

	created, err := l.store.CreateBooking(ctx, booking)
	if err != nil {
		return domain.Booking{}, l.reject(ctx, "create", booking.ID, err)
	}
	l.committed(ctx, "create", notify.NewEvent(notify.EventBookingCreated, created, ""))
	return created, nil
}

// GetBooking returns one booking.
func (l *Ledger) GetBooking(ctx context.Context, bookingID string) (_ domain.Booking, err error) {
	ctx, span := l.tracer.Start(ctx, "ledger.GetBooking", trace.WithAttributes(attribute.String("booking.id", bookingID)))
	defer func() { endSpan(span, err) }()

	bookingID, err = requireBookingID(bookingID)
	if err != nil {
		return domain.Booking{}, err
	}
	booking, err := l.store.GetBooking(ctx, bookingID)
	if err != nil {
		return domain.Booking{}, l.reject(ctx, "get", bookingID, err)
	}
	return booking, nil
}

// ListBookings returns a filtered page of bookings ordered by id.
func (l *Ledger) ListBookings(ctx context.Context, req ListBookingsRequest) (_ storage.BookingPage, err error) {
	ctx, span := l.tracer.Start(ctx, "ledger.ListBookings", trace.WithAttributes(attribute.String("filter", req.Filter)))
	defer func() { endSpan(span, err) }()

	if err := validateFilter(req.Filter); err != nil {
		return storage.BookingPage{}, err
	}
	pageSize := pagination.ClampPageSize(req.PageSize, pagination.PageSizeConfig{
		Default: defaultListPageSize,
		Max:     maxListPageSize,
	})
	page, err := l.store.ListBookings(ctx, storage.ListBookingsQuery{
		Filter:    req.Filter,
		PageSize:  pageSize,
		PageToken: strings.TrimSpace(req.PageToken),
	})
	if err != nil {
		return storage.BookingPage{}, l.reject(ctx, "list", "", err)
	}
	return page, nil
}

// AcceptBooking records the musician's acceptance.
func (l *Ledger) AcceptBooking(ctx context.Context, bookingID string) (domain.Booking, error) {
	return l.update(ctx, "accept", bookingID, func(b domain.Booking, at time.Time) (domain.Booking, bool, notify.EventType, error) {
		next, err := b.Accept(at)
		return next, err == nil, notify.EventBookingAccepted, err
	}, "")
}

// MarkEscrowed records that the venue's payment is held by the platform.
func (l *Ledger) MarkEscrowed(ctx context.Context, bookingID, paymentReference string) (domain.Booking, error) {
	return l.update(ctx, "escrow", bookingID, func(b domain.Booking, at time.Time) (domain.Booking, bool, notify.EventType, error) {
		next, changed, err := b.MarkEscrowed(paymentReference, at)
		return next, changed, notify.EventBookingEscrowed, err
	}, "")
}

// CancelBooking cancels a booking before escrow.
func (l *Ledger) CancelBooking(ctx context.Context, bookingID string, party domain.Party) (domain.Booking, error) {
	return l.update(ctx, "cancel", bookingID, func(b domain.Booking, at time.Time) (domain.Booking, bool, notify.EventType, error) {
		next, err := b.Cancel(party, at)
		return next, err == nil, notify.EventBookingCancelled, err
	}, party)
}

// ConfirmBooking sets one party's confirmation flag.
func (l *Ledger) ConfirmBooking(ctx context.Context, bookingID string, party domain.Party) (domain.Booking, error) {
	return l.update(ctx, "confirm", bookingID, func(b domain.Booking, at time.Time) (domain.Booking, bool, notify.EventType, error) {
		next, changed, err := b.Confirm(party, at)
		return next, changed, notify.EventBookingConfirmed, err
	}, party)
}

// OpenDispute moves an escrowed booking to disputed.
func (l *Ledger) OpenDispute(ctx context.Context, bookingID string, party domain.Party, reason string) (domain.Booking, error) {
	return l.update(ctx, "dispute", bookingID, func(b domain.Booking, at time.Time) (domain.Booking, bool, notify.EventType, error) {
		next, err := b.OpenDispute(party, reason, at)
		return next, err == nil, notify.EventBookingDisputed, err
	}, party)
}

// SubmitRating records a rating and applies the release rule on the
// freshly read booking.
func (l *Ledger) SubmitRating(ctx context.Context, req SubmitRatingRequest) (RatingResult, error) {
	var decision domain.Decision
	booking, err := l.update(ctx, "rate", req.BookingID, func(b domain.Booking, at time.Time) (domain.Booking, bool, notify.EventType, error) {
		next, d, err := b.SubmitRating(req.Party, req.Stars, req.Comment, at)
		if err != nil {
			return b, false, "", err
		}
		decision = d
		return next, true, ratingEvent(d), nil
	}, req.Party)
	if err != nil {
		return RatingResult{}, err
	}
	return RatingResult{Booking: booking, Decision: decision}, nil
}

// ComputeFees returns the fee breakdown for an agreed rate.
func (l *Ledger) ComputeFees(agreedRate domain.Money, mediationRequired bool) (domain.Fees, error) {
	if err := domain.ValidateAgreedRate(agreedRate); err != nil {
		return domain.Fees{}, err
	}
	return domain.ComputeFees(agreedRate, mediationRequired), nil
}

type transition func(current domain.Booking, at time.Time) (next domain.Booking, changed bool, event notify.EventType, err error)

func (l *Ledger) update(ctx context.Context, operation, bookingID string, apply transition, party domain.Party) (_ domain.Booking, err error) {
	ctx, span := l.tracer.Start(ctx, "ledger."+operation, trace.WithAttributes(
		attribute.String("booking.id", bookingID),
		attribute.String("party", string(party)),
	))
	defer func() { endSpan(span, err) }()

	bookingID, err = requireBookingID(bookingID)
	if err != nil {
		return domain.Booking{}, err
	}

	var (
		eventType notify.EventType
		changed   bool
	)
	booking, err := l.store.UpdateBooking(ctx, bookingID, func(current domain.Booking) (domain.Booking, bool, error) {
		next, didChange, event, err := apply(current, l.clock())
		eventType, changed = event, didChange
		return next, didChange, err
	})
	if err != nil {
		return domain.Booking{}, l.reject(ctx, operation, bookingID, err)
	}
	span.SetAttributes(attribute.String("booking.status", string(booking.Status)))
	if !changed {
		l.logger.WithFields(logrus.Fields{"op": operation, "booking_id": bookingID}).Debug("booking already in requested state")
		return booking, nil
	}
	l.committed(ctx, operation, notify.NewEvent(eventType, booking, party))
	return booking, nil
}

// committed logs a committed transition and notifies collaborators. Delivery
// failures are logged only; the transition already stands.
func (l *Ledger) committed(ctx context.Context, operation string, event notify.Event) {
	fields := logrus.Fields{
		"op":           operation,
		"booking_id":   event.BookingID,
		"status":       event.Status,
		"total_amount": event.TotalAmount.String(),
		"event":        event.Type,
	}
	l.logger.WithFields(fields).Info("booking committed")

	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.notifyTimeout)
	defer cancel()
	if err := l.notifier.Notify(notifyCtx, event); err != nil {
		l.logger.WithFields(fields).WithError(err).Warn("notify booking event")
	}
}

// reject classifies err and logs it at a level matching its category.
func (l *Ledger) reject(ctx context.Context, operation, bookingID string, err error) error {
	classified := classify(bookingID, err)
	entry := l.logger.WithFields(logrus.Fields{"op": operation, "booking_id": bookingID}).WithError(classified)
	switch {
	case errors.Is(classified, context.Canceled), errors.Is(classified, context.DeadlineExceeded):
		entry.Info("booking operation cancelled")
	case isPersistence(classified):
		entry.Error("booking operation failed")
	default:
		entry.Info("booking operation rejected")
	}
	return classified
}

func ratingEvent(decision domain.Decision) notify.EventType {
	switch decision {
	case domain.DecisionRelease:
		return notify.EventFundsReleased
	case domain.DecisionMediation:
		return notify.EventMediationRequired
	default:
		return notify.EventBookingRated
	}
}

func requireBookingID(bookingID string) (string, error) {
	bookingID = strings.TrimSpace(bookingID)
	if bookingID == "" {
		return "", invalidInput("booking_id", "booking id is required")
	}
	return bookingID, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
	}
	span.End()
}
