// Package postgres provides a PostgreSQL-backed escrow storage implementation.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gigmate/gigmate/internal/services/escrow/domain"
	"github.com/gigmate/gigmate/internal/services/escrow/storage"
	"github.com/gigmate/gigmate/internal/services/escrow/storage/filter"
	"github.com/gigmate/gigmate/internal/services/escrow/storage/postgres/migrations"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

const bookingColumns = `id, venue_id, musician_id,
       agreed_rate_cents, currency, gigmate_fee_cents, mediation_fee_cents, total_amount_cents,
       status, venue_confirmed, musician_confirmed,
       venue_rating_stars, venue_rating_comment, venue_rated_at,
       musician_rating_stars, musician_rating_comment, musician_rated_at,
       can_release_funds, mediation_required,
       payment_reference, cancelled_by, disputed_by, dispute_reason,
       event_date, created_at, updated_at, version`

// Store persists escrow state in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to PostgreSQL and ensures the schema exists.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, migrations.Schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases pooled connections.
func (s *Store) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}

// CreateBooking inserts a new booking at version 1.
func (s *Store) CreateBooking(ctx context.Context, booking domain.Booking) (domain.Booking, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Booking{}, err
	}
	if err := booking.Validate(); err != nil {
		return domain.Booking{}, fmt.Errorf("create booking: %w", err)
	}
	booking.Version = 1

	_, err := s.pool.Exec(ctx,
		`INSERT INTO bookings (`+bookingColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		         $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27)`,
		bookingArgs(booking)...,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.Booking{}, storage.ErrAlreadyExists
		}
		return domain.Booking{}, fmt.Errorf("create booking: %w", err)
	}
	return booking, nil
}

// GetBooking returns one booking by id.
func (s *Store) GetBooking(ctx context.Context, id string) (domain.Booking, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Booking{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Booking{}, fmt.Errorf("booking id is required")
	}
	booking, err := scanBooking(s.pool.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Booking{}, storage.ErrNotFound
		}
		return domain.Booking{}, fmt.Errorf("get booking: %w", err)
	}
	return booking, nil
}

// ListBookings returns one page of bookings matching the query filter.
func (s *Store) ListBookings(ctx context.Context, query storage.ListBookingsQuery) (storage.BookingPage, error) {
	if err := s.ready(ctx); err != nil {
		return storage.BookingPage{}, err
	}
	if query.PageSize <= 0 {
		return storage.BookingPage{}, fmt.Errorf("page size must be greater than zero")
	}
	cond, err := filter.Parse(query.Filter)
	if err != nil {
		return storage.BookingPage{}, err
	}

	var where []string
	var args []any
	if !cond.Empty() {
		where = append(where, cond.Numbered(0))
		args = append(args, cond.Params...)
	}
	if token := strings.TrimSpace(query.PageToken); token != "" {
		args = append(args, token)
		where = append(where, "id > $"+strconv.Itoa(len(args)))
	}
	statement := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(where) > 0 {
		statement += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, query.PageSize+1)
	statement += " ORDER BY id ASC LIMIT $" + strconv.Itoa(len(args))

	rows, err := s.pool.Query(ctx, statement, args...)
	if err != nil {
		return storage.BookingPage{}, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	page := storage.BookingPage{Bookings: make([]domain.Booking, 0, query.PageSize)}
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return storage.BookingPage{}, fmt.Errorf("list bookings: %w", err)
		}
		page.Bookings = append(page.Bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return storage.BookingPage{}, fmt.Errorf("list bookings: %w", err)
	}
	if len(page.Bookings) > query.PageSize {
		page.NextPageToken = page.Bookings[query.PageSize-1].ID
		page.Bookings = page.Bookings[:query.PageSize]
	}
	return page, nil
}

// UpdateBooking applies mutate to the row while holding its lock, so
// concurrent writers to the same booking queue behind each other.
func (s *Store) UpdateBooking(ctx context.Context, id string, mutate storage.MutateFunc) (domain.Booking, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Booking{}, err
	}
	if mutate == nil {
		return domain.Booking{}, fmt.Errorf("mutate func is required")
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Booking{}, fmt.Errorf("begin update: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	current, err := scanBooking(tx.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Booking{}, storage.ErrNotFound
		}
		return domain.Booking{}, fmt.Errorf("lock booking: %w", err)
	}

	next, changed, err := mutate(current)
	if err != nil {
		return domain.Booking{}, err
	}
	if !changed {
		return current, nil
	}
	next.ID = current.ID
	next.CreatedAt = current.CreatedAt
	next.Version = current.Version + 1
	if err := next.Validate(); err != nil {
		return domain.Booking{}, fmt.Errorf("update booking: %w", err)
	}

	args := bookingArgs(next)
	args = append(args[1:], next.ID, current.Version)
	tag, err := tx.Exec(ctx,
		`UPDATE bookings SET
		   venue_id = $1, musician_id = $2,
		   agreed_rate_cents = $3, currency = $4, gigmate_fee_cents = $5, mediation_fee_cents = $6, total_amount_cents = $7,
		   status = $8, venue_confirmed = $9, musician_confirmed = $10,
		   venue_rating_stars = $11, venue_rating_comment = $12, venue_rated_at = $13,
		   musician_rating_stars = $14, musician_rating_comment = $15, musician_rated_at = $16,
		   can_release_funds = $17, mediation_required = $18,
		   payment_reference = $19, cancelled_by = $20, disputed_by = $21, dispute_reason = $22,
		   event_date = $23, created_at = $24, updated_at = $25, version = $26
		 WHERE id = $27 AND version = $28`,
		args...,
	)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("update booking: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return domain.Booking{}, fmt.Errorf("update booking %s: %w", id, storage.ErrConflict)
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Booking{}, fmt.Errorf("commit booking update: %w", err)
	}
	return next, nil
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.pool == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

func bookingArgs(b domain.Booking) []any {
	venueStars, venueComment, venueRatedAt := ratingArgs(b.VenueRating)
	musicianStars, musicianComment, musicianRatedAt := ratingArgs(b.MusicianRating)
	return []any{
		b.ID, b.VenueID, b.MusicianID,
		b.AgreedRate.Cents(), b.Currency, b.GigmateFee.Cents(), b.MediationFee.Cents(), b.TotalAmount.Cents(),
		string(b.Status), b.VenueConfirmed, b.MusicianConfirmed,
		venueStars, venueComment, venueRatedAt,
		musicianStars, musicianComment, musicianRatedAt,
		b.CanReleaseFunds, b.MediationRequired,
		b.PaymentReference, string(b.CancelledBy), string(b.DisputedBy), b.DisputeReason,
		optionalTime(b.EventDate), b.CreatedAt.UTC(), b.UpdatedAt.UTC(), b.Version,
	}
}

func ratingArgs(rating *domain.Rating) (*int64, string, *time.Time) {
	if rating == nil {
		return nil, "", nil
	}
	stars := int64(rating.Stars)
	return &stars, rating.Comment, optionalTime(rating.SubmittedAt)
}

func optionalTime(value time.Time) *time.Time {
	if value.IsZero() {
		return nil
	}
	utc := value.UTC()
	return &utc
}

func scanBooking(row pgx.Row) (domain.Booking, error) {
	var (
		b                                 domain.Booking
		agreedRate, gigmateFee, mediation int64
		total                             int64
		status, cancelledBy, disputedBy   string
		venueStars, musicianStars         *int64
		venueComment, musicianComment     string
		venueRatedAt, musicianRatedAt     *time.Time
		eventDate                         *time.Time
	)
	if err := row.Scan(
		&b.ID, &b.VenueID, &b.MusicianID,
		&agreedRate, &b.Currency, &gigmateFee, &mediation, &total,
		&status, &b.VenueConfirmed, &b.MusicianConfirmed,
		&venueStars, &venueComment, &venueRatedAt,
		&musicianStars, &musicianComment, &musicianRatedAt,
		&b.CanReleaseFunds, &b.MediationRequired,
		&b.PaymentReference, &cancelledBy, &disputedBy, &b.DisputeReason,
		&eventDate, &b.CreatedAt, &b.UpdatedAt, &b.Version,
	); err != nil {
		return domain.Booking{}, err
	}
	b.AgreedRate = domain.Money(agreedRate)
	b.GigmateFee = domain.Money(gigmateFee)
	b.MediationFee = domain.Money(mediation)
	b.TotalAmount = domain.Money(total)
	b.Status = domain.Status(status)
	b.CancelledBy = domain.Party(cancelledBy)
	b.DisputedBy = domain.Party(disputedBy)
	b.VenueRating = scanRating(venueStars, venueComment, venueRatedAt)
	b.MusicianRating = scanRating(musicianStars, musicianComment, musicianRatedAt)
	if eventDate != nil {
		b.EventDate = eventDate.UTC()
	}
	b.CreatedAt = b.CreatedAt.UTC()
	b.UpdatedAt = b.UpdatedAt.UTC()
	return b, nil
}

func scanRating(stars *int64, comment string, ratedAt *time.Time) *domain.Rating {
	if stars == nil {
		return nil
	}
	rating := &domain.Rating{Stars: int(*stars), Comment: comment}
	if ratedAt != nil {
		rating.SubmittedAt = ratedAt.UTC()
	}
	return rating
}

var _ storage.BookingStore = (*Store)(nil)
