// Package sqlite provides a SQLite-backed escrow storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/gigmate/gigmate/internal/platform/storage/sqlitemigrate"
	"github.com/gigmate/gigmate/internal/services/escrow/domain"
	"github.com/gigmate/gigmate/internal/services/escrow/storage"
	"github.com/gigmate/gigmate/internal/services/escrow/storage/filter"
	"github.com/gigmate/gigmate/internal/services/escrow/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// maxUpdateAttempts bounds how many lost version races UpdateBooking absorbs.
const maxUpdateAttempts = 5

const bookingColumns = `id, venue_id, musician_id,
       agreed_rate_cents, currency, gigmate_fee_cents, mediation_fee_cents, total_amount_cents,
       status, venue_confirmed, musician_confirmed,
       venue_rating_stars, venue_rating_comment, venue_rated_at,
       musician_rating_stars, musician_rating_comment, musician_rated_at,
       can_release_funds, mediation_required,
       payment_reference, cancelled_by, disputed_by, dispute_reason,
       event_date, created_at, updated_at, version`

// Store persists escrow state in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// toStoredPrecision truncates b's timestamps to the millisecond UTC values the
// table holds, so returned bookings equal what a later read yields.
func toStoredPrecision(b domain.Booking) domain.Booking {
	b.EventDate = storedTime(b.EventDate)
	b.CreatedAt = storedTime(b.CreatedAt)
	b.UpdatedAt = storedTime(b.UpdatedAt)
	if b.VenueRating != nil {
		rating := *b.VenueRating
		rating.SubmittedAt = storedTime(rating.SubmittedAt)
		b.VenueRating = &rating
	}
	if b.MusicianRating != nil {
		rating := *b.MusicianRating
		rating.SubmittedAt = storedTime(rating.SubmittedAt)
		b.MusicianRating = &rating
	}
	return b
}

func storedTime(value time.Time) time.Time {
	if value.IsZero() {
		return time.Time{}
	}
	return fromMillis(toMillis(value))
}

func nullableMillis(value time.Time) sql.NullInt64 {
	if value.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(value), Valid: true}
}

// Open opens a SQLite escrow store and applies embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One connection serializes writers inside the process; the version
	// check still guards against other processes sharing the file.
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.ApplyMigrations(ctx, sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// CreateBooking inserts a new booking at version 1.
func (s *Store) CreateBooking(ctx context.Context, booking domain.Booking) (domain.Booking, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Booking{}, err
	}
	if err := booking.Validate(); err != nil {
		return domain.Booking{}, fmt.Errorf("create booking: %w", err)
	}
	booking = toStoredPrecision(booking)
	booking.Version = 1

	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO bookings (`+bookingColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		bookingArgs(booking)...,
	)
	if err != nil {
		if isUniqueViolation(err) {
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

	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	booking, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
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
		where = append(where, cond.Clause)
		args = append(args, cond.Params...)
	}
	if token := strings.TrimSpace(query.PageToken); token != "" {
		where = append(where, "id > ?")
		args = append(args, token)
	}
	statement := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(where) > 0 {
		statement += " WHERE " + strings.Join(where, " AND ")
	}
	statement += " ORDER BY id ASC LIMIT ?"
	args = append(args, query.PageSize+1)

	rows, err := s.sqlDB.QueryContext(ctx, statement, args...)
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

// UpdateBooking applies mutate with optimistic concurrency on version.
// When another writer commits first, the booking is re-read and mutate runs
// again on the fresh state.
func (s *Store) UpdateBooking(ctx context.Context, id string, mutate storage.MutateFunc) (domain.Booking, error) {
	if mutate == nil {
		return domain.Booking{}, fmt.Errorf("mutate func is required")
	}
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		current, err := s.GetBooking(ctx, id)
		if err != nil {
			return domain.Booking{}, err
		}
		next, changed, err := mutate(current)
		if err != nil {
			return domain.Booking{}, err
		}
		if !changed {
			return current, nil
		}
		next = toStoredPrecision(next)
		next.ID = current.ID
		next.CreatedAt = current.CreatedAt
		next.Version = current.Version + 1
		if err := next.Validate(); err != nil {
			return domain.Booking{}, fmt.Errorf("update booking: %w", err)
		}

		updated, err := s.compareAndSwap(ctx, next, current.Version)
		if err != nil {
			return domain.Booking{}, err
		}
		if updated {
			return next, nil
		}
	}
	return domain.Booking{}, fmt.Errorf("update booking %s after %d attempts: %w", id, maxUpdateAttempts, storage.ErrConflict)
}

func (s *Store) compareAndSwap(ctx context.Context, next domain.Booking, expectedVersion int64) (bool, error) {
	args := bookingArgs(next)
	// Drop id so the SET list lines up; id and version go in the WHERE clause.
	args = append(args[1:], next.ID, expectedVersion)
	result, err := s.sqlDB.ExecContext(ctx,
		`UPDATE bookings SET
		   venue_id = ?, musician_id = ?,
		   agreed_rate_cents = ?, currency = ?, gigmate_fee_cents = ?, mediation_fee_cents = ?, total_amount_cents = ?,
		   status = ?, venue_confirmed = ?, musician_confirmed = ?,
		   venue_rating_stars = ?, venue_rating_comment = ?, venue_rated_at = ?,
		   musician_rating_stars = ?, musician_rating_comment = ?, musician_rated_at = ?,
		   can_release_funds = ?, mediation_required = ?,
		   payment_reference = ?, cancelled_by = ?, disputed_by = ?, dispute_reason = ?,
		   event_date = ?, created_at = ?, updated_at = ?, version = ?
		 WHERE id = ? AND version = ?`,
		args...,
	)
	if err != nil {
		return false, fmt.Errorf("update booking: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update booking: %w", err)
	}
	return affected == 1, nil
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
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
		nullableMillis(b.EventDate), toMillis(b.CreatedAt), toMillis(b.UpdatedAt), b.Version,
	}
}

func ratingArgs(rating *domain.Rating) (sql.NullInt64, string, sql.NullInt64) {
	if rating == nil {
		return sql.NullInt64{}, "", sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(rating.Stars), Valid: true}, rating.Comment, nullableMillis(rating.SubmittedAt)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (domain.Booking, error) {
	var (
		b                                 domain.Booking
		agreedRate, gigmateFee, mediation int64
		total                             int64
		status, cancelledBy, disputedBy   string
		venueStars, musicianStars         sql.NullInt64
		venueComment, musicianComment     string
		venueRatedAt, musicianRatedAt     sql.NullInt64
		eventDate                         sql.NullInt64
		createdAt, updatedAt              int64
	)
	if err := row.Scan(
		&b.ID, &b.VenueID, &b.MusicianID,
		&agreedRate, &b.Currency, &gigmateFee, &mediation, &total,
		&status, &b.VenueConfirmed, &b.MusicianConfirmed,
		&venueStars, &venueComment, &venueRatedAt,
		&musicianStars, &musicianComment, &musicianRatedAt,
		&b.CanReleaseFunds, &b.MediationRequired,
		&b.PaymentReference, &cancelledBy, &disputedBy, &b.DisputeReason,
		&eventDate, &createdAt, &updatedAt, &b.Version,
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
	if eventDate.Valid {
		b.EventDate = fromMillis(eventDate.Int64)
	}
	b.CreatedAt = fromMillis(createdAt)
	b.UpdatedAt = fromMillis(updatedAt)
	return b, nil
}

func scanRating(stars sql.NullInt64, comment string, ratedAt sql.NullInt64) *domain.Rating {
	if !stars.Valid {
		return nil
	}
	rating := &domain.Rating{Stars: int(stars.Int64), Comment: comment}
	if ratedAt.Valid {
		rating.SubmittedAt = fromMillis(ratedAt.Int64)
	}
	return rating
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "unique constraint failed") &&
		strings.Contains(message, "bookings.id")
}

var _ storage.BookingStore = (*Store)(nil)
