package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/footballinvestment/lfa-legacy-go/models"
)

var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrBookingOverlap  = errors.New("the requested slot overlaps an existing booking")
)

type BookingRepository interface {
	Create(ctx context.Context, exec SQLExecutor, b *models.LocationBooking) error
	GetByID(ctx context.Context, id int) (*models.LocationBooking, error)
	CountOverlapping(ctx context.Context, exec SQLExecutor, locationID int, from, to time.Time) (int, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.BookingStatus, cancelReason *string) error
	ListByUser(ctx context.Context, userID int) ([]*models.LocationBooking, error)
	ListUpcomingOutdoor(ctx context.Context, from, to time.Time) ([]*models.LocationBooking, error)
}

type postgresBookingRepository struct {
	db *sql.DB
}

func NewPostgresBookingRepository(db *sql.DB) BookingRepository {
	return &postgresBookingRepository{db: db}
}

func (r *postgresBookingRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const bookingColumns = `
	id, reference, location_id, user_id, starts_at, ends_at, fee_paid,
	status, cancel_reason, created_at`

func (r *postgresBookingRepository) Create(ctx context.Context, exec SQLExecutor, b *models.LocationBooking) error {
	query := `
		INSERT INTO location_bookings (reference, location_id, user_id, starts_at, ends_at, fee_paid, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		b.Reference, b.LocationID, b.UserID, b.StartsAt, b.EndsAt, b.FeePaid, b.Status,
	).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}
	return nil
}

func (r *postgresBookingRepository) GetByID(ctx context.Context, id int) (*models.LocationBooking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx,
		`SELECT`+bookingColumns+` FROM location_bookings WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to scan booking %d: %w", id, err)
	}
	return b, nil
}

func (r *postgresBookingRepository) CountOverlapping(ctx context.Context, exec SQLExecutor, locationID int, from, to time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM location_bookings
		WHERE location_id = $1
		  AND status = $2
		  AND starts_at < $4
		  AND ends_at > $3`

	var count int
	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		locationID, models.BookingStatusConfirmed, from, to).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count overlapping bookings: %w", err)
	}
	return count, nil
}

func (r *postgresBookingRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.BookingStatus, cancelReason *string) error {
	result, err := r.getExecutor(exec).ExecContext(ctx,
		`UPDATE location_bookings SET status = $1, cancel_reason = $2 WHERE id = $3`,
		status, cancelReason, id)
	if err != nil {
		return fmt.Errorf("failed to update booking %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrBookingNotFound)
}

func (r *postgresBookingRepository) ListByUser(ctx context.Context, userID int) ([]*models.LocationBooking, error) {
	query := `SELECT` + bookingColumns + `
		FROM location_bookings
		WHERE user_id = $1
		ORDER BY starts_at DESC`

	return r.queryBookings(ctx, query, userID)
}

// ListUpcomingOutdoor returns confirmed bookings at outdoor locations in
// the given window, used by the weather sweep.
func (r *postgresBookingRepository) ListUpcomingOutdoor(ctx context.Context, from, to time.Time) ([]*models.LocationBooking, error) {
	query := `
		SELECT b.id, b.reference, b.location_id, b.user_id, b.starts_at, b.ends_at,
		       b.fee_paid, b.status, b.cancel_reason, b.created_at
		FROM location_bookings b
		JOIN locations l ON l.id = b.location_id
		WHERE b.status = '` + string(models.BookingStatusConfirmed) + `'
		  AND l.outdoor = TRUE
		  AND b.starts_at >= $1 AND b.starts_at < $2
		ORDER BY b.starts_at ASC`

	return r.queryBookings(ctx, query, from, to)
}

func (r *postgresBookingRepository) queryBookings(ctx context.Context, query string, args ...interface{}) ([]*models.LocationBooking, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]*models.LocationBooking, 0)
	for rows.Next() {
		b, scanErr := scanBooking(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan booking row: %w", scanErr)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func scanBooking(row rowScanner) (*models.LocationBooking, error) {
	b := &models.LocationBooking{}
	err := row.Scan(
		&b.ID, &b.Reference, &b.LocationID, &b.UserID, &b.StartsAt, &b.EndsAt,
		&b.FeePaid, &b.Status, &b.CancelReason, &b.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}
