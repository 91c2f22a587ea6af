package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/footballinvestment/lfa-legacy-go/models"
	"github.com/lib/pq"
)

var (
	ErrLocationNotFound     = errors.New("location not found")
	ErrLocationNameConflict = errors.New("location name is already in use")
)

type LocationRepository interface {
	Create(ctx context.Context, l *models.Location) error
	GetByID(ctx context.Context, id int) (*models.Location, error)
	List(ctx context.Context, onlyActive bool) ([]models.Location, error)
	Update(ctx context.Context, l *models.Location) error
	UpdatePhotoKey(ctx context.Context, id int, photoKey *string) error
	SetActive(ctx context.Context, id int, active bool) error
}

type postgresLocationRepository struct {
	db *sql.DB
}

func NewPostgresLocationRepository(db *sql.DB) LocationRepository {
	return &postgresLocationRepository{db: db}
}

const locationColumns = `
	id, name, address, city, latitude, longitude, hourly_fee, capacity,
	outdoor, active, photo_key, created_at`

func (r *postgresLocationRepository) Create(ctx context.Context, l *models.Location) error {
	query := `
		INSERT INTO locations (name, address, city, latitude, longitude, hourly_fee, capacity, outdoor, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		l.Name, l.Address, l.City, l.Latitude, l.Longitude, l.HourlyFee, l.Capacity, l.Outdoor, l.Active,
	).Scan(&l.ID, &l.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Constraint == "locations_name_key" {
			return ErrLocationNameConflict
		}
		return fmt.Errorf("failed to insert location: %w", err)
	}
	return nil
}

func (r *postgresLocationRepository) GetByID(ctx context.Context, id int) (*models.Location, error) {
	l, err := scanLocation(r.db.QueryRowContext(ctx,
		`SELECT`+locationColumns+` FROM locations WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrLocationNotFound
		}
		return nil, fmt.Errorf("failed to scan location %d: %w", id, err)
	}
	return l, nil
}

func (r *postgresLocationRepository) List(ctx context.Context, onlyActive bool) ([]models.Location, error) {
	query := `SELECT` + locationColumns + ` FROM locations`
	if onlyActive {
		query += ` WHERE active = TRUE`
	}
	query += ` ORDER BY city ASC, name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	defer rows.Close()

	locations := make([]models.Location, 0)
	for rows.Next() {
		l, scanErr := scanLocation(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan location row: %w", scanErr)
		}
		locations = append(locations, *l)
	}
	return locations, rows.Err()
}

func (r *postgresLocationRepository) Update(ctx context.Context, l *models.Location) error {
	query := `
		UPDATE locations SET
			name = $1, address = $2, city = $3, latitude = $4, longitude = $5,
			hourly_fee = $6, capacity = $7, outdoor = $8
		WHERE id = $9`

	result, err := r.db.ExecContext(ctx, query,
		l.Name, l.Address, l.City, l.Latitude, l.Longitude,
		l.HourlyFee, l.Capacity, l.Outdoor, l.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Constraint == "locations_name_key" {
			return ErrLocationNameConflict
		}
		return fmt.Errorf("failed to update location %d: %w", l.ID, err)
	}
	return checkAffectedRows(result, ErrLocationNotFound)
}

func (r *postgresLocationRepository) UpdatePhotoKey(ctx context.Context, id int, photoKey *string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE locations SET photo_key = $1 WHERE id = $2`, photoKey, id)
	if err != nil {
		return fmt.Errorf("failed to update photo for location %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrLocationNotFound)
}

func (r *postgresLocationRepository) SetActive(ctx context.Context, id int, active bool) error {
	result, err := r.db.ExecContext(ctx, `UPDATE locations SET active = $1 WHERE id = $2`, active, id)
	if err != nil {
		return fmt.Errorf("failed to update active flag for location %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrLocationNotFound)
}

func scanLocation(row rowScanner) (*models.Location, error) {
	l := &models.Location{}
	err := row.Scan(
		&l.ID, &l.Name, &l.Address, &l.City, &l.Latitude, &l.Longitude,
		&l.HourlyFee, &l.Capacity, &l.Outdoor, &l.Active, &l.PhotoKey, &l.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return l, nil
}
