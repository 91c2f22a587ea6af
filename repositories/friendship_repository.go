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
	ErrFriendshipNotFound = errors.New("friendship not found")
	ErrFriendshipConflict = errors.New("a friendship or pending request already exists for this pair")
)

type FriendshipRepository interface {
	Create(ctx context.Context, f *models.Friendship) error
	GetByID(ctx context.Context, id int) (*models.Friendship, error)
	GetByPair(ctx context.Context, userA, userB int) (*models.Friendship, error)
	UpdateStatus(ctx context.Context, id int, status models.FriendshipStatus) error
	ListForUser(ctx context.Context, userID int, status *models.FriendshipStatus) ([]*models.Friendship, error)
	Delete(ctx context.Context, id int) error
}

type postgresFriendshipRepository struct {
	db *sql.DB
}

func NewPostgresFriendshipRepository(db *sql.DB) FriendshipRepository {
	return &postgresFriendshipRepository{db: db}
}

const friendshipColumns = `id, requester_id, addressee_id, status, created_at, responded_at`

func (r *postgresFriendshipRepository) Create(ctx context.Context, f *models.Friendship) error {
	query := `
		INSERT INTO friendships (requester_id, addressee_id, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, f.RequesterID, f.AddresseeID, f.Status).
		Scan(&f.ID, &f.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Constraint == "friendships_pair_key" {
			return ErrFriendshipConflict
		}
		return fmt.Errorf("failed to insert friendship: %w", err)
	}
	return nil
}

func (r *postgresFriendshipRepository) GetByID(ctx context.Context, id int) (*models.Friendship, error) {
	f, err := scanFriendship(r.db.QueryRowContext(ctx,
		`SELECT `+friendshipColumns+` FROM friendships WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFriendshipNotFound
		}
		return nil, fmt.Errorf("failed to scan friendship %d: %w", id, err)
	}
	return f, nil
}

// GetByPair finds the record regardless of request direction.
func (r *postgresFriendshipRepository) GetByPair(ctx context.Context, userA, userB int) (*models.Friendship, error) {
	query := `
		SELECT ` + friendshipColumns + `
		FROM friendships
		WHERE (requester_id = $1 AND addressee_id = $2)
		   OR (requester_id = $2 AND addressee_id = $1)`

	f, err := scanFriendship(r.db.QueryRowContext(ctx, query, userA, userB))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFriendshipNotFound
		}
		return nil, fmt.Errorf("failed to scan friendship for pair (%d, %d): %w", userA, userB, err)
	}
	return f, nil
}

func (r *postgresFriendshipRepository) UpdateStatus(ctx context.Context, id int, status models.FriendshipStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE friendships SET status = $1, responded_at = now() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update friendship %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrFriendshipNotFound)
}

func (r *postgresFriendshipRepository) ListForUser(ctx context.Context, userID int, status *models.FriendshipStatus) ([]*models.Friendship, error) {
	query := `SELECT ` + friendshipColumns + `
		FROM friendships
		WHERE (requester_id = $1 OR addressee_id = $1)`
	args := []interface{}{userID}
	if status != nil {
		query += " AND status = $2"
		args = append(args, *status)
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query friendships for user %d: %w", userID, err)
	}
	defer rows.Close()

	friendships := make([]*models.Friendship, 0)
	for rows.Next() {
		f, scanErr := scanFriendship(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan friendship row: %w", scanErr)
		}
		friendships = append(friendships, f)
	}
	return friendships, rows.Err()
}

func (r *postgresFriendshipRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM friendships WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrFriendshipNotFound)
}

func scanFriendship(row rowScanner) (*models.Friendship, error) {
	f := &models.Friendship{}
	err := row.Scan(&f.ID, &f.RequesterID, &f.AddresseeID, &f.Status, &f.CreatedAt, &f.RespondedAt)
	if err != nil {
		return nil, err
	}
	return f, nil
}
