package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/footballinvestment/lfa-legacy-go/models"
)

var ErrChallengeNotFound = errors.New("challenge not found")

type ChallengeRepository interface {
	Create(ctx context.Context, exec SQLExecutor, c *models.Challenge) error
	GetByID(ctx context.Context, id int) (*models.Challenge, error)
	Update(ctx context.Context, exec SQLExecutor, c *models.Challenge) error
	ListForUser(ctx context.Context, userID int, status *models.ChallengeStatus) ([]*models.Challenge, error)
	ListPendingCreatedBefore(ctx context.Context, cutoff time.Time) ([]*models.Challenge, error)
}

type postgresChallengeRepository struct {
	db *sql.DB
}

func NewPostgresChallengeRepository(db *sql.DB) ChallengeRepository {
	return &postgresChallengeRepository{db: db}
}

func (r *postgresChallengeRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const challengeColumns = `
	id, challenger_id, challenged_id, location_id, scheduled_at, stake, status,
	score_challenger, score_challenged, winner_id, created_at, responded_at`

func (r *postgresChallengeRepository) Create(ctx context.Context, exec SQLExecutor, c *models.Challenge) error {
	query := `
		INSERT INTO challenges (challenger_id, challenged_id, location_id, scheduled_at, stake, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		c.ChallengerID, c.ChallengedID, c.LocationID, c.ScheduledAt, c.Stake, c.Status,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert challenge: %w", err)
	}
	return nil
}

func (r *postgresChallengeRepository) GetByID(ctx context.Context, id int) (*models.Challenge, error) {
	c, err := scanChallenge(r.db.QueryRowContext(ctx,
		`SELECT`+challengeColumns+` FROM challenges WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrChallengeNotFound
		}
		return nil, fmt.Errorf("failed to scan challenge %d: %w", id, err)
	}
	return c, nil
}

func (r *postgresChallengeRepository) Update(ctx context.Context, exec SQLExecutor, c *models.Challenge) error {
	query := `
		UPDATE challenges SET
			status = $1, score_challenger = $2, score_challenged = $3,
			winner_id = $4, responded_at = $5
		WHERE id = $6`

	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		c.Status, c.ScoreChallenger, c.ScoreChallenged, c.WinnerID, c.RespondedAt, c.ID)
	if err != nil {
		return fmt.Errorf("failed to update challenge %d: %w", c.ID, err)
	}
	return checkAffectedRows(result, ErrChallengeNotFound)
}

func (r *postgresChallengeRepository) ListForUser(ctx context.Context, userID int, status *models.ChallengeStatus) ([]*models.Challenge, error) {
	query := `SELECT` + challengeColumns + `
		FROM challenges
		WHERE (challenger_id = $1 OR challenged_id = $1)`
	args := []interface{}{userID}
	if status != nil {
		query += " AND status = $2"
		args = append(args, *status)
	}
	query += " ORDER BY scheduled_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query challenges for user %d: %w", userID, err)
	}
	defer rows.Close()

	challenges := make([]*models.Challenge, 0)
	for rows.Next() {
		c, scanErr := scanChallenge(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan challenge row: %w", scanErr)
		}
		challenges = append(challenges, c)
	}
	return challenges, rows.Err()
}

// ListPendingCreatedBefore returns unanswered challenges older than the
// cutoff, candidates for expiry.
func (r *postgresChallengeRepository) ListPendingCreatedBefore(ctx context.Context, cutoff time.Time) ([]*models.Challenge, error) {
	query := `SELECT` + challengeColumns + `
		FROM challenges
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, models.ChallengeStatusPending, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query stale challenges: %w", err)
	}
	defer rows.Close()

	challenges := make([]*models.Challenge, 0)
	for rows.Next() {
		c, scanErr := scanChallenge(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan challenge row: %w", scanErr)
		}
		challenges = append(challenges, c)
	}
	return challenges, rows.Err()
}

func scanChallenge(row rowScanner) (*models.Challenge, error) {
	c := &models.Challenge{}
	err := row.Scan(
		&c.ID, &c.ChallengerID, &c.ChallengedID, &c.LocationID, &c.ScheduledAt, &c.Stake, &c.Status,
		&c.ScoreChallenger, &c.ScoreChallenged, &c.WinnerID, &c.CreatedAt, &c.RespondedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}
