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
	ErrParticipantNotFound     = errors.New("participant registration not found")
	ErrParticipantConflict     = errors.New("user is already registered for this tournament")
	ErrParticipantInvalidRefs  = errors.New("participant references an invalid user or tournament")
	ErrParticipantSeedConflict = errors.New("seed already assigned in this tournament")
)

type ParticipantRepository interface {
	Create(ctx context.Context, exec SQLExecutor, participant *models.Participant) error
	GetByID(ctx context.Context, id int) (*models.Participant, error)
	GetByTournamentAndUser(ctx context.Context, tournamentID, userID int) (*models.Participant, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, order models.SeedOrder) ([]*models.Participant, error)
	UpdateSeed(ctx context.Context, exec SQLExecutor, id, seed int) error
	SetEliminated(ctx context.Context, exec SQLExecutor, id int, eliminated bool) error
	CountByTournament(ctx context.Context, tournamentID int) (int, error)
	Delete(ctx context.Context, exec SQLExecutor, id int) error
}

type postgresParticipantRepository struct {
	db *sql.DB
}

func NewPostgresParticipantRepository(db *sql.DB) ParticipantRepository {
	return &postgresParticipantRepository{db: db}
}

func (r *postgresParticipantRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const participantColumns = `id, tournament_id, user_id, seed, rank, eliminated, created_at`

func (r *postgresParticipantRepository) Create(ctx context.Context, exec SQLExecutor, p *models.Participant) error {
	query := `
		INSERT INTO participants (tournament_id, user_id, seed, rank, eliminated)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		p.TournamentID, p.UserID, p.Seed, p.Rank, p.Eliminated,
	).Scan(&p.ID, &p.CreatedAt)

	return r.handleParticipantError(err)
}

func (r *postgresParticipantRepository) GetByID(ctx context.Context, id int) (*models.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE id = $1`

	p, err := scanParticipant(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("failed to scan participant %d: %w", id, err)
	}
	return p, nil
}

func (r *postgresParticipantRepository) GetByTournamentAndUser(ctx context.Context, tournamentID, userID int) (*models.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE tournament_id = $1 AND user_id = $2`

	p, err := scanParticipant(r.db.QueryRowContext(ctx, query, tournamentID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("failed to scan participant for tournament %d user %d: %w", tournamentID, userID, err)
	}
	return p, nil
}

// ListByTournament returns the registry in a deterministic order: by seed
// when seeding is done, otherwise by the requested snapshot order.
func (r *postgresParticipantRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, order models.SeedOrder) ([]*models.Participant, error) {
	orderBy := "CASE WHEN seed > 0 THEN seed ELSE id END ASC, id ASC"
	if order == models.SeedOrderRank {
		orderBy = "CASE WHEN seed > 0 THEN seed ELSE rank END ASC, id ASC"
	}

	query := `SELECT ` + participantColumns + `
		FROM participants
		WHERE tournament_id = $1
		ORDER BY ` + orderBy

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query participants for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	participants := make([]*models.Participant, 0)
	for rows.Next() {
		p, scanErr := scanParticipant(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", scanErr)
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func (r *postgresParticipantRepository) UpdateSeed(ctx context.Context, exec SQLExecutor, id, seed int) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `UPDATE participants SET seed = $1 WHERE id = $2`, seed, id)
	if err != nil {
		return r.handleParticipantError(err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) SetEliminated(ctx context.Context, exec SQLExecutor, id int, eliminated bool) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `UPDATE participants SET eliminated = $1 WHERE id = $2`, eliminated, id)
	if err != nil {
		return fmt.Errorf("failed to set eliminated for participant %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) CountByTournament(ctx context.Context, tournamentID int) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM participants WHERE tournament_id = $1`, tournamentID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count participants for tournament %d: %w", tournamentID, err)
	}
	return count, nil
}

func (r *postgresParticipantRepository) Delete(ctx context.Context, exec SQLExecutor, id int) error {
	result, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM participants WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func scanParticipant(row rowScanner) (*models.Participant, error) {
	p := &models.Participant{}
	err := row.Scan(&p.ID, &p.TournamentID, &p.UserID, &p.Seed, &p.Rank, &p.Eliminated, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *postgresParticipantRepository) handleParticipantError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "participants_tournament_user_key":
			return ErrParticipantConflict
		case "participants_tournament_id_fkey", "participants_user_id_fkey":
			return ErrParticipantInvalidRefs
		case "participants_tournament_seed_key":
			return ErrParticipantSeedConflict
		}
	}
	return err
}
