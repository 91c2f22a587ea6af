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
	ErrMatchNotFound           = errors.New("match not found")
	ErrMatchTournamentInvalid  = errors.New("match references an invalid tournament")
	ErrMatchParticipantInvalid = errors.New("match references an invalid participant")
	ErrMatchPositionConflict   = errors.New("a match already exists at this round and slot")
)

const matchColumns = `
	id, tournament_id, round_number, slot_index,
	participant_a_id, participant_b_id, status, score_a, score_b,
	winner_id, next_match_id, next_slot, cancel_reason, created_at, updated_at`

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Match, error)
	Update(ctx context.Context, exec SQLExecutor, match *models.Match) error
	UpdateBracketLink(ctx context.Context, exec SQLExecutor, matchID int, nextMatchID *int, nextSlot *int) error
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `
		INSERT INTO matches (
			tournament_id, round_number, slot_index,
			participant_a_id, participant_b_id, status, score_a, score_b,
			winner_id, next_match_id, next_slot, cancel_reason
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		match.TournamentID, match.RoundNumber, match.SlotIndex,
		match.ParticipantAID, match.ParticipantBID, match.Status, match.ScoreA, match.ScoreB,
		match.WinnerID, match.NextMatchID, match.NextSlot, match.CancelReason,
	).Scan(&match.ID, &match.CreatedAt, &match.UpdatedAt)

	return r.handleMatchError(err)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT` + matchColumns + ` FROM matches WHERE id = $1`

	match, err := scanMatch(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match %d: %w", id, err)
	}
	return match, nil
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Match, error) {
	query := `SELECT` + matchColumns + `
		FROM matches
		WHERE tournament_id = $1
		ORDER BY round_number ASC, slot_index ASC`

	rows, err := r.getExecutor(exec).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		match, scanErr := scanMatch(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, match)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) Update(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `
		UPDATE matches SET
			participant_a_id = $1, participant_b_id = $2, status = $3,
			score_a = $4, score_b = $5, winner_id = $6, cancel_reason = $7,
			updated_at = now()
		WHERE id = $8`

	result, err := r.getExecutor(exec).ExecContext(ctx, query,
		match.ParticipantAID, match.ParticipantBID, match.Status,
		match.ScoreA, match.ScoreB, match.WinnerID, match.CancelReason,
		match.ID,
	)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) UpdateBracketLink(ctx context.Context, exec SQLExecutor, matchID int, nextMatchID *int, nextSlot *int) error {
	query := `UPDATE matches SET next_match_id = $1, next_slot = $2 WHERE id = $3`
	result, err := r.getExecutor(exec).ExecContext(ctx, query, nextMatchID, nextSlot, matchID)
	if err != nil {
		return fmt.Errorf("UpdateBracketLink: failed for match %d: %w", matchID, err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) error {
	query := `DELETE FROM matches WHERE tournament_id = $1`
	_, err := r.getExecutor(exec).ExecContext(ctx, query, tournamentID)
	if err != nil {
		return fmt.Errorf("failed to delete matches for tournament %d: %w", tournamentID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMatch(row rowScanner) (*models.Match, error) {
	match := &models.Match{}
	err := row.Scan(
		&match.ID, &match.TournamentID, &match.RoundNumber, &match.SlotIndex,
		&match.ParticipantAID, &match.ParticipantBID, &match.Status, &match.ScoreA, &match.ScoreB,
		&match.WinnerID, &match.NextMatchID, &match.NextSlot, &match.CancelReason,
		&match.CreatedAt, &match.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return match, nil
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Constraint {
		case "matches_tournament_id_fkey":
			return ErrMatchTournamentInvalid
		case "matches_participant_a_id_fkey", "matches_participant_b_id_fkey", "matches_winner_id_fkey":
			return ErrMatchParticipantInvalid
		case "matches_tournament_round_slot_key":
			return ErrMatchPositionConflict
		}
	}
	return err
}
