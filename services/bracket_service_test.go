package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/footballinvestment/lfa-legacy-go/brackets"
	"github.com/footballinvestment/lfa-legacy-go/models"
	"github.com/footballinvestment/lfa-legacy-go/repositories"
)

func (r *stubTournamentRepo) UpdateSeeded(_ context.Context, exec repositories.SQLExecutor, _ int, status models.TournamentStatus, roundCount int) error {
	if exec == nil {
		return errTxRequired
	}
	r.tournament.Status = status
	r.tournament.RoundCount = roundCount
	return nil
}

func (r *stubParticipantRepo) ListByTournament(context.Context, repositories.SQLExecutor, int, models.SeedOrder) ([]*models.Participant, error) {
	return r.participants, nil
}

func (r *stubParticipantRepo) UpdateSeed(_ context.Context, exec repositories.SQLExecutor, id, seed int) error {
	if exec == nil {
		return errTxRequired
	}
	r.seeds[id] = seed
	return nil
}

func (r *stubMatchRepo) Create(_ context.Context, exec repositories.SQLExecutor, match *models.Match) error {
	if exec == nil {
		return errTxRequired
	}
	match.ID = len(r.rows) + 1
	r.rows = append(r.rows, match)
	return nil
}

func (r *stubMatchRepo) UpdateBracketLink(_ context.Context, exec repositories.SQLExecutor, matchID int, nextMatchID *int, nextSlot *int) error {
	if exec == nil {
		return errTxRequired
	}
	return nil
}

func TestGenerateBracketStartsTournamentImmediately(t *testing.T) {
	participants := make([]*models.Participant, 5)
	for i := range participants {
		participants[i] = &models.Participant{ID: 200 + i, TournamentID: 7, UserID: 300 + i}
	}

	conn := &stubConn{}
	db := sql.OpenDB(&stubConnector{conn: conn})
	t.Cleanup(func() { db.Close() })

	tournamentRepo := &stubTournamentRepo{tournament: &models.Tournament{
		ID:          7,
		OrganizerID: 1,
		Status:      models.TournamentStatusRegistrationOpen,
	}}
	participantRepo := &stubParticipantRepo{
		participants: participants,
		seeds:        make(map[int]int),
	}
	matchRepo := &stubMatchRepo{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := NewBracketService(db, tournamentRepo, participantRepo, matchRepo,
		NewTournamentLocker(), brackets.NewHub(logger), logger)

	snapshot, err := svc.GenerateBracket(context.Background(), 7, Actor{ID: 1, Role: models.RolePlayer}, models.SeedOrderRegistration)
	require.NoError(t, err)

	// Generation lands the tournament in in_progress, no seeded stopover.
	assert.Equal(t, models.TournamentStatusInProgress, snapshot.Status)
	assert.Equal(t, models.TournamentStatusInProgress, tournamentRepo.tournament.Status)
	assert.Equal(t, 3, snapshot.RoundCount)

	require.Len(t, conn.txs, 1)
	assert.True(t, conn.txs[0].committed)

	// Seeds froze in registration order, bracket of 8 behind them.
	for i, p := range participants {
		assert.Equal(t, i+1, participantRepo.seeds[p.ID], "participant %d", p.ID)
	}
	assert.Len(t, matchRepo.rows, 7)
}

func TestGenerateBracketRejectsRunningTournament(t *testing.T) {
	conn := &stubConn{}
	db := sql.OpenDB(&stubConnector{conn: conn})
	t.Cleanup(func() { db.Close() })

	tournamentRepo := &stubTournamentRepo{tournament: &models.Tournament{
		ID:          7,
		OrganizerID: 1,
		Status:      models.TournamentStatusInProgress,
	}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := NewBracketService(db, tournamentRepo, &stubParticipantRepo{}, &stubMatchRepo{},
		NewTournamentLocker(), brackets.NewHub(logger), logger)

	_, err := svc.GenerateBracket(context.Background(), 7, Actor{ID: 1, Role: models.RolePlayer}, models.SeedOrderRegistration)
	assert.ErrorIs(t, err, ErrAlreadySeeded)
}
