package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/footballinvestment/lfa-legacy-go/brackets"
	"github.com/footballinvestment/lfa-legacy-go/models"
	"github.com/footballinvestment/lfa-legacy-go/repositories"
)

type BracketService interface {
	// GenerateBracket freezes the participant registry, assigns seeds and
	// persists the full match plan. The tournament moves straight to
	// in_progress; round-1 matches come out of generation already scheduled.
	GenerateBracket(ctx context.Context, tournamentID int, actor Actor, order models.SeedOrder) (*models.BracketSnapshot, error)

	// StartTournament moves a seeded tournament to in_progress. Generation
	// no longer stops at seeded, so this only picks up tournaments stranded
	// there by earlier versions.
	StartTournament(ctx context.Context, tournamentID int, actor Actor) error

	GetBracket(ctx context.Context, tournamentID int) (*models.BracketSnapshot, error)
}

type bracketService struct {
	db              *sql.DB
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	matchRepo       repositories.MatchRepository
	locker          *TournamentLocker
	hub             *brackets.Hub
	logger          *slog.Logger
}

func NewBracketService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	matchRepo repositories.MatchRepository,
	locker *TournamentLocker,
	hub *brackets.Hub,
	logger *slog.Logger,
) BracketService {
	return &bracketService{
		db:              db,
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		matchRepo:       matchRepo,
		locker:          locker,
		hub:             hub,
		logger:          logger,
	}
}

func (s *bracketService) GenerateBracket(ctx context.Context, tournamentID int, actor Actor, order models.SeedOrder) (*models.BracketSnapshot, error) {
	release, err := s.locker.Acquire(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	defer release()

	tournament, err := s.loadTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if !canManageTournament(actor, tournament) {
		return nil, ErrForbiddenOperation
	}

	switch tournament.Status {
	case models.TournamentStatusRegistrationOpen:
	case models.TournamentStatusSeeded, models.TournamentStatusInProgress:
		return nil, ErrAlreadySeeded
	default:
		return nil, ErrTournamentNotModifiable
	}

	if order == "" {
		order = models.SeedOrderRegistration
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	participants, err := s.participantRepo.ListByTournament(ctx, tx, tournamentID, order)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants for tournament %d: %w", tournamentID, err)
	}
	if len(participants) < 2 {
		return nil, ErrNotEnoughPlayers
	}

	// Freeze seeds 1..N in the chosen order.
	participantIDs := make([]int, len(participants))
	for i, p := range participants {
		seed := i + 1
		if err := s.participantRepo.UpdateSeed(ctx, tx, p.ID, seed); err != nil {
			return nil, fmt.Errorf("failed to assign seed %d: %w", seed, err)
		}
		p.Seed = seed
		participantIDs[i] = p.ID
	}

	plan, err := brackets.GenerateSingleElimination(participantIDs)
	if err != nil {
		if errors.Is(err, brackets.ErrInvalidParticipantCount) {
			return nil, ErrNotEnoughPlayers
		}
		return nil, fmt.Errorf("failed to generate bracket for tournament %d: %w", tournamentID, err)
	}

	// First pass inserts the rows, second pass rewrites the plan-index winner
	// links into database ids.
	created := make([]*models.Match, len(plan.Matches))
	for i, mp := range plan.Matches {
		match := &models.Match{
			TournamentID:   tournamentID,
			RoundNumber:    mp.Round,
			SlotIndex:      mp.SlotIndex,
			ParticipantAID: mp.ParticipantAID,
			ParticipantBID: mp.ParticipantBID,
			Status:         mp.Status,
			WinnerID:       mp.WinnerID,
		}
		if err := s.matchRepo.Create(ctx, tx, match); err != nil {
			return nil, fmt.Errorf("failed to insert match round %d slot %d: %w", mp.Round, mp.SlotIndex, err)
		}
		created[i] = match
	}
	for i, mp := range plan.Matches {
		if mp.NextIndex < 0 {
			continue
		}
		nextID := created[mp.NextIndex].ID
		nextSlot := mp.NextSlot
		if err := s.matchRepo.UpdateBracketLink(ctx, tx, created[i].ID, &nextID, &nextSlot); err != nil {
			return nil, fmt.Errorf("failed to link match %d: %w", created[i].ID, err)
		}
		created[i].NextMatchID = &nextID
		created[i].NextSlot = &nextSlot
	}

	if err := s.tournamentRepo.UpdateSeeded(ctx, tx, tournamentID, models.TournamentStatusInProgress, plan.RoundCount); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit bracket for tournament %d: %w", tournamentID, err)
	}

	tournament.Status = models.TournamentStatusInProgress
	tournament.RoundCount = plan.RoundCount
	snapshot := buildSnapshot(tournament, created)

	s.logger.Info("bracket generated",
		slog.Int("tournament_id", tournamentID),
		slog.Int("participants", len(participants)),
		slog.Int("rounds", plan.RoundCount),
		slog.Int("byes", plan.ByeCount))

	s.hub.BroadcastToRoom(tournamentRoom(tournamentID), brackets.HubMessage{
		Type:    brackets.EventBracketGenerated,
		Payload: snapshot,
	})

	return snapshot, nil
}

func (s *bracketService) StartTournament(ctx context.Context, tournamentID int, actor Actor) error {
	release, err := s.locker.Acquire(ctx, tournamentID)
	if err != nil {
		return err
	}
	defer release()

	tournament, err := s.loadTournament(ctx, tournamentID)
	if err != nil {
		return err
	}
	if !canManageTournament(actor, tournament) {
		return ErrForbiddenOperation
	}

	switch tournament.Status {
	case models.TournamentStatusSeeded:
	case models.TournamentStatusRegistrationOpen:
		return ErrBracketNotGenerated
	default:
		return ErrTournamentNotModifiable
	}

	if err := s.tournamentRepo.UpdateStatus(ctx, nil, tournamentID, models.TournamentStatusInProgress); err != nil {
		return err
	}

	s.logger.Info("tournament started", slog.Int("tournament_id", tournamentID))
	return nil
}

func (s *bracketService) GetBracket(ctx context.Context, tournamentID int) (*models.BracketSnapshot, error) {
	tournament, err := s.loadTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	matches, err := s.matchRepo.ListByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, ErrBracketNotGenerated
	}

	return buildSnapshot(tournament, matches), nil
}

func (s *bracketService) loadTournament(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return tournament, nil
}

func buildSnapshot(t *models.Tournament, matches []*models.Match) *models.BracketSnapshot {
	rounds := make([][]models.Match, t.RoundCount)
	for i := range rounds {
		rounds[i] = []models.Match{}
	}
	for _, m := range matches {
		if m.RoundNumber >= 1 && m.RoundNumber <= t.RoundCount {
			rounds[m.RoundNumber-1] = append(rounds[m.RoundNumber-1], *m)
		}
	}
	return &models.BracketSnapshot{
		TournamentID: t.ID,
		Status:       t.Status,
		RoundCount:   t.RoundCount,
		Rounds:       rounds,
		WinnerID:     t.WinnerID,
	}
}

func tournamentRoom(tournamentID int) string {
	return "tournament:" + strconv.Itoa(tournamentID)
}
