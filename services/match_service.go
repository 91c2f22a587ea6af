package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/footballinvestment/lfa-legacy-go/brackets"
	"github.com/footballinvestment/lfa-legacy-go/models"
	"github.com/footballinvestment/lfa-legacy-go/repositories"
)

type MatchService interface {
	StartMatch(ctx context.Context, tournamentID, matchID int, actor Actor) (*models.Match, error)
	SubmitScore(ctx context.Context, tournamentID, matchID, scoreA, scoreB int, actor Actor) (*models.Match, error)
	CancelMatch(ctx context.Context, tournamentID, matchID int, reason string, actor Actor) (*models.Match, error)
	WithdrawParticipant(ctx context.Context, tournamentID, participantID int, reason string, actor Actor) error
	CorrectResult(ctx context.Context, tournamentID, matchID, scoreA, scoreB int, actor Actor) (*models.Match, error)
	GetMatch(ctx context.Context, matchID int) (*models.Match, error)
}

type matchService struct {
	db              *sql.DB
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	matchRepo       repositories.MatchRepository
	auditRepo       repositories.AuditRepository
	locker          *TournamentLocker
	hub             *brackets.Hub
	logger          *slog.Logger
}

func NewMatchService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	matchRepo repositories.MatchRepository,
	auditRepo repositories.AuditRepository,
	locker *TournamentLocker,
	hub *brackets.Hub,
	logger *slog.Logger,
) MatchService {
	return &matchService{
		db:              db,
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		matchRepo:       matchRepo,
		auditRepo:       auditRepo,
		locker:          locker,
		hub:             hub,
		logger:          logger,
	}
}

// bracketOp runs one engine operation under the tournament's mutation lock
// and persists its outcome atomically. allowCompleted admits operations that
// are legal after the tournament finished (result corrections). A non-nil
// audit entry commits in the same transaction as the mutation it records.
func (s *matchService) bracketOp(
	ctx context.Context,
	tournamentID int,
	actor Actor,
	allowCompleted bool,
	audit *models.AuditLogEntry,
	op func(b *brackets.Bracket) (*brackets.Outcome, error),
) (*models.Tournament, *brackets.Outcome, error) {
	release, err := s.locker.Acquire(ctx, tournamentID)
	if err != nil {
		return nil, nil, err
	}
	defer release()

	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, nil, ErrTournamentNotFound
		}
		return nil, nil, err
	}
	if !canManageTournament(actor, tournament) {
		return nil, nil, ErrForbiddenOperation
	}

	switch tournament.Status {
	case models.TournamentStatusInProgress:
	case models.TournamentStatusCompleted:
		if !allowCompleted {
			return nil, nil, ErrTournamentNotInProgress
		}
	default:
		return nil, nil, ErrTournamentNotInProgress
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	matches, err := s.matchRepo.ListByTournament(ctx, tx, tournamentID)
	if err != nil {
		return nil, nil, err
	}
	bracket, err := brackets.NewBracket(matches)
	if err != nil {
		return nil, nil, err
	}

	outcome, err := op(bracket)
	if err != nil {
		if errors.Is(err, brackets.ErrMatchNotInBracket) {
			return nil, nil, ErrMatchNotFound
		}
		return nil, nil, err
	}

	for _, m := range outcome.Dirty {
		if err := s.matchRepo.Update(ctx, tx, m); err != nil {
			return nil, nil, fmt.Errorf("failed to persist match %d: %w", m.ID, err)
		}
	}
	for _, pid := range outcome.Eliminated {
		if err := s.participantRepo.SetEliminated(ctx, tx, pid, true); err != nil {
			return nil, nil, err
		}
	}
	for _, pid := range outcome.Reinstated {
		if err := s.participantRepo.SetEliminated(ctx, tx, pid, false); err != nil {
			return nil, nil, err
		}
	}

	switch {
	case outcome.TournamentComplete:
		if err := s.tournamentRepo.UpdateWinner(ctx, tx, tournamentID, outcome.ChampionID); err != nil {
			return nil, nil, err
		}
		if tournament.Status != models.TournamentStatusCompleted {
			if err := s.tournamentRepo.UpdateStatus(ctx, tx, tournamentID, models.TournamentStatusCompleted); err != nil {
				return nil, nil, err
			}
			tournament.Status = models.TournamentStatusCompleted
		}
		tournament.WinnerID = outcome.ChampionID
	case outcome.TournamentDead:
		if err := s.tournamentRepo.UpdateStatus(ctx, tx, tournamentID, models.TournamentStatusCancelled); err != nil {
			return nil, nil, err
		}
		tournament.Status = models.TournamentStatusCancelled
	}

	if audit != nil {
		if err := s.auditRepo.Create(ctx, tx, audit); err != nil {
			return nil, nil, fmt.Errorf("failed to record audit entry: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit bracket mutation: %w", err)
	}
	return tournament, outcome, nil
}

func (s *matchService) StartMatch(ctx context.Context, tournamentID, matchID int, actor Actor) (*models.Match, error) {
	var started *models.Match
	_, _, err := s.bracketOp(ctx, tournamentID, actor, false, nil, func(b *brackets.Bracket) (*brackets.Outcome, error) {
		outcome, err := b.StartMatch(matchID)
		if err != nil {
			return nil, err
		}
		started, _ = b.Match(matchID)
		return outcome, nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcastMatch(tournamentID, brackets.EventMatchUpdated, started)
	return started, nil
}

func (s *matchService) SubmitScore(ctx context.Context, tournamentID, matchID, scoreA, scoreB int, actor Actor) (*models.Match, error) {
	var scored *models.Match
	tournament, outcome, err := s.bracketOp(ctx, tournamentID, actor, false, nil, func(b *brackets.Bracket) (*brackets.Outcome, error) {
		out, err := b.SubmitScore(matchID, scoreA, scoreB)
		if err != nil {
			return nil, err
		}
		scored, _ = b.Match(matchID)
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("score submitted",
		slog.Int("tournament_id", tournamentID),
		slog.Int("match_id", matchID),
		slog.Int("score_a", scoreA),
		slog.Int("score_b", scoreB))

	s.broadcastOutcome(tournament, outcome, scored)
	return scored, nil
}

func (s *matchService) CancelMatch(ctx context.Context, tournamentID, matchID int, reason string, actor Actor) (*models.Match, error) {
	var cancelled *models.Match
	tournament, outcome, err := s.bracketOp(ctx, tournamentID, actor, false, nil, func(b *brackets.Bracket) (*brackets.Outcome, error) {
		out, err := b.CancelMatch(matchID, reason)
		if err != nil {
			return nil, err
		}
		cancelled, _ = b.Match(matchID)
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcastOutcome(tournament, outcome, cancelled)
	return cancelled, nil
}

func (s *matchService) WithdrawParticipant(ctx context.Context, tournamentID, participantID int, reason string, actor Actor) error {
	tournament, outcome, err := s.bracketOp(ctx, tournamentID, actor, false, nil, func(b *brackets.Bracket) (*brackets.Outcome, error) {
		return b.WithdrawParticipant(participantID, reason)
	})
	if err != nil {
		return err
	}

	s.logger.Info("participant withdrawn",
		slog.Int("tournament_id", tournamentID),
		slog.Int("participant_id", participantID))

	s.broadcastOutcome(tournament, outcome, nil)
	return nil
}

func (s *matchService) CorrectResult(ctx context.Context, tournamentID, matchID, scoreA, scoreB int, actor Actor) (*models.Match, error) {
	if !actor.IsStaff() {
		return nil, ErrForbiddenOperation
	}

	details := fmt.Sprintf("score corrected to %d:%d", scoreA, scoreB)
	entry := &models.AuditLogEntry{
		ActorID:    actor.ID,
		Action:     models.AuditActionResultCorrected,
		EntityType: "match",
		EntityID:   matchID,
		Details:    &details,
	}

	var corrected *models.Match
	tournament, outcome, err := s.bracketOp(ctx, tournamentID, actor, true, entry, func(b *brackets.Bracket) (*brackets.Outcome, error) {
		out, err := b.CorrectResult(matchID, scoreA, scoreB)
		if err != nil {
			return nil, err
		}
		corrected, _ = b.Match(matchID)
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("result corrected",
		slog.Int("tournament_id", tournamentID),
		slog.Int("match_id", matchID),
		slog.Int("actor_id", actor.ID))

	s.hub.BroadcastToRoom(tournamentRoom(tournamentID), brackets.HubMessage{
		Type:    brackets.EventResultCorrected,
		Payload: corrected,
	})
	if outcome.TournamentComplete {
		s.broadcastFinished(tournament)
	}
	return corrected, nil
}

func (s *matchService) GetMatch(ctx context.Context, matchID int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return match, nil
}

func (s *matchService) broadcastMatch(tournamentID int, event string, match *models.Match) {
	if match == nil {
		return
	}
	s.hub.BroadcastToRoom(tournamentRoom(tournamentID), brackets.HubMessage{
		Type:    event,
		Payload: match,
	})
}

// broadcastOutcome pushes every dirty match and, when the operation decided
// the tournament, the terminal event.
func (s *matchService) broadcastOutcome(tournament *models.Tournament, outcome *brackets.Outcome, primary *models.Match) {
	room := tournamentRoom(tournament.ID)
	for _, m := range outcome.Dirty {
		if primary != nil && m.ID == primary.ID {
			continue
		}
		s.hub.BroadcastToRoom(room, brackets.HubMessage{Type: brackets.EventMatchUpdated, Payload: m})
	}
	if primary != nil {
		s.hub.BroadcastToRoom(room, brackets.HubMessage{Type: brackets.EventMatchUpdated, Payload: primary})
	}

	switch {
	case outcome.TournamentComplete:
		s.broadcastFinished(tournament)
	case outcome.TournamentDead:
		s.hub.BroadcastToRoom(room, brackets.HubMessage{
			Type:    brackets.EventTournamentAborted,
			Payload: map[string]interface{}{"tournament_id": tournament.ID},
		})
	}
}

func (s *matchService) broadcastFinished(tournament *models.Tournament) {
	s.hub.BroadcastToRoom(tournamentRoom(tournament.ID), brackets.HubMessage{
		Type: brackets.EventTournamentFinished,
		Payload: map[string]interface{}{
			"tournament_id": tournament.ID,
			"winner_id":     tournament.WinnerID,
		},
	})
}
