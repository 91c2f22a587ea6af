package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/footballinvestment/lfa-legacy-go/brackets"
	"github.com/footballinvestment/lfa-legacy-go/models"
	"github.com/footballinvestment/lfa-legacy-go/repositories"
)

type CreateTournamentInput struct {
	Name            string     `json:"name"`
	Description     *string    `json:"description"`
	Format          string     `json:"format"`
	LocationID      *int       `json:"location_id"`
	RegOpenDate     time.Time  `json:"reg_open_date"`
	StartDate       time.Time  `json:"start_date"`
	MaxParticipants int        `json:"max_participants"`
	EntryFee        int        `json:"entry_fee"`
}

type UpdateTournamentInput struct {
	Name            *string    `json:"name"`
	Description     *string    `json:"description"`
	LocationID      *int       `json:"location_id"`
	RegOpenDate     *time.Time `json:"reg_open_date"`
	StartDate       *time.Time `json:"start_date"`
	MaxParticipants *int       `json:"max_participants"`
	EntryFee        *int       `json:"entry_fee"`
}

type TournamentService interface {
	Create(ctx context.Context, input CreateTournamentInput, actor Actor) (*models.Tournament, error)
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error)
	Update(ctx context.Context, id int, input UpdateTournamentInput, actor Actor) (*models.Tournament, error)
	Cancel(ctx context.Context, id int, reason string, actor Actor) error

	// ProcessDueTournaments is the scheduler entry point: due tournaments are
	// seeded into play, or cancelled with refunds when too few players
	// registered.
	ProcessDueTournaments(ctx context.Context, now time.Time) error
}

type tournamentService struct {
	db              *sql.DB
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	matchRepo       repositories.MatchRepository
	userRepo        repositories.UserRepository
	creditRepo      repositories.CreditRepository
	bracketService  BracketService
	locker          *TournamentLocker
	hub             *brackets.Hub
	emailService    *EmailService
	logger          *slog.Logger
}

func NewTournamentService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	matchRepo repositories.MatchRepository,
	userRepo repositories.UserRepository,
	creditRepo repositories.CreditRepository,
	bracketService BracketService,
	locker *TournamentLocker,
	hub *brackets.Hub,
	emailService *EmailService,
	logger *slog.Logger,
) TournamentService {
	return &tournamentService{
		db:              db,
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		matchRepo:       matchRepo,
		userRepo:        userRepo,
		creditRepo:      creditRepo,
		bracketService:  bracketService,
		locker:          locker,
		hub:             hub,
		emailService:    emailService,
		logger:          logger,
	}
}

func (s *tournamentService) Create(ctx context.Context, input CreateTournamentInput, actor Actor) (*models.Tournament, error) {
	if input.Name == "" {
		return nil, ErrValidationFailed
	}
	if models.TournamentFormat(input.Format) != models.FormatSingleElimination {
		return nil, ErrTournamentInvalidFormat
	}
	if input.MaxParticipants < 2 {
		return nil, ErrTournamentInvalidCapacity
	}
	if input.EntryFee < 0 {
		return nil, ErrInvalidAmount
	}
	if input.RegOpenDate.IsZero() || input.StartDate.IsZero() {
		return nil, ErrTournamentDatesRequired
	}
	if input.RegOpenDate.After(input.StartDate) {
		return nil, ErrTournamentInvalidRegDate
	}

	tournament := &models.Tournament{
		Name:            input.Name,
		Description:     input.Description,
		Format:          models.FormatSingleElimination,
		OrganizerID:     actor.ID,
		LocationID:      input.LocationID,
		RegOpenDate:     input.RegOpenDate,
		StartDate:       input.StartDate,
		Status:          models.TournamentStatusRegistrationOpen,
		MaxParticipants: input.MaxParticipants,
		EntryFee:        input.EntryFee,
	}

	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		if errors.Is(err, repositories.ErrTournamentNameConflict) {
			return nil, ErrTournamentNameConflict
		}
		if errors.Is(err, repositories.ErrTournamentInvalidLocation) {
			return nil, ErrLocationNotFound
		}
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}

	s.logger.Info("tournament created",
		slog.Int("tournament_id", tournament.ID),
		slog.Int("organizer_id", actor.ID),
		slog.String("name", tournament.Name))
	return tournament, nil
}

func (s *tournamentService) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	participants, err := s.participantRepo.ListByTournament(ctx, nil, id, models.SeedOrderRegistration)
	if err != nil {
		return nil, err
	}
	tournament.Participants = make([]models.Participant, 0, len(participants))
	for _, p := range participants {
		tournament.Participants = append(tournament.Participants, *p)
	}
	return tournament, nil
}

func (s *tournamentService) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	return s.tournamentRepo.List(ctx, filter)
}

func (s *tournamentService) Update(ctx context.Context, id int, input UpdateTournamentInput, actor Actor) (*models.Tournament, error) {
	release, err := s.locker.Acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	if !canManageTournament(actor, tournament) {
		return nil, ErrForbiddenOperation
	}
	if tournament.Status != models.TournamentStatusRegistrationOpen {
		return nil, ErrTournamentNotModifiable
	}

	if input.Name != nil {
		tournament.Name = *input.Name
	}
	if input.Description != nil {
		tournament.Description = input.Description
	}
	if input.LocationID != nil {
		tournament.LocationID = input.LocationID
	}
	if input.RegOpenDate != nil {
		tournament.RegOpenDate = *input.RegOpenDate
	}
	if input.StartDate != nil {
		tournament.StartDate = *input.StartDate
	}
	if input.MaxParticipants != nil {
		if *input.MaxParticipants < 2 {
			return nil, ErrTournamentInvalidCapacity
		}
		count, err := s.participantRepo.CountByTournament(ctx, id)
		if err != nil {
			return nil, err
		}
		if *input.MaxParticipants < count {
			return nil, ErrTournamentInvalidCapacity
		}
		tournament.MaxParticipants = *input.MaxParticipants
	}
	if input.EntryFee != nil {
		tournament.EntryFee = *input.EntryFee
	}
	if tournament.RegOpenDate.After(tournament.StartDate) {
		return nil, ErrTournamentInvalidRegDate
	}

	if err := s.tournamentRepo.Update(ctx, tournament); err != nil {
		if errors.Is(err, repositories.ErrTournamentNameConflict) {
			return nil, ErrTournamentNameConflict
		}
		return nil, err
	}
	return tournament, nil
}

// Cancel aborts the tournament: the bracket collapses, entry fees are
// refunded and the status becomes cancelled.
func (s *tournamentService) Cancel(ctx context.Context, id int, reason string, actor Actor) error {
	release, err := s.locker.Acquire(ctx, id)
	if err != nil {
		return err
	}
	defer release()

	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return err
	}
	if !canManageTournament(actor, tournament) {
		return ErrForbiddenOperation
	}
	if tournament.Status == models.TournamentStatusCompleted ||
		tournament.Status == models.TournamentStatusCancelled {
		return ErrTournamentNotModifiable
	}

	if err := s.cancelWithRefunds(ctx, tournament, reason); err != nil {
		return err
	}

	s.logger.Info("tournament cancelled",
		slog.Int("tournament_id", id),
		slog.Int("actor_id", actor.ID),
		slog.String("reason", reason))

	s.hub.BroadcastToRoom(tournamentRoom(id), brackets.HubMessage{
		Type: brackets.EventTournamentAborted,
		Payload: map[string]interface{}{
			"tournament_id": id,
			"reason":        reason,
		},
	})
	return nil
}

// cancelWithRefunds must run under the tournament's mutation lock.
func (s *tournamentService) cancelWithRefunds(ctx context.Context, tournament *models.Tournament, reason string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if tournament.Status == models.TournamentStatusSeeded ||
		tournament.Status == models.TournamentStatusInProgress {
		matches, err := s.matchRepo.ListByTournament(ctx, tx, tournament.ID)
		if err != nil {
			return err
		}
		if len(matches) > 0 {
			bracket, err := brackets.NewBracket(matches)
			if err != nil {
				return err
			}
			outcome, err := bracket.CancelAll(reason)
			if err != nil {
				return err
			}
			for _, m := range outcome.Dirty {
				if err := s.matchRepo.Update(ctx, tx, m); err != nil {
					return fmt.Errorf("failed to persist cancelled match %d: %w", m.ID, err)
				}
			}
		}
	}

	if tournament.EntryFee > 0 {
		participants, err := s.participantRepo.ListByTournament(ctx, tx, tournament.ID, models.SeedOrderRegistration)
		if err != nil {
			return err
		}
		desc := fmt.Sprintf("entry fee refund: tournament %q cancelled", tournament.Name)
		for _, p := range participants {
			_, err := applyCreditMovement(ctx, tx, s.userRepo, s.creditRepo, creditMovement{
				UserID:       p.UserID,
				Amount:       tournament.EntryFee,
				Type:         models.CreditTxRefund,
				Description:  &desc,
				TournamentID: &tournament.ID,
			})
			if err != nil {
				return fmt.Errorf("failed to refund participant %d: %w", p.ID, err)
			}
		}
	}

	if err := s.tournamentRepo.UpdateStatus(ctx, tx, tournament.ID, models.TournamentStatusCancelled); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tournament cancellation: %w", err)
	}
	tournament.Status = models.TournamentStatusCancelled

	s.notifyCancelled(ctx, tournament, reason)
	return nil
}

func (s *tournamentService) notifyCancelled(ctx context.Context, tournament *models.Tournament, reason string) {
	if s.emailService == nil {
		return
	}

	participants, err := s.participantRepo.ListByTournament(ctx, s.db, tournament.ID, models.SeedOrderRegistration)
	if err != nil {
		s.logger.Warn("could not list participants for cancellation emails",
			slog.Int("tournament_id", tournament.ID), slog.Any("error", err))
		return
	}

	recipients := make([]string, 0, len(participants))
	for _, p := range participants {
		user, err := s.userRepo.GetByID(ctx, p.UserID)
		if err != nil {
			continue
		}
		recipients = append(recipients, user.Email)
	}

	go func() {
		for _, email := range recipients {
			if err := s.emailService.SendTournamentCancelledEmail(email, tournament.Name, reason); err != nil {
				s.logger.Error("failed to send tournament cancellation email",
					slog.Int("tournament_id", tournament.ID), slog.Any("error", err))
			}
		}
	}()
}

func (s *tournamentService) ProcessDueTournaments(ctx context.Context, now time.Time) error {
	due, err := s.tournamentRepo.ListDueForStatusChange(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to list due tournaments: %w", err)
	}

	for _, t := range due {
		actor := Actor{ID: t.OrganizerID, Role: models.RolePlayer}

		switch t.Status {
		case models.TournamentStatusRegistrationOpen:
			// Generation ends at in_progress, no separate start step.
			_, err := s.bracketService.GenerateBracket(ctx, t.ID, actor, models.SeedOrderRegistration)
			switch {
			case err == nil:
			case errors.Is(err, ErrNotEnoughPlayers):
				s.logger.Warn("cancelling due tournament with too few participants",
					slog.Int("tournament_id", t.ID))
				if cancelErr := s.Cancel(ctx, t.ID, "not enough participants at start", actor); cancelErr != nil {
					s.logger.Error("failed to cancel underfilled tournament",
						slog.Int("tournament_id", t.ID), slog.Any("error", cancelErr))
				}
			default:
				s.logger.Error("failed to seed due tournament",
					slog.Int("tournament_id", t.ID), slog.Any("error", err))
			}
		case models.TournamentStatusSeeded:
			if err := s.bracketService.StartTournament(ctx, t.ID, actor); err != nil {
				s.logger.Error("failed to start due tournament",
					slog.Int("tournament_id", t.ID), slog.Any("error", err))
			}
		}
	}
	return nil
}
