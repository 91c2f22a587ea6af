package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/footballinvestment/lfa-legacy-go/models"
	"github.com/footballinvestment/lfa-legacy-go/repositories"
)

type ParticipantService interface {
	Register(ctx context.Context, tournamentID, userID int) (*models.Participant, error)
	Unregister(ctx context.Context, tournamentID, userID int) error
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Participant, error)
}

type participantService struct {
	db              *sql.DB
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	userRepo        repositories.UserRepository
	creditRepo      repositories.CreditRepository
	locker          *TournamentLocker
	logger          *slog.Logger
}

func NewParticipantService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	userRepo repositories.UserRepository,
	creditRepo repositories.CreditRepository,
	locker *TournamentLocker,
	logger *slog.Logger,
) ParticipantService {
	return &participantService{
		db:              db,
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		userRepo:        userRepo,
		creditRepo:      creditRepo,
		locker:          locker,
		logger:          logger,
	}
}

// Register enrolls the user, debiting the entry fee in the same transaction
// as the registration row.
func (s *participantService) Register(ctx context.Context, tournamentID, userID int) (*models.Participant, error) {
	release, err := s.locker.Acquire(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	defer release()

	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	if tournament.Status != models.TournamentStatusRegistrationOpen {
		return nil, ErrRegistrationNotOpen
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.Banned {
		return nil, ErrUserBanned
	}

	count, err := s.participantRepo.CountByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if count >= tournament.MaxParticipants {
		return nil, ErrTournamentFull
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	participant := &models.Participant{
		TournamentID: tournamentID,
		UserID:       userID,
	}
	if err := s.participantRepo.Create(ctx, tx, participant); err != nil {
		if errors.Is(err, repositories.ErrParticipantConflict) {
			return nil, ErrRegistrationConflict
		}
		return nil, fmt.Errorf("failed to register participant: %w", err)
	}

	if tournament.EntryFee > 0 {
		desc := fmt.Sprintf("entry fee: tournament %q", tournament.Name)
		_, err := applyCreditMovement(ctx, tx, s.userRepo, s.creditRepo, creditMovement{
			UserID:       userID,
			Amount:       -tournament.EntryFee,
			Type:         models.CreditTxEntryFee,
			Description:  &desc,
			TournamentID: &tournamentID,
		})
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit registration: %w", err)
	}

	s.logger.Info("participant registered",
		slog.Int("tournament_id", tournamentID),
		slog.Int("user_id", userID))
	return participant, nil
}

// Unregister removes the registration and refunds the entry fee. Only legal
// while registration is still open; after seeding a player leaves through
// withdrawal instead.
func (s *participantService) Unregister(ctx context.Context, tournamentID, userID int) error {
	release, err := s.locker.Acquire(ctx, tournamentID)
	if err != nil {
		return err
	}
	defer release()

	tournament, err := s.tournamentRepo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return err
	}
	if tournament.Status != models.TournamentStatusRegistrationOpen {
		return ErrRegistrationNotOpen
	}

	participant, err := s.participantRepo.GetByTournamentAndUser(ctx, tournamentID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return ErrParticipantNotFound
		}
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.participantRepo.Delete(ctx, tx, participant.ID); err != nil {
		return fmt.Errorf("failed to delete registration: %w", err)
	}

	if tournament.EntryFee > 0 {
		desc := fmt.Sprintf("entry fee refund: left tournament %q", tournament.Name)
		_, err := applyCreditMovement(ctx, tx, s.userRepo, s.creditRepo, creditMovement{
			UserID:       userID,
			Amount:       tournament.EntryFee,
			Type:         models.CreditTxRefund,
			Description:  &desc,
			TournamentID: &tournamentID,
		})
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit unregistration: %w", err)
	}

	s.logger.Info("participant unregistered",
		slog.Int("tournament_id", tournamentID),
		slog.Int("user_id", userID))
	return nil
}

func (s *participantService) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Participant, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return s.participantRepo.ListByTournament(ctx, nil, tournamentID, models.SeedOrderRegistration)
}
