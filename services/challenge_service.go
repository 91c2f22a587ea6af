package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/footballinvestment/lfa-legacy-go/models"
	"github.com/footballinvestment/lfa-legacy-go/repositories"
)

// challengeResponseWindow is how long a challenged player has to respond
// before the challenge expires and the stake returns to the challenger.
const challengeResponseWindow = 72 * time.Hour

type CreateChallengeInput struct {
	ChallengedID int       `json:"challenged_id"`
	LocationID   int       `json:"location_id"`
	ScheduledAt  time.Time `json:"scheduled_at"`
	Stake        int       `json:"stake"`
}

type ChallengeService interface {
	Create(ctx context.Context, challengerID int, input CreateChallengeInput) (*models.Challenge, error)
	Respond(ctx context.Context, challengeID, userID int, accept bool) (*models.Challenge, error)
	SubmitResult(ctx context.Context, challengeID, actorID, scoreChallenger, scoreChallenged int) (*models.Challenge, error)
	ListForUser(ctx context.Context, userID int, status *models.ChallengeStatus) ([]*models.Challenge, error)

	// ExpireStale voids unanswered challenges past the response window and
	// returns the escrowed stakes.
	ExpireStale(ctx context.Context, now time.Time) error
}

type challengeService struct {
	db            *sql.DB
	challengeRepo repositories.ChallengeRepository
	locationRepo  repositories.LocationRepository
	userRepo      repositories.UserRepository
	creditRepo    repositories.CreditRepository
	friendService FriendService
	logger        *slog.Logger
}

func NewChallengeService(
	db *sql.DB,
	challengeRepo repositories.ChallengeRepository,
	locationRepo repositories.LocationRepository,
	userRepo repositories.UserRepository,
	creditRepo repositories.CreditRepository,
	friendService FriendService,
	logger *slog.Logger,
) ChallengeService {
	return &challengeService{
		db:            db,
		challengeRepo: challengeRepo,
		locationRepo:  locationRepo,
		userRepo:      userRepo,
		creditRepo:    creditRepo,
		friendService: friendService,
		logger:        logger,
	}
}

// Create escrows the challenger's stake and records the pending challenge.
func (s *challengeService) Create(ctx context.Context, challengerID int, input CreateChallengeInput) (*models.Challenge, error) {
	if input.Stake < 0 {
		return nil, ErrInvalidAmount
	}
	if input.ChallengedID == challengerID {
		return nil, ErrSelfFriendship
	}

	friends, err := s.friendService.AreFriends(ctx, challengerID, input.ChallengedID)
	if err != nil {
		return nil, err
	}
	if !friends {
		return nil, ErrNotFriends
	}

	location, err := s.locationRepo.GetByID(ctx, input.LocationID)
	if err != nil {
		if errors.Is(err, repositories.ErrLocationNotFound) {
			return nil, ErrLocationNotFound
		}
		return nil, err
	}
	if !location.Active {
		return nil, ErrLocationInactive
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	challenge := &models.Challenge{
		ChallengerID: challengerID,
		ChallengedID: input.ChallengedID,
		LocationID:   input.LocationID,
		ScheduledAt:  input.ScheduledAt,
		Stake:        input.Stake,
		Status:       models.ChallengeStatusPending,
	}
	if err := s.challengeRepo.Create(ctx, tx, challenge); err != nil {
		return nil, fmt.Errorf("failed to create challenge: %w", err)
	}

	if challenge.Stake > 0 {
		desc := "challenge stake escrow"
		_, err := applyCreditMovement(ctx, tx, s.userRepo, s.creditRepo, creditMovement{
			UserID:      challengerID,
			Amount:      -challenge.Stake,
			Type:        models.CreditTxChallengeStake,
			Description: &desc,
			ChallengeID: &challenge.ID,
		})
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit challenge: %w", err)
	}

	s.logger.Info("challenge created",
		slog.Int("challenge_id", challenge.ID),
		slog.Int("challenger_id", challengerID),
		slog.Int("challenged_id", input.ChallengedID),
		slog.Int("stake", input.Stake))
	return challenge, nil
}

// Respond accepts or declines a pending challenge. Acceptance escrows the
// challenged player's stake; declining returns the challenger's.
func (s *challengeService) Respond(ctx context.Context, challengeID, userID int, accept bool) (*models.Challenge, error) {
	challenge, err := s.getChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if challenge.ChallengedID != userID {
		return nil, ErrForbiddenOperation
	}
	if challenge.Status != models.ChallengeStatusPending {
		return nil, ErrChallengeNotPending
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	challenge.RespondedAt = &now

	if accept {
		challenge.Status = models.ChallengeStatusAccepted
		if challenge.Stake > 0 {
			desc := "challenge stake escrow"
			_, err := applyCreditMovement(ctx, tx, s.userRepo, s.creditRepo, creditMovement{
				UserID:      userID,
				Amount:      -challenge.Stake,
				Type:        models.CreditTxChallengeStake,
				Description: &desc,
				ChallengeID: &challenge.ID,
			})
			if err != nil {
				return nil, err
			}
		}
	} else {
		challenge.Status = models.ChallengeStatusDeclined
		if err := s.refundChallenger(ctx, tx, challenge, "challenge declined"); err != nil {
			return nil, err
		}
	}

	if err := s.challengeRepo.Update(ctx, tx, challenge); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit challenge response: %w", err)
	}
	return challenge, nil
}

// SubmitResult records the final score and pays the pot to the winner.
func (s *challengeService) SubmitResult(ctx context.Context, challengeID, actorID, scoreChallenger, scoreChallenged int) (*models.Challenge, error) {
	if scoreChallenger < 0 || scoreChallenged < 0 {
		return nil, ErrValidationFailed
	}
	if scoreChallenger == scoreChallenged {
		return nil, ErrChallengeTied
	}

	challenge, err := s.getChallenge(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if actorID != challenge.ChallengerID && actorID != challenge.ChallengedID {
		return nil, ErrForbiddenOperation
	}
	if challenge.Status != models.ChallengeStatusAccepted {
		return nil, ErrChallengeNotAccepted
	}

	winnerID := challenge.ChallengerID
	if scoreChallenged > scoreChallenger {
		winnerID = challenge.ChallengedID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	challenge.Status = models.ChallengeStatusCompleted
	challenge.ScoreChallenger = &scoreChallenger
	challenge.ScoreChallenged = &scoreChallenged
	challenge.WinnerID = &winnerID

	if challenge.Stake > 0 {
		pot := challenge.Stake * 2
		desc := "challenge pot payout"
		_, err := applyCreditMovement(ctx, tx, s.userRepo, s.creditRepo, creditMovement{
			UserID:      winnerID,
			Amount:      pot,
			Type:        models.CreditTxChallengePayout,
			Description: &desc,
			ChallengeID: &challenge.ID,
		})
		if err != nil {
			return nil, err
		}
	}

	if err := s.challengeRepo.Update(ctx, tx, challenge); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit challenge result: %w", err)
	}

	s.logger.Info("challenge completed",
		slog.Int("challenge_id", challengeID),
		slog.Int("winner_id", winnerID))
	return challenge, nil
}

func (s *challengeService) ListForUser(ctx context.Context, userID int, status *models.ChallengeStatus) ([]*models.Challenge, error) {
	return s.challengeRepo.ListForUser(ctx, userID, status)
}

func (s *challengeService) ExpireStale(ctx context.Context, now time.Time) error {
	stale, err := s.challengeRepo.ListPendingCreatedBefore(ctx, now.Add(-challengeResponseWindow))
	if err != nil {
		return err
	}

	for _, challenge := range stale {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin transaction: %w", err)
		}

		challenge.Status = models.ChallengeStatusExpired
		expireErr := s.refundChallenger(ctx, tx, challenge, "challenge expired unanswered")
		if expireErr == nil {
			expireErr = s.challengeRepo.Update(ctx, tx, challenge)
		}
		if expireErr == nil {
			expireErr = tx.Commit()
		}
		if expireErr != nil {
			tx.Rollback()
			s.logger.Error("failed to expire challenge",
				slog.Int("challenge_id", challenge.ID), slog.Any("error", expireErr))
			continue
		}

		s.logger.Info("challenge expired", slog.Int("challenge_id", challenge.ID))
	}
	return nil
}

func (s *challengeService) getChallenge(ctx context.Context, id int) (*models.Challenge, error) {
	challenge, err := s.challengeRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrChallengeNotFound) {
			return nil, ErrChallengeNotFound
		}
		return nil, err
	}
	return challenge, nil
}

func (s *challengeService) refundChallenger(ctx context.Context, tx repositories.SQLExecutor, challenge *models.Challenge, reason string) error {
	if challenge.Stake == 0 {
		return nil
	}
	_, err := applyCreditMovement(ctx, tx, s.userRepo, s.creditRepo, creditMovement{
		UserID:      challenge.ChallengerID,
		Amount:      challenge.Stake,
		Type:        models.CreditTxRefund,
		Description: &reason,
		ChallengeID: &challenge.ID,
	})
	return err
}
