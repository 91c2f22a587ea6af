package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/footballinvestment/lfa-legacy-go/models"
	"github.com/footballinvestment/lfa-legacy-go/repositories"
)

// creditMovement describes one ledger entry to apply inside a transaction.
// Amount is positive for credits and negative for debits.
type creditMovement struct {
	UserID      int
	Amount      int
	Type        models.CreditTransactionType
	Description *string

	TournamentID *int
	ChallengeID  *int
	BookingID    *int
}

// applyCreditMovement locks the user's balance row, applies the movement and
// writes the immutable ledger entry carrying the post-movement balance. It
// must run inside the caller's transaction so balance and ledger stay
// consistent.
func applyCreditMovement(
	ctx context.Context,
	exec repositories.SQLExecutor,
	userRepo repositories.UserRepository,
	creditRepo repositories.CreditRepository,
	m creditMovement,
) (*models.CreditTransaction, error) {
	balance, err := userRepo.GetBalanceForUpdate(ctx, exec, m.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to lock balance for user %d: %w", m.UserID, err)
	}

	newBalance := balance + m.Amount
	if newBalance < 0 {
		return nil, ErrInsufficientBalance
	}

	if err := userRepo.UpdateBalance(ctx, exec, m.UserID, newBalance); err != nil {
		return nil, fmt.Errorf("failed to update balance for user %d: %w", m.UserID, err)
	}

	tx := &models.CreditTransaction{
		UserID:       m.UserID,
		Type:         m.Type,
		Amount:       m.Amount,
		BalanceAfter: newBalance,
		Description:  m.Description,
		TournamentID: m.TournamentID,
		ChallengeID:  m.ChallengeID,
		BookingID:    m.BookingID,
	}
	if err := creditRepo.Create(ctx, exec, tx); err != nil {
		return nil, fmt.Errorf("failed to record credit transaction: %w", err)
	}
	return tx, nil
}

type CreditService interface {
	TopUp(ctx context.Context, userID, amount int) (*models.CreditTransaction, error)
	Balance(ctx context.Context, userID int) (int, error)
	History(ctx context.Context, userID, limit, offset int) ([]*models.CreditTransaction, error)
}

type creditService struct {
	db         *sql.DB
	userRepo   repositories.UserRepository
	creditRepo repositories.CreditRepository
}

func NewCreditService(db *sql.DB, userRepo repositories.UserRepository, creditRepo repositories.CreditRepository) CreditService {
	return &creditService{db: db, userRepo: userRepo, creditRepo: creditRepo}
}

func (s *creditService) TopUp(ctx context.Context, userID, amount int) (*models.CreditTransaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	entry, err := applyCreditMovement(ctx, tx, s.userRepo, s.creditRepo, creditMovement{
		UserID: userID,
		Amount: amount,
		Type:   models.CreditTxTopUp,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit top-up: %w", err)
	}
	return entry, nil
}

func (s *creditService) Balance(ctx context.Context, userID int) (int, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}
	return user.CreditBalance, nil
}

func (s *creditService) History(ctx context.Context, userID, limit, offset int) ([]*models.CreditTransaction, error) {
	return s.creditRepo.ListByUser(ctx, userID, limit, offset)
}
