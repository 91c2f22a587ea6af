package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/footballinvestment/lfa-legacy-go/models"
)

var ErrCreditTransactionNotFound = errors.New("credit transaction not found")

type CreditRepository interface {
	Create(ctx context.Context, exec SQLExecutor, tx *models.CreditTransaction) error
	ListByUser(ctx context.Context, userID, limit, offset int) ([]*models.CreditTransaction, error)
}

type postgresCreditRepository struct {
	db *sql.DB
}

func NewPostgresCreditRepository(db *sql.DB) CreditRepository {
	return &postgresCreditRepository{db: db}
}

func (r *postgresCreditRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresCreditRepository) Create(ctx context.Context, exec SQLExecutor, tx *models.CreditTransaction) error {
	query := `
		INSERT INTO credit_transactions (
			user_id, type, amount, balance_after, description,
			tournament_id, challenge_id, booking_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		tx.UserID, tx.Type, tx.Amount, tx.BalanceAfter, tx.Description,
		tx.TournamentID, tx.ChallengeID, tx.BookingID,
	).Scan(&tx.ID, &tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert credit transaction for user %d: %w", tx.UserID, err)
	}
	return nil
}

func (r *postgresCreditRepository) ListByUser(ctx context.Context, userID, limit, offset int) ([]*models.CreditTransaction, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, user_id, type, amount, balance_after, description,
		       tournament_id, challenge_id, booking_id, created_at
		FROM credit_transactions
		WHERE user_id = $1
		ORDER BY id DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query credit transactions for user %d: %w", userID, err)
	}
	defer rows.Close()

	transactions := make([]*models.CreditTransaction, 0)
	for rows.Next() {
		tx := &models.CreditTransaction{}
		if scanErr := rows.Scan(
			&tx.ID, &tx.UserID, &tx.Type, &tx.Amount, &tx.BalanceAfter, &tx.Description,
			&tx.TournamentID, &tx.ChallengeID, &tx.BookingID, &tx.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan credit transaction row: %w", scanErr)
		}
		transactions = append(transactions, tx)
	}
	return transactions, rows.Err()
}
