package models

import "time"

// CreditTransactionType mirrors the credit_tx_type ENUM in the database.
type CreditTransactionType string

const (
	CreditTxTopUp           CreditTransactionType = "top_up"
	CreditTxEntryFee        CreditTransactionType = "entry_fee"
	CreditTxRefund          CreditTransactionType = "refund"
	CreditTxChallengeStake  CreditTransactionType = "challenge_stake"
	CreditTxChallengePayout CreditTransactionType = "challenge_payout"
	CreditTxBookingFee      CreditTransactionType = "booking_fee"
	CreditTxAdminAdjustment CreditTransactionType = "admin_adjustment"
)

// CreditTransaction is one immutable ledger row. Amount is positive for
// credits and negative for debits; BalanceAfter is the user's balance once
// the row was applied.
type CreditTransaction struct {
	ID           int                   `json:"id"`
	UserID       int                   `json:"user_id"`
	Type         CreditTransactionType `json:"type"`
	Amount       int                   `json:"amount"`
	BalanceAfter int                   `json:"balance_after"`
	Description  *string               `json:"description,omitempty"`

	// Optional references back to the entity that caused the movement.
	TournamentID *int `json:"tournament_id,omitempty"`
	ChallengeID  *int `json:"challenge_id,omitempty"`
	BookingID    *int `json:"booking_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
