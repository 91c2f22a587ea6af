package models

import (
	"time"

	"github.com/google/uuid"
)

type AuditAction string

const (
	AuditActionUserBanned      AuditAction = "user_banned"
	AuditActionUserUnbanned    AuditAction = "user_unbanned"
	AuditActionResultCorrected AuditAction = "result_corrected"
	AuditActionMatchCancelled  AuditAction = "match_cancelled"
	AuditActionTournamentAbort AuditAction = "tournament_aborted"
	AuditActionCreditAdjusted  AuditAction = "credit_adjusted"
)

// AuditLogEntry records one attributed moderation action. Every entry must
// carry the acting moderator's user id; the pipeline rejects unattributed
// writes.
type AuditLogEntry struct {
	ID         uuid.UUID   `json:"id"`
	ActorID    int         `json:"actor_id"`
	Action     AuditAction `json:"action"`
	EntityType string      `json:"entity_type"`
	EntityID   int         `json:"entity_id"`
	Details    *string     `json:"details,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}
