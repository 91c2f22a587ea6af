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

type AdminService interface {
	BanUser(ctx context.Context, userID int, reason string, actor Actor) error
	UnbanUser(ctx context.Context, userID int, actor Actor) error
	AdjustCredits(ctx context.Context, userID, amount int, reason string, actor Actor) (*models.CreditTransaction, error)
	AuditTrail(ctx context.Context, entityType string, entityID int, actor Actor) ([]*models.AuditLogEntry, error)
}

type adminService struct {
	db         *sql.DB
	userRepo   repositories.UserRepository
	creditRepo repositories.CreditRepository
	auditRepo  repositories.AuditRepository
	logger     *slog.Logger
}

func NewAdminService(
	db *sql.DB,
	userRepo repositories.UserRepository,
	creditRepo repositories.CreditRepository,
	auditRepo repositories.AuditRepository,
	logger *slog.Logger,
) AdminService {
	return &adminService{
		db:         db,
		userRepo:   userRepo,
		creditRepo: creditRepo,
		auditRepo:  auditRepo,
		logger:     logger,
	}
}

func (s *adminService) BanUser(ctx context.Context, userID int, reason string, actor Actor) error {
	if !actor.IsStaff() {
		return ErrForbiddenOperation
	}
	if userID == actor.ID {
		return ErrForbiddenOperation
	}
	if reason == "" {
		return ErrValidationFailed
	}

	target, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	// Moderators cannot ban staff.
	if target.Role != models.RolePlayer && !actor.IsAdmin() {
		return ErrForbiddenOperation
	}

	if err := s.userRepo.SetBanned(ctx, userID, true, &reason); err != nil {
		return err
	}
	s.audit(ctx, actor.ID, models.AuditActionUserBanned, "user", userID, &reason)

	s.logger.Info("user banned",
		slog.Int("user_id", userID),
		slog.Int("actor_id", actor.ID),
		slog.String("reason", reason))
	return nil
}

func (s *adminService) UnbanUser(ctx context.Context, userID int, actor Actor) error {
	if !actor.IsStaff() {
		return ErrForbiddenOperation
	}

	if err := s.userRepo.SetBanned(ctx, userID, false, nil); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	s.audit(ctx, actor.ID, models.AuditActionUserUnbanned, "user", userID, nil)

	s.logger.Info("user unbanned",
		slog.Int("user_id", userID),
		slog.Int("actor_id", actor.ID))
	return nil
}

// AdjustCredits applies a signed manual balance correction. Negative amounts
// never push the balance below zero.
func (s *adminService) AdjustCredits(ctx context.Context, userID, amount int, reason string, actor Actor) (*models.CreditTransaction, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbiddenOperation
	}
	if amount == 0 {
		return nil, ErrInvalidAmount
	}
	if reason == "" {
		return nil, ErrValidationFailed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	entry, err := applyCreditMovement(ctx, tx, s.userRepo, s.creditRepo, creditMovement{
		UserID:      userID,
		Amount:      amount,
		Type:        models.CreditTxAdminAdjustment,
		Description: &reason,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit credit adjustment: %w", err)
	}
	s.audit(ctx, actor.ID, models.AuditActionCreditAdjusted, "user", userID, &reason)

	s.logger.Info("credits adjusted",
		slog.Int("user_id", userID),
		slog.Int("amount", amount),
		slog.Int("actor_id", actor.ID))
	return entry, nil
}

func (s *adminService) AuditTrail(ctx context.Context, entityType string, entityID int, actor Actor) ([]*models.AuditLogEntry, error) {
	if !actor.IsStaff() {
		return nil, ErrForbiddenOperation
	}
	return s.auditRepo.ListByEntity(ctx, entityType, entityID)
}

func (s *adminService) audit(ctx context.Context, actorID int, action models.AuditAction, entityType string, entityID int, details *string) {
	entry := &models.AuditLogEntry{
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
	}
	if err := s.auditRepo.Create(ctx, nil, entry); err != nil {
		s.logger.Error("failed to write audit entry",
			slog.String("action", string(action)),
			slog.Int("entity_id", entityID),
			slog.Any("error", err))
	}
}
