package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/footballinvestment/lfa-legacy-go/models"
)

type AuditRepository interface {
	Create(ctx context.Context, exec SQLExecutor, entry *models.AuditLogEntry) error
	ListByEntity(ctx context.Context, entityType string, entityID int) ([]*models.AuditLogEntry, error)
	ListByActor(ctx context.Context, actorID int, limit int) ([]*models.AuditLogEntry, error)
}

type postgresAuditRepository struct {
	db *sql.DB
}

func NewPostgresAuditRepository(db *sql.DB) AuditRepository {
	return &postgresAuditRepository{db: db}
}

func (r *postgresAuditRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresAuditRepository) Create(ctx context.Context, exec SQLExecutor, entry *models.AuditLogEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	query := `
		INSERT INTO audit_log (id, actor_id, action, entity_type, entity_id, details)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	err := r.getExecutor(exec).QueryRowContext(ctx, query,
		entry.ID, entry.ActorID, entry.Action, entry.EntityType, entry.EntityID, entry.Details,
	).Scan(&entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

func (r *postgresAuditRepository) ListByEntity(ctx context.Context, entityType string, entityID int) ([]*models.AuditLogEntry, error) {
	query := `
		SELECT id, actor_id, action, entity_type, entity_id, details, created_at
		FROM audit_log
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC`

	return r.queryEntries(ctx, query, entityType, entityID)
}

func (r *postgresAuditRepository) ListByActor(ctx context.Context, actorID int, limit int) ([]*models.AuditLogEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := `
		SELECT id, actor_id, action, entity_type, entity_id, details, created_at
		FROM audit_log
		WHERE actor_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	return r.queryEntries(ctx, query, actorID, limit)
}

func (r *postgresAuditRepository) queryEntries(ctx context.Context, query string, args ...interface{}) ([]*models.AuditLogEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit log: %w", err)
	}
	defer rows.Close()

	entries := make([]*models.AuditLogEntry, 0)
	for rows.Next() {
		e := &models.AuditLogEntry{}
		if scanErr := rows.Scan(
			&e.ID, &e.ActorID, &e.Action, &e.EntityType, &e.EntityID, &e.Details, &e.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan audit row: %w", scanErr)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
