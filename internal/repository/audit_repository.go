package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/Danadev25L/Hr-Mangment-system-b-sub001/internal/models"
)

const auditInsertQuery = `INSERT INTO audit_logs (id, actor_id, action, resource, resource_id, old_values, new_values, reason, ip_address, user_agent, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

// AuditRepository is the append-only audit trail sink. Entries are never
// updated or deleted.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository constructs the repository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create appends a single audit entry.
func (r *AuditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	return CreateAuditIn(ctx, r.db, entry)
}

// ListByResource returns the audit trail for a resource, newest first.
func (r *AuditRepository) ListByResource(ctx context.Context, resource, resourceID string, limit int) ([]models.AuditLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := `SELECT id, actor_id, action, resource, resource_id, old_values, new_values, reason, ip_address, user_agent, created_at
FROM audit_logs
WHERE resource = $1 AND resource_id = $2
ORDER BY created_at DESC
LIMIT $3`
	var rows []models.AuditLog
	if err := r.db.SelectContext(ctx, &rows, query, resource, resourceID, limit); err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}
	return rows, nil
}

// CreateAuditIn appends an audit entry using the provided executor, so
// mutations can include the audit write in their own transaction.
func CreateAuditIn(ctx context.Context, ext sqlx.ExtContext, entry *models.AuditLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if _, err := ext.ExecContext(ctx, auditInsertQuery,
		entry.ID, entry.ActorID, entry.Action, entry.Resource, entry.ResourceID,
		entry.OldValues, entry.NewValues, entry.Reason, entry.IPAddress, entry.UserAgent, entry.CreatedAt); err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}
