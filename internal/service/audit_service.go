package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/Danadev25L/Hr-Mangment-system-b-sub001/internal/models"
	appErrors "github.com/Danadev25L/Hr-Mangment-system-b-sub001/pkg/errors"
)

type auditReader interface {
	ListByResource(ctx context.Context, resource, resourceID string, limit int) ([]models.AuditLog, error)
}

// AuditService exposes the read side of the append-only audit trail.
// Writes happen inside the attendance repository transactions.
type AuditService struct {
	repo   auditReader
	logger *zap.Logger
}

// NewAuditService constructs the service.
func NewAuditService(repo auditReader, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{repo: repo, logger: logger}
}

// History returns the audit entries for one attendance record, newest
// first.
func (s *AuditService) History(ctx context.Context, recordID string, limit int) ([]models.AuditLog, error) {
	if recordID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "record id is required")
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	entries, err := s.repo.ListByResource(ctx, models.AuditResourceAttendance, recordID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load audit history")
	}
	return entries, nil
}
