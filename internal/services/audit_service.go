package services

import (
	"context"

	"github.com/prizepool/draw-engine-backend/internal/models"
	"github.com/prizepool/draw-engine-backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Compile-time check to ensure AuditServiceImpl implements AuditService
var _ AuditService = (*AuditServiceImpl)(nil)

// AuditServiceImpl exposes read access to the append-only audit trail.
// Writes happen inside the operations they record; there is no write path
// here.
type AuditServiceImpl struct {
	auditRepo repositories.DrawAuditLogRepository
}

// NewAuditService creates a new AuditServiceImpl
func NewAuditService(auditRepo repositories.DrawAuditLogRepository) *AuditServiceImpl {
	return &AuditServiceImpl{auditRepo: auditRepo}
}

// GetCompetitionAudit returns a page of audit entries for a competition
func (s *AuditServiceImpl) GetCompetitionAudit(ctx context.Context, competitionID primitive.ObjectID, page, limit int) ([]*models.DrawAuditLog, error) {
	return s.auditRepo.FindByCompetitionID(ctx, competitionID, page, limit)
}
