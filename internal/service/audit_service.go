package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/noah-isme/epiviu-api/internal/models"
)

type auditRepository interface {
	Create(ctx context.Context, log *models.AuditLog) error
}

// AuditEntry describes a mutation to record.
type AuditEntry struct {
	ActorID    string
	Action     string
	Resource   string
	ResourceID string
	Payload    map[string]interface{}
	IPAddress  string
	UserAgent  string
}

// AuditService writes the audit trail. Failures are logged and never
// surface to the caller.
type AuditService struct {
	repo   auditRepository
	logger *zap.Logger
}

// NewAuditService constructs an AuditService.
func NewAuditService(repo auditRepository, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{repo: repo, logger: logger}
}

// Record stores an audit entry.
func (s *AuditService) Record(ctx context.Context, entry AuditEntry) {
	if s == nil || s.repo == nil {
		return
	}
	log := &models.AuditLog{
		ActorID:    optionalString(entry.ActorID),
		Action:     entry.Action,
		Resource:   entry.Resource,
		ResourceID: optionalString(entry.ResourceID),
		IPAddress:  entry.IPAddress,
		UserAgent:  entry.UserAgent,
	}
	if len(entry.Payload) > 0 {
		payload, err := json.Marshal(entry.Payload)
		if err != nil {
			s.logger.Warn("failed to encode audit payload", zap.String("action", entry.Action), zap.Error(err))
		} else {
			log.Payload = string(payload)
		}
	}
	if err := s.repo.Create(ctx, log); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", entry.Action), zap.Error(err))
	}
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
