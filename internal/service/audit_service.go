package service

import (
	"context"

	"storefront/internal/entity"
	"storefront/internal/listing"
)

type AuditBackend interface {
	ListAuditLogs(ctx context.Context, q listing.Query) (*entity.Page[entity.AuditLog], error)
}

// AuditService backs the security audit-log view.
type AuditService struct {
	backend AuditBackend
}

func NewAuditService(backend AuditBackend) *AuditService {
	return &AuditService{backend: backend}
}

func (s *AuditService) List(ctx context.Context, q listing.Query) (*List[entity.AuditLog], error) {
	page, err := s.backend.ListAuditLogs(ctx, q)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing audit logs")
		return nil, err
	}
	return newList(q, page, identity[entity.AuditLog])
}
