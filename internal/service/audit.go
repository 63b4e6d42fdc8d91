package service

import (
	"context"

	"github.com/siryogo2014/yigicoin-db-sub000/internal/domain"
	"github.com/siryogo2014/yigicoin-db-sub000/internal/logger"
)

// AuditSink receives account state transition events. Failures are the
// sink's problem: audit must never fail a core operation.
type AuditSink interface {
	Record(ctx context.Context, entry *domain.AuditLog)
}

// LogAuditSink writes audit events to the application log. Used when no
// database is configured.
type LogAuditSink struct{}

func NewLogAuditSink() *LogAuditSink {
	return &LogAuditSink{}
}

func (s *LogAuditSink) Record(ctx context.Context, entry *domain.AuditLog) {
	logger.Info("audit",
		"user_id", entry.UserID,
		"category", entry.Category,
		"action", entry.Action,
		"details", entry.Details,
	)
}
