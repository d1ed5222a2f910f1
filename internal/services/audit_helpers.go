package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/Kramerbrian/dealership-ai-dashboard-sub031/pkg/logger"
)

// recordAudit writes entry when an audit service is wired. A failed write is
// logged and never fails the mutation that triggered it.
func recordAudit(audit *AuditService, ctx context.Context, entry AuditEntry) {
	if audit == nil {
		return
	}
	if err := audit.Log(ctx, entry); err != nil {
		logger.WithModule("audit").Warn("audit write failed",
			zap.String("tenant_id", entry.TenantID),
			zap.String("action", entry.Action),
			zap.String("resource_id", entry.ResourceID),
			zap.Error(err),
		)
	}
}
