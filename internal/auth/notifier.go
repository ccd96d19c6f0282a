package auth

import (
	"context"
	"log/slog"
	"time"

	"verigate/internal/session"
	"verigate/pkg/platform/audit"
)

// AuditNotifier bridges session lifecycle notifications into the audit
// pipeline, on top of the manager's default logging.
type AuditNotifier struct {
	audit  audit.Publisher
	logger *slog.Logger
}

func NewAuditNotifier(publisher audit.Publisher, logger *slog.Logger) *AuditNotifier {
	return &AuditNotifier{audit: publisher, logger: logger}
}

func (n *AuditNotifier) SessionWarning(ctx context.Context, s *session.Session, remaining time.Duration) {
	n.logger.InfoContext(ctx, "session nearing idle timeout",
		"session_id", s.ID, "user_id", s.UserID, "remaining", remaining)
}

func (n *AuditNotifier) SessionExpired(ctx context.Context, s *session.Session) {
	n.logger.InfoContext(ctx, "session expired after inactivity",
		"session_id", s.ID, "user_id", s.UserID)

	event := audit.NewEvent(audit.ActionSessionExpired)
	event.UserID = s.UserID
	event.SessionID = s.ID
	event.Email = s.Identity.Email
	if err := n.audit.Publish(ctx, event); err != nil {
		n.logger.WarnContext(ctx, "failed to publish session expiry event", "error", err)
	}
}
