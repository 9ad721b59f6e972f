package streamauth

import (
	"context"
	"time"

	"github.com/atrisomya/streamauth/internal/audit"
)

const (
	auditEventRegisterSuccess = "register_success"
	auditEventRegisterFailure = "register_failure"
	auditEventLoginSuccess    = "login_success"
	auditEventLoginFailure    = "login_failure"
	auditEventLogout          = "logout"
	auditEventRefreshSuccess  = "refresh_success"
	auditEventRefreshFailure  = "refresh_failure"
	auditEventRefreshReuse    = "refresh_reuse_detected"
	auditEventGateDenied      = "gate_denied"
)

// emitAudit queues one audit event. metadata is built lazily so callers on
// the success path pay nothing when auditing is disabled.
func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	cause error,
	metadata func() map[string]string,
) {
	if e.audit == nil {
		return
	}

	event := audit.Event{
		Timestamp: time.Now(),
		EventType: eventType,
		UserID:    userID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
	}
	if cause != nil {
		event.Error = cause.Error()
	}
	if metadata != nil {
		event.Metadata = metadata()
	}

	e.audit.Emit(ctx, event)
}
