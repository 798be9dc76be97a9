package goSeal

import (
	"context"

	"github.com/MrEthical07/goSeal/internal/audit"
)

const (
	auditEventRegisterSuccess    = "register_success"
	auditEventRegisterFailure    = "register_failure"
	auditEventLoginSuccess       = "login_success"
	auditEventLoginFailure       = "login_failure"
	auditEventLoginRateLimited   = "login_rate_limited"
	auditEventBoundTokenIssued   = "bound_token_issued"
	auditEventBoundTokenRefused  = "bound_token_refused"
	auditEventTokenRejected      = "token_rejected"
	auditEventContentRejected    = "content_rejected"
	auditEventMutationAccepted   = "mutation_accepted"
	auditEventRateLimitTriggered = "rate_limit_triggered"
)

// auditRecord is the subset of an audit event the Engine fills per call site.
type auditRecord struct {
	eventType   string
	success     bool
	principalID string
	username    string
	tokenID     string
	err         error
	metadata    func() map[string]string
}

func (e *Engine) emitAudit(ctx context.Context, rec auditRecord) {
	if e == nil || e.audit == nil {
		return
	}

	event := audit.Event{
		Timestamp:   e.now().UTC(),
		EventType:   rec.eventType,
		PrincipalID: rec.principalID,
		Username:    rec.username,
		TokenID:     rec.tokenID,
		RequestID:   requestIDFromContext(ctx),
		IP:          clientIPFromContext(ctx),
		Success:     rec.success,
	}
	if rec.err != nil {
		event.Error = ErrorKind(rec.err)
	}
	// Metadata is built lazily so disabled audit costs nothing.
	if rec.metadata != nil {
		event.Metadata = rec.metadata()
	}

	e.audit.Emit(ctx, event)
}
