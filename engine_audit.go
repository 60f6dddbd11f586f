package accountlink

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventLinkInitiated      = "link_initiated"
	auditEventLinkChallenge      = "link_challenge_issued"
	auditEventLinkSuccess        = "link_success"
	auditEventLinkFailure        = "link_failure"
	auditEventLinkApproved       = "link_approved"
	auditEventLinkDenied         = "link_denied"
	auditEventSessionExpired     = "link_session_expired"
	auditEventRestartRequired    = "link_restart_required"
	auditEventOwnershipViolation = "link_ownership_violation"
	auditEventUnlinked           = "link_unlinked"
	auditEventVaultError         = "vault_error"
)

// AuditErrorCode defines a public type used by accountlink APIs.
type AuditErrorCode string

const (
	auditErrCredentialsRequired  AuditErrorCode = "credentials_required"
	auditErrAlreadyLinked        AuditErrorCode = "already_linked"
	auditErrLinkInProgress       AuditErrorCode = "link_in_progress"
	auditErrLoginRejected        AuditErrorCode = "login_rejected"
	auditErrChallengeDenied      AuditErrorCode = "challenge_denied"
	auditErrSessionNotFound      AuditErrorCode = "session_not_found"
	auditErrSessionOwnership     AuditErrorCode = "session_ownership"
	auditErrVaultIntegrity       AuditErrorCode = "vault_integrity"
	auditErrVaultUnavailable     AuditErrorCode = "vault_unavailable"
	auditErrAutomationFailed     AuditErrorCode = "automation_unavailable"
	auditErrUserNotFound         AuditErrorCode = "user_not_found"
	auditErrTicketInvalid        AuditErrorCode = "ticket_invalid"
	auditErrNotLinked            AuditErrorCode = "not_linked"
	auditErrInternal             AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	sessionID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		UserID:    userID,
		SessionID: sessionID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrCredentialsRequired):
		return auditErrCredentialsRequired
	case errors.Is(err, ErrAlreadyLinked):
		return auditErrAlreadyLinked
	case errors.Is(err, ErrLinkInProgress):
		return auditErrLinkInProgress
	case errors.Is(err, ErrLoginRejected):
		return auditErrLoginRejected
	case errors.Is(err, ErrChallengeDenied):
		return auditErrChallengeDenied
	case errors.Is(err, ErrSessionNotFound):
		return auditErrSessionNotFound
	case errors.Is(err, ErrSessionOwnership):
		return auditErrSessionOwnership
	case errors.Is(err, ErrVaultIntegrity):
		return auditErrVaultIntegrity
	case errors.Is(err, ErrVaultUnavailable):
		return auditErrVaultUnavailable
	case errors.Is(err, ErrAutomationUnavailable):
		return auditErrAutomationFailed
	case errors.Is(err, ErrUserNotFound):
		return auditErrUserNotFound
	case errors.Is(err, ErrTicketInvalid):
		return auditErrTicketInvalid
	case errors.Is(err, ErrNotLinked):
		return auditErrNotLinked
	default:
		return auditErrInternal
	}
}
