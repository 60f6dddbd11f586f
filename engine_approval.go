package accountlink

import (
	"context"
	"time"

	"github.com/nittanyapp/accountlink/browser"
)

// CheckApproval describes the check approval operation and its observable behavior.
//
// CheckApproval polls one pending challenge. Waiting means poll again;
// Linked and Denied are terminal; RequiresRestart means the session is gone
// (expired, finished long ago, or never existed) and the user must start a
// new attempt. Within a session the observed state never moves backwards.
//
// CheckApproval may return an error when input validation, dependency calls, or security checks fail.
// CheckApproval does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) CheckApproval(ctx context.Context, userID, sessionID string) (ApprovalStatus, error) {
	if err := e.ready(); err != nil {
		return ApprovalStatus{}, err
	}
	if e.sessions == nil || e.vault == nil {
		return ApprovalStatus{}, ErrEngineNotReady
	}
	start := time.Now()
	defer e.observeLatency(MetricApprovalLatency, start)

	if userID == "" || sessionID == "" {
		return ApprovalStatus{}, ErrSessionNotFound
	}

	outcome, session := e.sessions.claim(sessionID, userID)
	switch outcome {
	case claimNotFound:
		e.metricInc(MetricRestartRequired)
		e.emitAudit(ctx, auditEventRestartRequired, false, userID, sessionID, ErrSessionNotFound, nil)
		return ApprovalStatus{State: ApprovalRequiresRestart, Reason: "session not found or expired"}, nil
	case claimOwnershipMismatch:
		e.metricInc(MetricOwnershipViolation)
		e.emitAudit(ctx, auditEventOwnershipViolation, false, userID, sessionID, ErrSessionOwnership, nil)
		return ApprovalStatus{}, ErrSessionOwnership
	case claimBusy:
		// Another poll holds the session; its outcome will be visible on the
		// next attempt.
		e.metricInc(MetricApprovalWaiting)
		return ApprovalStatus{State: ApprovalWaiting, Reason: "approval check in progress"}, nil
	case claimLinkedTombstone:
		return ApprovalStatus{State: ApprovalLinked}, nil
	}

	// claimAcquired: this goroutine holds the session exclusively until it
	// releases or finalizes it. Credential copies are taken now because
	// markLinked zeroes the session.
	username := session.username
	password := session.password

	approval, err := session.driver.WaitForApproval(ctx, e.config.Approval.MaxWait)
	if err != nil {
		e.sessions.release(sessionID)
		if ctx.Err() != nil {
			return ApprovalStatus{}, ctx.Err()
		}
		e.metricInc(MetricLinkError)
		e.emitAudit(ctx, auditEventLinkFailure, false, userID, sessionID, ErrAutomationUnavailable, func() map[string]string {
			return map[string]string{"stage": "approval_poll"}
		})
		return ApprovalStatus{}, ErrAutomationUnavailable
	}

	switch approval.Outcome {
	case browser.ApprovalApproved:
		// Seal before tombstoning so racing polls report Linked only once
		// the vault write has happened.
		if err := e.finalizeLink(ctx, userID, username, password); err != nil {
			e.sessions.remove(sessionID)
			return ApprovalStatus{}, err
		}
		e.sessions.markLinked(sessionID)
		e.metricInc(MetricApprovalLinked)
		e.emitAudit(ctx, auditEventLinkApproved, true, userID, sessionID, nil, nil)
		e.emitAudit(ctx, auditEventLinkSuccess, true, userID, sessionID, nil, func() map[string]string {
			return map[string]string{"mode": "challenge"}
		})
		return ApprovalStatus{State: ApprovalLinked}, nil

	case browser.ApprovalDenied:
		e.sessions.remove(sessionID)
		e.metricInc(MetricApprovalDenied)
		e.emitAudit(ctx, auditEventLinkDenied, false, userID, sessionID, ErrChallengeDenied, func() map[string]string {
			return map[string]string{"reason": approval.Reason}
		})
		_ = e.setStatus(ctx, userID, LinkStatusUpdate{Status: LinkNotLinked})
		return ApprovalStatus{State: ApprovalDenied, Reason: "challenge denied or timed out"}, nil

	default:
		e.sessions.release(sessionID)
		e.metricInc(MetricApprovalWaiting)
		return ApprovalStatus{State: ApprovalWaiting}, nil
	}
}

// CheckApprovalWithTicket describes the check approval with ticket operation and its observable behavior.
//
// The ticket carries the user and session binding, so untrusted callers can
// poll without separately proving ownership. Requires Ticket.Enabled.
func (e *Engine) CheckApprovalWithTicket(ctx context.Context, pollTicket string) (ApprovalStatus, error) {
	if err := e.ready(); err != nil {
		return ApprovalStatus{}, err
	}
	if e.tickets == nil {
		return ApprovalStatus{}, ErrTicketInvalid
	}

	claims, err := e.tickets.Parse(pollTicket)
	if err != nil {
		e.emitAudit(ctx, auditEventRestartRequired, false, "", "", ErrTicketInvalid, nil)
		return ApprovalStatus{}, ErrTicketInvalid
	}

	return e.CheckApproval(ctx, claims.UserID, claims.SessionID)
}
