package accountlink

import (
	"context"
	"time"

	"github.com/nittanyapp/accountlink/browser"
)

// Initiate describes the initiate operation and its observable behavior.
//
// Initiate starts a linking attempt: it drives a fresh browser login with the
// supplied institutional credentials and either completes the link directly,
// returns a number-matching challenge to relay to the user, or fails. While a
// challenge is pending the plaintext credentials live only in the session
// registry; they are sealed into the vault strictly after approval.
//
// Initiate may return an error when input validation, dependency calls, or security checks fail.
// Initiate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Initiate(ctx context.Context, userID, username, password string) (InitiateResult, error) {
	if err := e.ready(); err != nil {
		return InitiateResult{}, err
	}
	if e.sessions == nil || e.vault == nil {
		return InitiateResult{}, ErrEngineNotReady
	}
	start := time.Now()
	defer e.observeLatency(MetricInitiateLatency, start)

	if userID == "" {
		return InitiateResult{}, ErrUserNotFound
	}
	if username == "" || password == "" {
		e.emitAudit(ctx, auditEventLinkFailure, false, userID, "", ErrCredentialsRequired, nil)
		return InitiateResult{}, ErrCredentialsRequired
	}

	user, err := e.userProvider.GetUserByID(userID)
	if err != nil {
		e.emitAudit(ctx, auditEventLinkFailure, false, userID, "", ErrUserNotFound, nil)
		return InitiateResult{}, ErrUserNotFound
	}
	if user.LinkStatus == LinkLinked {
		e.emitAudit(ctx, auditEventLinkFailure, false, userID, "", ErrAlreadyLinked, nil)
		return InitiateResult{}, ErrAlreadyLinked
	}
	// A live pending session or another in-flight Initiate blocks a second
	// attempt; a stale Linking status with no session behind it (crash,
	// expiry) is superseded instead. The reservation holds until this call
	// returns, so the check and the session insert are atomic.
	if !e.sessions.reserveUser(userID) {
		e.emitAudit(ctx, auditEventLinkFailure, false, userID, "", ErrLinkInProgress, nil)
		return InitiateResult{}, ErrLinkInProgress
	}
	defer e.sessions.unreserveUser(userID)

	e.metricInc(MetricLinkInitiated)
	e.emitAudit(ctx, auditEventLinkInitiated, true, userID, "", nil, nil)

	if err := e.setStatus(ctx, userID, LinkStatusUpdate{Status: LinkLinking}); err != nil {
		return InitiateResult{}, err
	}

	driver, err := e.driverFactory.NewDriver(ctx)
	if err != nil {
		return InitiateResult{}, e.failInitiate(ctx, userID, LinkError, ErrAutomationUnavailable, "driver_start")
	}

	login, err := driver.Login(ctx, username, password)
	if err != nil {
		driver.Cleanup()
		return InitiateResult{}, e.failInitiate(ctx, userID, LinkError, ErrAutomationUnavailable, "login_exec")
	}

	switch login.Outcome {
	case browser.OutcomeLinked:
		driver.Cleanup()
		if err := e.finalizeLink(ctx, userID, username, password); err != nil {
			return InitiateResult{}, err
		}
		e.metricInc(MetricLinkedDirect)
		e.emitAudit(ctx, auditEventLinkSuccess, true, userID, "", nil, func() map[string]string {
			return map[string]string{"mode": "direct"}
		})
		return InitiateResult{Linked: true}, nil

	case browser.OutcomeChallenge:
		sessionID, err := e.sessions.create(userID, username, password, login.MatchCode, driver)
		if err != nil {
			driver.Cleanup()
			return InitiateResult{}, e.failInitiate(ctx, userID, LinkError, ErrAutomationUnavailable, "session_create")
		}

		result := InitiateResult{
			ChallengeRequired: true,
			SessionID:         sessionID,
			MatchCode:         login.MatchCode,
		}
		if e.tickets != nil {
			pollTicket, err := e.tickets.Issue(userID, sessionID)
			if err != nil {
				e.sessions.remove(sessionID)
				return InitiateResult{}, e.failInitiate(ctx, userID, LinkError, ErrAutomationUnavailable, "ticket_issue")
			}
			result.PollTicket = pollTicket
		}

		e.metricInc(MetricChallengeIssued)
		e.emitAudit(ctx, auditEventLinkChallenge, true, userID, sessionID, nil, nil)
		return result, nil

	default:
		driver.Cleanup()
		e.metricInc(MetricLinkFailure)
		e.emitAudit(ctx, auditEventLinkFailure, false, userID, "", ErrLoginRejected, func() map[string]string {
			return map[string]string{"reason": login.Reason}
		})
		// Rejected credentials end the attempt; the user simply is not
		// linked, which is different from an automation breakage.
		_ = e.setStatus(ctx, userID, LinkStatusUpdate{Status: LinkNotLinked})
		return InitiateResult{}, ErrLoginRejected
	}
}

// failInitiate records a system-side initiation failure and projects status.
func (e *Engine) failInitiate(ctx context.Context, userID string, status LinkStatus, cause error, stage string) error {
	e.metricInc(MetricLinkError)
	e.emitAudit(ctx, auditEventLinkFailure, false, userID, "", cause, func() map[string]string {
		return map[string]string{"stage": stage}
	})
	_ = e.setStatus(ctx, userID, LinkStatusUpdate{Status: status})
	return cause
}

// finalizeLink seals credentials into the vault and projects Linked. It is
// called exactly once per successful attempt, by whichever path completed it.
func (e *Engine) finalizeLink(ctx context.Context, userID, username, password string) error {
	if _, err := e.vault.Save(ctx, userID, username, password); err != nil {
		e.metricInc(MetricVaultError)
		e.emitAudit(ctx, auditEventVaultError, false, userID, "", ErrVaultUnavailable, nil)
		_ = e.setStatus(ctx, userID, LinkStatusUpdate{Status: LinkError})
		return ErrVaultUnavailable
	}

	now := time.Now()
	linkedEmail := username
	update := LinkStatusUpdate{
		Status:      LinkLinked,
		LinkedEmail: &linkedEmail,
		LinkedAt:    &now,
		LastSync:    &now,
	}
	if err := e.setStatus(ctx, userID, update); err != nil {
		return err
	}
	return nil
}
