package accountlink

import (
	"context"
	"time"
)

// Unlink describes the unlink operation and its observable behavior.
//
// Unlink removes the user's vault record, cancels any in-flight linking
// session, and projects NotLinked. It is idempotent: unlinking a user with
// nothing to remove still succeeds with Removed=false.
//
// Unlink may return an error when input validation, dependency calls, or security checks fail.
// Unlink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Unlink(ctx context.Context, userID string) (UnlinkResult, error) {
	if err := e.ready(); err != nil {
		return UnlinkResult{}, err
	}
	if e.vault == nil || e.sessions == nil {
		return UnlinkResult{}, ErrEngineNotReady
	}
	if userID == "" {
		return UnlinkResult{}, ErrUserNotFound
	}

	if _, err := e.userProvider.GetUserByID(userID); err != nil {
		return UnlinkResult{}, ErrUserNotFound
	}

	// In-flight sessions die first so a racing approval cannot re-seal
	// credentials after the vault delete.
	e.sessions.removeForUser(userID)

	removed, err := e.vault.Delete(ctx, userID)
	if err != nil {
		e.metricInc(MetricVaultError)
		e.emitAudit(ctx, auditEventVaultError, false, userID, "", ErrVaultUnavailable, nil)
		return UnlinkResult{}, ErrVaultUnavailable
	}

	now := time.Now()
	empty := ""
	var zero time.Time
	update := LinkStatusUpdate{
		Status:      LinkNotLinked,
		LinkedEmail: &empty,
		LinkedAt:    &zero,
		LastSync:    &zero,
	}
	if err := e.setStatus(ctx, userID, update); err != nil {
		return UnlinkResult{}, err
	}

	e.metricInc(MetricUnlink)
	e.emitAudit(ctx, auditEventUnlinked, true, userID, "", nil, func() map[string]string {
		if removed {
			return map[string]string{"vault_record": "removed"}
		}
		return map[string]string{"vault_record": "absent"}
	})

	return UnlinkResult{UnlinkedAt: now, Removed: removed}, nil
}
