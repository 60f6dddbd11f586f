package accountlink

import (
	"context"
	"errors"

	"github.com/nittanyapp/accountlink/vault"
)

// Credentials describes the credentials operation and its observable behavior.
//
// Credentials unseals the linked institutional credentials for a host-app
// consumer such as a scheduled scraping sync. The vault key is re-derived for
// this call; a record sealed under a rotated server secret fails the
// fingerprint check and surfaces ErrVaultIntegrity instead of garbage.
//
// Credentials may return an error when input validation, dependency calls, or security checks fail.
// Credentials does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Credentials(ctx context.Context, userID string) (vault.Credentials, error) {
	if err := e.ready(); err != nil {
		return vault.Credentials{}, err
	}
	if e.vault == nil {
		return vault.Credentials{}, ErrEngineNotReady
	}
	if userID == "" {
		return vault.Credentials{}, ErrUserNotFound
	}

	if _, err := e.userProvider.GetUserByID(userID); err != nil {
		return vault.Credentials{}, ErrUserNotFound
	}

	creds, err := e.vault.Get(ctx, userID)
	switch {
	case err == nil:
		return creds, nil
	case errors.Is(err, vault.ErrNotFound):
		return vault.Credentials{}, ErrNotLinked
	case errors.Is(err, vault.ErrIntegrity):
		e.metricInc(MetricVaultError)
		e.emitAudit(ctx, auditEventVaultError, false, userID, "", ErrVaultIntegrity, nil)
		return vault.Credentials{}, ErrVaultIntegrity
	default:
		e.metricInc(MetricVaultError)
		e.emitAudit(ctx, auditEventVaultError, false, userID, "", ErrVaultUnavailable, nil)
		return vault.Credentials{}, ErrVaultUnavailable
	}
}
