package accountlink

import "context"

// Status describes the status operation and its observable behavior.
//
// Status is a read-only projection of the user's link state combined with
// whether a sealed vault record exists. It never touches plaintext and never
// mutates anything, so callers may poll it freely.
func (e *Engine) Status(ctx context.Context, userID string) (LinkStatusResult, error) {
	if err := e.ready(); err != nil {
		return LinkStatusResult{}, err
	}
	if e.vault == nil {
		return LinkStatusResult{}, ErrEngineNotReady
	}
	if userID == "" {
		return LinkStatusResult{}, ErrUserNotFound
	}

	user, err := e.userProvider.GetUserByID(userID)
	if err != nil {
		return LinkStatusResult{}, ErrUserNotFound
	}

	hasCredentials, err := e.vault.Has(ctx, userID)
	if err != nil {
		e.metricInc(MetricVaultError)
		return LinkStatusResult{}, ErrVaultUnavailable
	}

	return LinkStatusResult{
		Status:         user.LinkStatus,
		HasCredentials: hasCredentials,
		LinkedEmail:    user.LinkedEmail,
		LinkedAt:       user.LinkedAt,
		LastSync:       user.LastSync,
	}, nil
}
