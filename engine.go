package accountlink

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/nittanyapp/accountlink/ticket"
	"github.com/nittanyapp/accountlink/vault"
)

// Engine defines a public type used by accountlink APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config        Config
	vault         *vault.Store
	sessions      *sessionRegistry
	tickets       *ticket.Manager
	audit         *auditDispatcher
	metrics       *Metrics
	userProvider  UserProvider
	driverFactory DriverFactory

	closed atomic.Bool
}

// ready gates every operation: a nil or closed engine refuses new work.
func (e *Engine) ready() error {
	if e == nil {
		return ErrEngineNotReady
	}
	if e.closed.Load() {
		return ErrEngineClosed
	}
	return nil
}

// Close describes the close operation and its observable behavior.
//
// Close evicts every in-flight session (plaintext included), stops the
// registry janitor, and drains the audit pipeline.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.closed.Store(true)
	if e.sessions != nil {
		e.sessions.close()
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped describes the auditdropped operation and its observable behavior.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) observeLatency(id MetricID, start time.Time) {
	if e == nil || e.metrics == nil || !e.metrics.LatencyEnabled() {
		return
	}
	e.metrics.Observe(id, time.Since(start))
}

// setStatus applies a link-status mutation through the user provider.
// Failures are logged; callers decide whether they are fatal for the flow.
func (e *Engine) setStatus(ctx context.Context, userID string, update LinkStatusUpdate) error {
	if err := e.userProvider.UpdateLinkStatus(ctx, userID, update); err != nil {
		log.Print("accountlink: link status update failed")
		return err
	}
	return nil
}

// handleExpiredSession is the registry's TTL callback. The user's status is
// projected to Expired so the next status read tells them to start over.
func (e *Engine) handleExpiredSession(userID, sessionID string) {
	ctx := context.Background()

	e.metricInc(MetricSessionExpired)
	e.emitAudit(ctx, auditEventSessionExpired, false, userID, sessionID, ErrSessionNotFound, nil)

	user, err := e.userProvider.GetUserByID(userID)
	if err != nil {
		log.Print("accountlink: user lookup failed during session expiry")
		return
	}
	// Only a still-Linking user flips to Expired; a concurrent unlink or a
	// completed attempt must not be clobbered.
	if user.LinkStatus != LinkLinking {
		return
	}
	_ = e.setStatus(ctx, userID, LinkStatusUpdate{Status: LinkExpired})
}

// PendingSessions reports how many registry entries are live, linked
// tombstones included. Intended for operational dashboards.
func (e *Engine) PendingSessions() int {
	if e == nil || e.sessions == nil {
		return 0
	}
	return e.sessions.count()
}

// CleanupCredentials deletes vault records whose last update is older than
// age. Intended to be called from a scheduled job.
func (e *Engine) CleanupCredentials(ctx context.Context, age time.Duration) (int, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	if e.vault == nil {
		return 0, ErrEngineNotReady
	}
	removed, err := e.vault.CleanupOlderThan(ctx, age)
	if err != nil {
		return removed, ErrVaultUnavailable
	}
	return removed, nil
}
