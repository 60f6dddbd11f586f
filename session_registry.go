package accountlink

import (
	"sync"
	"time"

	"github.com/nittanyapp/accountlink/internal"
)

// sessionState tracks where a pending session is in its lifecycle.
type sessionState uint8

const (
	// statePending: waiting for an approval poll to claim it.
	statePending sessionState = iota
	// stateClaimed: one poll holds the session; concurrent polls see busy.
	stateClaimed
	// stateLinked: terminal tombstone kept for a short grace window so
	// near-simultaneous polls observe Linked instead of RequiresRestart.
	stateLinked
)

// pendingSession holds one in-flight linking attempt. Plaintext credentials
// live here and nowhere else until the session is finalized or evicted.
type pendingSession struct {
	userID    string
	username  string
	password  string
	matchCode string
	driver    LoginDriver

	state      sessionState
	createdAt  time.Time
	expiresAt  time.Time
	terminalAt time.Time
}

// claimResult is what claim observed for a session id.
type claimResult uint8

const (
	claimNotFound claimResult = iota
	claimOwnershipMismatch
	claimBusy
	claimLinkedTombstone
	claimAcquired
)

// sessionRegistry is the volatile store of in-flight linking sessions. It
// enforces the hard TTL through a single janitor goroutine and serializes
// per-session access through claim/release so a session is finalized at most
// once.
type sessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*pendingSession
	// reserved holds users with an Initiate call in flight that has not yet
	// registered a session, closing the gap between the duplicate check and
	// the insert.
	reserved map[string]struct{}

	ttl           time.Duration
	grace         time.Duration
	sweepInterval time.Duration

	// onExpire fires outside the registry lock when a pending session hits
	// its TTL; the engine uses it to project LinkExpired.
	onExpire func(userID, sessionID string)

	now func() time.Time

	done      chan struct{}
	closeOnce sync.Once
}

func newSessionRegistry(ttl, grace, sweepInterval time.Duration, onExpire func(userID, sessionID string)) *sessionRegistry {
	r := &sessionRegistry{
		sessions:      make(map[string]*pendingSession),
		reserved:      make(map[string]struct{}),
		ttl:           ttl,
		grace:         grace,
		sweepInterval: sweepInterval,
		onExpire:      onExpire,
		now:           time.Now,
		done:          make(chan struct{}),
	}
	go r.janitor()
	return r
}

// create registers a new pending session and returns its id.
func (r *sessionRegistry) create(userID, username, password, matchCode string, driver LoginDriver) (string, error) {
	sid, err := internal.NewSessionID()
	if err != nil {
		return "", err
	}

	now := r.now()
	session := &pendingSession{
		userID:    userID,
		username:  username,
		password:  password,
		matchCode: matchCode,
		driver:    driver,
		state:     statePending,
		createdAt: now,
		expiresAt: now.Add(r.ttl),
	}

	r.mu.Lock()
	r.sessions[sid.String()] = session
	r.mu.Unlock()

	return sid.String(), nil
}

// claim atomically takes exclusive hold of a session for one poll. On
// claimAcquired the returned credentials and driver are valid until release,
// markLinked, or remove is called for the same id.
func (r *sessionRegistry) claim(sessionID, userID string) (claimResult, *pendingSession) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[sessionID]
	if !ok {
		return claimNotFound, nil
	}
	if session.userID != userID {
		return claimOwnershipMismatch, nil
	}

	switch session.state {
	case stateLinked:
		return claimLinkedTombstone, nil
	case stateClaimed:
		return claimBusy, nil
	}
	if r.now().After(session.expiresAt) {
		// Let the janitor evict and fire onExpire; the caller just sees a
		// session that no longer exists.
		return claimNotFound, nil
	}

	session.state = stateClaimed
	return claimAcquired, session
}

// release returns a claimed session to pending after a non-terminal poll.
func (r *sessionRegistry) release(sessionID string) {
	r.mu.Lock()
	if session, ok := r.sessions[sessionID]; ok && session.state == stateClaimed {
		session.state = statePending
	}
	r.mu.Unlock()
}

// markLinked converts a claimed session into a linked tombstone: plaintext is
// dropped, the page is released, and the entry survives for the grace window
// so racing polls still observe Linked.
func (r *sessionRegistry) markLinked(sessionID string) {
	var driver LoginDriver

	r.mu.Lock()
	if session, ok := r.sessions[sessionID]; ok {
		session.username = ""
		session.password = ""
		session.state = stateLinked
		session.terminalAt = r.now()
		driver = session.driver
		session.driver = nil
	}
	r.mu.Unlock()

	if driver != nil {
		driver.Cleanup()
	}
}

// remove evicts a session immediately (denial, failure, unlink). The driver
// is cleaned up outside the lock.
func (r *sessionRegistry) remove(sessionID string) {
	r.mu.Lock()
	session, ok := r.sessions[sessionID]
	if ok {
		session.username = ""
		session.password = ""
		delete(r.sessions, sessionID)
	}
	r.mu.Unlock()

	if ok && session.driver != nil {
		session.driver.Cleanup()
	}
}

// reserveUser takes the user's single initiation slot. It fails while the
// user has a live pending session or another initiation holds the slot, so
// the duplicate-attempt check and the later create are one atomic step.
func (r *sessionRegistry) reserveUser(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, held := r.reserved[userID]; held {
		return false
	}
	if r.liveForUserLocked(userID) {
		return false
	}
	r.reserved[userID] = struct{}{}
	return true
}

// unreserveUser returns the initiation slot. Safe to call when not held.
func (r *sessionRegistry) unreserveUser(userID string) {
	r.mu.Lock()
	delete(r.reserved, userID)
	r.mu.Unlock()
}

// liveForUser reports whether the user has a non-tombstone session in flight.
func (r *sessionRegistry) liveForUser(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.liveForUserLocked(userID)
}

func (r *sessionRegistry) liveForUserLocked(userID string) bool {
	now := r.now()
	for _, session := range r.sessions {
		if session.userID == userID && session.state != stateLinked && now.Before(session.expiresAt) {
			return true
		}
	}
	return false
}

// removeForUser evicts every session owned by the user and reports how many
// were removed. Used by unlink to cancel in-flight attempts.
func (r *sessionRegistry) removeForUser(userID string) int {
	r.mu.Lock()
	var evicted []*pendingSession
	for sid, session := range r.sessions {
		if session.userID == userID {
			session.username = ""
			session.password = ""
			delete(r.sessions, sid)
			evicted = append(evicted, session)
		}
	}
	r.mu.Unlock()

	for _, session := range evicted {
		if session.driver != nil {
			session.driver.Cleanup()
		}
	}
	return len(evicted)
}

func (r *sessionRegistry) janitor() {
	ticker := time.NewTicker(r.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			r.sweep()
		}
	}
}

// sweep evicts expired pending sessions and decayed tombstones. Claimed
// sessions are skipped even past their TTL; the holder releases or finalizes
// them and the next sweep picks them up.
func (r *sessionRegistry) sweep() {
	now := r.now()

	type expired struct {
		sessionID string
		userID    string
		driver    LoginDriver
	}
	var evicted []expired

	r.mu.Lock()
	for sid, session := range r.sessions {
		switch session.state {
		case stateLinked:
			if now.Sub(session.terminalAt) > r.grace {
				delete(r.sessions, sid)
			}
		case statePending:
			if now.After(session.expiresAt) {
				session.username = ""
				session.password = ""
				delete(r.sessions, sid)
				evicted = append(evicted, expired{sessionID: sid, userID: session.userID, driver: session.driver})
			}
		}
	}
	r.mu.Unlock()

	for _, e := range evicted {
		if e.driver != nil {
			e.driver.Cleanup()
		}
		if r.onExpire != nil {
			r.onExpire(e.userID, e.sessionID)
		}
	}
}

// count returns the number of live entries, tombstones included.
func (r *sessionRegistry) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// close stops the janitor and evicts everything.
func (r *sessionRegistry) close() {
	r.closeOnce.Do(func() {
		close(r.done)
	})

	r.mu.Lock()
	var drivers []LoginDriver
	for sid, session := range r.sessions {
		session.username = ""
		session.password = ""
		if session.driver != nil {
			drivers = append(drivers, session.driver)
		}
		delete(r.sessions, sid)
	}
	r.mu.Unlock()

	for _, d := range drivers {
		d.Cleanup()
	}
}
