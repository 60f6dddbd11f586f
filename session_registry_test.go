package accountlink

import (
	"sync"
	"testing"
	"time"
)

func newTestRegistry(onExpire func(userID, sessionID string)) *sessionRegistry {
	// Long sweep interval so tests drive sweeps manually.
	return newSessionRegistry(time.Minute, 10*time.Second, time.Hour, onExpire)
}

func TestRegistryCreateAndClaim(t *testing.T) {
	r := newTestRegistry(nil)
	defer r.close()

	driver := &fakeDriver{}
	sid, err := r.create("u1", "alice", "p@ss", "42", driver)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if sid == "" {
		t.Fatal("expected session id")
	}

	outcome, session := r.claim(sid, "u1")
	if outcome != claimAcquired {
		t.Fatalf("expected claimAcquired, got %v", outcome)
	}
	if session.username != "alice" || session.password != "p@ss" || session.matchCode != "42" {
		t.Fatalf("unexpected session contents: %+v", session)
	}
}

func TestRegistryClaimOwnershipAndMissing(t *testing.T) {
	r := newTestRegistry(nil)
	defer r.close()

	sid, _ := r.create("u1", "alice", "p@ss", "42", &fakeDriver{})

	if outcome, _ := r.claim(sid, "u2"); outcome != claimOwnershipMismatch {
		t.Fatalf("expected ownership mismatch, got %v", outcome)
	}
	if outcome, _ := r.claim("bogus", "u1"); outcome != claimNotFound {
		t.Fatalf("expected not found, got %v", outcome)
	}
}

func TestRegistryClaimIsExclusive(t *testing.T) {
	r := newTestRegistry(nil)
	defer r.close()

	sid, _ := r.create("u1", "alice", "p@ss", "42", &fakeDriver{})

	if outcome, _ := r.claim(sid, "u1"); outcome != claimAcquired {
		t.Fatal("first claim should acquire")
	}
	if outcome, _ := r.claim(sid, "u1"); outcome != claimBusy {
		t.Fatal("second claim should observe busy")
	}

	r.release(sid)
	if outcome, _ := r.claim(sid, "u1"); outcome != claimAcquired {
		t.Fatal("claim after release should acquire")
	}
}

func TestRegistryMarkLinkedZeroesAndTombstones(t *testing.T) {
	r := newTestRegistry(nil)
	defer r.close()

	driver := &fakeDriver{}
	sid, _ := r.create("u1", "alice", "p@ss", "42", driver)
	r.claim(sid, "u1")
	r.markLinked(sid)

	if driver.cleanupCount() != 1 {
		t.Fatal("expected driver cleanup on finalize")
	}

	outcome, _ := r.claim(sid, "u1")
	if outcome != claimLinkedTombstone {
		t.Fatalf("expected tombstone, got %v", outcome)
	}

	r.mu.Lock()
	session := r.sessions[sid]
	if session.username != "" || session.password != "" {
		r.mu.Unlock()
		t.Fatal("expected plaintext zeroed in tombstone")
	}
	r.mu.Unlock()

	if r.liveForUser("u1") {
		t.Fatal("tombstone must not count as a live session")
	}
}

func TestRegistryTombstoneDecaysAfterGrace(t *testing.T) {
	r := newTestRegistry(nil)
	defer r.close()

	sid, _ := r.create("u1", "alice", "p@ss", "42", &fakeDriver{})
	r.claim(sid, "u1")
	r.markLinked(sid)

	base := time.Now()
	r.now = func() time.Time { return base.Add(11 * time.Second) }
	r.sweep()

	if outcome, _ := r.claim(sid, "u1"); outcome != claimNotFound {
		t.Fatalf("expected tombstone gone after grace, got %v", outcome)
	}
}

func TestRegistrySweepEvictsExpiredAndFiresCallback(t *testing.T) {
	var (
		mu      sync.Mutex
		expired []string
	)
	r := newTestRegistry(func(userID, sessionID string) {
		mu.Lock()
		expired = append(expired, userID)
		mu.Unlock()
	})
	defer r.close()

	driver := &fakeDriver{}
	sid, _ := r.create("u1", "alice", "p@ss", "42", driver)

	base := time.Now()
	r.now = func() time.Time { return base.Add(2 * time.Minute) }
	r.sweep()

	mu.Lock()
	got := len(expired)
	mu.Unlock()
	if got != 1 {
		t.Fatalf("expected one expiry callback, got %d", got)
	}
	if driver.cleanupCount() != 1 {
		t.Fatal("expected driver cleanup on expiry")
	}
	if outcome, _ := r.claim(sid, "u1"); outcome != claimNotFound {
		t.Fatal("expected expired session gone")
	}
}

func TestRegistrySweepSkipsClaimedSessions(t *testing.T) {
	r := newTestRegistry(func(string, string) {
		t.Error("claimed session must not expire mid-poll")
	})
	defer r.close()

	sid, _ := r.create("u1", "alice", "p@ss", "42", &fakeDriver{})
	r.claim(sid, "u1")

	base := time.Now()
	r.now = func() time.Time { return base.Add(2 * time.Minute) }
	r.sweep()

	r.mu.Lock()
	_, ok := r.sessions[sid]
	r.mu.Unlock()
	if !ok {
		t.Fatal("claimed session should survive the sweep")
	}
}

func TestRegistryLiveForUser(t *testing.T) {
	r := newTestRegistry(nil)
	defer r.close()

	if r.liveForUser("u1") {
		t.Fatal("expected no live session initially")
	}

	r.create("u1", "alice", "p@ss", "42", &fakeDriver{})
	if !r.liveForUser("u1") {
		t.Fatal("expected live session after create")
	}
	if r.liveForUser("u2") {
		t.Fatal("other users must not observe u1's session")
	}
}

func TestRegistryReserveUser(t *testing.T) {
	r := newTestRegistry(nil)
	defer r.close()

	if !r.reserveUser("u1") {
		t.Fatal("expected first reservation to succeed")
	}
	if r.reserveUser("u1") {
		t.Fatal("expected held reservation to block a second one")
	}
	if !r.reserveUser("u2") {
		t.Fatal("reservations are per user")
	}

	sid, _ := r.create("u1", "alice", "p@ss", "42", &fakeDriver{})
	r.unreserveUser("u1")
	if r.reserveUser("u1") {
		t.Fatal("expected live session to block a new reservation")
	}

	r.remove(sid)
	if !r.reserveUser("u1") {
		t.Fatal("expected reservation after session removal")
	}

	// Releasing an unheld slot is a no-op.
	r.unreserveUser("ghost")
}

func TestRegistryRemoveForUser(t *testing.T) {
	r := newTestRegistry(nil)
	defer r.close()

	d1 := &fakeDriver{}
	d2 := &fakeDriver{}
	r.create("u1", "alice", "p@ss", "42", d1)
	r.create("u1", "alice", "p@ss", "57", d2)
	r.create("u2", "bob", "p@ss", "11", &fakeDriver{})

	if removed := r.removeForUser("u1"); removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}
	if d1.cleanupCount() != 1 || d2.cleanupCount() != 1 {
		t.Fatal("expected both drivers cleaned up")
	}
	if r.liveForUser("u1") {
		t.Fatal("expected no live sessions for u1")
	}
	if !r.liveForUser("u2") {
		t.Fatal("u2's session must survive")
	}
}

func TestRegistrySessionIDsAreUnique(t *testing.T) {
	r := newTestRegistry(nil)
	defer r.close()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		sid, err := r.create("u1", "alice", "p@ss", "42", &fakeDriver{})
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if seen[sid] {
			t.Fatalf("duplicate session id %q", sid)
		}
		seen[sid] = true
	}
}

func TestRegistryCloseEvictsEverything(t *testing.T) {
	r := newTestRegistry(nil)

	driver := &fakeDriver{}
	r.create("u1", "alice", "p@ss", "42", driver)
	r.close()

	if driver.cleanupCount() != 1 {
		t.Fatal("expected driver cleanup on close")
	}
	if r.count() != 0 {
		t.Fatal("expected empty registry after close")
	}
	// Second close is a no-op.
	r.close()
}
