package accountlink

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/nittanyapp/accountlink/browser"
	"github.com/nittanyapp/accountlink/vault"
)

type mockUserProvider struct {
	mu          sync.Mutex
	users       map[string]UserRecord
	updateCalls int
	failUpdate  bool
}

func newMockProvider(users ...UserRecord) *mockUserProvider {
	p := &mockUserProvider{users: make(map[string]UserRecord)}
	for _, u := range users {
		p.users[u.UserID] = u
	}
	return p
}

func (m *mockUserProvider) GetUserByID(userID string) (UserRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return UserRecord{}, errors.New("not found")
	}
	return u, nil
}

func (m *mockUserProvider) UpdateLinkStatus(_ context.Context, userID string, update LinkStatusUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++

	if m.failUpdate {
		return errors.New("provider down")
	}
	u, ok := m.users[userID]
	if !ok {
		return errors.New("not found")
	}
	u.LinkStatus = update.Status
	if update.LinkedEmail != nil {
		u.LinkedEmail = *update.LinkedEmail
	}
	if update.LinkedAt != nil {
		u.LinkedAt = *update.LinkedAt
	}
	if update.LastSync != nil {
		u.LastSync = *update.LastSync
	}
	m.users[userID] = u
	return nil
}

func (m *mockUserProvider) status(userID string) LinkStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.users[userID].LinkStatus
}

type fakeDriver struct {
	mu sync.Mutex

	loginResult browser.LoginResult
	loginErr    error
	// loginEntered, when set, is closed as Login begins; loginGate, when set,
	// blocks Login until closed. Used to hold an Initiate call mid-flight.
	loginEntered chan struct{}
	loginGate    chan struct{}

	// approvals are consumed in order; once drained the last one repeats.
	approvals   []browser.ApprovalResult
	approvalErr error
	waitCalls   int

	cleanups int
}

func (d *fakeDriver) Login(context.Context, string, string) (browser.LoginResult, error) {
	if d.loginEntered != nil {
		close(d.loginEntered)
	}
	if d.loginGate != nil {
		<-d.loginGate
	}
	return d.loginResult, d.loginErr
}

func (d *fakeDriver) WaitForApproval(context.Context, time.Duration) (browser.ApprovalResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.waitCalls++
	if d.approvalErr != nil {
		return browser.ApprovalResult{}, d.approvalErr
	}
	if len(d.approvals) == 0 {
		return browser.ApprovalResult{Outcome: browser.ApprovalPending}, nil
	}
	next := d.approvals[0]
	if len(d.approvals) > 1 {
		d.approvals = d.approvals[1:]
	}
	return next, nil
}

func (d *fakeDriver) Cleanup() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cleanups++
}

func (d *fakeDriver) cleanupCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cleanups
}

type fakeFactory struct {
	mu      sync.Mutex
	drivers []*fakeDriver
	err     error
	calls   int
}

func (f *fakeFactory) NewDriver(context.Context) (LoginDriver, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if len(f.drivers) == 0 {
		return &fakeDriver{}, nil
	}
	next := f.drivers[0]
	if len(f.drivers) > 1 {
		f.drivers = f.drivers[1:]
	}
	return next, nil
}

func (f *fakeFactory) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr, client
}

func newTestEngine(t *testing.T, rdb *redis.Client, up UserProvider, factory DriverFactory) *Engine {
	t.Helper()

	cfg := defaultConfig()
	cfg.Approval.MaxWait = 50 * time.Millisecond
	cfg.Session.TTL = time.Minute
	cfg.Session.SweepInterval = time.Hour
	cfg.Session.FinalizeGrace = time.Minute

	engine := &Engine{
		config:        cfg,
		userProvider:  up,
		driverFactory: factory,
		metrics:       NewMetrics(cfg.Metrics),
	}
	engine.vault = vault.NewStore(rdb, vault.Config{
		Secret:     []byte("engine-test-vault-secret-0123456789"),
		Iterations: 1000,
	})
	engine.sessions = newSessionRegistry(
		cfg.Session.TTL,
		cfg.Session.FinalizeGrace,
		cfg.Session.SweepInterval,
		engine.handleExpiredSession,
	)

	t.Cleanup(engine.Close)
	return engine
}
