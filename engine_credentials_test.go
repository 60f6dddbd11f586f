package accountlink

import (
	"context"
	"errors"
	"testing"

	"github.com/nittanyapp/accountlink/browser"
	"github.com/nittanyapp/accountlink/vault"
)

func TestCredentialsAfterLink(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	up := newMockProvider(UserRecord{UserID: "u1"})
	driver := &fakeDriver{loginResult: browser.LoginResult{Outcome: browser.OutcomeLinked}}
	engine := newTestEngine(t, rdb, up, &fakeFactory{drivers: []*fakeDriver{driver}})

	if _, err := engine.Initiate(context.Background(), "u1", "abc123", "p@ss"); err != nil {
		t.Fatalf("Initiate failed: %v", err)
	}

	creds, err := engine.Credentials(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Credentials failed: %v", err)
	}
	if creds.Username != "abc123" || creds.Password != "p@ss" {
		t.Fatalf("unexpected credentials: %+v", creds)
	}
}

func TestCredentialsNotLinked(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	engine := newTestEngine(t, rdb, newMockProvider(UserRecord{UserID: "u1"}), &fakeFactory{})

	if _, err := engine.Credentials(context.Background(), "u1"); !errors.Is(err, ErrNotLinked) {
		t.Fatalf("expected ErrNotLinked, got %v", err)
	}
	if _, err := engine.Credentials(context.Background(), "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestCredentialsSecretRotationFailsClosed(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	up := newMockProvider(UserRecord{UserID: "u1"})
	driver := &fakeDriver{loginResult: browser.LoginResult{Outcome: browser.OutcomeLinked}}
	engine := newTestEngine(t, rdb, up, &fakeFactory{drivers: []*fakeDriver{driver}})

	if _, err := engine.Initiate(context.Background(), "u1", "abc123", "p@ss"); err != nil {
		t.Fatalf("Initiate failed: %v", err)
	}

	// A rotated server secret must fail the fingerprint check, never decrypt.
	engine.vault = vault.NewStore(rdb, vault.Config{
		Secret:     []byte("rotated-vault-secret-9876543210abcd"),
		Iterations: 1000,
	})

	if _, err := engine.Credentials(context.Background(), "u1"); !errors.Is(err, ErrVaultIntegrity) {
		t.Fatalf("expected ErrVaultIntegrity, got %v", err)
	}
	if engine.metrics.Value(MetricVaultError) != 1 {
		t.Fatal("expected vault error metric")
	}
}

func TestCredentialsBackendUnavailable(t *testing.T) {
	mr, rdb := newTestRedis(t)

	engine := newTestEngine(t, rdb, newMockProvider(UserRecord{UserID: "u1"}), &fakeFactory{})
	mr.Close()

	if _, err := engine.Credentials(context.Background(), "u1"); !errors.Is(err, ErrVaultUnavailable) {
		t.Fatalf("expected ErrVaultUnavailable, got %v", err)
	}
}
