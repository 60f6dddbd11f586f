package accountlink

import (
	"context"
	"errors"
	"testing"

	"github.com/nittanyapp/accountlink/browser"
)

func TestStatusNotLinked(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	engine := newTestEngine(t, rdb, newMockProvider(UserRecord{UserID: "u1"}), &fakeFactory{})

	result, err := engine.Status(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if result.Status != LinkNotLinked || result.HasCredentials {
		t.Fatalf("unexpected projection: %+v", result)
	}
}

func TestStatusAfterDirectLink(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	up := newMockProvider(UserRecord{UserID: "u1"})
	driver := &fakeDriver{loginResult: browser.LoginResult{Outcome: browser.OutcomeLinked}}
	engine := newTestEngine(t, rdb, up, &fakeFactory{drivers: []*fakeDriver{driver}})

	if _, err := engine.Initiate(context.Background(), "u1", "abc123", "p@ss"); err != nil {
		t.Fatalf("Initiate failed: %v", err)
	}

	result, err := engine.Status(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if result.Status != LinkLinked || !result.HasCredentials {
		t.Fatalf("expected linked projection, got %+v", result)
	}
	if result.LinkedEmail != "abc123" {
		t.Fatalf("expected linked email from login username, got %q", result.LinkedEmail)
	}
	if result.LinkedAt.IsZero() || result.LastSync.IsZero() {
		t.Fatalf("expected link timestamps, got %+v", result)
	}
}

func TestStatusDuringChallenge(t *testing.T) {
	up := newMockProvider(UserRecord{UserID: "u1"})
	driver := &fakeDriver{}
	engine := newChallengeEngine(t, up, driver)
	initiateChallenge(t, engine, driver)

	result, err := engine.Status(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if result.Status != LinkLinking || result.HasCredentials {
		t.Fatalf("expected linking projection without credentials, got %+v", result)
	}
}

func TestStatusUnknownUser(t *testing.T) {
	mr, rdb := newTestRedis(t)
	defer mr.Close()

	engine := newTestEngine(t, rdb, newMockProvider(), &fakeFactory{})

	if _, err := engine.Status(context.Background(), "ghost"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if _, err := engine.Status(context.Background(), ""); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound for empty id, got %v", err)
	}
}

func TestStatusVaultUnavailable(t *testing.T) {
	mr, rdb := newTestRedis(t)

	engine := newTestEngine(t, rdb, newMockProvider(UserRecord{UserID: "u1"}), &fakeFactory{})
	mr.Close()

	if _, err := engine.Status(context.Background(), "u1"); !errors.Is(err, ErrVaultUnavailable) {
		t.Fatalf("expected ErrVaultUnavailable, got %v", err)
	}
}
