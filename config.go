package accountlink

import (
	"bytes"
	"errors"
	"strings"
	"time"

	"github.com/nittanyapp/accountlink/browser"
)

// Config is the full engine configuration tree. Obtain a baseline with
// [Builder.New]'s defaults and override fields through [Builder.WithConfig];
// Validate runs once at Build time.
type Config struct {
	Vault    VaultConfig
	Session  SessionConfig
	Approval ApprovalConfig
	Browser  browser.Config
	Ticket   TicketConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

// VaultConfig controls credential sealing.
type VaultConfig struct {
	// Secret is the server secret vault keys are derived from. Minimum 32
	// bytes. Must differ from Ticket.Secret.
	Secret []byte
	// Iterations is the PBKDF2 iteration count. Minimum 100000.
	Iterations int
	// KeyPrefix namespaces vault records in Redis.
	KeyPrefix string
}

// SessionConfig controls the in-flight session registry.
type SessionConfig struct {
	// TTL is the hard lifetime of a pending session. An unapproved challenge
	// is evicted, plaintext and all, once TTL elapses.
	TTL time.Duration
	// SweepInterval paces the registry janitor.
	SweepInterval time.Duration
	// FinalizeGrace keeps a linked tombstone visible after finalization so
	// racing polls observe Linked instead of RequiresRestart.
	FinalizeGrace time.Duration
}

// ApprovalConfig controls approval polling.
type ApprovalConfig struct {
	// MaxWait bounds how long one CheckApproval call watches the page before
	// answering Waiting. Capped at 5s to keep polls cheap.
	MaxWait time.Duration
}

// TicketConfig controls signed poll tickets.
type TicketConfig struct {
	// Enabled turns on CheckApprovalWithTicket. Initiate then returns a
	// PollTicket next to the session id.
	Enabled bool
	// Secret signs tickets. Minimum 32 bytes; must differ from Vault.Secret.
	Secret []byte
	// TTL is the ticket lifetime. Should exceed Session.TTL slightly.
	TTL time.Duration
}

// AuditConfig controls the async audit pipeline.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull drops events when the buffer is saturated instead of
	// blocking engine calls. Drops are counted and observable.
	DropIfFull bool
}

// MetricsConfig controls the in-process metrics collector.
type MetricsConfig struct {
	Enabled bool
	// EnableLatencyHistograms additionally records initiate and approval
	// latency distributions.
	EnableLatencyHistograms bool
}

const maxApprovalWait = 5 * time.Second

// DefaultConfig returns the baseline configuration. Secrets and the browser
// login URL must still be filled in before Build.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Vault: VaultConfig{
			Iterations: 100000,
			KeyPrefix:  "alv",
		},
		Session: SessionConfig{
			TTL:           10 * time.Minute,
			SweepInterval: 30 * time.Second,
			FinalizeGrace: 15 * time.Second,
		},
		Approval: ApprovalConfig{
			MaxWait: 3 * time.Second,
		},
		Ticket: TicketConfig{
			TTL: 12 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	clone := cfg
	clone.Vault.Secret = append([]byte(nil), cfg.Vault.Secret...)
	clone.Ticket.Secret = append([]byte(nil), cfg.Ticket.Secret...)
	return clone
}

// Validate checks the configuration for internal consistency. It is called
// by [Builder.Build]; direct callers only need it when constructing Config
// by hand.
func (c *Config) Validate() error {
	if len(c.Vault.Secret) < 32 {
		return errors.New("accountlink: vault secret must be at least 32 bytes")
	}
	if c.Vault.Iterations < 100000 {
		return errors.New("accountlink: vault iterations must be at least 100000")
	}
	if c.Session.TTL <= 0 {
		return errors.New("accountlink: session ttl must be positive")
	}
	if c.Session.SweepInterval <= 0 {
		return errors.New("accountlink: session sweep interval must be positive")
	}
	if c.Session.FinalizeGrace < 0 {
		return errors.New("accountlink: finalize grace must not be negative")
	}
	if c.Approval.MaxWait <= 0 || c.Approval.MaxWait > maxApprovalWait {
		return errors.New("accountlink: approval max wait must be in (0, 5s]")
	}
	if c.Browser.LoginURL == "" {
		return errors.New("accountlink: browser login url required")
	}
	if c.Browser.SuccessURLPrefix == "" {
		return errors.New("accountlink: browser success url prefix required")
	}
	if strings.HasPrefix(c.Browser.LoginURL, c.Browser.SuccessURLPrefix) {
		return errors.New("accountlink: success url prefix must not cover the login url")
	}
	if c.Ticket.Enabled {
		if len(c.Ticket.Secret) < 32 {
			return errors.New("accountlink: ticket secret must be at least 32 bytes")
		}
		if bytes.Equal(c.Ticket.Secret, c.Vault.Secret) {
			return errors.New("accountlink: ticket secret must differ from vault secret")
		}
		if c.Ticket.TTL <= 0 {
			return errors.New("accountlink: ticket ttl must be positive")
		}
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("accountlink: audit buffer size must be positive")
	}
	return nil
}
