package accountlink

import (
	"bytes"
	"testing"
	"time"
)

func validTestConfig() Config {
	cfg := defaultConfig()
	cfg.Vault.Secret = []byte("config-test-vault-secret-0123456789")
	cfg.Browser.LoginURL = "https://login.example.edu/"
	cfg.Browser.SuccessURLPrefix = "https://portal.example.edu/"
	return cfg
}

func TestConfigValidateDefaults(t *testing.T) {
	cfg := validTestConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestConfigValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"short vault secret", func(c *Config) { c.Vault.Secret = []byte("short") }},
		{"low iterations", func(c *Config) { c.Vault.Iterations = 1000 }},
		{"zero session ttl", func(c *Config) { c.Session.TTL = 0 }},
		{"zero sweep interval", func(c *Config) { c.Session.SweepInterval = 0 }},
		{"negative finalize grace", func(c *Config) { c.Session.FinalizeGrace = -time.Second }},
		{"zero approval wait", func(c *Config) { c.Approval.MaxWait = 0 }},
		{"excessive approval wait", func(c *Config) { c.Approval.MaxWait = time.Minute }},
		{"missing login url", func(c *Config) { c.Browser.LoginURL = "" }},
		{"missing success url prefix", func(c *Config) { c.Browser.SuccessURLPrefix = "" }},
		{"success prefix covering login url", func(c *Config) { c.Browser.SuccessURLPrefix = "https://login.example.edu/" }},
		{"ticket enabled without secret", func(c *Config) { c.Ticket.Enabled = true }},
		{"ticket secret too short", func(c *Config) {
			c.Ticket.Enabled = true
			c.Ticket.Secret = []byte("short")
		}},
		{"ticket secret equals vault secret", func(c *Config) {
			c.Ticket.Enabled = true
			c.Ticket.Secret = append([]byte(nil), c.Vault.Secret...)
		}},
		{"ticket zero ttl", func(c *Config) {
			c.Ticket.Enabled = true
			c.Ticket.Secret = []byte("config-test-ticket-secret-987654321")
			c.Ticket.TTL = 0
		}},
		{"audit zero buffer", func(c *Config) { c.Audit.BufferSize = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validTestConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestCloneConfigCopiesSecrets(t *testing.T) {
	cfg := validTestConfig()
	cfg.Ticket.Secret = []byte("config-test-ticket-secret-987654321")

	clone := cloneConfig(cfg)
	clone.Vault.Secret[0] ^= 0xff
	clone.Ticket.Secret[0] ^= 0xff

	if bytes.Equal(clone.Vault.Secret, cfg.Vault.Secret) {
		t.Fatal("vault secret not copied")
	}
	if bytes.Equal(clone.Ticket.Secret, cfg.Ticket.Secret) {
		t.Fatal("ticket secret not copied")
	}
}
