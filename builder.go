package accountlink

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/nittanyapp/accountlink/ticket"
	"github.com/nittanyapp/accountlink/vault"
)

// Builder defines a public type used by accountlink APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	redis  *redis.Client

	userProvider  UserProvider
	driverFactory DriverFactory
	auditSink     AuditSink

	built bool
}

// New describes the new operation and its observable behavior.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis describes the withredis operation and its observable behavior.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithUserProvider describes the withuserprovider operation and its observable behavior.
func (b *Builder) WithUserProvider(up UserProvider) *Builder {
	b.userProvider = up
	return b
}

// WithDriverFactory describes the withdriverfactory operation and its observable behavior.
func (b *Builder) WithDriverFactory(f DriverFactory) *Builder {
	b.driverFactory = f
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms describes the withlatencyhistograms operation and its observable behavior.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.userProvider == nil {
		return nil, errors.New("user provider required")
	}
	if b.driverFactory == nil {
		return nil, errors.New("driver factory required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	engine := &Engine{
		config:        cfg,
		userProvider:  b.userProvider,
		driverFactory: b.driverFactory,
	}

	engine.vault = vault.NewStore(b.redis, vault.Config{
		Secret:     cfg.Vault.Secret,
		Iterations: cfg.Vault.Iterations,
		KeyPrefix:  cfg.Vault.KeyPrefix,
	})

	if cfg.Ticket.Enabled {
		tm, err := ticket.NewManager(ticket.Config{
			Secret: cfg.Ticket.Secret,
			TTL:    cfg.Ticket.TTL,
		})
		if err != nil {
			return nil, err
		}
		engine.tickets = tm
	}

	engine.sessions = newSessionRegistry(
		cfg.Session.TTL,
		cfg.Session.FinalizeGrace,
		cfg.Session.SweepInterval,
		engine.handleExpiredSession,
	)
	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	b.built = true

	return engine, nil
}
