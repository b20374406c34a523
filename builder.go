package goAuthClient

import (
	"errors"
	"time"

	"github.com/MrEthical07/goAuthClient/api"
	"github.com/MrEthical07/goAuthClient/cache"
	internalaudit "github.com/MrEthical07/goAuthClient/internal/audit"
	"github.com/MrEthical07/goAuthClient/internal/rate"
	"github.com/MrEthical07/goAuthClient/internal/stores"
	"github.com/MrEthical07/goAuthClient/jwt"
	"github.com/MrEthical07/goAuthClient/session"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Builder assembles an Engine. Configure it during initialization, call
// Build once, then discard it.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	gateway      Gateway
	userCache    UserCache
	sessionStore SessionStore

	logger    *zap.Logger
	auditSink AuditSink
	clock     func() time.Time

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the configuration with a deep copy of cfg.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the Redis client backing the default stores, the OTP
// throttle and the pending challenge record.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithGateway injects the remote auth service. Without it Build creates an
// *api.Client from Config.API.
func (b *Builder) WithGateway(g Gateway) *Builder {
	b.gateway = g
	return b
}

// WithUserCache overrides the Redis-backed user cache.
func (b *Builder) WithUserCache(c UserCache) *Builder {
	b.userCache = c
	return b
}

// WithSessionStore overrides the Redis-backed session store.
func (b *Builder) WithSessionStore(s SessionStore) *Builder {
	b.sessionStore = s
	return b
}

// WithLogger sets the engine logger. Defaults to zap.NewNop().
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithAuditSink sets the audit sink. When audit is enabled without a sink,
// events go to a ZapSink on the engine logger.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithClock overrides time.Now for record timestamps and latency.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

// WithMetricsEnabled toggles in-process metrics.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the exchange latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the Engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.validate(b.gateway == nil); err != nil {
		return nil, err
	}

	if b.redis == nil && (b.userCache == nil || b.sessionStore == nil) {
		return nil, errors.New("redis client required")
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	inspector, err := jwt.NewInspector(jwt.Config{
		SigningMethod: jwt.SigningMethod(cfg.Token.SigningMethod),
		VerifyKey:     cloneBytes(cfg.Token.VerifyKey),
		Issuer:        cfg.Token.Issuer,
		Leeway:        cfg.Token.Leeway,
	})
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:    cloneConfig(cfg),
		gateway:   b.gateway,
		users:     b.userCache,
		session:   b.sessionStore,
		inspector: inspector,
		metrics:   NewMetrics(cfg.Metrics),
		logger:    logger.Named("goauthclient"),
		clock:     b.clock,
	}

	// -------- GATEWAY --------
	if engine.gateway == nil {
		engine.gateway = api.NewClient(cfg.API.BaseURL,
			api.WithTimeout(cfg.API.Timeout),
			api.WithUserAgent(cfg.API.UserAgent),
			api.WithLogger(logger),
		)
	}

	// -------- STORES --------
	if engine.users == nil {
		engine.users = cache.NewStore(b.redis, cfg.Cache.RedisPrefix)
	}
	if engine.session == nil {
		engine.session = session.NewStore(b.redis, cfg.Session.RedisPrefix)
	}
	if b.redis != nil {
		engine.challenges = stores.NewOTPChallengeStore(b.redis, cfg.OTP.ChallengePrefix)
		if cfg.OTP.ThrottleEnabled {
			engine.throttle = rate.New(b.redis, rate.Config{
				Prefix:      cfg.OTP.ThrottlePrefix,
				MaxRequests: cfg.OTP.MaxRequests,
				Window:      cfg.OTP.Window,
			})
		}
	}

	// -------- AUDIT --------
	sink := b.auditSink
	if sink == nil && cfg.Audit.Enabled {
		sink = NewZapSink(logger)
	}
	engine.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, sink)

	b.built = true

	return engine, nil
}
