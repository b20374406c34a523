package goAuthClient

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

// Config is the full engine configuration. Start from DefaultConfig and
// override fields; the builder deep-copies it.
type Config struct {
	API        APIConfig
	Session    SessionConfig
	Cache      CacheConfig
	OTP        OTPConfig
	Onboarding OnboardingConfig
	Token      TokenConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
}

/*
====================================
API CONFIG
====================================
*/

// APIConfig configures the default gateway client. Ignored when a gateway
// is injected with Builder.WithGateway.
type APIConfig struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
}

/*
====================================
STORAGE CONFIG
====================================
*/

// SessionConfig configures the Redis-backed session store.
type SessionConfig struct {
	RedisPrefix string
}

// CacheConfig configures the Redis-backed user cache.
type CacheConfig struct {
	RedisPrefix string
}

/*
====================================
OTP CONFIG
====================================
*/

// OTPConfig controls the local OTP request throttle and the pending
// challenge record.
type OTPConfig struct {
	ThrottleEnabled bool
	MaxRequests     int
	Window          time.Duration
	ThrottlePrefix  string

	ChallengeTTL    time.Duration
	ChallengePrefix string
	// MaxVerifyAttempts caps rejected codes per pending challenge.
	// 0 disables the cap.
	MaxVerifyAttempts int
}

/*
====================================
ONBOARDING CONFIG
====================================
*/

// OnboardingConfig controls how authentication interacts with the
// onboarding flag.
type OnboardingConfig struct {
	// CompleteOnAuthentication marks onboarding complete after every
	// successful authentication.
	CompleteOnAuthentication bool
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig controls access-token inspection for SessionStatus.
// SigningMethod "" reads claims without verification.
type TokenConfig struct {
	SigningMethod string // "", "ed25519", "hs256"
	VerifyKey     []byte
	Issuer        string
	Leeway        time.Duration
}

/*
====================================
OBSERVABILITY CONFIG
====================================
*/

// AuditConfig configures the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig configures in-process metrics.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the baseline configuration.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Timeout:   30 * time.Second,
			UserAgent: "goAuthClient/1",
		},
		Session: SessionConfig{
			RedisPrefix: "gac:s",
		},
		Cache: CacheConfig{
			RedisPrefix: "gac:c",
		},
		OTP: OTPConfig{
			ThrottleEnabled:   true,
			MaxRequests:       5,
			Window:            10 * time.Minute,
			ThrottlePrefix:    "gac:otp",
			ChallengeTTL:      10 * time.Minute,
			ChallengePrefix:   "gac:ch",
			MaxVerifyAttempts: 5,
		},
		Onboarding: OnboardingConfig{
			CompleteOnAuthentication: true,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.VerifyKey = cloneBytes(cfg.Token.VerifyKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Validate checks the configuration, including API.BaseURL.
func (c *Config) Validate() error {
	return c.validate(true)
}

func (c *Config) validate(requireBaseURL bool) error {
	// API
	if requireBaseURL {
		if strings.TrimSpace(c.API.BaseURL) == "" {
			return errors.New("API BaseURL is required")
		}
		u, err := url.Parse(c.API.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return errors.New("API BaseURL must be an absolute URL")
		}
	}
	if c.API.Timeout <= 0 {
		return errors.New("API Timeout must be > 0")
	}

	// Storage
	if strings.TrimSpace(c.Session.RedisPrefix) == "" {
		return errors.New("Session RedisPrefix must not be empty")
	}
	if strings.TrimSpace(c.Cache.RedisPrefix) == "" {
		return errors.New("Cache RedisPrefix must not be empty")
	}
	seen := map[string]string{}
	for _, p := range []struct{ name, prefix string }{
		{"Session", c.Session.RedisPrefix},
		{"Cache", c.Cache.RedisPrefix},
		{"OTP throttle", c.OTP.ThrottlePrefix},
		{"OTP challenge", c.OTP.ChallengePrefix},
	} {
		if p.prefix == "" {
			continue
		}
		if other, ok := seen[p.prefix]; ok {
			return errors.New(p.name + " and " + other + " prefixes must differ")
		}
		seen[p.prefix] = p.name
	}

	// OTP
	if c.OTP.ThrottleEnabled {
		if c.OTP.MaxRequests <= 0 {
			return errors.New("OTP MaxRequests must be > 0 when ThrottleEnabled")
		}
		if c.OTP.Window <= 0 {
			return errors.New("OTP Window must be > 0 when ThrottleEnabled")
		}
	}
	if c.OTP.ChallengeTTL <= 0 {
		return errors.New("OTP ChallengeTTL must be > 0")
	}
	if c.OTP.MaxVerifyAttempts < 0 || c.OTP.MaxVerifyAttempts > 255 {
		return errors.New("OTP MaxVerifyAttempts must be between 0 and 255")
	}

	// Token
	switch c.Token.SigningMethod {
	case "":
	case "ed25519", "hs256":
		if len(c.Token.VerifyKey) == 0 {
			return errors.New("Token VerifyKey is required when SigningMethod is set")
		}
	default:
		return errors.New("unsupported Token SigningMethod")
	}
	if c.Token.Leeway < 0 || c.Token.Leeway > 2*time.Minute {
		return errors.New("Token Leeway must be between 0 and 2m")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}

	return nil
}
