package jwt

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SigningMethod selects how Inspect verifies signatures.
type SigningMethod string

const (
	// MethodNone reads claims without signature verification.
	MethodNone SigningMethod = ""
	// MethodEd25519 verifies EdDSA signatures with VerifyKey.
	MethodEd25519 SigningMethod = "ed25519"
	// MethodHS256 verifies HMAC-SHA256 signatures with VerifyKey.
	MethodHS256 SigningMethod = "hs256"
)

var (
	// ErrTokenMalformed is returned for input that is not a JWT.
	ErrTokenMalformed = errors.New("token malformed")
	// ErrTokenInvalid is returned when verification is enabled and fails.
	ErrTokenInvalid = errors.New("token invalid")
)

// Config defines how tokens are inspected.
type Config struct {
	SigningMethod SigningMethod
	VerifyKey     []byte
	Issuer        string
	Leeway        time.Duration
}

// Claims is the subset of token claims the client cares about.
type Claims struct {
	Subject   string
	UserID    string
	SessionID string
	Issuer    string
	Audience  []string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the token is past its expiry at now. Tokens
// without an exp claim never expire.
func (c *Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// Principal returns the user id claim, falling back to sub.
func (c *Claims) Principal() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}

type accessClaims struct {
	UID string `json:"uid,omitempty"`
	SID string `json:"sid,omitempty"`
	jwt.RegisteredClaims
}

// Inspector extracts claims from access tokens.
type Inspector struct {
	config Config
	key    any
}

// NewInspector validates cfg and returns an Inspector.
func NewInspector(cfg Config) (*Inspector, error) {
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}

	i := &Inspector{config: cfg}
	switch cfg.SigningMethod {
	case MethodNone:
	case MethodHS256:
		if len(cfg.VerifyKey) == 0 {
			return nil, errors.New("hs256 requires verify key")
		}
		i.key = cfg.VerifyKey
	case MethodEd25519:
		pub, err := parseEdPublicKey(cfg.VerifyKey)
		if err != nil {
			return nil, err
		}
		i.key = pub
	default:
		return nil, errors.New("unsupported signing method")
	}
	return i, nil
}

// Verifying reports whether signatures are checked.
func (i *Inspector) Verifying() bool {
	return i.config.SigningMethod != MethodNone
}

// Inspect parses token and returns its claims. Without a verify key the
// signature and expiry are not enforced; callers use Claims.Expired.
func (i *Inspector) Inspect(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrTokenMalformed
	}

	claims := &accessClaims{}
	if !i.Verifying() {
		if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
		}
		return toClaims(claims), nil
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{i.method().Alg()}),
	}
	if i.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(i.config.Leeway))
	}
	if i.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(i.config.Issuer))
	}

	parsed, err := jwt.NewParser(options...).ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != i.method().Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return i.key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	return toClaims(claims), nil
}

func (i *Inspector) method() jwt.SigningMethod {
	if i.config.SigningMethod == MethodHS256 {
		return jwt.SigningMethodHS256
	}
	return jwt.SigningMethodEdDSA
}

func toClaims(c *accessClaims) *Claims {
	out := &Claims{
		Subject:   c.Subject,
		UserID:    c.UID,
		SessionID: c.SID,
		Issuer:    c.Issuer,
		Audience:  []string(c.Audience),
	}
	if c.IssuedAt != nil {
		out.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.Time
	}
	return out
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, errors.New("invalid ed25519 public key")
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("invalid ed25519 public key type")
	}
	return edKey, nil
}
