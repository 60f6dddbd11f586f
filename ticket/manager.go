package ticket

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidSecret reports a missing or too-short signing secret.
	ErrInvalidSecret = errors.New("ticket: secret must be at least 32 bytes")
	// ErrInvalidTTL reports a non-positive ticket lifetime.
	ErrInvalidTTL = errors.New("ticket: ttl must be positive")
	// ErrInvalidTicket reports a ticket that failed signature, expiry, or
	// claim validation.
	ErrInvalidTicket = errors.New("ticket: invalid ticket")
)

// Config controls ticket signing.
type Config struct {
	// Secret signs tickets. Minimum 32 bytes; must not be reused as the
	// vault secret.
	Secret []byte
	// TTL is the ticket lifetime. Tickets should outlive the linking
	// session TTL by a small margin so a final poll can still resolve.
	TTL time.Duration
	// Issuer is the iss claim. Defaults to "accountlink".
	Issuer string
}

// Claims are the ticket payload: which user may poll which session.
type Claims struct {
	UserID    string `json:"uid"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Manager issues and parses poll tickets. Safe for concurrent use.
type Manager struct {
	cfg Config
}

// NewManager validates cfg and creates a manager.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) < 32 {
		return nil, ErrInvalidSecret
	}
	if cfg.TTL <= 0 {
		return nil, ErrInvalidTTL
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "accountlink"
	}
	return &Manager{cfg: cfg}, nil
}

// Issue signs a ticket binding userID to sessionID.
func (m *Manager) Issue(userID, sessionID string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:    userID,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.cfg.TTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.cfg.Secret)
	if err != nil {
		return "", fmt.Errorf("ticket: sign: %w", err)
	}
	return signed, nil
}

// Parse verifies a ticket and returns its claims. Expired, tampered, or
// foreign-issuer tickets fail with ErrInvalidTicket.
func (m *Manager) Parse(raw string) (Claims, error) {
	var claims Claims

	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return m.cfg.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.cfg.Issuer),
	)
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidTicket
	}
	if claims.UserID == "" || claims.SessionID == "" {
		return Claims{}, ErrInvalidTicket
	}
	return claims, nil
}
