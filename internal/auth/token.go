package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrEmptySecret is returned when a token manager is built without a signing secret.
	ErrEmptySecret = errors.New("auth: token secret must not be empty")
	// ErrEmptySubject is returned when issuing a token without a subject.
	ErrEmptySubject = errors.New("auth: token subject must not be empty")
)

// Claims is the signed payload shared by the bearer and cookie transports.
type Claims struct {
	Role     Role   `json:"role"`
	PersonID string `json:"person_id,omitempty"`
	jwt.RegisteredClaims
}

// Username returns the token subject.
func (c Claims) Username() string {
	return c.Subject
}

// TokenManager issues and verifies HS256 signed tokens.
type TokenManager struct {
	secret []byte
	now    func() time.Time
}

// NewTokenManager constructs a TokenManager. When now is nil, time.Now is used.
func NewTokenManager(secret string, now func() time.Time) (*TokenManager, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrEmptySecret
	}
	if now == nil {
		now = time.Now
	}
	return &TokenManager{secret: []byte(secret), now: now}, nil
}

// Issue signs a token for the given identity valid for ttl. The returned time is
// the expiry recorded in the token.
func (m *TokenManager) Issue(username string, role Role, personID string, ttl time.Duration) (string, time.Time, error) {
	if strings.TrimSpace(username) == "" {
		return "", time.Time{}, ErrEmptySubject
	}

	issuedAt := m.now().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(ttl)

	claims := Claims{
		Role:     role,
		PersonID: personID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify decodes token and checks its signature and expiry. Any failure yields
// ok == false; callers treat that the same as an absent credential.
func (m *TokenManager) Verify(token string) (Claims, bool) {
	token = strings.TrimSpace(token)
	if m == nil || token == "" {
		return Claims{}, false
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !parsed.Valid {
		return Claims{}, false
	}

	// exp is inclusive: a token is dead at the second it expires.
	if !claims.ExpiresAt.Time.After(m.now()) {
		return Claims{}, false
	}
	if claims.Subject == "" {
		return Claims{}, false
	}
	return *claims, true
}
