package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"produce-marketplace/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the bearer token payload: the subject is the account id.
type Claims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies HS256 bearer tokens.
type TokenManager struct {
	secret []byte
	now    func() time.Time
}

func NewTokenManager(secret string) *TokenManager {
	return &TokenManager{secret: []byte(secret), now: time.Now}
}

// Issue mints a token for subject with the given role. Used by seed tooling and tests;
// production tokens come from the external auth service.
func (m *TokenManager) Issue(subject string, role domain.Role, ttl time.Duration) (string, error) {
	if strings.TrimSpace(subject) == "" {
		return "", errors.New("subject required")
	}
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q", role)
	}
	now := m.now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Verify checks the signature and expiry. Every failure is reported as domain.ErrAuth.
func (m *TokenManager) Verify(token string) (Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return Claims{}, fmt.Errorf("%w: %v", domain.ErrAuth, err)
	}
	if claims.Subject == "" || !claims.Role.Valid() {
		return Claims{}, fmt.Errorf("%w: incomplete claims", domain.ErrAuth)
	}
	return claims, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
