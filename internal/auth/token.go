package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned for tokens that fail signature, structure or
// expiry checks.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the payload carried by a bearer token.
type Claims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies HS256 bearer tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a TokenService. A zero ttl issues tokens without
// an expiry claim.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("token secret is required")
	}
	if ttl < 0 {
		return nil, fmt.Errorf("token ttl must not be negative, got %s", ttl)
	}
	return &TokenService{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue signs a token for userID.
func (s *TokenService) Issue(userID string) (string, error) {
	now := s.now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.NewString(),
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if s.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the token signature and expiry and returns its claims.
func (s *TokenService) Verify(token string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	}
	if s.ttl > 0 {
		opts = append(opts, jwt.WithExpirationRequired())
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing user claim", ErrInvalidToken)
	}
	return &claims, nil
}

// RevocationDeadline returns how long a revocation of c must be kept. It is
// the zero time for tokens without an expiry, which stay revoked for good.
func (s *TokenService) RevocationDeadline(c *Claims) time.Time {
	if c.ExpiresAt != nil {
		return c.ExpiresAt.Time
	}
	return time.Time{}
}
