package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"attendance-portal/internal/apperr"
	"attendance-portal/internal/model"
)

// DefaultTTL is the token lifetime when none is configured.
const DefaultTTL = time.Hour

// Verification failures. Both are Unauthenticated to callers; the split only
// feeds error detail and metrics.
var (
	ErrExpiredToken   = fmt.Errorf("%w: token expired", apperr.ErrUnauthenticated)
	ErrMalformedToken = fmt.Errorf("%w: invalid token", apperr.ErrUnauthenticated)
)

// Claims represents JWT payload.
type Claims struct {
	Role model.Role `json:"role"`
	jwt.RegisteredClaims
}

// Principal is the verified identity behind a request.
type Principal struct {
	SubjectID string
	Role      model.Role
	TokenID   string
	ExpiresAt time.Time
}

// IsAdmin reports whether the principal carries the admin role.
func (p Principal) IsAdmin() bool { return p.Role == model.RoleAdmin }

// IssuedToken is a signed token and its metadata.
type IssuedToken struct {
	Value     string    `json:"token"`
	ID        string    `json:"-"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// TokenService issues and verifies HS256 identity tokens.
type TokenService struct {
	key    []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService creates a service signing with key. A non-positive ttl
// falls back to DefaultTTL.
func NewTokenService(key, issuer string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &TokenService{key: []byte(key), issuer: issuer, ttl: ttl, now: time.Now}
}

// WithClock returns a copy of s that reads time from now.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	cp := *s
	cp.now = now
	return &cp
}

// TTL is the lifetime of issued tokens.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// Issue signs a token for subjectID with the given role.
func (s *TokenService) Issue(subjectID string, role model.Role) (IssuedToken, error) {
	const op = "auth.Issue"

	if subjectID == "" || !role.Valid() {
		return IssuedToken{}, fmt.Errorf("%s: %w: subject and role required", op, apperr.ErrInvalidInput)
	}

	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.ttl)
	tokenID := uuid.NewString()

	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			Issuer:    s.issuer,
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return IssuedToken{}, fmt.Errorf("%s: %w", op, err)
	}

	return IssuedToken{Value: signed, ID: tokenID, ExpiresAt: expiresAt}, nil
}

// Verify validates a token and returns its principal.
func (s *TokenService) Verify(tokenStr string) (Principal, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return s.key, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Principal{}, ErrExpiredToken
		}
		return Principal{}, ErrMalformedToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Principal{}, ErrMalformedToken
	}
	if claims.Subject == "" || !claims.Role.Valid() {
		return Principal{}, ErrMalformedToken
	}

	return Principal{
		SubjectID: claims.Subject,
		Role:      claims.Role,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
