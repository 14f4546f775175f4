package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"attendance-portal/internal/metrics"
)

const principalKey = "principal"

// Gate enforces the authenticated and admin capability levels.
type Gate struct {
	tokens  *TokenService
	revoked RevocationList
	log     *slog.Logger
}

// NewGate builds a gate. revoked may be nil when logout revocation is not used.
func NewGate(tokens *TokenService, revoked RevocationList, log *slog.Logger) *Gate {
	return &Gate{tokens: tokens, revoked: revoked, log: log}
}

// Authenticated requires a valid bearer token and attaches its principal.
func (g *Gate) Authenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			deny(c, http.StatusUnauthorized, "missing", "missing bearer token")
			return
		}

		principal, err := g.tokens.Verify(tokenStr)
		if err != nil {
			if errors.Is(err, ErrExpiredToken) {
				deny(c, http.StatusUnauthorized, "expired", "token expired")
				return
			}
			deny(c, http.StatusUnauthorized, "invalid", "invalid token")
			return
		}

		if g.revoked != nil && principal.TokenID != "" {
			revoked, err := g.revoked.Revoked(c.Request.Context(), principal.TokenID)
			if err != nil {
				g.log.Error("revocation lookup failed",
					slog.String("op", "auth.Authenticated"),
					slog.Any("error", err))
				deny(c, http.StatusInternalServerError, "revocation_error", "internal error")
				return
			}
			if revoked {
				deny(c, http.StatusUnauthorized, "revoked", "token revoked")
				return
			}
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

// AdminOnly requires the principal set by Authenticated to hold the admin
// role. Without a principal it answers 401 and never inspects a role.
func (g *Gate) AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := PrincipalFrom(c)
		if !ok {
			deny(c, http.StatusUnauthorized, "missing", "authentication required")
			return
		}
		if !principal.IsAdmin() {
			deny(c, http.StatusForbidden, "forbidden", "admin access required")
			return
		}
		c.Next()
	}
}

// PrincipalFrom returns the principal attached by Authenticated.
func PrincipalFrom(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || scheme != "Bearer" {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func deny(c *gin.Context, status int, reason, msg string) {
	metrics.AuthFailures.WithLabelValues(reason).Inc()
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
