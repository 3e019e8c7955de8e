package middlewares

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/postboard/internal/auth"
	"github.com/gin-gonic/gin"
)

// Keep these interfaces small so tests can fake them easily.
type TokenVerifier interface {
	VerifyAccessToken(token string) (*auth.Claims, error)
}

type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type AuthMiddleware struct {
	jwt      TokenVerifier
	denylist RevocationChecker
}

// NewAuthMiddleware builds the request gate. denylist may be nil, in which
// case verification is purely stateless.
func NewAuthMiddleware(jwt TokenVerifier, denylist RevocationChecker) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt, denylist: denylist}
}

// TokenHeader is the header clients present tokens in. Authorization: Bearer
// is accepted as well.
const TokenHeader = "auth-token"

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := tokenFromRequest(c)

		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":    "access_denied",
					"message": "Access denied",
				},
			})
			return
		}

		claims, err := m.jwt.VerifyAccessToken(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": gin.H{
					"code":    "invalid_token",
					"message": "Invalid token",
				},
			})
			return
		}

		if m.denylist != nil {
			cctx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
			revoked, err := m.denylist.IsRevoked(cctx, claims.JTI)
			cancel()

			// a denylist outage must not turn into an open door for a token
			// we could not clear
			if err != nil || revoked {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
					"error": gin.H{
						"code":    "invalid_token",
						"message": "Invalid token",
					},
				})
				return
			}
		}

		// Stash useful bits of identity on the context
		c.Set(ctxUserIDKey, claims.UserID)
		c.Set(ctxEmailKey, claims.Email)
		c.Set(ctxTokenKey, raw)
		c.Set(ctxJTIKey, claims.JTI)

		c.Next()
	}
}

func tokenFromRequest(c *gin.Context) string {
	if raw := strings.TrimSpace(c.GetHeader(TokenHeader)); raw != "" {
		return raw
	}

	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer"))
	}

	return ""
}

// Helpers so handlers don't need to know the magic keys.

func UserIDFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxUserIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}

func EmailFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxEmailKey)
	if !ok {
		return "", false
	}
	email, ok := v.(string)
	return email, ok
}

func TokenJTIFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxJTIKey)
	if !ok {
		return "", false
	}
	jti, ok := v.(string)
	return jti, ok
}

func RawTokenFromContext(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxTokenKey)
	if !ok {
		return "", false
	}
	raw, ok := v.(string)
	return raw, ok
}
