package middleware

import (
	"net/http"
	"strings"

	"bloodconnect/internal/domain"
	"bloodconnect/internal/pkg/jwt"
	"bloodconnect/internal/pkg/response"
	"bloodconnect/internal/session"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID  = "user_id"
	ctxRole    = "role"
	ctxClaims  = "claims"
	tokenQuery = "token"
)

// JWTAuth accepts "Authorization: Bearer <token>" or, for WebSocket
// upgrades where browsers cannot set headers, a ?token= query parameter.
// Revoked tokens are rejected.
func JWTAuth(jwtService *jwt.Service, revoked session.Revocations) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, code, msg := bearerToken(c)
		if raw == "" {
			response.Error(c, http.StatusUnauthorized, code, msg)
			c.Abort()
			return
		}

		claims, err := jwtService.ValidateToken(raw)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			c.Abort()
			return
		}

		if revoked != nil && claims.ID != "" {
			gone, err := revoked.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				_ = c.Error(err)
				response.Error(c, http.StatusServiceUnavailable, "SESSION_STORE_UNAVAILABLE", "Cannot verify session")
				c.Abort()
				return
			}
			if gone {
				response.Error(c, http.StatusUnauthorized, "TOKEN_REVOKED", "Token has been revoked")
				c.Abort()
				return
			}
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxRole, claims.Role)
		c.Set(ctxClaims, claims)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (token, code, msg string) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if q := strings.TrimSpace(c.Query(tokenQuery)); q != "" {
			return q, "", ""
		}
		return "", "AUTH_HEADER_MISSING", "Authorization header is required"
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", "INVALID_AUTH_FORMAT", "Authorization header must be 'Bearer <token>'"
	}
	return strings.TrimSpace(parts[1]), "", ""
}

// UserID returns the authenticated user id, or "" outside JWTAuth.
func UserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

func Role(c *gin.Context) domain.Role {
	return domain.Role(c.GetString(ctxRole))
}

// Claims returns the validated token claims.
func Claims(c *gin.Context) (*jwt.Claims, bool) {
	v, ok := c.Get(ctxClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*jwt.Claims)
	return claims, ok
}
