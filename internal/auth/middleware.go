package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// claimsKey is the gin context key holding *Claims
const claimsKey = "auth.claims"

// Middleware authenticates requests with a bearer token. Browsers cannot
// set headers on websocket upgrades, so an access_token query parameter is
// accepted as well.
func (a *Authorizer) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		claims, err := a.Parse(token)
		if err != nil {
			a.logger.Debug("Rejected bearer token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": ErrUnauthenticated.Error()})
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequirePermission aborts with 403 unless the caller holds permission
func (a *Authorizer) RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !a.Can(ClaimsFrom(c), permission) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": ErrForbidden.Error()})
			return
		}
		c.Next()
	}
}

// ClaimsFrom returns the claims set by Middleware, or nil
func ClaimsFrom(c *gin.Context) *Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*Claims)
	return claims
}

// Subject returns the authenticated subject, or an empty string
func Subject(c *gin.Context) string {
	if claims := ClaimsFrom(c); claims != nil {
		return claims.Subject
	}
	return ""
}

func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	return c.Query("access_token")
}
