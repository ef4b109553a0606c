package api

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"csd-portal/ops-portal/ops-portal-backend/internal/auth"
)

// RouterConfig configures the HTTP surface
type RouterConfig struct {
	// AllowedOrigins lists CORS origins; empty or "*" allows any
	AllowedOrigins []string
}

// NewRouter builds the gin engine: health and auth endpoints at the root,
// page and session endpoints under /api/v1 behind bearer authentication.
func NewRouter(cfg RouterConfig, handler *Handler, authHandler *auth.Handler, authorizer *auth.Authorizer, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(logger))
	router.Use(CORS(cfg.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"sessions":  handler.sessions.Stats(),
			"live":      handler.hub.ConnectionCount(),
		})
	})

	authHandler.RegisterRoutes(router)

	v1 := router.Group("/api/v1")
	v1.Use(authorizer.Middleware())
	handler.RegisterRoutes(v1)

	return router
}

// RequestLogger logs each request once it completes
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if subject := auth.Subject(c); subject != "" {
			fields = append(fields, zap.String("subject", subject))
		}
		switch {
		case len(c.Errors) > 0:
			logger.Error("Request failed", append(fields, zap.String("errors", c.Errors.String()))...)
		case c.Writer.Status() >= http.StatusInternalServerError:
			logger.Error("Request failed", fields...)
		default:
			logger.Debug("Request served", fields...)
		}
	}
}

// CORS answers preflight requests and sets the allow headers
func CORS(allowed []string) gin.HandlerFunc {
	allowAll := len(allowed) == 0 || slices.Contains(allowed, "*")
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case allowAll:
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && slices.ContainsFunc(allowed, func(o string) bool { return strings.EqualFold(o, origin) }):
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Add("Vary", "Origin")
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
