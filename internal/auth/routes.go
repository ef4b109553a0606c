package auth

import "github.com/gin-gonic/gin"

// RegisterRoutes registers Auth routes
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	authGroup := r.Group("/auth")
	{
		authGroup.GET("/ping", h.Ping)
		authGroup.POST("/token", h.issueToken)
		authGroup.GET("/me", h.authorizer.Middleware(), h.me)
	}
}
