package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler serves token and identity endpoints
type Handler struct {
	authorizer *Authorizer
	devTokens  bool
	logger     *zap.Logger
}

// NewHandler creates a new auth handler. Token issuing is only served when
// devTokens is set, since the portal has no credential store of its own.
func NewHandler(a *Authorizer, devTokens bool, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{authorizer: a, devTokens: devTokens, logger: logger}
}

// TokenRequest asks for a development token
type TokenRequest struct {
	Subject string   `json:"subject" binding:"required"`
	Roles   []string `json:"roles"`
}

// Ping endpoint
func (h *Handler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "auth service alive!"})
}

// issueToken handles POST /auth/token
func (h *Handler) issueToken(c *gin.Context) {
	if !h.devTokens {
		c.JSON(http.StatusNotFound, gin.H{"error": "token issuing is disabled"})
		return
	}
	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.authorizer.Issue(req.Subject, req.Roles)
	if err != nil {
		h.logger.Error("Failed to issue token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.logger.Info("Issued development token",
		zap.String("subject", req.Subject),
		zap.Strings("roles", req.Roles))
	c.JSON(http.StatusOK, gin.H{"token": token, "token_type": "Bearer"})
}

// me handles GET /auth/me
func (h *Handler) me(c *gin.Context) {
	claims := ClaimsFrom(c)
	c.JSON(http.StatusOK, gin.H{
		"subject":     claims.Subject,
		"roles":       claims.Roles,
		"permissions": claims.Permissions,
		"expires_at":  claims.ExpiresAt,
	})
}
