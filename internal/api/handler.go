package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"csd-portal/ops-portal/ops-portal-backend/internal/auth"
	"csd-portal/ops-portal/ops-portal-backend/internal/dashboard"
	"csd-portal/ops-portal/ops-portal-backend/internal/export"
	"csd-portal/ops-portal/ops-portal-backend/internal/live"
	"csd-portal/ops-portal/ops-portal-backend/internal/pages"
	"csd-portal/ops-portal/ops-portal-backend/internal/session"
)

// Handler handles HTTP requests for dashboard pages
type Handler struct {
	registry      *pages.Registry
	sessions      *session.Manager
	hub           *live.Hub
	authorizer    *auth.Authorizer
	exportOptions export.Options
	logger        *zap.Logger
}

// NewHandler creates a new page handler. Closing or reaping a session
// disconnects its live subscribers.
func NewHandler(
	registry *pages.Registry,
	sessions *session.Manager,
	hub *live.Hub,
	authorizer *auth.Authorizer,
	exportOptions export.Options,
	logger *zap.Logger,
) *Handler {
	sessions.OnClose(func(s *session.Session) {
		hub.CloseSession(s.ID.String())
	})
	return &Handler{
		registry:      registry,
		sessions:      sessions,
		hub:           hub,
		authorizer:    authorizer,
		exportOptions: exportOptions,
		logger:        logger,
	}
}

// RegisterRoutes registers page and session routes
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	pageRoutes := router.Group("/pages")
	{
		pageRoutes.GET("", h.listPages)
		pageRoutes.POST("/:page/sessions", h.openSession)
	}

	sessions := router.Group("/sessions/:id")
	{
		sessions.GET("", h.getView)
		sessions.DELETE("", h.closeSession)
		sessions.PUT("/search", h.setSearch)
		sessions.PUT("/filters/:key", h.setFilter)
		sessions.DELETE("/filters/:key", h.clearFilter)
		sessions.DELETE("/filters", h.clearAllFilters)
		sessions.PUT("/view", h.setViewMode)
		sessions.POST("/click", h.click)
		sessions.POST("/reset", h.reset)
		sessions.GET("/diagnostics", h.getDiagnostics)
		sessions.GET("/export", h.exportTable)
		sessions.GET("/live", h.live)
	}
}

// =====================================================
// Requests and Responses
// =====================================================

// SearchRequest sets the free-text search term
type SearchRequest struct {
	Term string `json:"term"`
}

// FilterRequest selects a filter value
type FilterRequest struct {
	Value any `json:"value" binding:"required"`
}

// ViewModeRequest switches the view mode
type ViewModeRequest struct {
	Mode dashboard.ViewMode `json:"mode" binding:"required"`
}

// ClickRequest clicks a metric card or chart point
type ClickRequest struct {
	Kind  dashboard.ElementKind `json:"kind" binding:"required"`
	Index *int                  `json:"index" binding:"required"`
}

// SessionResponse describes a session and its current frame
type SessionResponse struct {
	SessionID uuid.UUID      `json:"session_id"`
	PageID    string         `json:"page_id"`
	Title     string         `json:"title"`
	View      dashboard.View `json:"view"`
}

// =====================================================
// Page Endpoints
// =====================================================

// listPages handles GET /api/v1/pages
func (h *Handler) listPages(c *gin.Context) {
	claims := auth.ClaimsFrom(c)
	items := h.registry.Navigation(func(permission string) bool {
		return h.authorizer.Can(claims, permission)
	})
	c.JSON(http.StatusOK, gin.H{"pages": items})
}

// openSession handles POST /api/v1/pages/:page/sessions
func (h *Handler) openSession(c *gin.Context) {
	pageID := c.Param("page")
	def, err := h.registry.Lookup(pageID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if !h.authorizer.Can(auth.ClaimsFrom(c), def.Permission) {
		c.JSON(http.StatusForbidden, gin.H{"error": auth.ErrForbidden.Error()})
		return
	}

	s, err := h.sessions.Open(pageID, auth.Subject(c))
	if err != nil {
		h.logger.Error("Failed to open session", zap.Error(err), zap.String("page", pageID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, SessionResponse{
		SessionID: s.ID,
		PageID:    s.PageID,
		Title:     def.Title,
		View:      s.Page.Render(),
	})
}

// =====================================================
// Session Endpoints
// =====================================================

// getView handles GET /api/v1/sessions/:id
func (h *Handler) getView(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	h.respond(c, s)
}

// closeSession handles DELETE /api/v1/sessions/:id
func (h *Handler) closeSession(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := h.sessions.Close(s.ID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Session closed"})
}

// setSearch handles PUT /api/v1/sessions/:id/search
func (h *Handler) setSearch(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.Page.SetSearchTerm(req.Term)
	h.respond(c, s)
}

// setFilter handles PUT /api/v1/sessions/:id/filters/:key
func (h *Handler) setFilter(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req FilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s.Page.SetFilter(c.Param("key"), req.Value)
	h.respond(c, s)
}

// clearFilter handles DELETE /api/v1/sessions/:id/filters/:key
func (h *Handler) clearFilter(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	s.Page.ClearFilter(c.Param("key"))
	h.respond(c, s)
}

// clearAllFilters handles DELETE /api/v1/sessions/:id/filters
func (h *Handler) clearAllFilters(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	s.Page.ClearAllFilters()
	h.respond(c, s)
}

// setViewMode handles PUT /api/v1/sessions/:id/view
func (h *Handler) setViewMode(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req ViewModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.Page.SetViewMode(req.Mode); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.respond(c, s)
}

// click handles POST /api/v1/sessions/:id/click
func (h *Handler) click(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req ClickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.Page.Click(req.Kind, *req.Index); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, dashboard.ErrNoSuchElement) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	h.respond(c, s)
}

// reset handles POST /api/v1/sessions/:id/reset
func (h *Handler) reset(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	s.Page.Reset()
	h.respond(c, s)
}

// getDiagnostics handles GET /api/v1/sessions/:id/diagnostics
func (h *Handler) getDiagnostics(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"diagnostics": s.Page.Diagnostics()})
}

// exportTable handles GET /api/v1/sessions/:id/export
func (h *Handler) exportTable(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	format, err := export.ParseFormat(c.DefaultQuery("format", string(export.FormatCSV)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	def, err := h.registry.Lookup(s.PageID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, export.FromView(def.Title, s.Page.Render()), h.exportOptions); err != nil {
		h.logger.Error("Failed to export table",
			zap.Error(err),
			zap.String("session_id", s.ID.String()),
			zap.String("format", string(format)))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	filename := fmt.Sprintf("%s.%s", s.PageID, format.Extension())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

// live handles GET /api/v1/sessions/:id/live
func (h *Handler) live(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if _, err := h.hub.Serve(c.Writer, c.Request, s.ID.String(), s.Subject, s.Page); err != nil {
		h.logger.Warn("Failed to open live connection",
			zap.Error(err),
			zap.String("session_id", s.ID.String()))
	}
}

// =====================================================
// Helper Methods
// =====================================================

// session resolves the :id parameter to a session owned by the caller. A
// session of another subject is reported as missing.
func (h *Handler) session(c *gin.Context) (*session.Session, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session ID"})
		return nil, false
	}
	s, err := h.sessions.Get(id)
	if err != nil || s.Subject != auth.Subject(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": session.ErrSessionNotFound.Error()})
		return nil, false
	}
	return s, true
}

func (h *Handler) respond(c *gin.Context, s *session.Session) {
	title := s.PageID
	if def, err := h.registry.Lookup(s.PageID); err == nil {
		title = def.Title
	}
	c.JSON(http.StatusOK, SessionResponse{
		SessionID: s.ID,
		PageID:    s.PageID,
		Title:     title,
		View:      s.Page.Render(),
	})
}
