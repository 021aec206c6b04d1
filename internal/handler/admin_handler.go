package handler

import (
	"net/http"

	"chezben/internal/middleware"
	"chezben/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AdminHandler struct {
	users    *service.UserService
	settings *service.SettingsService
	log      *zap.Logger
}

func NewAdminHandler(users *service.UserService, settings *service.SettingsService, log *zap.Logger) *AdminHandler {
	return &AdminHandler{users: users, settings: settings, log: log}
}

type UpdateUserRequest struct {
	Role     *string `json:"role" binding:"omitempty,oneof=USER MODERATOR ADMIN"`
	IsActive *bool   `json:"is_active"`
}

// Stats handles GET /admin/stats.
func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.users.Stats(c.Request.Context(), middleware.CallerFrom(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListUsers handles GET /admin/users?search=&role=.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	limit, offset := parsePagination(c)
	users, total, err := h.users.List(c.Request.Context(), middleware.CallerFrom(c), c.Query("search"), c.Query("role"), limit, offset)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": users, "total": total})
}

// UpdateUser handles PATCH /admin/users/:id.
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	u, err := h.users.UpdateAccess(c.Request.Context(), middleware.CallerFrom(c), id, req.Role, req.IsActive)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// GetSettings handles GET /admin/settings.
func (h *AdminHandler) GetSettings(c *gin.Context) {
	all, err := h.settings.All(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, all)
}

// UpdateSettings handles PUT /admin/settings with a flat key/value object.
func (h *AdminHandler) UpdateSettings(c *gin.Context) {
	var req map[string]string
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	all, err := h.settings.Update(c.Request.Context(), middleware.CallerFrom(c), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, all)
}
