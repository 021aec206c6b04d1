package handler

import (
	"net/http"

	"chezben/internal/middleware"
	"chezben/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ConversationHandler struct {
	svc *service.ConversationService
	log *zap.Logger
}

func NewConversationHandler(svc *service.ConversationService, log *zap.Logger) *ConversationHandler {
	return &ConversationHandler{svc: svc, log: log}
}

type StartConversationRequest struct {
	ListingID uint   `json:"listing_id" binding:"required"`
	Content   string `json:"content"`
}

type SendMessageRequest struct {
	Content string `json:"content"`
}

// Start opens (or reuses) the caller's conversation about a listing and
// optionally posts a first message in it.
func (h *ConversationHandler) Start(c *gin.Context) {
	var req StartConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ctx := c.Request.Context()
	caller := middleware.CallerFrom(c)
	conv, created, err := h.svc.Start(ctx, caller, req.ListingID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	resp := gin.H{"conversation": conv, "created": created}
	if req.Content != "" {
		msg, err := h.svc.PostMessage(ctx, caller, conv.ID, req.Content)
		if err != nil {
			respondError(c, h.log, err)
			return
		}
		resp["message"] = msg
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, resp)
}

func (h *ConversationHandler) SendMessage(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	msg, err := h.svc.PostMessage(c.Request.Context(), middleware.CallerFrom(c), id, req.Content)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *ConversationHandler) Messages(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	limit, offset := parsePagination(c)
	list, err := h.svc.Messages(c.Request.Context(), middleware.CallerFrom(c), id, limit, offset)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": list})
}

func (h *ConversationHandler) MarkRead(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	n, err := h.svc.MarkRead(c.Request.Context(), middleware.CallerFrom(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked": n})
}

func (h *ConversationHandler) UnreadCount(c *gin.Context) {
	n, err := h.svc.UnreadCount(c.Request.Context(), middleware.CallerFrom(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread_count": n})
}

func (h *ConversationHandler) List(c *gin.Context) {
	limit, offset := parsePagination(c)
	list, err := h.svc.List(c.Request.Context(), middleware.CallerFrom(c), limit, offset)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": list})
}
