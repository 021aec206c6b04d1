package handler

import (
	"net/http"

	"chezben/internal/middleware"
	"chezben/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type BoostHandler struct {
	svc *service.BoostService
	log *zap.Logger
}

func NewBoostHandler(svc *service.BoostService, log *zap.Logger) *BoostHandler {
	return &BoostHandler{svc: svc, log: log}
}

type BoostRequest struct {
	ListingIDs    []uint `json:"listing_ids" binding:"required,min=1"`
	DurationDays  int    `json:"duration_days" binding:"omitempty,min=1,max=90"`
	Amount        int64  `json:"amount" binding:"gte=0"`
	PaymentMethod string `json:"payment_method" binding:"omitempty,oneof=CREDITS OM MOMO"`
}

type BuyCreditsRequest struct {
	Amount        int64  `json:"amount" binding:"required,gt=0"`
	PaymentMethod string `json:"payment_method" binding:"omitempty,oneof=OM MOMO"`
}

// Create handles POST /boosts. Listings the caller does not own are skipped.
func (h *BoostHandler) Create(c *gin.Context) {
	var req BoostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	boosts, err := h.svc.Purchase(c.Request.Context(), middleware.CallerFrom(c), service.BoostRequest{
		ListingIDs:    req.ListingIDs,
		DurationDays:  req.DurationDays,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"boosts": boosts})
}

func (h *BoostHandler) List(c *gin.Context) {
	limit, offset := parsePagination(c)
	list, err := h.svc.List(c.Request.Context(), middleware.CallerFrom(c), limit, offset)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"boosts": list})
}

// ListAll handles GET /admin/boosts for staff.
func (h *BoostHandler) ListAll(c *gin.Context) {
	limit, offset := parsePagination(c)
	list, err := h.svc.ListAll(c.Request.Context(), middleware.CallerFrom(c), limit, offset)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"boosts": list})
}

func (h *BoostHandler) BuyCredits(c *gin.Context) {
	var req BuyCreditsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := h.svc.BuyCredits(c.Request.Context(), middleware.CallerFrom(c), req.Amount, req.PaymentMethod)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
