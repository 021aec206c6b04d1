package handler

import (
	"net/http"
	"strconv"

	"chezben/internal/middleware"
	"chezben/internal/repository"
	"chezben/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ListingHandler struct {
	svc *service.ListingService
	log *zap.Logger
}

func NewListingHandler(svc *service.ListingService, log *zap.Logger) *ListingHandler {
	return &ListingHandler{svc: svc, log: log}
}

type CreateListingRequest struct {
	Title        string                 `json:"title" binding:"required,max=200"`
	Description  string                 `json:"description"`
	Price        int64                  `json:"price" binding:"gte=0"`
	Currency     string                 `json:"currency" binding:"omitempty,len=3"`
	City         string                 `json:"city" binding:"max=100"`
	Region       string                 `json:"region" binding:"max=100"`
	Condition    string                 `json:"condition"`
	Status       string                 `json:"status"`
	CategoryID   *uint                  `json:"category_id"`
	IsNegotiable bool                   `json:"is_negotiable"`
	Attributes   map[string]interface{} `json:"attributes"`
}

type UpdateListingRequest struct {
	Title        *string                `json:"title" binding:"omitempty,max=200"`
	Description  *string                `json:"description"`
	Price        *int64                 `json:"price" binding:"omitempty,gte=0"`
	Currency     *string                `json:"currency" binding:"omitempty,len=3"`
	City         *string                `json:"city" binding:"omitempty,max=100"`
	Region       *string                `json:"region" binding:"omitempty,max=100"`
	Condition    *string                `json:"condition"`
	Status       *string                `json:"status"`
	CategoryID   *uint                  `json:"category_id"`
	BuyerID      *uint                  `json:"buyer_id"`
	IsNegotiable *bool                  `json:"is_negotiable"`
	Attributes   map[string]interface{} `json:"attributes"`
}

func queryInt64(c *gin.Context, key string) (*int64, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + key})
		return nil, false
	}
	return &v, true
}

func queryUint(c *gin.Context, key string) (uint, bool) {
	raw := c.Query(key)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + key})
		return 0, false
	}
	return uint(v), true
}

// List handles GET /listings with the public filter set.
func (h *ListingHandler) List(c *gin.Context) {
	f := repository.ListingFilter{
		CategorySlug: c.Query("category_slug"),
		City:         c.Query("city"),
		Condition:    c.Query("condition"),
		Status:       c.Query("status"),
		Search:       c.Query("search"),
		Ordering:     c.Query("ordering"),
		MineOnly:     c.Query("my_listings") == "true",
	}
	var ok bool
	if f.CategoryID, ok = queryUint(c, "category"); !ok {
		return
	}
	if f.OwnerID, ok = queryUint(c, "user"); !ok {
		return
	}
	if f.PriceMin, ok = queryInt64(c, "price_min"); !ok {
		return
	}
	if f.PriceMax, ok = queryInt64(c, "price_max"); !ok {
		return
	}
	f.Limit, f.Offset = parsePagination(c)

	list, total, err := h.svc.List(c.Request.Context(), middleware.CallerFrom(c), f)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	limit, offset := service.ClampPage(f.Limit, f.Offset)
	c.JSON(http.StatusOK, gin.H{"results": list, "count": total, "limit": limit, "offset": offset})
}

func (h *ListingHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	l, err := h.svc.Get(c.Request.Context(), middleware.CallerFrom(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

// DetailBySlug handles GET /listings/detail_by_slug?slug=.
func (h *ListingHandler) DetailBySlug(c *gin.Context) {
	l, err := h.svc.GetBySlug(c.Request.Context(), middleware.CallerFrom(c), c.Query("slug"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

func (h *ListingHandler) Create(c *gin.Context) {
	var req CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	l, err := h.svc.Create(c.Request.Context(), middleware.CallerFrom(c), service.CreateListingInput{
		Title:        req.Title,
		Description:  req.Description,
		Price:        req.Price,
		Currency:     req.Currency,
		City:         req.City,
		Region:       req.Region,
		Condition:    req.Condition,
		Status:       req.Status,
		CategoryID:   req.CategoryID,
		IsNegotiable: req.IsNegotiable,
		Attributes:   req.Attributes,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, l)
}

func (h *ListingHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req UpdateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	l, err := h.svc.Update(c.Request.Context(), middleware.CallerFrom(c), id, service.UpdateListingInput{
		Title:        req.Title,
		Description:  req.Description,
		Price:        req.Price,
		Currency:     req.Currency,
		City:         req.City,
		Region:       req.Region,
		Condition:    req.Condition,
		Status:       req.Status,
		CategoryID:   req.CategoryID,
		BuyerID:      req.BuyerID,
		IsNegotiable: req.IsNegotiable,
		Attributes:   req.Attributes,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

func (h *ListingHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), middleware.CallerFrom(c), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ListingHandler) Approve(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Approve(c.Request.Context(), middleware.CallerFrom(c), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "approved"})
}

func (h *ListingHandler) Reject(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Reject(c.Request.Context(), middleware.CallerFrom(c), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "rejected"})
}

// AddPhoto handles multipart POST /listings/:id/photos with a "file" field.
func (h *ListingHandler) AddPhoto(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file required"})
		return
	}
	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
		return
	}
	defer f.Close()

	p, err := h.svc.AddPhoto(c.Request.Context(), middleware.CallerFrom(c), id, f)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *ListingHandler) DeletePhoto(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	photoID, ok := parseID(c, "photo_id")
	if !ok {
		return
	}
	if err := h.svc.DeletePhoto(c.Request.Context(), middleware.CallerFrom(c), id, photoID); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ToggleFavorite handles POST /listings/:id/favorite.
func (h *ListingHandler) ToggleFavorite(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	favorited, err := h.svc.ToggleFavorite(c.Request.Context(), middleware.CallerFrom(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorited": favorited})
}

func (h *ListingHandler) Favorites(c *gin.Context) {
	limit, offset := parsePagination(c)
	list, err := h.svc.Favorites(c.Request.Context(), middleware.CallerFrom(c), limit, offset)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorites": list})
}

func (h *ListingHandler) History(c *gin.Context) {
	list, err := h.svc.History(c.Request.Context(), middleware.CallerFrom(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": list})
}
