package repository

import (
	"time"

	"chezben/internal/models"

	"gorm.io/gorm"
)

type ViewRepository struct {
	db *gorm.DB
}

func NewViewRepository(db *gorm.DB) *ViewRepository {
	return &ViewRepository{db: db}
}

// HasViewedSince reports whether userID has a ledger row for listingID at or after since.
func (r *ViewRepository) HasViewedSince(userID, listingID uint, since time.Time) (bool, error) {
	var c int64
	err := r.db.Model(&models.ViewEvent{}).
		Where("user_id = ? AND listing_id = ? AND created_at >= ?", userID, listingID, since).
		Count(&c).Error
	return c > 0, err
}

func (r *ViewRepository) Create(ev *models.ViewEvent) error {
	return r.db.Create(ev).Error
}

// RecentListingIDs returns up to limit distinct listing ids the user viewed, most recent first.
func (r *ViewRepository) RecentListingIDs(userID uint, limit int) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.ViewEvent{}).
		Where("user_id = ?", userID).
		Group("listing_id").
		Order("MAX(created_at) DESC").
		Limit(limit).
		Pluck("listing_id", &ids).Error
	return ids, err
}

func (r *ViewRepository) CountDistinctListings(userID uint) (int64, error) {
	var c int64
	err := r.db.Model(&models.ViewEvent{}).Where("user_id = ?", userID).
		Distinct("listing_id").Count(&c).Error
	return c, err
}
