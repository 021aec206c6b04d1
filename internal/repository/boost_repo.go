package repository

import (
	"time"

	"chezben/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BoostRepository struct {
	db *gorm.DB
}

func NewBoostRepository(db *gorm.DB) *BoostRepository {
	return &BoostRepository{db: db}
}

// Purchase debits debit credits from userID (when positive), stores the boosts and
// marks their listings featured, all in one transaction.
func (r *BoostRepository) Purchase(userID uint, debit int64, boosts []models.Boost) error {
	if len(boosts) == 0 {
		return nil
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		if debit > 0 {
			if err := debitCredits(tx, userID, debit); err != nil {
				return err
			}
		}
		if err := tx.Omit(clause.Associations).Create(&boosts).Error; err != nil {
			return err
		}
		ids := make([]uint, 0, len(boosts))
		for _, b := range boosts {
			if b.IsActive {
				ids = append(ids, b.ListingID)
			}
		}
		if len(ids) == 0 {
			return nil
		}
		return tx.Model(&models.Listing{}).Where("id IN ?", ids).UpdateColumn("is_featured", true).Error
	})
}

// ListByOwner returns boosts on listings owned by userID, newest first.
func (r *BoostRepository) ListByOwner(userID uint, limit, offset int) ([]models.Boost, error) {
	var list []models.Boost
	err := r.db.Joins("JOIN listings ON listings.id = boosts.listing_id").
		Where("listings.user_id = ?", userID).
		Preload("Listing").
		Order("boosts.created_at DESC").Order("boosts.id DESC").
		Limit(limit).Offset(offset).
		Find(&list).Error
	return list, err
}

func (r *BoostRepository) ListAll(limit, offset int) ([]models.Boost, error) {
	var list []models.Boost
	err := r.db.Preload("Listing").Order("created_at DESC").Order("id DESC").
		Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

func (r *BoostRepository) CountActive() (int64, error) {
	var c int64
	err := r.db.Model(&models.Boost{}).Where("is_active = ?", true).Count(&c).Error
	return c, err
}

// ExpireDue deactivates boosts that ended before now and unfeatures listings left
// without an active boost. It returns the number of boosts deactivated.
func (r *BoostRepository) ExpireDue(now time.Time) (int64, error) {
	var expired int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var listingIDs []uint
		if err := tx.Model(&models.Boost{}).
			Where("is_active = ? AND end_date <= ?", true, now).
			Distinct().Pluck("listing_id", &listingIDs).Error; err != nil {
			return err
		}
		if len(listingIDs) == 0 {
			return nil
		}
		res := tx.Model(&models.Boost{}).Where("is_active = ? AND end_date <= ?", true, now).
			UpdateColumn("is_active", false)
		if res.Error != nil {
			return res.Error
		}
		expired = res.RowsAffected
		stillBoosted := tx.Model(&models.Boost{}).Select("listing_id").Where("is_active = ?", true)
		return tx.Model(&models.Listing{}).
			Where("id IN ? AND id NOT IN (?)", listingIDs, stillBoosted).
			UpdateColumn("is_featured", false).Error
	})
	return expired, err
}
