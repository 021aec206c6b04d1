package repository

import (
	"errors"

	"chezben/internal/models"

	"gorm.io/gorm"
)

type FavoriteRepository struct {
	db *gorm.DB
}

func NewFavoriteRepository(db *gorm.DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

// Toggle removes the (user, listing) favorite when present and creates it otherwise.
// It reports whether the pair is favorited afterwards.
func (r *FavoriteRepository) Toggle(userID, listingID uint) (bool, error) {
	var favorited bool
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND listing_id = ?", userID, listingID).Delete(&models.Favorite{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			favorited = false
			return nil
		}
		if err := tx.Create(&models.Favorite{UserID: userID, ListingID: listingID}).Error; err != nil {
			return err
		}
		favorited = true
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// a concurrent toggle created it first
		return true, nil
	}
	return favorited, err
}

func (r *FavoriteRepository) IsFavorite(userID, listingID uint) (bool, error) {
	var c int64
	err := r.db.Model(&models.Favorite{}).Where("user_id = ? AND listing_id = ?", userID, listingID).Count(&c).Error
	return c > 0, err
}

func (r *FavoriteRepository) ListByUserID(userID uint, limit, offset int) ([]models.Favorite, error) {
	var list []models.Favorite
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Order("id DESC").
		Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

func (r *FavoriteRepository) CountByUserID(userID uint) (int64, error) {
	var c int64
	err := r.db.Model(&models.Favorite{}).Where("user_id = ?", userID).Count(&c).Error
	return c, err
}
