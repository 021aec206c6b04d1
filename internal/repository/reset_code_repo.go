package repository

import (
	"time"

	"chezben/internal/models"

	"gorm.io/gorm"
)

type ResetCodeRepository struct {
	db *gorm.DB
}

func NewResetCodeRepository(db *gorm.DB) *ResetCodeRepository {
	return &ResetCodeRepository{db: db}
}

// Replace invalidates the user's outstanding codes and stores code in one transaction.
func (r *ResetCodeRepository) Replace(code *models.PasswordResetCode, now time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.PasswordResetCode{}).
			Where("user_id = ? AND used_at IS NULL", code.UserID).
			UpdateColumn("used_at", now).Error; err != nil {
			return err
		}
		return tx.Omit("User").Create(code).Error
	})
}

// Active returns unused, unexpired codes for the user, newest first.
func (r *ResetCodeRepository) Active(userID uint, now time.Time) ([]models.PasswordResetCode, error) {
	var list []models.PasswordResetCode
	err := r.db.Where("user_id = ? AND used_at IS NULL AND expires_at > ?", userID, now).
		Order("created_at DESC").Find(&list).Error
	return list, err
}

// Consume marks the code used and stores the new password hash atomically.
func (r *ResetCodeRepository) Consume(codeID, userID uint, passwordHash string, now time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.PasswordResetCode{}).
			Where("id = ? AND used_at IS NULL", codeID).
			UpdateColumn("used_at", now)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&models.User{}).Where("id = ?", userID).
			UpdateColumn("password_hash", passwordHash).Error
	})
}
