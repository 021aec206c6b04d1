package repository

import (
	"chezben/internal/models"

	"gorm.io/gorm"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(n *models.Notification) error {
	return r.db.Create(n).Error
}

// CreateBatch inserts notifications in chunks, used by admin broadcasts.
func (r *NotificationRepository) CreateBatch(list []models.Notification) error {
	if len(list) == 0 {
		return nil
	}
	return r.db.CreateInBatches(&list, 200).Error
}

func (r *NotificationRepository) ListByUserID(userID uint, unreadOnly bool, limit, offset int) ([]models.Notification, error) {
	var list []models.Notification
	q := r.db.Where("user_id = ?", userID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}
	err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

// MarkRead flags one of the user's notifications as read. It returns
// gorm.ErrRecordNotFound when the notification does not belong to the user.
func (r *NotificationRepository) MarkRead(id, userID uint) error {
	var n models.Notification
	if err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&n).Error; err != nil {
		return err
	}
	return r.db.Model(&n).UpdateColumn("is_read", true).Error
}

func (r *NotificationRepository) MarkAllRead(userID uint) (int64, error) {
	res := r.db.Model(&models.Notification{}).Where("user_id = ? AND is_read = ?", userID, false).
		UpdateColumn("is_read", true)
	return res.RowsAffected, res.Error
}

func (r *NotificationRepository) CountUnread(userID uint) (int64, error) {
	var c int64
	err := r.db.Model(&models.Notification{}).Where("user_id = ? AND is_read = ?", userID, false).Count(&c).Error
	return c, err
}
