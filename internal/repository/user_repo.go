package repository

import (
	"errors"

	"chezben/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrInsufficientCredits = errors.New("insufficient credits")

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateWithProfile inserts the user and its profile atomically. u.Profile may carry
// initial profile fields; it is created empty otherwise.
func (r *UserRepository) CreateWithProfile(u *models.User) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		profile := u.Profile
		if profile == nil {
			profile = &models.Profile{}
		}
		if err := tx.Omit(clause.Associations).Create(u).Error; err != nil {
			return err
		}
		profile.UserID = u.ID
		if err := tx.Create(profile).Error; err != nil {
			return err
		}
		u.Profile = profile
		return nil
	})
}

func (r *UserRepository) GetByID(id uint) (*models.User, error) {
	var u models.User
	err := r.db.Preload("Profile").First(&u, id).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	var u models.User
	err := r.db.Preload("Profile").Where("email = ?", email).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByGoogleID(googleID string) (*models.User, error) {
	var u models.User
	err := r.db.Preload("Profile").Where("google_id = ?", googleID).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) Update(u *models.User) error {
	return r.db.Omit(clause.Associations).Save(u).Error
}

func (r *UserRepository) UpdateProfile(p *models.Profile) error {
	return r.db.Save(p).Error
}

// AddCredits increments the profile balance in place.
func (r *UserRepository) AddCredits(userID uint, amount int64) (int64, error) {
	var balance int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Profile{}).Where("user_id = ?", userID).
			UpdateColumn("credits", gorm.Expr("credits + ?", amount))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&models.Profile{}).Where("user_id = ?", userID).Pluck("credits", &balance).Error
	})
	return balance, err
}

// debitCredits subtracts amount only when the balance covers it.
func debitCredits(tx *gorm.DB, userID uint, amount int64) error {
	res := tx.Model(&models.Profile{}).
		Where("user_id = ? AND credits >= ?", userID, amount).
		UpdateColumn("credits", gorm.Expr("credits - ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientCredits
	}
	return nil
}

// List returns users with optional search and role filter.
func (r *UserRepository) List(search, role string, limit, offset int) ([]models.User, int64, error) {
	q := r.db.Model(&models.User{})
	if search != "" {
		like := "%" + search + "%"
		q = q.Where("(LOWER(email) LIKE LOWER(?) OR LOWER(full_name) LIKE LOWER(?))", like, like)
	}
	if role != "" {
		q = q.Where("role = ?", role)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var users []models.User
	err := q.Preload("Profile").Order("created_at DESC").Limit(limit).Offset(offset).Find(&users).Error
	return users, total, err
}

func (r *UserRepository) ActiveIDs() ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.User{}).Where("is_active = ?", true).Pluck("id", &ids).Error
	return ids, err
}

// UpdateAccess changes role and active flag from the admin console.
func (r *UserRepository) UpdateAccess(id uint, role string, active bool) error {
	res := r.db.Model(&models.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"role":      role,
		"is_active": active,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
