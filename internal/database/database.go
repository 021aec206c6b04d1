package database

import (
	"errors"
	"strings"

	"chezben/config"
	"chezben/internal/domain"
	"chezben/internal/models"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Error),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return db, nil
}

// AutoMigrate runs Gorm auto-migration for all models.
func AutoMigrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&models.Conversation{}, "Participants", &models.ConversationParticipant{}); err != nil {
		return err
	}
	return db.AutoMigrate(
		&models.User{},
		&models.Profile{},
		&models.PasswordResetCode{},
		&models.Category{},
		&models.Listing{},
		&models.Photo{},
		&models.Favorite{},
		&models.ViewEvent{},
		&models.Conversation{},
		&models.Message{},
		&models.Notification{},
		&models.Boost{},
		&models.PlatformSetting{},
	)
}

// SeedAdmin creates the bootstrap admin account when both credentials are configured
// and no user with that email exists yet.
func SeedAdmin(db *gorm.DB, cfg *config.MarketplaceConfig, log *zap.Logger) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}
	email := strings.ToLower(strings.TrimSpace(cfg.AdminEmail))
	var existing models.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     "Administrateur",
		Role:         domain.RoleAdmin,
		IsActive:     true,
		Profile:      &models.Profile{},
	}
	if err := db.Create(admin).Error; err != nil {
		return err
	}
	log.Info("admin account seeded", zap.String("email", email))
	return nil
}
