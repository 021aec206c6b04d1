// Package testutil provides an in-memory database and fixtures for package tests.
package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"chezben/internal/database"
	"chezben/internal/domain"
	"chezben/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var seq atomic.Uint64

// NewDB opens a private in-memory SQLite database migrated with the production models.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:?_pragma=foreign_keys(1)"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db))
	return db
}

// CreateUser inserts an active user with an empty profile.
func CreateUser(t testing.TB, db *gorm.DB, role string) *models.User {
	t.Helper()
	n := seq.Add(1)
	if role == "" {
		role = domain.RoleUser
	}
	u := &models.User{
		Email:    fmt.Sprintf("user%d@example.cm", n),
		FullName: fmt.Sprintf("User %d", n),
		Role:     role,
		IsActive: true,
		Profile:  &models.Profile{},
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreateListing inserts a listing owned by ownerID with the given status.
func CreateListing(t testing.TB, db *gorm.DB, ownerID uint, title, status string) *models.Listing {
	t.Helper()
	n := seq.Add(1)
	l := &models.Listing{
		UserID:    ownerID,
		Title:     title,
		Slug:      fmt.Sprintf("listing-%d", n),
		Price:     1000,
		Currency:  domain.DefaultCurrency,
		Condition: domain.ConditionUsed,
		Status:    status,
		City:      "Douala",
	}
	require.NoError(t, db.Create(l).Error)
	return l
}

// Caller builds the request identity for u.
func Caller(u *models.User) domain.Caller {
	return domain.Caller{UserID: u.ID, Role: u.Role, IP: "127.0.0.1"}
}
