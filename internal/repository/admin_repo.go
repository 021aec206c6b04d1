package repository

import (
	"chezben/internal/domain"
	"chezben/internal/models"

	"gorm.io/gorm"
)

type PlatformStats struct {
	TotalUsers         int64            `json:"total_users"`
	ActiveUsers        int64            `json:"active_users"`
	TotalListings      int64            `json:"total_listings"`
	ListingsByStatus   map[string]int64 `json:"listings_by_status"`
	TotalConversations int64            `json:"total_conversations"`
	TotalMessages      int64            `json:"total_messages"`
	ActiveBoosts       int64            `json:"active_boosts"`
	OutstandingCredits int64            `json:"outstanding_credits"`
	TotalViews         int64            `json:"total_views"`
}

type UserDashboard struct {
	ListingsCount  int64 `json:"listings_count"`
	FavoritesCount int64 `json:"favorites_count"`
	ViewsReceived  int64 `json:"views_received"`
	UnreadMessages int64 `json:"unread_messages"`
	PurchasesCount int64 `json:"purchases_count"`
	HistoryCount   int64 `json:"history_count"`
	Credits        int64 `json:"credits"`
}

type AdminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

func (r *AdminRepository) GetPlatformStats() (*PlatformStats, error) {
	s := PlatformStats{ListingsByStatus: map[string]int64{}}
	if err := r.db.Model(&models.User{}).Count(&s.TotalUsers).Error; err != nil {
		return nil, err
	}
	r.db.Model(&models.User{}).Where("is_active = ?", true).Count(&s.ActiveUsers)
	r.db.Model(&models.Listing{}).Count(&s.TotalListings)

	var byStatus []struct {
		Status string
		Total  int64
	}
	r.db.Model(&models.Listing{}).Select("status, COUNT(*) AS total").Group("status").Scan(&byStatus)
	for _, st := range []string{domain.ListingDraft, domain.ListingActive, domain.ListingSold, domain.ListingArchived} {
		s.ListingsByStatus[st] = 0
	}
	for _, row := range byStatus {
		s.ListingsByStatus[row.Status] = row.Total
	}

	r.db.Model(&models.Conversation{}).Count(&s.TotalConversations)
	r.db.Model(&models.Message{}).Count(&s.TotalMessages)
	r.db.Model(&models.Boost{}).Where("is_active = ?", true).Count(&s.ActiveBoosts)
	r.db.Model(&models.Profile{}).Select("COALESCE(SUM(credits), 0)").Scan(&s.OutstandingCredits)
	r.db.Model(&models.Listing{}).Select("COALESCE(SUM(views_count), 0)").Scan(&s.TotalViews)
	return &s, nil
}

// GetUserDashboard aggregates the seller/buyer counters shown on a user's dashboard.
func (r *AdminRepository) GetUserDashboard(userID uint) (*UserDashboard, error) {
	var d UserDashboard
	if err := r.db.Model(&models.Listing{}).Where("user_id = ?", userID).Count(&d.ListingsCount).Error; err != nil {
		return nil, err
	}
	r.db.Model(&models.Favorite{}).Where("user_id = ?", userID).Count(&d.FavoritesCount)
	r.db.Model(&models.Listing{}).Where("user_id = ?", userID).
		Select("COALESCE(SUM(views_count), 0)").Scan(&d.ViewsReceived)
	r.db.Model(&models.Message{}).
		Joins("JOIN conversation_participants cp ON cp.conversation_id = messages.conversation_id").
		Where("cp.user_id = ? AND messages.sender_id <> ? AND messages.is_read = ?", userID, userID, false).
		Count(&d.UnreadMessages)
	r.db.Model(&models.Listing{}).Where("buyer_id = ?", userID).Count(&d.PurchasesCount)
	r.db.Model(&models.ViewEvent{}).Where("user_id = ?", userID).Distinct("listing_id").Count(&d.HistoryCount)
	r.db.Model(&models.Profile{}).Where("user_id = ?", userID).Pluck("credits", &d.Credits)
	return &d, nil
}
