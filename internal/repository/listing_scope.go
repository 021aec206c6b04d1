package repository

import (
	"chezben/internal/domain"

	"gorm.io/gorm"
)

// VisibleTo narrows a listings query to what caller may read. Staff see every
// listing, anonymous callers only ACTIVE ones, and other users ACTIVE listings plus
// their own. mineOnly further restricts to the caller's listings and yields an empty
// result for anonymous callers.
func VisibleTo(caller domain.Caller, mineOnly bool) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if mineOnly {
			if !caller.IsAuthenticated() {
				return db.Where("1 = 0")
			}
			db = db.Where("listings.user_id = ?", caller.UserID)
		}
		switch {
		case caller.IsStaff():
			return db
		case caller.IsAuthenticated():
			return db.Where("(listings.status = ? OR listings.user_id = ?)", domain.ListingActive, caller.UserID)
		default:
			return db.Where("listings.status = ?", domain.ListingActive)
		}
	}
}
