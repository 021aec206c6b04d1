package repository

import (
	"errors"
	"strings"

	"chezben/internal/domain"
	"chezben/internal/models"

	"gorm.io/gorm"
)

// ListingFilter carries the optional list filters accepted by the listings endpoint.
type ListingFilter struct {
	CategoryID   uint
	CategorySlug string
	City         string
	Condition    string
	Status       string
	OwnerID      uint
	PriceMin     *int64
	PriceMax     *int64
	Search       string
	Ordering     string
	MineOnly     bool
	Limit        int
	Offset       int
}

var listingOrderings = map[string]string{
	"price":        "listings.price ASC",
	"-price":       "listings.price DESC",
	"created_at":   "listings.created_at ASC",
	"-created_at":  "listings.created_at DESC",
	"views_count":  "listings.views_count ASC",
	"-views_count": "listings.views_count DESC",
}

type ListingRepository struct {
	db *gorm.DB
}

func NewListingRepository(db *gorm.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

func (r *ListingRepository) Create(l *models.Listing) error {
	return r.db.Create(l).Error
}

func (r *ListingRepository) GetByID(id uint) (*models.Listing, error) {
	var l models.Listing
	err := r.db.First(&l, id).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *ListingRepository) detailQuery() *gorm.DB {
	return r.db.Model(&models.Listing{}).
		Preload("User").
		Preload("Category").
		Preload("Photos", func(db *gorm.DB) *gorm.DB { return db.Order("is_main DESC, id ASC") })
}

// FindVisible loads a listing by id only if caller may see it.
func (r *ListingRepository) FindVisible(caller domain.Caller, id uint) (*models.Listing, error) {
	var l models.Listing
	err := r.detailQuery().Scopes(VisibleTo(caller, false)).Where("listings.id = ?", id).First(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// FindVisibleBySlug loads a listing by slug only if caller may see it.
func (r *ListingRepository) FindVisibleBySlug(caller domain.Caller, slug string) (*models.Listing, error) {
	var l models.Listing
	err := r.detailQuery().Scopes(VisibleTo(caller, false)).Where("listings.slug = ?", slug).First(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// List returns the caller-visible page of listings matching f and the total match count.
func (r *ListingRepository) List(caller domain.Caller, f ListingFilter) ([]models.Listing, int64, error) {
	q := r.db.Model(&models.Listing{}).Scopes(VisibleTo(caller, f.MineOnly))
	if f.CategoryID != 0 {
		q = q.Where("listings.category_id = ?", f.CategoryID)
	}
	if f.CategorySlug != "" {
		q = q.Joins("JOIN categories ON categories.id = listings.category_id").
			Where("categories.slug = ?", f.CategorySlug)
	}
	if f.City != "" {
		q = q.Where("LOWER(listings.city) = LOWER(?)", f.City)
	}
	if f.Condition != "" {
		q = q.Where("listings.item_condition = ?", f.Condition)
	}
	if f.Status != "" {
		q = q.Where("listings.status = ?", f.Status)
	}
	if f.OwnerID != 0 {
		q = q.Where("listings.user_id = ?", f.OwnerID)
	}
	if f.PriceMin != nil {
		q = q.Where("listings.price >= ?", *f.PriceMin)
	}
	if f.PriceMax != nil {
		q = q.Where("listings.price <= ?", *f.PriceMax)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("(LOWER(listings.title) LIKE ? OR LOWER(listings.description) LIKE ? OR LOWER(listings.city) LIKE ?)", like, like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if order, ok := listingOrderings[f.Ordering]; ok {
		q = q.Order(order)
	} else {
		q = q.Order("listings.is_featured DESC").Order("listings.created_at DESC")
	}
	q = q.Order("listings.id DESC")

	var list []models.Listing
	err := q.Preload("Category").
		Preload("Photos", func(db *gorm.DB) *gorm.DB { return db.Order("is_main DESC, id ASC") }).
		Limit(f.Limit).Offset(f.Offset).
		Find(&list).Error
	return list, total, err
}

// ListVisibleByIDs returns visible listings keyed by id, for history and favorites.
func (r *ListingRepository) ListVisibleByIDs(caller domain.Caller, ids []uint) (map[uint]models.Listing, error) {
	out := make(map[uint]models.Listing, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var list []models.Listing
	err := r.db.Model(&models.Listing{}).Scopes(VisibleTo(caller, false)).
		Preload("Photos", func(db *gorm.DB) *gorm.DB { return db.Order("is_main DESC, id ASC") }).
		Where("listings.id IN ?", ids).Find(&list).Error
	if err != nil {
		return nil, err
	}
	for _, l := range list {
		out[l.ID] = l
	}
	return out, nil
}

func (r *ListingRepository) Update(id uint, fields map[string]interface{}) error {
	return r.db.Model(&models.Listing{}).Where("id = ?", id).Updates(fields).Error
}

func (r *ListingRepository) SetStatus(id uint, status string) error {
	return r.db.Model(&models.Listing{}).Where("id = ?", id).Update("status", status).Error
}

// Delete removes the listing; photos, favorites and view events cascade.
func (r *ListingRepository) Delete(id uint) error {
	return r.db.Delete(&models.Listing{}, id).Error
}

// IncrementViews bumps the view counter at the storage layer without touching updated_at.
func (r *ListingRepository) IncrementViews(id uint) error {
	return r.db.Model(&models.Listing{}).Where("id = ?", id).
		UpdateColumn("views_count", gorm.Expr("views_count + ?", 1)).Error
}

func (r *ListingRepository) SlugExists(slug string) (bool, error) {
	var n int64
	err := r.db.Model(&models.Listing{}).Where("slug = ?", slug).Count(&n).Error
	return n > 0, err
}

func (r *ListingRepository) AddPhoto(p *models.Photo) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Photo{}).Where("listing_id = ?", p.ListingID).Count(&n).Error; err != nil {
			return err
		}
		p.IsMain = n == 0
		return tx.Create(p).Error
	})
}

func (r *ListingRepository) GetPhoto(listingID, photoID uint) (*models.Photo, error) {
	var p models.Photo
	err := r.db.Where("id = ? AND listing_id = ?", photoID, listingID).First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// DeletePhoto removes a photo and promotes the oldest remaining one when the main photo goes.
func (r *ListingRepository) DeletePhoto(p *models.Photo) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&models.Photo{}, p.ID).Error; err != nil {
			return err
		}
		if !p.IsMain {
			return nil
		}
		var next models.Photo
		err := tx.Where("listing_id = ?", p.ListingID).Order("id ASC").First(&next).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return tx.Model(&next).Update("is_main", true).Error
	})
}

func (r *ListingRepository) CountByOwner(userID uint) (int64, error) {
	var n int64
	err := r.db.Model(&models.Listing{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

func (r *ListingRepository) CountActiveByOwner(userID uint) (int64, error) {
	var n int64
	err := r.db.Model(&models.Listing{}).Where("user_id = ? AND status = ?", userID, domain.ListingActive).Count(&n).Error
	return n, err
}

func (r *ListingRepository) CountByBuyer(userID uint) (int64, error) {
	var n int64
	err := r.db.Model(&models.Listing{}).Where("buyer_id = ?", userID).Count(&n).Error
	return n, err
}

func (r *ListingRepository) TotalViewsForOwner(userID uint) (int64, error) {
	var total int64
	err := r.db.Model(&models.Listing{}).Where("user_id = ?", userID).
		Select("COALESCE(SUM(views_count), 0)").Scan(&total).Error
	return total, err
}

// OwnedIDs filters ids down to listings owned by userID, preserving no particular order.
func (r *ListingRepository) OwnedIDs(userID uint, ids []uint) ([]uint, error) {
	var owned []uint
	if len(ids) == 0 {
		return owned, nil
	}
	err := r.db.Model(&models.Listing{}).Where("user_id = ? AND id IN ?", userID, ids).Pluck("id", &owned).Error
	return owned, err
}
