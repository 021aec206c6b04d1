package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"chezben/internal/domain"
	"chezben/internal/events"
	"chezben/internal/models"
	"chezben/internal/repository"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	slugAttempts    = 5
)

type CreateListingInput struct {
	Title        string
	Description  string
	Price        int64
	Currency     string
	City         string
	Region       string
	Condition    string
	Status       string
	CategoryID   *uint
	IsNegotiable bool
	Attributes   map[string]interface{}
}

// UpdateListingInput is a partial update; nil fields are left untouched.
type UpdateListingInput struct {
	Title        *string
	Description  *string
	Price        *int64
	Currency     *string
	City         *string
	Region       *string
	Condition    *string
	Status       *string
	CategoryID   *uint
	BuyerID      *uint
	IsNegotiable *bool
	Attributes   map[string]interface{}
}

type ListingService struct {
	listings   *repository.ListingRepository
	categories *repository.CategoryRepository
	users      *repository.UserRepository
	favorites  *repository.FavoriteRepository
	views      *repository.ViewRepository
	counter    *ViewCounter
	notifier   Notifier
	images     ImageStore
	events     events.Publisher
	limits     AttributeLimits
	folder     string
	history    int
	log        *zap.Logger
}

type ListingDeps struct {
	Listings    *repository.ListingRepository
	Categories  *repository.CategoryRepository
	Users       *repository.UserRepository
	Favorites   *repository.FavoriteRepository
	Views       *repository.ViewRepository
	Counter     *ViewCounter
	Notifier    Notifier
	Images      ImageStore
	Events      events.Publisher
	Limits      AttributeLimits
	PhotoFolder string
	HistorySize int
	Log         *zap.Logger
}

func NewListingService(d ListingDeps) *ListingService {
	if d.HistorySize <= 0 {
		d.HistorySize = 50
	}
	if d.Events == nil {
		d.Events = events.Noop{}
	}
	return &ListingService{
		listings:   d.Listings,
		categories: d.Categories,
		users:      d.Users,
		favorites:  d.Favorites,
		views:      d.Views,
		counter:    d.Counter,
		notifier:   d.Notifier,
		images:     d.Images,
		events:     d.Events,
		limits:     d.Limits,
		folder:     d.PhotoFolder,
		history:    d.HistorySize,
		log:        d.Log,
	}
}

// ClampPage normalizes limit/offset query values.
func ClampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// MakeSlug turns a title into a URL slug with a random suffix.
func MakeSlug(title string) string {
	base := slug.Make(title)
	if len(base) > 200 {
		base = strings.Trim(base[:200], "-")
	}
	if base == "" {
		base = "annonce"
	}
	return base + "-" + uuid.NewString()[:8]
}

func (s *ListingService) uniqueSlug(title string) (string, error) {
	for i := 0; i < slugAttempts; i++ {
		candidate := MakeSlug(title)
		taken, err := s.listings.SlugExists(candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", errors.New("could not allocate a unique slug")
}

func (s *ListingService) checkCategory(id *uint) error {
	if id == nil {
		return nil
	}
	if _, err := s.categories.GetByID(*id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return invalid("unknown category %d", *id)
		}
		return err
	}
	return nil
}

func (s *ListingService) Create(ctx context.Context, caller domain.Caller, in CreateListingInput) (*models.Listing, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, invalid("title is required")
	}
	if in.Price < 0 {
		return nil, invalid("price must not be negative")
	}
	if in.Condition == "" {
		in.Condition = domain.ConditionUsed
	}
	if !domain.IsCondition(in.Condition) {
		return nil, invalid("unknown condition %q", in.Condition)
	}
	if in.Status == "" {
		in.Status = domain.ListingActive
	}
	if in.Status != domain.ListingActive && in.Status != domain.ListingDraft {
		return nil, invalid("a new listing is either DRAFT or ACTIVE")
	}
	if in.Currency == "" {
		in.Currency = domain.DefaultCurrency
	}
	if err := s.checkCategory(in.CategoryID); err != nil {
		return nil, err
	}
	if err := s.limits.ValidateAttributes(in.Attributes); err != nil {
		return nil, err
	}
	sl, err := s.uniqueSlug(title)
	if err != nil {
		return nil, err
	}
	l := &models.Listing{
		UserID:       caller.UserID,
		CategoryID:   in.CategoryID,
		Title:        title,
		Slug:         sl,
		Description:  in.Description,
		Price:        in.Price,
		Currency:     strings.ToUpper(in.Currency),
		City:         strings.TrimSpace(in.City),
		Region:       strings.TrimSpace(in.Region),
		Condition:    in.Condition,
		Status:       in.Status,
		IsNegotiable: in.IsNegotiable,
		Attributes:   datatypes.JSONMap(in.Attributes),
	}
	if err := s.listings.Create(l); err != nil {
		return nil, err
	}
	return l, nil
}

// editable loads a listing the caller may modify: visible to them and owned unless staff.
func (s *ListingService) editable(caller domain.Caller, id uint) (*models.Listing, error) {
	l, err := s.listings.FindVisible(caller, id)
	if err != nil {
		return nil, notFoundAs(err, "listing")
	}
	if l.UserID != caller.UserID && !caller.IsStaff() {
		return nil, forbidden("only the owner can modify this listing")
	}
	return l, nil
}

func (s *ListingService) Update(ctx context.Context, caller domain.Caller, id uint, in UpdateListingInput) (*models.Listing, error) {
	l, err := s.editable(caller, id)
	if err != nil {
		return nil, err
	}
	fields := map[string]interface{}{}
	if in.Title != nil {
		t := strings.TrimSpace(*in.Title)
		if t == "" {
			return nil, invalid("title is required")
		}
		fields["title"] = t
	}
	if in.Description != nil {
		fields["description"] = *in.Description
	}
	if in.Price != nil {
		if *in.Price < 0 {
			return nil, invalid("price must not be negative")
		}
		fields["price"] = *in.Price
	}
	if in.Currency != nil && *in.Currency != "" {
		fields["currency"] = strings.ToUpper(*in.Currency)
	}
	if in.City != nil {
		fields["city"] = strings.TrimSpace(*in.City)
	}
	if in.Region != nil {
		fields["region"] = strings.TrimSpace(*in.Region)
	}
	if in.Condition != nil {
		if !domain.IsCondition(*in.Condition) {
			return nil, invalid("unknown condition %q", *in.Condition)
		}
		fields["item_condition"] = *in.Condition
	}
	if in.IsNegotiable != nil {
		fields["is_negotiable"] = *in.IsNegotiable
	}
	if in.CategoryID != nil {
		if err := s.checkCategory(in.CategoryID); err != nil {
			return nil, err
		}
		fields["category_id"] = *in.CategoryID
	}
	if in.Attributes != nil {
		if err := s.limits.ValidateAttributes(in.Attributes); err != nil {
			return nil, err
		}
		fields["attributes"] = datatypes.JSONMap(in.Attributes)
	}

	status := l.Status
	if in.Status != nil && *in.Status != l.Status {
		if !domain.IsListingStatus(*in.Status) {
			return nil, invalid("unknown status %q", *in.Status)
		}
		if !caller.IsStaff() && *in.Status != domain.ListingDraft && *in.Status != domain.ListingSold {
			return nil, forbidden("only moderators can publish or archive a listing")
		}
		status = *in.Status
		fields["status"] = status
	}
	if in.BuyerID != nil {
		if status != domain.ListingSold {
			return nil, invalid("a buyer can only be set on a sold listing")
		}
		if *in.BuyerID == l.UserID {
			return nil, invalid("the owner cannot be the buyer")
		}
		if _, err := s.users.GetByID(*in.BuyerID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, invalid("unknown buyer %d", *in.BuyerID)
			}
			return nil, err
		}
		fields["buyer_id"] = *in.BuyerID
	}

	if len(fields) > 0 {
		if err := s.listings.Update(l.ID, fields); err != nil {
			return nil, err
		}
	}
	updated, err := s.listings.FindVisible(caller, l.ID)
	if err != nil {
		return nil, notFoundAs(err, "listing")
	}
	return updated, nil
}

func (s *ListingService) Delete(ctx context.Context, caller domain.Caller, id uint) error {
	l, err := s.editable(caller, id)
	if err != nil {
		return err
	}
	if err := s.listings.Delete(l.ID); err != nil {
		return err
	}
	for _, p := range l.Photos {
		if err := s.images.DeleteByURL(ctx, p.URL); err != nil {
			s.log.Warn("removing listing photo from storage failed", zap.Uint("photo_id", p.ID), zap.Error(err))
		}
	}
	return nil
}

// Get returns a visible listing and records the view.
func (s *ListingService) Get(ctx context.Context, caller domain.Caller, id uint) (*models.Listing, error) {
	l, err := s.listings.FindVisible(caller, id)
	if err != nil {
		return nil, notFoundAs(err, "listing")
	}
	if s.counter.Record(ctx, l, caller) {
		l.ViewsCount++
	}
	return l, nil
}

func (s *ListingService) GetBySlug(ctx context.Context, caller domain.Caller, sl string) (*models.Listing, error) {
	sl = strings.TrimSpace(sl)
	if sl == "" {
		return nil, invalid("slug is required")
	}
	l, err := s.listings.FindVisibleBySlug(caller, sl)
	if err != nil {
		return nil, notFoundAs(err, "listing")
	}
	if s.counter.Record(ctx, l, caller) {
		l.ViewsCount++
	}
	return l, nil
}

func (s *ListingService) List(ctx context.Context, caller domain.Caller, f repository.ListingFilter) ([]models.Listing, int64, error) {
	if f.Condition != "" && !domain.IsCondition(f.Condition) {
		return nil, 0, invalid("unknown condition %q", f.Condition)
	}
	if f.Status != "" && !domain.IsListingStatus(f.Status) {
		return nil, 0, invalid("unknown status %q", f.Status)
	}
	if f.PriceMin != nil && f.PriceMax != nil && *f.PriceMin > *f.PriceMax {
		return nil, 0, invalid("price_min is greater than price_max")
	}
	f.Limit, f.Offset = ClampPage(f.Limit, f.Offset)
	return s.listings.List(caller, f)
}

// ModerationEvent is published on every approve or reject decision.
type ModerationEvent struct {
	ListingID   uint   `json:"listing_id"`
	OwnerID     uint   `json:"owner_id"`
	Status      string `json:"status"`
	ModeratorID uint   `json:"moderator_id"`
}

func (s *ListingService) Approve(ctx context.Context, caller domain.Caller, id uint) error {
	return s.moderate(ctx, caller, id, domain.ListingActive)
}

func (s *ListingService) Reject(ctx context.Context, caller domain.Caller, id uint) error {
	return s.moderate(ctx, caller, id, domain.ListingArchived)
}

func (s *ListingService) moderate(ctx context.Context, caller domain.Caller, id uint, status string) error {
	if !caller.IsStaff() {
		return forbidden("moderator role required")
	}
	l, err := s.listings.GetByID(id)
	if err != nil {
		return notFoundAs(err, "listing")
	}
	if err := s.listings.SetStatus(l.ID, status); err != nil {
		return err
	}

	var title, msg, link string
	if status == domain.ListingActive {
		title = "Annonce approuvée"
		msg = fmt.Sprintf("Votre annonce '%s' a été validée et est maintenant en ligne !", l.Title)
		link = "/annonces/" + l.Slug
	} else {
		title = "Annonce refusée"
		msg = fmt.Sprintf("Votre annonce '%s' n'a pas été validée. Contactez le support pour plus d'infos.", l.Title)
		link = "/dashboard/annonces"
	}
	if err := s.notifier.Notify(ctx, l.UserID, title, msg, link); err != nil {
		s.log.Warn("moderation notification failed", zap.Uint("listing_id", l.ID), zap.Error(err))
	}
	ev := ModerationEvent{ListingID: l.ID, OwnerID: l.UserID, Status: status, ModeratorID: caller.UserID}
	if err := s.events.Publish(ctx, events.SubjectListingModerated, ev); err != nil {
		s.log.Warn("publishing moderation event failed", zap.Uint("listing_id", l.ID), zap.Error(err))
	}
	return nil
}

func (s *ListingService) AddPhoto(ctx context.Context, caller domain.Caller, listingID uint, file io.Reader) (*models.Photo, error) {
	l, err := s.editable(caller, listingID)
	if err != nil {
		return nil, err
	}
	folder := strings.Trim(s.folder+"/listings", "/")
	url, thumb, err := s.images.UploadImage(ctx, file, folder, fmt.Sprintf("%d_%s", l.ID, uuid.NewString()))
	if err != nil {
		return nil, fmt.Errorf("upload photo: %w", err)
	}
	p := &models.Photo{ListingID: l.ID, URL: url, ThumbnailURL: thumb}
	if err := s.listings.AddPhoto(p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ListingService) DeletePhoto(ctx context.Context, caller domain.Caller, listingID, photoID uint) error {
	l, err := s.editable(caller, listingID)
	if err != nil {
		return err
	}
	p, err := s.listings.GetPhoto(l.ID, photoID)
	if err != nil {
		return notFoundAs(err, "photo")
	}
	if err := s.listings.DeletePhoto(p); err != nil {
		return err
	}
	if err := s.images.DeleteByURL(ctx, p.URL); err != nil {
		s.log.Warn("removing photo from storage failed", zap.Uint("photo_id", p.ID), zap.Error(err))
	}
	return nil
}

// ToggleFavorite flips the favorite state for a visible listing and returns the new state.
func (s *ListingService) ToggleFavorite(ctx context.Context, caller domain.Caller, listingID uint) (bool, error) {
	if _, err := s.listings.FindVisible(caller, listingID); err != nil {
		return false, notFoundAs(err, "listing")
	}
	return s.favorites.Toggle(caller.UserID, listingID)
}

// Favorites lists the caller's favorites; listings that became invisible are dropped.
func (s *ListingService) Favorites(ctx context.Context, caller domain.Caller, limit, offset int) ([]models.Favorite, error) {
	limit, offset = ClampPage(limit, offset)
	favs, err := s.favorites.ListByUserID(caller.UserID, limit, offset)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(favs))
	for _, f := range favs {
		ids = append(ids, f.ListingID)
	}
	visible, err := s.listings.ListVisibleByIDs(caller, ids)
	if err != nil {
		return nil, err
	}
	out := make([]models.Favorite, 0, len(favs))
	for _, f := range favs {
		l, ok := visible[f.ListingID]
		if !ok {
			continue
		}
		f.Listing = &l
		out = append(out, f)
	}
	return out, nil
}

// History returns the listings the caller viewed most recently, newest first.
func (s *ListingService) History(ctx context.Context, caller domain.Caller) ([]models.Listing, error) {
	ids, err := s.views.RecentListingIDs(caller.UserID, s.history)
	if err != nil {
		return nil, err
	}
	visible, err := s.listings.ListVisibleByIDs(caller, ids)
	if err != nil {
		return nil, err
	}
	out := make([]models.Listing, 0, len(ids))
	for _, id := range ids {
		if l, ok := visible[id]; ok {
			out = append(out, l)
		}
	}
	return out, nil
}
