package service

import (
	"context"
	"fmt"
	"time"

	"chezben/internal/cache"
	"chezben/internal/domain"
	"chezben/internal/metrics"
	"chezben/internal/models"
	"chezben/internal/repository"

	"go.uber.org/zap"
)

// ViewCounter decides whether a listing view increments its counter. Signed-in
// viewers are deduplicated through the view_events ledger, anonymous ones through a
// short-lived cooldown marker keyed by listing and address. Owners never count.
type ViewCounter struct {
	views    *repository.ViewRepository
	listings *repository.ListingRepository
	cooldown cache.Cooldown
	window   time.Duration
	now      func() time.Time
	metrics  *metrics.Metrics
	log      *zap.Logger
}

func NewViewCounter(views *repository.ViewRepository, listings *repository.ListingRepository, cooldown cache.Cooldown, window time.Duration, m *metrics.Metrics, log *zap.Logger) *ViewCounter {
	return &ViewCounter{
		views:    views,
		listings: listings,
		cooldown: cooldown,
		window:   window,
		now:      time.Now,
		metrics:  m,
		log:      log,
	}
}

// WithClock replaces the time source; the ledger lookup window is computed from it.
func (v *ViewCounter) WithClock(now func() time.Time) *ViewCounter {
	v.now = now
	return v
}

// Record counts the view when due and reports whether the counter moved. Failures
// are logged and reported as not counted; they never reach the caller.
func (v *ViewCounter) Record(ctx context.Context, listing *models.Listing, viewer domain.Caller) bool {
	counted, err := v.record(ctx, listing, viewer)
	if err != nil {
		v.metrics.ViewErrors.Inc()
		v.log.Warn("recording listing view failed",
			zap.Uint("listing_id", listing.ID),
			zap.Uint("user_id", viewer.UserID),
			zap.Error(err))
		return false
	}
	return counted
}

func (v *ViewCounter) record(ctx context.Context, listing *models.Listing, viewer domain.Caller) (bool, error) {
	if viewer.IsAuthenticated() {
		return v.recordUser(listing, viewer)
	}
	return v.recordAnonymous(ctx, listing, viewer.IP)
}

func (v *ViewCounter) recordUser(listing *models.Listing, viewer domain.Caller) (bool, error) {
	if viewer.UserID == listing.UserID {
		v.metrics.ViewsSuppressed.WithLabelValues("owner").Inc()
		return false, nil
	}
	now := v.now()
	seen, err := v.views.HasViewedSince(viewer.UserID, listing.ID, now.Add(-v.window))
	if err != nil {
		return false, err
	}
	if seen {
		v.metrics.ViewsSuppressed.WithLabelValues("cooldown").Inc()
		return false, nil
	}
	if err := v.listings.IncrementViews(listing.ID); err != nil {
		return false, err
	}
	uid := viewer.UserID
	if err := v.views.Create(&models.ViewEvent{
		UserID:    &uid,
		ListingID: listing.ID,
		IPAddress: viewer.IP,
		CreatedAt: now,
	}); err != nil {
		return true, err
	}
	v.metrics.ViewsCounted.WithLabelValues("user").Inc()
	return true, nil
}

func (v *ViewCounter) recordAnonymous(ctx context.Context, listing *models.Listing, ip string) (bool, error) {
	first, err := v.cooldown.Acquire(ctx, fmt.Sprintf("view_%d_%s", listing.ID, ip), v.window)
	if err != nil {
		return false, err
	}
	if !first {
		v.metrics.ViewsSuppressed.WithLabelValues("cooldown").Inc()
		return false, nil
	}
	if err := v.listings.IncrementViews(listing.ID); err != nil {
		return false, err
	}
	v.metrics.ViewsCounted.WithLabelValues("anonymous").Inc()
	return true, nil
}
