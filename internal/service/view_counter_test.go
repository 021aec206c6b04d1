package service

import (
	"context"
	"testing"
	"time"

	"chezben/internal/domain"
	"chezben/internal/models"
	"chezben/internal/testutil"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func viewsOf(t *testing.T, f *fixture, id uint) int64 {
	t.Helper()
	l, err := f.listings.GetByID(id)
	require.NoError(t, err)
	return l.ViewsCount
}

func TestAuthenticatedViewCooldown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, f.db, "")
	viewer := testutil.CreateUser(t, f.db, "")
	l := testutil.CreateListing(t, f.db, owner.ID, "Toyota Corolla", domain.ListingActive)
	b := testutil.Caller(viewer)

	assert.True(t, f.counter.Record(ctx, l, b), "t=0 counts")
	assert.EqualValues(t, 1, viewsOf(t, f, l.ID))

	f.clock.Advance(2 * time.Minute)
	assert.False(t, f.counter.Record(ctx, l, b), "t=2m is inside the window")
	assert.EqualValues(t, 1, viewsOf(t, f, l.ID))

	f.clock.Advance(4 * time.Minute)
	assert.True(t, f.counter.Record(ctx, l, b), "t=6m counts again")
	assert.EqualValues(t, 2, viewsOf(t, f, l.ID))

	var events int64
	require.NoError(t, f.db.Model(&models.ViewEvent{}).Where("user_id = ? AND listing_id = ?", viewer.ID, l.ID).Count(&events).Error)
	assert.EqualValues(t, 2, events, "one ledger row per counted view")
	assert.Equal(t, 2.0, promtestutil.ToFloat64(f.metrics.ViewsCounted.WithLabelValues("user")))
}

func TestAnonymousViewCooldown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := testutil.CreateUser(t, f.db, "")
	l := testutil.CreateListing(t, f.db, owner.ID, "Samsung Galaxy", domain.ListingActive)
	anon := domain.Anonymous("1.2.3.4")

	assert.True(t, f.counter.Record(ctx, l, anon))
	f.clock.Advance(time.Minute)
	assert.False(t, f.counter.Record(ctx, l, anon))
	assert.True(t, f.counter.Record(ctx, l, domain.Anonymous("5.6.7.8")), "different address has its own marker")
	f.clock.Advance(5 * time.Minute)
	assert.True(t, f.counter.Record(ctx, l, anon))
	assert.EqualValues(t, 3, viewsOf(t, f, l.ID))

	var events int64
	require.NoError(t, f.db.Model(&models.ViewEvent{}).Count(&events).Error)
	assert.Zero(t, events, "anonymous views leave no ledger rows")
}

func TestOwnerViewsNeverCount(t *testing.T) {
	f := newFixture(t)
	owner := testutil.CreateUser(t, f.db, "")
	l := testutil.CreateListing(t, f.db, owner.ID, "Canapé", domain.ListingDraft)

	for i := 0; i < 3; i++ {
		assert.False(t, f.counter.Record(context.Background(), l, testutil.Caller(owner)))
		f.clock.Advance(10 * time.Minute)
	}
	assert.Zero(t, viewsOf(t, f, l.ID))
	assert.Equal(t, 3.0, promtestutil.ToFloat64(f.metrics.ViewsSuppressed.WithLabelValues("owner")))
}

func TestViewFailuresAreSwallowed(t *testing.T) {
	f := newFixture(t)
	owner := testutil.CreateUser(t, f.db, "")
	viewer := testutil.CreateUser(t, f.db, "")
	l := testutil.CreateListing(t, f.db, owner.ID, "Vélo", domain.ListingActive)

	sqlDB, err := f.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	assert.NotPanics(t, func() {
		assert.False(t, f.counter.Record(context.Background(), l, testutil.Caller(viewer)))
	})
	assert.Equal(t, 1.0, promtestutil.ToFloat64(f.metrics.ViewErrors))
}
