package repository

import (
	"testing"
	"time"

	"chezben/internal/domain"
	"chezben/internal/models"
	"chezben/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFavoriteToggleTwiceRestoresAbsence(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewFavoriteRepository(db)
	u := testutil.CreateUser(t, db, "")
	l := testutil.CreateListing(t, db, u.ID, "Lampe", domain.ListingActive)

	on, err := repo.Toggle(u.ID, l.ID)
	require.NoError(t, err)
	assert.True(t, on)
	fav, _ := repo.IsFavorite(u.ID, l.ID)
	assert.True(t, fav)

	on, err = repo.Toggle(u.ID, l.ID)
	require.NoError(t, err)
	assert.False(t, on)
	fav, _ = repo.IsFavorite(u.ID, l.ID)
	assert.False(t, fav)

	n, err := repo.CountByUserID(u.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRecentListingIDsDistinctMostRecentFirst(t *testing.T) {
	db := testutil.NewDB(t)
	views := NewViewRepository(db)
	u := testutil.CreateUser(t, db, "")
	owner := testutil.CreateUser(t, db, "")
	a := testutil.CreateListing(t, db, owner.ID, "A", domain.ListingActive)
	b := testutil.CreateListing(t, db, owner.ID, "B", domain.ListingActive)
	c := testutil.CreateListing(t, db, owner.ID, "C", domain.ListingActive)

	t0 := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	for i, id := range []uint{a.ID, b.ID, a.ID, c.ID, b.ID} {
		uid := u.ID
		require.NoError(t, views.Create(&models.ViewEvent{UserID: &uid, ListingID: id, CreatedAt: t0.Add(time.Duration(i) * time.Minute)}))
	}

	got, err := views.RecentListingIDs(u.ID, 50)
	require.NoError(t, err)
	assert.Equal(t, []uint{b.ID, c.ID, a.ID}, got)

	got, err = views.RecentListingIDs(u.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint{b.ID, c.ID}, got)

	seen, err := views.HasViewedSince(u.ID, a.ID, t0.Add(2*time.Minute))
	require.NoError(t, err)
	assert.True(t, seen)
	seen, err = views.HasViewedSince(u.ID, a.ID, t0.Add(3*time.Minute))
	require.NoError(t, err)
	assert.False(t, seen)

	n, err := views.CountDistinctListings(u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestUserCreateWithProfileAndCredits(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewUserRepository(db)
	u := &models.User{Email: "awa@example.cm", Role: domain.RoleUser, IsActive: true}
	require.NoError(t, repo.CreateWithProfile(u))
	require.NotNil(t, u.Profile)
	assert.Equal(t, u.ID, u.Profile.UserID)

	dup := &models.User{Email: "awa@example.cm", Role: domain.RoleUser, IsActive: true}
	assert.Error(t, repo.CreateWithProfile(dup))
	var profiles int64
	require.NoError(t, db.Model(&models.Profile{}).Count(&profiles).Error)
	assert.Equal(t, int64(1), profiles, "failed registration leaves no orphan profile")

	bal, err := repo.AddCredits(u.ID, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(100), bal)

	boosts := NewBoostRepository(db)
	l := testutil.CreateListing(t, db, u.ID, "Boosted", domain.ListingActive)
	now := time.Now()
	err = boosts.Purchase(u.ID, 150, []models.Boost{{ListingID: l.ID, DurationDays: 7, Amount: 150, PaymentMethod: domain.PaymentCredits, StartDate: now, EndDate: now.AddDate(0, 0, 7), IsActive: true}})
	assert.ErrorIs(t, err, ErrInsufficientCredits)

	got, err := repo.GetByID(u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), got.Profile.Credits, "balance never goes negative")
}

func TestBoostPurchaseAndExpiry(t *testing.T) {
	db := testutil.NewDB(t)
	users := NewUserRepository(db)
	boosts := NewBoostRepository(db)
	listings := NewListingRepository(db)
	u := testutil.CreateUser(t, db, "")
	l := testutil.CreateListing(t, db, u.ID, "Boosted", domain.ListingActive)
	_, err := users.AddCredits(u.ID, 500)
	require.NoError(t, err)

	start := time.Now()
	b := []models.Boost{{ListingID: l.ID, DurationDays: 3, Amount: 300, PaymentMethod: domain.PaymentCredits, StartDate: start, EndDate: start.AddDate(0, 0, 3), IsActive: true}}
	require.NoError(t, boosts.Purchase(u.ID, 300, b))
	assert.NotZero(t, b[0].ID)

	got, _ := listings.GetByID(l.ID)
	assert.True(t, got.IsFeatured)
	owner, _ := users.GetByID(u.ID)
	assert.Equal(t, int64(200), owner.Profile.Credits)

	n, err := boosts.ExpireDue(start.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = boosts.ExpireDue(start.AddDate(0, 0, 4))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	got, _ = listings.GetByID(l.ID)
	assert.False(t, got.IsFeatured)

	mine, err := boosts.ListByOwner(u.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.False(t, mine[0].IsActive)
}
