package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"chezben/internal/domain"
	"chezben/internal/models"
	"chezben/internal/repository"
	"chezben/internal/testutil"
	"chezben/pkg/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBoostService(f *fixture) *BoostService {
	return NewBoostService(
		repository.NewBoostRepository(f.db),
		f.listings,
		f.users,
		repository.NewSettingRepository(f.db),
		&payment.StubProvider{Now: f.clock.Now},
		nil,
		f.log,
	).WithClock(f.clock.Now)
}

func setCredits(t *testing.T, f *fixture, userID uint, credits int64) {
	t.Helper()
	require.NoError(t, f.db.Model(&models.Profile{}).Where("user_id = ?", userID).Update("credits", credits).Error)
}

func creditsOf(t *testing.T, f *fixture, userID uint) int64 {
	t.Helper()
	u, err := f.users.GetByID(userID)
	require.NoError(t, err)
	return u.Profile.Credits
}

func TestPurchaseBoostsWithCredits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := newBoostService(f)
	seller := testutil.CreateUser(t, f.db, "")
	stranger := testutil.CreateUser(t, f.db, "")
	a := testutil.CreateListing(t, f.db, seller.ID, "Frigo", domain.ListingActive)
	b := testutil.CreateListing(t, f.db, seller.ID, "Cuisinière", domain.ListingActive)
	foreign := testutil.CreateListing(t, f.db, stranger.ID, "Moto", domain.ListingActive)
	setCredits(t, f, seller.ID, 100)

	boosts, err := svc.Purchase(ctx, testutil.Caller(seller), BoostRequest{
		ListingIDs:    []uint{a.ID, b.ID, foreign.ID, a.ID},
		DurationDays:  7,
		Amount:        90,
		PaymentMethod: domain.PaymentCredits,
	})
	require.NoError(t, err)
	require.Len(t, boosts, 2, "foreign listing skipped, duplicate ignored")
	for _, bo := range boosts {
		assert.EqualValues(t, 30, bo.Amount)
		assert.Equal(t, fmt.Sprintf("CREDIT_%d_%d", seller.ID, bo.ListingID), bo.TransactionID)
		assert.Equal(t, f.clock.Now().AddDate(0, 0, 7), bo.EndDate)
		assert.True(t, bo.IsActive)
	}
	assert.EqualValues(t, 10, creditsOf(t, f, seller.ID))

	featured, err := f.listings.GetByID(a.ID)
	require.NoError(t, err)
	assert.True(t, featured.IsFeatured)
	untouched, err := f.listings.GetByID(foreign.ID)
	require.NoError(t, err)
	assert.False(t, untouched.IsFeatured)

	_, err = svc.Purchase(ctx, testutil.Caller(seller), BoostRequest{ListingIDs: []uint{a.ID}, Amount: 50, PaymentMethod: domain.PaymentCredits})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.EqualValues(t, 10, creditsOf(t, f, seller.ID), "failed purchase keeps the balance")
}

func TestPurchaseBoostValidation(t *testing.T) {
	f := newFixture(t)
	svc := newBoostService(f)
	seller := testutil.CreateUser(t, f.db, "")
	other := testutil.CreateUser(t, f.db, "")
	mine := testutil.CreateListing(t, f.db, seller.ID, "Table", domain.ListingActive)
	theirs := testutil.CreateListing(t, f.db, other.ID, "Chaise", domain.ListingActive)

	cases := []struct {
		name string
		req  BoostRequest
	}{
		{"no listings", BoostRequest{}},
		{"too long", BoostRequest{ListingIDs: []uint{mine.ID}, DurationDays: 91}},
		{"negative amount", BoostRequest{ListingIDs: []uint{mine.ID}, Amount: -5}},
		{"unknown method", BoostRequest{ListingIDs: []uint{mine.ID}, PaymentMethod: "CASH"}},
		{"nothing owned", BoostRequest{ListingIDs: []uint{theirs.ID}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Purchase(context.Background(), testutil.Caller(seller), tc.req)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestPurchaseBoostWithMobileMoney(t *testing.T) {
	f := newFixture(t)
	svc := newBoostService(f)
	seller := testutil.CreateUser(t, f.db, "")
	l := testutil.CreateListing(t, f.db, seller.ID, "Télé", domain.ListingActive)

	boosts, err := svc.Purchase(context.Background(), testutil.Caller(seller), BoostRequest{ListingIDs: []uint{l.ID}, Amount: 1500, PaymentMethod: domain.PaymentMobileMoney})
	require.NoError(t, err)
	require.Len(t, boosts, 1)
	assert.Contains(t, boosts[0].TransactionID, "stub_momo_")
	assert.Equal(t, DefaultBoostDays, boosts[0].DurationDays)
	assert.Zero(t, creditsOf(t, f, seller.ID))
}

func TestBuyCreditsUsesConfiguredPrice(t *testing.T) {
	f := newFixture(t)
	svc := newBoostService(f)
	user := testutil.CreateUser(t, f.db, "")
	require.NoError(t, repository.NewSettingRepository(f.db).Set(SettingCreditPrice, "150"))

	res, err := svc.BuyCredits(context.Background(), testutil.Caller(user), 20, "")
	require.NoError(t, err)
	assert.EqualValues(t, 3000, res.Price)
	assert.EqualValues(t, 20, res.NewBalance)

	_, err = svc.BuyCredits(context.Background(), testutil.Caller(user), 0, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = svc.BuyCredits(context.Background(), testutil.Caller(user), 5, domain.PaymentCredits)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestExpireDueUnfeatures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := newBoostService(f)
	seller := testutil.CreateUser(t, f.db, "")
	l := testutil.CreateListing(t, f.db, seller.ID, "Vélo", domain.ListingActive)

	_, err := svc.Purchase(ctx, testutil.Caller(seller), BoostRequest{ListingIDs: []uint{l.ID}, DurationDays: 1})
	require.NoError(t, err)

	n, err := svc.ExpireDue(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	f.clock.Advance(25 * time.Hour)
	n, err = svc.ExpireDue(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	stored, err := f.listings.GetByID(l.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsFeatured)
}
