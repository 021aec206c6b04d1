package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"chezben/internal/auth"
	"chezben/internal/domain"
	"chezben/internal/models"
	"chezben/internal/repository"
	"chezben/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newAuthService(f *fixture, mail *mockMailer) *AuthService {
	return NewAuthService(testJWT(), f.users, repository.NewResetCodeRepository(f.db), mail, 15*time.Minute, f.log).
		WithClock(f.clock.Now)
}

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := newAuthService(f, &mockMailer{})

	u, pair, err := svc.Register(ctx, RegisterInput{
		Email:    "  Awa.Ndiaye@Example.CM ",
		Password: "motdepasse",
		FullName: "Awa Ndiaye",
		Phone:    "699123456",
		City:     "Douala",
	})
	require.NoError(t, err)
	assert.Equal(t, "awa.ndiaye@example.cm", u.Email)
	assert.Equal(t, domain.RoleUser, u.Role)
	require.NotNil(t, u.Profile)
	assert.Equal(t, "Douala", u.Profile.City)
	assert.NotEmpty(t, pair.Access)

	claims, err := auth.ParseAccessToken(testJWT(), pair.Access)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)

	_, _, err = svc.Register(ctx, RegisterInput{Email: "AWA.NDIAYE@example.cm", Password: "motdepasse"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, _, err = svc.Register(ctx, RegisterInput{Email: "b@example.cm", Password: "motdepasse", Phone: "12345"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, _, err = svc.Register(ctx, RegisterInput{Email: "c@example.cm", Password: "court"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, _, err = svc.Login(ctx, "AWA.ndiaye@example.cm", "motdepasse")
	require.NoError(t, err)
	_, _, err = svc.Login(ctx, "awa.ndiaye@example.cm", "mauvais")
	assert.ErrorIs(t, err, ErrInvalidCreds)

	refreshed, err := svc.Refresh(ctx, pair.Refresh)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.Access)

	require.NoError(t, f.users.UpdateAccess(u.ID, domain.RoleUser, false))
	_, _, err = svc.Login(ctx, "awa.ndiaye@example.cm", "motdepasse")
	assert.ErrorIs(t, err, ErrAccountDisabled)
	_, err = svc.Refresh(ctx, pair.Refresh)
	assert.ErrorIs(t, err, ErrAccountDisabled)
}

func TestPasswordResetFlow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mail := &mockMailer{}
	svc := newAuthService(f, mail)
	_, _, err := svc.Register(ctx, RegisterInput{Email: "jean@example.cm", Password: "ancienmdp"})
	require.NoError(t, err)

	var code string
	mail.On("SendPasswordReset", "jean@example.cm", mock.AnythingOfType("string"), 15).
		Run(func(args mock.Arguments) { code = args.String(1) }).
		Return(nil)

	require.NoError(t, svc.RequestPasswordReset(ctx, "Jean@example.cm"))
	require.Len(t, code, 6)

	var stored models.PasswordResetCode
	require.NoError(t, f.db.Last(&stored).Error)
	assert.NotEqual(t, code, stored.CodeHash, "code is hashed at rest")

	assert.ErrorIs(t, svc.ConfirmPasswordReset(ctx, "jean@example.cm", "000000x", "nouveaumdp"), domain.ErrInvalidInput)
	require.NoError(t, svc.ConfirmPasswordReset(ctx, "jean@example.cm", code, "nouveaumdp"))
	_, _, err = svc.Login(ctx, "jean@example.cm", "nouveaumdp")
	require.NoError(t, err)
	assert.ErrorIs(t, svc.ConfirmPasswordReset(ctx, "jean@example.cm", code, "encoreunautre"), domain.ErrInvalidInput, "codes are single use")

	require.NoError(t, svc.RequestPasswordReset(ctx, "jean@example.cm"))
	f.clock.Advance(16 * time.Minute)
	assert.ErrorIs(t, svc.ConfirmPasswordReset(ctx, "jean@example.cm", code, "encoreunautre"), domain.ErrInvalidInput, "expired")

	require.NoError(t, svc.RequestPasswordReset(ctx, "inconnu@example.cm"))
	mail.AssertNumberOfCalls(t, "SendPasswordReset", 2)
}

func TestPasswordResetDeliveryFailureHidesCode(t *testing.T) {
	f := newFixture(t)
	core, logs := observer.New(zap.DebugLevel)
	f.log = zap.New(core)
	mail := &mockMailer{}
	svc := newAuthService(f, mail)
	_, _, err := svc.Register(context.Background(), RegisterInput{Email: "paul@example.cm", Password: "motdepasse"})
	require.NoError(t, err)

	var code string
	mail.On("SendPasswordReset", "paul@example.cm", mock.AnythingOfType("string"), 15).
		Run(func(args mock.Arguments) { code = args.String(1) }).
		Return(errors.New("smtp down"))

	require.NoError(t, svc.RequestPasswordReset(context.Background(), "paul@example.cm"))
	require.NotEmpty(t, code)
	warned := logs.FilterMessage("password reset email not delivered").All()
	require.Len(t, warned, 1)
	for _, entry := range logs.All() {
		assert.NotContains(t, entry.Message, code)
		for _, v := range entry.ContextMap() {
			assert.NotContains(t, fmtValue(v), code)
		}
	}
}

func fmtValue(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	if err, ok := v.(error); ok {
		return err.Error()
	}
	return ""
}

func TestLoginWithGoogle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := newAuthService(f, &mockMailer{})
	existing := testutil.CreateUser(t, f.db, "")

	_, _, _, err := svc.LoginWithGoogle(ctx, GoogleIdentity{Subject: "g-0", Email: existing.Email})
	assert.ErrorIs(t, err, domain.ErrForbidden, "unverified email cannot claim an existing account")
	var reloaded models.User
	require.NoError(t, f.db.First(&reloaded, existing.ID).Error)
	assert.Nil(t, reloaded.GoogleID)

	u, _, created, err := svc.LoginWithGoogle(ctx, GoogleIdentity{Subject: "g-1", Email: existing.Email, EmailVerified: true})
	require.NoError(t, err)
	assert.False(t, created, "linked to the account with the same email")
	assert.Equal(t, existing.ID, u.ID)

	u2, _, created, err := svc.LoginWithGoogle(ctx, GoogleIdentity{Subject: "g-1", Email: "changed@example.cm", EmailVerified: true})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, existing.ID, u2.ID, "subject wins over email")

	fresh, _, created, err := svc.LoginWithGoogle(ctx, GoogleIdentity{Subject: "g-2", Email: "Nouveau@Example.cm", EmailVerified: true, Name: "Nouveau", Picture: "https://lh3/p.jpg"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "nouveau@example.cm", fresh.Email)
	assert.Equal(t, domain.RoleUser, fresh.Role)
	require.NotNil(t, fresh.Profile)
	assert.Equal(t, "https://lh3/p.jpg", fresh.Profile.AvatarURL)
}
