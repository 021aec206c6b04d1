package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"chezben/config"
	"chezben/internal/auth"
	"chezben/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var jwtCfg = &config.JWTConfig{
	AccessSecret:  "access",
	RefreshSecret: "refresh",
	AccessExpiry:  time.Hour,
	RefreshExpiry: time.Hour,
	Issuer:        "test",
}

func TestAllowedMatrix(t *testing.T) {
	anon := domain.Anonymous("1.2.3.4")
	user := domain.Caller{UserID: 1, Role: domain.RoleUser}
	mod := domain.Caller{UserID: 2, Role: domain.RoleModerator}
	admin := domain.Caller{UserID: 3, Role: domain.RoleAdmin}

	cases := []struct {
		action Action
		want   [4]bool
	}{
		{ActionListingsList, [4]bool{true, true, true, true}},
		{ActionListingsCreate, [4]bool{false, true, true, true}},
		{ActionListingsModerate, [4]bool{false, false, true, true}},
		{ActionBoostsAll, [4]bool{false, false, true, true}},
		{ActionAdminStats, [4]bool{false, false, false, true}},
		{ActionCategoriesManage, [4]bool{false, false, false, true}},
		{Action("unknown"), [4]bool{false, false, false, false}},
	}
	for _, tc := range cases {
		t.Run(string(tc.action), func(t *testing.T) {
			for i, c := range []domain.Caller{anon, user, mod, admin} {
				assert.Equal(t, tc.want[i], Allowed(tc.action, c), "caller %d", i)
			}
		})
	}
}

func TestEveryActionHasAnAudience(t *testing.T) {
	for action, aud := range Policy {
		assert.GreaterOrEqual(t, int(aud), int(Anyone), action)
		assert.LessOrEqual(t, int(aud), int(AdminOnly), action)
	}
}

func TestAuthorizeStatusCodes(t *testing.T) {
	r := gin.New()
	r.Use(Authenticate(jwtCfg))
	r.GET("/moderate", Authorize(ActionListingsModerate), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"caller": CallerFrom(c).UserID})
	})

	userTok, err := auth.GenerateAccessToken(jwtCfg, 7, "u@example.cm", domain.RoleUser)
	require.NoError(t, err)
	modTok, err := auth.GenerateAccessToken(jwtCfg, 8, "m@example.cm", domain.RoleModerator)
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"anonymous", "", http.StatusUnauthorized},
		{"garbage token", "Bearer nope", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"user", "Bearer " + userTok, http.StatusForbidden},
		{"moderator", "Bearer " + modTok, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/moderate", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}
